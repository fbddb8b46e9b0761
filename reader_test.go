package pack

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/worldiety/packfs/packsource"
)

func buildPackBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	b := NewBuilder()
	b.SetName("demo")
	for path, content := range entries {
		require.NoError(t, b.AddFromBytes(path, []byte(content)))
	}
	var buf bytes.Buffer
	require.NoError(t, b.WriteTo(&buf))
	return buf.Bytes()
}

func TestReaderOpenRoundTrip(t *testing.T) {
	raw := buildPackBytes(t, map[string]string{
		"/a.txt":     "alpha",
		"/b/c.txt":   "bravo",
	})

	r := NewReader()
	require.NoError(t, r.AddFromBytes(raw))

	entry, err := r.Open("/a.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(entry)
	require.NoError(t, err)
	require.Equal(t, "alpha", string(data))
	require.NoError(t, entry.Close())

	entry, err = r.Open("/b/c.txt")
	require.NoError(t, err)
	data, err = io.ReadAll(entry)
	require.NoError(t, err)
	require.Equal(t, "bravo", string(data))
	require.NoError(t, entry.Close())
}

func TestReaderOpenMissingPathNotFound(t *testing.T) {
	raw := buildPackBytes(t, map[string]string{"/a.txt": "alpha"})
	r := NewReader()
	require.NoError(t, r.AddFromBytes(raw))

	_, err := r.Open("/missing.txt")
	require.Error(t, err)
}

func TestReaderContains(t *testing.T) {
	raw := buildPackBytes(t, map[string]string{"/a.txt": "alpha"})
	r := NewReader()
	require.NoError(t, r.AddFromBytes(raw))

	require.True(t, r.Contains("/a.txt"))
	require.False(t, r.Contains("/nope.txt"))
}

func TestReaderQueryInfoAllAttributes(t *testing.T) {
	raw := buildPackBytes(t, map[string]string{"/a.txt": "alpha"})
	r := NewReader()
	require.NoError(t, r.AddFromBytes(raw))

	info, err := r.QueryInfo("/a.txt", "")
	require.NoError(t, err)
	require.Equal(t, "a.txt", info.Name)
	require.EqualValues(t, 5, info.Size)
	require.Equal(t, "regular", info.Type)
	require.True(t, info.Has(AttrSize))
}

func TestReaderQueryInfoSubsetOfAttributes(t *testing.T) {
	raw := buildPackBytes(t, map[string]string{"/a.txt": "alpha"})
	r := NewReader()
	require.NoError(t, r.AddFromBytes(raw))

	info, err := r.QueryInfo("/a.txt", "standard::size")
	require.NoError(t, err)
	require.True(t, info.Has(AttrSize))
	require.False(t, info.Has(AttrName))
}

func TestReaderIngestRejectsDuplicatePathAcrossIngests(t *testing.T) {
	// The Reader-level index already holds a colliding path from an
	// earlier ingest: ingesting the same bytes twice must surface the
	// collision on the second call.
	raw := buildPackBytes(t, map[string]string{"/a.txt": "alpha"})
	r := NewReader()
	require.NoError(t, r.AddFromBytes(raw))
	err := r.AddFromBytes(raw)
	require.Error(t, err)
}

func TestReaderIngestsMultiplePacks(t *testing.T) {
	raw1 := buildPackBytes(t, map[string]string{"/a.txt": "alpha"})
	raw2 := buildPackBytes(t, map[string]string{"/b.txt": "bravo"})

	r := NewReader()
	require.NoError(t, r.AddFromBytes(raw1))
	require.NoError(t, r.AddFromBytes(raw2))

	require.True(t, r.Contains("/a.txt"))
	require.True(t, r.Contains("/b.txt"))
}

// peekRefs reads a Source's current borrower count without leaving it
// changed, since packsource.Source exposes only the mutating Retain/
// Release pair.
func peekRefs(src packsource.Source) int32 {
	n := src.Retain()
	src.Release()
	return n - 1
}

func TestReaderOpenRetainsSourceUntilClose(t *testing.T) {
	raw := buildPackBytes(t, map[string]string{"/a.txt": "alpha"})
	r := NewReader()
	require.NoError(t, r.AddFromBytes(raw))

	entry, ok := r.lookup("/a.txt")
	require.True(t, ok)
	before := peekRefs(entry.pack.source)

	reader, err := r.Open("/a.txt")
	require.NoError(t, err)
	require.EqualValues(t, before+1, peekRefs(entry.pack.source))

	require.NoError(t, reader.Close())
	require.EqualValues(t, before, peekRefs(entry.pack.source))
}

func TestReaderAddFromStreamDrainsNonSeekable(t *testing.T) {
	raw := buildPackBytes(t, map[string]string{"/a.txt": "alpha"})
	r := NewReader()
	require.NoError(t, r.AddFromStream(nonSeekable{bytes.NewReader(raw)}))
	require.True(t, r.Contains("/a.txt"))
}

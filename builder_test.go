package pack

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/worldiety/packfs/packarchive"
)

func TestBuilderWriteToDeterministicOrder(t *testing.T) {
	b := NewBuilder()
	b.SetName("demo")
	require.NoError(t, b.AddFromBytes("/b.txt", []byte("bbb")))
	require.NoError(t, b.AddFromBytes("/a.txt", []byte("aaa")))
	require.NoError(t, b.AddFromBytes("/c/d.txt", []byte("ddd")))

	var buf bytes.Buffer
	require.NoError(t, b.WriteTo(&buf))

	r := NewReader()
	require.NoError(t, r.AddFromBytes(buf.Bytes()))
	require.True(t, r.Contains("/a.txt"))
	require.True(t, r.Contains("/b.txt"))
	require.True(t, r.Contains("/c/d.txt"))

	ar, err := packarchive.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	var names []string
	for {
		hdr, err := ar.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}
	require.Equal(t, []string{packarchive.ManifestName, "a.txt", "b.txt", "c/d.txt"}, names)
}

func TestBuilderOverridesOnDuplicateLogicalPath(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddFromBytes("/a", []byte("v1")))
	require.NoError(t, b.AddFromBytes("/a", []byte("v2")))

	var buf bytes.Buffer
	require.NoError(t, b.WriteTo(&buf))

	r := NewReader()
	require.NoError(t, r.AddFromBytes(buf.Bytes()))
	entry, err := r.Open("/a")
	require.NoError(t, err)
	data, err := io.ReadAll(entry)
	require.NoError(t, err)
	require.Equal(t, "v2", string(data))
	require.NoError(t, entry.Close())
}

func TestBuilderSealsAfterWriteTo(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddFromBytes("/x.txt", []byte("1")))
	var buf bytes.Buffer
	require.NoError(t, b.WriteTo(&buf))

	err := b.AddFromBytes("/y.txt", []byte("2"))
	require.ErrorIs(t, err, ErrSealed)

	err = b.WriteTo(&buf)
	require.ErrorIs(t, err, ErrSealed)
}

func TestAddFromStreamNonSeekableSmallBuffersInMemory(t *testing.T) {
	b := NewBuilder()
	r := strings.NewReader("stream-payload")
	require.NoError(t, b.AddFromStream("/s.txt", nonSeekable{r}, int64(r.Len())))
	require.Empty(t, b.tempFiles)

	var buf bytes.Buffer
	require.NoError(t, b.WriteTo(&buf))

	reader := NewReader()
	require.NoError(t, reader.AddFromBytes(buf.Bytes()))
	entry, err := reader.Open("/s.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(entry)
	require.NoError(t, err)
	require.Equal(t, "stream-payload", string(data))
	require.NoError(t, entry.Close())
}

func TestAddFromStreamAboveThresholdSpillsToDisk(t *testing.T) {
	b := NewBuilder()
	payload := bytes.Repeat([]byte("x"), streamSpillThreshold+1)
	require.NoError(t, b.AddFromStream("/big.bin", nonSeekable{bytes.NewReader(payload)}, int64(len(payload))))
	require.Len(t, b.tempFiles, 1)

	var buf bytes.Buffer
	require.NoError(t, b.WriteTo(&buf))

	reader := NewReader()
	require.NoError(t, reader.AddFromBytes(buf.Bytes()))
	entry, err := reader.Open("/big.bin")
	require.NoError(t, err)
	data, err := io.ReadAll(entry)
	require.NoError(t, err)
	require.Equal(t, payload, data)
	require.NoError(t, entry.Close())
}

// nonSeekable hides any Seek method a wrapped reader might implement, so
// AddFromStream takes the non-rewindable code path under test.
type nonSeekable struct {
	io.Reader
}

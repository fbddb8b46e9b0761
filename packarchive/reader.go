package packarchive

import (
	"archive/tar"
	"bufio"
	"io"

	"github.com/worldiety/packfs/internal/packerr"
)

// Header describes one entry as walked from the tar stream; it carries
// only what the Reader VFS needs to decide whether an entry matches the
// path it is looking for.
type Header struct {
	Name string
	Size int64
}

// Reader walks a pack's entry sequence front to back. It has no
// random-access index of its own: every re-open starts again from the
// manifest and scans linearly, which is why the Reader VFS above it
// keeps its own in-memory index instead of re-scanning per lookup.
type Reader struct {
	tr *tar.Reader
}

// NewReader selects a decompressor from the leading filter byte of src
// and prepares to walk the tar stream behind it.
func NewReader(src io.Reader) (*Reader, error) {
	br := bufio.NewReader(src)
	magic, err := br.ReadByte()
	if err != nil {
		return nil, packerr.Scan("reading filter magic", err)
	}
	codec, err := CodecFor(Filter(magic))
	if err != nil {
		return nil, err
	}
	comp, err := codec.NewReader(br)
	if err != nil {
		return nil, err
	}
	return &Reader{tr: tar.NewReader(comp)}, nil
}

// Next advances to the following entry and returns its header, or
// io.EOF once the archive is exhausted.
func (r *Reader) Next() (*Header, error) {
	hdr, err := r.tr.Next()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, packerr.Scan("reading entry header", err)
	}
	return &Header{Name: hdr.Name, Size: hdr.Size}, nil
}

// Read reads from the current entry's payload, as left positioned by the
// most recent Next call.
func (r *Reader) Read(p []byte) (int, error) {
	return r.tr.Read(p)
}

// EntryReader adapts one entry's payload stream to io.ReadCloser: Close
// releases the underlying source the Reader was walking (the closer
// handed to NewEntryReader) rather than the Reader itself, since a
// single archive Reader is discarded after each positioning scan. The
// decompressor inside the Reader is not closed by Close.
type EntryReader struct {
	*Reader
	underlying io.Closer
	closed     bool
}

// NewEntryReader wraps r so a caller sees a plain ReadCloser over the
// entry currently positioned at by r, releasing underlying on Close.
func NewEntryReader(r *Reader, underlying io.Closer) *EntryReader {
	return &EntryReader{Reader: r, underlying: underlying}
}

func (e *EntryReader) Close() error {
	if e.closed || e.underlying == nil {
		return nil
	}
	e.closed = true
	if err := e.underlying.Close(); err != nil {
		return packerr.Close("closing entry source", err)
	}
	return nil
}

// Package packsource implements the tagged, reference-counted Source
// handle that both the Builder and the Reader VFS use to address bytes
// on disk, in memory, or behind a pre-opened stream. Bytes and File
// sources are freely rewindable; Stream sources carry a busy latch that
// serializes access to whatever single non-seekable reader backs them.
package packsource

import (
	"bytes"
	"io"
	"os"
	"sync/atomic"

	"github.com/worldiety/packfs/internal/packerr"
)

// Reader is the handle Open returns: a seeked-to-zero, independently
// positioned byte stream over one Source.
type Reader interface {
	io.ReadCloser
}

// Source is a handle over one of three backing variants: an in-memory
// buffer, a filesystem path opened on demand, or a pre-opened stream.
// Every Source is safe to share across IndexEntry rows that originate
// from the same pack.
type Source interface {
	// Open yields a fresh reader positioned at offset 0. For Bytes and
	// File sources this always succeeds barring I/O failure; for a Stream
	// source over a non-seekable stream a concurrent Open fails fast with
	// SourceBusy.
	Open() (Reader, error)

	// Size returns the declared size of the source's payload.
	Size() int64

	// Rewindable reports whether Open may be called more than once
	// concurrently.
	Rewindable() bool

	// Retain records one more live borrower of this Source (an open
	// stream adapter returned by Open) and returns the new count.
	Retain() int32

	// Release records that a borrower is done with this Source and
	// returns the new count.
	Release() int32
}

// refCounted is embedded by every Source implementation to track how
// many open stream adapters currently borrow it. A Reader calls Retain
// when it hands out a borrowing adapter over a Source and Release when
// that adapter is closed.
type refCounted struct {
	refs int32
}

// Retain increments the reference count and returns the new count.
func (r *refCounted) Retain() int32 {
	return atomic.AddInt32(&r.refs, 1)
}

// Release decrements the reference count and returns the new count.
func (r *refCounted) Release() int32 {
	return atomic.AddInt32(&r.refs, -1)
}

//== Bytes ==

type bytesSource struct {
	refCounted
	buf []byte
}

// FromBytes wraps buf as a rewindable, freely shareable Source. The
// caller must not mutate buf after handing it to FromBytes.
func FromBytes(buf []byte) Source {
	return &bytesSource{buf: buf}
}

func (s *bytesSource) Open() (Reader, error) {
	return io.NopCloser(bytes.NewReader(s.buf)), nil
}

func (s *bytesSource) Size() int64      { return int64(len(s.buf)) }
func (s *bytesSource) Rewindable() bool { return true }

//== File ==

type fileSource struct {
	refCounted
	path string
	size int64
}

// FromFile wraps path as a rewindable Source; each Open issues a fresh
// file handle. size is the declared payload length (queried once at
// construction time via os.Stat).
func FromFile(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, packerr.IO(err)
	}
	return &fileSource{path: path, size: info.Size()}, nil
}

func (s *fileSource) Open() (Reader, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, packerr.IO(err)
	}
	return f, nil
}

func (s *fileSource) Size() int64      { return s.size }
func (s *fileSource) Rewindable() bool { return true }

//== Stream ==

// Seeker is satisfied by a stream that can be rewound; a Source built
// from a stream that also implements this is treated as rewindable.
type Seeker interface {
	Seek(offset int64, whence int) (int64, error)
}

type streamSource struct {
	refCounted
	stream io.Reader
	size   int64
	busy   atomic.Bool
}

// Drain reads r fully into memory and returns an equivalent rewindable
// Source. Builder.AddFromStream uses this for streams that do not
// implement Seeker and whose declared size is within its spill
// threshold: a non-rewindable input is a local recovery, not a retry.
func Drain(r io.Reader) (Source, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, packerr.IO(err)
	}
	return FromBytes(buf), nil
}

// FromStream wraps a pre-opened stream with its declared size (the
// archive format is length-prefixed, so callers must know it up front).
// The Source is rewindable iff stream also implements Seeker; otherwise
// a second concurrent Open fails fast with SourceBusy rather than
// interleaving reads of the same underlying reader.
func FromStream(stream io.Reader, size int64) Source {
	return &streamSource{stream: stream, size: size}
}

func (s *streamSource) Size() int64 { return s.size }

func (s *streamSource) Rewindable() bool {
	_, ok := s.stream.(Seeker)
	return ok
}

func (s *streamSource) Open() (Reader, error) {
	seeker, seekable := s.stream.(Seeker)
	if !seekable {
		if !s.busy.CompareAndSwap(false, true) {
			return nil, packerr.SourceBusy("")
		}
		return &streamReader{streamSource: s, r: s.stream}, nil
	}
	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		return nil, packerr.IO(err)
	}
	return &streamReader{streamSource: s, r: s.stream}, nil
}

// streamReader releases the busy latch (if it was taken) on Close.
type streamReader struct {
	*streamSource
	r      io.Reader
	closed bool
}

func (r *streamReader) Read(p []byte) (int, error) { return r.r.Read(p) }

func (r *streamReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if !r.Rewindable() {
		r.busy.Store(false)
	}
	return nil
}

package packarchive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"

	"github.com/worldiety/packfs/internal/packerr"
)

// chunkSize is the buffer size WriteEntry reads and forwards through; it
// matches the block size the reference C implementation used for its
// copy loop so a pack built here and one built there move data in the
// same granularity.
const chunkSize = 512

// Writer serializes a manifest entry followed by payload entries into a
// tar stream wrapped by a CompressionCodec, behind a single leading
// filter-identifier byte. It is single-producer: callers must not call
// WriteManifest/WriteEntry concurrently.
type Writer struct {
	sink   *errTrackingWriter
	comp   io.WriteCloser
	tw     *tar.Writer
	closed bool
}

// NewWriter prepares sink to receive a pack: codec (DefaultCodec if nil)
// decides the compression family, and its identifying byte is written to
// sink immediately, uncompressed, so a Reader can select a decompressor
// before it reads anything else.
func NewWriter(sink io.Writer, codec CompressionCodec) (*Writer, error) {
	if codec == nil {
		codec = DefaultCodec
	}
	tracked := &errTrackingWriter{w: sink}
	if _, err := tracked.Write([]byte{byte(codec.Filter())}); err != nil {
		return nil, packerr.Write("writing filter magic", err)
	}
	comp, err := codec.NewWriter(tracked)
	if err != nil {
		return nil, err
	}
	return &Writer{sink: tracked, comp: comp, tw: tar.NewWriter(comp)}, nil
}

// WriteManifest writes m as the fixed first entry of the archive.
func (w *Writer) WriteManifest(m Manifest) error {
	data := m.Encode()
	return w.writeRaw(ManifestName, int64(len(data)), bytes.NewReader(data))
}

// WriteEntry copies size bytes from r into a new tar entry named name.
// Entries must be written in the order the caller wants them to appear;
// the Builder is responsible for ascending-path ordering.
func (w *Writer) WriteEntry(name string, size int64, r io.Reader) error {
	return w.writeRaw(name, size, r)
}

func (w *Writer) writeRaw(name string, size int64, r io.Reader) error {
	hdr := &tar.Header{
		Name:     name,
		Size:     size,
		Mode:     0o644,
		Typeflag: tar.TypeReg,
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return w.wrapError(err)
	}

	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			wn, werr := w.tw.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return w.wrapError(werr)
			}
			if wn != n {
				return w.wrapError(io.ErrShortWrite)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return packerr.IO(rerr)
		}
	}
	if written != size {
		return packerr.Write(fmt.Sprintf("declared size %d but wrote %d bytes for %s", size, written, name), nil)
	}
	return nil
}

// wrapError prefers a failure already observed on the underlying sink
// over whatever secondary error the tar or codec layer reports for it,
// since the sink failure is the root cause and the layers above only
// saw its symptom.
func (w *Writer) wrapError(err error) error {
	if w.sink.err != nil {
		return packerr.Write("sink failure", w.sink.err)
	}
	return packerr.Write(err.Error(), err)
}

// Close flushes the tar footer and the codec trailer. It is idempotent.
// A sink failure observed at any point takes priority in the returned
// error over a close-time failure reported by the tar or codec layer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	tarErr := w.tw.Close()
	compErr := w.comp.Close()
	if w.sink.err != nil {
		return packerr.Write("sink failure", w.sink.err)
	}
	if tarErr != nil {
		return packerr.Close("tar trailer", tarErr)
	}
	if compErr != nil {
		return packerr.Close("codec trailer", compErr)
	}
	return nil
}

// errTrackingWriter remembers the first error any Write call returned, so
// a later failure surfacing from a wrapping layer (tar, the codec) can be
// traced back to the real root cause instead of reported as its own thing.
type errTrackingWriter struct {
	w   io.Writer
	err error
}

func (e *errTrackingWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}

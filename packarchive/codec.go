// Package packarchive implements the on-disk pack container: a single
// leading filter-identifier byte, a compressed byte stream, and inside
// it a standard archive/tar entry sequence (manifest first, payloads in
// canonical-path order). It isolates all container-format knowledge from
// the Builder and Reader VFS, which only see Header/entry-byte streams.
package packarchive

import (
	"compress/gzip"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/worldiety/packfs/internal/packerr"
)

// Filter identifies the compression algorithm wrapping the tar stream.
// It is fixed at build time and recorded as the first byte of the pack
// so a Reader can reject a filter it does not understand.
type Filter byte

const (
	// FilterGzip selects the deflate/gzip family (the default).
	FilterGzip Filter = 'g'
	// FilterZstd selects the zstd family.
	FilterZstd Filter = 'z'
)

// CompressionCodec wraps a raw byte stream with a specific compression
// algorithm on both the write and read side.
type CompressionCodec interface {
	Filter() Filter
	NewWriter(w io.Writer) (io.WriteCloser, error)
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// DefaultCodec is the gzip-family codec, used when the caller does not
// pick one explicitly.
var DefaultCodec CompressionCodec = gzipCodec{}

// CodecFor resolves the codec bound to f, or an Open error if f names an
// algorithm this reader build does not support.
func CodecFor(f Filter) (CompressionCodec, error) {
	switch f {
	case FilterGzip:
		return gzipCodec{}, nil
	case FilterZstd:
		return zstdCodec{}, nil
	default:
		return nil, packerr.Open("unsupported compression filter", nil)
	}
}

//== gzip ==

type gzipCodec struct{}

func (gzipCodec) Filter() Filter { return FilterGzip }

func (gzipCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

func (gzipCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return nil, packerr.Scan("gzip: "+err.Error(), err)
	}
	return gr, nil
}

//== zstd ==

type zstdCodec struct{}

func (zstdCodec) Filter() Filter { return FilterZstd }

func (zstdCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return nil, packerr.Open("zstd: "+err.Error(), err)
	}
	return enc, nil
}

func (zstdCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, packerr.Scan("zstd: "+err.Error(), err)
	}
	return &zstdReadCloser{dec}, nil
}

// zstdReadCloser adapts *zstd.Decoder (whose Close returns nothing) to
// io.ReadCloser.
type zstdReadCloser struct {
	dec *zstd.Decoder
}

func (z *zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return nil
}

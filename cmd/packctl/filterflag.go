package main

import (
	"github.com/spf13/pflag"

	"github.com/worldiety/packfs/internal/packerr"
	"github.com/worldiety/packfs/packarchive"
)

// filterValue binds --filter to a packarchive.CompressionCodec choice,
// implementing pflag.Value directly instead of a plain string flag so an
// unrecognized name is rejected at parse time with a clear error.
type filterValue struct {
	codec packarchive.CompressionCodec
}

func newFilterValue() *filterValue {
	return &filterValue{codec: packarchive.DefaultCodec}
}

func (f *filterValue) String() string {
	if f.codec == nil {
		return "gzip"
	}
	switch f.codec.Filter() {
	case packarchive.FilterZstd:
		return "zstd"
	default:
		return "gzip"
	}
}

func (f *filterValue) Set(s string) error {
	switch s {
	case "gzip":
		f.codec, _ = packarchive.CodecFor(packarchive.FilterGzip)
	case "zstd":
		f.codec, _ = packarchive.CodecFor(packarchive.FilterZstd)
	default:
		return packerr.InvalidField("filter", "must be \"gzip\" or \"zstd\"")
	}
	return nil
}

func (f *filterValue) Type() string { return "gzip|zstd" }

var _ pflag.Value = (*filterValue)(nil)

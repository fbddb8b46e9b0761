package pack

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/google/uuid"

	"github.com/worldiety/packfs/internal/packerr"
	"github.com/worldiety/packfs/internal/plog"
	"github.com/worldiety/packfs/packarchive"
	"github.com/worldiety/packfs/packpath"
	"github.com/worldiety/packfs/packsource"
)

// streamSpillThreshold is the declared-size cutoff above which a
// non-seekable AddFromStream input is spilled to a uniquely named temp
// file instead of buffered in memory.
const streamSpillThreshold = 1 << 20 // 1 MiB

// ErrSealed is returned by every Add* method and by WriteTo once WriteTo
// has been called, successfully or not: a Builder is single-use.
var ErrSealed = packerr.InvalidField("builder", "sealed: WriteTo already called")

type builderEntry struct {
	source packsource.Source
	size   int64
}

// Builder accumulates named byte sources and seals them into a pack. It
// is not goroutine-safe: a single producer is expected to call Add* and
// then WriteTo once.
type Builder struct {
	name        string
	description string
	codec       packarchive.CompressionCodec
	entries     map[packpath.Path]builderEntry
	tempFiles   []string
	sealed      bool
}

// NewBuilder returns an empty Builder using packarchive.DefaultCodec.
func NewBuilder() *Builder {
	return &Builder{entries: make(map[packpath.Path]builderEntry)}
}

// SetName records the pack's manifest name.
func (b *Builder) SetName(name string) { b.name = name }

// SetCodec overrides the compression filter WriteTo seals the pack
// with. A nil codec (the default) uses packarchive.DefaultCodec.
func (b *Builder) SetCodec(codec packarchive.CompressionCodec) { b.codec = codec }

// SetDescription records the pack's manifest description.
func (b *Builder) SetDescription(description string) { b.description = description }

// AddFromBytes adds data under logical path raw, wrapping it as a
// one-shot in-memory reader.
func (b *Builder) AddFromBytes(raw string, data []byte) error {
	return b.add(raw, packsource.FromBytes(data), int64(len(data)))
}

// AddFromFile adds the contents of filename under logical path raw.
func (b *Builder) AddFromFile(raw, filename string) error {
	src, err := packsource.FromFile(filename)
	if err != nil {
		return err
	}
	return b.add(raw, src, src.Size())
}

// AddFromFilename adds the contents of filename under a logical path
// derived from filename itself — a convenience mirroring the original's
// paired add_from_file/add_from_filename entry points.
func (b *Builder) AddFromFilename(filename string) error {
	return b.AddFromFile(filename, filename)
}

// AddFromStream adds size declared bytes read from r under logical path
// raw. A seekable r is referenced directly (rewound before the write
// pass); a non-seekable r is buffered in memory up to
// streamSpillThreshold, and spilled to a uniquely named temp file beyond
// that, since the archive format requires the size up front and cannot
// stream an unbounded source.
func (b *Builder) AddFromStream(raw string, r io.Reader, size int64) error {
	if b.sealed {
		return ErrSealed
	}
	if _, ok := r.(packsource.Seeker); ok {
		return b.add(raw, packsource.FromStream(r, size), size)
	}
	if size > streamSpillThreshold {
		src, err := b.spillToDisk(r, size)
		if err != nil {
			return err
		}
		return b.add(raw, src, size)
	}
	src, err := packsource.Drain(io.LimitReader(r, size))
	if err != nil {
		return err
	}
	return b.add(raw, src, size)
}

func (b *Builder) spillToDisk(r io.Reader, size int64) (packsource.Source, error) {
	f, err := os.CreateTemp("", fmt.Sprintf("packfs-%s-*", uuid.NewString()))
	if err != nil {
		return nil, packerr.IO(err)
	}
	b.tempFiles = append(b.tempFiles, f.Name())
	if _, err := io.Copy(f, io.LimitReader(r, size)); err != nil {
		f.Close()
		return nil, packerr.IO(err)
	}
	if err := f.Close(); err != nil {
		return nil, packerr.IO(err)
	}
	return packsource.FromFile(f.Name())
}

// add stages src under raw's canonical path, overwriting whatever was
// staged there before. Last-writer-wins is deliberate: callers may layer
// defaults and then overrides under the same logical path before sealing.
func (b *Builder) add(raw string, src packsource.Source, size int64) error {
	if b.sealed {
		return ErrSealed
	}
	p := packpath.Clean(raw)
	if _, exists := b.entries[p]; exists {
		plog.WithPath(string(p)).Debug("builder: overriding staged entry")
	}
	b.entries[p] = builderEntry{source: src, size: size}
	plog.WithPath(string(p)).Debug("builder: staged entry")
	return nil
}

// WriteTo seals the builder: it writes the manifest followed by every
// entry in ascending canonical-path order, then the codec trailer. The
// builder is sealed whether WriteTo succeeds or fails; a second call
// returns ErrSealed.
func (b *Builder) WriteTo(w io.Writer) error {
	if b.sealed {
		return ErrSealed
	}
	b.sealed = true
	defer b.cleanupTempFiles()

	codec := b.codec
	if codec == nil {
		codec = packarchive.DefaultCodec
	}
	aw, err := packarchive.NewWriter(w, codec)
	if err != nil {
		return err
	}

	manifest := packarchive.Manifest{
		Name:        b.name,
		Description: b.description,
		EntryCount:  len(b.entries),
		Filter:      codec.Filter(),
	}
	if err := aw.WriteManifest(manifest); err != nil {
		return err
	}

	paths := make([]packpath.Path, 0, len(b.entries))
	for p := range b.entries {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return packpath.Less(paths[i], paths[j]) })

	for _, p := range paths {
		entry := b.entries[p]
		plog.WithPath(string(p)).Debug("builder: writing entry")
		r, err := entry.source.Open()
		if err != nil {
			return err
		}
		writeErr := aw.WriteEntry(p.ArchiveName(), entry.size, r)
		closeErr := r.Close()
		if writeErr != nil {
			return writeErr
		}
		if closeErr != nil {
			return packerr.Close("closing source reader", closeErr)
		}
	}

	return aw.Close()
}

func (b *Builder) cleanupTempFiles() {
	for _, name := range b.tempFiles {
		if err := os.Remove(name); err != nil {
			plog.WithPath(name).Debug("builder: temp file cleanup failed")
		}
	}
	b.tempFiles = nil
}

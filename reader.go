package pack

import (
	"hash/fnv"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/worldiety/packfs/internal/packerr"
	"github.com/worldiety/packfs/internal/plog"
	"github.com/worldiety/packfs/packarchive"
	"github.com/worldiety/packfs/packpath"
	"github.com/worldiety/packfs/packsource"
)

// GIO-flavored attribute names QueryInfo understands, grounded on the
// original's g_file_info_set_attribute_* / G_FILE_ATTRIBUTE_STANDARD_*
// calls.
const (
	AttrName          = "standard::name"
	AttrSize          = "standard::size"
	AttrAllocatedSize = "standard::allocated-size"
	AttrSymlinkTarget = "standard::symlink-target"
	AttrType          = "standard::type"
	AttrTimeAccess    = "time::access"
	AttrTimeCreated   = "time::created"
	AttrTimeChanged   = "time::changed"
	AttrDisplayName   = "standard::display-name"
	AttrEditName      = "standard::edit-name"
	AttrCopyName      = "standard::copy-name"
)

var allAttrs = []string{
	AttrName, AttrSize, AttrAllocatedSize, AttrSymlinkTarget, AttrType,
	AttrTimeAccess, AttrTimeCreated, AttrTimeChanged,
	AttrDisplayName, AttrEditName, AttrCopyName,
}

// Info is the subset of a GIO-style attribute namespace QueryInfo
// populates. Entries a caller did not ask for are left at their zero
// value; use Has to tell "not requested" apart from "zero by nature".
type Info struct {
	Name          string
	Size          int64
	AllocatedSize int64
	SymlinkTarget string
	Type          string
	AccessTime    time.Time
	CreatedTime   time.Time
	ChangedTime   time.Time
	DisplayName   string
	EditName      string
	CopyName      string

	requested map[string]bool
}

// Has reports whether attr was part of the requested attribute set.
func (i *Info) Has(attr string) bool { return i.requested[attr] }

// loadedPack is one archive a Reader has ingested; its Source is reopened
// and re-scanned on every Open/QueryInfo call, since the container format
// carries no seek-by-name index.
type loadedPack struct {
	source packsource.Source
}

type indexKey struct {
	hash uint32
	path packpath.Path
}

type indexEntry struct {
	pack        *loadedPack
	archiveName string
	size        int64
}

// Reader is a read-only VFS over one or more ingested packs. Ingestion
// (Add*) takes a write lock; lookups (Open, Contains, QueryInfo) take a
// read lock and proceed freely against each other.
type Reader struct {
	mu    sync.RWMutex
	index map[indexKey]*indexEntry
	packs []*loadedPack
}

// NewReader returns an empty Reader with nothing ingested yet.
func NewReader() *Reader {
	return &Reader{index: make(map[indexKey]*indexEntry)}
}

// AddFromBytes ingests a pack held entirely in memory.
func (r *Reader) AddFromBytes(data []byte) error {
	return r.ingest(packsource.FromBytes(data))
}

// AddFromFile ingests the pack at filename, re-opened on demand for each
// subsequent Open/QueryInfo call.
func (r *Reader) AddFromFile(filename string) error {
	src, err := packsource.FromFile(filename)
	if err != nil {
		return err
	}
	return r.ingest(src)
}

// AddFromFilename is an alias for AddFromFile, mirroring the original's
// paired entry points.
func (r *Reader) AddFromFilename(filename string) error {
	return r.AddFromFile(filename)
}

// AddFromStream drains the pack stream into memory before ingesting it,
// since scanning requires rewinding to the manifest. Every stream is
// drained, seekable or not; none is referenced directly.
func (r *Reader) AddFromStream(stream io.Reader) error {
	data, err := io.ReadAll(stream)
	if err != nil {
		return packerr.IO(err)
	}
	return r.AddFromBytes(data)
}

// ingest walks src's entry headers and adds each to the index. A
// collision with an already-indexed path fails fast; entries staged
// before the collision from this same pack remain in the index (the
// operation is not atomic, matching the ingestion model's documented
// cost: partial ingestion on failure rather than a rollback).
func (r *Reader) ingest(src packsource.Source) error {
	opened, err := src.Open()
	if err != nil {
		return err
	}
	defer opened.Close()

	ar, err := packarchive.NewReader(opened)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lp := &loadedPack{source: src}
	count := 0
	for {
		hdr, err := ar.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if hdr.Name == packarchive.ManifestName {
			continue
		}
		p := packpath.TrimArchiveRoot(hdr.Name)
		key := indexKey{hash: fnvHash(p.String()), path: p}
		if _, exists := r.index[key]; exists {
			return packerr.DuplicateEntry(string(p))
		}
		r.index[key] = &indexEntry{pack: lp, archiveName: hdr.Name, size: hdr.Size}
		count++
	}
	r.packs = append(r.packs, lp)
	plog.L.WithField("entries", count).Debug("reader: ingested pack")
	return nil
}

// Contains reports whether path resolves to an ingested entry.
func (r *Reader) Contains(path string) bool {
	_, ok := r.lookup(path)
	return ok
}

func (r *Reader) lookup(path string) (*indexEntry, bool) {
	p := packpath.Clean(path)
	key := indexKey{hash: fnvHash(p.String()), path: p}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.index[key]
	return entry, ok
}

// Open returns a stream over path's payload. Positioning re-scans the
// owning pack linearly from its manifest until the matching archive
// entry is reached — the container format has no seek-by-name index, so
// this is the documented cost of Open on a pack VFS. The returned
// EntryReader borrows the owning pack's Source (retained here, released
// on Close): a Source is never forgotten while a stream adapter is
// still reading from it.
func (r *Reader) Open(path string) (*packarchive.EntryReader, error) {
	entry, ok := r.lookup(path)
	if !ok {
		return nil, packerr.NotFound(packpath.Clean(path).String())
	}

	source, err := entry.pack.source.Open()
	if err != nil {
		return nil, err
	}
	ar, err := packarchive.NewReader(source)
	if err != nil {
		source.Close()
		return nil, err
	}
	for {
		hdr, err := ar.Next()
		if err == io.EOF {
			source.Close()
			return nil, packerr.Scan("entry missing on re-scan", nil)
		}
		if err != nil {
			source.Close()
			return nil, err
		}
		if hdr.Name == entry.archiveName {
			break
		}
	}

	entry.pack.source.Retain()
	plog.WithPath(entry.archiveName).Debug("reader: opened entry")
	underlying := &releasingCloser{closer: source, owner: entry.pack.source}
	return packarchive.NewEntryReader(ar, underlying), nil
}

// releasingCloser closes a borrowed packsource.Reader and releases the
// owning Source's borrower count, so EntryReader.Close transparently
// frees the borrow without knowing about packsource at all.
type releasingCloser struct {
	closer io.Closer
	owner  packsource.Source
}

func (c *releasingCloser) Close() error {
	err := c.closer.Close()
	c.owner.Release()
	return err
}

// QueryInfo populates the subset of Info named by attrs (a comma
// separated attribute list; "" means every attribute this Reader
// supports). Packs carry no per-entry timestamps, so the time::*
// attributes are always returned at their zero value.
func (r *Reader) QueryInfo(path string, attrs string) (*Info, error) {
	entry, ok := r.lookup(path)
	if !ok {
		return nil, packerr.NotFound(packpath.Clean(path).String())
	}

	p := packpath.Clean(path)
	wanted := parseAttrs(attrs)
	info := &Info{requested: wanted}
	name := p.Name()

	for attr := range wanted {
		switch attr {
		case AttrName:
			info.Name = name
		case AttrSize:
			info.Size = entry.size
		case AttrAllocatedSize:
			info.AllocatedSize = entry.size
		case AttrSymlinkTarget:
			info.SymlinkTarget = ""
		case AttrType:
			info.Type = "regular"
		case AttrDisplayName:
			info.DisplayName = name
		case AttrEditName:
			info.EditName = name
		case AttrCopyName:
			info.CopyName = name
		case AttrTimeAccess, AttrTimeCreated, AttrTimeChanged:
			// not tracked; left at zero value.
		}
	}
	return info, nil
}

func parseAttrs(attrs string) map[string]bool {
	if strings.TrimSpace(attrs) == "" {
		set := make(map[string]bool, len(allAttrs))
		for _, a := range allAttrs {
			set[a] = true
		}
		return set
	}
	set := make(map[string]bool)
	for _, a := range strings.Split(attrs, ",") {
		set[strings.TrimSpace(a)] = true
	}
	return set
}

func fnvHash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

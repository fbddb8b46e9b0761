// Package descriptor defines the declarative document that drives a
// Builder: a Catalog naming the pack, its optional executable entry
// point, and the alias-to-source mappings a Builder should ingest. Two
// concrete document formats implement Loader: descriptor/kvdesc (a
// static key/value document) and descriptor/luadesc (a restricted Lua
// expression, matching the original descriptor language).
package descriptor

import (
	"context"
	"io"
)

// CatalogEntry names one source to be added to the pack under Alias,
// rooted at Namespace (a pack may group sources the way the original
// grouped them under named sections).
type CatalogEntry struct {
	Namespace      string
	Alias          string
	SourceFilename string
}

// Catalog is the fully-loaded descriptor document. Entry is optional: it
// names the logical path of the pack's executable entry point, for a
// downstream executor that is out of this module's scope.
type Catalog struct {
	Name        string
	Description string
	Entry       string
	Mappings    []CatalogEntry
}

// Loader parses a descriptor document read from r into a Catalog. A
// Loader implementation must not publish any partial state before it
// either returns a fully-populated Catalog or fails outright.
type Loader interface {
	Load(ctx context.Context, r io.Reader) (*Catalog, error)
}

// Package pack implements a packaging engine: a Builder that seals named
// byte sources into a compressed, framed archive, and a read-only Reader
// that ingests one or more sealed archives into a single lookup index.
//
// Logical paths are canonicalized by packpath; byte sources are wrapped
// by packsource; the on-disk container is produced and consumed by
// packarchive. A Builder is driven most conveniently from a descriptor
// document (see the descriptor package), though Add* can also be called
// directly.
package pack

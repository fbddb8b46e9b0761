// Package packpath implements canonicalization for the logical paths
// under which pack entries are stored and resolved. A Path never depends
// on the host OS's separator or path/filepath, since a pack must resolve
// identically regardless of the platform that built or mounts it.
package packpath

import "strings"

// Path is a canonical, rooted, '/'-separated logical path. Two Paths are
// equal iff their string forms are byte-equal.
type Path string

// Root is the canonical empty path.
const Root Path = "/"

// Clean collapses "." segments, clamps ".." at the root instead of
// escaping it, folds repeated separators, and ensures the result begins
// with "/" and has no trailing separator (unless it is the root itself).
func Clean(raw string) Path {
	segments := strings.Split(raw, "/")
	stack := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}
	if len(stack) == 0 {
		return Root
	}
	return Path("/" + strings.Join(stack, "/"))
}

// Names splits the canonical path into its segments.
func (p Path) Names() []string {
	trimmed := strings.Trim(string(p), "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Name returns the last segment, or "" for the root.
func (p Path) Name() string {
	names := p.Names()
	if len(names) == 0 {
		return ""
	}
	return names[len(names)-1]
}

// Parent returns the canonical parent of p.
func (p Path) Parent() Path {
	names := p.Names()
	if len(names) <= 1 {
		return Root
	}
	return Path("/" + strings.Join(names[:len(names)-1], "/"))
}

// String returns the canonical form (Clean is idempotent on its own output).
func (p Path) String() string {
	return string(Clean(string(p)))
}

// TrimArchiveRoot strips a single leading "/" from a pathname recorded in
// an archive (container pathnames are stored without a leading slash per
// the on-disk format) before it is re-rooted by Clean.
func TrimArchiveRoot(pathname string) Path {
	return Clean(strings.TrimPrefix(pathname, "/"))
}

// ArchiveName returns the pathname to record in the archive container for
// p: the canonical form without its leading slash, per the on-disk format.
func (p Path) ArchiveName() string {
	return strings.TrimPrefix(p.String(), "/")
}

// CanonicalizeAlias joins root and alias under a single rooted stack,
// collapsing "." and clamping ".." at the root. An alias that collapses
// to the empty string after normalization resolves to root itself; the
// descriptor layer is expected to reject that case before it reaches here.
func CanonicalizeAlias(root, alias string) Path {
	return Clean(root + "/" + alias)
}

// CanonicalizePackName appends the fixed ".lpack" extension to a sanitized
// copy of name: trailing separators are stripped, internal directory
// components are preserved.
func CanonicalizePackName(name string) string {
	trimmed := strings.TrimRight(name, "/")
	if trimmed == "" {
		trimmed = name
	}
	return trimmed + ".lpack"
}

// Less orders two paths by ascending byte order over their canonical
// forms, used to make Builder emission deterministic.
func Less(a, b Path) bool {
	return a.String() < b.String()
}

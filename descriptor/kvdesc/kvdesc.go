// Package kvdesc implements the static key/value descriptor document: an
// INI-flavored format with a top-level "[pack]" section for Name/
// Description/Entry, and one "[namespace]" section per group of source
// mappings (each line either "alias=source" or a bare "source", in which
// case the source filename is also used as the alias). It is the "pure
// static-data loader" variant the format allows alongside the Lua one.
package kvdesc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/worldiety/packfs/descriptor"
	"github.com/worldiety/packfs/internal/packerr"
)

// Loader implements descriptor.Loader over the key/value document.
type Loader struct{}

// New returns a ready-to-use Loader; it carries no state of its own.
func New() Loader { return Loader{} }

func (Loader) Load(ctx context.Context, r io.Reader) (*descriptor.Catalog, error) {
	cat := &descriptor.Catalog{}
	section := ""
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil, packerr.Cancelled(ctx.Err())
		}
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			continue
		}
		if section == "pack" {
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				return nil, packerr.LoadFailed(fmt.Sprintf("malformed pack field at line %d", lineNo), nil)
			}
			switch strings.TrimSpace(key) {
			case "name":
				cat.Name = strings.TrimSpace(value)
			case "description":
				cat.Description = strings.TrimSpace(value)
			case "entry":
				cat.Entry = strings.TrimSpace(value)
			default:
				return nil, packerr.LoadFailed("unknown pack field "+key, nil)
			}
			continue
		}
		if section == "" {
			return nil, packerr.LoadFailed("mapping line outside any section", nil)
		}
		alias, source, ok := strings.Cut(line, "=")
		if !ok {
			alias, source = line, line
		}
		cat.Mappings = append(cat.Mappings, descriptor.CatalogEntry{
			Namespace:      section,
			Alias:          strings.TrimSpace(alias),
			SourceFilename: strings.TrimSpace(source),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, packerr.LoadFailed("scanning descriptor document", err)
	}
	if cat.Name == "" {
		return nil, packerr.MissingField("name")
	}
	if len(cat.Mappings) == 0 {
		return nil, packerr.LoadFailed("document must declare at least one namespace group", nil)
	}
	return cat, nil
}

// Package luadesc implements the reference descriptor loader: the
// document is a restricted Lua expression evaluating to a table, exactly
// as the original descriptor language defined it. Execution runs in a
// fresh, sandboxed *lua.LState per Load call (only the base, table and
// string libraries are opened, with the base library's file-loading
// functions removed — no os/io/package access from untrusted descriptor
// text).
//
// The table's "name", "description", and "entry" keys populate the
// matching Catalog fields; every other top-level key names a namespace
// group, itself a table of alias=source mappings — string keys give the
// alias explicitly ("main.lua" -> "./main.lua" style), numeric keys use
// the source string as its own alias (a positional entry), mirroring
// the document format's kvdesc counterpart.
package luadesc

import (
	"context"
	"fmt"
	"io"

	lua "github.com/yuin/gopher-lua"

	"github.com/worldiety/packfs/descriptor"
	"github.com/worldiety/packfs/internal/packerr"
)

// Loader implements descriptor.Loader by evaluating the document as Lua.
type Loader struct{}

// New returns a ready-to-use Loader.
func New() Loader { return Loader{} }

func (Loader) Load(ctx context.Context, r io.Reader) (cat *descriptor.Catalog, err error) {
	defer func() {
		// gopher-lua panics on allocation failure inside a constrained
		// state rather than returning an error; surface it as the
		// distinct OutOfMemory kind instead of a generic LoadFailed.
		if rec := recover(); rec != nil {
			cat, err = nil, packerr.OutOfMemory()
		}
	}()

	src, readErr := io.ReadAll(r)
	if readErr != nil {
		return nil, packerr.LoadFailed("reading descriptor document", readErr)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	lua.OpenBase(L)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
	lua.OpenTable(L)
	lua.OpenString(L)

	if ctx.Err() != nil {
		return nil, packerr.Cancelled(ctx.Err())
	}

	if err := L.DoString("return (" + string(src) + ")"); err != nil {
		return nil, packerr.LoadFailed("evaluating descriptor", err)
	}

	result := L.Get(-1)
	table, ok := result.(*lua.LTable)
	if !ok {
		return nil, packerr.LoadFailed(fmt.Sprintf("descriptor must evaluate to a table, got %s", result.Type()), nil)
	}

	out := &descriptor.Catalog{
		Name:        luaString(table, "name"),
		Description: luaString(table, "description"),
		Entry:       luaString(table, "entry"),
	}
	if out.Name == "" {
		return nil, packerr.MissingField("name")
	}

	var loadErr error
	table.ForEach(func(k, v lua.LValue) {
		if loadErr != nil {
			return
		}
		key, ok := k.(lua.LString)
		if !ok {
			// a positional top-level entry is not a namespace group.
			return
		}
		switch string(key) {
		case "name", "description", "entry":
			return
		}
		namespace := string(key)

		nsTable, ok := v.(*lua.LTable)
		if !ok {
			loadErr = packerr.LoadFailed("namespace "+namespace+" must be a table", nil)
			return
		}
		nsTable.ForEach(func(mk, mv lua.LValue) {
			if loadErr != nil {
				return
			}
			source, ok := mv.(lua.LString)
			if !ok {
				loadErr = packerr.LoadFailed("mapping values in namespace "+namespace+" must be strings", nil)
				return
			}
			alias := string(source)
			if aliasKey, ok := mk.(lua.LString); ok {
				alias = string(aliasKey)
			}
			out.Mappings = append(out.Mappings, descriptor.CatalogEntry{
				Namespace:      namespace,
				Alias:          alias,
				SourceFilename: string(source),
			})
		})
	})
	if loadErr != nil {
		return nil, loadErr
	}
	if len(out.Mappings) == 0 {
		return nil, packerr.LoadFailed("document must declare at least one namespace group", nil)
	}

	return out, nil
}

func luaString(t *lua.LTable, key string) string {
	v := t.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// Package rust generates the Rust glue of a module: #[repr(C)] mirrors of
// shared types, exported extern "C" functions that unpack ABI values and
// call the implementation, and safe wrappers around Swift-hosted items.
package rust

import (
	"sort"
	"strings"

	"bridgegen/internal/backend/writer"
	"bridgegen/internal/sema"
	"bridgegen/internal/types"
)

// Notice is the first line of every generated glue file.
const Notice = "// File automatically generated by bridgegen."

const lints = "#[allow(non_snake_case, non_camel_case_types, unused_imports, unused_unsafe, dead_code, clippy::all)]"

// GenerateGlue renders the glue of m as one `pub mod`. Modules that are not
// compiled produce an empty string.
func GenerateGlue(m *sema.Module) string {
	if m == nil || !m.Compiled {
		return ""
	}
	g := &generator{
		mod:   m,
		names: m.Names(),
		w:     writer.New("    "),
	}
	g.w.Line(Notice)
	g.w.Line(lints)
	g.w.Open("pub mod %s", m.Name())
	g.imports()
	for _, info := range m.Types {
		if !info.Emits() {
			continue
		}
		switch info := info.(type) {
		case *sema.OpaqueInfo:
			g.opaque(info)
		case *sema.StructInfo:
			g.sharedStruct(info)
		case *sema.EnumInfo:
			g.sharedEnum(info)
		}
	}
	for _, r := range m.Results {
		for _, s := range r.RustSupport() {
			g.w.Blank()
			g.w.Block(s.Text)
		}
	}
	for _, f := range m.Funcs {
		g.w.Blank()
		if f.Host().IsSwift() {
			g.swiftFunction(f)
		} else {
			g.rustFunction(f)
		}
	}
	g.w.Close("}")
	return g.w.String()
}

type generator struct {
	mod   *sema.Module
	names types.Names
	w     *writer.Writer
}

// ident turns a link name into a Rust identifier.
func ident(link string) string {
	return strings.ReplaceAll(link, "$", "_")
}

// imports brings declarations emitted by other modules into scope. Items
// nobody in the build emits are expected next to the implementation.
func (g *generator) imports() {
	byOwner := make(map[string][]string)
	var owners []string
	for _, imp := range g.mod.Imports {
		names := importedNames(imp.Type)
		if len(names) == 0 {
			continue
		}
		if _, seen := byOwner[imp.Owner]; !seen {
			owners = append(owners, imp.Owner)
		}
		byOwner[imp.Owner] = append(byOwner[imp.Owner], names...)
	}
	sort.Strings(owners)
	for _, owner := range owners {
		path := "super"
		if owner != "" {
			path = "super::" + owner
		}
		names := byOwner[owner]
		sort.Strings(names)
		g.w.Line("use %s::{%s};", path, strings.Join(names, ", "))
	}
	if len(owners) > 0 {
		g.w.Blank()
	}
}

func importedNames(t types.Type) []string {
	switch t := t.(type) {
	case *types.Struct:
		return []string{t.RustType(), t.RustFFIType(), t.OptionRepr()}
	case *types.Enum:
		names := []string{t.RustType(), t.RustFFIType(), t.OptionRepr(), t.TagRepr()}
		if !t.IsTransparent() {
			names = append(names, t.UnionRepr())
			for _, v := range t.Decl.Variants {
				if !v.Fields.Empty() {
					names = append(names, t.FieldsRepr(v.Name))
				}
			}
		}
		return names
	case *types.Opaque:
		switch {
		case t.IsCopy():
			return []string{t.CopyRepr(), t.OptionCopyRepr()}
		case t.Host().IsSwift():
			return []string{t.Decl.Name}
		}
	case *types.Result:
		return []string{t.RustFFIType(), t.UnionRepr()}
	}
	return nil
}

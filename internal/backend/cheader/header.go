// Package cheader generates the flat C ABI header of a module.
package cheader

import (
	"fmt"
	"sort"
	"strings"

	"bridgegen/internal/sema"
	"bridgegen/internal/types"
)

// Notice is the first line of every generated header.
const Notice = "// File automatically generated by bridgegen."

// GenerateHeader renders the header of m, starting with Notice.
func GenerateHeader(m *sema.Module) string {
	return Notice + "\n" + GenerateHeaderBody(m)
}

// GenerateHeaderBody renders the header of m without the notice. It is
// empty for modules that are not compiled or declare nothing the C side
// needs.
func GenerateHeaderBody(m *sema.Module) string {
	if m == nil || !m.Compiled {
		return ""
	}
	g := &generator{
		mod:      m,
		names:    m.Names(),
		includes: make(includeSet),
	}
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
		g.includes.add(r.CIncludes()...)
		for _, s := range r.CSupport() {
			g.support.WriteString(s.Text)
			g.support.WriteByte('\n')
		}
	}
	for _, f := range m.Funcs {
		if f.Host().IsSwift() {
			g.callbackTrampolines(f)
			continue
		}
		g.function(f)
	}
	return g.assemble()
}

type includeSet map[string]struct{}

func (s includeSet) add(names ...string) {
	for _, n := range names {
		s[n] = struct{}{}
	}
}

func (s includeSet) sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// generator accumulates one header. Sections are kept apart so the final
// text can be assembled in a fixed order.
type generator struct {
	mod      *sema.Module
	names    types.Names
	includes includeSet
	decls    strings.Builder
	support  strings.Builder
	protos   strings.Builder
}

func (g *generator) assemble() string {
	var b strings.Builder
	for _, inc := range g.includes.sorted() {
		fmt.Fprintf(&b, "#include <%s>\n", inc)
	}
	for _, elem := range g.mod.Slices {
		fmt.Fprintf(&b, "typedef struct FfiSlice_%s { %s* start; uintptr_t len; } FfiSlice_%s;\n", elem, elem, elem)
	}
	b.WriteString(g.decls.String())
	b.WriteString(g.support.String())
	b.WriteString(g.protos.String())
	return b.String()
}

func (g *generator) opaque(info *sema.OpaqueInfo) {
	d := info.Decl
	if d.Host.IsSwift() || d.Attrs.DeclareGeneric {
		return
	}
	o := info.Type
	seg := d.LinkSegment()
	selfC := "void*"
	if o.IsCopy() {
		g.includes.add("stdint.h", "stdbool.h")
		selfC = o.CopyCName()
		fmt.Fprintf(&g.decls, "typedef struct %s { uint8_t bytes[%d]; } %s;\n", selfC, d.Attrs.Copy.SizeBytes, selfC)
		fmt.Fprintf(&g.decls, "typedef struct %s { bool is_some; %s val; } %s;\n", o.OptionCopyCName(), selfC, o.OptionCopyCName())
	} else {
		fmt.Fprintf(&g.decls, "typedef struct %s %s;\n", seg, seg)
		fmt.Fprintf(&g.decls, "void %s(void* self);\n", g.names.C(seg, "_free"))
	}
	if d.Attrs.Hashable {
		g.includes.add("stdint.h")
		fmt.Fprintf(&g.decls, "uint64_t %s(%s self);\n", g.names.C(seg, "_hash"), selfC)
	}
	if d.Attrs.Equatable {
		g.includes.add("stdint.h", "stdbool.h")
		fmt.Fprintf(&g.decls, "bool %s(%s lhs, %s rhs);\n", g.names.C(seg, "_partial_eq"), selfC, selfC)
	}
	if !o.IsCopy() && !d.IsGeneric() {
		g.vecBundle(d.Name, "void* item_ptr", "void*")
	}
}

// vecBundle declares the eight Vec functions of elem. Opaque types pass
// elements as pointers; transparent enums pass them by value and return
// them through their option wrapper.
func (g *generator) vecBundle(elem, pushParam, elemRet string) {
	g.includes.add("stdint.h")
	vec := func(fn string) string { return g.names.C("Vec_"+elem, fn) }
	fmt.Fprintf(&g.decls, "void* %s(void);\n", vec("new"))
	fmt.Fprintf(&g.decls, "void %s(void* vec_ptr);\n", vec("drop"))
	fmt.Fprintf(&g.decls, "void %s(void* vec_ptr, %s);\n", vec("push"), pushParam)
	fmt.Fprintf(&g.decls, "%s %s(void* vec_ptr);\n", elemRet, vec("pop"))
	fmt.Fprintf(&g.decls, "%s %s(void* vec_ptr, uintptr_t index);\n", elemRet, vec("get"))
	fmt.Fprintf(&g.decls, "%s %s(void* vec_ptr, uintptr_t index);\n", elemRet, vec("get_mut"))
	fmt.Fprintf(&g.decls, "uintptr_t %s(void* vec_ptr);\n", vec("len"))
	fmt.Fprintf(&g.decls, "void* %s(void* vec_ptr);\n", vec("as_ptr"))
}

func (g *generator) sharedStruct(info *sema.StructInfo) {
	st := info.Type
	g.includes.add("stdbool.h")
	var fields []string
	if len(info.Fields) == 0 {
		g.includes.add("stdint.h")
		fields = []string{"uint8_t _private"}
	}
	for i, ft := range info.Fields {
		g.includes.add(ft.CIncludes()...)
		fields = append(fields, ft.CType()+" "+info.Decl.Fields.FieldName(i))
	}
	name, opt := st.CType(), st.OptionCName()
	fmt.Fprintf(&g.decls, "typedef struct %s { %s; } %s;\n", name, strings.Join(fields, "; "), name)
	fmt.Fprintf(&g.decls, "typedef struct %s { bool is_some; %s val; } %s;\n", opt, name, opt)
}

func (g *generator) sharedEnum(info *sema.EnumInfo) {
	e := info.Type
	g.includes.add("stdbool.h")
	name, tag, opt := e.CType(), e.TagCName(), e.OptionCName()

	var variants strings.Builder
	for _, v := range info.Decl.Variants {
		variants.WriteString(e.VariantCName(v.Name))
		variants.WriteString(", ")
	}
	fmt.Fprintf(&g.decls, "typedef enum %s { %s} %s;\n", tag, variants.String(), tag)

	if e.IsTransparent() {
		fmt.Fprintf(&g.decls, "typedef struct %s { %s tag; } %s;\n", name, tag, name)
		fmt.Fprintf(&g.decls, "typedef struct %s { bool is_some; %s val; } %s;\n", opt, name, opt)
		g.vecBundle(info.Decl.Name, name+" item", opt)
		return
	}

	var members []string
	for i, v := range info.Decl.Variants {
		if v.Fields.Empty() {
			continue
		}
		var fields []string
		for j, ft := range info.Variants[i] {
			g.includes.add(ft.CIncludes()...)
			fields = append(fields, ft.CType()+" "+v.Fields.FieldName(j))
		}
		fname := e.FieldsCName(v.Name)
		fmt.Fprintf(&g.decls, "typedef struct %s { %s; } %s;\n", fname, strings.Join(fields, "; "), fname)
		members = append(members, fname+" "+v.Name+";")
	}
	union := e.UnionCName()
	fmt.Fprintf(&g.decls, "union %s { %s };\n", union, strings.Join(members, " "))
	fmt.Fprintf(&g.decls, "typedef struct %s { %s tag; union %s payload; } %s;\n", name, tag, union, name)
	fmt.Fprintf(&g.decls, "typedef struct %s { bool is_some; %s val; } %s;\n", opt, name, opt)
}

func (g *generator) function(f *sema.Func) {
	var params []string
	if f.Receiver != nil {
		g.includes.add(f.Receiver.CIncludes()...)
		params = append(params, f.Receiver.CType()+" self")
	}
	for i, p := range f.Params {
		g.includes.add(p.CIncludes()...)
		params = append(params, p.CType()+" "+f.Decl.Params[i].Name)
	}
	g.includes.add(f.Ret.CIncludes()...)

	if !f.Decl.Async {
		list := "void"
		if len(params) > 0 {
			list = strings.Join(params, ", ")
		}
		fmt.Fprintf(&g.protos, "%s %s(%s);\n", f.Ret.CType(), f.Link, list)
		return
	}

	if len(params) == 0 && types.IsUnit(f.Ret) {
		return
	}
	ret := ""
	if !types.IsUnit(f.Ret) {
		ret = ", " + f.Ret.CType() + " ret"
	}
	rest := ""
	if len(params) > 0 {
		rest = ", " + strings.Join(params, ", ")
	}
	fmt.Fprintf(&g.protos, "void %s(void* callback_wrapper, void %s(void* callback_wrapper%s)%s);\n",
		f.Link, f.AsyncLink(), ret, rest)
}

// callbackTrampolines declares the functions Swift calls to run or drop a
// boxed Rust closure handed to a Swift-hosted function.
func (g *generator) callbackTrampolines(f *sema.Func) {
	for _, cb := range f.Callbacks() {
		if cb.NoArgsNoRet() {
			continue
		}
		params := []string{"void* boxed_fnonce"}
		for i, p := range cb.Params {
			g.includes.add(p.CIncludes()...)
			params = append(params, fmt.Sprintf("%s arg%d", p.CType(), i))
		}
		g.includes.add(cb.Ret.CIncludes()...)
		fmt.Fprintf(&g.protos, "%s %s(%s);\n", cb.Ret.CType(), cb.CallName(), strings.Join(params, ", "))
		fmt.Fprintf(&g.protos, "void %s(void* boxed_fnonce);\n", cb.FreeName())
	}
}

package rust

import (
	"fmt"
	"strings"

	"bridgegen/internal/bridge"
	"bridgegen/internal/sema"
	"bridgegen/internal/types"
)

const maybeUninit = "std::mem::MaybeUninit"

func intoFFIRepr(v string) string { return v + ".into_ffi_repr()" }

func (g *generator) opaque(info *sema.OpaqueInfo) {
	d := info.Decl
	if d.Attrs.DeclareGeneric {
		return
	}
	if d.Host.IsSwift() {
		g.swiftHandle(info.Type)
		return
	}
	o := info.Type
	if o.IsCopy() {
		g.copyMirror(o, d.Attrs.Copy.SizeBytes)
	} else {
		g.freeFn(o)
	}
	if d.Attrs.Hashable {
		g.hashFn(o)
	}
	if d.Attrs.Equatable {
		g.eqFn(o)
	}
	if !o.IsCopy() && !d.IsGeneric() {
		g.opaqueVecBundle(o)
	}
}

// selfParam is the ABI parameter type hash and eq functions take.
func selfParam(o *types.Opaque) (ty string, deref func(string) string) {
	if o.IsCopy() {
		return o.CopyRepr(), func(v string) string { return "&" + v + ".into_rust_repr()" }
	}
	return "*const " + o.RustPath(), func(v string) string { return "unsafe { &*" + v + " }" }
}

func (g *generator) exportFn(link, params, ret string) {
	g.w.Blank()
	g.w.Line("#[export_name = %q]", link)
	if ret == "" {
		g.w.Open("pub extern \"C\" fn %s(%s)", ident(link), params)
		return
	}
	g.w.Open("pub extern \"C\" fn %s(%s) -> %s", ident(link), params, ret)
}

func (g *generator) freeFn(o *types.Opaque) {
	g.exportFn(g.names.C(o.Decl.LinkSegment(), "_free"), "this: *mut "+o.RustPath(), "")
	g.w.Line("let this = unsafe { Box::from_raw(this) };")
	g.w.Line("drop(this);")
	g.w.Close("}")
}

func (g *generator) hashFn(o *types.Opaque) {
	ty, deref := selfParam(o)
	g.exportFn(g.names.C(o.Decl.LinkSegment(), "_hash"), "this: "+ty, "u64")
	g.w.Line("use std::hash::{Hash, Hasher};")
	g.w.Line("let mut hasher = std::collections::hash_map::DefaultHasher::new();")
	g.w.Line("(%s).hash(&mut hasher);", deref("this"))
	g.w.Line("hasher.finish()")
	g.w.Close("}")
}

func (g *generator) eqFn(o *types.Opaque) {
	ty, deref := selfParam(o)
	g.exportFn(g.names.C(o.Decl.LinkSegment(), "_partial_eq"), "lhs: "+ty+", rhs: "+ty, "bool")
	g.w.Line("(%s) == (%s)", deref("lhs"), deref("rhs"))
	g.w.Close("}")
}

// copyMirror defines the byte array a copy type travels as. The transmute
// in the size check only compiles when the type is exactly size bytes.
func (g *generator) copyMirror(o *types.Opaque, size int) {
	repr, opt, path := o.CopyRepr(), o.OptionCopyRepr(), o.RustPath()
	g.w.Blank()
	g.w.Line("#[repr(C)]")
	g.w.Line("#[doc(hidden)]")
	g.w.Line("#[derive(Copy, Clone)]")
	g.w.Line("pub struct %s([u8; %d]);", repr, size)
	g.w.Blank()
	g.w.Open("impl %s", repr)
	g.w.Line("#[inline(always)]")
	g.w.Open("pub fn into_rust_repr(self) -> %s", path)
	g.w.Line("unsafe { std::mem::transmute::<%s, %s>(self) }", repr, path)
	g.w.Close("}")
	g.w.Blank()
	g.w.Line("#[inline(always)]")
	g.w.Open("pub fn from_rust_repr(repr: %s) -> Self", path)
	g.w.Line("unsafe { std::mem::transmute::<%s, %s>(repr) }", path, repr)
	g.w.Close("}")
	g.w.Close("}")
	g.w.Blank()
	g.w.Open("const _: () =")
	g.w.Open("fn size_check(val: %s) -> [u8; %d]", path, size)
	g.w.Line("unsafe { std::mem::transmute::<%s, [u8; %d]>(val) }", path, size)
	g.w.Close("}")
	g.w.Close("};")
	g.optionMirror(opt, repr, path, func(v string) string { return repr + "::from_rust_repr(" + v + ")" })
}

// optionMirror defines the {is_some, val} wrapper of a by-value type and
// its conversions from and to Option<rust>. into converts a rust value to
// repr.
func (g *generator) optionMirror(opt, repr, rust string, into func(string) string) {
	g.w.Blank()
	g.w.Line("#[repr(C)]")
	g.w.Line("#[doc(hidden)]")
	g.w.Open("pub struct %s", opt)
	g.w.Line("is_some: bool,")
	g.w.Line("val: %s<%s>,", maybeUninit, repr)
	g.w.Close("}")
	g.w.Blank()
	g.w.Open("impl %s", opt)
	g.w.Line("#[inline(always)]")
	g.w.Open("pub fn into_rust_repr(self) -> Option<%s>", rust)
	g.w.Open("if self.is_some")
	g.w.Line("Some(unsafe { self.val.assume_init() }.into_rust_repr())")
	g.w.Close("} else {")
	g.w.Indent(func() { g.w.Line("None") })
	g.w.Line("}")
	g.w.Close("}")
	g.w.Blank()
	g.w.Line("#[inline(always)]")
	g.w.Open("pub fn from_rust_repr(val: Option<%s>) -> %s", rust, opt)
	g.w.Open("match val")
	g.w.Line("Some(val) => %s { is_some: true, val: %s::new(%s) },", opt, maybeUninit, into("val"))
	g.w.Line("None => %s { is_some: false, val: %s::uninit() },", opt, maybeUninit)
	g.w.Close("}")
	g.w.Close("}")
	g.w.Close("}")
}

// opaqueVecBundle exports the Vec functions of an opaque type. Elements
// cross as pointers; pop moves the element into a new box.
func (g *generator) opaqueVecBundle(o *types.Opaque) {
	path := o.RustPath()
	vec := "*mut Vec<" + path + ">"
	fn := func(name string) string { return g.names.C("Vec_"+o.Decl.Name, name) }

	g.vecNewDrop(fn, vec)
	g.exportFn(fn("push"), "vec: "+vec+", val: *mut "+path, "")
	g.w.Line("let vec = unsafe { &mut *vec };")
	g.w.Line("vec.push(unsafe { *Box::from_raw(val) });")
	g.w.Close("}")
	g.exportFn(fn("pop"), "vec: "+vec, "*mut "+path)
	g.w.Line("let vec = unsafe { &mut *vec };")
	g.w.Open("if let Some(val) = vec.pop()")
	g.w.Line("Box::into_raw(Box::new(val))")
	g.w.Close("} else {")
	g.w.Indent(func() { g.w.Line("std::ptr::null_mut()") })
	g.w.Line("}")
	g.w.Close("}")
	g.exportFn(fn("get"), "vec: "+vec+", index: usize", "*const "+path)
	g.w.Line("let vec = unsafe { &*vec };")
	g.w.Open("if let Some(val) = vec.get(index)")
	g.w.Line("val as *const %s", path)
	g.w.Close("} else {")
	g.w.Indent(func() { g.w.Line("std::ptr::null()") })
	g.w.Line("}")
	g.w.Close("}")
	g.exportFn(fn("get_mut"), "vec: "+vec+", index: usize", "*mut "+path)
	g.w.Line("let vec = unsafe { &mut *vec };")
	g.w.Open("if let Some(val) = vec.get_mut(index)")
	g.w.Line("val as *mut %s", path)
	g.w.Close("} else {")
	g.w.Indent(func() { g.w.Line("std::ptr::null_mut()") })
	g.w.Line("}")
	g.w.Close("}")
	g.vecLenPtr(fn, vec, path)
}

// enumVecBundle exports the Vec functions of a transparent enum. Elements
// cross by value; lookups return the option wrapper.
func (g *generator) enumVecBundle(e *types.Enum) {
	name, repr, opt := e.RustType(), e.RustFFIType(), e.OptionRepr()
	vec := "*mut Vec<" + name + ">"
	fn := func(n string) string { return g.names.C("Vec_"+name, n) }

	g.vecNewDrop(fn, vec)
	g.exportFn(fn("push"), "vec: "+vec+", val: "+repr, "")
	g.w.Line("let vec = unsafe { &mut *vec };")
	g.w.Line("vec.push(val.into_rust_repr());")
	g.w.Close("}")
	g.exportFn(fn("pop"), "vec: "+vec, opt)
	g.w.Line("let vec = unsafe { &mut *vec };")
	g.w.Line("%s::from_rust_repr(vec.pop())", opt)
	g.w.Close("}")
	g.exportFn(fn("get"), "vec: "+vec+", index: usize", opt)
	g.w.Line("let vec = unsafe { &*vec };")
	g.w.Line("%s::from_rust_repr(vec.get(index).copied())", opt)
	g.w.Close("}")
	g.exportFn(fn("get_mut"), "vec: "+vec+", index: usize", opt)
	g.w.Line("let vec = unsafe { &mut *vec };")
	g.w.Line("%s::from_rust_repr(vec.get_mut(index).map(|val| *val))", opt)
	g.w.Close("}")
	g.vecLenPtr(fn, vec, name)
}

func (g *generator) vecNewDrop(fn func(string) string, vec string) {
	g.exportFn(fn("new"), "", vec)
	g.w.Line("Box::into_raw(Box::new(Vec::new()))")
	g.w.Close("}")
	g.exportFn(fn("drop"), "vec: "+vec, "")
	g.w.Line("let vec = unsafe { Box::from_raw(vec) };")
	g.w.Line("drop(vec);")
	g.w.Close("}")
}

func (g *generator) vecLenPtr(fn func(string) string, vec, elem string) {
	g.exportFn(fn("len"), "vec: "+vec, "usize")
	g.w.Line("let vec = unsafe { &*vec };")
	g.w.Line("vec.len()")
	g.w.Close("}")
	g.exportFn(fn("as_ptr"), "vec: "+vec, "*const "+elem)
	g.w.Line("let vec = unsafe { &*vec };")
	g.w.Line("vec.as_ptr()")
	g.w.Close("}")
}

// swiftHandle defines the owning handle of a Swift-hosted type. Dropping
// it releases the Swift object.
func (g *generator) swiftHandle(o *types.Opaque) {
	name := o.Decl.Name
	free := g.names.C(name, "_free")
	g.w.Blank()
	g.w.Line("#[repr(C)]")
	g.w.Line("pub struct %s(*mut std::ffi::c_void);", name)
	g.w.Blank()
	g.w.Open("impl %s", name)
	g.w.Open("pub fn into_raw(self) -> *mut std::ffi::c_void")
	g.w.Line("let ptr = self.0;")
	g.w.Line("std::mem::forget(self);")
	g.w.Line("ptr")
	g.w.Close("}")
	g.w.Close("}")
	g.w.Blank()
	g.w.Open("impl Drop for %s", name)
	g.w.Open("fn drop(&mut self)")
	g.w.Line("unsafe { %s(self.0) }", ident(free))
	g.w.Close("}")
	g.w.Close("}")
	g.w.Blank()
	g.w.Open("extern \"C\"")
	g.w.Line("#[link_name = %q]", free)
	g.w.Line("fn %s(this: *mut std::ffi::c_void);", ident(free))
	g.w.Close("}")
}

func (g *generator) sharedStruct(info *sema.StructInfo) {
	st, d := info.Type, info.Decl
	name, repr := st.RustType(), st.RustFFIType()

	g.w.Blank()
	g.rustFields("pub struct "+name, d.Fields, info.Fields, func(t types.Type) string { return t.RustType() }, true)
	g.w.Blank()
	g.w.Line("#[repr(C)]")
	g.w.Line("#[doc(hidden)]")
	if d.Fields.Empty() {
		g.w.Open("pub struct %s", repr)
		g.w.Line("_private: u8,")
		g.w.Close("}")
	} else {
		g.w.Open("pub struct %s", repr)
		for i, ft := range info.Fields {
			g.w.Line("%s: %s,", d.Fields.FieldName(i), ft.RustFFIType())
		}
		g.w.Close("}")
	}

	g.w.Blank()
	g.w.Open("impl %s", name)
	g.w.Line("#[doc(hidden)]")
	g.w.Line("#[inline(always)]")
	g.w.Open("pub fn into_ffi_repr(self) -> %s", repr)
	if d.Fields.Empty() {
		g.w.Line("%s { _private: 123 }", repr)
	} else {
		g.w.Open("%s", repr)
		for i, ft := range info.Fields {
			access := d.Fields.FieldName(i)
			if d.Fields.Style == bridge.FieldsUnnamed {
				access = fmt.Sprint(i)
			}
			g.w.Line("%s: %s,", d.Fields.FieldName(i), ft.RustIntoFFI("self."+access))
		}
		g.w.Close("}")
	}
	g.w.Close("}")
	g.w.Close("}")

	g.w.Blank()
	g.w.Open("impl %s", repr)
	g.w.Line("#[doc(hidden)]")
	g.w.Line("#[inline(always)]")
	g.w.Open("pub fn into_rust_repr(self) -> %s", name)
	g.w.Line("let val = self;")
	g.w.Line("%s", construct(name, d.Fields, info.Fields, "val."))
	g.w.Close("}")
	g.w.Close("}")

	g.optionMirror(st.OptionRepr(), repr, name, intoFFIRepr)
}

// rustFields writes a struct or variant definition in the style it was
// declared with.
func (g *generator) rustFields(head string, fields bridge.StructFields, tys []types.Type, spell func(types.Type) string, pub bool) {
	vis := ""
	if pub {
		vis = "pub "
	}
	switch {
	case fields.Style == bridge.FieldsUnit || (fields.Empty() && fields.Style != bridge.FieldsNamed):
		g.w.Line("%s;", head)
	case fields.Style == bridge.FieldsUnnamed:
		parts := make([]string, len(tys))
		for i, t := range tys {
			parts[i] = vis + spell(t)
		}
		g.w.Line("%s(%s);", head, strings.Join(parts, ", "))
	default:
		g.w.Open("%s", head)
		for i, t := range tys {
			g.w.Line("%s%s: %s,", vis, fields.FieldName(i), spell(t))
		}
		g.w.Close("}")
	}
}

// construct builds a value of name from ABI fields found under prefix.
func construct(name string, fields bridge.StructFields, tys []types.Type, prefix string) string {
	args := make([]string, len(tys))
	for i, t := range tys {
		args[i] = t.RustFromFFI(prefix + fields.FieldName(i))
	}
	switch {
	case len(args) == 0 && fields.Style == bridge.FieldsNamed:
		return name + " {}"
	case len(args) == 0:
		return name
	case fields.Style == bridge.FieldsUnnamed:
		return name + "(" + strings.Join(args, ", ") + ")"
	default:
		named := make([]string, len(args))
		for i, a := range args {
			named[i] = fields.FieldName(i) + ": " + a
		}
		return name + " { " + strings.Join(named, ", ") + " }"
	}
}

func (g *generator) sharedEnum(info *sema.EnumInfo) {
	e, d := info.Type, info.Decl
	name, repr, tag := e.RustType(), e.RustFFIType(), e.TagRepr()

	g.w.Blank()
	if e.IsTransparent() {
		g.w.Line("#[derive(Copy, Clone, PartialEq, Debug)]")
	}
	g.w.Open("pub enum %s", name)
	for i, v := range d.Variants {
		g.variantDef(v, info.Variants[i])
	}
	g.w.Close("}")

	g.w.Blank()
	g.w.Line("#[repr(C)]")
	g.w.Line("#[doc(hidden)]")
	g.w.Line("#[derive(Copy, Clone, PartialEq)]")
	g.w.Open("pub enum %s", tag)
	for _, v := range d.Variants {
		g.w.Line("%s,", v.Name)
	}
	g.w.Close("}")

	if !e.IsTransparent() {
		g.enumPayload(info)
	}

	g.w.Blank()
	g.w.Line("#[repr(C)]")
	g.w.Line("#[doc(hidden)]")
	g.w.Open("pub struct %s", repr)
	g.w.Line("tag: %s,", tag)
	if !e.IsTransparent() {
		g.w.Line("payload: %s,", e.UnionRepr())
	}
	g.w.Close("}")

	g.w.Blank()
	g.w.Open("impl %s", name)
	g.w.Line("#[doc(hidden)]")
	g.w.Line("#[inline(always)]")
	g.w.Open("pub fn into_ffi_repr(self) -> %s", repr)
	g.w.Open("match self")
	for i, v := range d.Variants {
		g.w.Line("%s => %s,", pattern(name, v), g.variantIntoFFI(e, v, info.Variants[i]))
	}
	g.w.Close("}")
	g.w.Close("}")
	g.w.Close("}")

	g.w.Blank()
	g.w.Open("impl %s", repr)
	g.w.Line("#[doc(hidden)]")
	g.w.Line("#[inline(always)]")
	g.w.Open("pub fn into_rust_repr(self) -> %s", name)
	g.w.Open("match self.tag")
	for i, v := range d.Variants {
		if v.Fields.Empty() {
			g.w.Line("%s::%s => %s::%s,", tag, v.Name, name, v.Name)
			continue
		}
		g.w.Open("%s::%s =>", tag, v.Name)
		g.w.Line("let val = std::mem::ManuallyDrop::into_inner(unsafe { self.payload.%s });", v.Name)
		g.w.Line("%s", construct(name+"::"+v.Name, v.Fields, info.Variants[i], "val."))
		g.w.Close("}")
	}
	g.w.Close("}")
	g.w.Close("}")
	g.w.Close("}")

	g.optionMirror(e.OptionRepr(), repr, name, intoFFIRepr)
	if e.IsTransparent() {
		g.enumVecBundle(e)
	}
}

func (g *generator) variantDef(v bridge.EnumVariant, tys []types.Type) {
	spell := func(t types.Type) string { return t.RustType() }
	switch {
	case v.Fields.Empty():
		g.w.Line("%s,", v.Name)
	case v.Fields.Style == bridge.FieldsUnnamed:
		parts := make([]string, len(tys))
		for i, t := range tys {
			parts[i] = spell(t)
		}
		g.w.Line("%s(%s),", v.Name, strings.Join(parts, ", "))
	default:
		g.w.Open("%s", v.Name)
		for i, t := range tys {
			g.w.Line("%s: %s,", v.Fields.FieldName(i), spell(t))
		}
		g.w.Close("},")
	}
}

// enumPayload defines one fields struct per data variant and the union
// holding them.
func (g *generator) enumPayload(info *sema.EnumInfo) {
	e := info.Type
	for i, v := range info.Decl.Variants {
		if v.Fields.Empty() {
			continue
		}
		g.w.Blank()
		g.w.Line("#[repr(C)]")
		g.w.Line("#[doc(hidden)]")
		g.w.Open("pub struct %s", e.FieldsRepr(v.Name))
		for j, ft := range info.Variants[i] {
			g.w.Line("%s: %s,", v.Fields.FieldName(j), ft.RustFFIType())
		}
		g.w.Close("}")
	}
	g.w.Blank()
	g.w.Line("#[repr(C)]")
	g.w.Line("#[doc(hidden)]")
	g.w.Open("pub union %s", e.UnionRepr())
	for _, v := range info.Decl.Variants {
		if v.Fields.Empty() {
			continue
		}
		g.w.Line("%s: std::mem::ManuallyDrop<%s>,", v.Name, e.FieldsRepr(v.Name))
	}
	g.w.Close("}")
}

// pattern matches variant v and binds its fields to their generated names.
func pattern(enum string, v bridge.EnumVariant) string {
	path := enum + "::" + v.Name
	if v.Fields.Empty() {
		return path
	}
	names := make([]string, len(v.Fields.List))
	for i := range v.Fields.List {
		names[i] = v.Fields.FieldName(i)
	}
	if v.Fields.Style == bridge.FieldsUnnamed {
		return path + "(" + strings.Join(names, ", ") + ")"
	}
	return path + " { " + strings.Join(names, ", ") + " }"
}

func (g *generator) variantIntoFFI(e *types.Enum, v bridge.EnumVariant, tys []types.Type) string {
	tag := e.TagRepr() + "::" + v.Name
	if e.IsTransparent() {
		return e.RustFFIType() + " { tag: " + tag + " }"
	}
	if v.Fields.Empty() {
		return e.RustFFIType() + " { tag: " + tag + ", payload: unsafe { std::mem::zeroed() } }"
	}
	fields := make([]string, len(tys))
	for i, t := range tys {
		n := v.Fields.FieldName(i)
		fields[i] = n + ": " + t.RustIntoFFI(n)
	}
	payload := e.UnionRepr() + " { " + v.Name + ": std::mem::ManuallyDrop::new(" +
		e.FieldsRepr(v.Name) + " { " + strings.Join(fields, ", ") + " }) }"
	return e.RustFFIType() + " { tag: " + tag + ", payload: " + payload + " }"
}

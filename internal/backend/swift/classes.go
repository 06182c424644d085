package swift

import (
	"strconv"
	"strings"

	"bridgegen/internal/bridge"
	"bridgegen/internal/sema"
	"bridgegen/internal/types"
)

func (g *generator) opaque(info *sema.OpaqueInfo) {
	d, o := info.Decl, info.Type
	switch {
	case d.Host.IsSwift():
		if info.Emit {
			g.swiftFree(d)
		}
	case d.Attrs.DeclareGeneric:
		if info.Emit {
			g.genericClasses(d)
		}
	case o.IsCopy():
		g.copyStruct(info)
	default:
		g.classes(info)
	}
}

// swiftFree exports the release function the Rust handle calls on drop.
func (g *generator) swiftFree(d *bridge.OpaqueType) {
	free := g.names.C(d.Name, "_free")
	g.w.Line("@_cdecl(%q)", free)
	g.w.Open("func %s(ptr: UnsafeMutableRawPointer)", ident(free))
	g.w.Line("let _ = Unmanaged<%s>.fromOpaque(ptr).takeRetainedValue()", d.Name)
	g.w.Close("}")
}

// methodsByClass splits the Rust-hosted functions of decl by the class of
// the triple they belong to.
func (g *generator) methodsByClass(decl *bridge.OpaqueType) (owned, refMut, ref []*sema.Func) {
	for _, f := range g.mod.Methods(decl) {
		if f.Host().IsSwift() {
			continue
		}
		switch f.Decl.Receiver {
		case bridge.ReceiverRef:
			ref = append(ref, f)
		case bridge.ReceiverRefMut:
			refMut = append(refMut, f)
		default:
			owned = append(owned, f)
		}
	}
	return owned, refMut, ref
}

// classes writes the owned/RefMut/Ref triple of a Rust-hosted handle. Each
// class is followed by an extension holding the methods callable on it.
func (g *generator) classes(info *sema.OpaqueInfo) {
	d, o := info.Decl, info.Type
	owned, refMut, ref := g.methodsByClass(d)
	free := g.names.C(d.LinkSegment(), "_free")

	if info.Emit && !o.IsGeneric() {
		g.w.Open("public class %s: %s", d.Name, d.Name+"RefMut")
		g.w.Line("var isOwned: Bool = true")
		g.w.Blank()
		g.w.Open("public override init(ptr: UnsafeMutableRawPointer)")
		g.w.Line("super.init(ptr: ptr)")
		g.w.Close("}")
		g.w.Blank()
		g.w.Open("deinit")
		g.w.Open("if isOwned")
		g.w.Line("%s(ptr)", free)
		g.w.Close("}")
		g.w.Close("}")
		g.w.Close("}")
	}
	g.extension(o, types.RefNone, owned)
	if info.Emit && !o.IsGeneric() {
		g.w.Open("public class %sRefMut: %sRef", d.Name, d.Name)
		g.w.Open("public override init(ptr: UnsafeMutableRawPointer)")
		g.w.Line("super.init(ptr: ptr)")
		g.w.Close("}")
		g.w.Close("}")
	}
	g.extension(o, types.RefMut, refMut)
	if info.Emit && !o.IsGeneric() {
		g.w.Open("public class %sRef", d.Name)
		g.w.Line("var ptr: UnsafeMutableRawPointer")
		g.w.Blank()
		g.w.Open("public init(ptr: UnsafeMutableRawPointer)")
		g.w.Line("self.ptr = ptr")
		g.w.Close("}")
		g.w.Close("}")
	}
	g.extension(o, types.RefShared, ref)

	if !info.Emit {
		return
	}
	if o.IsGeneric() {
		g.genericFreer(o)
		return
	}
	g.conformances(o, d.Name+"Ref", "ptr")
	g.opaqueVectorizable(o)
}

// extension writes the methods of one class of the triple. Methods of a
// generic instance extend the generic class constrained to its arguments.
func (g *generator) extension(o *types.Opaque, ref types.RefKind, fns []*sema.Func) {
	if len(fns) == 0 {
		return
	}
	if o.IsGeneric() {
		g.w.Open("extension %s where %s", strings.TrimSuffix(o.SwiftClass(ref), genericArgs(o)), g.whereClause(o))
	} else {
		g.w.Open("extension %s", o.SwiftClass(ref))
	}
	for _, f := range fns {
		g.w.Blank()
		g.method(f)
	}
	g.w.Close("}")
}

// method writes one Rust-hosted method, static function or initializer.
func (g *generator) method(f *sema.Func) {
	switch {
	case f.Decl.Init && f.Self.IsCopy():
		g.w.Open("public init(%s)", g.params(f))
	case f.Decl.Init:
		g.w.Open("public convenience init(%s)", g.params(f))
	case f.Receiver == nil:
		g.w.Open("public static func %s", g.signature(f))
	default:
		g.w.Open("public func %s", g.signature(f))
	}
	g.body(f)
	g.w.Close("}")
}

func genericArgs(o *types.Opaque) string {
	name := o.SwiftClass(types.RefNone)
	return name[len(o.Decl.Name):]
}

// genericParams names the type parameters of the generic behind o.
func (g *generator) genericParams(o *types.Opaque) []string {
	if decl, ok := g.mod.Resolver.Generic(o.Decl.Name); ok && len(decl.GenericParams) == len(o.Generics) {
		return decl.GenericParams
	}
	params := make([]string, len(o.Generics))
	for i := range params {
		params[i] = "T" + strconv.Itoa(i)
	}
	return params
}

// whereClause binds the type parameters of the generic to the arguments
// of instance o, e.g. "A == UInt8, B == UInt16".
func (g *generator) whereClause(o *types.Opaque) string {
	params := g.genericParams(o)
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p + " == " + o.Generics[i].SwiftType(types.Field)
	}
	return strings.Join(parts, ", ")
}

// genericClasses writes the class triple of a declare_generic type. Each
// instance supplies the free function through SwiftBridgeGenericFreer.
func (g *generator) genericClasses(d *bridge.OpaqueType) {
	params := "<" + strings.Join(d.GenericParams, ", ") + ">"
	g.w.Open("public class %s%s: %sRefMut%s", d.Name, params, d.Name, params)
	g.w.Line("var isOwned: Bool = true")
	g.w.Blank()
	g.w.Open("public override init(ptr: UnsafeMutableRawPointer)")
	g.w.Line("super.init(ptr: ptr)")
	g.w.Close("}")
	g.w.Blank()
	g.w.Open("deinit")
	g.w.Open("if isOwned")
	g.w.Line("(self as! SwiftBridgeGenericFreer).rust_free()")
	g.w.Close("}")
	g.w.Close("}")
	g.w.Close("}")
	g.w.Open("public class %sRefMut%s: %sRef%s", d.Name, params, d.Name, params)
	g.w.Open("public override init(ptr: UnsafeMutableRawPointer)")
	g.w.Line("super.init(ptr: ptr)")
	g.w.Close("}")
	g.w.Close("}")
	g.w.Open("public class %sRef%s", d.Name, params)
	g.w.Line("var ptr: UnsafeMutableRawPointer")
	g.w.Blank()
	g.w.Open("public init(ptr: UnsafeMutableRawPointer)")
	g.w.Line("self.ptr = ptr")
	g.w.Close("}")
	g.w.Close("}")
}

func (g *generator) genericFreer(o *types.Opaque) {
	g.w.Open("extension %s: SwiftBridgeGenericFreer where %s", o.Decl.Name, g.whereClause(o))
	g.w.Open("public func rust_free()")
	g.w.Line("%s(ptr)", g.names.C(o.Decl.LinkSegment(), "_free"))
	g.w.Close("}")
	g.w.Close("}")
}

// conformances adds Equatable and Hashable backed by the exported
// comparison and hash functions. Hashable is only declared alongside
// Equatable.
func (g *generator) conformances(o *types.Opaque, class, field string) {
	d := o.Decl
	seg := d.LinkSegment()
	if d.Attrs.Equatable {
		g.w.Open("extension %s: Equatable", class)
		g.w.Open("public static func == (lhs: %s, rhs: %s) -> Bool", class, class)
		g.w.Line("%s(lhs.%s, rhs.%s)", g.names.C(seg, "_partial_eq"), field, field)
		g.w.Close("}")
		g.w.Close("}")
	}
	if d.Attrs.Hashable && d.Attrs.Equatable {
		g.w.Open("extension %s: Hashable", class)
		g.w.Open("public func hash(into hasher: inout Hasher)")
		g.w.Line("hasher.combine(%s(self.%s))", g.names.C(seg, "_hash"), field)
		g.w.Close("}")
		g.w.Close("}")
	}
}

// opaqueVectorizable lets RustVec hold the handle. Elements cross as
// pointers, pushing gives up ownership.
func (g *generator) opaqueVectorizable(o *types.Opaque) {
	name := o.Decl.Name
	vec := func(fn string) string { return g.names.C("Vec_"+name, fn) }
	g.w.Open("extension %s: Vectorizable", name)
	g.w.Open("public static func vecOfSelfNew() -> UnsafeMutableRawPointer")
	g.w.Line("%s()", vec("new"))
	g.w.Close("}")
	g.w.Blank()
	g.w.Open("public static func vecOfSelfFree(vecPtr: UnsafeMutableRawPointer)")
	g.w.Line("%s(vecPtr)", vec("drop"))
	g.w.Close("}")
	g.w.Blank()
	g.w.Open("public static func vecOfSelfPush(vecPtr: UnsafeMutableRawPointer, value: %s)", name)
	g.w.Line("%s(vecPtr, {value.isOwned = false; return value.ptr;}())", vec("push"))
	g.w.Close("}")
	g.w.Blank()
	g.w.Open("public static func vecOfSelfPop(vecPtr: UnsafeMutableRawPointer) -> Optional<Self>")
	g.w.Line("let pointer = %s(vecPtr)", vec("pop"))
	g.nilOr("(" + name + "(ptr: pointer!) as! Self)")
	g.w.Close("}")
	for _, access := range []struct {
		fn, class string
	}{{"get", name + "Ref"}, {"get_mut", name + "RefMut"}} {
		method := "vecOfSelfGet"
		if access.fn == "get_mut" {
			method = "vecOfSelfGetMut"
		}
		g.w.Blank()
		g.w.Open("public static func %s(vecPtr: UnsafeMutableRawPointer, index: UInt) -> Optional<%s>", method, access.class)
		g.w.Line("let pointer = %s(vecPtr, index)", vec(access.fn))
		g.nilOr(access.class + "(ptr: pointer!)")
		g.w.Close("}")
	}
	g.w.Blank()
	g.w.Open("public static func vecOfSelfAsPtr(vecPtr: UnsafeMutableRawPointer) -> UnsafePointer<%sRef>", name)
	g.w.Line("UnsafePointer<%sRef>(OpaquePointer(%s(vecPtr)))", name, vec("as_ptr"))
	g.w.Close("}")
	g.w.Blank()
	g.w.Open("public static func vecOfSelfLen(vecPtr: UnsafeMutableRawPointer) -> UInt")
	g.w.Line("%s(vecPtr)", vec("len"))
	g.w.Close("}")
	g.w.Close("}")
}

func (g *generator) nilOr(val string) {
	g.w.Open("if pointer == nil")
	g.w.Line("return nil")
	g.w.Close("} else {")
	g.w.Indent(func() { g.w.Line("return %s", val) })
	g.w.Line("}")
}

// copyStruct mirrors a copy type as a value type holding its bytes.
func (g *generator) copyStruct(info *sema.OpaqueInfo) {
	d, o := info.Decl, info.Type
	name, bytes, opt := d.Name, o.CopyCName(), o.OptionCopyCName()
	if info.Emit {
		g.w.Open("public struct %s", name)
		g.w.Line("var bytes: %s", bytes)
		g.w.Blank()
		g.w.Open("init(bytes: %s)", bytes)
		g.w.Line("self.bytes = bytes")
		g.w.Close("}")
		g.w.Close("}")
	}
	var methods []*sema.Func
	for _, f := range g.mod.Methods(d) {
		if !f.Host().IsSwift() {
			methods = append(methods, f)
		}
	}
	if len(methods) > 0 {
		g.w.Open("extension %s", name)
		for _, f := range methods {
			g.w.Blank()
			g.method(f)
		}
		g.w.Close("}")
	}
	if !info.Emit {
		return
	}
	g.optionExtensions(name, opt, bytes+"()", func(v string) string { return name + "(bytes: " + v + ")" }, func(v string) string { return v + ".bytes" })
	g.conformances(o, name, "bytes")
}

// optionExtensions converts between Optional<name> and its C wrapper opt.
// zero is a placeholder value stored when the option is empty.
func (g *generator) optionExtensions(name, opt, zero string, fromFFI, intoFFI func(string) string) {
	g.w.Open("extension %s", opt)
	g.w.Open("@inline(__always) func intoSwiftRepr() -> Optional<%s>", name)
	g.w.Open("if self.is_some")
	g.w.Line("return %s", fromFFI("self.val"))
	g.w.Close("} else {")
	g.w.Indent(func() { g.w.Line("return nil") })
	g.w.Line("}")
	g.w.Close("}")
	g.w.Close("}")
	g.w.Open("extension Optional where Wrapped == %s", name)
	g.w.Open("@inline(__always) func intoFfiRepr() -> %s", opt)
	g.w.Open("if let v = self")
	g.w.Line("return %s(is_some: true, val: %s)", opt, intoFFI("v"))
	g.w.Close("} else {")
	g.w.Indent(func() { g.w.Line("return %s(is_some: false, val: %s)", opt, zero) })
	g.w.Line("}")
	g.w.Close("}")
	g.w.Close("}")
}

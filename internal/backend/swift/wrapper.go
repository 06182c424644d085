// Package swift generates the Swift side of a module: ownership-tracking
// classes for Rust-hosted handles, value types mirroring shared structs and
// enums, wrappers calling the flat ABI, and @_cdecl exports for
// Swift-hosted functions.
package swift

import (
	"strings"

	"bridgegen/internal/backend/writer"
	"bridgegen/internal/sema"
	"bridgegen/internal/types"
)

// Notice is the first line of every generated Swift file.
const Notice = "// File automatically generated by bridgegen."

// GenerateWrapper renders the Swift code of m. Modules that are not compiled
// produce an empty string.
func GenerateWrapper(m *sema.Module) string {
	if m == nil || !m.Compiled {
		return ""
	}
	g := &generator{
		mod:   m,
		names: m.Names(),
		w:     writer.New("    "),
		tail:  writer.New("    "),
	}
	g.w.Line(Notice)
	for _, f := range m.FreeFuncs() {
		if f.Host().IsSwift() {
			continue
		}
		g.w.Open("public func %s", g.signature(f))
		g.body(f)
		g.w.Close("}")
	}
	for _, info := range m.Types {
		switch info := info.(type) {
		case *sema.OpaqueInfo:
			g.opaque(info)
		case *sema.StructInfo:
			if info.Emit {
				g.sharedStruct(info)
			}
		case *sema.EnumInfo:
			if info.Emit {
				g.sharedEnum(info)
			}
		}
	}
	for _, f := range m.Funcs {
		if f.Host().IsSwift() {
			g.swiftExport(f)
		}
	}
	return g.w.String() + g.tail.String()
}

type generator struct {
	mod   *sema.Module
	names types.Names
	w     *writer.Writer
	// tail collects helper classes placed after everything else.
	tail *writer.Writer
}

// params renders the unlabelled parameter list of a Rust-hosted function.
func (g *generator) params(f *sema.Func) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = "_ " + f.Decl.Params[i].Name + ": " + p.SwiftType(types.Outgoing)
	}
	return strings.Join(params, ", ")
}

// signature renders name(params) [async] [-> R] of a Rust-hosted function.
func (g *generator) signature(f *sema.Func) string {
	s := f.Decl.SwiftFuncName() + "(" + g.params(f) + ")"
	if f.Decl.Async {
		s += " async"
	}
	if !types.IsUnit(f.Ret) {
		s += " -> " + f.Ret.SwiftType(types.Incoming)
	}
	return s
}

// receiverArg is the ABI form of self. Calling an owned method gives the
// handle away, so the flag flips before the pointer is passed.
func receiverArg(f *sema.Func) string {
	o, ok := f.Receiver.(*types.Opaque)
	switch {
	case !ok:
		return ""
	case o.IsCopy():
		return "self.bytes"
	case o.Ref == types.RefNone:
		return "{isOwned = false; return ptr;}()"
	default:
		return "ptr"
	}
}

// ffiArgs lists the ABI arguments of a Rust-hosted call.
func ffiArgs(f *sema.Func) []string {
	var args []string
	if f.Receiver != nil {
		args = append(args, receiverArg(f))
	}
	for i, p := range f.Params {
		args = append(args, p.SwiftIntoFFI(f.Decl.Params[i].Name, types.Outgoing))
	}
	return args
}

// scoped wraps expr in the closures that keep borrowed arguments alive.
func scoped(f *sema.Func, expr string) string {
	for i := len(f.Params) - 1; i >= 0; i-- {
		if s, ok := f.Params[i].(types.ScopedParam); ok {
			expr = s.SwiftScope(f.Decl.Params[i].Name, expr)
		}
	}
	return expr
}

// body writes the statements of a Rust-hosted wrapper.
func (g *generator) body(f *sema.Func) {
	if f.Decl.Async {
		g.asyncBody(f)
		return
	}
	call := f.Link + "(" + strings.Join(ffiArgs(f), ", ") + ")"
	if f.Decl.Init {
		field := "ptr"
		if f.Self.IsCopy() {
			field = "bytes"
		}
		g.w.Block("let " + field + " = " + scoped(f, call))
		g.w.Line("self.init(%s: %s)", field, field)
		return
	}
	if !types.IsUnit(f.Ret) {
		call = f.Ret.SwiftFromFFI(call, types.Incoming)
	}
	g.w.Block(scoped(f, call))
}

// headerless reports async functions the C header does not declare.
func headerless(f *sema.Func) bool {
	return f.Decl.Async && len(f.Params) == 0 && f.Receiver == nil && types.IsUnit(f.Ret)
}

// ident turns a link name into a plain Swift identifier.
func ident(link string) string {
	return strings.ReplaceAll(link, "$", "_")
}

// asyncBody suspends on a checked continuation. The retained wrapper is
// released by the completion trampoline, which Rust calls exactly once.
func (g *generator) asyncBody(f *sema.Func) {
	wrapper := "CbWrapper" + f.Link
	ret := "()"
	if types.IsUnit(f.Ret) {
		g.w.Open("func onComplete(cbWrapperPtr: UnsafeMutableRawPointer?)")
		g.w.Line("let wrapper = Unmanaged<%s>.fromOpaque(cbWrapperPtr!).takeRetainedValue()", wrapper)
		g.w.Line("wrapper.cb()")
	} else {
		ret = f.Ret.SwiftType(types.Incoming)
		ffiTy, val := f.Ret.SwiftFFIType(), "rustFnRetVal"
		if ffiTy == "UnsafeMutableRawPointer" {
			ffiTy, val = ffiTy+"?", val+"!"
		}
		g.w.Open("func onComplete(cbWrapperPtr: UnsafeMutableRawPointer?, rustFnRetVal: %s)", ffiTy)
		g.w.Line("let wrapper = Unmanaged<%s>.fromOpaque(cbWrapperPtr!).takeRetainedValue()", wrapper)
		g.w.Line("wrapper.cb(%s)", f.Ret.SwiftFromFFI(val, types.Incoming))
	}
	g.w.Close("}")
	g.asyncTail(f, wrapper, ret)
}

func (g *generator) asyncTail(f *sema.Func, wrapper, ret string) {
	unit := types.IsUnit(f.Ret)
	g.w.Blank()
	fn := f.Link
	if headerless(f) {
		fn = ident(f.Link)
	}
	args := append([]string{"wrapperPtr", "onComplete"}, ffiArgs(f)...)

	// The continuation closure is an argument, so its opener carries no
	// trailing brace of its own.
	g.w.Line("return await withCheckedContinuation({ (continuation: CheckedContinuation<%s, Never>) in", ret)
	g.w.Indent(func() {
		if unit {
			g.w.Line("let callback = { continuation.resume() }")
		} else {
			g.w.Line("let callback = { rustFnRetVal in continuation.resume(returning: rustFnRetVal) }")
		}
		g.w.Line("let wrapper = %s(cb: callback)", wrapper)
		g.w.Line("let wrapperPtr = Unmanaged.passRetained(wrapper).toOpaque()")
		g.w.Line("%s(%s)", fn, strings.Join(args, ", "))
	})
	g.w.Line("})")

	cb := "(" + ret + ") -> ()"
	if unit {
		cb = "() -> ()"
	}
	g.tail.Open("class %s", wrapper)
	g.tail.Line("var cb: %s", cb)
	g.tail.Blank()
	g.tail.Open("public init(cb: @escaping %s)", cb)
	g.tail.Line("self.cb = cb")
	g.tail.Close("}")
	g.tail.Close("}")
	if headerless(f) {
		g.tail.Blank()
		g.tail.Line("@_silgen_name(%q)", f.Link)
		g.tail.Line("func %s(_ callbackWrapper: UnsafeMutableRawPointer, _ callback: @convention(c) (UnsafeMutableRawPointer?) -> ())", ident(f.Link))
	}
}

package rust

import (
	"fmt"
	"strings"

	"bridgegen/internal/bridge"
	"bridgegen/internal/sema"
	"bridgegen/internal/types"
)

const voidPtr = "*mut std::ffi::c_void"

// ffiParams lists the ABI parameters of f, the receiver first as "this".
func ffiParams(f *sema.Func) []string {
	var params []string
	if f.Receiver != nil {
		params = append(params, "this: "+f.Receiver.RustFFIType())
	}
	for i, p := range f.Params {
		params = append(params, f.Decl.Params[i].Name+": "+p.RustFFIType())
	}
	return params
}

// exprPath spells a type path in expression position, where generic
// arguments need a turbofish.
func exprPath(path string) string {
	if i := strings.IndexByte(path, '<'); i >= 0 {
		return path[:i] + "::" + path[i:]
	}
	return path
}

// receiverFromFFI converts the ABI receiver. Copy receivers are converted
// by value and rely on auto-ref for &self methods.
func receiverFromFFI(f *sema.Func) string {
	if o, ok := f.Receiver.(*types.Opaque); ok && o.IsCopy() {
		return o.Owned().RustFromFFI("this")
	}
	return f.Receiver.RustFromFFI("this")
}

// implCall calls the implementation of f with args. recv is the receiver
// expression of methods.
func implCall(f *sema.Func, recv string, args []string) string {
	list := strings.Join(args, ", ")
	switch {
	case f.Self == nil:
		return "super::" + f.Name() + "(" + list + ")"
	case f.Receiver == nil:
		return exprPath(f.Self.RustPath()) + "::" + f.Name() + "(" + list + ")"
	default:
		return "(" + recv + ")." + f.Name() + "(" + list + ")"
	}
}

func (g *generator) rustFunction(f *sema.Func) {
	if f.Decl.Async {
		g.asyncFunction(f)
		return
	}
	args := make([]string, len(f.Params))
	for i, p := range f.Params {
		args[i] = p.RustFromFFI(f.Decl.Params[i].Name)
	}
	recv := ""
	if f.Receiver != nil {
		recv = receiverFromFFI(f)
	}
	call := implCall(f, recv, args)

	params := strings.Join(ffiParams(f), ", ")
	g.w.Line("#[export_name = %q]", f.Link)
	if types.IsUnit(f.Ret) {
		g.w.Open("pub extern \"C\" fn %s(%s)", ident(f.Link), params)
		g.w.Line("%s;", call)
	} else {
		g.w.Open("pub extern \"C\" fn %s(%s) -> %s", ident(f.Link), params, f.Ret.RustFFIType())
		g.w.Line("%s", f.Ret.RustIntoFFI(call))
	}
	g.w.Close("}")
}

// asyncFunction spawns the implementation on the support runtime. The
// completion callback runs exactly once with the converted result.
func (g *generator) asyncFunction(f *sema.Func) {
	callbackArgs := voidPtr
	if !types.IsUnit(f.Ret) {
		callbackArgs += ", " + f.Ret.RustFFIType()
	}
	params := append([]string{
		"callback_wrapper: " + voidPtr,
		"callback: extern \"C\" fn(" + callbackArgs + ")",
	}, ffiParams(f)...)

	g.w.Line("#[export_name = %q]", f.Link)
	g.w.Open("pub extern \"C\" fn %s(%s)", ident(f.Link), strings.Join(params, ", "))
	g.w.Line("let callback_wrapper = %s(callback_wrapper);", g.names.SupportPath("async_support::SwiftCallbackWrapper"))
	if f.Receiver != nil {
		g.w.Line("let this = %s;", receiverFromFFI(f))
	}
	args := make([]string, len(f.Params))
	for i, p := range f.Params {
		name := f.Decl.Params[i].Name
		g.w.Line("let %s = %s;", name, p.RustFromFFI(name))
		args[i] = name
	}
	g.w.Open("let task = async move")
	call := implCall(f, "this", args) + ".await"
	if types.IsUnit(f.Ret) {
		g.w.Line("%s;", call)
	} else {
		g.w.Line("let val = %s;", call)
	}
	g.w.Line("let callback_wrapper = callback_wrapper;")
	g.w.Line("let callback_wrapper = callback_wrapper.0;")
	if types.IsUnit(f.Ret) {
		g.w.Line("(callback)(callback_wrapper)")
	} else {
		g.w.Line("(callback)(callback_wrapper, %s)", f.Ret.RustIntoFFI("val"))
	}
	g.w.Close("};")
	g.w.Line("%s.spawn_task(Box::pin(task))", g.names.SupportPath("async_support::ASYNC_RUNTIME"))
	g.w.Close("}")
}

// swiftFunction declares the Swift export and wraps it in a safe Rust
// function, a method of the handle for associated functions.
func (g *generator) swiftFunction(f *sema.Func) {
	ffi := ident(f.Link)
	sig := strings.Join(ffiParams(f), ", ")
	g.w.Open("extern \"C\"")
	g.w.Line("#[link_name = %q]", f.Link)
	if types.IsUnit(f.Ret) {
		g.w.Line("fn %s(%s);", ffi, sig)
	} else {
		g.w.Line("fn %s(%s) -> %s;", ffi, sig, f.Ret.RustFFIType())
	}
	g.w.Close("}")
	g.w.Blank()

	var params, args []string
	switch f.Decl.Receiver {
	case bridge.ReceiverOwned:
		params = append(params, "self")
	case bridge.ReceiverRef:
		params = append(params, "&self")
	case bridge.ReceiverRefMut:
		params = append(params, "&mut self")
	}
	if f.Receiver != nil {
		args = append(args, f.Receiver.RustIntoFFI("self"))
	}
	for i, p := range f.Params {
		name := f.Decl.Params[i].Name
		params = append(params, name+": "+p.RustType())
		args = append(args, p.RustIntoFFI(name))
	}
	call := fmt.Sprintf("unsafe { %s(%s) }", ffi, strings.Join(args, ", "))

	if f.Self != nil {
		g.w.Open("impl %s", f.Self.RustPath())
	}
	head := "pub fn " + f.Name() + "(" + strings.Join(params, ", ") + ")"
	if types.IsUnit(f.Ret) {
		g.w.Open("%s", head)
		g.w.Line("%s", call)
	} else {
		g.w.Open("%s -> %s", head, f.Ret.RustType())
		g.w.Line("let val = %s;", call)
		g.w.Line("%s", f.Ret.RustFromFFI("val"))
	}
	g.w.Close("}")
	if f.Self != nil {
		g.w.Close("}")
	}

	for _, cb := range f.Callbacks() {
		if !cb.NoArgsNoRet() {
			g.callbackTrampolines(cb)
		}
	}
}

// callbackTrampolines exports the functions Swift uses to run a boxed
// closure once or to drop it uncalled.
func (g *generator) callbackTrampolines(cb *types.Callback) {
	boxed := "boxed_fnonce: " + cb.RustFFIType()
	params := []string{boxed}
	args := make([]string, len(cb.Params))
	for i, p := range cb.Params {
		arg := fmt.Sprintf("arg%d", i)
		params = append(params, arg+": "+p.RustFFIType())
		args[i] = p.RustFromFFI(arg)
	}
	call := "callback(" + strings.Join(args, ", ") + ")"

	if types.IsUnit(cb.Ret) {
		g.exportFn(cb.CallName(), strings.Join(params, ", "), "")
	} else {
		g.exportFn(cb.CallName(), strings.Join(params, ", "), cb.Ret.RustFFIType())
	}
	g.w.Line("let callback = *unsafe { Box::from_raw(boxed_fnonce) };")
	if types.IsUnit(cb.Ret) {
		g.w.Line("%s;", call)
	} else {
		g.w.Line("%s", cb.Ret.RustIntoFFI(call))
	}
	g.w.Close("}")

	g.exportFn(cb.FreeName(), boxed, "")
	g.w.Line("drop(unsafe { Box::from_raw(boxed_fnonce) });")
	g.w.Close("}")
}

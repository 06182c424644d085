package swift

import (
	"fmt"
	"strings"

	"bridgegen/internal/sema"
	"bridgegen/internal/types"
)

// swiftExport writes the @_cdecl function Rust calls to reach a
// Swift-hosted function. Arguments arrive in ABI form and are converted
// before the labelled call.
func (g *generator) swiftExport(f *sema.Func) {
	var params []string
	if f.Receiver != nil {
		params = append(params, "_ this: "+f.Receiver.SwiftFFIType())
	}
	args := make([]string, len(f.Params))
	for i, p := range f.Params {
		name := f.Decl.Params[i].Name
		params = append(params, "_ "+name+": "+p.SwiftFFIType())
		args[i] = name + ": " + p.SwiftFromFFI(name, types.Incoming)
	}
	list := strings.Join(args, ", ")

	var call string
	switch {
	case f.Self == nil:
		call = f.Decl.SwiftFuncName() + "(" + list + ")"
	case f.Decl.Init:
		call = f.Self.Decl.Name + "(" + list + ")"
	case f.Receiver == nil:
		call = f.Self.Decl.Name + "." + f.Decl.SwiftFuncName() + "(" + list + ")"
	default:
		call = f.Receiver.SwiftFromFFI("this", types.Incoming) + "." + f.Decl.SwiftFuncName() + "(" + list + ")"
	}

	g.w.Line("@_cdecl(%q)", f.Link)
	head := "func " + ident(f.Link) + " (" + strings.Join(params, ", ") + ")"
	if types.IsUnit(f.Ret) {
		g.w.Open("%s", head)
		g.w.Line("%s", call)
	} else {
		g.w.Open("%s -> %s", head, f.Ret.SwiftFFIType())
		g.w.Line("return %s", f.Ret.SwiftIntoFFI(call, types.Outgoing))
	}
	g.w.Close("}")

	for _, cb := range f.Callbacks() {
		if !cb.NoArgsNoRet() {
			g.callbackClass(cb)
		}
	}
}

// callbackClass owns a boxed Rust closure. Calling it consumes the box;
// a class released uncalled frees it instead.
func (g *generator) callbackClass(cb *types.Callback) {
	params := make([]string, len(cb.Params))
	args := []string{"ptr"}
	for i, p := range cb.Params {
		arg := fmt.Sprintf("arg%d", i)
		params[i] = "_ " + arg + ": " + p.SwiftType(types.Incoming)
		args = append(args, p.SwiftIntoFFI(arg, types.Incoming))
	}
	call := cb.CallName() + "(" + strings.Join(args, ", ") + ")"

	g.tail.Open("class %s", cb.SwiftClass())
	g.tail.Line("var ptr: UnsafeMutableRawPointer")
	g.tail.Line("var called = false")
	g.tail.Blank()
	g.tail.Open("init(ptr: UnsafeMutableRawPointer)")
	g.tail.Line("self.ptr = ptr")
	g.tail.Close("}")
	g.tail.Blank()
	g.tail.Open("deinit")
	g.tail.Open("if !called")
	g.tail.Line("%s(ptr)", cb.FreeName())
	g.tail.Close("}")
	g.tail.Close("}")
	g.tail.Blank()
	head := "func call(" + strings.Join(params, ", ") + ")"
	if types.IsUnit(cb.Ret) {
		g.tail.Open("%s", head)
	} else {
		g.tail.Open("%s -> %s", head, cb.Ret.SwiftType(types.Incoming))
	}
	g.tail.Open("if called")
	g.tail.Line("fatalError(\"Cannot call a Rust FnOnce function twice\")")
	g.tail.Close("}")
	g.tail.Line("called = true")
	if types.IsUnit(cb.Ret) {
		g.tail.Line("%s", call)
	} else {
		g.tail.Line("return %s", cb.Ret.SwiftFromFFI(call, types.Incoming))
	}
	g.tail.Close("}")
	g.tail.Close("}")
}

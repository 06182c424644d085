package core

import (
	"embed"
	"strings"

	"bridgegen/internal/backend/writer"
	"bridgegen/internal/bridge"
	"bridgegen/internal/types"
)

//go:embed runtime/*.swift
var runtimeFS embed.FS

// runtimeFiles fixes the order the embedded sources are concatenated in.
var runtimeFiles = []string{
	"runtime/rust_string.swift",
	"runtime/rust_str.swift",
	"runtime/rust_vec.swift",
	"runtime/support.swift",
}

// defaultSymbolPrefix is how the embedded sources spell C symbols.
const defaultSymbolPrefix = bridge.DefaultPrefix + "$"

// Swift renders SwiftBridgeCore.swift for the symbol prefix of names.
func Swift(names types.Names) string {
	var b strings.Builder
	b.WriteString(Notice + "\n")
	for _, name := range runtimeFiles {
		src, err := runtimeFS.ReadFile(name)
		if err != nil {
			panic("core: missing embedded source " + name)
		}
		b.Write(src)
	}
	b.WriteString(primitives(names))
	if names.Prefix == bridge.DefaultPrefix {
		return b.String()
	}
	return strings.ReplaceAll(b.String(), defaultSymbolPrefix, names.Prefix+"$")
}

// primitives writes the Vectorizable conformance and option converters of
// every primitive.
func primitives(names types.Names) string {
	w := writer.New("    ")
	for _, p := range types.AllPrims() {
		swift := p.SwiftName()
		vec := func(fn string) string { return names.C("Vec_"+p.String(), fn) }

		w.Open("extension %s: Vectorizable", swift)
		w.Open("public static func vecOfSelfNew() -> UnsafeMutableRawPointer")
		w.Line("%s()", vec("new"))
		w.Close("}")
		w.Blank()
		w.Open("public static func vecOfSelfFree(vecPtr: UnsafeMutableRawPointer)")
		w.Line("%s(vecPtr)", vec("drop"))
		w.Close("}")
		w.Blank()
		w.Open("public static func vecOfSelfPush(vecPtr: UnsafeMutableRawPointer, value: Self)")
		w.Line("%s(vecPtr, value)", vec("push"))
		w.Close("}")
		for _, m := range []struct{ name, fn, params, args string }{
			{"vecOfSelfPop", "pop", "vecPtr: UnsafeMutableRawPointer", "vecPtr"},
			{"vecOfSelfGet", "get", "vecPtr: UnsafeMutableRawPointer, index: UInt", "vecPtr, index"},
			{"vecOfSelfGetMut", "get_mut", "vecPtr: UnsafeMutableRawPointer, index: UInt", "vecPtr, index"},
		} {
			w.Blank()
			w.Open("public static func %s(%s) -> Optional<Self>", m.name, m.params)
			w.Line("let val = %s(%s)", vec(m.fn), m.args)
			w.Open("if val.is_some")
			w.Line("return val.val")
			w.Close("} else {")
			w.Indent(func() { w.Line("return nil") })
			w.Line("}")
			w.Close("}")
		}
		w.Blank()
		w.Open("public static func vecOfSelfAsPtr(vecPtr: UnsafeMutableRawPointer) -> UnsafePointer<Self>")
		w.Line("UnsafePointer<Self>(OpaquePointer(%s(vecPtr)))", vec("as_ptr"))
		w.Close("}")
		w.Blank()
		w.Open("public static func vecOfSelfLen(vecPtr: UnsafeMutableRawPointer) -> UInt")
		w.Line("%s(vecPtr)", vec("len"))
		w.Close("}")
		w.Close("}")

		opt := "__private__Option" + p.OptionSuffix()
		w.Open("extension %s", opt)
		w.Open("public func intoSwiftRepr() -> Optional<%s>", swift)
		w.Open("if self.is_some")
		w.Line("return self.val")
		w.Close("} else {")
		w.Indent(func() { w.Line("return nil") })
		w.Line("}")
		w.Close("}")
		w.Blank()
		w.Open("public init(_ val: Optional<%s>)", swift)
		w.Open("if let val = val")
		w.Line("self = Self(val: val, is_some: true)")
		w.Close("} else {")
		w.Indent(func() { w.Line("self = Self(val: %s, is_some: false)", zeroValue(p)) })
		w.Line("}")
		w.Close("}")
		w.Close("}")
		w.Open("extension Optional where Wrapped == %s", swift)
		w.Open("public func intoFfiRepr() -> %s", opt)
		w.Line("%s(self)", opt)
		w.Close("}")
		w.Close("}")
	}
	return w.String()
}

func zeroValue(p types.PrimKind) string {
	switch {
	case p == types.PrimBool:
		return "false"
	case p.IsFloat():
		return "0.0"
	default:
		return "0"
	}
}

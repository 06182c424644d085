// Package core generates the support files every build ships once:
// SwiftBridgeCore.h declaring the support crate's C symbols and
// SwiftBridgeCore.swift with the Swift types generated wrappers rely on.
package core

import (
	"fmt"
	"strings"

	"bridgegen/internal/types"
)

// Notice is the first line of both support files.
const Notice = "// File automatically generated by bridgegen."

const (
	HeaderFile = "SwiftBridgeCore.h"
	SwiftFile  = "SwiftBridgeCore.swift"
)

// Header renders SwiftBridgeCore.h for the symbol prefix of names.
func Header(names types.Names) string {
	var b strings.Builder
	b.WriteString(Notice + "\n")
	b.WriteString("#include <stdint.h>\n#include <stdbool.h>\n")
	b.WriteString("typedef struct RustStr { uint8_t* const start; uintptr_t len; } RustStr;\n")
	b.WriteString("typedef struct __private__FfiSlice { void* const start; uintptr_t len; } __private__FfiSlice;\n")
	fmt.Fprintf(&b, "void* %snull_pointer(void);\n", names.Prefix)

	for _, p := range types.AllPrims() {
		opt := "__private__Option" + p.OptionSuffix()
		fmt.Fprintf(&b, "typedef struct %s { %s val; bool is_some; } %s;\n", opt, p.CName(), opt)
	}

	str := func(fn string) string { return names.C("RustString", fn) }
	fmt.Fprintf(&b, "void* %s(void);\n", str("new"))
	fmt.Fprintf(&b, "void* %s(struct RustStr str);\n", str("new_with_str"))
	fmt.Fprintf(&b, "uintptr_t %s(void* self);\n", str("len"))
	fmt.Fprintf(&b, "struct RustStr %s(void* self);\n", str("as_str"))
	fmt.Fprintf(&b, "struct RustStr %s(void* self);\n", str("trim"))
	fmt.Fprintf(&b, "bool %s(struct RustStr lhs, struct RustStr rhs);\n", names.C("RustStr", "partial_eq"))
	fmt.Fprintf(&b, "void %s(void* self);\n", str("_free"))
	vecBundle(&b, names, "RustString", "void* ptr", "void*")

	for _, p := range types.AllPrims() {
		vecBundle(&b, names, p.String(), p.CName()+" val", "__private__Option"+p.OptionSuffix())
	}

	fmt.Fprintf(&b, "void %s(void* boxed_fnonce);\n", names.C("call_boxed_fn_once_no_args_no_return"))
	fmt.Fprintf(&b, "void %s(void* boxed_fnonce);\n", names.C("free_boxed_fn_once_no_args_no_return"))
	return b.String()
}

// vecBundle declares the Vec functions of elem in the same shape the
// per-module headers use.
func vecBundle(b *strings.Builder, names types.Names, elem, pushParam, elemRet string) {
	vec := func(fn string) string { return names.C("Vec_"+elem, fn) }
	fmt.Fprintf(b, "void* %s(void);\n", vec("new"))
	fmt.Fprintf(b, "void %s(void* vec_ptr);\n", vec("drop"))
	fmt.Fprintf(b, "void %s(void* vec_ptr, %s);\n", vec("push"), pushParam)
	fmt.Fprintf(b, "%s %s(void* vec_ptr);\n", elemRet, vec("pop"))
	fmt.Fprintf(b, "%s %s(void* vec_ptr, uintptr_t index);\n", elemRet, vec("get"))
	fmt.Fprintf(b, "%s %s(void* vec_ptr, uintptr_t index);\n", elemRet, vec("get_mut"))
	fmt.Fprintf(b, "uintptr_t %s(void* vec_ptr);\n", vec("len"))
	fmt.Fprintf(b, "void* %s(void* vec_ptr);\n", vec("as_ptr"))
}

package swift

import (
	"strings"

	"bridgegen/internal/bridge"
	"bridgegen/internal/sema"
	"bridgegen/internal/types"
)

func (g *generator) sharedStruct(info *sema.StructInfo) {
	st, fields := info.Type, info.Decl.Fields
	name, repr := st.SwiftType(types.Field), st.CType()

	names := make([]string, len(info.Fields))
	for i := range info.Fields {
		names[i] = fields.FieldName(i)
	}

	g.w.Open("public struct %s", name)
	params := make([]string, len(info.Fields))
	for i, ft := range info.Fields {
		g.w.Line("public var %s: %s", names[i], ft.SwiftType(types.Field))
		params[i] = names[i] + ": " + ft.SwiftType(types.Field)
	}
	g.w.Blank()
	g.w.Open("public init(%s)", strings.Join(params, ", "))
	for _, n := range names {
		g.w.Line("self.%s = %s", n, n)
	}
	g.w.Close("}")
	g.w.Blank()
	g.w.Line("@inline(__always)")
	g.w.Open("func intoFfiRepr() -> %s", repr)
	if len(info.Fields) == 0 {
		g.w.Line("%s(_private: 123)", repr)
	} else {
		args := make([]string, len(info.Fields))
		for i, ft := range info.Fields {
			args[i] = names[i] + ": " + ft.SwiftIntoFFI("self."+names[i], types.Field)
		}
		g.w.Line("%s(%s)", repr, strings.Join(args, ", "))
	}
	g.w.Close("}")
	g.w.Close("}")

	g.w.Open("extension %s", repr)
	g.w.Line("@inline(__always)")
	g.w.Open("func intoSwiftRepr() -> %s", name)
	args := make([]string, len(info.Fields))
	for i, ft := range info.Fields {
		args[i] = names[i] + ": " + ft.SwiftFromFFI("self."+names[i], types.Field)
	}
	g.w.Line("%s(%s)", name, strings.Join(args, ", "))
	g.w.Close("}")
	g.w.Close("}")

	into := func(v string) string { return v + ".intoFfiRepr()" }
	from := func(v string) string { return v + ".intoSwiftRepr()" }
	g.optionExtensions(name, st.OptionCName(), repr+"()", from, into)
}

func (g *generator) sharedEnum(info *sema.EnumInfo) {
	e := info.Type
	name, repr := e.Decl.Name, e.CType()

	g.w.Open("public enum %s", name)
	for i, v := range info.Decl.Variants {
		g.w.Line("case %s%s", v.Name, caseFields(v, info.Variants[i]))
	}
	g.w.Close("}")

	g.w.Open("extension %s", name)
	g.w.Open("func intoFfiRepr() -> %s", repr)
	g.w.Line("switch self {")
	for i, v := range info.Decl.Variants {
		g.w.Line("case %s.%s%s:", name, v.Name, bindings(v))
		g.w.Indent(func() { g.w.Line("return %s", g.variantIntoFFI(e, v, info.Variants[i])) })
	}
	g.w.Line("}")
	g.w.Close("}")
	g.w.Close("}")

	g.w.Open("extension %s", repr)
	g.w.Open("func intoSwiftRepr() -> %s", name)
	g.w.Line("switch self.tag {")
	for i, v := range info.Decl.Variants {
		g.w.Line("case %s:", e.VariantCName(v.Name))
		g.w.Indent(func() { g.w.Line("return %s", variantFromFFI(name, v, info.Variants[i])) })
	}
	g.w.Line("default:")
	g.w.Indent(func() { g.w.Line("fatalError(\"Unreachable\")") })
	g.w.Line("}")
	g.w.Close("}")
	g.w.Close("}")

	into := func(v string) string { return v + ".intoFfiRepr()" }
	from := func(v string) string { return v + ".intoSwiftRepr()" }
	g.optionExtensions(name, e.OptionCName(), repr+"()", from, into)
	if e.IsTransparent() {
		g.enumVectorizable(e)
	}
}

// caseFields renders the associated values of a variant declaration.
func caseFields(v bridge.EnumVariant, tys []types.Type) string {
	if v.Fields.Empty() {
		return ""
	}
	parts := make([]string, len(tys))
	for i, t := range tys {
		parts[i] = t.SwiftType(types.Field)
		if v.Fields.Style == bridge.FieldsNamed {
			parts[i] = v.Fields.FieldName(i) + ": " + parts[i]
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// bindings renders the pattern binding each associated value by its field
// name.
func bindings(v bridge.EnumVariant) string {
	if v.Fields.Empty() {
		return ""
	}
	parts := make([]string, len(v.Fields.List))
	for i := range v.Fields.List {
		parts[i] = "let " + v.Fields.FieldName(i)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (g *generator) variantIntoFFI(e *types.Enum, v bridge.EnumVariant, tys []types.Type) string {
	tag := e.VariantCName(v.Name)
	if e.IsTransparent() {
		return e.CType() + "(tag: " + tag + ")"
	}
	union := e.UnionCName()
	if v.Fields.Empty() {
		return e.CType() + "(tag: " + tag + ", payload: " + union + "())"
	}
	args := make([]string, len(tys))
	for i, t := range tys {
		n := v.Fields.FieldName(i)
		args[i] = n + ": " + t.SwiftIntoFFI(n, types.Field)
	}
	fields := e.FieldsCName(v.Name) + "(" + strings.Join(args, ", ") + ")"
	return e.CType() + "(tag: " + tag + ", payload: " + union + "(" + v.Name + ": " + fields + "))"
}

func variantFromFFI(name string, v bridge.EnumVariant, tys []types.Type) string {
	if v.Fields.Empty() {
		return name + "." + v.Name
	}
	args := make([]string, len(tys))
	for i, t := range tys {
		n := v.Fields.FieldName(i)
		args[i] = t.SwiftFromFFI("self.payload."+v.Name+"."+n, types.Field)
		if v.Fields.Style == bridge.FieldsNamed {
			args[i] = n + ": " + args[i]
		}
	}
	return name + "." + v.Name + "(" + strings.Join(args, ", ") + ")"
}

// enumVectorizable lets RustVec hold a transparent enum. Elements cross
// by value through the enum's option wrapper.
func (g *generator) enumVectorizable(e *types.Enum) {
	name := e.Decl.Name
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
	g.w.Open("public static func vecOfSelfPush(vecPtr: UnsafeMutableRawPointer, value: Self)")
	g.w.Line("%s(vecPtr, value.intoFfiRepr())", vec("push"))
	g.w.Close("}")
	g.w.Blank()
	g.w.Open("public static func vecOfSelfPop(vecPtr: UnsafeMutableRawPointer) -> Optional<Self>")
	g.w.Line("let maybeEnum = %s(vecPtr)", vec("pop"))
	g.w.Line("return maybeEnum.intoSwiftRepr()")
	g.w.Close("}")
	g.w.Blank()
	g.w.Open("public static func vecOfSelfGet(vecPtr: UnsafeMutableRawPointer, index: UInt) -> Optional<Self>")
	g.w.Line("let maybeEnum = %s(vecPtr, index)", vec("get"))
	g.w.Line("return maybeEnum.intoSwiftRepr()")
	g.w.Close("}")
	g.w.Blank()
	g.w.Open("public static func vecOfSelfGetMut(vecPtr: UnsafeMutableRawPointer, index: UInt) -> Optional<Self>")
	g.w.Line("let maybeEnum = %s(vecPtr, index)", vec("get_mut"))
	g.w.Line("return maybeEnum.intoSwiftRepr()")
	g.w.Close("}")
	g.w.Blank()
	g.w.Open("public static func vecOfSelfAsPtr(vecPtr: UnsafeMutableRawPointer) -> UnsafePointer<Self>")
	g.w.Line("UnsafePointer<Self>(OpaquePointer(%s(vecPtr)))", vec("as_ptr"))
	g.w.Close("}")
	g.w.Blank()
	g.w.Open("public static func vecOfSelfLen(vecPtr: UnsafeMutableRawPointer) -> UInt")
	g.w.Line("%s(vecPtr)", vec("len"))
	g.w.Close("}")
	g.w.Close("}")
}

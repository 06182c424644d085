package types

import (
	"fmt"
	"strings"
)

// Result is Result<Ok, Err>, passed as a tagged union. Swift sees it as
// RustResult rather than a throwing call.
type Result struct {
	Names
	Ok  Type
	Err Type
}

func (*Result) Kind() Kind { return KindResult }
func (*Result) bridged()   {}

func (r *Result) String() string {
	return "Result<" + r.Ok.String() + ", " + r.Err.String() + ">"
}

func (r *Result) segments() []string {
	return []string{Segment(r.Ok), Segment(r.Err)}
}

func (r *Result) CType() string       { return r.C(append([]string{"Result"}, r.segments()...)...) }
func (r *Result) UnionCName() string  { return r.C(append([]string{"ResultFields"}, r.segments()...)...) }
func (r *Result) RustFFIType() string { return r.Repr(append([]string{"Result"}, r.segments()...)...) }
func (r *Result) UnionRepr() string   { return r.Repr(append([]string{"ResultFields"}, r.segments()...)...) }

func (r *Result) CIncludes() []string {
	return mergeIncludes([]string{"stdbool.h"}, r.Ok.CIncludes(), r.Err.CIncludes())
}

// CSupport declares the payload union and the tagged struct. A unit side
// has no union member.
func (r *Result) CSupport() []Support {
	var members []string
	if !IsUnit(r.Ok) {
		members = append(members, r.Ok.CType()+" ok;")
	}
	if !IsUnit(r.Err) {
		members = append(members, r.Err.CType()+" err;")
	}
	name, union := r.CType(), r.UnionCName()
	text := fmt.Sprintf("union %s { %s };\ntypedef struct %s { bool is_ok; union %s payload; } %s;",
		union, strings.Join(members, " "), name, union, name)
	return []Support{{Key: "result:" + name, Text: text}}
}

func (r *Result) RustType() string {
	return "Result<" + r.Ok.RustType() + ", " + r.Err.RustType() + ">"
}

func (r *Result) RustIntoFFI(expr string) string {
	return r.RustFFIType() + "::from_rust_repr(" + expr + ")"
}

func (*Result) RustFromFFI(expr string) string {
	return expr + ".into_rust_repr()"
}

// RustSupport defines the #[repr(C)] mirror and its conversions.
func (r *Result) RustSupport() []Support {
	name, union := r.RustFFIType(), r.UnionRepr()
	const md = "std::mem::ManuallyDrop"
	var b strings.Builder
	fmt.Fprintf(&b, "#[repr(C)]\npub struct %s {\n    is_ok: bool,\n    payload: %s,\n}\n\n", name, union)
	fmt.Fprintf(&b, "#[repr(C)]\npub union %s {\n    ok: %s<%s>,\n    err: %s<%s>,\n}\n\n",
		union, md, r.Ok.RustFFIType(), md, r.Err.RustFFIType())
	fmt.Fprintf(&b, "impl %s {\n", name)
	fmt.Fprintf(&b, "    pub fn from_rust_repr(val: %s) -> Self {\n", r.RustType())
	b.WriteString("        match val {\n")
	fmt.Fprintf(&b, "            Ok(ok) => %s { is_ok: true, payload: %s { ok: %s::new(%s) } },\n",
		name, union, md, r.Ok.RustIntoFFI("ok"))
	fmt.Fprintf(&b, "            Err(err) => %s { is_ok: false, payload: %s { err: %s::new(%s) } },\n",
		name, union, md, r.Err.RustIntoFFI("err"))
	b.WriteString("        }\n    }\n\n")
	fmt.Fprintf(&b, "    pub fn into_rust_repr(self) -> %s {\n", r.RustType())
	b.WriteString("        if self.is_ok {\n")
	fmt.Fprintf(&b, "            Ok(%s)\n", r.Ok.RustFromFFI("unsafe { "+md+"::into_inner(self.payload.ok) }"))
	b.WriteString("        } else {\n")
	fmt.Fprintf(&b, "            Err(%s)\n", r.Err.RustFromFFI("unsafe { "+md+"::into_inner(self.payload.err) }"))
	b.WriteString("        }\n    }\n}")
	return []Support{{Key: "result:" + r.CType(), Text: b.String()}}
}

func (r *Result) SwiftType(dir Direction) string {
	return "RustResult<" + r.Ok.SwiftType(dir) + ", " + r.Err.SwiftType(dir) + ">"
}

func (r *Result) SwiftFFIType() string { return r.CType() }

func (r *Result) SwiftFromFFI(expr string, dir Direction) string {
	ok, err := "()", "()"
	if !IsUnit(r.Ok) {
		ok = r.Ok.SwiftFromFFI("val.payload.ok", dir)
	}
	if !IsUnit(r.Err) {
		err = r.Err.SwiftFromFFI("val.payload.err", dir)
	}
	return "{ () -> " + r.SwiftType(dir) + " in let val = " + expr +
		"; if val.is_ok { return RustResult.Ok(" + ok + ") } else { return RustResult.Err(" + err + ") } }()"
}

func (r *Result) SwiftIntoFFI(expr string, dir Direction) string {
	name, union := r.CType(), r.UnionCName()
	okCase := "case .Ok(_): return " + name + "(is_ok: true, payload: " + union + "())"
	if !IsUnit(r.Ok) {
		okCase = "case .Ok(let ok): return " + name + "(is_ok: true, payload: " + union + "(ok: " + r.Ok.SwiftIntoFFI("ok", dir) + "))"
	}
	errCase := "case .Err(_): return " + name + "(is_ok: false, payload: " + union + "())"
	if !IsUnit(r.Err) {
		errCase = "case .Err(let err): return " + name + "(is_ok: false, payload: " + union + "(err: " + r.Err.SwiftIntoFFI("err", dir) + "))"
	}
	return "{ () -> " + name + " in switch " + expr + " {\n" + okCase + "\n" + errCase + "\n} }()"
}

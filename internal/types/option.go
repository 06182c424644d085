package types

import "strings"

type optionRepr uint8

const (
	// optionPrim uses the support crate's OptionU8-style structs.
	optionPrim optionRepr = iota
	// optionPointer reuses the inner pointer with NULL for None.
	optionPointer
	// optionWrapped uses a generated {is_some, val} wrapper.
	optionWrapped
)

// Option is Option<Inner>. Resolution guarantees Inner is a non-unit
// primitive, a pointer type or a shared/copy type.
type Option struct {
	noSupport
	Names
	Inner Type
}

func (*Option) Kind() Kind          { return KindOption }
func (*Option) bridged()            {}
func (o *Option) String() string    { return "Option<" + o.Inner.String() + ">" }
func (*Option) CIncludes() []string { return []string{"stdbool.h"} }
func (o *Option) RustType() string  { return "Option<" + o.Inner.RustType() + ">" }

func (o *Option) repr() optionRepr {
	if _, ok := o.Inner.(*Primitive); ok {
		return optionPrim
	}
	if IsPointer(o.Inner) {
		return optionPointer
	}
	return optionWrapped
}

func (o *Option) primSuffix() string {
	return "Option" + o.Inner.(*Primitive).Prim.OptionSuffix()
}

func (o *Option) CType() string {
	switch o.repr() {
	case optionPrim:
		return "struct __private__" + o.primSuffix()
	case optionPointer:
		return "void*"
	default:
		return wrappedOptionCName(o.Inner)
	}
}

func wrappedOptionCName(t Type) string {
	switch t := t.(type) {
	case *Struct:
		return t.OptionCName()
	case *Enum:
		return t.OptionCName()
	case *Opaque:
		return t.OptionCopyCName()
	default:
		return ""
	}
}

func wrappedOptionRepr(t Type) string {
	switch t := t.(type) {
	case *Struct:
		return t.OptionRepr()
	case *Enum:
		return t.OptionRepr()
	case *Opaque:
		return t.OptionCopyRepr()
	default:
		return ""
	}
}

func (o *Option) RustFFIType() string {
	switch o.repr() {
	case optionPrim:
		return o.SupportPath("option::" + o.primSuffix())
	case optionPointer:
		return o.Inner.RustFFIType()
	default:
		return wrappedOptionRepr(o.Inner)
	}
}

func (o *Option) rustNull() string {
	if strings.HasPrefix(o.Inner.RustFFIType(), "*const") {
		return "std::ptr::null()"
	}
	return "std::ptr::null_mut()"
}

func (o *Option) RustIntoFFI(expr string) string {
	switch o.repr() {
	case optionPrim:
		return o.SupportPath("option::"+o.primSuffix()+"::from_option(") + expr + ")"
	case optionPointer:
		return "match " + expr + " { Some(val) => " + o.Inner.RustIntoFFI("val") + ", None => " + o.rustNull() + " }"
	default:
		return wrappedOptionRepr(o.Inner) + "::from_rust_repr(" + expr + ")"
	}
}

func (o *Option) RustFromFFI(expr string) string {
	switch o.repr() {
	case optionPrim:
		return expr + ".into_option()"
	case optionPointer:
		return "{ let val = " + expr + "; if val.is_null() { None } else { Some(" + o.Inner.RustFromFFI("val") + ") } }"
	default:
		return expr + ".into_rust_repr()"
	}
}

func (o *Option) SwiftType(dir Direction) string {
	return "Optional<" + o.Inner.SwiftType(dir) + ">"
}

func (o *Option) SwiftFFIType() string {
	switch o.repr() {
	case optionPrim:
		return "__private__" + o.primSuffix()
	case optionPointer:
		return "UnsafeMutableRawPointer?"
	default:
		return wrappedOptionCName(o.Inner)
	}
}

func (o *Option) SwiftIntoFFI(expr string, dir Direction) string {
	if o.repr() != optionPointer {
		return expr + ".intoFfiRepr()"
	}
	return "{ () -> UnsafeMutableRawPointer? in if let val = " + expr + " { return " +
		o.Inner.SwiftIntoFFI("val", dir) + " } else { return nil } }()"
}

func (o *Option) SwiftFromFFI(expr string, dir Direction) string {
	if o.repr() != optionPointer {
		return expr + ".intoSwiftRepr()"
	}
	return "{ () -> " + o.SwiftType(dir) + " in let val = " + expr + "; if val != nil { return " +
		o.Inner.SwiftFromFFI("val!", dir) + " } else { return nil } }()"
}

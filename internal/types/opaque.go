package types

import (
	"strings"

	"bridgegen/internal/bridge"
)

// RefKind is the borrow an opaque handle is passed with.
type RefKind uint8

const (
	RefNone RefKind = iota
	RefShared
	RefMut
)

func (r RefKind) rustPrefix() string {
	switch r {
	case RefShared:
		return "&"
	case RefMut:
		return "&mut "
	default:
		return ""
	}
}

// Opaque is a handle whose layout stays private to its host. Copy types
// travel by value as an inline byte array; every other opaque type travels
// as a pointer.
type Opaque struct {
	noSupport
	Names
	Decl *bridge.OpaqueType
	Ref  RefKind
	// Generics holds the resolved arguments of a generic instance.
	Generics []Type
}

func (*Opaque) Kind() Kind              { return KindOpaque }
func (*Opaque) bridged()                {}
func (o *Opaque) Name() string          { return o.Decl.Name }
func (o *Opaque) Host() bridge.HostLang { return o.Decl.Host }
func (o *Opaque) IsCopy() bool          { return o.Decl.IsCopy() }
func (o *Opaque) IsGeneric() bool       { return len(o.Generics) > 0 }
func (*Opaque) CIncludes() []string     { return nil }

// Owned returns the same handle without the borrow.
func (o *Opaque) Owned() *Opaque {
	c := *o
	c.Ref = RefNone
	return &c
}

func (o *Opaque) String() string {
	return o.Ref.rustPrefix() + o.Decl.InstanceName()
}

// CopyCName is the C struct holding the bytes of a copy type.
func (o *Opaque) CopyCName() string { return o.C("Copy", o.Decl.LinkSegment()) }

// OptionCopyCName is the C option wrapper of a copy type.
func (o *Opaque) OptionCopyCName() string { return o.C("Option", "Copy", o.Decl.LinkSegment()) }

// CopyRepr is the Rust mirror of CopyCName.
func (o *Opaque) CopyRepr() string { return o.Repr("Copy", o.reprSegment()) }

// OptionCopyRepr is the Rust mirror of OptionCopyCName.
func (o *Opaque) OptionCopyRepr() string { return o.Repr("Option", "Copy", o.reprSegment()) }

func (o *Opaque) reprSegment() string {
	return strings.ReplaceAll(o.Decl.LinkSegment(), "$", "_")
}

func (o *Opaque) CType() string {
	if o.IsCopy() {
		return o.CopyCName()
	}
	return "void*"
}

// RustPath names the implementation type from inside the generated module.
// Rust-hosted types live in the parent module; Swift-hosted handles are
// defined by the glue itself.
func (o *Opaque) RustPath() string {
	if o.Host().IsSwift() {
		return o.Decl.Name
	}
	if len(o.Generics) == 0 {
		return "super::" + o.Decl.Name
	}
	args := make([]string, len(o.Generics))
	for i, g := range o.Generics {
		args[i] = g.RustType()
	}
	return "super::" + o.Decl.Name + "<" + strings.Join(args, ", ") + ">"
}

func (o *Opaque) RustType() string {
	return o.Ref.rustPrefix() + o.RustPath()
}

func (o *Opaque) RustFFIType() string {
	switch {
	case o.IsCopy():
		return o.CopyRepr()
	case o.Host().IsSwift():
		return "*mut std::ffi::c_void"
	case o.Ref == RefShared:
		return "*const " + o.RustPath()
	default:
		return "*mut " + o.RustPath()
	}
}

func (o *Opaque) RustIntoFFI(expr string) string {
	switch {
	case o.IsCopy():
		if o.Ref != RefNone {
			expr = "*" + expr
		}
		return o.CopyRepr() + "::from_rust_repr(" + expr + ")"
	case o.Host().IsSwift():
		if o.Ref == RefNone {
			return expr + ".into_raw()"
		}
		return expr + ".0"
	case o.Ref == RefShared:
		return expr + " as *const " + o.RustPath()
	case o.Ref == RefMut:
		return expr + " as *mut " + o.RustPath()
	default:
		return "Box::into_raw(Box::new(" + expr + "))"
	}
}

func (o *Opaque) RustFromFFI(expr string) string {
	switch {
	case o.IsCopy():
		if o.Ref != RefNone {
			return "&" + expr + ".into_rust_repr()"
		}
		return expr + ".into_rust_repr()"
	case o.Host().IsSwift():
		// a borrowed handle must not run Drop, which releases the Swift object
		switch o.Ref {
		case RefShared:
			return "&*std::mem::ManuallyDrop::new(" + o.RustPath() + "(" + expr + "))"
		case RefMut:
			return "&mut *std::mem::ManuallyDrop::new(" + o.RustPath() + "(" + expr + "))"
		default:
			return o.RustPath() + "(" + expr + ")"
		}
	case o.Ref == RefShared:
		return "unsafe { &*" + expr + " }"
	case o.Ref == RefMut:
		return "unsafe { &mut *" + expr + " }"
	default:
		return "unsafe { *Box::from_raw(" + expr + ") }"
	}
}

// SwiftClass names one class of the owned/RefMut/Ref triple, with generic
// arguments applied.
func (o *Opaque) SwiftClass(ref RefKind) string {
	name := o.Decl.Name
	switch ref {
	case RefShared:
		name += "Ref"
	case RefMut:
		name += "RefMut"
	}
	if len(o.Generics) == 0 {
		return name
	}
	args := make([]string, len(o.Generics))
	for i, g := range o.Generics {
		args[i] = g.SwiftType(Field)
	}
	return name + "<" + strings.Join(args, ", ") + ">"
}

func (o *Opaque) SwiftType(Direction) string {
	if o.IsCopy() || o.Host().IsSwift() {
		return o.Decl.Name
	}
	return o.SwiftClass(o.Ref)
}

func (o *Opaque) SwiftFFIType() string {
	if o.IsCopy() {
		return o.CopyCName()
	}
	return "UnsafeMutableRawPointer"
}

func (o *Opaque) SwiftIntoFFI(expr string, _ Direction) string {
	switch {
	case o.IsCopy():
		return expr + ".bytes"
	case o.Host().IsSwift():
		if o.Ref == RefNone {
			return "Unmanaged.passRetained(" + expr + ").toOpaque()"
		}
		return "Unmanaged.passUnretained(" + expr + ").toOpaque()"
	case o.Ref == RefNone:
		return "{" + expr + ".isOwned = false; return " + expr + ".ptr;}()"
	default:
		return expr + ".ptr"
	}
}

func (o *Opaque) SwiftFromFFI(expr string, dir Direction) string {
	switch {
	case o.IsCopy():
		return o.Decl.Name + "(bytes: " + expr + ")"
	case o.Host().IsSwift():
		if o.Ref == RefNone {
			return "Unmanaged<" + o.Decl.Name + ">.fromOpaque(" + expr + ").takeRetainedValue()"
		}
		return "Unmanaged<" + o.Decl.Name + ">.fromOpaque(" + expr + ").takeUnretainedValue()"
	default:
		return o.SwiftType(dir) + "(ptr: " + expr + ")"
	}
}

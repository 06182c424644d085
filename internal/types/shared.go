package types

import "bridgegen/internal/bridge"

// Struct is a shared struct mirrored field by field on both sides.
type Struct struct {
	noSupport
	Names
	Decl *bridge.SharedStruct
}

func (*Struct) Kind() Kind                   { return KindStruct }
func (*Struct) bridged()                     {}
func (s *Struct) String() string             { return s.Decl.Name }
func (s *Struct) CType() string              { return s.C(s.Decl.SwiftTypeName()) }
func (s *Struct) OptionCName() string        { return s.C("Option", s.Decl.SwiftTypeName()) }
func (*Struct) CIncludes() []string          { return nil }
func (s *Struct) RustType() string           { return s.Decl.Name }
func (s *Struct) RustFFIType() string        { return s.Repr(s.Decl.Name) }
func (s *Struct) OptionRepr() string         { return s.Repr("Option", s.Decl.Name) }
func (s *Struct) SwiftType(Direction) string { return s.Decl.SwiftTypeName() }
func (s *Struct) SwiftFFIType() string       { return s.CType() }

func (*Struct) RustIntoFFI(expr string) string { return expr + ".into_ffi_repr()" }
func (*Struct) RustFromFFI(expr string) string { return expr + ".into_rust_repr()" }

func (*Struct) SwiftIntoFFI(expr string, _ Direction) string { return expr + ".intoFfiRepr()" }
func (*Struct) SwiftFromFFI(expr string, _ Direction) string { return expr + ".intoSwiftRepr()" }

// Enum is a shared enum. A transparent enum travels as its tag alone; a
// data-carrying enum carries a payload union next to the tag.
type Enum struct {
	noSupport
	Names
	Decl *bridge.SharedEnum
}

func (*Enum) Kind() Kind                   { return KindEnum }
func (*Enum) bridged()                     {}
func (e *Enum) String() string             { return e.Decl.Name }
func (e *Enum) IsTransparent() bool        { return e.Decl.IsTransparent() }
func (e *Enum) CType() string              { return e.C(e.Decl.Name) }
func (e *Enum) OptionCName() string        { return e.C("Option", e.Decl.Name) }
func (e *Enum) TagCName() string           { return e.C(e.Decl.Name + "Tag") }
func (e *Enum) UnionCName() string         { return e.C(e.Decl.Name + "Fields") }
func (*Enum) CIncludes() []string          { return nil }
func (e *Enum) RustType() string           { return e.Decl.Name }
func (e *Enum) RustFFIType() string        { return e.Repr(e.Decl.Name) }
func (e *Enum) OptionRepr() string         { return e.Repr("Option", e.Decl.Name) }
func (e *Enum) TagRepr() string            { return e.Repr(e.Decl.Name + "Tag") }
func (e *Enum) UnionRepr() string          { return e.Repr(e.Decl.Name + "Fields") }
func (e *Enum) SwiftType(Direction) string { return e.Decl.Name }
func (e *Enum) SwiftFFIType() string       { return e.CType() }

// VariantCName is the tag constant of variant v.
func (e *Enum) VariantCName(v string) string { return e.C(e.Decl.Name, v) }

// FieldsCName is the payload struct of data variant v.
func (e *Enum) FieldsCName(v string) string { return e.C(e.Decl.Name, "FieldOf"+v) }

// FieldsRepr is the Rust mirror of FieldsCName.
func (e *Enum) FieldsRepr(v string) string { return e.Repr(e.Decl.Name, "FieldOf"+v) }

func (*Enum) RustIntoFFI(expr string) string { return expr + ".into_ffi_repr()" }
func (*Enum) RustFromFFI(expr string) string { return expr + ".into_rust_repr()" }

func (*Enum) SwiftIntoFFI(expr string, _ Direction) string { return expr + ".intoFfiRepr()" }
func (*Enum) SwiftFromFFI(expr string, _ Direction) string { return expr + ".intoSwiftRepr()" }

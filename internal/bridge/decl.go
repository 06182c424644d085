package bridge

import (
	"strconv"
	"strings"

	"bridgegen/internal/source"
)

// TypeDecl is implemented by *OpaqueType, *SharedStruct and *SharedEnum.
type TypeDecl interface {
	DeclName() string
	DeclSpan() source.Span
	// Key is the name the declaration registry tracks this declaration by.
	Key() string
	isTypeDecl()
}

type CopyAttr struct {
	SizeBytes int
}

type OpaqueAttrs struct {
	AlreadyDeclared bool
	DeclareGeneric  bool
	Hashable        bool
	Equatable       bool
	Copy            *CopyAttr
}

// OpaqueType is a handle type whose layout stays private to its host.
//
// With DeclareGeneric set, GenericParams names the type parameters and the
// declaration only introduces the generic. Otherwise Generics holds the
// concrete arguments of one instance (empty for ordinary types).
type OpaqueType struct {
	Name          string
	Host          HostLang
	Attrs         OpaqueAttrs
	GenericParams []string
	Generics      []*TypeExpr
	Span          source.Span
}

func (t *OpaqueType) DeclName() string      { return t.Name }
func (t *OpaqueType) DeclSpan() source.Span { return t.Span }
func (*OpaqueType) isTypeDecl()             {}

func (t *OpaqueType) Key() string {
	if t.Attrs.DeclareGeneric {
		return "generic:" + t.Name
	}
	return "opaque:" + t.InstanceName()
}

// InstanceName renders the type with its generic arguments, e.g. "Pair<u8, u16>".
func (t *OpaqueType) InstanceName() string {
	if len(t.Generics) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Generics))
	for i, g := range t.Generics {
		args[i] = g.String()
	}
	return t.Name + "<" + strings.Join(args, ", ") + ">"
}

// LinkSegment is the symbol-name segment for the type, e.g. "Pair$u8$u16".
func (t *OpaqueType) LinkSegment() string {
	if len(t.Generics) == 0 {
		return t.Name
	}
	parts := []string{t.Name}
	for _, g := range t.Generics {
		parts = append(parts, g.LinkSegment())
	}
	return strings.Join(parts, "$")
}

func (t *OpaqueType) IsCopy() bool    { return t.Attrs.Copy != nil }
func (t *OpaqueType) IsGeneric() bool { return len(t.Generics) > 0 || t.Attrs.DeclareGeneric }

// FieldsStyle distinguishes `struct A { x: u8 }`, `struct A(u8)` and `struct A;`.
type FieldsStyle uint8

const (
	FieldsNamed FieldsStyle = iota
	FieldsUnnamed
	FieldsUnit
)

func (s FieldsStyle) String() string {
	switch s {
	case FieldsNamed:
		return "named"
	case FieldsUnnamed:
		return "tuple"
	case FieldsUnit:
		return "unit"
	default:
		return "unknown"
	}
}

type StructField struct {
	// Name is empty for unnamed fields.
	Name string
	Type *TypeExpr
	Span source.Span
}

type StructFields struct {
	Style FieldsStyle
	List  []StructField
}

func (f StructFields) Empty() bool { return len(f.List) == 0 }

// FieldName returns the name used for field i in generated code. Unnamed
// fields are called _0, _1 and so on.
func (f StructFields) FieldName(i int) string {
	if f.Style == FieldsNamed && f.List[i].Name != "" {
		return f.List[i].Name
	}
	return "_" + strconv.Itoa(i)
}

type SharedStruct struct {
	Name string
	// SwiftName overrides the name of the generated Swift struct.
	SwiftName       string
	Fields          StructFields
	AlreadyDeclared bool
	Span            source.Span
}

func (s *SharedStruct) DeclName() string      { return s.Name }
func (s *SharedStruct) DeclSpan() source.Span { return s.Span }
func (s *SharedStruct) Key() string           { return "struct:" + s.Name }
func (*SharedStruct) isTypeDecl()             {}

func (s *SharedStruct) SwiftTypeName() string {
	if s.SwiftName != "" {
		return s.SwiftName
	}
	return s.Name
}

type EnumVariant struct {
	Name   string
	Fields StructFields
	Span   source.Span
}

type SharedEnum struct {
	Name            string
	Variants        []EnumVariant
	AlreadyDeclared bool
	Span            source.Span
}

func (e *SharedEnum) DeclName() string      { return e.Name }
func (e *SharedEnum) DeclSpan() source.Span { return e.Span }
func (e *SharedEnum) Key() string           { return "enum:" + e.Name }
func (*SharedEnum) isTypeDecl()             {}

// IsTransparent reports an enum none of whose variants carry data.
func (e *SharedEnum) IsTransparent() bool {
	for _, v := range e.Variants {
		if !v.Fields.Empty() {
			return false
		}
	}
	return true
}

package types

import (
	"slices"
	"strings"
)

// Type is a resolved bridged type.
//
// The C methods describe the flat ABI, the Rust methods the glue side and
// the Swift methods the wrapper side. Conversion methods take the source
// expression and return an expression producing the converted value.
type Type interface {
	Kind() Kind
	// String is the Rust spelling as it appears in a declaration.
	String() string

	CType() string
	CIncludes() []string
	// CSupport lists declarations the header needs once per build.
	CSupport() []Support

	RustType() string
	RustFFIType() string
	// RustIntoFFI converts a native Rust value into its ABI form.
	RustIntoFFI(expr string) string
	// RustFromFFI converts an ABI value into the native Rust value.
	RustFromFFI(expr string) string
	RustSupport() []Support

	SwiftType(dir Direction) string
	// SwiftFFIType is the Swift view of CType.
	SwiftFFIType() string
	SwiftIntoFFI(expr string, dir Direction) string
	SwiftFromFFI(expr string, dir Direction) string

	bridged()
}

// Support is a declaration shared by every use of a type. Key identifies
// it in the declaration registry.
type Support struct {
	Key  string
	Text string
}

// ScopedParam is implemented by types whose Swift argument must be kept
// alive for the duration of the call, like &str.
type ScopedParam interface {
	// SwiftScope wraps body in a closure that binds the ABI form of name to
	// the identifier returned by SwiftScopedName.
	SwiftScope(name, body string) string
	SwiftScopedName(name string) string
}

// noSupport is embedded by variants without shared declarations.
type noSupport struct{}

func (noSupport) CSupport() []Support    { return nil }
func (noSupport) RustSupport() []Support { return nil }

// IsUnit reports the () type.
func IsUnit(t Type) bool {
	p, ok := t.(*Primitive)
	return ok && p.Prim == PrimUnit
}

// IsPointer reports types passed as a single nullable pointer, which lets
// Option use NULL for None.
func IsPointer(t Type) bool {
	switch t := t.(type) {
	case *String, *Vec, *Callback:
		return true
	case *Opaque:
		return !t.IsCopy()
	default:
		return false
	}
}

// Segment renders t as an identifier fragment for composed symbol names.
func Segment(t Type) string {
	return segmentReplacer.Replace(t.String())
}

var segmentReplacer = strings.NewReplacer(
	"()", "Unit",
	"<", "_",
	">", "",
	", ", "_",
	"&", "",
	"'", "",
	"::", "_",
	" ", "_",
	"[", "Slice_",
	"]", "",
)

func mergeIncludes(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		for _, inc := range l {
			if !slices.Contains(out, inc) {
				out = append(out, inc)
			}
		}
	}
	return out
}

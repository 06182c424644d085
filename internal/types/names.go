package types

import "strings"

// Names carries the naming configuration every spelling depends on.
type Names struct {
	// Prefix starts every generated C symbol and Rust repr type.
	Prefix string
	// Support is the path of the Rust support crate.
	Support string
}

// C joins parts into a C identifier: prefix$A$B.
func (n Names) C(parts ...string) string {
	return n.Prefix + "$" + strings.Join(parts, "$")
}

// Repr joins parts into the name of a Rust #[repr(C)] mirror: prefixA_B.
func (n Names) Repr(parts ...string) string {
	return n.Prefix + strings.Join(parts, "_")
}

// SupportPath qualifies path with the support crate.
func (n Names) SupportPath(path string) string {
	return n.Support + "::" + path
}

// Direction is the way a value travels across the boundary.
type Direction uint8

const (
	// Outgoing values travel from Swift to Rust: parameters of Rust-hosted
	// functions and results of Swift-hosted ones.
	Outgoing Direction = iota
	// Incoming values travel from Rust to Swift.
	Incoming
	// Field values live inside a shared struct or enum payload.
	Field
)

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "outgoing"
	case Incoming:
		return "incoming"
	case Field:
		return "field"
	default:
		return "unknown"
	}
}

package bridge

import (
	"fmt"
	"strings"

	"bridgegen/internal/source"
)

// Receiver classifies a method's self parameter.
type Receiver uint8

const (
	ReceiverNone Receiver = iota
	ReceiverOwned
	ReceiverRef
	ReceiverRefMut
)

func (r Receiver) String() string {
	switch r {
	case ReceiverOwned:
		return "self"
	case ReceiverRef:
		return "&self"
	case ReceiverRefMut:
		return "&mut self"
	default:
		return ""
	}
}

func ParseReceiver(s string) (Receiver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ReceiverNone, nil
	case "owned", "self":
		return ReceiverOwned, nil
	case "ref", "&self":
		return ReceiverRef, nil
	case "ref_mut", "&mut self":
		return ReceiverRefMut, nil
	default:
		return ReceiverNone, fmt.Errorf("invalid receiver %q (expected owned|ref|ref_mut)", s)
	}
}

type Param struct {
	Name string
	Type *TypeExpr
	Span source.Span
}

// FuncDecl is a function or method crossing the boundary.
//
// A function with AssociatedTo and no Receiver is a static associated
// function; Init marks it as the owning type's initializer.
type FuncDecl struct {
	Name         string
	SwiftName    string
	Host         HostLang
	Async        bool
	Receiver     Receiver
	AssociatedTo *TypeExpr
	Init         bool
	Params       []Param
	// Return is nil for functions returning ().
	Return *TypeExpr
	Span   source.Span
}

func (f *FuncDecl) IsMethod() bool { return f.Receiver != ReceiverNone }

func (f *FuncDecl) IsAssociated() bool { return f.AssociatedTo != nil }

func (f *FuncDecl) ReturnsUnit() bool {
	return f.Return == nil || f.Return.IsUnit()
}

// LinkName is prefix$fn for free functions and prefix$Type$fn for
// associated functions.
func (f *FuncDecl) LinkName(prefix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	if f.AssociatedTo != nil {
		b.WriteByte('$')
		b.WriteString(f.AssociatedTo.LinkSegment())
	}
	b.WriteByte('$')
	b.WriteString(f.Name)
	return b.String()
}

// AsyncLinkName names the completion trampoline of an async function.
func (f *FuncDecl) AsyncLinkName(prefix string) string {
	return f.LinkName(prefix) + "$async"
}

func (f *FuncDecl) SwiftFuncName() string {
	if f.SwiftName != "" {
		return f.SwiftName
	}
	return f.Name
}

// Signature renders the declaration in Rust syntax for messages.
func (f *FuncDecl) Signature() string {
	var b strings.Builder
	if f.Async {
		b.WriteString("async ")
	}
	b.WriteString("fn ")
	if f.AssociatedTo != nil {
		b.WriteString(f.AssociatedTo.String())
		b.WriteString("::")
	}
	b.WriteString(f.Name)
	b.WriteByte('(')
	parts := make([]string, 0, len(f.Params)+1)
	if f.Receiver != ReceiverNone {
		parts = append(parts, f.Receiver.String())
	}
	for _, p := range f.Params {
		parts = append(parts, p.Name+": "+p.Type.String())
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteByte(')')
	if !f.ReturnsUnit() {
		b.WriteString(" -> ")
		b.WriteString(f.Return.String())
	}
	return b.String()
}

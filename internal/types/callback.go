package types

import (
	"strconv"
	"strings"
)

// Callback is a Box<dyn FnOnce(..) -> R> that Rust hands to a Swift-hosted
// function. Swift calls it at most once through the generated trampoline.
type Callback struct {
	noSupport
	Names
	Params []Type
	Ret    Type
	// Link and Index locate the callback: the link name of the function
	// taking it and the parameter position.
	Link  string
	Index int
}

func (*Callback) Kind() Kind            { return KindCallback }
func (*Callback) bridged()              {}
func (*Callback) CType() string         { return "void*" }
func (*Callback) CIncludes() []string   { return nil }
func (c *Callback) RustType() string    { return c.String() }
func (c *Callback) RustFFIType() string { return "*mut " + c.String() }
func (*Callback) SwiftFFIType() string  { return "UnsafeMutableRawPointer" }

func (c *Callback) String() string {
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		parts[i] = p.String()
	}
	s := "Box<dyn FnOnce(" + strings.Join(parts, ", ") + ")"
	if !IsUnit(c.Ret) {
		s += " -> " + c.Ret.String()
	}
	return s + ">"
}

// WithSite returns a copy of c bound to parameter index of link.
func (c *Callback) WithSite(link string, index int) *Callback {
	cp := *c
	cp.Link = link
	cp.Index = index
	return &cp
}

// NoArgsNoRet reports callbacks served by the shared support functions.
func (c *Callback) NoArgsNoRet() bool { return len(c.Params) == 0 && IsUnit(c.Ret) }

// CallName is the exported trampoline that runs the callback.
func (c *Callback) CallName() string { return c.Link + "$param" + strconv.Itoa(c.Index) }

// FreeName is the exported function dropping an uncalled callback.
func (c *Callback) FreeName() string { return c.Link + "$_free$param" + strconv.Itoa(c.Index) }

// SwiftClass is the Swift class owning the boxed closure.
func (c *Callback) SwiftClass() string {
	if c.NoArgsNoRet() {
		return "__private__RustFnOnceCallbackNoArgsNoRet"
	}
	return "__private__RustFnOnceCallback" + c.Link + "$param" + strconv.Itoa(c.Index)
}

func (*Callback) RustIntoFFI(expr string) string { return "Box::into_raw(Box::new(" + expr + "))" }
func (*Callback) RustFromFFI(expr string) string { return "unsafe { *Box::from_raw(" + expr + ") }" }

func (c *Callback) SwiftType(Direction) string {
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		parts[i] = p.SwiftType(Incoming)
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + c.Ret.SwiftType(Incoming)
}

// SwiftIntoFFI is never reached: Swift only receives callbacks.
func (*Callback) SwiftIntoFFI(expr string, _ Direction) string { return expr }

func (c *Callback) SwiftFromFFI(expr string, dir Direction) string {
	args := make([]string, len(c.Params))
	for i := range c.Params {
		args[i] = "arg" + strconv.Itoa(i)
	}
	call := "cb.call(" + strings.Join(args, ", ") + ")"
	closure := "{ " + call + " }"
	if len(args) > 0 {
		closure = "{ " + strings.Join(args, ", ") + " in " + call + " }"
	}
	return "{ () -> " + c.SwiftType(dir) + " in let cb = " + c.SwiftClass() + "(ptr: " + expr + "); return " + closure + " }()"
}

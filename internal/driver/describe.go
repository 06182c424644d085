package driver

import (
	"bridgegen/internal/layout"
	"bridgegen/internal/sema"
	"bridgegen/internal/types"
)

// TypeDescription is the spelling and layout of one declared type in
// every language the generator targets.
type TypeDescription struct {
	Module   string `json:"module"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Rust     string `json:"rust"`
	RustFFI  string `json:"rust_ffi"`
	C        string `json:"c"`
	Swift    string `json:"swift"`
	SwiftFFI string `json:"swift_ffi"`
	Size     int    `json:"size"`
	Align    int    `json:"align"`
	// Emitted is false when another module owns the declaration.
	Emitted     bool   `json:"emitted"`
	LayoutError string `json:"layout_error,omitempty"`
}

// FuncDescription lists the link symbols of one bridged function.
type FuncDescription struct {
	Module string `json:"module"`
	Name   string `json:"name"`
	Host   string `json:"host"`
	Link   string `json:"link"`
	// AsyncLink is set for async functions.
	AsyncLink string `json:"async_link,omitempty"`
	Signature string `json:"signature"`
}

// Description is everything describe reports for one analysis.
type Description struct {
	Target string            `json:"target"`
	Types  []TypeDescription `json:"types"`
	Funcs  []FuncDescription `json:"functions"`
}

// Describe summarises every compiled module of res in module order.
// Modules not in only are skipped when only is non-empty.
func Describe(res *sema.Result, only ...string) Description {
	out := Description{Target: res.Target.Triple}
	keep := func(name string) bool {
		if len(only) == 0 {
			return true
		}
		for _, o := range only {
			if o == name {
				return true
			}
		}
		return false
	}
	for _, mod := range res.Modules {
		if !mod.Compiled || !keep(mod.Name()) {
			continue
		}
		engine := layout.New(res.Target, mod.Resolver)
		for _, info := range mod.Types {
			out.Types = append(out.Types, describeType(engine, mod.Name(), info))
		}
		for _, fn := range mod.Funcs {
			out.Funcs = append(out.Funcs, describeFunc(mod.Name(), fn))
		}
	}
	return out
}

func describeType(engine *layout.Engine, module string, info sema.TypeInfo) TypeDescription {
	var t types.Type
	name := info.TypeDecl().DeclName()
	switch info := info.(type) {
	case *sema.OpaqueInfo:
		t = info.Type
		name = info.Decl.InstanceName()
	case *sema.StructInfo:
		t = info.Type
	case *sema.EnumInfo:
		t = info.Type
	}
	d := TypeDescription{
		Module:   module,
		Name:     name,
		Kind:     t.Kind().String(),
		Rust:     t.RustType(),
		RustFFI:  t.RustFFIType(),
		C:        t.CType(),
		Swift:    t.SwiftType(types.Field),
		SwiftFFI: t.SwiftFFIType(),
		Emitted:  info.Emits(),
	}
	l, err := engine.LayoutOf(t)
	if err != nil {
		d.LayoutError = err.Error()
		return d
	}
	d.Size, d.Align = l.Size, l.Align
	return d
}

func describeFunc(module string, fn *sema.Func) FuncDescription {
	d := FuncDescription{
		Module:    module,
		Name:      fn.Name(),
		Host:      fn.Host().String(),
		Link:      fn.Link,
		Signature: fn.Decl.Signature(),
	}
	if fn.Decl.AssociatedTo != nil {
		d.Name = fn.Decl.AssociatedTo.String() + "::" + fn.Name()
	}
	if fn.Decl.Async {
		d.AsyncLink = fn.AsyncLink()
	}
	return d
}

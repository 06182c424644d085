package sema

import (
	"bridgegen/internal/bridge"
	"bridgegen/internal/registry"
	"bridgegen/internal/types"
)

// TypeInfo is implemented by *OpaqueInfo, *StructInfo and *EnumInfo.
type TypeInfo interface {
	TypeDecl() bridge.TypeDecl
	// Emits reports whether this module emits the declaration.
	Emits() bool
	isTypeInfo()
}

// OpaqueInfo is an analysed opaque type. For a generic declaration Type
// carries no arguments.
type OpaqueInfo struct {
	Decl *bridge.OpaqueType
	Type *types.Opaque
	Emit bool
}

func (i *OpaqueInfo) TypeDecl() bridge.TypeDecl { return i.Decl }
func (i *OpaqueInfo) Emits() bool               { return i.Emit }
func (*OpaqueInfo) isTypeInfo()                 {}

type StructInfo struct {
	Decl   *bridge.SharedStruct
	Type   *types.Struct
	Fields []types.Type
	Emit   bool
}

func (i *StructInfo) TypeDecl() bridge.TypeDecl { return i.Decl }
func (i *StructInfo) Emits() bool               { return i.Emit }
func (*StructInfo) isTypeInfo()                 {}

type EnumInfo struct {
	Decl *bridge.SharedEnum
	Type *types.Enum
	// Variants holds the payload types of each variant, empty for
	// fieldless ones.
	Variants [][]types.Type
	Emit     bool
}

func (i *EnumInfo) TypeDecl() bridge.TypeDecl { return i.Decl }
func (i *EnumInfo) Emits() bool               { return i.Emit }
func (*EnumInfo) isTypeInfo()                 {}

// Func is a function with its signature resolved.
type Func struct {
	Decl *bridge.FuncDecl
	Link string
	// Self is the owned type an associated function belongs to.
	Self *types.Opaque
	// Receiver is Self borrowed the way the method takes self.
	Receiver types.Type
	Params   []types.Type
	Ret      types.Type
}

func (f *Func) Host() bridge.HostLang { return f.Decl.Host }
func (f *Func) Name() string          { return f.Decl.Name }

// AsyncLink is the link name of the completion trampoline.
func (f *Func) AsyncLink() string { return f.Link + "$async" }

// Callbacks lists the boxed callbacks among the parameters.
func (f *Func) Callbacks() []*types.Callback {
	var out []*types.Callback
	for _, p := range f.Params {
		if cb, ok := p.(*types.Callback); ok {
			out = append(out, cb)
		}
	}
	return out
}

// Import is a declaration a module uses but another module emits.
type Import struct {
	Key string
	// Owner is empty when no module of the build emits the declaration.
	Owner string
	Type  types.Type
}

// Module is the analysed form of one bridge module.
type Module struct {
	Decl     *bridge.Module
	Compiled bool
	Resolver *types.Resolver
	View     *registry.View
	Types    []TypeInfo
	Funcs    []*Func
	// Slices lists the element C types of the slice typedefs this module
	// emits, sorted.
	Slices []string
	// Results lists the Result support declarations this module emits,
	// sorted by C name.
	Results []*types.Result
	Imports []Import
}

func (m *Module) Name() string { return m.Decl.Name }

func (m *Module) Names() types.Names { return m.Resolver.Names() }

// Methods lists the functions associated with decl in declaration order.
func (m *Module) Methods(decl *bridge.OpaqueType) []*Func {
	var out []*Func
	for _, f := range m.Funcs {
		if f.Self != nil && f.Self.Decl == decl {
			out = append(out, f)
		}
	}
	return out
}

// FreeFuncs lists functions not associated with any type.
func (m *Module) FreeFuncs() []*Func {
	var out []*Func
	for _, f := range m.Funcs {
		if f.Self == nil {
			out = append(out, f)
		}
	}
	return out
}

// Empty reports a module that generates nothing.
func (m *Module) Empty() bool {
	return !m.Compiled || (len(m.Types) == 0 && len(m.Funcs) == 0)
}

package types

// Primitive is a scalar passed unchanged on every side.
type Primitive struct {
	noSupport
	Prim PrimKind
}

// Unit is the () type; functions without a declared result return it.
var Unit = &Primitive{Prim: PrimUnit}

func (*Primitive) Kind() Kind         { return KindPrimitive }
func (*Primitive) bridged()           {}
func (p *Primitive) String() string   { return p.Prim.String() }
func (p *Primitive) CType() string    { return p.Prim.CName() }
func (p *Primitive) RustType() string { return p.Prim.String() }

func (p *Primitive) CIncludes() []string {
	switch {
	case p.Prim.IsInteger():
		return []string{"stdint.h"}
	case p.Prim == PrimBool:
		return []string{"stdbool.h"}
	default:
		return nil
	}
}

func (p *Primitive) RustFFIType() string                        { return p.Prim.String() }
func (*Primitive) RustIntoFFI(expr string) string               { return expr }
func (*Primitive) RustFromFFI(expr string) string               { return expr }
func (p *Primitive) SwiftType(Direction) string                 { return p.Prim.SwiftName() }
func (p *Primitive) SwiftFFIType() string                       { return p.Prim.SwiftName() }
func (*Primitive) SwiftIntoFFI(expr string, _ Direction) string { return expr }
func (*Primitive) SwiftFromFFI(expr string, _ Direction) string { return expr }

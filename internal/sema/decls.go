package sema

import (
	"errors"
	"fmt"

	"bridgegen/internal/bridge"
	"bridgegen/internal/diag"
	"bridgegen/internal/layout"
	"bridgegen/internal/source"
	"bridgegen/internal/types"
)

func (c *moduleChecker) checkTypes() {
	seen := make(map[string]source.Span, len(c.mod.Decl.Types))
	for _, d := range c.mod.Decl.Types {
		if d == nil {
			continue
		}
		key := dupKey(d)
		if prev, dup := seen[key]; dup {
			if c.reporter != nil {
				diag.ReportError(c.reporter, diag.SemaDuplicateType, d.DeclSpan(),
					fmt.Sprintf("type %s is declared more than once", d.DeclName())).
					WithNote(prev, "first declared here").
					Emit()
			}
			continue
		}
		seen[key] = d.DeclSpan()

		var info TypeInfo
		switch d := d.(type) {
		case *bridge.OpaqueType:
			if oi := c.checkOpaque(d); oi != nil {
				info = oi
			}
		case *bridge.SharedStruct:
			if si := c.checkStruct(d); si != nil {
				info = si
			}
		case *bridge.SharedEnum:
			if ei := c.checkEnum(d); ei != nil {
				info = ei
			}
		}
		if info != nil {
			c.mod.Types = append(c.mod.Types, info)
		}
	}
	c.checkLayouts()
}

// dupKey is the name a declaration occupies in the module's type namespace.
func dupKey(d bridge.TypeDecl) string {
	if o, ok := d.(*bridge.OpaqueType); ok {
		if o.Attrs.DeclareGeneric {
			return "generic:" + o.Name
		}
		return o.InstanceName()
	}
	return d.DeclName()
}

func (c *moduleChecker) checkOpaque(d *bridge.OpaqueType) *OpaqueInfo {
	ok := true
	if d.IsCopy() {
		if d.Attrs.Copy.SizeBytes <= 0 {
			c.report(diag.SemaCopySizeZero, d.Span, "copy type %s must declare a positive size, got %d",
				d.Name, d.Attrs.Copy.SizeBytes)
			ok = false
		}
		if d.Host.IsSwift() {
			c.report(diag.TypUnsupported, d.Span, "Swift-hosted type %s cannot be a copy type", d.Name)
			ok = false
		}
	}
	if d.IsGeneric() && d.Host.IsSwift() {
		c.report(diag.TypUnsupported, d.Span, "Swift-hosted type %s cannot be generic", d.Name)
		ok = false
	}
	if !ok {
		return nil
	}

	names := c.mod.Resolver.Names()
	if d.Attrs.DeclareGeneric {
		if len(d.GenericParams) == 0 {
			c.report(diag.TypGenericArity, d.Span, "generic declaration %s has no type parameters", d.Name)
			return nil
		}
		return &OpaqueInfo{Decl: d, Type: &types.Opaque{Names: names, Decl: d}}
	}

	if len(d.Generics) > 0 {
		g, declared := c.mod.Resolver.Generic(d.Name)
		if !declared {
			c.report(diag.TypUnresolved, d.Span, "%s is an instance of an undeclared generic type %s",
				d.InstanceName(), d.Name)
			return nil
		}
		if len(g.GenericParams) != len(d.Generics) {
			c.report(diag.TypGenericArity, d.Span, "%s expects %d generic arguments, got %d",
				d.Name, len(g.GenericParams), len(d.Generics))
			return nil
		}
	}
	t, err := c.mod.Resolver.OpaqueOf(d)
	if err != nil {
		c.reportTypeError(d.Span, "generic argument of "+d.InstanceName(), err)
		return nil
	}
	for i, arg := range t.Generics {
		if !genericArgOK(arg) {
			c.report(diag.TypUnsupported, d.Span, "generic argument %d of %s must be a primitive, String or owned opaque type, got %s",
				i+1, d.InstanceName(), arg)
			return nil
		}
	}
	return &OpaqueInfo{Decl: d, Type: t}
}

func genericArgOK(t types.Type) bool {
	switch t := t.(type) {
	case *types.Primitive:
		return !types.IsUnit(t)
	case *types.String:
		return true
	case *types.Opaque:
		return t.Ref == types.RefNone && !t.IsGeneric()
	default:
		return false
	}
}

func (c *moduleChecker) checkStruct(d *bridge.SharedStruct) *StructInfo {
	fields, ok := c.checkFields(d.Name, d.Fields)
	if !ok {
		return nil
	}
	return &StructInfo{
		Decl:   d,
		Type:   &types.Struct{Names: c.mod.Resolver.Names(), Decl: d},
		Fields: fields,
	}
}

func (c *moduleChecker) checkEnum(d *bridge.SharedEnum) *EnumInfo {
	if len(d.Variants) == 0 {
		c.report(diag.SemaEmptyEnum, d.Span, "enum %s must have at least one variant", d.Name)
		return nil
	}
	ok := true
	seen := make(map[string]source.Span, len(d.Variants))
	variants := make([][]types.Type, len(d.Variants))
	for i, v := range d.Variants {
		if prev, dup := seen[v.Name]; dup {
			if c.reporter != nil {
				diag.ReportError(c.reporter, diag.SemaDuplicateVariant, v.Span,
					fmt.Sprintf("variant %s::%s is declared more than once", d.Name, v.Name)).
					WithNote(prev, "first declared here").
					Emit()
			}
			ok = false
			continue
		}
		seen[v.Name] = v.Span
		fields, fieldsOK := c.checkFields(d.Name+"::"+v.Name, v.Fields)
		if !fieldsOK {
			ok = false
			continue
		}
		variants[i] = fields
	}
	if !ok {
		return nil
	}
	return &EnumInfo{
		Decl:     d,
		Type:     &types.Enum{Names: c.mod.Resolver.Names(), Decl: d},
		Variants: variants,
	}
}

// checkFields resolves every field of owner and reports each failure.
func (c *moduleChecker) checkFields(owner string, fields bridge.StructFields) ([]types.Type, bool) {
	ok := true
	out := make([]types.Type, 0, len(fields.List))
	names := make(map[string]source.Span, len(fields.List))
	for i, f := range fields.List {
		if fields.Style == bridge.FieldsNamed {
			if prev, dup := names[f.Name]; dup {
				if c.reporter != nil {
					diag.ReportError(c.reporter, diag.SemaDuplicateField, f.Span,
						fmt.Sprintf("field %s of %s is declared more than once", f.Name, owner)).
						WithNote(prev, "first declared here").
						Emit()
				}
				ok = false
				continue
			}
			names[f.Name] = f.Span
		}
		t, err := c.mod.Resolver.ResolveField(f.Type)
		if err != nil {
			c.reportTypeError(f.Span, "field "+fields.FieldName(i)+" of "+owner, err)
			ok = false
			continue
		}
		out = append(out, t)
	}
	return out, ok
}

// checkLayouts rejects shared types that contain themselves by value. A
// cycle is reported once, at the declaration the walk re-entered.
func (c *moduleChecker) checkLayouts() {
	for _, info := range c.mod.Types {
		var t types.Type
		switch info := info.(type) {
		case *StructInfo:
			t = info.Type
		case *EnumInfo:
			t = info.Type
		default:
			continue
		}
		_, err := c.layout.LayoutOf(t)
		var le *layout.LayoutError
		if !errors.As(err, &le) || le.Kind != layout.LayoutErrRecursiveByValue {
			continue
		}
		if le.Type == info.TypeDecl().DeclName() {
			c.reportLayoutError(info.TypeDecl().DeclSpan(), le)
		}
	}
}

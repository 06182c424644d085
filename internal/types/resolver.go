package types

import (
	"strconv"

	"bridgegen/internal/bridge"
)

// Resolver turns type expressions into bridged types using the
// declarations of one module.
type Resolver struct {
	names     Names
	decls     map[string]bridge.TypeDecl
	instances map[string]*bridge.OpaqueType
	generics  map[string]*bridge.OpaqueType
}

// NewResolver indexes decls. When a name is declared twice the first
// declaration wins.
func NewResolver(names Names, decls []bridge.TypeDecl) *Resolver {
	r := &Resolver{
		names:     names,
		decls:     make(map[string]bridge.TypeDecl, len(decls)),
		instances: make(map[string]*bridge.OpaqueType),
		generics:  make(map[string]*bridge.OpaqueType),
	}
	for _, d := range decls {
		switch d := d.(type) {
		case *bridge.OpaqueType:
			switch {
			case d.Attrs.DeclareGeneric:
				if _, dup := r.generics[d.Name]; !dup {
					r.generics[d.Name] = d
				}
			case len(d.Generics) > 0:
				if _, dup := r.instances[d.InstanceName()]; !dup {
					r.instances[d.InstanceName()] = d
				}
			default:
				if _, dup := r.decls[d.Name]; !dup {
					r.decls[d.Name] = d
				}
			}
		default:
			if _, dup := r.decls[d.DeclName()]; !dup {
				r.decls[d.DeclName()] = d
			}
		}
	}
	return r
}

func (r *Resolver) Names() Names { return r.names }

// Lookup returns the non-generic declaration named name.
func (r *Resolver) Lookup(name string) (bridge.TypeDecl, bool) {
	d, ok := r.decls[name]
	return d, ok
}

// Generic returns the declare_generic declaration named name.
func (r *Resolver) Generic(name string) (*bridge.OpaqueType, bool) {
	g, ok := r.generics[name]
	return g, ok
}

// Resolve resolves e. A nil expression is the unit type.
func (r *Resolver) Resolve(e *bridge.TypeExpr) (Type, error) {
	if e == nil {
		return Unit, nil
	}
	switch e.Kind {
	case bridge.ExprUnit:
		return Unit, nil
	case bridge.ExprRef:
		return r.resolveRef(e)
	case bridge.ExprSlice:
		return nil, unsupported(e.String(), "slices can only be passed by reference")
	case bridge.ExprFnOnce:
		return r.resolveCallback(e)
	default:
		return r.resolvePath(e)
	}
}

// ResolveField resolves the type of a struct field or enum payload, where
// borrowed values, results and callbacks cannot be stored.
func (r *Resolver) ResolveField(e *bridge.TypeExpr) (Type, error) {
	t, err := r.Resolve(e)
	if err != nil {
		return nil, err
	}
	switch t := t.(type) {
	case *Str, *Slice:
		return nil, unsupported(e.String(), "borrowed types cannot be stored in a field")
	case *Opaque:
		if t.Ref != RefNone {
			return nil, unsupported(e.String(), "borrowed types cannot be stored in a field")
		}
	case *Result:
		return nil, unsupported(e.String(), "Result cannot be stored in a field")
	case *Callback:
		return nil, unsupported(e.String(), "callbacks cannot be stored in a field")
	}
	if IsUnit(t) {
		return nil, unsupported(e.String(), "() cannot be stored in a field")
	}
	return t, nil
}

// OpaqueOf returns the owned handle type of decl, with generic arguments
// resolved for instances.
func (r *Resolver) OpaqueOf(decl *bridge.OpaqueType) (*Opaque, error) {
	o := &Opaque{Names: r.names, Decl: decl}
	for _, g := range decl.Generics {
		t, err := r.Resolve(g)
		if err != nil {
			return nil, err
		}
		o.Generics = append(o.Generics, t)
	}
	return o, nil
}

// StructFields resolves every field of s in declaration order.
func (r *Resolver) StructFields(s *Struct) ([]Type, error) {
	return r.resolveFields(s.Decl.Fields)
}

// VariantFields resolves the payload fields of every variant of e.
func (r *Resolver) VariantFields(e *Enum) ([][]Type, error) {
	out := make([][]Type, len(e.Decl.Variants))
	for i, v := range e.Decl.Variants {
		fields, err := r.resolveFields(v.Fields)
		if err != nil {
			return nil, err
		}
		out[i] = fields
	}
	return out, nil
}

func (r *Resolver) resolveFields(fields bridge.StructFields) ([]Type, error) {
	out := make([]Type, 0, len(fields.List))
	for _, f := range fields.List {
		t, err := r.ResolveField(f.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *Resolver) resolveRef(e *bridge.TypeExpr) (Type, error) {
	elem := e.Elem
	switch {
	case elem.Kind == bridge.ExprSlice:
		inner, err := r.Resolve(elem.Elem)
		if err != nil {
			return nil, err
		}
		prim, ok := inner.(*Primitive)
		if !ok || prim.Prim == PrimUnit {
			return nil, unsupported(e.String(), "slice elements must be numeric or bool primitives")
		}
		return &Slice{Names: r.names, Elem: prim, Mut: e.Mut}, nil
	case elem.Kind == bridge.ExprPath && elem.Name == "str" && len(elem.Args) == 0:
		if e.Mut {
			return nil, unsupported(e.String(), "&mut str cannot cross the boundary")
		}
		return &Str{Names: r.names}, nil
	case elem.Kind == bridge.ExprPath:
		t, err := r.resolvePath(elem)
		if err != nil {
			return nil, err
		}
		op, ok := t.(*Opaque)
		if !ok {
			return nil, unsupported(e.String(), "only opaque types can be passed by reference")
		}
		if op.IsCopy() && e.Mut {
			return nil, unsupported(e.String(), "copy types cannot be borrowed mutably")
		}
		ref := *op
		ref.Ref = RefShared
		if e.Mut {
			ref.Ref = RefMut
		}
		return &ref, nil
	default:
		return nil, unsupported(e.String(), "references to %s are not supported", elem)
	}
}

func (r *Resolver) resolvePath(e *bridge.TypeExpr) (Type, error) {
	switch e.Name {
	case "Option":
		return r.resolveOption(e)
	case "Result":
		return r.resolveResult(e)
	case "Vec":
		return r.resolveVec(e)
	case "String", "std::string::String":
		if len(e.Args) > 0 {
			return nil, unsupported(e.String(), "String takes no generic arguments")
		}
		return &String{Names: r.names}, nil
	case "str":
		return nil, unsupported(e.String(), "str can only be passed as &str")
	case "Box":
		return nil, unsupported(e.String(), "Box is only supported as Box<dyn FnOnce(..)>")
	}
	if k, ok := LookupPrim(e.Name); ok {
		if len(e.Args) > 0 {
			return nil, unsupported(e.String(), "%s takes no generic arguments", e.Name)
		}
		if k == PrimUnit {
			return Unit, nil
		}
		return &Primitive{Prim: k}, nil
	}
	if len(e.Args) > 0 {
		return r.resolveInstance(e)
	}
	decl, ok := r.decls[e.Name]
	if !ok {
		if g, generic := r.generics[e.Name]; generic {
			return nil, &Error{Kind: ErrGenericArity, Type: e.String(),
				Detail: "expected " + plural(len(g.GenericParams), "generic argument")}
		}
		return nil, unresolved(e.String(), "no type named %s is declared", e.Name)
	}
	switch d := decl.(type) {
	case *bridge.SharedStruct:
		return &Struct{Names: r.names, Decl: d}, nil
	case *bridge.SharedEnum:
		return &Enum{Names: r.names, Decl: d}, nil
	case *bridge.OpaqueType:
		return r.OpaqueOf(d)
	default:
		return nil, unresolved(e.String(), "unknown declaration kind")
	}
}

func (r *Resolver) resolveInstance(e *bridge.TypeExpr) (Type, error) {
	if d, ok := r.instances[e.String()]; ok {
		return r.OpaqueOf(d)
	}
	if g, ok := r.generics[e.Name]; ok {
		if len(g.GenericParams) != len(e.Args) {
			return nil, &Error{Kind: ErrGenericArity, Type: e.String(),
				Detail: "expected " + plural(len(g.GenericParams), "generic argument")}
		}
		return nil, unresolved(e.String(), "generic %s has no declared instance %s", e.Name, e)
	}
	if _, ok := r.decls[e.Name]; ok {
		return nil, &Error{Kind: ErrGenericArity, Type: e.String(), Detail: e.Name + " is not generic"}
	}
	return nil, unresolved(e.String(), "no type named %s is declared", e.Name)
}

func (r *Resolver) args(e *bridge.TypeExpr, n int) ([]Type, error) {
	if len(e.Args) != n {
		return nil, &Error{Kind: ErrGenericArity, Type: e.String(),
			Detail: "expected " + plural(n, "generic argument")}
	}
	out := make([]Type, n)
	for i, a := range e.Args {
		t, err := r.Resolve(a)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (r *Resolver) resolveOption(e *bridge.TypeExpr) (Type, error) {
	args, err := r.args(e, 1)
	if err != nil {
		return nil, err
	}
	inner := args[0]
	switch t := inner.(type) {
	case *Primitive:
		if t.Prim == PrimUnit {
			return nil, unsupported(e.String(), "Option<()> has no representation")
		}
	case *Option:
		return nil, unsupported(e.String(), "nested options are not supported")
	case *Result:
		return nil, unsupported(e.String(), "Option<Result> is not supported")
	case *Slice, *Str:
		return nil, unsupported(e.String(), "borrowed %s cannot be optional", t)
	case *Callback:
		return nil, unsupported(e.String(), "callbacks cannot be optional")
	case *Opaque:
		if t.IsCopy() && t.Ref != RefNone {
			return nil, unsupported(e.String(), "borrowed copy types cannot be optional")
		}
	}
	return &Option{Names: r.names, Inner: inner}, nil
}

func (r *Resolver) resolveResult(e *bridge.TypeExpr) (Type, error) {
	args, err := r.args(e, 2)
	if err != nil {
		return nil, err
	}
	for _, side := range args {
		switch side.(type) {
		case *Option, *Result, *Str, *Slice, *Callback:
			return nil, unsupported(e.String(), "%s cannot be carried by a Result", side)
		}
	}
	if IsUnit(args[0]) && IsUnit(args[1]) {
		return nil, unsupported(e.String(), "Result<(), ()> carries no data")
	}
	return &Result{Names: r.names, Ok: args[0], Err: args[1]}, nil
}

func (r *Resolver) resolveVec(e *bridge.TypeExpr) (Type, error) {
	args, err := r.args(e, 1)
	if err != nil {
		return nil, err
	}
	if detail := vecElemProblem(args[0]); detail != "" {
		return nil, unsupported(e.String(), "%s", detail)
	}
	return &Vec{Names: r.names, Elem: args[0]}, nil
}

// vecElemProblem explains why t cannot be a Vec element, or returns "".
func vecElemProblem(t Type) string {
	switch t := t.(type) {
	case *Primitive:
		if t.Prim == PrimUnit {
			return "Vec<()> is not supported"
		}
		return ""
	case *String:
		return ""
	case *Opaque:
		switch {
		case t.Ref != RefNone:
			return "Vec elements must be owned"
		case t.IsCopy():
			return "Vec of a copy opaque type is not supported"
		case t.IsGeneric():
			return "Vec of a generic opaque type is not supported"
		case t.Host().IsSwift():
			return "Vec of a Swift-hosted type is not supported"
		}
		return ""
	case *Enum:
		if !t.IsTransparent() {
			return "Vec of a data-carrying enum is not supported"
		}
		return ""
	default:
		return "Vec<" + t.String() + "> is not supported"
	}
}

func (r *Resolver) resolveCallback(e *bridge.TypeExpr) (Type, error) {
	cb := &Callback{Names: r.names}
	for _, p := range e.Params {
		t, err := r.Resolve(p)
		if err != nil {
			return nil, err
		}
		if err := callbackSlotCheck(e, t); err != nil {
			return nil, err
		}
		cb.Params = append(cb.Params, t)
	}
	ret, err := r.Resolve(e.Ret)
	if err != nil {
		return nil, err
	}
	if err := callbackSlotCheck(e, ret); err != nil {
		return nil, err
	}
	cb.Ret = ret
	return cb, nil
}

func callbackSlotCheck(e *bridge.TypeExpr, t Type) error {
	switch t.(type) {
	case *Callback:
		return unsupported(e.String(), "callbacks cannot take or return callbacks")
	case *Str, *Slice:
		return unsupported(e.String(), "callbacks cannot take or return borrowed %s", t)
	}
	if o, ok := t.(*Opaque); ok && o.Ref != RefNone {
		return unsupported(e.String(), "callbacks cannot take or return borrowed %s", t)
	}
	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

package layout

import (
	"bridgegen/internal/types"
)

// C enums are int-sized on every supported target.
const enumTagSize = 4

func (e *Engine) computeLayout(t types.Type, state *layoutState) (TypeLayout, *LayoutError) {
	switch t := t.(type) {
	case *types.Primitive:
		switch {
		case t.Prim == types.PrimUnit:
			return TypeLayout{Size: 0, Align: 1}, nil
		case t.Prim.IsPointerSized():
			return e.ptrLayout(), nil
		default:
			return scalarLayoutBytes(t.Prim.NaturalSize()), nil
		}

	case *types.Str, *types.Slice:
		// {start, len}
		return e.structOf([]TypeLayout{e.ptrLayout(), e.ptrLayout()}), nil

	case *types.String, *types.Vec, *types.Callback:
		return e.ptrLayout(), nil

	case *types.Opaque:
		if !t.IsCopy() {
			return e.ptrLayout(), nil
		}
		size := t.Decl.Attrs.Copy.SizeBytes
		if size <= 0 {
			return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrInvalidCopySize, Type: t.String()}
		}
		return TypeLayout{Size: size, Align: 1}, nil

	case *types.Struct:
		return e.structLayout(t, state)

	case *types.Enum:
		return e.enumLayout(t, state)

	case *types.Option:
		if types.IsPointer(t.Inner) {
			return e.ptrLayout(), nil
		}
		inner, err := e.layoutOf(t.Inner, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		isSome := scalarLayoutBytes(1)
		if _, prim := t.Inner.(*types.Primitive); prim {
			// support option structs are { val; is_some; }
			return e.tagged(e.structOf([]TypeLayout{inner, isSome}), 1, 0), nil
		}
		l := e.structOf([]TypeLayout{isSome, inner})
		return e.tagged(l, 1, l.FieldOffsets[1]), nil

	case *types.Result:
		var members []TypeLayout
		for _, side := range []types.Type{t.Ok, t.Err} {
			if types.IsUnit(side) {
				continue
			}
			l, err := e.layoutOf(side, state)
			if err != nil {
				return TypeLayout{Size: 0, Align: 1}, err
			}
			members = append(members, l)
		}
		l := e.structOf([]TypeLayout{scalarLayoutBytes(1), unionOf(members)})
		return e.tagged(l, 1, l.FieldOffsets[1]), nil

	default:
		return TypeLayout{Size: 0, Align: 1}, nil
	}
}

func (e *Engine) structLayout(t *types.Struct, state *layoutState) (TypeLayout, *LayoutError) {
	if e.Fields == nil {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrFields, Type: t.String()}
	}
	fields, ferr := e.Fields.StructFields(t)
	if ferr != nil {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrFields, Type: t.String(), Err: ferr}
	}
	if len(fields) == 0 {
		// uint8_t _private
		return e.structOf([]TypeLayout{scalarLayoutBytes(1)}), nil
	}
	members := make([]TypeLayout, len(fields))
	for i, f := range fields {
		l, err := e.layoutOf(f, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		members[i] = l
	}
	return e.structOf(members), nil
}

func (e *Engine) enumLayout(t *types.Enum, state *layoutState) (TypeLayout, *LayoutError) {
	tag := scalarLayoutBytes(enumTagSize)
	if t.IsTransparent() {
		return e.tagged(e.structOf([]TypeLayout{tag}), enumTagSize, 0), nil
	}
	if e.Fields == nil {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrFields, Type: t.String()}
	}
	variants, ferr := e.Fields.VariantFields(t)
	if ferr != nil {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrFields, Type: t.String(), Err: ferr}
	}
	var payloads []TypeLayout
	for _, fields := range variants {
		if len(fields) == 0 {
			continue
		}
		members := make([]TypeLayout, len(fields))
		for i, f := range fields {
			l, err := e.layoutOf(f, state)
			if err != nil {
				return TypeLayout{Size: 0, Align: 1}, err
			}
			members[i] = l
		}
		payloads = append(payloads, e.structOf(members))
	}
	l := e.structOf([]TypeLayout{tag, unionOf(payloads)})
	return e.tagged(l, enumTagSize, l.FieldOffsets[1]), nil
}

func (e *Engine) tagged(l TypeLayout, tagSize, payloadOffset int) TypeLayout {
	l.TagSize = tagSize
	l.PayloadOffset = payloadOffset
	return l
}

// structOf lays members out in order with C padding rules.
func (e *Engine) structOf(members []TypeLayout) TypeLayout {
	offsets := make([]int, len(members))
	aligns := make([]int, len(members))
	size := 0
	align := 1
	for i, m := range members {
		fAlign := m.Align
		if fAlign <= 0 {
			fAlign = 1
		}
		size = roundUp(size, fAlign)
		offsets[i] = size
		aligns[i] = fAlign
		size += m.Size
		align = max(align, fAlign)
	}
	size = roundUp(size, align)
	return TypeLayout{
		Size:         size,
		Align:        align,
		FieldOffsets: offsets,
		FieldAligns:  aligns,
	}
}

func unionOf(members []TypeLayout) TypeLayout {
	size, align := 0, 1
	for _, m := range members {
		size = max(size, m.Size)
		align = max(align, m.Align)
	}
	return TypeLayout{Size: roundUp(size, align), Align: align}
}

func (e *Engine) ptrLayout() TypeLayout {
	ptrSize := e.Target.PtrSize
	ptrAlign := e.Target.PtrAlign
	if ptrSize <= 0 {
		ptrSize = 8
	}
	if ptrAlign <= 0 {
		ptrAlign = ptrSize
	}
	return TypeLayout{Size: ptrSize, Align: ptrAlign}
}

func scalarLayoutBytes(size int) TypeLayout {
	if size <= 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	return TypeLayout{Size: size, Align: size}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

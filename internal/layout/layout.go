package layout

import (
	"fortio.org/safecast"

	"bridgegen/internal/types"
)

// TypeLayout is the C ABI layout of a bridged type for a specific Target.
type TypeLayout struct {
	Size  int
	Align int

	// Struct-only:
	FieldOffsets []int
	FieldAligns  []int

	// Tagged (enum, Result, Option wrapper) fields.
	TagSize       int
	PayloadOffset int
}

// SizeU32 returns Size as a uint32 for serialized reports.
func (l TypeLayout) SizeU32() (uint32, error) { return safecast.Conv[uint32](l.Size) }

// FieldResolver supplies the resolved fields of shared types.
// *types.Resolver implements it.
type FieldResolver interface {
	StructFields(*types.Struct) ([]types.Type, error)
	VariantFields(*types.Enum) ([][]types.Type, error)
}

// Engine computes memory layout for bridged types.
type Engine struct {
	Target Target
	Fields FieldResolver

	cache *cache
}

// New creates a new Engine for the specified target.
func New(target Target, fields FieldResolver) *Engine {
	return &Engine{
		Target: target,
		Fields: fields,
		cache:  newCache(),
	}
}

type layoutState struct {
	stack []cacheKey
	names []string
	index map[cacheKey]int
}

func newLayoutState() *layoutState {
	return &layoutState{index: make(map[cacheKey]int, 16)}
}

// LayoutOf computes and caches the layout of t.
func (e *Engine) LayoutOf(t types.Type) (TypeLayout, error) {
	if e == nil || t == nil {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	if e.cache == nil {
		e.cache = newCache()
	}
	l, err := e.layoutOf(t, newLayoutState())
	if err != nil {
		return l, err
	}
	return l, nil
}

func (e *Engine) layoutOf(t types.Type, state *layoutState) (TypeLayout, *LayoutError) {
	key := cacheKey(t.CType())
	if cached, ok := e.cache.get(key); ok {
		return cached.Layout, cached.Err
	}

	if idx, ok := state.index[key]; ok {
		cycle := append([]string(nil), state.names[idx:]...)
		cycle = append(cycle, t.String())
		err := &LayoutError{
			Kind:  LayoutErrRecursiveByValue,
			Type:  t.String(),
			Cycle: cycle,
		}
		e.cache.put(key, &cacheEntry{Layout: TypeLayout{Size: 0, Align: 1}, Err: err})
		return TypeLayout{Size: 0, Align: 1}, err
	}

	state.index[key] = len(state.stack)
	state.stack = append(state.stack, key)
	state.names = append(state.names, t.String())
	layout, err := e.computeLayout(t, state)
	state.stack = state.stack[:len(state.stack)-1]
	state.names = state.names[:len(state.names)-1]
	delete(state.index, key)

	e.cache.put(key, &cacheEntry{Layout: layout, Err: err})
	return layout, err
}

// SizeOf returns the size of a type in bytes.
func (e *Engine) SizeOf(t types.Type) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Size, err
}

// AlignOf returns the alignment requirement of a type in bytes.
func (e *Engine) AlignOf(t types.Type) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Align, err
}

// FieldOffset returns the byte offset of a struct field.
func (e *Engine) FieldOffset(structT types.Type, fieldIdx int) (int, error) {
	l, err := e.LayoutOf(structT)
	if err != nil {
		return 0, err
	}
	if fieldIdx < 0 || fieldIdx >= len(l.FieldOffsets) {
		return 0, nil
	}
	return l.FieldOffsets[fieldIdx], nil
}

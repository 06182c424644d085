// Package registry records which module of a build emits each shared
// declaration, so that headers, glue and wrappers agree on a single owner.
//
// The analysis pass is the only writer. It walks modules in build order and
// claims each key for the first module that needs it; backends only read.
package registry

import "sort"

// Registry maps declaration keys to the module that emits them.
type Registry struct {
	owners map[string]string
	order  []string
}

func New() *Registry {
	return &Registry{owners: make(map[string]string, 64)}
}

// For returns the view of module.
func (r *Registry) For(module string) *View {
	return &View{reg: r, module: module}
}

// Owner returns the module owning key.
func (r *Registry) Owner(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	m, ok := r.owners[key]
	return m, ok
}

// Keys lists every claimed key in claim order.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// Owned lists the keys owned by module, sorted.
func (r *Registry) Owned(module string) []string {
	if r == nil {
		return nil
	}
	var out []string
	for k, m := range r.owners {
		if m == module {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.owners)
}

// View is one module's window onto the registry.
type View struct {
	reg    *Registry
	module string
}

func (v *View) Module() string { return v.module }

// ShouldEmit reports whether this module emits key: nobody claimed it yet,
// or this module did.
func (v *View) ShouldEmit(key string) bool {
	if v == nil || v.reg == nil {
		return true
	}
	owner, ok := v.reg.owners[key]
	return !ok || owner == v.module
}

// MarkEmitted claims key for this module unless another module already
// owns it.
func (v *View) MarkEmitted(key string) {
	if v == nil || v.reg == nil {
		return
	}
	if _, ok := v.reg.owners[key]; ok {
		return
	}
	v.reg.owners[key] = v.module
	v.reg.order = append(v.reg.order, key)
}

// Claim marks key and reports whether this module ended up owning it.
func (v *View) Claim(key string) bool {
	v.MarkEmitted(key)
	return v.ShouldEmit(key)
}

// Owner returns the module owning key.
func (v *View) Owner(key string) (string, bool) {
	if v == nil {
		return "", false
	}
	return v.reg.Owner(key)
}

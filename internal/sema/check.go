package sema

import (
	"sort"

	"bridgegen/internal/bridge"
	"bridgegen/internal/diag"
	"bridgegen/internal/layout"
	"bridgegen/internal/registry"
	"bridgegen/internal/types"
)

// Options configure the analysis of a module set.
type Options struct {
	Reporter diag.Reporter
	Config   bridge.CodegenConfig
	// Target is used for layout checks. The zero value means
	// layout.DefaultTarget.
	Target layout.Target
}

// Result stores the analysed modules and the ownership plan shared by
// every backend.
type Result struct {
	Modules  []*Module
	Registry *registry.Registry
	Config   bridge.CodegenConfig
	Target   layout.Target
}

// Module returns the analysed module named name.
func (r *Result) Module(name string) *Module {
	for _, m := range r.Modules {
		if m.Decl.Name == name {
			return m
		}
	}
	return nil
}

// Check resolves every compiled module of set, reports declaration errors
// and claims each shared declaration for the first module that needs it.
// Modules are visited in set order, so ownership is deterministic.
func Check(set bridge.ModuleSet, opts Options) *Result {
	cfg := opts.Config.Normalize()
	target := opts.Target
	if target.PtrSize == 0 {
		target = layout.DefaultTarget()
	}
	res := &Result{
		Registry: registry.New(),
		Config:   cfg,
		Target:   target,
	}
	names := types.Names{Prefix: cfg.Prefix, Support: cfg.SupportCrate}
	for _, decl := range set {
		if decl == nil {
			continue
		}
		mod := &Module{
			Decl:     decl,
			Compiled: decl.WillBeCompiled(cfg),
			Resolver: types.NewResolver(names, decl.Types),
			View:     res.Registry.For(decl.Name),
		}
		res.Modules = append(res.Modules, mod)
		if !mod.Compiled {
			continue
		}
		checker := moduleChecker{
			mod:      mod,
			reporter: opts.Reporter,
			layout:   layout.New(target, mod.Resolver),
		}
		checker.run()
	}
	for _, mod := range res.Modules {
		if mod.Compiled {
			planImports(mod, res.Registry)
		}
	}
	return res
}

type moduleChecker struct {
	mod      *Module
	reporter diag.Reporter
	layout   *layout.Engine
}

func (c *moduleChecker) run() {
	c.checkTypes()
	c.checkFuncs()
	c.claim()
}

// claim marks the module's declarations in the registry: types in
// declaration order, then the slice and Result declarations its functions
// need.
func (c *moduleChecker) claim() {
	view := c.mod.View
	for _, info := range c.mod.Types {
		switch info := info.(type) {
		case *OpaqueInfo:
			info.Emit = !info.Decl.Attrs.AlreadyDeclared && view.Claim(info.Decl.Key())
		case *StructInfo:
			info.Emit = !info.Decl.AlreadyDeclared && view.Claim(info.Decl.Key())
		case *EnumInfo:
			info.Emit = !info.Decl.AlreadyDeclared && view.Claim(info.Decl.Key())
		}
	}

	slices := make(map[string]struct{})
	results := make(map[string]*types.Result)
	for _, f := range c.mod.Funcs {
		for _, t := range f.signature() {
			if s, ok := t.(*types.Slice); ok && f.Host() == bridge.HostRust {
				elem := s.ElemCType()
				if _, seen := slices[elem]; !seen && view.Claim(sliceKey(elem)) {
					slices[elem] = struct{}{}
				}
			}
			for _, r := range resultsIn(t) {
				key := resultKey(r)
				if _, seen := results[key]; !seen && view.Claim(key) {
					results[key] = r
				}
			}
		}
	}
	for elem := range slices {
		c.mod.Slices = append(c.mod.Slices, elem)
	}
	sort.Strings(c.mod.Slices)
	for _, r := range results {
		c.mod.Results = append(c.mod.Results, r)
	}
	sort.Slice(c.mod.Results, func(i, j int) bool {
		return c.mod.Results[i].CType() < c.mod.Results[j].CType()
	})
}

// planImports lists the declarations mod refers to but does not emit.
func planImports(mod *Module, reg *registry.Registry) {
	seen := make(map[string]bool)
	add := func(key string, t types.Type) {
		if seen[key] {
			return
		}
		seen[key] = true
		owner, _ := reg.Owner(key)
		if owner == mod.Decl.Name {
			return
		}
		mod.Imports = append(mod.Imports, Import{Key: key, Owner: owner, Type: t})
	}
	for _, info := range mod.Types {
		if info.Emits() {
			continue
		}
		switch info := info.(type) {
		case *OpaqueInfo:
			if info.Decl.Attrs.DeclareGeneric {
				continue
			}
			add(info.Decl.Key(), info.Type)
		case *StructInfo:
			add(info.Decl.Key(), info.Type)
		case *EnumInfo:
			add(info.Decl.Key(), info.Type)
		}
	}
	for _, f := range mod.Funcs {
		for _, t := range f.signature() {
			for _, r := range resultsIn(t) {
				add(resultKey(r), r)
			}
		}
	}
	sort.Slice(mod.Imports, func(i, j int) bool { return mod.Imports[i].Key < mod.Imports[j].Key })
}

func sliceKey(elemC string) string { return "slice:" + elemC }

func resultKey(r *types.Result) string { return "result:" + r.CType() }

// signature lists the parameter and return types of f.
func (f *Func) signature() []types.Type {
	out := make([]types.Type, 0, len(f.Params)+1)
	out = append(out, f.Params...)
	if f.Ret != nil {
		out = append(out, f.Ret)
	}
	return out
}

// resultsIn finds the Result types t carries, including those in callback
// signatures.
func resultsIn(t types.Type) []*types.Result {
	switch t := t.(type) {
	case *types.Result:
		return []*types.Result{t}
	case *types.Callback:
		var out []*types.Result
		for _, p := range t.Params {
			out = append(out, resultsIn(p)...)
		}
		return append(out, resultsIn(t.Ret)...)
	default:
		return nil
	}
}

package bridge

import "bridgegen/internal/source"

// Module is one translation unit.
type Module struct {
	Name string
	// CfgFeatures gate the whole module: it is compiled only when every
	// listed feature is enabled.
	CfgFeatures []string
	Types       []TypeDecl
	Funcs       []*FuncDecl
	File        source.FileID
	Span        source.Span
}

// WillBeCompiled reports whether the module takes part in this build.
func (m *Module) WillBeCompiled(cfg CodegenConfig) bool {
	for _, f := range m.CfgFeatures {
		if !cfg.FeatureEnabled(f) {
			return false
		}
	}
	return true
}

// IsEmpty reports a module with nothing to generate.
func (m *Module) IsEmpty() bool {
	return len(m.Types) == 0 && len(m.Funcs) == 0
}

// ModuleSet is the ordered list of modules generated together. Order
// decides which module owns a declaration shared between several of them.
type ModuleSet []*Module

func (s ModuleSet) Names() []string {
	out := make([]string, len(s))
	for i, m := range s {
		out[i] = m.Name
	}
	return out
}

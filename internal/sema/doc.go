// Package sema analyses a bridge.ModuleSet before code generation.
//
// It resolves every signature and field through types.Resolver, rejects
// declarations that cannot cross the boundary, checks shared types for
// by-value cycles with the layout engine and plans which module emits each
// shared declaration. Backends consume the Result and never write to the
// registry.
package sema

// Package testkit holds checks shared by tests and fuzz harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"bridgegen/internal/bridge"
	"bridgegen/internal/source"
)

// CheckSpans verifies that every span recorded for mod points into sf:
// same file, Start <= End, End within the content. Empty spans are allowed
// because the decoder falls back to the file start when a name cannot be
// located.
func CheckSpans(mod *bridge.Module, sf *source.File) error {
	if mod == nil || sf == nil {
		return fmt.Errorf("nil module or file")
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("content length overflow: %w", err)
	}
	check := func(what string, sp source.Span) error {
		switch {
		case sp.File != sf.ID:
			return fmt.Errorf("%s: span in file %d, want %d", what, sp.File, sf.ID)
		case sp.Start > sp.End:
			return fmt.Errorf("%s: inverted span %v", what, sp)
		case sp.End > size:
			return fmt.Errorf("%s: span %v ends past content (%d bytes)", what, sp, size)
		}
		return nil
	}

	if err := check("module "+mod.Name, mod.Span); err != nil {
		return err
	}
	for _, decl := range mod.Types {
		name := "type " + decl.DeclName()
		if err := check(name, decl.DeclSpan()); err != nil {
			return err
		}
		switch d := decl.(type) {
		case *bridge.SharedStruct:
			for i, f := range d.Fields.List {
				if err := check(fmt.Sprintf("%s field %d", name, i), f.Span); err != nil {
					return err
				}
			}
		case *bridge.SharedEnum:
			for _, v := range d.Variants {
				if err := check(name+" variant "+v.Name, v.Span); err != nil {
					return err
				}
				for i, f := range v.Fields.List {
					if err := check(fmt.Sprintf("%s variant %s field %d", name, v.Name, i), f.Span); err != nil {
						return err
					}
				}
			}
		}
	}
	for _, fn := range mod.Funcs {
		name := "function " + fn.Name
		if err := check(name, fn.Span); err != nil {
			return err
		}
		for _, p := range fn.Params {
			if err := check(name+" param "+p.Name, p.Span); err != nil {
				return err
			}
		}
	}
	return nil
}

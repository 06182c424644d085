package sema

import (
	"fmt"

	"bridgegen/internal/bridge"
	"bridgegen/internal/diag"
	"bridgegen/internal/source"
	"bridgegen/internal/types"
)

func (c *moduleChecker) checkFuncs() {
	prefix := c.mod.Resolver.Names().Prefix
	seen := make(map[string]source.Span, len(c.mod.Decl.Funcs))
	for _, d := range c.mod.Decl.Funcs {
		if d == nil {
			continue
		}
		link := d.LinkName(prefix)
		if prev, dup := seen[link]; dup {
			if c.reporter != nil {
				diag.ReportError(c.reporter, diag.SemaDuplicateFunc, d.Span,
					fmt.Sprintf("function %s is declared more than once", d.Signature())).
					WithNote(prev, "first declared here").
					Emit()
			}
			continue
		}
		seen[link] = d.Span
		if f := c.checkFunc(d, link); f != nil {
			c.mod.Funcs = append(c.mod.Funcs, f)
		}
	}
}

func (c *moduleChecker) checkFunc(d *bridge.FuncDecl, link string) *Func {
	f := &Func{Decl: d, Link: link}
	ok := true

	if d.Async && d.Host.IsSwift() {
		c.report(diag.SemaAsyncSwiftHosted, d.Span, "Swift-hosted function %s cannot be async", d.Name)
		ok = false
	}

	if d.IsAssociated() {
		self := c.resolveSelf(d)
		if self == nil {
			return nil
		}
		f.Self = self
		if self.Host() != d.Host {
			c.report(diag.SemaHostMismatch, d.Span, "%s is hosted in %s but its type %s is hosted in %s",
				d.Name, d.Host, self, self.Host())
			ok = false
		}
		switch d.Receiver {
		case bridge.ReceiverOwned:
			f.Receiver = self
		case bridge.ReceiverRef:
			f.Receiver = borrow(self, types.RefShared)
		case bridge.ReceiverRefMut:
			if self.IsCopy() {
				c.report(diag.SemaMutCopyReceiver, d.Span, "%s takes &mut self but %s is a copy type", d.Name, self)
				ok = false
			} else {
				f.Receiver = borrow(self, types.RefMut)
			}
		}
	} else if d.Receiver != bridge.ReceiverNone {
		c.report(diag.SemaReceiverNotOpaque, d.Span, "%s takes %s but is not associated with a type",
			d.Name, d.Receiver)
		ok = false
	}

	if d.Init {
		switch {
		case !d.IsAssociated():
			c.report(diag.SemaInitReturn, d.Span, "initializer %s must be associated with a type", d.Name)
			ok = false
		case d.Receiver != bridge.ReceiverNone:
			c.report(diag.SemaInitReturn, d.Span, "initializer %s cannot take %s", d.Name, d.Receiver)
			ok = false
		}
	}

	for i, p := range d.Params {
		t, err := c.mod.Resolver.Resolve(p.Type)
		if err != nil {
			c.reportTypeError(p.Span, "parameter "+p.Name+" of "+d.Name, err)
			ok = false
			continue
		}
		if types.IsUnit(t) {
			c.report(diag.TypUnsupported, p.Span, "parameter %s of %s cannot have type ()", p.Name, d.Name)
			ok = false
			continue
		}
		if cb, isCallback := t.(*types.Callback); isCallback {
			if !d.Host.IsSwift() {
				c.report(diag.TypUnsupported, p.Span,
					"parameter %s of %s: callbacks can only be passed to Swift-hosted functions", p.Name, d.Name)
				ok = false
				continue
			}
			t = cb.WithSite(link, i)
		}
		if d.Async && isBorrowed(t) {
			c.report(diag.TypUnsupported, p.Span, "async function %s cannot borrow parameter %s (%s)",
				d.Name, p.Name, t)
			ok = false
			continue
		}
		f.Params = append(f.Params, t)
	}

	ret, err := c.mod.Resolver.Resolve(d.Return)
	switch {
	case err != nil:
		c.reportTypeError(d.Span, "return type of "+d.Name, err)
		ok = false
	case ret.Kind() == types.KindCallback:
		c.report(diag.TypUnsupported, d.Span, "%s cannot return a callback", d.Name)
		ok = false
	case d.Host.IsSwift() && isBorrowed(ret):
		c.report(diag.TypUnsupported, d.Span, "Swift-hosted function %s cannot return borrowed %s", d.Name, ret)
		ok = false
	case d.Init && f.Self != nil:
		if d.ReturnsUnit() {
			ret = f.Self
		} else if o, isOpaque := ret.(*types.Opaque); !isOpaque || o.Ref != types.RefNone || o.Decl != f.Self.Decl {
			c.report(diag.SemaInitReturn, d.Span, "initializer %s must return %s, not %s", d.Name, f.Self, ret)
			ok = false
		}
	}
	f.Ret = ret

	if !ok {
		return nil
	}
	return f
}

// resolveSelf resolves the type d is associated with, which must be an
// owned opaque type.
func (c *moduleChecker) resolveSelf(d *bridge.FuncDecl) *types.Opaque {
	t, err := c.mod.Resolver.Resolve(d.AssociatedTo)
	if err != nil {
		c.reportTypeError(d.Span, "type of "+d.Name, err)
		return nil
	}
	o, ok := t.(*types.Opaque)
	if !ok || o.Ref != types.RefNone {
		c.report(diag.SemaReceiverNotOpaque, d.Span, "%s is associated with %s, which is not an opaque type",
			d.Name, t)
		return nil
	}
	return o
}

func borrow(o *types.Opaque, ref types.RefKind) *types.Opaque {
	b := o.Owned()
	b.Ref = ref
	return b
}

// isBorrowed reports values that are only valid for the duration of a call.
func isBorrowed(t types.Type) bool {
	switch t := t.(type) {
	case *types.Str, *types.Slice:
		return true
	case *types.Opaque:
		return t.Ref != types.RefNone
	default:
		return false
	}
}

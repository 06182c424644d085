package sema

import (
	"errors"
	"fmt"
	"strings"

	"bridgegen/internal/diag"
	"bridgegen/internal/layout"
	"bridgegen/internal/source"
	"bridgegen/internal/types"
)

func (c *moduleChecker) report(code diag.Code, span source.Span, format string, args ...any) {
	if c.reporter == nil {
		return
	}
	diag.ReportError(c.reporter, code, span, fmt.Sprintf(format, args...)).Emit()
}

// reportTypeError converts a resolution failure into a diagnostic at span.
func (c *moduleChecker) reportTypeError(span source.Span, context string, err error) {
	if c.reporter == nil || err == nil {
		return
	}
	var te *types.Error
	if !errors.As(err, &te) {
		c.report(diag.TypUnsupported, span, "%s: %v", context, err)
		return
	}
	code := diag.TypUnsupported
	switch te.Kind {
	case types.ErrUnresolvedType:
		code = diag.TypUnresolved
	case types.ErrGenericArity:
		code = diag.TypGenericArity
	case types.ErrUnsupportedTypeCombination:
		if strings.HasPrefix(te.Type, "Vec<") {
			code = diag.TypUnsupportedVecElement
		}
	}
	diag.ReportError(c.reporter, code, span, context+": "+te.Error()).Emit()
}

func (c *moduleChecker) reportLayoutError(span source.Span, le *layout.LayoutError) {
	if c.reporter == nil {
		return
	}
	b := diag.ReportError(c.reporter, diag.TypRecursiveByValue, span,
		fmt.Sprintf("shared type %s contains itself by value", le.Type))
	if len(le.Cycle) > 0 {
		b = b.WithNote(span, "cycle: "+strings.Join(le.Cycle, " -> "))
	}
	b.Emit()
}

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind enumerates type resolution failures.
type ErrorKind uint8

const (
	// ErrUnresolvedType indicates a name with no declaration.
	ErrUnresolvedType ErrorKind = iota + 1
	// ErrUnsupportedTypeCombination indicates a declared type used where its
	// representation cannot cross the boundary.
	ErrUnsupportedTypeCombination
	// ErrGenericArity indicates a generic instance with the wrong number of
	// arguments.
	ErrGenericArity
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnresolvedType:
		return "unresolved type"
	case ErrUnsupportedTypeCombination:
		return "unsupported type combination"
	case ErrGenericArity:
		return "wrong number of generic arguments for"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Error is a resolution failure for the type spelled Type.
type Error struct {
	Kind   ErrorKind
	Type   string
	Detail string
	// Cycle lists the declarations of a by-value cycle, first repeated last.
	Cycle []string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s `%s`", e.Kind, e.Type)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if len(e.Cycle) > 0 {
		msg += " (cycle: " + strings.Join(e.Cycle, " -> ") + ")"
	}
	return msg
}

func unresolved(ty, format string, args ...any) *Error {
	return &Error{Kind: ErrUnresolvedType, Type: ty, Detail: fmt.Sprintf(format, args...)}
}

func unsupported(ty, format string, args ...any) *Error {
	return &Error{Kind: ErrUnsupportedTypeCombination, Type: ty, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind of err, or 0 when err is not an *Error.
func KindOf(err error) ErrorKind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}

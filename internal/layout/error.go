package layout

import (
	"fmt"
	"strings"
)

// LayoutErrorKind enumerates types of layout calculation errors.
type LayoutErrorKind uint8

const (
	// LayoutErrRecursiveByValue indicates a type that contains itself by value.
	LayoutErrRecursiveByValue LayoutErrorKind = iota + 1
	// LayoutErrFields indicates a struct or enum whose fields failed to resolve.
	LayoutErrFields
	LayoutErrInvalidCopySize
)

// LayoutError represents an error during memory layout calculation.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  string
	Cycle []string // for LayoutErrRecursiveByValue
	Err   error    // for LayoutErrFields
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrRecursiveByValue:
		if len(e.Cycle) == 0 {
			return fmt.Sprintf("recursive value type has infinite size (%s)", e.Type)
		}
		return fmt.Sprintf("recursive value type has infinite size (cycle: %s)", strings.Join(e.Cycle, " -> "))
	case LayoutErrFields:
		return fmt.Sprintf("fields of %s: %v", e.Type, e.Err)
	case LayoutErrInvalidCopySize:
		return fmt.Sprintf("copy type %s has no valid size", e.Type)
	default:
		return fmt.Sprintf("layout error kind=%d type %s", e.Kind, e.Type)
	}
}

func (e *LayoutError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

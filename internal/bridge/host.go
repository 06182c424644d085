package bridge

import (
	"fmt"
	"strings"
)

// HostLang names the side that owns the real implementation of an item.
type HostLang uint8

const (
	HostRust HostLang = iota
	HostSwift
)

func (h HostLang) String() string {
	switch h {
	case HostRust:
		return "rust"
	case HostSwift:
		return "swift"
	default:
		return "unknown"
	}
}

func (h HostLang) IsSwift() bool { return h == HostSwift }

func ParseHostLang(s string) (HostLang, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rust":
		return HostRust, nil
	case "swift":
		return HostSwift, nil
	default:
		return HostRust, fmt.Errorf("invalid host %q (expected rust|swift)", s)
	}
}

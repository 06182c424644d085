package bridge

import (
	"slices"
	"strings"
)

const (
	DefaultPrefix       = "__swift_bridge__"
	DefaultSupportCrate = "swift_bridge"
)

// CodegenConfig is shared by every module of a build.
type CodegenConfig struct {
	// Features lists enabled cfg features.
	Features []string
	// Prefix starts every generated symbol name.
	Prefix string
	// SupportCrate is the Rust crate providing RustString, RustStr,
	// FfiSlice, the option structs and the async runtime.
	SupportCrate string
}

// NoFeaturesEnabled returns the default configuration.
func NoFeaturesEnabled() CodegenConfig {
	return CodegenConfig{Prefix: DefaultPrefix, SupportCrate: DefaultSupportCrate}
}

// Normalize fills defaults and sorts/dedups the feature list so that equal
// configurations compare and hash equally.
func (c CodegenConfig) Normalize() CodegenConfig {
	if strings.TrimSpace(c.Prefix) == "" {
		c.Prefix = DefaultPrefix
	}
	if strings.TrimSpace(c.SupportCrate) == "" {
		c.SupportCrate = DefaultSupportCrate
	}
	feats := make([]string, 0, len(c.Features))
	for _, f := range c.Features {
		if f = strings.TrimSpace(f); f != "" {
			feats = append(feats, f)
		}
	}
	slices.Sort(feats)
	c.Features = slices.Compact(feats)
	return c
}

func (c CodegenConfig) FeatureEnabled(name string) bool {
	return slices.Contains(c.Features, name)
}

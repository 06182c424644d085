package packaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
)

// Platform is an Apple platform a static library is built for.
type Platform string

const (
	PlatformIOS               Platform = "ios"
	PlatformSimulator         Platform = "simulator"
	PlatformMacOS             Platform = "macos"
	PlatformMacCatalyst       Platform = "mac_catalyst"
	PlatformTvOS              Platform = "tvos"
	PlatformTvOSSimulator     Platform = "tvos_simulator"
	PlatformWatchOS           Platform = "watchos"
	PlatformWatchOSSimulator  Platform = "watchos_simulator"
	PlatformVisionOS          Platform = "visionos"
	PlatformVisionOSSimulator Platform = "visionos_simulator"
)

var knownPlatforms = []Platform{
	PlatformIOS, PlatformSimulator, PlatformMacOS, PlatformMacCatalyst,
	PlatformTvOS, PlatformTvOSSimulator, PlatformWatchOS, PlatformWatchOSSimulator,
	PlatformVisionOS, PlatformVisionOSSimulator,
}

func (p Platform) Known() bool { return slices.Contains(knownPlatforms, p) }

// Dependency is an extra Swift package the generated package depends on.
type Dependency struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Version string `json:"version,omitempty"`
}

// PackageConfig is everything the packaging tool needs besides the staged
// sources.
type PackageConfig struct {
	SwiftToolsVersion string              `json:"swift_tools_version"`
	PackageName       string              `json:"package_name"`
	XCFrameworkName   string              `json:"xcframework_name"`
	BridgeDir         string              `json:"bridge_dir"`
	OutDir            string              `json:"out_dir,omitempty"`
	Libraries         map[Platform]string `json:"libraries"`
	Dependencies      []Dependency        `json:"dependencies,omitempty"`
}

// ManifestFile is the name Stage callers use for the serialised config.
const ManifestFile = "bridgegen-package.json"

var (
	ErrNoLibraries = errors.New("no static libraries configured")
	ErrMissingName = errors.New("package name is empty")
)

// Validate checks the config without touching the disk.
func (c PackageConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.PackageName) == "" {
		errs = append(errs, ErrMissingName)
	}
	if strings.TrimSpace(c.BridgeDir) == "" {
		errs = append(errs, errors.New("bridge dir is empty"))
	}
	if len(c.Libraries) == 0 {
		errs = append(errs, ErrNoLibraries)
	}
	for _, p := range c.platforms() {
		if !p.Known() {
			errs = append(errs, fmt.Errorf("unknown platform %q", p))
		}
		if strings.TrimSpace(c.Libraries[p]) == "" {
			errs = append(errs, fmt.Errorf("platform %s: library path is empty", p))
		}
	}
	seen := make(map[string]bool, len(c.Dependencies))
	for _, d := range c.Dependencies {
		switch {
		case d.Name == "" || d.URL == "":
			errs = append(errs, fmt.Errorf("dependency %q needs a name and a url", d.Name))
		case seen[d.Name]:
			errs = append(errs, fmt.Errorf("duplicate dependency %q", d.Name))
		}
		seen[d.Name] = true
	}
	return errors.Join(errs...)
}

// CheckLibraries reports every configured library that does not exist.
func (c PackageConfig) CheckLibraries() error {
	var errs []error
	for _, p := range c.platforms() {
		if _, err := os.Stat(c.Libraries[p]); err != nil {
			errs = append(errs, fmt.Errorf("platform %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

func (c PackageConfig) platforms() []Platform {
	out := make([]Platform, 0, len(c.Libraries))
	for p := range c.Libraries {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Manifest serialises c as an artifact for the packaging tool.
func (c PackageConfig) Manifest() (Artifact, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("encode package config: %w", err)
	}
	return Artifact{Path: ManifestFile, Content: append(data, '\n')}, nil
}

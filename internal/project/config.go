package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"bridgegen/internal/bridge"
	"bridgegen/internal/packaging"
)

// Environment variables that override bridgegen.toml.
const (
	EnvOutDir   = "BRIDGEGEN_OUT_DIR"
	EnvFeatures = "BRIDGEGEN_FEATURES"
	EnvCacheDir = "BRIDGEGEN_CACHE_DIR"
)

// DefaultOutDir is used when neither the config nor the environment set one.
const DefaultOutDir = "generated"

var (
	// ErrPackageSectionMissing indicates that [package] is missing in bridgegen.toml.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrUnknownKey indicates a key bridgegen.toml does not define.
	ErrUnknownKey = errors.New("unknown key")
	// ErrInvalidValue indicates a key with an unusable value.
	ErrInvalidValue = errors.New("invalid value")
)

type PackageSection struct {
	Name              string              `toml:"name"`
	SwiftToolsVersion string              `toml:"swift_tools_version"`
	XCFrameworkName   string              `toml:"xcframework_name"`
	Libraries         map[string]string   `toml:"libraries"`
	Dependencies      []DependencySection `toml:"dependencies"`
}

type DependencySection struct {
	Name    string `toml:"name"`
	URL     string `toml:"url"`
	Version string `toml:"version"`
}

type CodegenSection struct {
	Prefix       string   `toml:"prefix"`
	SupportCrate string   `toml:"support_crate"`
	Features     []string `toml:"features"`
	Modules      []string `toml:"modules"`
	OutDir       string   `toml:"out_dir"`
	Target       string   `toml:"target"`
}

// Config is a loaded bridgegen.toml with environment overrides applied.
type Config struct {
	// Path is the config file, empty for a config built from defaults.
	Path     string         `toml:"-"`
	Root     string         `toml:"-"`
	Package  PackageSection `toml:"package"`
	Codegen  CodegenSection `toml:"codegen"`
	CacheDir string         `toml:"-"`
}

// Default returns the configuration used when no bridgegen.toml exists.
func Default(root string) *Config {
	return &Config{
		Root:    root,
		Codegen: CodegenSection{OutDir: DefaultOutDir},
	}
}

// LoadConfig parses bridgegen.toml at path.
func LoadConfig(path string) (*Config, error) {
	cfg := Default(filepath.Dir(path))
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg.Path = path
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: %w: %s", path, ErrUnknownKey, strings.Join(keys, ", "))
	}
	if !meta.IsDefined("codegen", "out_dir") || strings.TrimSpace(cfg.Codegen.OutDir) == "" {
		cfg.Codegen.OutDir = DefaultOutDir
	}
	if filepath.IsAbs(cfg.Codegen.OutDir) {
		return nil, fmt.Errorf("%s: %w: [codegen].out_dir %q must be relative", path, ErrInvalidValue, cfg.Codegen.OutDir)
	}
	for _, p := range cfg.Codegen.Modules {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("%s: %w: module pattern %q: %v", path, ErrInvalidValue, p, err)
		}
	}
	return cfg, nil
}

// Discover finds bridgegen.toml above startDir and loads it. Without one it
// returns Default(startDir) and ok=false.
func Discover(startDir string) (cfg *Config, ok bool, err error) {
	path, ok, err := FindConfig(startDir)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		abs, err := filepath.Abs(startDir)
		if err != nil {
			return nil, false, err
		}
		return Default(abs), false, nil
	}
	cfg, err = LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return cfg, true, nil
}

// LoadEnv reads <root>/.env when present. Variables already set in the
// process environment win over the file.
func (c *Config) LoadEnv() error {
	vars := map[string]string{}
	envPath := filepath.Join(c.Root, ".env")
	if _, err := os.Stat(envPath); err == nil {
		vars, err = godotenv.Read(envPath)
		if err != nil {
			return fmt.Errorf("%s: %w", envPath, err)
		}
	}
	c.ApplyEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	})
	return nil
}

// ApplyEnv overrides settings from lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvOutDir); ok && strings.TrimSpace(v) != "" {
		c.Codegen.OutDir = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvFeatures); ok {
		c.Codegen.Features = splitList(v)
	}
	if v, ok := lookup(EnvCacheDir); ok && strings.TrimSpace(v) != "" {
		c.CacheDir = strings.TrimSpace(v)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SplitFeatures parses a comma separated --features value.
func SplitFeatures(s string) []string { return splitList(s) }

// CodegenConfig is the normalised configuration every backend sees.
func (c *Config) CodegenConfig() bridge.CodegenConfig {
	return bridge.CodegenConfig{
		Features:     c.Codegen.Features,
		Prefix:       c.Codegen.Prefix,
		SupportCrate: c.Codegen.SupportCrate,
	}.Normalize()
}

// OutDir resolves the output directory against the project root.
func (c *Config) OutDir() string {
	out := c.Codegen.OutDir
	if out == "" {
		out = DefaultOutDir
	}
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(c.Root, out)
}

// ResolveCacheDir returns the artifact cache directory: the configured one
// or bridgegen/ under the user cache dir.
func (c *Config) ResolveCacheDir() (string, error) {
	if c.CacheDir != "" {
		return c.CacheDir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(base, "bridgegen"), nil
}

// PackageConfig describes the Swift package for the packaging tool. ok is
// false when [package].libraries is empty.
func (c *Config) PackageConfig() (cfg packaging.PackageConfig, ok bool) {
	if len(c.Package.Libraries) == 0 {
		return packaging.PackageConfig{}, false
	}
	cfg = packaging.PackageConfig{
		SwiftToolsVersion: c.Package.SwiftToolsVersion,
		PackageName:       c.Package.Name,
		XCFrameworkName:   c.Package.XCFrameworkName,
		BridgeDir:         c.OutDir(),
		Libraries:         make(map[packaging.Platform]string, len(c.Package.Libraries)),
	}
	if cfg.SwiftToolsVersion == "" {
		cfg.SwiftToolsVersion = "5.5.0"
	}
	if cfg.XCFrameworkName == "" {
		cfg.XCFrameworkName = "RustXcframework"
	}
	for platform, lib := range c.Package.Libraries {
		if lib != "" && !filepath.IsAbs(lib) {
			lib = filepath.Join(c.Root, lib)
		}
		cfg.Libraries[packaging.Platform(platform)] = lib
	}
	for _, d := range c.Package.Dependencies {
		cfg.Dependencies = append(cfg.Dependencies, packaging.Dependency{Name: d.Name, URL: d.URL, Version: d.Version})
	}
	return cfg, true
}

package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ModuleExt is the extension of module description files.
const ModuleExt = ".toml"

// ErrNoModules is returned when no module description matched.
var ErrNoModules = errors.New("no module descriptions found")

// ModuleFiles lists the module descriptions of the project. Explicit args
// win over [codegen].modules; a directory arg expands to the *.toml files
// directly inside it. The result is sorted and free of duplicates, and
// bridgegen.toml itself is never included.
func (c *Config) ModuleFiles(args []string) ([]string, error) {
	var out []string
	if len(args) > 0 {
		for _, arg := range args {
			files, err := expandArg(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, files...)
		}
	} else {
		for _, pattern := range c.Codegen.Modules {
			files, err := c.glob(pattern)
			if err != nil {
				return nil, err
			}
			out = append(out, files...)
		}
	}
	out = slices.DeleteFunc(out, func(p string) bool { return filepath.Base(p) == ConfigFile })
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil, ErrNoModules
	}
	return out, nil
}

func (c *Config) glob(pattern string) ([]string, error) {
	if filepath.IsAbs(pattern) {
		return nil, fmt.Errorf("module pattern %q must be relative", pattern)
	}
	matches, err := filepath.Glob(filepath.Join(c.Root, filepath.FromSlash(pattern)))
	if err != nil {
		return nil, fmt.Errorf("module pattern %q: %w", pattern, err)
	}
	out := matches[:0]
	for _, m := range matches {
		if !pathWithin(c.Root, m) {
			return nil, fmt.Errorf("module pattern %q escapes project root", pattern)
		}
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			out = append(out, m)
		}
	}
	return out, nil
}

func expandArg(arg string) ([]string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", arg, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", arg, err)
	}
	if !info.IsDir() {
		return []string{abs}, nil
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", arg, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ModuleExt) {
			out = append(out, filepath.Join(abs, e.Name()))
		}
	}
	return out, nil
}

func pathWithin(root, path string) bool {
	if root == "" || path == "" {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

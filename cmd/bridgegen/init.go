package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"bridgegen/internal/manifest"
	"bridgegen/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new bridgegen project",
	Long: `Initialize a new bridgegen project by creating bridgegen.toml and an
example module description under bridge/. If [path|name] is omitted, the
current directory is initialized. A non-existing name creates the directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	target := wd
	if len(args) == 1 && args[0] != "." {
		target = args[0]
		if !filepath.IsAbs(target) {
			target = filepath.Join(wd, target)
		}
	}

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err = os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	configPath := filepath.Join(target, project.ConfigFile)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", configPath)
	}

	name := moduleName(filepath.Base(target))
	if err := os.WriteFile(configPath, []byte(defaultConfig(name)), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", project.ConfigFile, err)
	}

	modulePath := filepath.Join(target, "bridge", name+project.ModuleExt)
	createdModule := false
	if _, err := os.Stat(modulePath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(modulePath), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(modulePath, []byte(defaultModule(name)), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", modulePath, err)
		}
		createdModule = true
	}

	rel := target
	if r, err := filepath.Rel(wd, target); err == nil {
		rel = r
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized bridgegen project in %s\n", rel)
	fmt.Fprintf(out, "  - %s\n", project.ConfigFile)
	if createdModule {
		fmt.Fprintf(out, "  - bridge/%s%s\n", name, project.ModuleExt)
	} else {
		fmt.Fprintf(out, "  - bridge/%s%s (existing)\n", name, project.ModuleExt)
	}
	return nil
}

// moduleName turns a directory name into a valid module identifier.
func moduleName(dir string) string {
	name := strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, strings.TrimSpace(dir))
	if !manifest.IsIdent(name) {
		name = "bridge_" + name
	}
	if !manifest.IsIdent(name) {
		return "bridge"
	}
	return name
}

func defaultConfig(name string) string {
	return fmt.Sprintf(`# bridgegen project configuration
[package]
name = %q

[codegen]
modules = ["bridge/*.toml"]
out_dir = "generated"
`, name)
}

func defaultModule(name string) string {
	return fmt.Sprintf(`[module]
name = %q

[[type]]
kind = "opaque"
name = "Greeter"

[[function]]
name = "new"
associated_to = "Greeter"
init = true
params = [{ name = "name", type = "&str" }]

[[function]]
name = "greet"
associated_to = "Greeter"
receiver = "ref"
returns = "String"
`, name)
}

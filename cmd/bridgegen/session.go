package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"bridgegen/internal/driver"
	"bridgegen/internal/layout"
	"bridgegen/internal/observ"
	"bridgegen/internal/project"
)

// session is what every pipeline command resolves before running: the
// project config, the module files and the driver options.
type session struct {
	cfg   *project.Config
	found bool
	paths []string
	opts  driver.Options
	color colorMode
	quiet bool
	ui    uiMode
}

// addCodegenFlags registers the flags that override [codegen] settings.
func addCodegenFlags(cmd *cobra.Command) {
	cmd.Flags().String("features", "", "comma separated cfg features to enable (overrides config)")
	cmd.Flags().String("prefix", "", "symbol prefix of generated functions")
	cmd.Flags().String("target", "", "target triple for layout checks ("+strings.Join(layout.KnownTriples(), "|")+")")
	cmd.Flags().Int("jobs", 0, "max parallel module workers (0=auto)")
}

func newSession(cmd *cobra.Command, args []string) (*session, error) {
	root := cmd.Root().PersistentFlags()
	colorFlag, err := root.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	color, err := readColorMode(colorFlag)
	if err != nil {
		return nil, err
	}
	uiFlag, err := root.GetString("ui")
	if err != nil {
		return nil, fmt.Errorf("failed to get ui flag: %w", err)
	}
	ui, err := readUIMode(uiFlag)
	if err != nil {
		return nil, err
	}
	quiet, err := root.GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	maxDiagnostics, err := root.GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := root.GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, found, err := project.Discover(wd)
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadEnv(); err != nil {
		return nil, err
	}
	if err := applyCodegenFlags(cmd, cfg); err != nil {
		return nil, err
	}

	target := layout.DefaultTarget()
	if cfg.Codegen.Target != "" {
		t, ok := layout.TargetByTriple(cfg.Codegen.Target)
		if !ok {
			return nil, fmt.Errorf("unknown target %q (known: %s)", cfg.Codegen.Target, strings.Join(layout.KnownTriples(), ", "))
		}
		target = t
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs flag: %w", err)
	}

	paths, err := cfg.ModuleFiles(args)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:   cfg,
		found: found,
		paths: paths,
		color: color,
		quiet: quiet,
		ui:    ui,
		opts: driver.Options{
			Config:         cfg.CodegenConfig(),
			Target:         target,
			MaxDiagnostics: maxDiagnostics,
			Jobs:           jobs,
			BaseDir:        wd,
		},
	}
	if showTimings {
		s.opts.Timer = observ.NewTimer()
	}
	return s, nil
}

func applyCodegenFlags(cmd *cobra.Command, cfg *project.Config) error {
	flags := cmd.Flags()
	if flags.Changed("features") {
		v, err := flags.GetString("features")
		if err != nil {
			return fmt.Errorf("failed to get features flag: %w", err)
		}
		cfg.Codegen.Features = project.SplitFeatures(v)
	}
	if flags.Changed("prefix") {
		v, err := flags.GetString("prefix")
		if err != nil {
			return fmt.Errorf("failed to get prefix flag: %w", err)
		}
		cfg.Codegen.Prefix = v
	}
	if flags.Changed("target") {
		v, err := flags.GetString("target")
		if err != nil {
			return fmt.Errorf("failed to get target flag: %w", err)
		}
		if !slices.Contains(layout.KnownTriples(), v) {
			return fmt.Errorf("unknown target %q (known: %s)", v, strings.Join(layout.KnownTriples(), ", "))
		}
		cfg.Codegen.Target = v
	}
	if flags.Lookup("out") != nil && flags.Changed("out") {
		v, err := flags.GetString("out")
		if err != nil {
			return fmt.Errorf("failed to get out flag: %w", err)
		}
		cfg.Codegen.OutDir = v
	}
	return nil
}

// run executes fn, behind the progress view when --ui asks for it.
func (s *session) run(title string, phases []string, fn func(driver.Options) (*driver.Result, error)) (*driver.Result, error) {
	if !s.quiet && shouldUseTUI(s.ui) {
		return runWithUI(title, phases, s.opts, fn)
	}
	return fn(s.opts)
}

package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"bridgegen/internal/driver"
	"bridgegen/internal/packaging"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags] [module.toml|directory ...]",
	Short: "Generate headers, Rust glue and Swift wrappers",
	Long: `Generate reads the given module descriptions (or the [codegen].modules
patterns of bridgegen.toml) and writes SwiftBridgeCore.h, SwiftBridgeCore.swift
and <module>/<module>.{h,swift,rs} for every module into the output directory.`,
	RunE: runGenerate,
}

func init() {
	addCodegenFlags(generateCmd)
	addDiagnosticFlags(generateCmd)
	generateCmd.Flags().String("out", "", "output directory (default [codegen].out_dir)")
	generateCmd.Flags().Bool("no-cache", false, "bypass the artifact cache")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, args)
	if err != nil {
		return err
	}
	dopts, err := readDiagnosticFlags(cmd)
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	if !noCache {
		s.opts.Cache = openCache(cmd, s)
	}

	pkg, hasPackage := s.cfg.PackageConfig()
	outDir := s.cfg.OutDir()
	if hasPackage {
		pkg.OutDir = outDir
		if err := pkg.Validate(); err != nil {
			return fmt.Errorf("[package] in %s: %w", s.cfg.Path, err)
		}
		if err := pkg.CheckLibraries(); err != nil && !s.quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
	}

	ctx := cmd.Context()
	var report packaging.StageReport
	res, err := s.run("generate", []string{"load", "analyze", "emit", "stage"}, func(opts driver.Options) (*driver.Result, error) {
		res, err := driver.Generate(ctx, s.paths, opts)
		if err != nil || res.Failed() {
			return res, err
		}
		artifacts := res.Artifacts
		if hasPackage {
			manifest, err := pkg.Manifest()
			if err != nil {
				return res, err
			}
			artifacts = append(slices.Clip(artifacts), manifest)
		}
		report, err = driver.Stage(ctx, outDir, artifacts, opts)
		return res, err
	})
	if err != nil {
		return err
	}
	if err := printDiagnostics(cmd, s, res, dopts); err != nil {
		return err
	}
	if !res.Failed() && !s.quiet {
		modules := (len(res.Artifacts) - 2) / 3
		cached := ""
		if res.CacheHit {
			cached = ", cached"
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "generated %d modules into %s (%d written, %d unchanged%s)\n",
			modules, outDir, len(report.Written), len(report.Unchanged), cached)
	}
	return finishRun(res)
}

// openCache opens the artifact cache. Failing to open it only costs
// speed, so it is reported and ignored.
func openCache(cmd *cobra.Command, s *session) *driver.ArtifactCache {
	dir, err := s.cfg.ResolveCacheDir()
	if err == nil {
		var cache *driver.ArtifactCache
		if cache, err = driver.OpenArtifactCache(dir, 0); err == nil {
			return cache
		}
	}
	if !s.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: artifact cache disabled: %v\n", err)
	}
	return nil
}


package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bridgegen/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [module.toml|directory ...]",
	Short: "Validate module descriptions without generating anything",
	RunE:  runCheck,
}

func init() {
	addCodegenFlags(checkCmd)
	addDiagnosticFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, args)
	if err != nil {
		return err
	}
	dopts, err := readDiagnosticFlags(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	res, err := s.run("check", []string{"load", "analyze"}, func(opts driver.Options) (*driver.Result, error) {
		return driver.Check(ctx, s.paths, opts)
	})
	if err != nil {
		return err
	}
	if err := printDiagnostics(cmd, s, res, dopts); err != nil {
		return err
	}
	if !res.Failed() && !s.quiet && dopts.format != "json" {
		fmt.Fprintf(cmd.ErrOrStderr(), "checked %d modules: ok\n", len(s.paths))
	}
	return finishRun(res)
}

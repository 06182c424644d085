package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"bridgegen/internal/diag"
	"bridgegen/internal/diagfmt"
	"bridgegen/internal/driver"
)

type diagFormat string

func readDiagFormat(value string) (diagFormat, error) {
	switch value {
	case "pretty", "json", "short":
		return diagFormat(value), nil
	default:
		return "", fmt.Errorf("unknown format: %s (expected pretty|json|short)", value)
	}
}

func addDiagnosticFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "pretty", "diagnostic output format (pretty|json|short)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in json and short output")
	cmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

type diagOptions struct {
	format    diagFormat
	withNotes bool
	fullPath  bool
}

func readDiagnosticFlags(cmd *cobra.Command) (diagOptions, error) {
	var opts diagOptions
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	if opts.format, err = readDiagFormat(formatStr); err != nil {
		return opts, err
	}
	if opts.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return opts, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if opts.fullPath, err = cmd.Flags().GetBool("fullpath"); err != nil {
		return opts, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	return opts, nil
}

// printDiagnostics renders res.Bag. JSON goes to stdout and carries the
// timing report as a diagnostic; the text formats go to stderr and print
// the timer summary instead.
func printDiagnostics(cmd *cobra.Command, s *session, res *driver.Result, opts diagOptions) error {
	pathMode := diagfmt.PathModeRelative
	if opts.fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	if opts.format == "json" {
		bag := res.Bag
		if s.quiet {
			bag = filterBag(bag, func(d diag.Diagnostic) bool { return d.Severity > diag.SevInfo })
		}
		return diagfmt.JSON(cmd.OutOrStdout(), bag, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     opts.withNotes,
		})
	}

	out := cmd.ErrOrStderr()
	bag := filterBag(res.Bag, func(d diag.Diagnostic) bool {
		return !d.Code.Locationless() && (!s.quiet || d.Severity > diag.SevInfo)
	})
	if opts.format == "short" {
		if err := diagfmt.Short(out, bag, res.FileSet, opts.withNotes); err != nil {
			return err
		}
	} else if bag.Len() > 0 {
		diagfmt.Pretty(out, bag, res.FileSet, diagfmt.PrettyOpts{
			Color:     s.color.enabled(os.Stderr),
			Context:   2,
			PathMode:  pathMode,
			ShowNotes: true,
		})
	}
	printTimings(out, s)
	return nil
}

func filterBag(bag *diag.Bag, keep func(diag.Diagnostic) bool) *diag.Bag {
	out := diag.NewBag(max(bag.Len(), 1))
	for _, d := range bag.Items() {
		if keep(d) {
			out.Add(d)
		}
	}
	return out
}

func printTimings(out io.Writer, s *session) {
	if s.opts.Timer == nil || s.quiet {
		return
	}
	fmt.Fprint(out, s.opts.Timer.Summary())
}

// finishRun turns a result with errors into errDiagnostics.
func finishRun(res *driver.Result) error {
	if res.Failed() {
		return errDiagnostics
	}
	return nil
}

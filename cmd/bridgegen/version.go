package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"bridgegen/internal/bridge"
	"bridgegen/internal/layout"
	"bridgegen/internal/version"
)

// versionReport is what `version --format json` prints: the build info plus
// the generator defaults a build script may want to pin.
type versionReport struct {
	Tool string `json:"tool"`
	version.Info
	Fingerprint   string   `json:"fingerprint"`
	Prefix        string   `json:"default_prefix"`
	SupportCrate  string   `json:"default_support_crate"`
	DefaultTarget string   `json:"default_target"`
	Targets       []string `json:"targets"`
}

func currentReport() versionReport {
	return versionReport{
		Tool:          "bridgegen",
		Info:          version.Current(),
		Fingerprint:   version.Fingerprint(),
		Prefix:        bridge.DefaultPrefix,
		SupportCrate:  bridge.DefaultSupportCrate,
		DefaultTarget: layout.DefaultTarget().Triple,
		Targets:       layout.KnownTriples(),
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the bridgegen build fingerprint",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		full, _ := cmd.Flags().GetBool("full")
		hash, _ := cmd.Flags().GetBool("hash")
		date, _ := cmd.Flags().GetBool("date")

		report := currentReport()
		switch strings.ToLower(format) {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		case "pretty":
			printVersion(cmd.OutOrStdout(), report, hash || full, date || full, full)
			return nil
		}
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	},
}

func init() {
	versionCmd.Flags().Bool("hash", false, "include git commit hash")
	versionCmd.Flags().Bool("date", false, "include build timestamp")
	versionCmd.Flags().Bool("full", false, "show build metadata and generator defaults")
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func printVersion(out io.Writer, r versionReport, hash, date, defaults bool) {
	fmt.Fprintf(out, "bridgegen %s\n", version.Pretty())
	rows := make([][2]string, 0, 6)
	if hash {
		rows = append(rows, [2]string{"commit", orUnknown(r.GitCommit)})
	}
	if date {
		rows = append(rows, [2]string{"built", orUnknown(r.BuildDate)})
	}
	if (hash || date) && r.GoVersion != "" {
		rows = append(rows, [2]string{"go", r.GoVersion})
	}
	if defaults {
		rows = append(rows,
			[2]string{"prefix", r.Prefix},
			[2]string{"support", r.SupportCrate},
			[2]string{"targets", strings.Join(r.Targets, ", ") + " (default " + r.DefaultTarget + ")"},
		)
	}
	for _, row := range rows {
		fmt.Fprintf(out, "%-8s %s\n", row[0]+":", row[1])
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

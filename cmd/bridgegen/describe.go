package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"bridgegen/internal/driver"
)

var describeCmd = &cobra.Command{
	Use:   "describe [flags] [module.toml|directory ...]",
	Short: "Show every bridged type with its ABI spellings and layout",
	RunE:  runDescribe,
}

func init() {
	addCodegenFlags(describeCmd)
	describeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	describeCmd.Flags().StringSlice("module", nil, "only describe these modules")
	describeCmd.Flags().Bool("functions", false, "also list bridged functions and their link names")
}

func runDescribe(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	only, err := cmd.Flags().GetStringSlice("module")
	if err != nil {
		return fmt.Errorf("failed to get module flag: %w", err)
	}
	withFuncs, err := cmd.Flags().GetBool("functions")
	if err != nil {
		return fmt.Errorf("failed to get functions flag: %w", err)
	}
	s, err := newSession(cmd, args)
	if err != nil {
		return err
	}
	// The progress view would interleave with the table.
	s.ui = uiModeOff

	res, err := driver.Check(cmd.Context(), s.paths, s.opts)
	if err != nil {
		return err
	}
	if res.Failed() {
		if err := printDiagnostics(cmd, s, res, diagOptions{format: "pretty"}); err != nil {
			return err
		}
		return errDiagnostics
	}

	d := driver.Describe(res.Analysis, only...)
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	styles := newDescribeStyles(s.color.enabled(os.Stdout))
	renderTypes(cmd.OutOrStdout(), d, styles)
	if withFuncs {
		fmt.Fprintln(cmd.OutOrStdout())
		renderFuncs(cmd.OutOrStdout(), d, styles)
	}
	return nil
}

type describeStyles struct {
	title, header, dim, warn lipgloss.Style
}

func newDescribeStyles(color bool) describeStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return describeStyles{title: plain, header: plain, dim: plain, warn: plain}
	}
	return describeStyles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		header: lipgloss.NewStyle().Bold(true).Underline(true),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// renderGrid prints rows as left-aligned columns. Widths are measured
// with lipgloss.Width, so styled and wide text line up.
func renderGrid(w io.Writer, header []string, rows [][]string, st describeStyles) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	line := func(cells []string, style *lipgloss.Style) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if style != nil {
				cell = style.Render(cell)
			}
			parts[i] = cell + pad
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}
	line(header, &st.header)
	for _, row := range rows {
		line(row, nil)
	}
}

func renderTypes(w io.Writer, d driver.Description, st describeStyles) {
	fmt.Fprintln(w, st.title.Render("types")+" "+st.dim.Render("("+d.Target+")"))
	if len(d.Types) == 0 {
		fmt.Fprintln(w, st.dim.Render("no bridged types"))
		return
	}
	rows := make([][]string, 0, len(d.Types))
	for _, t := range d.Types {
		size, align := strconv.Itoa(t.Size), strconv.Itoa(t.Align)
		if t.LayoutError != "" {
			size, align = st.warn.Render("?"), st.warn.Render("?")
		}
		owner := t.Module
		if !t.Emitted {
			owner += st.dim.Render(" (shared)")
		}
		rows = append(rows, []string{owner, t.Name, t.Kind, t.C, t.Swift, t.RustFFI, size, align})
	}
	renderGrid(w, []string{"MODULE", "TYPE", "KIND", "C", "SWIFT", "RUST FFI", "SIZE", "ALIGN"}, rows, st)
}

func renderFuncs(w io.Writer, d driver.Description, st describeStyles) {
	fmt.Fprintln(w, st.title.Render("functions"))
	if len(d.Funcs) == 0 {
		fmt.Fprintln(w, st.dim.Render("no bridged functions"))
		return
	}
	rows := make([][]string, 0, len(d.Funcs))
	for _, f := range d.Funcs {
		link := f.Link
		if f.AsyncLink != "" {
			link += st.dim.Render(" / " + f.AsyncLink)
		}
		rows = append(rows, []string{f.Module, f.Host, f.Signature, link})
	}
	renderGrid(w, []string{"MODULE", "HOST", "SIGNATURE", "LINK"}, rows, st)
}

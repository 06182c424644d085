package diag

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"bridgegen/internal/source"
)

// shortLine is one row of the short format:
//
//	error TYP2001 bridge/ledger.toml:12:8 unresolved type "Money"
type shortLine struct {
	label   string
	code    string
	path    string
	line    uint32
	col     uint32
	message string
}

func (l shortLine) String() string {
	return fmt.Sprintf("%s %s %s:%d:%d %s", l.label, l.code, l.path, l.line, l.col, l.message)
}

func compareShort(a, b shortLine) int {
	return cmp.Or(
		cmp.Compare(a.path, b.path),
		cmp.Compare(a.line, b.line),
		cmp.Compare(a.col, b.col),
		cmp.Compare(a.label, b.label),
		cmp.Compare(a.code, b.code),
		cmp.Compare(a.message, b.message),
	)
}

// FormatShortDiagnostics renders one line per diagnostic, and per note when
// includeNotes is set, sorted by location. Paths are relative to the file
// set's base dir. Locationless diagnostics are skipped. Golden tests and
// the short CLI format both use it.
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}
	var lines []shortLine
	for i := range diags {
		d := &diags[i]
		if d.Code.Locationless() {
			continue
		}
		if l, ok := locate(fs, d.Primary); ok {
			l.label, l.code, l.message = severityLabel(d.Severity), d.Code.ID(), oneLine(d.Message)
			lines = append(lines, l)
		}
		if !includeNotes {
			continue
		}
		for _, note := range d.Notes {
			if l, ok := locate(fs, note.Span); ok {
				l.label, l.code, l.message = "note", d.Code.ID(), oneLine(note.Msg)
				lines = append(lines, l)
			}
		}
	}
	slices.SortStableFunc(lines, compareShort)

	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return strings.Join(out, "\n")
}

func locate(fs *source.FileSet, span source.Span) (shortLine, bool) {
	if int(span.File) >= fs.Len() {
		return shortLine{}, false
	}
	start, _ := fs.Resolve(span)
	path := filepath.ToSlash(fs.Get(span.File).FormatPath("relative", fs.BaseDir()))
	return shortLine{path: strings.TrimPrefix(path, "./"), line: start.Line, col: start.Col}, true
}

func severityLabel(sev Severity) string {
	return strings.ToLower(sev.String())
}

func oneLine(msg string) string {
	return strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\n", " ").Replace(msg))
}

// Package writer builds indented source text for the glue and wrapper
// generators.
package writer

import (
	"fmt"
	"strings"
)

// Writer accumulates lines at the current indentation depth.
type Writer struct {
	b      strings.Builder
	unit   string
	depth  int
	blank  bool
	opened bool
}

// New returns a Writer indenting by unit, e.g. four spaces.
func New(unit string) *Writer {
	return &Writer{unit: unit, blank: true}
}

// Line writes one formatted line. An empty format writes a blank line;
// consecutive blank lines collapse into one.
func (w *Writer) Line(format string, args ...any) {
	if format == "" {
		w.Blank()
		return
	}
	w.b.WriteString(strings.Repeat(w.unit, w.depth))
	if len(args) == 0 {
		w.b.WriteString(format)
	} else {
		fmt.Fprintf(&w.b, format, args...)
	}
	w.b.WriteByte('\n')
	w.blank = false
	w.opened = false
}

// Blank writes a blank line unless the previous line was blank or opened a
// block.
func (w *Writer) Blank() {
	if w.blank || w.opened {
		return
	}
	w.b.WriteByte('\n')
	w.blank = true
}

// Open writes the formatted line followed by " {" and indents.
func (w *Writer) Open(format string, args ...any) {
	if len(args) > 0 {
		format = fmt.Sprintf(format, args...)
	}
	w.Line("%s {", format)
	w.depth++
	w.opened = true
}

// Close dedents and writes closer, usually "}".
func (w *Writer) Close(closer string) {
	if w.depth > 0 {
		w.depth--
	}
	if w.blank && w.b.Len() > 0 {
		// drop a trailing blank line inside the block
		s := w.b.String()
		w.b.Reset()
		w.b.WriteString(strings.TrimSuffix(s, "\n"))
	}
	w.Line("%s", closer)
}

// Block writes multi-line text, indenting every non-empty line.
func (w *Writer) Block(text string) {
	for _, l := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if strings.TrimSpace(l) == "" {
			w.Blank()
			continue
		}
		w.Line("%s", l)
	}
}

// Indent runs fn one level deeper.
func (w *Writer) Indent(fn func()) {
	w.depth++
	fn()
	w.depth--
}

func (w *Writer) Len() int { return w.b.Len() }

func (w *Writer) String() string { return w.b.String() }

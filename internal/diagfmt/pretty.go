// Package diagfmt renders diagnostics for terminals and tools.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"ramc/internal/diag"
	"ramc/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	gutterColor  = color.New(color.FgBlue)
)

// Pretty writes diagnostics in the stable human-readable form:
//
//	<severity>[<code>]: <message>
//	  --> <path>:<line>:<col>
//	  | <source line>
//	  | <caret underline>
//	  = help: <help>
//
// Diagnostics are printed in bag order; call bag.Sort() first if several
// bags were merged.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		writeDiagnostic(w, d, fs, opts)
	}
}

func writeDiagnostic(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	head := fmt.Sprintf("%s[%s]", d.Severity, d.Code.ID())
	if opts.Color {
		head = severityColor(d.Severity).Sprint(head)
	}
	fmt.Fprintf(w, "%s: %s\n", head, d.Message)

	writeSpan(w, d.Primary, fs, opts)

	if opts.ShowNotes {
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  = note: %s\n", n.Msg)
			writeSpan(w, n.Span, fs, opts)
		}
	}
	if opts.ShowHelp && d.Help != "" {
		for _, line := range strings.Split(d.Help, "\n") {
			fmt.Fprintf(w, "  = help: %s\n", line)
		}
	}
}

func writeSpan(w io.Writer, sp source.Span, fs *source.FileSet, opts PrettyOpts) {
	if fs == nil || fs.Len() == 0 {
		return
	}
	f := fs.Get(sp.File)
	start, end := fs.Resolve(sp)
	arrow := "  -->"
	gutter := "  |"
	if opts.Color {
		arrow = gutterColor.Sprint(arrow)
		gutter = gutterColor.Sprint(gutter)
	}
	fmt.Fprintf(w, "%s %s:%d:%d\n", arrow, f.Path, start.Line, start.Col)

	line := f.GetLine(start.Line)
	if line == "" && start.Col == 0 && sp.Empty() {
		return
	}
	fmt.Fprintf(w, "%s %s\n", gutter, line)
	fmt.Fprintf(w, "%s %s\n", gutter, caretLine(line, start, end, sp))
}

// caretLine builds the underline row: spaces under the prefix, carets under
// the spanned text. Display widths are rune-aware so wide characters in
// comments or error tokens stay aligned.
func caretLine(line string, start, end source.LineCol, sp source.Span) string {
	col := int(start.Col)
	if col > len(line) {
		col = len(line)
	}
	prefix := runewidth.StringWidth(line[:col])

	length := 1
	if !sp.Empty() && end.Line == start.Line {
		e := int(end.Col)
		if e > len(line) {
			e = len(line)
		}
		if e > col {
			length = runewidth.StringWidth(line[col:e])
		}
	}
	if length < 1 {
		length = 1
	}
	return strings.Repeat(" ", prefix) + strings.Repeat("^", length)
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return infoColor
	}
}

package diagfmt

import (
	"encoding/json"
	"io"

	"ramc/internal/diag"
	"ramc/internal/source"
)

type jsonNote struct {
	Message string `json:"message"`
	Line    uint32 `json:"line"`
	Col     uint32 `json:"col"`
}

type jsonDiagnostic struct {
	Severity string     `json:"severity"`
	Code     string     `json:"code"`
	Message  string     `json:"message"`
	Help     string     `json:"help,omitempty"`
	Path     string     `json:"path"`
	Line     uint32     `json:"line"`
	Col      uint32     `json:"col"`
	EndLine  uint32     `json:"end_line"`
	EndCol   uint32     `json:"end_col"`
	Notes    []jsonNote `json:"notes,omitempty"`
}

// JSON writes the diagnostics as an indented JSON array.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	out := make([]jsonDiagnostic, 0, bag.Len())
	for _, d := range bag.Items() {
		jd := jsonDiagnostic{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
		}
		if opts.IncludeHelp {
			jd.Help = d.Help
		}
		if fs != nil && fs.Len() > 0 {
			f := fs.Get(d.Primary.File)
			start, end := fs.Resolve(d.Primary)
			jd.Path = f.Path
			jd.Line, jd.Col = start.Line, start.Col
			jd.EndLine, jd.EndCol = end.Line, end.Col
			if opts.IncludeNotes {
				for _, n := range d.Notes {
					nStart, _ := fs.Resolve(n.Span)
					jd.Notes = append(jd.Notes, jsonNote{
						Message: n.Msg,
						Line:    nStart.Line,
						Col:     nStart.Col,
					})
				}
			}
		}
		out = append(out, jd)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

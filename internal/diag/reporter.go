package diag

import "ramc/internal/source"

// Reporter is the minimal contract phases use to emit diagnostics.
// Implementations: BagReporter (appends to a Bag), NopReporter.
type Reporter interface {
	Report(d Diagnostic)
}

// BagReporter writes into a *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}

// New constructs a diagnostic value.
func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

// WithHelp attaches a help message.
func (d Diagnostic) WithHelp(help string) Diagnostic {
	d.Help = help
	return d
}

// WithNote appends a secondary labeled span.
func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

// Error reports an error diagnostic through r.
func Error(r Reporter, code Code, primary source.Span, msg string) {
	r.Report(New(SevError, code, primary, msg))
}

// Warning reports a warning diagnostic through r.
func Warning(r Reporter, code Code, primary source.Span, msg string) {
	r.Report(New(SevWarning, code, primary, msg))
}

// Info reports an info diagnostic through r.
func Info(r Reporter, code Code, primary source.Span, msg string) {
	r.Report(New(SevInfo, code, primary, msg))
}

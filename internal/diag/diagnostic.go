package diag

import (
	"ramc/internal/source"
)

// Note attaches a secondary span with an explanation to a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one structured error/warning/info record.
// Message is a single line; Help may span several.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Help     string
	Primary  source.Span
	Notes    []Note
}

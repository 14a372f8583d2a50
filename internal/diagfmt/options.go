package diagfmt

// PrettyOpts configures human-readable diagnostic output.
type PrettyOpts struct {
	Color     bool
	ShowNotes bool
	ShowHelp  bool
}

// DefaultPrettyOpts shows everything, uncolored.
func DefaultPrettyOpts() PrettyOpts {
	return PrettyOpts{ShowNotes: true, ShowHelp: true}
}

// JSONOpts configures machine-readable diagnostic output.
type JSONOpts struct {
	IncludeNotes bool
	IncludeHelp  bool
}

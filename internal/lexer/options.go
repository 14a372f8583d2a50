package lexer

import "ramc/internal/diag"

// Options configures a lexer instance.
type Options struct {
	Reporter diag.Reporter
}

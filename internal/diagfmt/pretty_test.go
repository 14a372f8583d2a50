package diagfmt_test

import (
	"encoding/json"
	"strings"
	"testing"

	"ramc/internal/diag"
	"ramc/internal/diagfmt"
	"ramc/internal/source"
)

func setup() (*source.FileSet, source.FileID) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("prog.ram", []byte("LOAD 1\nJUMP nowhere\nHALT\n"))
	return fs, id
}

func TestPrettyFormat(t *testing.T) {
	fs, id := setup()
	bag := diag.NewBag(2)
	// "nowhere" occupies bytes 12..19 on line 2, columns 5..12.
	bag.Add(diag.New(diag.SevError, diag.ResUnknownLabel,
		source.Span{File: id, Start: 12, End: 19}, `unknown label "nowhere"`).
		WithHelp(`define it with "nowhere:" on some line`))

	var sb strings.Builder
	diagfmt.Pretty(&sb, bag, fs, diagfmt.DefaultPrettyOpts())
	out := sb.String()

	for _, want := range []string{
		"error[E020-unknown-label]: unknown label \"nowhere\"",
		"--> prog.ram:2:5",
		"| JUMP nowhere",
		"|      ^^^^^^^",
		"= help: define it with \"nowhere:\" on some line",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrettySeverities(t *testing.T) {
	fs, id := setup()
	bag := diag.NewBag(3)
	sp := source.Span{File: id, Start: 0, End: 4}
	bag.Add(diag.New(diag.SevWarning, diag.WarnUnreachable, sp, "unreachable code"))
	bag.Add(diag.New(diag.SevInfo, diag.OptConstFold, sp, "this always computes 3"))

	var sb strings.Builder
	diagfmt.Pretty(&sb, bag, fs, diagfmt.DefaultPrettyOpts())
	out := sb.String()
	if !strings.Contains(out, "warning[W001-unreachable]:") {
		t.Errorf("missing warning header:\n%s", out)
	}
	if !strings.Contains(out, "info[I002-const-fold]:") {
		t.Errorf("missing info header:\n%s", out)
	}
}

func TestJSONOutput(t *testing.T) {
	fs, id := setup()
	bag := diag.NewBag(1)
	bag.Add(diag.New(diag.SevError, diag.RunDivByZero,
		source.Span{File: id, Start: 7, End: 11}, "division by zero").
		WithHelp("the divisor is always 0 here"))

	var sb strings.Builder
	if err := diagfmt.JSON(&sb, bag, fs, diagfmt.JSONOpts{IncludeNotes: true, IncludeHelp: true}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal([]byte(sb.String()), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, sb.String())
	}
	if len(decoded) != 1 {
		t.Fatalf("entries = %d", len(decoded))
	}
	entry := decoded[0]
	if entry["code"] != "R020-div-zero" || entry["severity"] != "error" {
		t.Errorf("entry = %v", entry)
	}
	if entry["path"] != "prog.ram" || entry["line"] != float64(2) {
		t.Errorf("position = %v:%v", entry["path"], entry["line"])
	}
}

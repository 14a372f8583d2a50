package parser_test

import (
	"testing"

	"ramc/internal/diag"
	"ramc/internal/parser"
	"ramc/internal/source"
)

// Lossless property: the concatenated leaves of the tree reproduce the
// input byte for byte, whatever the input.
func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"\n",
		"\r\n\r\n",
		"HALT",
		"HALT\n",
		"LOAD 1\nADD 2\nSTORE 3\nHALT\n",
		"   LOAD   =42   \n",
		"# full line comment\nLOAD 1 # trailing comment\n",
		"loop: LOAD 1\n      JZERO end\n      JUMP loop\nend:  HALT\n",
		"a: b: c: HALT",
		"LOAD 2[=1]\nSTORE 3[*4]\nWRITE 5[6]\n",
		"orphan:",
		"orphan:\n\n\n",
		// Broken inputs must round-trip too.
		": :\n",
		"LOAD 2[=1\nHALT\n",
		"HALT 1 2 3\n",
		"LOAD @#$\n",
		"LOAD =x\n",
		"= * [ ]\n",
		"LOAD 99999999999999999999\n",
		"\tmixed \t whitespace\r\nHALT",
		"# comment only",
	}
	for _, input := range inputs {
		fs := source.NewFileSet()
		id := fs.AddVirtual("test.ram", []byte(input))
		tree := parser.ParseFile(fs.Get(id), parser.Options{Reporter: diag.NopReporter{}})
		got := tree.Text(tree.Root())
		if got != input {
			t.Errorf("round trip failed:\n input: %q\noutput: %q\ntree:\n%s", input, got, tree.Dump())
		}
	}
}

// Parsing the same revision twice yields the same tree shape.
func TestParseDeterminism(t *testing.T) {
	input := "loop: LOAD 1\nJZERO end\nJUMP loop\nend: HALT\n"
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.ram", []byte(input))
	a := parser.ParseFile(fs.Get(id), parser.Options{Reporter: diag.NopReporter{}})
	b := parser.ParseFile(fs.Get(id), parser.Options{Reporter: diag.NopReporter{}})
	if a.Dump() != b.Dump() {
		t.Error("two parses of identical input produced different trees")
	}
}

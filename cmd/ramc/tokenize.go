package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ramc/internal/diag"
	"ramc/internal/lexer"
	"ramc/internal/source"
	"ramc/internal/token"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] <file.ram>",
	Short: "Print the token stream of a RAM source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().Bool("trivia", false, "include whitespace and comment trivia")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	withTrivia, err := cmd.Flags().GetBool("trivia")
	if err != nil {
		return fmt.Errorf("failed to get trivia flag: %w", err)
	}

	fileSet := source.NewFileSet()
	id, err := fileSet.Load(args[0])
	if err != nil {
		return err
	}

	bag := diag.NewBag(16)
	lx := lexer.New(fileSet.Get(id), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	out := cmd.OutOrStdout()
	for {
		tok := lx.Next()
		if withTrivia {
			for _, tr := range tok.Leading {
				fmt.Fprintf(out, "%-12s %3d..%-3d %q\n", tr.Kind, tr.Span.Start, tr.Span.End, tr.Text)
			}
		}
		fmt.Fprintf(out, "%-12s %3d..%-3d %q\n", tok.Kind, tok.Span.Start, tok.Span.End, tok.Text)
		if tok.Kind == token.EOF {
			break
		}
	}

	printDiagnostics(cmd, bag, fileSet)
	if bag.HasErrors() {
		os.Exit(exitCompile)
	}
	return nil
}

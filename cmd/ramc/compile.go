package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ramc/internal/driver"
	"ramc/internal/hir"
	"ramc/internal/source"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] <file.ram>",
	Short: "Compile a RAM program to a binary artifact",
	Long:  `Validate a RAM source file and write the lowered program as a .rbin artifact that run can execute directly`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func init() {
	compileCmd.Flags().StringP("output", "o", "", "output path (default: source path with .rbin)")
}

func runCompile(cmd *cobra.Command, args []string) error {
	path := args[0]
	outPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	if outPath == "" {
		outPath = strings.TrimSuffix(path, ".ram") + ".rbin"
	}

	fileSet := source.NewFileSet()
	id, err := fileSet.Load(path)
	if err != nil {
		return err
	}
	session := driver.NewSession(fileSet)
	art := session.Compile(id)
	printDiagnostics(cmd, session.Validate(id), fileSet)
	if art.Bag.HasErrors() {
		os.Exit(exitCompile)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := hir.Encode(f, art.Program); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d instructions)\n", outPath, art.Program.Len())
	return nil
}

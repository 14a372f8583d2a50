package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ramc/internal/diag"
	"ramc/internal/diagfmt"
	"ramc/internal/driver"
	"ramc/internal/hir"
	"ramc/internal/source"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <file.ram|file.rbin>",
	Short: "Compile and execute a RAM program",
	Long:  `Compile a RAM source file (or load a compiled .rbin artifact) and execute it`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExecution,
}

func init() {
	runCmd.Flags().String("input", "", "input tape, whitespace-separated integers (head first)")
	runCmd.Flags().String("memory", "", "initial registers as k=v,k=v,…")
	runCmd.Flags().Uint64("max-steps", 0, "abort after this many steps (0 = unlimited)")
}

func runExecution(cmd *cobra.Command, args []string) error {
	path := args[0]

	inputSpec, err := cmd.Flags().GetString("input")
	if err != nil {
		return fmt.Errorf("failed to get input flag: %w", err)
	}
	memorySpec, err := cmd.Flags().GetString("memory")
	if err != nil {
		return fmt.Errorf("failed to get memory flag: %w", err)
	}
	maxSteps, err := cmd.Flags().GetUint64("max-steps")
	if err != nil {
		return fmt.Errorf("failed to get max-steps flag: %w", err)
	}

	// Fall back to manifest defaults for anything not given explicitly.
	if manifest, ok, err := loadProjectManifest(filepath.Dir(path)); err != nil {
		return err
	} else if ok {
		if inputSpec == "" {
			inputSpec = manifest.Config.Run.Input
		}
		if memorySpec == "" {
			memorySpec = manifest.Config.Run.Memory
		}
		if maxSteps == 0 {
			maxSteps = manifest.Config.Run.MaxSteps
		}
	}

	input, err := parseInputList(inputSpec)
	if err != nil {
		return err
	}
	memory, err := parseMemorySpec(memorySpec)
	if err != nil {
		return err
	}
	opts := driver.RunOptions{Input: input, Memory: memory, MaxSteps: maxSteps}

	fileSet := source.NewFileSet()
	session := driver.NewSession(fileSet)
	var res driver.RunResult

	if strings.HasSuffix(path, ".rbin") {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		program, decErr := hir.Decode(f)
		closeErr := f.Close()
		if decErr != nil {
			return decErr
		}
		if closeErr != nil {
			return closeErr
		}
		res = session.RunProgram(program, opts)
	} else {
		id, err := fileSet.Load(path)
		if err != nil {
			return err
		}
		res = session.Run(id, opts)
	}

	printDiagnostics(cmd, res.Diagnostics, fileSet)

	for _, v := range res.Output {
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}

	switch {
	case res.RuntimeErr != nil:
		os.Exit(exitRuntime)
	case res.Diagnostics.HasErrors():
		os.Exit(exitCompile)
	}
	return nil
}

// printDiagnostics renders a bag to stderr in the standard pretty form.
func printDiagnostics(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet) {
	if bag == nil || bag.Len() == 0 {
		return
	}
	opts := diagfmt.DefaultPrettyOpts()
	opts.Color = useColor(cmd, os.Stderr)
	diagfmt.Pretty(os.Stderr, bag, fs, opts)
}

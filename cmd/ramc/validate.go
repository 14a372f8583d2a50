package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ramc/internal/analysis"
	"ramc/internal/diag"
	"ramc/internal/diagfmt"
	"ramc/internal/driver"
	"ramc/internal/source"
)

var validateCmd = &cobra.Command{
	Use:   "validate [flags] <file.ram|directory>...",
	Short: "Run the analysis pipeline and report diagnostics",
	Long:  `Run lexing, parsing, name resolution, lowering, and every analysis pass, reporting diagnostics without executing anything`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().Bool("show-cfg", false, "print the control-flow graph after analysis")
	validateCmd.Flags().Bool("show-hir", false, "print the lowered program after analysis")
	validateCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	validateCmd.Flags().Int("jobs", 0, "max parallel workers for directories (0=auto)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	showCFG, err := cmd.Flags().GetBool("show-cfg")
	if err != nil {
		return fmt.Errorf("failed to get show-cfg flag: %w", err)
	}
	showHIR, err := cmd.Flags().GetBool("show-hir")
	if err != nil {
		return fmt.Errorf("failed to get show-hir flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	// Expand directories into their *.ram files; validate files directly.
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return err
		}
		if info.IsDir() {
			dirResults, err := driver.ValidateDir(cmd.Context(), arg, jobs)
			if err != nil {
				return err
			}
			code := exitOK
			for _, r := range dirResults {
				emitDiagnostics(cmd, format, r.Bag, r.FS)
				if r.Bag.HasErrors() {
					code = exitCompile
				}
			}
			if code != exitOK {
				os.Exit(code)
			}
			continue
		}
		paths = append(paths, arg)
	}

	hadErrors := false
	for _, path := range paths {
		fileSet := source.NewFileSet()
		id, err := fileSet.Load(path)
		if err != nil {
			return err
		}
		session := driver.NewSession(fileSet)
		art := session.Compile(id)
		emitDiagnostics(cmd, format, session.Validate(id), fileSet)

		if showHIR {
			fmt.Fprintf(cmd.OutOrStdout(), "; %s\n%s", path, art.Program.Dump())
		}
		if showCFG {
			if g, ok := analysis.CFGOf(art.Context); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "; cfg %s\n%s", path, g.Dump())
			}
		}
		if art.Bag.HasErrors() {
			hadErrors = true
		}
	}
	if hadErrors {
		os.Exit(exitCompile)
	}
	return nil
}

func emitDiagnostics(cmd *cobra.Command, format string, bag *diag.Bag, fs *source.FileSet) {
	if bag.Len() == 0 {
		return
	}
	if format == "json" {
		_ = diagfmt.JSON(os.Stderr, bag, fs, diagfmt.JSONOpts{IncludeNotes: true, IncludeHelp: true})
		return
	}
	opts := diagfmt.DefaultPrettyOpts()
	opts.Color = useColor(cmd, os.Stderr)
	diagfmt.Pretty(os.Stderr, bag, fs, opts)
}

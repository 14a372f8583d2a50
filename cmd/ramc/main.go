package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ramc/internal/version"
)

// Exit codes shared by every subcommand.
const (
	exitOK      = 0
	exitRuntime = 1
	exitCompile = 2
	exitUsage   = 3
)

var rootCmd = &cobra.Command{
	Use:          "ramc",
	Short:        "RAM assembly compiler and virtual machine",
	Long:         `ramc compiles and executes programs for the random access machine`,
	SilenceUsage: true,
}

func main() {
	rootCmd.Version = version.Number

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitUsage)
	}
}

// isTerminal reports whether f is attached to a TTY.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color flag against the stream.
func useColor(cmd *cobra.Command, f *os.File) bool {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		mode = "auto"
	}
	switch mode {
	case "on":
		color.NoColor = false
		return true
	case "off":
		return false
	default:
		return isTerminal(f) && !color.NoColor
	}
}

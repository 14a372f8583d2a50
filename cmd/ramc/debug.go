package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ramc/internal/driver"
	"ramc/internal/source"
	"ramc/internal/ui"
	"ramc/internal/vm"
)

var debugCmd = &cobra.Command{
	Use:   "debug [flags] <file.ram>",
	Short: "Step through a RAM program interactively",
	Long:  `Compile a RAM source file and open an interactive debugger with stepping and breakpoints`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDebug,
}

func init() {
	debugCmd.Flags().String("input", "", "input tape, whitespace-separated integers (head first)")
	debugCmd.Flags().String("memory", "", "initial registers as k=v,k=v,…")
}

func runDebug(cmd *cobra.Command, args []string) error {
	path := args[0]
	inputSpec, err := cmd.Flags().GetString("input")
	if err != nil {
		return fmt.Errorf("failed to get input flag: %w", err)
	}
	memorySpec, err := cmd.Flags().GetString("memory")
	if err != nil {
		return fmt.Errorf("failed to get memory flag: %w", err)
	}
	input, err := parseInputList(inputSpec)
	if err != nil {
		return err
	}
	memory, err := parseMemorySpec(memorySpec)
	if err != nil {
		return err
	}

	fileSet := source.NewFileSet()
	id, err := fileSet.Load(path)
	if err != nil {
		return err
	}
	session := driver.NewSession(fileSet)
	art := session.Compile(id)
	if art.Bag.HasErrors() {
		printDiagnostics(cmd, session.Validate(id), fileSet)
		os.Exit(exitCompile)
	}

	machine := vm.New()
	machine.Load(art.Program)
	machine.SeedInput(input)
	machine.SeedMemory(memory)

	model := ui.NewDebugModel(&ui.DebugSession{
		Machine: machine,
		Program: art.Program,
		Files:   fileSet,
		Path:    path,
		Input:   input,
		Memory:  memory,
	})
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	if _, err := program.Run(); err != nil {
		return err
	}
	if machine.Err() != nil {
		os.Exit(exitRuntime)
	}
	return nil
}

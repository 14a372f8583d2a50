// Package ui provides the interactive debugger for the VM, built on
// Bubble Tea. It drives the same Step/RunUntilBreak primitives batch runs
// use; there is no second execution path.
package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ramc/internal/hir"
	"ramc/internal/source"
	"ramc/internal/vm"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	breakStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// DebugSession holds everything the debugger needs to run one program.
type DebugSession struct {
	Machine *vm.Machine
	Program *hir.Program
	Files   *source.FileSet
	Path    string
	// Seeds are re-applied by the reset command.
	Input  []int64
	Memory map[uint32]int64
}

type debugModel struct {
	s        *DebugSession
	bpInput  textinput.Model
	entering bool
	status   string
	width    int
}

// NewDebugModel returns a Bubble Tea model for the session.
func NewDebugModel(s *DebugSession) tea.Model {
	ti := textinput.New()
	ti.Placeholder = "pc"
	ti.CharLimit = 10
	ti.Width = 10
	return &debugModel{
		s:       s,
		bpInput: ti,
		status:  "ready",
	}
}

func (m *debugModel) Init() tea.Cmd {
	return nil
}

func (m *debugModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.entering {
			return m.updateBreakpointEntry(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			m.status = "step: " + m.s.Machine.Step().String()
			m.reportError()
		case "c":
			m.status = "continue: " + m.s.Machine.RunUntilBreak().String()
			m.reportError()
		case "r":
			m.s.Machine.Reset()
			m.s.Machine.SeedInput(m.s.Input)
			m.s.Machine.SeedMemory(m.s.Memory)
			m.status = "reset"
		case "b":
			m.entering = true
			m.bpInput.SetValue("")
			m.bpInput.Focus()
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m *debugModel) updateBreakpointEntry(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.entering = false
		m.bpInput.Blur()
		pc, err := strconv.ParseUint(strings.TrimSpace(m.bpInput.Value()), 10, 32)
		if err != nil {
			m.status = "breakpoint: not a pc"
			return m, nil
		}
		if m.s.Machine.RemoveBreakpoint(uint32(pc)) {
			m.status = fmt.Sprintf("breakpoint removed at %d", pc)
		} else {
			m.s.Machine.AddBreakpoint(uint32(pc))
			m.status = fmt.Sprintf("breakpoint set at %d", pc)
		}
		return m, nil
	case "esc":
		m.entering = false
		m.bpInput.Blur()
		m.status = "ready"
		return m, nil
	}
	var cmd tea.Cmd
	m.bpInput, cmd = m.bpInput.Update(msg)
	return m, cmd
}

func (m *debugModel) reportError() {
	if err := m.s.Machine.Err(); err != nil {
		m.status = err.Error()
	}
}

func (m *debugModel) View() string {
	var sb strings.Builder
	machine := m.s.Machine

	fmt.Fprintf(&sb, "%s  %s\n\n",
		titleStyle.Render("ramc debug"), faintStyle.Render(m.s.Path))

	sb.WriteString(m.renderListing())
	sb.WriteByte('\n')

	sb.WriteString(sectionStyle.Render("registers"))
	sb.WriteString("  " + m.renderRegisters() + "\n")
	sb.WriteString(sectionStyle.Render("input"))
	sb.WriteString("      " + renderTape(machine.InputRemaining()) + "\n")
	sb.WriteString(sectionStyle.Render("output"))
	sb.WriteString("     " + renderTape(machine.Output()) + "\n")
	fmt.Fprintf(&sb, "%s      %d\n\n", sectionStyle.Render("steps"), machine.Steps())

	if m.entering {
		fmt.Fprintf(&sb, "toggle breakpoint at pc: %s\n", m.bpInput.View())
	} else {
		fmt.Fprintf(&sb, "%s\n", statusStyle.Render(m.status))
	}
	sb.WriteString(faintStyle.Render("s step · c continue · b breakpoint · r reset · q quit"))
	sb.WriteByte('\n')
	return sb.String()
}

// renderListing shows the instructions around pc with breakpoint markers.
func (m *debugModel) renderListing() string {
	const window = 7
	machine := m.s.Machine
	p := m.s.Program
	pc := int(machine.PC())

	start := pc - window/2
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > p.Len() {
		end = p.Len()
		start = end - window
		if start < 0 {
			start = 0
		}
	}

	var sb strings.Builder
	for i := start; i < end; i++ {
		in := &p.Instrs[i]
		marker := " "
		if machine.HasBreakpoint(uint32(i)) {
			marker = breakStyle.Render("●")
		}
		if i == pc && !machine.Halted() {
			row := fmt.Sprintf("▶%s%4d  %s", marker, i, instrText(m.s.Files, in))
			sb.WriteString(currentStyle.Render(row))
		} else {
			fmt.Fprintf(&sb, " %s%4d  %s", marker, i, instrText(m.s.Files, in))
		}
		sb.WriteByte('\n')
	}
	if machine.Halted() {
		sb.WriteString(faintStyle.Render("       (halted)"))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// instrText prefers the original source line over the HIR rendering.
func instrText(fs *source.FileSet, in *hir.Instr) string {
	if fs != nil && !in.Span.Empty() {
		text := strings.TrimSpace(fs.SpanText(in.Span))
		if text != "" {
			return text
		}
	}
	text := in.Opcode
	for _, op := range in.Operands {
		text += " " + op.String()
	}
	return text
}

func (m *debugModel) renderRegisters() string {
	regs := m.s.Machine.Registers()
	if len(regs) == 0 {
		return faintStyle.Render("(all zero)")
	}
	keys := make([]uint32, 0, len(regs))
	for k := range regs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if len(parts) == 8 {
			parts = append(parts, "…")
			break
		}
		parts = append(parts, fmt.Sprintf("R%d=%d", k, regs[k]))
	}
	return strings.Join(parts, "  ")
}

func renderTape(values []int64) string {
	if len(values) == 0 {
		return faintStyle.Render("(empty)")
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.FormatInt(v, 10))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

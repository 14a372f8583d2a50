package vm

import (
	"fmt"

	"ramc/internal/diag"
)

// Error is a fatal runtime failure. It halts the machine and is surfaced
// by the driver as a single error diagnostic carrying the pc.
type Error struct {
	Code diag.Code
	PC   uint32
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at pc %d: %s", e.Code.ID(), e.PC, e.Msg)
}

func (m *Machine) errorf(code diag.Code, format string, args ...any) *Error {
	return &Error{Code: code, PC: m.pc, Msg: fmt.Sprintf(format, args...)}
}

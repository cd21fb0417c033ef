// Package interp executes stack-language programs directly, without going
// through assembly.
package interp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"stackc/pkg/compiler"
)

// Resolve runs the control-flow pass with instruction addresses as targets.
// An if jumps past its else (or to its end); an else jumps to its end.
func Resolve(prog compiler.Program) (compiler.ResolvedProgram[int], error) {
	return compiler.Resolve(prog, func(_, closer int, k compiler.Kind) int {
		if k == compiler.Else {
			return closer + 1
		}
		return closer
	})
}

// Machine holds the state of one run: a program counter and an operand stack.
type Machine struct {
	prog  compiler.ResolvedProgram[int]
	pc    int
	stack []int64

	Output io.Writer
	// Trace, if set, is called before each instruction executes.
	Trace func(pc int, in compiler.Instruction, stack []int64)
}

// New resolves prog and returns a machine positioned at its first instruction.
func New(prog compiler.Program) (*Machine, error) {
	resolved, err := Resolve(prog)
	if err != nil {
		return nil, err
	}
	return &Machine{prog: resolved}, nil
}

// Run interprets prog, writing one line per dump to w.
func Run(prog compiler.Program, w io.Writer) error {
	m, err := New(prog)
	if err != nil {
		return err
	}
	m.Output = w
	return m.Run()
}

func (m *Machine) outputSink() io.Writer {
	if m.Output != nil {
		return m.Output
	}
	return os.Stdout
}

// PC returns the address of the next instruction.
func (m *Machine) PC() int { return m.pc }

// Halted reports whether the program counter has run off the end.
func (m *Machine) Halted() bool { return m.pc >= len(m.prog) }

// Stack returns the operand stack, bottom first.
func (m *Machine) Stack() []int64 { return m.stack }

func (m *Machine) push(v int64) {
	m.stack = append(m.stack, v)
}

func (m *Machine) pop(in compiler.Resolved[int]) (int64, error) {
	if len(m.stack) == 0 {
		return 0, &RuntimeError{Kind: StackUnderflow, Pos: in.Pos, Text: in.Kind.String()}
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

// pop2 pops b then a and returns them in push order.
func (m *Machine) pop2(in compiler.Resolved[int]) (a, b int64, err error) {
	if len(m.stack) < 2 {
		return 0, 0, &RuntimeError{Kind: StackUnderflow, Pos: in.Pos, Text: in.Kind.String()}
	}
	b, _ = m.pop(in)
	a, _ = m.pop(in)
	return a, b, nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Step executes the instruction at pc.
func (m *Machine) Step() error {
	if m.Halted() {
		return nil
	}

	in := m.prog[m.pc]
	if m.Trace != nil {
		m.Trace(m.pc, in.Instruction, m.stack)
	}
	next := m.pc + 1

	switch in.Kind {
	case compiler.IntLiteral:
		v, err := strconv.ParseInt(in.Operand, 0, 64)
		if err != nil {
			return &RuntimeError{Kind: InvalidInteger, Pos: in.Pos, Text: in.Operand, Err: err}
		}
		m.push(v)

	case compiler.Add, compiler.Sub, compiler.Eq:
		a, b, err := m.pop2(in)
		if err != nil {
			return err
		}
		switch in.Kind {
		case compiler.Add:
			m.push(a + b)
		case compiler.Sub:
			m.push(a - b)
		case compiler.Eq:
			m.push(boolInt(a == b))
		}

	case compiler.Not:
		a, err := m.pop(in)
		if err != nil {
			return err
		}
		m.push(boolInt(a == 0))

	case compiler.Dump:
		a, err := m.pop(in)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(m.outputSink(), a); err != nil {
			return fmt.Errorf("%s: write output: %w", in.Pos, err)
		}

	case compiler.If:
		a, err := m.pop(in)
		if err != nil {
			return err
		}
		if a == 0 {
			next = in.Target
		}

	case compiler.Else:
		next = in.Target

	case compiler.End:
	}

	m.pc = next
	return nil
}

// Run steps until the program halts or an instruction fails. Output already
// written before a failure is kept.
func (m *Machine) Run() error {
	for !m.Halted() {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// ErrorKind classifies fatal runtime failures.
type ErrorKind int

const (
	StackUnderflow ErrorKind = iota
	InvalidInteger
)

// RuntimeError aborts a run at the instruction that failed.
type RuntimeError struct {
	Kind ErrorKind
	Pos  compiler.Pos
	Text string // instruction name or literal text
	Err  error
}

func (e *RuntimeError) Error() string {
	switch e.Kind {
	case StackUnderflow:
		return fmt.Sprintf("%s: stack underflow: %s on empty stack", e.Pos, e.Text)
	case InvalidInteger:
		return fmt.Sprintf("%s: invalid integer literal %q", e.Pos, e.Text)
	}
	return fmt.Sprintf("%s: runtime error", e.Pos)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func (e *RuntimeError) Code() string {
	if e.Kind == InvalidInteger {
		return "R0002"
	}
	return "R0001"
}

func (e *RuntimeError) Summary() string {
	if e.Kind == InvalidInteger {
		return "invalid integer literal"
	}
	return "stack underflow"
}

func (e *RuntimeError) Position() compiler.Pos { return e.Pos }

func (e *RuntimeError) Label() string {
	if e.Kind == InvalidInteger {
		var numErr *strconv.NumError
		if errors.As(e.Err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return "out of range for a 64-bit integer"
		}
		return "not an integer"
	}
	return e.Text + " needs more operands than the stack holds"
}

func (e *RuntimeError) HelpText() string {
	if e.Kind == InvalidInteger {
		return "words other than + - = ! -> if else end are read as integers"
	}
	return ""
}

package compiler

import "fmt"

// ErrorKind classifies fatal structural problems found while resolving or
// generating a program.
type ErrorKind int

const (
	DanglingElse       ErrorKind = iota // else without an open if
	UnmatchedEnd                        // end without an open if/else
	UnterminatedBlock                   // if/else still open at end of program
	UnbalancedBranches                  // branches leave different stack depths
	StackUnderflow                      // operand consumed from an empty frame
)

var errorKindInfo = [...]struct {
	code    string
	summary string
	help    string
}{
	DanglingElse:       {"E0101", "dangling else", "every else must follow an if in the same block"},
	UnmatchedEnd:       {"E0102", "unmatched end", "remove this end or open the block with if"},
	UnterminatedBlock:  {"E0103", "unterminated block", "close the block with end"},
	UnbalancedBranches: {"E0104", "unbalanced branches", "both branches of a conditional must leave the same number of values"},
	StackUnderflow:     {"E0105", "stack underflow", "push enough operands before this instruction"},
}

func (k ErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(errorKindInfo) {
		return errorKindInfo[k].summary
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// StructuralError reports a malformed program at the offending instruction.
type StructuralError struct {
	Kind ErrorKind
	Pos  Pos
	// Detail is an optional label message pointing at Pos.
	Detail string
}

func (e *StructuralError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Kind)
}

func (e *StructuralError) Code() string     { return errorKindInfo[e.Kind].code }
func (e *StructuralError) Summary() string  { return e.Kind.String() }
func (e *StructuralError) Position() Pos    { return e.Pos }
func (e *StructuralError) Label() string    { return e.Detail }
func (e *StructuralError) HelpText() string { return errorKindInfo[e.Kind].help }

// LiteralError reports a literal the code generator cannot turn into a value.
type LiteralError struct {
	Pos    Pos
	Text   string
	Reason string
}

func (e *LiteralError) Error() string {
	return fmt.Sprintf("%s: invalid integer literal %q: %s", e.Pos, e.Text, e.Reason)
}

func (e *LiteralError) Code() string    { return "E0201" }
func (e *LiteralError) Summary() string { return "invalid integer literal" }
func (e *LiteralError) Position() Pos   { return e.Pos }
func (e *LiteralError) Label() string   { return e.Reason }

func (e *LiteralError) HelpText() string {
	return "literals must be decimal, 0x hex, 0o octal or 0b binary integers"
}

package compiler

import "fmt"

// Pos locates a lexical unit in its source file. Line and Column are 1-based.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// RawToken is a maximal run of non-whitespace characters as produced by the Lexer.
type RawToken struct {
	Pos
	Text string
}

func (t RawToken) String() string {
	return fmt.Sprintf("%-8q  %s", t.Text, t.Pos)
}

// Kind identifies the instruction a token was classified as.
type Kind int

const (
	IntLiteral Kind = iota // any token that is not a keyword or symbol
	Add                    // +
	Sub                    // -
	Dump                   // ->
	Eq                     // =
	Not                    // !
	If                     // if
	Else                   // else
	End                    // end
)

// kindNames is indexed by Kind.
var kindNames = [...]string{
	IntLiteral: "INT",
	Add:        "ADD",
	Sub:        "SUB",
	Dump:       "DUMP",
	Eq:         "EQ",
	Not:        "NOT",
	If:         "IF",
	Else:       "ELSE",
	End:        "END",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Pops reports how many operands an instruction consumes from the stack.
func (k Kind) Pops() int {
	switch k {
	case Add, Sub, Eq:
		return 2
	case Not, Dump, If:
		return 1
	default:
		return 0
	}
}

// Pushes reports how many results an instruction leaves on the stack.
func (k Kind) Pushes() int {
	switch k {
	case IntLiteral, Add, Sub, Eq, Not:
		return 1
	default:
		return 0
	}
}

// IsControl reports whether k takes part in block structure.
func (k Kind) IsControl() bool {
	return k == If || k == Else || k == End
}

// Instruction is a classified token. Operand holds the literal text of an
// IntLiteral and is empty for every other kind; jump targets are never
// stored here, see Resolve.
type Instruction struct {
	Kind    Kind
	Operand string
	Pos     Pos
}

func (in Instruction) String() string {
	if in.Kind == IntLiteral {
		return fmt.Sprintf("%-5s %-8s %s", in.Kind, in.Operand, in.Pos)
	}
	return fmt.Sprintf("%-5s %-8s %s", in.Kind, "", in.Pos)
}

// Program is an ordered instruction sequence; indices are instruction addresses.
type Program []Instruction

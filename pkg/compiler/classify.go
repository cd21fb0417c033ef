package compiler

import "iter"

// keywords maps source text to its fixed instruction kind.
var keywords = map[string]Kind{
	"+":    Add,
	"-":    Sub,
	"->":   Dump,
	"=":    Eq,
	"!":    Not,
	"if":   If,
	"else": Else,
	"end":  End,
}

// Classify maps a raw token to an instruction. It never fails: unknown text
// becomes an IntLiteral and is only validated when a value is needed.
func Classify(tok RawToken) Instruction {
	if kind, ok := keywords[tok.Text]; ok {
		return Instruction{Kind: kind, Pos: tok.Pos}
	}
	return Instruction{Kind: IntLiteral, Operand: tok.Text, Pos: tok.Pos}
}

// ClassifyAll classifies a token sequence into a Program.
func ClassifyAll(tokens iter.Seq[RawToken]) Program {
	var prog Program
	for tok := range tokens {
		prog = append(prog, Classify(tok))
	}
	return prog
}

// Parse lexes and classifies src in one step.
func Parse(file, src string) Program {
	return ClassifyAll(Lex(file, src))
}

package compiler

// Resolved is an instruction together with the jump target computed for it.
// Target is set on If and Else: the place control goes when the guarded code
// is skipped. Placed is set on Else and End: the target of the block opener
// this instruction closes, which therefore lands here.
type Resolved[T any] struct {
	Instruction
	Target T
	Placed T
}

// ResolvedProgram is a Program with jump targets in a consumer's own
// numbering (instruction addresses for the interpreter, labels for codegen).
type ResolvedProgram[T any] []Resolved[T]

// TargetFunc produces the jump target for the block opener at address opener
// once its closer (an Else or End at address closer) is seen.
type TargetFunc[T any] func(opener, closer int, closerKind Kind) T

// Resolve pairs every if/else with its closing else/end in a single pass and
// returns a new program; prog is left untouched.
func Resolve[T any](prog Program, target TargetFunc[T]) (ResolvedProgram[T], error) {
	out := make(ResolvedProgram[T], len(prog))
	for addr, in := range prog {
		out[addr].Instruction = in
	}

	var open []int
	for addr, in := range prog {
		switch in.Kind {
		case If:
			open = append(open, addr)

		case Else:
			if len(open) == 0 || prog[open[len(open)-1]].Kind != If {
				return nil, &StructuralError{Kind: DanglingElse, Pos: in.Pos, Detail: "no if to attach to"}
			}
			opener := open[len(open)-1]
			open = open[:len(open)-1]
			t := target(opener, addr, Else)
			out[opener].Target = t
			out[addr].Placed = t
			open = append(open, addr)

		case End:
			if len(open) == 0 {
				return nil, &StructuralError{Kind: UnmatchedEnd, Pos: in.Pos, Detail: "no open block"}
			}
			opener := open[len(open)-1]
			if k := prog[opener].Kind; k != If && k != Else {
				return nil, &StructuralError{Kind: UnmatchedEnd, Pos: in.Pos, Detail: "no open block"}
			}
			open = open[:len(open)-1]
			t := target(opener, addr, End)
			out[opener].Target = t
			out[addr].Placed = t
		}
	}

	if len(open) > 0 {
		in := prog[open[len(open)-1]]
		return nil, &StructuralError{Kind: UnterminatedBlock, Pos: in.Pos, Detail: "block opened here is never closed"}
	}
	return out, nil
}

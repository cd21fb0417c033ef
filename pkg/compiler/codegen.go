package compiler

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Label identifies a jump destination allocated during one generation pass.
type Label int

// backend writes the instruction templates of one target. Slots are byte
// offsets from the frame's stack pointer register.
type backend interface {
	wordSize() int
	stackAlign() int
	commentPrefix() string
	checkLiteral(v int64) error
	label(l Label) string

	data(cg *CodeGen)
	globals(cg *CodeGen)
	prologue(cg *CodeGen, reserve int)
	epilogue(cg *CodeGen, reserve int)

	literal(cg *CodeGen, slot int, v int64)
	binary(cg *CodeGen, op Kind, a, b int)
	not(cg *CodeGen, slot int)
	dump(cg *CodeGen, slot int)
	branchIfZero(cg *CodeGen, slot int, l Label)
	jump(cg *CodeGen, l Label)
}

func backendFor(t Target) (backend, error) {
	switch t {
	case LinuxARM64:
		return arm64{os: "linux"}, nil
	case DarwinARM64:
		return arm64{os: "darwin"}, nil
	case GoCPU:
		return gocpu{}, nil
	}
	return nil, fmt.Errorf("codegen: unsupported target %s", t)
}

// block tracks the frame depth around an if/else so both branches can be
// checked to leave the same number of values.
type block struct {
	entry   int
	then    int
	hasElse bool
}

// CodeGen walks a program once and emits assembly for a target while
// tracking the symbolic stack frame.
type CodeGen struct {
	target    Target
	be        backend
	templates Templates
	comments  bool
	trace     io.Writer

	out       strings.Builder
	sections  sectionSet
	frame     StackFrame
	nextLabel int
	blocks    []block
}

// Option configures a CodeGen.
type Option func(*CodeGen)

// WithTemplates replaces the embedded runtime preambles.
func WithTemplates(t Templates) Option {
	return func(cg *CodeGen) { cg.templates = t }
}

// WithComments annotates the body with the source instruction of each template.
func WithComments(on bool) Option {
	return func(cg *CodeGen) { cg.comments = on }
}

// NewCodeGen returns a generator for target.
func NewCodeGen(target Target, opts ...Option) (*CodeGen, error) {
	be, err := backendFor(target)
	if err != nil {
		return nil, err
	}
	cg := &CodeGen{
		target:    target,
		be:        be,
		templates: DefaultTemplates(),
	}
	for _, opt := range opts {
		opt(cg)
	}
	return cg, nil
}

// NextLabel allocates a fresh label id.
func (cg *CodeGen) NextLabel() Label {
	l := Label(cg.nextLabel)
	cg.nextLabel++
	return l
}

func (cg *CodeGen) line(format string, args ...any) {
	fmt.Fprintf(&cg.out, format+"\n", args...)
}

func (cg *CodeGen) comment(format string, args ...any) {
	if cg.comments {
		cg.line("    "+cg.be.commentPrefix()+" "+format, args...)
	}
}

func (cg *CodeGen) define(l Label) {
	cg.line("%s:", cg.be.label(l))
}

// Resolve runs the control-flow pass with generator labels as targets.
func (cg *CodeGen) Resolve(prog Program) (ResolvedProgram[Label], error) {
	return Resolve(prog, func(_, _ int, _ Kind) Label { return cg.NextLabel() })
}

// Generate translates prog into assembly. A CodeGen is single use.
func (cg *CodeGen) Generate(prog Program) (*Output, error) {
	resolved, err := cg.Resolve(prog)
	if err != nil {
		return nil, err
	}

	cg.sections = make(sectionSet)
	for _, in := range resolved {
		if err := cg.genInstruction(in); err != nil {
			return nil, err
		}
	}

	preamble, err := cg.templates.Preamble(cg.target)
	if err != nil {
		return nil, err
	}

	// The frame size is only known now, so the procedure is assembled from
	// the prologue and the buffered instruction stream.
	body := cg.out.String()
	reserve := cg.frame.Reserve(cg.be.stackAlign())
	cg.out.Reset()
	cg.be.prologue(cg, reserve)
	cg.out.WriteString(body)
	cg.be.epilogue(cg, reserve)

	cg.be.data(cg)
	cg.be.globals(cg)
	cg.sections.raw(SectionPreamble, preamble)
	cg.sections.raw(SectionBody, cg.out.String())

	return &Output{
		Target:   cg.target,
		Sections: cg.sections.ordered(),
		Frame:    cg.frame,
		Reserve:  reserve,
		Labels:   cg.nextLabel,
	}, nil
}

// pop releases n operand slots and returns the offset of the lowest one.
func (cg *CodeGen) pop(in Resolved[Label], n int) (int, error) {
	slot, ok := cg.frame.Pop(n * cg.be.wordSize())
	if !ok {
		return 0, &StructuralError{
			Kind:   StackUnderflow,
			Pos:    in.Pos,
			Detail: fmt.Sprintf("%s needs %d operand(s)", in.Kind, n),
		}
	}
	return slot, nil
}

func (cg *CodeGen) genInstruction(in Resolved[Label]) error {
	w := cg.be.wordSize()

	switch in.Kind {
	case IntLiteral:
		v, err := strconv.ParseInt(in.Operand, 0, 64)
		if err != nil {
			reason := "not an integer"
			if errors.Is(err, strconv.ErrRange) {
				reason = "out of range for a 64-bit integer"
			}
			return &LiteralError{Pos: in.Pos, Text: in.Operand, Reason: reason}
		}
		if err := cg.be.checkLiteral(v); err != nil {
			return &LiteralError{Pos: in.Pos, Text: in.Operand, Reason: err.Error()}
		}
		cg.comment("push %s", in.Operand)
		cg.be.literal(cg, cg.frame.Push(w), v)

	case Add, Sub, Eq:
		a, err := cg.pop(in, 2)
		if err != nil {
			return err
		}
		cg.comment("%s", in.Kind)
		cg.be.binary(cg, in.Kind, a, a+w)
		cg.frame.Push(w)

	case Not:
		slot, err := cg.pop(in, 1)
		if err != nil {
			return err
		}
		cg.comment("not")
		cg.be.not(cg, slot)
		cg.frame.Push(w)

	case Dump:
		slot, err := cg.pop(in, 1)
		if err != nil {
			return err
		}
		cg.comment("dump")
		cg.be.dump(cg, slot)

	case If:
		slot, err := cg.pop(in, 1)
		if err != nil {
			return err
		}
		cg.comment("if")
		cg.be.branchIfZero(cg, slot, in.Target)
		cg.blocks = append(cg.blocks, block{entry: cg.frame.CurrentOffset})

	case Else:
		b := &cg.blocks[len(cg.blocks)-1]
		b.then = cg.frame.CurrentOffset
		b.hasElse = true
		cg.frame.CurrentOffset = b.entry
		cg.comment("else")
		cg.be.jump(cg, in.Target)
		cg.define(in.Placed)

	case End:
		b := cg.blocks[len(cg.blocks)-1]
		cg.blocks = cg.blocks[:len(cg.blocks)-1]
		want := b.entry
		if b.hasElse {
			want = b.then
		}
		if cg.frame.CurrentOffset != want {
			return &StructuralError{
				Kind: UnbalancedBranches,
				Pos:  in.Pos,
				Detail: fmt.Sprintf("branches leave %d and %d value(s)",
					want/w, cg.frame.CurrentOffset/w),
			}
		}
		cg.define(in.Placed)
	}
	return nil
}

// Generate is a convenience wrapper that builds a CodeGen for target.
func Generate(prog Program, target Target, opts ...Option) (*Output, error) {
	cg, err := NewCodeGen(target, opts...)
	if err != nil {
		return nil, err
	}
	return cg.Generate(prog)
}

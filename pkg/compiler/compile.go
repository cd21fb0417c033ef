package compiler

import (
	"fmt"
	"io"

	"stackc/pkg/asm"
)

// WithTrace writes one line per pipeline phase to w.
func WithTrace(w io.Writer) Option {
	return func(cg *CodeGen) { cg.trace = w }
}

func (cg *CodeGen) tracef(format string, args ...any) {
	if cg.trace != nil {
		fmt.Fprintf(cg.trace, format+"\n", args...)
	}
}

// Compile runs Lex, Classify and Generate over src for target.
func Compile(file, src string, target Target, opts ...Option) (*Output, error) {
	cg, err := NewCodeGen(target, opts...)
	if err != nil {
		return nil, err
	}

	prog := Parse(file, src)
	cg.tracef("[parse] %s: %d instruction(s)", file, len(prog))

	out, err := cg.Generate(prog)
	if err != nil {
		return nil, fmt.Errorf("codegen: %w", err)
	}
	cg.tracef("[codegen] %s: frame %d byte(s), reserve %d, %d label(s)",
		target, out.Frame.MaxOffset, out.Reserve, out.Labels)
	return out, nil
}

// Build compiles src for the GoCPU target and assembles the result into a
// memory image loadable at address 0.
func Build(file, src string, opts ...Option) (*Output, []byte, error) {
	out, err := Compile(file, src, GoCPU, opts...)
	if err != nil {
		return nil, nil, err
	}
	code, _, err := asm.Assemble(out.Assembly())
	if err != nil {
		return out, nil, fmt.Errorf("assembly error: %w", err)
	}
	return out, code, nil
}

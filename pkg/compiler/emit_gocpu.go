package compiler

import (
	"fmt"
	"strconv"
)

// gocpu emits assembly for the 16-bit GoCPU virtual machine. R7 holds the
// frame base copied from SP, R0/R1 are the scratch pair and R2/R3 compute
// slot addresses.
type gocpu struct{}

const (
	mmioPrintInt  = 0xFF01
	mmioPrintChar = 0xFF00
)

func (gocpu) wordSize() int         { return 2 }
func (gocpu) stackAlign() int       { return 2 }
func (gocpu) commentPrefix() string { return ";" }
func (gocpu) label(l Label) string  { return "L" + itoa(int(l)) }

// checkLiteral accepts the signed 16-bit range, which is what a dump prints
// back. Arithmetic on the CPU wraps at 16 bits.
func (gocpu) checkLiteral(v int64) error {
	if v < -0x8000 || v > 0x7FFF {
		return fmt.Errorf("%d does not fit in a signed 16-bit word", v)
	}
	return nil
}

func (gocpu) data(cg *CodeGen)    {}
func (gocpu) globals(cg *CodeGen) {}

func (gocpu) prologue(cg *CodeGen, reserve int) {
	cg.line("main:")
	cg.line("    LDSP R7")
	cg.line("    LDI  R1, %d", reserve)
	cg.line("    SUB  R7, R1")
	cg.line("    STSP R7")
}

func (gocpu) epilogue(cg *CodeGen, reserve int) {
	cg.line("    LDSP R7")
	cg.line("    LDI  R1, %d", reserve)
	cg.line("    ADD  R7, R1")
	cg.line("    STSP R7")
	cg.line("    HLT")
}

// addr leaves the address of slot in R2.
func (gocpu) addr(cg *CodeGen, slot int) {
	cg.line("    MOV  R2, R7")
	if slot != 0 {
		cg.line("    LDI  R3, %d", slot)
		cg.line("    ADD  R2, R3")
	}
}

func (g gocpu) literal(cg *CodeGen, slot int, v int64) {
	cg.line("    LDI  R0, %d", v)
	g.addr(cg, slot)
	cg.line("    ST   [R2], R0")
}

func (g gocpu) binary(cg *CodeGen, op Kind, a, b int) {
	g.addr(cg, b)
	cg.line("    LD   R1, [R2]")
	g.addr(cg, a)
	cg.line("    LD   R0, [R2]")
	switch op {
	case Add:
		cg.line("    ADD  R0, R1")
	case Sub:
		cg.line("    SUB  R0, R1")
	case Eq:
		g.flagToBool(cg)
	}
	cg.line("    ST   [R2], R0")
}

// flagToBool compares R0 with R1 and leaves 1 in R0 if they were equal.
func (g gocpu) flagToBool(cg *CodeGen) {
	skip := cg.NextLabel()
	cg.line("    SUB  R0, R1")
	cg.line("    LDI  R0, 1")
	cg.line("    JZ   %s", g.label(skip))
	cg.line("    LDI  R0, 0")
	cg.define(skip)
}

func (g gocpu) not(cg *CodeGen, slot int) {
	g.addr(cg, slot)
	cg.line("    LD   R0, [R2]")
	cg.line("    LDI  R1, 0")
	g.flagToBool(cg)
	cg.line("    ST   [R2], R0")
}

func (g gocpu) dump(cg *CodeGen, slot int) {
	g.addr(cg, slot)
	cg.line("    LD   R0, [R2]")
	cg.line("    LDI  R1, 0x%04X", mmioPrintInt)
	cg.line("    ST   [R1], R0")
	cg.line("    LDI  R0, 10")
	cg.line("    LDI  R1, 0x%04X", mmioPrintChar)
	cg.line("    ST   [R1], R0")
}

func (g gocpu) branchIfZero(cg *CodeGen, slot int, l Label) {
	g.addr(cg, slot)
	cg.line("    LD   R0, [R2]")
	cg.line("    LDI  R1, 0")
	cg.line("    SUB  R0, R1")
	cg.line("    JZ   %s", g.label(l))
}

func (g gocpu) jump(cg *CodeGen, l Label) {
	cg.line("    JMP  %s", g.label(l))
}

func itoa(n int) string { return strconv.Itoa(n) }

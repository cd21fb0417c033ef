// Package cpu implements the 16-bit GoCPU virtual machine used to execute
// programs compiled for the gocpu target.
package cpu

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	OpHLT  uint16 = 0x00
	OpNOP  uint16 = 0x01
	OpLDI  uint16 = 0x02
	OpMOV  uint16 = 0x03
	OpLD   uint16 = 0x04
	OpST   uint16 = 0x05
	OpADD  uint16 = 0x06
	OpSUB  uint16 = 0x07
	OpAND  uint16 = 0x08
	OpOR   uint16 = 0x09
	OpXOR  uint16 = 0x0A
	OpNOT  uint16 = 0x0B
	OpJMP  uint16 = 0x0E
	OpJZ   uint16 = 0x0F
	OpJNZ  uint16 = 0x10
	OpJN   uint16 = 0x11
	OpPUSH uint16 = 0x12
	OpPOP  uint16 = 0x13
	OpCALL uint16 = 0x14
	OpRET  uint16 = 0x15
	OpRETI uint16 = 0x18
	OpLDSP uint16 = 0x1A
	OpSTSP uint16 = 0x1B
)

const (
	RegA uint16 = 0
	RegB uint16 = 1
	RegC uint16 = 2
	RegD uint16 = 3
)

// StackTop is the initial stack pointer. The stack grows down from just
// below the MMIO window.
const StackTop uint16 = MMIOBase

// ErrStepLimit is returned by RunLimit when the program has not halted
// within the allowed number of steps.
var ErrStepLimit = errors.New("cpu: step limit reached")

type CPU struct {
	Regs [8]uint16

	PC uint16
	SP uint16

	Z bool
	N bool
	C bool

	Memory [65536]byte

	Halted bool

	// Output is where MMIO writes (0xFF00, 0xFF01) are sent.
	// If nil, os.Stdout is used.
	Output io.Writer

	// Steps counts executed instructions.
	Steps int
}

func NewCPU() *CPU {
	return &CPU{SP: StackTop}
}

// Load copies program into memory at address 0 and resets the registers.
func (c *CPU) Load(program []byte) error {
	if len(program) > int(MMIOBase) {
		return fmt.Errorf("cpu: program of %d bytes overlaps MMIO at 0x%04X", len(program), MMIOBase)
	}
	*c = CPU{SP: StackTop, Output: c.Output}
	copy(c.Memory[:], program)
	return nil
}

func (c *CPU) outputSink() io.Writer {
	if c.Output != nil {
		return c.Output
	}
	return os.Stdout
}

func (c *CPU) reg(idx uint16) *uint16 {
	return &c.Regs[idx&0x07]
}

func (c *CPU) updateFlags(result uint16) {
	c.Z = result == 0
	c.N = (result & 0x8000) != 0
}

func (c *CPU) fetch() uint16 {
	v := c.Read16(c.PC)
	c.PC += 2
	return v
}

func (c *CPU) Step() {
	if c.Halted {
		return
	}
	c.Steps++

	instr := c.fetch()
	opcode := (instr >> 10) & 0x3F
	regA := (instr >> 7) & 0x07
	regB := (instr >> 4) & 0x07

	switch opcode {
	case OpHLT:
		c.Halted = true

	case OpNOP:

	case OpLDI:
		*c.reg(regA) = c.fetch()

	case OpMOV:
		*c.reg(regA) = *c.reg(regB)

	case OpLD:
		*c.reg(regA) = c.Read16(*c.reg(regB))

	case OpST:
		c.Write16(*c.reg(regA), *c.reg(regB))

	case OpADD:
		res32 := uint32(*c.reg(regA)) + uint32(*c.reg(regB))
		result := uint16(res32)
		c.C = res32 > 0xFFFF
		*c.reg(regA) = result
		c.updateFlags(result)

	case OpSUB:
		valA, valB := *c.reg(regA), *c.reg(regB)
		result := valA - valB
		c.C = valA < valB
		*c.reg(regA) = result
		c.updateFlags(result)

	case OpAND:
		c.alu(regA, *c.reg(regA)&*c.reg(regB))
	case OpOR:
		c.alu(regA, *c.reg(regA)|*c.reg(regB))
	case OpXOR:
		c.alu(regA, *c.reg(regA)^*c.reg(regB))
	case OpNOT:
		c.alu(regA, ^*c.reg(regA))

	case OpJMP:
		c.PC = c.fetch()

	case OpJZ:
		c.branch(c.Z)
	case OpJNZ:
		c.branch(!c.Z)
	case OpJN:
		c.branch(c.N)

	case OpPUSH:
		c.SP -= 2
		c.Write16(c.SP, *c.reg(regA))

	case OpPOP:
		*c.reg(regA) = c.Read16(c.SP)
		c.SP += 2

	case OpCALL:
		target := c.fetch()
		c.SP -= 2
		c.Write16(c.SP, c.PC)
		c.PC = target

	case OpRET, OpRETI:
		c.PC = c.Read16(c.SP)
		c.SP += 2

	case OpLDSP:
		*c.reg(regA) = c.SP

	case OpSTSP:
		c.SP = *c.reg(regA)

	default:
		fmt.Fprintf(os.Stderr, "cpu: illegal opcode 0x%02X at 0x%04X\n", opcode, c.PC-2)
		c.Halted = true
	}
}

func (c *CPU) alu(regA, result uint16) {
	*c.reg(regA) = result
	c.updateFlags(result)
}

func (c *CPU) branch(taken bool) {
	target := c.fetch()
	if taken {
		c.PC = target
	}
}

func (c *CPU) Run() {
	for !c.Halted {
		c.Step()
	}
}

// RunLimit runs until HLT or until maxSteps instructions have executed.
// A maxSteps of zero or less means no limit.
func (c *CPU) RunLimit(maxSteps int) error {
	for !c.Halted {
		if maxSteps > 0 && c.Steps >= maxSteps {
			return fmt.Errorf("%w after %d instructions (pc=0x%04X)", ErrStepLimit, c.Steps, c.PC)
		}
		c.Step()
	}
	return nil
}

func EncodeInstruction(opcode, regA, regB, regC uint16) uint16 {
	return (opcode << 10) | ((regA & 0x07) << 7) | ((regB & 0x07) << 4) | ((regC & 0x07) << 1)
}

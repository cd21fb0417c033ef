package cpu_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"stackc/pkg/cpu"
)

// image encodes words as a little-endian memory image.
func image(words ...uint16) []byte {
	out := make([]byte, 0, len(words)*2)
	for _, w := range words {
		out = append(out, byte(w&0xFF), byte(w>>8))
	}
	return out
}

func enc(op, a, b uint16) uint16 { return cpu.EncodeInstruction(op, a, b, 0) }

var _ = Describe("CPU", func() {
	var (
		c   *cpu.CPU
		out *bytes.Buffer
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		c = cpu.NewCPU()
		c.Output = out
	})

	load := func(words ...uint16) {
		Expect(c.Load(image(words...))).To(Succeed())
	}

	Describe("EncodeInstruction", func() {
		It("packs opcode and registers", func() {
			Expect(cpu.EncodeInstruction(cpu.OpADD, 2, 1, 0)).To(Equal(uint16(0x06<<10 | 2<<7 | 1<<4)))
		})
	})

	Describe("Load", func() {
		It("starts the stack below MMIO", func() {
			load(enc(cpu.OpHLT, 0, 0))
			Expect(c.SP).To(Equal(cpu.StackTop))
			Expect(c.Output).To(BeIdenticalTo(out))
		})

		It("rejects images that reach MMIO", func() {
			Expect(c.Load(make([]byte, 0xFF01))).NotTo(Succeed())
		})
	})

	Context("ALU", func() {
		It("adds and clears Z", func() {
			load(enc(cpu.OpLDI, cpu.RegA, 0), 10,
				enc(cpu.OpLDI, cpu.RegB, 0), 20,
				enc(cpu.OpADD, cpu.RegA, cpu.RegB),
				enc(cpu.OpHLT, 0, 0))
			c.Run()
			Expect(c.Regs[cpu.RegA]).To(Equal(uint16(30)))
			Expect(c.Z).To(BeFalse())
		})

		It("sets Z and N on subtraction", func() {
			load(enc(cpu.OpLDI, cpu.RegA, 0), 3,
				enc(cpu.OpLDI, cpu.RegB, 0), 3,
				enc(cpu.OpSUB, cpu.RegA, cpu.RegB),
				enc(cpu.OpHLT, 0, 0))
			c.Run()
			Expect(c.Z).To(BeTrue())

			load(enc(cpu.OpLDI, cpu.RegA, 0), 3,
				enc(cpu.OpLDI, cpu.RegB, 0), 5,
				enc(cpu.OpSUB, cpu.RegA, cpu.RegB),
				enc(cpu.OpHLT, 0, 0))
			c.Run()
			Expect(c.N).To(BeTrue())
			Expect(c.C).To(BeTrue())
			Expect(int16(c.Regs[cpu.RegA])).To(Equal(int16(-2)))
		})

		It("does not touch flags on LDI", func() {
			load(enc(cpu.OpLDI, cpu.RegA, 0), 0,
				enc(cpu.OpLDI, cpu.RegB, 0), 0,
				enc(cpu.OpSUB, cpu.RegA, cpu.RegB),
				enc(cpu.OpLDI, cpu.RegA, 0), 7,
				enc(cpu.OpHLT, 0, 0))
			c.Run()
			Expect(c.Z).To(BeTrue())
		})
	})

	Context("memory and stack", func() {
		It("round-trips a word through ST and LD", func() {
			load(enc(cpu.OpLDI, cpu.RegA, 0), 0x1234,
				enc(cpu.OpLDI, cpu.RegC, 0), 0x0800,
				enc(cpu.OpST, cpu.RegC, cpu.RegA),
				enc(cpu.OpLD, cpu.RegB, cpu.RegC),
				enc(cpu.OpHLT, 0, 0))
			c.Run()
			Expect(c.Regs[cpu.RegB]).To(Equal(uint16(0x1234)))
			Expect(c.Memory[0x0800]).To(Equal(byte(0x34)))
		})

		It("pushes and pops", func() {
			load(enc(cpu.OpLDI, cpu.RegA, 0), 42,
				enc(cpu.OpPUSH, cpu.RegA, 0),
				enc(cpu.OpPOP, cpu.RegD, 0),
				enc(cpu.OpHLT, 0, 0))
			c.Run()
			Expect(c.Regs[cpu.RegD]).To(Equal(uint16(42)))
			Expect(c.SP).To(Equal(cpu.StackTop))
		})

		It("moves SP through LDSP and STSP", func() {
			load(enc(cpu.OpLDSP, 7, 0),
				enc(cpu.OpLDI, cpu.RegB, 0), 8,
				enc(cpu.OpSUB, 7, cpu.RegB),
				enc(cpu.OpSTSP, 7, 0),
				enc(cpu.OpHLT, 0, 0))
			c.Run()
			Expect(c.SP).To(Equal(cpu.StackTop - 8))
		})
	})

	Context("branches", func() {
		It("takes JZ only when Z is set", func() {
			// 0: LDI R0,0  4: LDI R1,0  8: SUB  10: JZ 18  14: LDI R2,1  18: HLT
			load(enc(cpu.OpLDI, cpu.RegA, 0), 0,
				enc(cpu.OpLDI, cpu.RegB, 0), 0,
				enc(cpu.OpSUB, cpu.RegA, cpu.RegB),
				enc(cpu.OpJZ, 0, 0), 18,
				enc(cpu.OpLDI, cpu.RegC, 0), 1,
				enc(cpu.OpHLT, 0, 0))
			c.Run()
			Expect(c.Regs[cpu.RegC]).To(Equal(uint16(0)))
		})

		It("calls and returns", func() {
			// 0: CALL 6  4: HLT  6: LDI R0,9  10: RET
			load(enc(cpu.OpCALL, 0, 0), 6,
				enc(cpu.OpHLT, 0, 0),
				enc(cpu.OpLDI, cpu.RegA, 0), 9,
				enc(cpu.OpRET, 0, 0))
			c.Run()
			Expect(c.Regs[cpu.RegA]).To(Equal(uint16(9)))
			Expect(c.SP).To(Equal(cpu.StackTop))
		})
	})

	Context("MMIO", func() {
		It("prints signed decimals and characters", func() {
			load(enc(cpu.OpLDI, cpu.RegA, 0), uint16(0xFFFB),
				enc(cpu.OpLDI, cpu.RegB, 0), cpu.PrintInt,
				enc(cpu.OpST, cpu.RegB, cpu.RegA),
				enc(cpu.OpLDI, cpu.RegA, 0), 10,
				enc(cpu.OpLDI, cpu.RegB, 0), cpu.PrintChar,
				enc(cpu.OpST, cpu.RegB, cpu.RegA),
				enc(cpu.OpHLT, 0, 0))
			c.Run()
			Expect(out.String()).To(Equal("-5\n"))
		})

		It("reads MMIO as zero", func() {
			Expect(c.Read16(cpu.PrintInt)).To(BeZero())
		})
	})

	Describe("RunLimit", func() {
		It("stops a program that never halts", func() {
			load(enc(cpu.OpJMP, 0, 0), 0)
			err := c.RunLimit(100)
			Expect(err).To(MatchError(cpu.ErrStepLimit))
			Expect(c.Steps).To(Equal(100))
		})

		It("returns nil once halted", func() {
			load(enc(cpu.OpNOP, 0, 0), enc(cpu.OpHLT, 0, 0))
			Expect(c.RunLimit(0)).To(Succeed())
			Expect(c.Halted).To(BeTrue())
		})
	})
})

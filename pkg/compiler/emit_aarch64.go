package compiler

// arm64 emits AArch64 assembly. Operands live in 8-byte slots addressed from
// sp; x0 and x1 are the scratch pair.
type arm64 struct {
	os string // "linux" or "darwin"
}

const (
	// maxAddImm is the largest unshifted immediate accepted by add/sub.
	maxAddImm = 4095
	// maxSlotImm is the largest scaled offset a 64-bit ldr/str encodes.
	maxSlotImm = 4095 * 8
)

func (arm64) wordSize() int              { return 8 }
func (arm64) stackAlign() int            { return 16 }
func (arm64) commentPrefix() string      { return "//" }
func (arm64) checkLiteral(v int64) error { return nil }

func (a arm64) label(l Label) string {
	if a.os == "darwin" {
		return "L" + itoa(int(l))
	}
	return ".L" + itoa(int(l))
}

func (a arm64) entry() string {
	if a.os == "darwin" {
		return "_main"
	}
	return "_start"
}

func (a arm64) data(cg *CodeGen) {
	if a.os != "darwin" {
		return
	}
	cg.sections.line(SectionData, ".data")
	cg.sections.line(SectionData, "newline:")
	cg.sections.line(SectionData, "    .byte 10")
}

func (a arm64) globals(cg *CodeGen) {
	cg.sections.line(SectionGlobals, ".text")
	cg.sections.line(SectionGlobals, ".global "+a.entry())
	cg.sections.line(SectionGlobals, ".p2align 2")
}

func (a arm64) adjustSP(cg *CodeGen, op string, n int) {
	if n <= maxAddImm {
		cg.line("    %s     sp, sp, #%d", op, n)
		return
	}
	cg.line("    ldr     x9, =%d", n)
	cg.line("    %s     sp, sp, x9", op)
}

// slot returns the memory operand for the slot at offset n. Offsets beyond
// the ldr/str immediate range are computed into x9 first.
func (a arm64) slot(cg *CodeGen, n int) string {
	if n <= maxSlotImm {
		return "[sp, #" + itoa(n) + "]"
	}
	cg.line("    ldr     x9, =%d", n)
	cg.line("    add     x9, sp, x9")
	return "[x9]"
}

func (a arm64) prologue(cg *CodeGen, reserve int) {
	cg.line("%s:", a.entry())
	a.adjustSP(cg, "sub", reserve)
}

func (a arm64) epilogue(cg *CodeGen, reserve int) {
	a.adjustSP(cg, "add", reserve)
	cg.line("    mov     x0, #0")
	if a.os == "darwin" {
		cg.line("    mov     x16, #1")
		cg.line("    svc     #0x80")
		return
	}
	cg.line("    mov     x8, #93")
	cg.line("    svc     #0")
}

func (a arm64) literal(cg *CodeGen, slot int, v int64) {
	cg.line("    ldr     x0, =%d", v)
	cg.line("    str     x0, %s", a.slot(cg, slot))
}

func (t arm64) binary(cg *CodeGen, op Kind, a, b int) {
	cg.line("    ldr     x0, %s", t.slot(cg, a))
	cg.line("    ldr     x1, %s", t.slot(cg, b))
	switch op {
	case Add:
		cg.line("    add     x0, x0, x1")
	case Sub:
		cg.line("    sub     x0, x0, x1")
	case Eq:
		cg.line("    cmp     x0, x1")
		cg.line("    cset    x0, eq")
	}
	cg.line("    str     x0, %s", t.slot(cg, a))
}

func (a arm64) not(cg *CodeGen, slot int) {
	cg.line("    ldr     x0, %s", a.slot(cg, slot))
	cg.line("    cmp     x0, #0")
	cg.line("    cset    x0, eq")
	cg.line("    str     x0, %s", a.slot(cg, slot))
}

func (a arm64) dump(cg *CodeGen, slot int) {
	cg.line("    ldr     x0, %s", a.slot(cg, slot))
	if a.os != "darwin" {
		cg.line("    bl      dump")
		return
	}
	cg.line("    bl      format_int")
	cg.line("    mov     x0, #1")
	cg.line("    mov     x16, #4")
	cg.line("    svc     #0x80")
	cg.line("    mov     x0, #1")
	cg.line("    adrp    x1, newline@PAGE")
	cg.line("    add     x1, x1, newline@PAGEOFF")
	cg.line("    mov     x2, #1")
	cg.line("    mov     x16, #4")
	cg.line("    svc     #0x80")
}

func (a arm64) branchIfZero(cg *CodeGen, slot int, l Label) {
	cg.line("    ldr     x0, %s", a.slot(cg, slot))
	cg.line("    cbz     x0, %s", a.label(l))
}

func (a arm64) jump(cg *CodeGen, l Label) {
	cg.line("    b       %s", a.label(l))
}

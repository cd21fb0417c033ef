// Package asm assembles GoCPU assembly text into a little-endian memory image.
package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"stackc/pkg/cpu"
)

// form describes the operands an instruction takes.
type form int

const (
	formNone   form = iota // HLT
	formReg                // PUSH R0
	formRegReg             // ADD R0, R1
	formRegImm             // LDI R0, 10
	formImm                // JMP label
)

type opInfo struct {
	opcode uint16
	form   form
}

var instructions = map[string]opInfo{
	"HLT":  {cpu.OpHLT, formNone},
	"NOP":  {cpu.OpNOP, formNone},
	"RET":  {cpu.OpRET, formNone},
	"RETI": {cpu.OpRETI, formNone},

	"NOT":  {cpu.OpNOT, formReg},
	"PUSH": {cpu.OpPUSH, formReg},
	"POP":  {cpu.OpPOP, formReg},
	"LDSP": {cpu.OpLDSP, formReg},
	"STSP": {cpu.OpSTSP, formReg},

	"MOV": {cpu.OpMOV, formRegReg},
	"LD":  {cpu.OpLD, formRegReg},
	"ST":  {cpu.OpST, formRegReg},
	"ADD": {cpu.OpADD, formRegReg},
	"SUB": {cpu.OpSUB, formRegReg},
	"AND": {cpu.OpAND, formRegReg},
	"OR":  {cpu.OpOR, formRegReg},
	"XOR": {cpu.OpXOR, formRegReg},

	"LDI": {cpu.OpLDI, formRegImm},

	"JMP":  {cpu.OpJMP, formImm},
	"JZ":   {cpu.OpJZ, formImm},
	"JNZ":  {cpu.OpJNZ, formImm},
	"JN":   {cpu.OpJN, formImm},
	"CALL": {cpu.OpCALL, formImm},
}

var operandCount = map[form]int{
	formNone:   0,
	formReg:    1,
	formRegReg: 2,
	formRegImm: 2,
	formImm:    1,
}

// Assembler resolves labels in a first pass and encodes in a second.
type Assembler struct {
	labels map[string]uint16
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels: make(map[string]uint16),
	}
}

// Assemble returns the memory image and a map from byte address to the
// source line that produced it.
func Assemble(code string) ([]byte, map[uint16]int, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) ([]byte, map[uint16]int, error) {
	var lines []parsedLine
	for i, raw := range strings.Split(code, "\n") {
		p, err := parseLine(raw, i+1)
		if err != nil {
			return nil, nil, err
		}
		lines = append(lines, p)
	}

	if err := a.pass1(lines); err != nil {
		return nil, nil, err
	}
	return a.pass2(lines)
}

// size returns the number of bytes p occupies once placed at address.
func size(p parsedLine, address uint32) (uint32, error) {
	switch p.mnemonic {
	case "":
		return 0, nil
	case ".WORD":
		return 2, nil
	case ".ORG":
		target, err := parseOrigin(p)
		if err != nil {
			return 0, err
		}
		if target < address {
			return 0, fmt.Errorf("cannot move origin backward on line %d", p.lineNo)
		}
		return target - address, nil
	}
	length, ok := instructionLength(p.mnemonic)
	if !ok {
		return 0, fmt.Errorf("unknown instruction on line %d: %s", p.lineNo, p.mnemonic)
	}
	return uint32(length), nil
}

func (a *Assembler) pass1(lines []parsedLine) error {
	var address uint32

	for _, p := range lines {
		for _, lbl := range p.labels {
			if address > 0xFFFF {
				return fmt.Errorf("label '%s' on line %d points past addressable memory", lbl, p.lineNo)
			}
			key := normalizeLabel(lbl)
			if _, exists := a.labels[key]; exists {
				return fmt.Errorf("duplicate label '%s' on line %d", lbl, p.lineNo)
			}
			a.labels[key] = uint16(address)
		}

		n, err := size(p, address)
		if err != nil {
			return err
		}
		if address+n > 65536 {
			return fmt.Errorf("program too large near line %d", p.lineNo)
		}
		address += n
	}

	return nil
}

func (a *Assembler) pass2(lines []parsedLine) ([]byte, map[uint16]int, error) {
	program := make([]byte, 0)
	sourceMap := make(map[uint16]int)

	emit := func(words ...uint16) {
		for _, w := range words {
			program = append(program, byte(w&0xFF), byte(w>>8))
		}
	}

	for _, p := range lines {
		if p.mnemonic == "" {
			continue
		}
		sourceMap[uint16(len(program))] = p.lineNo

		switch p.mnemonic {
		case ".ORG":
			target, err := parseOrigin(p)
			if err != nil {
				return nil, nil, err
			}
			program = append(program, make([]byte, int(target)-len(program))...)
			continue
		case ".WORD":
			if len(p.operands) != 1 {
				return nil, nil, fmt.Errorf(".WORD expects exactly one operand on line %d", p.lineNo)
			}
			val, err := a.parseImmediate(p.operands[0], p.lineNo)
			if err != nil {
				return nil, nil, err
			}
			emit(val)
			continue
		}

		info := instructions[p.mnemonic]
		if want := operandCount[info.form]; len(p.operands) != want {
			return nil, nil, fmt.Errorf("%s expects %d operand(s) on line %d", p.mnemonic, want, p.lineNo)
		}

		var regA, regB uint16
		var err error
		switch info.form {
		case formReg, formRegReg, formRegImm:
			if regA, err = parseRegister(p.operands[0], p.lineNo); err != nil {
				return nil, nil, err
			}
		}
		if info.form == formRegReg {
			if regB, err = parseRegister(p.operands[1], p.lineNo); err != nil {
				return nil, nil, err
			}
		}

		instr := cpu.EncodeInstruction(info.opcode, regA, regB, 0)
		switch info.form {
		case formRegImm, formImm:
			imm, err := a.parseImmediate(p.operands[len(p.operands)-1], p.lineNo)
			if err != nil {
				return nil, nil, err
			}
			emit(instr, imm)
		default:
			emit(instr)
		}
	}

	return program, sourceMap, nil
}

func parseOrigin(p parsedLine) (uint32, error) {
	if len(p.operands) != 1 {
		return 0, fmt.Errorf(".ORG expects exactly one operand on line %d", p.lineNo)
	}
	target, err := strconv.ParseUint(p.operands[0], 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid .ORG value on line %d: %s", p.lineNo, p.operands[0])
	}
	if target > 0xFFFF {
		return 0, fmt.Errorf(".ORG out of range on line %d: %s", p.lineNo, p.operands[0])
	}
	return uint32(target), nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	for line != "" {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}
		label := strings.TrimSpace(line[:colon])
		if strings.ContainsAny(label, " \t") {
			break
		}
		if !isIdentifier(label) {
			return p, fmt.Errorf("invalid label '%s' on line %d", label, lineNo)
		}
		p.labels = append(p.labels, label)
		line = strings.TrimSpace(line[colon+1:])
	}
	if line == "" {
		return p, nil
	}

	fields := strings.Fields(normalizeInstructionText(line))
	p.mnemonic = strings.ToUpper(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}
	return p, nil
}

func stripComments(line string) string {
	semicolon := strings.Index(line, ";")
	doubleSlash := strings.Index(line, "//")

	cut := -1
	if semicolon >= 0 {
		cut = semicolon
	}
	if doubleSlash >= 0 && (cut == -1 || doubleSlash < cut) {
		cut = doubleSlash
	}
	if cut >= 0 {
		return line[:cut]
	}
	return line
}

func normalizeInstructionText(line string) string {
	replacer := strings.NewReplacer(",", " ", "[", " ", "]", " ")
	return replacer.Replace(line)
}

func parseRegister(token string, lineNo int) (uint16, error) {
	t := strings.ToUpper(token)
	if len(t) == 2 && t[0] == 'R' && t[1] >= '0' && t[1] <= '7' {
		return uint16(t[1] - '0'), nil
	}
	return 0, fmt.Errorf("invalid register '%s' on line %d", token, lineNo)
}

// parseImmediate accepts unsigned words, negative values down to -32768
// (stored as two's complement) and label names.
func (a *Assembler) parseImmediate(token string, lineNo int) (uint16, error) {
	if value, err := strconv.ParseInt(token, 0, 32); err == nil {
		if value < -0x8000 || value > 0xFFFF {
			return 0, fmt.Errorf("immediate out of range on line %d: %s", lineNo, token)
		}
		return uint16(value), nil
	}

	if addr, ok := a.labels[normalizeLabel(token)]; ok {
		return addr, nil
	}

	if isIdentifier(token) {
		return 0, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
	}

	return 0, fmt.Errorf("invalid immediate '%s' on line %d", token, lineNo)
}

// instructionLength returns the byte length of an instruction.
// All instructions are 2 bytes; instructions with an immediate are 4 bytes.
func instructionLength(mnemonic string) (uint16, bool) {
	info, ok := instructions[strings.ToUpper(mnemonic)]
	if !ok {
		return 0, false
	}
	if info.form == formRegImm || info.form == formImm {
		return 4, true
	}
	return 2, true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func normalizeLabel(label string) string {
	return strings.ToUpper(label)
}

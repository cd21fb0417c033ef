package cpu

import "fmt"

// MMIO registers occupy 0xFF00-0xFF2F. Everything else is plain RAM.
const (
	MMIOBase  uint16 = 0xFF00
	MMIOLimit uint16 = 0xFF2F

	// PrintChar writes the low byte of the stored word as a character.
	PrintChar uint16 = 0xFF00
	// PrintInt writes the stored word as a signed decimal.
	PrintInt uint16 = 0xFF01
)

func isMMIO(addr uint16) bool {
	return addr >= MMIOBase && addr <= MMIOLimit
}

// Read16 reads a little-endian uint16 from addr and addr+1. MMIO registers
// read as zero.
func (c *CPU) Read16(addr uint16) uint16 {
	if isMMIO(addr) {
		return 0
	}
	lo := uint16(c.Memory[addr])
	hi := uint16(c.Memory[addr+1])
	return lo | (hi << 8)
}

// Write16 writes a little-endian uint16 to addr and addr+1.
func (c *CPU) Write16(addr uint16, val uint16) {
	if isMMIO(addr) {
		c.handleMMIOWrite16(addr, val)
		return
	}
	c.Memory[addr] = byte(val & 0xFF)
	c.Memory[addr+1] = byte(val >> 8)
}

func (c *CPU) handleMMIOWrite16(addr uint16, val uint16) {
	switch addr {
	case PrintChar:
		fmt.Fprintf(c.outputSink(), "%c", rune(val&0xFF))
	case PrintInt:
		fmt.Fprintf(c.outputSink(), "%d", int16(val))
	}
}

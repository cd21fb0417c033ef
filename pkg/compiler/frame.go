package compiler

// StackFrame is the compile-time model of operand slots. CurrentOffset is the
// number of bytes currently pushed; MaxOffset is the high-water mark and sizes
// the frame reserved in the prologue.
type StackFrame struct {
	CurrentOffset int
	MaxOffset     int
}

// Push claims size bytes and returns the offset of the new slot.
func (f *StackFrame) Push(size int) int {
	slot := f.CurrentOffset
	f.CurrentOffset += size
	if f.CurrentOffset > f.MaxOffset {
		f.MaxOffset = f.CurrentOffset
	}
	return slot
}

// Pop releases size bytes and returns the offset of the released slot.
// It reports false if the frame holds fewer than size bytes.
func (f *StackFrame) Pop(size int) (int, bool) {
	if f.CurrentOffset < size {
		return 0, false
	}
	f.CurrentOffset -= size
	return f.CurrentOffset, true
}

// Reserve returns MaxOffset rounded up to a multiple of align.
func (f StackFrame) Reserve(align int) int {
	if align <= 1 {
		return f.MaxOffset
	}
	return (f.MaxOffset + align - 1) / align * align
}

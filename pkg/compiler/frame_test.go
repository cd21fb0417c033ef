package compiler

import "testing"

func TestStackFrame(t *testing.T) {
	var f StackFrame
	if slot := f.Push(8); slot != 0 {
		t.Errorf("first slot = %d", slot)
	}
	if slot := f.Push(8); slot != 8 {
		t.Errorf("second slot = %d", slot)
	}
	if slot, ok := f.Pop(16); !ok || slot != 0 {
		t.Errorf("Pop(16) = %d, %v", slot, ok)
	}
	f.Push(8)
	if f.CurrentOffset != 8 || f.MaxOffset != 16 {
		t.Errorf("frame = %+v", f)
	}
	if _, ok := f.Pop(16); ok {
		t.Error("Pop past the bottom should fail")
	}
	if f.CurrentOffset != 8 {
		t.Errorf("failed Pop changed the frame: %+v", f)
	}
}

func TestStackFrameReserve(t *testing.T) {
	tests := []struct {
		max, align, want int
	}{
		{0, 16, 0},
		{8, 16, 16},
		{16, 16, 16},
		{24, 16, 32},
		{6, 2, 6},
		{5, 1, 5},
	}
	for _, tt := range tests {
		f := StackFrame{MaxOffset: tt.max}
		if got := f.Reserve(tt.align); got != tt.want {
			t.Errorf("Reserve(%d) with max %d = %d; want %d", tt.align, tt.max, got, tt.want)
		}
	}
}

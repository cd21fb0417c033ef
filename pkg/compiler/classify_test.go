package compiler

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		text    string
		kind    Kind
		operand string
	}{
		{"+", Add, ""},
		{"-", Sub, ""},
		{"->", Dump, ""},
		{"=", Eq, ""},
		{"!", Not, ""},
		{"if", If, ""},
		{"else", Else, ""},
		{"end", End, ""},
		{"42", IntLiteral, "42"},
		{"-7", IntLiteral, "-7"},
		{"0x1f", IntLiteral, "0x1f"},
		// Unknown words classify as literals and fail later.
		{"IF", IntLiteral, "IF"},
		{"hello", IntLiteral, "hello"},
	}
	for _, tt := range tests {
		in := Classify(RawToken{Pos: Pos{Line: 2, Column: 4}, Text: tt.text})
		if in.Kind != tt.kind || in.Operand != tt.operand {
			t.Errorf("Classify(%q) = %v %q; want %v %q", tt.text, in.Kind, in.Operand, tt.kind, tt.operand)
		}
		if in.Pos != (Pos{Line: 2, Column: 4}) {
			t.Errorf("Classify(%q) lost position: %v", tt.text, in.Pos)
		}
	}
}

func TestParse(t *testing.T) {
	prog := Parse("p.stk", "1 2 +\nif -> end")
	want := []Kind{IntLiteral, IntLiteral, Add, If, Dump, End}
	if len(prog) != len(want) {
		t.Fatalf("got %d instructions, want %d", len(prog), len(want))
	}
	for i, k := range want {
		if prog[i].Kind != k {
			t.Errorf("prog[%d] = %v; want %v", i, prog[i].Kind, k)
		}
	}
	if prog[4].Pos.String() != "p.stk:2:4" {
		t.Errorf("position = %s", prog[4].Pos)
	}
}

func TestKindEffects(t *testing.T) {
	tests := []struct {
		kind         Kind
		pops, pushes int
		control      bool
	}{
		{IntLiteral, 0, 1, false},
		{Add, 2, 1, false},
		{Eq, 2, 1, false},
		{Not, 1, 1, false},
		{Dump, 1, 0, false},
		{If, 1, 0, true},
		{Else, 0, 0, true},
		{End, 0, 0, true},
	}
	for _, tt := range tests {
		if tt.kind.Pops() != tt.pops || tt.kind.Pushes() != tt.pushes || tt.kind.IsControl() != tt.control {
			t.Errorf("%v: pops=%d pushes=%d control=%v", tt.kind, tt.kind.Pops(), tt.kind.Pushes(), tt.kind.IsControl())
		}
	}
}

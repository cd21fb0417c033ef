package interp

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"

	"stackc/pkg/compiler"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Run(compiler.Parse("t.stk", src), &out)
	return out.String(), err
}

func TestRun(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 2 + ->", "3\n"},
		{"5 3 - ->", "2\n"},
		{"1 1 = ->", "1\n"},
		{"1 2 = ->", "0\n"},
		{"0 ! ->", "1\n"},
		{"1 ! ->", "0\n"},
		{"-5 ! ->", "0\n"},
		{"1 if 2 -> else 3 -> end", "2\n"},
		{"0 if 2 -> else 3 -> end", "3\n"},
		{"0 if 2 -> end", ""},
		{"5 if 2 -> end", "2\n"},
		{"1 if 0 if 5 -> else 6 -> end else 7 -> end 8 ->", "6\n8\n"},
		{"0x1f -> 0b101 -> 0o17 ->", "31\n5\n15\n"},
		{"9223372036854775807 1 + ->", "-9223372036854775808\n"},
		{"1\n2\n+\n->", "3\n"},
		{"", ""},
	}
	for _, tt := range tests {
		got, err := run(t, tt.src)
		if err != nil {
			t.Errorf("%q: %v", tt.src, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %q; want %q", tt.src, got, tt.want)
		}
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		kind       ErrorKind
		col        int
		wantOutput string
	}{
		{"dump on empty", "->", StackUnderflow, 1, ""},
		{"add with one operand", "1 +", StackUnderflow, 3, ""},
		{"output before failure is kept", "4 -> -", StackUnderflow, 6, "4\n"},
		{"if on empty", "if end", StackUnderflow, 1, ""},
		{"not a number", "1 foo", InvalidInteger, 3, ""},
		{"overflow", "99999999999999999999", InvalidInteger, 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.src)
			var re *RuntimeError
			if !errors.As(err, &re) {
				t.Fatalf("expected RuntimeError, got %v", err)
			}
			if re.Kind != tt.kind || re.Pos.Column != tt.col || re.Pos.Line != 1 {
				t.Errorf("got %v at %v", re.Kind, re.Pos)
			}
			if out != tt.wantOutput {
				t.Errorf("output = %q; want %q", out, tt.wantOutput)
			}
		})
	}
}

func TestRuntimeErrorReport(t *testing.T) {
	_, err := run(t, "99999999999999999999")
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatal(err)
	}
	if !errors.Is(err, strconv.ErrRange) {
		t.Error("overflow should unwrap to strconv.ErrRange")
	}
	if re.Code() != "R0002" || !strings.Contains(re.Label(), "out of range") {
		t.Errorf("code=%s label=%q", re.Code(), re.Label())
	}

	_, err = run(t, "+")
	if !errors.As(err, &re) || re.Code() != "R0001" || re.Text != "ADD" {
		t.Errorf("got %v", err)
	}
}

func TestStructuralErrorsBeforeRun(t *testing.T) {
	out, err := run(t, "1 -> end")
	var se *compiler.StructuralError
	if !errors.As(err, &se) || se.Kind != compiler.UnmatchedEnd {
		t.Fatalf("got %v", err)
	}
	if out != "" {
		t.Errorf("nothing should run before resolution fails, got %q", out)
	}
}

func TestResolveTargets(t *testing.T) {
	res, err := Resolve(compiler.Parse("t.stk", "1 if 2 else 3 end"))
	if err != nil {
		t.Fatal(err)
	}
	if res[1].Target != 4 {
		t.Errorf("if target = %d; want 4 (after else)", res[1].Target)
	}
	if res[3].Target != 5 {
		t.Errorf("else target = %d; want 5 (end)", res[3].Target)
	}
}

func TestMachineStepAndTrace(t *testing.T) {
	m, err := New(compiler.Parse("t.stk", "2 3 + 0 if 1 end"))
	if err != nil {
		t.Fatal(err)
	}
	var pcs []int
	m.Trace = func(pc int, in compiler.Instruction, stack []int64) {
		pcs = append(pcs, pc)
	}
	if err := m.Run(); err != nil {
		t.Fatal(err)
	}
	want := []int{0, 1, 2, 3, 4, 6}
	if len(pcs) != len(want) {
		t.Fatalf("trace = %v; want %v", pcs, want)
	}
	for i := range want {
		if pcs[i] != want[i] {
			t.Fatalf("trace = %v; want %v", pcs, want)
		}
	}
	if !m.Halted() || len(m.Stack()) != 1 || m.Stack()[0] != 5 {
		t.Errorf("halted=%v stack=%v", m.Halted(), m.Stack())
	}
	if err := m.Step(); err != nil {
		t.Errorf("Step after halt: %v", err)
	}
}

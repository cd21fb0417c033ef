package compiler

import (
	"reflect"
	"testing"
)

func tok(line, col int, text string) RawToken {
	return RawToken{Pos: Pos{File: "t.stk", Line: line, Column: col}, Text: text}
}

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []RawToken
	}{
		{
			name:     "Empty",
			input:    "",
			expected: nil,
		},
		{
			name:     "Whitespace only",
			input:    "  \t\n\r\n   ",
			expected: nil,
		},
		{
			name:  "Single line",
			input: "1 2 + ->",
			expected: []RawToken{
				tok(1, 1, "1"), tok(1, 3, "2"), tok(1, 5, "+"), tok(1, 7, "->"),
			},
		},
		{
			name:  "Multiple lines and indentation",
			input: "1 if\n  2 ->\nend",
			expected: []RawToken{
				tok(1, 1, "1"), tok(1, 3, "if"),
				tok(2, 3, "2"), tok(2, 5, "->"),
				tok(3, 1, "end"),
			},
		},
		{
			name:  "CRLF line endings",
			input: "1\r\n2\r\n",
			expected: []RawToken{
				tok(1, 1, "1"), tok(2, 1, "2"),
			},
		},
		{
			name:  "Tabs and runs of spaces",
			input: "\t7\t\t  -   ->",
			expected: []RawToken{
				tok(1, 2, "7"), tok(1, 7, "-"), tok(1, 11, "->"),
			},
		},
		{
			name:  "Symbols are not split",
			input: "1+2 ->->",
			expected: []RawToken{
				tok(1, 1, "1+2"), tok(1, 5, "->->"),
			},
		},
		{
			name:  "Blank lines keep numbering",
			input: "\n\n  5",
			expected: []RawToken{
				tok(3, 3, "5"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LexAll("t.stk", tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("LexAll(%q) =\n%v\nwant\n%v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLexRestartable(t *testing.T) {
	seq := Lex("t.stk", "1 2\n3")
	var first, second []RawToken
	for tk := range seq {
		first = append(first, tk)
	}
	for tk := range seq {
		second = append(second, tk)
	}
	if len(first) != 3 || !reflect.DeepEqual(first, second) {
		t.Errorf("passes differ: %v vs %v", first, second)
	}
}

func TestLexEarlyStop(t *testing.T) {
	var got []string
	for tk := range Lex("t.stk", "a b\nc d") {
		got = append(got, tk.Text)
		if tk.Text == "c" {
			break
		}
	}
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("got %v", got)
	}
}

func TestLexPositionsAreOrdered(t *testing.T) {
	src := "1 2 +\n\n  3 ->  if 4 else 5 end\n->"
	var prev Pos
	for tk := range Lex("t.stk", src) {
		if tk.Line < prev.Line || (tk.Line == prev.Line && tk.Column <= prev.Column) {
			t.Fatalf("token %v not after %v", tk, prev)
		}
		prev = tk.Pos
	}
}

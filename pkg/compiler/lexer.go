package compiler

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lex returns the raw tokens of src in (line, column) order. The sequence is
// lazy and may be ranged over any number of times; each pass rescans src.
func Lex(file, src string) iter.Seq[RawToken] {
	return func(yield func(RawToken) bool) {
		line := 0
		for rest := src; ; {
			line++
			text, next, more := cutLine(rest)
			if !lexLine(file, line, text, yield) {
				return
			}
			if !more {
				return
			}
			rest = next
		}
	}
}

// LexAll collects every token of src.
func LexAll(file, src string) []RawToken {
	var tokens []RawToken
	for tok := range Lex(file, src) {
		tokens = append(tokens, tok)
	}
	return tokens
}

// cutLine splits off the first line of s. Both "\n" and "\r\n" terminate a line.
func cutLine(s string) (line, rest string, more bool) {
	line, rest, more = strings.Cut(s, "\n")
	if more {
		line = strings.TrimSuffix(line, "\r")
	}
	return line, rest, more
}

// lexLine yields one token per maximal run of non-whitespace in line.
// It returns false once yield asks to stop.
func lexLine(file string, line int, text string, yield func(RawToken) bool) bool {
	col := skip(text, 0, unicode.IsSpace)
	for col < len(text) {
		end := skip(text, col, func(r rune) bool { return !unicode.IsSpace(r) })
		tok := RawToken{
			Pos:  Pos{File: file, Line: line, Column: col + 1},
			Text: text[col:end],
		}
		if !yield(tok) {
			return false
		}
		col = skip(text, end, unicode.IsSpace)
	}
	return true
}

// skip advances from byte offset i while pred holds.
func skip(text string, i int, pred func(rune) bool) int {
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !pred(r) {
			break
		}
		i += size
	}
	return i
}

// Package diag renders compiler and runtime errors with the offending
// source line and a caret underline.
package diag

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-isatty"

	"stackc/pkg/compiler"
)

// Report is implemented by errors that carry a source position.
type Report interface {
	error
	Code() string
	Summary() string
	Position() compiler.Pos
	Label() string
	HelpText() string
}

// ColorMode selects when escape sequences are written.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode accepts auto, always or never. The empty string means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	}
	return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
}

// Enabled reports whether output to f should be coloured under mode.
func (m ColorMode) Enabled(f *os.File) bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if f == nil || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

const (
	reset    = "\033[0m"
	boldRed  = "\033[1;31m"
	boldBlue = "\033[1;34m"
	bold     = "\033[1m"
	cyan     = "\033[36m"
)

// Emitter writes diagnostics to W. Sources maps file names to their text so
// the offending line can be quoted; files not in the map are read from disk.
type Emitter struct {
	W       io.Writer
	Color   bool
	Sources map[string]string

	lines map[string][]string
}

func NewEmitter(w io.Writer, color bool) *Emitter {
	return &Emitter{W: w, Color: color, Sources: make(map[string]string)}
}

// AddSource registers the text of file.
func (e *Emitter) AddSource(file, src string) {
	if e.Sources == nil {
		e.Sources = make(map[string]string)
	}
	e.Sources[file] = src
	delete(e.lines, file)
}

func (e *Emitter) paint(style, s string) string {
	if !e.Color {
		return s
	}
	return style + s + reset
}

// Emit renders err. Errors that do not implement Report are printed as a
// plain header.
func (e *Emitter) Emit(err error) {
	var r Report
	if !errors.As(err, &r) {
		fmt.Fprintf(e.W, "%s: %s\n", e.paint(boldRed, "error"), e.paint(bold, err.Error()))
		return
	}

	fmt.Fprintf(e.W, "%s%s\n", e.paint(boldRed, "error["+r.Code()+"]"), e.paint(bold, ": "+r.Summary()))

	pos := r.Position()
	fmt.Fprintf(e.W, "  %s %s\n", e.paint(boldBlue, "-->"), pos)

	if text, ok := e.line(pos.File, pos.Line); ok {
		num := strconv.Itoa(pos.Line)
		pad := strings.Repeat(" ", len(num))
		gutter := e.paint(boldBlue, pad+" |")

		fmt.Fprintln(e.W, gutter)
		fmt.Fprintf(e.W, "%s %s\n", e.paint(boldBlue, num+" |"), text)

		col := pos.Column - 1
		if col < 0 || col > len(text) {
			col = len(text)
		}
		marker := strings.Repeat("^", tokenWidth(text[col:]))
		if label := r.Label(); label != "" {
			marker += " " + label
		}
		fmt.Fprintf(e.W, "%s %s%s\n", gutter, indent(text[:col]), e.paint(boldRed, marker))
		fmt.Fprintln(e.W, gutter)
	}

	if help := r.HelpText(); help != "" {
		fmt.Fprintf(e.W, "  %s %s\n", e.paint(cyan, "= help:"), help)
	}
}

func (e *Emitter) line(file string, n int) (string, bool) {
	if e.lines == nil {
		e.lines = make(map[string][]string)
	}
	lines, ok := e.lines[file]
	if !ok {
		src, found := e.Sources[file]
		if !found {
			data, err := os.ReadFile(file)
			if err != nil {
				return "", false
			}
			src = string(data)
		}
		lines = strings.Split(src, "\n")
		for i, l := range lines {
			lines[i] = strings.TrimSuffix(l, "\r")
		}
		e.lines[file] = lines
	}
	if n < 1 || n > len(lines) {
		return "", false
	}
	return lines[n-1], true
}

// tokenWidth is the number of runes in the whitespace-delimited run at the
// start of s, or 1 if s starts with whitespace or is empty.
func tokenWidth(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if unicode.IsSpace(r) {
			break
		}
		n++
		s = s[size:]
	}
	return max(n, 1)
}

// indent keeps tabs from prefix so the caret lines up with the quoted line.
func indent(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteRune('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

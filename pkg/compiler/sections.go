package compiler

import "strings"

// Section names in the order they appear in the assembly file.
const (
	SectionData     = "data"
	SectionGlobals  = "globals"
	SectionPreamble = "preamble"
	SectionBody     = "body"
)

var sectionOrder = []string{SectionData, SectionGlobals, SectionPreamble, SectionBody}

// Section is a named block of assembly text.
type Section struct {
	Name string
	Text string
}

// Output is the result of one code generation pass.
type Output struct {
	Target   Target
	Sections []Section
	// Frame is the final state of the symbolic stack frame.
	Frame StackFrame
	// Reserve is the number of bytes the prologue subtracts from the stack pointer.
	Reserve int
	// Labels is the number of labels the pass allocated.
	Labels int
}

// Section returns the text of the named section, or "" if it was not emitted.
func (o *Output) Section(name string) string {
	for _, s := range o.Sections {
		if s.Name == name {
			return s.Text
		}
	}
	return ""
}

// Assembly concatenates the sections in file order. Empty sections are skipped.
func (o *Output) Assembly() string {
	var b strings.Builder
	for _, name := range sectionOrder {
		text := o.Section(name)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// sectionSet collects sections as they are produced, in any order.
type sectionSet map[string]*strings.Builder

func (s sectionSet) line(name string, text string) {
	b, ok := s[name]
	if !ok {
		b = &strings.Builder{}
		s[name] = b
	}
	b.WriteString(text)
	b.WriteByte('\n')
}

func (s sectionSet) raw(name string, text string) {
	b, ok := s[name]
	if !ok {
		b = &strings.Builder{}
		s[name] = b
	}
	b.WriteString(text)
}

// ordered freezes the set into file order.
func (s sectionSet) ordered() []Section {
	var out []Section
	for _, name := range sectionOrder {
		if b, ok := s[name]; ok && b.Len() > 0 {
			out = append(out, Section{Name: name, Text: b.String()})
		}
	}
	return out
}

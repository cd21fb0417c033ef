package compiler

import (
	"embed"
	"fmt"
	"strings"
)

// Target selects the platform convention the code generator writes for.
type Target int

const (
	LinuxARM64  Target = iota // AArch64 Linux, Dump through the runtime's dump routine
	DarwinARM64               // AArch64 macOS, Dump through write(2) system calls
	GoCPU                     // 16-bit GoCPU virtual machine, Dump through MMIO
)

var targetNames = [...]string{
	LinuxARM64:  "linux-arm64",
	DarwinARM64: "darwin-arm64",
	GoCPU:       "gocpu",
}

func (t Target) String() string {
	if int(t) >= 0 && int(t) < len(targetNames) {
		return targetNames[t]
	}
	return fmt.Sprintf("Target(%d)", int(t))
}

// Targets lists every supported target.
func Targets() []Target {
	return []Target{LinuxARM64, DarwinARM64, GoCPU}
}

// ParseTarget accepts a target name as printed by Target.String.
func ParseTarget(name string) (Target, error) {
	for i, n := range targetNames {
		if strings.EqualFold(n, name) {
			return Target(i), nil
		}
	}
	return 0, fmt.Errorf("unknown target %q (want one of %s)", name, strings.Join(targetNames[:], ", "))
}

// Set implements flag.Value.
func (t *Target) Set(name string) error {
	v, err := ParseTarget(name)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Templates supplies the fixed runtime text placed ahead of the generated
// procedure for a target.
type Templates interface {
	Preamble(t Target) (string, error)
}

//go:embed templates/*.s
var templateFS embed.FS

type embeddedTemplates struct{}

// DefaultTemplates returns the runtime preambles shipped with the compiler.
func DefaultTemplates() Templates { return embeddedTemplates{} }

func (embeddedTemplates) Preamble(t Target) (string, error) {
	data, err := templateFS.ReadFile("templates/" + t.String() + ".s")
	if err != nil {
		return "", fmt.Errorf("no preamble for target %s: %w", t, err)
	}
	return string(data), nil
}

// StaticTemplates maps targets to literal preamble text.
type StaticTemplates map[Target]string

func (s StaticTemplates) Preamble(t Target) (string, error) {
	text, ok := s[t]
	if !ok {
		return "", fmt.Errorf("no preamble for target %s", t)
	}
	return text, nil
}

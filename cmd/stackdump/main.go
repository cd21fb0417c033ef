package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"stackc/pkg/compiler"
	"stackc/pkg/interp"
)

const testSource = `1 2 + ->
0 if 7 -> else 8 -> end
`

// stackdump prints every intermediate stage of the pipeline for a program.
func main() {
	target := compiler.LinuxARM64
	flag.Var(&target, "target", "target for the generated assembly")
	trace := flag.Bool("trace", false, "interpret the program and print each step")
	flag.Parse()

	src := testSource
	file := "<builtin>"
	if flag.NArg() > 0 {
		data, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
		file = filepath.Base(flag.Arg(0))
	}

	fmt.Printf("Source:\n%s\n", src)

	var n int
	fmt.Println("Tokens")
	for tok := range compiler.Lex(file, src) {
		fmt.Println(" ", tok)
		n++
	}
	fmt.Printf("(%d)\n\n", n)

	prog := compiler.ClassifyAll(compiler.Lex(file, src))
	fmt.Println("Instructions")
	for i, in := range prog {
		fmt.Printf("  %3d  %s\n", i, in)
	}
	fmt.Println()

	resolved, err := interp.Resolve(prog)
	if err != nil {
		fmt.Fprintln(os.Stderr, "resolve error:", err)
		os.Exit(1)
	}
	fmt.Println("Jump targets")
	for i, in := range resolved {
		if in.Kind == compiler.If || in.Kind == compiler.Else {
			fmt.Printf("  %3d  %-5s -> %d\n", i, in.Kind, in.Target)
		}
	}
	fmt.Println()

	out, err := compiler.Generate(prog, target, compiler.WithComments(true))
	if err != nil {
		fmt.Fprintln(os.Stderr, "codegen error:", err)
		os.Exit(1)
	}
	fmt.Printf("Generated Assembly (%s, frame %d bytes, reserve %d)\n", target, out.Frame.MaxOffset, out.Reserve)
	fmt.Print(out.Assembly())
	fmt.Println()

	if *trace {
		m, err := interp.New(prog)
		if err != nil {
			fmt.Fprintln(os.Stderr, "resolve error:", err)
			os.Exit(1)
		}
		m.Trace = func(pc int, in compiler.Instruction, stack []int64) {
			fmt.Printf("  %3d  %-5s %-8s %v\n", pc, in.Kind, in.Operand, stack)
		}
		fmt.Println("Trace")
		if err := m.Run(); err != nil {
			fmt.Fprintln(os.Stderr, "run error:", err)
			os.Exit(1)
		}
	}
}

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tebeka/atexit"

	"stackc/pkg/asm"
	"stackc/pkg/compiler"
	"stackc/pkg/config"
	"stackc/pkg/cpu"
	"stackc/pkg/utils"
)

// stackvm runs a program on the GoCPU virtual machine. A .stk file is
// compiled and assembled first, a .s file is assembled, anything else is
// loaded as a raw memory image.
func main() {
	log.SetFlags(0)
	showAsm := flag.Bool("show-asm", false, "print the generated assembly before running")
	save := flag.Bool("save", false, "write the memory image next to the input with a .bin extension")
	maxSteps := flag.Int("max-steps", defaultMaxSteps("."), "stop after this many instructions (0 = no limit)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: stackvm [flags] <file.stk|file.s|file.bin>")
		flag.PrintDefaults()
		atexit.Exit(2)
	}
	filename := flag.Arg(0)

	fullPath, _, err := utils.GetPathInfo(filename)
	if err != nil {
		log.Fatalf("Failed to resolve %s: %v", filename, err)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		log.Fatalf("Failed to read source file: %v", err)
	}

	var image []byte
	switch strings.ToLower(filepath.Ext(fullPath)) {
	case utils.SourceExt:
		out, img, err := compiler.Build(fullPath, string(data))
		if err != nil {
			log.Printf("Compilation failed: %v", err)
			atexit.Exit(1)
		}
		if *showAsm {
			fmt.Print("Generated Assembly:\n", out.Assembly(), "\n")
		}
		image = img
	case ".s", ".asm":
		img, _, err := asm.Assemble(string(data))
		if err != nil {
			log.Printf("Assembly failed: %v", err)
			atexit.Exit(1)
		}
		image = img
	default:
		image = data
	}

	if *save {
		out := utils.OutputPath(fullPath, "", ".bin")
		if err := os.WriteFile(out, image, 0o644); err != nil {
			log.Printf("Failed to write %s: %v", out, err)
			atexit.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "wrote %d bytes -> %s\n", len(image), out)
	}

	vm := cpu.NewCPU()
	if err := vm.Load(image); err != nil {
		log.Printf("%v", err)
		atexit.Exit(1)
	}
	if err := vm.RunLimit(*maxSteps); err != nil {
		log.Printf("%v", err)
		atexit.Exit(1)
	}

	fmt.Fprintf(os.Stderr,
		"run complete (%s): PC=0x%04X SP=0x%04X Z=%t N=%t R0=0x%04X R1=0x%04X steps=%d\n",
		filename, vm.PC, vm.SP, vm.Z, vm.N, vm.Regs[cpu.RegA], vm.Regs[cpu.RegB], vm.Steps)
	atexit.Exit(0)
}

// defaultMaxSteps reads the step limit from stackc.yaml and the environment
// found from dir, the same way stackc vm does.
func defaultMaxSteps(dir string) int {
	cfg, err := config.Load(dir)
	if err != nil {
		log.Printf("config error: %v; using max-steps %d", err, config.DefaultMaxSteps)
		return config.DefaultMaxSteps
	}
	return cfg.MaxSteps
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/tebeka/atexit"

	"stackc/pkg/compiler"
	"stackc/pkg/config"
	"stackc/pkg/cpu"
	"stackc/pkg/diag"
	"stackc/pkg/interp"
	"stackc/pkg/utils"
)

const usage = `usage: stackc <command> [flags] <file>

commands:
  compile   translate a program to assembly (default output <file>.s)
  run       interpret a program directly
  vm        compile for gocpu, assemble and execute on the virtual CPU
`

func main() {
	log.SetFlags(0)
	log.SetPrefix("stackc: ")

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		atexit.Exit(2)
	}

	cfg, err := config.Load(".")
	if err != nil {
		log.Printf("config error: %v", err)
		atexit.Exit(1)
	}

	var code int
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "compile":
		code = compileCmd(cfg, args)
	case "run":
		code = runCmd(cfg, args)
	case "vm":
		code = vmCmd(cfg, args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		code = 2
	}
	atexit.Exit(code)
}

// session carries what every subcommand needs after flag parsing.
type session struct {
	cfg     *config.Config
	path    string
	src     string
	emitter *diag.Emitter
}

// parseArgs parses flags that may appear before or after the single file
// argument.
func parseArgs(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() == 0 {
		return "", errors.New("missing input file")
	}
	file := fs.Arg(0)
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return "", err
	}
	if fs.NArg() != 0 {
		return "", fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return file, nil
}

func newFlagSet(name string, cfg *config.Config) (*flag.FlagSet, *string, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	color := fs.String("color", cfg.Color, "colour diagnostics: auto, always or never")
	verbose := fs.Bool("v", cfg.Verbose, "trace pipeline phases to stderr")
	return fs, color, verbose
}

func open(cfg *config.Config, file, color string) (*session, error) {
	mode, err := diag.ParseColorMode(color)
	if err != nil {
		return nil, err
	}
	path, src, err := utils.ReadSource(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file %q: %w", file, err)
	}
	e := diag.NewEmitter(os.Stderr, mode.Enabled(os.Stderr))
	e.AddSource(path, src)
	return &session{cfg: cfg, path: path, src: src, emitter: e}, nil
}

func traceWriter(verbose bool) io.Writer {
	if verbose {
		return os.Stderr
	}
	return nil
}

func compileCmd(cfg *config.Config, args []string) int {
	fs, color, verbose := newFlagSet("compile", cfg)
	target := cfg.CompileTarget()
	fs.Var(&target, "target", "output target: linux-arm64, darwin-arm64 or gocpu")
	outPath := fs.String("o", "", "output assembly path (default: input with .s extension)")
	comments := fs.Bool("comments", cfg.Comments, "annotate the assembly with source instructions")

	file, err := parseArgs(fs, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "compile:", err)
		return 2
	}
	s, err := open(cfg, file, *color)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	out, err := compiler.Compile(s.path, s.src, target,
		compiler.WithComments(*comments),
		compiler.WithTrace(traceWriter(*verbose)))
	if err != nil {
		s.emitter.Emit(err)
		return 1
	}

	output := *outPath
	if output == "" {
		output = utils.OutputPath(file, cfg.OutputDir, ".s")
	}
	if err := writeOutput(output, out.Assembly()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write output file %q: %v\n", output, err)
		return 1
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "[write] %s -> %s\n", file, output)
	}
	return 0
}

// writeOutput writes text to path. A partially written file is removed when
// the process exits through atexit.
func writeOutput(path, text string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	done := false
	atexit.Register(func() {
		if !done {
			os.Remove(path)
		}
	})

	if _, err := io.WriteString(f, text); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	done = true
	return nil
}

func runCmd(cfg *config.Config, args []string) int {
	fs, color, verbose := newFlagSet("run", cfg)
	file, err := parseArgs(fs, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "run:", err)
		return 2
	}
	s, err := open(cfg, file, *color)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	prog := compiler.Parse(s.path, s.src)
	m, err := interp.New(prog)
	if err != nil {
		s.emitter.Emit(err)
		return 1
	}
	m.Output = os.Stdout
	if *verbose {
		m.Trace = func(pc int, in compiler.Instruction, stack []int64) {
			fmt.Fprintf(os.Stderr, "[run] %4d  %-5s %-8s %v\n", pc, in.Kind, in.Operand, stack)
		}
	}
	if err := m.Run(); err != nil {
		s.emitter.Emit(err)
		return 1
	}
	return 0
}

func vmCmd(cfg *config.Config, args []string) int {
	fs, color, verbose := newFlagSet("vm", cfg)
	maxSteps := fs.Int("max-steps", cfg.MaxSteps, "stop after this many instructions (0 = no limit)")
	file, err := parseArgs(fs, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vm:", err)
		return 2
	}
	s, err := open(cfg, file, *color)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	_, image, err := compiler.Build(s.path, s.src, compiler.WithTrace(traceWriter(*verbose)))
	if err != nil {
		s.emitter.Emit(err)
		return 1
	}

	vm := cpu.NewCPU()
	vm.Output = os.Stdout
	if err := vm.Load(image); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := vm.RunLimit(*maxSteps); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "[vm] halted after %d instructions: PC=0x%04X SP=0x%04X\n", vm.Steps, vm.PC, vm.SP)
	}
	return 0
}

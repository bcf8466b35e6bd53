// cmd/sysyc/main.go
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/llir/llvm/asm"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/mod/semver"
	"golang.org/x/sys/unix"

	"sysyc/internal/ast"
	"sysyc/internal/backend"
	"sysyc/internal/diag"
	"sysyc/internal/frontend"
	"sysyc/internal/lexer"
	"sysyc/internal/parser"
)

const version = "v0.1.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		os.Exit(1)
	}

	if args[0] == "--version" || args[0] == "-version" {
		showVersion()
		return
	}
	if args[0] == "--help" || args[0] == "-h" {
		showUsage()
		return
	}

	mode, input, output, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sysyc: %v\n", err)
		showUsage()
		os.Exit(1)
	}

	if err := run(mode, input, output); err != nil {
		reportFatal(err)
		os.Exit(1)
	}
}

// parseArgs resolves `<mode> <input> -o <output>` (spec.md §6); no
// other flag ordering is accepted, matching the fixed three-stage CLI
// contract spec.md defines.
func parseArgs(args []string) (mode, input, output string, err error) {
	if len(args) < 1 {
		return "", "", "", errors.New("missing mode")
	}
	mode = args[0]
	switch mode {
	case "-koopa", "-riscv", "-debug":
	default:
		return "", "", "", errors.Errorf("unknown mode %q", mode)
	}
	if len(args) < 2 {
		return "", "", "", errors.New("missing input file")
	}
	input = args[1]

	for i := 2; i < len(args); i++ {
		if args[i] == "-o" && i+1 < len(args) {
			output = args[i+1]
			i++
		}
	}
	if output == "" {
		return "", "", "", errors.New("missing -o <output>")
	}
	return mode, input, output, nil
}

func run(mode, input, output string) error {
	source, err := os.ReadFile(input)
	if err != nil {
		return errors.Wrap(err, "reading input")
	}

	scanner := lexer.NewScanner(string(source), input)
	tokens := scanner.ScanTokens()
	p := parser.New(tokens, input)
	prog := p.Parse()

	switch mode {
	case "-debug":
		return runDebug(prog, input, output)
	case "-koopa":
		mod, _, err := frontend.Lower(prog, input)
		if err != nil {
			return err
		}
		return os.WriteFile(output, []byte(mod.String()), 0644)
	default: // -riscv
		asmText, err := compileToAssembly(prog, input)
		if err != nil {
			return err
		}
		return writeOutput(output, asmText)
	}
}

// compileToAssembly runs the full pipeline: lower to the IR object
// graph, serialize it, then re-parse that text with the IR parser
// library before handing the resulting graph to the backend
// (SPEC_FULL §3/§9's frontend/backend boundary).
func compileToAssembly(prog *ast.Program, input string) ([]byte, error) {
	mod, _, err := frontend.Lower(prog, input)
	if err != nil {
		return nil, err
	}

	reparsed, err := asm.ParseString(input, mod.String())
	if err != nil {
		return nil, errors.Wrap(err, "re-parsing emitted IR")
	}

	var buf bytes.Buffer
	if err := backend.Compile(reparsed, &buf); err != nil {
		return nil, errors.Wrap(err, "codegen")
	}
	return buf.Bytes(), nil
}

func runDebug(prog *ast.Program, input, output string) error {
	var out bytes.Buffer
	out.WriteString(ast.Dump(prog))

	asmText, err := compileToAssembly(prog, input)
	if err == nil {
		fingerprint := blake2b.Sum256(asmText)
		fmt.Fprintf(&out, "\n; assembly fingerprint (blake2b-256): %x\n", fingerprint)
	} else {
		fmt.Fprintf(&out, "\n; assembly fingerprint unavailable: %v\n", err)
	}
	fmt.Fprintf(&out, "; build-id: %s\n", uuid.New())

	return writeOutput(output, out.Bytes())
}

func writeOutput(output string, data []byte) error {
	f, err := os.Create(output)
	if err != nil {
		return errors.Wrap(err, "creating output")
	}
	defer syncAndClose(f)

	if _, err := f.Write(data); err != nil {
		return errors.Wrap(err, "writing output")
	}

	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Printf("wrote %s (%s)\n", output, humanize.Bytes(uint64(len(data))))
	}
	return nil
}

func syncAndClose(f *os.File) {
	_ = unix.Fsync(int(f.Fd()))
	_ = f.Close()
}

func reportFatal(err error) {
	if ce, ok := err.(*diag.CompileError); ok {
		fmt.Fprintf(os.Stderr, "%s\n", ce.Error())
		return
	}
	fmt.Fprintf(os.Stderr, "sysyc: %v\n", err)
}

func showVersion() {
	v := version
	if !semver.IsValid(v) {
		v = "v0.0.0"
	}
	fmt.Printf("sysyc %s (SysY to RV32IM compiler)\n", v)
}

func showUsage() {
	fmt.Println("sysyc - SysY to RV32IM compiler")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  sysyc -koopa <input.sy> -o <output.koopa>   Emit IR text only")
	fmt.Println("  sysyc -riscv <input.sy> -o <output.s>       Emit RV32IM assembly")
	fmt.Println("  sysyc -debug <input.sy> -o <output.txt>     Emit an AST dump")
	fmt.Println("  sysyc --version                             Show version")
}

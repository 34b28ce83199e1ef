// Command minicc compiles a single-function C-subset source file to
// x86-64 AT&T assembly (spec.md §6.1).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"minicc/pkg/compiler"
	"minicc/pkg/utils"
)

func main() {
	dumpTokens := flag.Bool("dump-tokens", false, "print the lexed token stream before compiling")
	dumpAST := flag.Bool("dump-ast", false, "print the parsed AST before compiling")
	dumpIR := flag.Bool("dump-ir", false, "print the lowered IR before compiling")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: minicc [-dump-tokens] [-dump-ast] [-dump-ir] <input>")
		os.Exit(2)
	}
	inputPath := flag.Arg(0)

	fullPath, _, err := utils.GetPathInfo(inputPath)
	if err != nil {
		log.Fatalf("failed to resolve path %q: %v", inputPath, err)
	}
	sourceBytes, err := os.ReadFile(fullPath)
	if err != nil {
		log.Fatalf("failed to read source file: %v", err)
	}
	src := string(sourceBytes)

	if *dumpTokens || *dumpAST || *dumpIR {
		if err := dumpStages(src, *dumpTokens, *dumpAST, *dumpIR); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	asm, diag := compiler.Compile(src)
	if diag != nil {
		fmt.Fprintln(os.Stderr, diag.Error())
		os.Exit(1)
	}

	outPath := strings.TrimSuffix(fullPath, filepath.Ext(fullPath)) + ".asm"
	if err := os.WriteFile(outPath, []byte(asm), 0o644); err != nil {
		log.Fatalf("failed to write assembly file: %v", err)
	}
}

// dumpStages runs the pipeline up through whichever of tokens/AST/IR was
// requested and prints the artifacts, without affecting the emitted
// assembly (SPEC_FULL.md §4.7 — debug-only).
func dumpStages(src string, tokens, ast, ir bool) error {
	toks, diag := compiler.Lex(src)
	if diag != nil {
		return diag
	}
	if tokens {
		fmt.Printf("Tokens (%d)\n", len(toks))
		for _, t := range toks {
			fmt.Println(" ", t)
		}
		fmt.Println()
	}

	if !ast && !ir {
		return nil
	}
	prog, diag := compiler.Parse(toks)
	if diag != nil {
		return diag
	}
	if diag := compiler.Resolve(prog); diag != nil {
		return diag
	}
	if ast {
		fmt.Println("AST")
		fmt.Println(" ", prog)
		fmt.Println()
	}

	if !ir {
		return nil
	}
	fb := compiler.Lower(prog)
	fmt.Println("IR")
	for _, instr := range fb.Instructions {
		fmt.Println(" ", instr)
	}
	fmt.Println()
	return nil
}

// Package harness is the assemble-load-call test harness described in
// SPEC_FULL.md §6.4: an external collaborator, not part of the compiler
// core, that turns emitted AT&T text into a callable native function so
// end-to-end tests can assert on the value a compiled program actually
// returns when it runs.
//
// Grounded on the original Rust implementation's Simulator
// (_examples/original_source/rust/tests/simulator.rs), which does the
// same assemble/rename/load/call/cleanup dance with
// LoadLibraryA/GetProcAddress on Windows. This port swaps the
// assembler/linker driver for the host's gcc and the dynamic loader for
// github.com/ebitengine/purego, which reaches dlopen/dlsym without cgo.
package harness

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ebitengine/purego"
)

// entrySymbol is the name the compiled program's "main" label is
// renamed to before assembling, so the harness's own process never
// collides with a symbol named main.
const entrySymbol = "minicc_run"

// Run assembles asmText, loads it as a shared object, calls its entry
// point, and returns the raw 32-bit result exactly as the x86-64 ABI
// produced it in %eax — no truncation, so INT_MIN round-trips (spec.md
// §8.2 scenario 6).
func Run(asmText string) (int32, error) {
	dir, err := os.MkdirTemp("", "minicc-harness-")
	if err != nil {
		return 0, fmt.Errorf("harness: create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	asmPath := filepath.Join(dir, "program.s")
	soPath := filepath.Join(dir, "program.so")

	renamed := renameEntry(asmText)
	if err := os.WriteFile(asmPath, []byte(renamed), 0o644); err != nil {
		return 0, fmt.Errorf("harness: write assembly: %w", err)
	}

	cmd := exec.Command("gcc", "-shared", "-fPIC", "-nostdlib", "-o", soPath, asmPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return 0, fmt.Errorf("harness: gcc failed: %w\n%s", err, out)
	}

	handle, err := purego.Dlopen(soPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, fmt.Errorf("harness: dlopen: %w", err)
	}
	defer purego.Dlclose(handle)

	var entry func() int32
	purego.RegisterLibFunc(&entry, handle, entrySymbol)

	return entry(), nil
}

// renameEntry rewrites the emitted ".global main" / "main:" pair to
// entrySymbol, mirroring the Rust simulator's
// ".global main" -> ".global _runAsm" rewrite for the same reason: the
// harness process must never define a symbol named main itself.
func renameEntry(asmText string) string {
	replaced := strings.ReplaceAll(asmText, ".global main", ".global "+entrySymbol)
	replaced = strings.ReplaceAll(replaced, "main:", entrySymbol+":")
	return replaced
}

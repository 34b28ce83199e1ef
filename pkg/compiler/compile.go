package compiler

// Compile runs the full pipeline — Lex, Parse, Resolve, Lower, Emit —
// over one source string and returns the AT&T assembly text for it
// (spec.md §1, §2). Each stage's error is returned immediately without
// attempting recovery (spec.md §7); a panic raised by an invariant
// violation deep in lowering or emission (an InternalError, never
// expected from well-formed input) is recovered here so it never
// escapes the package as a bare panic.
func Compile(src string) (asm string, diag *Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			if d, ok := r.(*Diagnostic); ok {
				diag = d
				return
			}
			diag = internalErrorf(Position{}, "panic: %v", r)
		}
	}()

	tokens, d := Lex(src)
	if d != nil {
		return "", d
	}

	prog, d := Parse(tokens)
	if d != nil {
		return "", d
	}

	if d := Resolve(prog); d != nil {
		return "", d
	}

	fb := Lower(prog)
	return Emit(fb), nil
}

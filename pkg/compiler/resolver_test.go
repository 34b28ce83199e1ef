package compiler

import "testing"

func resolveSource(t *testing.T, src string) (*Program, *Diagnostic) {
	t.Helper()
	prog, diag := parseSource(t, src)
	if diag != nil {
		t.Fatalf("Parse failed: %v", diag)
	}
	return prog, Resolve(prog)
}

func TestResolveRenamesDeclarations(t *testing.T) {
	prog, diag := resolveSource(t, "int main() { int a = 1; return a; }")
	if diag != nil {
		t.Fatalf("Resolve failed: %v", diag)
	}
	decl := prog.Main.Body.Stmts[0].(*Declaration)
	ret := prog.Main.Body.Stmts[1].(*Return)
	use := ret.Expr.(*Variable)
	if decl.Name == "a" {
		t.Error("declaration was not renamed")
	}
	if decl.Name != use.Name {
		t.Errorf("use %q does not match declaration %q", use.Name, decl.Name)
	}
}

func TestResolveShadowingByLayer(t *testing.T) {
	prog, diag := resolveSource(t, `int main() {
		int a = 1;
		{
			int a = 2;
			a = a + 1;
		}
		return a;
	}`)
	if diag != nil {
		t.Fatalf("Resolve failed: %v", diag)
	}
	outer := prog.Main.Body.Stmts[0].(*Declaration)
	inner := prog.Main.Body.Stmts[1].(*Block).Stmts[0].(*Declaration)
	if outer.Name == inner.Name {
		t.Errorf("shadowing declarations resolved to the same name %q", outer.Name)
	}
	outerUse := prog.Main.Body.Stmts[2].(*Return).Expr.(*Variable)
	if outerUse.Name != outer.Name {
		t.Errorf("use after block should resolve to outer declaration %q, got %q", outer.Name, outerUse.Name)
	}
}

func TestResolveDuplicateDeclarationIsSemanticError(t *testing.T) {
	_, diag := resolveSource(t, "int main() { int a = 1; int a = 2; return a; }")
	if diag == nil || diag.Kind != SemanticError {
		t.Fatalf("got %v, want SemanticError", diag)
	}
}

func TestResolveUndeclaredVariableIsSemanticError(t *testing.T) {
	_, diag := resolveSource(t, "int main() { a = 5; int a; return a; }")
	if diag == nil || diag.Kind != SemanticError {
		t.Fatalf("got %v, want SemanticError", diag)
	}
}

func TestResolveScopeEndsAtBlockClose(t *testing.T) {
	_, diag := resolveSource(t, `int main() {
		{ int a = 1; }
		return a;
	}`)
	if diag == nil || diag.Kind != SemanticError {
		t.Fatalf("got %v, want SemanticError for use-after-scope-end", diag)
	}
}

func TestResolveScopeEndsAfterForInit(t *testing.T) {
	_, diag := resolveSource(t, `int main() {
		for (int i = 0; i < 10; i++) { }
		return i;
	}`)
	if diag == nil || diag.Kind != SemanticError {
		t.Fatalf("got %v, want SemanticError for use of for-init variable after the loop", diag)
	}
}

func TestResolveBreakOutsideLoopIsSemanticError(t *testing.T) {
	_, diag := resolveSource(t, "int main() { break; return 0; }")
	if diag == nil || diag.Kind != SemanticError {
		t.Fatalf("got %v, want SemanticError", diag)
	}
}

func TestResolveContinueOutsideLoopIsSemanticError(t *testing.T) {
	_, diag := resolveSource(t, "int main() { continue; return 0; }")
	if diag == nil || diag.Kind != SemanticError {
		t.Fatalf("got %v, want SemanticError", diag)
	}
}

func TestResolveEveryLoopGetsAUniqueLabel(t *testing.T) {
	prog, diag := resolveSource(t, `int main() {
		while (1) { break; }
		while (1) { break; }
		return 0;
	}`)
	if diag != nil {
		t.Fatalf("Resolve failed: %v", diag)
	}
	first := prog.Main.Body.Stmts[0].(*While)
	second := prog.Main.Body.Stmts[1].(*While)
	if first.Label == second.Label {
		t.Errorf("both loops resolved to the same label %q", first.Label)
	}
}

func TestResolveContinueInForTargetsIncrementLabel(t *testing.T) {
	prog, diag := resolveSource(t, `int main() {
		for (int i = 0; i < 10; i++) {
			if (i == 0) { continue; }
		}
		return 0;
	}`)
	if diag != nil {
		t.Fatalf("Resolve failed: %v", diag)
	}
	forStmt := prog.Main.Body.Stmts[0].(*For)
	ifStmt := forStmt.Body.(*Block).Stmts[0].(*If)
	cont := ifStmt.Then.(*Block).Stmts[0].(*Continue)
	want := "increment." + forStmt.Label
	if cont.Label != want {
		t.Errorf("got continue label %q, want %q", cont.Label, want)
	}
}

func TestResolveNonLvalueIsSemanticError(t *testing.T) {
	tests := []string{
		"int main() { int x = 1; -x = 1; return 0; }",
		"int main() { 0 = 5; return 0; }",
		"int main() { int a = 1; int b = 2; (a+b)++; return 0; }",
		"int main() { int a = 1; int b = 2; ++(a+b); return 0; }",
		"int main() { int a = 1; (a += 1)++; return 0; }",
		"int main() { int a = 1; ++(a += 1); return 0; }",
	}
	for _, src := range tests {
		_, diag := resolveSource(t, src)
		if diag == nil {
			t.Errorf("%q: expected a SemanticError", src)
			continue
		}
		if diag.Kind != SemanticError {
			t.Errorf("%q: got %s, want SemanticError", src, diag.Kind)
		}
	}
}

func TestResolveBreakTargetsInnermostLoop(t *testing.T) {
	prog, diag := resolveSource(t, `int main() {
		while (1) {
			while (1) {
				break;
			}
		}
		return 0;
	}`)
	if diag != nil {
		t.Fatalf("Resolve failed: %v", diag)
	}
	outer := prog.Main.Body.Stmts[0].(*While)
	inner := outer.Body.(*Block).Stmts[0].(*While)
	brk := inner.Body.(*Block).Stmts[0].(*Break)
	want := "end." + inner.Label
	if brk.Label != want {
		t.Errorf("got break label %q, want %q (innermost loop)", brk.Label, want)
	}
}

package compiler

// Lower runs IR lowering (spec.md §4.4) over a resolved program and
// returns the finished IR body for its single function. The AST must
// already have been through Resolve: lowering trusts that every
// Variable use has been rewritten to a resolved name and every loop
// label has been filled in.
func Lower(prog *Program) *FunctionBody {
	fb := newFunctionBody(prog.Main.Name)
	lowerBlock(fb, prog.Main.Body)
	if !endsInReturn(fb.Instructions) {
		fb.emit(&ReturnInstr{Val: immOperand(0)})
	}
	fb.finish()
	return fb
}

func endsInReturn(instrs []Instr) bool {
	if len(instrs) == 0 {
		return false
	}
	_, ok := instrs[len(instrs)-1].(*ReturnInstr)
	return ok
}

func lowerBlock(fb *FunctionBody, b *Block) {
	for _, stmt := range b.Stmts {
		lowerStmt(fb, stmt)
	}
}

func lowerStmt(fb *FunctionBody, stmt Stmt) {
	switch s := stmt.(type) {
	case *Declaration:
		dest := fb.bindVar(s.Name)
		if s.Init != nil {
			val := lowerExpr(fb, s.Init)
			fb.emit(&StoreValue{Dest: dest, Value: val})
		}

	case *Return:
		if s.Expr != nil {
			fb.emit(&ReturnInstr{Val: lowerExpr(fb, s.Expr)})
		} else {
			fb.emit(&ReturnInstr{Val: Operand{Kind: OperandNone}})
		}

	case *ExprStmt:
		lowerExpr(fb, s.Expr)

	case *EmptyStmt:
		// no-op

	case *Block:
		lowerBlock(fb, s)

	case *If:
		lowerIf(fb, s)

	case *While:
		lowerWhile(fb, s)

	case *For:
		lowerFor(fb, s)

	case *Break:
		fb.emit(&Jump{Target: s.Label})

	case *Continue:
		fb.emit(&Jump{Target: s.Label})

	default:
		panic(internalErrorf(stmt.Position(), "irgen: unhandled statement %T", stmt))
	}
}

func lowerIf(fb *FunctionBody, s *If) {
	cond := lowerExpr(fb, s.Cond)
	id := fb.newLabelID()
	if s.Else == nil {
		end := labelName("end", id)
		fb.emit(&JumpIfZero{Cond: cond, Target: end})
		lowerStmt(fb, s.Then)
		fb.emit(&Label{Name: end})
		return
	}
	elseL := labelName("else", id)
	end := labelName("end", id)
	fb.emit(&JumpIfZero{Cond: cond, Target: elseL})
	lowerStmt(fb, s.Then)
	fb.emit(&Jump{Target: end})
	fb.emit(&Label{Name: elseL})
	lowerStmt(fb, s.Else)
	fb.emit(&Label{Name: end})
}

func lowerWhile(fb *FunctionBody, s *While) {
	if s.IsDoWhile {
		lowerDoWhile(fb, s)
		return
	}
	start := "start." + s.Label
	end := "end." + s.Label
	fb.emit(&Label{Name: start})
	cond := lowerExpr(fb, s.Cond)
	fb.emit(&JumpIfZero{Cond: cond, Target: end})
	lowerStmt(fb, s.Body)
	fb.emit(&Jump{Target: start})
	fb.emit(&Label{Name: end})
}

// lowerDoWhile lowers `do body while (cond);`. The body always runs
// once, so the loop's start label sits right before the body rather
// than before the condition; continue still targets start.L, matching
// a plain while's rule for non-for loops (spec.md §4.3).
func lowerDoWhile(fb *FunctionBody, s *While) {
	start := "start." + s.Label
	end := "end." + s.Label
	fb.emit(&Label{Name: start})
	lowerStmt(fb, s.Body)
	cond := lowerExpr(fb, s.Cond)
	fb.emit(&JumpIfNotZero{Cond: cond, Target: start})
	fb.emit(&Label{Name: end})
}

func lowerFor(fb *FunctionBody, s *For) {
	start := "start." + s.Label
	increment := "increment." + s.Label
	end := "end." + s.Label

	if s.Init != nil {
		lowerStmt(fb, s.Init)
	}
	fb.emit(&Label{Name: start})
	if s.Cond != nil {
		cond := lowerExpr(fb, s.Cond)
		fb.emit(&JumpIfZero{Cond: cond, Target: end})
	}
	lowerStmt(fb, s.Body)
	fb.emit(&Label{Name: increment})
	if s.Step != nil {
		lowerExpr(fb, s.Step)
	}
	fb.emit(&Jump{Target: start})
	fb.emit(&Label{Name: end})
}

func labelName(prefix string, id int) string {
	return prefix + "_" + itoa(id)
}

func itoa(id int) string {
	if id == 0 {
		return "0"
	}
	neg := id < 0
	if neg {
		id = -id
	}
	var buf [20]byte
	i := len(buf)
	for id > 0 {
		i--
		buf[i] = byte('0' + id%10)
		id /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func lowerExpr(fb *FunctionBody, expr Expr) Operand {
	switch e := expr.(type) {
	case *Const:
		return immOperand(e.Value)

	case *Variable:
		reg, ok := fb.lookupVar(e.Name)
		if !ok {
			panic(internalErrorf(e.Pos, "irgen: no pseudo-register bound for %q", e.Name))
		}
		return reg

	case *Unary:
		if e.Op == OpPos {
			return lowerExpr(fb, e.Expr)
		}
		arg := lowerExpr(fb, e.Expr)
		dest := fb.newTemp()
		fb.emit(&UnaryInstr{Dest: dest, Op: e.Op, Arg: arg})
		return dest

	case *Binary:
		if e.Op.IsShortCircuit() {
			return lowerShortCircuit(fb, e)
		}
		left := lowerExpr(fb, e.Left)
		right := lowerExpr(fb, e.Right)
		dest := fb.newTemp()
		fb.emit(&BinaryInstr{Dest: dest, Op: e.Op, Left: left, Right: right})
		return dest

	case *Prefix:
		reg := lowerLvalue(fb, e.Left)
		fb.emit(&BinaryInstr{Dest: reg, Op: incDecBinaryOp(e.Op), Left: reg, Right: immOperand(1)})
		return reg

	case *Postfix:
		reg := lowerLvalue(fb, e.Left)
		snapshot := fb.newTemp()
		fb.emit(&StoreValue{Dest: snapshot, Value: reg})
		updated := fb.newTemp()
		fb.emit(&BinaryInstr{Dest: updated, Op: incDecBinaryOp(e.Op), Left: reg, Right: immOperand(1)})
		fb.emit(&StoreValue{Dest: reg, Value: updated})
		return snapshot

	case *Assignment:
		val := lowerExpr(fb, e.Value)
		reg := lowerLvalue(fb, e.Target)
		fb.emit(&StoreValue{Dest: reg, Value: val})
		return reg

	case *Ternary:
		return lowerTernary(fb, e)

	default:
		panic(internalErrorf(expr.Position(), "irgen: unhandled expression %T", expr))
	}
}

// lowerLvalue lowers an expression known to be an lvalue to the
// pseudo-register that is its storage location. Only Variable and
// Prefix reach here; the resolver has already rejected every other
// expression kind as a SemanticError before irgen ever runs (spec.md
// §7), so anything else arriving here is a compiler bug, not a user
// error.
func lowerLvalue(fb *FunctionBody, lv Expr) Operand {
	switch l := lv.(type) {
	case *Variable:
		reg, ok := fb.lookupVar(l.Name)
		if !ok {
			panic(internalErrorf(l.Pos, "irgen: no pseudo-register bound for %q", l.Name))
		}
		return reg
	case *Prefix:
		return lowerExpr(fb, l)
	default:
		panic(internalErrorf(lv.Position(), "irgen: unhandled lvalue %T", lv))
	}
}

func incDecBinaryOp(op IncDecOp) BinaryOp {
	if op == OpInc {
		return OpAdd
	}
	return OpSub
}

// lowerShortCircuit implements the && / || recipe from spec.md §4.4
// exactly: && uses JumpIfZero and a false_K label, || is symmetric with
// JumpIfNotZero and a true_K label.
func lowerShortCircuit(fb *FunctionBody, e *Binary) Operand {
	id := fb.newLabelID()
	end := labelName("end", id)
	dest := fb.newTemp()

	if e.Op == OpLogAnd {
		falseL := labelName("false", id)
		left := lowerExpr(fb, e.Left)
		fb.emit(&JumpIfZero{Cond: left, Target: falseL})
		right := lowerExpr(fb, e.Right)
		fb.emit(&JumpIfZero{Cond: right, Target: falseL})
		fb.emit(&StoreValue{Dest: dest, Value: immOperand(1)})
		fb.emit(&Jump{Target: end})
		fb.emit(&Label{Name: falseL})
		fb.emit(&StoreValue{Dest: dest, Value: immOperand(0)})
		fb.emit(&Label{Name: end})
		return dest
	}

	trueL := labelName("true", id)
	left := lowerExpr(fb, e.Left)
	fb.emit(&JumpIfNotZero{Cond: left, Target: trueL})
	right := lowerExpr(fb, e.Right)
	fb.emit(&JumpIfNotZero{Cond: right, Target: trueL})
	fb.emit(&StoreValue{Dest: dest, Value: immOperand(0)})
	fb.emit(&Jump{Target: end})
	fb.emit(&Label{Name: trueL})
	fb.emit(&StoreValue{Dest: dest, Value: immOperand(1)})
	fb.emit(&Label{Name: end})
	return dest
}

func lowerTernary(fb *FunctionBody, e *Ternary) Operand {
	id := fb.newLabelID()
	elseL := labelName("else", id)
	end := labelName("end", id)
	dest := fb.newTemp()

	cond := lowerExpr(fb, e.Cond)
	fb.emit(&JumpIfZero{Cond: cond, Target: elseL})
	thenVal := lowerExpr(fb, e.Then)
	fb.emit(&StoreValue{Dest: dest, Value: thenVal})
	fb.emit(&Jump{Target: end})
	fb.emit(&Label{Name: elseL})
	elseVal := lowerExpr(fb, e.Else)
	fb.emit(&StoreValue{Dest: dest, Value: elseVal})
	fb.emit(&Label{Name: end})
	return dest
}

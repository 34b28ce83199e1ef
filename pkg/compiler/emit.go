package compiler

import (
	"fmt"
	"strings"
)

// emitter walks a lowered FunctionBody and streams AT&T x86-64 text.
// All user values live on the stack; apart from %rbp/%rsp in the
// prologue and epilogue, %r10d, %r11d, %eax, %ecx, %edx are the only
// registers the emitter ever touches (spec.md §4.5).
type emitter struct {
	out strings.Builder
}

func (e *emitter) line(format string, args ...any) {
	fmt.Fprintf(&e.out, format+"\n", args...)
}

// Emit lowers a FunctionBody to AT&T assembly text (spec.md §4.5). The
// body must already have been through FunctionBody.finish, so its first
// two instructions are FuncLabel and AllocateStack.
func Emit(fb *FunctionBody) string {
	e := &emitter{}
	for _, instr := range fb.Instructions {
		e.emitInstr(instr)
	}
	return e.out.String()
}

func (e *emitter) emitInstr(instr Instr) {
	switch in := instr.(type) {
	case *FuncLabel:
		e.line(".global %s", in.Name)
		e.line("%s:", in.Name)

	case *AllocateStack:
		e.line("pushq %%rbp")
		e.line("movq %%rsp, %%rbp")
		e.line("subq $%d, %%rsp", 4*in.Slots)

	case *Label:
		e.line("%s:", in.Name)

	case *Jump:
		e.line("jmp %s", in.Target)

	case *JumpIfZero:
		e.line("movl %s, %%edx", operandText(in.Cond))
		e.line("cmpl $0, %%edx")
		e.line("je %s", in.Target)

	case *JumpIfNotZero:
		e.line("movl %s, %%edx", operandText(in.Cond))
		e.line("cmpl $0, %%edx")
		e.line("jne %s", in.Target)

	case *StoreValue:
		e.emitStore(in)

	case *UnaryInstr:
		e.emitUnary(in)

	case *BinaryInstr:
		e.emitBinary(in)

	case *ReturnInstr:
		e.emitReturn(in)

	default:
		panic(internalErrorf(Position{}, "emit: unhandled instruction %T", instr))
	}
}

// operandText materializes an Operand to either an immediate or a
// memory operand relative to %rbp (spec.md §4.5: "every IR operand
// materializes to either an immediate ($imm) or a memory operand
// (-K(%rbp))").
func operandText(op Operand) string {
	switch op.Kind {
	case OperandImm:
		return fmt.Sprintf("$%d", int32(op.Imm))
	case OperandReg:
		return fmt.Sprintf("-%d(%%rbp)", 4*op.Slot)
	default:
		return "$0"
	}
}

// emitStore: memory-to-memory is not a legal single x86 instruction, so
// a pseudo-register source routes through %r10d; an immediate source
// moves directly.
func (e *emitter) emitStore(s *StoreValue) {
	dest := operandText(s.Dest)
	if s.Value.Kind == OperandReg {
		e.line("movl %s, %%r10d", operandText(s.Value))
		e.line("movl %%r10d, %s", dest)
		return
	}
	e.line("movl %s, %s", operandText(s.Value), dest)
}

func (e *emitter) emitUnary(u *UnaryInstr) {
	dest := operandText(u.Dest)
	e.line("movl %s, %%r10d", operandText(u.Arg))
	e.line("movl %%r10d, %s", dest)
	switch u.Op {
	case OpNeg:
		e.line("negl %s", dest)
	case OpBitNot:
		e.line("notl %s", dest)
	case OpLogNot:
		e.line("cmpl $0, %s", dest)
		e.line("sete %s", dest)
	default:
		panic(internalErrorf(Position{}, "emit: unhandled unary op %s", u.Op))
	}
}

func (e *emitter) emitBinary(b *BinaryInstr) {
	switch b.Op {
	case OpAdd, OpSub, OpBitAnd, OpBitOr, OpBitXor:
		e.emitArithOrBitwise(b)
	case OpShl, OpShr:
		e.emitShift(b)
	case OpMul:
		e.emitMul(b)
	case OpDiv, OpMod:
		e.emitDivMod(b)
	case OpEq, OpNotEq, OpLess, OpLessEq, OpGreater, OpGreaterEq:
		e.emitRelational(b)
	default:
		panic(internalErrorf(Position{}, "emit: unhandled binary op %s", b.Op))
	}
}

// emitArithOrBitwise covers the commutative/ordered + - & | ^ family:
// load src1 into %r10d, apply opcode with src2 (immediate or via
// %r11d), store %r10d into dest.
func (e *emitter) emitArithOrBitwise(b *BinaryInstr) {
	mnemonic := map[BinaryOp]string{
		OpAdd:    "addl",
		OpSub:    "subl",
		OpBitAnd: "andl",
		OpBitOr:  "orl",
		OpBitXor: "xorl",
	}[b.Op]

	e.line("movl %s, %%r10d", operandText(b.Left))
	if b.Right.Kind == OperandImm {
		e.line("%s %s, %%r10d", mnemonic, operandText(b.Right))
	} else {
		e.line("movl %s, %%r11d", operandText(b.Right))
		e.line("%s %%r11d, %%r10d", mnemonic)
	}
	e.line("movl %%r10d, %s", operandText(b.Dest))
}

// emitShift requires the count in %cl when it is not an immediate.
func (e *emitter) emitShift(b *BinaryInstr) {
	mnemonic := "shll"
	if b.Op == OpShr {
		mnemonic = "sarl"
	}
	e.line("movl %s, %%r10d", operandText(b.Left))
	if b.Right.Kind == OperandImm {
		e.line("%s %s, %%r10d", mnemonic, operandText(b.Right))
	} else {
		e.line("movl %s, %%ecx", operandText(b.Right))
		e.line("%s %%cl, %%r10d", mnemonic)
	}
	e.line("movl %%r10d, %s", operandText(b.Dest))
}

// emitMul: load src1 into %r11d, imull with src2 (immediate or via
// %r10d), store %r11d into dest.
func (e *emitter) emitMul(b *BinaryInstr) {
	e.line("movl %s, %%r11d", operandText(b.Left))
	if b.Right.Kind == OperandImm {
		e.line("imull %s, %%r11d", operandText(b.Right))
	} else {
		e.line("movl %s, %%r10d", operandText(b.Right))
		e.line("imull %%r10d, %%r11d")
	}
	e.line("movl %%r11d, %s", operandText(b.Dest))
}

func (e *emitter) emitDivMod(b *BinaryInstr) {
	e.line("movl %s, %%eax", operandText(b.Left))
	e.line("cdq")
	e.line("movl %s, %%ecx", operandText(b.Right))
	e.line("idivl %%ecx")
	if b.Op == OpDiv {
		e.line("movl %%eax, %s", operandText(b.Dest))
	} else {
		e.line("movl %%edx, %s", operandText(b.Dest))
	}
}

func (e *emitter) emitRelational(b *BinaryInstr) {
	cc := map[BinaryOp]string{
		OpEq:        "e",
		OpNotEq:     "ne",
		OpLess:      "l",
		OpGreater:   "g",
		OpLessEq:    "le",
		OpGreaterEq: "ge",
	}[b.Op]
	dest := operandText(b.Dest)
	e.line("movl %s, %%edx", operandText(b.Left))
	e.line("cmpl %s, %%edx", operandText(b.Right))
	e.line("movl $0, %s", dest)
	e.line("set%s %s", cc, dest)
}

func (e *emitter) emitReturn(r *ReturnInstr) {
	e.line("movl %s, %%eax", operandText(r.Val))
	e.line("movq %%rbp, %%rsp")
	e.line("popq %%rbp")
	e.line("ret")
}

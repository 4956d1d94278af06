package asm

import (
	"fmt"
	"math"

	"github.com/hassan/minirust/internal/codegen"
	"github.com/hassan/minirust/internal/parser/ast"
	"github.com/hassan/minirust/internal/semantic/types"
)

// genExpr evaluates e into rax.
func (g *Generator) genExpr(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		switch n.Kind {
		case ast.LitInt:
			g.emit("mov rax, %d", n.Int())
		case ast.LitFloat:
			g.emit("mov rax, 0x%016x ; %g", math.Float64bits(n.Float()), n.Float())
		case ast.LitBool:
			if n.Bool() {
				g.emit("mov eax, 1")
			} else {
				g.emit("xor eax, eax")
			}
		case ast.LitString:
			g.emit("lea rax, [rel %s]", g.stringLabel(n.Str()))
		}
		return nil

	case *ast.IdentifierExpr:
		v, ok := g.lookup(n.Name)
		if !ok {
			return codegen.Errorf(n.Loc, "undefined variable %s", n.Name)
		}
		g.emit("mov rax, %s", v.operand())
		return nil

	case *ast.GroupingExpr:
		return g.genExpr(n.Inner)

	case *ast.UnaryExpr:
		return g.genUnary(n)

	case *ast.BinaryExpr:
		if n.Op.IsLogical() {
			return g.genLogical(n)
		}
		return g.genBinary(n)

	case *ast.AssignExpr:
		v, ok := g.lookup(n.Target.Name)
		if !ok {
			return codegen.Errorf(n.Target.Loc, "undefined variable %s", n.Target.Name)
		}
		if err := g.genExpr(n.Value); err != nil {
			return err
		}
		if err := g.coerceExpr(n.Value, v.typ); err != nil {
			return err
		}
		g.emit("mov %s, rax", v.operand())
		return nil

	case *ast.CallExpr:
		return g.genCall(n)

	default:
		return codegen.Errorf(e.Span(), "unsupported expression %T", e)
	}
}

// coerceExpr converts the value of e, already in rax, to type want. Only the
// Int to Float widening changes bits.
func (g *Generator) coerceExpr(e ast.Expr, want types.Type) error {
	have, err := codegen.TypeOf(e, g)
	if err != nil {
		return err
	}
	switch {
	case types.KindOf(have) == types.KindInt && types.KindOf(want) == types.KindFloat:
		g.emit("cvtsi2sd xmm0, rax")
		g.emit("movq rax, xmm0")
	case types.KindOf(have) == types.KindFloat && types.KindOf(want) == types.KindInt:
		return codegen.Errorf(e.Span(), "cannot convert %s to %s", have, want)
	}
	return nil
}

func (g *Generator) genUnary(n *ast.UnaryExpr) error {
	t, err := codegen.TypeOf(n.Operand, g)
	if err != nil {
		return err
	}
	if err := g.genExpr(n.Operand); err != nil {
		return err
	}

	switch n.Op {
	case ast.OpNot:
		if types.KindOf(t) != types.KindBool {
			return codegen.Errorf(n.Loc, "operator ! is not supported for %s", t)
		}
		g.emit("xor rax, 1")
	case ast.OpNeg:
		switch types.KindOf(t) {
		case types.KindInt:
			g.emit("neg rax")
		case types.KindFloat:
			g.emit("btc rax, 63")
		default:
			return codegen.Errorf(n.Loc, "operator - is not supported for %s", t)
		}
	case ast.OpPos:
		if !types.IsNumeric(t) {
			return codegen.Errorf(n.Loc, "operator + is not supported for %s", t)
		}
	}
	return nil
}

// genLogical short-circuits: the right operand of && runs only when the left
// is true, that of || only when it is false.
func (g *Generator) genLogical(n *ast.BinaryExpr) error {
	id := g.newLabel()
	skip, short := "je", 0
	if n.Op == ast.OpOr {
		skip, short = "jne", 1
	}

	if err := g.genExpr(n.Left); err != nil {
		return err
	}
	g.emit("cmp rax, 0")
	g.emit("%s else_%d", skip, id)
	if err := g.genExpr(n.Right); err != nil {
		return err
	}
	g.emit("cmp rax, 0")
	g.emit("setne al")
	g.emit("movzx eax, al")
	g.emit("jmp end_%d", id)
	g.label(fmt.Sprintf("else_%d", id))
	g.emit("mov eax, %d", short)
	g.label(fmt.Sprintf("end_%d", id))
	return nil
}

// genBinary leaves the left operand in rax and the right one in rcx, then
// combines them.
func (g *Generator) genBinary(n *ast.BinaryExpr) error {
	lt, err := codegen.TypeOf(n.Left, g)
	if err != nil {
		return err
	}
	rt, err := codegen.TypeOf(n.Right, g)
	if err != nil {
		return err
	}
	if !types.IsValue(lt) || !types.IsValue(rt) {
		return codegen.Errorf(n.Loc, "operator %s is not supported for %s and %s", n.Op, lt, rt)
	}

	lk, rk := types.KindOf(lt), types.KindOf(rt)
	strs := lk == types.KindString || rk == types.KindString
	switch {
	case strs && !(n.Op.IsEquality() && lk == rk):
		return codegen.Errorf(n.Loc, "string operands are not supported for operator %s", n.Op)
	case (lk == types.KindBool || rk == types.KindBool) && !n.Op.IsEquality():
		return codegen.Errorf(n.Loc, "operator %s is not supported for %s and %s", n.Op, lt, rt)
	}
	float := lk == types.KindFloat || rk == types.KindFloat
	if float && n.Op == ast.OpMod {
		return codegen.Errorf(n.OpLoc, "operator %% is not supported for f64 operands")
	}

	if err := g.genExpr(n.Left); err != nil {
		return err
	}
	g.push()
	if err := g.genExpr(n.Right); err != nil {
		return err
	}
	g.emit("mov rcx, rax")
	g.pop("rax")

	switch {
	case strs:
		g.genStrcmp(n.Op)
	case float:
		g.toXmm("xmm0", "rax", lk)
		g.toXmm("xmm1", "rcx", rk)
		g.genFloatOp(n.Op)
	default:
		g.genIntOp(n.Op)
	}
	return nil
}

func (g *Generator) toXmm(xmm, reg string, k types.Kind) {
	if k == types.KindInt {
		g.emit("cvtsi2sd %s, %s", xmm, reg)
		return
	}
	g.emit("movq %s, %s", xmm, reg)
}

var intSetcc = map[ast.BinaryOp]string{
	ast.OpEq: "sete",
	ast.OpNe: "setne",
	ast.OpLt: "setl",
	ast.OpLe: "setle",
	ast.OpGt: "setg",
	ast.OpGe: "setge",
}

func (g *Generator) genIntOp(op ast.BinaryOp) {
	switch op {
	case ast.OpAdd:
		g.emit("add rax, rcx")
	case ast.OpSub:
		g.emit("sub rax, rcx")
	case ast.OpMul:
		g.emit("imul rax, rcx")
	case ast.OpDiv:
		g.emit("cqo")
		g.emit("idiv rcx")
	case ast.OpMod:
		g.emit("cqo")
		g.emit("idiv rcx")
		g.emit("mov rax, rdx")
	default:
		g.emit("cmp rax, rcx")
		g.emit("%s al", intSetcc[op])
		g.emit("movzx eax, al")
	}
}

// genFloatOp combines xmm0 and xmm1. Ordering tests are arranged so that an
// unordered result (a NaN operand) yields false, and != yields true.
func (g *Generator) genFloatOp(op ast.BinaryOp) {
	switch op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		g.emit("%s xmm0, xmm1", map[ast.BinaryOp]string{
			ast.OpAdd: "addsd", ast.OpSub: "subsd", ast.OpMul: "mulsd", ast.OpDiv: "divsd",
		}[op])
		g.emit("movq rax, xmm0")
		return
	case ast.OpLt:
		g.emit("ucomisd xmm1, xmm0")
		g.emit("seta al")
	case ast.OpLe:
		g.emit("ucomisd xmm1, xmm0")
		g.emit("setae al")
	case ast.OpGt:
		g.emit("ucomisd xmm0, xmm1")
		g.emit("seta al")
	case ast.OpGe:
		g.emit("ucomisd xmm0, xmm1")
		g.emit("setae al")
	case ast.OpEq:
		g.emit("ucomisd xmm0, xmm1")
		g.emit("sete al")
		g.emit("setnp cl")
		g.emit("and al, cl")
	case ast.OpNe:
		g.emit("ucomisd xmm0, xmm1")
		g.emit("setne al")
		g.emit("setp cl")
		g.emit("or al, cl")
	}
	g.emit("movzx eax, al")
}

// genStrcmp compares the strings in rax and rcx by content.
func (g *Generator) genStrcmp(op ast.BinaryOp) {
	g.usesStrcmp = true
	g.emit("mov rdi, rax")
	g.emit("mov rsi, rcx")
	pad := g.alignForCall(0)
	g.emit("call strcmp wrt ..plt")
	g.release(pad)
	g.emit("test eax, eax")
	if op == ast.OpEq {
		g.emit("sete al")
	} else {
		g.emit("setne al")
	}
	g.emit("movzx eax, al")
}

// genCall evaluates the arguments left to right onto the stack, loads the
// first six into registers, re-pushes the rest in reverse so the seventh
// argument ends up at [rsp], and calls. Padding is added first so that rsp is
// aligned at the call instruction.
func (g *Generator) genCall(n *ast.CallExpr) error {
	sig, ok := g.sigs[n.Callee]
	if !ok {
		return codegen.Errorf(n.CalleeLoc, "undefined function %s", n.Callee)
	}
	if len(n.Args) != len(sig.Params) {
		return codegen.Errorf(n.Loc, "function %s takes %d arguments but %d were provided",
			n.Callee, len(sig.Params), len(n.Args))
	}

	nargs := len(n.Args)
	nstack := 0
	if nargs > len(argRegs) {
		nstack = nargs - len(argRegs)
	}
	pad := g.alignForCall(nargs + nstack)

	for i, arg := range n.Args {
		if err := g.genExpr(arg); err != nil {
			return err
		}
		if err := g.coerceExpr(arg, sig.Params[i]); err != nil {
			return err
		}
		g.push()
	}
	for i := 0; i < nargs && i < len(argRegs); i++ {
		g.emit("mov %s, [rsp+%d]", argRegs[i], (nargs-1-i)*8)
	}
	for i := nargs - 1; i >= len(argRegs); i-- {
		g.emit("push qword [rsp+%d]", 2*(nargs-1-i)*8)
		g.depth++
	}

	g.emit("call %s", symbol(n.Callee))
	g.release(nargs + nstack + pad)
	return nil
}

// Package asm lowers a program to x86-64 NASM assembly for Linux.
//
// The output follows the System V ABI at every boundary it shares with the C
// library (printf, strcmp) and uses the same convention between generated
// functions, with one simplification: every value, floats included, travels
// in general-purpose registers. A float is carried as its IEEE-754 bit
// pattern and only moved into SSE registers for arithmetic, comparison and
// printf.
//
// Expressions leave their result in rax. A binary operation evaluates its
// left operand, pushes it, evaluates the right operand, then pops the left
// one back. The generator counts outstanding pushes so that it can pad the
// stack to 16 bytes at every call site.
package asm

import (
	"fmt"
	"strings"

	"github.com/hassan/minirust/internal/codegen"
	"github.com/hassan/minirust/internal/parser/ast"
	"github.com/hassan/minirust/internal/semantic/types"
)

// argRegs holds the integer argument registers in ABI order.
var argRegs = [...]string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

// variable is where a name lives: an rbp offset for locals and parameters,
// a .bss label for globals.
type variable struct {
	offset int
	global string
	typ    types.Type
}

func (v variable) operand() string {
	if v.global != "" {
		return "[rel " + v.global + "]"
	}
	return fmt.Sprintf("[rbp-%d]", v.offset)
}

// Generator emits one program. It is not reusable.
type Generator struct {
	text strings.Builder
	data strings.Builder
	bss  strings.Builder

	labels      int
	formatCount int
	strs        map[string]string
	usesStrcmp  bool
	boolStrs    bool

	sigs    map[string]*types.FunctionType
	globals map[string]variable

	// Per-function state, reset by genFunction.
	fn      *ast.FuncDecl
	sig     *types.FunctionType
	frame   *frame
	formats map[string]string
	scopes  []map[string]variable
	depth   int
}

// New returns a generator for a single program.
func New() *Generator {
	return &Generator{
		strs:    make(map[string]string),
		globals: make(map[string]variable),
	}
}

// Generate lowers prog with a fresh generator.
func Generate(prog *ast.Program) (string, error) {
	return New().Generate(prog)
}

// Generate lowers prog to a complete NASM listing.
func (g *Generator) Generate(prog *ast.Program) (string, error) {
	if _, err := codegen.FindMain(prog); err != nil {
		return "", err
	}
	sigs, err := codegen.Signatures(prog)
	if err != nil {
		return "", err
	}
	g.sigs = sigs

	for _, decl := range prog.Globals() {
		if _, dup := g.globals[decl.Name]; dup {
			return "", codegen.Errorf(decl.NameLoc, "global %s is already defined", decl.Name)
		}
		t, err := codegen.VarType(decl, g)
		if err != nil {
			return "", err
		}
		label := "g_" + decl.Name
		g.globals[decl.Name] = variable{global: label, typ: t}
		fmt.Fprintf(&g.bss, "%s: resq 1\n", label)
	}

	for _, fn := range prog.Functions() {
		var inits []*ast.VarDecl
		if fn.Name == "main" {
			inits = prog.Globals()
		}
		if err := g.genFunction(fn, inits); err != nil {
			return "", err
		}
	}

	return g.assemble(), nil
}

func (g *Generator) assemble() string {
	var out strings.Builder
	out.WriteString("; generated by minirust: nasm -f elf64, link with cc -no-pie\n")
	out.WriteString("default rel\n\n")
	out.WriteString("global main\n")
	out.WriteString("extern printf\n")
	if g.usesStrcmp {
		out.WriteString("extern strcmp\n")
	}
	out.WriteString("\nsection .data\n")
	out.WriteString(g.data.String())
	out.WriteString("\nsection .bss\n")
	out.WriteString(g.bss.String())
	out.WriteString("\nsection .text\n")
	out.WriteString(g.text.String())
	out.WriteString("\nsection .note.GNU-stack noalloc noexec nowrite progbits\n")
	return out.String()
}

// symbol is the assembly name of a user function. main keeps its name so the
// C runtime finds it; everything else is prefixed to stay clear of libc.
func symbol(name string) string {
	if name == "main" {
		return "main"
	}
	return "fn_" + name
}

func (g *Generator) genFunction(fn *ast.FuncDecl, inits []*ast.VarDecl) error {
	g.fn = fn
	g.sig = g.sigs[fn.Name]
	g.frame = layoutFrame(fn)
	g.formats = make(map[string]string)
	g.collectFormats(fn.Body, "", g.formats)
	g.scopes = nil
	g.depth = 0

	g.text.WriteString("\n")
	g.label(symbol(fn.Name))
	g.emit("push rbp")
	g.emit("mov rbp, rsp")
	if g.frame.size > 0 {
		g.emit("sub rsp, %d", g.frame.size)
	}

	g.pushScope()
	defer g.popScope()

	for i, p := range fn.Params {
		v := variable{offset: g.frame.params[i], typ: g.sig.Params[i]}
		if i < len(argRegs) {
			g.emit("mov %s, %s", v.operand(), argRegs[i])
		} else {
			g.emit("mov rax, [rbp+%d]", 16+(i-len(argRegs))*8)
			g.emit("mov %s, rax", v.operand())
		}
		g.bind(p.Name, v)
	}

	for _, decl := range inits {
		g.comment("global %s", decl.Name)
		v := g.globals[decl.Name]
		if err := g.genInit(decl, v); err != nil {
			return err
		}
	}

	if err := g.genStmt(fn.Body, ""); err != nil {
		return err
	}

	g.emit("xor eax, eax")
	g.epilogue()
	return nil
}

func (g *Generator) epilogue() {
	g.emit("mov rsp, rbp")
	g.emit("pop rbp")
	g.emit("ret")
}

// genInit evaluates a declaration's initializer, or its zero value, into v.
func (g *Generator) genInit(decl *ast.VarDecl, v variable) error {
	if decl.Value == nil {
		if types.KindOf(v.typ) == types.KindString {
			g.emit("lea rax, [rel %s]", g.stringLabel(""))
		} else {
			g.emit("xor eax, eax")
		}
	} else {
		if err := g.genExpr(decl.Value); err != nil {
			return err
		}
		if err := g.coerceExpr(decl.Value, v.typ); err != nil {
			return err
		}
	}
	g.emit("mov %s, rax", v.operand())
	return nil
}

func (g *Generator) genStmt(s ast.Stmt, path string) error {
	switch n := s.(type) {
	case *ast.ExprStmt:
		return g.genExpr(n.Expr)

	case *ast.VarDecl:
		t, err := codegen.VarType(n, g)
		if err != nil {
			return err
		}
		slot, ok := g.frame.slots[n]
		if !ok {
			return codegen.Errorf(n.Loc, "no stack slot for %s", n.Name)
		}
		v := variable{offset: slot, typ: t}
		g.comment("let %s: %s", n.Name, t)
		if err := g.genInit(n, v); err != nil {
			return err
		}
		g.bind(n.Name, v)
		return nil

	case *ast.BlockStmt:
		g.pushScope()
		defer g.popScope()
		for i, st := range n.Stmts {
			if err := g.genStmt(st, childPath(path, i)); err != nil {
				return err
			}
		}
		return nil

	case *ast.IfStmt:
		return g.genIf(n, path)

	case *ast.WhileStmt:
		return g.genWhile(n, path)

	case *ast.ForStmt:
		return g.genFor(n, path)

	case *ast.ReturnStmt:
		return g.genReturn(n)

	case *ast.PrintStmt:
		return g.genPrint(n, path)

	default:
		return codegen.Errorf(s.Span(), "unsupported statement %T", s)
	}
}

// genIf lowers to
//
//	cond; cmp rax, 0; je else_N
//	then; jmp end_N
//	else_N: else
//	end_N:
//
// An if without else jumps straight to end_N.
func (g *Generator) genIf(n *ast.IfStmt, path string) error {
	id := g.newLabel()
	if err := g.genExpr(n.Condition); err != nil {
		return err
	}
	g.emit("cmp rax, 0")

	if n.Else == nil {
		g.emit("je end_%d", id)
		if err := g.genStmt(n.Then, path+".t"); err != nil {
			return err
		}
		g.label(fmt.Sprintf("end_%d", id))
		return nil
	}

	g.emit("je else_%d", id)
	if err := g.genStmt(n.Then, path+".t"); err != nil {
		return err
	}
	g.emit("jmp end_%d", id)
	g.label(fmt.Sprintf("else_%d", id))
	if err := g.genStmt(n.Else, path+".e"); err != nil {
		return err
	}
	g.label(fmt.Sprintf("end_%d", id))
	return nil
}

// genWhile places the test after the body:
//
//	jmp cond_N
//	loop_N: body
//	cond_N: cond; cmp rax, 0; jne loop_N
func (g *Generator) genWhile(n *ast.WhileStmt, path string) error {
	id := g.newLabel()
	g.emit("jmp cond_%d", id)
	g.label(fmt.Sprintf("loop_%d", id))
	if err := g.genStmt(n.Body, path+".w"); err != nil {
		return err
	}
	g.label(fmt.Sprintf("cond_%d", id))
	if err := g.genExpr(n.Condition); err != nil {
		return err
	}
	g.emit("cmp rax, 0")
	g.emit("jne loop_%d", id)
	return nil
}

// genFor lowers `for v in a..b` to a counting loop. The end bound is
// evaluated again before every iteration, after the loop variable has gone
// out of scope, so it only sees names from outside the loop.
func (g *Generator) genFor(n *ast.ForStmt, path string) error {
	for _, bound := range []ast.Expr{n.Range.Start, n.Range.End} {
		t, err := codegen.TypeOf(bound, g)
		if err != nil {
			return err
		}
		if types.KindOf(t) != types.KindInt {
			return codegen.Errorf(bound.Span(), "range bounds must be integers, found %s", t)
		}
	}

	slot, ok := g.frame.slots[n]
	if !ok {
		return codegen.Errorf(n.Loc, "no stack slot for loop variable %s", n.Var)
	}
	v := variable{offset: slot, typ: types.Int}
	id := g.newLabel()

	g.comment("for %s", n.Var)
	if err := g.genExpr(n.Range.Start); err != nil {
		return err
	}
	g.emit("mov %s, rax", v.operand())
	g.emit("jmp cond_%d", id)
	g.label(fmt.Sprintf("loop_%d", id))

	g.pushScope()
	g.bind(n.Var, v)
	err := g.genStmt(n.Body, path+".f")
	g.popScope()
	if err != nil {
		return err
	}

	g.emit("inc qword %s", v.operand())
	g.label(fmt.Sprintf("cond_%d", id))
	g.emit("mov rax, %s", v.operand())
	g.push()
	if err := g.genExpr(n.Range.End); err != nil {
		return err
	}
	g.emit("mov rcx, rax")
	g.pop("rax")
	g.emit("cmp rax, rcx")
	g.emit("jl loop_%d", id)
	return nil
}

// genReturn leaves the value in rax and returns inline. main always returns
// 0 to the C runtime.
func (g *Generator) genReturn(n *ast.ReturnStmt) error {
	switch {
	case g.fn.Name == "main" || n.Value == nil:
		if n.Value != nil {
			if err := g.genExpr(n.Value); err != nil {
				return err
			}
		}
		g.emit("xor eax, eax")
	default:
		if err := g.genExpr(n.Value); err != nil {
			return err
		}
		if err := g.coerceExpr(n.Value, g.sig.Return); err != nil {
			return err
		}
	}
	g.epilogue()
	return nil
}

// genPrint calls printf. Values are evaluated right to left and pushed,
// then popped left to right into rsi, rdx, rcx, r8, r9 (floats into
// xmm0..xmm7). rdi is loaded last and al holds the number of vector
// registers used.
func (g *Generator) genPrint(n *ast.PrintStmt, path string) error {
	if len(n.Args) == 0 && !n.Newline {
		return nil
	}
	label, ok := g.formats[path]
	if !ok {
		if len(n.Args) > 0 {
			return codegen.Errorf(n.Args[0].Span(), "print template must be a string literal")
		}
		return codegen.Errorf(n.Loc, "no format label for print statement at %s", path)
	}

	var (
		pieces []ast.Piece
		values []ast.Expr
	)
	if tmpl, vals, ok := n.Template(); ok {
		parsed, err := ast.ParseTemplate(tmpl.Str())
		if err != nil {
			return codegen.Errorf(tmpl.Loc, "%v", err)
		}
		pieces, values = parsed, vals
	}
	if holes := ast.CountHoles(pieces); holes != len(values) {
		return codegen.Errorf(n.Loc, "format string has %d placeholders but %d arguments were provided", holes, len(values))
	}

	kinds := make([]types.Type, len(values))
	ints, floats := 0, 0
	for i, val := range values {
		t, err := codegen.TypeOf(val, g)
		if err != nil {
			return err
		}
		if !types.IsValue(t) {
			return codegen.Errorf(val.Span(), "cannot print a value of type %s", t)
		}
		kinds[i] = t
		if types.KindOf(t) == types.KindFloat {
			floats++
		} else {
			ints++
		}
	}
	if ints > len(argRegs)-1 {
		return codegen.Errorf(n.Loc, "too many print arguments: at most %d integer, bool or string values are supported", len(argRegs)-1)
	}
	if floats > 8 {
		return codegen.Errorf(n.Loc, "too many print arguments: at most 8 float values are supported")
	}

	fmt.Fprintf(&g.data, "%s: db %s\n", label, nasmBytes(printfFormat(pieces, kinds, n.Newline)))

	for i := len(values) - 1; i >= 0; i-- {
		if err := g.genExpr(values[i]); err != nil {
			return err
		}
		if types.KindOf(kinds[i]) == types.KindBool {
			g.boolToString()
		}
		g.push()
	}

	intReg, xmm := 1, 0
	for _, t := range kinds {
		g.pop("rax")
		if types.KindOf(t) == types.KindFloat {
			g.emit("movq xmm%d, rax", xmm)
			xmm++
		} else {
			g.emit("mov %s, rax", argRegs[intReg])
			intReg++
		}
	}

	pad := g.alignForCall(0)
	g.emit("lea rdi, [rel %s]", label)
	g.emit("mov eax, %d", xmm)
	g.emit("call printf wrt ..plt")
	g.release(pad)
	return nil
}

// boolToString replaces the 0/1 in rax by the address of "false"/"true".
func (g *Generator) boolToString() {
	if !g.boolStrs {
		g.boolStrs = true
		fmt.Fprintf(&g.data, "str_true: db %s\n", nasmBytes("true"))
		fmt.Fprintf(&g.data, "str_false: db %s\n", nasmBytes("false"))
	}
	g.emit("test rax, rax")
	g.emit("lea rax, [rel str_false]")
	g.emit("lea rcx, [rel str_true]")
	g.emit("cmovnz rax, rcx")
}

// stringLabel returns the data label holding s, emitting it on first use.
func (g *Generator) stringLabel(s string) string {
	if label, ok := g.strs[s]; ok {
		return label
	}
	label := fmt.Sprintf("str_%d", len(g.strs))
	g.strs[s] = label
	fmt.Fprintf(&g.data, "%s: db %s\n", label, nasmBytes(s))
	return label
}

// Scopes

func (g *Generator) pushScope() {
	g.scopes = append(g.scopes, make(map[string]variable))
}

func (g *Generator) popScope() {
	g.scopes = g.scopes[:len(g.scopes)-1]
}

func (g *Generator) bind(name string, v variable) {
	g.scopes[len(g.scopes)-1][name] = v
}

func (g *Generator) lookup(name string) (variable, bool) {
	for i := len(g.scopes) - 1; i >= 0; i-- {
		if v, ok := g.scopes[i][name]; ok {
			return v, true
		}
	}
	v, ok := g.globals[name]
	return v, ok
}

// VarType implements codegen.Scope.
func (g *Generator) VarType(name string) (types.Type, bool) {
	v, ok := g.lookup(name)
	return v.typ, ok
}

// FuncSig implements codegen.Scope.
func (g *Generator) FuncSig(name string) (*types.FunctionType, bool) {
	sig, ok := g.sigs[name]
	return sig, ok
}

// Emission helpers

func (g *Generator) emit(format string, args ...interface{}) {
	g.text.WriteString("    ")
	fmt.Fprintf(&g.text, format, args...)
	g.text.WriteString("\n")
}

func (g *Generator) label(name string) {
	g.text.WriteString(name + ":\n")
}

func (g *Generator) comment(format string, args ...interface{}) {
	g.emit("; "+format, args...)
}

func (g *Generator) newLabel() int {
	id := g.labels
	g.labels++
	return id
}

func (g *Generator) push() {
	g.emit("push rax")
	g.depth++
}

func (g *Generator) pop(reg string) {
	g.emit("pop %s", reg)
	g.depth--
}

// alignForCall pads the stack so that rsp is 16-byte aligned once extra more
// quadwords have been pushed. It returns the number of padding quadwords.
func (g *Generator) alignForCall(extra int) int {
	if (g.depth+extra)%2 == 0 {
		return 0
	}
	g.emit("sub rsp, 8")
	g.depth++
	return 1
}

// release drops n quadwords from the stack.
func (g *Generator) release(n int) {
	if n == 0 {
		return
	}
	g.emit("add rsp, %d", 8*n)
	g.depth -= n
}

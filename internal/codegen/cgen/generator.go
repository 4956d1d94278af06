// Package cgen lowers a program to C99.
//
// Every source name is rewritten into its own namespace: globals become g_x,
// functions f_x and locals v_x. A local that shadows another in the same
// function gets a numbered name (v_x_1), so C block scoping never has to
// agree with the source's. Expressions are emitted fully parenthesized.
package cgen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hassan/minirust/internal/codegen"
	"github.com/hassan/minirust/internal/parser/ast"
	"github.com/hassan/minirust/internal/semantic/types"
)

type cvar struct {
	name string
	typ  types.Type
}

// Generator emits one program. It is not reusable.
type Generator struct {
	out    strings.Builder
	indent int

	sigs    map[string]*types.FunctionType
	globals map[string]cvar

	fn     *ast.FuncDecl
	sig    *types.FunctionType
	scopes []map[string]cvar
	names  map[string]bool
}

// New returns a generator for a single program.
func New() *Generator {
	return &Generator{globals: make(map[string]cvar)}
}

// Generate lowers prog with a fresh generator.
func Generate(prog *ast.Program) (string, error) {
	return New().Generate(prog)
}

// Generate lowers prog to a C99 translation unit.
func (g *Generator) Generate(prog *ast.Program) (string, error) {
	if _, err := codegen.FindMain(prog); err != nil {
		return "", err
	}
	sigs, err := codegen.Signatures(prog)
	if err != nil {
		return "", err
	}
	g.sigs = sigs

	g.line("/* generated by minirust: cc -std=c99 -fwrapv */")
	for _, h := range []string{"stdbool.h", "stdint.h", "stdio.h", "string.h"} {
		g.line("#include <%s>", h)
	}
	g.line("")

	if globals := prog.Globals(); len(globals) > 0 {
		for _, decl := range globals {
			if _, dup := g.globals[decl.Name]; dup {
				return "", codegen.Errorf(decl.NameLoc, "global %s is already defined", decl.Name)
			}
			t, err := codegen.VarType(decl, g)
			if err != nil {
				return "", err
			}
			v := cvar{name: "g_" + decl.Name, typ: t}
			g.globals[decl.Name] = v
			g.line("static %s %s = %s;", cType(t), v.name, zero(t))
		}
		g.line("")
	}

	fns := prog.Functions()
	for _, fn := range fns {
		if fn.Name != "main" {
			g.line("%s;", g.prototype(fn))
		}
	}
	for _, fn := range fns {
		var inits []*ast.VarDecl
		if fn.Name == "main" {
			inits = prog.Globals()
		}
		g.line("")
		if err := g.genFunction(fn, inits); err != nil {
			return "", err
		}
	}
	return g.out.String(), nil
}

func symbol(name string) string {
	if name == "main" {
		return "main"
	}
	return "f_" + name
}

func cType(t types.Type) string {
	switch types.KindOf(t) {
	case types.KindInt:
		return "int64_t"
	case types.KindFloat:
		return "double"
	case types.KindBool:
		return "bool"
	case types.KindString:
		return "const char *"
	default:
		return "void"
	}
}

func zero(t types.Type) string {
	switch types.KindOf(t) {
	case types.KindFloat:
		return "0.0"
	case types.KindBool:
		return "false"
	case types.KindString:
		return `""`
	default:
		return "0"
	}
}

func (g *Generator) prototype(fn *ast.FuncDecl) string {
	if fn.Name == "main" {
		return "int main(void)"
	}
	sig := g.sigs[fn.Name]
	params := make([]string, len(sig.Params))
	for i, t := range sig.Params {
		params[i] = cType(t)
	}
	list := "void"
	if len(params) > 0 {
		list = strings.Join(params, ", ")
	}
	return fmt.Sprintf("static %s %s(%s)", cType(sig.Return), symbol(fn.Name), list)
}

func (g *Generator) genFunction(fn *ast.FuncDecl, inits []*ast.VarDecl) error {
	g.fn = fn
	g.sig = g.sigs[fn.Name]
	g.scopes = nil
	g.names = make(map[string]bool)
	g.pushScope()
	defer g.popScope()

	head := "int main(void)"
	if fn.Name != "main" {
		params := make([]string, len(fn.Params))
		for i, p := range fn.Params {
			v := g.declare(p.Name, g.sig.Params[i])
			params[i] = cType(v.typ) + " " + v.name
		}
		list := "void"
		if len(params) > 0 {
			list = strings.Join(params, ", ")
		}
		head = fmt.Sprintf("static %s %s(%s)", cType(g.sig.Return), symbol(fn.Name), list)
	}
	g.line("%s {", head)
	g.indent++

	for _, decl := range inits {
		v := g.globals[decl.Name]
		if decl.Value == nil {
			continue
		}
		val, err := g.coerced(decl.Value, v.typ)
		if err != nil {
			return err
		}
		g.line("%s = %s;", v.name, val)
	}

	for _, st := range fn.Body.Stmts {
		if err := g.genStmt(st); err != nil {
			return err
		}
	}

	switch {
	case fn.Name == "main":
		g.line("return 0;")
	case types.KindOf(g.sig.Return) != types.KindUnit:
		g.line("return %s;", zero(g.sig.Return))
	}
	g.indent--
	g.line("}")
	return nil
}

func (g *Generator) genStmt(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.ExprStmt:
		e, err := g.genExpr(n.Expr)
		if err != nil {
			return err
		}
		g.line("%s;", e)
		return nil

	case *ast.VarDecl:
		t, err := codegen.VarType(n, g)
		if err != nil {
			return err
		}
		value := zero(t)
		if n.Value != nil {
			if value, err = g.coerced(n.Value, t); err != nil {
				return err
			}
		}
		v := g.declare(n.Name, t)
		g.line("%s %s = %s;", cType(t), v.name, value)
		return nil

	case *ast.BlockStmt:
		g.line("{")
		err := g.genBlockBody(n)
		g.line("}")
		return err

	case *ast.IfStmt:
		return g.genIf(n, false)

	case *ast.WhileStmt:
		cond, err := g.genExpr(n.Condition)
		if err != nil {
			return err
		}
		g.line("while (%s) {", cond)
		err = g.genBlockBody(n.Body)
		g.line("}")
		return err

	case *ast.ForStmt:
		return g.genFor(n)

	case *ast.ReturnStmt:
		return g.genReturn(n)

	case *ast.PrintStmt:
		return g.genPrint(n)

	default:
		return codegen.Errorf(s.Span(), "unsupported statement %T", s)
	}
}

func (g *Generator) genBlockBody(b *ast.BlockStmt) error {
	g.indent++
	g.pushScope()
	defer func() {
		g.popScope()
		g.indent--
	}()
	for _, st := range b.Stmts {
		if err := g.genStmt(st); err != nil {
			return err
		}
	}
	return nil
}

// genIf writes an if statement; chained reports whether it continues an
// "} else " already on the current line.
func (g *Generator) genIf(n *ast.IfStmt, chained bool) error {
	cond, err := g.genExpr(n.Condition)
	if err != nil {
		return err
	}
	if chained {
		fmt.Fprintf(&g.out, "if (%s) {\n", cond)
	} else {
		g.line("if (%s) {", cond)
	}
	if err := g.genBlockBody(n.Then); err != nil {
		return err
	}

	switch els := n.Else.(type) {
	case nil:
		g.line("}")
	case *ast.IfStmt:
		g.write("} else ")
		return g.genIf(els, true)
	case *ast.BlockStmt:
		g.line("} else {")
		if err := g.genBlockBody(els); err != nil {
			return err
		}
		g.line("}")
	default:
		g.line("} else {")
		g.indent++
		err := g.genStmt(els)
		g.indent--
		g.line("}")
		return err
	}
	return nil
}

// genFor emits a C for loop. The end bound is generated before the loop
// variable is declared, so it names only outer variables, and C re-evaluates
// it before every iteration.
func (g *Generator) genFor(n *ast.ForStmt) error {
	for _, bound := range []ast.Expr{n.Range.Start, n.Range.End} {
		t, err := codegen.TypeOf(bound, g)
		if err != nil {
			return err
		}
		if types.KindOf(t) != types.KindInt {
			return codegen.Errorf(bound.Span(), "range bounds must be integers, found %s", t)
		}
	}
	start, err := g.genExpr(n.Range.Start)
	if err != nil {
		return err
	}
	end, err := g.genExpr(n.Range.End)
	if err != nil {
		return err
	}

	g.pushScope()
	defer g.popScope()
	v := g.declare(n.Var, types.Int)
	g.line("for (int64_t %s = %s; %s < %s; %s++) {", v.name, start, v.name, end, v.name)
	err = g.genBlockBody(n.Body)
	g.line("}")
	return err
}

func (g *Generator) genReturn(n *ast.ReturnStmt) error {
	switch {
	case g.fn.Name == "main":
		if n.Value != nil {
			e, err := g.genExpr(n.Value)
			if err != nil {
				return err
			}
			g.line("(void)%s;", e)
		}
		g.line("return 0;")
	case n.Value == nil:
		g.line("return;")
	default:
		e, err := g.coerced(n.Value, g.sig.Return)
		if err != nil {
			return err
		}
		if types.KindOf(g.sig.Return) == types.KindUnit {
			g.line("%s;", e)
			g.line("return;")
			return nil
		}
		g.line("return %s;", e)
	}
	return nil
}

// genPrint emits one printf call. Bools are printed through "true"/"false"
// and integers are passed as long long to match %lld.
func (g *Generator) genPrint(n *ast.PrintStmt) error {
	if len(n.Args) == 0 {
		if n.Newline {
			g.line(`printf("\n");`)
		}
		return nil
	}
	tmpl, values, ok := n.Template()
	if !ok {
		return codegen.Errorf(n.Args[0].Span(), "print template must be a string literal")
	}
	pieces, err := ast.ParseTemplate(tmpl.Str())
	if err != nil {
		return codegen.Errorf(tmpl.Loc, "%v", err)
	}
	if holes := ast.CountHoles(pieces); holes != len(values) {
		return codegen.Errorf(n.Loc, "format string has %d placeholders but %d arguments were provided", holes, len(values))
	}

	var (
		format strings.Builder
		args   []string
		k      int
	)
	for _, p := range pieces {
		if !p.Hole {
			format.WriteString(strings.ReplaceAll(p.Text, "%", "%%"))
			continue
		}
		val := values[k]
		k++
		t, err := codegen.TypeOf(val, g)
		if err != nil {
			return err
		}
		e, err := g.genExpr(val)
		if err != nil {
			return err
		}
		switch types.KindOf(t) {
		case types.KindInt:
			format.WriteString("%lld")
			args = append(args, "(long long)"+e)
		case types.KindFloat:
			format.WriteString("%g")
			args = append(args, e)
		case types.KindBool:
			format.WriteString("%s")
			args = append(args, fmt.Sprintf(`(%s ? "true" : "false")`, e))
		case types.KindString:
			format.WriteString("%s")
			args = append(args, e)
		default:
			return codegen.Errorf(val.Span(), "cannot print a value of type %s", t)
		}
	}
	if n.Newline {
		format.WriteByte('\n')
	}

	call := "printf(" + cString(format.String())
	for _, a := range args {
		call += ", " + a
	}
	g.line("%s);", call)
	return nil
}

// coerced generates e converted to want. C widens integers to double on its
// own; narrowing is rejected.
func (g *Generator) coerced(e ast.Expr, want types.Type) (string, error) {
	have, err := codegen.TypeOf(e, g)
	if err != nil {
		return "", err
	}
	if types.KindOf(have) == types.KindFloat && types.KindOf(want) == types.KindInt {
		return "", codegen.Errorf(e.Span(), "cannot convert %s to %s", have, want)
	}
	out, err := g.genExpr(e)
	if err != nil {
		return "", err
	}
	if types.KindOf(have) == types.KindInt && types.KindOf(want) == types.KindFloat {
		out = "(double)" + out
	}
	return out, nil
}

func (g *Generator) genExpr(e ast.Expr) (string, error) {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		switch n.Kind {
		case ast.LitInt:
			return fmt.Sprintf("INT64_C(%d)", n.Int()), nil
		case ast.LitFloat:
			return floatLiteral(n.Float()), nil
		case ast.LitBool:
			return strconv.FormatBool(n.Bool()), nil
		default:
			return cString(n.Str()), nil
		}

	case *ast.IdentifierExpr:
		v, ok := g.lookup(n.Name)
		if !ok {
			return "", codegen.Errorf(n.Loc, "undefined variable %s", n.Name)
		}
		return v.name, nil

	case *ast.GroupingExpr:
		return g.genExpr(n.Inner)

	case *ast.UnaryExpr:
		return g.genUnary(n)

	case *ast.BinaryExpr:
		return g.genBinary(n)

	case *ast.AssignExpr:
		v, ok := g.lookup(n.Target.Name)
		if !ok {
			return "", codegen.Errorf(n.Target.Loc, "undefined variable %s", n.Target.Name)
		}
		val, err := g.coerced(n.Value, v.typ)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s = %s)", v.name, val), nil

	case *ast.CallExpr:
		sig, ok := g.sigs[n.Callee]
		if !ok {
			return "", codegen.Errorf(n.CalleeLoc, "undefined function %s", n.Callee)
		}
		if len(n.Args) != len(sig.Params) {
			return "", codegen.Errorf(n.Loc, "function %s takes %d arguments but %d were provided",
				n.Callee, len(sig.Params), len(n.Args))
		}
		args := make([]string, len(n.Args))
		for i, arg := range n.Args {
			a, err := g.coerced(arg, sig.Params[i])
			if err != nil {
				return "", err
			}
			args[i] = a
		}
		return fmt.Sprintf("%s(%s)", symbol(n.Callee), strings.Join(args, ", ")), nil

	default:
		return "", codegen.Errorf(e.Span(), "unsupported expression %T", e)
	}
}

func (g *Generator) genUnary(n *ast.UnaryExpr) (string, error) {
	t, err := codegen.TypeOf(n.Operand, g)
	if err != nil {
		return "", err
	}
	switch {
	case n.Op == ast.OpNot && types.KindOf(t) != types.KindBool,
		n.Op != ast.OpNot && !types.IsNumeric(t):
		return "", codegen.Errorf(n.Loc, "operator %s is not supported for %s", n.Op, t)
	}
	operand, err := g.genExpr(n.Operand)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s%s)", n.Op, operand), nil
}

func (g *Generator) genBinary(n *ast.BinaryExpr) (string, error) {
	lt, err := codegen.TypeOf(n.Left, g)
	if err != nil {
		return "", err
	}
	rt, err := codegen.TypeOf(n.Right, g)
	if err != nil {
		return "", err
	}
	if !types.IsValue(lt) || !types.IsValue(rt) {
		return "", codegen.Errorf(n.Loc, "operator %s is not supported for %s and %s", n.Op, lt, rt)
	}

	lk, rk := types.KindOf(lt), types.KindOf(rt)
	strs := lk == types.KindString || rk == types.KindString
	switch {
	case n.Op.IsLogical():
		if lk != types.KindBool || rk != types.KindBool {
			return "", codegen.Errorf(n.Loc, "operator %s is not supported for %s and %s", n.Op, lt, rt)
		}
	case strs && !(n.Op.IsEquality() && lk == rk):
		return "", codegen.Errorf(n.Loc, "string operands are not supported for operator %s", n.Op)
	case (lk == types.KindBool || rk == types.KindBool) && !n.Op.IsEquality():
		return "", codegen.Errorf(n.Loc, "operator %s is not supported for %s and %s", n.Op, lt, rt)
	case n.Op == ast.OpMod && (lk == types.KindFloat || rk == types.KindFloat):
		return "", codegen.Errorf(n.OpLoc, "operator %% is not supported for f64 operands")
	}

	l, err := g.genExpr(n.Left)
	if err != nil {
		return "", err
	}
	r, err := g.genExpr(n.Right)
	if err != nil {
		return "", err
	}
	if strs {
		return fmt.Sprintf("(strcmp(%s, %s) %s 0)", l, r, n.Op), nil
	}
	return fmt.Sprintf("(%s %s %s)", l, n.Op, r), nil
}

// floatLiteral renders v so that C reads it back as the same double.
func floatLiteral(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "(1.0 / 0.0)"
	case math.IsNaN(v):
		return "(0.0 / 0.0)"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// cString quotes s as a C string literal. Bytes outside printable ASCII are
// written as three-digit octal escapes, and '?' is escaped to rule out
// trigraphs.
func cString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\' || c == '?':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\t':
			b.WriteString(`\t`)
		case c >= 0x20 && c < 0x7f:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, `\%03o`, c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Scopes

func (g *Generator) pushScope() {
	g.scopes = append(g.scopes, make(map[string]cvar))
}

func (g *Generator) popScope() {
	g.scopes = g.scopes[:len(g.scopes)-1]
}

// declare binds name in the innermost scope under a C name not yet used in
// the current function.
func (g *Generator) declare(name string, t types.Type) cvar {
	cname := "v_" + name
	for i := 1; g.names[cname]; i++ {
		cname = fmt.Sprintf("v_%s_%d", name, i)
	}
	g.names[cname] = true
	v := cvar{name: cname, typ: t}
	g.scopes[len(g.scopes)-1][name] = v
	return v
}

func (g *Generator) lookup(name string) (cvar, bool) {
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

func (g *Generator) line(format string, args ...interface{}) {
	g.write(format, args...)
	g.out.WriteByte('\n')
}

func (g *Generator) write(format string, args ...interface{}) {
	g.out.WriteString(strings.Repeat("    ", g.indent))
	if len(args) == 0 {
		g.out.WriteString(format)
		return
	}
	fmt.Fprintf(&g.out, format, args...)
}

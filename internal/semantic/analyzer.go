// Package semantic type-checks a parsed program.
//
// Checking is a single walk in two steps. First every top-level function's
// signature is registered in the global scope, so calls may refer to
// functions declared later in the file and functions may call each other.
// Then global variables are checked in source order, followed by every
// function body. Scopes are pushed at function, block and loop boundaries.
//
// The analyzer never modifies the tree. Types computed for expressions and
// statements are recorded in side tables and handed to the code generators
// through Info.
//
// Checking stops at the first error, which is returned as a *diag.Error with
// stage diag.StageTypeCheck. Non-fatal findings (unused variables, a second
// assignment to an immutable binding) are collected as warnings.
package semantic

import (
	"fmt"

	"github.com/hassan/minirust/internal/diag"
	"github.com/hassan/minirust/internal/lexer"
	"github.com/hassan/minirust/internal/parser/ast"
	"github.com/hassan/minirust/internal/semantic/types"
	"github.com/hassan/minirust/internal/symtab"
)

// Warning is a non-fatal finding.
type Warning struct {
	Span    diag.Span
	Message string
}

func (w Warning) String() string {
	if w.Span.IsValid() {
		return w.Span.String() + ": warning: " + w.Message
	}
	return "warning: " + w.Message
}

// Info is the result of a successful check.
type Info struct {
	exprTypes map[ast.Expr]types.Type
	stmtTypes map[ast.Stmt]types.Type
	functions map[string]*types.FunctionType
	globals   map[string]types.Type

	Warnings []Warning
}

// TypeOf returns the type computed for expr, or nil if expr was not checked.
func (i *Info) TypeOf(expr ast.Expr) types.Type {
	return i.exprTypes[expr]
}

// StmtType returns the type computed for stmt. Blocks take the type of their
// last statement; see the package documentation of the statement rules.
func (i *Info) StmtType(stmt ast.Stmt) types.Type {
	return i.stmtTypes[stmt]
}

// Function returns the signature of the top-level function name.
func (i *Info) Function(name string) (*types.FunctionType, bool) {
	sig, ok := i.functions[name]
	return sig, ok
}

// Global returns the type of the global variable name.
func (i *Info) Global(name string) (types.Type, bool) {
	t, ok := i.globals[name]
	return t, ok
}

// Analyzer holds the state of one check.
type Analyzer struct {
	env *symtab.Environment

	exprTypes map[ast.Expr]types.Type
	stmtTypes map[ast.Stmt]types.Type
	functions map[string]*types.FunctionType
	globals   map[string]types.Type
	warnings  []Warning
}

// New returns an analyzer with an empty global scope.
func New() *Analyzer {
	return &Analyzer{
		env:       symtab.NewEnvironment(),
		exprTypes: make(map[ast.Expr]types.Type),
		stmtTypes: make(map[ast.Stmt]types.Type),
		functions: make(map[string]*types.FunctionType),
		globals:   make(map[string]types.Type),
	}
}

// Check type-checks prog with a fresh analyzer.
func Check(prog *ast.Program) (*Info, error) {
	return New().Check(prog)
}

// Check type-checks prog. An Analyzer is good for one program.
func (a *Analyzer) Check(prog *ast.Program) (*Info, error) {
	for _, fn := range prog.Functions() {
		if err := a.declareFunction(fn); err != nil {
			return nil, err
		}
	}
	for _, g := range prog.Globals() {
		if err := g.Accept(a); err != nil {
			return nil, err
		}
	}

	for _, fn := range prog.Functions() {
		if err := a.checkFunction(fn); err != nil {
			return nil, err
		}
	}
	a.collectUnused(a.env.Global())

	return &Info{
		exprTypes: a.exprTypes,
		stmtTypes: a.stmtTypes,
		functions: a.functions,
		globals:   a.globals,
		Warnings:  a.warnings,
	}, nil
}

// declareFunction registers fn's signature in the global scope.
func (a *Analyzer) declareFunction(fn *ast.FuncDecl) error {
	if prev := a.env.Global().LookupLocal(fn.Name); prev != nil {
		return a.errorf(fn.NameLoc, "Function %s is already defined at %s", fn.Name, prev.Span.Start)
	}

	params := make([]types.Type, len(fn.Params))
	seen := make(map[string]bool, len(fn.Params))
	for i, p := range fn.Params {
		if seen[p.Name] {
			return a.errorf(p.Loc, "Parameter %s is declared more than once in function %s", p.Name, fn.Name)
		}
		seen[p.Name] = true

		t, err := a.resolveType(p.Type)
		if err != nil {
			return err
		}
		params[i] = t
	}

	var ret types.Type = types.Unit
	if fn.ReturnType != nil {
		t, err := a.resolveType(fn.ReturnType)
		if err != nil {
			return err
		}
		ret = t
	}

	sig := types.NewFunction(params, ret)
	a.functions[fn.Name] = sig
	a.env.Define(&symtab.Symbol{
		Name:        fn.Name,
		Kind:        symtab.SymbolFunction,
		Type:        sig,
		Span:        fn.NameLoc,
		Initialized: true,
	})
	return nil
}

func (a *Analyzer) checkFunction(fn *ast.FuncDecl) error {
	sym := a.env.Global().LookupLocal(fn.Name)
	sig := sym.Type.(*types.FunctionType)

	a.env.PushFunction(sym)
	for i, p := range fn.Params {
		a.env.Define(&symtab.Symbol{
			Name:        p.Name,
			Kind:        symtab.SymbolParameter,
			Type:        sig.Params[i],
			Span:        p.Loc,
			Initialized: true,
		})
	}

	err := fn.Body.Accept(a)
	a.env.Pop()
	return err
}

// VisitVarDecl checks `let` in any scope. The initializer is checked before
// the name is bound, so `let x = x + 1;` reads the outer x.
func (a *Analyzer) VisitVarDecl(decl *ast.VarDecl) error {
	var declared types.Type
	if decl.Type != nil {
		t, err := a.resolveType(decl.Type)
		if err != nil {
			return err
		}
		declared = t
	}

	typ := declared
	if decl.Value != nil {
		valueType, err := a.check(decl.Value)
		if err != nil {
			return err
		}
		if !types.IsValue(valueType) {
			return a.errorf(decl.Value.Span(), "Cannot store a value of type %s in variable %s", valueType, decl.Name)
		}
		if declared != nil && !declared.Equals(valueType) {
			return a.errorf(decl.Value.Span(), "Type mismatch: expected %s, found %s", declared, valueType)
		}
		typ = valueType
	}

	scope := a.env.Current()
	if scope.IsGlobal() {
		if prev := scope.LookupLocal(decl.Name); prev != nil {
			if prev.Kind == symtab.SymbolFunction {
				return a.errorf(decl.NameLoc, "Global variable %s conflicts with the function of the same name", decl.Name)
			}
			return a.errorf(decl.NameLoc, "Global variable %s is already defined at %s", decl.Name, prev.Span.Start)
		}
		a.globals[decl.Name] = typ
	}

	a.env.Define(&symtab.Symbol{
		Name:        decl.Name,
		Kind:        symtab.SymbolVariable,
		Type:        typ,
		Span:        decl.NameLoc,
		Mutable:     decl.Mutable,
		Initialized: decl.Value != nil,
	})
	a.stmtTypes[decl] = types.Unit
	return nil
}

func (a *Analyzer) VisitExprStmt(stmt *ast.ExprStmt) error {
	if _, err := a.check(stmt.Expr); err != nil {
		return err
	}
	a.stmtTypes[stmt] = types.Unit
	return nil
}

// VisitBlockStmt checks a block in its own scope. The block's type is the
// type of its last statement, or unit when it is empty.
func (a *Analyzer) VisitBlockStmt(block *ast.BlockStmt) error {
	a.env.Push(symtab.ScopeBlock)
	var last types.Type = types.Unit
	for _, stmt := range block.Stmts {
		if err := stmt.Accept(a); err != nil {
			a.env.Pop()
			return err
		}
		last = a.stmtTypes[stmt]
	}
	a.collectUnused(a.env.Pop())

	a.stmtTypes[block] = last
	return nil
}

// VisitIfStmt requires a bool condition. When both branches produce a
// non-unit value those values must agree, and the if takes that type.
// Otherwise the if is unit.
func (a *Analyzer) VisitIfStmt(stmt *ast.IfStmt) error {
	cond, err := a.check(stmt.Condition)
	if err != nil {
		return err
	}
	if !cond.Equals(types.Bool) {
		return a.errorf(stmt.Condition.Span(), "If condition must be a boolean, found %s", cond)
	}

	if err := stmt.Then.Accept(a); err != nil {
		return err
	}
	result := types.Type(types.Unit)

	if stmt.Else != nil {
		if err := stmt.Else.Accept(a); err != nil {
			return err
		}
		thenType, elseType := a.stmtTypes[stmt.Then], a.stmtTypes[stmt.Else]
		if types.IsValue(thenType) && types.IsValue(elseType) {
			if !thenType.Equals(elseType) {
				return a.errorf(stmt.Loc, "If and else branches have different types: %s and %s", thenType, elseType)
			}
			result = thenType
		}
	}

	a.stmtTypes[stmt] = result
	return nil
}

func (a *Analyzer) VisitWhileStmt(stmt *ast.WhileStmt) error {
	cond, err := a.check(stmt.Condition)
	if err != nil {
		return err
	}
	if !cond.Equals(types.Bool) {
		return a.errorf(stmt.Condition.Span(), "While condition must be a boolean, found %s", cond)
	}

	a.env.Push(symtab.ScopeLoop)
	err = stmt.Body.Accept(a)
	a.env.Pop()
	if err != nil {
		return err
	}

	a.stmtTypes[stmt] = types.Unit
	return nil
}

// VisitForStmt checks the range bounds without constraining their types and
// binds the loop variable as an integer in a scope of its own.
func (a *Analyzer) VisitForStmt(stmt *ast.ForStmt) error {
	if _, err := a.check(stmt.Range); err != nil {
		return err
	}

	a.env.Push(symtab.ScopeLoop)
	a.env.Define(&symtab.Symbol{
		Name:        stmt.Var,
		Kind:        symtab.SymbolVariable,
		Type:        types.Int,
		Span:        stmt.VarLoc,
		Initialized: true,
	})
	err := stmt.Body.Accept(a)
	loop := a.env.Pop()
	if err != nil {
		return err
	}
	a.collectUnused(loop)

	a.stmtTypes[stmt] = types.Unit
	return nil
}

// VisitReturnStmt checks the returned value against the enclosing function.
// The statement's own type is the returned type.
func (a *Analyzer) VisitReturnStmt(stmt *ast.ReturnStmt) error {
	var got types.Type = types.Unit
	if stmt.Value != nil {
		t, err := a.check(stmt.Value)
		if err != nil {
			return err
		}
		got = t
	}

	fn := a.env.Function()
	if fn == nil {
		return a.errorf(stmt.Loc, "return outside of a function")
	}
	want := fn.Type.(*types.FunctionType).Return
	if !got.Equals(want) {
		return a.errorf(stmt.Loc, "Return type mismatch: expected %s, found %s", want, got)
	}

	a.stmtTypes[stmt] = got
	return nil
}

// VisitPrintStmt checks every argument. When the first argument is a
// template its holes must match the remaining arguments one for one.
func (a *Analyzer) VisitPrintStmt(stmt *ast.PrintStmt) error {
	for _, arg := range stmt.Args {
		t, err := a.check(arg)
		if err != nil {
			return err
		}
		if !types.IsValue(t) {
			return a.errorf(arg.Span(), "Cannot print a value of type %s", t)
		}
	}

	if tmpl, values, ok := stmt.Template(); ok {
		pieces, err := ast.ParseTemplate(tmpl.Str())
		if err != nil {
			return a.errorf(tmpl.Loc, "Invalid format string: %v", err)
		}
		if holes := ast.CountHoles(pieces); holes != len(values) {
			return a.errorf(stmt.Loc, "Format string has %d placeholders but %d arguments were provided", holes, len(values))
		}
	}

	a.stmtTypes[stmt] = types.Unit
	return nil
}

func (a *Analyzer) resolveType(ref *ast.TypeRef) (types.Type, error) {
	t, ok := types.FromName(ref.Name)
	if !ok {
		return nil, a.errorf(ref.Loc, "Unknown type: %s", ref.Name)
	}
	return t, nil
}

func (a *Analyzer) collectUnused(scope *symtab.Scope) {
	for _, sym := range scope.UnusedSymbols() {
		a.warn(sym.Span, "unused variable: %s", sym.Name)
	}
}

func (a *Analyzer) errorf(span lexer.Span, format string, args ...interface{}) error {
	return diag.Errorf(diag.StageTypeCheck, span.Diag(), format, args...)
}

func (a *Analyzer) warn(span lexer.Span, format string, args ...interface{}) {
	a.warnings = append(a.warnings, Warning{Span: span.Diag(), Message: fmt.Sprintf(format, args...)})
}

// Package ast defines the syntax tree produced by the parser.
//
// The tree is owned top-down: every composite node owns its children and no
// node is shared. Every node records the source span it was parsed from, and
// a parent's span always encloses its children's. Nothing mutates the tree
// after parsing; the checker and generators keep their results in side
// tables keyed by node.
package ast

import (
	"github.com/hassan/minirust/internal/lexer"
)

// Node is implemented by every syntax tree node.
type Node interface {
	Span() lexer.Span
}

// Expr is a node that produces a value.
type Expr interface {
	Node
	Accept(v Visitor) (interface{}, error)
	exprNode()
}

// Stmt is a node executed for its effect.
type Stmt interface {
	Node
	Accept(v Visitor) error
	stmtNode()
}

// Decl is a top-level declaration: a function or a global variable.
type Decl interface {
	Node
	declNode()
}

// Visitor walks the tree. Expression methods return a phase-specific result
// (the checker returns the expression's type); statement methods only
// report errors.
type Visitor interface {
	VisitBinaryExpr(expr *BinaryExpr) (interface{}, error)
	VisitUnaryExpr(expr *UnaryExpr) (interface{}, error)
	VisitLiteralExpr(expr *LiteralExpr) (interface{}, error)
	VisitIdentifierExpr(expr *IdentifierExpr) (interface{}, error)
	VisitCallExpr(expr *CallExpr) (interface{}, error)
	VisitAssignExpr(expr *AssignExpr) (interface{}, error)
	VisitGroupingExpr(expr *GroupingExpr) (interface{}, error)
	VisitRangeExpr(expr *RangeExpr) (interface{}, error)

	VisitExprStmt(stmt *ExprStmt) error
	VisitVarDecl(decl *VarDecl) error
	VisitBlockStmt(stmt *BlockStmt) error
	VisitIfStmt(stmt *IfStmt) error
	VisitWhileStmt(stmt *WhileStmt) error
	VisitForStmt(stmt *ForStmt) error
	VisitReturnStmt(stmt *ReturnStmt) error
	VisitPrintStmt(stmt *PrintStmt) error
}

// Program is the root of the tree: the declarations of one source file in
// source order.
type Program struct {
	Decls []Decl
	Loc   lexer.Span
}

func (p *Program) Span() lexer.Span { return p.Loc }

// Functions returns the function declarations in source order.
func (p *Program) Functions() []*FuncDecl {
	var fns []*FuncDecl
	for _, d := range p.Decls {
		if fn, ok := d.(*FuncDecl); ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// Globals returns the top-level variable declarations in source order.
func (p *Program) Globals() []*VarDecl {
	var vars []*VarDecl
	for _, d := range p.Decls {
		if v, ok := d.(*VarDecl); ok {
			vars = append(vars, v)
		}
	}
	return vars
}

// Function returns the function called name, or nil.
func (p *Program) Function(name string) *FuncDecl {
	for _, fn := range p.Functions() {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// TypeRef is a written type annotation such as `i32` in `x: i32`.
type TypeRef struct {
	Name string
	Loc  lexer.Span
}

func (t *TypeRef) Span() lexer.Span { return t.Loc }

// Param is one `name: type` entry of a function's parameter list.
type Param struct {
	Name string
	Type *TypeRef
	Loc  lexer.Span
}

func (p *Param) Span() lexer.Span { return p.Loc }

// FuncDecl is `fn name(params) [-> type] { body }`. A nil ReturnType means
// the function returns unit.
type FuncDecl struct {
	Name       string
	NameLoc    lexer.Span
	Params     []*Param
	ReturnType *TypeRef
	Body       *BlockStmt
	Loc        lexer.Span
}

func (f *FuncDecl) Span() lexer.Span { return f.Loc }
func (f *FuncDecl) declNode()        {}

// VarDecl is `let [mut] name [: type] [= value];`. It is both a top-level
// declaration and a statement. Type is nil when the type is inferred and
// Value is nil for a deferred initialization.
type VarDecl struct {
	Name    string
	NameLoc lexer.Span
	Mutable bool
	Type    *TypeRef
	Value   Expr
	Loc     lexer.Span
}

func (v *VarDecl) Span() lexer.Span { return v.Loc }
func (v *VarDecl) declNode()        {}
func (v *VarDecl) stmtNode()        {}
func (v *VarDecl) Accept(vis Visitor) error {
	return vis.VisitVarDecl(v)
}

package ast

import (
	"github.com/hassan/minirust/internal/lexer"
)

// ExprStmt is an expression evaluated for its side effects, e.g. `x = 5;`.
type ExprStmt struct {
	Expr Expr
	Loc  lexer.Span
}

func (e *ExprStmt) Span() lexer.Span { return e.Loc }
func (e *ExprStmt) stmtNode()        {}
func (e *ExprStmt) Accept(v Visitor) error {
	return v.VisitExprStmt(e)
}

// BlockStmt is `{ stmts... }`. Statement order is execution order. A block
// opens a new scope.
type BlockStmt struct {
	Stmts []Stmt
	Loc   lexer.Span
}

func (b *BlockStmt) Span() lexer.Span { return b.Loc }
func (b *BlockStmt) stmtNode()        {}
func (b *BlockStmt) Accept(v Visitor) error {
	return v.VisitBlockStmt(b)
}

// IfStmt is `if Condition Then [else Else]`. Else is nil, a *BlockStmt or,
// for `else if`, another *IfStmt.
type IfStmt struct {
	Condition Expr
	Then      *BlockStmt
	Else      Stmt
	Loc       lexer.Span
}

func (i *IfStmt) Span() lexer.Span { return i.Loc }
func (i *IfStmt) stmtNode()        {}
func (i *IfStmt) Accept(v Visitor) error {
	return v.VisitIfStmt(i)
}

// WhileStmt is `while Condition Body`.
type WhileStmt struct {
	Condition Expr
	Body      *BlockStmt
	Loc       lexer.Span
}

func (w *WhileStmt) Span() lexer.Span { return w.Loc }
func (w *WhileStmt) stmtNode()        {}
func (w *WhileStmt) Accept(v Visitor) error {
	return v.VisitWhileStmt(w)
}

// ForStmt is `for Var in Range Body`. Var is scoped to the loop.
type ForStmt struct {
	Var    string
	VarLoc lexer.Span
	Range  *RangeExpr
	Body   *BlockStmt
	Loc    lexer.Span
}

func (f *ForStmt) Span() lexer.Span { return f.Loc }
func (f *ForStmt) stmtNode()        {}
func (f *ForStmt) Accept(v Visitor) error {
	return v.VisitForStmt(f)
}

// ReturnStmt is `return [Value];`.
type ReturnStmt struct {
	Value Expr
	Loc   lexer.Span
}

func (r *ReturnStmt) Span() lexer.Span { return r.Loc }
func (r *ReturnStmt) stmtNode()        {}
func (r *ReturnStmt) Accept(v Visitor) error {
	return v.VisitReturnStmt(r)
}

// PrintStmt is `println!(args...)` or `print!(args...)`. When the first
// argument is a string literal it is the format template and its `{}`
// holes are filled by the remaining arguments.
type PrintStmt struct {
	Args    []Expr
	Newline bool
	Loc     lexer.Span
}

func (p *PrintStmt) Span() lexer.Span { return p.Loc }
func (p *PrintStmt) stmtNode()        {}
func (p *PrintStmt) Accept(v Visitor) error {
	return v.VisitPrintStmt(p)
}

// Template returns the format string literal and the values that fill it.
// ok is false when the first argument is not a string literal.
func (p *PrintStmt) Template() (tmpl *LiteralExpr, values []Expr, ok bool) {
	if len(p.Args) == 0 {
		return nil, nil, false
	}
	lit, isLit := p.Args[0].(*LiteralExpr)
	if !isLit || lit.Kind != LitString {
		return nil, nil, false
	}
	return lit, p.Args[1:], true
}

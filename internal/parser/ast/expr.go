package ast

import (
	"github.com/hassan/minirust/internal/lexer"
)

// BinaryExpr is `Left Op Right`, including the short-circuit && and ||.
type BinaryExpr struct {
	Left  Expr
	Op    BinaryOp
	OpLoc lexer.Span
	Right Expr
	Loc   lexer.Span
}

func (b *BinaryExpr) Span() lexer.Span { return b.Loc }
func (b *BinaryExpr) exprNode()        {}
func (b *BinaryExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitBinaryExpr(b)
}

// UnaryExpr is a prefix operator applied to Operand.
type UnaryExpr struct {
	Op      UnaryOp
	Operand Expr
	Loc     lexer.Span
}

func (u *UnaryExpr) Span() lexer.Span { return u.Loc }
func (u *UnaryExpr) exprNode()        {}
func (u *UnaryExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitUnaryExpr(u)
}

// LiteralKind says which field of a literal is meaningful.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitBool
	LitString
)

func (k LiteralKind) String() string {
	switch k {
	case LitInt:
		return "int"
	case LitFloat:
		return "float"
	case LitBool:
		return "bool"
	case LitString:
		return "string"
	default:
		return "unknown"
	}
}

// LiteralExpr is a constant. Value is an int64, float64, bool or string
// according to Kind.
type LiteralExpr struct {
	Kind  LiteralKind
	Value interface{}
	Loc   lexer.Span
}

func (l *LiteralExpr) Span() lexer.Span { return l.Loc }
func (l *LiteralExpr) exprNode()        {}
func (l *LiteralExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitLiteralExpr(l)
}

// Int returns the value of an integer literal.
func (l *LiteralExpr) Int() int64 {
	n, _ := l.Value.(int64)
	return n
}

// Float returns the value of a float literal.
func (l *LiteralExpr) Float() float64 {
	f, _ := l.Value.(float64)
	return f
}

// Bool returns the value of a bool literal.
func (l *LiteralExpr) Bool() bool {
	b, _ := l.Value.(bool)
	return b
}

// Str returns the (unescaped) text of a string literal.
func (l *LiteralExpr) Str() string {
	s, _ := l.Value.(string)
	return s
}

// IdentifierExpr is a reference to a variable or function by name.
type IdentifierExpr struct {
	Name string
	Loc  lexer.Span
}

func (i *IdentifierExpr) Span() lexer.Span { return i.Loc }
func (i *IdentifierExpr) exprNode()        {}
func (i *IdentifierExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitIdentifierExpr(i)
}

// CallExpr is `Callee(Args...)`. Only named functions can be called.
type CallExpr struct {
	Callee    string
	CalleeLoc lexer.Span
	Args      []Expr
	Loc       lexer.Span
}

func (c *CallExpr) Span() lexer.Span { return c.Loc }
func (c *CallExpr) exprNode()        {}
func (c *CallExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitCallExpr(c)
}

// AssignExpr is `Target = Value`. The parser only accepts an identifier as
// the target.
type AssignExpr struct {
	Target *IdentifierExpr
	Value  Expr
	Loc    lexer.Span
}

func (a *AssignExpr) Span() lexer.Span { return a.Loc }
func (a *AssignExpr) exprNode()        {}
func (a *AssignExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitAssignExpr(a)
}

// GroupingExpr is a parenthesised expression. It is kept in the tree so
// spans cover the parentheses.
type GroupingExpr struct {
	Inner Expr
	Loc   lexer.Span
}

func (g *GroupingExpr) Span() lexer.Span { return g.Loc }
func (g *GroupingExpr) exprNode()        {}
func (g *GroupingExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitGroupingExpr(g)
}

// RangeExpr is `Start..End`, the iterator of a for loop. End is exclusive.
type RangeExpr struct {
	Start Expr
	End   Expr
	Loc   lexer.Span
}

func (r *RangeExpr) Span() lexer.Span { return r.Loc }
func (r *RangeExpr) exprNode()        {}
func (r *RangeExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitRangeExpr(r)
}

// Unparen strips any number of enclosing parentheses.
func Unparen(e Expr) Expr {
	for {
		g, ok := e.(*GroupingExpr)
		if !ok {
			return e
		}
		e = g.Inner
	}
}

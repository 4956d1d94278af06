package parser

import (
	"github.com/hassan/minirust/internal/lexer"
	"github.com/hassan/minirust/internal/parser/ast"
)

// Precedence orders the expression tiers from loosest to tightest binding.
type Precedence int

const (
	PrecNone       Precedence = iota
	PrecAssignment            // =
	PrecOr                    // ||
	PrecAnd                   // &&
	PrecEquality              // == !=
	PrecComparison            // < <= > >=
	PrecTerm                  // + -
	PrecFactor                // * / %
	PrecUnary                 // - + !
	PrecCall                  // f(...)
	PrecPrimary
)

func (p Precedence) String() string {
	switch p {
	case PrecNone:
		return "none"
	case PrecAssignment:
		return "assignment"
	case PrecOr:
		return "or"
	case PrecAnd:
		return "and"
	case PrecEquality:
		return "equality"
	case PrecComparison:
		return "comparison"
	case PrecTerm:
		return "term"
	case PrecFactor:
		return "factor"
	case PrecUnary:
		return "unary"
	case PrecCall:
		return "call"
	case PrecPrimary:
		return "primary"
	default:
		return "unknown"
	}
}

// getPrecedence returns the infix binding power of a token. Tokens that
// cannot continue an expression return PrecNone, which ends the Pratt loop.
func getPrecedence(tt lexer.TokenType) Precedence {
	switch tt {
	case lexer.TokenAssign:
		return PrecAssignment
	case lexer.TokenOr:
		return PrecOr
	case lexer.TokenAnd:
		return PrecAnd
	case lexer.TokenEqual, lexer.TokenNotEqual:
		return PrecEquality
	case lexer.TokenLess, lexer.TokenLessEqual, lexer.TokenGreater, lexer.TokenGreaterEqual:
		return PrecComparison
	case lexer.TokenPlus, lexer.TokenMinus:
		return PrecTerm
	case lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent:
		return PrecFactor
	case lexer.TokenLeftParen:
		return PrecCall
	default:
		return PrecNone
	}
}

// isRightAssociative reports whether a chain of tt groups to the right.
// Only assignment does.
func isRightAssociative(tt lexer.TokenType) bool {
	return tt == lexer.TokenAssign
}

var binaryOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.TokenPlus:         ast.OpAdd,
	lexer.TokenMinus:        ast.OpSub,
	lexer.TokenStar:         ast.OpMul,
	lexer.TokenSlash:        ast.OpDiv,
	lexer.TokenPercent:      ast.OpMod,
	lexer.TokenEqual:        ast.OpEq,
	lexer.TokenNotEqual:     ast.OpNe,
	lexer.TokenLess:         ast.OpLt,
	lexer.TokenLessEqual:    ast.OpLe,
	lexer.TokenGreater:      ast.OpGt,
	lexer.TokenGreaterEqual: ast.OpGe,
	lexer.TokenAnd:          ast.OpAnd,
	lexer.TokenOr:           ast.OpOr,
}

var unaryOps = map[lexer.TokenType]ast.UnaryOp{
	lexer.TokenMinus: ast.OpNeg,
	lexer.TokenPlus:  ast.OpPos,
	lexer.TokenNot:   ast.OpNot,
}

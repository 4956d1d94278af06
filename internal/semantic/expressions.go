package semantic

import (
	"github.com/hassan/minirust/internal/parser/ast"
	"github.com/hassan/minirust/internal/semantic/types"
	"github.com/hassan/minirust/internal/symtab"
)

// check visits expr and returns its type, recording it in the side table.
func (a *Analyzer) check(expr ast.Expr) (types.Type, error) {
	result, err := expr.Accept(a)
	if err != nil {
		return nil, err
	}
	t := result.(types.Type)
	a.exprTypes[expr] = t
	return t, nil
}

func (a *Analyzer) VisitLiteralExpr(expr *ast.LiteralExpr) (interface{}, error) {
	switch expr.Kind {
	case ast.LitInt:
		return types.Int, nil
	case ast.LitFloat:
		return types.Float, nil
	case ast.LitBool:
		return types.Bool, nil
	case ast.LitString:
		return types.String, nil
	default:
		return nil, a.errorf(expr.Loc, "unknown literal kind %v", expr.Kind)
	}
}

func (a *Analyzer) VisitIdentifierExpr(expr *ast.IdentifierExpr) (interface{}, error) {
	sym := a.env.Lookup(expr.Name)
	if sym == nil {
		return nil, a.errorf(expr.Loc, "Undefined variable: %s", expr.Name)
	}
	if sym.Kind == symtab.SymbolFunction {
		return nil, a.errorf(expr.Loc, "Function %s cannot be used as a value", expr.Name)
	}
	return sym.Type, nil
}

func (a *Analyzer) VisitGroupingExpr(expr *ast.GroupingExpr) (interface{}, error) {
	return a.check(expr.Inner)
}

// VisitRangeExpr checks both bounds. The range itself has the type of its
// start bound.
func (a *Analyzer) VisitRangeExpr(expr *ast.RangeExpr) (interface{}, error) {
	start, err := a.check(expr.Start)
	if err != nil {
		return nil, err
	}
	if _, err := a.check(expr.End); err != nil {
		return nil, err
	}
	return start, nil
}

func (a *Analyzer) VisitUnaryExpr(expr *ast.UnaryExpr) (interface{}, error) {
	operand, err := a.check(expr.Operand)
	if err != nil {
		return nil, err
	}

	switch expr.Op {
	case ast.OpNeg:
		if !types.IsNumeric(operand) {
			return nil, a.errorf(expr.Loc, "Cannot negate value of type %s", operand)
		}
		return operand, nil
	case ast.OpNot:
		if !operand.Equals(types.Bool) {
			return nil, a.errorf(expr.Loc, "Cannot apply logical not to value of type %s", operand)
		}
		return types.Bool, nil
	default:
		if !types.IsNumeric(operand) {
			return nil, a.errorf(expr.Loc, "Cannot apply unary operator to value of type %s", operand)
		}
		return operand, nil
	}
}

// VisitBinaryExpr applies the operator rules:
//
//	+ - * / %      i32,i32 -> i32; f64,f64 or mixed -> f64
//	== !=          identical value types -> bool
//	< <= > >=      i32,i32 or f64,f64 -> bool
//	&& ||          bool,bool -> bool
func (a *Analyzer) VisitBinaryExpr(expr *ast.BinaryExpr) (interface{}, error) {
	left, err := a.check(expr.Left)
	if err != nil {
		return nil, err
	}
	right, err := a.check(expr.Right)
	if err != nil {
		return nil, err
	}

	switch {
	case expr.Op.IsArithmetic():
		result, ok := types.Arithmetic(left, right)
		if !ok {
			return nil, a.errorf(expr.Loc, "Cannot apply operator %s to types %s and %s", expr.Op, left, right)
		}
		return result, nil

	case expr.Op.IsEquality():
		if !types.IsValue(left) || !left.Equals(right) {
			return nil, a.errorf(expr.Loc, "Cannot compare types %s and %s", left, right)
		}
		return types.Bool, nil

	case expr.Op.IsOrdering():
		if !types.Ordered(left, right) {
			return nil, a.errorf(expr.Loc, "Cannot compare types %s and %s with operator %s", left, right, expr.Op)
		}
		return types.Bool, nil

	case expr.Op.IsLogical():
		if !left.Equals(types.Bool) || !right.Equals(types.Bool) {
			return nil, a.errorf(expr.Loc, "Cannot apply logical operator %s to types %s and %s", expr.Op, left, right)
		}
		return types.Bool, nil

	default:
		return nil, a.errorf(expr.OpLoc, "unknown binary operator %s", expr.Op)
	}
}

// VisitAssignExpr checks `name = value`. An undeclared target is a type
// error. Reassigning an immutable binding is only a warning, since `let x;`
// followed by one assignment is the normal way to defer initialization.
func (a *Analyzer) VisitAssignExpr(expr *ast.AssignExpr) (interface{}, error) {
	target := expr.Target
	sym := a.env.Resolve(target.Name)
	if sym == nil {
		return nil, a.errorf(target.Loc, "Undefined variable: %s", target.Name)
	}
	if sym.Kind == symtab.SymbolFunction {
		return nil, a.errorf(target.Loc, "Cannot assign to function %s", target.Name)
	}

	value, err := a.check(expr.Value)
	if err != nil {
		return nil, err
	}
	if !sym.Type.Equals(value) {
		return nil, a.errorf(expr.Loc, "Cannot assign value of type %s to variable of type %s", value, sym.Type)
	}

	if !sym.CanAssign() {
		a.warn(expr.Loc, "cannot assign twice to immutable variable %s", target.Name)
	}
	sym.Initialized = true
	a.exprTypes[target] = sym.Type
	return value, nil
}

// VisitCallExpr checks the callee's arity before any argument, then each
// argument in order against its parameter.
func (a *Analyzer) VisitCallExpr(expr *ast.CallExpr) (interface{}, error) {
	sym := a.env.Lookup(expr.Callee)
	if sym == nil {
		return nil, a.errorf(expr.CalleeLoc, "Undefined function: %s", expr.Callee)
	}
	sig, ok := sym.Type.(*types.FunctionType)
	if !ok {
		return nil, a.errorf(expr.CalleeLoc, "%s is not a function", expr.Callee)
	}

	if len(sig.Params) != len(expr.Args) {
		return nil, a.errorf(expr.Loc, "Function %s takes %d arguments but %d were provided",
			expr.Callee, len(sig.Params), len(expr.Args))
	}
	for i, arg := range expr.Args {
		got, err := a.check(arg)
		if err != nil {
			return nil, err
		}
		if !got.Equals(sig.Params[i]) {
			return nil, a.errorf(arg.Span(), "Type mismatch in argument %d: expected %s, found %s",
				i+1, sig.Params[i], got)
		}
	}
	return sig.Return, nil
}

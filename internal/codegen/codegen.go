// Package codegen holds what the two code generators share: the target
// selector, function signature collection, expression typing over a
// generator's own scope, and the codegen error constructor.
//
// The generators do not require a checked program. Everything they need to
// know about types is recomputed here from declarations, so a program
// compiled with checking disabled still either generates correct code or
// fails with a CodegenError.
package codegen

import (
	"fmt"
	"strings"

	"github.com/hassan/minirust/internal/diag"
	"github.com/hassan/minirust/internal/lexer"
	"github.com/hassan/minirust/internal/parser/ast"
	"github.com/hassan/minirust/internal/semantic/types"
)

// Target selects the generator.
type Target int

const (
	// TargetAsm emits x86-64 NASM assembly for the System V ABI.
	TargetAsm Target = iota
	// TargetC emits portable C99.
	TargetC
)

func (t Target) String() string {
	switch t {
	case TargetAsm:
		return "asm"
	case TargetC:
		return "c"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// Extension is the file extension of the generated listing.
func (t Target) Extension() string {
	if t == TargetC {
		return ".c"
	}
	return ".asm"
}

// ParseTarget accepts "asm" (also "nasm", "x86-64") or "c".
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asm", "nasm", "x86-64", "x86_64":
		return TargetAsm, nil
	case "c":
		return TargetC, nil
	default:
		return 0, fmt.Errorf("unknown target %q (want asm or c)", s)
	}
}

// Generator turns a program into target text.
type Generator interface {
	Generate(prog *ast.Program) (string, error)
}

// Errorf returns a CodegenError positioned at span.
func Errorf(span lexer.Span, format string, args ...interface{}) error {
	return diag.Errorf(diag.StageCodegen, span.Diag(), format, args...)
}

// ResolveType maps a written annotation to its type.
func ResolveType(ref *ast.TypeRef) (types.Type, error) {
	t, ok := types.FromName(ref.Name)
	if !ok {
		return nil, Errorf(ref.Loc, "unknown type %s", ref.Name)
	}
	return t, nil
}

// Signatures collects the signature of every function in prog.
func Signatures(prog *ast.Program) (map[string]*types.FunctionType, error) {
	sigs := make(map[string]*types.FunctionType)
	for _, fn := range prog.Functions() {
		params := make([]types.Type, len(fn.Params))
		for i, p := range fn.Params {
			t, err := ResolveType(p.Type)
			if err != nil {
				return nil, err
			}
			params[i] = t
		}
		var ret types.Type
		if fn.ReturnType != nil {
			t, err := ResolveType(fn.ReturnType)
			if err != nil {
				return nil, err
			}
			ret = t
		}
		sigs[fn.Name] = types.NewFunction(params, ret)
	}
	return sigs, nil
}

// FindMain returns main and checks that it takes no parameters.
func FindMain(prog *ast.Program) (*ast.FuncDecl, error) {
	main := prog.Function("main")
	if main == nil {
		return nil, Errorf(prog.Loc, "no main function")
	}
	if len(main.Params) > 0 {
		return nil, Errorf(main.NameLoc, "main must not take parameters")
	}
	return main, nil
}

// Scope is what TypeOf needs from a generator.
type Scope interface {
	// VarType returns the type of the variable name visible at the current
	// point of generation.
	VarType(name string) (types.Type, bool)
	// FuncSig returns the signature of function name.
	FuncSig(name string) (*types.FunctionType, bool)
}

// TypeOf computes the type of e. It applies the same operator rules as the
// checker but only fails when the generators could not emit the expression.
func TypeOf(e ast.Expr, s Scope) (types.Type, error) {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		switch n.Kind {
		case ast.LitInt:
			return types.Int, nil
		case ast.LitFloat:
			return types.Float, nil
		case ast.LitBool:
			return types.Bool, nil
		default:
			return types.String, nil
		}

	case *ast.IdentifierExpr:
		t, ok := s.VarType(n.Name)
		if !ok {
			return nil, Errorf(n.Loc, "undefined variable %s", n.Name)
		}
		return t, nil

	case *ast.GroupingExpr:
		return TypeOf(n.Inner, s)

	case *ast.UnaryExpr:
		if n.Op == ast.OpNot {
			return types.Bool, nil
		}
		return TypeOf(n.Operand, s)

	case *ast.BinaryExpr:
		if !n.Op.IsArithmetic() {
			return types.Bool, nil
		}
		l, err := TypeOf(n.Left, s)
		if err != nil {
			return nil, err
		}
		r, err := TypeOf(n.Right, s)
		if err != nil {
			return nil, err
		}
		t, ok := types.Arithmetic(l, r)
		if !ok {
			return nil, Errorf(n.Loc, "operator %s is not supported for %s and %s", n.Op, l, r)
		}
		return t, nil

	case *ast.AssignExpr:
		return TypeOf(n.Target, s)

	case *ast.CallExpr:
		sig, ok := s.FuncSig(n.Callee)
		if !ok {
			return nil, Errorf(n.CalleeLoc, "undefined function %s", n.Callee)
		}
		return sig.Return, nil

	case *ast.RangeExpr:
		return TypeOf(n.Start, s)

	default:
		return nil, Errorf(e.Span(), "unsupported expression %T", e)
	}
}

// VarType returns the type a `let` binds: the annotation when present,
// otherwise the initializer's type.
func VarType(decl *ast.VarDecl, s Scope) (types.Type, error) {
	if decl.Type != nil {
		return ResolveType(decl.Type)
	}
	if decl.Value == nil {
		return types.Int, nil
	}
	t, err := TypeOf(decl.Value, s)
	if err != nil {
		return nil, err
	}
	if !types.IsValue(t) {
		return nil, Errorf(decl.Value.Span(), "cannot store a value of type %s in %s", t, decl.Name)
	}
	return t, nil
}

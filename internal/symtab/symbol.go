package symtab

import (
	"github.com/hassan/minirust/internal/lexer"
	"github.com/hassan/minirust/internal/semantic/types"
)

// SymbolKind distinguishes what a name was bound by.
type SymbolKind int

const (
	SymbolVariable  SymbolKind = iota // let, or a for-loop variable
	SymbolParameter                   // function parameter
	SymbolFunction                    // top-level fn
)

func (sk SymbolKind) String() string {
	switch sk {
	case SymbolVariable:
		return "variable"
	case SymbolParameter:
		return "parameter"
	case SymbolFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Symbol is one bound name.
type Symbol struct {
	Name string
	Kind SymbolKind
	Type types.Type

	// Span is where the name was bound.
	Span lexer.Span

	// Mutable is set by `let mut`. Parameters and loop variables are not
	// mutable.
	Mutable bool

	// Initialized is false for `let x;` until the first assignment.
	Initialized bool

	// Used is set by Lookup.
	Used bool

	// Scope is the scope the symbol was defined in.
	Scope *Scope
}

func (s *Symbol) String() string {
	typ := "<untyped>"
	if s.Type != nil {
		typ = s.Type.String()
	}
	return s.Kind.String() + " " + s.Name + ": " + typ + " at " + s.Span.Start.String()
}

func (s *Symbol) IsGlobal() bool {
	return s.Scope != nil && s.Scope.IsGlobal()
}

// CanAssign reports whether an assignment to s is allowed without a
// warning: mutable variables, or an immutable variable receiving its
// deferred first value.
func (s *Symbol) CanAssign() bool {
	switch s.Kind {
	case SymbolVariable:
		return s.Mutable || !s.Initialized
	case SymbolParameter:
		return s.Mutable
	default:
		return false
	}
}

func (s *Symbol) MarkUsed() {
	s.Used = true
}

// Package symtab holds the scoped name environment used by the type checker.
//
// Scopes form a parent-linked chain. The Environment keeps a pointer to the
// innermost scope: Push opens a child of it and Pop returns to the parent.
// Lookup walks from the innermost scope outward, so an inner binding hides
// an outer one with the same name.
//
// Defining a name twice in the same scope is not an error. The new symbol
// replaces the old one for every later lookup, which gives `let x = 1;
// let x = x + 1;` its usual shadowing meaning.
package symtab

import (
	"fmt"
	"sort"
	"strings"
)

// ScopeKind records what opened a scope.
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeFunction
	ScopeBlock
	ScopeLoop
)

func (sk ScopeKind) String() string {
	switch sk {
	case ScopeGlobal:
		return "global"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	case ScopeLoop:
		return "loop"
	default:
		return "unknown"
	}
}

// Scope is one level of the environment.
type Scope struct {
	Kind    ScopeKind
	Parent  *Scope
	Symbols map[string]*Symbol

	// Function is the symbol of the enclosing function. It is nil in the
	// global scope and inherited by every scope nested in a function.
	Function *Symbol

	Depth int

	// shadowed keeps symbols replaced by a same-scope redefinition so they
	// still take part in UnusedSymbols.
	shadowed []*Symbol
}

// NewScope creates a scope nested in parent, which may be nil.
func NewScope(kind ScopeKind, parent *Scope) *Scope {
	s := &Scope{
		Kind:    kind,
		Parent:  parent,
		Symbols: make(map[string]*Symbol),
	}
	if parent != nil {
		s.Depth = parent.Depth + 1
		s.Function = parent.Function
	}
	return s
}

// Define binds symbol in s and returns the symbol it shadows in this same
// scope, if any.
func (s *Scope) Define(symbol *Symbol) *Symbol {
	prev := s.Symbols[symbol.Name]
	if prev != nil {
		s.shadowed = append(s.shadowed, prev)
	}
	s.Symbols[symbol.Name] = symbol
	symbol.Scope = s
	return prev
}

// Lookup resolves name from s outward and marks the result used.
func (s *Scope) Lookup(name string) *Symbol {
	sym := s.Resolve(name)
	if sym != nil {
		sym.MarkUsed()
	}
	return sym
}

// Resolve is Lookup without marking the symbol used. Assignment targets are
// resolved this way so that a write alone does not count as a use.
func (s *Scope) Resolve(name string) *Symbol {
	for scope := s; scope != nil; scope = scope.Parent {
		if sym, ok := scope.Symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// LookupLocal resolves name in s only.
func (s *Scope) LookupLocal(name string) *Symbol {
	return s.Symbols[name]
}

func (s *Scope) IsGlobal() bool {
	return s.Kind == ScopeGlobal
}

// FindEnclosing returns the nearest scope of the given kind, starting at s.
func (s *Scope) FindEnclosing(kind ScopeKind) *Scope {
	for scope := s; scope != nil; scope = scope.Parent {
		if scope.Kind == kind {
			return scope
		}
	}
	return nil
}

// UnusedSymbols returns the variables defined directly in s that were never
// read, in source order. Names starting with '_' are exempt.
func (s *Scope) UnusedSymbols() []*Symbol {
	var unused []*Symbol
	collect := func(sym *Symbol) {
		if sym.Kind == SymbolVariable && !sym.Used && !strings.HasPrefix(sym.Name, "_") {
			unused = append(unused, sym)
		}
	}
	for _, sym := range s.shadowed {
		collect(sym)
	}
	for _, sym := range s.Symbols {
		collect(sym)
	}
	sort.Slice(unused, func(i, j int) bool {
		return unused[i].Span.Start.Before(unused[j].Span.Start)
	})
	return unused
}

func (s *Scope) String() string {
	return fmt.Sprintf("%s scope (depth %d, %d symbols)", s.Kind, s.Depth, len(s.Symbols))
}

// Environment is the stack of scopes active at one point of the walk. It
// starts with a single global scope.
type Environment struct {
	global  *Scope
	current *Scope
}

func NewEnvironment() *Environment {
	g := NewScope(ScopeGlobal, nil)
	return &Environment{global: g, current: g}
}

func (e *Environment) Global() *Scope  { return e.global }
func (e *Environment) Current() *Scope { return e.current }

// Depth is the number of scopes pushed on top of the global scope.
func (e *Environment) Depth() int { return e.current.Depth }

// Push opens a scope of kind nested in the current one.
func (e *Environment) Push(kind ScopeKind) *Scope {
	e.current = NewScope(kind, e.current)
	return e.current
}

// PushFunction opens the body scope of fn.
func (e *Environment) PushFunction(fn *Symbol) *Scope {
	s := e.Push(ScopeFunction)
	s.Function = fn
	return s
}

// Pop closes the current scope and returns it. Popping the global scope is a
// programming error and panics.
func (e *Environment) Pop() *Scope {
	if e.current == e.global {
		panic("symtab: Pop on global scope")
	}
	closed := e.current
	e.current = closed.Parent
	return closed
}

// Define binds symbol in the current scope. See Scope.Define.
func (e *Environment) Define(symbol *Symbol) *Symbol {
	return e.current.Define(symbol)
}

func (e *Environment) Lookup(name string) *Symbol      { return e.current.Lookup(name) }
func (e *Environment) Resolve(name string) *Symbol     { return e.current.Resolve(name) }
func (e *Environment) LookupLocal(name string) *Symbol { return e.current.LookupLocal(name) }

// Function returns the symbol of the function being checked, or nil at the
// top level.
func (e *Environment) Function() *Symbol {
	return e.current.Function
}

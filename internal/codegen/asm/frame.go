package asm

import (
	"fmt"
	"strconv"

	"github.com/hassan/minirust/internal/parser/ast"
)

// frame is the stack layout of one function. Every parameter, `let` and
// loop variable owns a distinct 8-byte slot below rbp, assigned before any
// code is emitted, so a name resolves to the same offset wherever it is
// used. Slots are never reused, even between sibling blocks.
type frame struct {
	params []int
	slots  map[ast.Stmt]int
	size   int
}

// layoutFrame walks the whole body, including nested blocks, loop bodies and
// both branches of every if, and rounds the frame to 16 bytes so rsp stays
// aligned after the prologue.
func layoutFrame(fn *ast.FuncDecl) *frame {
	f := &frame{slots: make(map[ast.Stmt]int)}
	next := 0
	alloc := func() int {
		next += 8
		return next
	}

	for range fn.Params {
		f.params = append(f.params, alloc())
	}

	var walk func(s ast.Stmt)
	walk = func(s ast.Stmt) {
		switch n := s.(type) {
		case *ast.VarDecl:
			f.slots[n] = alloc()
		case *ast.ForStmt:
			f.slots[n] = alloc()
			walk(n.Body)
		case *ast.BlockStmt:
			for _, st := range n.Stmts {
				walk(st)
			}
		case *ast.IfStmt:
			walk(n.Then)
			if n.Else != nil {
				walk(n.Else)
			}
		case *ast.WhileStmt:
			walk(n.Body)
		}
	}
	walk(fn.Body)

	f.size = (next + 15) &^ 15
	return f
}

// childPath names the i-th statement under prefix. The function body's
// statements are "0", "1", ...; the then-branch of statement 3 holds
// "3.t.0", "3.t.1", ...; its else-branch "3.e.*"; loop bodies use ".w" and
// ".f". An `else if` is the statement at "3.e" itself.
func childPath(prefix string, i int) string {
	if prefix == "" {
		return strconv.Itoa(i)
	}
	return prefix + "." + strconv.Itoa(i)
}

// collectFormats assigns a format label to every print statement reachable
// from s that takes a template, keyed by statement path. It must walk the
// tree in the same shape as Generator.genStmt.
func (g *Generator) collectFormats(s ast.Stmt, path string, out map[string]string) {
	switch n := s.(type) {
	case *ast.PrintStmt:
		if _, _, ok := n.Template(); ok || (len(n.Args) == 0 && n.Newline) {
			out[path] = fmt.Sprintf("fmt_%d", g.formatCount)
			g.formatCount++
		}
	case *ast.BlockStmt:
		for i, st := range n.Stmts {
			g.collectFormats(st, childPath(path, i), out)
		}
	case *ast.IfStmt:
		g.collectFormats(n.Then, path+".t", out)
		if n.Else != nil {
			g.collectFormats(n.Else, path+".e", out)
		}
	case *ast.WhileStmt:
		g.collectFormats(n.Body, path+".w", out)
	case *ast.ForStmt:
		g.collectFormats(n.Body, path+".f", out)
	}
}

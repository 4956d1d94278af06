package asm

import (
	"strconv"
	"strings"

	"github.com/hassan/minirust/internal/parser/ast"
	"github.com/hassan/minirust/internal/semantic/types"
)

// nasmBytes encodes s as a NUL-terminated db operand list. Printable ASCII
// goes in double quotes, where NASM does no escape processing; every other
// byte, and '"' itself, is written as a number.
//
//	"i = %ld\n" -> "i = %ld", 10, 0
func nasmBytes(s string) string {
	var (
		parts []string
		run   strings.Builder
	)
	flush := func() {
		if run.Len() > 0 {
			parts = append(parts, `"`+run.String()+`"`)
			run.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c < 0x7f && c != '"' {
			run.WriteByte(c)
			continue
		}
		flush()
		parts = append(parts, strconv.Itoa(int(c)))
	}
	flush()
	parts = append(parts, "0")
	return strings.Join(parts, ", ")
}

// conversion is the printf directive for a value of type t. Bools are
// printed through the "true"/"false" strings.
func conversion(t types.Type) string {
	switch types.KindOf(t) {
	case types.KindInt:
		return "%ld"
	case types.KindFloat:
		return "%g"
	default:
		return "%s"
	}
}

// printfFormat rewrites a parsed template for printf: holes become the
// directive for the matching value, and literal '%' is doubled.
func printfFormat(pieces []ast.Piece, values []types.Type, newline bool) string {
	var b strings.Builder
	k := 0
	for _, p := range pieces {
		if p.Hole {
			b.WriteString(conversion(values[k]))
			k++
			continue
		}
		b.WriteString(strings.ReplaceAll(p.Text, "%", "%%"))
	}
	if newline {
		b.WriteByte('\n')
	}
	return b.String()
}

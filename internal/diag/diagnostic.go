// Package diag holds the structured errors every compiler phase returns and
// the renderer the driver uses to show them.
package diag

import (
	"errors"
	"fmt"
)

// Stage identifies which compiler phase produced an error.
type Stage string

const (
	StageLexer     Stage = "lexer"
	StageParser    Stage = "parser"
	StageTypeCheck Stage = "typecheck"
	StageCodegen   Stage = "codegen"
)

// Kind returns the error-kind name used in rendered output, e.g. "LexError".
func (s Stage) Kind() string {
	switch s {
	case StageLexer:
		return "LexError"
	case StageParser:
		return "ParseError"
	case StageTypeCheck:
		return "TypeError"
	case StageCodegen:
		return "CodegenError"
	default:
		return "Error"
	}
}

// Span locates an error in the source. Start and End are byte offsets; Line
// and Column describe Start.
type Span struct {
	Filename string
	Line     int
	Column   int
	Start    int
	End      int
}

// String returns "file:line:col", or "line:col" without a filename.
func (s Span) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsValid reports whether the span carries a usable location.
func (s Span) IsValid() bool {
	return s.Line > 0 && s.Column > 0
}

// Error is the single error type surfaced by the lexer, parser, type checker
// and code generators. Each phase stops at its first Error.
type Error struct {
	Stage   Stage
	Span    Span
	Message string
}

// New returns an Error for the given stage.
func New(stage Stage, span Span, message string) *Error {
	return &Error{Stage: stage, Span: span, Message: message}
}

// Errorf is New with a format string.
func Errorf(stage Stage, span Span, format string, args ...interface{}) *Error {
	return New(stage, span, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	if e.Span.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Span, e.Stage.Kind(), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Stage.Kind(), e.Message)
}

// AsError unwraps err to a *Error if it is, or wraps, one.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

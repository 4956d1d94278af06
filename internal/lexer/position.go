// Package lexer turns minirust source text into a stream of positioned tokens.
package lexer

import "strconv"

// Position is a point in the source text.
//
// Line and Column are 1-based and only used for diagnostics. Offset is the
// 0-based byte offset into the original buffer and is the authoritative
// coordinate: spans are compared and measured by offset.
type Position struct {
	Filename string
	Line     int
	Column   int
	Offset   int
}

// String formats the position as "file:line:col", the form editors and CI
// tools turn into clickable links.
func (p Position) String() string {
	return p.Filename + ":" + strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// IsValid reports whether the position points into a real file line.
// The zero Position is invalid.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Before reports whether p comes strictly before other.
func (p Position) Before(other Position) bool {
	return p.Offset < other.Offset
}

// After reports whether p comes strictly after other.
func (p Position) After(other Position) bool {
	return p.Offset > other.Offset
}

// Span is the half-open source range [Start.Offset, End.Offset).
//
// Spans never influence program semantics. Every token and AST node owns one
// so that later phases can point back at the text that caused an error.
type Span struct {
	Start Position
	End   Position
}

// SpanBetween returns the span running from the start of a to the end of b.
func SpanBetween(a, b Span) Span {
	return Span{Start: a.Start, End: b.End}
}

// String formats the span. Single-line spans collapse to
// "file:line:col1-col2".
func (s Span) String() string {
	if s.Start.Line == s.End.Line {
		return s.Start.String() + "-" + strconv.Itoa(s.End.Column)
	}
	return s.Start.String() + "-" + strconv.Itoa(s.End.Line) + ":" + strconv.Itoa(s.End.Column)
}

// IsValid reports whether both ends are valid and correctly ordered.
func (s Span) IsValid() bool {
	return s.Start.IsValid() && s.End.IsValid() && !s.End.Before(s.Start)
}

// Contains reports whether pos falls inside the span. The end is exclusive.
func (s Span) Contains(pos Position) bool {
	return !pos.Before(s.Start) && pos.Before(s.End)
}

// Encloses reports whether other lies entirely within s.
func (s Span) Encloses(other Span) bool {
	return !other.Start.Before(s.Start) && !other.End.After(s.End)
}

// Length is the number of source bytes covered.
func (s Span) Length() int {
	if !s.IsValid() {
		return 0
	}
	return s.End.Offset - s.Start.Offset
}

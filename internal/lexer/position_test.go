package lexer

import (
	"testing"
)

func TestPosition_String(t *testing.T) {
	tests := []struct {
		name     string
		pos      Position
		expected string
	}{
		{"valid position", Position{Filename: "main.rs", Line: 42, Column: 15, Offset: 100}, "main.rs:42:15"},
		{"zero position", Position{}, ":0:0"},
		{"first column", Position{Filename: "a.rs", Line: 1, Column: 1}, "a.rs:1:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pos.String(); got != tt.expected {
				t.Errorf("Position.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPosition_Ordering(t *testing.T) {
	a := Position{Line: 1, Column: 1, Offset: 0}
	b := Position{Line: 1, Column: 5, Offset: 4}

	if !a.Before(b) || a.After(b) {
		t.Error("expected a before b")
	}
	if !b.After(a) || b.Before(a) {
		t.Error("expected b after a")
	}
	if a.Before(a) || a.After(a) {
		t.Error("a position is neither before nor after itself")
	}
	if (Position{}).IsValid() {
		t.Error("zero position must be invalid")
	}
	if !a.IsValid() {
		t.Error("line 1 position must be valid")
	}
}

func TestSpan_String(t *testing.T) {
	tests := []struct {
		name     string
		span     Span
		expected string
	}{
		{
			name: "single line",
			span: Span{
				Start: Position{Filename: "main.rs", Line: 3, Column: 5, Offset: 20},
				End:   Position{Filename: "main.rs", Line: 3, Column: 9, Offset: 24},
			},
			expected: "main.rs:3:5-9",
		},
		{
			name: "multi line",
			span: Span{
				Start: Position{Filename: "main.rs", Line: 3, Column: 5, Offset: 20},
				End:   Position{Filename: "main.rs", Line: 5, Column: 2, Offset: 40},
			},
			expected: "main.rs:3:5-5:2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.span.String(); got != tt.expected {
				t.Errorf("Span.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSpan_Queries(t *testing.T) {
	outer := Span{
		Start: Position{Line: 1, Column: 1, Offset: 0},
		End:   Position{Line: 1, Column: 11, Offset: 10},
	}
	inner := Span{
		Start: Position{Line: 1, Column: 3, Offset: 2},
		End:   Position{Line: 1, Column: 6, Offset: 5},
	}

	if !outer.IsValid() {
		t.Fatal("outer span should be valid")
	}
	if outer.Length() != 10 {
		t.Errorf("Length() = %d, want 10", outer.Length())
	}
	if !outer.Encloses(inner) || inner.Encloses(outer) {
		t.Error("Encloses is wrong")
	}
	if !outer.Contains(inner.Start) {
		t.Error("outer should contain inner start")
	}
	if outer.Contains(outer.End) {
		t.Error("span end is exclusive")
	}

	joined := SpanBetween(inner, outer)
	if joined.Start != inner.Start || joined.End != outer.End {
		t.Errorf("SpanBetween = %v", joined)
	}

	reversed := Span{Start: outer.End, End: outer.Start}
	if reversed.IsValid() || reversed.Length() != 0 {
		t.Error("reversed span must be invalid with zero length")
	}
}

package ast

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		input string
		want  []Piece
	}{
		{"", nil},
		{"hello", []Piece{{Text: "hello"}}},
		{"{}", []Piece{{Hole: true}}},
		{"i = {}", []Piece{{Text: "i = "}, {Hole: true}}},
		{"{} + {} = {}", []Piece{{Hole: true}, {Text: " + "}, {Hole: true}, {Text: " = "}, {Hole: true}}},
		{"{{}}", []Piece{{Text: "{}"}}},
		{"{{{}}}", []Piece{{Text: "{"}, {Hole: true}, {Text: "}"}}},
		{"100%", []Piece{{Text: "100%"}}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTemplate(tt.input)
			if err != nil {
				t.Fatalf("ParseTemplate(%q): %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTemplate(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTemplate_Errors(t *testing.T) {
	tests := []struct {
		input    string
		contains string
	}{
		{"{x}", `unsupported placeholder "{x}"`},
		{"{:?}", `unsupported placeholder "{:?}"`},
		{"oops {", "unterminated placeholder"},
		{"a } b", "unmatched '}'"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseTemplate(tt.input)
			if err == nil || !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("ParseTemplate(%q) error = %v, want %q", tt.input, err, tt.contains)
			}
		})
	}
}

func TestCountHoles(t *testing.T) {
	pieces, _ := ParseTemplate("{} and {{}} and {}")
	if n := CountHoles(pieces); n != 2 {
		t.Errorf("CountHoles = %d, want 2", n)
	}
}

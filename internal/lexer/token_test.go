package lexer

import (
	"testing"
)

func TestToken_String(t *testing.T) {
	tests := []struct {
		name     string
		token    Token
		expected string
	}{
		{
			name: "identifier token",
			token: Token{
				Type:     TokenIdentifier,
				Lexeme:   "foo",
				Position: Position{Filename: "main.rs", Line: 1, Column: 1},
			},
			expected: "IDENTIFIER(foo) at main.rs:1:1",
		},
		{
			name: "int token",
			token: Token{
				Type:     TokenInt,
				Lexeme:   "42",
				Position: Position{Filename: "main.rs", Line: 5, Column: 10},
			},
			expected: "INT(42) at main.rs:5:10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.String(); got != tt.expected {
				t.Errorf("Token.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestToken_Span(t *testing.T) {
	token := Token{
		Type:     TokenIdentifier,
		Lexeme:   "hello",
		Position: Position{Filename: "main.rs", Line: 1, Column: 5, Offset: 4},
		Length:   5,
	}

	span := token.Span()

	if span.Start.Offset != 4 {
		t.Errorf("start offset = %d, want 4", span.Start.Offset)
	}
	if span.End.Offset != 9 {
		t.Errorf("end offset = %d, want 9", span.End.Offset)
	}
	if span.End.Column != 10 {
		t.Errorf("end column = %d, want 10", span.End.Column)
	}

	d := span.Diag()
	if d.Start != 4 || d.End != 9 || d.Line != 1 || d.Column != 5 || d.Filename != "main.rs" {
		t.Errorf("Diag() = %+v", d)
	}
}

func TestTokenType_String(t *testing.T) {
	tests := []struct {
		tt       TokenType
		expected string
	}{
		{TokenEOF, "EOF"},
		{TokenInvalid, "INVALID"},
		{TokenInt, "INT"},
		{TokenFloat, "FLOAT"},
		{TokenTypeName, "TYPENAME"},
		{TokenPrintln, "PRINTLN"},
		{TokenDotDot, "DOTDOT"},
		{TokenLeftParen, "LPAREN"},
		{TokenType(9999), "UNKNOWN"},
		{TokenType(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.tt.String(); got != tt.expected {
				t.Errorf("TokenType.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		word     string
		expected TokenType
	}{
		{"fn", TokenFn},
		{"let", TokenLet},
		{"mut", TokenMut},
		{"return", TokenReturn},
		{"if", TokenIf},
		{"else", TokenElse},
		{"while", TokenWhile},
		{"for", TokenFor},
		{"in", TokenIn},
		{"true", TokenTrue},
		{"false", TokenFalse},
		{"i32", TokenTypeName},
		{"f64", TokenTypeName},
		{"str", TokenTypeName},
		{"bool", TokenTypeName},
		{"println", TokenIdentifier},
		{"Fn", TokenIdentifier},
		{"foobar", TokenIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := LookupIdent(tt.word); got != tt.expected {
				t.Errorf("LookupIdent(%q) = %v, want %v", tt.word, got, tt.expected)
			}
		})
	}
}

func TestTokenType_Classes(t *testing.T) {
	tests := []struct {
		tt                         TokenType
		keyword, operator, literal bool
	}{
		{TokenFn, true, false, false},
		{TokenIn, true, false, false},
		{TokenPlus, false, true, false},
		{TokenNot, false, true, false},
		{TokenInt, false, false, true},
		{TokenFalse, false, false, true},
		{TokenIdentifier, false, false, false},
		{TokenDotDot, false, false, false},
		{TokenEOF, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.tt.String(), func(t *testing.T) {
			if got := tt.tt.IsKeyword(); got != tt.keyword {
				t.Errorf("IsKeyword() = %v, want %v", got, tt.keyword)
			}
			if got := tt.tt.IsOperator(); got != tt.operator {
				t.Errorf("IsOperator() = %v, want %v", got, tt.operator)
			}
			if got := tt.tt.IsLiteral(); got != tt.literal {
				t.Errorf("IsLiteral() = %v, want %v", got, tt.literal)
			}
		})
	}
}

func TestRuneCount(t *testing.T) {
	tests := []struct {
		s    string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"héllo", 5},
	}
	for _, tt := range tests {
		if got := runeCount(tt.s); got != tt.want {
			t.Errorf("runeCount(%q) = %d, want %d", tt.s, got, tt.want)
		}
	}
}

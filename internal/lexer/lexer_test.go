package lexer

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hassan/minirust/internal/diag"
)

func tokenTypes(t *testing.T, source string) []TokenType {
	t.Helper()
	tokens, err := Tokenize(source, "test.rs")
	if err != nil {
		t.Fatalf("Tokenize(%q): unexpected error: %v", source, err)
	}
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestLexer_Keywords(t *testing.T) {
	got := tokenTypes(t, "fn let mut return if else while for in true false")
	want := []TokenType{
		TokenFn, TokenLet, TokenMut, TokenReturn, TokenIf, TokenElse,
		TokenWhile, TokenFor, TokenIn, TokenTrue, TokenFalse, TokenEOF,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLexer_Identifiers(t *testing.T) {
	l := New("foo _bar myVar123 i32 f64", "test.rs")

	expected := []struct {
		tt     TokenType
		lexeme string
	}{
		{TokenIdentifier, "foo"},
		{TokenIdentifier, "_bar"},
		{TokenIdentifier, "myVar123"},
		{TokenTypeName, "i32"},
		{TokenTypeName, "f64"},
	}

	for i, want := range expected {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("token %d: unexpected error: %v", i, err)
		}
		if tok.Type != want.tt || tok.Lexeme != want.lexeme {
			t.Errorf("token %d: got %v(%q), want %v(%q)", i, tok.Type, tok.Lexeme, want.tt, want.lexeme)
		}
		if tok.Type == TokenIdentifier && tok.Value != want.lexeme {
			t.Errorf("token %d: Value = %v, want %q", i, tok.Value, want.lexeme)
		}
	}
}

func TestLexer_Numbers(t *testing.T) {
	tests := []struct {
		source string
		tt     TokenType
		value  interface{}
	}{
		{"42", TokenInt, int64(42)},
		{"0", TokenInt, int64(0)},
		{"9223372036854775807", TokenInt, int64(9223372036854775807)},
		{"3.14", TokenFloat, 3.14},
		{"10.0", TokenFloat, 10.0},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			tokens, err := Tokenize(tt.source, "test.rs")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tokens[0].Type != tt.tt {
				t.Errorf("type = %v, want %v", tokens[0].Type, tt.tt)
			}
			if tokens[0].Value != tt.value {
				t.Errorf("value = %#v, want %#v", tokens[0].Value, tt.value)
			}
		})
	}
}

func TestLexer_RangeIsNotAFloat(t *testing.T) {
	got := tokenTypes(t, "0..3")
	want := []TokenType{TokenInt, TokenDotDot, TokenInt, TokenEOF}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got = tokenTypes(t, "1.")
	want = []TokenType{TokenInt, TokenDot, TokenEOF}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLexer_Strings(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`"hello"`, "hello"},
		{`""`, ""},
		{`"i = {}"`, "i = {}"},
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`"quote \"x\""`, `quote "x"`},
		{`"back\\slash"`, `back\slash`},
		{`"100%"`, "100%"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			tokens, err := Tokenize(tt.source, "test.rs")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tokens[0].Type != TokenString {
				t.Fatalf("type = %v, want STRING", tokens[0].Type)
			}
			if tokens[0].Value != tt.want {
				t.Errorf("value = %q, want %q", tokens[0].Value, tt.want)
			}
			if tokens[0].Lexeme != tt.source {
				t.Errorf("lexeme = %q, want %q", tokens[0].Lexeme, tt.source)
			}
		})
	}
}

func TestLexer_Operators(t *testing.T) {
	got := tokenTypes(t, "+ - * / % = == != < <= > >= && || ! -> : :: . .. ; , ( ) { }")
	want := []TokenType{
		TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent,
		TokenAssign, TokenEqual, TokenNotEqual,
		TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual,
		TokenAnd, TokenOr, TokenNot, TokenArrow,
		TokenColon, TokenColonColon, TokenDot, TokenDotDot,
		TokenSemicolon, TokenComma,
		TokenLeftParen, TokenRightParen, TokenLeftBrace, TokenRightBrace,
		TokenEOF,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v\nwant %v", got, want)
	}
}

func TestLexer_MaximalMunch(t *testing.T) {
	tests := []struct {
		source string
		want   []TokenType
	}{
		{"a<=b", []TokenType{TokenIdentifier, TokenLessEqual, TokenIdentifier, TokenEOF}},
		{"a< =b", []TokenType{TokenIdentifier, TokenLess, TokenAssign, TokenIdentifier, TokenEOF}},
		{"x->y", []TokenType{TokenIdentifier, TokenArrow, TokenIdentifier, TokenEOF}},
		{"x-1", []TokenType{TokenIdentifier, TokenMinus, TokenInt, TokenEOF}},
		{"a===b", []TokenType{TokenIdentifier, TokenEqual, TokenAssign, TokenIdentifier, TokenEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := tokenTypes(t, tt.source); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLexer_Macros(t *testing.T) {
	got := tokenTypes(t, `println!("x") print!("y") println (`)
	want := []TokenType{
		TokenPrintln, TokenLeftParen, TokenString, TokenRightParen,
		TokenPrint, TokenLeftParen, TokenString, TokenRightParen,
		TokenIdentifier, TokenLeftParen, TokenEOF,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	tokens, _ := Tokenize(`println!("x")`, "test.rs")
	if tokens[0].Lexeme != "println!" {
		t.Errorf("macro lexeme = %q, want println!", tokens[0].Lexeme)
	}
}

func TestLexer_Comments(t *testing.T) {
	source := `// line comment
let /* block */ x /* nested /* inner */ still comment */ = 1; // trailing`
	got := tokenTypes(t, source)
	want := []TokenType{TokenLet, TokenIdentifier, TokenAssign, TokenInt, TokenSemicolon, TokenEOF}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLexer_PositionTracking(t *testing.T) {
	tokens, err := Tokenize("fn main() {\n  let x = 1;\n}", "main.rs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// "let" on line 2, column 3
	let := tokens[5]
	if let.Type != TokenLet {
		t.Fatalf("token 5 = %v, want LET", let.Type)
	}
	if let.Position.Line != 2 || let.Position.Column != 3 || let.Position.Offset != 14 {
		t.Errorf("let position = %+v", let.Position)
	}
	if let.Position.Filename != "main.rs" {
		t.Errorf("filename = %q", let.Position.Filename)
	}

	last := tokens[len(tokens)-2]
	if last.Type != TokenRightBrace || last.Position.Line != 3 || last.Position.Column != 1 {
		t.Errorf("closing brace = %+v", last)
	}
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		message string
		column  int
	}{
		{"unknown character", "let x = @;", "unexpected character '@'", 9},
		{"unterminated string", `let s = "abc`, "unterminated string literal", 9},
		{"newline in string", "\"ab\ncd\"", "unterminated string literal", 1},
		{"bad escape", `"a\q"`, "unknown escape sequence", 1},
		{"integer overflow", "99999999999999999999", "integer literal out of range", 1},
		{"single ampersand", "a & b", "unexpected character '&'", 3},
		{"single pipe", "a | b", "unexpected character '|'", 3},
		{"unterminated block comment", "x /* never closed", "unterminated block comment", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.source, "test.rs")
			if err == nil {
				t.Fatal("expected an error")
			}
			de, ok := diag.AsError(err)
			if !ok {
				t.Fatalf("error %T is not a *diag.Error", err)
			}
			if de.Stage != diag.StageLexer {
				t.Errorf("stage = %q, want lexer", de.Stage)
			}
			if !strings.Contains(de.Message, tt.message) {
				t.Errorf("message = %q, want it to contain %q", de.Message, tt.message)
			}
			if de.Span.Column != tt.column {
				t.Errorf("column = %d, want %d", de.Span.Column, tt.column)
			}
		})
	}
}

func TestLexer_NextTokenAfterEOF(t *testing.T) {
	l := New("x", "test.rs")
	for i := 0; i < 3; i++ {
		if _, err := l.NextToken(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	tok, err := l.NextToken()
	if err != nil || tok.Type != TokenEOF {
		t.Errorf("got %v, %v; want EOF", tok, err)
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	source := `fn main() { for i in 0..3 { println!("i = {}", i); } }`
	first, err := Tokenize(source, "test.rs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Tokenize(source, "test.rs")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatal("Tokenize is not deterministic")
		}
	}
}

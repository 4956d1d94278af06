package lexer

// TokenType is the lexical category of a token.
type TokenType int

// Token types, grouped as special, literals, names, keywords, operators and
// delimiters.
const (
	// TokenEOF marks the end of the input. The lexer keeps returning it once
	// the source is exhausted.
	TokenEOF TokenType = iota

	// TokenInvalid carries the offending text of a lexical error. It is always
	// returned together with a non-nil error.
	TokenInvalid

	// Literals. Token.Value holds the decoded value.
	TokenInt    // 42       -> int64
	TokenFloat  // 3.5      -> float64
	TokenString // "hi\n"   -> string (unescaped)
	TokenTrue   // true     -> bool
	TokenFalse  // false    -> bool

	TokenIdentifier // foo -> string
	TokenTypeName   // i32, f64, bool, str, ... (Lexeme distinguishes them)

	// Keywords
	TokenFn
	TokenLet
	TokenMut
	TokenReturn
	TokenIf
	TokenElse
	TokenWhile
	TokenFor
	TokenIn

	// Macro invocations. These are the only macros the language knows.
	TokenPrintln // println!
	TokenPrint   // print!

	// Operators
	TokenPlus         // +
	TokenMinus        // -
	TokenStar         // *
	TokenSlash        // /
	TokenPercent      // %
	TokenAssign       // =
	TokenEqual        // ==
	TokenNotEqual     // !=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=
	TokenAnd          // &&
	TokenOr           // ||
	TokenNot          // !

	// Punctuation
	TokenArrow      // ->
	TokenColon      // :
	TokenColonColon // ::
	TokenDot        // .
	TokenDotDot     // ..
	TokenSemicolon  // ;
	TokenComma      // ,

	// Delimiters
	TokenLeftParen  // (
	TokenRightParen // )
	TokenLeftBrace  // {
	TokenRightBrace // }
)

// Token is a single lexical unit. Tokens are created once by the lexer and
// never modified afterwards.
type Token struct {
	Type TokenType

	// Lexeme is the exact source text of the token.
	Lexeme string

	// Position is where the token starts.
	Position Position

	// Length is the byte length of Lexeme in the source.
	Length int

	// Value is the decoded value for identifiers and literals, nil otherwise.
	Value interface{}
}

// String returns "TYPE(lexeme) at file:line:col" for debugging output.
func (t Token) String() string {
	return t.Type.String() + "(" + t.Lexeme + ") at " + t.Position.String()
}

// Span returns the source range covered by the token.
func (t Token) Span() Span {
	return Span{
		Start: t.Position,
		End: Position{
			Filename: t.Position.Filename,
			Line:     t.Position.Line,
			Column:   t.Position.Column + runeCount(t.Lexeme),
			Offset:   t.Position.Offset + t.Length,
		},
	}
}

func runeCount(s string) int {
	count := 0
	for range s {
		count++
	}
	return count
}

var tokenNames = [...]string{
	TokenEOF:          "EOF",
	TokenInvalid:      "INVALID",
	TokenInt:          "INT",
	TokenFloat:        "FLOAT",
	TokenString:       "STRING",
	TokenTrue:         "TRUE",
	TokenFalse:        "FALSE",
	TokenIdentifier:   "IDENTIFIER",
	TokenTypeName:     "TYPENAME",
	TokenFn:           "FN",
	TokenLet:          "LET",
	TokenMut:          "MUT",
	TokenReturn:       "RETURN",
	TokenIf:           "IF",
	TokenElse:         "ELSE",
	TokenWhile:        "WHILE",
	TokenFor:          "FOR",
	TokenIn:           "IN",
	TokenPrintln:      "PRINTLN",
	TokenPrint:        "PRINT",
	TokenPlus:         "PLUS",
	TokenMinus:        "MINUS",
	TokenStar:         "STAR",
	TokenSlash:        "SLASH",
	TokenPercent:      "PERCENT",
	TokenAssign:       "ASSIGN",
	TokenEqual:        "EQUAL",
	TokenNotEqual:     "NOTEQUAL",
	TokenLess:         "LESS",
	TokenLessEqual:    "LESSEQUAL",
	TokenGreater:      "GREATER",
	TokenGreaterEqual: "GREATEREQUAL",
	TokenAnd:          "AND",
	TokenOr:           "OR",
	TokenNot:          "NOT",
	TokenArrow:        "ARROW",
	TokenColon:        "COLON",
	TokenColonColon:   "COLONCOLON",
	TokenDot:          "DOT",
	TokenDotDot:       "DOTDOT",
	TokenSemicolon:    "SEMICOLON",
	TokenComma:        "COMMA",
	TokenLeftParen:    "LPAREN",
	TokenRightParen:   "RPAREN",
	TokenLeftBrace:    "LBRACE",
	TokenRightBrace:   "RBRACE",
}

// String returns the upper-case name of the token type.
func (tt TokenType) String() string {
	if tt >= 0 && int(tt) < len(tokenNames) && tokenNames[tt] != "" {
		return tokenNames[tt]
	}
	return "UNKNOWN"
}

// keywords maps reserved words to their token types. The table is fixed;
// identifiers are looked up here before being classified as plain names.
var keywords = map[string]TokenType{
	"fn":     TokenFn,
	"let":    TokenLet,
	"mut":    TokenMut,
	"return": TokenReturn,
	"if":     TokenIf,
	"else":   TokenElse,
	"while":  TokenWhile,
	"for":    TokenFor,
	"in":     TokenIn,
	"true":   TokenTrue,
	"false":  TokenFalse,
}

// typeNames is the closed set of built-in type spellings.
var typeNames = map[string]bool{
	"i32":    true,
	"i64":    true,
	"f32":    true,
	"f64":    true,
	"bool":   true,
	"str":    true,
	"String": true,
}

// macros maps identifiers that become macro tokens when immediately followed
// by '!'.
var macros = map[string]TokenType{
	"println": TokenPrintln,
	"print":   TokenPrint,
}

// LookupIdent classifies an identifier-shaped word as a keyword, a type name
// or a plain identifier.
func LookupIdent(word string) TokenType {
	if tt, ok := keywords[word]; ok {
		return tt
	}
	if typeNames[word] {
		return TokenTypeName
	}
	return TokenIdentifier
}

// IsKeyword reports whether tt is a reserved word.
func (tt TokenType) IsKeyword() bool {
	return tt >= TokenFn && tt <= TokenIn
}

// IsOperator reports whether tt is an arithmetic, comparison or logical
// operator.
func (tt TokenType) IsOperator() bool {
	return tt >= TokenPlus && tt <= TokenNot
}

// IsLiteral reports whether tt carries a literal value.
func (tt TokenType) IsLiteral() bool {
	return tt >= TokenInt && tt <= TokenFalse
}

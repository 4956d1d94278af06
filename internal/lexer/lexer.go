package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hassan/minirust/internal/diag"
)

// Lexer scans source text into tokens on demand.
//
// The lexer is fail-fast: the first malformed lexeme produces a TokenInvalid
// together with a *diag.Error, and the caller is expected to stop.
type Lexer struct {
	source   string
	filename string

	// start is the offset of the token being scanned, current the offset of
	// the next unread byte.
	start   int
	current int

	line      int
	lineStart int

	// startLine and startLineStart snapshot line tracking at start so tokens
	// spanning a newline still report where they began.
	startLine      int
	startLineStart int
}

// New returns a Lexer over source. filename is only used in positions.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
	}
}

// Tokenize scans the whole of source. The returned slice always ends with a
// TokenEOF. Tokenize is deterministic: the same input always yields the same
// tokens.
func Tokenize(source, filename string) ([]Token, error) {
	l := New(source, filename)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// NextToken returns the next token. Whitespace and comments are skipped.
// Once the input is exhausted every call returns TokenEOF.
func (l *Lexer) NextToken() (Token, error) {
	if err := l.skipTrivia(); err != nil {
		return l.makeToken(TokenInvalid), err
	}

	l.start = l.current
	l.startLine = l.line
	l.startLineStart = l.lineStart

	if l.isAtEnd() {
		return l.makeToken(TokenEOF), nil
	}

	ch := l.advance()

	if isLetter(ch) {
		return l.scanIdentifier(), nil
	}
	if isDigit(ch) {
		return l.scanNumber()
	}

	switch ch {
	case '(':
		return l.makeToken(TokenLeftParen), nil
	case ')':
		return l.makeToken(TokenRightParen), nil
	case '{':
		return l.makeToken(TokenLeftBrace), nil
	case '}':
		return l.makeToken(TokenRightBrace), nil
	case ';':
		return l.makeToken(TokenSemicolon), nil
	case ',':
		return l.makeToken(TokenComma), nil
	case '+':
		return l.makeToken(TokenPlus), nil
	case '*':
		return l.makeToken(TokenStar), nil
	case '/':
		return l.makeToken(TokenSlash), nil
	case '%':
		return l.makeToken(TokenPercent), nil

	case '-':
		return l.either('>', TokenArrow, TokenMinus), nil
	case '=':
		return l.either('=', TokenEqual, TokenAssign), nil
	case '!':
		return l.either('=', TokenNotEqual, TokenNot), nil
	case '<':
		return l.either('=', TokenLessEqual, TokenLess), nil
	case '>':
		return l.either('=', TokenGreaterEqual, TokenGreater), nil
	case ':':
		return l.either(':', TokenColonColon, TokenColon), nil
	case '.':
		return l.either('.', TokenDotDot, TokenDot), nil

	case '&':
		if l.match('&') {
			return l.makeToken(TokenAnd), nil
		}
		return l.makeToken(TokenInvalid), l.error("unexpected character '&' (did you mean '&&'?)")
	case '|':
		if l.match('|') {
			return l.makeToken(TokenOr), nil
		}
		return l.makeToken(TokenInvalid), l.error("unexpected character '|' (did you mean '||'?)")

	case '"':
		return l.scanString()

	default:
		return l.makeToken(TokenInvalid), l.error("unexpected character " + strconv.QuoteRune(ch))
	}
}

// either emits long if the next character is second, short otherwise.
func (l *Lexer) either(second rune, long, short TokenType) Token {
	if l.match(second) {
		return l.makeToken(long)
	}
	return l.makeToken(short)
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch, size := utf8.DecodeRuneInString(l.source[l.current:])
	l.current += size
	if ch == '\n' {
		l.line++
		l.lineStart = l.current
	}
	return ch
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	ch, _ := utf8.DecodeRuneInString(l.source[l.current:])
	return ch
}

func (l *Lexer) peekNext() rune {
	if l.isAtEnd() {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.current:])
	if l.current+size >= len(l.source) {
		return 0
	}
	ch, _ := utf8.DecodeRuneInString(l.source[l.current+size:])
	return ch
}

func (l *Lexer) match(expected rune) bool {
	if l.peek() != expected || l.isAtEnd() {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

// skipTrivia discards whitespace, line comments and (nested) block comments.
func (l *Lexer) skipTrivia() error {
	for !l.isAtEnd() {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		case '/':
			switch l.peekNext() {
			case '/':
				for !l.isAtEnd() && l.peek() != '\n' {
					l.advance()
				}
			case '*':
				if err := l.skipBlockComment(); err != nil {
					return err
				}
			default:
				return nil
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *Lexer) skipBlockComment() error {
	l.start = l.current
	l.startLine = l.line
	l.startLineStart = l.lineStart

	l.advance() // '/'
	l.advance() // '*'
	depth := 1
	for !l.isAtEnd() && depth > 0 {
		switch {
		case l.peek() == '/' && l.peekNext() == '*':
			l.advance()
			l.advance()
			depth++
		case l.peek() == '*' && l.peekNext() == '/':
			l.advance()
			l.advance()
			depth--
		default:
			l.advance()
		}
	}
	if depth > 0 {
		return l.error("unterminated block comment")
	}
	return nil
}

// scanIdentifier scans [A-Za-z_][A-Za-z0-9_]* and classifies it. The words
// println and print followed directly by '!' become macro tokens.
func (l *Lexer) scanIdentifier() Token {
	for isLetter(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}
	text := l.source[l.start:l.current]

	if tt, ok := macros[text]; ok && l.peek() == '!' && l.peekNext() != '=' {
		l.advance()
		return l.makeToken(tt)
	}

	tt := LookupIdent(text)
	tok := l.makeToken(tt)
	switch tt {
	case TokenIdentifier:
		tok.Value = text
	case TokenTrue:
		tok.Value = true
	case TokenFalse:
		tok.Value = false
	}
	return tok
}

// scanNumber scans a decimal integer, or a float when exactly one '.' is
// followed by a digit. "0..3" therefore lexes as 0, .., 3.
func (l *Lexer) scanNumber() (Token, error) {
	for isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
		text := l.source[l.start:l.current]
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return l.makeToken(TokenInvalid), l.error("malformed float literal " + text)
		}
		tok := l.makeToken(TokenFloat)
		tok.Value = value
		return tok, nil
	}

	text := l.source[l.start:l.current]
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return l.makeToken(TokenInvalid), l.error("integer literal out of range: " + text)
	}
	tok := l.makeToken(TokenInt)
	tok.Value = value
	return tok, nil
}

// scanString scans a double-quoted literal and decodes its escapes. A raw
// newline before the closing quote is an error.
func (l *Lexer) scanString() (Token, error) {
	var b strings.Builder
	for {
		if l.isAtEnd() || l.peek() == '\n' {
			return l.makeToken(TokenInvalid), l.error("unterminated string literal")
		}
		ch := l.advance()
		if ch == '"' {
			break
		}
		if ch != '\\' {
			b.WriteRune(ch)
			continue
		}

		if l.isAtEnd() {
			return l.makeToken(TokenInvalid), l.error("unterminated string literal")
		}
		esc := l.advance()
		switch esc {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case '\\', '"', '\'':
			b.WriteRune(esc)
		default:
			return l.makeToken(TokenInvalid), l.error("unknown escape sequence \\" + string(esc))
		}
	}

	tok := l.makeToken(TokenString)
	tok.Value = b.String()
	return tok, nil
}

func (l *Lexer) makeToken(tt TokenType) Token {
	return Token{
		Type:     tt,
		Lexeme:   l.source[l.start:l.current],
		Position: l.startPosition(),
		Length:   l.current - l.start,
	}
}

func (l *Lexer) startPosition() Position {
	return Position{
		Filename: l.filename,
		Line:     l.startLine,
		Column:   utf8.RuneCountInString(l.source[l.startLineStart:l.start]) + 1,
		Offset:   l.start,
	}
}

// error builds a lexer-stage diagnostic covering the current lexeme.
func (l *Lexer) error(message string) error {
	end := l.current
	if end == l.start {
		end = l.start + 1
	}
	pos := l.startPosition()
	return diag.New(diag.StageLexer, diag.Span{
		Filename: pos.Filename,
		Line:     pos.Line,
		Column:   pos.Column,
		Start:    l.start,
		End:      end,
	}, message)
}

// Diag converts the span to the diagnostics representation.
func (s Span) Diag() diag.Span {
	return diag.Span{
		Filename: s.Start.Filename,
		Line:     s.Start.Line,
		Column:   s.Start.Column,
		Start:    s.Start.Offset,
		End:      s.End.Offset,
	}
}

func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

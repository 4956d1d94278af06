// Package parser builds the syntax tree from a token stream.
//
// Statements and declarations are parsed by recursive descent with one token
// of lookahead. Expressions use Pratt parsing (precedence climbing) over the
// tiers in precedence.go.
//
// The parser is fail-fast. Any production that does not find the token it
// needs aborts the parse, and the caller receives a single *diag.Error
// positioned at the offending token. Internally the abort is a panic that
// ParseProgram and ParseExpression recover.
package parser

import (
	"fmt"

	"github.com/hassan/minirust/internal/diag"
	"github.com/hassan/minirust/internal/lexer"
	"github.com/hassan/minirust/internal/parser/ast"
)

// TokenSource supplies tokens one at a time. *lexer.Lexer streams them on
// demand and *TokenStream replays an already tokenized slice.
type TokenSource interface {
	NextToken() (lexer.Token, error)
}

// TokenStream replays a token slice. Past the end it keeps returning the
// final EOF token.
type TokenStream struct {
	tokens []lexer.Token
	pos    int
}

// NewTokenStream wraps tokens, typically the result of lexer.Tokenize.
func NewTokenStream(tokens []lexer.Token) *TokenStream {
	return &TokenStream{tokens: tokens}
}

func (s *TokenStream) NextToken() (lexer.Token, error) {
	if s.pos >= len(s.tokens) {
		eof := lexer.Token{Type: lexer.TokenEOF}
		if n := len(s.tokens); n > 0 {
			last := s.tokens[n-1].Span().End
			eof.Position = last
		}
		return eof, nil
	}
	tok := s.tokens[s.pos]
	s.pos++
	return tok, nil
}

// Parser turns tokens into an *ast.Program.
type Parser struct {
	src      TokenSource
	current  lexer.Token
	previous lexer.Token
}

// bailout carries the first error up to the recover in the entry points.
type bailout struct {
	err error
}

// New returns a parser reading from src.
func New(src TokenSource) *Parser {
	return &Parser{src: src}
}

// Parse lexes and parses a whole source file.
func Parse(source, filename string) (*ast.Program, error) {
	return New(lexer.New(source, filename)).ParseProgram()
}

// ParseTokens parses an already tokenized program.
func ParseTokens(tokens []lexer.Token) (*ast.Program, error) {
	return New(NewTokenStream(tokens)).ParseProgram()
}

// ParseExpressionSource parses source as a single expression.
func ParseExpressionSource(source, filename string) (ast.Expr, error) {
	return New(lexer.New(source, filename)).ParseExpression()
}

// ParseProgram parses a sequence of top-level declarations up to EOF.
//
// GRAMMAR:
//
//	program = decl+ EOF
//	decl    = funcDecl | varDecl
func (p *Parser) ParseProgram() (prog *ast.Program, err error) {
	defer p.recoverBailout(&err)
	p.advance()

	if p.isAtEnd() {
		p.fail("expected declaration, found end of input")
	}

	prog = &ast.Program{}
	for !p.isAtEnd() {
		prog.Decls = append(prog.Decls, p.parseDecl())
	}
	prog.Loc = lexer.SpanBetween(prog.Decls[0].Span(), prog.Decls[len(prog.Decls)-1].Span())
	return prog, nil
}

// ParseExpression parses exactly one expression followed by EOF.
func (p *Parser) ParseExpression() (expr ast.Expr, err error) {
	defer p.recoverBailout(&err)
	p.advance()

	expr = p.parseExpression()
	if !p.isAtEnd() {
		p.fail(fmt.Sprintf("unexpected %s after expression", describe(p.current)))
	}
	return expr, nil
}

func (p *Parser) recoverBailout(err *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*err = b.err
	}
}

func (p *Parser) parseDecl() ast.Decl {
	switch {
	case p.match(lexer.TokenFn):
		return p.parseFuncDecl()
	case p.match(lexer.TokenLet):
		return p.parseVarDecl()
	default:
		p.fail(fmt.Sprintf("expected 'fn' or 'let', found %s", describe(p.current)))
		return nil
	}
}

// parseFuncDecl parses the rest of a function after 'fn':
//
//	name '(' [param {',' param}] ')' ['->' type] block
func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	start := p.previous.Span()

	name := p.consume(lexer.TokenIdentifier, "expected function name")
	p.consume(lexer.TokenLeftParen, "expected '(' after function name")

	var params []*ast.Param
	if !p.check(lexer.TokenRightParen) {
		for {
			params = append(params, p.parseParam())
			if !p.match(lexer.TokenComma) || p.check(lexer.TokenRightParen) {
				break
			}
		}
	}
	p.consume(lexer.TokenRightParen, "expected ')' after parameters")

	var ret *ast.TypeRef
	if p.match(lexer.TokenArrow) {
		ret = p.parseType()
	}

	body := p.parseBlock()
	return &ast.FuncDecl{
		Name:       name.Lexeme,
		NameLoc:    name.Span(),
		Params:     params,
		ReturnType: ret,
		Body:       body,
		Loc:        lexer.SpanBetween(start, body.Loc),
	}
}

func (p *Parser) parseParam() *ast.Param {
	name := p.consume(lexer.TokenIdentifier, "expected parameter name")
	p.consume(lexer.TokenColon, "expected ':' after parameter name")
	typ := p.parseType()
	return &ast.Param{
		Name: name.Lexeme,
		Type: typ,
		Loc:  lexer.SpanBetween(name.Span(), typ.Loc),
	}
}

func (p *Parser) parseType() *ast.TypeRef {
	tok := p.consume(lexer.TokenTypeName, "expected type name")
	return &ast.TypeRef{Name: tok.Lexeme, Loc: tok.Span()}
}

// defaultTypeName is the type given to `let x;` when neither an annotation
// nor an initializer says otherwise.
const defaultTypeName = "i32"

// parseVarDecl parses the rest of a variable declaration after 'let':
//
//	['mut'] name [':' type] ['=' expr] ';'
func (p *Parser) parseVarDecl() *ast.VarDecl {
	start := p.previous.Span()

	mutable := p.match(lexer.TokenMut)
	name := p.consume(lexer.TokenIdentifier, "expected variable name")

	decl := &ast.VarDecl{
		Name:    name.Lexeme,
		NameLoc: name.Span(),
		Mutable: mutable,
	}
	if p.match(lexer.TokenColon) {
		decl.Type = p.parseType()
	}
	if p.match(lexer.TokenAssign) {
		decl.Value = p.parseExpression()
	}
	if decl.Type == nil && decl.Value == nil {
		decl.Type = &ast.TypeRef{Name: defaultTypeName, Loc: name.Span()}
	}

	semi := p.consume(lexer.TokenSemicolon, "expected ';' after variable declaration")
	decl.Loc = lexer.SpanBetween(start, semi.Span())
	return decl
}

// parseStmt dispatches on a single token of lookahead.
func (p *Parser) parseStmt() ast.Stmt {
	switch p.current.Type {
	case lexer.TokenLet:
		p.advance()
		return p.parseVarDecl()
	case lexer.TokenReturn:
		p.advance()
		return p.parseReturnStmt()
	case lexer.TokenLeftBrace:
		return p.parseBlock()
	case lexer.TokenIf:
		p.advance()
		return p.parseIfStmt()
	case lexer.TokenWhile:
		p.advance()
		return p.parseWhileStmt()
	case lexer.TokenFor:
		p.advance()
		return p.parseForStmt()
	case lexer.TokenPrintln, lexer.TokenPrint:
		p.advance()
		return p.parsePrintStmt()
	case lexer.TokenFn:
		p.fail("nested function declarations are not supported")
		return nil
	default:
		return p.parseExprStmt()
	}
}

// parseBlock parses '{' stmt* '}'.
func (p *Parser) parseBlock() *ast.BlockStmt {
	open := p.consume(lexer.TokenLeftBrace, "expected '{'")

	var stmts []ast.Stmt
	for !p.check(lexer.TokenRightBrace) && !p.isAtEnd() {
		stmts = append(stmts, p.parseStmt())
	}

	closing := p.consume(lexer.TokenRightBrace, "expected '}' to close block")
	return &ast.BlockStmt{
		Stmts: stmts,
		Loc:   lexer.SpanBetween(open.Span(), closing.Span()),
	}
}

// parseIfStmt parses the rest of an if after 'if'. An `else if` is parsed
// recursively as the else branch, so a dangling else always belongs to the
// innermost if.
func (p *Parser) parseIfStmt() *ast.IfStmt {
	start := p.previous.Span()

	cond := p.parseExpression()
	then := p.parseBlock()

	stmt := &ast.IfStmt{Condition: cond, Then: then, Loc: lexer.SpanBetween(start, then.Loc)}
	if p.match(lexer.TokenElse) {
		switch {
		case p.match(lexer.TokenIf):
			stmt.Else = p.parseIfStmt()
		case p.check(lexer.TokenLeftBrace):
			stmt.Else = p.parseBlock()
		default:
			p.fail(fmt.Sprintf("expected '{' or 'if' after 'else', found %s", describe(p.current)))
		}
		stmt.Loc = lexer.SpanBetween(start, stmt.Else.Span())
	}
	return stmt
}

func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	start := p.previous.Span()
	cond := p.parseExpression()
	body := p.parseBlock()
	return &ast.WhileStmt{Condition: cond, Body: body, Loc: lexer.SpanBetween(start, body.Loc)}
}

// parseForStmt parses the rest of a range loop after 'for':
//
//	name 'in' expr '..' expr block
func (p *Parser) parseForStmt() *ast.ForStmt {
	start := p.previous.Span()

	name := p.consume(lexer.TokenIdentifier, "expected loop variable name")
	p.consume(lexer.TokenIn, "expected 'in' after loop variable")

	from := p.parseExpression()
	p.consume(lexer.TokenDotDot, "expected '..' in range")
	to := p.parseExpression()

	body := p.parseBlock()
	return &ast.ForStmt{
		Var:    name.Lexeme,
		VarLoc: name.Span(),
		Range: &ast.RangeExpr{
			Start: from,
			End:   to,
			Loc:   lexer.SpanBetween(from.Span(), to.Span()),
		},
		Body: body,
		Loc:  lexer.SpanBetween(start, body.Loc),
	}
}

func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	start := p.previous.Span()

	var value ast.Expr
	if !p.check(lexer.TokenSemicolon) {
		value = p.parseExpression()
	}
	semi := p.consume(lexer.TokenSemicolon, "expected ';' after return value")
	return &ast.ReturnStmt{Value: value, Loc: lexer.SpanBetween(start, semi.Span())}
}

// parsePrintStmt parses the rest of a print macro after `println!` or
// `print!`: '(' [expr {',' expr}] ')' ';'.
func (p *Parser) parsePrintStmt() *ast.PrintStmt {
	macro := p.previous
	p.consume(lexer.TokenLeftParen, fmt.Sprintf("expected '(' after %s", macro.Lexeme))
	args := p.parseArguments()
	semi := p.consume(lexer.TokenSemicolon, fmt.Sprintf("expected ';' after %s(...)", macro.Lexeme))
	return &ast.PrintStmt{
		Args:    args,
		Newline: macro.Type == lexer.TokenPrintln,
		Loc:     lexer.SpanBetween(macro.Span(), semi.Span()),
	}
}

func (p *Parser) parseExprStmt() *ast.ExprStmt {
	expr := p.parseExpression()
	semi := p.consume(lexer.TokenSemicolon, "expected ';' after expression")
	return &ast.ExprStmt{Expr: expr, Loc: lexer.SpanBetween(expr.Span(), semi.Span())}
}

func (p *Parser) parseExpression() ast.Expr {
	return p.parsePrecedence(PrecAssignment)
}

// parsePrecedence parses an expression whose operators all bind at least as
// tightly as precedence.
func (p *Parser) parsePrecedence(precedence Precedence) ast.Expr {
	left := p.parsePrefix()
	for precedence <= getPrecedence(p.current.Type) {
		left = p.parseInfix(left)
	}
	return left
}

func (p *Parser) parsePrefix() ast.Expr {
	tok := p.current
	switch tok.Type {
	case lexer.TokenInt:
		p.advance()
		return &ast.LiteralExpr{Kind: ast.LitInt, Value: tok.Value, Loc: tok.Span()}
	case lexer.TokenFloat:
		p.advance()
		return &ast.LiteralExpr{Kind: ast.LitFloat, Value: tok.Value, Loc: tok.Span()}
	case lexer.TokenString:
		p.advance()
		return &ast.LiteralExpr{Kind: ast.LitString, Value: tok.Value, Loc: tok.Span()}
	case lexer.TokenTrue, lexer.TokenFalse:
		p.advance()
		return &ast.LiteralExpr{Kind: ast.LitBool, Value: tok.Type == lexer.TokenTrue, Loc: tok.Span()}
	case lexer.TokenIdentifier:
		p.advance()
		return &ast.IdentifierExpr{Name: tok.Lexeme, Loc: tok.Span()}
	case lexer.TokenLeftParen:
		p.advance()
		inner := p.parseExpression()
		closing := p.consume(lexer.TokenRightParen, "expected ')' after expression")
		return &ast.GroupingExpr{Inner: inner, Loc: lexer.SpanBetween(tok.Span(), closing.Span())}
	case lexer.TokenMinus, lexer.TokenPlus, lexer.TokenNot:
		p.advance()
		operand := p.parsePrecedence(PrecUnary)
		return &ast.UnaryExpr{
			Op:      unaryOps[tok.Type],
			Operand: operand,
			Loc:     lexer.SpanBetween(tok.Span(), operand.Span()),
		}
	default:
		p.fail(fmt.Sprintf("expected expression, found %s", describe(tok)))
		return nil
	}
}

func (p *Parser) parseInfix(left ast.Expr) ast.Expr {
	switch p.current.Type {
	case lexer.TokenAssign:
		return p.parseAssignment(left)
	case lexer.TokenLeftParen:
		return p.parseCall(left)
	default:
		return p.parseBinary(left)
	}
}

// parseBinary parses `left op right` for a left-associative operator: the
// right operand may only contain strictly tighter operators.
func (p *Parser) parseBinary(left ast.Expr) ast.Expr {
	opTok := p.current
	prec := getPrecedence(opTok.Type)
	p.advance()

	right := p.parsePrecedence(prec + 1)
	return &ast.BinaryExpr{
		Left:  left,
		Op:    binaryOps[opTok.Type],
		OpLoc: opTok.Span(),
		Right: right,
		Loc:   lexer.SpanBetween(left.Span(), right.Span()),
	}
}

// parseAssignment parses `target = value`. The value is parsed at the same
// tier, which makes `a = b = c` group as `a = (b = c)`.
func (p *Parser) parseAssignment(left ast.Expr) ast.Expr {
	eq := p.current
	target, ok := left.(*ast.IdentifierExpr)
	if !ok {
		p.failAt(eq, "invalid assignment target: only a variable can be assigned to")
	}
	p.advance()

	prec := getPrecedence(eq.Type)
	if !isRightAssociative(eq.Type) {
		prec++
	}
	value := p.parsePrecedence(prec)
	return &ast.AssignExpr{
		Target: target,
		Value:  value,
		Loc:    lexer.SpanBetween(left.Span(), value.Span()),
	}
}

// parseCall parses `name(args)`. Only a bare identifier can be called, so
// chained calls such as f()() are rejected.
func (p *Parser) parseCall(left ast.Expr) ast.Expr {
	callee, ok := left.(*ast.IdentifierExpr)
	if !ok {
		p.fail("only named functions can be called")
	}
	p.advance()

	args := p.parseArguments()
	return &ast.CallExpr{
		Callee:    callee.Name,
		CalleeLoc: callee.Loc,
		Args:      args,
		Loc:       lexer.SpanBetween(callee.Loc, p.previous.Span()),
	}
}

// parseArguments parses a comma-separated list after '(' up to and
// including ')'. A trailing comma is allowed.
func (p *Parser) parseArguments() []ast.Expr {
	var args []ast.Expr
	for !p.check(lexer.TokenRightParen) {
		args = append(args, p.parseExpression())
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.consume(lexer.TokenRightParen, "expected ')' after arguments")
	return args
}

// Helper methods

func (p *Parser) advance() {
	p.previous = p.current
	tok, err := p.src.NextToken()
	if err != nil {
		panic(bailout{err: err})
	}
	p.current = tok
}

func (p *Parser) check(tt lexer.TokenType) bool {
	return p.current.Type == tt
}

func (p *Parser) match(tt lexer.TokenType) bool {
	if !p.check(tt) {
		return false
	}
	p.advance()
	return true
}

// consume advances past a token of type tt and returns it, or aborts the
// parse with message.
func (p *Parser) consume(tt lexer.TokenType, message string) lexer.Token {
	if p.check(tt) {
		p.advance()
		return p.previous
	}
	p.fail(fmt.Sprintf("%s, found %s", message, describe(p.current)))
	return lexer.Token{}
}

func (p *Parser) isAtEnd() bool {
	return p.current.Type == lexer.TokenEOF
}

func (p *Parser) fail(message string) {
	p.failAt(p.current, message)
}

func (p *Parser) failAt(tok lexer.Token, message string) {
	panic(bailout{err: diag.New(diag.StageParser, tok.Span().Diag(), message)})
}

// describe names a token for error messages.
func describe(tok lexer.Token) string {
	if tok.Type == lexer.TokenEOF {
		return "end of input"
	}
	return "'" + tok.Lexeme + "'"
}

package compiler

import (
	"strconv"
)

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []byte
	pos  int // index of the next byte to consume
	line int
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []byte(src), pos: 0, line: 1}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peek2() byte {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
	}
	return b
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isAlpha(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isAlnum(b byte) bool {
	return isAlpha(b) || isDigit(b)
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && isSpace(l.peek()) {
		l.advance()
	}
}

// scanIdent collects a full identifier or keyword token. The first
// character must still be at l.peek().
func (l *Lexer) scanIdent() Token {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) && isAlnum(l.peek()) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tt := IDENTIFIER
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Pos: Position{Line: line}}
}

// scanNumber collects a decimal integer literal. Fails if the literal's
// value does not fit in 32 bits unsigned (spec.md §4.1's documented
// lexer-stage overflow check).
func (l *Lexer) scanNumber() (Token, *Diagnostic) {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.peek()) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	if _, err := strconv.ParseUint(lexeme, 10, 32); err != nil {
		return Token{}, syntaxErrorf(Position{Line: line}, "integer literal %q does not fit in 32 bits", lexeme)
	}
	return Token{Type: NUMBER, Lexeme: lexeme, Pos: Position{Line: line}}, nil
}

// punctSpellings is tried longest-first so maximal munch falls out of
// simple linear scan (e.g. "<<=" is attempted before "<<" before "<").
var punctSpellings = []struct {
	text string
	typ  TokenType
}{
	{"<<=", SHL_EQ},
	{">>=", SHR_EQ},
	{"<<", SHL},
	{">>", SHR},
	{"<=", LESS_EQ},
	{">=", GREATER_EQ},
	{"==", EQ_EQ},
	{"!=", NOT_EQ},
	{"&&", AND_AND},
	{"||", OR_OR},
	{"++", PLUS_PLUS},
	{"--", MINUS_MINUS},
	{"+=", PLUS_EQ},
	{"-=", MINUS_EQ},
	{"*=", STAR_EQ},
	{"/=", SLASH_EQ},
	{"%=", PERCENT_EQ},
	{"&=", AMP_EQ},
	{"|=", PIPE_EQ},
	{"^=", CARET_EQ},
	{"{", LBRACE},
	{"}", RBRACE},
	{"(", LPAREN},
	{")", RPAREN},
	{";", SEMICOLON},
	{",", COMMA},
	{"?", QUESTION},
	{":", COLON},
	{"+", PLUS},
	{"-", MINUS},
	{"*", STAR},
	{"/", SLASH},
	{"%", PERCENT},
	{"&", AMP},
	{"|", PIPE},
	{"^", CARET},
	{"~", TILDE},
	{"!", BANG},
	{"<", LESS},
	{">", GREATER},
	{"=", ASSIGN},
}

// nextToken skips whitespace and returns the next token, or a diagnostic
// if the source has an invalid integer literal.
func (l *Lexer) nextToken() (Token, *Diagnostic) {
	l.skipWhitespace()
	if l.pos >= len(l.src) {
		return Token{Type: EOF, Pos: Position{Line: l.line}}, nil
	}

	b := l.peek()
	switch {
	case isAlpha(b):
		return l.scanIdent(), nil
	case isDigit(b):
		return l.scanNumber()
	}

	line := l.line
	for _, p := range punctSpellings {
		if l.matchAt(p.text) {
			for range p.text {
				l.advance()
			}
			return Token{Type: p.typ, Lexeme: p.text, Pos: Position{Line: line}}, nil
		}
	}

	// Unrecognized byte: emit UNKNOWN and let the parser surface the
	// syntax error with full grammar context.
	l.advance()
	return Token{Type: UNKNOWN, Lexeme: string(b), Pos: Position{Line: line}}, nil
}

func (l *Lexer) matchAt(text string) bool {
	if l.pos+len(text) > len(l.src) {
		return false
	}
	for i := 0; i < len(text); i++ {
		if l.src[l.pos+i] != text[i] {
			return false
		}
	}
	return true
}

// Lex scans the full source into an ordered token sequence terminated by
// a single EOF token.
func Lex(src string) ([]Token, *Diagnostic) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

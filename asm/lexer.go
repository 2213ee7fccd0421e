// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strconv"
)

// A Pos identifies a location within an assembly source file.
type Pos struct {
	FileIndex int // index of the file in the assembly
	Line      int // 1-based line number
	Column    int // 0-based column, with tab stops every 8 columns
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column+1)
}

// A Span is a range of source positions. End is exclusive.
type Span struct {
	Start Pos
	End   Pos
}

// A TokenKind identifies the lexical class of a token.
type TokenKind byte

// All token kinds.
const (
	EOS TokenKind = iota // end of statement
	Error
	Identifier
	Integer
	Percent
	Comma
	LParen
	RParen
	Colon
	Plus
	Minus
	Star
	Slash
	Tilde
	Amp
	Pipe
	Caret
	Shl
	Shr
)

var tokenKindName = []string{
	"EOS",
	"Error",
	"Identifier",
	"Integer",
	"Percent",
	"Comma",
	"LParen",
	"RParen",
	"Colon",
	"Plus",
	"Minus",
	"Star",
	"Slash",
	"Tilde",
	"Amp",
	"Pipe",
	"Caret",
	"Shl",
	"Shr",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindName) {
		return tokenKindName[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

var punctuation = map[byte]TokenKind{
	'%': Percent,
	',': Comma,
	'(': LParen,
	')': RParen,
	':': Colon,
	'+': Plus,
	'-': Minus,
	'*': Star,
	'/': Slash,
	'~': Tilde,
	'&': Amp,
	'|': Pipe,
	'^': Caret,
}

// A Token is a single lexical element of an assembly statement.
type Token struct {
	Kind  TokenKind
	Text  string // source text of the token
	Value int64  // value of an Integer token
	Pos   Pos    // position of the first character
}

// Is reports whether the token has the requested kind.
func (t Token) Is(k TokenKind) bool {
	return t.Kind == k
}

// End returns the position just past the token.
func (t Token) End() Pos {
	p := t.Pos
	p.Column += len(t.Text)
	return p
}

// Span returns the source range covered by the token.
func (t Token) Span() Span {
	return Span{Start: t.Pos, End: t.End()}
}

// A TokenStream is a cursor over the tokens of a single statement.
type TokenStream interface {
	// Tok returns the current token.
	Tok() Token

	// Peek returns the token following the current one without consuming
	// anything.
	Peek() Token

	// Lex advances to the next token and returns it. Once the end of the
	// statement is reached, Lex keeps returning the EOS token.
	Lex() Token

	// EatToEndOfStatement discards all remaining tokens up to the end of
	// the statement.
	EatToEndOfStatement()
}

// A Lexer splits one line of assembly source into tokens. Comments
// starting with '#' are discarded.
type Lexer struct {
	tokens []Token
	cur    int
}

// NewLexer creates a lexer for the given source line.
func NewLexer(fileIndex, line int, text string) *Lexer {
	return newLexer(newFstring(fileIndex, line, text))
}

func newLexer(line fstring) *Lexer {
	lx := &Lexer{}
	l := line.stripTrailingComment().consumeWhitespace()
	for !l.isEmpty() {
		var t Token
		t, l = lexToken(l)
		lx.tokens = append(lx.tokens, t)
		l = l.consumeWhitespace()
	}
	lx.tokens = append(lx.tokens, Token{Kind: EOS, Pos: l.pos()})
	return lx
}

// Tok returns the current token.
func (lx *Lexer) Tok() Token {
	return lx.tokens[lx.cur]
}

// Peek returns the next token without consuming the current one.
func (lx *Lexer) Peek() Token {
	if lx.cur+1 < len(lx.tokens) {
		return lx.tokens[lx.cur+1]
	}
	return lx.tokens[len(lx.tokens)-1]
}

// Lex consumes the current token and returns the next one.
func (lx *Lexer) Lex() Token {
	if lx.cur+1 < len(lx.tokens) {
		lx.cur++
	}
	return lx.tokens[lx.cur]
}

// EatToEndOfStatement skips all tokens up to the end of the statement.
func (lx *Lexer) EatToEndOfStatement() {
	lx.cur = len(lx.tokens) - 1
}

// Scan the next token from the line.
func lexToken(l fstring) (t Token, remain fstring) {
	t.Pos = l.pos()

	switch {
	case l.startsWith(decimal):
		return lexNumber(l)

	case l.startsWith(identifierStartChar):
		var id fstring
		id, remain = l.consumeWhile(identifierChar)
		t.Kind, t.Text = Identifier, id.str
		return t, remain

	case l.startsWithString("<<"):
		t.Kind, t.Text = Shl, "<<"
		return t, l.consume(2)

	case l.startsWithString(">>"):
		t.Kind, t.Text = Shr, ">>"
		return t, l.consume(2)
	}

	if k, ok := punctuation[l.str[0]]; ok {
		t.Kind, t.Text = k, l.str[:1]
		return t, l.consume(1)
	}

	t.Kind, t.Text = Error, l.str[:1]
	return t, l.consume(1)
}

// Scan a number from the line. The following numeric formats are allowed:
//
//	[0-9]+          Decimal number
//	0x[0-9a-fA-F]+  Hexadecimal number
//	0b[01]+         Binary number
//
// A number that overflows 64 bits or runs into identifier characters is
// returned as an Error token.
func lexNumber(l fstring) (t Token, remain fstring) {
	t.Pos = l.pos()
	start := l

	base, fn, skip := 10, decimal, 0
	switch {
	case l.startsWithString("0x") || l.startsWithString("0X"):
		base, fn, skip = 16, hexadecimal, 2
	case l.startsWithString("0b") || l.startsWithString("0B"):
		base, fn, skip = 2, binarynum, 2
	}

	l = l.consume(skip)
	digits, remain := l.consumeWhile(fn)
	extra, remain := remain.consumeWhile(identifierChar)

	n := skip + len(digits.str) + len(extra.str)
	t.Text = start.str[:n]

	if len(digits.str) == 0 || len(extra.str) > 0 {
		t.Kind = Error
		return t, remain
	}

	v, err := strconv.ParseUint(digits.str, base, 64)
	if err != nil {
		t.Kind = Error
		return t, remain
	}

	t.Kind, t.Value = Integer, int64(v)
	return t, remain
}

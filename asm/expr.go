// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strings"
)

//
// exprOp
//

type exprOp byte

const (
	// operators in descending order of precedence

	// unary operations
	opUnaryMinus exprOp = iota
	opUnaryPlus
	opBitwiseNEG

	// binary operations
	opMultiply
	opDivide
	opModulo
	opAdd
	opSubtract
	opShiftLeft
	opShiftRight
	opBitwiseAND
	opBitwiseXOR
	opBitwiseOR

	// value "operations"
	opNumber
	opIdentifier

	// pseudo-operations (used only during parsing but not stored in Expr's)
	opLeftParen
)

type opdata struct {
	precedence      byte
	binary          bool
	leftAssociative bool
	symbol          string
	eval            func(a, b int64) int64
}

var ops = []opdata{
	// unary and binary operations
	{7, false, false, "-", func(a, b int64) int64 { return -a }},             // uminus
	{7, false, false, "+", func(a, b int64) int64 { return a }},              // uplus
	{7, false, false, "~", func(a, b int64) int64 { return ^a }},             // bitneg
	{6, true, true, "*", func(a, b int64) int64 { return a * b }},            // multiply
	{6, true, true, "/", func(a, b int64) int64 { return a / b }},            // divide
	{6, true, true, "%", func(a, b int64) int64 { return a % b }},            // modulo
	{5, true, true, "+", func(a, b int64) int64 { return a + b }},            // add
	{5, true, true, "-", func(a, b int64) int64 { return a - b }},            // subtract
	{4, true, true, "<<", func(a, b int64) int64 { return a << uint(b&63) }}, // shift_left
	{4, true, true, ">>", func(a, b int64) int64 { return a >> uint(b&63) }}, // shift_right
	{3, true, true, "&", func(a, b int64) int64 { return a & b }},            // and
	{2, true, true, "^", func(a, b int64) int64 { return a ^ b }},            // xor
	{1, true, true, "|", func(a, b int64) int64 { return a | b }},            // or

	// value operations
	{0, false, false, "", nil}, // number
	{0, false, false, "", nil}, // identifier

	// pseudo-operations
	{0, false, false, "", nil}, // lparen
}

// Binary operators by token kind.
var binaryOps = map[TokenKind]exprOp{
	Star:    opMultiply,
	Slash:   opDivide,
	Percent: opModulo,
	Plus:    opAdd,
	Minus:   opSubtract,
	Shl:     opShiftLeft,
	Shr:     opShiftRight,
	Amp:     opBitwiseAND,
	Caret:   opBitwiseXOR,
	Pipe:    opBitwiseOR,
}

// Unary operators by token kind.
var unaryOps = map[TokenKind]exprOp{
	Minus: opUnaryMinus,
	Plus:  opUnaryPlus,
	Tilde: opBitwiseNEG,
}

func (op exprOp) isBinary() bool {
	return ops[op].binary
}

func (op exprOp) eval(a, b int64) int64 {
	return ops[op].eval(a, b)
}

func (op exprOp) symbol() string {
	return ops[op].symbol
}

func (op exprOp) isCollapsible() bool {
	return ops[op].precedence > 0
}

// Compare the precendence and associativity of 'op' to 'other'.
// Return true if the shunting yard algorithm should cause an
// expression node collapse.
func (op exprOp) collapses(other exprOp) bool {
	if ops[op].leftAssociative {
		return ops[op].precedence <= ops[other].precedence
	}
	return ops[op].precedence < ops[other].precedence
}

//
// Expr
//

// An Expr represents a single node in an expression tree. The root node
// represents an entire expression. An expression is constant once every
// identifier it contains has been resolved.
type Expr struct {
	number     int64
	identifier string
	op         exprOp
	evaluated  bool
	child0     *Expr
	child1     *Expr
}

// NewConstExpr returns a constant expression holding the value.
func NewConstExpr(v int64) *Expr {
	return &Expr{op: opNumber, number: v, evaluated: true}
}

// NewSymbolExpr returns an unresolved expression naming a single symbol.
func NewSymbolExpr(name string) *Expr {
	return &Expr{op: opIdentifier, identifier: name}
}

// Constant returns the value of the expression and true if the expression
// has been fully evaluated.
func (e *Expr) Constant() (int64, bool) {
	return e.number, e.evaluated
}

// Symbols returns the names of all unresolved identifiers in the
// expression, in the order they appear.
func (e *Expr) Symbols() []string {
	var names []string
	var walk func(e *Expr)
	walk = func(e *Expr) {
		switch {
		case e == nil || e.evaluated:
		case e.op == opIdentifier:
			names = append(names, e.identifier)
		default:
			walk(e.child0)
			walk(e.child1)
		}
	}
	walk(e)
	return names
}

// String returns the expression in infix notation. Evaluated subtrees are
// printed as their value.
func (e *Expr) String() string {
	var b strings.Builder
	e.format(&b)
	return b.String()
}

func (e *Expr) format(b *strings.Builder) {
	switch {
	case e.evaluated:
		fmt.Fprintf(b, "%d", e.number)
	case e.op == opIdentifier:
		b.WriteString(e.identifier)
	case e.op.isBinary():
		e.child0.formatChild(b, ops[e.op].precedence, false)
		fmt.Fprintf(b, " %s ", e.op.symbol())
		e.child1.formatChild(b, ops[e.op].precedence, true)
	default:
		b.WriteString(e.op.symbol())
		e.child0.formatChild(b, ops[e.op].precedence, false)
	}
}

// Format a child node, adding parentheses when the parent's precedence
// would otherwise regroup it.
func (e *Expr) formatChild(b *strings.Builder, parent byte, right bool) {
	paren := false
	if !e.evaluated && e.op.isBinary() {
		p := ops[e.op].precedence
		paren = p < parent || (right && p == parent)
	}
	if paren {
		b.WriteByte('(')
	}
	e.format(b)
	if paren {
		b.WriteByte(')')
	}
}

// A SymbolTable maps symbol names to constant values.
type SymbolTable map[string]int64

// Evaluate the expression tree using the symbol table. Subtrees that can be
// computed are folded in place. An error is returned only for arithmetic
// faults such as division by zero.
func (e *Expr) eval(symbols SymbolTable) error {
	if e.evaluated {
		return nil
	}

	switch {
	case e.op == opIdentifier:
		if v, ok := symbols[e.identifier]; ok {
			e.number, e.evaluated = v, true
		}

	case e.op.isBinary():
		if err := e.child0.eval(symbols); err != nil {
			return err
		}
		if err := e.child1.eval(symbols); err != nil {
			return err
		}
		if e.child0.evaluated && e.child1.evaluated {
			if (e.op == opDivide || e.op == opModulo) && e.child1.number == 0 {
				return errDivideByZero
			}
			e.number = e.op.eval(e.child0.number, e.child1.number)
			e.evaluated = true
		}

	default:
		if err := e.child0.eval(symbols); err != nil {
			return err
		}
		if e.child0.evaluated {
			e.number = e.op.eval(e.child0.number, 0)
			e.evaluated = true
		}
	}
	return nil
}

//
// exprParser
//

// An exprParser converts a run of tokens into an expression tree using
// Dijkstra's shunting-yard algorithm. Parsing stops, without consuming the
// token, at anything that cannot continue the expression: a comma, the end
// of the statement, a ')' with no open group, or a '(' directly following a
// complete value.
type exprParser struct {
	operandStack  exprStack
	operatorStack opStack
	parenCounter  int
	prevValue     bool // previous token completed a value
}

// Parse an expression from the token stream. The returned span covers all
// consumed tokens.
func (p *exprParser) parse(ts TokenStream) (e *Expr, span Span, err error) {
	defer p.reset()

	start := ts.Tok()
	span = Span{Start: start.Pos, End: start.Pos}

	for err == nil {
		t := ts.Tok()

		switch {
		case t.Is(Integer):
			if p.prevValue {
				goto done
			}
			p.operandStack.push(NewConstExpr(t.Value))
			p.prevValue = true

		case t.Is(Identifier):
			if p.prevValue {
				goto done
			}
			p.operandStack.push(NewSymbolExpr(t.Text))
			p.prevValue = true

		case t.Is(LParen):
			if p.prevValue {
				goto done
			}
			p.parenCounter++
			p.operatorStack.push(opLeftParen)

		case t.Is(RParen):
			if p.parenCounter == 0 {
				goto done
			}
			if !p.prevValue {
				err = exprError(t, "unexpected ')' in expression")
				break
			}
			p.parenCounter--
			for {
				op := p.operatorStack.pop()
				if op == opLeftParen {
					break
				}
				if err = p.operandStack.collapse(op); err != nil {
					err = exprError(t, "invalid expression")
					break
				}
			}

		default:
			var op exprOp
			var ok bool
			if p.prevValue {
				op, ok = binaryOps[t.Kind]
			} else {
				op, ok = unaryOps[t.Kind]
			}
			if !ok {
				if p.prevValue || t.Is(EOS) || t.Is(Comma) || t.Is(Percent) {
					goto done
				}
				err = exprError(t, "unknown token in expression")
				break
			}
			for err == nil && !p.operatorStack.empty() && op.isBinary() && op.collapses(p.operatorStack.peek()) {
				if err = p.operandStack.collapse(p.operatorStack.pop()); err != nil {
					err = exprError(t, "invalid expression")
				}
			}
			p.operatorStack.push(op)
			p.prevValue = false
		}

		if err == nil {
			span.End = t.End()
			ts.Lex()
		}
	}
	return nil, span, err

done:
	t := ts.Tok()
	switch {
	case p.operandStack.empty() && p.operatorStack.empty():
		return nil, span, exprError(t, "unknown token in expression")
	case !p.prevValue:
		return nil, span, exprError(t, "unexpected token in expression")
	case p.parenCounter > 0:
		return nil, span, exprError(t, "missing ')' in expression")
	}

	// Collapse any operators (and operands) remaining on the stack
	for !p.operatorStack.empty() {
		if err := p.operandStack.collapse(p.operatorStack.pop()); err != nil {
			return nil, span, exprError(t, "invalid expression")
		}
	}
	if len(p.operandStack.data) != 1 {
		return nil, span, exprError(t, "invalid expression")
	}
	return p.operandStack.pop(), span, nil
}

func (p *exprParser) reset() {
	p.operandStack.data, p.operatorStack.data = nil, nil
	p.parenCounter = 0
	p.prevValue = false
}

func exprError(t Token, msg string) error {
	return &Diagnostic{Pos: t.Pos, Kind: ErrInvalidExpression, Msg: msg}
}

// canStartExpr reports whether the token may begin an expression.
func canStartExpr(t Token) bool {
	switch t.Kind {
	case Integer, Identifier, LParen, Minus, Plus, Tilde:
		return true
	default:
		return false
	}
}

// ParseExpression parses an expression starting at the stream's current
// token and folds it against the symbol table.
func ParseExpression(ts TokenStream, symbols SymbolTable) (*Expr, Span, error) {
	var p exprParser
	e, span, err := p.parse(ts)
	if err != nil {
		return nil, span, err
	}
	if err := e.eval(symbols); err != nil {
		return nil, span, &Diagnostic{Pos: span.Start, Kind: ErrInvalidExpression, Msg: err.Error()}
	}
	return e, span, nil
}

// EvalExpression evaluates a standalone expression. All identifiers must be
// present in the symbol table.
func EvalExpression(text string, symbols SymbolTable) (int64, error) {
	lx := NewLexer(0, 1, text)
	e, _, err := ParseExpression(lx, symbols)
	if err != nil {
		return 0, err
	}
	if t := lx.Tok(); !t.Is(EOS) {
		return 0, &Diagnostic{Pos: t.Pos, Kind: ErrUnexpectedToken, Msg: "unexpected token in expression"}
	}
	v, ok := e.Constant()
	if !ok {
		names := e.Symbols()
		return 0, &Diagnostic{Kind: ErrUnresolvedSymbol, Msg: fmt.Sprintf("unresolved symbol '%s'", names[0])}
	}
	return v, nil
}

//
// exprStack
//

type exprStack struct {
	data []*Expr
}

func (s *exprStack) empty() bool {
	return len(s.data) == 0
}

func (s *exprStack) push(e *Expr) {
	s.data = append(s.data, e)
}

func (s *exprStack) pop() *Expr {
	l := len(s.data)
	e := s.data[l-1]
	s.data = s.data[:l-1]
	return e
}

// Collapse one or more expression nodes on the top of the
// stack into a combined expression node, and push the combined
// node back onto the stack.
func (s *exprStack) collapse(op exprOp) error {
	switch {
	case !op.isCollapsible():
		return errParse
	case op.isBinary():
		if len(s.data) < 2 {
			return errParse
		}
		s.push(&Expr{op: op, child1: s.pop(), child0: s.pop()})
	default:
		if s.empty() {
			return errParse
		}
		s.push(&Expr{op: op, child0: s.pop()})
	}
	return nil
}

//
// opStack
//

type opStack struct {
	data []exprOp
}

func (s *opStack) push(op exprOp) {
	s.data = append(s.data, op)
}

func (s *opStack) pop() exprOp {
	op := s.data[len(s.data)-1]
	s.data = s.data[0 : len(s.data)-1]
	return op
}

func (s *opStack) empty() bool {
	return len(s.data) == 0
}

func (s *opStack) peek() exprOp {
	return s.data[len(s.data)-1]
}

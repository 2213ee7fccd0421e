// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/rvasm/isa"
)

// A ParseResult is the outcome of an operand parsing routine.
type ParseResult byte

// Operand parse results.
const (
	// Success means an operand was parsed.
	Success ParseResult = iota

	// NoMatch means the routine does not apply to the input. Nothing
	// meaningful was consumed, so the caller may try another syntax.
	NoMatch

	// ParseFail means the routine committed to its syntax and then found
	// malformed input. A diagnostic has been reported and the caller must
	// not retry.
	ParseFail
)

var parseResultName = []string{"Success", "NoMatch", "ParseFail"}

func (r ParseResult) String() string {
	return parseResultName[r]
}

// ParserConfig holds the collaborators used by a Parser.
type ParserConfig struct {
	Matcher  Matcher        // selects instruction forms
	Sink     DiagnosticSink // receives diagnostics; may be nil
	Features isa.Feature    // features available to matched forms
	Symbols  SymbolTable    // constants visible to expressions
}

// A Parser converts the tokens of one statement into operands and matches
// them against the instruction forms.
type Parser struct {
	ts  TokenStream
	cfg ParserConfig
	err *Diagnostic // last reported diagnostic
}

// NewParser creates a parser reading from the token stream.
func NewParser(ts TokenStream, cfg ParserConfig) *Parser {
	return &Parser{ts: ts, cfg: cfg}
}

// Reset points the parser at a new token stream.
func (p *Parser) Reset(ts TokenStream) {
	p.ts = ts
	p.err = nil
}

// Features returns the features available to matched forms.
func (p *Parser) Features() isa.Feature {
	return p.cfg.Features
}

// Report a diagnostic at a position and remember it as the current
// failure.
func (p *Parser) error(pos Pos, kind error, format string, args ...any) *Diagnostic {
	d := &Diagnostic{Pos: pos, Kind: kind, Msg: fmt.Sprintf(format, args...)}
	p.report(d)
	return d
}

func (p *Parser) report(d *Diagnostic) {
	p.err = d
	if p.cfg.Sink != nil {
		p.cfg.Sink.Report(d)
	}
}

// Report an error returned by the expression parser.
func (p *Parser) exprFail(err error) ParseResult {
	var d *Diagnostic
	if !errors.As(err, &d) {
		d = &Diagnostic{Pos: p.ts.Tok().Pos, Kind: ErrInvalidExpression, Msg: err.Error()}
	}
	p.report(d)
	return ParseFail
}

// ParseInstruction parses the comma-separated operand list following a
// mnemonic. The stream must be positioned just after the mnemonic token.
// The returned list starts with a *TokenOp for the mnemonic. On failure the
// rest of the statement is discarded and the reported diagnostic is
// returned.
func (p *Parser) ParseInstruction(mnemonic string, loc Span) ([]Operand, error) {
	p.err = nil
	ops := []Operand{&TokenOp{Text: mnemonic, Loc: loc}}

	if !p.ts.Tok().Is(EOS) {
		// Read the first operand.
		op, err := p.parseOperand(mnemonic, len(ops))
		if err != nil {
			p.ts.EatToEndOfStatement()
			return nil, err
		}
		ops = append(ops, op)

		// Read any subsequent operands.
		for p.ts.Tok().Is(Comma) {
			p.ts.Lex()
			op, err := p.parseOperand(mnemonic, len(ops))
			if err != nil {
				p.ts.EatToEndOfStatement()
				return nil, err
			}
			ops = append(ops, op)
		}

		if t := p.ts.Tok(); !t.Is(EOS) {
			p.ts.EatToEndOfStatement()
			return nil, p.error(t.Pos, ErrUnexpectedToken, "unexpected token in argument list")
		}
	}

	// Consume the end of statement.
	p.ts.Lex()
	return ops, nil
}

// Parse one operand. Custom routines for the classes the matcher expects at
// this position are tried first; the generic immediate path is used only
// if none of them applies.
func (p *Parser) parseOperand(mnemonic string, index int) (Operand, error) {
	for _, c := range p.cfg.Matcher.OperandClasses(mnemonic, index) {
		fn := operandParsers[c]
		if fn == nil {
			continue
		}
		op, res := fn(p)
		switch res {
		case Success:
			return op, nil
		case ParseFail:
			return nil, p.err
		}
	}

	// The only other type of operand is an immediate.
	e, span, err := ParseExpression(p.ts, p.cfg.Symbols)
	if err != nil {
		p.exprFail(err)
		return nil, p.err
	}
	return &ImmOp{Expr: e, Loc: span}, nil
}

// An operandParser is a custom parsing routine for one operand class.
type operandParser func(p *Parser) (Operand, ParseResult)

func regParser(kind isa.RegisterKind) operandParser {
	return func(p *Parser) (Operand, ParseResult) {
		return p.parseRegOperand(kind)
	}
}

func addrParser(kind isa.RegisterKind, hasIndex bool) operandParser {
	return func(p *Parser) (Operand, ParseResult) {
		return p.parseAddress(kind, hasIndex)
	}
}

var operandParsers = map[isa.OperandClass]operandParser{
	isa.OpPCReg:           regParser(isa.PCReg),
	isa.OpGR32:            regParser(isa.GR32Reg),
	isa.OpGR64:            regParser(isa.GR64Reg),
	isa.OpGR128:           regParser(isa.GR128Reg),
	isa.OpADDR32:          regParser(isa.ADDR32Reg),
	isa.OpADDR64:          regParser(isa.ADDR64Reg),
	isa.OpFP32:            regParser(isa.FP32Reg),
	isa.OpFP64:            regParser(isa.FP64Reg),
	isa.OpFP128:           regParser(isa.FP128Reg),
	isa.OpAccessReg:       (*Parser).parseAccessReg,
	isa.OpBDAddr32Disp12:  addrParser(isa.ADDR32Reg, false),
	isa.OpBDAddr32Disp20:  addrParser(isa.ADDR32Reg, false),
	isa.OpBDAddr64Disp12:  addrParser(isa.ADDR64Reg, false),
	isa.OpBDAddr64Disp20:  addrParser(isa.ADDR64Reg, false),
	isa.OpBDXAddr64Disp12: addrParser(isa.ADDR64Reg, true),
	isa.OpBDXAddr64Disp20: addrParser(isa.ADDR64Reg, true),
}

// A rawReg is a register as written in the source, before resolution.
type rawReg struct {
	prefix byte
	index  string
	span   Span
}

// Scan a register of the form %<prefix><number>. Nothing is consumed and
// NoMatch is returned unless the stream is at a '%' followed by an
// identifier.
func (p *Parser) scanRegister() (r rawReg, res ParseResult) {
	t := p.ts.Tok()
	if !t.Is(Percent) || !p.ts.Peek().Is(Identifier) {
		return r, NoMatch
	}
	name := p.ts.Lex()
	p.ts.Lex()

	r.prefix = name.Text[0]
	r.index = name.Text[1:]
	r.span = Span{Start: t.Pos, End: name.End()}
	return r, Success
}

// Parse a register of the given kind. If isAddress is true the register
// appears in an address, where register 0 is not allowed.
func (p *Parser) parseRegister(kind isa.RegisterKind, isAddress bool) (isa.Reg, Span, ParseResult) {
	r, res := p.scanRegister()
	if res != Success {
		return isa.NoReg, r.span, res
	}

	reg, err := ResolveRegister(kind, r.prefix, r.index, isAddress)
	switch err {
	case nil:
		return reg, r.span, Success
	case ErrZeroRegisterInAddress:
		p.error(r.span.Start, err, "%%%c0 used in an address", r.prefix)
	default:
		p.error(r.span.Start, err, "invalid register")
	}
	return isa.NoReg, r.span, ParseFail
}

// Parse a plain register operand. Address registers may not be register 0.
func (p *Parser) parseRegOperand(kind isa.RegisterKind) (Operand, ParseResult) {
	isAddress := kind == isa.ADDR32Reg || kind == isa.ADDR64Reg
	reg, span, res := p.parseRegister(kind, isAddress)
	if res != Success {
		return nil, res
	}
	return &RegOp{Kind: kind, Reg: reg, Loc: span}, Success
}

// Parse an access register operand.
func (p *Parser) parseAccessReg() (Operand, ParseResult) {
	r, res := p.scanRegister()
	if res != Success {
		return nil, res
	}
	n, err := ResolveAccessRegister(r.prefix, r.index)
	if err != nil {
		p.error(r.span.Start, err, "invalid register")
		return nil, ParseFail
	}
	return &AccessRegOp{Num: n, Loc: r.span}, Success
}

// Parse a register inside an address. The enclosing address syntax is
// already committed, so a missing register is a failure.
func (p *Parser) parseAddrRegister(kind isa.RegisterKind) (isa.Reg, Span, bool) {
	reg, span, res := p.parseRegister(kind, true)
	switch res {
	case Success:
		return reg, span, true
	case NoMatch:
		p.error(p.ts.Tok().Pos, ErrInvalidRegister, "register expected")
	}
	return isa.NoReg, span, false
}

// Parse an address of the form disp[(reg[,reg])]. With two registers the
// first is the index and the second the base; with one it is the base.
func (p *Parser) parseAddress(kind isa.RegisterKind, hasIndex bool) (Operand, ParseResult) {
	start := p.ts.Tok()
	if !canStartExpr(start) {
		return nil, NoMatch
	}

	// Parse the displacement, which must always be present.
	disp, span, err := ParseExpression(p.ts, p.cfg.Symbols)
	if err != nil {
		return nil, p.exprFail(err)
	}

	// Parse the optional base and index.
	var base, index isa.Reg
	if p.ts.Tok().Is(LParen) {
		p.ts.Lex()

		// Parse the first register.
		reg, regSpan, ok := p.parseAddrRegister(kind)
		if !ok {
			return nil, ParseFail
		}

		// Check whether there's a second register. If so, the one that we
		// just parsed was the index.
		if p.ts.Tok().Is(Comma) {
			p.ts.Lex()

			if !hasIndex {
				p.error(regSpan.Start, ErrInvalidIndexedAddress, "invalid use of indexed addressing")
				return nil, ParseFail
			}

			index = reg
			reg, _, ok = p.parseAddrRegister(kind)
			if !ok {
				return nil, ParseFail
			}
		}
		base = reg

		// Consume the closing parenthesis.
		t := p.ts.Tok()
		if !t.Is(RParen) {
			p.error(t.Pos, ErrUnclosedAddress, "missing ')' in address")
			return nil, ParseFail
		}
		span.End = t.End()
		p.ts.Lex()
	}

	m, err := NewMemOp(kind, base, index, disp, Span{Start: start.Pos, End: span.End}, hasIndex)
	if err != nil {
		p.error(start.Pos, ErrInvalidIndexedAddress, "invalid use of indexed addressing")
		return nil, ParseFail
	}
	return m, Success
}

// ParseRegister parses a general or floating point register outside of an
// instruction operand list, such as in a directive.
func (p *Parser) ParseRegister() (isa.Reg, Span, error) {
	p.err = nil
	r, res := p.scanRegister()
	if res != Success {
		return isa.NoReg, r.span, p.error(p.ts.Tok().Pos, ErrInvalidRegister, "register expected")
	}

	var reg isa.Reg
	var err error
	switch r.prefix {
	case 'x':
		reg, err = ResolveRegister(isa.GR32Reg, r.prefix, r.index, false)
	case 'f':
		reg, err = ResolveRegister(isa.FP32Reg, r.prefix, r.index, false)
	default:
		err = ErrInvalidRegister
	}
	if err != nil {
		return isa.NoReg, r.span, p.error(r.span.Start, ErrInvalidRegister, "invalid register")
	}
	return reg, r.span, nil
}

// MatchAndEmit matches a parsed operand list against the instruction forms
// and sends the selected instruction to the streamer. Match failures are
// reported as diagnostics and returned.
func (p *Parser) MatchAndEmit(loc Span, ops []Operand, out Streamer) error {
	p.err = nil
	res := p.cfg.Matcher.Match(ops, p.cfg.Features)

	switch res.Kind {
	case MatchSuccess:
		inst := res.Inst
		inst.Loc = loc.Start
		return out.EmitInstruction(inst)

	case MatchMissingFeature:
		var b strings.Builder
		b.WriteString("instruction requires:")
		for i := 0; i < 32; i++ {
			if res.Missing&(1<<i) != 0 {
				b.WriteString(" ")
				b.WriteString(p.cfg.Matcher.FeatureName(i))
			}
		}
		return p.error(loc.Start, ErrMissingFeature, "%s", b.String())

	case MatchInvalidOperand:
		pos := loc.Start
		if res.ErrorOperand != UnknownOperand {
			if res.ErrorOperand >= len(ops) {
				return p.error(loc.Start, ErrInvalidOperand, "too few operands for instruction")
			}
			if s := ops[res.ErrorOperand].Span(); s.Start != (Pos{}) {
				pos = s.Start
			}
		}
		return p.error(pos, ErrInvalidOperand, "invalid operand for instruction")

	default:
		return p.error(loc.Start, ErrMnemonicFail, "invalid instruction")
	}
}

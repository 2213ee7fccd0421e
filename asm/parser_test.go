// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"errors"
	"testing"

	"github.com/beevik/rvasm/isa"
	"github.com/google/go-cmp/cmp"
)

const allFeatures = isa.FeatureMul | isa.FeatureAtomic | isa.FeatureFloat |
	isa.FeatureDouble | isa.FeatureQuad | isa.Feature64Bit

// Parse the operands of a single instruction line.
func parseOps(line string, m Matcher, features isa.Feature) (*Parser, []Operand, DiagList, *Lexer, error) {
	var diags DiagList
	lx := NewLexer(0, 1, line)
	mnemonic := lx.Tok()
	lx.Lex()
	p := NewParser(lx, ParserConfig{Matcher: m, Sink: &diags, Features: features})
	ops, err := p.ParseInstruction(mnemonic.Text, mnemonic.Span())
	return p, ops, diags, lx, err
}

func opStrings(ops []Operand) []string {
	s := make([]string, len(ops))
	for i, op := range ops {
		s[i] = op.String()
	}
	return s
}

func TestParseOperands(t *testing.T) {
	tests := []struct {
		line string
		exp  []string
	}{
		{"ecall", []string{"Token:ecall"}},
		{"add %x1, %x2, %x3", []string{"Token:add", "Reg:GR32Reg:x1", "Reg:GR32Reg:x2", "Reg:GR32Reg:x3"}},
		{"add %x1, %x2, 5", []string{"Token:add", "Reg:GR32Reg:x1", "Reg:GR32Reg:x2", "Imm:5"}},
		{"addi %x1, %x2, 2*(3+1)", []string{"Token:addi", "Reg:GR32Reg:x1", "Reg:GR32Reg:x2", "Imm:8"}},
		{"lw %x1, 4(%x2)", []string{"Token:lw", "Reg:GR32Reg:x1", "Mem:ADDR32Reg:4(none,x2)"}},
		{"lw %x1, 16", []string{"Token:lw", "Reg:GR32Reg:x1", "Mem:ADDR32Reg:16(none,none)"}},
		{"lw %x1, (4)(%x2)", []string{"Token:lw", "Reg:GR32Reg:x1", "Mem:ADDR32Reg:4(none,x2)"}},
		{"lwx %x3, 8(%x1,%x2)", []string{"Token:lwx", "Reg:GR32Reg:x3", "Mem:ADDR64Reg:8(x1,x2)"}},
		{"lwx %x3, 8(%x2)", []string{"Token:lwx", "Reg:GR32Reg:x3", "Mem:ADDR64Reg:8(none,x2)"}},
		{"ld %x1, -8(%x2)", []string{"Token:ld", "Reg:GR64Reg:x1", "Mem:ADDR64Reg:-8(none,x2)"}},
		{"ear %x1, %a3", []string{"Token:ear", "Reg:GR32Reg:x1", "AccessReg:3"}},
		{"rdpc %x1, %p0", []string{"Token:rdpc", "Reg:GR32Reg:x1", "Reg:PCReg:pc"}},
		{"mvq %x2, %x4", []string{"Token:mvq", "Reg:GR128Reg:xp2", "Reg:GR128Reg:xp4"}},
		{"fadd.q %f0, %f1, %f4", []string{"Token:fadd.q", "Reg:FP128Reg:fq0", "Reg:FP128Reg:fq1", "Reg:FP128Reg:fq4"}},
		{"beq %x1, %x2, loop", []string{"Token:beq", "Reg:GR32Reg:x1", "Reg:GR32Reg:x2", "Imm:loop"}},
		{"jal target", []string{"Token:jal", "Imm:target"}},
		{"jal %x1, target+4", []string{"Token:jal", "Reg:GR32Reg:x1", "Imm:target + 4"}},
		{"fence 1, 2", []string{"Token:fence", "Imm:1", "Imm:2"}},
		{"frob 1, 2", []string{"Token:frob", "Imm:1", "Imm:2"}},
		{"ADD %x1, %x2, %x3", []string{"Token:ADD", "Reg:GR32Reg:x1", "Reg:GR32Reg:x2", "Reg:GR32Reg:x3"}},
	}

	m := NewTableMatcher(isa.Forms)
	for _, test := range tests {
		_, ops, diags, lx, err := parseOps(test.line, m, allFeatures)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", test.line, err)
			continue
		}
		if len(diags) != 0 {
			t.Errorf("%q: unexpected diagnostics: %v", test.line, diags)
		}
		if diff := cmp.Diff(test.exp, opStrings(ops)); diff != "" {
			t.Errorf("%q: operand mismatch (-want +got):\n%s", test.line, diff)
		}
		if !lx.Tok().Is(EOS) {
			t.Errorf("%q: statement not consumed", test.line)
		}
	}
}

func TestParseOperandErrors(t *testing.T) {
	tests := []struct {
		line   string
		kind   error
		msg    string
		column int
	}{
		{"lw %x1, 4(%x1,%x2)", ErrInvalidIndexedAddress, "invalid use of indexed addressing", 10},
		{"lw %x1, 4(%x1", ErrUnclosedAddress, "missing ')' in address", 13},
		{"lw %x1, 4(%x1 %x2)", ErrUnclosedAddress, "missing ')' in address", 14},
		{"lw %x1, 4(%x0)", ErrZeroRegisterInAddress, "%x0 used in an address", 10},
		{"lwx %x1, 4(%x2,%x0)", ErrZeroRegisterInAddress, "%x0 used in an address", 15},
		{"jr %x0", ErrZeroRegisterInAddress, "%x0 used in an address", 3},
		{"jrd %x0", ErrZeroRegisterInAddress, "%x0 used in an address", 4},
		{"add %x1, %x, %x3", ErrInvalidRegister, "invalid register", 9},
		{"lw %x1, 4(5)", ErrInvalidRegister, "register expected", 10},
		{"lw %x1, 4(%f1)", ErrInvalidRegister, "invalid register", 10},
		{"lw %x1, (%x2)", ErrInvalidExpression, "unexpected token in expression", 9},
		{"add %x1, %x16, %x3", ErrInvalidRegister, "invalid register", 9},
		{"add %x1, %f2, %x3", ErrInvalidRegister, "invalid register", 9},
		{"add %x1 %x2", ErrUnexpectedToken, "unexpected token in argument list", 8},
		{"addi %x1, %x2, (3", ErrInvalidExpression, "missing ')' in expression", 17},
		{"addi %x1, %x2, %x3", ErrInvalidExpression, "unknown token in expression", 15},
		{"ear %x1, %a16", ErrInvalidRegister, "invalid register", 9},
		{"jal %x40, target", ErrInvalidRegister, "invalid register", 4},
		{"frob %x1", ErrInvalidExpression, "unknown token in expression", 5},
	}

	m := NewTableMatcher(isa.Forms)
	for _, test := range tests {
		_, ops, diags, lx, err := parseOps(test.line, m, allFeatures)
		if err == nil {
			t.Errorf("%q: expected error, got operands %v", test.line, opStrings(ops))
			continue
		}
		if len(diags) != 1 {
			t.Errorf("%q: got %d diagnostics, expected 1", test.line, len(diags))
			continue
		}
		d := diags[0]
		if error(d) != err {
			t.Errorf("%q: returned error differs from reported diagnostic", test.line)
		}
		if !errors.Is(err, test.kind) {
			t.Errorf("%q: got kind %v, expected %v", test.line, d.Kind, test.kind)
		}
		if d.Msg != test.msg {
			t.Errorf("%q: got message %q, expected %q", test.line, d.Msg, test.msg)
		}
		if d.Pos.Column != test.column {
			t.Errorf("%q: got column %d, expected %d", test.line, d.Pos.Column, test.column)
		}
		if !lx.Tok().Is(EOS) {
			t.Errorf("%q: statement not discarded after error", test.line)
		}
	}
}

func TestParseMemoryOperand(t *testing.T) {
	_, ops, _, _, err := parseOps("lwx %x3, 8(%x1,%x2)", NewTableMatcher(isa.Forms), allFeatures)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := ops[2].(*MemOp)
	if !ok {
		t.Fatalf("operand 2 is %T", ops[2])
	}
	if m.Base != isa.X2 || m.Index != isa.X1 || m.RegKind != isa.ADDR64Reg {
		t.Errorf("got base %v index %v kind %v", m.Base, m.Index, m.RegKind)
	}
	if v, _ := m.Disp.Constant(); v != 8 {
		t.Errorf("got displacement %d", v)
	}
	exp := Span{Start: Pos{Line: 1, Column: 9}, End: Pos{Line: 1, Column: 19}}
	if m.Span() != exp {
		t.Errorf("got span %+v, expected %+v", m.Span(), exp)
	}
}

func TestParseRegister(t *testing.T) {
	tests := []struct {
		text string
		reg  isa.Reg
		ok   bool
	}{
		{"%x2", isa.X2, true},
		{"%f15", isa.F15, true},
		{"%x0", isa.X0, true},
		{"%a1", isa.NoReg, false},
		{"%x16", isa.NoReg, false},
		{"x2", isa.NoReg, false},
	}

	for _, test := range tests {
		p := NewParser(NewLexer(0, 1, test.text), ParserConfig{Matcher: NewTableMatcher(isa.Forms)})
		reg, _, err := p.ParseRegister()
		if (err == nil) != test.ok || reg != test.reg {
			t.Errorf("%q: got %v, %v", test.text, reg, err)
		}
	}
}

func TestOperandClasses(t *testing.T) {
	m := NewTableMatcher(isa.Forms)
	tests := []struct {
		mnemonic string
		index    int
		exp      []isa.OperandClass
	}{
		{"jal", 1, []isa.OperandClass{isa.OpPCRel, isa.OpGR32}},
		{"jal", 2, []isa.OperandClass{isa.OpPCRel}},
		{"JAL", 1, []isa.OperandClass{isa.OpPCRel, isa.OpGR32}},
		{"fence", 1, []isa.OperandClass{isa.OpU4Imm}},
		{"fence", 3, nil},
		{"add", 0, nil},
		{"frob", 1, nil},
	}

	for _, test := range tests {
		got := m.OperandClasses(test.mnemonic, test.index)
		if len(got) == 0 && len(test.exp) == 0 {
			continue
		}
		if diff := cmp.Diff(test.exp, got); diff != "" {
			t.Errorf("%s[%d] mismatch (-want +got):\n%s", test.mnemonic, test.index, diff)
		}
	}
}

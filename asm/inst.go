// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strings"

	"github.com/beevik/rvasm/isa"
)

// An MCKind identifies the type of a machine code operand.
type MCKind byte

// Machine code operand kinds.
const (
	MCReg  MCKind = iota // register
	MCImm                // constant immediate
	MCExpr               // symbolic expression, resolved later
)

// An MCOperand is one operand of a matched instruction, in the order the
// encoder expects.
type MCOperand struct {
	Kind MCKind
	Reg  isa.Reg
	Imm  int64
	Expr *Expr
	Loc  Pos // source position of an expression operand
}

// RegOperand returns a register machine code operand.
func RegOperand(r isa.Reg) MCOperand {
	return MCOperand{Kind: MCReg, Reg: r}
}

// ImmOperand returns a constant machine code operand.
func ImmOperand(v int64) MCOperand {
	return MCOperand{Kind: MCImm, Imm: v}
}

// ExprOperand returns a machine code operand for an expression. Constant
// expressions become immediates.
func ExprOperand(e *Expr) MCOperand {
	if v, ok := e.Constant(); ok {
		return ImmOperand(v)
	}
	return MCOperand{Kind: MCExpr, Expr: e}
}

func (o MCOperand) String() string {
	switch o.Kind {
	case MCReg:
		return o.Reg.String()
	case MCImm:
		return fmt.Sprintf("%d", o.Imm)
	default:
		return o.Expr.String()
	}
}

// An Inst is a matched instruction ready for encoding.
type Inst struct {
	Form     *isa.Form
	Operands []MCOperand
	Loc      Pos // location of the mnemonic
	Addr     int // address assigned by the assembler
}

func (i Inst) String() string {
	var b strings.Builder
	b.WriteString(i.Form.Name)
	for _, o := range i.Operands {
		b.WriteByte(' ')
		b.WriteString(o.String())
	}
	return "<" + b.String() + ">"
}

// A Streamer consumes matched instructions.
type Streamer interface {
	EmitInstruction(inst Inst) error
}

// An InstBuffer is a Streamer that collects every instruction it receives.
type InstBuffer struct {
	Insts []Inst
}

// EmitInstruction appends the instruction to the buffer.
func (b *InstBuffer) EmitInstruction(inst Inst) error {
	b.Insts = append(b.Insts, inst)
	return nil
}

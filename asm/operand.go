// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"math"

	"github.com/beevik/rvasm/isa"
)

// An Operand is one parsed element of an instruction line. The concrete
// type is one of *TokenOp, *RegOp, *AccessRegOp, *ImmOp or *MemOp.
type Operand interface {
	// Span returns the source range the operand was parsed from.
	Span() Span

	String() string

	operand()
}

// A TokenOp holds a literal spelling, such as the instruction mnemonic.
type TokenOp struct {
	Text string
	Loc  Span
}

// A RegOp holds a register belonging to one of the register kinds.
type RegOp struct {
	Kind isa.RegisterKind
	Reg  isa.Reg
	Loc  Span
}

// An AccessRegOp holds an access register number in the range 0-15.
type AccessRegOp struct {
	Num int
	Loc Span
}

// An ImmOp holds a constant or symbolic immediate value.
type ImmOp struct {
	Expr *Expr
	Loc  Span
}

// A MemOp holds a displacement with optional base and index registers.
// Use NewMemOp to create one.
type MemOp struct {
	RegKind isa.RegisterKind // ADDR32Reg or ADDR64Reg
	Base    isa.Reg          // NoReg if absent
	Index   isa.Reg          // NoReg if absent
	Disp    *Expr
	Loc     Span
}

// NewMemOp creates a memory operand. If hasIndex is false the addressing
// mode does not permit an index register, and a non-zero index is
// rejected.
func NewMemOp(kind isa.RegisterKind, base, index isa.Reg, disp *Expr, loc Span, hasIndex bool) (*MemOp, error) {
	if index != isa.NoReg && !hasIndex {
		return nil, ErrInvalidIndexedAddress
	}
	if kind != isa.ADDR32Reg && kind != isa.ADDR64Reg {
		return nil, fmt.Errorf("register kind %v is not an address kind", kind)
	}
	return &MemOp{RegKind: kind, Base: base, Index: index, Disp: disp, Loc: loc}, nil
}

func (o *TokenOp) Span() Span     { return o.Loc }
func (o *RegOp) Span() Span       { return o.Loc }
func (o *AccessRegOp) Span() Span { return o.Loc }
func (o *ImmOp) Span() Span       { return o.Loc }
func (o *MemOp) Span() Span       { return o.Loc }

func (*TokenOp) operand()     {}
func (*RegOp) operand()       {}
func (*AccessRegOp) operand() {}
func (*ImmOp) operand()       {}
func (*MemOp) operand()       {}

func (o *TokenOp) String() string {
	return fmt.Sprintf("Token:%s", o.Text)
}

func (o *RegOp) String() string {
	return fmt.Sprintf("Reg:%v:%s", o.Kind, o.Reg)
}

func (o *AccessRegOp) String() string {
	return fmt.Sprintf("AccessReg:%d", o.Num)
}

func (o *ImmOp) String() string {
	return fmt.Sprintf("Imm:%s", o.Expr)
}

func (o *MemOp) String() string {
	return fmt.Sprintf("Mem:%v:%s(%s,%s)", o.RegKind, o.Disp, o.Index, o.Base)
}

//
// classification predicates
//

// Report whether an expression is a constant within [min, max].
// Symbolic expressions never fall within a range.
func inRange(e *Expr, min, max int64) bool {
	v, ok := e.Constant()
	return ok && v >= min && v <= max
}

// IsReg reports whether the operand is a register of the given kind.
func IsReg(op Operand, kind isa.RegisterKind) bool {
	r, ok := op.(*RegOp)
	return ok && r.Kind == kind
}

// IsAccessReg reports whether the operand is an access register.
func IsAccessReg(op Operand) bool {
	_, ok := op.(*AccessRegOp)
	return ok
}

// IsImm reports whether the operand is a constant immediate within
// [min, max].
func IsImm(op Operand, min, max int64) bool {
	i, ok := op.(*ImmOp)
	return ok && inRange(i.Expr, min, max)
}

// IsAnyImm reports whether the operand is an immediate, constant or not.
func IsAnyImm(op Operand) bool {
	_, ok := op.(*ImmOp)
	return ok
}

func IsU4Imm(op Operand) bool  { return IsImm(op, 0, 15) }
func IsU6Imm(op Operand) bool  { return IsImm(op, 0, 63) }
func IsU8Imm(op Operand) bool  { return IsImm(op, 0, 255) }
func IsS8Imm(op Operand) bool  { return IsImm(op, -128, 127) }
func IsU12Imm(op Operand) bool { return IsImm(op, 0, 4095) }
func IsS12Imm(op Operand) bool { return IsImm(op, -2048, 2047) }
func IsU16Imm(op Operand) bool { return IsImm(op, 0, 65535) }
func IsS16Imm(op Operand) bool { return IsImm(op, -32768, 32767) }
func IsU20Imm(op Operand) bool { return IsImm(op, 0, 1048575) }
func IsS20Imm(op Operand) bool { return IsImm(op, -524288, 524287) }
func IsU32Imm(op Operand) bool { return IsImm(op, 0, math.MaxUint32) }
func IsS32Imm(op Operand) bool { return IsImm(op, math.MinInt32, math.MaxInt32) }

// IsMem reports whether the operand is a memory operand using registers
// of the given kind. Operands with an index register only qualify when
// hasIndex is true.
func IsMem(op Operand, kind isa.RegisterKind, hasIndex bool) bool {
	m, ok := op.(*MemOp)
	return ok && m.RegKind == kind && (hasIndex || m.Index == isa.NoReg)
}

// IsMemDisp12 reports whether the operand is a memory operand with an
// unsigned 12-bit constant displacement.
func IsMemDisp12(op Operand, kind isa.RegisterKind, hasIndex bool) bool {
	return IsMem(op, kind, hasIndex) && inRange(op.(*MemOp).Disp, 0, 4095)
}

// IsMemDisp20 reports whether the operand is a memory operand with a
// signed 20-bit constant displacement.
func IsMemDisp20(op Operand, kind isa.RegisterKind, hasIndex bool) bool {
	return IsMem(op, kind, hasIndex) && inRange(op.(*MemOp).Disp, -524288, 524287)
}

func IsBDAddr32Disp12(op Operand) bool  { return IsMemDisp12(op, isa.ADDR32Reg, false) }
func IsBDAddr32Disp20(op Operand) bool  { return IsMemDisp20(op, isa.ADDR32Reg, false) }
func IsBDAddr64Disp12(op Operand) bool  { return IsMemDisp12(op, isa.ADDR64Reg, false) }
func IsBDAddr64Disp20(op Operand) bool  { return IsMemDisp20(op, isa.ADDR64Reg, false) }
func IsBDXAddr64Disp12(op Operand) bool { return IsMemDisp12(op, isa.ADDR64Reg, true) }
func IsBDXAddr64Disp20(op Operand) bool { return IsMemDisp20(op, isa.ADDR64Reg, true) }

// Predicates used by the table matcher, one per operand class.
var classPredicates = [...]func(op Operand) bool{
	isa.OpPCReg:           func(op Operand) bool { return IsReg(op, isa.PCReg) },
	isa.OpGR32:            func(op Operand) bool { return IsReg(op, isa.GR32Reg) },
	isa.OpGR64:            func(op Operand) bool { return IsReg(op, isa.GR64Reg) },
	isa.OpGR128:           func(op Operand) bool { return IsReg(op, isa.GR128Reg) },
	isa.OpADDR32:          func(op Operand) bool { return IsReg(op, isa.ADDR32Reg) },
	isa.OpADDR64:          func(op Operand) bool { return IsReg(op, isa.ADDR64Reg) },
	isa.OpFP32:            func(op Operand) bool { return IsReg(op, isa.FP32Reg) },
	isa.OpFP64:            func(op Operand) bool { return IsReg(op, isa.FP64Reg) },
	isa.OpFP128:           func(op Operand) bool { return IsReg(op, isa.FP128Reg) },
	isa.OpAccessReg:       IsAccessReg,
	isa.OpBDAddr32Disp12:  IsBDAddr32Disp12,
	isa.OpBDAddr32Disp20:  IsBDAddr32Disp20,
	isa.OpBDAddr64Disp12:  IsBDAddr64Disp12,
	isa.OpBDAddr64Disp20:  IsBDAddr64Disp20,
	isa.OpBDXAddr64Disp12: IsBDXAddr64Disp12,
	isa.OpBDXAddr64Disp20: IsBDXAddr64Disp20,
	isa.OpU4Imm:           IsU4Imm,
	isa.OpU6Imm:           IsU6Imm,
	isa.OpU8Imm:           IsU8Imm,
	isa.OpS8Imm:           IsS8Imm,
	isa.OpU12Imm:          IsU12Imm,
	isa.OpS12Imm:          IsS12Imm,
	isa.OpU16Imm:          IsU16Imm,
	isa.OpS16Imm:          IsS16Imm,
	isa.OpU20Imm:          IsU20Imm,
	isa.OpS20Imm:          IsS20Imm,
	isa.OpU32Imm:          IsU32Imm,
	isa.OpS32Imm:          IsS32Imm,
	isa.OpPCRel:           IsAnyImm,
}

// Report whether the operand satisfies the operand class.
func classMatches(c isa.OperandClass, op Operand) bool {
	if int(c) >= len(classPredicates) || classPredicates[c] == nil {
		return false
	}
	return classPredicates[c](op)
}

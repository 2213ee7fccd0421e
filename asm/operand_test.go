// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"errors"
	"math"
	"testing"

	"github.com/beevik/rvasm/isa"
)

func imm(v int64) Operand {
	return &ImmOp{Expr: NewConstExpr(v)}
}

func TestImmPredicates(t *testing.T) {
	tests := []struct {
		name string
		fn   func(Operand) bool
		min  int64
		max  int64
	}{
		{"U4", IsU4Imm, 0, 15},
		{"U6", IsU6Imm, 0, 63},
		{"U8", IsU8Imm, 0, 255},
		{"S8", IsS8Imm, -128, 127},
		{"U12", IsU12Imm, 0, 4095},
		{"S12", IsS12Imm, -2048, 2047},
		{"U16", IsU16Imm, 0, 65535},
		{"S16", IsS16Imm, -32768, 32767},
		{"U20", IsU20Imm, 0, 1048575},
		{"S20", IsS20Imm, -524288, 524287},
		{"U32", IsU32Imm, 0, math.MaxUint32},
		{"S32", IsS32Imm, math.MinInt32, math.MaxInt32},
	}

	for _, test := range tests {
		if !test.fn(imm(test.min)) || !test.fn(imm(test.max)) {
			t.Errorf("%s: range [%d, %d] rejected", test.name, test.min, test.max)
		}
		if test.fn(imm(test.min-1)) || test.fn(imm(test.max+1)) {
			t.Errorf("%s: value outside [%d, %d] accepted", test.name, test.min, test.max)
		}
	}
}

func TestSymbolicImm(t *testing.T) {
	op := &ImmOp{Expr: NewSymbolExpr("label")}
	if !IsAnyImm(op) {
		t.Error("IsAnyImm rejected a symbolic immediate")
	}
	if IsU12Imm(op) || IsS32Imm(op) {
		t.Error("ranged predicate accepted a symbolic immediate")
	}
	if !classMatches(isa.OpPCRel, op) {
		t.Error("PCRel rejected a symbolic immediate")
	}
	if IsAnyImm(&RegOp{Kind: isa.GR32Reg, Reg: isa.X1}) {
		t.Error("IsAnyImm accepted a register")
	}
}

func TestRegPredicates(t *testing.T) {
	op := &RegOp{Kind: isa.GR64Reg, Reg: isa.X3}
	if !IsReg(op, isa.GR64Reg) {
		t.Error("IsReg rejected a GR64 register")
	}
	if IsReg(op, isa.GR32Reg) || classMatches(isa.OpGR32, op) {
		t.Error("GR64 register matched GR32")
	}
	if !IsAccessReg(&AccessRegOp{Num: 2}) || IsAccessReg(op) {
		t.Error("IsAccessReg mismatch")
	}
}

func TestNewMemOp(t *testing.T) {
	disp := NewConstExpr(0)

	_, err := NewMemOp(isa.ADDR64Reg, isa.X2, isa.X1, disp, Span{}, false)
	if !errors.Is(err, ErrInvalidIndexedAddress) {
		t.Errorf("index without indexing: got %v", err)
	}

	if _, err := NewMemOp(isa.GR32Reg, isa.X2, isa.NoReg, disp, Span{}, false); err == nil {
		t.Error("non-address register kind accepted")
	}

	m, err := NewMemOp(isa.ADDR64Reg, isa.X2, isa.X1, disp, Span{}, true)
	if err != nil {
		t.Fatalf("NewMemOp: %v", err)
	}
	if m.Base != isa.X2 || m.Index != isa.X1 {
		t.Errorf("got base %v index %v", m.Base, m.Index)
	}
}

func TestMemPredicates(t *testing.T) {
	mem := func(kind isa.RegisterKind, index isa.Reg, disp int64) Operand {
		m, err := NewMemOp(kind, isa.X1, index, NewConstExpr(disp), Span{}, index != isa.NoReg)
		if err != nil {
			t.Fatalf("NewMemOp: %v", err)
		}
		return m
	}

	tests := []struct {
		name string
		fn   func(Operand) bool
		op   Operand
		exp  bool
	}{
		{"BD32/12 max", IsBDAddr32Disp12, mem(isa.ADDR32Reg, isa.NoReg, 4095), true},
		{"BD32/12 min", IsBDAddr32Disp12, mem(isa.ADDR32Reg, isa.NoReg, 0), true},
		{"BD32/12 over", IsBDAddr32Disp12, mem(isa.ADDR32Reg, isa.NoReg, 4096), false},
		{"BD32/12 negative", IsBDAddr32Disp12, mem(isa.ADDR32Reg, isa.NoReg, -1), false},
		{"BD32/12 wrong kind", IsBDAddr32Disp12, mem(isa.ADDR64Reg, isa.NoReg, 0), false},
		{"BD32/20 max", IsBDAddr32Disp20, mem(isa.ADDR32Reg, isa.NoReg, 524287), true},
		{"BD32/20 min", IsBDAddr32Disp20, mem(isa.ADDR32Reg, isa.NoReg, -524288), true},
		{"BD32/20 over", IsBDAddr32Disp20, mem(isa.ADDR32Reg, isa.NoReg, 524288), false},
		{"BD64/12", IsBDAddr64Disp12, mem(isa.ADDR64Reg, isa.NoReg, 8), true},
		{"BD64/12 indexed", IsBDAddr64Disp12, mem(isa.ADDR64Reg, isa.X2, 8), false},
		{"BD64/20", IsBDAddr64Disp20, mem(isa.ADDR64Reg, isa.NoReg, -8), true},
		{"BDX64/12 indexed", IsBDXAddr64Disp12, mem(isa.ADDR64Reg, isa.X2, 8), true},
		{"BDX64/12 plain", IsBDXAddr64Disp12, mem(isa.ADDR64Reg, isa.NoReg, 8), true},
		{"BDX64/20 under", IsBDXAddr64Disp20, mem(isa.ADDR64Reg, isa.X2, -524289), false},
		{"BD32/12 immediate", IsBDAddr32Disp12, imm(4), false},
	}

	for _, test := range tests {
		if got := test.fn(test.op); got != test.exp {
			t.Errorf("%s: got %v, expected %v", test.name, got, test.exp)
		}
	}

	sym := &MemOp{RegKind: isa.ADDR32Reg, Base: isa.X1, Disp: NewSymbolExpr("off")}
	if IsBDAddr32Disp12(sym) {
		t.Error("symbolic displacement accepted")
	}
}

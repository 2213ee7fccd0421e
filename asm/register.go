// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"github.com/beevik/rvasm/isa"
)

// A regTable maps the assembly numbers of one register kind to target
// registers. Slots holding isa.NoReg are reserved.
type regTable struct {
	prefix byte
	regs   [16]isa.Reg
}

var (
	gr32Regs = regTable{'x', [16]isa.Reg{
		isa.X0, isa.X1, isa.X2, isa.X3, isa.X4, isa.X5, isa.X6, isa.X7,
		isa.X8, isa.X9, isa.X10, isa.X11, isa.X12, isa.X13, isa.X14, isa.X15,
	}}

	gr128Regs = regTable{'x', [16]isa.Reg{
		isa.XP0, isa.NoReg, isa.XP2, isa.NoReg, isa.XP4, isa.NoReg, isa.XP6, isa.NoReg,
		isa.XP8, isa.NoReg, isa.XP10, isa.NoReg, isa.XP12, isa.NoReg, isa.XP14, isa.NoReg,
	}}

	fp32Regs = regTable{'f', [16]isa.Reg{
		isa.F0, isa.F1, isa.F2, isa.F3, isa.F4, isa.F5, isa.F6, isa.F7,
		isa.F8, isa.F9, isa.F10, isa.F11, isa.F12, isa.F13, isa.F14, isa.F15,
	}}

	fp128Regs = regTable{'f', [16]isa.Reg{
		isa.FQ0, isa.FQ1, isa.NoReg, isa.NoReg, isa.FQ4, isa.FQ5, isa.NoReg, isa.NoReg,
		isa.FQ8, isa.FQ9, isa.NoReg, isa.NoReg, isa.FQ12, isa.FQ13, isa.NoReg, isa.NoReg,
	}}

	pcRegs = regTable{'p', [16]isa.Reg{isa.PC}}
)

var regTables = [...]*regTable{
	isa.PCReg:     &pcRegs,
	isa.GR32Reg:   &gr32Regs,
	isa.GR64Reg:   &gr32Regs,
	isa.GR128Reg:  &gr128Regs,
	isa.ADDR32Reg: &gr32Regs,
	isa.ADDR64Reg: &gr32Regs,
	isa.FP32Reg:   &fp32Regs,
	isa.FP64Reg:   &fp32Regs,
	isa.FP128Reg:  &fp128Regs,
}

// Prefix character for access registers.
const accessRegPrefix = 'a'

// Parse a base-10 register number. It returns -1 if the text is empty or
// contains anything other than decimal digits.
func parseRegNum(s string) int {
	if len(s) == 0 || len(s) > 4 {
		return -1
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if !decimal(s[i]) {
			return -1
		}
		n = n*10 + int(s[i]-'0')
	}
	return n
}

// ResolveRegister maps a register prefix character and textual index to the
// target register of the requested kind. It fails with ErrInvalidRegister
// if the prefix does not belong to the kind, the index is not a base-10
// number between 0 and 15, or the index names a reserved slot. If isAddress
// is true, register 0 fails with ErrZeroRegisterInAddress.
func ResolveRegister(kind isa.RegisterKind, prefix byte, index string, isAddress bool) (isa.Reg, error) {
	if int(kind) >= len(regTables) {
		return isa.NoReg, ErrInvalidRegister
	}
	t := regTables[kind]

	n := parseRegNum(index)
	if prefix != t.prefix || n < 0 || n >= len(t.regs) || t.regs[n] == isa.NoReg {
		return isa.NoReg, ErrInvalidRegister
	}
	if n == 0 && isAddress {
		return isa.NoReg, ErrZeroRegisterInAddress
	}
	return t.regs[n], nil
}

// ResolveAccessRegister maps an access register prefix and textual index to
// an access register number.
func ResolveAccessRegister(prefix byte, index string) (int, error) {
	n := parseRegNum(index)
	if prefix != accessRegPrefix || n < 0 || n > 15 {
		return 0, ErrInvalidRegister
	}
	return n, nil
}

// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isa

import "fmt"

// A Reg is a target-level register number. The zero value means "no
// register".
type Reg uint16

// All registers known to the target.
const (
	NoReg Reg = iota
	PC

	X0
	X1
	X2
	X3
	X4
	X5
	X6
	X7
	X8
	X9
	X10
	X11
	X12
	X13
	X14
	X15
	X16
	X17
	X18
	X19
	X20
	X21
	X22
	X23
	X24
	X25
	X26
	X27
	X28
	X29
	X30
	X31

	F0
	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
	F13
	F14
	F15
	F16
	F17
	F18
	F19
	F20
	F21
	F22
	F23
	F24
	F25
	F26
	F27
	F28
	F29
	F30
	F31

	// 128-bit general register pairs, named after the even register.
	XP0
	XP2
	XP4
	XP6
	XP8
	XP10
	XP12
	XP14

	// 128-bit floating point register pairs.
	FQ0
	FQ1
	FQ4
	FQ5
	FQ8
	FQ9
	FQ12
	FQ13

	numRegs
)

// Register naming data.
type regInfo struct {
	name   string
	prefix byte // prefix character used in assembly source
	num    int  // number following the prefix
}

var regs [numRegs]regInfo

func init() {
	regs[NoReg] = regInfo{"none", 0, -1}
	regs[PC] = regInfo{"pc", 'p', 0}
	for i := 0; i < 32; i++ {
		regs[X0+Reg(i)] = regInfo{fmt.Sprintf("x%d", i), 'x', i}
		regs[F0+Reg(i)] = regInfo{fmt.Sprintf("f%d", i), 'f', i}
	}
	for i := 0; i < 8; i++ {
		regs[XP0+Reg(i)] = regInfo{fmt.Sprintf("xp%d", i*2), 'x', i * 2}
	}
	for i, n := range []int{0, 1, 4, 5, 8, 9, 12, 13} {
		regs[FQ0+Reg(i)] = regInfo{fmt.Sprintf("fq%d", n), 'f', n}
	}
}

// String returns the canonical register name.
func (r Reg) String() string {
	if r >= numRegs {
		return fmt.Sprintf("reg(%d)", int(r))
	}
	return regs[r].name
}

// Prefix returns the character that introduces the register's number in
// assembly source, or 0 for NoReg.
func (r Reg) Prefix() byte {
	if r >= numRegs {
		return 0
	}
	return regs[r].prefix
}

// Num returns the register's assembly number, i.e. the number written after
// its prefix character. NoReg returns -1.
func (r Reg) Num() int {
	if r >= numRegs {
		return -1
	}
	return regs[r].num
}

// A RegisterKind identifies the class a register operand belongs to.
type RegisterKind byte

// All register kinds.
const (
	PCReg RegisterKind = iota
	GR32Reg
	GR64Reg
	GR128Reg
	ADDR32Reg
	ADDR64Reg
	FP32Reg
	FP64Reg
	FP128Reg
)

var kindName = []string{
	"PCReg",
	"GR32Reg",
	"GR64Reg",
	"GR128Reg",
	"ADDR32Reg",
	"ADDR64Reg",
	"FP32Reg",
	"FP64Reg",
	"FP128Reg",
}

func (k RegisterKind) String() string {
	if int(k) < len(kindName) {
		return kindName[k]
	}
	return fmt.Sprintf("RegisterKind(%d)", int(k))
}

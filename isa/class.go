// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isa

import "fmt"

// An OperandClass describes the kind of operand an instruction form
// accepts at one operand position.
type OperandClass byte

// All operand classes.
const (
	OpPCReg OperandClass = iota
	OpGR32
	OpGR64
	OpGR128
	OpADDR32
	OpADDR64
	OpFP32
	OpFP64
	OpFP128
	OpAccessReg
	OpBDAddr32Disp12
	OpBDAddr32Disp20
	OpBDAddr64Disp12
	OpBDAddr64Disp20
	OpBDXAddr64Disp12
	OpBDXAddr64Disp20
	OpU4Imm
	OpU6Imm
	OpU8Imm
	OpS8Imm
	OpU12Imm
	OpS12Imm
	OpU16Imm
	OpS16Imm
	OpU20Imm
	OpS20Imm
	OpU32Imm
	OpS32Imm
	OpPCRel

	numClasses
)

type classData struct {
	name    string
	regKind RegisterKind
	isReg   bool
	isMem   bool
	index   bool // memory operand accepts an index register
}

var classes = [numClasses]classData{
	{"PCReg", PCReg, true, false, false},
	{"GR32", GR32Reg, true, false, false},
	{"GR64", GR64Reg, true, false, false},
	{"GR128", GR128Reg, true, false, false},
	{"ADDR32", ADDR32Reg, true, false, false},
	{"ADDR64", ADDR64Reg, true, false, false},
	{"FP32", FP32Reg, true, false, false},
	{"FP64", FP64Reg, true, false, false},
	{"FP128", FP128Reg, true, false, false},
	{"AccessReg", 0, false, false, false},
	{"BDAddr32Disp12", ADDR32Reg, false, true, false},
	{"BDAddr32Disp20", ADDR32Reg, false, true, false},
	{"BDAddr64Disp12", ADDR64Reg, false, true, false},
	{"BDAddr64Disp20", ADDR64Reg, false, true, false},
	{"BDXAddr64Disp12", ADDR64Reg, false, true, true},
	{"BDXAddr64Disp20", ADDR64Reg, false, true, true},
	{"U4Imm", 0, false, false, false},
	{"U6Imm", 0, false, false, false},
	{"U8Imm", 0, false, false, false},
	{"S8Imm", 0, false, false, false},
	{"U12Imm", 0, false, false, false},
	{"S12Imm", 0, false, false, false},
	{"U16Imm", 0, false, false, false},
	{"S16Imm", 0, false, false, false},
	{"U20Imm", 0, false, false, false},
	{"S20Imm", 0, false, false, false},
	{"U32Imm", 0, false, false, false},
	{"S32Imm", 0, false, false, false},
	{"PCRel", 0, false, false, false},
}

func (c OperandClass) String() string {
	if c < numClasses {
		return classes[c].name
	}
	return fmt.Sprintf("OperandClass(%d)", int(c))
}

// RegKind returns the register kind used by a register or memory operand
// class. The boolean is false for immediate and access register classes.
func (c OperandClass) RegKind() (RegisterKind, bool) {
	if c >= numClasses || !(classes[c].isReg || classes[c].isMem) {
		return 0, false
	}
	return classes[c].regKind, true
}

// IsReg reports whether the class is a register class.
func (c OperandClass) IsReg() bool {
	return c < numClasses && classes[c].isReg
}

// IsMem reports whether the class is a base/displacement memory class.
func (c OperandClass) IsMem() bool {
	return c < numClasses && classes[c].isMem
}

// HasIndex reports whether the class is a memory class that accepts an
// index register.
func (c OperandClass) HasIndex() bool {
	return c < numClasses && classes[c].index
}

// IsImm reports whether the class is an immediate class, including PCRel.
func (c OperandClass) IsImm() bool {
	return c >= OpU4Imm && c <= OpPCRel
}

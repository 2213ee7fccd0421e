// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm formats matched instructions back into assembly source
// text.
package disasm

import (
	"fmt"
	"strings"

	"github.com/beevik/rvasm/asm"
	"github.com/beevik/rvasm/isa"
)

// Format returns the assembly source text for a matched instruction. The
// text assembles back to the same instruction form and operands.
func Format(inst asm.Inst) string {
	var b strings.Builder
	b.WriteString(inst.Form.Mnemonic)

	ops := inst.Operands
	for i, c := range inst.Form.Operands {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}

		switch {
		case c.IsMem():
			n := 2
			if c.HasIndex() {
				n = 3
			}
			if len(ops) < n {
				b.WriteString("?")
				return b.String()
			}
			index := isa.NoReg
			if c.HasIndex() {
				index = ops[2].Reg
			}
			b.WriteString(address(ops[0].Reg, index, ops[1]))
			ops = ops[n:]

		case len(ops) == 0:
			b.WriteString("?")
			return b.String()

		case c == isa.OpAccessReg:
			fmt.Fprintf(&b, "%%a%d", ops[0].Imm)
			ops = ops[1:]

		default:
			b.WriteString(operand(ops[0]))
			ops = ops[1:]
		}
	}
	return b.String()
}

// Return the source text of a register.
func register(r isa.Reg) string {
	return fmt.Sprintf("%%%c%d", r.Prefix(), r.Num())
}

// Return the source text of a register or immediate operand.
func operand(op asm.MCOperand) string {
	switch op.Kind {
	case asm.MCReg:
		return register(op.Reg)
	case asm.MCImm:
		return fmt.Sprintf("%d", op.Imm)
	default:
		return op.Expr.String()
	}
}

// Return the source text of an address with optional base and index
// registers.
func address(base, index isa.Reg, disp asm.MCOperand) string {
	d := operand(disp)
	switch {
	case base == isa.NoReg:
		return d
	case index == isa.NoReg:
		return fmt.Sprintf("%s(%s)", d, register(base))
	default:
		return fmt.Sprintf("%s(%s,%s)", d, register(index), register(base))
	}
}

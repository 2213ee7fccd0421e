// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isa

import "strings"

// A Form describes one concrete encoding of an instruction mnemonic: the
// classes of its operands, the features it requires and its size in bytes.
type Form struct {
	Name     string         // unique form name
	Mnemonic string         // lower-case assembly mnemonic
	Operands []OperandClass // operand classes, not counting the mnemonic
	Features Feature        // features required by the form
	Size     int            // encoded size in bytes
}

// Operand class lists shared by many forms.
var (
	none     = []OperandClass{}
	rrr      = []OperandClass{OpGR32, OpGR32, OpGR32}
	rri      = []OperandClass{OpGR32, OpGR32, OpS12Imm}
	rrsh     = []OperandClass{OpGR32, OpGR32, OpU6Imm}
	rrb      = []OperandClass{OpGR32, OpGR32, OpPCRel}
	ru20     = []OperandClass{OpGR32, OpU20Imm}
	rm12     = []OperandClass{OpGR32, OpBDAddr32Disp12}
	rrm12    = []OperandClass{OpGR32, OpGR32, OpBDAddr32Disp12}
	rrr64    = []OperandClass{OpGR64, OpGR64, OpGR64}
	fff32    = []OperandClass{OpFP32, OpFP32, OpFP32}
	fff64    = []OperandClass{OpFP64, OpFP64, OpFP64}
	fff128   = []OperandClass{OpFP128, OpFP128, OpFP128}
	csrReg   = []OperandClass{OpGR32, OpU12Imm, OpGR32}
	csrImm   = []OperandClass{OpGR32, OpU12Imm, OpU4Imm}
	fenceOps = []OperandClass{OpU4Imm, OpU4Imm}
)

// Forms holds every instruction form known to the target, grouped by
// mnemonic. Forms sharing a mnemonic are tried in table order.
var Forms = []Form{
	// Integer register-register
	{"ADD", "add", rrr, 0, 4},
	{"SUB", "sub", rrr, 0, 4},
	{"SLL", "sll", rrr, 0, 4},
	{"SLT", "slt", rrr, 0, 4},
	{"SLTU", "sltu", rrr, 0, 4},
	{"XOR", "xor", rrr, 0, 4},
	{"SRL", "srl", rrr, 0, 4},
	{"SRA", "sra", rrr, 0, 4},
	{"OR", "or", rrr, 0, 4},
	{"AND", "and", rrr, 0, 4},

	// Integer register-immediate
	{"ADDI", "addi", rri, 0, 4},
	{"SLTI", "slti", rri, 0, 4},
	{"SLTIU", "sltiu", rri, 0, 4},
	{"XORI", "xori", rri, 0, 4},
	{"ORI", "ori", rri, 0, 4},
	{"ANDI", "andi", rri, 0, 4},
	{"SLLI", "slli", rrsh, 0, 4},
	{"SRLI", "srli", rrsh, 0, 4},
	{"SRAI", "srai", rrsh, 0, 4},
	{"LUI", "lui", ru20, 0, 4},
	{"AUIPC", "auipc", ru20, 0, 4},

	// Immediate loads
	{"LI", "li", []OperandClass{OpGR32, OpS32Imm}, 0, 8},
	{"LIU", "liu", []OperandClass{OpGR32, OpU32Imm}, 0, 8},
	{"LHI", "lhi", []OperandClass{OpGR32, OpS16Imm}, 0, 4},
	{"LLI", "lli", []OperandClass{OpGR32, OpU16Imm}, 0, 4},
	{"LIS", "lis", []OperandClass{OpGR32, OpS20Imm}, 0, 4},

	// Loads and stores
	{"LB", "lb", rm12, 0, 4},
	{"LH", "lh", rm12, 0, 4},
	{"LW", "lw", rm12, 0, 4},
	{"LBU", "lbu", rm12, 0, 4},
	{"LHU", "lhu", rm12, 0, 4},
	{"SB", "sb", rm12, 0, 4},
	{"SH", "sh", rm12, 0, 4},
	{"SW", "sw", rm12, 0, 4},
	{"LWX", "lwx", []OperandClass{OpGR32, OpBDXAddr64Disp12}, 0, 4},
	{"SWX", "swx", []OperandClass{OpGR32, OpBDXAddr64Disp12}, 0, 4},
	{"LEA", "lea", []OperandClass{OpGR32, OpBDAddr32Disp20}, 0, 4},
	{"LWY", "lwy", []OperandClass{OpGR32, OpBDAddr64Disp20}, 0, 6},
	{"LD", "ld", []OperandClass{OpGR64, OpBDAddr64Disp12}, Feature64Bit, 4},
	{"SD", "sd", []OperandClass{OpGR64, OpBDAddr64Disp12}, Feature64Bit, 4},
	{"LDX", "ldx", []OperandClass{OpGR64, OpBDXAddr64Disp20}, Feature64Bit, 6},
	{"LQ", "lq", []OperandClass{OpGR128, OpBDXAddr64Disp20}, Feature64Bit, 6},

	// Branches and jumps
	{"BEQ", "beq", rrb, 0, 4},
	{"BNE", "bne", rrb, 0, 4},
	{"BLT", "blt", rrb, 0, 4},
	{"BGE", "bge", rrb, 0, 4},
	{"BLTU", "bltu", rrb, 0, 4},
	{"BGEU", "bgeu", rrb, 0, 4},
	{"JAL0", "jal", []OperandClass{OpPCRel}, 0, 4},
	{"JAL", "jal", []OperandClass{OpGR32, OpPCRel}, 0, 4},
	{"JALR", "jalr", rri, 0, 4},
	{"JR", "jr", []OperandClass{OpADDR32}, 0, 4},
	{"JRD", "jrd", []OperandClass{OpADDR64}, Feature64Bit, 4},
	{"RDPC", "rdpc", []OperandClass{OpGR32, OpPCReg}, 0, 4},

	// System
	{"CSRRW", "csrrw", csrReg, 0, 4},
	{"CSRRS", "csrrs", csrReg, 0, 4},
	{"CSRRC", "csrrc", csrReg, 0, 4},
	{"CSRRWI", "csrrwi", csrImm, 0, 4},
	{"CSRRSI", "csrrsi", csrImm, 0, 4},
	{"CSRRCI", "csrrci", csrImm, 0, 4},
	{"FENCE0", "fence", none, 0, 4},
	{"FENCE", "fence", fenceOps, 0, 4},
	{"FENCEI", "fence.i", none, 0, 4},
	{"ECALL", "ecall", none, 0, 4},
	{"EBREAK", "ebreak", none, 0, 4},

	// Access registers
	{"EAR", "ear", []OperandClass{OpGR32, OpAccessReg}, 0, 4},
	{"SAR", "sar", []OperandClass{OpAccessReg, OpGR32}, 0, 4},

	// Compressed
	{"CLI", "c.li", []OperandClass{OpGR32, OpS8Imm}, 0, 2},
	{"CADDI4SPN", "c.addi4spn", []OperandClass{OpGR32, OpU8Imm}, 0, 2},

	// Multiply and divide
	{"MUL", "mul", rrr, FeatureMul, 4},
	{"MULH", "mulh", rrr, FeatureMul, 4},
	{"MULHSU", "mulhsu", rrr, FeatureMul, 4},
	{"MULHU", "mulhu", rrr, FeatureMul, 4},
	{"DIV", "div", rrr, FeatureMul, 4},
	{"DIVU", "divu", rrr, FeatureMul, 4},
	{"REM", "rem", rrr, FeatureMul, 4},
	{"REMU", "remu", rrr, FeatureMul, 4},

	// Atomics
	{"LRW", "lr.w", rm12, FeatureAtomic, 4},
	{"SCW", "sc.w", rrm12, FeatureAtomic, 4},
	{"AMOSWAPW", "amoswap.w", rrm12, FeatureAtomic, 4},
	{"AMOADDW", "amoadd.w", rrm12, FeatureAtomic, 4},

	// 64-bit and register pair
	{"ADDW", "addw", rrr64, Feature64Bit, 4},
	{"SUBW", "subw", rrr64, Feature64Bit, 4},
	{"MULW", "mulw", rrr64, FeatureMul | Feature64Bit, 4},
	{"ADDIW", "addiw", []OperandClass{OpGR64, OpGR64, OpS12Imm}, Feature64Bit, 4},
	{"MVQ", "mvq", []OperandClass{OpGR128, OpGR128}, Feature64Bit, 4},

	// Floating point
	{"FADDS", "fadd.s", fff32, FeatureFloat, 4},
	{"FSUBS", "fsub.s", fff32, FeatureFloat, 4},
	{"FMULS", "fmul.s", fff32, FeatureFloat, 4},
	{"FDIVS", "fdiv.s", fff32, FeatureFloat, 4},
	{"FADDD", "fadd.d", fff64, FeatureDouble, 4},
	{"FSUBD", "fsub.d", fff64, FeatureDouble, 4},
	{"FMULD", "fmul.d", fff64, FeatureDouble, 4},
	{"FDIVD", "fdiv.d", fff64, FeatureDouble, 4},
	{"FADDQ", "fadd.q", fff128, FeatureQuad, 4},
	{"FSUBQ", "fsub.q", fff128, FeatureQuad, 4},
	{"FSQRTQ", "fsqrt.q", []OperandClass{OpFP128, OpFP128}, FeatureQuad, 4},
	{"FLW", "flw", []OperandClass{OpFP32, OpBDAddr32Disp12}, FeatureFloat, 4},
	{"FSW", "fsw", []OperandClass{OpFP32, OpBDAddr32Disp12}, FeatureFloat, 4},
	{"FLD", "fld", []OperandClass{OpFP64, OpBDAddr32Disp12}, FeatureDouble, 4},
	{"FSD", "fsd", []OperandClass{OpFP64, OpBDAddr32Disp12}, FeatureDouble, 4},
	{"FMVXW", "fmv.x.w", []OperandClass{OpGR32, OpFP32}, FeatureFloat, 4},
	{"FMVWX", "fmv.w.x", []OperandClass{OpFP32, OpGR32}, FeatureFloat, 4},
	{"FCVTDS", "fcvt.d.s", []OperandClass{OpFP64, OpFP32}, FeatureDouble, 4},
}

var variants map[string][]*Form

func init() {
	variants = make(map[string][]*Form)
	for i := range Forms {
		f := &Forms[i]
		variants[f.Mnemonic] = append(variants[f.Mnemonic], f)
	}
}

// Lookup returns all forms whose mnemonic matches the provided string,
// ignoring case.
func Lookup(mnemonic string) []*Form {
	return variants[strings.ToLower(mnemonic)]
}

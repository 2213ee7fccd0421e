// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"math/bits"
	"strings"

	"github.com/beevik/rvasm/isa"
	"github.com/samber/lo"
)

// A MatchKind identifies the outcome of matching an operand list against
// the instruction forms of a mnemonic.
type MatchKind byte

// Match outcomes.
const (
	MatchSuccess MatchKind = iota
	MatchMissingFeature
	MatchInvalidOperand
	MatchMnemonicFail
)

var matchKindName = []string{
	"Success",
	"MissingFeature",
	"InvalidOperand",
	"MnemonicFail",
}

func (k MatchKind) String() string {
	return matchKindName[k]
}

// UnknownOperand is the ErrorOperand value used when the failing operand
// cannot be identified.
const UnknownOperand = -1

// A MatchResult is returned by a Matcher.
type MatchResult struct {
	Kind         MatchKind
	Inst         Inst        // matched instruction, for MatchSuccess
	Missing      isa.Feature // missing features, for MatchMissingFeature
	ErrorOperand int         // failing operand index, for MatchInvalidOperand
}

// A Matcher selects the instruction form for a parsed operand list. The
// first operand is always the *TokenOp holding the mnemonic.
type Matcher interface {
	// Match selects a form using the available features.
	Match(ops []Operand, available isa.Feature) MatchResult

	// OperandClasses returns the classes any form of the mnemonic accepts
	// at the operand index, where index 0 is the mnemonic itself.
	OperandClasses(mnemonic string, index int) []isa.OperandClass

	// FeatureName returns the name of a feature bit.
	FeatureName(bit int) string
}

// A TableMatcher is a Matcher driven by a table of instruction forms.
type TableMatcher struct {
	variants map[string][]*isa.Form
}

// NewTableMatcher creates a matcher over the provided forms. Forms that
// share a mnemonic are tried in the order given.
func NewTableMatcher(forms []isa.Form) *TableMatcher {
	m := &TableMatcher{variants: make(map[string][]*isa.Form)}
	for i := range forms {
		f := &forms[i]
		m.variants[f.Mnemonic] = append(m.variants[f.Mnemonic], f)
	}
	return m
}

// FeatureName returns the name of a feature bit.
func (m *TableMatcher) FeatureName(bit int) string {
	return isa.FeatureName(bit)
}

// OperandClasses returns the distinct classes accepted at an operand index
// by the forms of a mnemonic, in table order.
func (m *TableMatcher) OperandClasses(mnemonic string, index int) []isa.OperandClass {
	if index < 1 {
		return nil
	}
	forms := m.variants[strings.ToLower(mnemonic)]
	classes := lo.FilterMap(forms, func(f *isa.Form, _ int) (isa.OperandClass, bool) {
		if index > len(f.Operands) {
			return 0, false
		}
		return f.Operands[index-1], true
	})
	return lo.Uniq(classes)
}

// Match selects the first form whose operand classes accept the operand
// list and whose features are available. When no form matches, the result
// reports the operand that failed furthest into the list, or the smallest
// set of missing features if some form failed only on features.
func (m *TableMatcher) Match(ops []Operand, available isa.Feature) MatchResult {
	if len(ops) == 0 {
		return MatchResult{Kind: MatchMnemonicFail}
	}
	tok, ok := ops[0].(*TokenOp)
	if !ok {
		return MatchResult{Kind: MatchMnemonicFail}
	}

	forms := m.variants[strings.ToLower(tok.Text)]
	if len(forms) == 0 {
		return MatchResult{Kind: MatchMnemonicFail}
	}

	errorOperand := UnknownOperand
	hadFeatureFailure := false
	missing := ^isa.Feature(0)

	for _, f := range forms {
		if i, ok := matchOperands(f, ops); !ok {
			if i > errorOperand {
				errorOperand = i
			}
			continue
		}

		if !available.Has(f.Features) {
			hadFeatureFailure = true
			need := f.Features &^ available
			if bits.OnesCount32(uint32(need)) <= bits.OnesCount32(uint32(missing)) {
				missing = need
			}
			continue
		}

		return MatchResult{Kind: MatchSuccess, Inst: convert(f, ops)}
	}

	if hadFeatureFailure {
		return MatchResult{Kind: MatchMissingFeature, Missing: missing}
	}
	return MatchResult{Kind: MatchInvalidOperand, ErrorOperand: errorOperand}
}

// Check the operands against a form. On failure, return the index of the
// first operand that does not fit. An index equal to len(ops) means the
// list has too few operands.
func matchOperands(f *isa.Form, ops []Operand) (int, bool) {
	for i, c := range f.Operands {
		if i+1 >= len(ops) {
			return i + 1, false
		}
		if !classMatches(c, ops[i+1]) {
			return i + 1, false
		}
	}
	if len(ops)-1 > len(f.Operands) {
		return len(f.Operands) + 1, false
	}
	return 0, true
}

func exprOperandAt(e *Expr, pos Pos) MCOperand {
	mc := ExprOperand(e)
	if mc.Kind == MCExpr {
		mc.Loc = pos
	}
	return mc
}

// Convert parsed operands into machine code operands for the form.
func convert(f *isa.Form, ops []Operand) Inst {
	inst := Inst{Form: f}
	for i, c := range f.Operands {
		switch op := ops[i+1].(type) {
		case *RegOp:
			inst.Operands = append(inst.Operands, RegOperand(op.Reg))
		case *AccessRegOp:
			inst.Operands = append(inst.Operands, ImmOperand(int64(op.Num)))
		case *ImmOp:
			inst.Operands = append(inst.Operands, exprOperandAt(op.Expr, op.Loc.Start))
		case *MemOp:
			inst.Operands = append(inst.Operands, RegOperand(op.Base), exprOperandAt(op.Disp, op.Loc.Start))
			if c.HasIndex() {
				inst.Operands = append(inst.Operands, RegOperand(op.Index))
			}
		}
	}
	return inst
}

// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disasm

import (
	"strings"
	"testing"

	"github.com/beevik/rvasm/asm"
	"github.com/beevik/rvasm/isa"
)

const allFeatures = isa.FeatureMul | isa.FeatureAtomic | isa.FeatureFloat |
	isa.FeatureDouble | isa.FeatureQuad | isa.Feature64Bit

func matchOne(t *testing.T, line string) asm.Inst {
	t.Helper()
	var diags asm.DiagList
	lx := asm.NewLexer(0, 1, line)
	mnemonic := lx.Tok()
	lx.Lex()

	p := asm.NewParser(lx, asm.ParserConfig{
		Matcher:  asm.NewTableMatcher(isa.Forms),
		Sink:     &diags,
		Features: allFeatures,
	})
	ops, err := p.ParseInstruction(mnemonic.Text, mnemonic.Span())
	if err != nil {
		t.Fatalf("%q: %v", line, err)
	}
	var buf asm.InstBuffer
	if err := p.MatchAndEmit(mnemonic.Span(), ops, &buf); err != nil {
		t.Fatalf("%q: %v", line, err)
	}
	return buf.Insts[0]
}

func TestFormat(t *testing.T) {
	tests := []struct {
		line string
		exp  string
	}{
		{"add %x1, %x2, %x3", "add %x1, %x2, %x3"},
		{"ADDI %x1,%x2,-5", "addi %x1, %x2, -5"},
		{"lw %x1, 4(%x2)", "lw %x1, 4(%x2)"},
		{"lw %x1, 16", "lw %x1, 16"},
		{"lwx %x3, 8(%x1,%x2)", "lwx %x3, 8(%x1,%x2)"},
		{"lq %x2, -8(%x1,%x3)", "lq %x2, -8(%x1,%x3)"},
		{"ear %x1, %a3", "ear %x1, %a3"},
		{"rdpc %x1, %p0", "rdpc %x1, %p0"},
		{"fsqrt.q %f4, %f5", "fsqrt.q %f4, %f5"},
		{"beq %x1, %x2, loop+4", "beq %x1, %x2, loop + 4"},
		{"jal target", "jal target"},
		{"fence", "fence"},
		{"fence 0b11, 0x3", "fence 3, 3"},
	}

	for _, test := range tests {
		inst := matchOne(t, test.line)
		got := Format(inst)
		if got != test.exp {
			t.Errorf("%q: got %q, expected %q", test.line, got, test.exp)
		}

		again := matchOne(t, got)
		if again.String() != inst.String() {
			t.Errorf("%q: round trip gave %s, expected %s", test.line, again, inst)
		}
	}
}

func TestFormatAssembly(t *testing.T) {
	src := `
	.equ	N, 12
top:	addi	%x1, %x1, N
	sc.w	%x1, %x2, N*2(%x3)
	bne	%x1, %x0, top`

	a, _, err := asm.Assemble(strings.NewReader(src), "test", asm.Options{Features: allFeatures})
	if err != nil {
		t.Fatal(err)
	}

	exp := []string{
		"addi %x1, %x1, 12",
		"sc.w %x1, %x2, 24(%x3)",
		"bne %x1, %x0, 0",
	}
	for i, inst := range a.Insts {
		if got := Format(inst); got != exp[i] {
			t.Errorf("inst %d: got %q, expected %q", i, got, exp[i])
		}
	}
}

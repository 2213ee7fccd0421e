// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/rvasm/asm"
	"github.com/beevik/rvasm/config"
	"github.com/beevik/rvasm/target"
	"github.com/google/go-cmp/cmp"
)

func newHost(t *testing.T) *Host {
	t.Helper()
	h, err := New(target.Default(), config.Default())
	if err != nil {
		t.Fatal(err)
	}
	return h
}

// Run a script and return the host's output.
func run(h *Host, script string) string {
	var out bytes.Buffer
	h.RunCommands(strings.NewReader(script), &out, false)
	return out.String()
}

func checkOutput(t *testing.T, out string, expected ...string) {
	t.Helper()
	for _, e := range expected {
		if !strings.Contains(out, e) {
			t.Errorf("output missing %q:\n%s", e, out)
		}
	}
}

func TestNew(t *testing.T) {
	c := config.Default()
	c.Target = "bogus"
	if _, err := New(target.Default(), c); err == nil {
		t.Error("expected error for unknown target")
	}

	c = config.Default()
	c.Features = "vector"
	if _, err := New(target.Default(), c); err == nil {
		t.Error("expected error for unknown feature")
	}
}

func TestCommandLookup(t *testing.T) {
	tests := []struct {
		line string
		name string
		args []string
		rest string
		err  error
	}{
		{"", "", nil, "", nil},
		{"help", "help", []string{}, "", nil},
		{"? set", "help", []string{"set"}, "set", nil},
		{"ev 1 + 2", "evaluate", []string{"1", "+", "2"}, "1 + 2", nil},
		{"M  add %x1,\t%x2", "match", []string{"add", "%x1,", "%x2"}, "add %x1,\t%x2", nil},
		{"t", "targets", []string{}, "", nil},
		{"q", "quit", []string{}, "", nil},
		{"f", "features", []string{}, "", nil},
		{"bogus", "", nil, "", errNotFound},
	}

	for _, test := range tests {
		s, err := cmds.Lookup(test.line)
		if err != test.err {
			t.Errorf("Lookup(%q) error = %v, expected %v", test.line, err, test.err)
			continue
		}
		if err != nil || test.name == "" {
			if s.Command != nil {
				t.Errorf("Lookup(%q) returned command %s", test.line, s.Command.Name)
			}
			continue
		}
		if s.Command.Name != test.name {
			t.Errorf("Lookup(%q) = %s, expected %s", test.line, s.Command.Name, test.name)
		}
		if diff := cmp.Diff(test.args, s.Args); diff != "" {
			t.Errorf("Lookup(%q) args mismatch (-want +got):\n%s", test.line, diff)
		}
		if s.Rest != test.rest {
			t.Errorf("Lookup(%q) rest = %q, expected %q", test.line, s.Rest, test.rest)
		}
	}
}

func TestEvaluate(t *testing.T) {
	h := newHost(t)
	h.symbols["start"] = 0x1000

	out := run(h, "e 1+2*3\ne start+4\ne -5\ne nothing\n")
	checkOutput(t, out,
		"7 (0x7)\n",
		"4100 (0x1004)\n",
		"-5\n",
		"unresolved symbol 'nothing'\n",
	)
}

func TestRepeatLastCommand(t *testing.T) {
	h := newHost(t)
	out := run(h, "e 2*21\n\n")
	if n := strings.Count(out, "42 (0x2A)"); n != 2 {
		t.Errorf("expected command to run twice, ran %d times:\n%s", n, out)
	}
}

func TestUnknownCommand(t *testing.T) {
	h := newHost(t)
	out := run(h, "frobnicate\n")
	checkOutput(t, out, "Command not found.")
}

func TestQuit(t *testing.T) {
	h := newHost(t)
	out := run(h, "quit\ne 1\n")
	if strings.Contains(out, "1 (0x1)") {
		t.Errorf("command ran after quit:\n%s", out)
	}
}

func TestMatch(t *testing.T) {
	h := newHost(t)
	out := run(h, "match add %x1, %x2, %x3\n")
	checkOutput(t, out,
		"<ADD x1 x2 x3>\n",
		"    add %x1, %x2, %x3\n",
		"    size 4, requires none\n",
	)
}

func TestMatchErrors(t *testing.T) {
	h := newHost(t)
	out := run(h, "match mul %x1, %x2, %x3\nm add %x1, %x2\n")
	checkOutput(t, out,
		"Syntax error at col 1: instruction requires: mul\n",
		"Syntax error at col 1: too few operands for instruction\n",
	)

	out = run(h, "set features mul\nm mul %x1, %x2, %x3\n")
	checkOutput(t, out, "Setting updated.", "<MUL x1 x2 x3>")
}

func TestParse(t *testing.T) {
	h := newHost(t)
	out := run(h, "parse lw %x1, 8(%x2)\nparse add %x1 %x2\n")
	checkOutput(t, out,
		"  0: Token:lw\n",
		"  2: Mem:",
		"add %x1 %x2\n--------^\n",
		"Syntax error at col 9: unexpected token in argument list\n",
	)
	if strings.Contains(out, "([]asm.Operand)") {
		t.Errorf("operands dumped without verbose setting:\n%s", out)
	}

	h.settings.Verbose = true
	out = run(h, "parse ecall\n")
	checkOutput(t, out, "  0: Token:ecall\n", "([]asm.Operand)")
}

func TestSet(t *testing.T) {
	h := newHost(t)

	out := run(h, "set\n")
	checkOutput(t, out, "Variables:", "Target", "\"riscv32\"", "Origin", "0x0")

	run(h, "set origin 0x100\nset verb on\nset tar riscv64\n")
	if h.settings.Origin != 0x100 {
		t.Errorf("origin = %d", h.settings.Origin)
	}
	if !h.settings.Verbose {
		t.Error("verbose not set")
	}
	if h.target.Name != "riscv64" || h.settings.Target != "riscv64" {
		t.Errorf("target = %s", h.target.Name)
	}

	out = run(h, "set target sparc\n")
	checkOutput(t, out, "target not found")
	if h.target.Name != "riscv64" || h.settings.Target != "riscv64" {
		t.Errorf("failed update changed target to %s", h.settings.Target)
	}

	out = run(h, "set nothing 1\nset verbose maybe\n")
	checkOutput(t, out, "setting 'nothing' not found", "invalid bool value 'maybe'")
}

func TestFeatures(t *testing.T) {
	h := newHost(t)
	run(h, "set target riscv64\nset features mul\n")
	out := run(h, "features\n")
	checkOutput(t, out,
		"Features for target riscv64:\n",
		"  * mul\n",
		"    float\n",
		"  * 64bit\n",
	)

	run(h, "set features -64bit\n")
	out = run(h, "features\n")
	checkOutput(t, out, "    64bit\n", "    mul\n")
}

func TestTargets(t *testing.T) {
	h := newHost(t)
	out := run(h, "targets\n")
	checkOutput(t, out,
		"  * riscv32      32-bit RISC target\n",
		"    riscv64      64-bit RISC target\n",
	)
}

func TestHelp(t *testing.T) {
	h := newHost(t)
	out := run(h, "help\nhelp assemble\nhelp xyzzy\n")
	checkOutput(t, out,
		"rvasm commands:\n",
		"    assemble         Assemble a file\n",
		"Syntax: assemble <filename>\n",
		"Description:\n   Run the assembler",
		"command not found",
	)
}

func TestAssembleFile(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "prog.s")
	src := "start:\n\taddi\t%x1, %x0, 10\nloop:\tbne\t%x1, %x0, loop\n\tjal\tstart\n"
	if err := os.WriteFile(filename, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	h := newHost(t)
	out := run(h, "set origin 0x1000\nassemble "+filepath.Join(dir, "prog")+"\ne loop\n")
	checkOutput(t, out,
		"Assembled 'prog.s': 3 instructions, 12 bytes.\n",
		"4100 (0x1004)\n",
	)

	lst, err := os.ReadFile(filepath.Join(dir, "prog.lst"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(lst), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("listing has %d lines:\n%s", len(lines), lst)
	}
	if !strings.HasPrefix(lines[0], "00001000  addi %x1, %x0, 10") ||
		!strings.HasSuffix(lines[0], "addi\t%x1, %x0, 10") {
		t.Errorf("listing line 1 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "00001004  bne %x1, %x0, 4100") {
		t.Errorf("listing line 2 = %q", lines[1])
	}

	f, err := os.Open(filepath.Join(dir, "prog.map"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var sm asm.SourceMap
	if _, err := sm.ReadFrom(f); err != nil {
		t.Fatal(err)
	}
	if sm.Origin != 0x1000 || sm.Size != 12 {
		t.Errorf("source map origin %#x size %d", sm.Origin, sm.Size)
	}
	if _, line := sm.Search(0x1008); line != 4 {
		t.Errorf("address 0x1008 maps to line %d", line)
	}
}

func TestAssembleFileErrors(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "bad.s")
	if err := os.WriteFile(filename, []byte("\taddi %x1, %x0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	h := newHost(t)
	out := run(h, "assemble "+filename+"\n")
	checkOutput(t, out,
		"Failed to assemble 'bad.s'.\n",
		"too few operands for instruction\n",
		"\taddi %x1, %x0\n",
	)
	if _, err := os.Stat(filepath.Join(dir, "bad.map")); err == nil {
		t.Error("source map written for failed assembly")
	}

	out = run(h, "assemble "+filepath.Join(dir, "missing.s")+"\n")
	checkOutput(t, out, "Failed to open 'missing.s'")
}

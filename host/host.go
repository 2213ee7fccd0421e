// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host implements a command host around the assembler. Commands
// may be run from a script or typed interactively; they assemble files and
// inspect how single instruction lines are parsed and matched.
package host

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/beevik/rvasm/asm"
	"github.com/beevik/rvasm/config"
	"github.com/beevik/rvasm/disasm"
	"github.com/beevik/rvasm/isa"
	"github.com/beevik/rvasm/target"
	"github.com/davecgh/go-spew/spew"
	"github.com/samber/lo"
)

var cmds *commandTree

func init() {
	// Create a command tree, where the data stored with each command is a
	// host callback capable of handling the command.
	cmds = newCommandTree("rvasm", []command{
		{
			Name:        "help",
			Shortcut:    "?",
			Brief:       "Display help for a command",
			Description: "Display the list of commands, or the syntax and description of a single command.",
			Usage:       "help [<command>]",
			Data:        (*Host).cmdHelp,
		},
		{
			Name:     "assemble",
			Shortcut: "a",
			Brief:    "Assemble a file",
			Description: "Run the assembler on the specified file, producing a" +
				" source map file and, if the listing setting is enabled, a" +
				" listing file. Labels defined by the file become available to" +
				" expressions.",
			Usage: "assemble <filename>",
			Data:  (*Host).cmdAssemble,
		},
		{
			Name:        "evaluate",
			Shortcut:    "e",
			Brief:       "Evaluate an expression",
			Description: "Evaluate a mathematical expression. Labels from the most recently assembled file may be used.",
			Usage:       "evaluate <expression>",
			Data:        (*Host).cmdEval,
		},
		{
			Name:        "features",
			Brief:       "List instruction set features",
			Description: "List all instruction set features, marking the ones enabled for the current target.",
			Usage:       "features",
			Data:        (*Host).cmdFeatures,
		},
		{
			Name:     "match",
			Shortcut: "m",
			Brief:    "Parse and match an instruction",
			Description: "Parse a single line of assembly code and match it" +
				" against the instruction forms of the current target. The" +
				" selected form and its machine code operands are displayed.",
			Usage: "match <instruction>",
			Data:  (*Host).cmdMatch,
		},
		{
			Name:     "parse",
			Shortcut: "p",
			Brief:    "Parse an instruction's operands",
			Description: "Parse a single line of assembly code and display the" +
				" operand values produced by the parser, without matching" +
				" them against an instruction form.",
			Usage: "parse <instruction>",
			Data:  (*Host).cmdParse,
		},
		{
			Name:        "quit",
			Brief:       "Quit the program",
			Description: "Quit the program.",
			Usage:       "quit",
			Data:        (*Host).cmdQuit,
		},
		{
			Name:  "set",
			Brief: "Set a configuration variable",
			Description: "Set the value of a configuration variable. Type the set" +
				" command without a variable name or value to display the current" +
				" values of all configuration variables.",
			Usage: "set <var> <value>",
			Data:  (*Host).cmdSet,
		},
		{
			Name:        "targets",
			Brief:       "List assembly targets",
			Description: "List all registered assembly targets, marking the current one.",
			Usage:       "targets",
			Data:        (*Host).cmdTargets,
		},
	})
}

var dumper = spew.ConfigState{
	Indent:                  "    ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// A Host runs assembler commands read from a script or an interactive
// session.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	lastCmd     *selection
	registry    *target.Registry
	target      *target.Target
	features    isa.Feature
	matcher     asm.Matcher
	settings    *settings
	symbols     asm.SymbolTable
}

// New creates a host using the targets in the registry and the settings in
// the configuration.
func New(registry *target.Registry, c config.Config) (*Host, error) {
	h := &Host{
		output:   bufio.NewWriter(os.Stdout),
		registry: registry,
		settings: newSettings(c),
		symbols:  make(asm.SymbolTable),
	}
	if err := h.onSettingsUpdate(); err != nil {
		return nil, err
	}
	return h, nil
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the the next command to be entered.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	if interactive {
		h.printf("rvasm: target %s, features %v\n", h.target.Name, h.features)
	}

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			break
		}

		var c selection
		if line != "" {
			c, err = cmds.Lookup(line)
			switch {
			case err == errNotFound:
				h.println("Command not found.")
				continue
			case err == errAmbiguous:
				h.println("Command is ambiguous.")
				continue
			case err != nil:
				h.printf("ERROR: %v.\n", err)
				continue
			}
		} else if h.lastCmd != nil {
			c = *h.lastCmd
		}

		if c.Command == nil {
			continue
		}
		h.lastCmd = &c

		err = c.Command.Data(h, c)
		if err != nil {
			break
		}
	}
	h.flush()
}

// Flush writes any buffered output.
func (h *Host) Flush() {
	h.flush()
}

func (h *Host) print(args ...any) {
	fmt.Fprint(h.output, args...)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return h.input.Text(), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
		h.flush()
	}
}

// AssembleFile assembles a source file. On success it writes a source map
// file next to the source and, if enabled, a listing file. Diagnostics are
// printed to the host's output.
func (h *Host) AssembleFile(filename string) error {
	if filepath.Ext(filename) == "" {
		filename += ".s"
	}

	src, err := os.ReadFile(filename)
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filepath.Base(filename), err)
		return err
	}

	assembly, sourceMap, err := asm.Assemble(bytes.NewReader(src), filename, h.asmOptions())
	if err != nil {
		h.printf("Failed to assemble '%s'.\n", filepath.Base(filename))
		for i, e := range assembly.Errors {
			h.println(e)
			if caret := assembly.Diagnostics[i].Caret(); caret != "" {
				h.println(caret)
			}
		}
		return err
	}

	mapFilename := replaceExt(filename, ".map")
	if err := writeFile(mapFilename, sourceMap.WriteTo); err != nil {
		h.printf("Failed to write '%s': %v\n", filepath.Base(mapFilename), err)
		return err
	}

	if h.settings.Listing {
		lines := strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")
		lstFilename := replaceExt(filename, ".lst")
		err := writeFile(lstFilename, func(w io.Writer) (int64, error) {
			return writeListing(w, assembly, lines)
		})
		if err != nil {
			h.printf("Failed to write '%s': %v\n", filepath.Base(lstFilename), err)
			return err
		}
	}

	for name, addr := range assembly.Labels {
		h.symbols[name] = addr
	}

	h.printf("Assembled '%s': %d instructions, %d bytes.\n",
		filepath.Base(filename), len(assembly.Insts), sourceMap.Size)
	return nil
}

// Return the options used to assemble files.
func (h *Host) asmOptions() asm.Options {
	opts := asm.Options{
		Matcher:   h.matcher,
		Features:  h.features,
		Origin:    h.settings.Origin,
		MaxErrors: h.settings.MaxErrors,
	}
	if h.settings.Verbose {
		opts.Logger = slog.New(slog.NewTextHandler(h.output, &slog.HandlerOptions{
			Level: slog.LevelDebug,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					return slog.Attr{}
				}
				return a
			},
		}))
	}
	return opts
}

// Create a file and fill it using the write function.
func writeFile(filename string, fn func(w io.Writer) (int64, error)) error {
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	_, err = fn(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Write a listing of the assembled instructions, one line per instruction
// with its address, its formatted text and the source line it came from.
func writeListing(w io.Writer, a *asm.Assembly, lines []string) (int64, error) {
	var total int64
	for _, inst := range a.Insts {
		var src string
		if l := inst.Loc.Line; l > 0 && l <= len(lines) {
			src = strings.TrimSpace(lines[l-1])
		}
		n, err := fmt.Fprintf(w, "%08X  %-32s  %s\n", inst.Addr, disasm.Format(inst), src)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// A lineSink prints the diagnostics reported for a single line.
type lineSink struct {
	h    *Host
	line string
}

func (s lineSink) Report(d *asm.Diagnostic) {
	d.Source = s.line
	s.h.println(d.Caret())
	s.h.printf("Syntax error at col %d: %s\n", d.Pos.Column+1, d.Msg)
}

// Parse the operands of a single instruction line.
func (h *Host) parseLine(line string) (p *asm.Parser, ops []asm.Operand, loc asm.Span, ok bool) {
	lx := asm.NewLexer(0, 1, line)
	mnemonic := lx.Tok()
	if !mnemonic.Is(asm.Identifier) {
		h.println("Instruction expected.")
		return nil, nil, loc, false
	}
	lx.Lex()

	p = asm.NewParser(lx, asm.ParserConfig{
		Matcher:  h.matcher,
		Sink:     lineSink{h, line},
		Features: h.features,
		Symbols:  h.symbols,
	})
	ops, err := p.ParseInstruction(mnemonic.Text, mnemonic.Span())
	if err != nil {
		return nil, nil, loc, false
	}
	return p, ops, mnemonic.Span(), true
}

func (h *Host) cmdAssemble(c selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}
	h.AssembleFile(c.Args[0])
	return nil
}

func (h *Host) cmdEval(c selection) error {
	if c.Rest == "" {
		h.displayHelpText(c.Command)
		return nil
	}

	v, err := asm.EvalExpression(c.Rest, h.symbols)
	if err != nil {
		var d *asm.Diagnostic
		if errors.As(err, &d) {
			h.printf("%s\n", d.Msg)
		} else {
			h.printf("%v\n", err)
		}
		return nil
	}

	if v < 0 {
		h.printf("%d\n", v)
	} else {
		h.printf("%d (0x%X)\n", v, v)
	}
	return nil
}

func (h *Host) cmdFeatures(c selection) error {
	bits := lo.Filter(lo.Range(32), func(bit int, _ int) bool {
		return isa.FeatureName(bit) != ""
	})
	lines := lo.Map(bits, func(bit int, _ int) string {
		mark := " "
		if h.features.Has(1 << bit) {
			mark = "*"
		}
		return fmt.Sprintf("  %s %s", mark, isa.FeatureName(bit))
	})

	h.printf("Features for target %s:\n", h.target.Name)
	for _, l := range lines {
		h.println(l)
	}
	return nil
}

func (h *Host) cmdHelp(c selection) error {
	if len(c.Args) == 0 {
		h.displayCommands(cmds)
		return nil
	}

	s, err := cmds.Lookup(c.Rest)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	if s.Command.Usage != "" {
		h.printf("Syntax: %s\n\n", s.Command.Usage)
	}
	switch {
	case s.Command.Description != "":
		h.printf("Description:\n%s\n\n", indentWrap(3, s.Command.Description))
	case s.Command.Brief != "":
		h.printf("Description:\n%s.\n\n", indentWrap(3, s.Command.Brief))
	}
	return nil
}

func (h *Host) cmdMatch(c selection) error {
	if c.Rest == "" {
		h.displayHelpText(c.Command)
		return nil
	}

	p, ops, loc, ok := h.parseLine(c.Rest)
	if !ok {
		return nil
	}

	var buf asm.InstBuffer
	if err := p.MatchAndEmit(loc, ops, &buf); err != nil {
		return nil
	}

	inst := buf.Insts[0]
	h.printf("%s\n", inst)
	h.printf("    %s\n", disasm.Format(inst))
	h.printf("    size %d, requires %v\n", inst.Form.Size, inst.Form.Features)
	return nil
}

func (h *Host) cmdParse(c selection) error {
	if c.Rest == "" {
		h.displayHelpText(c.Command)
		return nil
	}

	_, ops, _, ok := h.parseLine(c.Rest)
	if !ok {
		return nil
	}

	for i, op := range ops {
		h.printf("  %d: %s\n", i, op)
	}
	if h.settings.Verbose {
		h.print(dumper.Sdump(ops))
		h.flush()
	}
	return nil
}

func (h *Host) cmdQuit(c selection) error {
	return errors.New("exiting program")
}

func (h *Host) cmdSet(c selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()

	case 1:
		h.displayHelpText(c.Command)

	default:
		key, value := strings.ToLower(c.Args[0]), strings.Join(c.Args[1:], " ")
		old := *h.settings

		var err error
		switch h.settings.Kind(key) {
		case reflect.Invalid:
			err = fmt.Errorf("setting '%s' not found", key)
		case reflect.String:
			err = h.settings.Set(key, value)
		case reflect.Bool:
			var v bool
			v, err = stringToBool(value)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		default:
			var v int64
			v, err = asm.EvalExpression(value, h.symbols)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		}

		if err == nil {
			err = h.onSettingsUpdate()
			if err != nil {
				*h.settings = old
				h.onSettingsUpdate()
			}
		}

		if err == nil {
			h.println("Setting updated.")
		} else {
			h.printf("%v\n", err)
		}
	}

	return nil
}

func (h *Host) cmdTargets(c selection) error {
	for _, name := range h.registry.Names() {
		t, _ := h.registry.Lookup(name)
		mark := " "
		if t == h.target {
			mark = "*"
		}
		h.printf("  %s %-12s %s\n", mark, t.Name, t.Description)
	}
	return nil
}

// Select the target and features named by the settings.
func (h *Host) onSettingsUpdate() error {
	t, err := h.registry.Lookup(h.settings.Target)
	if err != nil {
		return err
	}
	f, err := t.Features.Apply(h.settings.Features)
	if err != nil {
		return err
	}
	if h.settings.MaxErrors < 0 || h.settings.Origin < 0 {
		return errors.New("value must not be negative")
	}

	h.settings.Target = t.Name
	h.target, h.features, h.matcher = t, f, t.NewMatcher()
	return nil
}

func (h *Host) displayHelpText(c *command) {
	if c.Usage != "" {
		h.printf("Syntax: %s\n", c.Usage)
	} else {
		h.println("<no help text>")
	}
}

func (h *Host) displayCommands(commands *commandTree) {
	h.printf("%s commands:\n", commands.Title)
	for _, c := range commands.Commands {
		if c.Brief != "" {
			h.printf("    %-15s  %s\n", c.Name, c.Brief)
		}
	}
}

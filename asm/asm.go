// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements an assembly parser for a RISC instruction set. It
// turns register, immediate and memory operand syntax into operand values,
// matches them against the target's instruction forms and reports precise
// diagnostics when an instruction cannot be parsed or matched.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/beevik/rvasm/isa"
)

type directiveData struct {
	fn    func(a *assembler, name Token, param any) error
	param any
}

var directives = map[string]directiveData{
	".equ":                  {fn: (*assembler).parseEquate},
	".set":                  {fn: (*assembler).parseEquate},
	".globl":                {fn: (*assembler).parseGlobal},
	".global":               {fn: (*assembler).parseGlobal},
	".align":                {fn: (*assembler).parseAlign},
	".cfi_def_cfa":          {fn: (*assembler).parseCFI, param: CFIDefCFA},
	".cfi_offset":           {fn: (*assembler).parseCFI, param: CFIOffset},
	".cfi_def_cfa_register": {fn: (*assembler).parseCFI, param: CFIDefCFARegister},
}

// A CFIOp identifies a call frame information directive.
type CFIOp byte

// Call frame information directives.
const (
	CFIDefCFA         CFIOp = iota // .cfi_def_cfa reg, offset
	CFIOffset                      // .cfi_offset reg, offset
	CFIDefCFARegister              // .cfi_def_cfa_register reg
)

var cfiOpName = []string{".cfi_def_cfa", ".cfi_offset", ".cfi_def_cfa_register"}

func (op CFIOp) String() string {
	return cfiOpName[op]
}

// A CFIDirective records a call frame information directive and the
// address at which it takes effect.
type CFIDirective struct {
	Op     CFIOp
	Reg    isa.Reg
	Offset int64
	Addr   int
}

// An Export describes an exported address.
type Export struct {
	Label   string
	Address int
}

// Assembly contains the matched instructions and other data associated
// with an assembled source file.
type Assembly struct {
	Insts       []Inst           // Matched instructions in address order
	Labels      map[string]int64 // Label -> address
	Exports     []Export         // Exported labels
	CFI         []CFIDirective   // Call frame information directives
	Errors      []string         // Errors encountered during assembly
	Diagnostics []*Diagnostic    // Diagnostics behind the errors
}

// Options control the Assemble function.
type Options struct {
	Matcher   Matcher      // instruction matcher; defaults to the isa form table
	Features  isa.Feature  // features available to instructions
	Origin    int          // address of the first instruction
	MaxErrors int          // stop after this many errors if greater than 0
	Logger    *slog.Logger // receives verbose trace output if non-nil
}

// A global symbol declaration awaiting resolution.
type global struct {
	name string
	pos  Pos
}

// The assembler is a state object used during the assembly of
// instructions from assembly code.
type assembler struct {
	opts        Options
	r           io.Reader        // the reader passed to Assemble
	pc          int              // the program counter
	equates     SymbolTable      // constant symbols
	labels      map[string]int64 // label -> address
	globals     []global         // symbols declared global
	exports     []Export         // exported addresses
	cfi         []CFIDirective   // call frame directives
	insts       InstBuffer       // matched instructions
	sourceLines []SourceLine     // source code line mappings
	files       []string         // processed files
	sources     []string         // source text of each line read
	line        fstring          // line currently being parsed
	parser      *Parser          // instruction and operand parser
	diags       DiagList         // diagnostics encountered during assembly
	logger      *slog.Logger     // verbose output
}

// Assemble reads data from the provided stream and attempts to parse and
// match every instruction in it.
func Assemble(r io.Reader, filename string, opts Options) (*Assembly, *SourceMap, error) {
	if opts.Matcher == nil {
		opts.Matcher = NewTableMatcher(isa.Forms)
	}

	a := &assembler{
		opts:    opts,
		r:       r,
		pc:      opts.Origin,
		equates: make(SymbolTable),
		labels:  make(map[string]int64),
		files:   []string{filename},
		logger:  opts.Logger,
	}
	a.parser = NewParser(nil, ParserConfig{
		Matcher:  opts.Matcher,
		Sink:     a,
		Features: opts.Features,
		Symbols:  a.equates,
	})

	// Assembly consists of the following steps
	steps := []func(a *assembler) error{
		(*assembler).parse,          // Parse and match the assembly code
		(*assembler).resolveSymbols, // Resolve symbolic operands
		(*assembler).resolveGlobals, // Resolve exported symbols
	}

	// Execute assembler steps, breaking if an error is encountered
	// in any one of them.
	var err error
	for _, step := range steps {
		err = step(a)
		if err != nil {
			break
		}
		if len(a.diags) > 0 {
			err = errParse
			break
		}
	}

	errors := make([]string, 0, len(a.diags))
	for _, d := range a.diags {
		errors = append(errors, a.errorString(d))
	}

	assembly := &Assembly{
		Insts:       a.insts.Insts,
		Labels:      a.labels,
		Exports:     a.exports,
		CFI:         a.cfi,
		Errors:      errors,
		Diagnostics: a.diags,
	}

	sourceMap := &SourceMap{
		Origin:  a.opts.Origin,
		Size:    a.pc - a.opts.Origin,
		Files:   a.files,
		Lines:   a.sourceLines,
		Exports: a.exports,
	}

	return assembly, sourceMap, err
}

// Format a diagnostic the way it is presented to the user.
func (a *assembler) errorString(d *Diagnostic) string {
	filename := a.files[d.Pos.FileIndex]
	return fmt.Sprintf("Syntax error in '%s' line %d, col %d: %s", filename, d.Pos.Line, d.Pos.Column+1, d.Msg)
}

// Report implements DiagnosticSink.
func (a *assembler) Report(d *Diagnostic) {
	if d.Source == "" && d.Pos.Line > 0 && d.Pos.Line <= len(a.sources) {
		d.Source = a.sources[d.Pos.Line-1]
	}
	a.diags.Report(d)
	a.log("error", "pos", d.Pos.String(), "msg", d.Msg)
}

// Append an error message to the assembler's error state.
func (a *assembler) addError(pos Pos, kind error, format string, args ...any) error {
	d := &Diagnostic{Pos: pos, Kind: kind, Msg: fmt.Sprintf(format, args...)}
	a.Report(d)
	return d
}

// EmitInstruction implements Streamer. It assigns the instruction its
// address and records the source line mapping.
func (a *assembler) EmitInstruction(inst Inst) error {
	inst.Addr = a.pc
	a.insts.EmitInstruction(inst)
	a.sourceLines = append(a.sourceLines, SourceLine{
		Address:   a.pc,
		Size:      inst.Form.Size,
		FileIndex: a.line.fileIndex,
		Line:      a.line.row,
	})
	a.log("inst", "addr", fmt.Sprintf("%04X", a.pc), "form", inst.Form.Name, "ops", inst.String())
	a.pc += inst.Form.Size
	return nil
}

// Read the assembly code and parse it one line at a time.
func (a *assembler) parse() error {
	a.logSection("Parsing assembly code")

	scanner := bufio.NewScanner(a.r)
	row := 1
	for scanner.Scan() {
		text := scanner.Text()
		a.sources = append(a.sources, text)
		a.parseLine(newFstring(0, row, text))
		if a.opts.MaxErrors > 0 && len(a.diags) >= a.opts.MaxErrors {
			a.log("stopping", "errors", len(a.diags))
			return errTooManyErrs
		}
		row++
	}
	return scanner.Err()
}

// Parse a single line of assembly code. Errors never extend past the end
// of the line, so the line's diagnostics are the only failure signal.
func (a *assembler) parseLine(line fstring) {
	a.line = line
	lx := newLexer(line)
	if lx.Tok().Is(EOS) {
		return
	}
	a.logLine(line, "line")
	a.parser.Reset(lx)

	// Consume any labels.
	for lx.Tok().Is(Identifier) && lx.Peek().Is(Colon) {
		if a.storeLabel(lx.Tok()) != nil {
			return
		}
		lx.Lex()
		lx.Lex()
	}

	t := lx.Tok()
	switch {
	case t.Is(EOS):
		return
	case !t.Is(Identifier):
		a.addError(t.Pos, ErrUnexpectedToken, "unexpected token at start of statement")
		return
	}

	if strings.HasPrefix(t.Text, ".") {
		d, ok := directives[strings.ToLower(t.Text)]
		if !ok {
			a.addError(t.Pos, ErrUnknownDirective, "unknown directive '%s'", t.Text)
			return
		}
		lx.Lex()
		d.fn(a, t, d.param)
		return
	}

	a.parseInstruction(t)
}

// Parse and match an instruction whose mnemonic is the current token.
func (a *assembler) parseInstruction(mnemonic Token) {
	a.parser.ts.Lex()
	ops, err := a.parser.ParseInstruction(mnemonic.Text, mnemonic.Span())
	if err != nil {
		return
	}
	for i, op := range ops {
		a.logLine(a.line, "op%d=%s", i, op)
	}
	a.parser.MatchAndEmit(mnemonic.Span(), ops, a)
}

// Store a label at the current program counter.
func (a *assembler) storeLabel(t Token) error {
	if _, ok := a.labels[t.Text]; ok {
		return a.addError(t.Pos, ErrInvalidLabel, "label '%s' used more than once", t.Text)
	}
	if _, ok := a.equates[t.Text]; ok {
		return a.addError(t.Pos, ErrInvalidLabel, "label '%s' already defined as a constant", t.Text)
	}
	a.labels[t.Text] = int64(a.pc)
	a.log("label", "name", t.Text, "addr", fmt.Sprintf("%04X", a.pc))
	return nil
}

// Parse a constant expression for a directive.
func (a *assembler) parseConstant() (int64, Pos, error) {
	ts := a.parser.ts
	start := ts.Tok().Pos
	e, _, err := ParseExpression(ts, a.equates)
	if err != nil {
		var d *Diagnostic
		if de, ok := err.(*Diagnostic); ok {
			d = de
		} else {
			d = &Diagnostic{Pos: start, Kind: ErrInvalidExpression, Msg: err.Error()}
		}
		a.Report(d)
		return 0, start, d
	}
	v, ok := e.Constant()
	if !ok {
		return 0, start, a.addError(start, ErrUnresolvedSymbol, "unresolved symbol '%s' in constant expression", e.Symbols()[0])
	}
	return v, start, nil
}

// Expect the end of the statement.
func (a *assembler) expectEOS() error {
	t := a.parser.ts.Tok()
	if !t.Is(EOS) {
		a.parser.ts.EatToEndOfStatement()
		return a.addError(t.Pos, ErrUnexpectedToken, "unexpected token in directive")
	}
	return nil
}

// Expect a comma separating directive arguments.
func (a *assembler) expectComma() error {
	t := a.parser.ts.Tok()
	if !t.Is(Comma) {
		a.parser.ts.EatToEndOfStatement()
		return a.addError(t.Pos, ErrUnexpectedToken, "expected ','")
	}
	a.parser.ts.Lex()
	return nil
}

// Parse an equate directive: .equ name, expr
func (a *assembler) parseEquate(directive Token, param any) error {
	ts := a.parser.ts
	t := ts.Tok()
	if !t.Is(Identifier) {
		return a.addError(t.Pos, ErrInvalidLabel, "%s requires a symbol name", directive.Text)
	}
	ts.Lex()
	if err := a.expectComma(); err != nil {
		return err
	}
	v, _, err := a.parseConstant()
	if err != nil {
		return err
	}
	if err := a.expectEOS(); err != nil {
		return err
	}
	if _, ok := a.labels[t.Text]; ok {
		return a.addError(t.Pos, ErrInvalidLabel, "symbol '%s' already defined as a label", t.Text)
	}
	a.equates[t.Text] = v
	a.log("equate", "name", t.Text, "value", v)
	return nil
}

// Parse a global symbol directive: .globl name
func (a *assembler) parseGlobal(directive Token, param any) error {
	ts := a.parser.ts
	t := ts.Tok()
	if !t.Is(Identifier) {
		return a.addError(t.Pos, ErrInvalidLabel, "%s requires a symbol name", directive.Text)
	}
	ts.Lex()
	if err := a.expectEOS(); err != nil {
		return err
	}
	a.globals = append(a.globals, global{name: t.Text, pos: t.Pos})
	return nil
}

// Parse an alignment directive: .align n
func (a *assembler) parseAlign(directive Token, param any) error {
	v, pos, err := a.parseConstant()
	if err != nil {
		return err
	}
	if err := a.expectEOS(); err != nil {
		return err
	}
	if v <= 0 || v&(v-1) != 0 {
		return a.addError(pos, ErrInvalidExpression, "alignment must be a power of two")
	}
	n := int(v)
	a.pc = n * ((a.pc + n - 1) / n)
	a.log("align", "to", n, "pc", fmt.Sprintf("%04X", a.pc))
	return nil
}

// Parse a call frame information directive.
func (a *assembler) parseCFI(directive Token, param any) error {
	op := param.(CFIOp)

	reg, _, err := a.parser.ParseRegister()
	if err != nil {
		a.parser.ts.EatToEndOfStatement()
		return err
	}

	var offset int64
	if op != CFIDefCFARegister {
		if err := a.expectComma(); err != nil {
			return err
		}
		if offset, _, err = a.parseConstant(); err != nil {
			return err
		}
	}
	if err := a.expectEOS(); err != nil {
		return err
	}

	a.cfi = append(a.cfi, CFIDirective{Op: op, Reg: reg, Offset: offset, Addr: a.pc})
	return nil
}

// Resolve symbolic instruction operands against labels and equates.
func (a *assembler) resolveSymbols() error {
	a.logSection("Resolving symbols")

	symbols := make(SymbolTable, len(a.equates)+len(a.labels))
	for k, v := range a.equates {
		symbols[k] = v
	}
	for k, v := range a.labels {
		symbols[k] = v
	}

	for i := range a.insts.Insts {
		inst := &a.insts.Insts[i]
		for j := range inst.Operands {
			op := &inst.Operands[j]
			if op.Kind != MCExpr {
				continue
			}
			pos := inst.Loc
			if op.Loc != (Pos{}) {
				pos = op.Loc
			}
			if err := op.Expr.eval(symbols); err != nil {
				a.addError(pos, ErrInvalidExpression, "%v", err)
				continue
			}
			if v, ok := op.Expr.Constant(); ok {
				a.log("resolved", "expr", op.Expr.String(), "value", v)
				*op = ImmOperand(v)
				continue
			}
			a.addError(pos, ErrUnresolvedSymbol, "unresolved symbol '%s'", op.Expr.Symbols()[0])
		}
	}
	return nil
}

// Resolve global symbols to exported addresses.
func (a *assembler) resolveGlobals() error {
	for _, g := range a.globals {
		addr, ok := a.labels[g.name]
		if !ok {
			a.addError(g.pos, ErrUnresolvedSymbol, "global symbol '%s' is not a label", g.name)
			continue
		}
		a.exports = append(a.exports, Export{Label: g.name, Address: int(addr)})
	}
	sort.Slice(a.exports, func(i, j int) bool {
		return a.exports[i].Address < a.exports[j].Address
	})
	return nil
}

// In verbose mode, log a message with key/value attributes.
func (a *assembler) log(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

// In verbose mode, log a string and its associated line
// of assembly code.
func (a *assembler) logLine(line fstring, format string, args ...any) {
	if a.logger != nil {
		detail := fmt.Sprintf(format, args...)
		a.logger.Debug(detail, "line", line.row, "col", line.column+1, "src", line.str)
	}
}

// In verbose mode, log a section header.
func (a *assembler) logSection(name string) {
	if a.logger != nil {
		a.logger.Info("-- " + name + " --")
	}
}

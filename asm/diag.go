// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errParse        = errors.New("parse error")
	errTooManyErrs  = errors.New("too many errors")
	errDivideByZero = errors.New("division by zero")
)

// Diagnostic kinds. A Diagnostic unwraps to one of these, so callers may
// test for them with errors.Is.
var (
	ErrInvalidRegister       = errors.New("invalid register")
	ErrZeroRegisterInAddress = errors.New("zero register in address")
	ErrInvalidIndexedAddress = errors.New("invalid indexed address")
	ErrUnclosedAddress       = errors.New("unclosed address")
	ErrUnexpectedToken       = errors.New("unexpected token")
	ErrInvalidExpression     = errors.New("invalid expression")
	ErrMissingFeature        = errors.New("missing feature")
	ErrInvalidOperand        = errors.New("invalid operand")
	ErrMnemonicFail          = errors.New("invalid instruction")
	ErrUnknownDirective      = errors.New("unknown directive")
	ErrInvalidLabel          = errors.New("invalid label")
	ErrUnresolvedSymbol      = errors.New("unresolved symbol")
)

// A Diagnostic describes a single parse or match failure.
type Diagnostic struct {
	Pos    Pos    // location of the offending text
	Kind   error  // one of the Err* kinds
	Msg    string // human-readable message
	Source string // full source line, if known
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Pos, d.Msg)
}

func (d *Diagnostic) Unwrap() error {
	return d.Kind
}

// Caret returns the diagnostic's source line followed by a marker line
// pointing at the offending column. It returns the empty string if the
// source line is unknown.
func (d *Diagnostic) Caret() string {
	if d.Source == "" {
		return ""
	}
	return d.Source + "\n" + strings.Repeat("-", d.Pos.Column) + "^"
}

// A DiagnosticSink receives diagnostics as they are reported.
type DiagnosticSink interface {
	Report(d *Diagnostic)
}

// A DiagList is a DiagnosticSink that collects every diagnostic it
// receives.
type DiagList []*Diagnostic

// Report appends the diagnostic to the list.
func (l *DiagList) Report(d *Diagnostic) {
	*l = append(*l, d)
}

// Err returns the first diagnostic in the list, or nil if the list is
// empty.
func (l DiagList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l[0]
}

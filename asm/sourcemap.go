// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"encoding/json"
	"io"
	"sort"
)

// A SourceMap describes the mapping between source code lines and the
// address ranges of the instructions matched from them. Lines are kept in
// address order.
type SourceMap struct {
	Origin  int          `json:"origin"`
	Size    int          `json:"size"`
	Files   []string     `json:"files"`
	Lines   []SourceLine `json:"lines"`
	Exports []Export     `json:"exports,omitempty"`
}

// A SourceLine maps one instruction to the file and line it came from.
type SourceLine struct {
	Address   int `json:"addr"`
	Size      int `json:"size"`
	FileIndex int `json:"file"`
	Line      int `json:"line"`
}

// Search returns the file and line of the instruction occupying the
// address. The line is -1 if no instruction covers it.
func (s *SourceMap) Search(addr int) (filename string, line int) {
	i := sort.Search(len(s.Lines), func(i int) bool {
		return s.Lines[i].Address+s.Lines[i].Size > addr
	})
	if i < len(s.Lines) && s.Lines[i].Address <= addr {
		return s.Files[s.Lines[i].FileIndex], s.Lines[i].Line
	}
	return "", -1
}

// Address returns the address of the first instruction generated by a
// source line.
func (s *SourceMap) Address(filename string, line int) (addr int, ok bool) {
	for _, l := range s.Lines {
		if l.Line == line && s.Files[l.FileIndex] == filename {
			return l.Address, true
		}
	}
	return 0, false
}

// ReadFrom reads the contents of an exported source map file.
func (s *SourceMap) ReadFrom(r io.Reader) (n int64, err error) {
	cr := &countingReader{r: r}
	err = json.NewDecoder(cr).Decode(s)
	return cr.n, err
}

// WriteTo writes the contents of the source map to an output stream.
func (s *SourceMap) WriteTo(w io.Writer) (n int64, err error) {
	b, err := json.MarshalIndent(s, "", "\t")
	if err != nil {
		return 0, err
	}
	b = append(b, '\n')

	nn, err := w.Write(b)
	return int64(nn), err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

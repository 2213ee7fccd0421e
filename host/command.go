// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"strings"

	"github.com/beevik/prefixtree/v2"
)

// A command is a single named host command.
type command struct {
	Name        string // command string
	Shortcut    string // optional shortcut for command
	Brief       string // one-line description shown in the command list
	Description string // description shown in help text
	Usage       string // syntax shown in help text
	Data        func(h *Host, c selection) error
}

// A commandTree contains commands which may be looked up by the shortest
// unambiguous prefix of their names.
type commandTree struct {
	Title    string
	Commands []command
	tree     *prefixtree.Tree[*command]
}

// A selection is the result of looking up a command. It holds the
// arguments following the command, both split on whitespace and as the
// raw remainder of the line.
type selection struct {
	Command *command
	Args    []string
	Rest    string
}

// Errors returned by command lookup.
var (
	errAmbiguous = errors.New("command is ambiguous")
	errNotFound  = errors.New("command not found")
)

func newCommandTree(title string, list []command) *commandTree {
	t := &commandTree{
		Title:    title,
		Commands: list,
		tree:     prefixtree.New[*command](),
	}
	for i, c := range t.Commands {
		t.tree.Add(c.Name, &t.Commands[i])
		if c.Shortcut != "" {
			t.tree.Add(c.Shortcut, &t.Commands[i])
		}
	}
	return t
}

// Lookup finds the command named by the first word of the line.
func (t *commandTree) Lookup(line string) (selection, error) {
	line = strings.TrimSpace(line)
	name, rest := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		name, rest = line[:i], strings.TrimSpace(line[i+1:])
	}

	if name == "" {
		return selection{}, nil
	}

	c, err := t.tree.FindValue(strings.ToLower(name))
	switch err {
	case nil:
	case prefixtree.ErrPrefixAmbiguous:
		return selection{}, errAmbiguous
	default:
		return selection{}, errNotFound
	}

	return selection{Command: c, Args: strings.Fields(rest), Rest: rest}, nil
}

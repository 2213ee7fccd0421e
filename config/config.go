// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads assembler settings from YAML or TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the settings used to assemble source files.
type Config struct {
	Target    string `yaml:"target" toml:"target"`         // target name or prefix
	Features  string `yaml:"features" toml:"features"`     // comma-separated feature list
	MaxErrors int    `yaml:"max_errors" toml:"max_errors"` // stop after this many errors
	Origin    int    `yaml:"origin" toml:"origin"`         // address of the first instruction
	Verbose   bool   `yaml:"verbose" toml:"verbose"`       // trace assembly steps
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Target:    "riscv32",
		MaxErrors: 20,
	}
}

// Load reads a configuration file. The format is chosen by the file
// extension: .yaml, .yml or .toml. Settings missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b, filepath.Ext(path))
}

// Parse decodes configuration data in the format named by ext.
func Parse(b []byte, ext string) (Config, error) {
	c := Default()

	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &c)
	case ".toml":
		_, err = toml.Decode(string(b), &c)
	default:
		return Config{}, fmt.Errorf("unsupported config format '%s'", ext)
	}
	if err != nil {
		return Config{}, err
	}

	if c.MaxErrors < 0 {
		return Config{}, fmt.Errorf("max_errors must not be negative")
	}
	if c.Origin < 0 {
		return Config{}, fmt.Errorf("origin must not be negative")
	}
	return c, nil
}

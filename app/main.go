// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/beevik/rvasm/config"
	"github.com/beevik/rvasm/host"
	"github.com/beevik/rvasm/target"
	"github.com/beevik/term"
	"github.com/tebeka/atexit"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "rvasm",
		Usage:     "assemble RISC instruction files",
		ArgsUsage: "[file ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "load settings from a YAML or TOML `FILE`",
			},
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "assembly target name",
			},
			&cli.StringFlag{
				Name:    "features",
				Aliases: []string{"f"},
				Usage:   "feature list applied to the target, e.g. mul,-64bit",
			},
			&cli.IntFlag{
				Name:  "max-errors",
				Usage: "stop assembling after this many errors",
			},
			&cli.IntFlag{
				Name:  "origin",
				Usage: "address of the first instruction",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "trace assembly steps",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		exitOnError(err)
	}
	atexit.Exit(0)
}

func run(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
	}

	// Command line flags override the configuration file.
	if c.IsSet("target") {
		cfg.Target = c.String("target")
	}
	if c.IsSet("features") {
		cfg.Features = c.String("features")
	}
	if c.IsSet("max-errors") {
		cfg.MaxErrors = c.Int("max-errors")
	}
	if c.IsSet("origin") {
		cfg.Origin = c.Int("origin")
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
	}

	h, err := host.New(target.Default(), cfg)
	if err != nil {
		return err
	}
	atexit.Register(h.Flush)

	// Assemble files named on the command line.
	if c.NArg() > 0 {
		failed := 0
		for _, filename := range c.Args().Slice() {
			if err := h.AssembleFile(filename); err != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed to assemble", failed, c.NArg())
		}
		return nil
	}

	// Run commands interactively.
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	h.RunCommands(os.Stdin, os.Stdout, interactive)
	return nil
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	atexit.Exit(1)
}

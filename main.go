// Copyright (c) 2024 The Falcon Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/gael-bigot/czc/compile"
)

func main() {
	app := &cli.App{
		Name:      "czc",
		Usage:     "compile a CASM-ish source file into a bit-packed VM program artifact",
		ArgsUsage: "<source-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "write the JSON artifact to `FILE` instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "print AST and CASM dumps while compiling",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one source file argument", 1)
	}
	path := c.Args().Get(0)

	source, err := os.ReadFile(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("reading %s: %s", path, err), 1)
	}

	log := logrus.StandardLogger()
	if c.Bool("debug") {
		log.SetLevel(logrus.DebugLevel)
	}

	result, err := compile.CompileFile(path, string(source), compile.Options{
		Debug: c.Bool("debug"),
		Log:   log,
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	out, err := result.Program.WriteIndent()
	if err != nil {
		return cli.Exit(fmt.Sprintf("serializing artifact: %s", err), 1)
	}

	if outPath := c.String("out"); outPath != "" {
		if err := os.WriteFile(outPath, out, 0644); err != nil {
			return cli.Exit(fmt.Sprintf("writing %s: %s", outPath, err), 1)
		}
		return nil
	}

	fmt.Println(string(out))
	return nil
}

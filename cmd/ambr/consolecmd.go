/*
 *  Copyright (C) 2019 ambr authors
 *
 *  This file is part of the ambr library.
 *
 *  The ambr library is free software: you can redistribute it and/or modify
 *  it under the terms of the GNU General Public License as published by
 *  the Free Software Foundation, either version 3 of the License, or
 *  (at your option) any later version.
 *
 *  The ambr library is distributed in the hope that it will be useful,
 *  but WITHOUT ANY WARRANTY; without even the implied warranty of
 *  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 *  GNU General Public License for more details.
 *
 *  You should have received a copy of the GNU General Public License
 *  along with the ambr library.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package main

import (
	"github.com/ambrchain/ambr/cmd/ambr/console"
	"github.com/ambrchain/ambr/config"
	"github.com/urfave/cli"
)

var (
	execFlag = cli.StringFlag{
		Name:  "exec",
		Usage: "execute javascript and exit",
	}

	consoleCommand = cli.Command{
		Action:   config.MergeFlags(runConsole),
		Name:     "console",
		Usage:    "Start the node with an interactive JavaScript console",
		Flags:    append([]cli.Flag{execFlag}, config.NodeFlags...),
		Category: "CONSOLE COMMANDS",
		Description: `
The console runs inside the node and reaches the ledger and the keystore
through the ambr object.`,
	}
)

func runConsole(ctx *cli.Context) error {
	node := makeNode(ctx)
	defer node.Stop()
	if err := node.Start(); err != nil {
		return err
	}

	c, err := console.New(console.Config{Backend: node})
	if err != nil {
		return err
	}
	defer c.Stop()

	if code := ctx.String(execFlag.Name); code != "" {
		return c.Evaluate(code)
	}
	c.Welcome()
	c.Interactive()
	return nil
}

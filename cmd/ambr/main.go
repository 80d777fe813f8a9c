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
	"os"
	"path/filepath"
	"sort"

	"github.com/ambrchain/ambr/config"
	"github.com/ambrchain/ambr/log"
	"github.com/ambrchain/ambr/utils/logging"
	"github.com/urfave/cli"
)

var (
	app = cli.NewApp()
)

func init() {
	app.Name = filepath.Base(os.Args[0])
	app.Version = versionString()
	app.Usage = "the ambr ledger node"
	app.HideVersion = true
	app.Copyright = "Copyright 2019 The ambr Authors"
	app.Flags = append(append([]cli.Flag{}, config.GlobalFlags...), config.NodeFlags...)
	app.Commands = []cli.Command{
		accountCommand,
		configCommand,
		initCommand,
		dumpCommand,
		sendCommand,
		receiveCommand,
		balanceCommand,
		historyCommand,
		unitCommand,
		validatorCommand,
		consoleCommand,
		versionCommand,
		licenseCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))
	app.Before = setupLogging
	app.Action = ambr
}

func main() {
	if err := app.Run(os.Args); err != nil {
		logging.Logger.Fatal(err)
	}
}

func setupLogging(ctx *cli.Context) error {
	conf, err := config.GetConfig(ctx)
	if err != nil {
		return err
	}
	if err := logging.SetLevel(conf.App.LogLevel); err != nil {
		return err
	}
	if conf.App.LogDir != "" {
		logging.SetFileRotationHooker(conf.App.LogDir, conf.App.LogRotationCount)
	}
	return nil
}

// ambr runs the node until it is interrupted.
func ambr(ctx *cli.Context) error {
	node := makeNode(ctx)
	if err := node.Start(); err != nil {
		node.Stop()
		return err
	}
	log.Info("ambr node running", "name", node.NodeName())
	node.WaitForShutdown()
	return nil
}

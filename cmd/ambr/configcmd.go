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
	"fmt"
	"os"
	"path/filepath"

	"github.com/ambrchain/ambr/config"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var (
	configCommand = cli.Command{
		Name:     "config",
		Usage:    "Manage config",
		Category: "CONFIG COMMANDS",
		Description: `
Manage ambr config, generate a default config file.`,

		Subcommands: []cli.Command{
			{
				Name:      "new",
				Usage:     "Generate a default config file",
				Action:    config.MergeFlags(createDefaultConfig),
				ArgsUsage: "[filename]",
				Description: `
Write the default config to filename, or to ambr.toml in the data dir.`,
			},
			{
				Name:      "save",
				Usage:     "Save the effective config, flags included",
				Action:    config.MergeFlags(saveConfig),
				ArgsUsage: "<filename>",
			},
		},
	}
)

func createDefaultConfig(ctx *cli.Context) error {
	conf := config.GetDefaultConfig()
	if ctx.GlobalIsSet(config.DataDirFlag.Name) {
		conf.DataDir = ctx.GlobalString(config.DataDirFlag.Name)
	}
	fileName := ctx.Args().First()
	if fileName == "" {
		fileName = filepath.Join(conf.DataDir, config.DefaultConfigFile)
	}
	if err := os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		return err
	}
	if err := config.WriteConfigFile(fileName, conf); err != nil {
		return err
	}
	fmt.Printf("create default config %s\n", fileName)
	return nil
}

func saveConfig(ctx *cli.Context) error {
	fileName := ctx.Args().First()
	if fileName == "" {
		return errors.New("please give a config file arg")
	}
	conf, err := config.GetConfig(ctx)
	if err != nil {
		return err
	}
	if err := config.WriteConfigFile(fileName, conf); err != nil {
		return err
	}
	fmt.Printf("config saved to %s\n", fileName)
	return nil
}

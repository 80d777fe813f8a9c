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

package config

import (
	"github.com/urfave/cli"
)

var (
	DataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "ambr data directory",
	}

	ConfigFileFlag = cli.StringFlag{
		Name:  "config, c",
		Usage: "toml config file",
	}

	LogLevelFlag = cli.StringFlag{
		Name:  "loglevel",
		Usage: "log level: trace, debug, info, warn, error",
	}

	LogDirFlag = cli.StringFlag{
		Name:  "logdir",
		Usage: "write rotated log files into this directory",
	}

	ValidatorAccountFlag = cli.StringFlag{
		Name:  "validator.account",
		Usage: "keystore account (address) used to propose and vote",
	}

	ValidatorPasswordFlag = cli.StringFlag{
		Name:  "validator.password",
		Usage: "password of the validator account",
	}

	KeystoreKDFFlag = cli.StringFlag{
		Name:  "keystore.kdf",
		Usage: "kdf sealing new key files: scrypt, light-scrypt, balloon or argon2id",
	}

	NoBufferFlag = cli.BoolFlag{
		Name:  "nobuffer",
		Usage: "do not start the unit buffer consumer",
	}

	GlobalFlags = []cli.Flag{
		DataDirFlag,
		ConfigFileFlag,
		LogLevelFlag,
		LogDirFlag,
	}

	NodeFlags = []cli.Flag{
		ValidatorAccountFlag,
		ValidatorPasswordFlag,
		KeystoreKDFFlag,
		NoBufferFlag,
	}
)

func getAppConfig(ctx *cli.Context, cfg *Config) {
	if cfg.App == nil {
		cfg.App = &AppConfig{}
	}
	if ctx.GlobalIsSet(LogLevelFlag.Name) {
		cfg.App.LogLevel = ctx.GlobalString(LogLevelFlag.Name)
	}
	if ctx.GlobalIsSet(LogDirFlag.Name) {
		cfg.App.LogDir = ctx.GlobalString(LogDirFlag.Name)
	}
}

func getChainConfig(ctx *cli.Context, cfg *Config) {
	if cfg.Chain == nil {
		cfg.Chain = DefaultChainConfig()
	}
}

func getNodeConfig(ctx *cli.Context, cfg *Config) {
	if cfg.Node == nil {
		cfg.Node = &NodeConfig{BufferConsumer: true}
	}
	if ctx.IsSet(ValidatorAccountFlag.Name) {
		cfg.Node.ValidatorAccount = ctx.String(ValidatorAccountFlag.Name)
	}
	if ctx.IsSet(ValidatorPasswordFlag.Name) {
		cfg.Node.ValidatorPassword = ctx.String(ValidatorPasswordFlag.Name)
	}
	if ctx.IsSet(KeystoreKDFFlag.Name) {
		cfg.Node.KeystoreKDF = ctx.String(KeystoreKDFFlag.Name)
	}
	if ctx.IsSet(NoBufferFlag.Name) {
		cfg.Node.BufferConsumer = false
	}
}

// MergeFlags copies command-level flags into the global set so that
// GlobalIsSet sees them regardless of where they were given.
func MergeFlags(action func(ctx *cli.Context) error) func(*cli.Context) error {
	return func(ctx *cli.Context) error {
		for _, name := range ctx.FlagNames() {
			if ctx.IsSet(name) {
				ctx.GlobalSet(name, ctx.String(name))
			}
		}
		return action(ctx)
	}
}

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
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/ambrchain/ambr/utils"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

const DefaultConfigFile = "ambr.toml"

type Config struct {
	Name    string
	DataDir string
	App     *AppConfig
	Chain   *ChainConfig
	Node    *NodeConfig
}

type AppConfig struct {
	LogLevel         string
	LogDir           string
	LogRotationCount uint
}

// ChainConfig holds consensus parameters. Every node of a network must
// agree on them.
type ChainConfig struct {
	// GenesisTime is the earliest allowed validator unit time, in unix ms.
	GenesisTime uint64
	// ValidatorUnitInterval is the proposal period in ms.
	ValidatorUnitInterval uint64
	TransactionFeeBase    string
	MinValidatorBalance   string
	PassPercentNum        uint64
	PassPercentDen        uint64
	GenesisSupply         string
	// GenesisPublicKey, hex, pins the genesis account when set.
	GenesisPublicKey string
}

type NodeConfig struct {
	// BufferConsumer starts the unit buffer consumer with the node.
	BufferConsumer bool
	// ValidatorAccount enables proposing and voting with this keystore account.
	ValidatorAccount  string
	ValidatorPassword string
	CacheSize         int
	// KeystoreKDF seals new key files: scrypt, light-scrypt, balloon or argon2id.
	KeystoreKDF string
}

func DefaultChainConfig() *ChainConfig {
	return &ChainConfig{
		GenesisTime:           0,
		ValidatorUnitInterval: 3000,
		TransactionFeeBase:    "1",
		MinValidatorBalance:   "100000000000",
		PassPercentNum:        7000,
		PassPercentDen:        10000,
		GenesisSupply:         "53000000000000000000000000",
	}
}

func GetDefaultConfig() *Config {
	return &Config{
		Name:    "ambr",
		DataDir: utils.DefaultDataDir(),
		App: &AppConfig{
			LogLevel:         "info",
			LogRotationCount: 24,
		},
		Chain: DefaultChainConfig(),
		Node: &NodeConfig{
			BufferConsumer: true,
			CacheSize:      4096,
			KeystoreKDF:    "scrypt",
		},
	}
}

// LoadConfig decodes a toml file over the defaults. Keys missing from the
// file keep their default values.
func LoadConfig(path string) (*Config, error) {
	config := GetDefaultConfig()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, errors.Wrapf(err, "load config %s", path)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// GetConfig builds the config for a cli invocation: defaults, then the
// config file (explicit flag or ambr.toml in the data dir), then flags.
func GetConfig(ctx *cli.Context) (*Config, error) {
	config := GetDefaultConfig()
	if ctx.GlobalIsSet(DataDirFlag.Name) {
		config.DataDir = ctx.GlobalString(DataDirFlag.Name)
	}

	path := ctx.GlobalString(ConfigFileFlag.Name)
	if path == "" {
		candidate := filepath.Join(config.DataDir, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		dataDir := config.DataDir
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config = loaded
		if ctx.GlobalIsSet(DataDirFlag.Name) || config.DataDir == "" {
			config.DataDir = dataDir
		}
	}

	getAppConfig(ctx, config)
	getChainConfig(ctx, config)
	getNodeConfig(ctx, config)
	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.Chain == nil {
		return errors.New("missing chain config")
	}
	if c.Chain.PassPercentDen == 0 || c.Chain.PassPercentNum > c.Chain.PassPercentDen {
		return errors.Errorf("invalid pass percent %d/%d", c.Chain.PassPercentNum, c.Chain.PassPercentDen)
	}
	return nil
}

// ChainDir is where the ledger database lives.
func (c *Config) ChainDir() string {
	return filepath.Join(c.DataDir, "chaindata")
}

// KeystoreDir holds encrypted key files.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.DataDir, "keystore")
}

// WriteConfigFile stores c as toml, refusing to overwrite an existing file.
func WriteConfigFile(filename string, c *Config) error {
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}

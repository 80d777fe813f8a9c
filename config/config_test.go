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
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := GetDefaultConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, uint64(3000), c.Chain.ValidatorUnitInterval)
	assert.Equal(t, "1", c.Chain.TransactionFeeBase)
	assert.Equal(t, "100000000000", c.Chain.MinValidatorBalance)
	assert.Equal(t, uint64(7000), c.Chain.PassPercentNum)
	assert.Equal(t, "scrypt", c.Node.KeystoreKDF)
	assert.Equal(t, uint64(10000), c.Chain.PassPercentDen)
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	dir, err := ioutil.TempDir("", "ambr-config")
	require.NoError(t, err)
	path := filepath.Join(dir, DefaultConfigFile)
	data := `
Name = "test"

[App]
LogLevel = "debug"

[Chain]
TransactionFeeBase = "5"
`
	require.NoError(t, ioutil.WriteFile(path, []byte(data), 0644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "test", c.Name)
	assert.Equal(t, "debug", c.App.LogLevel)
	assert.Equal(t, "5", c.Chain.TransactionFeeBase)
	assert.Equal(t, "100000000000", c.Chain.MinValidatorBalance)
	assert.Equal(t, 4096, c.Node.CacheSize)
}

func TestLoadConfigRejectsPassPercent(t *testing.T) {
	dir, err := ioutil.TempDir("", "ambr-config")
	require.NoError(t, err)
	path := filepath.Join(dir, DefaultConfigFile)
	require.NoError(t, ioutil.WriteFile(path, []byte("[Chain]\nPassPercentNum = 20000\n"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestWriteConfigFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "ambr-config")
	require.NoError(t, err)
	path := filepath.Join(dir, DefaultConfigFile)
	c := GetDefaultConfig()
	c.Name = "written"
	require.NoError(t, WriteConfigFile(path, c))
	assert.Error(t, WriteConfigFile(path, c))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "written", loaded.Name)
	assert.Equal(t, c.Chain, loaded.Chain)
}

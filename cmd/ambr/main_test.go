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
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/ambrchain/ambr/crypto/ed25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrivateKey(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, 32)
	want, err := ed25519.KeyFromSeed(seed)
	require.NoError(t, err)

	key, err := parsePrivateKey(hex.EncodeToString(seed))
	require.NoError(t, err)
	assert.Equal(t, want, key)

	key, err = parsePrivateKey("0x" + want.Hex())
	require.NoError(t, err)
	assert.Equal(t, want, key)

	_, err = parsePrivateKey("abcd")
	assert.Error(t, err)
	_, err = parsePrivateKey("zz")
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range app.Commands {
		names[c.Name] = true
	}
	for _, name := range []string{"account", "init", "send", "receive", "balance", "validator", "console"} {
		assert.True(t, names[name], name)
	}
}

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

package node

import (
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/config"
	"github.com/ambrchain/ambr/core"
	"github.com/ambrchain/ambr/core/types"
	"github.com/ambrchain/ambr/crypto/ed25519"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	dir, err := ioutil.TempDir("", "ambr-node")
	require.NoError(t, err)
	conf := config.GetDefaultConfig()
	conf.DataDir = dir
	conf.Chain.ValidatorUnitInterval = 20
	conf.Chain.MinValidatorBalance = "1000"
	conf.Chain.GenesisSupply = "1000000"
	return conf
}

func TestNodeDataDirLock(t *testing.T) {
	conf := testConfig(t)
	defer os.RemoveAll(conf.DataDir)

	n, err := NewNode(conf)
	require.NoError(t, err)

	_, err = NewNode(conf)
	assert.Equal(t, ErrDataDirLocked, errors.Cause(err))

	require.NoError(t, n.Stop())
	n2, err := NewNode(conf)
	require.NoError(t, err)
	require.NoError(t, n2.Stop())
}

func TestNodeFinalizesTransfers(t *testing.T) {
	conf := testConfig(t)
	defer os.RemoveAll(conf.DataDir)

	n, err := NewNode(conf)
	require.NoError(t, err)
	sm := n.StoreManager()

	key, err := ed25519.GenerateKey()
	require.NoError(t, err)
	g, err := core.NewGenesis(key, sm.Params())
	require.NoError(t, err)
	require.NoError(t, sm.InitGenesis(g))

	finalized := make(chan core.FinalizedEvent, 4)
	sub := sm.SubscribeFinalized(finalized)
	defer sub.Unsubscribe()

	n.Core().SetValidatorKey(key)
	require.NoError(t, n.Start())

	send, err := sm.SendToAddress(key, common.PublicKey{7}, common.NewAmount(5000))
	require.NoError(t, err)

	select {
	case ev := <-finalized:
		assert.Contains(t, ev.Units, types.Hash(send))
		assert.Equal(t, key.PublicKey(), ev.Proposer)
	case <-time.After(5 * time.Second):
		t.Fatal("transfer not finalized")
	}

	ok, err := sm.IsValidated(types.Hash(send))
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, n.Stop())

	// state survives a restart
	n2, err := NewNode(conf)
	require.NoError(t, err)
	defer n2.Stop()
	balance, err := n2.StoreManager().GetBalance(key.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, "994000", balance.String())
}

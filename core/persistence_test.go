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

package core

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/ambrchain/ambr/core/types"
	"github.com/ambrchain/ambr/persistent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReopenKeepsLedger(t *testing.T) {
	dir, err := ioutil.TempDir("", "ambr-core")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	storage, err := persistent.NewLevelStorage(dir)
	require.NoError(t, err)
	sm := newTestManager(t, storage)
	g := testKey(t, 1)
	genesis, err := NewGenesis(g, sm.Params())
	require.NoError(t, err)
	require.NoError(t, sm.InitGenesis(genesis))

	a := testKey(t, 2)
	send := mustSend(t, sm, g, a.PublicKey(), 10000)
	settle(t, sm, g, g)
	recv := mustReceive(t, sm, a, send)
	v, err := sm.PublishValidator(g)
	require.NoError(t, err)
	_, err = sm.PublishVote(g, false)
	require.NoError(t, err)
	balance, err := sm.GetBalance(g.PublicKey())
	require.NoError(t, err)
	require.NoError(t, sm.Close())

	storage, err = persistent.NewLevelStorage(dir)
	require.NoError(t, err)
	sm = newTestManager(t, storage)
	defer sm.Close()

	again, err := sm.GetBalance(g.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, balance, again)
	epoch, err := sm.GetEpoch()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), epoch)
	ok, err := sm.IsValidated(send)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, recv, sendStore(t, sm, send).ReceiveUnitHash)

	// the open proposal and its vote survive
	open, votes := sm.GetVotes()
	assert.Equal(t, types.Hash(v), open)
	require.Len(t, votes, 1)
	assert.False(t, votes[0].Accept)

	a2 := testKey(t, 3)
	_, err = sm.PublishVote(a2, true)
	assert.Error(t, err)
	_, err = sm.PublishVote(g, true)
	assert.Error(t, err)
}

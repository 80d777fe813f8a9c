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
	"bytes"
	"testing"

	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/core/store"
	"github.com/ambrchain/ambr/core/types"
	"github.com/ambrchain/ambr/crypto/ed25519"
	"github.com/ambrchain/ambr/persistent"
	"github.com/stretchr/testify/require"
)

var testSupply = common.NewAmount(1000000)

func testParams() *Params {
	return &Params{
		ValidatorUnitInterval: 1000,
		TransactionFeeBase:    common.NewAmount(1),
		MinValidatorBalance:   common.NewAmount(1000),
		PassPercentNum:        7000,
		PassPercentDen:        10000,
		GenesisSupply:         testSupply,
	}
}

func testKey(t *testing.T, seed byte) common.PrivateKey {
	key, err := ed25519.KeyFromSeed(bytes.Repeat([]byte{seed}, 32))
	require.NoError(t, err)
	return key
}

func newTestManager(t *testing.T, storage persistent.Storage) *StoreManager {
	if storage == nil {
		storage = persistent.NewMemoryStorage()
	}
	sm, err := NewStoreManager(storage, testParams(), 64)
	require.NoError(t, err)
	return sm
}

// newGenesisManager returns a ledger whose genesis account is key 1.
func newGenesisManager(t *testing.T) (*StoreManager, common.PrivateKey) {
	sm := newTestManager(t, nil)
	key := testKey(t, 1)
	g, err := NewGenesis(key, sm.Params())
	require.NoError(t, err)
	require.NoError(t, sm.InitGenesis(g))
	return sm, key
}

// header links a unit to the current tip of key's account.
func header(t *testing.T, sm *StoreManager, key common.PrivateKey) types.UnitHeader {
	h := types.UnitHeader{Version: types.UnitVersion, PublicKey: key.PublicKey()}
	tip, err := sm.GetLastUnitHash(key.PublicKey())
	if err != nil {
		return h
	}
	s, err := sm.GetUnitStore(tip)
	require.NoError(t, err)
	h.Prev = tip
	h.Nonce = s.Unit().Header().Nonce + 1
	h.Balance = s.Unit().Header().Balance
	return h
}

func sign(t *testing.T, key common.PrivateKey, u types.Unit) types.Unit {
	require.NoError(t, types.Sign(u, ed25519.NewSignerWithKey(key)))
	return u
}

func mustSend(t *testing.T, sm *StoreManager, from common.PrivateKey, to common.PublicKey, amount uint64) common.UnitHash {
	u, err := sm.SendToAddress(from, to, common.NewAmount(amount))
	require.NoError(t, err)
	return types.Hash(u)
}

func mustReceive(t *testing.T, sm *StoreManager, key common.PrivateKey, from common.UnitHash) common.UnitHash {
	u, err := sm.ReceiveFromUnitHash(key, from)
	require.NoError(t, err)
	return types.Hash(u)
}

// settle proposes with proposer and has every voter accept.
func settle(t *testing.T, sm *StoreManager, proposer common.PrivateKey, voters ...common.PrivateKey) common.UnitHash {
	v, err := sm.PublishValidator(proposer)
	require.NoError(t, err)
	for _, key := range voters {
		_, err := sm.PublishVote(key, true)
		require.NoError(t, err)
	}
	return types.Hash(v)
}

func sendStore(t *testing.T, sm *StoreManager, hash common.UnitHash) *store.SendUnitStore {
	s, err := sm.GetUnitStore(hash)
	require.NoError(t, err)
	return s.(*store.SendUnitStore)
}

// assertConserved checks that finalized balances, stakes and unclaimed
// income add up to the supply. Every send must be received and finalized.
func assertConserved(t *testing.T, sm *StoreManager) {
	total, err := sm.GetBalanceAllForDebug()
	require.NoError(t, err)
	require.Equal(t, testSupply.String(), total.String())
}

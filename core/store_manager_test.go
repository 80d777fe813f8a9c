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
	"testing"

	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/core/store"
	"github.com/ambrchain/ambr/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendBeforeGenesis(t *testing.T) {
	sm := newTestManager(t, nil)
	key := testKey(t, 1)

	u := sign(t, key, &types.SendUnit{
		UnitHeader: types.UnitHeader{Version: types.UnitVersion, PublicKey: key.PublicKey()},
		Dest:       testKey(t, 2).PublicKey(),
		Amount:     common.NewAmount(10),
	})
	err := sm.AddSendUnit(u.(*types.SendUnit))
	assert.Equal(t, ErrNoPreviousUnit, errors.Cause(err))
	assert.Equal(t, ClassChainIntegrity, ClassOf(err))

	_, err = sm.GetBalance(key.PublicKey())
	assert.Equal(t, ErrAccountNotFound, errors.Cause(err))
}

func TestGenesis(t *testing.T) {
	sm, key := newGenesisManager(t)
	pk := key.PublicKey()

	balance, err := sm.GetBalance(pk)
	require.NoError(t, err)
	assert.Equal(t, "999000", balance.String())

	epoch, err := sm.GetEpoch()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), epoch)

	active, err := sm.GetActiveValidators()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, pk, active[0].PublicKey)

	nonce, err := sm.GetLastValidatedNonce(pk)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	g, err := NewGenesis(key, sm.Params())
	require.NoError(t, err)
	assert.Equal(t, ErrGenesisExists, errors.Cause(sm.InitGenesis(g)))

	genesis, err := sm.GetGenesisHash()
	require.NoError(t, err)
	assert.Equal(t, types.Hash(g.Receive), genesis)
	assertConserved(t, sm)
}

func TestGenesisRejectsWrongSupply(t *testing.T) {
	sm := newTestManager(t, nil)
	params := *sm.Params()
	params.GenesisSupply = common.NewAmount(5)
	g, err := NewGenesis(testKey(t, 1), &params)
	require.Error(t, err)
	assert.Nil(t, g)

	params.GenesisSupply = common.NewAmount(2000)
	g, err = NewGenesis(testKey(t, 1), &params)
	require.NoError(t, err)
	assert.Equal(t, ErrBalanceMismatch, errors.Cause(sm.InitGenesis(g)))
}

func TestSendUpdatesBalances(t *testing.T) {
	sm, key := newGenesisManager(t)
	dest := testKey(t, 2).PublicKey()

	sent := make(chan *store.SendUnitStore, 1)
	sub := sm.SubscribeSendUnit(sent)
	defer sub.Unsubscribe()

	hash := mustSend(t, sm, key, dest, 10000)
	assert.Equal(t, hash, (<-sent).Hash())

	balance, err := sm.GetBalance(key.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, "989000", balance.String())

	wait, err := sm.GetWaitForReceiveList(dest)
	require.NoError(t, err)
	assert.Equal(t, []common.UnitHash{hash}, wait)

	tip, err := sm.GetLastUnitHash(key.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, hash, tip)

	ok, err := sm.IsValidated(hash)
	require.NoError(t, err)
	assert.False(t, ok)

	tips, err := sm.GetPendingTips()
	require.NoError(t, err)
	assert.Equal(t, []common.UnitHash{hash}, tips)
}

func TestSendRejections(t *testing.T) {
	sm, key := newGenesisManager(t)
	dest := testKey(t, 2).PublicKey()

	_, err := sm.SendToAddress(key, dest, common.NewAmount(2000000))
	assert.Equal(t, ErrInsufficientBalance, errors.Cause(err))

	_, err = sm.SendToAddress(key, dest, common.NewAmount(1))
	assert.Equal(t, ErrFeeTooHigh, errors.Cause(err))

	h := header(t, sm, key)
	h.Balance, _ = h.Balance.Sub(common.NewAmount(11))
	u := sign(t, key, &types.SendUnit{UnitHeader: h, Dest: dest, Amount: common.NewAmount(10)})
	assert.Equal(t, ErrBalanceMismatch, errors.Cause(sm.AddUnit(u)))

	h = header(t, sm, key)
	h.Balance, _ = h.Balance.Sub(common.NewAmount(10))
	h.Nonce++
	u = sign(t, key, &types.SendUnit{UnitHeader: h, Dest: dest, Amount: common.NewAmount(10)})
	assert.Equal(t, ErrNonceMismatch, errors.Cause(sm.AddUnit(u)))

	h = header(t, sm, key)
	h.Balance, _ = h.Balance.Sub(common.NewAmount(10))
	u = sign(t, testKey(t, 3), &types.SendUnit{UnitHeader: h, Dest: dest, Amount: common.NewAmount(10)})
	assert.Equal(t, ErrSignature, errors.Cause(sm.AddUnit(u)))

	u = sign(t, key, &types.SendUnit{UnitHeader: h, Dest: dest, Amount: common.NewAmount(10)})
	require.NoError(t, sm.AddUnit(u))
	assert.Equal(t, ErrUnitExists, errors.Cause(sm.AddUnit(u)))

	assert.Equal(t, ErrMalformedUnit, errors.Cause(sm.AddUnit(nil)))
	var nilSend *types.SendUnit
	assert.Equal(t, ErrMalformedUnit, errors.Cause(sm.AddUnit(nilSend)))
}

func TestMessageFee(t *testing.T) {
	sm, key := newGenesisManager(t)
	a := testKey(t, 2)

	msg := make([]byte, 2*FeeDataStep)
	send, err := sm.SendMessage(key, a.PublicKey(), common.NewAmount(100), msg)
	require.NoError(t, err)
	assert.Equal(t, types.DataTypeMessage, send.DataType)

	recv, err := sm.ReceiveFromUnitHash(a, types.Hash(send))
	require.NoError(t, err)
	assert.Equal(t, "97", recv.Balance.String())
}

func TestReceive(t *testing.T) {
	sm, key := newGenesisManager(t)
	a, b := testKey(t, 2), testKey(t, 3)

	send := mustSend(t, sm, key, a.PublicKey(), 10000)

	_, err := sm.ReceiveFromUnitHash(b, send)
	assert.Equal(t, ErrNotRecipient, errors.Cause(err))

	recv := mustReceive(t, sm, a, send)
	assert.Equal(t, recv, sendStore(t, sm, send).ReceiveUnitHash)

	wait, err := sm.GetWaitForReceiveList(a.PublicKey())
	require.NoError(t, err)
	assert.Empty(t, wait)

	_, err = sm.ReceiveFromUnitHash(a, send)
	assert.Equal(t, ErrAlreadyReceived, errors.Cause(err))
	assert.Equal(t, ClassEconomic, ClassOf(err))

	// credits are not spendable before they are final
	balance, err := sm.GetBalance(a.PublicKey())
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
	_, err = sm.SendToAddress(a, b.PublicKey(), common.NewAmount(100))
	assert.Equal(t, ErrInsufficientBalance, errors.Cause(err))

	settle(t, sm, key, key)
	balance, err = sm.GetBalance(a.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, "9999", balance.String())
	mustSend(t, sm, a, b.PublicKey(), 100)
}

func TestTradeHistory(t *testing.T) {
	sm, key := newGenesisManager(t)
	dest := testKey(t, 2).PublicKey()
	var sends []common.UnitHash
	for i := 0; i < 3; i++ {
		sends = append(sends, mustSend(t, sm, key, dest, 100))
	}

	all, err := sm.GetTradeHistory(key.PublicKey(), 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, sends[2], all[0].Hash())
	assert.Equal(t, types.UnitTypeReceive, all[4].Unit().Type())

	page, err := sm.GetTradeHistory(key.PublicKey(), 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, sends[1], page[1].Hash())

	rest, err := sm.GetTradeHistoryFrom(key.PublicKey(), sends[0], 2)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, sends[0], rest[0].Hash())
	assert.Equal(t, types.UnitTypeEnterValidatorSet, rest[1].Unit().Type())

	_, err = sm.GetTradeHistoryFrom(dest, sends[0], 1)
	assert.Equal(t, ErrUnitNotFound, errors.Cause(err))
}

func TestQueriesReturnCopies(t *testing.T) {
	sm, key := newGenesisManager(t)
	hash := mustSend(t, sm, key, testKey(t, 2).PublicKey(), 100)

	s := sendStore(t, sm, hash)
	s.ReceiveUnitHash = common.UnitHash{1}
	s.SetValidated(true)

	again := sendStore(t, sm, hash)
	assert.True(t, again.ReceiveUnitHash.IsZero())
	assert.False(t, again.IsValidated())
}

func TestUnitLookup(t *testing.T) {
	sm, key := newGenesisManager(t)
	hash := mustSend(t, sm, key, testKey(t, 2).PublicKey(), 100)

	u, err := sm.GetUnit(hash)
	require.NoError(t, err)
	assert.Equal(t, types.UnitTypeSend, u.Type())
	assert.Equal(t, hash, types.Hash(u))

	_, err = sm.GetUnit(common.UnitHash{9})
	assert.Equal(t, ErrUnitNotFound, errors.Cause(err))
	assert.Equal(t, ClassNotFound, ClassOf(err))
}

func TestErrorClasses(t *testing.T) {
	cases := map[error]ErrorClass{
		nil:                                ClassNone,
		errors.Wrap(ErrMalformedUnit, "x"): ClassMalformed,
		types.ErrUnknownUnitType:           ClassMalformed,
		ErrPrevUnitMismatch:                ClassChainIntegrity,
		ErrStaleProposal:                   ClassChainIntegrity,
		ErrNotValidator:                    ClassAuthorization,
		ErrDuplicateVote:                   ClassAuthorization,
		errors.Wrap(ErrNoIncome, "y"):      ClassEconomic,
		ErrAccountNotFound:                 ClassNotFound,
		ErrAlreadyFinalized:                ClassAlreadyFinalized,
		errors.New("disk on fire"):         ClassInternal,
	}
	for err, class := range cases {
		assert.Equal(t, class, ClassOf(err), "%v", err)
	}
	assert.Equal(t, "already finalized", ClassAlreadyFinalized.String())
}

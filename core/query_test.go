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
	"github.com/ambrchain/ambr/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateHistory(t *testing.T) {
	sm, g := newGenesisManager(t)
	a := testKey(t, 2)

	history, err := sm.GetValidateHistory(5)
	require.NoError(t, err)
	assert.Empty(t, history)

	var proposals []common.UnitHash
	for i := 0; i < 3; i++ {
		mustSend(t, sm, g, a.PublicKey(), 100)
		proposals = append(proposals, settle(t, sm, g, g))
	}

	history, err = sm.GetValidateHistory(2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, proposals[2], history[0].Hash())
	assert.Equal(t, proposals[1], history[1].Hash())

	history, err = sm.GetValidateHistory(10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[2].ValidatorUnit().PreValidator.IsZero())
	assert.True(t, history[0].IsValidated())

	next, err := sm.GetNextValidatorHash(proposals[0])
	require.NoError(t, err)
	assert.Equal(t, proposals[1], next)
	next, err = sm.GetNextValidatorHash(proposals[2])
	require.NoError(t, err)
	assert.True(t, next.IsZero())

	wait, err := sm.GetWaitForReceiveList(a.PublicKey())
	require.NoError(t, err)
	_, err = sm.GetNextValidatorHash(wait[0])
	assert.Equal(t, ErrMalformedUnit, errors.Cause(err))
}

func TestSendAndReceiveAmounts(t *testing.T) {
	sm, g := newGenesisManager(t)
	a := testKey(t, 2)

	send, err := sm.SendMessage(g, a.PublicKey(), common.NewAmount(100), make([]byte, 2*FeeDataStep))
	require.NoError(t, err)
	sendHash := types.Hash(send)

	amount, err := sm.GetSendAmount(sendHash)
	require.NoError(t, err)
	assert.Equal(t, "100", amount.String())
	amount, fee, err := sm.GetSendAmountWithTransactionFee(sendHash)
	require.NoError(t, err)
	assert.Equal(t, "100", amount.String())
	assert.Equal(t, "3", fee.String())

	recv := mustReceive(t, sm, a, sendHash)
	credit, err := sm.GetReceiveAmount(recv)
	require.NoError(t, err)
	assert.Equal(t, "97", credit.String())

	_, err = sm.GetSendAmount(recv)
	assert.Equal(t, ErrMalformedUnit, errors.Cause(err))
	_, err = sm.GetReceiveAmount(sendHash)
	assert.Equal(t, ErrMalformedUnit, errors.Cause(err))

	// income claims are credited in full
	settle(t, sm, g, g)
	claim, err := sm.ReceiveFromValidator(g)
	require.NoError(t, err)
	credit, err = sm.GetReceiveAmount(types.Hash(claim))
	require.NoError(t, err)
	assert.Equal(t, "3", credit.String())
}

func TestNonceAt(t *testing.T) {
	p := testParams()
	p.GenesisTime = 5000
	assert.Equal(t, uint64(0), p.NonceAt(100))
	assert.Equal(t, uint64(0), p.NonceAt(5999))
	assert.Equal(t, uint64(1), p.NonceAt(6000))
	assert.Equal(t, uint64(3), p.NonceAt(8500))

	sm := newTestManager(t, nil)
	assert.True(t, sm.GetNonceByNowTime() > 0)
}

func TestDebugAggregates(t *testing.T) {
	sm, keys := threeValidators(t)
	g, a := keys[0], keys[1]

	total, err := sm.GetBalanceAllForDebug()
	require.NoError(t, err)
	assert.Equal(t, testSupply.String(), total.String())

	incomes, err := sm.GetValidatorIncomeListForDebug()
	require.NoError(t, err)
	require.Len(t, incomes, 1)
	assert.Equal(t, "2", incomes[g.PublicKey()].String())

	tips, err := sm.GetAccountListForDebug()
	require.NoError(t, err)
	assert.Len(t, tips, 3)

	// an unreceived send is missing from the total
	mustSend(t, sm, g, a.PublicKey(), 100)
	settle(t, sm, g, g, a, keys[2])
	total, err = sm.GetBalanceAllForDebug()
	require.NoError(t, err)
	expected, err := testSupply.Sub(common.NewAmount(100))
	require.NoError(t, err)
	assert.Equal(t, expected.String(), total.String())
}

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
	"sync"
	"testing"
	"time"

	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitResult(t *testing.T, ch <-chan BufferResult) BufferResult {
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("no buffer result")
	}
	return BufferResult{}
}

func TestBufferDeliversOutcome(t *testing.T) {
	sm, g := newGenesisManager(t)
	require.NoError(t, sm.Start())
	defer sm.Stop()
	assert.Error(t, sm.Start())

	results := make(chan BufferResult, 4)
	sub := sm.SubscribeBuffer(results)

	h := header(t, sm, g)
	h.Balance, _ = h.Balance.Sub(common.NewAmount(100))
	u := sign(t, g, &types.SendUnit{UnitHeader: h, Dest: testKey(t, 2).PublicKey(), Amount: common.NewAmount(100)})

	sm.AddUnitToBuffer(u, "first")
	sm.AddUnitToBuffer(u, "second")

	res := waitResult(t, results)
	assert.True(t, res.OK)
	assert.NoError(t, res.Err)
	assert.Equal(t, "first", res.Context)
	assert.Equal(t, types.Hash(u), types.Hash(res.Unit))

	res = waitResult(t, results)
	assert.False(t, res.OK)
	assert.Equal(t, "second", res.Context)
	assert.Equal(t, ErrUnitExists, errors.Cause(res.Err))

	sub.Unsubscribe()
	sub.Unsubscribe()
	sm.AddUnitToBuffer(u, "third")
	for sm.BufferLen() > 0 {
		time.Sleep(time.Millisecond)
	}
	// Stop returns once the popped item is applied
	sm.Stop()
	select {
	case res := <-results:
		t.Fatalf("unexpected delivery %v", res.Context)
	default:
	}
}

func TestBufferKeepsItemsWhileStopped(t *testing.T) {
	sm, g := newGenesisManager(t)
	h := header(t, sm, g)
	h.Balance, _ = h.Balance.Sub(common.NewAmount(100))
	u := sign(t, g, &types.SendUnit{UnitHeader: h, Dest: testKey(t, 2).PublicKey(), Amount: common.NewAmount(100)})

	sm.AddUnitToBuffer(u, nil)
	assert.Equal(t, 1, sm.BufferLen())

	results := make(chan BufferResult, 1)
	sub := sm.SubscribeBuffer(results)
	defer sub.Unsubscribe()

	require.NoError(t, sm.Start())
	defer sm.Stop()
	assert.True(t, waitResult(t, results).OK)
	assert.Equal(t, 0, sm.BufferLen())
}

func TestConcurrentProducersAndCallers(t *testing.T) {
	sm, g := newGenesisManager(t)
	a, b, c := testKey(t, 2), testKey(t, 3), testKey(t, 4)
	mustReceive(t, sm, b, mustSend(t, sm, g, b.PublicKey(), 10000))
	settle(t, sm, g, g)

	// a chain of b's sends, each linked to the one before
	const chained = 10
	h := header(t, sm, b)
	units := make([]types.Unit, 0, chained)
	for i := 0; i < chained; i++ {
		hh := h
		var err error
		hh.Balance, err = h.Balance.Sub(common.NewAmount(10))
		require.NoError(t, err)
		u := sign(t, b, &types.SendUnit{UnitHeader: hh, Dest: c.PublicKey(), Amount: common.NewAmount(10)})
		units = append(units, u)
		h.Prev, h.Nonce, h.Balance = types.Hash(u), hh.Nonce+1, hh.Balance
	}

	results := make(chan BufferResult, chained)
	sub := sm.SubscribeBuffer(results)
	defer sub.Unsubscribe()
	require.NoError(t, sm.Start())
	defer sm.Stop()

	const direct = 20
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		for i := 0; i < direct; i++ {
			_, err := sm.SendToAddress(g, a.PublicKey(), common.NewAmount(10))
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i, u := range units {
			sm.AddUnitToBuffer(u, i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, err := sm.GetBalance(g.PublicKey())
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, err := sm.GetTradeHistory(b.PublicKey(), 5)
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	for i := 0; i < chained; i++ {
		res := waitResult(t, results)
		assert.True(t, res.OK, "buffered unit %v: %v", res.Context, res.Err)
		assert.Equal(t, i, res.Context)
	}

	wait, err := sm.GetWaitForReceiveList(a.PublicKey())
	require.NoError(t, err)
	assert.Len(t, wait, direct)
	wait, err = sm.GetWaitForReceiveList(c.PublicKey())
	require.NoError(t, err)
	assert.Len(t, wait, chained)
	balance, err := sm.GetBalance(b.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, "9899", balance.String())
}

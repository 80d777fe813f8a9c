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

func TestRemoveReceiveRestoresSend(t *testing.T) {
	sm, g := newGenesisManager(t)
	a := testKey(t, 2)
	send := mustSend(t, sm, g, a.PublicKey(), 10000)
	recv := mustReceive(t, sm, a, send)

	require.NoError(t, sm.RemoveUnit(recv))

	assert.True(t, sendStore(t, sm, send).ReceiveUnitHash.IsZero())
	wait, err := sm.GetWaitForReceiveList(a.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, []common.UnitHash{send}, wait)
	_, err = sm.GetLastUnitHash(a.PublicKey())
	assert.Equal(t, ErrAccountNotFound, errors.Cause(err))
	_, err = sm.GetUnit(recv)
	assert.Equal(t, ErrUnitNotFound, errors.Cause(err))

	// the send can be received again
	mustReceive(t, sm, a, send)
}

func TestRemoveCascade(t *testing.T) {
	sm, g := newGenesisManager(t)
	a, b := testKey(t, 2), testKey(t, 3)
	enter, err := sm.GetLastUnitHash(g.PublicKey())
	require.NoError(t, err)

	s1 := mustSend(t, sm, g, a.PublicKey(), 10000)
	s2 := mustSend(t, sm, g, b.PublicKey(), 500)
	r1 := mustReceive(t, sm, a, s1)

	removed := make(chan RemovedEvent, 8)
	sub := sm.SubscribeRemoved(removed)
	defer sub.Unsubscribe()

	require.NoError(t, sm.RemoveUnit(s1))
	assert.ElementsMatch(t, []common.UnitHash{s1, s2, r1}, drainRemoved(removed))

	tip, err := sm.GetLastUnitHash(g.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, enter, tip)
	balance, err := sm.GetBalance(g.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, "999000", balance.String())

	for _, pk := range []common.PublicKey{a.PublicKey(), b.PublicKey()} {
		wait, err := sm.GetWaitForReceiveList(pk)
		require.NoError(t, err)
		assert.Empty(t, wait)
	}
	tips, err := sm.GetPendingTips()
	require.NoError(t, err)
	assert.Empty(t, tips)
}

func TestRemoveKeepsEarlierUnits(t *testing.T) {
	sm, g := newGenesisManager(t)
	dest := testKey(t, 2).PublicKey()
	s1 := mustSend(t, sm, g, dest, 100)
	s2 := mustSend(t, sm, g, dest, 100)

	require.NoError(t, sm.RemoveUnit(s2))
	tip, err := sm.GetLastUnitHash(g.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, s1, tip)
	wait, err := sm.GetWaitForReceiveList(dest)
	require.NoError(t, err)
	assert.Equal(t, []common.UnitHash{s1}, wait)
}

func TestRemoveFinalized(t *testing.T) {
	sm, g := newGenesisManager(t)
	a := testKey(t, 2)
	enter, err := sm.GetLastUnitHash(g.PublicKey())
	require.NoError(t, err)

	err = sm.RemoveUnit(enter)
	assert.Equal(t, ErrAlreadyFinalized, errors.Cause(err))
	assert.Equal(t, ClassAlreadyFinalized, ClassOf(err))

	send := mustSend(t, sm, g, a.PublicKey(), 10000)
	settle(t, sm, g, g)
	assert.Equal(t, ErrAlreadyFinalized, errors.Cause(sm.RemoveUnit(send)))

	// a pending receive of a final send goes alone
	recv := mustReceive(t, sm, a, send)
	require.NoError(t, sm.RemoveUnit(recv))
	assert.True(t, sendStore(t, sm, send).ReceiveUnitHash.IsZero())

	assert.Equal(t, ErrUnitNotFound, errors.Cause(sm.RemoveUnit(common.UnitHash{4})))
}

func TestRemoveFailsWhenDependentIsFinal(t *testing.T) {
	sm, keys := threeValidators(t)
	g, a, b := keys[0], keys[1], keys[2]
	mustSend(t, sm, g, a.PublicKey(), 100)
	v, err := sm.PublishValidator(g)
	require.NoError(t, err)
	vote, err := sm.PublishVote(a, false)
	require.NoError(t, err)

	// b supersedes g's proposal and finalizes a's vote on it, but not the
	// proposal itself
	last, err := sm.GetLastValidatorUnitHash()
	require.NoError(t, err)
	next := sign(t, b, &types.ValidatorUnit{
		UnitHeader:   header(t, sm, b),
		PreValidator: last,
		Time:         1 << 50,
		CheckList:    []common.UnitHash{types.Hash(vote)},
	})
	require.NoError(t, sm.AddUnit(next))
	for _, key := range keys {
		_, err := sm.PublishVote(key, true)
		require.NoError(t, err)
	}
	ok, err := sm.IsValidated(types.Hash(vote))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = sm.IsValidated(types.Hash(v))
	require.NoError(t, err)
	require.False(t, ok)

	err = sm.RemoveUnit(types.Hash(v))
	assert.Equal(t, ErrAlreadyFinalized, errors.Cause(err))
	_, err = sm.GetUnit(types.Hash(v))
	assert.NoError(t, err)
}

func TestRemoveProposal(t *testing.T) {
	sm, g := newGenesisManager(t)
	mustSend(t, sm, g, testKey(t, 2).PublicKey(), 100)
	v, err := sm.PublishValidator(g)
	require.NoError(t, err)
	vote, err := sm.PublishVote(g, false)
	require.NoError(t, err)

	removed := make(chan RemovedEvent, 8)
	sub := sm.SubscribeRemoved(removed)
	defer sub.Unsubscribe()

	require.NoError(t, sm.RemoveUnit(types.Hash(v)))
	assert.ElementsMatch(t, []common.UnitHash{types.Hash(v), types.Hash(vote)}, drainRemoved(removed))

	open, votes := sm.GetVotes()
	assert.True(t, open.IsZero())
	assert.Empty(t, votes)
	_, err = sm.PublishVote(g, true)
	assert.Equal(t, ErrStaleProposal, errors.Cause(err))
}

func TestRemoveVote(t *testing.T) {
	sm, g := newGenesisManager(t)
	mustSend(t, sm, g, testKey(t, 2).PublicKey(), 100)
	v, err := sm.PublishValidator(g)
	require.NoError(t, err)
	vote, err := sm.PublishVote(g, false)
	require.NoError(t, err)

	require.NoError(t, sm.RemoveUnit(types.Hash(vote)))
	open, votes := sm.GetVotes()
	assert.Equal(t, types.Hash(v), open)
	assert.Empty(t, votes)

	// the author may vote again
	_, err = sm.PublishVote(g, true)
	require.NoError(t, err)
	ok, err := sm.IsValidated(types.Hash(v))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClearVote(t *testing.T) {
	sm, keys := threeValidators(t)
	g, a, b := keys[0], keys[1], keys[2]
	mustSend(t, sm, g, a.PublicKey(), 100)
	settle(t, sm, g, g, a)

	require.NoError(t, sm.ClearVote())
	open, votes := sm.GetVotes()
	assert.False(t, open.IsZero())
	assert.Empty(t, votes)

	// votes dropped from memory no longer count
	_, err := sm.PublishVote(b, true)
	require.NoError(t, err)
	epoch, err := sm.GetEpoch()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), epoch)
}

// drainRemoved collects the events already delivered; RemoveUnit returns
// only after every subscriber took its events.
func drainRemoved(ch <-chan RemovedEvent) []common.UnitHash {
	var hashes []common.UnitHash
	for {
		select {
		case ev := <-ch:
			hashes = append(hashes, ev.Store.Hash())
		default:
			return hashes
		}
	}
}

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
	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/core/store"
	"github.com/ambrchain/ambr/core/types"
	"github.com/ambrchain/ambr/persistent"
	"github.com/pkg/errors"
)

// txn is the working state of one StoreManager operation. Writes are
// staged in an overlay and reach storage in one batch on commit; the
// in-memory vote state is swapped in only after that batch is written.
type txn struct {
	sm *StoreManager
	ov *persistent.Overlay
	db *chainDB

	// staged unit stores; nil marks a deleted hash
	stores map[common.UnitHash]store.UnitStore

	vset      *store.ValidatorSetStore
	vsetDirty bool

	proposal common.UnitHash
	votes    []*types.VoteUnit

	added     []store.UnitStore
	finalized []FinalizedEvent
	removed   []store.UnitStore
}

func (sm *StoreManager) newTxn() *txn {
	ov := persistent.NewOverlay(sm.storage)
	return &txn{
		sm:       sm,
		ov:       ov,
		db:       newChainDB(ov),
		stores:   make(map[common.UnitHash]store.UnitStore),
		proposal: sm.proposal,
		votes:    append([]*types.VoteUnit(nil), sm.votes...),
	}
}

// view returns a store for reading only. Callers must not modify it.
func (tx *txn) view(hash common.UnitHash) (store.UnitStore, error) {
	if s, ok := tx.stores[hash]; ok {
		if s == nil {
			return nil, errors.Wrapf(ErrUnitNotFound, "%s", hash)
		}
		return s, nil
	}
	if v, ok := tx.sm.cache.Get(hash); ok {
		tx.sm.metrics.cacheHit.Mark(1)
		return v.(store.UnitStore), nil
	}
	tx.sm.metrics.cacheMiss.Mark(1)
	s, err := tx.db.getStore(hash)
	if err != nil {
		return nil, err
	}
	tx.sm.cache.Add(hash, s)
	return s, nil
}

// update returns a private copy of the store that put may write back.
func (tx *txn) update(hash common.UnitHash) (store.UnitStore, error) {
	if s, ok := tx.stores[hash]; ok {
		if s == nil {
			return nil, errors.Wrapf(ErrUnitNotFound, "%s", hash)
		}
		return s, nil
	}
	s, err := tx.db.getStore(hash)
	if err != nil {
		return nil, err
	}
	tx.stores[hash] = s
	return s, nil
}

func (tx *txn) exists(hash common.UnitHash) (bool, error) {
	_, err := tx.view(hash)
	if errors.Cause(err) == ErrUnitNotFound {
		return false, nil
	}
	return err == nil, err
}

func (tx *txn) put(s store.UnitStore) error {
	tx.stores[s.Hash()] = s
	return tx.db.putStore(s)
}

func (tx *txn) del(s store.UnitStore) error {
	hash := s.Hash()
	tx.stores[hash] = nil
	return tx.db.delStore(s.Unit().Type(), hash)
}

func (tx *txn) validatorSet() (*store.ValidatorSetStore, error) {
	if tx.vset == nil {
		set, err := tx.db.getValidatorSet()
		if err != nil {
			return nil, err
		}
		tx.vset = set
	}
	return tx.vset, nil
}

func (tx *txn) markValidatorSet() {
	tx.vsetDirty = true
}

func (tx *txn) epoch() (uint64, error) {
	return tx.db.getEpoch()
}

func (tx *txn) lastValidated() (common.UnitHash, error) {
	return tx.db.getMetaHash(KeyLastValidated)
}

// tip is the pending tip of pk if any, else its finalized tip.
func (tx *txn) tip(pk common.PublicKey) (common.UnitHash, error) {
	h, err := tx.db.getNewAccount(pk)
	if err != nil || !h.IsZero() {
		return h, err
	}
	return tx.db.getAccount(pk)
}

// pendingSegment walks back from hash to the first finalized unit and
// returns the pending units oldest first.
func (tx *txn) pendingSegment(hash common.UnitHash) ([]store.UnitStore, error) {
	var segment []store.UnitStore
	for !hash.IsZero() {
		s, err := tx.view(hash)
		if err != nil {
			return nil, err
		}
		if s.IsValidated() {
			break
		}
		segment = append(segment, s)
		hash = s.Unit().Header().Prev
	}
	for i, j := 0, len(segment)-1; i < j; i, j = i+1, j-1 {
		segment[i], segment[j] = segment[j], segment[i]
	}
	return segment, nil
}

func (tx *txn) prevBalance(u types.Unit) (common.Amount, error) {
	prev := u.Header().Prev
	if prev.IsZero() {
		return common.Amount{}, nil
	}
	s, err := tx.view(prev)
	if err != nil {
		return common.Amount{}, err
	}
	return s.Unit().Header().Balance, nil
}

// spendable is the tip balance less everything credited by pending units:
// funds arrive only once finalized, debits count as soon as they are pending.
func (tx *txn) spendable(pk common.PublicKey) (common.Amount, error) {
	tip, err := tx.tip(pk)
	if err != nil {
		return common.Amount{}, err
	}
	if tip.IsZero() {
		return common.Amount{}, errors.Wrapf(ErrAccountNotFound, "%s", pk)
	}
	segment, err := tx.pendingSegment(tip)
	if err != nil {
		return common.Amount{}, err
	}
	tipStore, err := tx.view(tip)
	if err != nil {
		return common.Amount{}, err
	}
	balance := tipStore.Unit().Header().Balance
	for _, s := range segment {
		prev, err := tx.prevBalance(s.Unit())
		if err != nil {
			return common.Amount{}, err
		}
		if credit, err := s.Unit().Header().Balance.Sub(prev); err == nil {
			if balance, err = balance.Sub(credit); err != nil {
				return common.Amount{}, err
			}
		}
	}
	return balance, nil
}

// pendingMembership reports whether pk has an enter or leave unit not yet
// finalized.
func (tx *txn) pendingMembership(pk common.PublicKey) (bool, error) {
	tip, err := tx.db.getNewAccount(pk)
	if err != nil || tip.IsZero() {
		return false, err
	}
	segment, err := tx.pendingSegment(tip)
	if err != nil {
		return false, err
	}
	for _, s := range segment {
		switch s.Unit().Type() {
		case types.UnitTypeEnterValidatorSet, types.UnitTypeLeaveValidatorSet:
			return true, nil
		}
	}
	return false, nil
}

func (tx *txn) commit() error {
	if tx.vsetDirty {
		if err := tx.db.putValidatorSet(tx.vset); err != nil {
			return err
		}
	}
	if err := tx.ov.Commit(); err != nil {
		return err
	}
	for hash := range tx.stores {
		tx.sm.cache.Remove(hash)
	}
	tx.sm.proposal = tx.proposal
	tx.sm.votes = tx.votes
	return nil
}

func (tx *txn) discard() {
	tx.ov.Discard()
}

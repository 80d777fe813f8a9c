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
	"reflect"
	"sync"

	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/core/store"
	"github.com/ambrchain/ambr/core/types"
	"github.com/ambrchain/ambr/crypto"
	"github.com/ambrchain/ambr/crypto/ed25519"
	"github.com/ambrchain/ambr/log"
	"github.com/ambrchain/ambr/persistent"
	"github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

const DefaultCacheSize = 4096

// StoreManager is the ledger engine. It
//
//	owns every ledger table in one persistent.Storage
//	validates units and stages each operation into one atomic batch
//	tracks the open proposal and its votes, finalizing on 70% of stake
//	notifies subscribers once the operation's lock is released
type StoreManager struct {
	params   *Params
	storage  persistent.Storage
	verifier crypto.Verifier
	cache    *lru.Cache
	metrics  *coreMetrics
	events   *unitFeeds
	buffer   *unitBuffer

	// lock guards the tables and the vote state. Internal helpers assume
	// it is held and never take it again.
	lock     sync.Mutex
	proposal common.UnitHash
	votes    []*types.VoteUnit

	runLock sync.Mutex
	running bool
	quitCh  chan struct{}
	wg      sync.WaitGroup
}

func NewStoreManager(storage persistent.Storage, params *Params, cacheSize int) (*StoreManager, error) {
	log.Info("Create New StoreManager")
	if storage == nil {
		return nil, ErrNoStorage
	}
	if params == nil {
		params = DefaultParams()
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	sm := &StoreManager{
		params:   params,
		storage:  storage,
		verifier: ed25519.NewSigner(),
		cache:    cache,
		metrics:  newCoreMetrics(),
		events:   newUnitFeeds(),
		buffer:   newUnitBuffer(),
	}
	if err := sm.loadVotes(); err != nil {
		return nil, err
	}
	return sm, nil
}

// loadVotes restores the open proposal and its votes after a restart.
func (sm *StoreManager) loadVotes() error {
	tx := sm.newTxn()
	proposal, err := tx.db.getMetaHash(KeyProposal)
	if err != nil || proposal.IsZero() {
		return err
	}
	hashes, err := tx.db.getValidatorVotes(proposal)
	if err != nil {
		return err
	}
	votes := make([]*types.VoteUnit, 0, len(hashes))
	seen := make(map[common.PublicKey]bool, len(hashes))
	for _, h := range hashes {
		s, err := tx.view(h)
		if err != nil {
			return errors.Wrapf(err, "vote %s", h)
		}
		vote := s.(*store.VoteUnitStore).VoteUnit()
		if seen[vote.PublicKey] {
			log.Warn("ignore repeated vote", "proposal", proposal, "voter", vote.PublicKey, "hash", h)
			continue
		}
		seen[vote.PublicKey] = true
		votes = append(votes, vote)
	}
	sm.proposal, sm.votes = proposal, votes
	log.Info("restored open proposal", "proposal", proposal, "votes", len(votes))
	return nil
}

func (sm *StoreManager) Params() *Params {
	return sm.params
}

// apply runs fn under the lock and commits what it staged. Events are
// delivered after the lock is released.
func (sm *StoreManager) apply(fn func(tx *txn) error) error {
	sm.lock.Lock()
	tx := sm.newTxn()
	err := fn(tx)
	if err == nil {
		if err = tx.commit(); err != nil {
			log.Error("ledger commit failed", "err", err)
		}
	}
	if err != nil {
		tx.discard()
	}
	sm.lock.Unlock()
	if err != nil {
		return err
	}
	sm.dispatch(tx)
	return nil
}

// view runs a read-only fn under the lock.
func (sm *StoreManager) view(fn func(tx *txn) error) error {
	sm.lock.Lock()
	defer sm.lock.Unlock()
	return fn(sm.newTxn())
}

func (sm *StoreManager) dispatch(tx *txn) {
	for _, s := range tx.added {
		sm.events.emitUnit(s)
	}
	for _, s := range tx.removed {
		sm.metrics.removed.Mark(1)
		sm.events.emitRemoved(s)
	}
	for _, ev := range tx.finalized {
		sm.metrics.finalized.Mark(1)
		sm.metrics.finalizedUnit.Mark(int64(len(ev.Units)))
		log.Info("validator unit finalized", "hash", ev.ValidatorUnit, "epoch", ev.Epoch,
			"units", len(ev.Units), "fees", ev.Fees)
		sm.events.emitFinalized(ev)
	}
}

// AddUnit validates u and adds it as a pending unit. A vote that brings its
// proposal over the pass threshold also finalizes the proposal.
func (sm *StoreManager) AddUnit(u types.Unit) error {
	if u == nil || reflect.ValueOf(u).IsNil() {
		return errors.Wrap(ErrMalformedUnit, "nil unit")
	}
	err := sm.apply(func(tx *txn) error { return tx.addUnit(u) })
	sm.metrics.markUnit(u.Type(), err)
	if err != nil {
		log.Debug("unit rejected", "type", u.Type(), "hash", types.Hash(u), "err", err)
	}
	return err
}

func (sm *StoreManager) AddSendUnit(u *types.SendUnit) error {
	return sm.AddUnit(u)
}

func (sm *StoreManager) AddReceiveUnit(u *types.ReceiveUnit) error {
	return sm.AddUnit(u)
}

func (sm *StoreManager) AddEnterValidatorSetUnit(u *types.EnterValidatorSetUnit) error {
	return sm.AddUnit(u)
}

func (sm *StoreManager) AddLeaveValidatorSetUnit(u *types.LeaveValidatorSetUnit) error {
	return sm.AddUnit(u)
}

func (sm *StoreManager) AddValidatorUnit(u *types.ValidatorUnit) error {
	return sm.AddUnit(u)
}

func (sm *StoreManager) AddVoteUnit(u *types.VoteUnit) error {
	return sm.AddUnit(u)
}

// RemoveUnit deletes a pending unit and every pending unit depending on it.
func (sm *StoreManager) RemoveUnit(hash common.UnitHash) error {
	err := sm.apply(func(tx *txn) error { return tx.removeUnit(hash) })
	if err != nil {
		log.Debug("remove failed", "hash", hash, "err", err)
	}
	return err
}

// ClearVote drops the collected votes of the open proposal, in memory and
// in the validator_vote table. The vote units themselves stay stored.
func (sm *StoreManager) ClearVote() error {
	return sm.apply(func(tx *txn) error {
		if !tx.proposal.IsZero() {
			if err := tx.db.delValidatorVotes(tx.proposal); err != nil {
				return err
			}
		}
		tx.votes = nil
		return nil
	})
}

func (sm *StoreManager) PrintMetrics() {
	sm.metrics.printMetrics()
}

// Close stops the consumer and closes the storage.
func (sm *StoreManager) Close() error {
	sm.Stop()
	sm.events.close()
	sm.lock.Lock()
	defer sm.lock.Unlock()
	return sm.storage.Close()
}

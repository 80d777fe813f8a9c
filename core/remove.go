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
	"github.com/pkg/errors"
)

// isFinal covers finalized units and proposals that passed their vote but
// are not yet finalized as units of their author's chain.
func (tx *txn) isFinal(s store.UnitStore) (bool, error) {
	if s.IsValidated() {
		return true, nil
	}
	if s.Unit().Type() == types.UnitTypeValidator {
		return tx.db.isFinalizedProposal(s.Hash())
	}
	return false, nil
}

// dependents lists the units that cannot survive the removal of s: the
// rest of its account chain, the receive of a send and the votes on a
// validator unit.
func (tx *txn) dependents(s store.UnitStore) ([]common.UnitHash, error) {
	var deps []common.UnitHash
	hash := s.Hash()
	pk := s.Unit().Header().PublicKey

	tip, err := tx.db.getNewAccount(pk)
	if err != nil {
		return nil, err
	}
	for cur := tip; !cur.IsZero() && cur != hash; {
		c, err := tx.view(cur)
		if err != nil {
			return nil, err
		}
		if c.IsValidated() {
			break
		}
		deps = append(deps, cur)
		cur = c.Unit().Header().Prev
	}

	switch st := s.(type) {
	case *store.SendUnitStore:
		if !st.ReceiveUnitHash.IsZero() {
			deps = append(deps, st.ReceiveUnitHash)
		}
	case *store.ValidatorUnitStore:
		votes, err := tx.db.getValidatorVotes(hash)
		if err != nil {
			return nil, err
		}
		deps = append(deps, votes...)
	}
	return deps, nil
}

// removeUnit deletes hash together with everything depending on it. Any
// finalized unit in that set fails the whole removal.
func (tx *txn) removeUnit(hash common.UnitHash) error {
	removed := make(map[common.UnitHash]bool)
	var order []store.UnitStore
	queue := []common.UnitHash{hash}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if removed[h] {
			continue
		}
		s, err := tx.view(h)
		if err != nil {
			return err
		}
		final, err := tx.isFinal(s)
		if err != nil {
			return err
		}
		if final {
			if h == hash {
				return errors.Wrapf(ErrAlreadyFinalized, "%s", h)
			}
			return errors.Wrapf(ErrAlreadyFinalized, "%s depends on %s", h, hash)
		}
		removed[h] = true
		order = append(order, s)
		deps, err := tx.dependents(s)
		if err != nil {
			return err
		}
		queue = append(queue, deps...)
	}

	earliest := make(map[common.PublicKey]store.UnitStore)
	for _, s := range order {
		if err := tx.undo(s, removed); err != nil {
			return err
		}
		pk := s.Unit().Header().PublicKey
		if e, ok := earliest[pk]; !ok || s.Unit().Header().Nonce < e.Unit().Header().Nonce {
			earliest[pk] = s
		}
	}

	for pk, s := range earliest {
		if err := tx.restoreTip(pk, s.Unit().Header().Prev); err != nil {
			return err
		}
	}
	return nil
}

// restoreTip makes prev the pending tip of pk, or clears the pending tip
// when prev is finalized or absent.
func (tx *txn) restoreTip(pk common.PublicKey, prev common.UnitHash) error {
	if prev.IsZero() {
		return tx.db.delNewAccount(pk)
	}
	p, err := tx.view(prev)
	if err != nil {
		return err
	}
	if p.IsValidated() {
		return tx.db.delNewAccount(pk)
	}
	return tx.db.putNewAccount(pk, prev)
}

// undo deletes one unit and reverts its side effects on surviving units.
func (tx *txn) undo(s store.UnitStore, removed map[common.UnitHash]bool) error {
	hash := s.Hash()
	if err := tx.del(s); err != nil {
		return err
	}
	tx.removed = append(tx.removed, s)

	switch u := s.Unit().(type) {
	case *types.SendUnit:
		return tx.db.removeWaitForReceive(u.Dest, hash)

	case *types.ReceiveUnit:
		if removed[u.From] {
			return nil
		}
		src, err := tx.update(u.From)
		if err != nil {
			return err
		}
		switch st := src.(type) {
		case *store.SendUnitStore:
			st.ReceiveUnitHash = common.EmptyHash
			if err := tx.put(st); err != nil {
				return err
			}
			return tx.db.addWaitForReceive(u.PublicKey, u.From)
		case *store.ValidatorUnitStore:
			income, err := tx.db.getValidatorBalance(u.PublicKey)
			if err != nil {
				return err
			}
			if income, err = income.Add(u.Amount); err != nil {
				return err
			}
			return tx.db.putValidatorBalance(u.PublicKey, income)
		}

	case *types.VoteUnit:
		if err := tx.db.delValidatorVote(u.ValidatorUnit, hash); err != nil {
			return err
		}
		kept := tx.votes[:0]
		for _, v := range tx.votes {
			if types.Hash(v) != hash {
				kept = append(kept, v)
			}
		}
		tx.votes = kept

	case *types.ValidatorUnit:
		if tx.proposal == hash {
			tx.proposal = common.EmptyHash
			tx.votes = nil
			return tx.db.putMetaHash(KeyProposal, common.EmptyHash)
		}
	}
	return nil
}

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
	"github.com/ambrchain/ambr/log"
	"github.com/pkg/errors"
)

// FinalizedEvent reports a proposal that passed its vote.
type FinalizedEvent struct {
	ValidatorUnit common.UnitHash
	Proposer      common.PublicKey
	Epoch         uint64
	Units         []common.UnitHash
	Fees          common.Amount
}

// tally weighs accept votes by the voter's stake against the active stake
// of the current epoch.
func (tx *txn) tally() (bool, error) {
	set, err := tx.validatorSet()
	if err != nil {
		return false, err
	}
	epoch, err := tx.epoch()
	if err != nil {
		return false, err
	}
	total, err := set.TotalActiveStake(epoch)
	if err != nil {
		return false, err
	}
	var accept common.Amount
	counted := make(map[common.PublicKey]bool, len(tx.votes))
	for _, v := range tx.votes {
		if !v.Accept || counted[v.PublicKey] {
			continue
		}
		counted[v.PublicKey] = true
		item, ok := set.GetValidator(v.PublicKey)
		if !ok || !item.IsActive(epoch) {
			continue
		}
		if accept, err = accept.Add(item.Balance); err != nil {
			return false, err
		}
	}
	log.Debug("tally", "proposal", tx.proposal, "accept", accept, "total", total, "votes", len(tx.votes))
	return tx.sm.params.Passes(accept, total), nil
}

// finalize commits the snapshot of validator. Check units removed since the
// proposal was made are skipped.
func (tx *txn) finalize(validator common.UnitHash) error {
	vs, err := tx.view(validator)
	if err != nil {
		return err
	}
	vu := vs.(*store.ValidatorUnitStore).ValidatorUnit()
	epoch, err := tx.epoch()
	if err != nil {
		return err
	}
	set, err := tx.validatorSet()
	if err != nil {
		return err
	}

	var fees common.Amount
	var finalized []common.UnitHash
	finalizeChain := func(tip common.UnitHash) error {
		segment, err := tx.pendingSegment(tip)
		if err != nil {
			return err
		}
		if len(segment) == 0 {
			return nil
		}
		for _, s := range segment {
			fee, err := tx.finalizeUnit(s.Hash(), epoch, set)
			if err != nil {
				return err
			}
			if fees, err = fees.Add(fee); err != nil {
				return err
			}
			finalized = append(finalized, s.Hash())
		}
		pk := segment[0].Unit().Header().PublicKey
		if err := tx.db.putAccount(pk, tip); err != nil {
			return err
		}
		pending, err := tx.db.getNewAccount(pk)
		if err != nil {
			return err
		}
		if pending == tip {
			return tx.db.delNewAccount(pk)
		}
		return nil
	}

	for _, h := range vu.CheckList {
		ok, err := tx.exists(h)
		if err != nil {
			return err
		}
		if !ok {
			log.Debug("finalize skips removed check unit", "validator", validator, "unit", h)
			continue
		}
		if err := finalizeChain(h); err != nil {
			return err
		}
	}

	// the proposal itself, once everything before it on its chain is final
	if !vs.IsValidated() {
		prev, err := tx.view(vu.Prev)
		if err != nil {
			return err
		}
		if prev.IsValidated() {
			if err := finalizeChain(validator); err != nil {
				return err
			}
		}
	}

	if !fees.IsZero() {
		income, err := tx.db.getValidatorBalance(vu.PublicKey)
		if err != nil {
			return err
		}
		if income, err = income.Add(fees); err != nil {
			return err
		}
		if err := tx.db.putValidatorBalance(vu.PublicKey, income); err != nil {
			return err
		}
	}

	last, err := tx.lastValidated()
	if err != nil {
		return err
	}
	if !last.IsZero() {
		ls, err := tx.update(last)
		if err != nil {
			return err
		}
		ls.(*store.ValidatorUnitStore).NextValidatorHash = validator
		if err := tx.put(ls); err != nil {
			return err
		}
	}
	if err := tx.db.putValidatedList(validator, finalized); err != nil {
		return err
	}
	if err := tx.db.putMetaHash(KeyLastValidated, validator); err != nil {
		return err
	}
	if err := tx.db.putEpoch(epoch + 1); err != nil {
		return err
	}
	if err := tx.db.putMetaHash(KeyProposal, common.EmptyHash); err != nil {
		return err
	}
	tx.proposal = common.EmptyHash
	tx.votes = nil

	tx.finalized = append(tx.finalized, FinalizedEvent{
		ValidatorUnit: validator,
		Proposer:      vu.PublicKey,
		Epoch:         epoch + 1,
		Units:         finalized,
		Fees:          fees,
	})
	return nil
}

// finalizeUnit marks one pending unit final and applies its deferred
// effects. It returns the fee the unit pays to the proposer.
func (tx *txn) finalizeUnit(hash common.UnitHash, epoch uint64, set *store.ValidatorSetStore) (common.Amount, error) {
	s, err := tx.update(hash)
	if err != nil {
		return common.Amount{}, err
	}
	s.SetValidated(true)
	if err := tx.put(s); err != nil {
		return common.Amount{}, err
	}

	var fee common.Amount
	switch u := s.Unit().(type) {
	case *types.ReceiveUnit:
		src, err := tx.view(u.From)
		if err != nil {
			return common.Amount{}, err
		}
		if send, ok := src.(*store.SendUnitStore); ok {
			if fee, err = tx.sm.params.TransactionFee(send.SendUnit()); err != nil {
				return common.Amount{}, err
			}
		}
	case *types.EnterValidatorSetUnit:
		set.PutValidator(store.ValidatorItem{
			PublicKey:  u.PublicKey,
			Balance:    u.Stake,
			EnterNonce: epoch + 1,
		})
		tx.markValidatorSet()
	case *types.LeaveValidatorSetUnit:
		item, ok := set.GetValidator(u.PublicKey)
		if !ok {
			return common.Amount{}, errors.Wrapf(ErrNotValidator, "leave %s", hash)
		}
		item.LeaveNonce = epoch + 1
		set.PutValidator(item)
		tx.markValidatorSet()
	}
	return fee, nil
}

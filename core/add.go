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

// addUnit validates u against the staged state and stages its writes.
// It is the only path by which a unit enters the ledger.
func (tx *txn) addUnit(u types.Unit) error {
	switch unit := u.(type) {
	case *types.SendUnit:
		if unit != nil {
			return tx.addSend(unit)
		}
	case *types.ReceiveUnit:
		if unit != nil {
			return tx.addReceive(unit)
		}
	case *types.EnterValidatorSetUnit:
		if unit != nil {
			return tx.addEnter(unit)
		}
	case *types.LeaveValidatorSetUnit:
		if unit != nil {
			return tx.addLeave(unit)
		}
	case *types.ValidatorUnit:
		if unit != nil {
			return tx.addValidator(unit)
		}
	case *types.VoteUnit:
		if unit != nil {
			return tx.addVote(unit)
		}
	}
	return errors.Wrapf(ErrMalformedUnit, "unsupported unit %T", u)
}

// checkHeader verifies chain linkage, nonce and signature. It returns the
// unit hash and the previous unit, nil for an account's first unit.
func (tx *txn) checkHeader(u types.Unit) (common.UnitHash, store.UnitStore, error) {
	h := u.Header()
	if h.Version != types.UnitVersion {
		return common.EmptyHash, nil, errors.Wrapf(ErrMalformedUnit, "version %d", h.Version)
	}
	if h.PublicKey.IsZero() {
		return common.EmptyHash, nil, errors.Wrap(ErrMalformedUnit, "empty public key")
	}
	hash := types.Hash(u)
	if ok, err := tx.exists(hash); err != nil {
		return hash, nil, err
	} else if ok {
		return hash, nil, errors.Wrapf(ErrUnitExists, "%s", hash)
	}

	tip, err := tx.tip(h.PublicKey)
	if err != nil {
		return hash, nil, err
	}
	var prev store.UnitStore
	if tip.IsZero() {
		if u.Type() != types.UnitTypeReceive || h.Nonce != 0 || !h.Prev.IsZero() {
			return hash, nil, errors.Wrapf(ErrNoPreviousUnit,
				"account %s has no units, its first unit must be a nonce 0 receive", h.PublicKey)
		}
	} else {
		if h.Prev != tip {
			return hash, nil, errors.Wrapf(ErrPrevUnitMismatch, "prev %s, account tip %s", h.Prev, tip)
		}
		if prev, err = tx.view(tip); err != nil {
			return hash, nil, err
		}
		if want := prev.Unit().Header().Nonce + 1; h.Nonce != want {
			return hash, nil, errors.Wrapf(ErrNonceMismatch, "nonce %d, want %d", h.Nonce, want)
		}
	}

	if !types.VerifySignature(u, tx.sm.verifier) {
		return hash, nil, errors.Wrapf(ErrSignature, "%s unit %s", u.Type(), hash)
	}
	return hash, prev, nil
}

func balanceOf(prev store.UnitStore) common.Amount {
	if prev == nil {
		return common.Amount{}
	}
	return prev.Unit().Header().Balance
}

func checkBalance(u types.Unit, want common.Amount) error {
	if got := u.Header().Balance; !got.Eq(want) {
		return errors.Wrapf(ErrBalanceMismatch, "%s unit balance %s, want %s", u.Type(), got, want)
	}
	return nil
}

// stage writes a validated unit and makes it the account's pending tip.
func (tx *txn) stage(s store.UnitStore) error {
	if err := tx.put(s); err != nil {
		return err
	}
	if err := tx.db.putNewAccount(s.Unit().Header().PublicKey, s.Hash()); err != nil {
		return err
	}
	tx.added = append(tx.added, s)
	return nil
}

func (tx *txn) addSend(u *types.SendUnit) error {
	hash, prev, err := tx.checkHeader(u)
	if err != nil {
		return err
	}
	if u.Amount.IsZero() {
		return errors.Wrap(ErrMalformedUnit, "zero amount send")
	}
	if u.Dest.IsZero() {
		return errors.Wrap(ErrMalformedUnit, "send without destination")
	}
	if !u.DataType.Valid() {
		return errors.Wrapf(ErrMalformedUnit, "data type %d", u.DataType)
	}
	if len(u.Data) > types.MaxDataLength {
		return errors.Wrapf(ErrMalformedUnit, "data length %d exceeds %d", len(u.Data), types.MaxDataLength)
	}
	fee, err := tx.sm.params.TransactionFee(u)
	if err != nil {
		return errors.Wrap(ErrFeeTooHigh, err.Error())
	}
	if !fee.Lt(u.Amount) {
		return errors.Wrapf(ErrFeeTooHigh, "amount %s, fee %s", u.Amount, fee)
	}
	spendable, err := tx.spendable(u.PublicKey)
	if err != nil {
		return err
	}
	if spendable.Lt(u.Amount) {
		return errors.Wrapf(ErrInsufficientBalance, "send %s, spendable %s", u.Amount, spendable)
	}
	want, err := balanceOf(prev).Sub(u.Amount)
	if err != nil {
		return errors.Wrap(ErrInsufficientBalance, err.Error())
	}
	if err := checkBalance(u, want); err != nil {
		return err
	}

	if err := tx.stage(store.NewSendUnitStore(u)); err != nil {
		return err
	}
	return tx.db.addWaitForReceive(u.Dest, hash)
}

func (tx *txn) addReceive(u *types.ReceiveUnit) error {
	hash, prev, err := tx.checkHeader(u)
	if err != nil {
		return err
	}
	if u.From.IsZero() {
		return errors.Wrap(ErrMalformedUnit, "receive without source")
	}
	src, err := tx.view(u.From)
	if err != nil {
		return err
	}

	switch s := src.(type) {
	case *store.SendUnitStore:
		send := s.SendUnit()
		if send.Dest != u.PublicKey {
			return errors.Wrapf(ErrNotRecipient, "send %s is for %s", u.From, send.Dest)
		}
		if !s.ReceiveUnitHash.IsZero() {
			return errors.Wrapf(ErrAlreadyReceived, "send %s received by %s", u.From, s.ReceiveUnitHash)
		}
		if !u.Amount.Eq(send.Amount) {
			return errors.Wrapf(ErrMalformedUnit, "receive amount %s, send carries %s", u.Amount, send.Amount)
		}
		fee, err := tx.sm.params.TransactionFee(send)
		if err != nil {
			return err
		}
		credit, err := u.Amount.Sub(fee)
		if err != nil || credit.IsZero() {
			return errors.Wrapf(ErrFeeTooHigh, "amount %s, fee %s", u.Amount, fee)
		}
		want, err := balanceOf(prev).Add(credit)
		if err != nil {
			return errors.Wrap(ErrMalformedUnit, err.Error())
		}
		if err := checkBalance(u, want); err != nil {
			return err
		}

		if err := tx.stage(store.NewReceiveUnitStore(u)); err != nil {
			return err
		}
		linked, err := tx.update(u.From)
		if err != nil {
			return err
		}
		linked.(*store.SendUnitStore).ReceiveUnitHash = hash
		if err := tx.put(linked); err != nil {
			return err
		}
		return tx.db.removeWaitForReceive(u.PublicKey, u.From)

	case *store.ValidatorUnitStore:
		finalized, err := tx.db.isFinalizedProposal(u.From)
		if err != nil {
			return err
		}
		if !finalized {
			return errors.Wrapf(ErrMalformedUnit, "income claim from unfinalized validator unit %s", u.From)
		}
		income, err := tx.db.getValidatorBalance(u.PublicKey)
		if err != nil {
			return err
		}
		if income.IsZero() {
			return errors.Wrapf(ErrNoIncome, "%s", u.PublicKey)
		}
		if !u.Amount.Eq(income) {
			return errors.Wrapf(ErrBalanceMismatch, "claim %s, income %s", u.Amount, income)
		}
		want, err := balanceOf(prev).Add(income)
		if err != nil {
			return errors.Wrap(ErrMalformedUnit, err.Error())
		}
		if err := checkBalance(u, want); err != nil {
			return err
		}
		if err := tx.stage(store.NewReceiveUnitStore(u)); err != nil {
			return err
		}
		return tx.db.putValidatorBalance(u.PublicKey, common.Amount{})
	}
	return errors.Wrapf(ErrMalformedUnit, "receive from %s unit", src.Unit().Type())
}

func (tx *txn) addEnter(u *types.EnterValidatorSetUnit) error {
	_, prev, err := tx.checkHeader(u)
	if err != nil {
		return err
	}
	if u.Stake.Lt(tx.sm.params.MinValidatorBalance) {
		return errors.Wrapf(ErrStakeTooLow, "stake %s, minimum %s", u.Stake, tx.sm.params.MinValidatorBalance)
	}
	set, err := tx.validatorSet()
	if err != nil {
		return err
	}
	epoch, err := tx.epoch()
	if err != nil {
		return err
	}
	if set.IsActive(u.PublicKey, epoch) {
		return errors.Wrapf(ErrAlreadyValidator, "%s", u.PublicKey)
	}
	if pending, err := tx.pendingMembership(u.PublicKey); err != nil {
		return err
	} else if pending {
		return errors.Wrapf(ErrPendingMembership, "%s", u.PublicKey)
	}
	spendable, err := tx.spendable(u.PublicKey)
	if err != nil {
		return err
	}
	if spendable.Lt(u.Stake) {
		return errors.Wrapf(ErrInsufficientBalance, "stake %s, spendable %s", u.Stake, spendable)
	}
	want, err := balanceOf(prev).Sub(u.Stake)
	if err != nil {
		return errors.Wrap(ErrInsufficientBalance, err.Error())
	}
	if err := checkBalance(u, want); err != nil {
		return err
	}
	return tx.stage(store.NewEnterValidatorSetUnitStore(u))
}

func (tx *txn) addLeave(u *types.LeaveValidatorSetUnit) error {
	_, prev, err := tx.checkHeader(u)
	if err != nil {
		return err
	}
	set, err := tx.validatorSet()
	if err != nil {
		return err
	}
	epoch, err := tx.epoch()
	if err != nil {
		return err
	}
	item, ok := set.GetValidator(u.PublicKey)
	if !ok || !item.IsActive(epoch) {
		return errors.Wrapf(ErrNotValidator, "%s", u.PublicKey)
	}
	if pending, err := tx.pendingMembership(u.PublicKey); err != nil {
		return err
	} else if pending {
		return errors.Wrapf(ErrPendingMembership, "%s", u.PublicKey)
	}
	want, err := balanceOf(prev).Add(item.Balance)
	if err != nil {
		return errors.Wrap(ErrMalformedUnit, err.Error())
	}
	if err := checkBalance(u, want); err != nil {
		return err
	}
	return tx.stage(store.NewLeaveValidatorSetUnitStore(u))
}

func (tx *txn) requireActive(pk common.PublicKey) error {
	set, err := tx.validatorSet()
	if err != nil {
		return err
	}
	epoch, err := tx.epoch()
	if err != nil {
		return err
	}
	if !set.IsActive(pk, epoch) {
		return errors.Wrapf(ErrNotValidator, "%s", pk)
	}
	return nil
}

func (tx *txn) addValidator(u *types.ValidatorUnit) error {
	hash, prev, err := tx.checkHeader(u)
	if err != nil {
		return err
	}
	if err := tx.requireActive(u.PublicKey); err != nil {
		return err
	}
	last, err := tx.lastValidated()
	if err != nil {
		return err
	}
	if u.PreValidator != last {
		return errors.Wrapf(ErrStaleProposal, "pre validator %s, last validated %s", u.PreValidator, last)
	}
	minTime, err := tx.nextProposalTime()
	if err != nil {
		return err
	}
	if u.Time < minTime {
		return errors.Wrapf(ErrMalformedUnit, "validator unit time %d before %d", u.Time, minTime)
	}
	if err := checkBalance(u, balanceOf(prev)); err != nil {
		return err
	}
	if err := tx.checkSnapshot(u.CheckList); err != nil {
		return err
	}
	if err := tx.stage(store.NewValidatorUnitStore(u)); err != nil {
		return err
	}
	if err := tx.db.putMetaHash(KeyProposal, hash); err != nil {
		return err
	}
	// a newer proposal supersedes the open one
	tx.proposal = hash
	tx.votes = nil
	return nil
}

// nextProposalTime is the earliest time a new validator unit may carry.
func (tx *txn) nextProposalTime() (uint64, error) {
	minTime := tx.sm.params.GenesisTime
	last, err := tx.lastValidated()
	if err != nil || last.IsZero() {
		return minTime, err
	}
	s, err := tx.view(last)
	if err != nil {
		return 0, err
	}
	if t := s.(*store.ValidatorUnitStore).ValidatorUnit().Time + 1; t > minTime {
		minTime = t
	}
	return minTime, nil
}

// checkSnapshot requires each check hash to be a pending unit, at most one
// per account, and every receive it would finalize to have its send
// finalized already or finalized by the same snapshot.
func (tx *txn) checkSnapshot(list []common.UnitHash) error {
	accounts := make(map[common.PublicKey]bool)
	covered := make(map[common.UnitHash]bool)
	var receives []*types.ReceiveUnit
	for _, h := range list {
		s, err := tx.view(h)
		if err != nil {
			return errors.Wrapf(err, "check list")
		}
		if s.IsValidated() {
			return errors.Wrapf(ErrMalformedUnit, "check unit %s already finalized", h)
		}
		pk := s.Unit().Header().PublicKey
		if accounts[pk] {
			return errors.Wrapf(ErrMalformedUnit, "two check units for account %s", pk)
		}
		accounts[pk] = true
		segment, err := tx.pendingSegment(h)
		if err != nil {
			return err
		}
		for _, p := range segment {
			covered[p.Hash()] = true
			if r, ok := p.Unit().(*types.ReceiveUnit); ok {
				receives = append(receives, r)
			}
		}
	}
	for _, r := range receives {
		src, err := tx.view(r.From)
		if err != nil {
			return err
		}
		if _, ok := src.(*store.SendUnitStore); ok && !src.IsValidated() && !covered[r.From] {
			return errors.Wrapf(ErrMalformedUnit, "check list finalizes receive of %s without its send", r.From)
		}
	}
	return nil
}

func (tx *txn) addVote(u *types.VoteUnit) error {
	hash, prev, err := tx.checkHeader(u)
	if err != nil {
		return err
	}
	if err := tx.requireActive(u.PublicKey); err != nil {
		return err
	}
	if tx.proposal.IsZero() || u.ValidatorUnit != tx.proposal {
		return errors.Wrapf(ErrStaleProposal, "vote for %s, open proposal %s", u.ValidatorUnit, tx.proposal)
	}
	voted, err := tx.hasVoted(u.ValidatorUnit, u.PublicKey)
	if err != nil {
		return err
	}
	if voted {
		return errors.Wrapf(ErrDuplicateVote, "%s on %s", u.PublicKey, u.ValidatorUnit)
	}
	if err := checkBalance(u, balanceOf(prev)); err != nil {
		return err
	}
	if err := tx.stage(store.NewVoteUnitStore(u)); err != nil {
		return err
	}
	if err := tx.db.putValidatorVote(u.ValidatorUnit, hash); err != nil {
		return err
	}
	tx.votes = append(tx.votes, u)
	if !u.Accept {
		return nil
	}
	passed, err := tx.tally()
	if err != nil || !passed {
		return err
	}
	return tx.finalize(tx.proposal)
}

// hasVoted looks at the stored votes of validator, not only the ones still
// held in memory.
func (tx *txn) hasVoted(validator common.UnitHash, pk common.PublicKey) (bool, error) {
	for _, v := range tx.votes {
		if v.PublicKey == pk {
			return true, nil
		}
	}
	hashes, err := tx.db.getValidatorVotes(validator)
	if err != nil {
		return false, err
	}
	for _, h := range hashes {
		s, err := tx.view(h)
		if err != nil {
			return false, errors.Wrapf(err, "vote %s", h)
		}
		if s.Unit().Header().PublicKey == pk {
			return true, nil
		}
	}
	return false, nil
}

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
	"time"

	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/core/store"
	"github.com/ambrchain/ambr/core/types"
	"github.com/ambrchain/ambr/crypto/ed25519"
	"github.com/ambrchain/ambr/log"
	"github.com/pkg/errors"
)

// unitFiller fills in the payload of a unit whose header links it to the
// account tip. balance is the tip balance.
type unitFiller func(tx *txn, h types.UnitHeader, balance common.Amount) (types.Unit, error)

// build creates the next unit of key's account, signs it and adds it in
// one operation.
func (sm *StoreManager) build(key common.PrivateKey, fill unitFiller) (types.Unit, error) {
	var unit types.Unit
	err := sm.apply(func(tx *txn) error {
		h, balance, err := tx.nextHeader(key.PublicKey())
		if err != nil {
			return err
		}
		u, err := fill(tx, h, balance)
		if err != nil {
			return err
		}
		if err := types.Sign(u, ed25519.NewSignerWithKey(key)); err != nil {
			return err
		}
		unit = u
		return tx.addUnit(u)
	})
	if unit != nil {
		sm.metrics.markUnit(unit.Type(), err)
	}
	if err != nil {
		log.Debug("build unit failed", "account", key.PublicKey(), "err", err)
		return nil, err
	}
	return unit, nil
}

func (tx *txn) nextHeader(pk common.PublicKey) (types.UnitHeader, common.Amount, error) {
	h := types.UnitHeader{Version: types.UnitVersion, PublicKey: pk}
	tip, err := tx.tip(pk)
	if err != nil || tip.IsZero() {
		return h, common.Amount{}, err
	}
	s, err := tx.view(tip)
	if err != nil {
		return h, common.Amount{}, err
	}
	prev := s.Unit().Header()
	h.Prev = tip
	h.Nonce = prev.Nonce + 1
	return h, prev.Balance, nil
}

func (sm *StoreManager) send(key common.PrivateKey, dest common.PublicKey, amount common.Amount,
	dataType types.DataType, data []byte) (*types.SendUnit, error) {
	u, err := sm.build(key, func(tx *txn, h types.UnitHeader, balance common.Amount) (types.Unit, error) {
		left, err := balance.Sub(amount)
		if err != nil {
			return nil, errors.Wrapf(ErrInsufficientBalance, "send %s, balance %s", amount, balance)
		}
		h.Balance = left
		return &types.SendUnit{
			UnitHeader: h,
			Dest:       dest,
			Amount:     amount,
			DataType:   dataType,
			Data:       common.CopyBytes(data),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return u.(*types.SendUnit), nil
}

func (sm *StoreManager) SendToAddress(key common.PrivateKey, dest common.PublicKey, amount common.Amount) (*types.SendUnit, error) {
	return sm.send(key, dest, amount, types.DataTypeTransfer, nil)
}

// SendMessage is a transfer carrying a message. Longer data pays a higher
// fee.
func (sm *StoreManager) SendMessage(key common.PrivateKey, dest common.PublicKey, amount common.Amount, message []byte) (*types.SendUnit, error) {
	return sm.send(key, dest, amount, types.DataTypeMessage, message)
}

func (sm *StoreManager) SendContract(key common.PrivateKey, dest common.PublicKey, amount common.Amount, code []byte) (*types.SendUnit, error) {
	return sm.send(key, dest, amount, types.DataTypeContract, code)
}

// ReceiveFromUnitHash redeems the send unit from.
func (sm *StoreManager) ReceiveFromUnitHash(key common.PrivateKey, from common.UnitHash) (*types.ReceiveUnit, error) {
	u, err := sm.build(key, func(tx *txn, h types.UnitHeader, balance common.Amount) (types.Unit, error) {
		src, err := tx.view(from)
		if err != nil {
			return nil, err
		}
		s, ok := src.(*store.SendUnitStore)
		if !ok {
			return nil, errors.Wrapf(ErrMalformedUnit, "%s is a %s unit", from, src.Unit().Type())
		}
		send := s.SendUnit()
		fee, err := tx.sm.params.TransactionFee(send)
		if err != nil {
			return nil, err
		}
		credit, err := send.Amount.Sub(fee)
		if err != nil {
			return nil, errors.Wrapf(ErrFeeTooHigh, "amount %s, fee %s", send.Amount, fee)
		}
		if h.Balance, err = balance.Add(credit); err != nil {
			return nil, errors.Wrap(ErrMalformedUnit, err.Error())
		}
		return &types.ReceiveUnit{UnitHeader: h, From: from, Amount: send.Amount}, nil
	})
	if err != nil {
		return nil, err
	}
	return u.(*types.ReceiveUnit), nil
}

// ReceiveFromValidator claims the fee income of key, referencing the last
// finalized validator unit.
func (sm *StoreManager) ReceiveFromValidator(key common.PrivateKey) (*types.ReceiveUnit, error) {
	u, err := sm.build(key, func(tx *txn, h types.UnitHeader, balance common.Amount) (types.Unit, error) {
		last, err := tx.lastValidated()
		if err != nil {
			return nil, err
		}
		if last.IsZero() {
			return nil, errors.Wrap(ErrNoIncome, "no finalized validator unit")
		}
		income, err := tx.db.getValidatorBalance(h.PublicKey)
		if err != nil {
			return nil, err
		}
		if income.IsZero() {
			return nil, errors.Wrapf(ErrNoIncome, "%s", h.PublicKey)
		}
		if h.Balance, err = balance.Add(income); err != nil {
			return nil, errors.Wrap(ErrMalformedUnit, err.Error())
		}
		return &types.ReceiveUnit{UnitHeader: h, From: last, Amount: income}, nil
	})
	if err != nil {
		return nil, err
	}
	return u.(*types.ReceiveUnit), nil
}

// JoinValidatorSet stakes stake. Membership starts the epoch after the
// unit is finalized.
func (sm *StoreManager) JoinValidatorSet(key common.PrivateKey, stake common.Amount) (*types.EnterValidatorSetUnit, error) {
	u, err := sm.build(key, func(tx *txn, h types.UnitHeader, balance common.Amount) (types.Unit, error) {
		left, err := balance.Sub(stake)
		if err != nil {
			return nil, errors.Wrapf(ErrInsufficientBalance, "stake %s, balance %s", stake, balance)
		}
		h.Balance = left
		return &types.EnterValidatorSetUnit{UnitHeader: h, Stake: stake}, nil
	})
	if err != nil {
		return nil, err
	}
	return u.(*types.EnterValidatorSetUnit), nil
}

func (sm *StoreManager) LeaveValidatorSet(key common.PrivateKey) (*types.LeaveValidatorSetUnit, error) {
	u, err := sm.build(key, func(tx *txn, h types.UnitHeader, balance common.Amount) (types.Unit, error) {
		set, err := tx.validatorSet()
		if err != nil {
			return nil, err
		}
		item, ok := set.GetValidator(h.PublicKey)
		if !ok {
			return nil, errors.Wrapf(ErrNotValidator, "%s", h.PublicKey)
		}
		if h.Balance, err = balance.Add(item.Balance); err != nil {
			return nil, errors.Wrap(ErrMalformedUnit, err.Error())
		}
		return &types.LeaveValidatorSetUnit{UnitHeader: h}, nil
	})
	if err != nil {
		return nil, err
	}
	return u.(*types.LeaveValidatorSetUnit), nil
}

// PublishValidator proposes finalizing every pending tip.
func (sm *StoreManager) PublishValidator(key common.PrivateKey) (*types.ValidatorUnit, error) {
	u, err := sm.build(key, func(tx *txn, h types.UnitHeader, balance common.Amount) (types.Unit, error) {
		last, err := tx.lastValidated()
		if err != nil {
			return nil, err
		}
		minTime, err := tx.nextProposalTime()
		if err != nil {
			return nil, err
		}
		now := uint64(time.Now().UnixNano() / int64(time.Millisecond))
		if now < minTime {
			now = minTime
		}
		tips, err := tx.pendingTips()
		if err != nil {
			return nil, err
		}
		h.Balance = balance
		return &types.ValidatorUnit{UnitHeader: h, PreValidator: last, Time: now, CheckList: tips}, nil
	})
	if err != nil {
		return nil, err
	}
	return u.(*types.ValidatorUnit), nil
}

// PublishVote votes on the open proposal.
func (sm *StoreManager) PublishVote(key common.PrivateKey, accept bool) (*types.VoteUnit, error) {
	u, err := sm.build(key, func(tx *txn, h types.UnitHeader, balance common.Amount) (types.Unit, error) {
		if tx.proposal.IsZero() {
			return nil, errors.Wrap(ErrStaleProposal, "no open proposal")
		}
		h.Balance = balance
		return &types.VoteUnit{UnitHeader: h, ValidatorUnit: tx.proposal, Accept: accept}, nil
	})
	if err != nil {
		return nil, err
	}
	return u.(*types.VoteUnit), nil
}

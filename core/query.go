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
	"sort"
	"time"

	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/core/store"
	"github.com/ambrchain/ambr/core/types"
	"github.com/pkg/errors"
)

// clone detaches a store from the cache before handing it to a caller.
func clone(s store.UnitStore) store.UnitStore {
	c, err := store.FromBytes(s.SerializeBytes())
	if err != nil {
		panic(err)
	}
	return c
}

func (sm *StoreManager) GetUnitStore(hash common.UnitHash) (store.UnitStore, error) {
	var s store.UnitStore
	err := sm.view(func(tx *txn) (err error) {
		s, err = tx.view(hash)
		return
	})
	if err != nil {
		return nil, err
	}
	return clone(s), nil
}

func (sm *StoreManager) GetUnit(hash common.UnitHash) (types.Unit, error) {
	s, err := sm.GetUnitStore(hash)
	if err != nil {
		return nil, err
	}
	return s.Unit(), nil
}

func (sm *StoreManager) IsValidated(hash common.UnitHash) (bool, error) {
	var ok bool
	err := sm.view(func(tx *txn) error {
		s, err := tx.view(hash)
		if err != nil {
			return err
		}
		ok = s.IsValidated()
		return nil
	})
	return ok, err
}

func (sm *StoreManager) GetLastValidatedUnitHash(pk common.PublicKey) (common.UnitHash, error) {
	var h common.UnitHash
	err := sm.view(func(tx *txn) (err error) {
		h, err = tx.db.getAccount(pk)
		return
	})
	if err == nil && h.IsZero() {
		err = errors.Wrapf(ErrAccountNotFound, "%s has no finalized unit", pk)
	}
	return h, err
}

func (sm *StoreManager) GetLastValidatedUnit(pk common.PublicKey) (store.UnitStore, error) {
	h, err := sm.GetLastValidatedUnitHash(pk)
	if err != nil {
		return nil, err
	}
	return sm.GetUnitStore(h)
}

func (sm *StoreManager) GetLastValidatedNonce(pk common.PublicKey) (uint64, error) {
	s, err := sm.GetLastValidatedUnit(pk)
	if err != nil {
		return 0, err
	}
	return s.Unit().Header().Nonce, nil
}

// GetLastUnitHash is the account tip, pending or finalized.
func (sm *StoreManager) GetLastUnitHash(pk common.PublicKey) (common.UnitHash, error) {
	var h common.UnitHash
	err := sm.view(func(tx *txn) (err error) {
		h, err = tx.tip(pk)
		return
	})
	if err == nil && h.IsZero() {
		err = errors.Wrapf(ErrAccountNotFound, "%s", pk)
	}
	return h, err
}

// GetBalance is what pk can spend now: finalized credits less every debit,
// pending ones included.
func (sm *StoreManager) GetBalance(pk common.PublicKey) (common.Amount, error) {
	var b common.Amount
	err := sm.view(func(tx *txn) (err error) {
		b, err = tx.spendable(pk)
		return
	})
	return b, err
}

// GetTradeHistory returns up to count units of pk, newest first. count <= 0
// returns the whole chain.
func (sm *StoreManager) GetTradeHistory(pk common.PublicKey, count int) ([]store.UnitStore, error) {
	return sm.GetTradeHistoryFrom(pk, common.EmptyHash, count)
}

// GetTradeHistoryFrom walks back from the unit from, which must belong to
// pk. An empty from starts at the account tip.
func (sm *StoreManager) GetTradeHistoryFrom(pk common.PublicKey, from common.UnitHash, count int) ([]store.UnitStore, error) {
	var out []store.UnitStore
	err := sm.view(func(tx *txn) error {
		cur := from
		if cur.IsZero() {
			tip, err := tx.tip(pk)
			if err != nil {
				return err
			}
			if tip.IsZero() {
				return errors.Wrapf(ErrAccountNotFound, "%s", pk)
			}
			cur = tip
		}
		for !cur.IsZero() && (count <= 0 || len(out) < count) {
			s, err := tx.view(cur)
			if err != nil {
				return err
			}
			if s.Unit().Header().PublicKey != pk {
				return errors.Wrapf(ErrUnitNotFound, "%s is not a unit of %s", cur, pk)
			}
			out = append(out, clone(s))
			cur = s.Unit().Header().Prev
		}
		return nil
	})
	return out, err
}

func (sm *StoreManager) GetWaitForReceiveList(pk common.PublicKey) ([]common.UnitHash, error) {
	var list []common.UnitHash
	err := sm.view(func(tx *txn) (err error) {
		list, err = tx.db.getWaitForReceive(pk)
		return
	})
	return list, err
}

// GetValidatorIncome is the fee income pk can claim.
func (sm *StoreManager) GetValidatorIncome(pk common.PublicKey) (common.Amount, error) {
	var b common.Amount
	err := sm.view(func(tx *txn) (err error) {
		b, err = tx.db.getValidatorBalance(pk)
		return
	})
	return b, err
}

func (sm *StoreManager) GetValidatorSet() (*store.ValidatorSetStore, error) {
	var set *store.ValidatorSetStore
	err := sm.view(func(tx *txn) (err error) {
		set, err = tx.validatorSet()
		return
	})
	return set, err
}

func (sm *StoreManager) GetActiveValidators() ([]store.ValidatorItem, error) {
	var items []store.ValidatorItem
	err := sm.view(func(tx *txn) error {
		set, err := tx.validatorSet()
		if err != nil {
			return err
		}
		epoch, err := tx.epoch()
		if err != nil {
			return err
		}
		items = set.ActiveValidators(epoch)
		return nil
	})
	return items, err
}

// GetLastValidatorUnitHash is the last proposal that passed its vote.
func (sm *StoreManager) GetLastValidatorUnitHash() (common.UnitHash, error) {
	var h common.UnitHash
	err := sm.view(func(tx *txn) (err error) {
		h, err = tx.lastValidated()
		return
	})
	return h, err
}

func (sm *StoreManager) GetEpoch() (uint64, error) {
	var e uint64
	err := sm.view(func(tx *txn) (err error) {
		e, err = tx.epoch()
		return
	})
	return e, err
}

// GetValidatedUnits lists the units finalized by validator, followed by
// those of up to extraEpochs later proposals.
func (sm *StoreManager) GetValidatedUnits(validator common.UnitHash, extraEpochs int) ([]common.UnitHash, error) {
	var out []common.UnitHash
	err := sm.view(func(tx *txn) error {
		cur := validator
		for i := 0; i <= extraEpochs && !cur.IsZero(); i++ {
			list, ok, err := tx.db.getValidatedList(cur)
			if err != nil {
				return err
			}
			if !ok {
				if i == 0 {
					return errors.Wrapf(ErrUnitNotFound, "%s is not a finalized validator unit", cur)
				}
				break
			}
			out = append(out, list...)
			s, err := tx.view(cur)
			if err != nil {
				return err
			}
			cur = s.(*store.ValidatorUnitStore).NextValidatorHash
		}
		return nil
	})
	return out, err
}

// GetValidateHistory returns up to count finalized validator units, newest
// first, walking back from the last one through PreValidator.
func (sm *StoreManager) GetValidateHistory(count int) ([]*store.ValidatorUnitStore, error) {
	var out []*store.ValidatorUnitStore
	err := sm.view(func(tx *txn) error {
		cur, err := tx.lastValidated()
		if err != nil {
			return err
		}
		for !cur.IsZero() && len(out) < count {
			s, err := tx.view(cur)
			if err != nil {
				return err
			}
			vs, ok := s.(*store.ValidatorUnitStore)
			if !ok {
				return errors.Wrapf(ErrMalformedUnit, "%s is not a validator unit", cur)
			}
			out = append(out, clone(vs).(*store.ValidatorUnitStore))
			cur = vs.ValidatorUnit().PreValidator
		}
		return nil
	})
	return out, err
}

// GetNextValidatorHash returns the validator unit finalized right after
// hash, or the empty hash if hash is the last one.
func (sm *StoreManager) GetNextValidatorHash(hash common.UnitHash) (common.UnitHash, error) {
	var next common.UnitHash
	err := sm.view(func(tx *txn) error {
		s, err := tx.view(hash)
		if err != nil {
			return err
		}
		vs, ok := s.(*store.ValidatorUnitStore)
		if !ok {
			return errors.Wrapf(ErrMalformedUnit, "%s is not a validator unit", hash)
		}
		next = vs.NextValidatorHash
		return nil
	})
	return next, err
}

// GetNonceByNowTime is the proposal slot of the current time.
func (sm *StoreManager) GetNonceByNowTime() uint64 {
	return sm.params.NonceAt(uint64(time.Now().UnixNano() / int64(time.Millisecond)))
}

// GetSendAmount is the amount a send unit debits from its sender.
func (sm *StoreManager) GetSendAmount(hash common.UnitHash) (common.Amount, error) {
	send, err := sm.sendUnit(hash)
	if err != nil {
		return common.Amount{}, err
	}
	return send.Amount, nil
}

// GetSendAmountWithTransactionFee returns the amount of a send together
// with the fee its receive will withhold.
func (sm *StoreManager) GetSendAmountWithTransactionFee(hash common.UnitHash) (amount, fee common.Amount, err error) {
	send, err := sm.sendUnit(hash)
	if err != nil {
		return common.Amount{}, common.Amount{}, err
	}
	if fee, err = sm.params.TransactionFee(send); err != nil {
		return common.Amount{}, common.Amount{}, err
	}
	return send.Amount, fee, nil
}

func (sm *StoreManager) sendUnit(hash common.UnitHash) (*types.SendUnit, error) {
	u, err := sm.GetUnit(hash)
	if err != nil {
		return nil, err
	}
	send, ok := u.(*types.SendUnit)
	if !ok {
		return nil, errors.Wrapf(ErrMalformedUnit, "%s is a %s unit, not a send", hash, u.Type())
	}
	return send, nil
}

// GetReceiveAmount is what a receive unit credits its account, after the
// fee for sends and in full for income claims.
func (sm *StoreManager) GetReceiveAmount(hash common.UnitHash) (common.Amount, error) {
	var credit common.Amount
	err := sm.view(func(tx *txn) error {
		s, err := tx.view(hash)
		if err != nil {
			return err
		}
		u, ok := s.Unit().(*types.ReceiveUnit)
		if !ok {
			return errors.Wrapf(ErrMalformedUnit, "%s is a %s unit, not a receive", hash, s.Unit().Type())
		}
		prev, err := tx.prevBalance(u)
		if err != nil {
			return err
		}
		credit, err = u.Balance.Sub(prev)
		return err
	})
	return credit, err
}

// GetAccountListForDebug lists the finalized tip of every account in key
// order.
func (sm *StoreManager) GetAccountListForDebug() ([]common.UnitHash, error) {
	accounts, err := sm.GetAccounts()
	if err != nil {
		return nil, err
	}
	keys := make([]common.PublicKey, 0, len(accounts))
	for pk := range accounts {
		keys = append(keys, pk)
	}
	sort.Slice(keys, func(i, j int) bool { return string(keys[i][:]) < string(keys[j][:]) })
	tips := make([]common.UnitHash, 0, len(keys))
	for _, pk := range keys {
		tips = append(tips, accounts[pk])
	}
	return tips, nil
}

// GetValidatorIncomeListForDebug lists every validator with unclaimed income.
func (sm *StoreManager) GetValidatorIncomeListForDebug() (map[common.PublicKey]common.Amount, error) {
	var incomes map[common.PublicKey]common.Amount
	err := sm.view(func(tx *txn) (err error) {
		incomes, err = tx.db.validatorBalances()
		return
	})
	return incomes, err
}

// GetBalanceAllForDebug adds up finalized balances, unclaimed income and the
// stake of validators that have not left. It equals the genesis supply once
// every send is received and finalized, and is below it otherwise.
func (sm *StoreManager) GetBalanceAllForDebug() (common.Amount, error) {
	var total common.Amount
	err := sm.view(func(tx *txn) error {
		add := func(a common.Amount) (err error) {
			total, err = total.Add(a)
			return
		}
		accounts, err := hashTable(tx.db.account)
		if err != nil {
			return err
		}
		for _, tip := range accounts {
			s, err := tx.view(tip)
			if err != nil {
				return err
			}
			if err := add(s.Unit().Header().Balance); err != nil {
				return err
			}
		}
		incomes, err := tx.db.validatorBalances()
		if err != nil {
			return err
		}
		for _, income := range incomes {
			if err := add(income); err != nil {
				return err
			}
		}
		set, err := tx.validatorSet()
		if err != nil {
			return err
		}
		for _, item := range set.GetValidatorList() {
			if item.LeaveNonce == 0 {
				if err := add(item.Balance); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return total, err
}

// GetVotes returns the open proposal and the votes collected on it.
func (sm *StoreManager) GetVotes() (common.UnitHash, []*types.VoteUnit) {
	sm.lock.Lock()
	defer sm.lock.Unlock()
	return sm.proposal, append([]*types.VoteUnit(nil), sm.votes...)
}

// GetPendingTips lists the pending tip of every account with one, in key
// order. It is the natural check list of a new proposal.
func (sm *StoreManager) GetPendingTips() ([]common.UnitHash, error) {
	var tips []common.UnitHash
	err := sm.view(func(tx *txn) (err error) {
		tips, err = tx.pendingTips()
		return
	})
	return tips, err
}

func (tx *txn) pendingTips() ([]common.UnitHash, error) {
	m, err := hashTable(tx.db.newAccount)
	if err != nil {
		return nil, err
	}
	keys := make([]common.PublicKey, 0, len(m))
	for pk := range m {
		keys = append(keys, pk)
	}
	sort.Slice(keys, func(i, j int) bool { return string(keys[i][:]) < string(keys[j][:]) })
	tips := make([]common.UnitHash, 0, len(keys))
	for _, pk := range keys {
		tips = append(tips, m[pk])
	}
	return tips, nil
}

// GetAccounts lists the finalized tip of every account.
func (sm *StoreManager) GetAccounts() (map[common.PublicKey]common.UnitHash, error) {
	var m map[common.PublicKey]common.UnitHash
	err := sm.view(func(tx *txn) (err error) {
		m, err = hashTable(tx.db.account)
		return
	})
	return m, err
}

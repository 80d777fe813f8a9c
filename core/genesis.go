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
	"encoding/json"
	"io/ioutil"

	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/core/store"
	"github.com/ambrchain/ambr/core/types"
	"github.com/ambrchain/ambr/crypto"
	"github.com/ambrchain/ambr/crypto/ed25519"
	"github.com/pkg/errors"
)

// Genesis is the first two units of the ledger: the issuance of the whole
// supply to one account, and that account staking to become the first
// validator.
type Genesis struct {
	Receive *types.ReceiveUnit
	Enter   *types.EnterValidatorSetUnit
}

// NewGenesis builds and signs the genesis units for key.
func NewGenesis(key common.PrivateKey, params *Params) (*Genesis, error) {
	pk := key.PublicKey()
	receive := &types.ReceiveUnit{
		UnitHeader: types.UnitHeader{
			Version:   types.UnitVersion,
			PublicKey: pk,
			Balance:   params.GenesisSupply,
		},
		Amount: params.GenesisSupply,
	}
	signer := ed25519.NewSignerWithKey(key)
	if err := types.Sign(receive, signer); err != nil {
		return nil, err
	}
	balance, err := params.GenesisSupply.Sub(params.MinValidatorBalance)
	if err != nil {
		return nil, err
	}
	enter := &types.EnterValidatorSetUnit{
		UnitHeader: types.UnitHeader{
			Version:   types.UnitVersion,
			PublicKey: pk,
			Prev:      types.Hash(receive),
			Nonce:     1,
			Balance:   balance,
		},
		Stake: params.MinValidatorBalance,
	}
	if err := types.Sign(enter, signer); err != nil {
		return nil, err
	}
	return &Genesis{Receive: receive, Enter: enter}, nil
}

type genesisJSON struct {
	Receive json.RawMessage `json:"receive"`
	Enter   json.RawMessage `json:"enter"`
}

func (g *Genesis) MarshalJSON() ([]byte, error) {
	receive, err := types.MarshalUnitJSON(g.Receive)
	if err != nil {
		return nil, err
	}
	enter, err := types.MarshalUnitJSON(g.Enter)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&genesisJSON{Receive: receive, Enter: enter})
}

func (g *Genesis) UnmarshalJSON(data []byte) error {
	var enc genesisJSON
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	receive, err := types.UnmarshalUnitJSON(enc.Receive)
	if err != nil {
		return errors.Wrap(err, "genesis receive")
	}
	enter, err := types.UnmarshalUnitJSON(enc.Enter)
	if err != nil {
		return errors.Wrap(err, "genesis enter")
	}
	var ok bool
	if g.Receive, ok = receive.(*types.ReceiveUnit); !ok {
		return errors.Wrapf(ErrMalformedUnit, "genesis receive is a %s unit", receive.Type())
	}
	if g.Enter, ok = enter.(*types.EnterValidatorSetUnit); !ok {
		return errors.Wrapf(ErrMalformedUnit, "genesis enter is a %s unit", enter.Type())
	}
	return nil
}

func LoadGenesis(path string) (*Genesis, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g := new(Genesis)
	if err := json.Unmarshal(data, g); err != nil {
		return nil, errors.Wrapf(err, "genesis %s", path)
	}
	return g, nil
}

func (g *Genesis) verify(params *Params, verifier crypto.Verifier) error {
	r, e := g.Receive, g.Enter
	if r == nil || e == nil {
		return errors.Wrap(ErrMalformedUnit, "incomplete genesis")
	}
	pk := r.PublicKey
	if !params.GenesisPublicKey.IsZero() && pk != params.GenesisPublicKey {
		return errors.Wrapf(ErrMalformedUnit, "genesis account %s, configured %s", pk, params.GenesisPublicKey)
	}
	if r.Version != types.UnitVersion || r.Nonce != 0 || !r.Prev.IsZero() || !r.From.IsZero() {
		return errors.Wrap(ErrMalformedUnit, "genesis receive header")
	}
	if !r.Amount.Eq(params.GenesisSupply) || !r.Balance.Eq(r.Amount) {
		return errors.Wrapf(ErrBalanceMismatch, "genesis supply %s, configured %s", r.Amount, params.GenesisSupply)
	}
	if e.Version != types.UnitVersion || e.PublicKey != pk || e.Prev != types.Hash(r) || e.Nonce != 1 {
		return errors.Wrap(ErrMalformedUnit, "genesis enter header")
	}
	if e.Stake.Lt(params.MinValidatorBalance) {
		return errors.Wrapf(ErrStakeTooLow, "genesis stake %s", e.Stake)
	}
	want, err := r.Balance.Sub(e.Stake)
	if err != nil {
		return errors.Wrap(ErrInsufficientBalance, err.Error())
	}
	if err := checkBalance(e, want); err != nil {
		return err
	}
	if !types.VerifySignature(r, verifier) || !types.VerifySignature(e, verifier) {
		return errors.Wrap(ErrSignature, "genesis")
	}
	return nil
}

// InitGenesis writes g as finalized units into an empty ledger. The genesis
// account becomes the only validator.
func (sm *StoreManager) InitGenesis(g *Genesis) error {
	if err := g.verify(sm.params, sm.verifier); err != nil {
		return err
	}
	return sm.apply(func(tx *txn) error {
		if h, err := tx.db.getMetaHash(KeyGenesis); err != nil {
			return err
		} else if !h.IsZero() {
			return errors.Wrapf(ErrGenesisExists, "%s", h)
		}
		pk := g.Receive.PublicKey
		for _, u := range []types.Unit{g.Receive, g.Enter} {
			s := store.NewUnitStore(u)
			s.SetValidated(true)
			if err := tx.put(s); err != nil {
				return err
			}
			tx.added = append(tx.added, s)
		}
		enterHash := types.Hash(g.Enter)
		if err := tx.db.putAccount(pk, enterHash); err != nil {
			return err
		}
		set, err := tx.validatorSet()
		if err != nil {
			return err
		}
		set.PutValidator(store.ValidatorItem{PublicKey: pk, Balance: g.Enter.Stake})
		tx.markValidatorSet()
		if err := tx.db.putEpoch(0); err != nil {
			return err
		}
		return tx.db.putMetaHash(KeyGenesis, types.Hash(g.Receive))
	})
}

func (sm *StoreManager) GetGenesisHash() (common.UnitHash, error) {
	var h common.UnitHash
	err := sm.view(func(tx *txn) (err error) {
		h, err = tx.db.getMetaHash(KeyGenesis)
		return
	})
	return h, err
}

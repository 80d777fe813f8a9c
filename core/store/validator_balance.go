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

package store

import (
	"encoding/binary"
	"encoding/json"

	"github.com/ambrchain/ambr/common"
	"github.com/pkg/errors"
)

// ValidatorBalanceStore holds fee income a validator has earned but not
// yet claimed with an income ReceiveUnit.
type ValidatorBalanceStore struct {
	version uint32
	Balance common.Amount
}

func NewValidatorBalanceStore(balance common.Amount) *ValidatorBalanceStore {
	return &ValidatorBalanceStore{version: StoreVersion, Balance: balance}
}

func (s *ValidatorBalanceStore) GetVersion() uint32 { return s.version }

type validatorBalanceJSON struct {
	Version *uint32       `json:"version"`
	Balance common.Amount `json:"balance"`
}

func (s *ValidatorBalanceStore) SerializeJSON() ([]byte, error) {
	v := s.version
	return json.Marshal(&validatorBalanceJSON{Version: &v, Balance: s.Balance})
}

func (s *ValidatorBalanceStore) DeSerializeJSON(data []byte) error {
	var enc validatorBalanceJSON
	if err := json.Unmarshal(data, &enc); err != nil {
		return errors.Wrap(err, "validator balance json")
	}
	if enc.Version == nil || *enc.Version != StoreVersion {
		return errors.Wrap(ErrStoreVersion, "validator balance")
	}
	s.version, s.Balance = StoreVersion, enc.Balance
	return nil
}

func (s *ValidatorBalanceStore) SerializeBytes() []byte {
	out := make([]byte, 4, 4+common.AmountLength)
	binary.LittleEndian.PutUint32(out, s.version)
	return append(out, s.Balance.Bytes()...)
}

func (s *ValidatorBalanceStore) DeSerializeBytes(data []byte) error {
	if len(data) < 4+common.AmountLength {
		return errors.Wrapf(ErrShortBuffer, "validator balance needs %d bytes, have %d", 4+common.AmountLength, len(data))
	}
	if len(data) > 4+common.AmountLength {
		return errors.Wrapf(ErrTrailingBytes, "%d extra bytes", len(data)-4-common.AmountLength)
	}
	if v := binary.LittleEndian.Uint32(data[:4]); v != StoreVersion {
		return errors.Wrapf(ErrStoreVersion, "version %d", v)
	}
	balance, err := common.AmountFromBytes(data[4:])
	if err != nil {
		return err
	}
	s.version, s.Balance = StoreVersion, balance
	return nil
}

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

const validatorItemLength = common.PublicKeyLength + common.AmountLength + 8 + 8

var ErrDuplicateValidator = errors.New("duplicate validator")

// ValidatorItem is one roster entry. LeaveNonce 0 means the validator has
// not left.
type ValidatorItem struct {
	PublicKey  common.PublicKey `json:"public_key"`
	Balance    common.Amount    `json:"balance"`
	EnterNonce uint64           `json:"enter_nonce"`
	LeaveNonce uint64           `json:"leave_nonce"`
}

// IsActive reports whether the item may propose and vote at epoch.
func (v *ValidatorItem) IsActive(epoch uint64) bool {
	return v.EnterNonce <= epoch && v.LeaveNonce == 0
}

// ValidatorSetStore keeps the roster as an ordered list plus an index by
// public key. Both are rebuilt together on every mutation.
type ValidatorSetStore struct {
	version uint32
	list    []ValidatorItem
	index   map[common.PublicKey]int
}

func NewValidatorSetStore() *ValidatorSetStore {
	return &ValidatorSetStore{version: StoreVersion, index: make(map[common.PublicKey]int)}
}

func (s *ValidatorSetStore) GetVersion() uint32 { return s.version }

func (s *ValidatorSetStore) Len() int { return len(s.list) }

// SetValidatorList replaces the roster. A list with a repeated public key is
// rejected and leaves the store unchanged.
func (s *ValidatorSetStore) SetValidatorList(list []ValidatorItem) error {
	index := make(map[common.PublicKey]int, len(list))
	for i, item := range list {
		if _, ok := index[item.PublicKey]; ok {
			return errors.Wrapf(ErrDuplicateValidator, "%s", item.PublicKey)
		}
		index[item.PublicKey] = i
	}
	s.list = append([]ValidatorItem(nil), list...)
	s.index = index
	return nil
}

// GetValidatorList returns a copy of the roster in insertion order.
func (s *ValidatorSetStore) GetValidatorList() []ValidatorItem {
	return append([]ValidatorItem(nil), s.list...)
}

func (s *ValidatorSetStore) GetValidator(pk common.PublicKey) (ValidatorItem, bool) {
	i, ok := s.index[pk]
	if !ok {
		return ValidatorItem{}, false
	}
	return s.list[i], true
}

// PutValidator inserts item or replaces the entry with the same key in place.
func (s *ValidatorSetStore) PutValidator(item ValidatorItem) {
	if i, ok := s.index[item.PublicKey]; ok {
		s.list[i] = item
		return
	}
	s.index[item.PublicKey] = len(s.list)
	s.list = append(s.list, item)
}

func (s *ValidatorSetStore) RemoveValidator(pk common.PublicKey) bool {
	i, ok := s.index[pk]
	if !ok {
		return false
	}
	s.list = append(s.list[:i], s.list[i+1:]...)
	delete(s.index, pk)
	for j := i; j < len(s.list); j++ {
		s.index[s.list[j].PublicKey] = j
	}
	return true
}

func (s *ValidatorSetStore) IsActive(pk common.PublicKey, epoch uint64) bool {
	item, ok := s.GetValidator(pk)
	return ok && item.IsActive(epoch)
}

func (s *ValidatorSetStore) ActiveValidators(epoch uint64) []ValidatorItem {
	var out []ValidatorItem
	for _, item := range s.list {
		if item.IsActive(epoch) {
			out = append(out, item)
		}
	}
	return out
}

// TotalActiveStake sums the stake of validators active at epoch.
func (s *ValidatorSetStore) TotalActiveStake(epoch uint64) (common.Amount, error) {
	var total common.Amount
	for _, item := range s.list {
		if !item.IsActive(epoch) {
			continue
		}
		var err error
		if total, err = total.Add(item.Balance); err != nil {
			return common.Amount{}, err
		}
	}
	return total, nil
}

type validatorSetJSON struct {
	Version       *uint32         `json:"version"`
	ValidatorList []ValidatorItem `json:"validator_list"`
}

func (s *ValidatorSetStore) SerializeJSON() ([]byte, error) {
	v := s.version
	list := s.list
	if list == nil {
		list = []ValidatorItem{}
	}
	return json.Marshal(&validatorSetJSON{Version: &v, ValidatorList: list})
}

func (s *ValidatorSetStore) DeSerializeJSON(data []byte) error {
	var enc validatorSetJSON
	if err := json.Unmarshal(data, &enc); err != nil {
		return errors.Wrap(err, "validator set json")
	}
	if enc.Version == nil {
		return errors.Wrap(ErrStoreVersion, "version missing")
	}
	if *enc.Version != StoreVersion {
		return errors.Wrapf(ErrStoreVersion, "version %d", *enc.Version)
	}
	if err := s.SetValidatorList(enc.ValidatorList); err != nil {
		return err
	}
	s.version = StoreVersion
	return nil
}

// SerializeBytes lays out: version u32 LE | count u32 LE | items, each
// public key | balance | enter_nonce u64 LE | leave_nonce u64 LE.
func (s *ValidatorSetStore) SerializeBytes() []byte {
	out := make([]byte, 8, 8+len(s.list)*validatorItemLength)
	binary.LittleEndian.PutUint32(out[0:4], s.version)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(s.list)))
	var n [8]byte
	for _, item := range s.list {
		out = append(out, item.PublicKey[:]...)
		out = append(out, item.Balance.Bytes()...)
		binary.LittleEndian.PutUint64(n[:], item.EnterNonce)
		out = append(out, n[:]...)
		binary.LittleEndian.PutUint64(n[:], item.LeaveNonce)
		out = append(out, n[:]...)
	}
	return out
}

func (s *ValidatorSetStore) DeSerializeBytes(data []byte) error {
	if len(data) < 8 {
		return errors.Wrapf(ErrShortBuffer, "validator set header needs 8 bytes, have %d", len(data))
	}
	if v := binary.LittleEndian.Uint32(data[0:4]); v != StoreVersion {
		return errors.Wrapf(ErrStoreVersion, "version %d", v)
	}
	count := int(binary.LittleEndian.Uint32(data[4:8]))
	rest := data[8:]
	if count > len(rest)/validatorItemLength {
		return errors.Wrapf(ErrShortBuffer, "validator set of %d items, have %d bytes", count, len(rest))
	}
	if len(rest) != count*validatorItemLength {
		return errors.Wrapf(ErrTrailingBytes, "%d extra bytes", len(rest)-count*validatorItemLength)
	}
	list := make([]ValidatorItem, count)
	for i := range list {
		b := rest[i*validatorItemLength:]
		copy(list[i].PublicKey[:], b[:common.PublicKeyLength])
		b = b[common.PublicKeyLength:]
		balance, err := common.AmountFromBytes(b[:common.AmountLength])
		if err != nil {
			return err
		}
		list[i].Balance = balance
		b = b[common.AmountLength:]
		list[i].EnterNonce = binary.LittleEndian.Uint64(b[0:8])
		list[i].LeaveNonce = binary.LittleEndian.Uint64(b[8:16])
	}
	if err := s.SetValidatorList(list); err != nil {
		return err
	}
	s.version = StoreVersion
	return nil
}

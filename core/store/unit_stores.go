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
	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/core/types"
)

// SendUnitStore additionally records which ReceiveUnit redeemed the send.
type SendUnitStore struct {
	storeBase
	unit            *types.SendUnit
	ReceiveUnitHash common.UnitHash
}

func NewSendUnitStore(u *types.SendUnit) *SendUnitStore {
	return &SendUnitStore{storeBase: storeBase{version: StoreVersion}, unit: u}
}

func (s *SendUnitStore) Unit() types.Unit          { return s.unit }
func (s *SendUnitStore) SendUnit() *types.SendUnit { return s.unit }
func (s *SendUnitStore) Hash() common.UnitHash     { return types.Hash(s.unit) }

func (s *SendUnitStore) SerializeJSON() ([]byte, error) {
	v := s.version
	return serializeJSON(s.unit, &additionJSON{Version: &v, IsValidate: s.validated, ReceiveUnitHash: &s.ReceiveUnitHash})
}

func (s *SendUnitStore) DeSerializeJSON(data []byte) error {
	u, add, err := deserializeJSON(data, types.UnitTypeSend)
	if err != nil {
		return err
	}
	s.unit, s.version, s.validated = u.(*types.SendUnit), *add.Version, add.IsValidate
	s.ReceiveUnitHash = common.EmptyHash
	if add.ReceiveUnitHash != nil {
		s.ReceiveUnitHash = *add.ReceiveUnitHash
	}
	return nil
}

func (s *SendUnitStore) SerializeBytes() []byte {
	return serializeBytes(s.unit, s.version, s.ReceiveUnitHash[:], s.validated)
}

func (s *SendUnitStore) DeSerializeBytes(data []byte) error {
	u, trailer, validated, err := deserializeBytes(data, types.UnitTypeSend, common.HashLength)
	if err != nil {
		return err
	}
	s.unit, s.version, s.validated = u.(*types.SendUnit), StoreVersion, validated
	s.ReceiveUnitHash = common.BytesToHash(trailer)
	return nil
}

type ReceiveUnitStore struct {
	storeBase
	unit *types.ReceiveUnit
}

func NewReceiveUnitStore(u *types.ReceiveUnit) *ReceiveUnitStore {
	return &ReceiveUnitStore{storeBase: storeBase{version: StoreVersion}, unit: u}
}

func (s *ReceiveUnitStore) Unit() types.Unit                { return s.unit }
func (s *ReceiveUnitStore) ReceiveUnit() *types.ReceiveUnit { return s.unit }
func (s *ReceiveUnitStore) Hash() common.UnitHash           { return types.Hash(s.unit) }

func (s *ReceiveUnitStore) SerializeJSON() ([]byte, error) {
	v := s.version
	return serializeJSON(s.unit, &additionJSON{Version: &v, IsValidate: s.validated})
}

func (s *ReceiveUnitStore) DeSerializeJSON(data []byte) error {
	u, add, err := deserializeJSON(data, types.UnitTypeReceive)
	if err != nil {
		return err
	}
	s.unit, s.version, s.validated = u.(*types.ReceiveUnit), *add.Version, add.IsValidate
	return nil
}

func (s *ReceiveUnitStore) SerializeBytes() []byte {
	return serializeBytes(s.unit, s.version, nil, s.validated)
}

func (s *ReceiveUnitStore) DeSerializeBytes(data []byte) error {
	u, _, validated, err := deserializeBytes(data, types.UnitTypeReceive, 0)
	if err != nil {
		return err
	}
	s.unit, s.version, s.validated = u.(*types.ReceiveUnit), StoreVersion, validated
	return nil
}

type EnterValidatorSetUnitStore struct {
	storeBase
	unit *types.EnterValidatorSetUnit
}

func NewEnterValidatorSetUnitStore(u *types.EnterValidatorSetUnit) *EnterValidatorSetUnitStore {
	return &EnterValidatorSetUnitStore{storeBase: storeBase{version: StoreVersion}, unit: u}
}

func (s *EnterValidatorSetUnitStore) Unit() types.Unit { return s.unit }
func (s *EnterValidatorSetUnitStore) EnterValidatorSetUnit() *types.EnterValidatorSetUnit {
	return s.unit
}
func (s *EnterValidatorSetUnitStore) Hash() common.UnitHash { return types.Hash(s.unit) }

func (s *EnterValidatorSetUnitStore) SerializeJSON() ([]byte, error) {
	v := s.version
	return serializeJSON(s.unit, &additionJSON{Version: &v, IsValidate: s.validated})
}

func (s *EnterValidatorSetUnitStore) DeSerializeJSON(data []byte) error {
	u, add, err := deserializeJSON(data, types.UnitTypeEnterValidatorSet)
	if err != nil {
		return err
	}
	s.unit, s.version, s.validated = u.(*types.EnterValidatorSetUnit), *add.Version, add.IsValidate
	return nil
}

func (s *EnterValidatorSetUnitStore) SerializeBytes() []byte {
	return serializeBytes(s.unit, s.version, nil, s.validated)
}

func (s *EnterValidatorSetUnitStore) DeSerializeBytes(data []byte) error {
	u, _, validated, err := deserializeBytes(data, types.UnitTypeEnterValidatorSet, 0)
	if err != nil {
		return err
	}
	s.unit, s.version, s.validated = u.(*types.EnterValidatorSetUnit), StoreVersion, validated
	return nil
}

type LeaveValidatorSetUnitStore struct {
	storeBase
	unit *types.LeaveValidatorSetUnit
}

func NewLeaveValidatorSetUnitStore(u *types.LeaveValidatorSetUnit) *LeaveValidatorSetUnitStore {
	return &LeaveValidatorSetUnitStore{storeBase: storeBase{version: StoreVersion}, unit: u}
}

func (s *LeaveValidatorSetUnitStore) Unit() types.Unit { return s.unit }
func (s *LeaveValidatorSetUnitStore) LeaveValidatorSetUnit() *types.LeaveValidatorSetUnit {
	return s.unit
}
func (s *LeaveValidatorSetUnitStore) Hash() common.UnitHash { return types.Hash(s.unit) }

func (s *LeaveValidatorSetUnitStore) SerializeJSON() ([]byte, error) {
	v := s.version
	return serializeJSON(s.unit, &additionJSON{Version: &v, IsValidate: s.validated})
}

func (s *LeaveValidatorSetUnitStore) DeSerializeJSON(data []byte) error {
	u, add, err := deserializeJSON(data, types.UnitTypeLeaveValidatorSet)
	if err != nil {
		return err
	}
	s.unit, s.version, s.validated = u.(*types.LeaveValidatorSetUnit), *add.Version, add.IsValidate
	return nil
}

func (s *LeaveValidatorSetUnitStore) SerializeBytes() []byte {
	return serializeBytes(s.unit, s.version, nil, s.validated)
}

func (s *LeaveValidatorSetUnitStore) DeSerializeBytes(data []byte) error {
	u, _, validated, err := deserializeBytes(data, types.UnitTypeLeaveValidatorSet, 0)
	if err != nil {
		return err
	}
	s.unit, s.version, s.validated = u.(*types.LeaveValidatorSetUnit), StoreVersion, validated
	return nil
}

// ValidatorUnitStore additionally links forward to the proposal finalized
// after this one.
type ValidatorUnitStore struct {
	storeBase
	unit              *types.ValidatorUnit
	NextValidatorHash common.UnitHash
}

func NewValidatorUnitStore(u *types.ValidatorUnit) *ValidatorUnitStore {
	return &ValidatorUnitStore{storeBase: storeBase{version: StoreVersion}, unit: u}
}

func (s *ValidatorUnitStore) Unit() types.Unit                    { return s.unit }
func (s *ValidatorUnitStore) ValidatorUnit() *types.ValidatorUnit { return s.unit }
func (s *ValidatorUnitStore) Hash() common.UnitHash               { return types.Hash(s.unit) }

func (s *ValidatorUnitStore) SerializeJSON() ([]byte, error) {
	v := s.version
	return serializeJSON(s.unit, &additionJSON{Version: &v, IsValidate: s.validated, NextValidatorHash: &s.NextValidatorHash})
}

func (s *ValidatorUnitStore) DeSerializeJSON(data []byte) error {
	u, add, err := deserializeJSON(data, types.UnitTypeValidator)
	if err != nil {
		return err
	}
	s.unit, s.version, s.validated = u.(*types.ValidatorUnit), *add.Version, add.IsValidate
	s.NextValidatorHash = common.EmptyHash
	if add.NextValidatorHash != nil {
		s.NextValidatorHash = *add.NextValidatorHash
	}
	return nil
}

func (s *ValidatorUnitStore) SerializeBytes() []byte {
	return serializeBytes(s.unit, s.version, s.NextValidatorHash[:], s.validated)
}

func (s *ValidatorUnitStore) DeSerializeBytes(data []byte) error {
	u, trailer, validated, err := deserializeBytes(data, types.UnitTypeValidator, common.HashLength)
	if err != nil {
		return err
	}
	s.unit, s.version, s.validated = u.(*types.ValidatorUnit), StoreVersion, validated
	s.NextValidatorHash = common.BytesToHash(trailer)
	return nil
}

type VoteUnitStore struct {
	storeBase
	unit *types.VoteUnit
}

func NewVoteUnitStore(u *types.VoteUnit) *VoteUnitStore {
	return &VoteUnitStore{storeBase: storeBase{version: StoreVersion}, unit: u}
}

func (s *VoteUnitStore) Unit() types.Unit          { return s.unit }
func (s *VoteUnitStore) VoteUnit() *types.VoteUnit { return s.unit }
func (s *VoteUnitStore) Hash() common.UnitHash     { return types.Hash(s.unit) }

func (s *VoteUnitStore) SerializeJSON() ([]byte, error) {
	v := s.version
	return serializeJSON(s.unit, &additionJSON{Version: &v, IsValidate: s.validated})
}

func (s *VoteUnitStore) DeSerializeJSON(data []byte) error {
	u, add, err := deserializeJSON(data, types.UnitTypeVote)
	if err != nil {
		return err
	}
	s.unit, s.version, s.validated = u.(*types.VoteUnit), *add.Version, add.IsValidate
	return nil
}

func (s *VoteUnitStore) SerializeBytes() []byte {
	return serializeBytes(s.unit, s.version, nil, s.validated)
}

func (s *VoteUnitStore) DeSerializeBytes(data []byte) error {
	u, _, validated, err := deserializeBytes(data, types.UnitTypeVote, 0)
	if err != nil {
		return err
	}
	s.unit, s.version, s.validated = u.(*types.VoteUnit), StoreVersion, validated
	return nil
}

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
	"github.com/ambrchain/ambr/core/types"
	"github.com/pkg/errors"
)

// StoreVersion is the only defined version of the persistence envelope.
const StoreVersion uint32 = 1

const additionKey = "store_addtion"

var (
	ErrStoreVersion    = errors.New("unsupported store version")
	ErrStoreUnitType   = errors.New("unit type does not match store")
	ErrShortBuffer     = errors.New("store buffer too short")
	ErrTrailingBytes   = errors.New("trailing bytes after store")
	ErrMissingAddition = errors.New("missing store_addtion")
)

// UnitStore wraps a unit with ledger-local metadata. The wrapped unit's
// canonical bytes are never altered by the envelope.
type UnitStore interface {
	Unit() types.Unit
	Hash() common.UnitHash
	GetVersion() uint32
	IsValidated() bool
	SetValidated(bool)

	SerializeJSON() ([]byte, error)
	DeSerializeJSON(data []byte) error
	SerializeBytes() []byte
	DeSerializeBytes(data []byte) error
}

type storeBase struct {
	version   uint32
	validated bool
}

func (s *storeBase) GetVersion() uint32  { return s.version }
func (s *storeBase) IsValidated() bool   { return s.validated }
func (s *storeBase) SetValidated(v bool) { s.validated = v }

type additionJSON struct {
	Version           *uint32          `json:"version"`
	IsValidate        bool             `json:"is_validate"`
	ReceiveUnitHash   *common.UnitHash `json:"receive_unit_hash,omitempty"`
	NextValidatorHash *common.UnitHash `json:"next_validator_hash,omitempty"`
}

// NewUnitStore wraps u in the matching store variant, not yet validated.
func NewUnitStore(u types.Unit) UnitStore {
	switch unit := u.(type) {
	case *types.SendUnit:
		return NewSendUnitStore(unit)
	case *types.ReceiveUnit:
		return NewReceiveUnitStore(unit)
	case *types.EnterValidatorSetUnit:
		return NewEnterValidatorSetUnitStore(unit)
	case *types.LeaveValidatorSetUnit:
		return NewLeaveValidatorSetUnitStore(unit)
	case *types.ValidatorUnit:
		return NewValidatorUnitStore(unit)
	case *types.VoteUnit:
		return NewVoteUnitStore(unit)
	}
	return nil
}

// FromBytes decodes the wrapped unit, picks the store variant from its type
// and decodes the envelope. Unsupported types yield nil.
func FromBytes(data []byte) (UnitStore, error) {
	u, _, err := types.Decode(data)
	if err != nil {
		return nil, err
	}
	s := NewUnitStore(u)
	if s == nil {
		return nil, errors.Wrapf(types.ErrUnknownUnitType, "type %d", u.Type())
	}
	if err := s.DeSerializeBytes(data); err != nil {
		return nil, err
	}
	return s, nil
}

// FromJSON is the JSON counterpart of FromBytes.
func FromJSON(data []byte) (UnitStore, error) {
	u, err := types.UnmarshalUnitJSON(data)
	if err != nil {
		return nil, err
	}
	s := NewUnitStore(u)
	if s == nil {
		return nil, errors.Wrapf(types.ErrUnknownUnitType, "type %d", u.Type())
	}
	if err := s.DeSerializeJSON(data); err != nil {
		return nil, err
	}
	return s, nil
}

func serializeJSON(u types.Unit, addition *additionJSON) ([]byte, error) {
	unitJSON, err := types.MarshalUnitJSON(u)
	if err != nil {
		return nil, err
	}
	add, err := json.Marshal(map[string]*additionJSON{additionKey: addition})
	if err != nil {
		return nil, err
	}
	return types.JoinJSONObjects(unitJSON, add), nil
}

// deserializeJSON reads store_addtion first and only then the unit.
func deserializeJSON(data []byte, want types.UnitType) (types.Unit, *additionJSON, error) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(data, &outer); err != nil {
		return nil, nil, errors.Wrap(err, "store json")
	}
	raw, ok := outer[additionKey]
	if !ok {
		return nil, nil, ErrMissingAddition
	}
	addition := new(additionJSON)
	if err := json.Unmarshal(raw, addition); err != nil {
		return nil, nil, errors.Wrap(err, additionKey)
	}
	if addition.Version == nil {
		return nil, nil, errors.Wrap(ErrStoreVersion, "version missing")
	}
	switch *addition.Version {
	case StoreVersion:
		u, err := types.UnmarshalUnitJSON(data)
		if err != nil {
			return nil, nil, err
		}
		if u.Type() != want {
			return nil, nil, errors.Wrapf(ErrStoreUnitType, "got %s, want %s", u.Type(), want)
		}
		return u, addition, nil
	default:
		return nil, nil, errors.Wrapf(ErrStoreVersion, "version %d", *addition.Version)
	}
}

// serializeBytes lays out: unit bytes | version u32 LE | trailer | is_validate.
func serializeBytes(u types.Unit, version uint32, trailer []byte, validated bool) []byte {
	enc := types.Bytes(u)
	out := make([]byte, 0, len(enc)+4+len(trailer)+1)
	out = append(out, enc...)
	var v [4]byte
	binary.LittleEndian.PutUint32(v[:], version)
	out = append(out, v[:]...)
	out = append(out, trailer...)
	if validated {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	return out
}

func deserializeBytes(data []byte, want types.UnitType, trailerLen int) (types.Unit, []byte, bool, error) {
	u, n, err := types.Decode(data)
	if err != nil {
		return nil, nil, false, err
	}
	if u.Type() != want {
		return nil, nil, false, errors.Wrapf(ErrStoreUnitType, "got %s, want %s", u.Type(), want)
	}
	rest := data[n:]
	if len(rest) < 4+trailerLen+1 {
		return nil, nil, false, errors.Wrapf(ErrShortBuffer, "%s store needs %d trailer bytes, have %d", want, 4+trailerLen+1, len(rest))
	}
	if len(rest) > 4+trailerLen+1 {
		return nil, nil, false, errors.Wrapf(ErrTrailingBytes, "%d extra bytes", len(rest)-(4+trailerLen+1))
	}
	version := binary.LittleEndian.Uint32(rest[:4])
	if version != StoreVersion {
		return nil, nil, false, errors.Wrapf(ErrStoreVersion, "version %d", version)
	}
	trailer := common.CopyBytes(rest[4 : 4+trailerLen])
	return u, trailer, rest[4+trailerLen] != 0, nil
}

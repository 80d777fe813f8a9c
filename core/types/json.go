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

package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"

	"github.com/ambrchain/ambr/common"
	"github.com/pkg/errors"
)

type hexBytes []byte

func (b hexBytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(b)), nil
}

func (b *hexBytes) UnmarshalText(text []byte) error {
	d, err := hex.DecodeString(string(text))
	if err != nil {
		return err
	}
	if len(d) == 0 {
		d = nil
	}
	*b = d
	return nil
}

type headerJSON struct {
	Type      string            `json:"type"`
	Version   *uint32           `json:"version"`
	PublicKey *common.PublicKey `json:"public_key"`
	Prev      *common.UnitHash  `json:"prev_unit"`
	Nonce     *uint64           `json:"nonce"`
	Balance   *common.Amount    `json:"balance"`
	Hash      *common.UnitHash  `json:"hash,omitempty"`
	Signature *common.Signature `json:"sign"`
}

func newHeaderJSON(h *UnitHeader) *headerJSON {
	return &headerJSON{
		Version:   &h.Version,
		PublicKey: &h.PublicKey,
		Prev:      &h.Prev,
		Nonce:     &h.Nonce,
		Balance:   &h.Balance,
		Signature: &h.Signature,
	}
}

func (u *SendUnit) payloadJSON() interface{} {
	return &struct {
		Dest     *common.PublicKey `json:"dest"`
		Amount   *common.Amount    `json:"amount"`
		DataType *DataType         `json:"data_type"`
		Data     *hexBytes         `json:"data"`
	}{&u.Dest, &u.Amount, &u.DataType, (*hexBytes)(&u.Data)}
}

func (u *ReceiveUnit) payloadJSON() interface{} {
	return &struct {
		From   *common.UnitHash `json:"from"`
		Amount *common.Amount   `json:"amount"`
	}{&u.From, &u.Amount}
}

func (u *EnterValidatorSetUnit) payloadJSON() interface{} {
	return &struct {
		Stake *common.Amount `json:"stake"`
	}{&u.Stake}
}

func (u *LeaveValidatorSetUnit) payloadJSON() interface{} {
	return &struct{}{}
}

func (u *ValidatorUnit) payloadJSON() interface{} {
	return &struct {
		PreValidator *common.UnitHash   `json:"pre_validator"`
		Time         *uint64            `json:"time"`
		CheckList    *[]common.UnitHash `json:"check_list"`
	}{&u.PreValidator, &u.Time, &u.CheckList}
}

func (u *VoteUnit) payloadJSON() interface{} {
	return &struct {
		ValidatorUnit *common.UnitHash `json:"validator_unit"`
		Accept        *bool            `json:"accept"`
	}{&u.ValidatorUnit, &u.Accept}
}

// MarshalUnitJSON renders the unit as one flat JSON object.
func MarshalUnitJSON(u Unit) ([]byte, error) {
	hj := newHeaderJSON(u.Header())
	hj.Type = u.Type().String()
	h := Hash(u)
	hj.Hash = &h
	head, err := json.Marshal(hj)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(u.payloadJSON())
	if err != nil {
		return nil, err
	}
	return JoinJSONObjects(head, payload), nil
}

// UnmarshalUnitJSON parses an object produced by MarshalUnitJSON. Unknown
// keys are ignored; a present "hash" must match the decoded unit.
func UnmarshalUnitJSON(data []byte) (Unit, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.Wrap(err, "unit json")
	}
	t, err := ParseUnitType(head.Type)
	if err != nil {
		return nil, err
	}
	u, _ := NewUnit(t)
	hj := newHeaderJSON(u.Header())
	if err := json.Unmarshal(data, hj); err != nil {
		return nil, errors.Wrap(err, "unit json header")
	}
	if err := json.Unmarshal(data, u.payloadJSON()); err != nil {
		return nil, errors.Wrapf(err, "%s unit json payload", t)
	}
	if u.Header().Version != UnitVersion {
		return nil, errors.Wrapf(ErrUnitVersion, "version %d", u.Header().Version)
	}
	if hj.Hash != nil && *hj.Hash != Hash(u) {
		return nil, errors.Wrapf(ErrUnitHashMismatch, "json hash %s, computed %s", hj.Hash.Hex(), Hash(u).Hex())
	}
	return u, nil
}

// JoinJSONObjects concatenates the members of several JSON objects.
func JoinJSONObjects(objects ...[]byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, o := range objects {
		inner := bytes.TrimSpace(o)
		inner = bytes.TrimPrefix(inner, []byte("{"))
		inner = bytes.TrimSuffix(inner, []byte("}"))
		inner = bytes.TrimSpace(inner)
		if len(inner) == 0 {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		buf.Write(inner)
		first = false
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

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
	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/crypto"
	"github.com/ambrchain/ambr/crypto/hash"
	"github.com/pkg/errors"
)

// UnitVersion is the only canonical encoding version defined.
const UnitVersion uint32 = 1

var (
	ErrUnknownUnitType  = errors.New("unknown unit type")
	ErrUnitVersion      = errors.New("unsupported unit version")
	ErrUnitHashMismatch = errors.New("unit hash mismatch")
)

type UnitType uint8

const (
	UnitTypeSend UnitType = 1 + iota
	UnitTypeReceive
	UnitTypeEnterValidatorSet
	UnitTypeLeaveValidatorSet
	UnitTypeValidator
	UnitTypeVote
)

var unitTypeNames = map[UnitType]string{
	UnitTypeSend:              "send",
	UnitTypeReceive:           "receive",
	UnitTypeEnterValidatorSet: "enter_validator_set",
	UnitTypeLeaveValidatorSet: "leave_validator_set",
	UnitTypeValidator:         "validator",
	UnitTypeVote:              "vote",
}

func (t UnitType) String() string {
	if name, ok := unitTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

func (t UnitType) Valid() bool {
	_, ok := unitTypeNames[t]
	return ok
}

func ParseUnitType(name string) (UnitType, error) {
	for t, n := range unitTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownUnitType, "%q", name)
}

// Unit is one signed ledger entry. The set of implementations is closed:
// SendUnit, ReceiveUnit, EnterValidatorSetUnit, LeaveValidatorSetUnit,
// ValidatorUnit and VoteUnit.
type Unit interface {
	Type() UnitType
	Header() *UnitHeader

	encodePayload(w *writer)
	decodePayload(r *reader)
	payloadJSON() interface{}
}

// UnitHeader is shared by all unit kinds.
type UnitHeader struct {
	Version   uint32
	PublicKey common.PublicKey
	Prev      common.UnitHash
	Nonce     uint64
	// Balance is the account balance after applying this unit.
	Balance   common.Amount
	Signature common.Signature
}

func (h *UnitHeader) Header() *UnitHeader { return h }

// NewUnit allocates an empty unit of the given kind.
func NewUnit(t UnitType) (Unit, error) {
	switch t {
	case UnitTypeSend:
		return new(SendUnit), nil
	case UnitTypeReceive:
		return new(ReceiveUnit), nil
	case UnitTypeEnterValidatorSet:
		return new(EnterValidatorSetUnit), nil
	case UnitTypeLeaveValidatorSet:
		return new(LeaveValidatorSetUnit), nil
	case UnitTypeValidator:
		return new(ValidatorUnit), nil
	case UnitTypeVote:
		return new(VoteUnit), nil
	}
	return nil, errors.Wrapf(ErrUnknownUnitType, "type %d", t)
}

func encode(u Unit, withSig bool) []byte {
	h := u.Header()
	w := new(writer)
	w.u8(uint8(u.Type()))
	w.u32(h.Version)
	w.key(h.PublicKey)
	w.hash(h.Prev)
	w.u64(h.Nonce)
	w.amount(h.Balance)
	u.encodePayload(w)
	if withSig {
		w.signature(h.Signature)
	}
	return w.Bytes()
}

// Bytes is the canonical byte encoding, signature included.
func Bytes(u Unit) []byte {
	return encode(u, true)
}

// Hash digests the canonical bytes without the signature.
func Hash(u Unit) common.UnitHash {
	return common.BytesToHash(hash.Blake2b256(encode(u, false)))
}

// Sign sets the signature over the unit hash.
func Sign(u Unit, signer crypto.Signer) error {
	h := Hash(u)
	sig, err := signer.Sign(h[:])
	if err != nil {
		return err
	}
	u.Header().Signature = sig
	return nil
}

// VerifySignature checks the signature against the unit's own public key.
func VerifySignature(u Unit, v crypto.Verifier) bool {
	h := Hash(u)
	return v.Verify(u.Header().PublicKey, h[:], u.Header().Signature)
}

// Decode reads one unit from the front of b and reports how many bytes it used.
func Decode(b []byte) (Unit, int, error) {
	if len(b) == 0 {
		return nil, 0, errors.Wrap(ErrShortBuffer, "empty unit")
	}
	u, err := NewUnit(UnitType(b[0]))
	if err != nil {
		return nil, 0, err
	}
	r := newReader(b)
	r.u8()
	h := u.Header()
	h.Version = r.u32()
	if r.err == nil && h.Version != UnitVersion {
		return nil, 0, errors.Wrapf(ErrUnitVersion, "version %d", h.Version)
	}
	h.PublicKey = r.key()
	h.Prev = r.hash()
	h.Nonce = r.u64()
	h.Balance = r.amount()
	u.decodePayload(r)
	h.Signature = r.signature()
	if r.err != nil {
		return nil, 0, errors.Wrapf(r.err, "decode %s unit", u.Type())
	}
	return u, r.pos, nil
}

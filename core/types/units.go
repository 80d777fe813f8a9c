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
	"github.com/pkg/errors"
)

// MaxDataLength bounds the payload a SendUnit may carry.
const MaxDataLength = 64 * 1024

type DataType uint8

const (
	DataTypeTransfer DataType = iota
	DataTypeMessage
	DataTypeContract
)

func (d DataType) Valid() bool {
	return d <= DataTypeContract
}

// SendUnit debits Amount from the sender, addressed to Dest.
type SendUnit struct {
	UnitHeader
	Dest     common.PublicKey
	Amount   common.Amount
	DataType DataType
	Data     []byte
}

func (u *SendUnit) Type() UnitType { return UnitTypeSend }

func (u *SendUnit) encodePayload(w *writer) {
	w.key(u.Dest)
	w.amount(u.Amount)
	w.u8(uint8(u.DataType))
	w.u32(uint32(len(u.Data)))
	w.Write(u.Data)
}

func (u *SendUnit) decodePayload(r *reader) {
	u.Dest = r.key()
	u.Amount = r.amount()
	u.DataType = DataType(r.u8())
	n := r.u32()
	if r.err == nil && n > MaxDataLength {
		r.err = errors.Errorf("data length %d exceeds %d", n, MaxDataLength)
		return
	}
	if b := r.take(int(n)); len(b) > 0 {
		u.Data = common.CopyBytes(b)
	}
}

// ReceiveUnit credits the account with the amount of the SendUnit it redeems.
// From may also name a ValidatorUnit (validator income claim) or be zero for
// the ledger genesis unit.
type ReceiveUnit struct {
	UnitHeader
	From   common.UnitHash
	Amount common.Amount
}

func (u *ReceiveUnit) Type() UnitType { return UnitTypeReceive }

func (u *ReceiveUnit) encodePayload(w *writer) {
	w.hash(u.From)
	w.amount(u.Amount)
}

func (u *ReceiveUnit) decodePayload(r *reader) {
	u.From = r.hash()
	u.Amount = r.amount()
}

// EnterValidatorSetUnit locks Stake from the balance and asks for membership.
type EnterValidatorSetUnit struct {
	UnitHeader
	Stake common.Amount
}

func (u *EnterValidatorSetUnit) Type() UnitType { return UnitTypeEnterValidatorSet }

func (u *EnterValidatorSetUnit) encodePayload(w *writer) {
	w.amount(u.Stake)
}

func (u *EnterValidatorSetUnit) decodePayload(r *reader) {
	u.Stake = r.amount()
}

// LeaveValidatorSetUnit unlocks the stake and ends membership.
type LeaveValidatorSetUnit struct {
	UnitHeader
}

func (u *LeaveValidatorSetUnit) Type() UnitType { return UnitTypeLeaveValidatorSet }

func (u *LeaveValidatorSetUnit) encodePayload(w *writer) {}

func (u *LeaveValidatorSetUnit) decodePayload(r *reader) {}

// ValidatorUnit proposes finalizing the pending tips in CheckList.
type ValidatorUnit struct {
	UnitHeader
	PreValidator common.UnitHash
	// Time is unix milliseconds.
	Time      uint64
	CheckList []common.UnitHash
}

func (u *ValidatorUnit) Type() UnitType { return UnitTypeValidator }

func (u *ValidatorUnit) encodePayload(w *writer) {
	w.hash(u.PreValidator)
	w.u64(u.Time)
	w.u32(uint32(len(u.CheckList)))
	for _, h := range u.CheckList {
		w.hash(h)
	}
}

func (u *ValidatorUnit) decodePayload(r *reader) {
	u.PreValidator = r.hash()
	u.Time = r.u64()
	n := r.u32()
	if r.err != nil {
		return
	}
	if uint64(n)*common.HashLength > uint64(r.remaining()) {
		r.err = errors.Wrapf(ErrShortBuffer, "check list of %d hashes, %d bytes left", n, r.remaining())
		return
	}
	if n == 0 {
		return
	}
	u.CheckList = make([]common.UnitHash, 0, n)
	for i := uint32(0); i < n; i++ {
		u.CheckList = append(u.CheckList, r.hash())
	}
}

// VoteUnit is a validator's vote on a ValidatorUnit proposal.
type VoteUnit struct {
	UnitHeader
	ValidatorUnit common.UnitHash
	Accept        bool
}

func (u *VoteUnit) Type() UnitType { return UnitTypeVote }

func (u *VoteUnit) encodePayload(w *writer) {
	w.hash(u.ValidatorUnit)
	if u.Accept {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (u *VoteUnit) decodePayload(r *reader) {
	u.ValidatorUnit = r.hash()
	u.Accept = r.u8() != 0
}

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
	"github.com/ambrchain/ambr/core/types"
	"github.com/ambrchain/ambr/persistent"
	"github.com/pkg/errors"
)

var (
	ErrNoStorage = errors.New("must provide ledger storage")

	ErrMalformedUnit = errors.New("malformed unit")
	ErrInvalidHash   = errors.New("invalid unit hash")
	ErrUnitExists    = errors.New("unit already exists")
	ErrGenesisExists = errors.New("genesis already initialized")
	ErrNoGenesis     = errors.New("genesis not initialized")

	ErrNoPreviousUnit   = errors.New("no previous unit")
	ErrPrevUnitMismatch = errors.New("previous unit is not the account tip")
	ErrNonceMismatch    = errors.New("nonce mismatch")
	ErrBalanceMismatch  = errors.New("balance mismatch")

	ErrSignature    = errors.New("invalid signature")
	ErrNotValidator = errors.New("not an active validator")
	ErrNotRecipient = errors.New("send is addressed to another account")

	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrStakeTooLow         = errors.New("stake below minimum validator balance")
	ErrAlreadyReceived     = errors.New("send already received")
	ErrFeeTooHigh          = errors.New("amount does not cover transaction fee")
	ErrAlreadyValidator    = errors.New("already a validator")
	ErrPendingMembership   = errors.New("validator membership change pending")
	ErrNoIncome            = errors.New("no validator income to claim")

	ErrUnitNotFound    = errors.New("unit not found")
	ErrAccountNotFound = errors.New("account not found")

	ErrAlreadyFinalized = errors.New("unit already finalized")
	ErrStaleProposal    = errors.New("validator unit is not the open proposal")
	ErrDuplicateVote    = errors.New("validator already voted")
)

// ErrorClass groups rejections by how a caller should react to them.
type ErrorClass int

const (
	ClassNone ErrorClass = iota
	ClassMalformed
	ClassChainIntegrity
	ClassAuthorization
	ClassEconomic
	ClassNotFound
	ClassAlreadyFinalized
	ClassInternal
)

var errorClassNames = map[ErrorClass]string{
	ClassNone:             "none",
	ClassMalformed:        "malformed",
	ClassChainIntegrity:   "chain integrity",
	ClassAuthorization:    "authorization",
	ClassEconomic:         "economic",
	ClassNotFound:         "not found",
	ClassAlreadyFinalized: "already finalized",
	ClassInternal:         "internal",
}

func (c ErrorClass) String() string {
	return errorClassNames[c]
}

// ClassOf maps an error returned by the StoreManager to its class. Decode
// failures of persisted data fall into ClassInternal.
func ClassOf(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	switch errors.Cause(err) {
	case ErrMalformedUnit, ErrInvalidHash, ErrUnitExists, ErrGenesisExists,
		types.ErrUnknownUnitType, types.ErrUnitVersion, types.ErrShortBuffer, types.ErrUnitHashMismatch:
		return ClassMalformed
	case ErrNoPreviousUnit, ErrPrevUnitMismatch, ErrNonceMismatch, ErrBalanceMismatch, ErrStaleProposal:
		return ClassChainIntegrity
	case ErrSignature, ErrNotValidator, ErrNotRecipient, ErrDuplicateVote:
		return ClassAuthorization
	case ErrInsufficientBalance, ErrStakeTooLow, ErrAlreadyReceived, ErrFeeTooHigh,
		ErrAlreadyValidator, ErrPendingMembership, ErrNoIncome:
		return ClassEconomic
	case ErrUnitNotFound, ErrAccountNotFound, ErrNoGenesis, persistent.ErrKeyNotFound:
		return ClassNotFound
	case ErrAlreadyFinalized:
		return ClassAlreadyFinalized
	}
	return ClassInternal
}

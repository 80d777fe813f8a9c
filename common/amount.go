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

package common

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

const AmountLength = 16

var (
	ErrAmountOverflow  = errors.New("amount overflow")
	ErrAmountUnderflow = errors.New("amount underflow")
	ErrAmountFormat    = errors.New("invalid amount")
)

// Amount is an unsigned 128 bit quantity. The zero value is 0.
type Amount struct {
	v uint256.Int
}

func NewAmount(n uint64) Amount {
	var a Amount
	a.v.SetUint64(n)
	return a
}

// ParseAmount reads a decimal string.
func ParseAmount(s string) (Amount, error) {
	var a Amount
	if err := a.v.SetFromDecimal(s); err != nil {
		if err == uint256.ErrBig256Range {
			return Amount{}, errors.Wrapf(ErrAmountOverflow, "%q", s)
		}
		return Amount{}, errors.Wrapf(ErrAmountFormat, "%q: %v", s, err)
	}
	if a.v.BitLen() > 128 {
		return Amount{}, errors.Wrapf(ErrAmountOverflow, "%q", s)
	}
	return a, nil
}

func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AmountFromBytes decodes the 16 byte little endian form.
func AmountFromBytes(b []byte) (Amount, error) {
	if len(b) < AmountLength {
		return Amount{}, errors.Wrapf(ErrAmountFormat, "need %d bytes, got %d", AmountLength, len(b))
	}
	be := make([]byte, AmountLength)
	for i := 0; i < AmountLength; i++ {
		be[i] = b[AmountLength-1-i]
	}
	var a Amount
	a.v.SetBytes(be)
	return a, nil
}

// Bytes returns the 16 byte little endian form.
func (a Amount) Bytes() []byte {
	be := a.v.Bytes32()
	out := make([]byte, AmountLength)
	for i := 0; i < AmountLength; i++ {
		out[i] = be[31-i]
	}
	return out
}

func (a Amount) Add(b Amount) (Amount, error) {
	var r Amount
	if _, overflow := r.v.AddOverflow(&a.v, &b.v); overflow || r.v.BitLen() > 128 {
		return Amount{}, errors.Wrapf(ErrAmountOverflow, "%s + %s", a, b)
	}
	return r, nil
}

func (a Amount) Sub(b Amount) (Amount, error) {
	if a.v.Lt(&b.v) {
		return Amount{}, errors.Wrapf(ErrAmountUnderflow, "%s - %s", a, b)
	}
	var r Amount
	r.v.Sub(&a.v, &b.v)
	return r, nil
}

func (a Amount) MulUint64(n uint64) (Amount, error) {
	var r Amount
	m := uint256.NewInt(n)
	if _, overflow := r.v.MulOverflow(&a.v, m); overflow || r.v.BitLen() > 128 {
		return Amount{}, errors.Wrapf(ErrAmountOverflow, "%s * %d", a, n)
	}
	return r, nil
}

// MulDiv returns a*num/den, computed without leaving 256 bits.
func (a Amount) MulDiv(num, den uint64) Amount {
	var r Amount
	r.v.Mul(&a.v, uint256.NewInt(num))
	r.v.Div(&r.v, uint256.NewInt(den))
	return r
}

func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

func (a Amount) Lt(b Amount) bool { return a.v.Lt(&b.v) }

func (a Amount) Eq(b Amount) bool { return a.v.Eq(&b.v) }

func (a Amount) IsZero() bool { return a.v.IsZero() }

func (a Amount) Uint64() uint64 { return a.v.Uint64() }

func (a Amount) String() string { return a.v.Dec() }

func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

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
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxAmount = "340282366920938463463374607431768211455"

func TestParseAmount(t *testing.T) {
	for _, s := range []string{"0", "1", "1000000", maxAmount} {
		a, err := ParseAmount(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, a.String())
	}
	a, err := ParseAmount("007")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), a.Uint64())

	_, err = ParseAmount("340282366920938463463374607431768211456")
	assert.Equal(t, ErrAmountOverflow, errors.Cause(err))
	_, err = ParseAmount("1" + maxAmount + maxAmount)
	assert.Equal(t, ErrAmountOverflow, errors.Cause(err))
	for _, s := range []string{"", "-1", "12a", "1.5"} {
		_, err = ParseAmount(s)
		assert.Equal(t, ErrAmountFormat, errors.Cause(err), s)
	}
}

func TestAmountArithmetic(t *testing.T) {
	top := MustParseAmount(maxAmount)
	_, err := top.Add(NewAmount(1))
	assert.Equal(t, ErrAmountOverflow, errors.Cause(err))
	_, err = NewAmount(1).Sub(NewAmount(2))
	assert.Equal(t, ErrAmountUnderflow, errors.Cause(err))

	b, err := AmountFromBytes(top.Bytes())
	require.NoError(t, err)
	assert.True(t, top.Eq(b))
	assert.Equal(t, "7", NewAmount(10).MulDiv(7, 10).String())
}

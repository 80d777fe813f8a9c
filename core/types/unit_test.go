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
	"testing"

	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/crypto/ed25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T, seed byte) common.PrivateKey {
	key, err := ed25519.KeyFromSeed(bytes.Repeat([]byte{seed}, 32))
	require.NoError(t, err)
	return key
}

func header(key common.PrivateKey, nonce uint64) UnitHeader {
	return UnitHeader{
		Version:   UnitVersion,
		PublicKey: key.PublicKey(),
		Prev:      common.BytesToHash([]byte{byte(nonce), 0xaa}),
		Nonce:     nonce,
		Balance:   common.NewAmount(1000 - nonce),
	}
}

func sampleUnits(t *testing.T) []Unit {
	key := testKey(t, 1)
	other := testKey(t, 2).PublicKey()
	units := []Unit{
		&SendUnit{UnitHeader: header(key, 1), Dest: other, Amount: common.NewAmount(10), DataType: DataTypeMessage, Data: []byte("hello")},
		&SendUnit{UnitHeader: header(key, 2), Dest: other, Amount: common.MustParseAmount("340282366920938463463374607431768211455")},
		&ReceiveUnit{UnitHeader: header(key, 3), From: common.BytesToHash([]byte("send")), Amount: common.NewAmount(7)},
		&EnterValidatorSetUnit{UnitHeader: header(key, 4), Stake: common.NewAmount(100)},
		&LeaveValidatorSetUnit{UnitHeader: header(key, 5)},
		&ValidatorUnit{UnitHeader: header(key, 6), PreValidator: common.BytesToHash([]byte("pre")), Time: 1560000000000,
			CheckList: []common.UnitHash{common.BytesToHash([]byte("a")), common.BytesToHash([]byte("b"))}},
		&ValidatorUnit{UnitHeader: header(key, 7), Time: 3},
		&VoteUnit{UnitHeader: header(key, 8), ValidatorUnit: common.BytesToHash([]byte("v")), Accept: true},
	}
	signer := ed25519.NewSignerWithKey(key)
	for _, u := range units {
		require.NoError(t, Sign(u, signer))
	}
	return units
}

func TestUnitBytesRoundTrip(t *testing.T) {
	for _, u := range sampleUnits(t) {
		enc := Bytes(u)
		dec, n, err := Decode(append(enc, 0xde, 0xad))
		require.NoError(t, err, u.Type().String())
		assert.Equal(t, len(enc), n)
		assert.Equal(t, u, dec)
		assert.Equal(t, Hash(u), Hash(dec))
	}
}

func TestUnitJSONRoundTrip(t *testing.T) {
	for _, u := range sampleUnits(t) {
		enc, err := MarshalUnitJSON(u)
		require.NoError(t, err)
		dec, err := UnmarshalUnitJSON(enc)
		require.NoError(t, err, string(enc))
		assert.Equal(t, u, dec)
	}
}

func TestUnitJSONHashMismatch(t *testing.T) {
	u := sampleUnits(t)[0].(*SendUnit)
	enc, err := MarshalUnitJSON(u)
	require.NoError(t, err)
	tampered := bytes.Replace(enc, []byte(`"amount":"10"`), []byte(`"amount":"11"`), 1)
	_, err = UnmarshalUnitJSON(tampered)
	assert.Error(t, err)
}

func TestDecodeTruncated(t *testing.T) {
	for _, u := range sampleUnits(t) {
		enc := Bytes(u)
		for i := 0; i < len(enc); i++ {
			_, _, err := Decode(enc[:i])
			assert.Error(t, err, "%s truncated to %d", u.Type(), i)
		}
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, _, err := Decode([]byte{0x7f, 1, 0, 0, 0})
	assert.Error(t, err)
	_, err = NewUnit(UnitType(0))
	assert.Error(t, err)
}

func TestDecodeRejectsVersion(t *testing.T) {
	u := sampleUnits(t)[4]
	u.Header().Version = 2
	_, _, err := Decode(Bytes(u))
	assert.Error(t, err)
}

func TestSignatureCoversPayload(t *testing.T) {
	key := testKey(t, 3)
	signer := ed25519.NewSignerWithKey(key)
	u := &SendUnit{UnitHeader: header(key, 1), Dest: testKey(t, 4).PublicKey(), Amount: common.NewAmount(5)}
	require.NoError(t, Sign(u, signer))
	assert.True(t, VerifySignature(u, signer))

	u.Amount = common.NewAmount(6)
	assert.False(t, VerifySignature(u, signer))
}

func TestUnitTypeNames(t *testing.T) {
	for _, ty := range []UnitType{UnitTypeSend, UnitTypeReceive, UnitTypeEnterValidatorSet,
		UnitTypeLeaveValidatorSet, UnitTypeValidator, UnitTypeVote} {
		parsed, err := ParseUnitType(ty.String())
		require.NoError(t, err)
		assert.Equal(t, ty, parsed)
		u, err := NewUnit(ty)
		require.NoError(t, err)
		assert.Equal(t, ty, u.Type())
	}
	assert.False(t, UnitType(42).Valid())
}

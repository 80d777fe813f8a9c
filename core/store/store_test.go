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
	"bytes"
	"encoding/json"
	"testing"

	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/core/types"
	"github.com/ambrchain/ambr/crypto/ed25519"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T, seed byte) common.PrivateKey {
	key, err := ed25519.KeyFromSeed(bytes.Repeat([]byte{seed}, 32))
	require.NoError(t, err)
	return key
}

func sampleStores(t *testing.T) []UnitStore {
	key := testKey(t, 3)
	hdr := func(nonce uint64) types.UnitHeader {
		return types.UnitHeader{
			Version:   types.UnitVersion,
			PublicKey: key.PublicKey(),
			Prev:      common.BytesToHash([]byte{byte(nonce)}),
			Nonce:     nonce,
			Balance:   common.NewAmount(500),
		}
	}
	send := NewSendUnitStore(&types.SendUnit{UnitHeader: hdr(1), Dest: testKey(t, 4).PublicKey(), Amount: common.NewAmount(9), Data: []byte{1, 2, 3}})
	send.ReceiveUnitHash = common.BytesToHash([]byte("receive"))
	send.SetValidated(true)
	validator := NewValidatorUnitStore(&types.ValidatorUnit{UnitHeader: hdr(5), Time: 42, CheckList: []common.UnitHash{common.BytesToHash([]byte("x"))}})
	validator.NextValidatorHash = common.BytesToHash([]byte("next"))
	stores := []UnitStore{
		send,
		NewSendUnitStore(&types.SendUnit{UnitHeader: hdr(2), Amount: common.NewAmount(1)}),
		NewReceiveUnitStore(&types.ReceiveUnit{UnitHeader: hdr(3), From: common.BytesToHash([]byte("s")), Amount: common.NewAmount(9)}),
		NewEnterValidatorSetUnitStore(&types.EnterValidatorSetUnit{UnitHeader: hdr(4), Stake: common.NewAmount(100)}),
		NewLeaveValidatorSetUnitStore(&types.LeaveValidatorSetUnit{UnitHeader: hdr(6)}),
		validator,
		NewVoteUnitStore(&types.VoteUnit{UnitHeader: hdr(7), ValidatorUnit: common.BytesToHash([]byte("v")), Accept: true}),
	}
	signer := ed25519.NewSignerWithKey(key)
	for _, s := range stores {
		require.NoError(t, types.Sign(s.Unit(), signer))
	}
	return stores
}

func TestUnitStoreBytesRoundTrip(t *testing.T) {
	for _, s := range sampleStores(t) {
		name := s.Unit().Type().String()
		dec, err := FromBytes(s.SerializeBytes())
		require.NoError(t, err, name)
		assert.Equal(t, s, dec, name)

		// the envelope never changes the unit's own bytes
		assert.True(t, bytes.HasPrefix(s.SerializeBytes(), types.Bytes(s.Unit())), name)
	}
}

func TestUnitStoreJSONRoundTrip(t *testing.T) {
	for _, s := range sampleStores(t) {
		name := s.Unit().Type().String()
		enc, err := s.SerializeJSON()
		require.NoError(t, err, name)

		var fields map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(enc, &fields))
		assert.Contains(t, fields, "store_addtion", name)
		assert.Contains(t, fields, "public_key", name)

		dec, err := FromJSON(enc)
		require.NoError(t, err, name)
		assert.Equal(t, s, dec, name)
	}
}

func TestSendStoreJSONShape(t *testing.T) {
	s := sampleStores(t)[0]
	enc, err := s.SerializeJSON()
	require.NoError(t, err)
	var out struct {
		Addition map[string]interface{} `json:"store_addtion"`
	}
	require.NoError(t, json.Unmarshal(enc, &out))
	assert.Equal(t, float64(1), out.Addition["version"])
	assert.Equal(t, true, out.Addition["is_validate"])
	assert.Equal(t, common.BytesToHash([]byte("receive")).Hex(), out.Addition["receive_unit_hash"])
}

func TestUnitStoreShortTrailer(t *testing.T) {
	for _, s := range sampleStores(t) {
		enc := s.SerializeBytes()
		unitLen := len(types.Bytes(s.Unit()))
		for n := unitLen; n < len(enc); n++ {
			_, err := FromBytes(enc[:n])
			assert.Equal(t, ErrShortBuffer, errors.Cause(err), "%s truncated to %d", s.Unit().Type(), n)
		}
		_, err := FromBytes(append(enc, 0))
		assert.Equal(t, ErrTrailingBytes, errors.Cause(err))
	}
}

func TestUnitStoreVersion(t *testing.T) {
	s := sampleStores(t)[2]
	enc := s.SerializeBytes()
	unitLen := len(types.Bytes(s.Unit()))
	enc[unitLen] = 2
	_, err := FromBytes(enc)
	assert.Equal(t, ErrStoreVersion, errors.Cause(err))

	js, err := s.SerializeJSON()
	require.NoError(t, err)
	js = bytes.Replace(js, []byte(`"version":1,"is_validate"`), []byte(`"version":2,"is_validate"`), 1)
	_, err = FromJSON(js)
	assert.Equal(t, ErrStoreVersion, errors.Cause(err))
}

func TestUnitStoreWrongKind(t *testing.T) {
	stores := sampleStores(t)
	recv := NewReceiveUnitStore(nil)
	err := recv.DeSerializeBytes(stores[0].SerializeBytes())
	assert.Equal(t, ErrStoreUnitType, errors.Cause(err))

	js, err := stores[0].SerializeJSON()
	require.NoError(t, err)
	err = recv.DeSerializeJSON(js)
	assert.Equal(t, ErrStoreUnitType, errors.Cause(err))
}

func TestFromBytesUnknownType(t *testing.T) {
	enc := sampleStores(t)[0].SerializeBytes()
	enc[0] = 0x7f
	s, err := FromBytes(enc)
	assert.Nil(t, s)
	assert.Equal(t, types.ErrUnknownUnitType, errors.Cause(err))
}

func TestFromJSONMissingAddition(t *testing.T) {
	u := sampleStores(t)[2].Unit()
	js, err := types.MarshalUnitJSON(u)
	require.NoError(t, err)
	_, err = FromJSON(js)
	assert.Equal(t, ErrMissingAddition, errors.Cause(err))
}

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

package cipher

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScryptRoundTrip(t *testing.T) {
	passphrase := []byte("passphrase")
	data, _ := hex.DecodeString("0eb3be2db3a534c192be5570c6c42f59")
	s := NewLightScrypt()

	got, err := s.Encrypt(data, passphrase)
	require.NoError(t, err)
	want, err := s.Decrypt(got, passphrase)
	require.NoError(t, err)
	assert.Equal(t, data, want)

	_, err = s.Decrypt(got, []byte("wrong"))
	assert.Equal(t, ErrDecrypt, err)
}

func TestScryptKeyFile(t *testing.T) {
	s := NewLightScrypt()
	keyjson, err := s.EncryptKey("addr", []byte("secret"), []byte("pw"))
	require.NoError(t, err)

	var parsed encryptedKeyJSON
	require.NoError(t, json.Unmarshal(keyjson, &parsed))
	assert.Equal(t, "addr", parsed.Address)
	assert.Len(t, parsed.ID, 36)
	assert.Equal(t, macHash, parsed.Crypto.MACHash)

	key, err := s.DecryptKey(keyjson, []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), key)

	parsed.Version = 9
	bad, _ := json.Marshal(parsed)
	_, err = s.DecryptKey(bad, []byte("pw"))
	assert.Error(t, err)
}

func TestBalloonRoundTrip(t *testing.T) {
	b := &Balloon{Time: 2, Space: 64}
	keyjson, err := b.EncryptKey("addr", []byte("secret"), []byte("pw"))
	require.NoError(t, err)

	key, err := b.DecryptKey(keyjson, []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), key)

	_, err = b.DecryptKey(keyjson, []byte("wrong"))
	assert.Equal(t, ErrDecrypt, err)

	// a scrypt cipher refuses balloon files
	_, err = NewLightScrypt().DecryptKey(keyjson, []byte("pw"))
	assert.Equal(t, ErrCipherInvalid, err)
}

func TestNewCipher(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.IsType(t, &Scrypt{}, c)

	c, err = New(BalloonKDF)
	require.NoError(t, err)
	assert.IsType(t, &Balloon{}, c)

	c, err = New(Argon2KDF)
	require.NoError(t, err)
	assert.IsType(t, &Argon2{}, c)

	_, err = New("pbkdf2")
	assert.Error(t, err)
}

func TestArgon2RoundTrip(t *testing.T) {
	a := &Argon2{Time: 1, Memory: 64, Threads: 1}
	sealed, err := a.Encrypt([]byte("secret"), []byte("pw"))
	require.NoError(t, err)

	data, err := a.Decrypt(sealed, []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), data)

	_, err = a.Decrypt(sealed, []byte("wrong"))
	assert.Equal(t, ErrDecrypt, err)

	var parsed cryptoJSON
	require.NoError(t, json.Unmarshal(sealed, &parsed))
	assert.Equal(t, Argon2KDF, parsed.KDF)
	parsed.KDFParams["threads"] = 0
	bad, _ := json.Marshal(&parsed)
	_, err = a.Decrypt(bad, []byte("pw"))
	assert.Error(t, err)
}

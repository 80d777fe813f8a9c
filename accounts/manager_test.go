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

package accounts

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/crypto/ed25519"
	"github.com/ambrchain/ambr/crypto/keystore"
	"github.com/ambrchain/ambr/crypto/keystore/cipher"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var passphrase = []byte("passphrase")

func newTestManager(t *testing.T) (*AccountManager, func()) {
	dir, err := ioutil.TempDir("", "ambr-accounts")
	require.NoError(t, err)
	ks := keystore.NewKeystoreWithCipher(dir, cipher.NewLightScrypt())
	return NewAccountManagerWithKeystore(ks), func() { os.RemoveAll(dir) }
}

func TestCreateNewAccount(t *testing.T) {
	am, done := newTestManager(t)
	defer done()

	pk, err := am.CreateNewAccount(passphrase)
	require.NoError(t, err)
	assert.Equal(t, []common.PublicKey{pk}, am.Accounts())

	key, err := am.Key(pk, passphrase)
	require.NoError(t, err)
	assert.Equal(t, pk, key.PublicKey())

	_, err = am.Key(common.PublicKey{1}, passphrase)
	assert.Equal(t, ErrAccountNotFound, errors.Cause(err))
}

func TestSignHashNeedsUnlock(t *testing.T) {
	am, done := newTestManager(t)
	defer done()

	pk, err := am.CreateNewAccount(passphrase)
	require.NoError(t, err)
	hash := common.UnitHash{0xab}

	_, err = am.SignHash(pk, hash)
	assert.Equal(t, ErrAccountIsLocked, err)

	require.NoError(t, am.Unlock(pk, passphrase, 0))
	sig, err := am.SignHash(pk, hash)
	require.NoError(t, err)
	assert.True(t, ed25519.NewSigner().Verify(pk, hash[:], sig))

	require.NoError(t, am.Lock(pk))
	_, err = am.SignHash(pk, hash)
	assert.Equal(t, ErrAccountIsLocked, err)
}

func TestResetPassword(t *testing.T) {
	am, done := newTestManager(t)
	defer done()

	pk, err := am.CreateNewAccount(passphrase)
	require.NoError(t, err)
	require.NoError(t, am.ResetPassword(pk, passphrase, []byte("other")))

	_, err = am.Key(pk, passphrase)
	assert.Equal(t, cipher.ErrDecrypt, errors.Cause(err))
	key, err := am.Key(pk, []byte("other"))
	require.NoError(t, err)
	assert.Equal(t, pk, key.PublicKey())

	assert.Error(t, am.ResetPassword(pk, passphrase, []byte("third")))
}

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
	"time"

	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/config"
	"github.com/ambrchain/ambr/crypto/ed25519"
	"github.com/ambrchain/ambr/crypto/keystore"
	"github.com/ambrchain/ambr/crypto/keystore/cipher"
	"github.com/ambrchain/ambr/utils/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrAccountNotFound account is not found.
	ErrAccountNotFound = errors.New("account is not found")

	// ErrAccountIsLocked account locked.
	ErrAccountIsLocked = errors.New("account is locked")

	ErrKeyMismatch = errors.New("key file does not match its address")
)

// AccountManager maps addresses to keystore entries.
type AccountManager struct {
	ks *keystore.Keystore
}

func NewAccountManager(config *config.Config) (*AccountManager, error) {
	kdf := ""
	if config.Node != nil {
		kdf = config.Node.KeystoreKDF
	}
	c, err := cipher.New(kdf)
	if err != nil {
		return nil, err
	}
	return NewAccountManagerWithKeystore(keystore.NewKeystoreWithCipher(config.KeystoreDir(), c)), nil
}

func NewAccountManagerWithKeystore(ks *keystore.Keystore) *AccountManager {
	return &AccountManager{ks: ks}
}

func (am *AccountManager) CreateNewAccount(passphrase []byte) (common.PublicKey, error) {
	key, err := ed25519.GenerateKey()
	if err != nil {
		return common.EmptyPublicKey, err
	}
	return am.Import(key, passphrase)
}

// Import seals key under passphrase.
func (am *AccountManager) Import(key common.PrivateKey, passphrase []byte) (common.PublicKey, error) {
	pk := key.PublicKey()
	if err := am.ks.SetKey(pk.Address(), key.Bytes(), passphrase); err != nil {
		logging.Logger.WithFields(logrus.Fields{
			"address": pk.Address(),
			"err":     err,
		}).Error("Failed to store key.")
		return common.EmptyPublicKey, err
	}
	return pk, nil
}

func (am *AccountManager) Accounts() []common.PublicKey {
	list := am.ks.List()
	pks := make([]common.PublicKey, 0, len(list))
	for _, item := range list {
		pk, err := common.AddressToPublicKey(item)
		if err != nil {
			logging.Logger.WithField("address", item).Error("address parse:", err)
			continue
		}
		pks = append(pks, pk)
	}
	return pks
}

// Key decrypts the private key of pk.
func (am *AccountManager) Key(pk common.PublicKey, passphrase []byte) (common.PrivateKey, error) {
	raw, err := am.ks.GetKey(pk.Address(), passphrase)
	if err != nil {
		if errors.Cause(err) == keystore.ErrNotFound {
			return common.PrivateKey{}, errors.Wrapf(ErrAccountNotFound, "%s", pk)
		}
		return common.PrivateKey{}, err
	}
	return checkKey(pk, raw)
}

// ResetPassword reseals the key of pk under newPass.
func (am *AccountManager) ResetPassword(pk common.PublicKey, oldPass, newPass []byte) error {
	key, err := am.Key(pk, oldPass)
	if err != nil {
		return err
	}
	_, err = am.Import(key, newPass)
	return err
}

func (am *AccountManager) Unlock(pk common.PublicKey, passphrase []byte, timeout time.Duration) error {
	return am.ks.Unlock(pk.Address(), passphrase, timeout)
}

func (am *AccountManager) Lock(pk common.PublicKey) error {
	return am.ks.Lock(pk.Address())
}

// UnlockedKey returns the key of an unlocked account.
func (am *AccountManager) UnlockedKey(pk common.PublicKey) (common.PrivateKey, error) {
	raw, err := am.ks.GetUnlocked(pk.Address())
	if err != nil {
		logging.Logger.WithFields(logrus.Fields{
			"err":     err,
			"address": pk,
		}).Error("Failed to get unlocked private key.")
		return common.PrivateKey{}, ErrAccountIsLocked
	}
	return checkKey(pk, raw)
}

// SignHash signs hash with an unlocked account.
func (am *AccountManager) SignHash(pk common.PublicKey, hash common.UnitHash) (common.Signature, error) {
	key, err := am.UnlockedKey(pk)
	if err != nil {
		return common.Signature{}, err
	}
	return ed25519.NewSignerWithKey(key).Sign(hash[:])
}

func checkKey(pk common.PublicKey, raw []byte) (common.PrivateKey, error) {
	key, err := common.BytesToPrivateKey(raw)
	if err != nil {
		return key, err
	}
	if key.PublicKey() != pk {
		return common.PrivateKey{}, errors.Wrapf(ErrKeyMismatch, "%s", pk)
	}
	return key, nil
}

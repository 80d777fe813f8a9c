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
	"bytes"
	"crypto/aes"
	"encoding/hex"
	"encoding/json"

	"github.com/ambrchain/ambr/crypto/hash"
	"github.com/ambrchain/ambr/crypto/random"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
)

// aes-256-ctr ciphers take a 64 byte derived key: cipher key then mac key.
const (
	wideCipherName = "aes-256-ctr"
	wideDKLen      = 64
)

// kdfFunc derives wideDKLen bytes from passphrase and salt.
type kdfFunc func(passphrase, salt []byte) ([]byte, error)

func sealWide(data, passphrase []byte, kdf string, params map[string]interface{}, derive kdfFunc) (*cryptoJSON, error) {
	salt := random.GetEntropyCSPRNG(wideDKLen)
	derivedKey, err := derive(passphrase, salt)
	if err != nil {
		return nil, err
	}
	iv := random.GetEntropyCSPRNG(aes.BlockSize)
	cipherText, err := aesCTRXOR(derivedKey[:32], data, iv)
	if err != nil {
		return nil, err
	}
	mac := hash.Sha3256(derivedKey[32:64], cipherText, iv, []byte(wideCipherName))

	params["dklen"] = wideDKLen
	params["salt"] = hex.EncodeToString(salt)
	return &cryptoJSON{
		Cipher:       wideCipherName,
		CipherText:   hex.EncodeToString(cipherText),
		CipherParams: cipherparamsJSON{IV: hex.EncodeToString(iv)},
		KDF:          kdf,
		KDFParams:    params,
		MAC:          hex.EncodeToString(mac),
		MACHash:      macHash,
	}, nil
}

func openWide(crypto *cryptoJSON, passphrase []byte, kdf string, derive kdfFunc) ([]byte, error) {
	if crypto.Cipher != wideCipherName {
		return nil, ErrCipherInvalid
	}
	if crypto.KDF != kdf {
		return nil, ErrKDFInvalid
	}
	mac, err := hex.DecodeString(crypto.MAC)
	if err != nil {
		return nil, err
	}
	iv, err := hex.DecodeString(crypto.CipherParams.IV)
	if err != nil {
		return nil, err
	}
	cipherText, err := hex.DecodeString(crypto.CipherText)
	if err != nil {
		return nil, err
	}
	saltHex, ok := crypto.KDFParams["salt"].(string)
	if !ok {
		return nil, errors.Wrap(ErrKDFParams, "salt")
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, err
	}

	derivedKey, err := derive(passphrase, salt)
	if err != nil {
		return nil, err
	}
	if len(derivedKey) < wideDKLen {
		return nil, errors.Wrapf(ErrKDFParams, "derived %d bytes", len(derivedKey))
	}
	calculatedMAC := hash.Sha3256(derivedKey[32:64], cipherText, iv, []byte(crypto.Cipher))
	if !bytes.Equal(calculatedMAC, mac) {
		return nil, ErrDecrypt
	}
	return aesCTRXOR(derivedKey[:32], cipherText, iv)
}

func marshalKey(address string, crypto *cryptoJSON) ([]byte, error) {
	return json.Marshal(encryptedKeyJSON{
		Address: address,
		Crypto:  *crypto,
		ID:      uuid.NewV4().String(),
		Version: currentVersion,
	})
}

func unmarshalKey(keyjson []byte) (*cryptoJSON, error) {
	keyJSON := new(encryptedKeyJSON)
	if err := json.Unmarshal(keyjson, keyJSON); err != nil {
		return nil, err
	}
	if keyJSON.Version != currentVersion {
		return nil, errors.Wrapf(ErrVersionInvalid, "version %d", keyJSON.Version)
	}
	return &keyJSON.Crypto, nil
}

// positiveParams reads integral kdf params that must be above zero.
func positiveParams(params map[string]interface{}, names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		v, err := ensureInt(params[name])
		if err != nil {
			return nil, errors.Wrap(err, name)
		}
		if v <= 0 {
			return nil, errors.Wrapf(ErrKDFParams, "%s %d", name, v)
		}
		out[i] = v
	}
	return out, nil
}

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
	"crypto/cipher"
	"encoding/hex"
	"encoding/json"

	"github.com/ambrchain/ambr/crypto/hash"
	"github.com/ambrchain/ambr/crypto/random"
	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

const (
	// ScryptKDF name
	ScryptKDF = "scrypt"

	// N:18, P:1 -> Using 256MB memory and taking approximately 1s CPU time on a modern processor.
	// N:12, P:6 -> Using 4MB memory and taking approximately 100ms CPU time on a modern processor.

	StandardScryptN = 1 << 17
	StandardScryptR = 8
	StandardScryptP = 1

	// LightScryptN is for tests and throwaway keys.
	LightScryptN = 1 << 12
	LightScryptP = 6

	ScryptDKLen = 32

	currentVersion = 1
)

type Scrypt struct {
	N int
	R int
	P int
}

func NewScrypt() *Scrypt {
	return &Scrypt{
		N: StandardScryptN,
		R: StandardScryptR,
		P: StandardScryptP,
	}
}

func NewLightScrypt() *Scrypt {
	return &Scrypt{
		N: LightScryptN,
		R: StandardScryptR,
		P: LightScryptP,
	}
}

func (s *Scrypt) Encrypt(data []byte, passphrase []byte) ([]byte, error) {
	crypto, err := s.scryptEncrypt(data, passphrase)
	if err != nil {
		return nil, err
	}
	return json.Marshal(crypto)
}

func (s *Scrypt) EncryptKey(address string, data []byte, passphrase []byte) ([]byte, error) {
	crypto, err := s.scryptEncrypt(data, passphrase)
	if err != nil {
		return nil, err
	}
	return marshalKey(address, crypto)
}

func (s *Scrypt) Decrypt(data []byte, passphrase []byte) ([]byte, error) {
	crypto := new(cryptoJSON)
	if err := json.Unmarshal(data, crypto); err != nil {
		return nil, err
	}
	return s.scryptDecrypt(crypto, passphrase)
}

func (s *Scrypt) DecryptKey(keyjson []byte, passphrase []byte) ([]byte, error) {
	crypto, err := unmarshalKey(keyjson)
	if err != nil {
		return nil, err
	}
	return s.scryptDecrypt(crypto, passphrase)
}

func (s *Scrypt) scryptEncrypt(data []byte, passphrase []byte) (*cryptoJSON, error) {
	salt := random.GetEntropyCSPRNG(ScryptDKLen)
	derivedKey, err := scrypt.Key(passphrase, salt, s.N, s.R, s.P, ScryptDKLen)
	if err != nil {
		return nil, err
	}
	encryptKey := derivedKey[:16]

	iv := random.GetEntropyCSPRNG(aes.BlockSize)
	cipherText, err := aesCTRXOR(encryptKey, data, iv)
	if err != nil {
		return nil, err
	}
	mac := hash.Sha3256(derivedKey[16:32], cipherText, iv, []byte(cipherName))

	return &cryptoJSON{
		Cipher:       cipherName,
		CipherText:   hex.EncodeToString(cipherText),
		CipherParams: cipherparamsJSON{IV: hex.EncodeToString(iv)},
		KDF:          ScryptKDF,
		KDFParams: map[string]interface{}{
			"n":     s.N,
			"r":     s.R,
			"p":     s.P,
			"dklen": ScryptDKLen,
			"salt":  hex.EncodeToString(salt),
		},
		MAC:     hex.EncodeToString(mac),
		MACHash: macHash,
	}, nil
}

func aesCTRXOR(key, inText, iv []byte) ([]byte, error) {
	aesBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	stream := cipher.NewCTR(aesBlock, iv)
	outText := make([]byte, len(inText))
	stream.XORKeyStream(outText, inText)
	return outText, nil
}

func (s *Scrypt) scryptDecrypt(crypto *cryptoJSON, passphrase []byte) ([]byte, error) {
	if crypto.Cipher != cipherName {
		return nil, ErrCipherInvalid
	}
	if crypto.KDF != ScryptKDF {
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

	var params [4]int
	for i, name := range []string{"n", "r", "p", "dklen"} {
		if params[i], err = ensureInt(crypto.KDFParams[name]); err != nil {
			return nil, errors.Wrap(err, name)
		}
	}
	if params[3] < 32 {
		return nil, errors.Wrapf(ErrKDFParams, "dklen %d", params[3])
	}
	derivedKey, err := scrypt.Key(passphrase, salt, params[0], params[1], params[2], params[3])
	if err != nil {
		return nil, err
	}

	calculatedMAC := hash.Sha3256(derivedKey[16:32], cipherText, iv, []byte(crypto.Cipher))
	if !bytes.Equal(calculatedMAC, mac) {
		return nil, ErrDecrypt
	}
	return aesCTRXOR(derivedKey[:16], cipherText, iv)
}

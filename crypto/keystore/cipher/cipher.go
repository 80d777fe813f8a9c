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

import "github.com/pkg/errors"

// Cipher seals key material under a passphrase.
type Cipher interface {
	Encrypt(data []byte, passphrase []byte) ([]byte, error)

	EncryptKey(address string, data []byte, passphrase []byte) ([]byte, error)

	Decrypt(data []byte, passphrase []byte) ([]byte, error)

	DecryptKey(keyjson []byte, passphrase []byte) ([]byte, error)
}

type cipherparamsJSON struct {
	IV string `json:"iv"`
}

type cryptoJSON struct {
	Cipher       string                 `json:"cipher"`
	CipherText   string                 `json:"ciphertext"`
	CipherParams cipherparamsJSON       `json:"cipherparams"`
	KDF          string                 `json:"kdf"`
	KDFParams    map[string]interface{} `json:"kdfparams"`
	MAC          string                 `json:"mac"`
	MACHash      string                 `json:"machash"`
}

type encryptedKeyJSON struct {
	Address string     `json:"address"`
	Crypto  cryptoJSON `json:"crypto"`
	ID      string     `json:"id"`
	Version int        `json:"version"`
}

const (
	cipherName = "aes-128-ctr"

	// mac calculate hash type
	macHash = "sha3256"
)

var (
	ErrVersionInvalid = errors.New("version not supported")
	ErrKDFInvalid     = errors.New("kdf not supported")
	ErrCipherInvalid  = errors.New("cipher not supported")
	ErrDecrypt        = errors.New("could not decrypt key with given passphrase")
	ErrKDFParams      = errors.New("invalid kdf params")
)

// json.Unmarshal turns numbers into float64
func ensureInt(x interface{}) (int, error) {
	switch v := x.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	}
	return 0, errors.Wrapf(ErrKDFParams, "%v", x)
}

// New returns the cipher for a kdf name: scrypt, light-scrypt, balloon or
// argon2id.
func New(kdf string) (Cipher, error) {
	switch kdf {
	case "", ScryptKDF:
		return NewScrypt(), nil
	case "light-" + ScryptKDF:
		return NewLightScrypt(), nil
	case BalloonKDF:
		return NewBalloon(), nil
	case Argon2KDF:
		return NewArgon2(), nil
	}
	return nil, errors.Wrapf(ErrKDFInvalid, "%q", kdf)
}

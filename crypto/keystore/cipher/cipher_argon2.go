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
	"encoding/json"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
)

const (
	// Argon2KDF name
	Argon2KDF = "argon2id"

	StandardArgon2Time    = 4
	StandardArgon2Memory  = 256 * 1024
	StandardArgon2Threads = 4
)

// Argon2 seals keys with argon2id.
type Argon2 struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

func NewArgon2() *Argon2 {
	return &Argon2{
		Time:    StandardArgon2Time,
		Memory:  StandardArgon2Memory,
		Threads: StandardArgon2Threads,
	}
}

func argon2KDF(time, memory uint32, threads uint8) kdfFunc {
	return func(passphrase, salt []byte) ([]byte, error) {
		return argon2.IDKey(passphrase, salt, time, memory, threads, wideDKLen), nil
	}
}

func (a *Argon2) seal(data, passphrase []byte) (*cryptoJSON, error) {
	params := map[string]interface{}{"time": a.Time, "memory": a.Memory, "threads": a.Threads}
	return sealWide(data, passphrase, Argon2KDF, params, argon2KDF(a.Time, a.Memory, a.Threads))
}

func (a *Argon2) open(crypto *cryptoJSON, passphrase []byte) ([]byte, error) {
	p, err := positiveParams(crypto.KDFParams, "time", "memory", "threads")
	if err != nil {
		return nil, err
	}
	if p[2] > 255 {
		return nil, errors.Wrapf(ErrKDFParams, "threads %d", p[2])
	}
	return openWide(crypto, passphrase, Argon2KDF, argon2KDF(uint32(p[0]), uint32(p[1]), uint8(p[2])))
}

func (a *Argon2) Encrypt(data []byte, passphrase []byte) ([]byte, error) {
	crypto, err := a.seal(data, passphrase)
	if err != nil {
		return nil, err
	}
	return json.Marshal(crypto)
}

func (a *Argon2) EncryptKey(address string, data []byte, passphrase []byte) ([]byte, error) {
	crypto, err := a.seal(data, passphrase)
	if err != nil {
		return nil, err
	}
	return marshalKey(address, crypto)
}

func (a *Argon2) Decrypt(data []byte, passphrase []byte) ([]byte, error) {
	crypto := new(cryptoJSON)
	if err := json.Unmarshal(data, crypto); err != nil {
		return nil, err
	}
	return a.open(crypto, passphrase)
}

func (a *Argon2) DecryptKey(keyjson []byte, passphrase []byte) ([]byte, error) {
	crypto, err := unmarshalKey(keyjson)
	if err != nil {
		return nil, err
	}
	return a.open(crypto, passphrase)
}

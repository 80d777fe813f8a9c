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

	"github.com/nogoegst/balloon"
	"golang.org/x/crypto/blake2b"
)

const (
	// BalloonKDF name
	BalloonKDF = "balloon"

	StandardBalloonTime  = 16
	StandardBalloonSpace = 8 * 1024
)

// Balloon seals keys with balloon hashing over blake2b-512.
type Balloon struct {
	Time  uint64
	Space uint64
}

func NewBalloon() *Balloon {
	return &Balloon{
		Time:  StandardBalloonTime,
		Space: StandardBalloonSpace,
	}
}

func balloonKDF(space, time uint64) kdfFunc {
	return func(passphrase, salt []byte) ([]byte, error) {
		h, err := blake2b.New512(nil)
		if err != nil {
			return nil, err
		}
		return balloon.Balloon(h, passphrase, salt, space, time), nil
	}
}

func (b *Balloon) seal(data, passphrase []byte) (*cryptoJSON, error) {
	params := map[string]interface{}{"time": b.Time, "space": b.Space}
	return sealWide(data, passphrase, BalloonKDF, params, balloonKDF(b.Space, b.Time))
}

func (b *Balloon) open(crypto *cryptoJSON, passphrase []byte) ([]byte, error) {
	p, err := positiveParams(crypto.KDFParams, "time", "space")
	if err != nil {
		return nil, err
	}
	return openWide(crypto, passphrase, BalloonKDF, balloonKDF(uint64(p[1]), uint64(p[0])))
}

func (b *Balloon) Encrypt(data []byte, passphrase []byte) ([]byte, error) {
	crypto, err := b.seal(data, passphrase)
	if err != nil {
		return nil, err
	}
	return json.Marshal(crypto)
}

func (b *Balloon) EncryptKey(address string, data []byte, passphrase []byte) ([]byte, error) {
	crypto, err := b.seal(data, passphrase)
	if err != nil {
		return nil, err
	}
	return marshalKey(address, crypto)
}

func (b *Balloon) Decrypt(data []byte, passphrase []byte) ([]byte, error) {
	crypto := new(cryptoJSON)
	if err := json.Unmarshal(data, crypto); err != nil {
		return nil, err
	}
	return b.open(crypto, passphrase)
}

func (b *Balloon) DecryptKey(keyjson []byte, passphrase []byte) ([]byte, error) {
	crypto, err := unmarshalKey(keyjson)
	if err != nil {
		return nil, err
	}
	return b.open(crypto, passphrase)
}

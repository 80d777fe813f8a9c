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

package crypto

import (
	"github.com/ambrchain/ambr/common"
)

type Algorithm uint8

const (
	ALG_ED25519 Algorithm = 1
)

type Signer interface {
	Algorithm() Algorithm

	InitSigner(privateKey common.PrivateKey) error

	PublicKey() common.PublicKey

	Sign(data []byte) (common.Signature, error)

	Verify(publicKey common.PublicKey, data []byte, signature common.Signature) bool
}

// Verifier is the read-only half of Signer, used where no private key is held.
type Verifier interface {
	Verify(publicKey common.PublicKey, data []byte, signature common.Signature) bool
}

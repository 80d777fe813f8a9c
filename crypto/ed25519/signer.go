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

package ed25519

import (
	"crypto/rand"
	"errors"

	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/crypto"
	"github.com/ambrchain/ambr/utils/logging"
	"golang.org/x/crypto/ed25519"
)

var ErrNoPrivateKey = errors.New("privateKey has not been set")

type Signer struct {
	algorithm  crypto.Algorithm
	privateKey *common.PrivateKey
}

func NewSigner() *Signer {
	return &Signer{
		algorithm: crypto.ALG_ED25519,
	}
}

// NewSignerWithKey is a shortcut for NewSigner followed by InitSigner.
func NewSignerWithKey(privateKey common.PrivateKey) *Signer {
	s := NewSigner()
	s.InitSigner(privateKey)
	return s
}

func (s *Signer) Algorithm() crypto.Algorithm {
	return s.algorithm
}

func (s *Signer) InitSigner(privateKey common.PrivateKey) error {
	s.privateKey = &privateKey
	return nil
}

func (s *Signer) PublicKey() common.PublicKey {
	if s.privateKey == nil {
		return common.EmptyPublicKey
	}
	return s.privateKey.PublicKey()
}

func (s *Signer) Sign(data []byte) (common.Signature, error) {
	var sig common.Signature
	if s.privateKey == nil {
		logging.Logger.Warn("privateKey has not been set")
		return sig, ErrNoPrivateKey
	}
	copy(sig[:], ed25519.Sign(ed25519.PrivateKey(s.privateKey[:]), data))
	return sig, nil
}

func (s *Signer) Verify(publicKey common.PublicKey, data []byte, signature common.Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(publicKey[:]), data, signature[:])
}

// GenerateKey creates a fresh key pair from crypto/rand.
func GenerateKey() (common.PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return common.PrivateKey{}, err
	}
	return common.BytesToPrivateKey(priv)
}

// KeyFromSeed derives the key pair for a 32 byte seed.
func KeyFromSeed(seed []byte) (common.PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return common.PrivateKey{}, common.ErrInvalidKeyLength
	}
	return common.BytesToPrivateKey(ed25519.NewKeyFromSeed(seed))
}

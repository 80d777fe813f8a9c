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

package common

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

const (
	HashLength       = 32
	PublicKeyLength  = 32
	PrivateKeyLength = 64
	SignatureLength  = 64
)

var (
	ErrInvalidHashLength = errors.New("invalid hash length")
	ErrInvalidKeyLength  = errors.New("invalid key length")
)

// UnitHash identifies a unit; it is the digest of the unit's canonical bytes.
type UnitHash [HashLength]byte

var EmptyHash = UnitHash{}

func BytesToHash(b []byte) (h UnitHash) {
	h.SetBytes(b)
	return
}

// HexToHash parses a hex string, rejecting anything but exactly 32 bytes.
func HexToHash(s string) (UnitHash, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return EmptyHash, errors.Wrapf(ErrInvalidHashLength, "decode %q: %v", s, err)
	}
	if len(b) != HashLength {
		return EmptyHash, errors.Wrapf(ErrInvalidHashLength, "got %d bytes", len(b))
	}
	return BytesToHash(b), nil
}

// SetBytes copies b into the hash, keeping the rightmost bytes when b is too long.
func (h *UnitHash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

func (h UnitHash) Bytes() []byte { return h[:] }

func (h UnitHash) Hex() string { return hex.EncodeToString(h[:]) }

func (h UnitHash) Base58() string { return base58.Encode(h[:]) }

func (h UnitHash) String() string { return h.Hex() }

func (h UnitHash) IsZero() bool { return h == EmptyHash }

func (h UnitHash) Equals(b UnitHash) bool {
	return bytes.Equal(h[:], b[:])
}

func (h UnitHash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

func (h *UnitHash) UnmarshalText(text []byte) error {
	parsed, err := HexToHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// PublicKey is an ed25519 account key.
type PublicKey [PublicKeyLength]byte

var EmptyPublicKey = PublicKey{}

func BytesToPublicKey(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != PublicKeyLength {
		return pk, errors.Wrapf(ErrInvalidKeyLength, "public key has %d bytes", len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

func HexToPublicKey(s string) (PublicKey, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return EmptyPublicKey, errors.Wrapf(ErrInvalidKeyLength, "decode %q: %v", s, err)
	}
	return BytesToPublicKey(b)
}

// AddressToPublicKey parses the base58 address form of a public key.
func AddressToPublicKey(address string) (PublicKey, error) {
	b, err := base58.Decode(address)
	if err != nil {
		return EmptyPublicKey, errors.Wrapf(ErrInvalidKeyLength, "decode address %q: %v", address, err)
	}
	return BytesToPublicKey(b)
}

func (pk PublicKey) Bytes() []byte { return pk[:] }

func (pk PublicKey) Hex() string { return hex.EncodeToString(pk[:]) }

// Address is the base58 text form shown to users.
func (pk PublicKey) Address() string { return base58.Encode(pk[:]) }

func (pk PublicKey) String() string { return pk.Address() }

func (pk PublicKey) IsZero() bool { return pk == EmptyPublicKey }

func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.Hex()), nil
}

func (pk *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := HexToPublicKey(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// PrivateKey is an ed25519 private key (seed followed by public key).
type PrivateKey [PrivateKeyLength]byte

func BytesToPrivateKey(b []byte) (PrivateKey, error) {
	var sk PrivateKey
	if len(b) != PrivateKeyLength {
		return sk, errors.Wrapf(ErrInvalidKeyLength, "private key has %d bytes", len(b))
	}
	copy(sk[:], b)
	return sk, nil
}

func (sk PrivateKey) Bytes() []byte { return sk[:] }

func (sk PrivateKey) Hex() string { return hex.EncodeToString(sk[:]) }

// PublicKey returns the public half embedded in the private key.
func (sk PrivateKey) PublicKey() PublicKey {
	var pk PublicKey
	copy(pk[:], sk[PrivateKeyLength-PublicKeyLength:])
	return pk
}

// Signature is a detached ed25519 signature.
type Signature [SignatureLength]byte

func (s Signature) Hex() string { return hex.EncodeToString(s[:]) }

func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.Hex()), nil
}

func (s *Signature) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return err
	}
	if len(b) != SignatureLength {
		return errors.Errorf("signature has %d bytes", len(b))
	}
	copy(s[:], b)
	return nil
}

func CopyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

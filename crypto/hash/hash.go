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

package hash

import (
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Blake2b256 digests the concatenation of args.
func Blake2b256(args ...[]byte) []byte {
	h, _ := blake2b.New256(nil)
	for _, a := range args {
		h.Write(a)
	}
	return h.Sum(nil)
}

func Sha3256(args ...[]byte) []byte {
	h := sha3.New256()
	for _, a := range args {
		h.Write(a)
	}
	return h.Sum(nil)
}

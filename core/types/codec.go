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

package types

import (
	"bytes"
	"encoding/binary"

	"github.com/ambrchain/ambr/common"
	"github.com/pkg/errors"
)

var ErrShortBuffer = errors.New("buffer too short")

type writer struct {
	bytes.Buffer
}

func (w *writer) u8(v uint8) { w.WriteByte(v) }

func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func (w *writer) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.Write(b[:])
}

func (w *writer) hash(h common.UnitHash)       { w.Write(h[:]) }
func (w *writer) key(k common.PublicKey)       { w.Write(k[:]) }
func (w *writer) amount(a common.Amount)       { w.Write(a.Bytes()) }
func (w *writer) signature(s common.Signature) { w.Write(s[:]) }

// reader decodes from a byte slice, never reading past its end.
type reader struct {
	buf []byte
	pos int
	err error
}

func newReader(b []byte) *reader {
	return &reader{buf: b}
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.buf)-r.pos < n {
		r.err = errors.Wrapf(ErrShortBuffer, "need %d bytes at offset %d, have %d", n, r.pos, len(r.buf)-r.pos)
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) u32() uint32 {
	if b := r.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *reader) u64() uint64 {
	if b := r.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (r *reader) hash() (h common.UnitHash) {
	if b := r.take(common.HashLength); b != nil {
		copy(h[:], b)
	}
	return
}

func (r *reader) key() (k common.PublicKey) {
	if b := r.take(common.PublicKeyLength); b != nil {
		copy(k[:], b)
	}
	return
}

func (r *reader) amount() common.Amount {
	if b := r.take(common.AmountLength); b != nil {
		a, _ := common.AmountFromBytes(b)
		return a
	}
	return common.Amount{}
}

func (r *reader) signature() (s common.Signature) {
	if b := r.take(common.SignatureLength); b != nil {
		copy(s[:], b)
	}
	return
}

func (r *reader) remaining() int {
	return len(r.buf) - r.pos
}

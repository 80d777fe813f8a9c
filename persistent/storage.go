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

package persistent

import "errors"

var (
	ErrKeyNotFound = errors.New("not found")
)

type Getter interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
}

type Putter interface {
	Put(key []byte, value []byte) error
}

type Deleter interface {
	Del(key []byte) error
}

// Iterator walks keys in ascending byte order. Key and Value are only valid
// until the next call to Next.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
	Error() error
}

type Iteratee interface {
	// NewIterator iterates all keys starting with prefix.
	NewIterator(prefix []byte) Iterator
}

type Storage interface {
	Getter
	Putter
	Deleter
	Iteratee

	Close() error

	NewBatch() Batch
}

type Batch interface {
	Putter
	Deleter

	ValueSize() int
	Write() error
	Reset()
}

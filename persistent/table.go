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

type table struct {
	storage Storage
	prefix  string
}

// NewTable returns a wrapped storage, which prefixes all keys
func NewTable(storage Storage, prefix string) Storage {
	return &table{
		storage: storage,
		prefix:  prefix,
	}
}

func (t *table) Get(key []byte) ([]byte, error) {
	return t.storage.Get(t.key(key))
}

func (t *table) Has(key []byte) (bool, error) {
	return t.storage.Has(t.key(key))
}

func (t *table) Put(key []byte, value []byte) error {
	return t.storage.Put(t.key(key), value)
}

func (t *table) Del(key []byte) error {
	return t.storage.Del(t.key(key))
}

func (t *table) Close() error {
	return nil
}

// NewIterator yields keys with the table prefix stripped.
func (t *table) NewIterator(prefix []byte) Iterator {
	return &tableIterator{
		it:     t.storage.NewIterator(t.key(prefix)),
		prefix: len(t.prefix),
	}
}

func (t *table) NewBatch() Batch {
	return NewTableBatch(t.storage.NewBatch(), t.prefix)
}

func (t *table) key(key []byte) []byte {
	k := make([]byte, 0, len(t.prefix)+len(key))
	k = append(k, t.prefix...)
	return append(k, key...)
}

type tableIterator struct {
	it     Iterator
	prefix int
}

func (ti *tableIterator) Next() bool { return ti.it.Next() }

func (ti *tableIterator) Key() []byte {
	k := ti.it.Key()
	if len(k) < ti.prefix {
		return nil
	}
	return k[ti.prefix:]
}

func (ti *tableIterator) Value() []byte { return ti.it.Value() }
func (ti *tableIterator) Release()      { ti.it.Release() }
func (ti *tableIterator) Error() error  { return ti.it.Error() }

// NewTableBatch prefixes keys written into an existing batch, so several
// tables can share one atomic write.
func NewTableBatch(batch Batch, prefix string) Batch {
	return &tableBatch{
		batch:  batch,
		prefix: prefix,
	}
}

type tableBatch struct {
	batch  Batch
	prefix string
}

func (tb *tableBatch) Put(key []byte, value []byte) error {
	return tb.batch.Put(append([]byte(tb.prefix), key...), value)
}

func (tb *tableBatch) Del(key []byte) error {
	return tb.batch.Del(append([]byte(tb.prefix), key...))
}

func (tb *tableBatch) ValueSize() int {
	return tb.batch.ValueSize()
}

func (tb *tableBatch) Write() error {
	return tb.batch.Write()
}

func (tb *tableBatch) Reset() {
	tb.batch.Reset()
}

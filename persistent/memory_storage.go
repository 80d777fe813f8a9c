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

import (
	"sort"
	"strings"
	"sync"

	"github.com/ambrchain/ambr/common"
)

// MemoryStorage keeps everything in a map; used by tests and tools.
type MemoryStorage struct {
	lock sync.RWMutex
	data map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		data: make(map[string][]byte),
	}
}

func (db *MemoryStorage) Get(key []byte) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	if entry, ok := db.data[string(key)]; ok {
		return common.CopyBytes(entry), nil
	}
	return nil, ErrKeyNotFound
}

func (db *MemoryStorage) Has(key []byte) (bool, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	_, ok := db.data[string(key)]
	return ok, nil
}

func (db *MemoryStorage) Put(key []byte, value []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	db.data[string(key)] = common.CopyBytes(value)
	return nil
}

func (db *MemoryStorage) Del(key []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	delete(db.data, string(key))
	return nil
}

func (db *MemoryStorage) Close() error {
	return nil
}

// Len reports the number of stored keys.
func (db *MemoryStorage) Len() int {
	db.lock.RLock()
	defer db.lock.RUnlock()
	return len(db.data)
}

func (db *MemoryStorage) NewIterator(prefix []byte) Iterator {
	db.lock.RLock()
	defer db.lock.RUnlock()
	p := string(prefix)
	it := &sliceIterator{index: -1}
	for k, v := range db.data {
		if strings.HasPrefix(k, p) {
			it.entries = append(it.entries, kv{k: []byte(k), v: common.CopyBytes(v)})
		}
	}
	sort.Slice(it.entries, func(i, j int) bool {
		return string(it.entries[i].k) < string(it.entries[j].k)
	})
	return it
}

func (db *MemoryStorage) NewBatch() Batch {
	return &MemoryBatch{db: db}
}

type kv struct {
	k, v []byte
	del  bool
}

type MemoryBatch struct {
	db      *MemoryStorage
	entries []kv
	size    int
}

func (b *MemoryBatch) Put(key, value []byte) error {
	b.entries = append(b.entries, kv{k: common.CopyBytes(key), v: common.CopyBytes(value)})
	b.size += len(value)
	return nil
}

func (b *MemoryBatch) Del(key []byte) error {
	b.entries = append(b.entries, kv{k: common.CopyBytes(key), del: true})
	b.size += 1
	return nil
}

func (b *MemoryBatch) ValueSize() int {
	return b.size
}

// Write applies all entries under one lock so readers never see half a batch.
func (b *MemoryBatch) Write() error {
	b.db.lock.Lock()
	defer b.db.lock.Unlock()
	for _, e := range b.entries {
		if e.del {
			delete(b.db.data, string(e.k))
		} else {
			b.db.data[string(e.k)] = e.v
		}
	}
	return nil
}

func (b *MemoryBatch) Reset() {
	b.entries = b.entries[:0]
	b.size = 0
}

type sliceIterator struct {
	entries []kv
	index   int
}

func (it *sliceIterator) Next() bool {
	if it.index+1 >= len(it.entries) {
		it.index = len(it.entries)
		return false
	}
	it.index++
	return true
}

func (it *sliceIterator) Key() []byte {
	if it.index < 0 || it.index >= len(it.entries) {
		return nil
	}
	return it.entries[it.index].k
}

func (it *sliceIterator) Value() []byte {
	if it.index < 0 || it.index >= len(it.entries) {
		return nil
	}
	return it.entries[it.index].v
}

func (it *sliceIterator) Release() {
	it.entries = nil
}

func (it *sliceIterator) Error() error {
	return nil
}

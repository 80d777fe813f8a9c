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

	"github.com/ambrchain/ambr/common"
)

type overlayEntry struct {
	value   []byte
	deleted bool
}

// Overlay stages writes on top of a Storage. Reads see staged writes first;
// nothing reaches the base until Commit, which issues a single batch.
type Overlay struct {
	base    Storage
	entries map[string]overlayEntry
	order   []string
}

func NewOverlay(base Storage) *Overlay {
	return &Overlay{
		base:    base,
		entries: make(map[string]overlayEntry),
	}
}

func (o *Overlay) Get(key []byte) ([]byte, error) {
	if e, ok := o.entries[string(key)]; ok {
		if e.deleted {
			return nil, ErrKeyNotFound
		}
		return common.CopyBytes(e.value), nil
	}
	return o.base.Get(key)
}

func (o *Overlay) Has(key []byte) (bool, error) {
	if e, ok := o.entries[string(key)]; ok {
		return !e.deleted, nil
	}
	return o.base.Has(key)
}

func (o *Overlay) Put(key []byte, value []byte) error {
	o.set(string(key), overlayEntry{value: common.CopyBytes(value)})
	return nil
}

func (o *Overlay) Del(key []byte) error {
	o.set(string(key), overlayEntry{deleted: true})
	return nil
}

func (o *Overlay) set(k string, e overlayEntry) {
	if _, ok := o.entries[k]; !ok {
		o.order = append(o.order, k)
	}
	o.entries[k] = e
}

// NewIterator merges the base keys with staged writes.
func (o *Overlay) NewIterator(prefix []byte) Iterator {
	merged := make(map[string][]byte)
	it := o.base.NewIterator(prefix)
	for it.Next() {
		merged[string(it.Key())] = common.CopyBytes(it.Value())
	}
	it.Release()
	p := string(prefix)
	for k, e := range o.entries {
		if !strings.HasPrefix(k, p) {
			continue
		}
		if e.deleted {
			delete(merged, k)
		} else {
			merged[k] = e.value
		}
	}
	si := &sliceIterator{index: -1}
	for k, v := range merged {
		si.entries = append(si.entries, kv{k: []byte(k), v: v})
	}
	sort.Slice(si.entries, func(i, j int) bool {
		return string(si.entries[i].k) < string(si.entries[j].k)
	})
	return si
}

// NewBatch returns a batch whose Write stages into the overlay.
func (o *Overlay) NewBatch() Batch {
	return &overlayBatch{overlay: o, mem: NewMemoryStorage().NewBatch().(*MemoryBatch)}
}

func (o *Overlay) Close() error {
	return nil
}

// Dirty reports whether anything is staged.
func (o *Overlay) Dirty() bool {
	return len(o.order) > 0
}

// Keys returns the staged keys in first-write order.
func (o *Overlay) Keys() [][]byte {
	keys := make([][]byte, 0, len(o.order))
	for _, k := range o.order {
		keys = append(keys, []byte(k))
	}
	return keys
}

// Commit writes every staged entry to the base in one batch and clears the overlay.
func (o *Overlay) Commit() error {
	if !o.Dirty() {
		return nil
	}
	batch := o.base.NewBatch()
	for _, k := range o.order {
		e := o.entries[k]
		var err error
		if e.deleted {
			err = batch.Del([]byte(k))
		} else {
			err = batch.Put([]byte(k), e.value)
		}
		if err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	o.Discard()
	return nil
}

// Discard drops everything staged.
func (o *Overlay) Discard() {
	o.entries = make(map[string]overlayEntry)
	o.order = nil
}

type overlayBatch struct {
	overlay *Overlay
	mem     *MemoryBatch
}

func (b *overlayBatch) Put(key, value []byte) error { return b.mem.Put(key, value) }
func (b *overlayBatch) Del(key []byte) error        { return b.mem.Del(key) }
func (b *overlayBatch) ValueSize() int              { return b.mem.ValueSize() }
func (b *overlayBatch) Reset()                      { b.mem.Reset() }

func (b *overlayBatch) Write() error {
	for _, e := range b.mem.entries {
		if e.del {
			b.overlay.Del(e.k)
		} else {
			b.overlay.Put(e.k, e.v)
		}
	}
	return nil
}

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageIterator(t *testing.T) {
	testIterator(t, NewMemoryStorage())
}

func TestTableBatchSharesWrite(t *testing.T) {
	mem := NewMemoryStorage()
	batch := mem.NewBatch()
	NewTableBatch(batch, "x-").Put([]byte("k"), []byte("1"))
	NewTableBatch(batch, "y-").Put([]byte("k"), []byte("2"))

	ok, _ := NewTable(mem, "x-").Has([]byte("k"))
	assert.False(t, ok, "nothing visible before Write")

	require.NoError(t, batch.Write())
	v, err := NewTable(mem, "y-").Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "2", string(v))
}

func TestOverlayStagesUntilCommit(t *testing.T) {
	mem := NewMemoryStorage()
	mem.Put([]byte("keep"), []byte("base"))
	mem.Put([]byte("gone"), []byte("base"))

	o := NewOverlay(mem)
	tbl := NewTable(o, "")
	require.NoError(t, tbl.Put([]byte("new"), []byte("staged")))
	require.NoError(t, tbl.Del([]byte("gone")))

	v, err := o.Get([]byte("new"))
	require.NoError(t, err)
	assert.Equal(t, "staged", string(v))
	_, err = o.Get([]byte("gone"))
	assert.Equal(t, ErrKeyNotFound, err)

	// base untouched
	_, err = mem.Get([]byte("new"))
	assert.Equal(t, ErrKeyNotFound, err)
	ok, _ := mem.Has([]byte("gone"))
	assert.True(t, ok)

	it := o.NewIterator(nil)
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	it.Release()
	assert.Equal(t, []string{"keep", "new"}, keys)

	assert.Len(t, o.Keys(), 2)
	require.NoError(t, o.Commit())
	assert.False(t, o.Dirty())
	v, err = mem.Get([]byte("new"))
	require.NoError(t, err)
	assert.Equal(t, "staged", string(v))
	ok, _ = mem.Has([]byte("gone"))
	assert.False(t, ok)
}

func TestOverlayDiscard(t *testing.T) {
	mem := NewMemoryStorage()
	o := NewOverlay(mem)
	o.Put([]byte("k"), []byte("v"))
	o.Discard()
	require.NoError(t, o.Commit())
	assert.Equal(t, 0, mem.Len())
}

func TestOverlayBatch(t *testing.T) {
	mem := NewMemoryStorage()
	o := NewOverlay(mem)
	b := NewTable(o, "t-").NewBatch()
	b.Put([]byte("k"), []byte("v"))
	ok, _ := o.Has([]byte("t-k"))
	assert.False(t, ok)
	require.NoError(t, b.Write())
	ok, _ = o.Has([]byte("t-k"))
	assert.True(t, ok)
}

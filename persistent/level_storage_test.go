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
	"bytes"
	"path/filepath"
	"testing"
)

func TestNewLevelStorage(t *testing.T) {
	storage, err := NewLevelStorage(filepath.Join(t.TempDir(), "level.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer storage.Close()
	keys := [][]byte{[]byte("1"), []byte("2")}
	values := [][]byte{[]byte("1"), []byte("2")}
	storage.Put(keys[0], values[0])
	storage.Put(keys[1], values[1])
	value1, err1 := storage.Get(keys[0])

	if err1 != nil {
		t.Error(err1)
	}
	if !bytes.Equal(value1, values[0]) {
		t.Errorf("not equal %x %x", value1, values[0])
	}
	storage.Del(keys[1])
	_, err2 := storage.Get(keys[1])

	if err2 != ErrKeyNotFound {
		t.Errorf("get del: %v", err2)
	}
}

func TestLevelStorageReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	storage, err := NewLevelStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	batch := NewTable(storage, "a-").NewBatch()
	batch.Put([]byte("k"), []byte("v"))
	if err := batch.Write(); err != nil {
		t.Fatal(err)
	}
	storage.Close()

	storage, err = NewLevelStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer storage.Close()
	v, err := NewTable(storage, "a-").Get([]byte("k"))
	if err != nil || string(v) != "v" {
		t.Errorf("reopened value %q %v", v, err)
	}
}

func TestLevelStorageIterator(t *testing.T) {
	storage, err := NewLevelStorage(filepath.Join(t.TempDir(), "iter.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer storage.Close()
	testIterator(t, storage)
}

func testIterator(t *testing.T, storage Storage) {
	a := NewTable(storage, "a-")
	b := NewTable(storage, "b-")
	a.Put([]byte("2"), []byte("two"))
	a.Put([]byte("1"), []byte("one"))
	b.Put([]byte("1"), []byte("other"))

	it := a.NewIterator(nil)
	defer it.Release()
	var got []string
	for it.Next() {
		got = append(got, string(it.Key())+"="+string(it.Value()))
	}
	if err := it.Error(); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "1=one" || got[1] != "2=two" {
		t.Errorf("unexpected iteration %v", got)
	}
}

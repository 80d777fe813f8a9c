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

package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntryFields(t *testing.T) {
	e := entry([]interface{}{"hash", "abcd", "nonce", 3, "dangling"})
	assert.Equal(t, "abcd", e.Data["hash"])
	assert.Equal(t, 3, e.Data["nonce"])
	assert.Equal(t, "dangling", e.Data["extra"])
}

func TestEntryNonStringKey(t *testing.T) {
	e := entry([]interface{}{7, "seven"})
	assert.Equal(t, "seven", e.Data["7"])
}

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

package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ambrchain/ambr/core/store"
	"github.com/ambrchain/ambr/core/types"
	"github.com/fatih/color"
)

var (
	highlight = color.New(color.FgCyan).SprintFunc()
	good      = color.New(color.FgGreen).SprintFunc()
	pending   = color.New(color.FgYellow).SprintFunc()
	heading   = color.New(color.Bold).SprintFunc()
)

func printIndented(data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	fmt.Println(buf.String())
	return nil
}

func printUnit(u types.Unit) error {
	data, err := types.MarshalUnitJSON(u)
	if err != nil {
		return err
	}
	fmt.Printf("%s unit %s %s\n", u.Type(), highlight(types.Hash(u).Hex()), pending("pending"))
	return printIndented(data)
}

func stateOf(s store.UnitStore) string {
	if s.IsValidated() {
		return good("final")
	}
	return pending("pending")
}

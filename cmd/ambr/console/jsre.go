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

package console

import (
	"sort"
	"strings"

	"github.com/robertkrimen/otto"
)

// JSRE is the javascript runtime of the console.
type JSRE struct {
	vm *otto.Otto
}

func newJSRE() *JSRE {
	return &JSRE{vm: otto.New()}
}

func (j *JSRE) Run(src string) (otto.Value, error) {
	return j.vm.Run(src)
}

func (j *JSRE) Get(name string) (otto.Value, error) {
	return j.vm.Get(name)
}

func (j *JSRE) Set(name string, value interface{}) error {
	return j.vm.Set(name, value)
}

// Object evaluates src and returns the resulting object.
func (j *JSRE) Object(src string) (*otto.Object, error) {
	return j.vm.Object(src)
}

// Compile compiles src under filename and runs it.
func (j *JSRE) Compile(filename string, src interface{}) error {
	script, err := j.vm.Compile(filename, src)
	if err != nil {
		return err
	}
	_, err = j.vm.Run(script)
	return err
}

func (j *JSRE) JSONString(val otto.Value) (string, error) {
	JSON, _ := j.vm.Object("JSON")
	out, err := JSON.Call("stringify", val)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

// CompleteKeywords returns the properties reachable from the dotted
// prefix in line.
func (j *JSRE) CompleteKeywords(line string) []string {
	objRef, prefix := "this", line
	if i := strings.LastIndex(line, "."); i >= 0 {
		objRef, prefix = line[:i], line[i+1:]
	}
	obj, _ := j.vm.Object(objRef)
	if obj == nil {
		return nil
	}

	seen := make(map[string]bool)
	var results []string
	for _, name := range j.ownKeys(obj) {
		if !strings.HasPrefix(name, prefix) || strings.HasPrefix(name, "_") || name == "constructor" || seen[name] {
			continue
		}
		seen[name] = true
		if objRef == "this" {
			results = append(results, name)
		} else {
			results = append(results, objRef+"."+name)
		}
	}
	if len(results) == 1 && results[0] == line {
		if o, _ := j.vm.Object(line); o != nil {
			if o.Class() == "Function" {
				results[0] += "("
			} else {
				results[0] += "."
			}
		}
	}
	sort.Strings(results)
	return results
}

func (j *JSRE) ownKeys(obj *otto.Object) []string {
	Object, _ := j.vm.Object("Object")
	rv, err := Object.Call("getOwnPropertyNames", obj.Value())
	if err != nil {
		return nil
	}
	v, _ := rv.Export()
	keys, _ := v.([]string)
	return keys
}

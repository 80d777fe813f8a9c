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

package keystore

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/crypto/keystore/cipher"
	"github.com/ambrchain/ambr/utils/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrNeedAddress       = errors.New("need address")
	ErrNotFound          = errors.New("key not found")
	ErrNotUnlocked       = errors.New("key not unlocked")
	ErrInvalidPassphrase = errors.New("passphrase is invalid")
)

type unlocked struct {
	key   []byte
	timer *time.Timer
}

// Keystore keeps passphrase sealed keys, one file per address, and the
// keys unlocked for a while.
type Keystore struct {
	ksDirPath string
	cipher    cipher.Cipher
	entries   map[string][]byte
	unlocked  map[string]*unlocked

	mu sync.RWMutex
}

func NewKeystore(dirPath string) *Keystore {
	return NewKeystoreWithCipher(dirPath, cipher.NewScrypt())
}

func NewKeystoreWithCipher(dirPath string, c cipher.Cipher) *Keystore {
	ks := &Keystore{
		ksDirPath: dirPath,
		cipher:    c,
		unlocked:  make(map[string]*unlocked),
	}
	ks.loadKeyFiles()
	return ks
}

func (ks *Keystore) SetKey(address string, key []byte, passphrase []byte) error {
	if len(address) == 0 {
		return ErrNeedAddress
	}
	if len(passphrase) == 0 {
		return ErrInvalidPassphrase
	}

	keyjson, err := ks.cipher.EncryptKey(address, key, passphrase)
	if err != nil {
		return err
	}

	filename := filepath.Join(ks.ksDirPath, keyFileName(address))
	if err := writeKeyFile(filename, keyjson); err != nil {
		return err
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.entries[address] = keyjson
	return nil
}

func (ks *Keystore) GetKey(address string, passphrase []byte) ([]byte, error) {
	if len(address) == 0 {
		return nil, ErrNeedAddress
	}
	if len(passphrase) == 0 {
		return nil, ErrInvalidPassphrase
	}

	ks.mu.RLock()
	entry, ok := ks.entries[address]
	ks.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%s", address)
	}
	return ks.cipher.DecryptKey(entry, passphrase)
}

// Delete forgets the key. The key file stays on disk.
func (ks *Keystore) Delete(address string) error {
	if len(address) == 0 {
		return ErrNeedAddress
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()
	delete(ks.entries, address)
	ks.lockLocked(address)
	return nil
}

// List returns the known addresses, sorted.
func (ks *Keystore) List() []string {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	addresses := make([]string, 0, len(ks.entries))
	for address := range ks.entries {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)
	return addresses
}

func (ks *Keystore) Contains(address string) (bool, error) {
	if len(address) == 0 {
		return false, ErrNeedAddress
	}
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	_, ok := ks.entries[address]
	return ok, nil
}

func (ks *Keystore) Lock(address string) error {
	if len(address) == 0 {
		return ErrNeedAddress
	}
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.lockLocked(address)
	return nil
}

func (ks *Keystore) lockLocked(address string) {
	if u, ok := ks.unlocked[address]; ok {
		if u.timer != nil {
			u.timer.Stop()
		}
		zeroBytes(u.key)
		delete(ks.unlocked, address)
	}
}

// Unlock keeps the decrypted key in memory for timeout, or until Lock
// when timeout is zero.
func (ks *Keystore) Unlock(address string, passphrase []byte, timeout time.Duration) error {
	key, err := ks.GetKey(address, passphrase)
	if err != nil {
		return err
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.lockLocked(address)
	u := &unlocked{key: key}
	if timeout > 0 {
		u.timer = time.AfterFunc(timeout, func() {
			ks.mu.Lock()
			defer ks.mu.Unlock()
			if ks.unlocked[address] == u {
				ks.lockLocked(address)
			}
		})
	}
	ks.unlocked[address] = u
	return nil
}

func (ks *Keystore) GetUnlocked(address string) ([]byte, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	u, ok := ks.unlocked[address]
	if !ok {
		return nil, errors.Wrapf(ErrNotUnlocked, "%s", address)
	}
	return common.CopyBytes(u.key), nil
}

func (ks *Keystore) loadKeyFiles() {
	var keyJSON struct {
		Address string `json:"address"`
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.entries = make(map[string][]byte)

	files, err := ioutil.ReadDir(ks.ksDirPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Logger.WithFields(logrus.Fields{
				"dir": ks.ksDirPath,
				"err": err,
			}).Error("Failed to read the keystore dir")
		}
		return
	}

	for _, file := range files {
		filename := filepath.Join(ks.ksDirPath, file.Name())
		if file.IsDir() || strings.HasPrefix(file.Name(), ".") || strings.HasSuffix(file.Name(), "~") {
			logging.Logger.WithFields(logrus.Fields{
				"file": filename,
			}).Warn("Seems not key file, skipped")
			continue
		}

		content, err := ioutil.ReadFile(filename)
		if err != nil {
			logging.Logger.WithFields(logrus.Fields{
				"file": filename,
				"err":  err,
			}).Error("Failed to read the key file")
			continue
		}

		keyJSON.Address = ""
		if err := json.Unmarshal(content, &keyJSON); err != nil {
			logging.Logger.WithFields(logrus.Fields{
				"file": filename,
				"err":  err,
			}).Error("Not correct key file content")
			continue
		}
		if _, err := common.AddressToPublicKey(keyJSON.Address); err != nil {
			logging.Logger.WithFields(logrus.Fields{
				"address": keyJSON.Address,
				"err":     err,
			}).Error("Failed to parse the address")
			continue
		}
		ks.entries[keyJSON.Address] = content
	}
}

func writeKeyFile(file string, content []byte) error {
	const dirPerm = 0700
	if err := os.MkdirAll(filepath.Dir(file), dirPerm); err != nil {
		return err
	}
	// Atomic write: create a temporary hidden file first
	// then move it into place. TempFile assigns mode 0600.
	f, err := ioutil.TempFile(filepath.Dir(file), "."+filepath.Base(file)+".tmp")
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	f.Close()
	return os.Rename(f.Name(), file)
}

func keyFileName(keyAddr string) string {
	ts := time.Now().UTC()
	return fmt.Sprintf("UTC--%s--%s", toISO8601(ts), keyAddr)
}

func toISO8601(t time.Time) string {
	var tz string
	name, offset := t.Zone()
	if name == "UTC" {
		tz = "Z"
	} else {
		tz = fmt.Sprintf("%03d00", offset/3600)
	}
	return fmt.Sprintf("%04d-%02d-%02dT%02d-%02d-%02d.%09d%s", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), tz)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

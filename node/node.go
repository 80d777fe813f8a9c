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

package node

import (
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/ambrchain/ambr/accounts"
	"github.com/ambrchain/ambr/config"
	"github.com/ambrchain/ambr/core"
	"github.com/ambrchain/ambr/log"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

var ErrDataDirLocked = errors.New("node: failed to acquire node file lock")

// Node owns a data dir: the file lock, the keystore and the ledger core.
type Node struct {
	name           string
	config         *config.Config
	core           *core.Core
	accountManager *accounts.AccountManager

	lock     sync.RWMutex
	filelock *flock.Flock
	stop     chan struct{}
	started  bool
}

// NewNode locks conf.DataDir and opens the ledger in it.
func NewNode(conf *config.Config) (*Node, error) {
	log.Info("Create new node")
	if conf.DataDir != "" {
		absdatadir, err := filepath.Abs(conf.DataDir)
		if err != nil {
			return nil, errors.Wrap(err, "node: config path")
		}
		conf.DataDir = absdatadir
	}
	if err := os.MkdirAll(conf.DataDir, 0755); err != nil {
		return nil, err
	}

	node := &Node{
		name:     conf.Name,
		config:   conf,
		filelock: flock.New(filepath.Join(conf.DataDir, "LOCK")),
		stop:     make(chan struct{}),
	}
	// leveldb has its own lock, but the keystore does not
	if err := node.lockDataDir(); err != nil {
		return nil, err
	}

	var err error
	if node.accountManager, err = accounts.NewAccountManager(conf); err != nil {
		node.unlockDataDir()
		return nil, err
	}
	if node.core, err = core.NewCore(node, conf); err != nil {
		node.unlockDataDir()
		return nil, errors.Wrap(err, "node: core")
	}
	return node, nil
}

func (n *Node) Start() error {
	n.lock.Lock()
	defer n.lock.Unlock()
	log.Info("Node Start...")

	if err := n.core.Start(); err != nil {
		return err
	}
	n.started = true
	log.Info("Node Started", "datadir", n.config.DataDir)
	return nil
}

// Stop shuts the core down, closes the ledger and releases the data dir.
func (n *Node) Stop() error {
	n.lock.Lock()
	defer n.lock.Unlock()
	if n.filelock == nil {
		return nil
	}
	log.Info("Node Stop...")

	if err := n.core.Close(); err != nil {
		log.Error("node: core close", "err", err)
	}
	if err := n.unlockDataDir(); err != nil {
		log.Error("node: unlockDataDir()", "err", err)
		return err
	}
	n.started = false
	close(n.stop)
	return nil
}

func (n *Node) WaitForShutdown() {
	log.Info("Node Wait for shutdown...")
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		select {
		case <-sigc:
		case <-n.stop:
			return
		}

		log.Info("Got interrupt, shutting down...")
		if err := n.Stop(); err != nil {
			log.Error("node: Stop()", "err", err)
		}
	}()

	<-n.stop
}

func (n *Node) lockDataDir() error {
	locked, err := n.filelock.TryLock()
	if err != nil {
		return err
	}
	if !locked {
		return errors.Wrapf(ErrDataDirLocked, "%s", n.config.DataDir)
	}
	return nil
}

func (n *Node) unlockDataDir() error {
	if n.filelock != nil {
		if err := n.filelock.Unlock(); err != nil {
			return err
		}
		n.filelock = nil
	}
	return nil
}

func (n *Node) NodeName() string {
	return n.name
}

func (n *Node) Config() *config.Config {
	return n.config
}

func (n *Node) AccountManager() *accounts.AccountManager {
	return n.accountManager
}

func (n *Node) Core() *core.Core {
	return n.core
}

func (n *Node) StoreManager() *core.StoreManager {
	return n.core.StoreManager()
}

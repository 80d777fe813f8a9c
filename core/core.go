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

package core

import (
	"sync"
	"time"

	"github.com/ambrchain/ambr/accounts"
	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/config"
	"github.com/ambrchain/ambr/core/store"
	"github.com/ambrchain/ambr/core/types"
	"github.com/ambrchain/ambr/log"
	"github.com/ambrchain/ambr/persistent"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
)

// validatorChanSize is the size of the channel listening to new validator
// units; the loop publishing into the feed also drains it.
const validatorChanSize = 16

// INode is what Core needs from its node.
type INode interface {
	Config() *config.Config
	AccountManager() *accounts.AccountManager
}

// Core runs a StoreManager inside a node: it owns the chain database,
// drives the unit buffer and, with a validator account configured,
// proposes and votes on its own.
type Core struct {
	node    INode
	config  *config.Config
	storage persistent.Storage
	sm      *StoreManager

	validator   *common.PrivateKey
	validatorCh chan *store.ValidatorUnitStore
	sub         event.Subscription

	lock    sync.Mutex
	running bool
	quitCh  chan struct{}
	wg      sync.WaitGroup
}

func NewCore(node INode, conf *config.Config) (*Core, error) {
	log.Info("Create new core")
	storage, err := persistent.NewLevelStorage(conf.ChainDir())
	if err != nil {
		return nil, err
	}
	c, err := NewCoreWithStorage(node, conf, storage)
	if err != nil {
		storage.Close()
		return nil, err
	}
	return c, nil
}

func NewCoreWithStorage(node INode, conf *config.Config, storage persistent.Storage) (*Core, error) {
	params, err := NewParams(conf.Chain)
	if err != nil {
		return nil, err
	}
	cacheSize := 0
	if conf.Node != nil {
		cacheSize = conf.Node.CacheSize
	}
	sm, err := NewStoreManager(storage, params, cacheSize)
	if err != nil {
		return nil, err
	}
	c := &Core{
		node:        node,
		config:      conf,
		storage:     storage,
		sm:          sm,
		validatorCh: make(chan *store.ValidatorUnitStore, validatorChanSize),
	}
	if conf.Node != nil && conf.Node.ValidatorAccount != "" {
		if err := c.loadValidatorKey(conf.Node.ValidatorAccount, conf.Node.ValidatorPassword); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Core) loadValidatorKey(address, password string) error {
	if c.node == nil || c.node.AccountManager() == nil {
		return errors.New("validator account needs an account manager")
	}
	pk, err := common.AddressToPublicKey(address)
	if err != nil {
		return err
	}
	key, err := c.node.AccountManager().Key(pk, []byte(password))
	if err != nil {
		return errors.Wrap(err, "validator account")
	}
	c.validator = &key
	log.Info("validator account loaded", "address", pk)
	return nil
}

// SetValidatorKey enables the proposer and voter duties for key. It must
// be called before Start.
func (c *Core) SetValidatorKey(key common.PrivateKey) {
	c.validator = &key
}

func (c *Core) StoreManager() *StoreManager {
	return c.sm
}

func (c *Core) Start() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.running {
		return errors.New("core already started")
	}
	log.Info("Core Start...")

	if c.config.Node == nil || c.config.Node.BufferConsumer {
		if err := c.sm.Start(); err != nil {
			return err
		}
	}
	c.quitCh = make(chan struct{})
	if c.validator != nil {
		c.sub = c.sm.SubscribeValidatorUnit(c.validatorCh)
		c.wg.Add(1)
		go c.loop()
	}
	c.running = true
	return nil
}

func (c *Core) Stop() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.running {
		return nil
	}
	log.Info("Core Stop...")

	if c.sub != nil {
		c.sub.Unsubscribe()
		c.sub = nil
	}
	close(c.quitCh)
	c.wg.Wait()
	c.sm.Stop()
	c.running = false
	return nil
}

// Close stops the core and closes the chain database.
func (c *Core) Close() error {
	if err := c.Stop(); err != nil {
		return err
	}
	return c.sm.Close()
}

func (c *Core) loop() {
	defer c.wg.Done()
	log.Info("Core validator loop...")

	interval := time.Duration(c.sm.Params().ValidatorUnitInterval) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.quitCh:
			log.Info("Core validator loop end.")
			return
		case <-ticker.C:
			c.propose()
		case s := <-c.validatorCh:
			c.vote(s.Hash())
		}
	}
}

func (c *Core) isActive() bool {
	pk := c.validator.PublicKey()
	active, err := c.sm.GetActiveValidators()
	if err != nil {
		log.Error("active validators", "err", err)
		return false
	}
	for _, item := range active {
		if item.PublicKey == pk {
			return true
		}
	}
	return false
}

// propose publishes a validator unit when nothing is open and some unit
// other than a proposal or a vote waits for finality.
func (c *Core) propose() {
	if !c.isActive() {
		return
	}
	if open, _ := c.sm.GetVotes(); !open.IsZero() {
		return
	}
	if ok, err := c.sm.hasPendingPayload(); err != nil || !ok {
		return
	}
	u, err := c.sm.PublishValidator(*c.validator)
	if err != nil {
		log.Debug("propose failed", "err", err)
		return
	}
	log.Info("proposed", "hash", types.Hash(u), "units", len(u.CheckList))
}

// vote accepts the open proposal once.
func (c *Core) vote(hash common.UnitHash) {
	if !c.isActive() {
		return
	}
	open, votes := c.sm.GetVotes()
	if open != hash {
		return
	}
	pk := c.validator.PublicKey()
	for _, v := range votes {
		if v.PublicKey == pk {
			return
		}
	}
	if _, err := c.sm.PublishVote(*c.validator, true); err != nil {
		log.Debug("vote failed", "proposal", hash, "err", err)
	}
}

// hasPendingPayload reports whether a pending unit other than a validator
// or vote unit exists.
func (sm *StoreManager) hasPendingPayload() (bool, error) {
	found := false
	err := sm.view(func(tx *txn) error {
		tips, err := tx.pendingTips()
		if err != nil {
			return err
		}
		for _, tip := range tips {
			segment, err := tx.pendingSegment(tip)
			if err != nil {
				return err
			}
			for _, s := range segment {
				switch s.Unit().Type() {
				case types.UnitTypeValidator, types.UnitTypeVote:
				default:
					found = true
					return nil
				}
			}
		}
		return nil
	})
	return found, err
}

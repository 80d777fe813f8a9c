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

	"github.com/ambrchain/ambr/core/types"
	"github.com/ambrchain/ambr/log"
	"github.com/pkg/errors"
)

type bufferItem struct {
	unit types.Unit
	ctx  interface{}
}

// unitBuffer is a FIFO of units waiting to be added. Its lock is never held
// together with the StoreManager lock.
type unitBuffer struct {
	lock   sync.Mutex
	items  []bufferItem
	signal chan struct{}
}

func newUnitBuffer() *unitBuffer {
	return &unitBuffer{signal: make(chan struct{}, 1)}
}

func (b *unitBuffer) push(item bufferItem) {
	b.lock.Lock()
	b.items = append(b.items, item)
	b.lock.Unlock()
	select {
	case b.signal <- struct{}{}:
	default:
	}
}

func (b *unitBuffer) pop() (bufferItem, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if len(b.items) == 0 {
		return bufferItem{}, false
	}
	item := b.items[0]
	b.items[0] = bufferItem{}
	b.items = b.items[1:]
	return item, true
}

func (b *unitBuffer) len() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.items)
}

// AddUnitToBuffer queues u for the consumer started by Start. ctx is handed
// back in the BufferResult and never interpreted.
func (sm *StoreManager) AddUnitToBuffer(u types.Unit, ctx interface{}) {
	sm.metrics.bufferIn.Mark(1)
	sm.buffer.push(bufferItem{unit: u, ctx: ctx})
}

func (sm *StoreManager) BufferLen() int {
	return sm.buffer.len()
}

// Start runs the buffer consumer.
func (sm *StoreManager) Start() error {
	sm.runLock.Lock()
	defer sm.runLock.Unlock()
	if sm.running {
		return errors.New("store manager already started")
	}
	log.Info("StoreManager Start...")
	sm.running = true
	sm.quitCh = make(chan struct{})
	sm.wg.Add(1)
	go sm.loop()
	return nil
}

// Stop ends the consumer and waits for the unit in progress. Units still
// queued stay in the buffer.
func (sm *StoreManager) Stop() {
	sm.runLock.Lock()
	defer sm.runLock.Unlock()
	if !sm.running {
		return
	}
	log.Info("StoreManager Stop...")
	close(sm.quitCh)
	sm.wg.Wait()
	sm.running = false
}

func (sm *StoreManager) loop() {
	defer sm.wg.Done()
	log.Info("StoreManager buffer loop...")

	for {
		select {
		case <-sm.quitCh:
			log.Info("StoreManager buffer loop end.")
			return
		case <-sm.buffer.signal:
			sm.drainBuffer()
		}
	}
}

// drainBuffer applies queued units one at a time until the queue is empty
// or Stop was called.
func (sm *StoreManager) drainBuffer() {
	for {
		select {
		case <-sm.quitCh:
			return
		default:
		}
		item, ok := sm.buffer.pop()
		if !ok {
			return
		}
		sm.processBufferItem(item.unit, item.ctx)
	}
}

// processBufferItem adds one unit and reports the outcome to buffer
// subscribers.
func (sm *StoreManager) processBufferItem(u types.Unit, ctx interface{}) {
	err := sm.AddUnit(u)
	if err != nil {
		sm.metrics.bufferFail.Mark(1)
	} else {
		sm.metrics.bufferOK.Mark(1)
	}
	sm.events.emitBuffer(BufferResult{Unit: u, Context: ctx, OK: err == nil, Err: err})
}

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
	"github.com/ambrchain/ambr/core/store"
	"github.com/ambrchain/ambr/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// BufferResult is delivered once for every unit taken from the buffer.
// Context is the value given to AddUnitToBuffer, untouched.
type BufferResult struct {
	Unit    types.Unit
	Context interface{}
	OK      bool
	Err     error
}

// RemovedEvent carries one unit deleted by RemoveUnit, cascade included.
type RemovedEvent struct {
	Store store.UnitStore
}

// unitFeeds fan notifications out once the StoreManager lock is released.
// A send blocks until every subscribed channel has taken the value, so
// subscribers keep reading until they unsubscribe.
type unitFeeds struct {
	sendFeed      event.Feed
	receiveFeed   event.Feed
	enterFeed     event.Feed
	leaveFeed     event.Feed
	validatorFeed event.Feed
	voteFeed      event.Feed

	finalizedFeed event.Feed
	removedFeed   event.Feed
	bufferFeed    event.Feed

	scope event.SubscriptionScope
}

func newUnitFeeds() *unitFeeds {
	return &unitFeeds{}
}

func (f *unitFeeds) unitFeed(t types.UnitType) *event.Feed {
	switch t {
	case types.UnitTypeSend:
		return &f.sendFeed
	case types.UnitTypeReceive:
		return &f.receiveFeed
	case types.UnitTypeEnterValidatorSet:
		return &f.enterFeed
	case types.UnitTypeLeaveValidatorSet:
		return &f.leaveFeed
	case types.UnitTypeValidator:
		return &f.validatorFeed
	case types.UnitTypeVote:
		return &f.voteFeed
	}
	return nil
}

// emitUnit sends s as its concrete store type.
func (f *unitFeeds) emitUnit(s store.UnitStore) {
	if feed := f.unitFeed(s.Unit().Type()); feed != nil {
		feed.Send(s)
	}
}

func (f *unitFeeds) emitFinalized(ev FinalizedEvent) {
	f.finalizedFeed.Send(ev)
}

func (f *unitFeeds) emitRemoved(s store.UnitStore) {
	f.removedFeed.Send(RemovedEvent{Store: s})
}

func (f *unitFeeds) emitBuffer(res BufferResult) {
	f.bufferFeed.Send(res)
}

func (f *unitFeeds) close() {
	f.scope.Close()
}

// SubscribeSendUnit delivers every newly accepted send unit.
func (sm *StoreManager) SubscribeSendUnit(ch chan<- *store.SendUnitStore) event.Subscription {
	return sm.events.scope.Track(sm.events.sendFeed.Subscribe(ch))
}

func (sm *StoreManager) SubscribeReceiveUnit(ch chan<- *store.ReceiveUnitStore) event.Subscription {
	return sm.events.scope.Track(sm.events.receiveFeed.Subscribe(ch))
}

func (sm *StoreManager) SubscribeEnterValidatorSetUnit(ch chan<- *store.EnterValidatorSetUnitStore) event.Subscription {
	return sm.events.scope.Track(sm.events.enterFeed.Subscribe(ch))
}

func (sm *StoreManager) SubscribeLeaveValidatorSetUnit(ch chan<- *store.LeaveValidatorSetUnitStore) event.Subscription {
	return sm.events.scope.Track(sm.events.leaveFeed.Subscribe(ch))
}

func (sm *StoreManager) SubscribeValidatorUnit(ch chan<- *store.ValidatorUnitStore) event.Subscription {
	return sm.events.scope.Track(sm.events.validatorFeed.Subscribe(ch))
}

func (sm *StoreManager) SubscribeVoteUnit(ch chan<- *store.VoteUnitStore) event.Subscription {
	return sm.events.scope.Track(sm.events.voteFeed.Subscribe(ch))
}

// SubscribeFinalized delivers every proposal that passed its vote.
func (sm *StoreManager) SubscribeFinalized(ch chan<- FinalizedEvent) event.Subscription {
	return sm.events.scope.Track(sm.events.finalizedFeed.Subscribe(ch))
}

// SubscribeRemoved delivers every unit deleted by RemoveUnit.
func (sm *StoreManager) SubscribeRemoved(ch chan<- RemovedEvent) event.Subscription {
	return sm.events.scope.Track(sm.events.removedFeed.Subscribe(ch))
}

// SubscribeBuffer delivers the outcome of every buffered unit.
func (sm *StoreManager) SubscribeBuffer(ch chan<- BufferResult) event.Subscription {
	return sm.events.scope.Track(sm.events.bufferFeed.Subscribe(ch))
}

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
	"encoding/binary"

	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/core/store"
	"github.com/ambrchain/ambr/core/types"
	"github.com/ambrchain/ambr/log"
	"github.com/ambrchain/ambr/persistent"
	"github.com/pkg/errors"
)

// Key prefixes of the ledger tables in persistent.Storage
const (
	KeyPrefixSendUnit           = "send_unit-"            // unitHash => SendUnitStore
	KeyPrefixReceiveUnit        = "receive_unit-"         // unitHash => ReceiveUnitStore
	KeyPrefixEnterValidatorUnit = "enter_validator_unit-" // unitHash => EnterValidatorSetUnitStore
	KeyPrefixLeaveValidatorUnit = "leave_validator_unit-" // unitHash => LeaveValidatorSetUnitStore
	KeyPrefixValidatorUnit      = "validator_unit-"       // unitHash => ValidatorUnitStore
	KeyPrefixVoteUnit           = "vote_unit-"            // unitHash => VoteUnitStore

	KeyPrefixAccount          = "account-"           // publicKey => finalized tip
	KeyPrefixNewAccount       = "new_account-"       // publicKey => pending tip
	KeyPrefixWaitForReceive   = "wait_for_receive-"  // publicKey => send hashes
	KeyPrefixValidatorBalance = "validator_balance-" // publicKey => ValidatorBalanceStore
	KeyPrefixValidatedList    = "validated_list-"    // validatorHash => finalized hashes
	KeyPrefixValidatorVote    = "validator_vote-"    // validatorHash|voteHash => nil
	KeyPrefixMeta             = "meta-"

	KeyValidatorSet  = "validator_set"
	KeyLastValidated = "last_validated"
	KeyEpoch         = "epoch"
	KeyGenesis       = "genesis"
	KeyProposal      = "proposal"
)

var unitTablePrefixes = []struct {
	t      types.UnitType
	prefix string
}{
	{types.UnitTypeSend, KeyPrefixSendUnit},
	{types.UnitTypeReceive, KeyPrefixReceiveUnit},
	{types.UnitTypeEnterValidatorSet, KeyPrefixEnterValidatorUnit},
	{types.UnitTypeLeaveValidatorSet, KeyPrefixLeaveValidatorUnit},
	{types.UnitTypeValidator, KeyPrefixValidatorUnit},
	{types.UnitTypeVote, KeyPrefixVoteUnit},
}

// chainDB is the set of named tables over one storage.
type chainDB struct {
	storage persistent.Storage
	units   map[types.UnitType]persistent.Storage

	account          persistent.Storage
	newAccount       persistent.Storage
	waitForReceive   persistent.Storage
	validatorBalance persistent.Storage
	validatedList    persistent.Storage
	validatorVote    persistent.Storage
	meta             persistent.Storage
}

func newChainDB(storage persistent.Storage) *chainDB {
	db := &chainDB{
		storage:          storage,
		units:            make(map[types.UnitType]persistent.Storage),
		account:          persistent.NewTable(storage, KeyPrefixAccount),
		newAccount:       persistent.NewTable(storage, KeyPrefixNewAccount),
		waitForReceive:   persistent.NewTable(storage, KeyPrefixWaitForReceive),
		validatorBalance: persistent.NewTable(storage, KeyPrefixValidatorBalance),
		validatedList:    persistent.NewTable(storage, KeyPrefixValidatedList),
		validatorVote:    persistent.NewTable(storage, KeyPrefixValidatorVote),
		meta:             persistent.NewTable(storage, KeyPrefixMeta),
	}
	for _, t := range unitTablePrefixes {
		db.units[t.t] = persistent.NewTable(storage, t.prefix)
	}
	return db
}

func notFound(err error) bool {
	return errors.Cause(err) == persistent.ErrKeyNotFound
}

// getStore looks a hash up in every unit table. Undecodable bytes are
// logged and reported as not found.
func (db *chainDB) getStore(hash common.UnitHash) (store.UnitStore, error) {
	for _, t := range unitTablePrefixes {
		enc, err := db.units[t.t].Get(hash[:])
		if notFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s, err := store.FromBytes(enc)
		if err != nil {
			log.Error("getStore() decode", "hash", hash, "table", t.prefix, "err", err)
			return nil, errors.Wrapf(ErrUnitNotFound, "%s undecodable: %v", hash, err)
		}
		if s.Unit().Type() != t.t {
			log.Error("getStore() unit in wrong table", "hash", hash, "table", t.prefix)
			return nil, errors.Wrapf(ErrUnitNotFound, "%s in wrong table", hash)
		}
		return s, nil
	}
	return nil, errors.Wrapf(ErrUnitNotFound, "%s", hash)
}

func (db *chainDB) putStore(s store.UnitStore) error {
	hash := s.Hash()
	return db.units[s.Unit().Type()].Put(hash[:], s.SerializeBytes())
}

func (db *chainDB) delStore(t types.UnitType, hash common.UnitHash) error {
	return db.units[t].Del(hash[:])
}

func getHash(table persistent.Getter, key []byte) (common.UnitHash, error) {
	enc, err := table.Get(key)
	if notFound(err) {
		return common.EmptyHash, nil
	}
	if err != nil {
		return common.EmptyHash, err
	}
	if len(enc) != common.HashLength {
		return common.EmptyHash, errors.Wrapf(ErrInvalidHash, "stored hash has %d bytes", len(enc))
	}
	return common.BytesToHash(enc), nil
}

func putHash(table persistent.Putter, key []byte, hash common.UnitHash) error {
	return table.Put(key, hash[:])
}

func (db *chainDB) getAccount(pk common.PublicKey) (common.UnitHash, error) {
	return getHash(db.account, pk[:])
}

func (db *chainDB) putAccount(pk common.PublicKey, hash common.UnitHash) error {
	return putHash(db.account, pk[:], hash)
}

func (db *chainDB) getNewAccount(pk common.PublicKey) (common.UnitHash, error) {
	return getHash(db.newAccount, pk[:])
}

func (db *chainDB) putNewAccount(pk common.PublicKey, hash common.UnitHash) error {
	return putHash(db.newAccount, pk[:], hash)
}

func (db *chainDB) delNewAccount(pk common.PublicKey) error {
	return db.newAccount.Del(pk[:])
}

func encodeHashes(hashes []common.UnitHash) []byte {
	out := make([]byte, 0, len(hashes)*common.HashLength)
	for _, h := range hashes {
		out = append(out, h[:]...)
	}
	return out
}

func decodeHashes(enc []byte) ([]common.UnitHash, error) {
	if len(enc)%common.HashLength != 0 {
		return nil, errors.Wrapf(ErrInvalidHash, "hash list of %d bytes", len(enc))
	}
	hashes := make([]common.UnitHash, 0, len(enc)/common.HashLength)
	for i := 0; i < len(enc); i += common.HashLength {
		hashes = append(hashes, common.BytesToHash(enc[i:i+common.HashLength]))
	}
	return hashes, nil
}

func (db *chainDB) getWaitForReceive(pk common.PublicKey) ([]common.UnitHash, error) {
	enc, err := db.waitForReceive.Get(pk[:])
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeHashes(enc)
}

func (db *chainDB) putWaitForReceive(pk common.PublicKey, hashes []common.UnitHash) error {
	if len(hashes) == 0 {
		return db.waitForReceive.Del(pk[:])
	}
	return db.waitForReceive.Put(pk[:], encodeHashes(hashes))
}

func (db *chainDB) addWaitForReceive(pk common.PublicKey, hash common.UnitHash) error {
	list, err := db.getWaitForReceive(pk)
	if err != nil {
		return err
	}
	for _, h := range list {
		if h == hash {
			return nil
		}
	}
	return db.putWaitForReceive(pk, append(list, hash))
}

func (db *chainDB) removeWaitForReceive(pk common.PublicKey, hash common.UnitHash) error {
	list, err := db.getWaitForReceive(pk)
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, h := range list {
		if h != hash {
			kept = append(kept, h)
		}
	}
	return db.putWaitForReceive(pk, kept)
}

func (db *chainDB) getValidatorSet() (*store.ValidatorSetStore, error) {
	set := store.NewValidatorSetStore()
	enc, err := db.meta.Get([]byte(KeyValidatorSet))
	if notFound(err) {
		return set, nil
	}
	if err != nil {
		return nil, err
	}
	if err := set.DeSerializeBytes(enc); err != nil {
		log.Error("getValidatorSet() decode", "err", err)
		return nil, err
	}
	return set, nil
}

func (db *chainDB) putValidatorSet(set *store.ValidatorSetStore) error {
	return db.meta.Put([]byte(KeyValidatorSet), set.SerializeBytes())
}

func (db *chainDB) getValidatorBalance(pk common.PublicKey) (common.Amount, error) {
	enc, err := db.validatorBalance.Get(pk[:])
	if notFound(err) {
		return common.Amount{}, nil
	}
	if err != nil {
		return common.Amount{}, err
	}
	s := new(store.ValidatorBalanceStore)
	if err := s.DeSerializeBytes(enc); err != nil {
		log.Error("getValidatorBalance() decode", "pk", pk, "err", err)
		return common.Amount{}, err
	}
	return s.Balance, nil
}

func (db *chainDB) putValidatorBalance(pk common.PublicKey, balance common.Amount) error {
	if balance.IsZero() {
		return db.validatorBalance.Del(pk[:])
	}
	return db.validatorBalance.Put(pk[:], store.NewValidatorBalanceStore(balance).SerializeBytes())
}

// validatorBalances lists the unclaimed income of every validator.
func (db *chainDB) validatorBalances() (map[common.PublicKey]common.Amount, error) {
	it := db.validatorBalance.NewIterator(nil)
	defer it.Release()
	out := make(map[common.PublicKey]common.Amount)
	for it.Next() {
		pk, err := common.BytesToPublicKey(it.Key())
		if err != nil {
			return nil, err
		}
		s := new(store.ValidatorBalanceStore)
		if err := s.DeSerializeBytes(it.Value()); err != nil {
			return nil, errors.Wrapf(err, "income of %s", pk)
		}
		out[pk] = s.Balance
	}
	return out, it.Error()
}

func (db *chainDB) getValidatedList(validator common.UnitHash) ([]common.UnitHash, bool, error) {
	enc, err := db.validatedList.Get(validator[:])
	if notFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	hashes, err := decodeHashes(enc)
	return hashes, err == nil, err
}

func (db *chainDB) putValidatedList(validator common.UnitHash, hashes []common.UnitHash) error {
	return db.validatedList.Put(validator[:], encodeHashes(hashes))
}

// isFinalizedProposal reports whether validator passed its vote.
func (db *chainDB) isFinalizedProposal(validator common.UnitHash) (bool, error) {
	return db.validatedList.Has(validator[:])
}

func (db *chainDB) putValidatorVote(validator, vote common.UnitHash) error {
	return db.validatorVote.Put(append(validator[:], vote[:]...), nil)
}

func (db *chainDB) delValidatorVote(validator, vote common.UnitHash) error {
	return db.validatorVote.Del(append(validator[:], vote[:]...))
}

func (db *chainDB) delValidatorVotes(validator common.UnitHash) error {
	votes, err := db.getValidatorVotes(validator)
	if err != nil {
		return err
	}
	for _, vote := range votes {
		if err := db.delValidatorVote(validator, vote); err != nil {
			return err
		}
	}
	return nil
}

// getValidatorVotes lists the vote hashes stored for a validator unit.
func (db *chainDB) getValidatorVotes(validator common.UnitHash) ([]common.UnitHash, error) {
	it := db.validatorVote.NewIterator(validator[:])
	defer it.Release()
	var votes []common.UnitHash
	for it.Next() {
		key := it.Key()
		if len(key) != 2*common.HashLength {
			continue
		}
		votes = append(votes, common.BytesToHash(key[common.HashLength:]))
	}
	return votes, it.Error()
}

func (db *chainDB) getMetaHash(key string) (common.UnitHash, error) {
	return getHash(db.meta, []byte(key))
}

func (db *chainDB) putMetaHash(key string, hash common.UnitHash) error {
	if hash.IsZero() {
		return db.meta.Del([]byte(key))
	}
	return putHash(db.meta, []byte(key), hash)
}

func (db *chainDB) getEpoch() (uint64, error) {
	enc, err := db.meta.Get([]byte(KeyEpoch))
	if notFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(enc) != 8 {
		return 0, errors.Errorf("stored epoch has %d bytes", len(enc))
	}
	return binary.LittleEndian.Uint64(enc), nil
}

func (db *chainDB) putEpoch(epoch uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, epoch)
	return db.meta.Put([]byte(KeyEpoch), buf)
}

// hashTable lists every key => hash entry of an account-keyed table.
func hashTable(table persistent.Iteratee) (map[common.PublicKey]common.UnitHash, error) {
	it := table.NewIterator(nil)
	defer it.Release()
	out := make(map[common.PublicKey]common.UnitHash)
	for it.Next() {
		pk, err := common.BytesToPublicKey(it.Key())
		if err != nil {
			return nil, err
		}
		if len(it.Value()) != common.HashLength {
			return nil, errors.Wrapf(ErrInvalidHash, "account %s", pk)
		}
		out[pk] = common.BytesToHash(it.Value())
	}
	return out, it.Error()
}

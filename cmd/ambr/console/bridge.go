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
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ambrchain/ambr/accounts"
	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/core"
	"github.com/ambrchain/ambr/core/store"
	"github.com/ambrchain/ambr/core/types"
	"github.com/ambrchain/ambr/log"
	"github.com/pkg/errors"
	"github.com/robertkrimen/otto"
)

const (
	defaultHistoryCount = 20
	defaultUnlockTime   = 300 * time.Second
)

// Backend is the local node the console drives.
type Backend interface {
	StoreManager() *core.StoreManager
	AccountManager() *accounts.AccountManager
}

// jsBridge exposes the ledger and the keystore to the javascript runtime.
type jsBridge struct {
	sm       *core.StoreManager
	am       *accounts.AccountManager
	prompter UserPrompter
	writer   io.Writer
}

func newBridge(backend Backend, prompter UserPrompter, writer io.Writer) *jsBridge {
	return &jsBridge{
		sm:       backend.StoreManager(),
		am:       backend.AccountManager(),
		prompter: prompter,
		writer:   writer,
	}
}

// output replaces console.log and console.error.
func (b *jsBridge) output(call otto.FunctionCall) otto.Value {
	output := make([]string, 0, len(call.ArgumentList))
	for _, argument := range call.ArgumentList {
		output = append(output, fmt.Sprintf("%v", argument))
	}
	fmt.Fprintln(b.writer, strings.Join(output, " "))
	return otto.UndefinedValue()
}

func (b *jsBridge) accounts(call otto.FunctionCall) otto.Value {
	pks := b.am.Accounts()
	list := make([]string, 0, len(pks))
	for _, pk := range pks {
		list = append(list, pk.Address())
	}
	return respond(call, list, nil)
}

func (b *jsBridge) newAccount(call otto.FunctionCall) otto.Value {
	var password string
	switch {
	case len(call.ArgumentList) == 0:
		var err error
		if password, err = b.prompter.PromptPassphrase("Passphrase: "); err != nil {
			return jsError(call.Otto, err)
		}
		confirm, err := b.prompter.PromptPassphrase("Repeat passphrase: ")
		if err != nil {
			return jsError(call.Otto, err)
		}
		if password != confirm {
			return jsError(call.Otto, errors.New("passphrases do not match"))
		}
	case call.Argument(0).IsString():
		password = call.Argument(0).String()
	default:
		return jsError(call.Otto, errors.New("passphrase must be a string"))
	}
	pk, err := b.am.CreateNewAccount([]byte(password))
	return respond(call, pk.Address(), err)
}

// unlockAccount(address, [passphrase], [seconds])
func (b *jsBridge) unlockAccount(call otto.FunctionCall) otto.Value {
	pk, err := argAddress(call, 0)
	if err != nil {
		return jsError(call.Otto, err)
	}
	var password string
	if arg := call.Argument(1); arg.IsUndefined() || arg.IsNull() {
		fmt.Fprintf(b.writer, "Unlock account %s\n", pk.Address())
		if password, err = b.prompter.PromptPassphrase("Passphrase: "); err != nil {
			return jsError(call.Otto, err)
		}
	} else if arg.IsString() {
		password = arg.String()
	} else {
		return jsError(call.Otto, errors.New("passphrase must be a string"))
	}
	timeout := defaultUnlockTime
	if arg := call.Argument(2); arg.IsNumber() {
		seconds, _ := arg.ToInteger()
		timeout = time.Duration(seconds) * time.Second
	}
	err = b.am.Unlock(pk, []byte(password), timeout)
	return respond(call, err == nil, err)
}

func (b *jsBridge) lockAccount(call otto.FunctionCall) otto.Value {
	pk, err := argAddress(call, 0)
	if err != nil {
		return jsError(call.Otto, err)
	}
	err = b.am.Lock(pk)
	return respond(call, err == nil, err)
}

func (b *jsBridge) getBalance(call otto.FunctionCall) otto.Value {
	pk, err := argAddress(call, 0)
	if err != nil {
		return jsError(call.Otto, err)
	}
	balance, err := b.sm.GetBalance(pk)
	return respond(call, balance, err)
}

func (b *jsBridge) getIncome(call otto.FunctionCall) otto.Value {
	pk, err := argAddress(call, 0)
	if err != nil {
		return jsError(call.Otto, err)
	}
	income, err := b.sm.GetValidatorIncome(pk)
	return respond(call, income, err)
}

func (b *jsBridge) getEpoch(call otto.FunctionCall) otto.Value {
	epoch, err := b.sm.GetEpoch()
	return respond(call, epoch, err)
}

func (b *jsBridge) getUnit(call otto.FunctionCall) otto.Value {
	hash, err := argHash(call, 0)
	if err != nil {
		return jsError(call.Otto, err)
	}
	s, err := b.sm.GetUnitStore(hash)
	if err != nil {
		return jsError(call.Otto, err)
	}
	data, err := s.SerializeJSON()
	return respond(call, json.RawMessage(data), err)
}

// getHistory(address, [count]) lists the account's units, newest first.
func (b *jsBridge) getHistory(call otto.FunctionCall) otto.Value {
	pk, err := argAddress(call, 0)
	if err != nil {
		return jsError(call.Otto, err)
	}
	count := defaultHistoryCount
	if arg := call.Argument(1); arg.IsNumber() {
		n, _ := arg.ToInteger()
		count = int(n)
	}
	history, err := b.sm.GetTradeHistory(pk, count)
	if err != nil {
		return jsError(call.Otto, err)
	}
	list, err := storesJSON(history)
	return respond(call, list, err)
}

func (b *jsBridge) getWaitForReceive(call otto.FunctionCall) otto.Value {
	pk, err := argAddress(call, 0)
	if err != nil {
		return jsError(call.Otto, err)
	}
	hashes, err := b.sm.GetWaitForReceiveList(pk)
	return respond(call, hashes, err)
}

func (b *jsBridge) getValidators(call otto.FunctionCall) otto.Value {
	active, err := b.sm.GetActiveValidators()
	return respond(call, active, err)
}

func (b *jsBridge) getVotes(call otto.FunctionCall) otto.Value {
	proposal, votes := b.sm.GetVotes()
	res := struct {
		Proposal *common.UnitHash  `json:"proposal"`
		Votes    []json.RawMessage `json:"votes"`
	}{Votes: []json.RawMessage{}}
	if !proposal.IsZero() {
		res.Proposal = &proposal
	}
	for _, v := range votes {
		data, err := types.MarshalUnitJSON(v)
		if err != nil {
			return jsError(call.Otto, err)
		}
		res.Votes = append(res.Votes, data)
	}
	return respond(call, res, nil)
}

// getValidateHistory([count]) lists finalized validator units, newest first.
func (b *jsBridge) getValidateHistory(call otto.FunctionCall) otto.Value {
	count := defaultHistoryCount
	if arg := call.Argument(0); arg.IsNumber() {
		n, _ := arg.ToInteger()
		count = int(n)
	}
	history, err := b.sm.GetValidateHistory(count)
	if err != nil {
		return jsError(call.Otto, err)
	}
	list := make([]store.UnitStore, 0, len(history))
	for _, s := range history {
		list = append(list, s)
	}
	out, err := storesJSON(list)
	return respond(call, out, err)
}

func (b *jsBridge) getNextValidatorHash(call otto.FunctionCall) otto.Value {
	hash, err := argHash(call, 0)
	if err != nil {
		return jsError(call.Otto, err)
	}
	next, err := b.sm.GetNextValidatorHash(hash)
	if err != nil {
		return jsError(call.Otto, err)
	}
	if next.IsZero() {
		return otto.NullValue()
	}
	return respond(call, next, nil)
}

func (b *jsBridge) getSendAmount(call otto.FunctionCall) otto.Value {
	hash, err := argHash(call, 0)
	if err != nil {
		return jsError(call.Otto, err)
	}
	amount, fee, err := b.sm.GetSendAmountWithTransactionFee(hash)
	return respond(call, map[string]common.Amount{"amount": amount, "fee": fee}, err)
}

func (b *jsBridge) getReceiveAmount(call otto.FunctionCall) otto.Value {
	hash, err := argHash(call, 0)
	if err != nil {
		return jsError(call.Otto, err)
	}
	amount, err := b.sm.GetReceiveAmount(hash)
	return respond(call, amount, err)
}

// getBalanceAll adds up every finalized balance, income and stake.
func (b *jsBridge) getBalanceAll(call otto.FunctionCall) otto.Value {
	total, err := b.sm.GetBalanceAllForDebug()
	return respond(call, total, err)
}

// sendTransaction(from, to, amount, [message])
func (b *jsBridge) sendTransaction(call otto.FunctionCall) otto.Value {
	key, err := b.unlockedKey(call, 0)
	if err != nil {
		return jsError(call.Otto, err)
	}
	dest, err := argAddress(call, 1)
	if err != nil {
		return jsError(call.Otto, err)
	}
	amount, err := argAmount(call, 2)
	if err != nil {
		return jsError(call.Otto, err)
	}
	var u *types.SendUnit
	if msg := call.Argument(3); msg.IsString() {
		u, err = b.sm.SendMessage(key, dest, amount, []byte(msg.String()))
	} else {
		u, err = b.sm.SendToAddress(key, dest, amount)
	}
	return unitResult(call, u, err)
}

// receive(address, sendHash)
func (b *jsBridge) receive(call otto.FunctionCall) otto.Value {
	key, err := b.unlockedKey(call, 0)
	if err != nil {
		return jsError(call.Otto, err)
	}
	from, err := argHash(call, 1)
	if err != nil {
		return jsError(call.Otto, err)
	}
	u, err := b.sm.ReceiveFromUnitHash(key, from)
	return unitResult(call, u, err)
}

func (b *jsBridge) claimIncome(call otto.FunctionCall) otto.Value {
	key, err := b.unlockedKey(call, 0)
	if err != nil {
		return jsError(call.Otto, err)
	}
	u, err := b.sm.ReceiveFromValidator(key)
	return unitResult(call, u, err)
}

// joinValidatorSet(address, stake)
func (b *jsBridge) joinValidatorSet(call otto.FunctionCall) otto.Value {
	key, err := b.unlockedKey(call, 0)
	if err != nil {
		return jsError(call.Otto, err)
	}
	stake, err := argAmount(call, 1)
	if err != nil {
		return jsError(call.Otto, err)
	}
	u, err := b.sm.JoinValidatorSet(key, stake)
	return unitResult(call, u, err)
}

func (b *jsBridge) leaveValidatorSet(call otto.FunctionCall) otto.Value {
	key, err := b.unlockedKey(call, 0)
	if err != nil {
		return jsError(call.Otto, err)
	}
	u, err := b.sm.LeaveValidatorSet(key)
	return unitResult(call, u, err)
}

func (b *jsBridge) unlockedKey(call otto.FunctionCall, i int) (common.PrivateKey, error) {
	pk, err := argAddress(call, i)
	if err != nil {
		return common.PrivateKey{}, err
	}
	return b.am.UnlockedKey(pk)
}

func argAddress(call otto.FunctionCall, i int) (common.PublicKey, error) {
	arg := call.Argument(i)
	if !arg.IsString() {
		return common.EmptyPublicKey, errors.Errorf("argument %d: address must be a string", i)
	}
	return common.AddressToPublicKey(arg.String())
}

func argHash(call otto.FunctionCall, i int) (common.UnitHash, error) {
	arg := call.Argument(i)
	if !arg.IsString() {
		return common.EmptyHash, errors.Errorf("argument %d: hash must be a string", i)
	}
	return common.HexToHash(arg.String())
}

// argAmount accepts a decimal string or an integral number.
func argAmount(call otto.FunctionCall, i int) (common.Amount, error) {
	arg := call.Argument(i)
	if arg.IsNumber() {
		n, err := arg.ToInteger()
		if err != nil || n < 0 {
			return common.Amount{}, errors.Errorf("argument %d: invalid amount", i)
		}
		return common.NewAmount(uint64(n)), nil
	}
	if !arg.IsString() {
		return common.Amount{}, errors.Errorf("argument %d: amount must be a string or number", i)
	}
	return common.ParseAmount(arg.String())
}

func storesJSON(list []store.UnitStore) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(list))
	for _, s := range list {
		data, err := s.SerializeJSON()
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

func unitResult(call otto.FunctionCall, u types.Unit, err error) otto.Value {
	if err != nil {
		return jsError(call.Otto, err)
	}
	data, err := types.MarshalUnitJSON(u)
	return respond(call, json.RawMessage(data), err)
}

// respond hands v to the runtime as a parsed JSON value, or err as an
// error object.
func respond(call otto.FunctionCall, v interface{}, err error) otto.Value {
	if err != nil {
		return jsError(call.Otto, err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return jsError(call.Otto, err)
	}
	JSON, _ := call.Otto.Object("JSON")
	res, err := JSON.Call("parse", string(data))
	if err != nil {
		return jsError(call.Otto, err)
	}
	return res
}

func jsError(vm *otto.Otto, err error) otto.Value {
	log.Debug("console call failed", "err", err)
	resp, _ := vm.Object(`({})`)
	resp.Set("error", map[string]interface{}{"code": -1, "message": err.Error()})
	return resp.Value()
}

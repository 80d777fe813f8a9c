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
	"fmt"

	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/config"
	"github.com/ambrchain/ambr/core/store"
	"github.com/ambrchain/ambr/core/types"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var (
	messageFlag = cli.StringFlag{
		Name:  "message",
		Usage: "attach a text message to the send",
	}
	receiveAllFlag = cli.BoolFlag{
		Name:  "all",
		Usage: "receive every send waiting for the account",
	}
	countFlag = cli.IntFlag{
		Name:  "count",
		Usage: "number of units to list",
		Value: 20,
	}

	sendCommand = cli.Command{
		Action:    config.MergeFlags(send),
		Name:      "send",
		Usage:     "Send an amount to another account",
		ArgsUsage: "<from> <to> <amount>",
		Flags:     []cli.Flag{messageFlag, passwordFlag},
		Category:  "LEDGER COMMANDS",
	}
	receiveCommand = cli.Command{
		Action:    config.MergeFlags(receive),
		Name:      "receive",
		Usage:     "Receive a send into an account",
		ArgsUsage: "<account> [send hash]",
		Flags:     []cli.Flag{receiveAllFlag, passwordFlag},
		Category:  "LEDGER COMMANDS",
	}
	balanceCommand = cli.Command{
		Action:    config.MergeFlags(balance),
		Name:      "balance",
		Usage:     "Print the spendable balance and the sends waiting for an account",
		ArgsUsage: "<account>",
		Category:  "LEDGER COMMANDS",
	}
	historyCommand = cli.Command{
		Action:    config.MergeFlags(history),
		Name:      "history",
		Usage:     "List the units of an account, newest first",
		ArgsUsage: "<account>",
		Flags:     []cli.Flag{countFlag},
		Category:  "LEDGER COMMANDS",
	}
)

func send(ctx *cli.Context) error {
	if len(ctx.Args()) < 3 {
		return errors.New("usage: send <from> <to> <amount>")
	}
	dest := parseAddress(ctx.Args().Get(1))
	amount, err := common.ParseAmount(ctx.Args().Get(2))
	if err != nil {
		return err
	}
	node := makeNode(ctx)
	defer node.Stop()
	key := accountKey(ctx, node, ctx.Args().Get(0))

	var u *types.SendUnit
	if msg := ctx.String(messageFlag.Name); msg != "" {
		u, err = node.StoreManager().SendMessage(key, dest, amount, []byte(msg))
	} else {
		u, err = node.StoreManager().SendToAddress(key, dest, amount)
	}
	if err != nil {
		return err
	}
	return printUnit(u)
}

func receive(ctx *cli.Context) error {
	if len(ctx.Args()) == 0 {
		return errors.New("usage: receive <account> [send hash]")
	}
	node := makeNode(ctx)
	defer node.Stop()
	sm := node.StoreManager()
	key := accountKey(ctx, node, ctx.Args().First())

	var hashes []common.UnitHash
	switch {
	case ctx.Bool(receiveAllFlag.Name):
		list, err := sm.GetWaitForReceiveList(key.PublicKey())
		if err != nil {
			return err
		}
		hashes = list
	case len(ctx.Args()) > 1:
		hash, err := common.HexToHash(ctx.Args().Get(1))
		if err != nil {
			return err
		}
		hashes = []common.UnitHash{hash}
	default:
		return errors.New("give a send hash or --all")
	}
	if len(hashes) == 0 {
		fmt.Println("nothing to receive")
	}
	for _, hash := range hashes {
		u, err := sm.ReceiveFromUnitHash(key, hash)
		if err != nil {
			return errors.Wrapf(err, "receive %s", hash.Hex())
		}
		if err := printUnit(u); err != nil {
			return err
		}
	}
	return nil
}

func balance(ctx *cli.Context) error {
	if len(ctx.Args()) == 0 {
		return errors.New("usage: balance <account>")
	}
	pk := parseAddress(ctx.Args().First())
	node := makeNode(ctx)
	defer node.Stop()
	sm := node.StoreManager()

	amount, err := sm.GetBalance(pk)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", heading("balance:"), good(amount.String()))
	if income, err := sm.GetValidatorIncome(pk); err == nil && !income.IsZero() {
		fmt.Printf("%s %s\n", heading("validator income:"), income)
	}
	wait, err := sm.GetWaitForReceiveList(pk)
	if err != nil {
		return err
	}
	for _, hash := range wait {
		s, err := sm.GetUnitStore(hash)
		if err != nil {
			return err
		}
		u := s.Unit().(*types.SendUnit)
		fmt.Printf("  waiting %s %s from %s %s\n", highlight(hash.Hex()), u.Amount, u.PublicKey.Address(), stateOf(s))
	}
	return nil
}

func history(ctx *cli.Context) error {
	if len(ctx.Args()) == 0 {
		return errors.New("usage: history <account>")
	}
	pk := parseAddress(ctx.Args().First())
	node := makeNode(ctx)
	defer node.Stop()

	list, err := node.StoreManager().GetTradeHistory(pk, ctx.Int(countFlag.Name))
	if err != nil {
		return err
	}
	for _, s := range list {
		fmt.Println(describe(s))
	}
	return nil
}

// describe is the one line history entry of s.
func describe(s store.UnitStore) string {
	h := s.Unit().Header()
	line := fmt.Sprintf("%5d %s %-19s balance %s", h.Nonce, highlight(s.Hash().Hex()[:16]), s.Unit().Type(), h.Balance)
	switch u := s.Unit().(type) {
	case *types.SendUnit:
		line += fmt.Sprintf(" sent %s to %s", u.Amount, u.Dest.Address())
	case *types.ReceiveUnit:
		line += fmt.Sprintf(" received %s", u.Amount)
	case *types.EnterValidatorSetUnit:
		line += fmt.Sprintf(" staked %s", u.Stake)
	}
	return line + " " + stateOf(s)
}

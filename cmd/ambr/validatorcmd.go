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
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var validatorCommand = cli.Command{
	Name:     "validator",
	Usage:    "Manage validator membership and income",
	Category: "VALIDATOR COMMANDS",
	Subcommands: []cli.Command{
		{
			Name:      "join",
			Usage:     "Stake an amount to enter the validator set",
			ArgsUsage: "<account> <stake>",
			Flags:     []cli.Flag{passwordFlag},
			Action:    config.MergeFlags(validatorJoin),
		},
		{
			Name:      "leave",
			Usage:     "Leave the validator set and get the stake back",
			ArgsUsage: "<account>",
			Flags:     []cli.Flag{passwordFlag},
			Action:    config.MergeFlags(validatorLeave),
		},
		{
			Name:      "claim",
			Usage:     "Receive the fees earned as a validator",
			ArgsUsage: "<account>",
			Flags:     []cli.Flag{passwordFlag},
			Action:    config.MergeFlags(validatorClaim),
		},
		{
			Name:   "list",
			Usage:  "List the active validators",
			Action: config.MergeFlags(validatorList),
		},
		{
			Name:   "history",
			Usage:  "Show the last finalized validator units",
			Flags:  []cli.Flag{countFlag},
			Action: config.MergeFlags(validatorHistory),
		},
	},
}

func validatorJoin(ctx *cli.Context) error {
	if len(ctx.Args()) < 2 {
		return errors.New("usage: validator join <account> <stake>")
	}
	stake, err := common.ParseAmount(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	node := makeNode(ctx)
	defer node.Stop()
	key := accountKey(ctx, node, ctx.Args().First())

	u, err := node.StoreManager().JoinValidatorSet(key, stake)
	if err != nil {
		return err
	}
	return printUnit(u)
}

func validatorLeave(ctx *cli.Context) error {
	if len(ctx.Args()) == 0 {
		return errors.New("usage: validator leave <account>")
	}
	node := makeNode(ctx)
	defer node.Stop()
	key := accountKey(ctx, node, ctx.Args().First())

	u, err := node.StoreManager().LeaveValidatorSet(key)
	if err != nil {
		return err
	}
	return printUnit(u)
}

func validatorClaim(ctx *cli.Context) error {
	if len(ctx.Args()) == 0 {
		return errors.New("usage: validator claim <account>")
	}
	node := makeNode(ctx)
	defer node.Stop()
	key := accountKey(ctx, node, ctx.Args().First())

	u, err := node.StoreManager().ReceiveFromValidator(key)
	if err != nil {
		return err
	}
	return printUnit(u)
}

func validatorList(ctx *cli.Context) error {
	node := makeNode(ctx)
	defer node.Stop()
	sm := node.StoreManager()

	active, err := sm.GetActiveValidators()
	if err != nil {
		return err
	}
	epoch, err := sm.GetEpoch()
	if err != nil {
		return err
	}
	fmt.Printf("%s %d, %d active\n", heading("epoch"), epoch, len(active))
	for _, item := range active {
		fmt.Printf("  %s stake %s\n", item.PublicKey.Address(), item.Balance)
	}
	return nil
}

func validatorHistory(ctx *cli.Context) error {
	node := makeNode(ctx)
	defer node.Stop()
	sm := node.StoreManager()

	history, err := sm.GetValidateHistory(ctx.Int(countFlag.Name))
	if err != nil {
		return err
	}
	fmt.Printf("%s %d, slot %d\n", heading("finalized validator units"), len(history), sm.GetNonceByNowTime())
	for _, s := range history {
		u := s.ValidatorUnit()
		fmt.Printf("  %s by %s at %d, %d checked\n", s.Hash(), u.PublicKey.Address(), u.Time, len(u.CheckList))
	}
	return nil
}

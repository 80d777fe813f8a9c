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
	"encoding/json"
	"fmt"
	"io/ioutil"
	"sort"

	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/config"
	"github.com/ambrchain/ambr/core"
	"github.com/ambrchain/ambr/core/types"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var (
	genesisFileFlag = cli.StringFlag{
		Name:  "genesis",
		Usage: "genesis json file to initialize the ledger with",
	}
	genesisAccountFlag = cli.StringFlag{
		Name:  "account",
		Usage: "keystore account that receives the genesis supply",
	}
	genesisOutFlag = cli.StringFlag{
		Name:  "out",
		Usage: "write the generated genesis to this file",
	}

	initCommand = cli.Command{
		Action:   config.MergeFlags(initGenesis),
		Name:     "init",
		Usage:    "Initialize the ledger with a genesis",
		Flags:    []cli.Flag{genesisFileFlag, genesisAccountFlag, genesisOutFlag, passwordFlag},
		Category: "BLOCKCHAIN COMMANDS",
		Description: `
The genesis is either read from --genesis, or built and signed with the
keystore --account. Every node of a network must start from the same one.`,
	}
	dumpCommand = cli.Command{
		Action:   config.MergeFlags(dump),
		Name:     "dump",
		Usage:    "Print accounts, validators and the open proposal",
		Category: "BLOCKCHAIN COMMANDS",
	}
	unitCommand = cli.Command{
		Action:    config.MergeFlags(showUnit),
		Name:      "unit",
		Usage:     "Print a unit by hash",
		ArgsUsage: "<hash>",
		Category:  "BLOCKCHAIN COMMANDS",
	}
)

func initGenesis(ctx *cli.Context) error {
	node := makeNode(ctx)
	defer node.Stop()
	sm := node.StoreManager()

	var (
		g   *core.Genesis
		err error
	)
	switch {
	case ctx.String(genesisFileFlag.Name) != "":
		if g, err = core.LoadGenesis(ctx.String(genesisFileFlag.Name)); err != nil {
			return err
		}
	case ctx.String(genesisAccountFlag.Name) != "":
		key := accountKey(ctx, node, ctx.String(genesisAccountFlag.Name))
		if g, err = core.NewGenesis(key, sm.Params()); err != nil {
			return err
		}
		if out := ctx.String(genesisOutFlag.Name); out != "" {
			data, err := json.MarshalIndent(g, "", "  ")
			if err != nil {
				return err
			}
			if err := ioutil.WriteFile(out, data, 0644); err != nil {
				return err
			}
		}
	default:
		return errors.New("need --genesis or --account")
	}

	if err := sm.InitGenesis(g); err != nil {
		return err
	}
	fmt.Printf("Genesis %s written, %s holds %s\n",
		highlight(types.Hash(g.Receive).Hex()), g.Receive.PublicKey.Address(), g.Receive.Amount)
	return nil
}

func dump(ctx *cli.Context) error {
	node := makeNode(ctx)
	defer node.Stop()
	sm := node.StoreManager()

	genesis, err := sm.GetGenesisHash()
	if err != nil {
		return err
	}
	epoch, err := sm.GetEpoch()
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n%s %d\n", heading("genesis:"), genesis.Hex(), heading("epoch:"), epoch)

	accounts, err := sm.GetAccounts()
	if err != nil {
		return err
	}
	pks := make([]common.PublicKey, 0, len(accounts))
	for pk := range accounts {
		pks = append(pks, pk)
	}
	sort.Slice(pks, func(i, j int) bool { return pks[i].Address() < pks[j].Address() })
	fmt.Println(heading("accounts:"))
	for _, pk := range pks {
		balance, err := sm.GetBalance(pk)
		if err != nil {
			return err
		}
		fmt.Printf("  %s %s\n", pk.Address(), balance)
	}

	set, err := sm.GetValidatorSet()
	if err != nil {
		return err
	}
	fmt.Println(heading("validators:"))
	for _, item := range set.GetValidatorList() {
		state := pending("inactive")
		if item.IsActive(epoch) {
			state = good("active")
		}
		income, err := sm.GetValidatorIncome(item.PublicKey)
		if err != nil {
			return err
		}
		fmt.Printf("  %s stake %s income %s enter %d leave %d %s\n",
			item.PublicKey.Address(), item.Balance, income, item.EnterNonce, item.LeaveNonce, state)
	}

	proposal, votes := sm.GetVotes()
	if !proposal.IsZero() {
		fmt.Printf("%s %s, %d votes\n", heading("open proposal:"), proposal.Hex(), len(votes))
	}
	return nil
}

func showUnit(ctx *cli.Context) error {
	if len(ctx.Args()) == 0 {
		return errors.New("no unit hash given")
	}
	hash, err := common.HexToHash(ctx.Args().First())
	if err != nil {
		return err
	}
	node := makeNode(ctx)
	defer node.Stop()

	s, err := node.StoreManager().GetUnitStore(hash)
	if err != nil {
		return err
	}
	data, err := s.SerializeJSON()
	if err != nil {
		return err
	}
	fmt.Printf("%s unit %s\n", s.Unit().Type(), stateOf(s))
	return printIndented(data)
}

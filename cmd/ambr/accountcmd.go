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
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/ambrchain/ambr/cmd/ambr/console"
	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/config"
	"github.com/ambrchain/ambr/crypto/ed25519"
	"github.com/ambrchain/ambr/node"
	"github.com/ambrchain/ambr/utils/logging"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var (
	passwordFlag = cli.StringFlag{
		Name:  "password",
		Usage: "account passphrase, prompted for when empty",
	}

	accountCommand = cli.Command{
		Name:        "account",
		Usage:       "Manage accounts",
		Category:    "ACCOUNT COMMANDS",
		Description: "Manage accounts, create, list, reset password or import",

		Subcommands: []cli.Command{
			{
				Name:      "new",
				Usage:     "Create new account",
				ArgsUsage: "[passphrase]",
				Action:    config.MergeFlags(accountCreate),
			},
			{
				Name:   "list",
				Usage:  "List all existing accounts",
				Action: config.MergeFlags(accountList),
			},
			{
				Name:      "resetPassword",
				Usage:     "Reset account password",
				ArgsUsage: "<address>",
				Action:    config.MergeFlags(accountResetPassword),
			},
			{
				Name:      "import",
				Usage:     "Import account with private key",
				ArgsUsage: "<keyfile>",
				Description: `
The key file holds the hex encoded ed25519 private key, or its 32 byte seed.`,
				Action: config.MergeFlags(accountImport),
			},
		},
	}
)

func accountCreate(ctx *cli.Context) error {
	node := makeNode(ctx)
	defer node.Stop()

	passphrase := ctx.Args().First()
	if len(passphrase) == 0 {
		passphrase = getPassPhrase("Please input passphrase", true)
	}

	pk, err := node.AccountManager().CreateNewAccount([]byte(passphrase))
	if err != nil {
		return err
	}
	fmt.Printf("Account address: %s\n", highlight(pk.Address()))
	return nil
}

func accountList(ctx *cli.Context) error {
	node := makeNode(ctx)
	defer node.Stop()

	for i, pk := range node.AccountManager().Accounts() {
		fmt.Printf("Account #%d: %s\n", i, pk.Address())
	}
	return nil
}

func accountResetPassword(ctx *cli.Context) error {
	if len(ctx.Args()) == 0 {
		logging.Logger.Fatal("No accounts specified")
	}
	pk := parseAddress(ctx.Args().First())
	oldPass := getPassPhrase("Please input current passphrase", false)
	newPass := getPassPhrase("Please input new passphrase", true)

	node := makeNode(ctx)
	defer node.Stop()
	if err := node.AccountManager().ResetPassword(pk, []byte(oldPass), []byte(newPass)); err != nil {
		return errors.Wrapf(err, "reset password of %s", pk.Address())
	}
	fmt.Printf("Password reset for address: %s\n", pk.Address())
	return nil
}

func accountImport(ctx *cli.Context) error {
	if len(ctx.Args()) == 0 {
		logging.Logger.Fatal("No keyfile specified")
	}
	content, err := ioutil.ReadFile(ctx.Args().First())
	if err != nil {
		logging.Logger.Fatalf("file read failed: %s", err)
	}
	key, err := parsePrivateKey(strings.TrimSpace(string(content)))
	if err != nil {
		return err
	}
	pass := getPassPhrase("Please input passphrase for the key", true)

	node := makeNode(ctx)
	defer node.Stop()
	pk, err := node.AccountManager().Import(key, []byte(pass))
	if err != nil {
		logging.Logger.Fatalf("Key import failed: %s", err)
	}
	fmt.Printf("Import address: %s\n", highlight(pk.Address()))
	return nil
}

func parsePrivateKey(s string) (common.PrivateKey, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return common.PrivateKey{}, errors.Wrap(err, "key file")
	}
	if len(raw) == 32 {
		return ed25519.KeyFromSeed(raw)
	}
	return common.BytesToPrivateKey(raw)
}

func parseAddress(s string) common.PublicKey {
	pk, err := common.AddressToPublicKey(s)
	if err != nil {
		logging.Logger.Fatalf("address %s parse failed: %s", s, err)
	}
	return pk
}

// accountKey decrypts the key of address with --password or a prompted
// passphrase.
func accountKey(ctx *cli.Context, n *node.Node, address string) common.PrivateKey {
	pk := parseAddress(address)
	pass := ctx.String(passwordFlag.Name)
	if pass == "" {
		pass = getPassPhrase(fmt.Sprintf("Unlock account %s", pk.Address()), false)
	}
	key, err := n.AccountManager().Key(pk, []byte(pass))
	if err != nil {
		logging.Logger.Fatalf("unlock %s: %s", pk.Address(), err)
	}
	return key
}

func makeNode(ctx *cli.Context) *node.Node {
	conf, err := config.GetConfig(ctx)
	if err != nil {
		logging.Logger.Fatal(err)
	}
	node, err := node.NewNode(conf)
	if err != nil {
		logging.Logger.Fatal(err)
	}
	return node
}

func getPassPhrase(prompt string, confirmation bool) string {
	if prompt != "" {
		fmt.Println(prompt)
	}

	passphrase := ""
	for passphrase == "" {
		var err error
		passphrase, err = console.Stdin.PromptPassphrase("Passphrase: ")
		if err != nil {
			logging.Logger.Fatalf("Failed to read passphrase: %v", err)
		}

		if confirmation {
			confirm, err := console.Stdin.PromptPassphrase("Repeat passphrase: ")
			if err != nil {
				logging.Logger.Fatalf("Failed to read passphrase confirmation: %v", err)
			}
			if passphrase != confirm {
				fmt.Println("Passphrases do not match, try it again")
				passphrase = ""
			}
		}
	}
	return passphrase
}

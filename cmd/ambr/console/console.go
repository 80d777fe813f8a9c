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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
)

const (
	defaultPrompt = "> "
	exitCommand   = "exit"
)

// Config wires a console to a node.
type Config struct {
	Backend  Backend
	Prompter UserPrompter
	Writer   io.Writer
}

type Console struct {
	prompter UserPrompter
	promptCh chan string
	history  []string
	bridge   *jsBridge
	jsre     *JSRE
	writer   io.Writer
}

// New binds a javascript console to the node's ledger and keystore.
func New(conf Config) (*Console, error) {
	if conf.Backend == nil {
		return nil, errors.New("console: no backend")
	}
	if conf.Prompter == nil {
		conf.Prompter = Stdin
	}
	if conf.Writer == nil {
		conf.Writer = os.Stdout
	}
	c := &Console{
		prompter: conf.Prompter,
		promptCh: make(chan string),
		writer:   conf.Writer,
		jsre:     newJSRE(),
	}
	c.bridge = newBridge(conf.Backend, c.prompter, c.writer)
	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Console) init() error {
	jsconsole, err := c.jsre.Object("console")
	if err != nil {
		return err
	}
	jsconsole.Set("log", c.bridge.output)
	jsconsole.Set("error", c.bridge.output)

	methods := map[string]interface{}{
		"accounts":             c.bridge.accounts,
		"newAccount":           c.bridge.newAccount,
		"unlockAccount":        c.bridge.unlockAccount,
		"lockAccount":          c.bridge.lockAccount,
		"getBalance":           c.bridge.getBalance,
		"getIncome":            c.bridge.getIncome,
		"getEpoch":             c.bridge.getEpoch,
		"getUnit":              c.bridge.getUnit,
		"getHistory":           c.bridge.getHistory,
		"getWaitForReceive":    c.bridge.getWaitForReceive,
		"getValidators":        c.bridge.getValidators,
		"getVotes":             c.bridge.getVotes,
		"getValidateHistory":   c.bridge.getValidateHistory,
		"getNextValidatorHash": c.bridge.getNextValidatorHash,
		"getSendAmount":        c.bridge.getSendAmount,
		"getReceiveAmount":     c.bridge.getReceiveAmount,
		"getBalanceAll":        c.bridge.getBalanceAll,
		"sendTransaction":      c.bridge.sendTransaction,
		"receive":              c.bridge.receive,
		"claimIncome":          c.bridge.claimIncome,
		"joinValidatorSet":     c.bridge.joinValidatorSet,
		"leaveValidatorSet":    c.bridge.leaveValidatorSet,
	}
	obj, err := c.jsre.Object("ambr = {}")
	if err != nil {
		return err
	}
	for name, fn := range methods {
		if err := obj.Set(name, fn); err != nil {
			return errors.Wrapf(err, "console: bind %s", name)
		}
	}
	return nil
}

// AutoComplete completes the identifier under the cursor.
func (c *Console) AutoComplete(line string, pos int) (string, []string, string) {
	if len(line) == 0 || pos == 0 {
		return "", nil, ""
	}
	start := pos - 1
	for ; start > 0; start-- {
		if line[start] == '.' || (line[start] >= 'a' && line[start] <= 'z') || (line[start] >= 'A' && line[start] <= 'Z') {
			continue
		}
		start++
		break
	}
	if start == pos {
		return "", nil, ""
	}
	return line[:start], c.jsre.CompleteKeywords(line[start:pos]), line[pos:]
}

func (c *Console) Welcome() {
	c.prompter.SetWordCompleter(c.AutoComplete)
	fmt.Fprint(c.writer, "Welcome to the ambr JavaScript console!\n\n")
	if epoch, err := c.bridge.sm.GetEpoch(); err == nil {
		fmt.Fprintf(c.writer, "epoch: %d\n", epoch)
	}
	fmt.Fprintln(c.writer, "type ambr. and press tab to list the methods")
}

// Interactive reads and evaluates lines until exit, EOF or interrupt.
func (c *Console) Interactive() {
	go func() {
		for {
			line, err := c.prompter.Prompt(<-c.promptCh)
			if err != nil {
				if err == liner.ErrPromptAborted {
					c.promptCh <- exitCommand
					continue
				}
				close(c.promptCh)
				return
			}
			c.promptCh <- line
		}
	}()

	abort := make(chan os.Signal, 1)
	signal.Notify(abort, os.Interrupt)
	defer signal.Stop(abort)

	for {
		c.promptCh <- defaultPrompt
		select {
		case <-abort:
			fmt.Fprintln(c.writer, "exiting...")
			return
		case line, ok := <-c.promptCh:
			if !ok || strings.ToLower(strings.TrimSpace(line)) == exitCommand {
				return
			}
			command := strings.TrimSpace(line)
			if command == "" {
				continue
			}
			if len(c.history) == 0 || command != c.history[len(c.history)-1] {
				c.history = append(c.history, command)
				c.prompter.AppendHistory(command)
			}
			c.Evaluate(line)
		}
	}
}

// Evaluate runs code and prints the result, objects as indented JSON.
func (c *Console) Evaluate(code string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(c.writer, "[native] error: %v\n", r)
		}
	}()
	v, err := c.jsre.Run(code)
	if err != nil {
		fmt.Fprintln(c.writer, err)
		return err
	}
	switch {
	case v.IsObject():
		result, err := c.jsre.JSONString(v)
		if err != nil {
			fmt.Fprintln(c.writer, err)
			return err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(result), "", "    "); err != nil {
			fmt.Fprintln(c.writer, err)
			return err
		}
		fmt.Fprintln(c.writer, buf.String())
	case v.IsDefined() && !v.IsNull():
		fmt.Fprintln(c.writer, v.String())
	}
	return nil
}

func (c *Console) Stop() error {
	return nil
}

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
	"github.com/ambrchain/ambr/common"
	"github.com/ambrchain/ambr/config"
	"github.com/ambrchain/ambr/core/types"
	"github.com/pkg/errors"
)

// FeeDataStep is the payload size covered by one fee unit.
const FeeDataStep = 1024

// Params are the chain parameters the ledger enforces.
type Params struct {
	GenesisTime           uint64
	ValidatorUnitInterval uint64
	TransactionFeeBase    common.Amount
	MinValidatorBalance   common.Amount
	PassPercentNum        uint64
	PassPercentDen        uint64
	GenesisSupply         common.Amount
	GenesisPublicKey      common.PublicKey
}

func DefaultParams() *Params {
	p, err := NewParams(config.DefaultChainConfig())
	if err != nil {
		panic(err)
	}
	return p
}

func NewParams(c *config.ChainConfig) (*Params, error) {
	p := &Params{
		GenesisTime:           c.GenesisTime,
		ValidatorUnitInterval: c.ValidatorUnitInterval,
		PassPercentNum:        c.PassPercentNum,
		PassPercentDen:        c.PassPercentDen,
	}
	var err error
	if p.TransactionFeeBase, err = common.ParseAmount(c.TransactionFeeBase); err != nil {
		return nil, errors.Wrap(err, "TransactionFeeBase")
	}
	if p.MinValidatorBalance, err = common.ParseAmount(c.MinValidatorBalance); err != nil {
		return nil, errors.Wrap(err, "MinValidatorBalance")
	}
	if p.GenesisSupply, err = common.ParseAmount(c.GenesisSupply); err != nil {
		return nil, errors.Wrap(err, "GenesisSupply")
	}
	if c.GenesisPublicKey != "" {
		if p.GenesisPublicKey, err = common.HexToPublicKey(c.GenesisPublicKey); err != nil {
			return nil, errors.Wrap(err, "GenesisPublicKey")
		}
	}
	if p.PassPercentDen == 0 || p.PassPercentNum > p.PassPercentDen {
		return nil, errors.Errorf("invalid pass percent %d/%d", p.PassPercentNum, p.PassPercentDen)
	}
	if p.GenesisSupply.Lt(p.MinValidatorBalance) {
		return nil, errors.New("genesis supply below minimum validator balance")
	}
	return p, nil
}

// FeeCount is the number of fee units a receive of send pays.
func FeeCount(send *types.SendUnit) uint64 {
	return 1 + uint64(len(send.Data))/FeeDataStep
}

// TransactionFee is withheld from the amount credited by the receive of send.
func (p *Params) TransactionFee(send *types.SendUnit) (common.Amount, error) {
	return p.TransactionFeeBase.MulUint64(FeeCount(send))
}

// Passes reports whether accept stake reaches the pass percent of total.
func (p *Params) Passes(accept, total common.Amount) bool {
	if total.IsZero() {
		return false
	}
	// accept*den >= total*num, widened to 256 bits by MulDiv
	return accept.MulDiv(p.PassPercentDen, 1).Cmp(total.MulDiv(p.PassPercentNum, 1)) >= 0
}

// NonceAt is the proposal slot of ms, counted in ValidatorUnitInterval
// steps from GenesisTime.
func (p *Params) NonceAt(ms uint64) uint64 {
	if ms < p.GenesisTime || p.ValidatorUnitInterval == 0 {
		return 0
	}
	return (ms - p.GenesisTime) / p.ValidatorUnitInterval
}

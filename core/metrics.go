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
	"fmt"

	"github.com/ambrchain/ambr/core/types"
	"github.com/ambrchain/ambr/log"
	"github.com/ethereum/go-ethereum/metrics"
)

type coreMetrics struct {
	accepted map[types.UnitType]metrics.Meter
	rejected map[types.UnitType]metrics.Meter

	finalized     metrics.Meter
	finalizedUnit metrics.Meter
	removed       metrics.Meter

	bufferIn   metrics.Meter
	bufferOK   metrics.Meter
	bufferFail metrics.Meter

	cacheHit  metrics.Meter
	cacheMiss metrics.Meter
}

var allUnitTypes = []types.UnitType{
	types.UnitTypeSend,
	types.UnitTypeReceive,
	types.UnitTypeEnterValidatorSet,
	types.UnitTypeLeaveValidatorSet,
	types.UnitTypeValidator,
	types.UnitTypeVote,
}

// newCoreMetrics uses a private registry so several StoreManagers can live
// in one process.
func newCoreMetrics() *coreMetrics {
	metrics.Enabled = true
	r := metrics.NewRegistry()
	cm := &coreMetrics{
		accepted: make(map[types.UnitType]metrics.Meter),
		rejected: make(map[types.UnitType]metrics.Meter),

		finalized:     metrics.NewRegisteredMeter("core/finality/proposal", r),
		finalizedUnit: metrics.NewRegisteredMeter("core/finality/unit", r),
		removed:       metrics.NewRegisteredMeter("core/unit/removed", r),

		bufferIn:   metrics.NewRegisteredMeter("core/buffer/in", r),
		bufferOK:   metrics.NewRegisteredMeter("core/buffer/ok", r),
		bufferFail: metrics.NewRegisteredMeter("core/buffer/fail", r),

		cacheHit:  metrics.NewRegisteredMeter("core/cache/hit", r),
		cacheMiss: metrics.NewRegisteredMeter("core/cache/miss", r),
	}
	for _, t := range allUnitTypes {
		cm.accepted[t] = metrics.NewRegisteredMeter("core/unit/"+t.String()+"/accepted", r)
		cm.rejected[t] = metrics.NewRegisteredMeter("core/unit/"+t.String()+"/rejected", r)
	}
	return cm
}

func (cm *coreMetrics) markUnit(t types.UnitType, err error) {
	m := cm.accepted
	if err != nil {
		m = cm.rejected
	}
	if meter, ok := m[t]; ok {
		meter.Mark(1)
	}
}

func (cm *coreMetrics) printMetrics() {
	m := make(map[string]string)
	for _, t := range allUnitTypes {
		m[t.String()] = fmt.Sprintf("ok%d fail%d", cm.accepted[t].Count(), cm.rejected[t].Count())
	}
	m["finalized"] = fmt.Sprintf("proposals%d units%d", cm.finalized.Count(), cm.finalizedUnit.Count())
	m["removed"] = fmt.Sprintf("%d", cm.removed.Count())
	m["buffer"] = fmt.Sprintf("ok%d fail%d / in%d", cm.bufferOK.Count(), cm.bufferFail.Count(), cm.bufferIn.Count())
	m["cache"] = fmt.Sprintf("h%d m%d", cm.cacheHit.Count(), cm.cacheMiss.Count())

	log.Info("core metrics", "metrics", m)
}

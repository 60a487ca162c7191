// Copyright (C) 2019-2025 Algorand, Inc.
// This file is part of algo-builder-sub005
//
// algo-builder-sub005 is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// algo-builder-sub005 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with algo-builder-sub005.  If not, see <https://www.gnu.org/licenses/>.

package runtime

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	groupsExecuted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tealsim_runtime_groups_total",
		Help: "Groups submitted to ExecuteTx by the last stage they reached",
	}, []string{"stage"})
	groupsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tealsim_runtime_rejections_total",
		Help: "Rejected groups by reject code",
	}, []string{"code"})
	programCost = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tealsim_runtime_app_cost",
		Help:    "Opcode cost of the app programs run by one transaction",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
	groupSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tealsim_runtime_group_seconds",
		Help:    "Time spent in ExecuteTx per group",
		Buckets: prometheus.DefBuckets,
	})
)

var registerOnce sync.Once

// registerMetrics exposes the runtime collectors on the default registry.
// They are updated whether or not they are registered.
func registerMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(groupsExecuted, groupsRejected, programCost, groupSeconds)
	})
}

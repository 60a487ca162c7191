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

package ledger

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/scale-it/algo-builder-sub005/ledger/ledgercore"
)

type metricsTracker struct {
	round           prometheus.Gauge
	txnsTotal       prometheus.Counter
	groupsTotal     prometheus.Counter
	groupsRejected  *prometheus.CounterVec
	accountsTouched prometheus.Histogram
}

var defaultMetrics = &metricsTracker{
	round: prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tealsim_ledger_round",
		Help: "Round the ledger is currently at",
	}),
	txnsTotal: prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tealsim_ledger_transactions_total",
		Help: "Top-level transactions committed",
	}),
	groupsTotal: prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tealsim_ledger_groups_total",
		Help: "Transaction groups committed",
	}),
	groupsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tealsim_ledger_groups_rejected_total",
		Help: "Transaction groups rejected during evaluation, by reject code",
	}, []string{"code"}),
	accountsTouched: prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tealsim_ledger_group_accounts",
		Help:    "Accounts modified per committed group",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8),
	}),
}

func init() {
	prometheus.MustRegister(
		defaultMetrics.round,
		defaultMetrics.txnsTotal,
		defaultMetrics.groupsTotal,
		defaultMetrics.groupsRejected,
		defaultMetrics.accountsTouched,
	)
}

func (mt *metricsTracker) committed(txns int, accounts int) {
	mt.groupsTotal.Inc()
	mt.txnsTotal.Add(float64(txns))
	mt.accountsTouched.Observe(float64(accounts))
}

func (mt *metricsTracker) rejected(err error) {
	mt.groupsRejected.WithLabelValues(strconv.Itoa(int(ledgercore.CodeOf(err)))).Inc()
}

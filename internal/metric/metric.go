// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package metric provides the prometheus collectors recording credential
// cache, issuance and grant snapshot activity, and the hooks the
// credential machinery uses to update them.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Namespace groups every collector under one metric name prefix.
	Namespace = "accessgrants"

	cacheSubsystem     = "credential_cache"
	directorySubsystem = "grant_directory"

	LabelResult  = "result"
	LabelOutcome = "outcome"

	resultHit  = "hit"
	resultMiss = "miss"

	outcomeOk    = "ok"
	outcomeError = "error"
)

var (
	listResults  = []string{resultHit, resultMiss}
	listOutcomes = []string{outcomeOk, outcomeError}
)

var cacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: cacheSubsystem,
		Name:      "lookups_total",
		Help:      "Count of credential cache lookups, labeled by whether a usable cached record was found.",
	},
	[]string{LabelResult},
)

var issuanceDuration prometheus.ObserverVec = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: cacheSubsystem,
		Name:      "issuance_duration_seconds",
		Help:      "Histogram of latencies for credential issuances, labeled by outcome.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{LabelOutcome},
)

var snapshotGrants = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: directorySubsystem,
		Name:      "snapshot_grants",
		Help:      "Number of grants in the currently installed snapshot.",
	},
)

var snapshotLoadFailures = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: directorySubsystem,
		Name:      "snapshot_load_failures_total",
		Help:      "Count of grant listing walks which failed to install a snapshot.",
	},
)

// RecordCacheLookup counts one credential cache lookup.
func RecordCacheLookup(hit bool) {
	result := resultMiss
	if hit {
		result = resultHit
	}
	cacheLookups.With(prometheus.Labels{LabelResult: result}).Inc()
}

// ObserveIssuance records one issuance's latency and outcome.
func ObserveIssuance(d time.Duration, err error) {
	outcome := outcomeOk
	if err != nil {
		outcome = outcomeError
	}
	issuanceDuration.With(prometheus.Labels{LabelOutcome: outcome}).Observe(d.Seconds())
}

// SetSnapshotGrants records the size of the newly installed snapshot.
func SetSnapshotGrants(n int) {
	snapshotGrants.Set(float64(n))
}

// IncSnapshotLoadFailure counts one failed snapshot load.
func IncSnapshotLoadFailure() {
	snapshotLoadFailures.Inc()
}

// InitializeCollectors registers the package's collectors with r and
// zeroes every expected label combination.
func InitializeCollectors(r prometheus.Registerer) {
	if r == nil {
		return
	}
	r.MustRegister(cacheLookups, issuanceDuration, snapshotGrants, snapshotLoadFailures)

	for _, result := range listResults {
		cacheLookups.With(prometheus.Labels{LabelResult: result})
	}
	for _, outcome := range listOutcomes {
		issuanceDuration.With(prometheus.Labels{LabelOutcome: outcome})
	}
}

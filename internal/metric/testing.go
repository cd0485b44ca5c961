// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TestableObserverVec allows us to assert which observations are being
// made with which labels.
type TestableObserverVec struct {
	Observations []*testableObserver
	prometheus.ObserverVec
}

func (v *TestableObserverVec) With(l prometheus.Labels) prometheus.Observer {
	ret := &testableObserver{Labels: l}
	v.Observations = append(v.Observations, ret)
	return ret
}

type testableObserver struct {
	Labels      prometheus.Labels
	Observation float64
}

func (o *testableObserver) Observe(f float64) {
	o.Observation = f
}

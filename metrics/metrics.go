// Copyright (c) 2012-present The upper.io/db authors. All rights reserved.
//
// Permission is hereby granted, free of charge, to any person obtaining
// a copy of this software and associated documentation files (the
// "Software"), to deal in the Software without restriction, including
// without limitation the rights to use, copy, modify, merge, publish,
// distribute, sublicense, and/or sell copies of the Software, and to
// permit persons to whom the Software is furnished to do so, subject to
// the following conditions:
//
// The above copyright notice and this permission notice shall be
// included in all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
// MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE
// LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION
// OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION
// WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

// Package metrics exports cascade activity as Prometheus metrics.
//
//	engine := &cascade.Engine{Observer: metrics.NewObserver(prometheus.DefaultRegisterer)}
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/upper/cascade"
)

const namespace = "cascade"

// Observer counts cascades and the records they act on.
type Observer struct {
	Operations *prometheus.CounterVec
	Affected   *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewObserver creates an Observer and registers its collectors with reg. A
// nil reg leaves the collectors unregistered.
func NewObserver(reg prometheus.Registerer) *Observer {
	o := &Observer{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Cascades run on a record, by outcome.",
			},
			[]string{"op", "type", "result"},
		),
		Affected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "affected_records_total",
				Help:      "Related records deleted or restored by cascades.",
			},
			[]string{"op", "type"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "duration_seconds",
				Help:      "Time spent cascading from a record, nested cascades included.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op", "type"},
		),
	}
	if reg != nil {
		reg.MustRegister(o.Operations, o.Affected, o.Duration)
	}
	return o
}

// Begin implements cascade.Observer.
func (o *Observer) Begin(ctx context.Context, op cascade.Op, typeName string) (context.Context, func(int, error)) {
	start := time.Now()
	return ctx, func(affected int, err error) {
		result := "success"
		if err != nil {
			result = "error"
		}
		o.Operations.WithLabelValues(op.String(), typeName, result).Inc()
		o.Affected.WithLabelValues(op.String(), typeName).Add(float64(affected))
		o.Duration.WithLabelValues(op.String(), typeName).Observe(time.Since(start).Seconds())
	}
}

var _ cascade.Observer = &Observer{}

// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package localexecutor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var (
	tracer = otel.Tracer("stencilgo.executor")

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stencilgo",
			Subsystem: "executor",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by backend and outcome.",
		},
		[]string{"backend", "status"},
	)

	tilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stencilgo",
			Subsystem: "executor",
			Name:      "tiles_total",
			Help:      "Total number of tile sweeps by backend and vertical order.",
		},
		[]string{"backend", "order"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stencilgo",
			Subsystem: "executor",
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
		[]string{"backend"},
	)
)

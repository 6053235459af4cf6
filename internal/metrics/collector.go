// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package metrics exports listener dispatch statistics to prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/juju/cells/core/owner"
	"github.com/juju/cells/core/registry"
)

const metricsNamespace = "cells"

// Collector is a prometheus.Collector and a registry.Recorder. Pass it
// to cells, sequences and events with their WithRecorder option.
type Collector struct {
	dispatches *prometheus.CounterVec
	listeners  *prometheus.CounterVec
	swept      *prometheus.CounterVec
	panics     *prometheus.CounterVec
	liveOwners prometheus.GaugeFunc
}

var _ registry.Recorder = (*Collector)(nil)

// NewCollector returns a new Collector. The live owner gauge reports
// the size of arena.
func NewCollector(arena *owner.Arena) *Collector {
	return &Collector{
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "dispatches_total",
				Help:      "The number of notifications dispatched to at least one listener.",
			}, []string{"component"},
		),
		listeners: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "listener_calls_total",
				Help:      "The number of listener invocations scheduled.",
			}, []string{"component"},
		),
		swept: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "swept_registrations_total",
				Help:      "The number of registrations dropped because their owner was released.",
			}, []string{"component"},
		),
		panics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "listener_panics_total",
				Help:      "The number of listeners that panicked.",
			}, []string{"component"},
		),
		liveOwners: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "live_owners",
				Help:      "The number of weak listener owners still alive.",
			}, func() float64 {
				return float64(arena.Len())
			},
		),
	}
}

// RecordDispatch is part of the registry.Recorder interface.
func (c *Collector) RecordDispatch(component string, listeners int) {
	c.dispatches.WithLabelValues(component).Inc()
	c.listeners.WithLabelValues(component).Add(float64(listeners))
}

// RecordSweep is part of the registry.Recorder interface.
func (c *Collector) RecordSweep(component string, swept int) {
	c.swept.WithLabelValues(component).Add(float64(swept))
}

// RecordPanic is part of the registry.Recorder interface.
func (c *Collector) RecordPanic(component string) {
	c.panics.WithLabelValues(component).Inc()
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.dispatches.Describe(ch)
	c.listeners.Describe(ch)
	c.swept.Describe(ch)
	c.panics.Describe(ch)
	c.liveOwners.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.dispatches.Collect(ch)
	c.listeners.Collect(ch)
	c.swept.Collect(ch)
	c.panics.Collect(ch)
	c.liveOwners.Collect(ch)
}

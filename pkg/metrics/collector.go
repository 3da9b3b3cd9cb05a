// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package metrics exposes the gateway's internal queues and counters as
// a prometheus.Collector, following the corpus's custom-collector
// pattern of Describe/Collect pulling live values from the components
// they observe rather than pushing updates into a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QueueSource is the subset of *qos.Dispatcher the collector reads
// from; kept as an interface so the metrics package never imports qos.
type QueueSource interface {
	QueueDepth() int
	PendingCount() int
}

// DutySource reports duty-cycle usage as a fraction of the rolling
// window.
type DutySource interface {
	Usage(now time.Time) float64
}

// Collector implements prometheus.Collector over the gateway's
// command queue, duty-cycle tracker, and retry/timeout counters.
// Retry, timeout and send-error counts are accumulated internally
// through RecordRetry/RecordTimeout/RecordSendError since those are
// edge-triggered, unlike the gauges pulled from live component state.
// The dispatcher does not call these methods, so in a running gateway
// the three counters stay at zero.
type Collector struct {
	queue QueueSource
	duty  DutySource

	queueDepth   *prometheus.Desc
	pendingCount *prometheus.Desc
	dutyUsage    *prometheus.Desc
	retries      prometheus.Counter
	timeouts     prometheus.Counter
	sendErrors   prometheus.Counter
}

// New builds a Collector reading live gauges from queue and duty.
func New(queue QueueSource, duty DutySource) *Collector {
	return &Collector{
		queue: queue,
		duty:  duty,
		queueDepth: prometheus.NewDesc(
			"ramses_gw_queue_depth", "Number of commands waiting in the priority queue.", nil, nil),
		pendingCount: prometheus.NewDesc(
			"ramses_gw_pending_replies", "Number of commands awaiting a reply, including the in-flight one.", nil, nil),
		dutyUsage: prometheus.NewDesc(
			"ramses_gw_duty_cycle_usage", "Fraction of the rolling 60s window spent transmitting.", nil, nil),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ramses_gw_command_retries_total", Help: "Total command retransmissions."}),
		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ramses_gw_command_timeouts_total", Help: "Total commands that gave up after exhausting retries."}),
		sendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ramses_gw_send_errors_total", Help: "Total transport write errors."}),
	}
}

// RecordRetry increments the retry counter, for one command
// retransmission.
func (c *Collector) RecordRetry() { c.retries.Inc() }

// RecordTimeout increments the timeout counter, for one command that
// gave up after exhausting its retries.
func (c *Collector) RecordTimeout() { c.timeouts.Inc() }

// RecordSendError increments the transport-error counter.
func (c *Collector) RecordSendError() { c.sendErrors.Inc() }

// Describe implements prometheus.Collector.
func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	descs <- c.queueDepth
	descs <- c.pendingCount
	descs <- c.dutyUsage
	c.retries.Describe(descs)
	c.timeouts.Describe(descs)
	c.sendErrors.Describe(descs)
}

// Collect implements prometheus.Collector, pulling live values from
// the queue and duty-cycle tracker at scrape time.
func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	if c.queue != nil {
		metrics <- prometheus.MustNewConstMetric(c.queueDepth, prometheus.GaugeValue, float64(c.queue.QueueDepth()))
		metrics <- prometheus.MustNewConstMetric(c.pendingCount, prometheus.GaugeValue, float64(c.queue.PendingCount()))
	}
	if c.duty != nil {
		metrics <- prometheus.MustNewConstMetric(c.dutyUsage, prometheus.GaugeValue, c.duty.Usage(time.Now()))
	}
	c.retries.Collect(metrics)
	c.timeouts.Collect(metrics)
	c.sendErrors.Collect(metrics)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package qos

import (
	"sync"
	"time"
)

// DutyCycleWindow is the rolling window over which air-time usage is
// measured.
const DutyCycleWindow = 60 * time.Second

// BitsPerByte is the adapter's serial framing overhead: 8N1 contributes
// a start and stop bit per data byte, so 10 bits are transmitted for
// every payload byte at the line's configured baud rate.
const BitsPerByte = 10

// AdapterOverhead is a fixed per-transmission allowance for the
// adapter's own turnaround time, added to every line's computed air
// time.
const AdapterOverhead = 3 * time.Millisecond

// DefaultDutyCycleLimit is the fraction of DutyCycleWindow the
// dispatcher will allow itself to transmit in, left at the
// unrestricted value of 1.0 (i.e. no additional ceiling beyond the
// physical bus) until a deployment narrows it via config; operators
// transmitting under an 868MHz SRD band plan should configure the
// regulatory duty cycle (commonly 1%) explicitly.
const DefaultDutyCycleLimit = 1.0

type transmission struct {
	at       time.Time
	duration time.Duration
}

// DutyCycle tracks recent air time against a rolling window and
// limit, rejecting transmissions that would push usage over budget.
type DutyCycle struct {
	mu        sync.Mutex
	baud      int
	limit     float64
	window    time.Duration
	sent      []transmission
}

// NewDutyCycle creates a DutyCycle for the given serial baud rate,
// using DefaultDutyCycleLimit and DutyCycleWindow.
func NewDutyCycle(baud int) *DutyCycle {
	return &DutyCycle{baud: baud, limit: DefaultDutyCycleLimit, window: DutyCycleWindow}
}

// SetLimit overrides the duty-cycle ceiling, as a fraction of the
// window (e.g. 0.01 for a 1% regulatory limit).
func (d *DutyCycle) SetLimit(limit float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.limit = limit
}

// airTime returns the transmission time for a line of n bytes at the
// configured baud rate, plus AdapterOverhead.
func (d *DutyCycle) airTime(n int) time.Duration {
	bits := n * BitsPerByte
	seconds := float64(bits) / float64(d.baud)
	return time.Duration(seconds*float64(time.Second)) + AdapterOverhead
}

// Allow reports whether transmitting n bytes now would keep usage
// within the duty-cycle budget over the trailing window.
func (d *DutyCycle) Allow(n int, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prune(now)

	used := d.airTime(n)
	for _, t := range d.sent {
		used += t.duration
	}
	return used <= time.Duration(float64(d.window)*d.limit)
}

// Record accounts for a transmission of n bytes made at now.
func (d *DutyCycle) Record(n int, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prune(now)
	d.sent = append(d.sent, transmission{at: now, duration: d.airTime(n)})
}

func (d *DutyCycle) prune(now time.Time) {
	cutoff := now.Add(-d.window)
	i := 0
	for ; i < len(d.sent); i++ {
		if d.sent[i].at.After(cutoff) {
			break
		}
	}
	d.sent = d.sent[i:]
}

// Usage returns the fraction of the window currently consumed, for
// metrics reporting.
func (d *DutyCycle) Usage(now time.Time) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prune(now)
	var used time.Duration
	for _, t := range d.sent {
		used += t.duration
	}
	return float64(used) / float64(d.window)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeQueue struct{ depth, pending int }

func (f fakeQueue) QueueDepth() int   { return f.depth }
func (f fakeQueue) PendingCount() int { return f.pending }

type fakeDuty struct{ usage float64 }

func (f fakeDuty) Usage(time.Time) float64 { return f.usage }

func TestCollectorExposesGauges(t *testing.T) {
	c := New(fakeQueue{depth: 3, pending: 1}, fakeDuty{usage: 0.25})
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(metrics) == 0 {
		t.Fatal("expected at least one metric family")
	}
}

func TestCollectorCountersIncrement(t *testing.T) {
	c := New(nil, nil)
	c.RecordRetry()
	c.RecordRetry()
	c.RecordTimeout()
	c.RecordSendError()

	if got := testutil.ToFloat64(c.retries); got != 2 {
		t.Errorf("retries = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.timeouts); got != 1 {
		t.Errorf("timeouts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.sendErrors); got != 1 {
		t.Errorf("sendErrors = %v, want 1", got)
	}
}

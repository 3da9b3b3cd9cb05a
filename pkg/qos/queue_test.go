// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package qos

import (
	"errors"
	"testing"
	"time"

	"github.com/ramses-gw/ramses-gw/pkg/frame"
)

func testAddrs() [3]frame.Address {
	return [3]frame.Address{
		{Class: "18", Serial: "000730"},
		{Class: "01", Serial: "145038"},
		{Class: "--", Serial: "------"},
	}
}

func TestQueuePopsHighestPriorityFirst(t *testing.T) {
	q := NewCommandQueue()
	now := time.Now()
	low := NewCommand(frame.VerbRequest, testAddrs(), "000A", nil, PriorityLow, now)
	high := NewCommand(frame.VerbRequest, testAddrs(), "000A", nil, PriorityHigh, now)
	normal := NewCommand(frame.VerbRequest, testAddrs(), "000A", nil, PriorityDefault, now)

	for _, c := range []*Command{low, high, normal} {
		if err := q.Push(c); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}

	got, _ := q.Pop()
	if got.Handle != high.Handle {
		t.Errorf("first pop = %s priority, want high", got.Priority)
	}
	got, _ = q.Pop()
	if got.Handle != normal.Handle {
		t.Errorf("second pop = %s priority, want normal", got.Priority)
	}
	got, _ = q.Pop()
	if got.Handle != low.Handle {
		t.Errorf("third pop = %s priority, want low", got.Priority)
	}
}

func TestQueueFIFOWithinPriority(t *testing.T) {
	q := NewCommandQueue()
	now := time.Now()
	first := NewCommand(frame.VerbRequest, testAddrs(), "000A", nil, PriorityDefault, now)
	second := NewCommand(frame.VerbRequest, testAddrs(), "000A", nil, PriorityDefault, now)
	_ = q.Push(first)
	_ = q.Push(second)

	got, _ := q.Pop()
	if got.Handle != first.Handle {
		t.Error("expected FIFO order within a priority tier")
	}
}

func TestQueueRejectsOverCapacity(t *testing.T) {
	q := NewCommandQueue()
	now := time.Now()
	for i := 0; i < QueueCapacity; i++ {
		if err := q.Push(NewCommand(frame.VerbRequest, testAddrs(), "000A", nil, PriorityDefault, now)); err != nil {
			t.Fatalf("unexpected push error at %d: %v", i, err)
		}
	}
	err := q.Push(NewCommand(frame.VerbRequest, testAddrs(), "000A", nil, PriorityDefault, now))
	if err == nil {
		t.Error("expected push to fail once at capacity")
	}
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected errors.Is(err, ErrQueueFull), got %v", err)
	}
}

func TestQueueCancelHandle(t *testing.T) {
	q := NewCommandQueue()
	now := time.Now()
	cmd := NewCommand(frame.VerbRequest, testAddrs(), "000A", nil, PriorityDefault, now)
	_ = q.Push(cmd)
	if !q.CancelHandle(cmd.Handle) {
		t.Fatal("expected cancel to succeed")
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
	if !cmd.Cancelled() {
		t.Error("expected cmd.Cancelled() to be true after cancel")
	}
	if q.CancelHandle(cmd.Handle) {
		t.Error("expected second cancel to fail")
	}
}

func TestQueueCancelPredicate(t *testing.T) {
	q := NewCommandQueue()
	now := time.Now()
	keep := NewCommand(frame.VerbRequest, testAddrs(), "000A", nil, PriorityDefault, now)
	drop1 := NewCommand(frame.VerbRequest, testAddrs(), "2349", nil, PriorityDefault, now)
	drop2 := NewCommand(frame.VerbRequest, testAddrs(), "2349", nil, PriorityLow, now)
	_ = q.Push(keep)
	_ = q.Push(drop1)
	_ = q.Push(drop2)

	removed := q.Cancel(func(c *Command) bool { return c.Code == "2349" })
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
	if !drop1.Cancelled() || !drop2.Cancelled() {
		t.Error("expected both matched commands to be marked cancelled")
	}
	if keep.Cancelled() {
		t.Error("expected non-matching command to remain uncancelled")
	}
}

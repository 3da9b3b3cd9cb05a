// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package qos

import (
	"time"

	"github.com/ramses-gw/ramses-gw/internal/logx"
	"github.com/ramses-gw/ramses-gw/pkg/message"
)

// State is the lifecycle stage of the command currently occupying the
// dispatcher's single in-flight slot.
type State int

// The dispatcher states. At most one command is ever SENDING or
// AWAITING_REPLY at a time; the dispatcher enforces strict
// at-most-one-in-flight so the bus never sees overlapping commands.
const (
	Idle State = iota
	Sending
	AwaitingReply
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case AwaitingReply:
		return "awaiting_reply"
	default:
		return "unknown"
	}
}

// Sender transmits a command's wire line. Implementations write to the
// adapter connection.
type Sender interface {
	Send(line string) error
}

// Dispatcher drives the command queue: popping the next command,
// sending it, tracking the reply deadline, retrying with exponential
// backoff, and giving up after MaxRetries. All dispatcher state is
// owned by a single goroutine calling Tick; it holds no lock of its
// own; it serializes through the queue's and pending table's own
// locks.
type Dispatcher struct {
	queue     *CommandQueue
	pending   *PendingReplyTable
	duty      *DutyCycle
	sender    Sender
	log       *logx.Logger

	state          State
	current        *Command
	retryNotBefore time.Time // zero when no backoff is pending
}

// NewDispatcher creates a Dispatcher wired to queue, pending, duty, and
// the transport sender.
func NewDispatcher(queue *CommandQueue, pending *PendingReplyTable, duty *DutyCycle, sender Sender, log *logx.Logger) *Dispatcher {
	if log == nil {
		log = logx.Default()
	}
	return &Dispatcher{queue: queue, pending: pending, duty: duty, sender: sender, log: log, state: Idle}
}

// backoff returns the retry delay for the given attempt count (1-based),
// doubling from 100ms and capped at 5s.
func backoff(attempt int) time.Duration {
	d := 100 * time.Millisecond
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= 5*time.Second {
			return 5 * time.Second
		}
	}
	return d
}

// Tick advances the dispatcher: if idle, it pops and sends the next
// queued command (subject to the duty-cycle budget); if a command is
// in flight past its deadline, it retries or gives up.
func (d *Dispatcher) Tick(now time.Time) {
	if d.state == Idle {
		d.startNext(now)
		return
	}

	due := d.pending.Due(now)
	for _, cmd := range due {
		if cmd.Handle != d.current.Handle {
			continue
		}
		d.retryOrGiveUp(cmd, now)
	}
}

func (d *Dispatcher) startNext(now time.Time) {
	cmd, ok := d.queue.Pop()
	if !ok {
		return
	}
	line := cmd.Line()
	if !d.duty.Allow(len(line), now) {
		// Re-queue and wait for budget to free up; duty cycle is
		// enforced ahead of the transport, never violated to clear a
		// backlog.
		_ = d.queue.Push(cmd)
		return
	}
	d.send(cmd, now)
}

func (d *Dispatcher) send(cmd *Command, now time.Time) {
	d.state = Sending
	d.current = cmd
	cmd.attempts++

	line := cmd.Line()
	if err := d.sender.Send(line); err != nil {
		d.log.Errorf("qos: send %s failed: %v", cmd.Handle, err)
		d.state = Idle
		d.current = nil
		return
	}
	d.duty.Record(len(line), now)

	if cmd.MaxRetries == 0 {
		// Fire-and-forget: no reply is awaited, straight to done.
		d.state = Idle
		d.current = nil
		d.retryNotBefore = time.Time{}
		return
	}

	deadline := now.Add(InitialDeadline)
	if cmd.attempts > 1 {
		deadline = now.Add(RetryWindow)
	}
	if cmd.attempts == 1 {
		d.pending.Track(cmd, now, deadline)
	} else {
		d.pending.Update(cmd, now, deadline)
	}
	d.state = AwaitingReply
}

// retryOrGiveUp is called on every Tick while cmd's reply deadline has
// passed. It first schedules a backoff delay, then waits for it to
// elapse across subsequent Ticks before actually retransmitting, since
// Tick is driven externally and never blocks.
func (d *Dispatcher) retryOrGiveUp(cmd *Command, now time.Time) {
	if cmd.attempts >= cmd.MaxRetries {
		d.log.Warnf("qos: command %s (%s) gave up after %d attempts", cmd.Handle, cmd.Code, cmd.attempts)
		d.pending.Remove(cmd)
		d.state = Idle
		d.current = nil
		d.retryNotBefore = time.Time{}
		return
	}
	if cmd.DisableBackoff {
		d.send(cmd, now)
		return
	}
	if d.retryNotBefore.IsZero() {
		d.retryNotBefore = now.Add(backoff(cmd.attempts))
		return
	}
	if now.Before(d.retryNotBefore) {
		return
	}
	d.retryNotBefore = time.Time{}
	d.send(cmd, now)
}

// CancelInflight aborts the command currently SENDING or
// AWAITING_REPLY, completing it as Cancelled rather than letting it run
// to DONE. This is the cancel_inflight override: CommandQueue.Cancel
// alone only reaches commands still QUEUED.
func (d *Dispatcher) CancelInflight() (*Command, bool) {
	if d.state == Idle || d.current == nil {
		return nil, false
	}
	cmd := d.current
	cmd.markCancelled()
	d.pending.Remove(cmd)
	d.state = Idle
	d.current = nil
	d.retryNotBefore = time.Time{}
	return cmd, true
}

// HandleReply feeds an inbound message to the pending-reply table. If
// it completes the in-flight command, the dispatcher returns to Idle
// and is ready to send the next queued command on the following Tick.
func (d *Dispatcher) HandleReply(m *message.Message) (*Command, bool) {
	cmd, matched := d.pending.Match(m)
	if !matched {
		return nil, false
	}
	if d.current != nil && d.current.Handle == cmd.Handle {
		d.state = Idle
		d.current = nil
		d.retryNotBefore = time.Time{}
	}
	return cmd, true
}

// State returns the dispatcher's current lifecycle state.
func (d *Dispatcher) State() State {
	return d.state
}

// QueueDepth reports the number of commands waiting to be sent.
func (d *Dispatcher) QueueDepth() int {
	return d.queue.Len()
}

// PendingCount reports the number of commands awaiting a reply,
// including the in-flight one.
func (d *Dispatcher) PendingCount() int {
	return d.pending.Len()
}

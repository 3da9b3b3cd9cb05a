// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package qos

import (
	"sync"
	"time"

	"github.com/ramses-gw/ramses-gw/pkg/frame"
	"github.com/ramses-gw/ramses-gw/pkg/message"
)

// InitialDeadline is how long the dispatcher waits for a reply after
// the first transmission of a command before retrying.
const InitialDeadline = 2500 * time.Millisecond

// RetryWindow is how long the dispatcher waits for a reply after each
// retransmission.
const RetryWindow = 1000 * time.Millisecond

// pendingEntry is one command awaiting a matching reply.
type pendingEntry struct {
	cmd      *Command
	sentAt   time.Time
	deadline time.Time
}

// PendingReplyTable tracks commands that have been transmitted and are
// awaiting a matching reply, keyed by (destination address, code,
// command verb).
type PendingReplyTable struct {
	mu      sync.Mutex
	entries map[replyKey]*pendingEntry
}

// NewPendingReplyTable creates an empty table.
func NewPendingReplyTable() *PendingReplyTable {
	return &PendingReplyTable{entries: map[replyKey]*pendingEntry{}}
}

// Track records cmd as sent at now, awaiting a reply until deadline.
func (t *PendingReplyTable) Track(cmd *Command, now, deadline time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[cmd.key()] = &pendingEntry{cmd: cmd, sentAt: now, deadline: deadline}
}

// Match looks up the pending command a received message replies to,
// removing it from the table if found. An RP matches a tracked RQ or
// W; an I matches only a tracked W (the controller's broadcast of its
// new state acknowledges a write).
func (t *PendingReplyTable) Match(m *message.Message) (*Command, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var candidates []frame.Verb
	switch m.Verb {
	case frame.VerbReply:
		candidates = []frame.Verb{frame.VerbRequest, frame.VerbWrite}
	case frame.VerbInform:
		candidates = []frame.Verb{frame.VerbWrite}
	default:
		return nil, false
	}

	for _, v := range candidates {
		key := replyKey{dest: m.Src.String(), code: m.Code, verb: v}
		if entry, ok := t.entries[key]; ok {
			delete(t.entries, key)
			return entry.cmd, true
		}
	}
	return nil, false
}

// Due returns the entries whose deadline has passed as of now, without
// removing them (the dispatcher decides whether to retry or give up).
func (t *PendingReplyTable) Due(now time.Time) []*Command {
	t.mu.Lock()
	defer t.mu.Unlock()
	var due []*Command
	for _, e := range t.entries {
		if !now.Before(e.deadline) {
			due = append(due, e.cmd)
		}
	}
	return due
}

// Remove discards the pending entry for cmd, if any (used when giving
// up after MaxRetries).
func (t *PendingReplyTable) Remove(cmd *Command) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, cmd.key())
}

// Update refreshes the deadline for cmd after a retransmission.
func (t *PendingReplyTable) Update(cmd *Command, sentAt, deadline time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[cmd.key()]; ok {
		e.sentAt, e.deadline = sentAt, deadline
	}
}

// Len reports the number of commands currently awaiting a reply.
func (t *PendingReplyTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

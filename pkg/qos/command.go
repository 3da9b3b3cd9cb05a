// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package qos

import (
	"fmt"
	"time"

	"github.com/ramses-gw/ramses-gw/pkg/frame"
	"github.com/rs/xid"
)

// Priority orders commands within the queue: PriorityHighest is served
// first, PriorityLowest last. Commands of equal priority are served
// FIFO. A flood of PriorityHighest traffic may starve PriorityLowest
// indefinitely; this is by design, since the lowest tier is reserved
// for scans and probes that may legitimately wait.
type Priority int

// The five priority tiers a caller may submit a command at.
const (
	PriorityHighest Priority = iota
	PriorityHigh
	PriorityDefault
	PriorityLow
	PriorityLowest
)

// priorityTierCount is the number of Priority values, used to size the
// queue's bucket array.
const priorityTierCount = 5

func (p Priority) String() string {
	switch p {
	case PriorityHighest:
		return "highest"
	case PriorityHigh:
		return "high"
	case PriorityDefault:
		return "default"
	case PriorityLow:
		return "low"
	case PriorityLowest:
		return "lowest"
	default:
		return "unknown"
	}
}

// DefaultMaxRetries is the number of transmissions, the first send
// included, before a Command is given up on.
const DefaultMaxRetries = 3

// Command is one outbound instruction awaiting transmission or a reply.
type Command struct {
	Handle         string // unique id, assigned at construction
	Verb           frame.Verb
	Addresses      [3]frame.Address
	Code           string
	Payload        []byte
	Priority       Priority
	MaxRetries     int
	DisableBackoff bool // retry immediately on reply timeout, skipping the exponential backoff delay
	CreatedAt      time.Time

	attempts  int
	cancelled bool
}

// NewCommand builds a Command with a fresh Handle.
func NewCommand(verb frame.Verb, addrs [3]frame.Address, code string, payload []byte, priority Priority, now time.Time) *Command {
	return &Command{
		Handle:     xid.New().String(),
		Verb:       verb,
		Addresses:  addrs,
		Code:       code,
		Payload:    payload,
		Priority:   priority,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  now,
	}
}

// Attempts returns how many times this command has been transmitted.
func (c *Command) Attempts() int {
	return c.attempts
}

func (c *Command) markCancelled() {
	c.cancelled = true
}

// Cancelled reports whether this command was removed from the queue by
// Cancel, or completed by a gateway shutdown drain, rather than sent.
func (c *Command) Cancelled() bool {
	return c.cancelled
}

// Line renders the command as the wire line the adapter expects (no
// RSSI field, unlike an inbound Packet).
func (c *Command) Line() string {
	return fmt.Sprintf("%s --- %s %s %s %s %03d %X",
		string(c.Verb), c.Addresses[0], c.Addresses[1], c.Addresses[2],
		c.Code, len(c.Payload), c.Payload)
}

// replyKey identifies the PendingReplyTable slot a matching inbound
// message must land in: destination address, code, and the verb the
// reply will carry (RQ expects RP, W expects I or RP depending on
// command class, so the key stores the *command's* verb and matching
// is done by the dispatcher, not by key equality on the reply verb).
type replyKey struct {
	dest string
	code string
	verb frame.Verb
}

func (c *Command) key() replyKey {
	dest := c.Addresses[1]
	if dest.IsNone() {
		dest = c.Addresses[0]
	}
	return replyKey{dest: dest.String(), code: c.Code, verb: c.Verb}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package message types a frame.Packet's payload by (code, verb,
// length), resolves its zone/domain scope, and reassembles
// multi-fragment payloads (schedules, fault logs) into a single
// logical Message.
package message

import (
	"github.com/ramses-gw/ramses-gw/pkg/frame"
)

// Payload is the tagged decoded value carried by a Message. Each code's
// decoder returns a concrete type implementing this (empty) interface;
// callers type-switch on the concrete type they expect.
type Payload interface {
	payloadMarker()
}

// Message is a typed interpretation of a Packet. Messages are not
// modified after Decode returns them; the gateway hands the same
// pointer to the dispatcher and then to the entity store.
type Message struct {
	Packet      *frame.Packet
	Verb        frame.Verb
	Code        string
	Src         frame.Address // the packet's effective source address
	Dst         frame.Address // the packet's effective destination address (may be NoDevice)
	ZoneIdx     *int
	DomainID    *string
	Payload     Payload
	Valid       bool
	Unsolicited bool // marks an RP not matched to an outstanding RQ; neither Decode nor the gateway sets it, so it is always false
}

// SrcClass returns the device class of the message's source address.
func (m *Message) SrcClass() string {
	return m.Src.Class
}

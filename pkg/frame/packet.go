// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package frame

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Address is a single RAMSES-II device identifier: a 2-digit class plus
// a 6-digit serial, or the "--:------" sentinel for "no device".
type Address struct {
	Class  string // "00".."63", or "--" for the sentinel
	Serial string // "000000".."999999", or "------" for the sentinel
}

// String renders the address in wire form "CC:SSSSSS".
func (a Address) String() string {
	return a.Class + ":" + a.Serial
}

// IsNone reports whether a is the "no device" sentinel.
func (a Address) IsNone() bool {
	return a.Class == "--"
}

// ParseAddress parses a "CC:SSSSSS" wire-form address.
func ParseAddress(s string) (Address, error) {
	if !deviceIDRegex.MatchString(s) {
		return Address{}, fmt.Errorf("frame: malformed device id %q", s)
	}
	parts := strings.SplitN(s, ":", 2)
	return Address{Class: parts[0], Serial: parts[1]}, nil
}

// Packet is a validated RF frame: the ASCII line's fields,
// parsed and structurally checked, with no interpretation of the payload
// bytes. Packet is immutable once constructed; MessageDecoder consumes it
// to build a Message and the Packet is then dropped by its decoding task.
type Packet struct {
	RecvWall  time.Time // wall-clock receive timestamp
	RecvMono  int64     // receive timestamp as RecvWall.UnixNano() (nanoseconds since the Unix epoch, not a monotonic clock reading)
	RSSI      *uint8    // nil when the line carried "---" or "..."
	Verb      Verb
	Addresses [3]Address
	Code      string // 4 hex digits, uppercase
	Length    int    // declared payload length in bytes, 1..48
	Payload   []byte // raw payload bytes, len(Payload) == Length
	Raw       string // the original line, preserved for logging
}

// PayloadHex returns the packet's payload re-encoded as uppercase hex,
// the wire representation.
func (p *Packet) PayloadHex() string {
	return fmt.Sprintf("%X", p.Payload)
}

// HasAddress reports whether addr appears among the packet's three
// device addresses.
func (p *Packet) HasAddress(addr string) bool {
	for _, a := range p.Addresses {
		if !a.IsNone() && a.String() == addr {
			return true
		}
	}
	return false
}

// NonSentinelAddresses returns the packet's addresses excluding the
// "--:------" sentinel.
func (p *Packet) NonSentinelAddresses() []Address {
	out := make([]Address, 0, 3)
	for _, a := range p.Addresses {
		if !a.IsNone() {
			out = append(out, a)
		}
	}
	return out
}

// Encode renders the packet back into a wire line, without the RSSI
// field: outbound commands carry no RSSI.
func (p *Packet) Encode() string {
	return fmt.Sprintf("%s --- %s %s %s %s %03d %s",
		string(p.Verb),
		p.Addresses[0], p.Addresses[1], p.Addresses[2],
		p.Code, p.Length, p.PayloadHex(),
	)
}

// EncodeInbound renders the packet as a full inbound line, RSSI
// included. rssi is "---" when p.RSSI is nil.
func (p *Packet) EncodeInbound() string {
	rssi := "---"
	if p.RSSI != nil {
		rssi = fmt.Sprintf("%03d", *p.RSSI)
	}
	return rssi + " " + p.Encode()
}

// parseRSSI parses the RSSI field: "---" or "..." yield nil, three
// decimal digits yield a parsed value.
func parseRSSI(s string) (*uint8, error) {
	if s == "---" || s == "..." {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 255 {
		return nil, fmt.Errorf("frame: invalid rssi %q", s)
	}
	v := uint8(n)
	return &v, nil
}

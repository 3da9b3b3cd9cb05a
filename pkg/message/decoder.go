// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package message

import (
	"errors"
	"fmt"
	"time"

	"github.com/ramses-gw/ramses-gw/pkg/frame"
)

// ErrFragmentPending is returned by Decode when the packet is one
// fragment of a multi-part payload (0404, 0418) and the set is not yet
// complete; the caller should not treat this as a failure.
var ErrFragmentPending = errors.New("message: fragment set incomplete")

// Decoder turns frame.Packets into Messages: resolving the effective
// source/destination addresses, the zone/domain scope, and the typed
// payload, reassembling fragmented payloads across packets as needed.
type Decoder struct {
	fragments *FragmentReassembler
}

// NewDecoder creates a Decoder. fragmentExpiry is the idle timeout for
// incomplete fragment sets; zero selects FragmentExpiry.
func NewDecoder(fragmentExpiry time.Duration) *Decoder {
	return &Decoder{fragments: NewFragmentReassembler(fragmentExpiry)}
}

// ExpireFragments discards fragment sets idle past their timeout,
// relative to now. Callers should invoke this periodically (the
// gateway's housekeeping ticker).
func (d *Decoder) ExpireFragments(now time.Time) []FragmentKey {
	return d.fragments.Expire(now)
}

// Decode builds a Message from p. If p carries one fragment of an
// incomplete set, Decode returns (nil, ErrFragmentPending) and buffers
// the fragment internally; the caller should simply move on to the
// next packet. A payload decode failure yields a Message with
// Valid=false and a nil Payload, alongside the error, so the raw
// packet is still available to log.
func (d *Decoder) Decode(p *frame.Packet, recvTime time.Time) (*Message, error) {
	src, dst := resolveEndpoints(p.Addresses)

	m := &Message{
		Packet: p,
		Verb:   p.Verb,
		Code:   p.Code,
		Src:    src,
		Dst:    dst,
		Valid:  true,
	}

	if _, ok := MayUseZoneIdx[p.Code]; ok && len(p.Payload) > 0 {
		scope := ResolveZoneOrDomain(p.Payload[0])
		m.ZoneIdx, m.DomainID = scope.ZoneIdx, scope.DomainID
	}

	payload := p.Payload
	if _, fragmented := fragmentCodes[p.Code]; fragmented {
		complete, key, err := d.reassemble(p, recvTime)
		if err != nil {
			m.Valid = false
			return m, err
		}
		if complete == nil {
			return nil, ErrFragmentPending
		}
		_ = key
		payload = complete
	}

	fn, ok := lookupDecoder(p.Code)
	if !ok {
		return m, nil
	}
	decoded, err := fn(p.Verb, len(payload), payload, p.Addresses)
	if err != nil {
		m.Valid = false
		return m, fmt.Errorf("message: decode %s: %w", p.Code, err)
	}
	m.Payload = decoded
	return m, nil
}

// reassemble feeds p's payload into the fragment reassembler. The
// wire shape of a fragmented payload is [selector, frag_idx, frag_total,
// ...chunk]: selector is the same zone/domain byte carried by
// non-fragmented MayUseZoneIdx codes, present here so concurrent
// schedules for different zones don't collide in the same set.
func (d *Decoder) reassemble(p *frame.Packet, now time.Time) ([]byte, FragmentKey, error) {
	if len(p.Payload) < 3 {
		return nil, FragmentKey{}, fmt.Errorf("message: %s fragment payload too short (%d)", p.Code, len(p.Payload))
	}
	selector, idx, total := p.Payload[0], int(p.Payload[1]), int(p.Payload[2])
	if total < 1 {
		return nil, FragmentKey{}, fmt.Errorf("message: %s fragment total must be >= 1, got %d", p.Code, total)
	}

	controller := p.Addresses[0].String()
	for _, a := range p.Addresses {
		if !a.IsNone() {
			controller = a.String()
			break
		}
	}
	key := FragmentKey{Controller: controller, Code: p.Code, Selector: selector}

	chunk := p.Payload[3:]
	complete, done := d.fragments.Add(key, idx, total, chunk, now)
	if !done {
		return nil, key, nil
	}
	// Reassembled payloads are re-prefixed with the selector byte so
	// per-code decoders (decodeSchedule) see the same layout as an
	// unfragmented payload.
	out := make([]byte, 0, len(complete)+1)
	out = append(out, selector)
	out = append(out, complete...)
	return out, key, nil
}

// resolveEndpoints picks the effective (source, destination) pair out
// of a packet's three address slots. RAMSES-II packets use the unused
// slots as "--:------" or repeat the source; the first non-sentinel
// address is the source, and the first *distinct* non-sentinel address
// after it is the destination. A packet with only one distinct
// non-sentinel address (the common broadcast shape "SRC -- SRC") has
// itself as both source and destination.
func resolveEndpoints(addrs [3]frame.Address) (src, dst frame.Address) {
	found := false
	for _, a := range addrs {
		if a.IsNone() {
			continue
		}
		if !found {
			src = a
			found = true
			continue
		}
		if a.String() != src.String() {
			dst = a
			return src, dst
		}
	}
	if !found {
		return frame.Address{Class: "--", Serial: "------"}, frame.Address{Class: "--", Serial: "------"}
	}
	return src, src
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package message

import (
	"errors"
	"testing"
	"time"

	"github.com/ramses-gw/ramses-gw/pkg/frame"
)

func mustPacket(t *testing.T, line string) *frame.Packet {
	t.Helper()
	p, drop := frame.Decode(line, time.Now())
	if drop != nil {
		t.Fatalf("failed to build test packet %q: %v", line, drop)
	}
	return p
}

func TestDecodeSystemSync(t *testing.T) {
	d := NewDecoder(0)
	p := mustPacket(t, "045  I --- 01:145038 --:------ 01:145038 1F09 003 FF073F")
	m, err := d.Decode(p, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sync, ok := m.Payload.(SystemSync)
	if !ok {
		t.Fatalf("payload type = %T, want SystemSync", m.Payload)
	}
	if sync.RemainingMS != 0x073F*10 {
		t.Errorf("RemainingMS = %d, want %d", sync.RemainingMS, 0x073F*10)
	}
	if m.Src.String() != "01:145038" {
		t.Errorf("Src = %s, want 01:145038", m.Src)
	}
	if m.Dst.String() != "01:145038" {
		t.Errorf("Dst = %s, want 01:145038 (self-broadcast)", m.Dst)
	}
}

func TestDecodeZoneSetpointResolvesZoneIdx(t *testing.T) {
	d := NewDecoder(0)
	// zone_idx=00, setpoint=0x0834 (0x0834/100 = 21.00C)
	p := mustPacket(t, "045 RP --- 18:000730 01:145038 --:------ 2309 003 000834")
	m, err := d.Decode(p, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ZoneIdx == nil || *m.ZoneIdx != 0 {
		t.Fatalf("ZoneIdx = %v, want 0", m.ZoneIdx)
	}
	sp, ok := m.Payload.(ZoneSetpoint)
	if !ok {
		t.Fatalf("payload type = %T, want ZoneSetpoint", m.Payload)
	}
	if sp.SetpointC != 21.00 {
		t.Errorf("SetpointC = %v, want 21.00", sp.SetpointC)
	}
}

func TestDecodeUnknownCodeYieldsNilPayload(t *testing.T) {
	d := NewDecoder(0)
	p := mustPacket(t, "045  I --- 01:145038 --:------ 01:145038 0150 001 00")
	m, err := d.Decode(p, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Valid || m.Payload != nil {
		t.Errorf("got Valid=%v Payload=%v, want Valid=true Payload=nil", m.Valid, m.Payload)
	}
}

func TestDecodeMalformedPayloadMarksInvalid(t *testing.T) {
	d := NewDecoder(0)
	// 000A needs at least 6 payload bytes; this one has 1.
	p := mustPacket(t, "045  I --- 01:145038 --:------ 01:145038 000A 001 00")
	m, err := d.Decode(p, time.Now())
	if err == nil {
		t.Fatal("expected decode error")
	}
	if m == nil || m.Valid {
		t.Fatalf("got m=%v, want non-nil Message with Valid=false", m)
	}
}

func TestDecodeFragmentedScheduleOutOfOrder(t *testing.T) {
	d := NewDecoder(0)
	// Two fragments of a 0404 schedule for zone 0, arriving out of order.
	frag2 := mustPacket(t, "045 RP --- 01:145038 18:000730 --:------ 0404 005 000202CCDD")
	frag1 := mustPacket(t, "045 RP --- 01:145038 18:000730 --:------ 0404 005 000102AABB")

	m, err := d.Decode(frag2, time.Now())
	if !errors.Is(err, ErrFragmentPending) || m != nil {
		t.Fatalf("first-seen fragment: got m=%v err=%v, want nil, ErrFragmentPending", m, err)
	}

	m, err = d.Decode(frag1, time.Now())
	if err != nil {
		t.Fatalf("unexpected error completing fragment set: %v", err)
	}
	if m == nil {
		t.Fatal("expected a completed Message")
	}
	sched, ok := m.Payload.(Schedule)
	if !ok {
		t.Fatalf("payload type = %T, want Schedule", m.Payload)
	}
	want := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	if len(sched.Raw) != len(want) {
		t.Fatalf("Raw = %x, want %x", sched.Raw, want)
	}
	for i := range want {
		if sched.Raw[i] != want[i] {
			t.Fatalf("Raw = %x, want %x", sched.Raw, want)
		}
	}
}

func TestExpireFragmentsDropsStaleSets(t *testing.T) {
	d := NewDecoder(50 * time.Millisecond)
	start := time.Now()
	frag1 := mustPacket(t, "045 RP --- 01:145038 18:000730 --:------ 0404 005 000102AABB")
	if _, err := d.Decode(frag1, start); !errors.Is(err, ErrFragmentPending) {
		t.Fatalf("unexpected err: %v", err)
	}
	dropped := d.ExpireFragments(start.Add(100 * time.Millisecond))
	if len(dropped) != 1 {
		t.Fatalf("expected one expired fragment set, got %d", len(dropped))
	}
}

func TestResolveEndpointsDistinctAddresses(t *testing.T) {
	p := mustPacket(t, "045 RQ --- 18:000730 01:145038 --:------ 000A 002 0000")
	src, dst := resolveEndpoints(p.Addresses)
	if src.String() != "18:000730" || dst.String() != "01:145038" {
		t.Errorf("got src=%s dst=%s, want 18:000730/01:145038", src, dst)
	}
}

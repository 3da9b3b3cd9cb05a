// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package entity

import (
	"testing"
	"time"

	"github.com/ramses-gw/ramses-gw/pkg/frame"
	"github.com/ramses-gw/ramses-gw/pkg/message"
)

func decodeLine(t *testing.T, d *message.Decoder, line string) *message.Message {
	t.Helper()
	p, drop := frame.Decode(line, time.Now())
	if drop != nil {
		t.Fatalf("failed to decode line %q: %v", line, drop)
	}
	m, err := d.Decode(p, time.Now())
	if err != nil {
		t.Fatalf("failed to build message from %q: %v", line, err)
	}
	return m
}

func TestElectsFirstControllerAndTracksZoneTemperature(t *testing.T) {
	s := New(nil, nil)
	d := message.NewDecoder(0)

	m := decodeLine(t, d, "045 RP --- 01:145038 18:000730 --:------ 30C9 003 000834")
	now := time.Now()
	s.Update(m, now)

	ctrl := s.Controller()
	if ctrl == nil {
		t.Fatal("expected a controller")
	}
	if ctrl.Addr.String() != "01:145038" {
		t.Errorf("controller = %s, want 01:145038", ctrl.Addr)
	}
	z, ok := ctrl.Zones[0]
	if !ok {
		t.Fatal("expected zone 0")
	}
	if !z.TempAvailable || z.TempC != 21.00 {
		t.Errorf("zone temp = %v (available=%v), want 21.00", z.TempC, z.TempAvailable)
	}
}

func TestSecondControllerIsOrphanedNotMerged(t *testing.T) {
	s := New(nil, nil)
	d := message.NewDecoder(0)

	first := decodeLine(t, d, "045 RP --- 01:145038 18:000730 --:------ 30C9 003 000834")
	s.Update(first, time.Now())

	second := decodeLine(t, d, "045 RP --- 01:999999 18:000730 --:------ 30C9 003 000834")
	s.Update(second, time.Now())

	if s.Controller().Addr.String() != "01:145038" {
		t.Errorf("active controller changed to %s, want it to stay 01:145038", s.Controller().Addr)
	}
	orphans := s.Orphans()
	if _, ok := orphans["01:999999"]; !ok {
		t.Fatalf("expected 01:999999 to be orphaned, got %v", orphans)
	}
}

func TestGatewayAddressIsObservationalOnly(t *testing.T) {
	s := New(nil, nil)
	d := message.NewDecoder(0)

	// source is the HGI adapter itself
	m := decodeLine(t, d, "045 RQ --- 18:000730 01:145038 --:------ 2309 001 00")
	s.Update(m, time.Now())

	if s.Controller() != nil {
		t.Fatal("expected no controller elected from adapter-sourced traffic")
	}
	dev, ok := s.Device("18:000730")
	if !ok || dev.MessageCount() != 1 {
		t.Fatalf("expected adapter device recorded once, got %+v", dev)
	}
}

func TestZoneSensorBindingKeepsFirstSensor(t *testing.T) {
	s := New(nil, nil)
	d := message.NewDecoder(0)

	// elect controller
	s.Update(decodeLine(t, d, "045 RP --- 01:145038 18:000730 --:------ 30C9 003 000834"), time.Now())

	ctrl := s.Controller()
	z, _ := ctrl.zone(0)
	first := frame.Address{Class: "03", Serial: "111111"}
	z.bindSensor(first)
	second := frame.Address{Class: "03", Serial: "222222"}
	z.bindSensor(second)

	if z.SensorAddr == nil || z.SensorAddr.String() != first.String() {
		t.Errorf("SensorAddr = %v, want %s", z.SensorAddr, first)
	}
}

func TestZoneIdxOutOfBoundsIsRejected(t *testing.T) {
	s := New(nil, nil)
	d := message.NewDecoder(0)
	s.Update(decodeLine(t, d, "045 RP --- 01:145038 18:000730 --:------ 30C9 003 000834"), time.Now())

	ctrl := s.Controller()
	if _, ok := ctrl.zone(MaxZoneIdx + 1); ok {
		t.Error("expected zone_idx beyond MaxZoneIdx to be rejected")
	}
	if _, ok := ctrl.zone(-1); ok {
		t.Error("expected negative zone_idx to be rejected")
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package filter

import (
	"testing"
	"time"

	"github.com/ramses-gw/ramses-gw/pkg/frame"
)

func mustPacket(t *testing.T, line string) *frame.Packet {
	t.Helper()
	p, drop := frame.Decode(line, time.Now())
	if drop != nil {
		t.Fatalf("failed to build test packet: %v", drop)
	}
	return p
}

func TestWhitelistAdmitsKnownDevice(t *testing.T) {
	g := New(Config{EnforceKnownList: true, KnownList: []string{"01:145038"}}, nil)
	p := mustPacket(t, "045  I --- 01:145038 --:------ 04:000001 1F09 003 FF073F")
	if !g.Admit(p) {
		t.Error("expected admit, got drop")
	}
}

func TestWhitelistDropsUnknownDevice(t *testing.T) {
	g := New(Config{EnforceKnownList: true, KnownList: []string{"01:145038"}}, nil)
	p := mustPacket(t, "045  I --- 30:111111 --:------ 30:222222 1F09 003 FF073F")
	if g.Admit(p) {
		t.Error("expected drop, got admit")
	}
}

func TestWhitelistAlwaysAdmitsAdapterClass(t *testing.T) {
	g := New(Config{EnforceKnownList: true, KnownList: []string{"01:145038"}}, nil)
	p := mustPacket(t, "045  I --- 18:000730 --:------ 30:222222 1F09 003 FF073F")
	if !g.Admit(p) {
		t.Error("expected admit for adapter class 18, got drop")
	}
}

func TestEmptyKnownListFallsBackToBlacklist(t *testing.T) {
	g := New(Config{EnforceKnownList: true, KnownList: nil, BlockList: []string{"30:222222"}}, nil)
	if g.enforceKnownList {
		t.Fatal("expected enforceKnownList to be downgraded to false")
	}
	admitted := mustPacket(t, "045  I --- 01:145038 --:------ 04:000001 1F09 003 FF073F")
	if !g.Admit(admitted) {
		t.Error("expected admit in fallback blacklist mode")
	}
	blocked := mustPacket(t, "045  I --- 30:222222 --:------ 04:000001 1F09 003 FF073F")
	if g.Admit(blocked) {
		t.Error("expected drop for blocked device")
	}
}

func TestBlacklistDropsBlockedDevice(t *testing.T) {
	g := New(Config{BlockList: []string{"30:222222"}}, nil)
	p := mustPacket(t, "045  I --- 30:222222 --:------ 04:000001 1F09 003 FF073F")
	if g.Admit(p) {
		t.Error("expected drop, got admit")
	}
}

func TestBlacklistDefaultAdmitsEverything(t *testing.T) {
	g := New(Config{}, nil)
	p := mustPacket(t, "045  I --- 30:222222 --:------ 04:000001 1F09 003 FF073F")
	if !g.Admit(p) {
		t.Error("expected admit by default")
	}
}

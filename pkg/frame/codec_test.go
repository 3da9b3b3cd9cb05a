// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package frame

import (
	"testing"
	"time"
)

func TestDecodeValidLine(t *testing.T) {
	line := "045  I --- 01:145038 --:------ 01:145038 1F09 003 FF073F"
	p, drop := Decode(line, time.Now())
	if drop != nil {
		t.Fatalf("unexpected drop: %v", drop)
	}
	if p.Verb != VerbInform {
		t.Errorf("verb = %q, want %q", p.Verb, VerbInform)
	}
	if p.Code != "1F09" {
		t.Errorf("code = %q, want 1F09", p.Code)
	}
	if p.Length != 3 {
		t.Errorf("length = %d, want 3", p.Length)
	}
	if p.PayloadHex() != "FF073F" {
		t.Errorf("payload = %q, want FF073F", p.PayloadHex())
	}
	if p.RSSI == nil || *p.RSSI != 45 {
		t.Errorf("rssi = %v, want 45", p.RSSI)
	}
	if p.Addresses[0].String() != "01:145038" || p.Addresses[2].String() != "01:145038" {
		t.Errorf("addresses = %v", p.Addresses)
	}
	if !p.Addresses[1].IsNone() {
		t.Errorf("addresses[1] should be the sentinel")
	}
}

func TestDecodeNullRSSI(t *testing.T) {
	line := "--- RQ --- 18:000730 01:145038 --:------ 000A 002 0000"
	p, drop := Decode(line, time.Now())
	if drop != nil {
		t.Fatalf("unexpected drop: %v", drop)
	}
	if p.RSSI != nil {
		t.Errorf("rssi = %v, want nil", p.RSSI)
	}
}

func TestDecodeAllSentinelAddressesDropped(t *testing.T) {
	line := "045  I --- --:------ --:------ --:------ 1F09 003 FF073F"
	_, drop := Decode(line, time.Now())
	if drop == nil || drop.Kind != DropMalformed {
		t.Fatalf("want DropMalformed, got %v", drop)
	}
}

func TestDecodePayloadLengthMismatch(t *testing.T) {
	line := "045  I --- 01:145038 --:------ 01:145038 1F09 003 FF07"
	_, drop := Decode(line, time.Now())
	if drop == nil || drop.Kind != DropMalformed {
		t.Fatalf("want DropMalformed, got %v", drop)
	}
}

func TestDecodeDiagnosticLine(t *testing.T) {
	for _, prefix := range []string{"*", "#"} {
		_, drop := Decode(prefix+" evofw3 booted", time.Now())
		if drop == nil || drop.Kind != DropDiagnostic {
			t.Fatalf("prefix %q: want DropDiagnostic, got %v", prefix, drop)
		}
	}
}

func TestDecodeEchoLine(t *testing.T) {
	_, drop := Decode("!RQ --- 18:000730 01:145038 --:------ 000A 002 0000", time.Now())
	if drop == nil || drop.Kind != DropEcho {
		t.Fatalf("want DropEcho, got %v", drop)
	}
}

func TestDecodeOversizeLine(t *testing.T) {
	huge := make([]byte, MaxLineLength+1)
	for i := range huge {
		huge[i] = 'A'
	}
	_, drop := Decode(string(huge), time.Now())
	if drop == nil || drop.Kind != DropMalformed {
		t.Fatalf("want DropMalformed, got %v", drop)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	// decode(encode(p)) == p, modulo RSSI/timestamp.
	line := "045  I --- 01:145038 --:------ 01:145038 1F09 003 FF073F"
	p, drop := Decode(line, time.Now())
	if drop != nil {
		t.Fatalf("unexpected drop: %v", drop)
	}
	encoded := p.Encode()
	// Encode drops RSSI; re-parse as an inbound line by prefixing one.
	p2, drop2 := Decode("--- "+encoded, time.Now())
	if drop2 != nil {
		t.Fatalf("re-decode failed: %v", drop2)
	}
	if p2.Verb != p.Verb || p2.Code != p.Code || p2.Length != p.Length || p2.PayloadHex() != p.PayloadHex() {
		t.Errorf("round trip mismatch: got %+v, want %+v", p2, p)
	}
	if p2.Addresses != p.Addresses {
		t.Errorf("round trip address mismatch: got %v, want %v", p2.Addresses, p.Addresses)
	}
}

func TestDecodeReplayLine(t *testing.T) {
	line := "2020-11-30T13:15:00.123456 045  I --- 01:145038 --:------ 01:145038 1F09 003 FF073F"
	p, drop := DecodeReplayLine(line)
	if drop != nil {
		t.Fatalf("unexpected drop: %v", drop)
	}
	if p.Code != "1F09" {
		t.Errorf("code = %q, want 1F09", p.Code)
	}
}

func TestDecodeReplayLineMissingMicroseconds(t *testing.T) {
	// A timestamp lacking microseconds is dropped, not a panic, and does
	// not affect the next line.
	line := "2020-11-30T13:15:00 045  I --- 01:145038 --:------ 01:145038 1F09 003 FF073F"
	_, drop := DecodeReplayLine(line)
	if drop == nil || drop.Kind != DropTimestamp {
		t.Fatalf("want DropTimestamp, got %v", drop)
	}
}

func TestDecodeNeverPanics(t *testing.T) {
	inputs := []string{
		"", " ", "\x00\x01\x02", "RQ", "I --- 01:145038",
		"045  I --- 01:145038 --:------ 01:145038 1F09 999 FF",
		"045  I --- 01:145038 --:------ 01:145038 ZZZZ 003 FF073F",
	}
	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Decode panicked on %q: %v", in, r)
				}
			}()
			Decode(in, time.Now())
		}()
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxZones != DefaultMaxZones {
		t.Errorf("MaxZones = %d, want %d", cfg.MaxZones, DefaultMaxZones)
	}
	if cfg.DutyCycle.Limit != 1.0 {
		t.Errorf("DutyCycle.Limit = %v, want 1.0", cfg.DutyCycle.Limit)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gw.json")
	if err := os.WriteFile(path, []byte(`{"serial_port":"/dev/ttyUSB0","max_zones":4}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SerialPort != "/dev/ttyUSB0" {
		t.Errorf("SerialPort = %q", cfg.SerialPort)
	}
	if cfg.MaxZones != 4 {
		t.Errorf("MaxZones = %d, want 4", cfg.MaxZones)
	}
}

func TestLoadFileSetsDisableSending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gw.json")
	if err := os.WriteFile(path, []byte(`{"input_file":"replay.log","disable_sending":true}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.DisableSending {
		t.Error("DisableSending = false, want true")
	}
}

func TestValidateRequiresExactlyOneSource(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error with neither serial_port nor input_file set")
	}
	cfg.SerialPort = "/dev/ttyUSB0"
	cfg.InputFile = "replay.log"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error with both set")
	}
}

func TestKnownDevicesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known.json")
	kd := KnownDevices{
		"01:145038": {Alias: "Controller"},
		"04:123456": {Alias: "Zone valve", Class: "04"},
		"07:999999": {Alias: "Spoofed sensor", Blacklist: true},
	}
	if err := kd.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadKnownDevices(path)
	if err != nil {
		t.Fatalf("LoadKnownDevices: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("loaded %d devices, want 3", len(loaded))
	}
	if loaded["01:145038"].Alias != "Controller" {
		t.Errorf("alias mismatch: %+v", loaded["01:145038"])
	}

	bl := loaded.Blacklist()
	if len(bl) != 1 || bl[0] != "07:999999" {
		t.Errorf("Blacklist() = %v", bl)
	}
	wl := loaded.Whitelist()
	if len(wl) != 2 {
		t.Errorf("Whitelist() = %v", wl)
	}
}

func TestLoadKnownDevicesMissingFileIsEmpty(t *testing.T) {
	kd, err := LoadKnownDevices(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadKnownDevices: %v", err)
	}
	if len(kd) != 0 {
		t.Errorf("expected empty map, got %d entries", len(kd))
	}
}

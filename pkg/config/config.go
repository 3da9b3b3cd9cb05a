// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config assembles the gateway's runtime configuration from
// flags and an optional JSON file, and builds the filter/known-device
// configuration the gateway's subsystems are constructed from.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultMaxZones is the zone index ceiling used when MaxZones is left
// at zero (0-based index, so 12 zones means indices 0..11).
const DefaultMaxZones = 12

// DutyCycle holds the duty-cycle settings. Limit is applied to the
// gateway's duty-cycle tracker. BitsPerByte and AdapterOverhead are
// loaded and defaulted here, but the tracker does not read them: it
// converts bytes into air time with the qos.BitsPerByte and
// qos.AdapterOverhead constants.
type DutyCycle struct {
	BitsPerByte     int     `json:"bits_per_byte,omitempty"`
	AdapterOverhead string  `json:"adapter_overhead,omitempty"` // a duration string, e.g. "3ms"
	Limit           float64 `json:"limit,omitempty"`            // fraction of the 60s window, e.g. 0.01 for 1%
}

// Config is the gateway's full runtime configuration.
type Config struct {
	SerialPort  string `json:"serial_port,omitempty"`
	InputFile   string `json:"input_file,omitempty"`
	PacketLog   string `json:"packet_log,omitempty"`
	MessageLog  string `json:"message_log,omitempty"`
	Database    string `json:"database,omitempty"`
	KnownDevices string `json:"known_devices,omitempty"`

	DeviceWhitelist  []string `json:"device_whitelist,omitempty"`
	EnforceKnownList bool     `json:"enforce_known_list,omitempty"`
	ProbeSystem      bool     `json:"probe_system,omitempty"`
	ExecuteCmd       string   `json:"execute_cmd,omitempty"`
	EvofwFlag        string   `json:"evofw_flag,omitempty"`

	// RawOutput is loaded from the config file but no command reads
	// it; it does not change what is printed or logged.
	RawOutput int `json:"raw_output,omitempty"`

	MaxZones       int  `json:"max_zones,omitempty"`
	DisableSending bool `json:"disable_sending,omitempty"`

	DutyCycle DutyCycle `json:"duty_cycle,omitempty"`

	MetricsAddr string `json:"metrics_addr,omitempty"`
}

// Load reads a JSON config file at path and applies defaults for any
// field left unset. A missing path is not an error; Defaults() alone is
// returned.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Defaults returns a Config populated with the gateway's default
// values, before any file or flag overrides are applied.
func Defaults() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.MaxZones == 0 {
		c.MaxZones = DefaultMaxZones
	}
	if c.DutyCycle.BitsPerByte == 0 {
		c.DutyCycle.BitsPerByte = 10
	}
	if c.DutyCycle.AdapterOverhead == "" {
		c.DutyCycle.AdapterOverhead = "3ms"
	}
	if c.DutyCycle.Limit == 0 {
		c.DutyCycle.Limit = 1.0
	}
}

// Validate checks the configuration is internally consistent: exactly
// one of SerialPort or InputFile must be set.
func (c *Config) Validate() error {
	if c.SerialPort == "" && c.InputFile == "" {
		return fmt.Errorf("config: one of serial_port or input_file is required")
	}
	if c.SerialPort != "" && c.InputFile != "" {
		return fmt.Errorf("config: serial_port and input_file are mutually exclusive")
	}
	if c.EnforceKnownList && len(c.DeviceWhitelist) == 0 && c.KnownDevices == "" {
		// Not fatal: the filter gate itself downgrades this to
		// pass-through with a logged warning. Validate only catches
		// structural errors, not policy fallbacks.
		return nil
	}
	return nil
}

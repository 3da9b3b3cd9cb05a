// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/ramses-gw/ramses-gw/pkg/config"
	"github.com/ramses-gw/ramses-gw/pkg/filter"
	"github.com/ramses-gw/ramses-gw/pkg/gateway"
)

// loadConfig merges the persistent --config file with the --port/
// --input/--metrics-addr flags (flags win when explicitly set). --baud
// is not merged into the Config; callers read baudRate directly.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	if portName != "" {
		cfg.SerialPort = portName
	}
	if inputFile != "" {
		cfg.InputFile = inputFile
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}
	return cfg, nil
}

// filterConfig builds a filter.Config from the loaded known-devices
// file and config flags, along with the known-devices themselves (for
// merging alias/blacklist annotations onto live entity.Device records).
func filterConfig(cfg *config.Config) (filter.Config, config.KnownDevices, error) {
	path := knownDevices
	if path == "" {
		path = cfg.KnownDevices
	}
	kd, err := config.LoadKnownDevices(path)
	if err != nil {
		return filter.Config{}, nil, err
	}
	return filter.Config{
		EnforceKnownList: cfg.EnforceKnownList,
		KnownList:        append(kd.Whitelist(), cfg.DeviceWhitelist...),
		BlockList:        kd.Blacklist(),
	}, kd, nil
}

// openSource opens the configured serial port or replay file as an
// io.ReadCloser, and a matching gateway.Sender (a discard sink when
// replaying a file, since sending commands against a historical replay
// makes no sense).
func openSource(cfg *config.Config) (io.ReadCloser, gateway.Sender, error) {
	if cfg.InputFile != "" {
		f, err := os.Open(cfg.InputFile)
		if err != nil {
			return nil, nil, fmt.Errorf("opening replay file %s: %w", cfg.InputFile, err)
		}
		return f, io.Discard.(gateway.Sender), nil
	}

	conn, err := OpenSerialConnection(cfg.SerialPort, baudRate)
	if err != nil {
		return nil, nil, &TransportError{Err: err}
	}
	return conn, conn, nil
}

func newGateway(cfg *config.Config) (*gateway.Gateway, error) {
	fc, kd, err := filterConfig(cfg)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	var archive *gateway.Archive
	if cfg.Database != "" {
		archive, err = gateway.OpenArchive(cfg.Database)
		if err != nil {
			return nil, err
		}
	}

	gw := gateway.New(gateway.Options{
		Log:            log,
		FilterConfig:   fc,
		Baud:           baudRate,
		Archive:        archive,
		DisableSending: cfg.DisableSending,
		Replay:         cfg.InputFile != "",
		Annotations:    kd,
	})
	gw.DutyCycle().SetLimit(cfg.DutyCycle.Limit)
	return gw, nil
}

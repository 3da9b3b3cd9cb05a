// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ramses-gw/ramses-gw/internal/logx"
)

var (
	// Global persistent flags, shared by every subcommand that opens a
	// transport or loads configuration.
	portName     string
	baudRate     int
	inputFile    string
	configFile   string
	knownDevices string
	metricsAddr  string

	log = logx.Default()
)

var rootCmd = &cobra.Command{
	Use:   "ramses-gw",
	Short: "RAMSES-II RF heating gateway",
	Long: `ramses-gw bridges a USB HGI adapter's serial line (or a websocket
relay, or a replay file) to the RAMSES-II RF heating protocol: decoding
frames into typed messages, maintaining an in-memory model of the
heating system, and dispatching outbound commands under a
quality-of-service discipline.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "input", "i", "", "Replay file instead of a live port")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Gateway config JSON file")
	rootCmd.PersistentFlags().StringVar(&knownDevices, "known-devices", "", "Known-devices JSON file")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Address to serve Prometheus /metrics on (disabled if empty)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

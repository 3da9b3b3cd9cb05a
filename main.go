// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// ramses-gw - RAMSES-II RF heating gateway
//
// Bridges a USB HGI adapter (or a websocket relay, or a replay file) to
// the RAMSES-II RF heating protocol: decoding frames, maintaining an
// in-memory model of the heating system, and dispatching outbound
// commands under a quality-of-service discipline.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ramses-gw/ramses-gw/cmd"
)

// Exit codes: 0 clean shutdown, 1 configuration error, 2 transport
// open failure, 3 unrecoverable I/O error during a run.
const (
	exitOK             = 0
	exitConfigError    = 1
	exitTransportError = 2
	exitIOError        = 3
)

func main() {
	err := cmd.Execute()
	if err == nil {
		os.Exit(exitOK)
	}

	fmt.Fprintln(os.Stderr, err)

	var configErr *cmd.ConfigError
	var transportErr *cmd.TransportError
	switch {
	case errors.As(err, &configErr):
		os.Exit(exitConfigError)
	case errors.As(err, &transportErr):
		os.Exit(exitTransportError)
	default:
		os.Exit(exitIOError)
	}
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import "fmt"

// ConfigError wraps a configuration-loading or validation failure:
// exit code 1.
type ConfigError struct{ Err error }

func (e *ConfigError) Error() string { return fmt.Sprintf("config: %v", e.Err) }
func (e *ConfigError) Unwrap() error { return e.Err }

// TransportError wraps a failure to open the configured serial port
// or websocket bridge: exit code 2.
type TransportError struct{ Err error }

func (e *TransportError) Error() string { return fmt.Sprintf("transport: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

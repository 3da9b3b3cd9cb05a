// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ramses-gw/ramses-gw/pkg/gateway"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Ingest a recorded packet log",
	Long: `replay feeds a previously captured packet/message log through the
decode/filter/entity pipeline exactly as listen would over a live
port, with sending disabled: the gateway rejects outbound commands at
Enqueue, since there is no live bus to transmit them on.`,
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	if inputFile == "" {
		return fmt.Errorf("replay requires --input")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.DisableSending = true

	gw, err := newGateway(cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(inputFile)
	if err != nil {
		return fmt.Errorf("opening replay file %s: %w", inputFile, err)
	}
	defer f.Close()

	sender := io.Discard.(gateway.Sender)
	gw.Attach(sender)

	fmt.Printf("ramses-gw replay: %s\n", inputFile)
	return gw.Run(f, sender)
}

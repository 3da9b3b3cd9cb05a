// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	relayURL           string
	relayUsername      string
	relaySkipSSLVerify bool
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Bridge a remote HGI over a websocket connection",
	Long: `relay dials --url (ws:// or wss://) instead of opening a local serial
port, and runs the same decode/filter/entity/QoS pipeline over that
connection. This is the client side of an external ser2net-style
relay: ramses-gw does not implement the relay server itself, only the
websocket bridge a client speaks to reach one.`,
	RunE: runRelay,
}

func init() {
	relayCmd.Flags().StringVar(&relayURL, "url", "", "ws:// or wss:// URL of the remote HGI bridge (required)")
	relayCmd.Flags().StringVar(&relayUsername, "username", "", "HTTP Basic auth username")
	relayCmd.Flags().BoolVar(&relaySkipSSLVerify, "insecure-skip-verify", false, "Skip TLS certificate verification for wss://")
	relayCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(relayCmd)
}

func runRelay(cmd *cobra.Command, args []string) error {
	password := ""
	if relayUsername != "" {
		var err error
		password, err = PromptPassword()
		if err != nil {
			return err
		}
	}

	conn, err := OpenWebSocketConnection(relayURL, relayUsername, password, relaySkipSSLVerify)
	if err != nil {
		return err
	}
	defer conn.Close()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gw, err := newGateway(cfg)
	if err != nil {
		return err
	}

	gw.Attach(conn)

	fmt.Printf("ramses-gw relay: %s\n", relayURL)
	return gw.Run(conn, conn)
}

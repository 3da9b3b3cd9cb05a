// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramses-gw/ramses-gw/pkg/frame"
	"github.com/ramses-gw/ramses-gw/pkg/qos"
)

var (
	sendVerb     string
	sendDest     string
	sendCode     string
	sendPayload  string
	sendPriority string
	sendRetries  int
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Enqueue a single outbound command",
	Long: `send builds one Command from --verb/--dest/--code/--payload, enqueues it
at --priority, opens the configured transport, and runs the gateway,
whose QoS dispatcher sends the command and retries it until a matching
reply arrives or the retry budget is exhausted. The gateway keeps
running after the command completes, until the input ends or the
process is interrupted.`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendVerb, "verb", "RQ", "Verb: RQ, W, or I")
	sendCmd.Flags().StringVar(&sendDest, "dest", "", "Destination device id, e.g. 01:145038 (required)")
	sendCmd.Flags().StringVar(&sendCode, "code", "", "4-hex-digit message code, e.g. 000A (required)")
	sendCmd.Flags().StringVar(&sendPayload, "payload", "00", "Payload as hex bytes")
	sendCmd.Flags().StringVar(&sendPriority, "priority", "default", "Priority: highest, high, default, low, lowest")
	sendCmd.Flags().IntVar(&sendRetries, "retries", qos.DefaultMaxRetries, "Retry budget (0 = fire-and-forget)")
	sendCmd.MarkFlagRequired("dest")
	sendCmd.MarkFlagRequired("code")
	rootCmd.AddCommand(sendCmd)
}

func parsePriority(s string) (qos.Priority, error) {
	switch s {
	case "highest":
		return qos.PriorityHighest, nil
	case "high":
		return qos.PriorityHigh, nil
	case "default":
		return qos.PriorityDefault, nil
	case "low":
		return qos.PriorityLow, nil
	case "lowest":
		return qos.PriorityLowest, nil
	default:
		return 0, fmt.Errorf("unknown priority %q", s)
	}
}

func parseVerb(s string) (frame.Verb, error) {
	switch s {
	case "RQ":
		return frame.VerbRequest, nil
	case "RP":
		return frame.VerbReply, nil
	case "W":
		return frame.VerbWrite, nil
	case "I":
		return frame.VerbInform, nil
	default:
		return "", fmt.Errorf("unsupported verb %q", s)
	}
}

func runSend(cmd *cobra.Command, args []string) error {
	verb, err := parseVerb(sendVerb)
	if err != nil {
		return err
	}

	dest, err := frame.ParseAddress(sendDest)
	if err != nil {
		return err
	}
	payload, err := hex.DecodeString(sendPayload)
	if err != nil {
		return fmt.Errorf("invalid --payload: %w", err)
	}
	priority, err := parsePriority(sendPriority)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gw, err := newGateway(cfg)
	if err != nil {
		return err
	}
	source, sender, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer source.Close()
	gw.Attach(sender)

	gatewayAddr := frame.Address{Class: "18", Serial: "000000"}
	command := qos.NewCommand(verb, [3]frame.Address{gatewayAddr, dest, {Class: "--", Serial: "------"}}, sendCode, payload, priority, time.Now())
	command.MaxRetries = sendRetries
	if err := gw.Enqueue(command); err != nil {
		return err
	}

	fmt.Printf("ramses-gw send: queued %s %s %s %s (handle %s)\n", sendVerb, dest, sendCode, sendPayload, command.Handle)
	return gw.Run(source, sender)
}

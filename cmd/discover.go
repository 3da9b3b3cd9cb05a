// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramses-gw/ramses-gw/pkg/frame"
	"github.com/ramses-gw/ramses-gw/pkg/qos"
)

var discoverTarget string

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Probe a controller for its zones and devices",
	Long: `discover issues a staged sequence of low-priority, fire-and-forget RQ
probes against --dest (the controller): zone/device schema (0005),
zone actuator roles (000C), device info (10E0), and a datetime sync
(313F). Replies update the entity store exactly as they would during
passive listening; discover only seeds the traffic.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringVar(&discoverTarget, "dest", "", "Controller device id, e.g. 01:145038 (when empty, the store's elected controller is used; the store is checked before the gateway reads any traffic, so without --dest the command fails)")
	rootCmd.AddCommand(discoverCmd)
}

// zoneSchemaTypes and zoneActuatorTypes mirror the original's
// _0005_ZONE_TYPE / _000C_DEVICE_TYPE probe tables: each is a 2-hex-digit
// zone-or-device-class selector sent as the 0005/000C payload.
var zoneSchemaTypes = []string{"00", "04", "08", "09", "0A", "0B", "0C", "0D", "0E", "0F"}
var zoneActuatorTypes = []string{"00", "04", "08", "09", "0A", "0B", "0C", "0D", "0E", "0F", "10", "11"}

func runDiscover(cmd *cobra.Command, args []string) error {
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

	var dest frame.Address
	if discoverTarget != "" {
		dest, err = frame.ParseAddress(discoverTarget)
		if err != nil {
			return err
		}
	} else {
		ctrl, err := gw.Store().RequireController()
		if err != nil {
			return fmt.Errorf("discover: --dest is required until a controller has been heard on the bus: %w", err)
		}
		dest = ctrl.Addr
	}

	gatewayAddr := frame.Address{Class: "18", Serial: "000000"}
	now := time.Now()
	addrs := [3]frame.Address{gatewayAddr, dest, {Class: "--", Serial: "------"}}

	queued := 0
	for _, t := range zoneSchemaTypes {
		queued += enqueueProbe(gw, addrs, "0005", []byte{0x00, mustHexByte(t)}, now)
	}
	for _, t := range zoneActuatorTypes {
		queued += enqueueProbe(gw, addrs, "000C", []byte{0x00, mustHexByte(t)}, now)
	}
	queued += enqueueProbe(gw, addrs, "10E0", []byte{0x00}, now)
	queued += enqueueProbe(gw, addrs, "313F", []byte{0x00}, now)

	fmt.Printf("ramses-gw discover: queued %d probes against %s\n", queued, dest)
	return gw.Run(source, sender)
}

func enqueueProbe(gw interface {
	Enqueue(*qos.Command) error
}, addrs [3]frame.Address, code string, payload []byte, now time.Time) int {
	cmd := qos.NewCommand(frame.VerbRequest, addrs, code, payload, qos.PriorityLow, now)
	cmd.MaxRetries = 0 // fire-and-forget, matching the original's scan QoS profile
	if err := gw.Enqueue(cmd); err != nil {
		log.Warnf("discover: %s probe dropped: %v", code, err)
		return 0
	}
	return 1
}

func mustHexByte(s string) byte {
	var b byte
	fmt.Sscanf(s, "%02X", &b)
	return b
}

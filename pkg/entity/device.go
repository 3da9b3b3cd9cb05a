// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package entity

import (
	"time"

	"github.com/ramses-gw/ramses-gw/pkg/frame"
	"github.com/ramses-gw/ramses-gw/pkg/message"
)

// Device is the running state accumulated for one RAMSES-II device
// address: its static class attributes plus the most recently observed
// dynamic fields.
type Device struct {
	Addr       frame.Address
	Class      message.DeviceClass
	FirstSeen  time.Time
	LastSeen   time.Time
	LastRSSI   *uint8
	BoundZone  *int    // zone_idx this device has been bound to as a sensor/actuator, if any
	BoundRole  string  // 000C role name that last bound BoundZone (informational; see BDRRole for the monotonic relay role)
	BDRRole    BDRRole // this relay's bound function, first-wins; empty until resolved
	InfoString string  // 10E0 self-reported description, if seen

	Alias     string // operator-assigned friendly name, from the known-devices file
	Blacklist bool   // operator-assigned blacklist flag, from the known-devices file

	LastTempC     *float64 // most recently reported temperature, if this device is a sensor
	LastSetpointC *float64
	LastDemandPC  *float64
	LastBatteryPC *float64 // nil until a 1060 with a non-0xFF level has been seen

	msgCount int
}

// DeviceAnnotations supplies operator annotations for a device id
// ("CC:SSSSSS") that are not derivable from the bus itself.
// config.KnownDevices implements this.
type DeviceAnnotations interface {
	Lookup(id string) (alias string, blacklist bool, ok bool)
}

func newDevice(addr frame.Address, now time.Time, annotations DeviceAnnotations) *Device {
	dc, known := message.LookupClass(addr.Class)
	if !known {
		dc = message.DeviceClass{Type: "???", Name: "Unknown"}
	}
	d := &Device{Addr: addr, Class: dc, FirstSeen: now, LastSeen: now}
	if annotations != nil {
		if alias, blacklist, ok := annotations.Lookup(addr.String()); ok {
			d.Alias, d.Blacklist = alias, blacklist
		}
	}
	return d
}

func (d *Device) touch(p *frame.Packet, now time.Time) {
	d.LastSeen = now
	d.LastRSSI = p.RSSI
	d.msgCount++
}

// MessageCount returns the number of messages this device has been
// source or destination of.
func (d *Device) MessageCount() int {
	return d.msgCount
}

// IsController reports whether this device's class can act as a
// system controller (TCS).
func (d *Device) IsController() bool {
	_, ok := message.ControllerClasses[d.Addr.Class]
	return ok
}

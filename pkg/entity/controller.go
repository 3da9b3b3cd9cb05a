// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package entity

import (
	"time"

	"github.com/ramses-gw/ramses-gw/pkg/frame"
	"github.com/ramses-gw/ramses-gw/pkg/message"
)

// Controller is the running state of one system controller (TCS): its
// zones, domains, DHW service, and recent fault log.
type Controller struct {
	Addr        frame.Address
	FirstSeen   time.Time
	LastSeen    time.Time
	SystemMode  string
	ControllerT time.Time // controller's last reported date/time (313F)

	Zones   map[int]*Zone
	Domains map[string]*Domain
	DHW     *DHW

	Faults []message.FaultLogEntry

	// Orphaned is set once a second, distinct controller address is seen
	// on the bus: rather than merging its state into this one, the
	// gateway routes its messages to a separate orphan side-table.
	Orphaned bool
}

func newController(addr frame.Address, now time.Time) *Controller {
	return &Controller{
		Addr:      addr,
		FirstSeen: now,
		LastSeen:  now,
		Zones:     map[int]*Zone{},
		Domains:   map[string]*Domain{},
		DHW:       &DHW{},
	}
}

func (c *Controller) touch(now time.Time) {
	c.LastSeen = now
}

// zone returns (creating if absent) the zone at idx; an idx below 0 or
// above MaxZoneIdx is rejected (nil, false). Callers must already hold
// the Store's lock.
func (c *Controller) zone(idx int) (*Zone, bool) {
	if idx < 0 || idx > MaxZoneIdx {
		return nil, false
	}
	z, ok := c.Zones[idx]
	if !ok {
		z = newZone(idx)
		c.Zones[idx] = z
	}
	return z, true
}

// domain returns (creating if absent) the domain with the given id.
func (c *Controller) domain(id string) *Domain {
	d, ok := c.Domains[id]
	if !ok {
		name := message.DomainNames[id]
		d = newDomain(id, name)
		c.Domains[id] = d
	}
	return d
}

func (c *Controller) recordFaults(entries []message.FaultLogEntry) {
	c.Faults = entries
}

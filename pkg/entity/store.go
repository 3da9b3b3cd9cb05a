// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package entity maintains the gateway's model of the heating system:
// devices, zones, domains, and the system controller, built up by
// applying decoded Messages as they arrive.
package entity

import (
	"errors"
	"sync"
	"time"

	"github.com/ramses-gw/ramses-gw/internal/logx"
	"github.com/ramses-gw/ramses-gw/pkg/frame"
	"github.com/ramses-gw/ramses-gw/pkg/message"
)

// ErrNoController is returned by RequireController when no controller
// has been elected yet: nothing has been seen on the bus with a
// controller-class address.
var ErrNoController = errors.New("entity: no controller elected yet")

// gatewayClass is the HGI adapter's own device class: it is recorded
// in Devices but never treated as a controller, zone member, or
// sensor/actuator binding target.
const gatewayClass = "18"

// Store is the gateway's entity model, safe for concurrent use. All
// state is guarded by a single RWMutex held across each Update/read
// call (never across a channel send or other blocking operation).
type Store struct {
	mu          sync.RWMutex
	devices     map[string]*Device
	controller  *Controller
	orphans     map[string]*Controller
	log         *logx.Logger
	annotations DeviceAnnotations
}

// New creates an empty Store. annotations may be nil (no alias/
// blacklist merge performed).
func New(log *logx.Logger, annotations DeviceAnnotations) *Store {
	if log == nil {
		log = logx.Default()
	}
	return &Store{devices: map[string]*Device{}, orphans: map[string]*Controller{}, log: log, annotations: annotations}
}

// Controller returns the store's elected system controller, or nil if
// none has been seen yet.
func (s *Store) Controller() *Controller {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controller
}

// RequireController returns the elected controller, or ErrNoController
// if none has been seen yet. Callers that need a default destination
// address for a command (rather than an explicit --dest) use this
// instead of nil-checking Controller themselves.
func (s *Store) RequireController() (*Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.controller == nil {
		return nil, ErrNoController
	}
	return s.controller, nil
}

// Orphans returns the controllers seen on the bus that were not
// elected the system controller (a second, distinct controller-class
// address), keyed by address string.
func (s *Store) Orphans() map[string]*Controller {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*Controller, len(s.orphans))
	for k, v := range s.orphans {
		out[k] = v
	}
	return out
}

// Device returns the device recorded for addr, if any.
func (s *Store) Device(addr string) (*Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[addr]
	return d, ok
}

// Devices returns a snapshot of all known devices.
func (s *Store) Devices() []*Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d)
	}
	return out
}

// Update applies a decoded Message to the store, creating devices,
// zones, domains, and the controller as needed. It never blocks and
// never returns an error for a message it simply has nothing to do
// with (an unrecognised code, or one carrying no Payload).
func (s *Store) Update(m *message.Message, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.touchDevice(m.Src, m.Packet, now)
	if !m.Dst.IsNone() && m.Dst.String() != m.Src.String() {
		s.touchDevice(m.Dst, m.Packet, now)
	}

	if src.Addr.Class == gatewayClass {
		// Invariant: the adapter's own traffic is observational only.
		return
	}

	s.applyDeviceReadings(src, m)

	ctrl := s.resolveController(m, now)
	if ctrl == nil || ctrl.Orphaned {
		return
	}
	ctrl.touch(now)

	s.applyPayload(ctrl, m, now)
}

func (s *Store) touchDevice(addr frame.Address, p *frame.Packet, now time.Time) *Device {
	if addr.IsNone() {
		return nil
	}
	key := addr.String()
	d, ok := s.devices[key]
	if !ok {
		d = newDevice(addr, now, s.annotations)
		s.devices[key] = d
	}
	d.touch(p, now)
	return d
}

// applyDeviceReadings stashes the subset of payload types that report a
// value about their own source device (as opposed to a zone or domain
// aggregate) onto that device's last-reported fields.
func (s *Store) applyDeviceReadings(src *Device, m *message.Message) {
	if src == nil {
		return
	}
	switch p := m.Payload.(type) {
	case message.ZoneTemperature:
		if p.Available {
			src.LastTempC = &p.TempC
		}
	case message.ZoneSetpoint:
		src.LastSetpointC = &p.SetpointC
	case message.HeatDemand:
		src.LastDemandPC = &p.DemandPC
	case message.RelayDemand:
		src.LastDemandPC = &p.DemandPC
	case message.ActuatorState:
		src.LastDemandPC = &p.ModulationPC
	case message.BatteryStatus:
		if p.Available {
			src.LastBatteryPC = &p.LevelPC
		}
	}
}

// resolveController implements the controller-uniqueness invariant: the
// first controller-class address seen is elected the system controller;
// any later, distinct controller-class address is orphaned rather than
// merged into it. Messages from non-controller devices are attributed
// to the existing controller (there is, by construction, at most one
// non-orphaned controller).
func (s *Store) resolveController(m *message.Message, now time.Time) *Controller {
	if _, isCtrlClass := message.ControllerClasses[m.Src.Class]; !isCtrlClass {
		return s.controller
	}

	if s.controller == nil {
		s.controller = newController(m.Src, now)
		return s.controller
	}
	if m.Src.String() == s.controller.Addr.String() {
		return s.controller
	}

	key := m.Src.String()
	orphan, ok := s.orphans[key]
	if !ok {
		orphan = newController(m.Src, now)
		orphan.Orphaned = true
		s.orphans[key] = orphan
		s.log.Warnf("entity: second controller %s seen, orphaning (active controller is %s)", key, s.controller.Addr)
	}
	orphan.touch(now)
	return orphan
}

// applyPayload folds one decoded payload into the controller's zones
// and domains. Unrecognised payload types are a no-op.
func (s *Store) applyPayload(ctrl *Controller, m *message.Message, now time.Time) {
	switch p := m.Payload.(type) {
	case message.ZoneTemperature:
		if z, ok := ctrl.zone(p.ZoneIdx); ok {
			z.applyTemperature(p.TempC, p.Available, now)
		}
	case message.ZoneSetpoint:
		if z, ok := ctrl.zone(p.ZoneIdx); ok {
			z.applySetpoint(p.SetpointC, now)
		}
	case message.ZoneParams:
		if z, ok := ctrl.zone(p.ZoneIdx); ok {
			z.MinTempC, z.MaxTempC = p.MinTempC, p.MaxTempC
		}
	case message.ZoneMode:
		if z, ok := ctrl.zone(p.ZoneIdx); ok {
			z.Mode, z.LastModeAt = p.Mode, now
		}
	case message.WindowState:
		if z, ok := ctrl.zone(p.ZoneIdx); ok {
			z.WindowOpen = p.Open
		}
	case message.HeatDemand:
		s.applyZoneOrDomainDemand(ctrl, p.ZoneIdx, p.DomainID, p.DemandPC, now)
	case message.RelayDemand:
		s.applyZoneOrDomainDemand(ctrl, p.ZoneIdx, p.DomainID, p.DemandPC, now)
	case message.ActuatorState:
		s.applyZoneOrDomainDemand(ctrl, p.ZoneIdx, p.DomainID, p.ModulationPC, now)
	case message.ZoneActuators:
		s.applyZoneActuators(ctrl, p, now)
	case message.DHWTemperature:
		ctrl.DHW.applyTemperature(p.TempC, p.Available, now)
	case message.DHWParams:
		ctrl.DHW.SetpointC, ctrl.DHW.OverrunMins, ctrl.DHW.DifferentialC = p.SetpointC, p.OverrunMins, p.DifferentialC
	case message.DHWMode:
		ctrl.DHW.applyMode(p.Active, p.Mode, now)
	case message.SystemMode:
		ctrl.SystemMode = p.Mode
	case message.DateTime:
		ctrl.ControllerT = p.When
	case message.FaultLog:
		ctrl.recordFaults(p.Entries)
	}
}

func (s *Store) applyZoneOrDomainDemand(ctrl *Controller, zoneIdx *int, domainID *string, pc float64, now time.Time) {
	switch {
	case zoneIdx != nil:
		if z, ok := ctrl.zone(*zoneIdx); ok {
			z.DemandPC, z.LastDemandAt = pc, now
		}
	case domainID != nil:
		ctrl.domain(*domainID).applyDemand(pc, now)
	}
}

// applyZoneActuators binds a zone or domain's actuator and sensor
// devices. A sensor binding is first-wins per device: a device already
// bound as a zone's sensor keeps that binding rather than silently
// moving to a second zone. A BDR relay's role, once resolved from the
// 000C role name, is likewise monotonic: the first definitive role
// wins and a later, contradictory role for the same device is logged
// but not applied.
func (s *Store) applyZoneActuators(ctrl *Controller, p message.ZoneActuators, now time.Time) {
	var z *Zone
	if p.ZoneIdx != nil {
		var ok bool
		z, ok = ctrl.zone(*p.ZoneIdx)
		if !ok {
			return
		}
	}

	bdrRole, isBDR := resolveBDRRole(p.Role, p.DomainID)

	for _, devAddr := range p.Devices {
		dev, known := s.devices[devAddr.String()]
		if !known {
			dev = newDevice(devAddr, now, s.annotations)
			s.devices[devAddr.String()] = dev
		}
		if dev.Addr.Class == gatewayClass {
			continue
		}

		if z != nil {
			if p.Role == "sensor" {
				if dev.BoundRole == "sensor" && dev.BoundZone != nil && *dev.BoundZone != z.Idx {
					s.log.Warnf("entity: device %s sensor binding to zone %d rejected, already sensor for zone %d", devAddr, z.Idx, *dev.BoundZone)
					continue
				}
				if !z.bindSensor(devAddr) {
					s.log.Warnf("entity: zone %d sensor binding %s rejected, already bound to %s", z.Idx, devAddr, z.SensorAddr)
					continue
				}
			} else {
				z.addActuator(devAddr)
			}
			idx := *p.ZoneIdx
			dev.BoundZone, dev.BoundRole = &idx, p.Role
		}

		if isBDR {
			if dev.BDRRole == "" {
				dev.BDRRole = bdrRole
			} else if dev.BDRRole != bdrRole {
				s.log.Warnf("entity: device %s BDR role %s rejected, already bound as %s", devAddr, bdrRole, dev.BDRRole)
			}
		}
	}
}

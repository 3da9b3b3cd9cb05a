// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package entity

import (
	"time"

	"github.com/ramses-gw/ramses-gw/pkg/frame"
)

// MaxZoneIdx is the highest permitted zone_idx (0-based), matching the
// original's DEFAULT_MAX_ZONES of 12 zones.
const MaxZoneIdx = 11

// Zone is the running state of one heating zone (0..MaxZoneIdx) within
// a controller's system.
type Zone struct {
	Idx int

	TempC          float64
	TempAvailable  bool
	LastTempAt     time.Time
	SetpointC      float64
	LastSetpointAt time.Time
	MinTempC       float64
	MaxTempC       float64
	WindowOpen     bool

	SensorAddr    *frame.Address // device bound as this zone's temperature sensor
	Actuators     []frame.Address
	DemandPC      float64
	LastDemandAt  time.Time

	Mode       string // 2349 scheduling mode: follow_schedule, advanced_override, permanent_override, countdown_override, temporary_override
	LastModeAt time.Time
}

func newZone(idx int) *Zone {
	return &Zone{Idx: idx}
}

func (z *Zone) applyTemperature(tempC float64, available bool, now time.Time) {
	z.TempC, z.TempAvailable, z.LastTempAt = tempC, available, now
}

func (z *Zone) applySetpoint(setpointC float64, now time.Time) {
	z.SetpointC, z.LastSetpointAt = setpointC, now
}

// bindSensor attempts to assign sensor as this zone's temperature
// sensor. The first definitive binding wins: it reports true and binds
// when no sensor is yet bound or sensor matches the existing one, and
// reports false, leaving SensorAddr unchanged, when a different sensor
// was already bound.
func (z *Zone) bindSensor(sensor frame.Address) bool {
	if z.SensorAddr != nil {
		return z.SensorAddr.String() == sensor.String()
	}
	z.SensorAddr = &sensor
	return true
}

func (z *Zone) addActuator(dev frame.Address) {
	for _, a := range z.Actuators {
		if a.String() == dev.String() {
			return
		}
	}
	z.Actuators = append(z.Actuators, dev)
}

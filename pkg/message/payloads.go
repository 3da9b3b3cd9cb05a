// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package message

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ramses-gw/ramses-gw/pkg/frame"
)

// Each payload type below implements Payload via the payloadMarker
// method; concrete types are the decoder registry's return values for
// their associated code(s).

// SystemSync is the 1F09 "system sync" payload: the remaining-time until
// the controller's next broadcast cycle.
type SystemSync struct {
	SyncIndicator byte
	RemainingMS   uint32
}

func (SystemSync) payloadMarker() {}

func decodeSystemSync(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 3 {
		return nil, fmt.Errorf("1F09: payload too short (%d)", len(p))
	}
	period := binary.BigEndian.Uint16(p[1:3])
	return SystemSync{SyncIndicator: p[0], RemainingMS: uint32(period) * 10}, nil
}

// ZoneTemperature is the 30C9 decoded payload: a zone's measured air
// temperature.
type ZoneTemperature struct {
	ZoneIdx int
	TempC   float64 // NaN-like sentinel 0x7FFF means "not available"; see Available
	Available bool
}

func (ZoneTemperature) payloadMarker() {}

func decodeZoneTemperature(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 3 {
		return nil, fmt.Errorf("30C9: payload too short (%d)", len(p))
	}
	raw := int16(binary.BigEndian.Uint16(p[1:3]))
	if uint16(raw) == 0x7FFF {
		return ZoneTemperature{ZoneIdx: int(p[0])}, nil
	}
	return ZoneTemperature{ZoneIdx: int(p[0]), TempC: float64(raw) / 100.0, Available: true}, nil
}

// ZoneSetpoint is the 2309 decoded payload: a zone's target temperature.
type ZoneSetpoint struct {
	ZoneIdx   int
	SetpointC float64
}

func (ZoneSetpoint) payloadMarker() {}

func decodeZoneSetpoint(verb frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if verb == frame.VerbRequest && len(p) < 3 {
		// an RQ names only the zone; it carries no setpoint to decode
		return nil, nil
	}
	if len(p) < 3 {
		return nil, fmt.Errorf("2309: payload too short (%d)", len(p))
	}
	raw := int16(binary.BigEndian.Uint16(p[1:3]))
	return ZoneSetpoint{ZoneIdx: int(p[0]), SetpointC: float64(raw) / 100.0}, nil
}

// ZoneParams is the 000A decoded payload: a zone's configured min/max
// setpoint bounds and local-override/multi-room-zone flags.
type ZoneParams struct {
	ZoneIdx          int
	LocalOverride    bool
	MultiRoomMode    bool
	OpenWindowEnable bool
	MinTempC         float64
	MaxTempC         float64
}

func (ZoneParams) payloadMarker() {}

func decodeZoneParams(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 6 {
		return nil, fmt.Errorf("000A: payload too short (%d)", len(p))
	}
	flags := p[1]
	return ZoneParams{
		ZoneIdx:          int(p[0]),
		LocalOverride:    flags&0x01 == 0,
		MultiRoomMode:    flags&0x02 == 0,
		OpenWindowEnable: flags&0x04 != 0,
		MinTempC:         float64(binary.BigEndian.Uint16(p[2:4])) / 100.0,
		MaxTempC:         float64(binary.BigEndian.Uint16(p[4:6])) / 100.0,
	}, nil
}

// HeatDemand is the 3150 decoded payload (zone heat demand): a 0-100%
// demand value, where the wire byte is a percentage scaled by 2
// (0xC8 == 100%).
type HeatDemand struct {
	ZoneIdx  *int
	DomainID *string
	DemandPC float64
}

func (HeatDemand) payloadMarker() {}

func decodeHeatDemand(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 2 {
		return nil, fmt.Errorf("3150: payload too short (%d)", len(p))
	}
	zd := ResolveZoneOrDomain(p[0])
	return HeatDemand{ZoneIdx: zd.ZoneIdx, DomainID: zd.DomainID, DemandPC: float64(p[1]) / 2.0}, nil
}

// RelayDemand is the 0008 decoded payload: a domain or zone's relay
// demand percentage.
type RelayDemand struct {
	ZoneIdx  *int
	DomainID *string
	DemandPC float64
}

func (RelayDemand) payloadMarker() {}

func decodeRelayDemand(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 2 {
		return nil, fmt.Errorf("0008: payload too short (%d)", len(p))
	}
	zd := ResolveZoneOrDomain(p[0])
	return RelayDemand{ZoneIdx: zd.ZoneIdx, DomainID: zd.DomainID, DemandPC: float64(p[1]) / 2.0}, nil
}

// ActuatorState is the 3EF1 decoded payload (RQ/RP actuator cycle
// query): modulation level and actuator type byte, per-zone or
// per-domain. The on/off cycle timing bytes are not decoded.
type ActuatorState struct {
	ZoneIdx     *int
	DomainID    *string
	ModulationPC float64
	ActuatorType byte
}

func (ActuatorState) payloadMarker() {}

func decodeActuatorState(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 7 {
		return nil, fmt.Errorf("3EF1: payload too short (%d)", len(p))
	}
	zd := ResolveZoneOrDomain(p[0])
	return ActuatorState{
		ZoneIdx:      zd.ZoneIdx,
		DomainID:     zd.DomainID,
		ModulationPC: float64(p[5]) / 2.0,
		ActuatorType: p[6],
	}, nil
}

// ActuatorCycle is the 3EF0 decoded payload (OTB broadcast modulation
// level): a single system-wide modulation percentage, not zone/domain
// scoped.
type ActuatorCycle struct {
	ModulationPC float64
}

func (ActuatorCycle) payloadMarker() {}

func decodeActuatorCycle(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 2 {
		return nil, fmt.Errorf("3EF0: payload too short (%d)", len(p))
	}
	return ActuatorCycle{ModulationPC: float64(p[1]) / 2.0}, nil
}

// RelayFailsafe is the 0009 decoded payload.
type RelayFailsafe struct {
	ZoneIdx        *int
	DomainID       *string
	FailsafeEnabled bool
}

func (RelayFailsafe) payloadMarker() {}

func decodeRelayFailsafe(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 3 {
		return nil, fmt.Errorf("0009: payload too short (%d)", len(p))
	}
	zd := ResolveZoneOrDomain(p[0])
	return RelayFailsafe{ZoneIdx: zd.ZoneIdx, DomainID: zd.DomainID, FailsafeEnabled: p[1] == 0xFF}, nil
}

// BindEntry is one (domain/zone, code, device) offer/request/confirm
// triplet inside a 1FC9 payload.
type BindEntry struct {
	ZoneIdx  *int
	DomainID *string
	Code     string
	Device   frame.Address
}

// Binding is the 1FC9 decoded payload: a list of binding entries.
type Binding struct {
	Entries []BindEntry
}

func (Binding) payloadMarker() {}

func decodeBinding(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	const entryLen = 6
	if len(p) == 0 || len(p)%entryLen != 0 {
		return nil, fmt.Errorf("1FC9: payload length %d is not a multiple of %d", len(p), entryLen)
	}
	var b Binding
	for i := 0; i+entryLen <= len(p); i += entryLen {
		zd := ResolveZoneOrDomain(p[i])
		code := fmt.Sprintf("%02X%02X", p[i+1], p[i+2])
		dev := frame.Address{
			Class:  fmt.Sprintf("%02d", p[i+3]),
			Serial: fmt.Sprintf("%06d", int(p[i+4])<<8|int(p[i+5])),
		}
		b.Entries = append(b.Entries, BindEntry{ZoneIdx: zd.ZoneIdx, DomainID: zd.DomainID, Code: code, Device: dev})
	}
	return b, nil
}

// DateTime is the 313F decoded payload: the controller's notion of the
// current date/time.
type DateTime struct {
	When time.Time
}

func (DateTime) payloadMarker() {}

func decodeDateTime(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 9 {
		return nil, fmt.Errorf("313F: payload too short (%d)", len(p))
	}
	// bytes: [status, min, hour, day, month, year_lo, year_hi, sec, dow]
	min, hour, day, month := int(p[1]), int(p[2]), int(p[3]), int(p[4])
	year := int(binary.LittleEndian.Uint16(p[5:7]))
	sec := int(p[7])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil, fmt.Errorf("313F: implausible date %04d-%02d-%02d", year, month, day)
	}
	return DateTime{When: time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)}, nil
}

// SystemMode is the 2E04 decoded payload.
type SystemMode struct {
	Mode string
}

func (SystemMode) payloadMarker() {}

var systemModeNames = map[byte]string{
	0x00: "auto", 0x01: "heat_off", 0x02: "eco_boost", 0x03: "away",
	0x04: "day_off", 0x05: "day_off_eco", 0x06: "auto_with_reset", 0x07: "custom",
}

func decodeSystemMode(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 1 {
		return nil, fmt.Errorf("2E04: empty payload")
	}
	name, ok := systemModeNames[p[0]]
	if !ok {
		name = fmt.Sprintf("unknown_0x%02X", p[0])
	}
	return SystemMode{Mode: name}, nil
}

// DHWTemperature is the 1260 decoded payload.
type DHWTemperature struct {
	DomainID string
	TempC    float64
	Available bool
}

func (DHWTemperature) payloadMarker() {}

func decodeDHWTemperature(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 3 {
		return nil, fmt.Errorf("1260: payload too short (%d)", len(p))
	}
	raw := int16(binary.BigEndian.Uint16(p[1:3]))
	if uint16(raw) == 0x7FFF {
		return DHWTemperature{DomainID: hexByte(p[0])}, nil
	}
	return DHWTemperature{DomainID: hexByte(p[0]), TempC: float64(raw) / 100.0, Available: true}, nil
}

// DHWParams is the 10A0 decoded payload.
type DHWParams struct {
	DomainID     string
	SetpointC    float64
	OverrunMins  int
	DifferentialC float64
}

func (DHWParams) payloadMarker() {}

func decodeDHWParams(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 6 {
		return nil, fmt.Errorf("10A0: payload too short (%d)", len(p))
	}
	return DHWParams{
		DomainID:      hexByte(p[0]),
		SetpointC:     float64(binary.BigEndian.Uint16(p[1:3])) / 100.0,
		OverrunMins:   int(p[3]),
		DifferentialC: float64(binary.BigEndian.Uint16(p[4:6])) / 100.0,
	}, nil
}

// DHWMode is the 1F41 decoded payload.
type DHWMode struct {
	DomainID string
	Active   bool
	Mode     string
}

func (DHWMode) payloadMarker() {}

var zoneModeNames = map[byte]string{
	0x00: "follow_schedule", 0x01: "advanced_override", 0x02: "permanent_override",
	0x03: "countdown_override", 0x04: "temporary_override",
}

func decodeDHWMode(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 3 {
		return nil, fmt.Errorf("1F41: payload too short (%d)", len(p))
	}
	mode := zoneModeNames[p[2]]
	if mode == "" {
		mode = fmt.Sprintf("unknown_0x%02X", p[2])
	}
	return DHWMode{DomainID: hexByte(p[0]), Active: p[1] == 0x01, Mode: mode}, nil
}

// WindowState is the 12B0 decoded payload: a zone's reported open-window
// state.
type WindowState struct {
	ZoneIdx int
	Open    bool
}

func (WindowState) payloadMarker() {}

func decodeWindowState(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 2 {
		return nil, fmt.Errorf("12B0: payload too short (%d)", len(p))
	}
	return WindowState{ZoneIdx: int(p[0]), Open: p[1] != 0x00}, nil
}

// ZoneMode is the 2349 decoded payload: a zone's current scheduling
// mode and setpoint.
type ZoneMode struct {
	ZoneIdx   int
	SetpointC float64
	Mode      string
}

func (ZoneMode) payloadMarker() {}

func decodeZoneMode(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 4 {
		return nil, fmt.Errorf("2349: payload too short (%d)", len(p))
	}
	raw := int16(binary.BigEndian.Uint16(p[1:3]))
	mode := zoneModeNames[p[3]]
	if mode == "" {
		mode = fmt.Sprintf("unknown_0x%02X", p[3])
	}
	return ZoneMode{ZoneIdx: int(p[0]), SetpointC: float64(raw) / 100.0, Mode: mode}, nil
}

// BatteryStatus is the 1060 decoded payload: a battery-powered device's
// remaining charge, per zone or domain scope.
type BatteryStatus struct {
	ZoneIdx    *int
	DomainID   *string
	LevelPC    float64
	Available  bool
	LowBattery bool // byte 2 == 0x00
}

func (BatteryStatus) payloadMarker() {}

func decodeBatteryStatus(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 3 {
		return nil, fmt.Errorf("1060: payload too short (%d)", len(p))
	}
	zd := ResolveZoneOrDomain(p[0])
	bs := BatteryStatus{ZoneIdx: zd.ZoneIdx, DomainID: zd.DomainID, LowBattery: p[2] == 0x00}
	if p[1] != 0xFF {
		bs.LevelPC, bs.Available = float64(p[1])/2.0, true
	}
	return bs, nil
}

// ZoneSchema is the 0005 decoded payload: a bitmask of which zones have
// a given configured role.
type ZoneSchema struct {
	ZoneType string
	ZoneMask uint16
}

func (ZoneSchema) payloadMarker() {}

var zoneSchemaTypeNames = map[byte]string{
	0x00: "configured_zones", 0x04: "configured_zones_alt", 0x08: "radiator_valve",
	0x09: "underfloor_heating", 0x0A: "zone_valve", 0x0B: "mixing_valve",
	0x0D: "hotwater_sensor", 0x0E: "hotwater_valve", 0x0F: "heating_control",
	0x11: "electric_heat",
}

func decodeZoneSchema(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 3 {
		return nil, fmt.Errorf("0005: payload too short (%d)", len(p))
	}
	name := zoneSchemaTypeNames[p[0]]
	if name == "" {
		name = fmt.Sprintf("unknown_0x%02X", p[0])
	}
	return ZoneSchema{ZoneType: name, ZoneMask: binary.BigEndian.Uint16(p[1:3])}, nil
}

// ZoneActuators is the 000C decoded payload: the actuator/sensor device
// list bound to a zone or domain role.
type ZoneActuators struct {
	ZoneIdx  *int
	DomainID *string
	Role     string
	Devices  []frame.Address
}

func (ZoneActuators) payloadMarker() {}

var zoneActuatorRoleNames = map[byte]string{
	0x00: "zone_actuators", 0x04: "sensor", 0x08: "rad_actuators", 0x09: "ufh_actuators",
	0x0A: "val_actuators", 0x0B: "mix_actuators", 0x0D: "hotwater_sensor",
	0x0E: "hotwater_valve", 0x0F: "heating_control", 0x11: "ele_actuators",
}

func decodeZoneActuators(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 2 {
		return nil, fmt.Errorf("000C: payload too short (%d)", len(p))
	}
	zd := ResolveZoneOrDomain(p[0])
	role := zoneActuatorRoleNames[p[1]]
	if role == "" {
		role = fmt.Sprintf("unknown_0x%02X", p[1])
	}
	za := ZoneActuators{ZoneIdx: zd.ZoneIdx, DomainID: zd.DomainID, Role: role}
	for i := 2; i+3 <= len(p); i += 3 {
		za.Devices = append(za.Devices, frame.Address{
			Class:  fmt.Sprintf("%02d", p[i]),
			Serial: fmt.Sprintf("%06d", int(p[i+1])<<8|int(p[i+2])),
		})
	}
	return za, nil
}

// DeviceInfo is the 10E0 decoded payload: a device's self-reported
// description string.
type DeviceInfo struct {
	Description string
}

func (DeviceInfo) payloadMarker() {}

func decodeDeviceInfo(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 1 {
		return nil, fmt.Errorf("10E0: empty payload")
	}
	return DeviceInfo{Description: fmt.Sprintf("%X", p)}, nil
}

// FaultLogEntry is one entry decoded from a reassembled 0418 fault log
// payload, per the original's _0418_DEVICE_CLASS/_0418_FAULT_STATE/
// _0418_FAULT_TYPE (ramses_rf/const.py).
type FaultLogEntry struct {
	LogIdx      int
	FaultState  string
	FaultType   string
	DeviceClass string
	Device      frame.Address
}

// FaultLog is the fully reassembled 0418 decoded payload.
type FaultLog struct {
	Entries []FaultLogEntry
}

func (FaultLog) payloadMarker() {}

var faultStateNames = map[byte]string{0x00: "fault", 0x40: "restore", 0xC0: "unknown_c0"}
var faultTypeNames = map[byte]string{0x01: "system_fault", 0x03: "mains_low", 0x04: "battery_low", 0x06: "comms_fault", 0x0A: "sensor_error"}
var faultDeviceClassNames = map[byte]string{0x00: "controller", 0x01: "sensor", 0x04: "actuator", 0x05: "dhw_sensor", 0x06: "remote_gateway"}

// decodeFaultLog decodes a fully-reassembled 0418 payload. Entry layout
// (per reverse-engineered evohome 0418 records, 22 bytes/entry after a
// 2-byte header): [log_idx(2) state(1) type(1) ... device_class(1) ...
// device(3)].
func decodeFaultLog(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	const entryLen = 22
	if len(p) < 2 {
		return nil, fmt.Errorf("0418: payload too short (%d)", len(p))
	}
	var fl FaultLog
	for off := 2; off+entryLen <= len(p); off += entryLen {
		e := p[off : off+entryLen]
		fl.Entries = append(fl.Entries, FaultLogEntry{
			LogIdx:      int(binary.BigEndian.Uint16(e[0:2])),
			FaultState:  lookupOr(faultStateNames, e[2], "unknown"),
			FaultType:   lookupOr(faultTypeNames, e[3], "unknown"),
			DeviceClass: lookupOr(faultDeviceClassNames, e[4], "unknown"),
			Device: frame.Address{
				Class:  fmt.Sprintf("%02d", e[19]),
				Serial: fmt.Sprintf("%06d", int(e[20])<<8|int(e[21])),
			},
		})
	}
	return fl, nil
}

func lookupOr(m map[byte]string, k byte, def string) string {
	if v, ok := m[k]; ok {
		return v
	}
	return def
}

// Schedule is the fully reassembled 0404 decoded payload: the zone's
// raw schedule blob, which callers further decode per the
// controller-family-specific schedule encoding (out of scope for the
// core protocol decoder).
type Schedule struct {
	ZoneIdx int
	Raw     []byte
}

func (Schedule) payloadMarker() {}

func decodeSchedule(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	if len(p) < 1 {
		return nil, fmt.Errorf("0404: payload too short (%d)", len(p))
	}
	raw := make([]byte, len(p)-1)
	copy(raw, p[1:])
	return Schedule{ZoneIdx: int(p[0]), Raw: raw}, nil
}

// Puzzle is the 7FFF decoded payload: an opaque diagnostic marker
// packet used by tooling (e.g. discovery scans stamping a start/end
// marker) that carries no domain semantics of its own.
type Puzzle struct {
	Raw []byte
}

func (Puzzle) payloadMarker() {}

func decodePuzzle(_ frame.Verb, _ int, p []byte, _ [3]frame.Address) (Payload, error) {
	raw := make([]byte, len(p))
	copy(raw, p)
	return Puzzle{Raw: raw}, nil
}

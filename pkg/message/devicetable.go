// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package message

// DeviceClass describes the static, per-class attributes of a RAMSES-II
// device, ported from the original's DEVICE_TABLE (ramses_rf/const.py).
type DeviceClass struct {
	Type          string // short type code, e.g. "CTL", "TRV"
	Name          string // human name
	HasBattery    bool
	HasZoneSensor bool // can be bound as a zone's sensor
	IsActuator    bool
	IsController  bool
	IsSensor      bool
	Archetype     string
	PollCodes     []string
}

// DeviceTable maps a 2-digit device class to its static attributes.
var DeviceTable = map[string]DeviceClass{
	"00": {Type: "TRv", Name: "Radiator Valve", HasBattery: true, HasZoneSensor: true, IsActuator: true, IsSensor: true, Archetype: "HR92"},
	"01": {Type: "CTL", Name: "Controller", IsController: true, IsSensor: true, Archetype: "ATC928", PollCodes: []string{"000C", "10E0", "1100", "313F"}},
	"02": {Type: "UFC", Name: "UFH Controller", Archetype: "HCE80(R)"},
	"03": {Type: "STA", Name: "Room Sensor/Stat", HasBattery: true, HasZoneSensor: true, IsSensor: true, Archetype: "HCW82"},
	"04": {Type: "TRV", Name: "Radiator Valve", HasBattery: true, HasZoneSensor: true, IsActuator: true, IsSensor: true, Archetype: "HR92"},
	"07": {Type: "DHW", Name: "DHW Sensor", HasBattery: true, IsSensor: true, Archetype: "CS92A"},
	"08": {Type: "JIM", Name: "HVAC interface"},
	"10": {Type: "OTB", Name: "OpenTherm Bridge", Archetype: "R8810", PollCodes: []string{"0008", "10A0", "1100", "1260", "1290", "22D9", "3150", "3220", "3EF0", "3EF1"}},
	"12": {Type: "THm", Name: "Room Thermostat", HasBattery: true, HasZoneSensor: true, IsSensor: true, Archetype: "DTS92(E)"},
	"13": {Type: "BDR", Name: "Wireless Relay", Archetype: "BDR91", PollCodes: []string{"0008", "1100", "3EF1"}},
	"17": {Type: " 17", Name: "Outdoor Sensor?"},
	"18": {Type: "HGI", Name: "Gateway Adapter", Archetype: "HGI80"},
	"20": {Type: "VCE", Name: "HVAC unit"},
	"22": {Type: "THM", Name: "Room Thermostat", HasBattery: true, HasZoneSensor: true, IsSensor: true, Archetype: "DTS92(E)"},
	"23": {Type: "PRG", Name: "Programmer (wired)", IsController: true, IsSensor: true, Archetype: "ST9420C"},
	"30": {Type: "GWY", Name: "Internet Gateway"},
	"31": {Type: "JST", Name: "HVAC stat"},
	"32": {Type: "VMS", Name: "HVAC sensor/switch"},
	"34": {Type: "STA", Name: "Round Thermostat", HasBattery: true, HasZoneSensor: true, IsSensor: true, Archetype: "T87RF"},
	"37": {Type: " 37", Name: "HVAC unit"},
	"39": {Type: "VMS", Name: "HVAC sensor/switch"},
	"49": {Type: " 49", Name: "HVAC switch"},
	"63": {Type: "NUL", Name: "Null Device"},
	"--": {Type: "---", Name: "No Device"},
}

// ControllerClasses are the device classes that may be elected the
// system controller/TCS.
var ControllerClasses = map[string]struct{}{"01": {}, "23": {}}

// ZoneSensorClasses are device classes with HasZoneSensor set, i.e.
// eligible to be bound as a zone's sensor.
func ZoneSensorClasses() map[string]struct{} {
	out := map[string]struct{}{}
	for class, dc := range DeviceTable {
		if dc.HasZoneSensor {
			out[class] = struct{}{}
		}
	}
	return out
}

// LookupClass returns the DeviceClass for class, and whether it is known.
func LookupClass(class string) (DeviceClass, bool) {
	dc, ok := DeviceTable[class]
	return dc, ok
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package message

import "github.com/ramses-gw/ramses-gw/pkg/frame"

// decodeFunc decodes a packet's raw payload bytes into a typed Payload.
// verb and length are passed alongside the payload since a few codes
// vary shape by verb (RQ payloads are often a bare zone/domain byte,
// while the matching RP carries the full record).
type decodeFunc func(verb frame.Verb, length int, payload []byte, addrs [3]frame.Address) (Payload, error)

// registry maps a 4-hex-digit code to its decoder. Codes absent from
// this table decode to a nil Payload with Valid left true: the message
// carries its Code, addresses, and raw packet, but no typed payload.
var registry = map[string]decodeFunc{
	"1F09": decodeSystemSync,
	"30C9": decodeZoneTemperature,
	"2309": decodeZoneSetpoint,
	"000A": decodeZoneParams,
	"3150": decodeHeatDemand,
	"0008": decodeRelayDemand,
	"0009": decodeRelayFailsafe,
	"3EF1": decodeActuatorState,
	"3EF0": decodeActuatorCycle,
	"1FC9": decodeBinding,
	"313F": decodeDateTime,
	"2E04": decodeSystemMode,
	"1260": decodeDHWTemperature,
	"10A0": decodeDHWParams,
	"1F41": decodeDHWMode,
	"12B0": decodeWindowState,
	"0005": decodeZoneSchema,
	"000C": decodeZoneActuators,
	"2349": decodeZoneMode,
	"1060": decodeBatteryStatus,
	"10E0": decodeDeviceInfo,
	"0418": decodeFaultLog,
	"0404": decodeSchedule,
	"7FFF": decodePuzzle,
}

// lookupDecoder returns the decoder registered for code, if any.
func lookupDecoder(code string) (decodeFunc, bool) {
	fn, ok := registry[code]
	return fn, ok
}

// fragmentCodes are the codes whose RP payload may arrive as an
// ordered set of fragments rather than a single packet.
var fragmentCodes = map[string]struct{}{
	"0404": {},
	"0418": {},
}

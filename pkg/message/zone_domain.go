// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package message

// MayUseZoneIdx is the set of codes whose first payload byte is a
// zone_idx/domain_id selector, ported from the original's
// MAY_USE_ZONE_IDX (ramses_rf/const.py).
var MayUseZoneIdx = map[string]struct{}{
	"0001": {}, "0004": {}, "0008": {}, "0009": {}, "000A": {},
	"01D0": {}, "01E9": {}, "0404": {}, "1030": {}, "1060": {},
	"12B0": {}, "1FC9": {}, "2249": {}, "2309": {}, "2349": {},
	"30C9": {}, "3150": {}, "3EF1": {},
}

// DomainNames maps a domain_id byte to its human name, ported from
// DOMAIN_TYPE_MAP in the original.
var DomainNames = map[string]string{
	"F8": "",
	"F9": "heating_valve",
	"FA": "hotwater_valve",
	"FB": "",
	"FC": "heating_control",
	"FD": "unknown",
}

// ZoneOrDomain resolves the first payload byte (as its two hex
// characters) into either a zone index or a domain id: values < 0xF0
// are a zone_idx, F9/FA/FC/FD map to named domains, FF is the
// system-wide scope (represented as a domain id so callers can
// distinguish it from "absent").
type ZoneOrDomain struct {
	ZoneIdx  *int
	DomainID *string
}

// ResolveZoneOrDomain decodes the first byte of a zone/domain-scoped
// payload.
func ResolveZoneOrDomain(b byte) ZoneOrDomain {
	if b < 0xF0 {
		idx := int(b)
		return ZoneOrDomain{ZoneIdx: &idx}
	}
	id := hexByte(b)
	return ZoneOrDomain{DomainID: &id}
}

func hexByte(b byte) string {
	const hexDigits = "0123456789ABCDEF"
	return string([]byte{hexDigits[b>>4], hexDigits[b&0xF]})
}

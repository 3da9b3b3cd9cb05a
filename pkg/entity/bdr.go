// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package entity

// BDRRole is a BDR relay's bound function, ported from the original's
// BDR_ROLES (ramses_rf/const.py), which maps a relay's wire-level role
// index to one of six named functions.
type BDRRole string

const (
	BDRHeatingControl  BDRRole = "htg_control"
	BDRHeatingPump     BDRRole = "htg_pump"
	BDRDHWValve        BDRRole = "dhw_valve"
	BDRDHWValveHeating BDRRole = "dhw_valve_htg"
	BDRZoneValve       BDRRole = "zone_valve"
	BDRElectricHeat    BDRRole = "electric_heat"
)

// resolveBDRRole maps a 000C role name plus its domain_id (if any) onto
// a BDRRole, mirroring _000C_DEVICE_TYPE's DHW/HTG entries: the
// "hotwater_valve" selector means dhw_valve_htg under domain F9 and
// dhw_valve under domain FA, and "heating_control"/"ele_actuators" are
// always domain-scoped relay roles. Zone-scoped valve actuators
// ("val_actuators") report zone_valve per device. Roles with no BDR
// equivalent (sensors, the generic zone_actuators probe reply) report
// ok=false. htg_pump has no distinct 000C selector in this corpus, so
// it is never produced here.
func resolveBDRRole(role string, domainID *string) (BDRRole, bool) {
	switch role {
	case "heating_control":
		return BDRHeatingControl, true
	case "ele_actuators", "electric_heat":
		return BDRElectricHeat, true
	case "val_actuators", "zone_valve":
		return BDRZoneValve, true
	case "hotwater_valve":
		if domainID != nil && *domainID == "F9" {
			return BDRDHWValveHeating, true
		}
		return BDRDHWValve, true
	default:
		return "", false
	}
}

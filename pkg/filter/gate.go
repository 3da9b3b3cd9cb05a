// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package filter implements FilterGate: an allow/block
// decision over a Packet's three device addresses, keyed on the address
// triple alone. FilterGate never inspects the payload and its admittance
// decision is a pure, cacheable function of the addresses.
package filter

import (
	"github.com/ramses-gw/ramses-gw/internal/logx"
	"github.com/ramses-gw/ramses-gw/pkg/frame"
)

// gatewayClass is the device class of the HGI adapter itself; it is
// always admitted under whitelist mode.
const gatewayClass = "18"

// Gate is a FilterGate instance. The zero value is a pass-through
// blacklist gate with empty lists.
type Gate struct {
	enforceKnownList bool
	knownList        map[string]struct{}
	blockList        map[string]struct{}
	log              *logx.Logger
}

// Config configures a Gate: either a whitelist (EnforceKnownList=true,
// KnownList non-empty) or a blacklist (the default).
type Config struct {
	EnforceKnownList bool
	KnownList        []string
	BlockList        []string
}

// New builds a Gate from cfg. Mirrors the original's
// select_device_filter_mode (ramses_rf/protocol/schemas.py): an empty
// known_list with EnforceKnownList set is downgraded to pass-through
// blacklist mode, with a warning, rather than blocking everything.
func New(cfg Config, log *logx.Logger) *Gate {
	if log == nil {
		log = logx.Default()
	}
	g := &Gate{log: log}

	g.knownList = toSet(cfg.KnownList)
	g.blockList = toSet(cfg.BlockList)

	enforce := cfg.EnforceKnownList
	if enforce && len(g.knownList) == 0 {
		log.Warnf("filter: empty known_list provided; cannot enforce it as a whitelist, falling back to block_list filtering")
		enforce = false
	}
	g.enforceKnownList = enforce

	switch {
	case enforce:
		log.Infof("filter: known_list enforced as a whitelist, length=%d", len(g.knownList))
	case len(g.blockList) > 0:
		log.Infof("filter: block_list enforced as a blacklist, length=%d", len(g.blockList))
	case len(g.knownList) > 0:
		log.Warnf("filter: known_list provided but not enforced; consider enabling enforce_known_list")
	default:
		log.Warnf("filter: no known_list or block_list provided; all devices will be admitted")
	}

	return g
}

func toSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

// Admit reports whether p should be admitted into the pipeline.
//
// Whitelist mode: admit iff at least one non-sentinel address is in the
// known list, or any address belongs to device class "18" (the adapter
// itself).
//
// Blacklist mode (default): admit unless any address appears in the
// block list.
func (g *Gate) Admit(p *frame.Packet) bool {
	if g.enforceKnownList {
		for _, a := range p.Addresses {
			if a.IsNone() {
				continue
			}
			if a.Class == gatewayClass {
				return true
			}
			if _, ok := g.knownList[a.String()]; ok {
				return true
			}
		}
		return false
	}

	for _, a := range p.Addresses {
		if a.IsNone() {
			continue
		}
		if _, blocked := g.blockList[a.String()]; blocked {
			return false
		}
	}
	return true
}

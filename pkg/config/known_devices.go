// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// KnownDevice is one entry in the known-devices file: an operator's
// annotation of a device id, independent of anything the gateway has
// observed on the bus.
type KnownDevice struct {
	Alias     string `json:"alias,omitempty"`
	Class     string `json:"class,omitempty"`
	Blacklist bool   `json:"blacklist,omitempty"`
	Faked     bool   `json:"faked,omitempty"`
}

// KnownDevices is the known-devices file: device id ("CC:SSSSSS") to
// its annotation.
type KnownDevices map[string]KnownDevice

// LoadKnownDevices reads a known-devices JSON file. A missing path
// yields an empty, non-nil map.
func LoadKnownDevices(path string) (KnownDevices, error) {
	if path == "" {
		return KnownDevices{}, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return KnownDevices{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading known devices %s: %w", path, err)
	}
	var kd KnownDevices
	if err := json.Unmarshal(data, &kd); err != nil {
		return nil, fmt.Errorf("config: parsing known devices %s: %w", path, err)
	}
	return kd, nil
}

// Save writes kd to path as JSON with stable (sorted) key order and
// 4-space indentation, so repeated saves produce minimal diffs.
func (kd KnownDevices) Save(path string) error {
	ids := make([]string, 0, len(kd))
	for id := range kd {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, id := range ids {
		entry, err := json.Marshal(kd[id])
		if err != nil {
			return fmt.Errorf("config: marshalling %s: %w", id, err)
		}
		fmt.Fprintf(&buf, "    %q: %s", id, entry)
		if i < len(ids)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Whitelist returns the device ids not marked Blacklist, suitable as a
// filter.Config.KnownList.
func (kd KnownDevices) Whitelist() []string {
	var ids []string
	for id, d := range kd {
		if !d.Blacklist {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Lookup implements entity.DeviceAnnotations.
func (kd KnownDevices) Lookup(id string) (alias string, blacklist bool, ok bool) {
	d, ok := kd[id]
	return d.Alias, d.Blacklist, ok
}

// Blacklist returns the device ids marked Blacklist, suitable as a
// filter.Config.BlockList.
func (kd KnownDevices) Blacklist() []string {
	var ids []string
	for id, d := range kd {
		if d.Blacklist {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

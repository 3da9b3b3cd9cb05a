// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package frame implements the RAMSES-II wire grammar: decoding an ASCII
// line from the HGI adapter into a structurally-valid Packet, and encoding
// a Packet back into the wire line a command needs to be sent as.
package frame

import "regexp"

// Verb is one of the four RAMSES-II verbs.
type Verb string

// The four verbs, space-padded to two characters as they appear on the
// wire.
const (
	VerbInform  Verb = " I"
	VerbRequest Verb = "RQ"
	VerbReply   Verb = "RP"
	VerbWrite   Verb = " W"
)

// MaxLineLength is the largest ASCII line FrameCodec will attempt to
// parse.
const MaxLineLength = 200

// MinPayloadLen and MaxPayloadLen bound the declared payload length in
// bytes.
const (
	MinPayloadLen = 1
	MaxPayloadLen = 48
)

// NoDevice is the sentinel address meaning "no device".
const NoDevice = "--:------"

// replayTimestampLayout is the layout replayed lines are timestamped
// with.
const replayTimestampLayout = "2006-01-02T15:04:05.000000"

// grammar, built from the same field regexes as the original Python
// source (ramses_rf/const.py): RSSI, verb, device id, code, length,
// payload.
const (
	reRSSI    = `(---|\.\.\.|[0-9]{3})`
	reVerb    = `( I|RP|RQ| W)`
	reDevice  = `(--:------|[0-9]{2}:[0-9]{6})`
	reCode    = `[0-9A-F]{4}`
	reLen     = `[0-9]{3}`
	rePayload = `([0-9A-F]{2}){1,48}`
)

// MessageRegex matches a complete inbound line: RSSI VERB SEQ DEV DEV DEV
// CODE LEN PAYLOAD. The "SEQ" field is either "---" or three decimal
// digits; it is informational sequence numbering from the adapter and
// is not otherwise interpreted.
//
// Capture groups: 1=RSSI 2=Verb 3=Dev0 4=Dev1 5=Dev2 6=Code 7=Len 8=Payload.
var MessageRegex = regexp.MustCompile(
	`^` + reRSSI + ` ` + reVerb + ` (?:---|[0-9]{3}) ` +
		reDevice + ` ` + reDevice + ` ` + reDevice + ` ` +
		`(` + reCode + `) (` + reLen + `) (` + rePayload + `)$`,
)

// CommandRegex matches an outbound command line (no RSSI field).
//
// Capture groups: 1=Verb 2=Dev0 3=Dev1 4=Dev2 5=Code 6=Len 7=Payload.
var CommandRegex = regexp.MustCompile(
	`^` + reVerb + ` (?:---|[0-9]{3}) ` +
		reDevice + ` ` + reDevice + ` ` + reDevice + ` ` +
		`(` + reCode + `) (` + reLen + `) (` + rePayload + `)$`,
)

// ReplayLineRegex matches one line of a replay file: an ISO8601
// timestamp with microseconds, a space, then a wire line.
var ReplayLineRegex = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{6}) (.+)$`,
)

// deviceIDRegex validates a single "CC:SSSSSS" device identifier.
var deviceIDRegex = regexp.MustCompile(`^` + reDevice + `$`)

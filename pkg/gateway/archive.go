// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package gateway

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ramses-gw/ramses-gw/pkg/frame"
)

// Archive is an optional sink that persists every admitted packet to a
// SQLite database, one row per frame, for later offline analysis. No
// command of this gateway reads the archive back.
type Archive struct {
	db *sql.DB
}

const createArchiveTable = `
CREATE TABLE IF NOT EXISTS packets (
	ts      INTEGER NOT NULL,
	rssi    INTEGER,
	verb    TEXT NOT NULL,
	seq     TEXT,
	addr0   TEXT NOT NULL,
	addr1   TEXT NOT NULL,
	addr2   TEXT NOT NULL,
	code    TEXT NOT NULL,
	len     INTEGER NOT NULL,
	payload TEXT NOT NULL
)`

// OpenArchive opens (creating if necessary) a SQLite database at path
// and ensures the packets table exists.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("gateway: opening archive %s: %w", path, err)
	}
	if _, err := db.Exec(createArchiveTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("gateway: creating archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close releases the underlying database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Record appends one packet row to the archive.
func (a *Archive) Record(p *frame.Packet, now time.Time) error {
	var rssi interface{}
	if p.RSSI != nil {
		rssi = int(*p.RSSI)
	}
	// seq is parsed but discarded by frame.Decode (see MessageRegex's
	// doc comment); the column stays in the schema to match the wire
	// line's field shape but is always NULL.
	_, err := a.db.Exec(
		`INSERT INTO packets (ts, rssi, verb, seq, addr0, addr1, addr2, code, len, payload) VALUES (?, ?, ?, NULL, ?, ?, ?, ?, ?, ?)`,
		now.UnixNano(), rssi, string(p.Verb),
		p.Addresses[0].String(), p.Addresses[1].String(), p.Addresses[2].String(),
		p.Code, p.Length, p.PayloadHex(),
	)
	return err
}

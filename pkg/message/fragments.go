// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package message

import (
	"sync"
	"time"

	"github.com/rs/xid"
)

// FragmentExpiry is the inactivity window after which an incomplete
// fragment set is discarded.
const FragmentExpiry = 30 * time.Second

// FragmentKey identifies one fragment set: a controller emitting a
// given fragmented code, scoped to one zone/domain selector byte (0404
// schedules are per-zone; 0418 fault logs use a fixed selector).
type FragmentKey struct {
	Controller string
	Code       string
	Selector   byte
}

type fragmentSet struct {
	id       string
	total    int
	chunks   map[int][]byte
	lastSeen time.Time
}

// FragmentReassembler buffers the ordered fragments of 0404/0418
// payloads and yields the concatenated payload once every index
// 1..total has arrived. Sets idle for longer than FragmentExpiry are
// dropped by Expire.
//
// All reads and writes go through the reassembler's own mutex, so it is
// usable standalone (unit tests construct one without a running
// gateway).
type FragmentReassembler struct {
	mu     sync.Mutex
	sets   map[FragmentKey]*fragmentSet
	expiry time.Duration
}

// NewFragmentReassembler creates a reassembler using expiry as the
// idle timeout. A zero expiry defaults to FragmentExpiry.
func NewFragmentReassembler(expiry time.Duration) *FragmentReassembler {
	if expiry <= 0 {
		expiry = FragmentExpiry
	}
	return &FragmentReassembler{sets: map[FragmentKey]*fragmentSet{}, expiry: expiry}
}

// Add registers one fragment (1-based idx of total) for key. It
// returns the concatenated payload (ordered by idx) and true once all
// total fragments have been seen; the set is then removed. An idx
// outside 1..total discards the set for key; a total that differs from
// the current set's total discards that set and starts a new one
// holding this fragment. now is the registration timestamp.
func (r *FragmentReassembler) Add(key FragmentKey, idx, total int, chunk []byte, now time.Time) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sets[key]
	if !ok || set.total != total {
		set = &fragmentSet{id: xid.New().String(), total: total, chunks: map[int][]byte{}}
		r.sets[key] = set
	}
	set.lastSeen = now

	if idx < 1 || idx > total {
		delete(r.sets, key)
		return nil, false
	}

	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	set.chunks[idx] = buf

	if len(set.chunks) < total {
		return nil, false
	}

	var out []byte
	for i := 1; i <= total; i++ {
		out = append(out, set.chunks[i]...)
	}
	delete(r.sets, key)
	return out, true
}

// Expire removes sets that have been idle for longer than the
// reassembler's configured expiry, relative to now, and returns their
// keys so the caller can log the discard.
func (r *FragmentReassembler) Expire(now time.Time) []FragmentKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dropped []FragmentKey
	for key, set := range r.sets {
		if now.Sub(set.lastSeen) > r.expiry {
			dropped = append(dropped, key)
			delete(r.sets, key)
		}
	}
	return dropped
}

// Pending reports the number of fragment sets currently buffered,
// incomplete and within their expiry window.
func (r *FragmentReassembler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sets)
}

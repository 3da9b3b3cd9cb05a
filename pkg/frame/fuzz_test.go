// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package frame

import (
	"testing"
	"time"
)

// FuzzDecodeLine asserts that Decode never panics and always returns in
// bounded time for any input up to MaxLineLength bytes.
func FuzzDecodeLine(f *testing.F) {
	f.Add("045  I --- 01:145038 --:------ 01:145038 1F09 003 FF073F")
	f.Add("--- RQ --- 18:000730 01:145038 --:------ 000A 002 0000")
	f.Add("*evofw3 booted")
	f.Add("!RQ --- 18:000730 01:145038 --:------ 000A 002 0000")
	f.Add("")
	f.Add("2020-11-30T13:15:00.123456 045  I --- 01:145038 --:------ 01:145038 1F09 003 FF073F")

	f.Fuzz(func(t *testing.T, line string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Decode panicked on %q: %v", line, r)
			}
		}()
		Decode(line, time.Now())
		DecodeReplayLine(line)
	})
}

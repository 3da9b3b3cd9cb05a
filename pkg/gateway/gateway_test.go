// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package gateway

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ramses-gw/ramses-gw/pkg/filter"
	"github.com/ramses-gw/ramses-gw/pkg/frame"
	"github.com/ramses-gw/ramses-gw/pkg/qos"
)

type discardSender struct{ buf bytes.Buffer }

func (d *discardSender) Write(p []byte) (int, error) { return d.buf.Write(p) }

func TestRunIngestsLinesAndElectsController(t *testing.T) {
	gw := New(Options{FilterConfig: filter.Config{}})

	lines := strings.Join([]string{
		"045  I --- 01:145038 --:------ 01:145038 1F09 003 00FF80",
		"042  I --- 01:145038 --:------ 01:145038 30C9 003 0007D0",
	}, "\r\n") + "\r\n"

	sender := &discardSender{}
	done := make(chan error, 1)
	go func() {
		done <- gw.Run(strings.NewReader(lines), sender)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		gw.Stop()
		<-done
	}

	ctrl := gw.Store().Controller()
	if ctrl == nil {
		t.Fatal("expected a controller to be elected from the ingested lines")
	}
}

func TestRunDecodesReplayTimestampedLines(t *testing.T) {
	gw := New(Options{FilterConfig: filter.Config{}, Replay: true})

	lines := strings.Join([]string{
		"2025-01-01T12:00:00.000000 045  I --- 01:145038 --:------ 01:145038 1F09 003 00FF80",
		"2025-01-01T12:00:01.000000 042  I --- 01:145038 --:------ 01:145038 30C9 003 0007D0",
	}, "\r\n") + "\r\n"

	sender := &discardSender{}
	done := make(chan error, 1)
	go func() {
		done <- gw.Run(strings.NewReader(lines), sender)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		gw.Stop()
		<-done
	}

	ctrl := gw.Store().Controller()
	if ctrl == nil {
		t.Fatal("expected a controller to be elected from the replay-timestamped lines")
	}
}

func TestEnqueueRejectedWhenSendingDisabled(t *testing.T) {
	gw := New(Options{FilterConfig: filter.Config{}, DisableSending: true})

	addrs := [3]frame.Address{
		{Class: "18", Serial: "000000"},
		{Class: "01", Serial: "145038"},
		{Class: "--", Serial: "------"},
	}
	cmd := qos.NewCommand(frame.VerbRequest, addrs, "000A", []byte{0x00}, qos.PriorityDefault, time.Now())

	if err := gw.Enqueue(cmd); !errors.Is(err, ErrSendingDisabled) {
		t.Fatalf("Enqueue error = %v, want ErrSendingDisabled", err)
	}
	if gw.Queue().Len() != 0 {
		t.Fatalf("queue length = %d, want 0 after a rejected enqueue", gw.Queue().Len())
	}
}

func TestStopEndsRun(t *testing.T) {
	gw := New(Options{FilterConfig: filter.Config{}})
	r, _ := io.Pipe() // never written to; Run must still exit promptly on Stop

	sender := &discardSender{}
	done := make(chan error, 1)
	go func() { done <- gw.Run(r, sender) }()

	time.Sleep(10 * time.Millisecond)
	gw.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error after Stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package gateway wires FrameCodec, FilterGate, MessageDecoder,
// EntityStore and the QoS command pipeline into a single running
// facade with a start/stop lifecycle and signal-driven housekeeping.
package gateway

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/ramses-gw/ramses-gw/internal/logx"
	"github.com/ramses-gw/ramses-gw/pkg/entity"
	"github.com/ramses-gw/ramses-gw/pkg/filter"
	"github.com/ramses-gw/ramses-gw/pkg/frame"
	"github.com/ramses-gw/ramses-gw/pkg/message"
	"github.com/ramses-gw/ramses-gw/pkg/qos"
)

// Sender is satisfied by whatever transport the gateway was opened
// over (serial port, websocket bridge, or a no-op for file replay).
type Sender interface {
	io.Writer
}

// writerAdapter lets an io.Writer satisfy qos.Sender, which expects a
// string line rather than a byte slice.
type writerAdapter struct{ w io.Writer }

func (a writerAdapter) Send(line string) error {
	_, err := io.WriteString(a.w, line+"\r\n")
	return err
}

// Gateway is the top-level facade: it reads lines from a transport,
// decodes and filters them, updates the entity model, drives the QoS
// dispatcher's Tick loop, and answers process signals.
type Gateway struct {
	log *logx.Logger

	gate    *filter.Gate
	decoder *message.Decoder
	store   *entity.Store

	queue      *qos.CommandQueue
	pending    *qos.PendingReplyTable
	duty       *qos.DutyCycle
	dispatcher *qos.Dispatcher

	archive *Archive // optional, nil if no database configured

	disableSending bool
	replay         bool // lines carry a leading "ISO8601 " replay timestamp

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// Options configures a new Gateway.
type Options struct {
	Log            *logx.Logger
	FilterConfig   filter.Config
	Baud           int
	Archive        *Archive // optional SQLite archive sink
	DisableSending bool     // listen-only: commands are rejected at Enqueue, never transmitted
	Replay         bool     // lines carry a leading "ISO8601 " replay timestamp
	Annotations    entity.DeviceAnnotations // optional alias/blacklist overrides merged onto new devices
}

// New builds a Gateway ready to Run over any io.Reader/Sender pair.
func New(opts Options) *Gateway {
	log := opts.Log
	if log == nil {
		log = logx.Default()
	}
	if opts.Baud == 0 {
		opts.Baud = 115200
	}

	queue := qos.NewCommandQueue()
	pending := qos.NewPendingReplyTable()
	duty := qos.NewDutyCycle(opts.Baud)

	return &Gateway{
		log:            log,
		gate:           filter.New(opts.FilterConfig, log),
		decoder:        message.NewDecoder(0),
		store:          entity.New(log, opts.Annotations),
		queue:          queue,
		pending:        pending,
		duty:           duty,
		archive:        opts.Archive,
		disableSending: opts.DisableSending,
		replay:         opts.Replay,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Store returns the gateway's entity model.
func (g *Gateway) Store() *entity.Store { return g.store }

// Queue returns the outbound command queue.
func (g *Gateway) Queue() *qos.CommandQueue { return g.queue }

// Dispatcher returns the QoS dispatcher; it is nil until Attach (which
// Run also calls) has bound a sender.
func (g *Gateway) Dispatcher() *qos.Dispatcher { return g.dispatcher }

// DutyCycle returns the duty-cycle tracker, for metrics wiring.
func (g *Gateway) DutyCycle() *qos.DutyCycle { return g.duty }

// Attach builds the QoS dispatcher bound to sender, if one is not
// already attached. Callers that need the dispatcher available before
// Run starts (e.g. to wire a metrics collector) may call this early;
// Run calls it itself otherwise.
func (g *Gateway) Attach(sender Sender) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dispatcher != nil {
		return
	}
	g.dispatcher = qos.NewDispatcher(g.queue, g.pending, g.duty, writerAdapter{sender}, g.log)
}

// Run reads lines from r, decodes and processes them, writes outbound
// commands to sender, and blocks until Stop is called, r returns
// io.EOF, or the process receives SIGINT/SIGTERM. It returns the
// terminating error, or nil on a clean shutdown.
func (g *Gateway) Run(r io.Reader, sender Sender) error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return fmt.Errorf("gateway: already running")
	}
	g.running = true
	g.mu.Unlock()
	g.Attach(sender)
	defer func() {
		g.mu.Lock()
		g.running = false
		g.mu.Unlock()
	}()

	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigCh)

	lines := make(chan string, 64)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 4096), 64*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-g.stop:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	housekeeping := time.NewTicker(5 * time.Second)
	defer housekeeping.Stop()

	for {
		select {
		case <-g.stop:
			return g.shutdown(lines)

		case sig := <-sigCh:
			switch sig {
			case syscall.SIGINT, syscall.SIGTERM:
				g.log.Infof("gateway: received %v, shutting down", sig)
				g.Stop()
				return g.shutdown(lines)
			case syscall.SIGHUP:
				g.log.Infof("gateway: received SIGHUP, reloading configuration is not yet wired to a live config source")
			case syscall.SIGUSR1:
				g.dumpState()
			case syscall.SIGUSR2:
				if err := g.dumpDebugCBOR(); err != nil {
					g.log.Errorf("gateway: debug dump failed: %v", err)
				}
			}

		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return err
				}
				return nil
			}
			g.ingest(line, time.Now())

		case now := <-ticker.C:
			g.dispatcher.Tick(now)

		case now := <-housekeeping.C:
			for _, key := range g.decoder.ExpireFragments(now) {
				g.log.Warnf("gateway: fragment set for %s/%s expired incomplete", key.Controller, key.Code)
			}
		}
	}
}

// Stop requests a graceful shutdown; Run returns once the current
// iteration completes.
func (g *Gateway) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		close(g.stop)
	}
}

// shutdownDrain is how long a stopping gateway keeps consuming
// already-buffered inbound lines before giving up on them.
const shutdownDrain = 250 * time.Millisecond

// shutdown keeps ingesting lines from lines until the reader closes it
// or shutdownDrain elapses, whichever comes first (the reader goroutine
// stops forwarding once it observes g.stop, but a line it is already
// handing over may still arrive in that window; a reader blocked on r
// does not close lines, so the full shutdownDrain is then waited out),
// then completes every pending command as Cancelled: queued commands
// are never sent, and the one in-flight command (if any) is aborted
// rather than left to run to completion.
func (g *Gateway) shutdown(lines <-chan string) error {
	timeout := time.NewTimer(shutdownDrain)
	defer timeout.Stop()
drain:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				break drain
			}
			g.ingest(line, time.Now())
		case <-timeout.C:
			break drain
		}
	}

	cancelled := g.queue.Cancel(func(*qos.Command) bool { return true })
	if _, ok := g.dispatcher.CancelInflight(); ok {
		cancelled++
	}
	if cancelled > 0 {
		g.log.Infof("gateway: shutdown completed %d pending command(s) as cancelled", cancelled)
	}
	return nil
}

// ErrSendingDisabled is returned by Enqueue when the gateway was
// configured with disable_sending: commands are accepted by the CLI but
// never placed on the queue for transmission.
var ErrSendingDisabled = fmt.Errorf("gateway: sending is disabled")

// Enqueue submits a command for outbound transmission.
func (g *Gateway) Enqueue(cmd *qos.Command) error {
	if g.disableSending {
		return ErrSendingDisabled
	}
	return g.queue.Push(cmd)
}

func (g *Gateway) ingest(line string, now time.Time) {
	var packet *frame.Packet
	var drop *frame.DropReason
	if g.replay {
		packet, drop = frame.DecodeReplayLine(line)
	} else {
		packet, drop = frame.Decode(line, now)
	}
	if drop != nil {
		if drop.Kind != frame.DropDiagnostic && drop.Kind != frame.DropEcho {
			g.log.Debugf("gateway: dropped line (%s): %q", drop.Kind, line)
		}
		return
	}

	if g.replay {
		now = packet.RecvWall
	}

	if !g.gate.Admit(packet) {
		return
	}

	if g.archive != nil {
		if err := g.archive.Record(packet, now); err != nil {
			g.log.Warnf("gateway: archive write failed: %v", err)
		}
	}

	m, err := g.decoder.Decode(packet, now)
	if err != nil {
		if err == message.ErrFragmentPending {
			return
		}
		g.log.Warnf("gateway: decode %s failed: %v", packet.Code, err)
		return
	}

	if cmd, matched := g.dispatcher.HandleReply(m); matched {
		g.log.Debugf("gateway: matched reply for command %s", cmd.Handle)
	}

	g.store.Update(m, now)
}

func (g *Gateway) dumpState() {
	ctrl := g.store.Controller()
	if ctrl == nil {
		g.log.Infof("gateway: state dump: no controller elected yet")
		return
	}
	g.log.Infof("gateway: state dump: controller=%s zones=%d domains=%d queue_depth=%d pending=%d",
		ctrl.Addr, len(ctrl.Zones), len(ctrl.Domains), g.queue.Len(), g.pending.Len())
}

type debugDump struct {
	Controller *entity.Controller            `cbor:"controller"`
	Orphans    map[string]*entity.Controller `cbor:"orphans"`
	QueueDepth int                           `cbor:"queue_depth"`
	Pending    int                           `cbor:"pending"`
}

func (g *Gateway) dumpDebugCBOR() error {
	dump := debugDump{
		Controller: g.store.Controller(),
		Orphans:    g.store.Orphans(),
		QueueDepth: g.queue.Len(),
		Pending:    g.pending.Len(),
	}
	data, err := cbor.Marshal(dump)
	if err != nil {
		return fmt.Errorf("gateway: cbor marshal: %w", err)
	}
	path := fmt.Sprintf("debug-dump-%d.cbor", time.Now().UnixNano())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("gateway: writing %s: %w", path, err)
	}
	g.log.Infof("gateway: wrote debug dump to %s", path)
	return nil
}

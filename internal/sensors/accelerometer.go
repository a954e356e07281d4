// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors provides accelerometer sources for the level page:
// polled readers (MPU9250, mock) and push sources (serial, MQTT).
package sensors

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/relabs-tech/spirit_level/internal/level"
)

// ErrNotSupported is returned by Start when the source has no device.
var ErrNotSupported = errors.New("accelerometer not supported")

// Reader reads one accelerometer sample on demand, in units of g.
type Reader interface {
	Read() (level.AccelerationSample, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func() (level.AccelerationSample, error)

func (f ReaderFunc) Read() (level.AccelerationSample, error) { return f() }

// PollingAccelerometer turns a Reader into a level.Accelerometer by
// reading it every interval on its own goroutine.
type PollingAccelerometer struct {
	reader   Reader
	interval time.Duration
	log      *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewPollingAccelerometer wraps reader. A nil reader yields an
// unsupported accelerometer.
func NewPollingAccelerometer(reader Reader, interval time.Duration, logger *slog.Logger) *PollingAccelerometer {
	if logger == nil {
		logger = slog.Default()
	}
	return &PollingAccelerometer{
		reader:   reader,
		interval: interval,
		log:      logger.With("component", "accelerometer"),
	}
}

func (p *PollingAccelerometer) IsSupported() bool { return p.reader != nil }

func (p *PollingAccelerometer) IsMonitoring() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}

// Start begins polling. Calling Start while monitoring is a no-op.
func (p *PollingAccelerometer) Start(handler func(level.AccelerationSample)) error {
	if p.reader == nil {
		return ErrNotSupported
	}
	if p.interval <= 0 {
		return fmt.Errorf("accelerometer: %w", level.ErrInvalidPeriod)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return nil
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.loop(handler, p.stop, p.done)
	p.log.Debug("polling started", "interval", p.interval)
	return nil
}

// Stop ends polling and returns once the polling goroutine has exited.
func (p *PollingAccelerometer) Stop() error {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	p.log.Debug("polling stopped")
	return nil
}

func (p *PollingAccelerometer) loop(handler func(level.AccelerationSample), stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		s, err := p.reader.Read()
		if err != nil {
			p.log.Warn("read failed", "err", err)
			continue
		}

		select {
		case <-stop:
			return
		default:
			handler(s)
		}
	}
}

// handlerSlot holds the handler of a push source. deliver and clear
// share a lock so no sample is delivered once clear has returned.
type handlerSlot struct {
	mu      sync.Mutex
	handler func(level.AccelerationSample)
}

func (h *handlerSlot) set(fn func(level.AccelerationSample)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handler != nil {
		return false
	}
	h.handler = fn
	return true
}

func (h *handlerSlot) clear() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	was := h.handler != nil
	h.handler = nil
	return was
}

func (h *handlerSlot) active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.handler != nil
}

func (h *handlerSlot) deliver(s level.AccelerationSample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handler != nil {
		h.handler(s)
	}
}

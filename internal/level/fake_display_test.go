// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package level

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type opacityCall struct {
	element  Element
	target   float64
	duration time.Duration
	curve    Curve
	at       time.Time
}

type moveCall struct {
	kind  IndicatorKind
	value float64
}

// recordingDisplay captures every command the core issues.
type recordingDisplay struct {
	mu       sync.Mutex
	labels   []string
	moves    []moveCall
	opacity  []opacityCall
	fadeHold chan struct{} // when set, SetOpacity blocks until closed
	failFade bool
}

func (d *recordingDisplay) SetAngleLabel(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.labels = append(d.labels, text)
	return nil
}

func (d *recordingDisplay) MoveIndicator(kind IndicatorKind, value float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.moves = append(d.moves, moveCall{kind: kind, value: value})
	return nil
}

func (d *recordingDisplay) SetOpacity(element Element, target float64, duration time.Duration, curve Curve) error {
	d.mu.Lock()
	hold := d.fadeHold
	fail := d.failFade
	d.mu.Unlock()
	if hold != nil {
		<-hold
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.opacity = append(d.opacity, opacityCall{element: element, target: target, duration: duration, curve: curve, at: time.Now()})
	if fail {
		return errors.New("display gone")
	}
	return nil
}

func (d *recordingDisplay) snapshot() (labels []string, moves []moveCall, opacity []opacityCall) {
	d.mu.Lock()
	defer d.mu.Unlock()
	labels = append(labels, d.labels...)
	moves = append(moves, d.moves...)
	opacity = append(opacity, d.opacity...)
	return labels, moves, opacity
}

func (d *recordingDisplay) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.labels = nil
	d.moves = nil
	d.opacity = nil
}

// manualTicks is a TickSource driven by the test.
type manualTicks struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func newManualTicks() *manualTicks {
	return &manualTicks{ch: make(chan time.Time)}
}

func (m *manualTicks) C() <-chan time.Time { return m.ch }

func (m *manualTicks) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *manualTicks) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

func (m *manualTicks) source() NewTickSource {
	return func(time.Duration) (TickSource, error) { return m, nil }
}

// waitLabels blocks until the display has received n labels.
func waitLabels(t *testing.T, d *recordingDisplay, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if labels, _, _ := d.snapshot(); len(labels) >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	labels, _, _ := d.snapshot()
	t.Fatalf("labels=%v, waited for %d", labels, n)
}

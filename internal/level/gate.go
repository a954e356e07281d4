// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package level

import (
	"sync"
)

// Shared is the state exchanged between the sample path, the render tick and
// the orientation handler. It is only ever touched through a SampleGate.
type Shared struct {
	Angle      AngleState
	HaveSample bool
	Mode       OrientationMode
}

// SampleGate serializes access to one Shared instance. It is a plain mutex:
// writers and the reader both hold it for a single update or read, never
// across a wait for the next tick or sample.
type SampleGate struct {
	mu    sync.Mutex
	state Shared
}

// NewSampleGate returns a gate whose state starts in the given mode with no sample.
func NewSampleGate(mode OrientationMode) *SampleGate {
	return &SampleGate{state: Shared{Mode: mode}}
}

// WithLock runs fn with exclusive access to the shared state. The lock is
// released on every exit path, including a panic in fn. fn must not retain
// the pointer or call back into the gate.
func (g *SampleGate) WithLock(fn func(*Shared)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.state)
}

// Snapshot returns a consistent copy of the shared state.
func (g *SampleGate) Snapshot() Shared {
	var s Shared
	g.WithLock(func(st *Shared) { s = *st })
	return s
}

// StoreAngle replaces the angle state and marks that a sample has arrived.
func (g *SampleGate) StoreAngle(a AngleState) {
	g.WithLock(func(st *Shared) {
		st.Angle = a
		st.HaveSample = true
	})
}

// Mode returns the current orientation mode.
func (g *SampleGate) Mode() OrientationMode {
	var m OrientationMode
	g.WithLock(func(st *Shared) { m = st.Mode })
	return m
}

// SwapMode sets the mode and reports the previous one.
func (g *SampleGate) SwapMode(mode OrientationMode) (prev OrientationMode) {
	g.WithLock(func(st *Shared) {
		prev = st.Mode
		st.Mode = mode
	})
	return prev
}

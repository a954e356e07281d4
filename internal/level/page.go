// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package level

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Accelerometer is the sensor collaborator. Start registers handler and
// begins delivery; after Stop returns, handler is not called again.
// Implementations keep only the latest reading and never queue history.
type Accelerometer interface {
	IsSupported() bool
	IsMonitoring() bool
	Start(handler func(AccelerationSample)) error
	Stop() error
}

// PageConfig configures a Page.
type PageConfig struct {
	Scheduler   SchedulerConfig
	Fade        FadeConfig
	InitialMode OrientationMode

	// AutoOrientation derives orientation changes from the gravity vector
	// for hosts that have no display rotation events.
	AutoOrientation bool
}

// Page owns the level while it is visible: it subscribes the sensor,
// runs the render loop and routes orientation events.
type Page struct {
	sensor      Accelerometer
	gate        *SampleGate
	scheduler   *RenderScheduler
	orientation *OrientationController
	cfg         PageConfig
	log         *slog.Logger

	mu        sync.Mutex
	visible   bool
	accepting atomic.Bool
}

// NewPage builds a hidden page around sensor and display.
func NewPage(sensor Accelerometer, display Display, cfg PageConfig, logger *slog.Logger) *Page {
	if logger == nil {
		logger = slog.Default()
	}
	gate := NewSampleGate(cfg.InitialMode)
	return &Page{
		sensor:      sensor,
		gate:        gate,
		scheduler:   NewRenderScheduler(gate, display, cfg.Scheduler, logger),
		orientation: NewOrientationController(gate, display, cfg.Fade, logger),
		cfg:         cfg,
		log:         logger.With("component", "page"),
	}
}

// Gate exposes the shared state guard.
func (p *Page) Gate() *SampleGate { return p.gate }

// Scheduler exposes the render loop.
func (p *Page) Scheduler() *RenderScheduler { return p.scheduler }

// Orientation exposes the orientation controller.
func (p *Page) Orientation() *OrientationController { return p.orientation }

// Visible reports whether the page is between Appear and Disappear.
func (p *Page) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// Appear resets the shared state, brings the display into the initial mode,
// turns the accelerometer on and starts the render loop.
func (p *Page) Appear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.visible {
		return nil
	}

	p.gate.WithLock(func(st *Shared) {
		st.Angle = AngleState{}
		st.HaveSample = false
	})
	p.orientation.Open()
	p.orientation.ApplyInitial(p.cfg.InitialMode)

	p.accepting.Store(true)
	if err := p.startAccelerometer(); err != nil {
		p.accepting.Store(false)
		p.orientation.Close()
		return fmt.Errorf("page: start accelerometer: %w", err)
	}

	if err := p.scheduler.Start(); err != nil {
		p.accepting.Store(false)
		p.orientation.Close()
		p.stopAccelerometer()
		return fmt.Errorf("page: %w", err)
	}

	p.visible = true
	p.log.Info("page visible", "mode", p.cfg.InitialMode, "sensor_supported", p.sensor.IsSupported())
	return nil
}

// Disappear turns the accelerometer off, stops the render loop, stops
// taking orientation events and waits for outstanding fades. It is a
// no-op on a hidden page.
func (p *Page) Disappear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.visible {
		return
	}
	p.visible = false

	p.accepting.Store(false)
	p.stopAccelerometer()
	p.scheduler.Stop()
	p.orientation.Close()
	p.log.Info("page hidden")
}

// ToggleAccelerometer starts monitoring when idle and stops it when
// monitoring. It does nothing when the sensor is unsupported.
func (p *Page) ToggleAccelerometer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.toggleAccelerometer()
}

func (p *Page) toggleAccelerometer() error {
	if !p.sensor.IsSupported() {
		p.log.Info("accelerometer not supported; indicator will not move")
		return nil
	}
	if !p.sensor.IsMonitoring() {
		return p.sensor.Start(p.OnSample)
	}
	return p.sensor.Stop()
}

// startAccelerometer leaves a sensor that is already monitoring running.
func (p *Page) startAccelerometer() error {
	if !p.sensor.IsSupported() {
		p.log.Info("accelerometer not supported; indicator will not move")
		return nil
	}
	if p.sensor.IsMonitoring() {
		return nil
	}
	return p.sensor.Start(p.OnSample)
}

func (p *Page) stopAccelerometer() {
	if !p.sensor.IsSupported() || !p.sensor.IsMonitoring() {
		return
	}
	if err := p.sensor.Stop(); err != nil {
		p.log.Warn("accelerometer stop failed", "err", err)
	}
}

// OnSample is the accelerometer handler: estimate and publish the latest tilt.
func (p *Page) OnSample(s AccelerationSample) {
	if !p.accepting.Load() {
		return
	}
	p.gate.StoreAngle(Estimate(s))

	if p.cfg.AutoOrientation {
		if mode := DetectOrientation(s, p.gate.Mode()); mode != p.gate.Mode() {
			p.orientation.HandleOrientationChange(mode)
		}
	}
}

// OnOrientationChanged is the display's orientation event handler.
// A hidden page ignores the event and reports false.
func (p *Page) OnOrientationChanged(mode OrientationMode) bool {
	if !p.accepting.Load() {
		return false
	}
	return p.orientation.HandleOrientationChange(mode)
}

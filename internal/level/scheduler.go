// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package level

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// ErrInvalidPeriod is returned when a tick source is requested with a non-positive period.
var ErrInvalidPeriod = errors.New("tick period must be positive")

// Defaults for SchedulerConfig.
const (
	DefaultTickPeriod  = 100 * time.Millisecond
	DefaultThreshold   = 0.25 // degrees
	DefaultScaleFactor = 2.5
)

// TickSource delivers ticks until stopped.
type TickSource interface {
	C() <-chan time.Time
	Stop()
}

// NewTickSource creates a TickSource firing every period.
type NewTickSource func(period time.Duration) (TickSource, error)

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the default NewTickSource, backed by time.Ticker.
func NewTimeTicker(period time.Duration) (TickSource, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidPeriod, period)
	}
	return timeTicker{t: time.NewTicker(period)}, nil
}

// SchedulerConfig tunes the render loop.
type SchedulerConfig struct {
	Period      time.Duration
	Threshold   float64 // deadband, degrees
	ScaleFactor float64 // landscape bubble units per degree

	// DeadbandAcrossModes compares the first angle after a rotation against
	// the last angle rendered under the previous mode instead of always
	// rendering it.
	DeadbandAcrossModes bool

	// TickSource overrides the time.Ticker based source.
	TickSource NewTickSource
}

// DefaultSchedulerConfig returns the stock tuning.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Period:      DefaultTickPeriod,
		Threshold:   DefaultThreshold,
		ScaleFactor: DefaultScaleFactor,
	}
}

// RenderCommand is what one tick asks the display to show.
type RenderCommand struct {
	Angle float64 // display angle, degrees
	Mode  OrientationMode
	Label string
	Kind  IndicatorKind
	Value float64
}

// Project maps the tilt to the angle shown for the given mode, in degrees.
// Portrait shows pitch; landscape shows negated roll.
func Project(a AngleState, mode OrientationMode) float64 {
	if mode == Landscape {
		return -Degrees(a.Roll)
	}
	return Degrees(a.Pitch)
}

// BuildRenderCommand turns a display angle into label text and an indicator move.
func BuildRenderCommand(angle float64, mode OrientationMode, scale float64) RenderCommand {
	cmd := RenderCommand{Angle: angle, Mode: mode}
	if mode == Landscape {
		cmd.Label = FormatAngleLabel(angle)
		cmd.Kind = Translate
		cmd.Value = angle * scale
		return cmd
	}
	cmd.Label = FormatAngleLabel(-angle)
	cmd.Kind = Rotate
	cmd.Value = angle
	return cmd
}

type lastRendered struct {
	valid bool
	value float64
	mode  OrientationMode
}

// RenderScheduler polls the shared angle at a fixed period and issues
// render commands when the displayed angle moves past the deadband.
type RenderScheduler struct {
	gate    *SampleGate
	display Display
	cfg     SchedulerConfig
	log     *slog.Logger

	lifeMu  sync.Mutex
	running bool
	ticks   TickSource
	stopCh  chan struct{}
	doneCh  chan struct{}

	tickMu sync.Mutex
	last   lastRendered
}

// NewRenderScheduler creates a stopped scheduler. Zero config fields take defaults.
func NewRenderScheduler(gate *SampleGate, display Display, cfg SchedulerConfig, logger *slog.Logger) *RenderScheduler {
	def := DefaultSchedulerConfig()
	if cfg.Period == 0 {
		cfg.Period = def.Period
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.ScaleFactor == 0 {
		cfg.ScaleFactor = def.ScaleFactor
	}
	if cfg.TickSource == nil {
		cfg.TickSource = NewTimeTicker
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RenderScheduler{
		gate:    gate,
		display: display,
		cfg:     cfg,
		log:     logger.With("component", "render"),
	}
}

// Start begins ticking. Starting a running scheduler is a no-op. A tick
// source that cannot be created is returned as an error and the scheduler
// stays stopped.
func (s *RenderScheduler) Start() error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.running {
		return nil
	}

	ticks, err := s.cfg.TickSource(s.cfg.Period)
	if err != nil {
		return fmt.Errorf("render: create tick source: %w", err)
	}

	s.ticks = ticks
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.running = true
	go s.run(ticks, s.stopCh, s.doneCh)

	s.log.Info("render loop started", "period", s.cfg.Period, "threshold_deg", s.cfg.Threshold)
	return nil
}

// Stop disposes the tick source and waits for an in-flight tick to finish.
// It is idempotent. Stop must not be called from inside a Display method.
func (s *RenderScheduler) Stop() {
	s.lifeMu.Lock()
	if !s.running {
		s.lifeMu.Unlock()
		return
	}
	s.running = false
	s.ticks.Stop()
	close(s.stopCh)
	done := s.doneCh
	s.lifeMu.Unlock()

	<-done
	s.log.Info("render loop stopped")
}

// Running reports whether the tick loop is active.
func (s *RenderScheduler) Running() bool {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	return s.running
}

func (s *RenderScheduler) run(ticks TickSource, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case <-ticks.C():
			// A tick and a stop can be ready together; stop wins.
			select {
			case <-stop:
				return
			default:
			}
			s.Tick()
		}
	}
}

// Tick runs one render decision and reports whether a command was issued.
func (s *RenderScheduler) Tick() bool {
	snap := s.gate.Snapshot()
	if !snap.HaveSample {
		return false
	}

	angle := Project(snap.Angle, snap.Mode)
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return false
	}

	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	if s.last.valid && (s.last.mode == snap.Mode || s.cfg.DeadbandAcrossModes) {
		if math.Abs(angle-s.last.value) <= s.cfg.Threshold {
			return false
		}
	}
	s.last = lastRendered{valid: true, value: angle, mode: snap.Mode}

	cmd := BuildRenderCommand(angle, snap.Mode, s.cfg.ScaleFactor)
	s.emit(cmd)
	return true
}

// LastRendered returns the last rendered display angle and its mode.
// ok is false until the first render.
func (s *RenderScheduler) LastRendered() (angle float64, mode OrientationMode, ok bool) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	return s.last.value, s.last.mode, s.last.valid
}

func (s *RenderScheduler) emit(cmd RenderCommand) {
	s.log.Debug("render", "mode", cmd.Mode, "angle_deg", cmd.Angle, "kind", cmd.Kind, "value", cmd.Value)
	if err := s.display.SetAngleLabel(cmd.Label); err != nil {
		s.log.Warn("set angle label failed", "err", err)
	}
	if err := s.display.MoveIndicator(cmd.Kind, cmd.Value); err != nil {
		s.log.Warn("move indicator failed", "kind", cmd.Kind, "err", err)
	}
}

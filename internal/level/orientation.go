// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package level

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultFadeDuration is how long an orientation cross-fade takes.
const DefaultFadeDuration = 600 * time.Millisecond

// FadeConfig tunes orientation transitions.
type FadeConfig struct {
	Duration time.Duration
	Curve    Curve
}

// DefaultFadeConfig returns a 600 ms CubicInOut fade.
func DefaultFadeConfig() FadeConfig {
	return FadeConfig{Duration: DefaultFadeDuration, Curve: CubicInOut}
}

// Fade is one opacity change requested by a transition.
type Fade struct {
	Element Element
	Target  float64
}

// TransitionFades lists the fades that take the display into mode.
// Portrait shows the plumb and reference lines; landscape shows the grid.
func TransitionFades(to OrientationMode) []Fade {
	if to == Landscape {
		return []Fade{
			{Element: PlumbLine, Target: 0},
			{Element: ReferenceLine, Target: 0},
			{Element: Grid, Target: 1},
		}
	}
	return []Fade{
		{Element: PlumbLine, Target: 1},
		{Element: ReferenceLine, Target: 1},
		{Element: Grid, Target: 0},
	}
}

// OrientationController applies orientation changes. The mode is written
// through the gate before any fade is dispatched, so the render loop
// switches projection at once; the fades run detached.
type OrientationController struct {
	gate    *SampleGate
	display Display
	cfg     FadeConfig
	log     *slog.Logger

	// serializes handlers so two events cannot both see the same previous mode
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewOrientationController wires a controller to the shared gate.
func NewOrientationController(gate *SampleGate, display Display, cfg FadeConfig, logger *slog.Logger) *OrientationController {
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultFadeDuration
	}
	if cfg.Curve == "" {
		cfg.Curve = CubicInOut
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OrientationController{
		gate:    gate,
		display: display,
		cfg:     cfg,
		log:     logger.With("component", "orientation"),
	}
}

// Mode returns the current orientation.
func (c *OrientationController) Mode() OrientationMode {
	return c.gate.Mode()
}

// HandleOrientationChange records the new mode and starts the cross-fade.
// It reports false, and issues nothing, when mode equals the current mode
// or the controller is closed.
func (c *OrientationController) HandleOrientationChange(mode OrientationMode) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}

	prev := c.gate.SwapMode(mode)
	if prev == mode {
		return false
	}
	c.log.Info("orientation changed", "from", prev, "to", mode)

	fades := TransitionFades(mode)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.runFades(fades); err != nil {
			c.log.Warn("orientation fade failed", "to", mode, "err", err)
		}
	}()
	return true
}

// ApplyInitial brings the display into the given mode without a transition
// and without recording a change.
func (c *OrientationController) ApplyInitial(mode OrientationMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gate.SwapMode(mode)
	for _, f := range TransitionFades(mode) {
		if err := c.display.SetOpacity(f.Element, f.Target, 0, Linear); err != nil {
			c.log.Warn("initial opacity failed", "element", f.Element, "err", err)
		}
	}
}

// Wait blocks until every dispatched fade has been issued.
func (c *OrientationController) Wait() {
	c.wg.Wait()
}

// Close refuses further orientation changes and waits for the fades
// already dispatched.
func (c *OrientationController) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
}

// Open accepts orientation changes again after Close.
func (c *OrientationController) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = false
}

func (c *OrientationController) runFades(fades []Fade) error {
	var g errgroup.Group
	for _, f := range fades {
		g.Go(func() error {
			if err := c.display.SetOpacity(f.Element, f.Target, c.cfg.Duration, c.cfg.Curve); err != nil {
				return fmt.Errorf("fade %s to %.0f: %w", f.Element, f.Target, err)
			}
			return nil
		})
	}
	return g.Wait()
}

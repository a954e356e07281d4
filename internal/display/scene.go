// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display holds the renderers the level core drives: a shared
// animated Scene plus terminal, OLED, MQTT and websocket front ends.
package display

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/spirit_level/internal/level"
)

// DefaultMoveDuration is how long the indicator takes to reach a new position.
const DefaultMoveDuration = 100 * time.Millisecond

// Ease maps linear progress p in [0,1] through curve.
func Ease(curve level.Curve, p float64) float64 {
	switch {
	case p <= 0:
		return 0
	case p >= 1:
		return 1
	}
	switch curve {
	case level.CubicInOut:
		if p < 0.5 {
			return 4 * p * p * p
		}
		q := -2*p + 2
		return 1 - q*q*q/2
	default:
		return p
	}
}

type tween struct {
	from, to float64
	start    time.Time
	dur      time.Duration
	curve    level.Curve
}

func (tw tween) at(t time.Time) float64 {
	if tw.dur <= 0 {
		return tw.to
	}
	p := float64(t.Sub(tw.start)) / float64(tw.dur)
	return tw.from + (tw.to-tw.from)*Ease(tw.curve, p)
}

func (tw tween) done(t time.Time) bool {
	return tw.dur <= 0 || !t.Before(tw.start.Add(tw.dur))
}

// Frame is the scene sampled at one instant.
type Frame struct {
	Label     string
	Kind      level.IndicatorKind
	Indicator float64
	Opacity   map[level.Element]float64
	Animating bool
}

// Scene is an in-memory level.Display. Commands start tweens on the scene's
// clock; renderers sample it with Frame at their own rate.
type Scene struct {
	mu           sync.Mutex
	now          func() time.Time
	moveDuration time.Duration

	label     string
	kind      level.IndicatorKind
	indicator tween
	opacity   map[level.Element]tween
}

// NewScene returns a portrait scene with the indicator at rest.
func NewScene(moveDuration time.Duration) *Scene {
	return newSceneWithClock(moveDuration, time.Now)
}

func newSceneWithClock(moveDuration time.Duration, now func() time.Time) *Scene {
	if moveDuration < 0 {
		moveDuration = 0
	}
	s := &Scene{
		now:          now,
		moveDuration: moveDuration,
		label:        level.FormatAngleLabel(0),
		opacity:      make(map[level.Element]tween),
	}
	for _, f := range level.TransitionFades(level.Portrait) {
		s.opacity[f.Element] = tween{to: f.Target}
	}
	return s
}

func (s *Scene) SetAngleLabel(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.label = text
	return nil
}

// MoveIndicator animates from the current position. Switching between
// rotate and translate jumps, since the two values are not comparable.
func (s *Scene) MoveIndicator(kind level.IndicatorKind, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("scene: non-finite indicator value %v", value)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.now()
	from := s.indicator.at(t)
	if kind != s.kind {
		from = value
	}
	s.kind = kind
	s.indicator = tween{from: from, to: value, start: t, dur: s.moveDuration, curve: level.CubicInOut}
	return nil
}

func (s *Scene) SetOpacity(element level.Element, target float64, duration time.Duration, curve level.Curve) error {
	if target < 0 || target > 1 || math.IsNaN(target) {
		return fmt.Errorf("scene: opacity %v out of range", target)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.now()
	s.opacity[element] = tween{from: s.opacity[element].at(t), to: target, start: t, dur: duration, curve: curve}
	return nil
}

// Frame samples the scene now.
func (s *Scene) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.now()
	f := Frame{
		Label:     s.label,
		Kind:      s.kind,
		Indicator: s.indicator.at(t),
		Opacity:   make(map[level.Element]float64, len(s.opacity)),
		Animating: !s.indicator.done(t),
	}
	for el, tw := range s.opacity {
		f.Opacity[el] = tw.at(t)
		if !tw.done(t) {
			f.Animating = true
		}
	}
	return f
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/spirit_level/internal/level"
)

type mockSource struct {
	start time.Time
	now   func() time.Time
}

// NewMockSource creates a mock accelerometer that slowly rocks the
// device: pitch swings ±20° and roll ±15° at different rates.
func NewMockSource() Reader {
	return newMockSourceWithClock(time.Now)
}

func newMockSourceWithClock(now func() time.Time) *mockSource {
	return &mockSource{start: now(), now: now}
}

func (m *mockSource) Read() (level.AccelerationSample, error) {
	elapsed := m.now().Sub(m.start).Seconds()

	pitch := 20 * math.Sin(elapsed*0.5) * math.Pi / 180
	roll := 15 * math.Sin(elapsed*0.35) * math.Pi / 180

	return gravity(pitch, roll), nil
}

// gravity returns the unit gravity vector seen by a device tilted by
// pitch and roll, in radians, such that level.Estimate recovers them.
func gravity(pitch, roll float64) level.AccelerationSample {
	x := math.Sin(pitch)
	y := math.Sin(roll)
	z := math.Sqrt(math.Max(0, 1-x*x-y*y))
	return level.AccelerationSample{X: x, Y: y, Z: z}
}

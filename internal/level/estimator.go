// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package level

import (
	"math"
)

// AccelerationSample is one accelerometer reading, in units of g.
type AccelerationSample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// AngleState holds the tilt derived from the latest sample, in radians.
type AngleState struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

// Estimate computes pitch and roll from the gravity projection on the
// three accelerometer axes:
//
//	pitch = atan2(x, sqrt(y² + z²))
//	roll  = atan2(y, sqrt(x² + z²))
//
// Non-finite input produces non-finite output; callers skip those.
func Estimate(s AccelerationSample) AngleState {
	return AngleState{
		Pitch: math.Atan2(s.X, math.Sqrt(s.Y*s.Y+s.Z*s.Z)),
		Roll:  math.Atan2(s.Y, math.Sqrt(s.X*s.X+s.Z*s.Z)),
	}
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

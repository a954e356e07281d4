// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package level

import (
	"fmt"
	"math"
	"strings"
)

// OrientationMode selects how the tilt is projected and which indicator is shown.
type OrientationMode int

const (
	Portrait OrientationMode = iota
	Landscape
)

func (m OrientationMode) String() string {
	switch m {
	case Portrait:
		return "portrait"
	case Landscape:
		return "landscape"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseOrientationMode accepts "portrait" or "landscape", case-insensitive.
func ParseOrientationMode(s string) (OrientationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "portrait":
		return Portrait, nil
	case "landscape":
		return Landscape, nil
	default:
		return Portrait, fmt.Errorf("invalid orientation %q (must be portrait or landscape)", s)
	}
}

// Opposite returns the other mode.
func (m OrientationMode) Opposite() OrientationMode {
	if m == Landscape {
		return Portrait
	}
	return Landscape
}

// hysteresis applied by DetectOrientation so a device held near 45° does not flap.
const detectHysteresis = 0.15

// DetectOrientation guesses the display orientation from the gravity vector.
// The device is landscape when gravity lies mostly along the X axis and
// portrait when it lies mostly along Y. Near the diagonal, or when the device
// lies flat, the current mode is kept.
func DetectOrientation(s AccelerationSample, current OrientationMode) OrientationMode {
	ax, ay := math.Abs(s.X), math.Abs(s.Y)
	if math.IsNaN(ax) || math.IsNaN(ay) {
		return current
	}
	// Flat on a table: no usable in-plane gravity.
	if math.Hypot(ax, ay) < 0.5*math.Abs(s.Z) {
		return current
	}
	switch {
	case ax > ay+detectHysteresis:
		return Landscape
	case ay > ax+detectHysteresis:
		return Portrait
	default:
		return current
	}
}

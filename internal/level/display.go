// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package level

import (
	"fmt"
	"strings"
	"time"
)

// IndicatorKind tells the display how to move the indicator.
type IndicatorKind int

const (
	// Rotate turns the plumb line by the value, in degrees.
	Rotate IndicatorKind = iota
	// Translate shifts the bubble horizontally by the value, in display units.
	Translate
)

func (k IndicatorKind) String() string {
	switch k {
	case Rotate:
		return "rotate"
	case Translate:
		return "translate"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Element names a visual element whose opacity the core controls.
type Element string

const (
	PlumbLine     Element = "plumb_line"
	ReferenceLine Element = "reference_line"
	Grid          Element = "grid"
)

// Curve names an easing function for opacity transitions.
type Curve string

const (
	Linear     Curve = "linear"
	CubicInOut Curve = "cubic_in_out"
)

// ParseCurve accepts the curve names above.
func ParseCurve(s string) (Curve, error) {
	switch c := Curve(strings.ToLower(strings.TrimSpace(s))); c {
	case Linear, CubicInOut:
		return c, nil
	default:
		return "", fmt.Errorf("invalid curve %q", s)
	}
}

// Display is the rendering collaborator. Every method must return promptly;
// animations run on the display's own clock and a newer command supersedes
// an older one for the same target.
type Display interface {
	SetAngleLabel(text string) error
	MoveIndicator(kind IndicatorKind, value float64) error
	SetOpacity(element Element, target float64, duration time.Duration, curve Curve) error
}

// FormatAngleLabel renders the label text shown next to the indicator.
func FormatAngleLabel(deg float64) string {
	return fmt.Sprintf("Angle: %.2f°", deg)
}

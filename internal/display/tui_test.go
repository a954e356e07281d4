// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/relabs-tech/spirit_level/internal/level"
)

func TestPlumbPoints_VerticalAtZero(t *testing.T) {
	pts := plumbPoints(0, 40, 12)
	for _, p := range pts {
		if p[0] != 20 {
			t.Fatalf("point %v off the centre column", p)
		}
	}
	if last := pts[len(pts)-1]; last[1] != 10 {
		t.Fatalf("bob at row %d want 10", last[1])
	}
}

func TestPlumbPoints_SwingsWithAngle(t *testing.T) {
	right := plumbPoints(20, 40, 12)
	left := plumbPoints(-20, 40, 12)
	if right[len(right)-1][0] <= 20 || left[len(left)-1][0] >= 20 {
		t.Fatalf("bob right=%v left=%v", right[len(right)-1], left[len(left)-1])
	}
}

func TestBubbleColumn_Clamped(t *testing.T) {
	if got := bubbleColumn(0, 40); got != 20 {
		t.Fatalf("centre=%d", got)
	}
	if got := bubbleColumn(500, 40); got != 37 {
		t.Fatalf("clamped right=%d", got)
	}
	if got := bubbleColumn(-500, 40); got != 2 {
		t.Fatalf("clamped left=%d", got)
	}
}

func TestDrawFrame_HiddenElementsNotDrawn(t *testing.T) {
	c := newCanvas(30, 10)
	drawFrame(c, Frame{
		Kind:    level.Rotate,
		Opacity: map[level.Element]float64{level.PlumbLine: 0, level.ReferenceLine: 0, level.Grid: 0},
	})
	for y := range c.cells {
		if strings.TrimSpace(string(c.cells[y])) != "" {
			t.Fatalf("row %d not empty: %q", y, string(c.cells[y]))
		}
	}
}

func TestTUIModel_KeysDriveControls(t *testing.T) {
	rotated := 0
	toggled := 0
	m := NewTUIModel(NewScene(0), TUIControls{
		Mode:              func() level.OrientationMode { return level.Portrait },
		ToggleOrientation: func() { rotated++ },
		ToggleSensor:      func() error { toggled++; return nil },
	})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'o'}})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	next, _ = next.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	if rotated != 1 || toggled != 1 {
		t.Fatalf("rotated=%d toggled=%d", rotated, toggled)
	}

	view := next.View()
	if !strings.Contains(view, "portrait") || !strings.Contains(view, "Angle: 0.00°") {
		t.Fatalf("view missing status or label:\n%s", view)
	}

	_, cmd := next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("q should return a quit command")
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"testing"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/spirit_level/internal/level"
)

func portraitOpacity() map[level.Element]float64 {
	return map[level.Element]float64{level.PlumbLine: 1, level.ReferenceLine: 1, level.Grid: 0}
}

func TestRenderOLEDFrame_PlumbHangsStraightAtZero(t *testing.T) {
	img := RenderOLEDFrame(Frame{Kind: level.Rotate, Indicator: 0, Opacity: portraitOpacity()})
	if img.BitAt(oledWidth/2, plumbAnchorY+plumbLength/2) != image1bit.On {
		t.Fatalf("expected plumb line pixel at centre column")
	}
	if img.BitAt(oledWidth/2+20, plumbAnchorY+plumbLength/2) != image1bit.Off {
		t.Fatalf("unexpected pixel right of the plumb line")
	}
}

func TestRenderOLEDFrame_PlumbSwings(t *testing.T) {
	img := RenderOLEDFrame(Frame{Kind: level.Rotate, Indicator: 30, Opacity: portraitOpacity()})
	// bob centre: anchor + 46*(sin30, cos30) = (87, 53.8)
	if img.BitAt(87, 54) != image1bit.On {
		t.Fatalf("expected bob at (87,54)")
	}
}

func TestRenderOLEDFrame_HiddenPlumbNotDrawn(t *testing.T) {
	img := RenderOLEDFrame(Frame{Kind: level.Rotate, Indicator: 0, Opacity: map[level.Element]float64{}})
	for y := plumbAnchorY; y < oledHeight; y++ {
		if img.BitAt(oledWidth/2, y) != image1bit.Off {
			t.Fatalf("pixel on at row %d with everything faded out", y)
		}
	}
}

func TestRenderOLEDFrame_BubbleFollowsOffset(t *testing.T) {
	op := map[level.Element]float64{level.Grid: 1}
	centre := RenderOLEDFrame(Frame{Kind: level.Translate, Indicator: 0, Opacity: op})
	cy := (tubeTop + tubeBottom) / 2
	if centre.BitAt(oledWidth/2, cy) != image1bit.On {
		t.Fatalf("expected bubble at centre")
	}
	moved := RenderOLEDFrame(Frame{Kind: level.Translate, Indicator: 30, Opacity: op})
	if moved.BitAt(oledWidth/2+30, cy) != image1bit.On || moved.BitAt(oledWidth/2-20, cy) != image1bit.Off {
		t.Fatalf("bubble did not move right")
	}
}

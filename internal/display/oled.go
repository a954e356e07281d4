// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/spirit_level/internal/level"
)

const (
	oledWidth  = 128
	oledHeight = 64

	// 1-bit pixels: an element is drawn once it is at least half visible.
	oledVisible = 0.5

	plumbAnchorY = 14
	plumbLength  = 46
	tubeTop      = 26
	tubeBottom   = 42
)

// OLED draws a Scene on an SSD1306 panel.
type OLED struct {
	dev      *ssd1306.Dev
	bus      i2c.BusCloser
	scene    *Scene
	interval time.Duration
	log      *slog.Logger
}

// OpenOLED initializes periph, opens the named I2C bus ("" for the first
// one) and the panel on it.
func OpenOLED(busName string, scene *Scene, interval time.Duration, logger *slog.Logger) (*OLED, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	logger.Info("oled initialized", "bus", bus.String())
	return &OLED{dev: dev, bus: bus, scene: scene, interval: interval, log: logger.With("component", "oled")}, nil
}

// Run redraws the panel every interval until ctx is done.
func (o *OLED) Run(ctx context.Context) error {
	if o.interval <= 0 {
		return fmt.Errorf("oled: %w", level.ErrInvalidPeriod)
	}
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			img := RenderOLEDFrame(o.scene.Frame())
			if err := o.dev.Draw(o.dev.Bounds(), img, image.Point{}); err != nil {
				o.log.Warn("draw failed", "err", err)
			}
		}
	}
}

// Close blanks the panel and releases the bus.
func (o *OLED) Close() error {
	if err := o.dev.Halt(); err != nil {
		o.log.Warn("halt failed", "err", err)
	}
	return o.bus.Close()
}

// RenderOLEDFrame rasterizes f into a 128x64 1-bit image.
func RenderOLEDFrame(f Frame) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, oledWidth, oledHeight))

	if f.Opacity[level.Grid] >= oledVisible {
		for y := 4; y < oledHeight; y += 8 {
			for x := 4; x < oledWidth; x += 8 {
				img.SetBit(x, y, image1bit.On)
			}
		}
	}
	if f.Opacity[level.ReferenceLine] >= oledVisible {
		for y := plumbAnchorY; y < oledHeight; y += 3 {
			img.SetBit(oledWidth/2, y, image1bit.On)
		}
	}

	if f.Kind == level.Rotate {
		if f.Opacity[level.PlumbLine] >= oledVisible {
			drawPlumb(img, f.Indicator)
		}
	} else {
		drawTube(img, f.Indicator)
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(0, 11),
	}
	drawer.DrawString(strings.TrimPrefix(f.Label, "Angle: "))
	return img
}

func drawPlumb(img draw.Image, deg float64) {
	rad := deg * math.Pi / 180
	ax, ay := float64(oledWidth/2), float64(plumbAnchorY)
	bx := ax + plumbLength*math.Sin(rad)
	by := ay + plumbLength*math.Cos(rad)
	// unit normal, for line thickness
	nx, ny := math.Cos(rad), -math.Sin(rad)

	z := vector.NewRasterizer(oledWidth, oledHeight)
	z.DrawOp = draw.Over
	z.MoveTo(float32(ax-nx), float32(ay-ny))
	z.LineTo(float32(ax+nx), float32(ay+ny))
	z.LineTo(float32(bx+nx), float32(by+ny))
	z.LineTo(float32(bx-nx), float32(by-ny))
	z.ClosePath()
	addDisc(z, bx, by, 3)
	z.Draw(img, img.Bounds(), &image.Uniform{image1bit.On}, image.Point{})
}

func drawTube(img *image1bit.VerticalLSB, offset float64) {
	for x := 2; x < oledWidth-2; x++ {
		img.SetBit(x, tubeTop, image1bit.On)
		img.SetBit(x, tubeBottom, image1bit.On)
	}
	for y := tubeTop; y <= tubeBottom; y++ {
		img.SetBit(2, y, image1bit.On)
		img.SetBit(oledWidth-3, y, image1bit.On)
		if (y-tubeTop)%2 == 0 {
			img.SetBit(oledWidth/2-8, y, image1bit.On)
			img.SetBit(oledWidth/2+8, y, image1bit.On)
		}
	}

	const r = 6
	cx := float64(oledWidth/2) + offset
	cx = math.Max(2+r+1, math.Min(float64(oledWidth-3-r-1), cx))
	cy := float64(tubeTop+tubeBottom) / 2

	z := vector.NewRasterizer(oledWidth, oledHeight)
	z.DrawOp = draw.Over
	addDisc(z, cx, cy, r)
	z.Draw(img, img.Bounds(), &image.Uniform{image1bit.On}, image.Point{})
}

// addDisc adds a 16-gon approximating a disc to the rasterizer path.
func addDisc(z *vector.Rasterizer, cx, cy, r float64) {
	const n = 16
	for i := 0; i <= n; i++ {
		a := 2 * math.Pi * float64(i) / n
		x, y := float32(cx+r*math.Cos(a)), float32(cy+r*math.Sin(a))
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
}

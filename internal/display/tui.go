// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/relabs-tech/spirit_level/internal/level"
)

const tuiFPS = 30

var (
	styleBright = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	styleMid    = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	styleFaint  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	styleLabel  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	styleStatus = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("46"))
	styleFrame  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("34"))
)

// TUIControls are the user actions the terminal front end can trigger.
type TUIControls struct {
	Mode              func() level.OrientationMode
	ToggleOrientation func()
	ToggleSensor      func() error
}

type tuiTickMsg time.Time

func tuiTick() tea.Cmd {
	return tea.Tick(time.Second/tuiFPS, func(t time.Time) tea.Msg {
		return tuiTickMsg(t)
	})
}

// TUIModel is a Bubble Tea model that draws a Scene.
type TUIModel struct {
	scene    *Scene
	controls TUIControls

	width  int
	height int
	frame  Frame
	status string
}

// NewTUIModel creates the terminal front end for scene.
func NewTUIModel(scene *Scene, controls TUIControls) TUIModel {
	return TUIModel{scene: scene, controls: controls, frame: scene.Frame()}
}

func (m TUIModel) Init() tea.Cmd {
	return tuiTick()
}

func (m TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c", "esc":
			return m, tea.Quit
		case "o", "O":
			if m.controls.ToggleOrientation != nil {
				m.controls.ToggleOrientation()
			}
		case "s", "S":
			if m.controls.ToggleSensor != nil {
				if err := m.controls.ToggleSensor(); err != nil {
					m.status = "sensor: " + err.Error()
				} else {
					m.status = ""
				}
			}
		}
		return m, nil

	case tuiTickMsg:
		m.frame = m.scene.Frame()
		return m, tuiTick()
	}
	return m, nil
}

func (m TUIModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing spirit level..."
	}
	w := m.width - 2
	h := m.height - 4
	if w < 20 {
		w = 20
	}
	if h < 8 {
		h = 8
	}

	c := newCanvas(w, h)
	drawFrame(c, m.frame)
	body := styleFrame.Render(c.render())

	mode := "portrait"
	if m.controls.Mode != nil {
		mode = m.controls.Mode().String()
	}
	status := fmt.Sprintf(" %s | o: rotate  s: sensor  q: quit ", mode)
	if m.status != "" {
		status += "| " + m.status + " "
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styleLabel.Render(m.frame.Label),
		body,
		styleStatus.Render(status),
	)
}

// canvas is a character grid where each cell keeps the opacity it was drawn with.
type canvas struct {
	w, h  int
	cells [][]rune
	alpha [][]float64
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([][]rune, h), alpha: make([][]float64, h)}
	for y := range c.cells {
		c.cells[y] = []rune(strings.Repeat(" ", w))
		c.alpha[y] = make([]float64, w)
	}
	return c
}

func (c *canvas) set(x, y int, r rune, a float64) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h || a < 0.05 {
		return
	}
	if a >= c.alpha[y][x] {
		c.cells[y][x] = r
		c.alpha[y][x] = a
	}
}

func (c *canvas) render() string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			r := string(c.cells[y][x])
			switch a := c.alpha[y][x]; {
			case a >= 0.66:
				b.WriteString(styleBright.Render(r))
			case a >= 0.33:
				b.WriteString(styleMid.Render(r))
			case a > 0:
				b.WriteString(styleFaint.Render(r))
			default:
				b.WriteString(r)
			}
		}
		if y < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// plumbPoints returns the cells of a plumb line hanging from the top centre,
// rotated by deg. Terminal cells are about twice as tall as wide.
func plumbPoints(deg float64, w, h int) [][2]int {
	cx := float64(w / 2)
	length := float64(h - 2)
	rad := deg * math.Pi / 180
	var pts [][2]int
	steps := int(length) * 2
	for i := 0; i <= steps; i++ {
		d := length * float64(i) / float64(steps)
		x := int(math.Round(cx + 2*d*math.Sin(rad)))
		y := int(math.Round(d * math.Cos(rad)))
		if len(pts) > 0 && pts[len(pts)-1] == [2]int{x, y} {
			continue
		}
		pts = append(pts, [2]int{x, y})
	}
	return pts
}

// bubbleColumn maps a bubble offset, in display units, to a column inside a tube of width w.
func bubbleColumn(offset float64, w int) int {
	centre := w / 2
	col := centre + int(math.Round(offset))
	if col < 2 {
		col = 2
	}
	if col > w-3 {
		col = w - 3
	}
	return col
}

func drawFrame(c *canvas, f Frame) {
	grid := f.Opacity[level.Grid]
	for y := 0; y < c.h; y += 2 {
		for x := 0; x < c.w; x += 4 {
			c.set(x, y, '·', grid*0.5)
		}
	}

	ref := f.Opacity[level.ReferenceLine]
	for y := 0; y < c.h; y++ {
		c.set(c.w/2, y, '┊', ref*0.6)
	}

	if f.Kind == level.Rotate {
		plumb := f.Opacity[level.PlumbLine]
		pts := plumbPoints(f.Indicator, c.w, c.h)
		for i, p := range pts {
			r := '│'
			if i == len(pts)-1 {
				r = '●'
			}
			c.set(p[0], p[1], r, plumb)
		}
		return
	}

	// landscape tube across the middle
	mid := c.h / 2
	for x := 1; x < c.w-1; x++ {
		c.set(x, mid-1, '─', grid)
		c.set(x, mid+1, '─', grid)
	}
	c.set(0, mid, '(', grid)
	c.set(c.w-1, mid, ')', grid)
	c.set(c.w/2-2, mid, '|', grid*0.6)
	c.set(c.w/2+2, mid, '|', grid*0.6)
	col := bubbleColumn(f.Indicator, c.w)
	c.set(col-1, mid, '(', 1)
	c.set(col, mid, 'o', 1)
	c.set(col+1, mid, ')', 1)
}

// RunTUI runs the terminal front end until the user quits or ctx is done.
func RunTUI(ctx context.Context, scene *Scene, controls TUIControls) error {
	p := tea.NewProgram(NewTUIModel(scene, controls),
		tea.WithAltScreen(),
		tea.WithFPS(tuiFPS),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

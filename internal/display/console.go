// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/relabs-tech/spirit_level/internal/level"
)

// Printer is a level.Display that writes one line per command.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) SetAngleLabel(text string) error {
	return p.printf("[LABEL] %s\n", text)
}

func (p *Printer) MoveIndicator(kind level.IndicatorKind, value float64) error {
	return p.printf("[MOVE ] %-9s %7.2f\n", kind, value)
}

func (p *Printer) SetOpacity(el level.Element, target float64, d time.Duration, c level.Curve) error {
	return p.printf("[FADE ] %-14s -> %.2f over %v (%s)\n", el, target, d, c)
}

func (p *Printer) printf(format string, args ...interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.w, format, args...)
	return err
}

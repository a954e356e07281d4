// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/relabs-tech/spirit_level/internal/level"
)

// Command types on the wire.
const (
	CommandLabel   = "label"
	CommandMove    = "move"
	CommandOpacity = "opacity"
)

// Command is the JSON form of one display request, shared by the MQTT and
// websocket front ends.
type Command struct {
	Type       string  `json:"type"`
	Text       string  `json:"text,omitempty"`
	Kind       string  `json:"kind,omitempty"`
	Value      float64 `json:"value,omitempty"`
	Element    string  `json:"element,omitempty"`
	Target     float64 `json:"target,omitempty"`
	DurationMs int64   `json:"duration_ms,omitempty"`
	Curve      string  `json:"curve,omitempty"`
	Time       string  `json:"time"`
}

func labelCommand(text string, t time.Time) Command {
	return Command{Type: CommandLabel, Text: text, Time: t.Format(time.RFC3339Nano)}
}

func moveCommand(kind level.IndicatorKind, value float64, t time.Time) Command {
	return Command{Type: CommandMove, Kind: kind.String(), Value: value, Time: t.Format(time.RFC3339Nano)}
}

func opacityCommand(el level.Element, target float64, d time.Duration, c level.Curve, t time.Time) Command {
	return Command{
		Type:       CommandOpacity,
		Element:    string(el),
		Target:     target,
		DurationMs: d.Milliseconds(),
		Curve:      string(c),
		Time:       t.Format(time.RFC3339Nano),
	}
}

// Apply replays a decoded command onto d.
func (c Command) Apply(d level.Display) error {
	switch c.Type {
	case CommandLabel:
		return d.SetAngleLabel(c.Text)
	case CommandMove:
		switch c.Kind {
		case level.Rotate.String():
			return d.MoveIndicator(level.Rotate, c.Value)
		case level.Translate.String():
			return d.MoveIndicator(level.Translate, c.Value)
		default:
			return fmt.Errorf("command: unknown move kind %q", c.Kind)
		}
	case CommandOpacity:
		curve, err := level.ParseCurve(c.Curve)
		if err != nil {
			return fmt.Errorf("command: %w", err)
		}
		return d.SetOpacity(level.Element(c.Element), c.Target, time.Duration(c.DurationMs)*time.Millisecond, curve)
	default:
		return fmt.Errorf("command: unknown type %q", c.Type)
	}
}

// DecodeCommand parses one JSON command.
func DecodeCommand(payload []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(payload, &c); err != nil {
		return Command{}, fmt.Errorf("command: decode: %w", err)
	}
	return c, nil
}

// Fanout forwards every command to each display in order and returns the
// first error after all have been tried.
type Fanout []level.Display

func (f Fanout) SetAngleLabel(text string) error {
	var first error
	for _, d := range f {
		if err := d.SetAngleLabel(text); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f Fanout) MoveIndicator(kind level.IndicatorKind, value float64) error {
	var first error
	for _, d := range f {
		if err := d.MoveIndicator(kind, value); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f Fanout) SetOpacity(el level.Element, target float64, d time.Duration, c level.Curve) error {
	var first error
	for _, disp := range f {
		if err := disp.SetOpacity(el, target, d, c); err != nil && first == nil {
			first = err
		}
	}
	return first
}

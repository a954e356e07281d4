// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/spirit_level/internal/level"
)

// TypeACC is the proprietary sentence carrying one accelerometer sample:
//
//	$PACC,<x>,<y>,<z>*hh
//
// with x, y and z in g.
const TypeACC = "ACC"

// ACC is a parsed $PACC sentence.
type ACC struct {
	nmea.BaseSentence
	X float64
	Y float64
	Z float64
}

func newACC(s nmea.BaseSentence) (nmea.Sentence, error) {
	p := nmea.NewParser(s)
	m := ACC{
		BaseSentence: s,
		X:            p.Float64(0, "x"),
		Y:            p.Float64(1, "y"),
		Z:            p.Float64(2, "z"),
	}
	return m, p.Err()
}

var accParser = nmea.SentenceParser{
	CustomParsers: map[string]nmea.ParserFunc{
		TypeACC: newACC,
	},
}

// ParseAccelSentence parses a $PACC line into a sample.
func ParseAccelSentence(line string) (level.AccelerationSample, error) {
	sentence, err := accParser.Parse(strings.TrimSpace(line))
	if err != nil {
		return level.AccelerationSample{}, err
	}
	m, ok := sentence.(ACC)
	if !ok {
		return level.AccelerationSample{}, fmt.Errorf("not an accelerometer sentence: %s", sentence.DataType())
	}
	return level.AccelerationSample{X: m.X, Y: m.Y, Z: m.Z}, nil
}

// PortOpener opens the byte stream a SerialAccelerometer reads from.
type PortOpener func() (io.ReadWriteCloser, error)

// SerialPort returns a PortOpener for a serial device at baud, 8N1.
func SerialPort(name string, baud int) PortOpener {
	return func() (io.ReadWriteCloser, error) {
		return serial.Open(serial.OpenOptions{
			PortName:              name,
			BaudRate:              uint(baud),
			DataBits:              8,
			StopBits:              1,
			MinimumReadSize:       1,
			ParityMode:            serial.PARITY_NONE,
			InterCharacterTimeout: 0,
		})
	}
}

// SerialAccelerometer streams $PACC sentences from an external board.
// The port is opened on Start and closed on Stop.
type SerialAccelerometer struct {
	open PortOpener
	log  *slog.Logger
	slot handlerSlot

	mu   sync.Mutex
	port io.ReadWriteCloser
	done chan struct{}
}

// NewSerialAccelerometer creates a serial source. A nil opener yields an
// unsupported accelerometer.
func NewSerialAccelerometer(open PortOpener, logger *slog.Logger) *SerialAccelerometer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SerialAccelerometer{open: open, log: logger.With("component", "serial_accel")}
}

func (a *SerialAccelerometer) IsSupported() bool { return a.open != nil }

func (a *SerialAccelerometer) IsMonitoring() bool { return a.slot.active() }

func (a *SerialAccelerometer) Start(handler func(level.AccelerationSample)) error {
	if a.open == nil {
		return ErrNotSupported
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.port != nil {
		return nil
	}

	port, err := a.open()
	if err != nil {
		return fmt.Errorf("serial accelerometer: open: %w", err)
	}
	a.slot.set(handler)
	a.port = port
	a.done = make(chan struct{})
	go a.readLoop(port, a.done)
	a.log.Info("serial accelerometer started")
	return nil
}

func (a *SerialAccelerometer) Stop() error {
	a.mu.Lock()
	port, done := a.port, a.done
	a.port, a.done = nil, nil
	a.mu.Unlock()

	a.slot.clear()
	if port == nil {
		return nil
	}
	err := port.Close()
	<-done
	a.log.Info("serial accelerometer stopped")
	return err
}

func (a *SerialAccelerometer) readLoop(port io.Reader, done chan struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "$") {
			continue
		}
		s, err := ParseAccelSentence(line)
		if err != nil {
			// partial sentences are common right after the port opens
			a.log.Debug("sentence dropped", "err", err, "line", line)
			continue
		}
		a.slot.deliver(s)
	}
	if err := scanner.Err(); err != nil && a.slot.active() {
		a.log.Warn("serial read error", "err", err)
	}
}

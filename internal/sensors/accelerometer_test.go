// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/relabs-tech/spirit_level/internal/level"
)

func TestPollingAccelerometer_DeliversAndStops(t *testing.T) {
	var reads atomic.Int64
	r := ReaderFunc(func() (level.AccelerationSample, error) {
		reads.Add(1)
		return level.AccelerationSample{Z: 1}, nil
	})
	p := NewPollingAccelerometer(r, time.Millisecond, nil)

	got := make(chan level.AccelerationSample, 64)
	var stopped atomic.Bool
	var late atomic.Int64
	handler := func(s level.AccelerationSample) {
		if stopped.Load() {
			late.Add(1)
		}
		select {
		case got <- s:
		default:
		}
	}

	if err := p.Start(handler); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !p.IsMonitoring() {
		t.Fatalf("expected monitoring after Start")
	}
	// second Start is a no-op
	if err := p.Start(handler); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	select {
	case s := <-got:
		if s.Z != 1 {
			t.Fatalf("sample=%+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no sample delivered")
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	stopped.Store(true)
	if p.IsMonitoring() {
		t.Fatalf("still monitoring after Stop")
	}

	before := reads.Load()
	time.Sleep(20 * time.Millisecond)
	if reads.Load() != before || late.Load() != 0 {
		t.Fatalf("activity after Stop: reads %d->%d late=%d", before, reads.Load(), late.Load())
	}
	// Stop twice is fine
	if err := p.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestPollingAccelerometer_ReadErrorsSkipped(t *testing.T) {
	var n atomic.Int64
	r := ReaderFunc(func() (level.AccelerationSample, error) {
		if n.Add(1)%2 == 1 {
			return level.AccelerationSample{}, errors.New("spi glitch")
		}
		return level.AccelerationSample{X: 0.5}, nil
	})
	p := NewPollingAccelerometer(r, time.Millisecond, nil)
	got := make(chan level.AccelerationSample, 1)
	if err := p.Start(func(s level.AccelerationSample) {
		select {
		case got <- s:
		default:
		}
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	select {
	case s := <-got:
		if s.X != 0.5 {
			t.Fatalf("sample=%+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no sample delivered")
	}
}

func TestPollingAccelerometer_Unsupported(t *testing.T) {
	p := NewPollingAccelerometer(nil, time.Millisecond, nil)
	if p.IsSupported() {
		t.Fatalf("nil reader should be unsupported")
	}
	if err := p.Start(func(level.AccelerationSample) {}); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("err=%v want ErrNotSupported", err)
	}
}

func TestPollingAccelerometer_InvalidInterval(t *testing.T) {
	p := NewPollingAccelerometer(NewMockSource(), 0, nil)
	if err := p.Start(func(level.AccelerationSample) {}); !errors.Is(err, level.ErrInvalidPeriod) {
		t.Fatalf("err=%v want ErrInvalidPeriod", err)
	}
}

func TestMockSource_TiltRecoverable(t *testing.T) {
	now := time.Unix(1000, 0)
	m := newMockSourceWithClock(func() time.Time { return now })

	s, _ := m.Read()
	if s.X != 0 || s.Y != 0 || s.Z != 1 {
		t.Fatalf("at start got=%+v want flat", s)
	}

	for i := 0; i < 200; i++ {
		now = now.Add(137 * time.Millisecond)
		s, err := m.Read()
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		mag := math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
		if math.Abs(mag-1) > 1e-9 {
			t.Fatalf("|g|=%v want 1", mag)
		}
		a := level.Estimate(s)
		if math.Abs(level.Degrees(a.Pitch)) > 20+1e-9 || math.Abs(level.Degrees(a.Roll)) > 15+1e-9 {
			t.Fatalf("tilt out of range: %+v", a)
		}
	}
}

func TestGravity_RoundTrip(t *testing.T) {
	pitch, roll := 0.3, -0.2
	a := level.Estimate(gravity(pitch, roll))
	if math.Abs(a.Pitch-pitch) > 1e-12 || math.Abs(a.Roll-roll) > 1e-12 {
		t.Fatalf("got=%+v want pitch=%v roll=%v", a, pitch, roll)
	}
}

func TestCountsToSample(t *testing.T) {
	if got := countsPerG(0); got != 16384 {
		t.Fatalf("±2g lsb=%v", got)
	}
	if got := countsPerG(3); got != 2048 {
		t.Fatalf("±16g lsb=%v", got)
	}
	s := countsToSample(0, -8192, 16384, countsPerG(0))
	if s.X != 0 || s.Y != -0.5 || s.Z != 1 {
		t.Fatalf("got=%+v", s)
	}
}

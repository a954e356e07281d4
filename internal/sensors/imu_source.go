// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/spirit_level/internal/level"
)

// MPU9250 accelerometer sensitivity at ±2g, in LSB per g. Each range step halves it.
const accelLSBPerG2 = 16384.0

type imuSource struct {
	imu        *mpu9250.MPU9250
	lsbPerG    float64
	spiDevice  string
	accelRange byte
}

// NewIMUSource initializes an MPU9250 over SPI and returns a Reader of
// its accelerometer. accelRange is 0=±2g, 1=±4g, 2=±8g, 3=±16g.
func NewIMUSource(spiDev, csPin string, accelRange byte, logger *slog.Logger) (Reader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if accelRange > 3 {
		return nil, fmt.Errorf("IMU: accel range must be 0-3, got %d", accelRange)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU: CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU: SPI transport (%s): %w", spiDev, err)
	}

	imu, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("IMU: device creation: %w", err)
	}

	if err := imu.Init(); err != nil {
		return nil, fmt.Errorf("IMU: initialization: %w", err)
	}

	if err := imu.SetAccelRange(accelRange); err != nil {
		return nil, fmt.Errorf("IMU: set accel range: %w", err)
	}

	log := logger.With("component", "imu", "device", spiDev)
	log.Info("accelerometer range set", "range", accelRange, "g", []int{2, 4, 8, 16}[accelRange])

	// Self-test and calibration failures leave the sensor usable, only less accurate.
	if _, err := imu.SelfTest(); err != nil {
		log.Warn("self-test failed", "err", err)
	}
	if err := imu.Calibrate(); err != nil {
		log.Warn("calibration failed", "err", err)
	} else {
		log.Info("calibration complete")
	}

	return &imuSource{
		imu:        imu,
		lsbPerG:    countsPerG(accelRange),
		spiDevice:  spiDev,
		accelRange: accelRange,
	}, nil
}

func countsPerG(accelRange byte) float64 {
	return accelLSBPerG2 / float64(int(1)<<accelRange)
}

// Read returns the acceleration in g.
func (s *imuSource) Read() (level.AccelerationSample, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return level.AccelerationSample{}, fmt.Errorf("IMU accel X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return level.AccelerationSample{}, fmt.Errorf("IMU accel Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return level.AccelerationSample{}, fmt.Errorf("IMU accel Z: %w", err)
	}
	return countsToSample(ax, ay, az, s.lsbPerG), nil
}

func countsToSample(ax, ay, az int16, lsbPerG float64) level.AccelerationSample {
	return level.AccelerationSample{
		X: float64(ax) / lsbPerG,
		Y: float64(ay) / lsbPerG,
		Z: float64(az) / lsbPerG,
	}
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/spirit_level/internal/config"
	"github.com/relabs-tech/spirit_level/internal/sensors"
)

// RunAccelProducer reads the accelerometer every SAMPLE_INTERVAL and
// publishes each sample as JSON on TOPIC_ACCEL, for a level running
// elsewhere with the mqtt source.
func RunAccelProducer(source string, logger *slog.Logger) error {
	cfg := config.Get()
	if logger == nil {
		logger = slog.Default()
	}

	var reader sensors.Reader
	switch source {
	case SourceMock:
		log.Println("using mock accelerometer")
		reader = sensors.NewMockSource()
	case SourceIMU, "":
		r, err := sensors.NewIMUSource(cfg.IMUSPIDevice, cfg.IMUCSPin, cfg.IMUAccelRange, logger)
		if err != nil {
			return err
		}
		reader = r
	default:
		return fmt.Errorf("producer: unsupported source %q (want imu or mock)", source)
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Println("connected to MQTT, starting publish loop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return publishSamples(ctx, reader, client, cfg.TopicAccel, cfg.SampleInterval, logger)
}

func publishSamples(ctx context.Context, reader sensors.Reader, client mqtt.Client, topic string, interval time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		s, err := reader.Read()
		if err != nil {
			logger.Warn("accelerometer read error", "err", err)
			continue
		}

		payload, err := json.Marshal(s)
		if err != nil {
			logger.Warn("json marshal error", "err", err)
			continue
		}

		// qos 0, not retained: only the latest sample matters
		if token := client.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
			logger.Warn("MQTT publish error", "topic", topic, "err", token.Error())
			continue
		}
		logger.Debug("published sample", "x", s.X, "y", s.Y, "z", s.Z)
	}
}

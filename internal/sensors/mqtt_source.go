// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/json"
	"fmt"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/spirit_level/internal/level"
)

// MQTTAccelerometer receives JSON samples ({"x":..,"y":..,"z":..}) that a
// producer publishes on topic. The client must already be connected.
type MQTTAccelerometer struct {
	client mqtt.Client
	topic  string
	log    *slog.Logger
	slot   handlerSlot
}

func NewMQTTAccelerometer(client mqtt.Client, topic string, logger *slog.Logger) *MQTTAccelerometer {
	if logger == nil {
		logger = slog.Default()
	}
	return &MQTTAccelerometer{client: client, topic: topic, log: logger.With("component", "mqtt_accel", "topic", topic)}
}

func (a *MQTTAccelerometer) IsSupported() bool { return a.client != nil && a.topic != "" }

func (a *MQTTAccelerometer) IsMonitoring() bool { return a.slot.active() }

func (a *MQTTAccelerometer) Start(handler func(level.AccelerationSample)) error {
	if !a.IsSupported() {
		return ErrNotSupported
	}
	if !a.slot.set(handler) {
		return nil
	}

	token := a.client.Subscribe(a.topic, 0, a.onMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		a.slot.clear()
		return fmt.Errorf("mqtt accelerometer: subscribe %s: %w", a.topic, err)
	}
	a.log.Info("subscribed")
	return nil
}

func (a *MQTTAccelerometer) Stop() error {
	if !a.slot.clear() {
		return nil
	}
	token := a.client.Unsubscribe(a.topic)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt accelerometer: unsubscribe %s: %w", a.topic, err)
	}
	a.log.Info("unsubscribed")
	return nil
}

func (a *MQTTAccelerometer) onMessage(_ mqtt.Client, msg mqtt.Message) {
	var s level.AccelerationSample
	if err := json.Unmarshal(msg.Payload(), &s); err != nil {
		a.log.Warn("sample unmarshal error", "err", err)
		return
	}
	a.slot.deliver(s)
}

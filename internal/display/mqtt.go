// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/spirit_level/internal/level"
)

// MQTTPublisher is a level.Display that publishes each command as JSON on
// one topic. Publish does not wait for the broker; failures are logged.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	now    func() time.Time
	log    *slog.Logger
}

// NewMQTTPublisher publishes on topic through an already connected client.
func NewMQTTPublisher(client mqtt.Client, topic string, logger *slog.Logger) *MQTTPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &MQTTPublisher{client: client, topic: topic, now: time.Now, log: logger.With("component", "mqtt-display")}
}

func (p *MQTTPublisher) SetAngleLabel(text string) error {
	return p.publish(labelCommand(text, p.now()))
}

func (p *MQTTPublisher) MoveIndicator(kind level.IndicatorKind, value float64) error {
	return p.publish(moveCommand(kind, value, p.now()))
}

func (p *MQTTPublisher) SetOpacity(el level.Element, target float64, d time.Duration, c level.Curve) error {
	return p.publish(opacityCommand(el, target, d, c, p.now()))
}

func (p *MQTTPublisher) publish(cmd Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("mqtt display: marshal %s: %w", cmd.Type, err)
	}
	token := p.client.Publish(p.topic, 0, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			p.log.Warn("publish failed", "topic", p.topic, "type", cmd.Type, "err", token.Error())
		}
	}()
	return nil
}

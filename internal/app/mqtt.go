// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/spirit_level/internal/display"
	"github.com/relabs-tech/spirit_level/internal/level"
)

func connectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect to %s: %w", broker, token.Error())
	}
	return client, nil
}

// parseOrientationPayload accepts a bare mode ("landscape") or the JSON
// message browsers send ({"type":"orientation","mode":"landscape"}).
func parseOrientationPayload(payload []byte) (level.OrientationMode, error) {
	text := strings.TrimSpace(string(payload))
	if strings.HasPrefix(text, "{") {
		var msg display.OrientationMessage
		if err := json.Unmarshal([]byte(text), &msg); err != nil {
			return level.Portrait, fmt.Errorf("orientation payload: %w", err)
		}
		text = msg.Mode
	}
	return level.ParseOrientationMode(text)
}

// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/spirit_level/internal/level"
)

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (doneToken) Error() error { return nil }

type message struct {
	topic   string
	payload []byte
}

func (m message) Duplicate() bool   { return false }
func (m message) Qos() byte         { return 0 }
func (m message) Retained() bool    { return false }
func (m message) Topic() string     { return m.topic }
func (m message) MessageID() uint16 { return 0 }
func (m message) Payload() []byte   { return m.payload }
func (m message) Ack()              {}

// brokerClient routes publishes to the subscribed callback in process.
type brokerClient struct {
	mqtt.Client
	mu       sync.Mutex
	handlers map[string]mqtt.MessageHandler
}

func (c *brokerClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handlers == nil {
		c.handlers = map[string]mqtt.MessageHandler{}
	}
	c.handlers[topic] = cb
	return doneToken{}
}

func (c *brokerClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		delete(c.handlers, t)
	}
	return doneToken{}
}

func (c *brokerClient) push(topic, payload string) bool {
	c.mu.Lock()
	cb := c.handlers[topic]
	c.mu.Unlock()
	if cb == nil {
		return false
	}
	cb(c, message{topic: topic, payload: []byte(payload)})
	return true
}

func TestMQTTAccelerometer_DeliversSamples(t *testing.T) {
	client := &brokerClient{}
	a := NewMQTTAccelerometer(client, "level/accel", nil)

	var got []level.AccelerationSample
	if err := a.Start(func(s level.AccelerationSample) { got = append(got, s) }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !a.IsMonitoring() {
		t.Fatalf("expected monitoring")
	}

	client.push("level/accel", `{"x":0.1,"y":0.2,"z":0.97}`)
	client.push("level/accel", `not json`)

	if len(got) != 1 || got[0].X != 0.1 || got[0].Z != 0.97 {
		t.Fatalf("got=%+v", got)
	}

	if err := a.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if client.push("level/accel", `{"x":1}`) {
		t.Fatalf("still subscribed after Stop")
	}
	// a message racing with Stop must not reach the handler
	a.onMessage(client, message{topic: "level/accel", payload: []byte(`{"x":1}`)})
	if len(got) != 1 {
		t.Fatalf("delivered after Stop: %+v", got)
	}
}

func TestMQTTAccelerometer_Unsupported(t *testing.T) {
	a := NewMQTTAccelerometer(nil, "level/accel", nil)
	if a.IsSupported() {
		t.Fatalf("nil client should be unsupported")
	}
}

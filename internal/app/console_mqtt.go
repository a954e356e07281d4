// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/spirit_level/internal/config"
	"github.com/relabs-tech/spirit_level/internal/display"
)

// RunRenderConsole prints the render commands a level publishes on
// TOPIC_RENDER, one line each.
func RunRenderConsole(logger *slog.Logger) error {
	cfg := config.Get()
	if logger == nil {
		logger = slog.Default()
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicRender, 0, renderHandler(os.Stdout, logger))
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicRender)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

func renderHandler(w io.Writer, logger *slog.Logger) mqtt.MessageHandler {
	printer := display.NewPrinter(w)
	return func(_ mqtt.Client, msg mqtt.Message) {
		cmd, err := display.DecodeCommand(msg.Payload())
		if err != nil {
			logger.Warn("console: command decode error", "err", err)
			return
		}
		if err := cmd.Apply(printer); err != nil {
			logger.Warn("console: command rejected", "type", cmd.Type, "err", err)
		}
	}
}

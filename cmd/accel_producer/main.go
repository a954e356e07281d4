// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/spirit_level/internal/app"
	"github.com/relabs-tech/spirit_level/internal/config"
)

func main() {
	configPath := flag.String("config", "./level_config.txt", "path to configuration file")
	mock := flag.Bool("mock", false, "publish a simulated accelerometer instead of the MPU9250")
	flag.Parse()

	log.Println("starting spirit-level accelerometer producer (accelerometer → MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := app.NewLogger(os.Stdout, config.Get().LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	source := app.SourceIMU
	if *mock {
		source = app.SourceMock
	}
	if err := app.RunAccelProducer(source, logger); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

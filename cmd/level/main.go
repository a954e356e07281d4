// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/spirit_level/internal/app"
	"github.com/relabs-tech/spirit_level/internal/config"
)

var (
	flagConfig   string
	flagSource   string
	flagDisplay  string
	flagLogLevel string
	flagLogFile  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "level",
		Short: "Spirit level - plumb line and bubble level driven by an accelerometer",
		Long: `level reads an accelerometer, estimates pitch and roll, and shows a plumb
line in portrait or a bubble in landscape on a terminal, an SSD1306 OLED,
a browser over websocket, or as JSON commands over MQTT.

Press 'o' in the terminal to rotate, or publish "portrait"/"landscape" on
TOPIC_ORIENTATION. Use --source mock without hardware.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&flagConfig, "config", "", "path to configuration file (KEY=VALUE or .yaml)")
	rootCmd.Flags().StringVar(&flagSource, "source", app.SourceIMU, "accelerometer source: imu, mock, serial, mqtt or none")
	rootCmd.Flags().StringVar(&flagDisplay, "display", app.RenderTUI, "comma separated displays: tui, oled, web, mqtt, console")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "override LOG_LEVEL (error, warn, info, debug)")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "write logs to this file (the tui display discards logs otherwise)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := config.InitGlobal(flagConfig); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.Get()

	renderers, err := app.ParseRenderers(flagDisplay)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	var out io.Writer = os.Stderr
	switch {
	case flagLogFile != "":
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	case len(renderers) == 1 && renderers[0] == app.RenderTUI:
		out = io.Discard
	}
	logger, err := app.NewLogger(out, level)
	if err != nil {
		return err
	}

	logger.Info("starting spirit level", "source", flagSource, "display", flagDisplay)
	return app.RunLevel(app.LevelOptions{
		Source:    flagSource,
		Renderers: renderers,
		Logger:    logger,
	})
}

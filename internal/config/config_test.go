// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults_Validate(t *testing.T) {
	if err := Defaults().validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoad_KeyValue(t *testing.T) {
	path := writeConfig(t, "level.config", `
# spirit level
MQTT_BROKER = tcp://broker:1883
TICK_INTERVAL=50
FADE_DURATION=1s
DEADBAND_DEG=0.5
AUTO_ORIENTATION=true
INITIAL_ORIENTATION=Landscape
IMU_ACCEL_RANGE=1
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MQTTBroker != "tcp://broker:1883" {
		t.Fatalf("broker=%q", cfg.MQTTBroker)
	}
	if cfg.TickInterval != 50*time.Millisecond || cfg.FadeDuration != time.Second {
		t.Fatalf("tick=%v fade=%v", cfg.TickInterval, cfg.FadeDuration)
	}
	if cfg.DeadbandDeg != 0.5 || !cfg.AutoOrientation || cfg.InitialOrientation != "landscape" || cfg.IMUAccelRange != 1 {
		t.Fatalf("cfg=%+v", cfg)
	}
	// untouched keys keep defaults
	if cfg.BubbleScale != 2.5 || cfg.TopicRender != "level/render" {
		t.Fatalf("defaults lost: scale=%v topic=%q", cfg.BubbleScale, cfg.TopicRender)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "level.yaml", `
log_level: debug
tick_interval: 250ms
sample_interval: 10
bubble_scale: 4
deadband_across_modes: true
WEB_SERVER_PORT: 9090
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.TickInterval != 250*time.Millisecond || cfg.SampleInterval != 10*time.Millisecond {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.BubbleScale != 4 || !cfg.DeadbandAcrossModes || cfg.WebServerPort != 9090 {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name string
		file string
		body string
		want string
	}{
		{"unknown key", "a.config", "NOPE=1\n", "unknown config key"},
		{"missing equals", "b.config", "TICK_INTERVAL\n", "invalid config line 1"},
		{"bad duration", "c.config", "TICK_INTERVAL=soon\n", "invalid TICK_INTERVAL"},
		{"zero tick", "d.config", "TICK_INTERVAL=0\n", "TICK_INTERVAL must be positive"},
		{"negative deadband", "e.config", "DEADBAND_DEG=-1\n", "DEADBAND_DEG"},
		{"zero deadband", "j.config", "DEADBAND_DEG=0\n", "DEADBAND_DEG must be positive"},
		{"bad orientation", "f.config", "INITIAL_ORIENTATION=upside\n", "INITIAL_ORIENTATION"},
		{"bad range", "g.config", "IMU_ACCEL_RANGE=4\n", "IMU_ACCEL_RANGE must be 0-3"},
		{"nested yaml", "h.yaml", "mqtt:\n  broker: x\n", "nested values"},
		{"bad log level", "i.yaml", "log_level: loud\n", "LOG_LEVEL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.file, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err=%v want containing %q", err, tc.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.config")); err == nil {
		t.Fatalf("expected error")
	}
}

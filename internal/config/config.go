// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration values.
type Config struct {
	LogLevel string

	// MQTT
	MQTTBroker           string
	MQTTClientIDLevel    string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string

	// Topics
	TopicAccel       string
	TopicOrientation string
	TopicRender      string

	// IMU Hardware
	IMUSPIDevice string
	IMUCSPin     string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte

	// Serial accelerometer
	SerialPort     string
	SerialBaudRate int

	// Timing
	SampleInterval  time.Duration
	TickInterval    time.Duration
	FadeDuration    time.Duration
	MoveDuration    time.Duration
	DisplayInterval time.Duration

	// Level behaviour
	DeadbandDeg         float64
	BubbleScale         float64
	DeadbandAcrossModes bool
	AutoOrientation     bool
	InitialOrientation  string

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CBus string // "" selects the first bus
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns a Config with every value set.
func Defaults() *Config {
	return &Config{
		LogLevel: "info",

		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDLevel:    "spirit-level",
		MQTTClientIDProducer: "spirit-level-producer",
		MQTTClientIDConsole:  "spirit-level-console",

		TopicAccel:       "level/accel",
		TopicOrientation: "level/orientation",
		TopicRender:      "level/render",

		IMUSPIDevice: "/dev/spidev0.0",
		IMUCSPin:     "8",

		SerialPort:     "/dev/ttyUSB0",
		SerialBaudRate: 115200,

		SampleInterval:  20 * time.Millisecond,
		TickInterval:    100 * time.Millisecond,
		FadeDuration:    600 * time.Millisecond,
		MoveDuration:    100 * time.Millisecond,
		DisplayInterval: 50 * time.Millisecond,

		DeadbandDeg:        0.25,
		BubbleScale:        2.5,
		InitialOrientation: "portrait",

		WebServerPort: 8080,
	}
}

// Load reads a KEY=VALUE file, or a YAML mapping when the file ends in
// .yaml or .yml, on top of Defaults.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = cfg.readYAML(file)
	default:
		err = cfg.readKeyValue(file)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readKeyValue(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := c.setValue(key, value); err != nil {
			return fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// readYAML accepts a flat mapping using the same keys, in either case:
//
//	tick_interval: 100ms
//	deadband_deg: 0.5
func (c *Config) readYAML(r io.Reader) error {
	var raw map[string]interface{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("failed to parse yaml config: %w", err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := raw[k]
		if v == nil {
			continue
		}
		switch v.(type) {
		case map[string]interface{}, []interface{}:
			return fmt.Errorf("config key %q: nested values are not supported", k)
		}
		if err := c.setValue(strings.ToUpper(k), fmt.Sprint(v)); err != nil {
			return err
		}
	}
	return nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_LEVEL":
		c.MQTTClientIDLevel = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_ACCEL":
		c.TopicAccel = value
	case "TOPIC_ORIENTATION":
		c.TopicOrientation = value
	case "TOPIC_RENDER":
		c.TopicRender = value

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = rate

	// Timing
	case "SAMPLE_INTERVAL":
		return parseDuration(key, value, &c.SampleInterval)
	case "TICK_INTERVAL":
		return parseDuration(key, value, &c.TickInterval)
	case "FADE_DURATION":
		return parseDuration(key, value, &c.FadeDuration)
	case "MOVE_DURATION":
		return parseDuration(key, value, &c.MoveDuration)
	case "DISPLAY_INTERVAL":
		return parseDuration(key, value, &c.DisplayInterval)

	// Level behaviour
	case "DEADBAND_DEG":
		return parseFloat(key, value, &c.DeadbandDeg)
	case "BUBBLE_SCALE":
		return parseFloat(key, value, &c.BubbleScale)
	case "DEADBAND_ACROSS_MODES":
		return parseBool(key, value, &c.DeadbandAcrossModes)
	case "AUTO_ORIENTATION":
		return parseBool(key, value, &c.AutoOrientation)
	case "INITIAL_ORIENTATION":
		c.InitialOrientation = strings.ToLower(value)

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// parseDuration accepts a Go duration ("250ms") or a bare integer in milliseconds.
func parseDuration(key, value string, dst *time.Duration) error {
	if ms, err := strconv.Atoi(value); err == nil {
		*dst = time.Duration(ms) * time.Millisecond
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = d
	return nil
}

func parseFloat(key, value string, dst *float64) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = f
	return nil
}

func parseBool(key, value string, dst *bool) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = b
	return nil
}

// validate checks that the loaded values are usable.
func (c *Config) validate() error {
	switch c.LogLevel {
	case "error", "warn", "warning", "info", "debug":
	default:
		return fmt.Errorf("LOG_LEVEL must be error, warn, info or debug, got %q", c.LogLevel)
	}
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicAccel == "" || c.TopicOrientation == "" || c.TopicRender == "" {
		return fmt.Errorf("TOPIC_ACCEL, TOPIC_ORIENTATION and TOPIC_RENDER are required")
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("SAMPLE_INTERVAL must be positive, got %v", c.SampleInterval)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL must be positive, got %v", c.TickInterval)
	}
	if c.DisplayInterval <= 0 {
		return fmt.Errorf("DISPLAY_INTERVAL must be positive, got %v", c.DisplayInterval)
	}
	if c.FadeDuration < 0 || c.MoveDuration < 0 {
		return fmt.Errorf("FADE_DURATION and MOVE_DURATION must not be negative")
	}
	if c.DeadbandDeg <= 0 {
		return fmt.Errorf("DEADBAND_DEG must be positive, got %v", c.DeadbandDeg)
	}
	if c.BubbleScale <= 0 {
		return fmt.Errorf("BUBBLE_SCALE must be positive, got %v", c.BubbleScale)
	}
	switch c.InitialOrientation {
	case "portrait", "landscape":
	default:
		return fmt.Errorf("INITIAL_ORIENTATION must be portrait or landscape, got %q", c.InitialOrientation)
	}
	if c.SerialBaudRate <= 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE must be positive, got %d", c.SerialBaudRate)
	}
	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT out of range: %d", c.WebServerPort)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// An empty path installs Defaults. Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		if configPath == "" {
			globalConfig = Defaults()
			return
		}
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}

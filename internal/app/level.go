// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/spirit_level/internal/config"
	"github.com/relabs-tech/spirit_level/internal/display"
	"github.com/relabs-tech/spirit_level/internal/level"
	"github.com/relabs-tech/spirit_level/internal/sensors"
)

// Sensor sources.
const (
	SourceIMU    = "imu"
	SourceMock   = "mock"
	SourceSerial = "serial"
	SourceMQTT   = "mqtt"
	SourceNone   = "none"
)

// Renderers.
const (
	RenderTUI     = "tui"
	RenderOLED    = "oled"
	RenderWeb     = "web"
	RenderMQTT    = "mqtt"
	RenderConsole = "console"
)

// LevelOptions selects where samples come from and where the level is drawn.
type LevelOptions struct {
	Source    string
	Renderers []string
	Logger    *slog.Logger
}

// ParseRenderers splits a comma separated renderer list and rejects unknown names.
func ParseRenderers(list string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, r := range strings.Split(list, ",") {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" || seen[r] {
			continue
		}
		switch r {
		case RenderTUI, RenderOLED, RenderWeb, RenderMQTT, RenderConsole:
		default:
			return nil, fmt.Errorf("unknown display %q (want tui, oled, web, mqtt or console)", r)
		}
		if r == RenderTUI && seen[RenderConsole] || r == RenderConsole && seen[RenderTUI] {
			return nil, fmt.Errorf("tui and console both need the terminal")
		}
		seen[r] = true
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no display selected")
	}
	return out, nil
}

func has(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}

// RunLevel shows the level page until interrupted, or until the user
// quits the terminal front end.
func RunLevel(opts LevelOptions) error {
	cfg := config.Get()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	initial, err := level.ParseOrientationMode(cfg.InitialOrientation)
	if err != nil {
		return err
	}

	// --- MQTT, when anything needs it ---
	var client mqtt.Client
	if opts.Source == SourceMQTT || has(opts.Renderers, RenderMQTT) {
		client, err = connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDLevel)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		logger.Info("connected to MQTT", "broker", cfg.MQTTBroker)
	}

	sensor, err := newSensor(opts.Source, cfg, client, logger)
	if err != nil {
		return err
	}

	// --- displays ---
	var page *level.Page
	onOrientation := func(m level.OrientationMode) bool { return page.OnOrientationChanged(m) }

	scene := display.NewScene(cfg.MoveDuration)
	var fanout display.Fanout
	if has(opts.Renderers, RenderTUI) || has(opts.Renderers, RenderOLED) {
		fanout = append(fanout, scene)
	}
	if has(opts.Renderers, RenderConsole) {
		fanout = append(fanout, display.NewPrinter(os.Stdout))
	}
	var hub *display.WebHub
	if has(opts.Renderers, RenderWeb) {
		hub = display.NewWebHub(onOrientation, logger)
		defer hub.Close()
		fanout = append(fanout, hub)
	}
	if has(opts.Renderers, RenderMQTT) {
		fanout = append(fanout, display.NewMQTTPublisher(client, cfg.TopicRender, logger))
	}

	var out level.Display = fanout
	if len(fanout) == 1 {
		out = fanout[0]
	}

	page = level.NewPage(sensor, out, level.PageConfig{
		Scheduler: level.SchedulerConfig{
			Period:              cfg.TickInterval,
			Threshold:           cfg.DeadbandDeg,
			ScaleFactor:         cfg.BubbleScale,
			DeadbandAcrossModes: cfg.DeadbandAcrossModes,
		},
		Fade:            level.FadeConfig{Duration: cfg.FadeDuration, Curve: level.CubicInOut},
		InitialMode:     initial,
		AutoOrientation: cfg.AutoOrientation,
	}, logger)

	// --- orientation over MQTT ---
	if client != nil {
		token := client.Subscribe(cfg.TopicOrientation, 0, func(_ mqtt.Client, msg mqtt.Message) {
			mode, err := parseOrientationPayload(msg.Payload())
			if err != nil {
				logger.Warn("orientation message ignored", "err", err)
				return
			}
			page.OnOrientationChanged(mode)
		})
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", cfg.TopicOrientation, token.Error())
		}
		defer client.Unsubscribe(cfg.TopicOrientation)
	}

	if err := page.Appear(); err != nil {
		return err
	}
	defer page.Disappear()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if has(opts.Renderers, RenderOLED) {
		oled, err := display.OpenOLED(cfg.DisplayI2CBus, scene, cfg.DisplayInterval, logger)
		if err != nil {
			return err
		}
		defer oled.Close()
		g.Go(func() error { return oled.Run(ctx) })
	}

	if hub != nil {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
			Handler:           hub.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("web server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("web server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if has(opts.Renderers, RenderTUI) {
		err := display.RunTUI(ctx, scene, display.TUIControls{
			Mode: page.Gate().Mode,
			ToggleOrientation: func() {
				page.OnOrientationChanged(page.Gate().Mode().Opposite())
			},
			ToggleSensor: page.ToggleAccelerometer,
		})
		stop()
		if waitErr := g.Wait(); err == nil {
			err = waitErr
		}
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")
	stop()
	return g.Wait()
}

func newSensor(source string, cfg *config.Config, client mqtt.Client, logger *slog.Logger) (level.Accelerometer, error) {
	switch source {
	case SourceIMU, "":
		reader, err := sensors.NewIMUSource(cfg.IMUSPIDevice, cfg.IMUCSPin, cfg.IMUAccelRange, logger)
		if err != nil {
			return nil, err
		}
		return sensors.NewPollingAccelerometer(reader, cfg.SampleInterval, logger), nil
	case SourceMock:
		return sensors.NewPollingAccelerometer(sensors.NewMockSource(), cfg.SampleInterval, logger), nil
	case SourceSerial:
		return sensors.NewSerialAccelerometer(sensors.SerialPort(cfg.SerialPort, cfg.SerialBaudRate), logger), nil
	case SourceMQTT:
		return sensors.NewMQTTAccelerometer(client, cfg.TopicAccel, logger), nil
	case SourceNone:
		return sensors.NewPollingAccelerometer(nil, cfg.SampleInterval, logger), nil
	default:
		return nil, fmt.Errorf("unknown source %q (want imu, mock, serial, mqtt or none)", source)
	}
}

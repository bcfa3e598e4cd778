// Command relay-switch drives a two-channel relay switch: it runs the light
// schedule, serves the local HTTP API, and syncs with the cloud over MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/relay-switch/internal/activity"
	"github.com/sweeney/relay-switch/internal/clock"
	"github.com/sweeney/relay-switch/internal/config"
	"github.com/sweeney/relay-switch/internal/controller"
	"github.com/sweeney/relay-switch/internal/device"
	"github.com/sweeney/relay-switch/internal/gpio"
	"github.com/sweeney/relay-switch/internal/mqtt"
	"github.com/sweeney/relay-switch/internal/status"
	"github.com/sweeney/relay-switch/internal/web"
)

// version is set at build time.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to YAML config (defaults when empty)")
	printState := flag.Bool("print-state", false, "Print relay and button state and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg.Log.Level, cfg.Log.JSON, cfg.Log.Colors)

	if err := run(cfg, *printState); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

func setupLogging(level string, useJSON, colors bool) {
	zerolog.TimeFieldFormat = time.RFC3339

	if useJSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    !colors,
		})
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func run(cfg *config.Config, printState bool) error {
	relays, err := gpio.NewRealRelays(cfg.GPIO.Chip, cfg.GPIO.RelayPins[0], cfg.GPIO.RelayPins[1])
	if err != nil {
		return fmt.Errorf("init relays: %w", err)
	}
	defer relays.Close()

	buttons, err := gpio.NewRealButtons(cfg.GPIO.Chip, cfg.GPIO.ButtonPins[0], cfg.GPIO.ButtonPins[1])
	if err != nil {
		return fmt.Errorf("init buttons: %w", err)
	}
	defer buttons.Close()

	if printState {
		l1, l2 := relays.Outputs()
		b1, b2, err := buttons.Read()
		if err != nil {
			return fmt.Errorf("read buttons: %w", err)
		}
		fmt.Printf("relays: %s, buttons: %s\n", device.EncodeValue(l1, l2), device.EncodeValue(b1, b2))
		return nil
	}

	if err := os.MkdirAll(cfg.Device.DataDir, 0o755); err != nil {
		return fmt.Errorf("data dir: %w", err)
	}
	if err := cfg.ResolveDeviceID(); err != nil {
		return err
	}

	notes, err := activity.Open(cfg.Activity.Path, cfg.Activity.Enabled)
	if err != nil {
		return fmt.Errorf("open activity log: %w", err)
	}
	defer notes.Close()

	publisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:     cfg.GPIO.Poll.Duration().Milliseconds(),
		DebounceMs: cfg.GPIO.Debounce.Duration().Milliseconds(),
		Broker:     cfg.MQTT.Broker,
		HTTPAddr:   cfg.HTTP.Addr,
		DataDir:    cfg.Device.DataDir,
	})

	ctl := controller.New(controller.Config{
		ID:        cfg.Device.ID,
		Version:   version,
		DataDir:   cfg.Device.DataDir,
		Offline:   cfg.Device.Offline,
		Debounce:  cfg.GPIO.Debounce.Duration(),
		State:     device.New(),
		Clock:     clock.NewSoft(time.Now),
		Relays:    relays,
		Buttons:   buttons,
		Publisher: publisher,
		Activity:  notes,
		Tracker:   tracker,
	})
	ctl.Boot()
	if cfg.Clock.TrustSystem {
		ctl.SetClock(time.Now())
	}

	publishSystem(publisher, tracker, mqtt.EventStartup, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reason := watchSignals(cancel)

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, ctl.Device(ctx), cfg.Metrics.Enabled)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("HTTP server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("HTTP server listening")
	}

	second := time.NewTicker(time.Second)
	defer second.Stop()
	poll := time.NewTicker(cfg.GPIO.Poll.Duration())
	defer poll.Stop()

	log.Info().
		Str("id", cfg.Device.ID).
		Str("broker", cfg.MQTT.Broker).
		Dur("poll", cfg.GPIO.Poll.Duration()).
		Dur("debounce", cfg.GPIO.Debounce.Duration()).
		Bool("offline", cfg.Device.Offline).
		Msg("Started")

	err = ctl.Run(ctx, controller.Loop{Second: second.C, Poll: poll.C})

	why := "error"
	select {
	case why = <-reason:
	default:
	}
	publishSystem(publisher, tracker, mqtt.EventShutdown, why)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watchSignals cancels on SIGINT or SIGTERM and then delivers the signal name.
func watchSignals(cancel context.CancelFunc) <-chan string {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	reason := make(chan string, 1)
	go func() {
		s := <-sigCh
		log.Info().Stringer("signal", s).Msg("Shutting down")
		reason <- signalName(s)
		cancel()
	}()
	return reason
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}

func newPublisher(cfg *config.Config) (mqtt.Publisher, error) {
	if cfg.MQTT.Broker == "" {
		log.Info().Msg("No MQTT broker configured")
		return mqtt.Nop{}, nil
	}
	p, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker:     cfg.MQTT.Broker,
		ClientID:   cfg.Device.ID,
		Topics:     mqtt.Topics{Prefix: cfg.MQTT.TopicPrefix, ID: cfg.Device.ID},
		BufferSize: cfg.MQTT.BufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("init mqtt: %w", err)
	}
	return p, nil
}

func publishSystem(p mqtt.Publisher, tracker *status.Tracker, event, reason string) {
	snap := tracker.Snapshot()
	err := p.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		log.Warn().Err(err).Str("event", event).Msg("System event not published")
		return
	}
	log.Info().Str("event", event).Msg("System event published")
}

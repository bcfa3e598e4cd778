package main

import (
	"os"
	"syscall"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sweeney/relay-switch/internal/config"
	"github.com/sweeney/relay-switch/internal/mqtt"
)

func TestSignalName(t *testing.T) {
	tests := []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGHUP, "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := signalName(tt.sig); got != tt.want {
			t.Errorf("signalName(%v): got %q, want %q", tt.sig, got, tt.want)
		}
	}
}

func TestSetupLoggingLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	setupLogging("debug", true, false)
	if got := zerolog.GlobalLevel(); got != zerolog.DebugLevel {
		t.Errorf("level: got %v, want debug", got)
	}

	setupLogging("nonsense", false, false)
	if got := zerolog.GlobalLevel(); got != zerolog.InfoLevel {
		t.Errorf("level: got %v, want info", got)
	}
}

func TestNewPublisherWithoutBroker(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	p, err := newPublisher(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(mqtt.Nop); !ok {
		t.Errorf("publisher: got %T, want mqtt.Nop", p)
	}
}

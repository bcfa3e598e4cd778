package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/relay-switch/internal/gpio"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Device.ID != "" {
		t.Errorf("Device.ID: got %q, want empty until resolved", cfg.Device.ID)
	}
	if cfg.GPIO.RelayPins != [2]int{gpio.DefaultRelay1, gpio.DefaultRelay2} {
		t.Errorf("RelayPins: got %v", cfg.GPIO.RelayPins)
	}
	if cfg.GPIO.Debounce.Duration() != 50*time.Millisecond {
		t.Errorf("Debounce: got %v", cfg.GPIO.Debounce.Duration())
	}
	if cfg.MQTT.TopicPrefix != "idom/switch" || cfg.MQTT.BufferSize != 100 {
		t.Errorf("MQTT: got %+v", cfg.MQTT)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr: got %q", cfg.HTTP.Addr)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level: got %q", cfg.Log.Level)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
device:
  id: hallway
  offline: true
  data_dir: /var/lib/relay-switch
gpio:
  relay_pins: [5, 6]
  debounce: 80ms
mqtt:
  broker: tcp://broker:1883
  buffer_size: 10
log:
  level: debug
  json: true
metrics:
  enabled: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Device.ID != "hallway" || !cfg.Device.Offline {
		t.Errorf("Device: got %+v", cfg.Device)
	}
	if cfg.GPIO.RelayPins != [2]int{5, 6} {
		t.Errorf("RelayPins: got %v", cfg.GPIO.RelayPins)
	}
	if cfg.GPIO.ButtonPins != [2]int{gpio.DefaultButton1, gpio.DefaultButton2} {
		t.Errorf("ButtonPins: got %v", cfg.GPIO.ButtonPins)
	}
	if cfg.GPIO.Debounce.Duration() != 80*time.Millisecond {
		t.Errorf("Debounce: got %v", cfg.GPIO.Debounce.Duration())
	}
	if cfg.MQTT.Broker != "tcp://broker:1883" || cfg.MQTT.BufferSize != 10 {
		t.Errorf("MQTT: got %+v", cfg.MQTT)
	}
	if !cfg.Log.JSON || cfg.Log.Level != "debug" || !cfg.Metrics.Enabled {
		t.Error("log/metrics settings not read")
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("RELAY_BROKER", "tcp://env:1883")
	path := writeConfig(t, `
mqtt:
  broker: ${RELAY_BROKER}
http:
  addr: ${RELAY_HTTP_UNSET::9090}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MQTT.Broker != "tcp://env:1883" {
		t.Errorf("Broker: got %q", cfg.MQTT.Broker)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("Addr: got %q", cfg.HTTP.Addr)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file: expected error")
	}
	if _, err := Load(writeConfig(t, "gpio:\n  debounce: soon\n")); err == nil {
		t.Error("bad duration: expected error")
	}
}

func TestResolveDeviceIDIsStable(t *testing.T) {
	dir := t.TempDir()

	first := &Config{Device: DeviceConfig{DataDir: dir}}
	if err := first.ResolveDeviceID(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(first.Device.ID, "switch_") {
		t.Errorf("Device.ID: got %q", first.Device.ID)
	}

	second := &Config{Device: DeviceConfig{DataDir: dir}}
	if err := second.ResolveDeviceID(); err != nil {
		t.Fatal(err)
	}
	if second.Device.ID != first.Device.ID {
		t.Errorf("Device.ID after restart: got %q, want %q", second.Device.ID, first.Device.ID)
	}
}

func TestResolveDeviceIDKeepsConfigured(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Device: DeviceConfig{ID: "hallway", DataDir: dir}}
	if err := cfg.ResolveDeviceID(); err != nil {
		t.Fatal(err)
	}
	if cfg.Device.ID != "hallway" {
		t.Errorf("Device.ID: got %q", cfg.Device.ID)
	}
	if _, err := os.Stat(filepath.Join(dir, IDFile)); !os.IsNotExist(err) {
		t.Errorf("id file written for configured ID: %v", err)
	}
}

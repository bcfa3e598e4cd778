// Package config loads the daemon's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/relay-switch/internal/gpio"
)

// Config is the daemon configuration.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	GPIO     GPIOConfig     `yaml:"gpio"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	HTTP     HTTPConfig     `yaml:"http"`
	Activity ActivityConfig `yaml:"activity"`
	Log      LogConfig      `yaml:"log"`
	Clock    ClockConfig    `yaml:"clock"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DeviceConfig identifies the switch and where it keeps its settings.
type DeviceConfig struct {
	ID      string `yaml:"id"`
	Offline bool   `yaml:"offline"` // never push outward
	DataDir string `yaml:"data_dir"`
}

// GPIOConfig selects relay and button lines.
type GPIOConfig struct {
	Chip       string   `yaml:"chip"`
	RelayPins  [2]int   `yaml:"relay_pins"`
	ButtonPins [2]int   `yaml:"button_pins"`
	Debounce   Duration `yaml:"debounce"`
	Poll       Duration `yaml:"poll"`
}

// MQTTConfig contains broker settings. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	TopicPrefix string `yaml:"topic_prefix"`
	BufferSize  int    `yaml:"buffer_size"`
}

// HTTPConfig contains the local API address. Empty disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// ActivityConfig controls the persistent activity log.
type ActivityConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	JSON   bool   `yaml:"json"`
	Colors bool   `yaml:"colors"`
}

// ClockConfig controls the initial clock.
type ClockConfig struct {
	// TrustSystem starts the clock from the host time instead of waiting
	// for a peer to supply it.
	TrustSystem bool `yaml:"trust_system"`
}

// MetricsConfig exposes /metrics when enabled.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Device.DataDir == "" {
		cfg.Device.DataDir = "."
	}

	if cfg.GPIO.Chip == "" {
		cfg.GPIO.Chip = "gpiochip0"
	}
	if cfg.GPIO.RelayPins == [2]int{} {
		cfg.GPIO.RelayPins = [2]int{gpio.DefaultRelay1, gpio.DefaultRelay2}
	}
	if cfg.GPIO.ButtonPins == [2]int{} {
		cfg.GPIO.ButtonPins = [2]int{gpio.DefaultButton1, gpio.DefaultButton2}
	}
	if cfg.GPIO.Debounce == 0 {
		cfg.GPIO.Debounce = Duration(50 * time.Millisecond)
	}
	if cfg.GPIO.Poll == 0 {
		cfg.GPIO.Poll = Duration(20 * time.Millisecond)
	}

	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "idom/switch"
	}
	if cfg.MQTT.BufferSize <= 0 {
		cfg.MQTT.BufferSize = 100
	}

	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}

	if cfg.Activity.Path == "" {
		cfg.Activity.Path = "activity.sqlite"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// IDFile holds the generated device ID inside the data directory.
const IDFile = "device_id"

// ResolveDeviceID fills an empty Device.ID from IDFile in the data
// directory, generating and storing a new "switch_<uuid>" on first start.
func (cfg *Config) ResolveDeviceID() error {
	if cfg.Device.ID != "" {
		return nil
	}
	path := filepath.Join(cfg.Device.DataDir, IDFile)
	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			cfg.Device.ID = id
			return nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read device id: %w", err)
	}

	id := "switch_" + uuid.NewString()
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return fmt.Errorf("write device id: %w", err)
	}
	cfg.Device.ID = id
	return nil
}

var envVar = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvVars expands ${VAR} and ${VAR:default}.
func expandEnvVars(input string) string {
	return envVar.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVar.FindStringSubmatch(match)
		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		return parts[2]
	})
}

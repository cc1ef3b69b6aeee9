package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Tracking   TrackingConfig   `yaml:"tracking"`
	Log        LogConfig        `yaml:"log"`
	Transcript TranscriptConfig `yaml:"transcript"`
}

// TrackingConfig holds match tracking settings
type TrackingConfig struct {
	Hosts        []string      `yaml:"hosts"`         // host suffixes of the tracked platform
	TickInterval time.Duration `yaml:"tick_interval"` // clock pulse in follow mode, 0 = transcript ticks only
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // auto, text or json
}

// TranscriptConfig holds transcript reading settings
type TranscriptConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.setDefaults()

	switch cfg.Log.Format {
	case "auto", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Log.Format)
	}
	if cfg.Tracking.TickInterval < 0 {
		return nil, fmt.Errorf("invalid tick interval %v", cfg.Tracking.TickInterval)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if len(c.Tracking.Hosts) == 0 {
		c.Tracking.Hosts = []string{"hypixel.net"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "auto"
	}
	if c.Transcript.PollInterval == 0 {
		c.Transcript.PollInterval = 100 * time.Millisecond
	}
	// Note: TickInterval intentionally has no default - replays are clocked by the transcript
}

// IsTracked reports whether host belongs to the tracked platform.
// Ports and letter case are ignored.
func (t TrackingConfig) IsTracked(host string) bool {
	host = strings.ToLower(host)
	if i := strings.LastIndex(host, ":"); i != -1 {
		host = host[:i]
	}
	host = strings.TrimSuffix(host, ".")

	for _, suffix := range t.Hosts {
		suffix = strings.ToLower(strings.TrimPrefix(suffix, "."))
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

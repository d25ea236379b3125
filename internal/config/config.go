// ABOUTME: Configuration loading and parsing for avatar-link
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete avatar-link configuration
type Config struct {
	Backend Backend `yaml:"backend"`
	WebRTC  WebRTC  `yaml:"webrtc"`
	Lock    Lock    `yaml:"lock"`
	Avatar  Avatar  `yaml:"avatar"`
	Storage Storage `yaml:"storage"`
	Media   Media   `yaml:"media"`
	Logging Logging `yaml:"logging"`
}

// Backend holds the tutor backend endpoint configuration
type Backend struct {
	BaseURL string `yaml:"base_url"`

	RequestTimeout    time.Duration `yaml:"-"`
	RequestTimeoutRaw string        `yaml:"request_timeout"`
}

// WebRTC holds the media transport configuration
type WebRTC struct {
	STUNServers []string `yaml:"stun_servers"`

	GatherTimeout    time.Duration `yaml:"-"`
	GatherTimeoutRaw string        `yaml:"gather_timeout"`
}

// Lock holds the cross-process admission lock configuration
type Lock struct {
	TTL               time.Duration `yaml:"-"`
	HeartbeatInterval time.Duration `yaml:"-"`

	TTLRaw               string `yaml:"ttl"`
	HeartbeatIntervalRaw string `yaml:"heartbeat_interval"`
}

// Avatar holds avatar selection and lifecycle timing configuration
type Avatar struct {
	Default string `yaml:"default"`

	ColdStartSettle  time.Duration `yaml:"-"`
	DisconnectSettle time.Duration `yaml:"-"`
	ReconnectSettle  time.Duration `yaml:"-"`

	ColdStartSettleRaw  string `yaml:"cold_start_settle"`
	DisconnectSettleRaw string `yaml:"disconnect_settle"`
	ReconnectSettleRaw  string `yaml:"reconnect_settle"`
}

// Storage holds the shared key-value store configuration
type Storage struct {
	Path string `yaml:"path"`
}

// Media holds incoming-track recording configuration
type Media struct {
	// Dir is where received video/audio is written. Empty disables recording.
	Dir string `yaml:"dir"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
// Timing fields may be zero; the packages that consume them apply their
// own defaults.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	// A heartbeat slower than the TTL would let a healthy session's lock
	// go stale between refreshes.
	if c.Lock.TTL > 0 && c.Lock.HeartbeatInterval > 0 && c.Lock.HeartbeatInterval >= c.Lock.TTL {
		return fmt.Errorf("lock.heartbeat_interval (%s) must be shorter than lock.ttl (%s)",
			c.Lock.HeartbeatInterval, c.Lock.TTL)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"backend.request_timeout", cfg.Backend.RequestTimeoutRaw, &cfg.Backend.RequestTimeout},
		{"webrtc.gather_timeout", cfg.WebRTC.GatherTimeoutRaw, &cfg.WebRTC.GatherTimeout},
		{"lock.ttl", cfg.Lock.TTLRaw, &cfg.Lock.TTL},
		{"lock.heartbeat_interval", cfg.Lock.HeartbeatIntervalRaw, &cfg.Lock.HeartbeatInterval},
		{"avatar.cold_start_settle", cfg.Avatar.ColdStartSettleRaw, &cfg.Avatar.ColdStartSettle},
		{"avatar.disconnect_settle", cfg.Avatar.DisconnectSettleRaw, &cfg.Avatar.DisconnectSettle},
		{"avatar.reconnect_settle", cfg.Avatar.ReconnectSettleRaw, &cfg.Avatar.ReconnectSettle},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}

// Package config loads VaultGuard settings from a YAML file and VAULTGUARD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/vaultguard/internal/engine"
	"github.com/aretw0/vaultguard/internal/logging"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
// Nested keys join with underscores: server.port is VAULTGUARD_SERVER_PORT.
const EnvPrefix = "VAULTGUARD_"

// Config is the full runtime configuration.
type Config struct {
	Server    ServerConfig   `mapstructure:"server" yaml:"server"`
	DemoMode  bool           `mapstructure:"demo_mode" yaml:"demo_mode"`
	Instant   bool           `mapstructure:"instant" yaml:"instant"`
	LogLevel  string         `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string         `mapstructure:"log_format" yaml:"log_format"`
	Delays    DelaysConfig   `mapstructure:"delays" yaml:"delays"`
	Weights   engine.Weights `mapstructure:"weights" yaml:"weights"`
	Monitor   MonitorConfig  `mapstructure:"monitor" yaml:"monitor"`
	Redis     RedisConfig    `mapstructure:"redis" yaml:"redis"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	// ChatRate is the sustained chat requests per second; zero disables limiting.
	ChatRate  float64 `mapstructure:"chat_rate" yaml:"chat_rate"`
	ChatBurst int     `mapstructure:"chat_burst" yaml:"chat_burst"`
}

// DelaysConfig holds the simulated latency windows.
type DelaysConfig struct {
	Resolve  engine.Delay `mapstructure:"resolve" yaml:"resolve"`
	Classify engine.Delay `mapstructure:"classify" yaml:"classify"`
	Alert    engine.Delay `mapstructure:"alert" yaml:"alert"`
}

// MonitorConfig configures the proactive watch loop and auto-action countdowns.
type MonitorConfig struct {
	Enabled           bool          `mapstructure:"enabled" yaml:"enabled"`
	Interval          time.Duration `mapstructure:"interval" yaml:"interval"`
	CriticalCountdown time.Duration `mapstructure:"critical_countdown" yaml:"critical_countdown"`
	FollowUpCountdown time.Duration `mapstructure:"follow_up_countdown" yaml:"follow_up_countdown"`
}

// RedisConfig selects the Redis session store when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:      "",
			Port:      8080,
			ChatRate:  5,
			ChatBurst: 10,
		},
		DemoMode:  true,
		LogLevel:  "info",
		LogFormat: logging.FormatText,
		Delays: DelaysConfig{
			Resolve:  engine.ResolveDelay,
			Classify: engine.ClassifyDelay,
			Alert:    engine.AlertDelay,
		},
		Weights: engine.DefaultWeights(),
		Monitor: MonitorConfig{
			Enabled:           true,
			Interval:          engine.DefaultCheckInterval,
			CriticalCountdown: engine.CriticalAlertCountdown,
			FollowUpCountdown: engine.UrgentFollowUpCountdown,
		},
		Redis: RedisConfig{
			Prefix: "vaultguard:session:",
			TTL:    24 * time.Hour,
		},
	}
}

// Load reads path (skipped when empty), applies environment overrides from
// os.LookupEnv and validates the result.
func Load(path string) (Config, error) {
	return LoadWith(path, os.LookupEnv)
}

// LoadWith is Load with an explicit environment lookup.
func LoadWith(path string, lookup func(string) (string, bool)) (Config, error) {
	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}

	for _, key := range Keys() {
		name := EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if v, ok := lookup(name); ok {
			set(raw, strings.Split(key, "."), v)
		}
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges that the decoder cannot.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.ChatRate < 0 || c.Server.ChatBurst < 0 {
		errs = append(errs, errors.New("server chat rate and burst must not be negative"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	for name, p := range map[string]float64{
		"weights.scan_critical_chance":     c.Weights.ScanCriticalChance,
		"weights.scan_moderate_chance":     c.Weights.ScanModerateChance,
		"weights.attack_vulnerable_chance": c.Weights.AttackVulnerableChance,
	} {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %v", name, p))
		}
	}
	for name, d := range map[string]engine.Delay{
		"delays.resolve":  c.Delays.Resolve,
		"delays.classify": c.Delays.Classify,
		"delays.alert":    c.Delays.Alert,
	} {
		if d.Min < 0 || d.Spread < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if c.Monitor.CriticalCountdown < 0 || c.Monitor.FollowUpCountdown < 0 {
		errs = append(errs, errors.New("monitor countdowns must not be negative"))
	}
	return errors.Join(errs...)
}

// Keys lists every dotted configuration key, in field order.
func Keys() []string {
	return keys(reflect.TypeOf(Config{}), "")
}

var durationType = reflect.TypeOf(time.Duration(0))

func keys(t reflect.Type, prefix string) []string {
	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := prefix + tag
		if f.Type.Kind() == reflect.Struct && f.Type != durationType {
			out = append(out, keys(f.Type, key+".")...)
			continue
		}
		out = append(out, key)
	}
	return out
}

// set writes v at path, creating intermediate maps and replacing non-map values.
func set(m map[string]any, path []string, v any) {
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = v
}

// Package config loads boundary settings from TOML or YAML files with
// environment overrides.
package config

import (
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/wallet"
)

// Config is the full boundary configuration.
type Config struct {
	Network    string          `toml:"network" yaml:"network"`
	MaxHandles int             `toml:"max_handles" yaml:"max_handles"`
	Log        LogConfig       `toml:"log" yaml:"log"`
	Transport  TransportConfig `toml:"transport" yaml:"transport"`
	Metrics    MetricsConfig   `toml:"metrics" yaml:"metrics"`
	Serve      ServeConfig     `toml:"serve" yaml:"serve"`
}

type LogConfig struct {
	Level       string `toml:"level" yaml:"level"`
	Development bool   `toml:"development" yaml:"development"`
	Encoding    string `toml:"encoding" yaml:"encoding"`
}

// TransportConfig tunes relay sessions.
type TransportConfig struct {
	MaxMsgBytes    int     `toml:"max_msg_bytes" yaml:"max_msg_bytes"`
	InitialDelayMS int64   `toml:"backoff_initial_ms" yaml:"backoff_initial_ms"`
	MaxDelayMS     int64   `toml:"backoff_max_ms" yaml:"backoff_max_ms"`
	Multiplier     float64 `toml:"backoff_multiplier" yaml:"backoff_multiplier"`
	Jitter         bool    `toml:"backoff_jitter" yaml:"backoff_jitter"`
	MaxAttempts    int     `toml:"max_attempts" yaml:"max_attempts"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
}

// ServeConfig is used by the citadel command in -serve mode.
type ServeConfig struct {
	GRPCAddr string `toml:"grpc_addr" yaml:"grpc_addr"`
	HTTPAddr string `toml:"http_addr" yaml:"http_addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Network:    "mainnet",
		MaxHandles: 1 << 20,
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
		Transport: TransportConfig{
			MaxMsgBytes:    16 << 20,
			InitialDelayMS: 100,
			MaxDelayMS:     2000,
			Multiplier:     2.0,
			Jitter:         true,
			MaxAttempts:    4,
		},
		Metrics: MetricsConfig{Enabled: true},
		Serve: ServeConfig{
			GRPCAddr: "127.0.0.1:7420",
			HTTPAddr: "127.0.0.1:7421",
		},
	}
}

// Validate checks every field and returns the first violation.
func (c Config) Validate() error {
	if _, err := wallet.NetworkByName(c.Network); err != nil {
		return invalid("network", "unknown network %q", c.Network)
	}
	if c.MaxHandles < 0 {
		return invalid("max_handles", "must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "unknown level %q", c.Log.Level)
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		return invalid("log.encoding", "must be json or console, got %q", c.Log.Encoding)
	}
	t := c.Transport
	if t.MaxMsgBytes < 0 {
		return invalid("transport.max_msg_bytes", "must not be negative")
	}
	if t.InitialDelayMS < 0 || t.MaxDelayMS < 0 {
		return invalid("transport.backoff", "delays must not be negative")
	}
	if t.MaxDelayMS > 0 && t.InitialDelayMS > t.MaxDelayMS {
		return invalid("transport.backoff", "initial delay exceeds max delay")
	}
	if t.Multiplier != 0 && t.Multiplier < 1 {
		return invalid("transport.backoff_multiplier", "must be at least 1")
	}
	if t.MaxAttempts < 1 {
		return invalid("transport.max_attempts", "must be at least 1")
	}
	return nil
}

// NetworkValue returns the parsed network. Validate must have succeeded.
func (c Config) NetworkValue() wallet.Network {
	n, _ := wallet.NetworkByName(c.Network)
	return n
}

func (t TransportConfig) InitialDelay() time.Duration {
	return time.Duration(t.InitialDelayMS) * time.Millisecond
}

func (t TransportConfig) MaxDelay() time.Duration {
	return time.Duration(t.MaxDelayMS) * time.Millisecond
}

func invalid(field, detail string, args ...any) *errors.Error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidArgument).
		Path(field).
		Detail(detail, args...).
		Build()
}

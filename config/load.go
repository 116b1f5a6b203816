package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/citadel-abi/errors"
)

// Environment variables that override file values.
const (
	EnvLogLevel   = "CITADEL_LOG_LEVEL"
	EnvNetwork    = "CITADEL_NETWORK"
	EnvMaxHandles = "CITADEL_MAX_HANDLES"
)

// Load reads a configuration file on top of Default, applies environment
// overrides and validates the result. The format is chosen by extension.
// An empty path yields the defaults with overrides applied.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidArgument, err, "read config file")
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			err = decodeTOML(data, &cfg)
		case ".yaml", ".yml":
			err = decodeYAML(data, &cfg)
		default:
			return Config{}, invalid("path", "unsupported config format %q", filepath.Ext(path))
		}
		if err != nil {
			return Config{}, err
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeTOML(data []byte, cfg *Config) error {
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindMalformedInput, err, "parse toml")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return invalid(undecoded[0].String(), "unknown key")
	}
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return errors.Wrap(errors.PhaseConfig, errors.KindMalformedInput, err, "parse yaml")
	}
	return nil
}

// applyEnvOverrides overrides config values with environment variables if set.
func applyEnvOverrides(cfg *Config) error {
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(level))
	}
	if network := os.Getenv(EnvNetwork); network != "" {
		cfg.Network = strings.ToLower(strings.TrimSpace(network))
	}
	if limit := os.Getenv(EnvMaxHandles); limit != "" {
		n, err := strconv.Atoi(strings.TrimSpace(limit))
		if err != nil {
			return errors.New(errors.PhaseConfig, errors.KindInvalidArgument).
				Path(EnvMaxHandles).
				Value(limit).
				Cause(err).
				Detail("not an integer").
				Build()
		}
		cfg.MaxHandles = n
	}
	return nil
}

// Package config loads and validates the library configuration from
// defaults, YAML, and environment variables, and builds configured
// clients, streams, and loggers from it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces the environment variables read by Load, so
// MORTAR_CLIENT__TIMEOUT overrides client.timeout.
const envPrefix = "MORTAR_"

// Load loads configuration from multiple sources with priority:
//  1. Environment variables (highest priority)
//  2. The given YAML file, when path is non-empty
//  3. Default values (lowest priority)
//
// A missing YAML file is not an error; the defaults and environment
// still apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	// Double underscore separates config levels so single underscores
	// survive inside key names: MORTAR_CLIENT__MAX_RETRIES maps to
	// client.max_retries.
	if err := k.Load(envprovider.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return unmarshal(k)
}

// LoadBytes loads configuration from raw YAML layered over the
// defaults. Tests use this for deterministic fixtures.
func LoadBytes(b []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(b), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	return unmarshal(k)
}

// Default returns the default configuration.
func Default() *Config {
	cfg, err := LoadBytes(nil)
	if err != nil {
		// Defaults are static; a failure here is a programming error.
		panic(err)
	}
	return cfg
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"client.timeout":                  "30s",
		"client.max_retries":              2,
		"client.backoff_base":             "1s",
		"client.backoff_cap":              "30s",
		"client.backoff_jitter":           true,
		"client.retry_on_transport_error": true,
		"client.retryable_statuses":       []int{408, 429, 502, 503, 504},
		"client.rate_limit":               0.0,
		"client.rate_burst":               0,
		"client.request_id_header":        "X-Request-ID",
		"client.w3c_trace":                false,
		"client.log_payloads":             false,
		"client.max_payload_log_bytes":    2048,

		"stream.deadline":       "0s",
		"stream.reconnect":      true,
		"stream.reconnect_wait": "3s",

		"log.level":  "info",
		"log.pretty": false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

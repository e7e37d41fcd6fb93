// Package config loads daemon configuration from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment
// variables with the HSD_ prefix.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Port is the UDP port the resolver binds to.
	Port int `koanf:"port" validate:"required,gte=1,lt=65535"`

	// DBPath is the registry snapshot database.
	DBPath string `koanf:"db_path" validate:"required"`

	// CacheSize bounds the decoded-record cache.
	CacheSize uint `koanf:"cache_size" validate:"required,gte=1"`

	// DisableCache bypasses the decoded-record cache entirely.
	DisableCache bool `koanf:"disable_cache"`

	// ExpectedNames sizes the store's negative filter.
	ExpectedNames uint `koanf:"expected_names" validate:"required,gte=1"`
}

// DEFAULT_APP_CONFIG defines the default daemon settings.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:           "prod",
	LogLevel:      "info",
	Port:          53,
	DBPath:        "/var/lib/hsd/names.db",
	CacheSize:     1000,
	DisableCache:  false,
	ExpectedNames: 100000,
}

// envLoader loads environment variables with the prefix "HSD_",
// lowercasing keys and trimming the prefix. Mockable in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "HSD_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "HSD_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader seeds the koanf instance from DEFAULT_APP_CONFIG.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// Load parses environment variables into an AppConfig, applying
// defaults and validation.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &cfg, nil
}

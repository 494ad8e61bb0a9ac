package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if POLYEDGE_CONFIG is set
//  3. env (prefix POLYEDGE_)
func Load() (*Config, error) {
	// Pick up a local .env if present; real env still wins.
	_ = godotenv.Load()

	base := New()

	k := koanf.New(".")

	if path := os.Getenv("POLYEDGE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: POLYEDGE_ADDR, POLYEDGE_MIN_SPREAD, ...
	// mapped to the flat koanf keys on the struct.
	envProvider := env.Provider("POLYEDGE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "polyedge_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.PredictionsFile == "" {
		return nil, errors.New("predictions_file must not be empty")
	}
	if cfg.Workers <= 0 {
		return nil, errors.New("workers must be positive")
	}
	if cfg.IntervalSeconds <= 0 {
		return nil, errors.New("interval_seconds must be positive")
	}
	return &cfg, nil
}

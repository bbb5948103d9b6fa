// Plexwatch - Plex Watch Analytics and Recommendation Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/plexwatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/plexwatch/config.yaml",
	"/etc/plexwatch/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Tautulli: TautulliConfig{
			URL:               "",
			APIKey:            "",
			Timeout:           30 * time.Second,
			MaxRetries:        5,
			RetryBaseDelay:    1 * time.Second,
			RequestsPerSecond: 10,
		},
		Refresh: RefreshConfig{
			Interval:            1 * time.Hour,
			Lookback:            30 * 24 * time.Hour,
			PageSize:            1000,
			MetadataConcurrency: 10,
			ReadyTimeout:        2 * time.Minute,
		},
		Ranking: RankingConfig{
			DefaultLimit:    10,
			DurationWeight:  1.0,
			DiversityWeight: 0.0,
		},
		Recommend: RecommendConfig{
			DefaultLimit: 3,
			MaxLimit:     25,
			MediaTypes:   []string{"movie", "show"},
		},
		Random: RandomConfig{
			Seed: 0, // 0 = seed from entropy
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8282,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{},
			RateLimitReqs:   100,
			RateLimitWindow: 1 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// TAUTULLI_URL -> tautulli.url
	// REFRESH_METADATA_CONCURRENCY -> refresh.metadata_concurrency
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as
// comma-separated slices when supplied via environment variables.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"recommend.media_types",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings, but the config expects
// slices for these paths.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from defaults or YAML file)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envVarMappings maps environment variable prefixes to config path prefixes.
// Variables that don't match any prefix are ignored so unrelated environment
// noise never lands in the configuration tree.
var envVarMappings = map[string]string{
	"TAUTULLI_":  "tautulli.",
	"REFRESH_":   "refresh.",
	"RANKING_":   "ranking.",
	"RECOMMEND_": "recommend.",
	"RANDOM_":    "random.",
	"SERVER_":    "server.",
	"LOG_":       "logging.",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - TAUTULLI_URL -> tautulli.url
//   - TAUTULLI_API_KEY -> tautulli.api_key
//   - REFRESH_INTERVAL -> refresh.interval
//   - RANKING_DURATION_WEIGHT -> ranking.duration_weight
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	for prefix, path := range envVarMappings {
		if strings.HasPrefix(key, prefix) {
			rest := strings.TrimPrefix(key, prefix)
			return path + strings.ToLower(rest)
		}
	}
	return ""
}

// Package config provides configuration management for the Match Oracle engine.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional
// fields; a missing config file is not an error
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MATCH_ORACLE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "match-oracle")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("engine.deadline_budget_ms", 900)
	v.SetDefault("engine.io_pool_size", 16)
	v.SetDefault("engine.cpu_pool_size", 0)
	v.SetDefault("engine.feature_version", "fv1")

	v.SetDefault("models.home_advantage", 0.25)
	v.SetDefault("models.default_rho", -0.10)

	v.SetDefault("artifacts.ratings_file", "artifacts/ratings.json")
	v.SetDefault("artifacts.classifier_dir", "artifacts/classifiers")
	v.SetDefault("artifacts.calibrator_dir", "artifacts/calibrators")
	v.SetDefault("artifacts.temperature_file", "artifacts/temperature.json")
	v.SetDefault("artifacts.alpha_file", "artifacts/alpha.json")
	v.SetDefault("artifacts.drift_file", "artifacts/drift.json")
	v.SetDefault("artifacts.max_cached", 64)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.path", "data/predictions.db")
	v.SetDefault("cache.busy_timeout_ms", 250)

	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.recovery_timeout_seconds", 30)
	v.SetDefault("breaker.half_open_max_calls", 3)

	v.SetDefault("decision.thresholds.min_best_prob", 0.55)
	v.SetDefault("decision.thresholds.min_conf", 0.55)
	v.SetDefault("decision.thresholds.min_gap", 0.03)
	v.SetDefault("decision.thresholds.top_best_prob", 0.70)
	v.SetDefault("decision.thresholds.top_conf", 0.70)
	v.SetDefault("decision.thresholds.top_gap", 0.08)
	v.SetDefault("decision.chaos_enabled", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
}

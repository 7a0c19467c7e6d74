// Package config provides configuration management for the Match Oracle engine.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/yourusername/match-oracle/internal/models"
)

// Config represents the complete engine configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Engine    EngineConfig    `mapstructure:"engine" validate:"required"`
	Models    ModelsConfig    `mapstructure:"models" validate:"required"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache" validate:"required"`
	Breaker   BreakerConfig   `mapstructure:"breaker" validate:"required"`
	Decision  DecisionConfig  `mapstructure:"decision" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// EngineConfig represents the prediction orchestrator configuration
type EngineConfig struct {
	DeadlineBudgetMS int    `mapstructure:"deadline_budget_ms" validate:"required,gte=100"`
	IOPoolSize       int    `mapstructure:"io_pool_size" validate:"required,gt=0"`
	CPUPoolSize      int    `mapstructure:"cpu_pool_size" validate:"gte=0"`
	FeatureVersion   string `mapstructure:"feature_version" validate:"required"`
}

// ModelsConfig represents model bank parameters
type ModelsConfig struct {
	HomeAdvantage  float64            `mapstructure:"home_advantage" validate:"gte=0,lte=1"`
	DefaultRho     float64            `mapstructure:"default_rho" validate:"gte=-0.3,lte=0.3"`
	LeagueRho      map[string]float64 `mapstructure:"league_rho"`
	EarlySeasonCap map[string]int     `mapstructure:"early_season_cap"`
}

// ArtifactsConfig represents on-disk artifact locations
type ArtifactsConfig struct {
	RatingsFile     string `mapstructure:"ratings_file" validate:"required"`
	ClassifierDir   string `mapstructure:"classifier_dir" validate:"required"`
	CalibratorDir   string `mapstructure:"calibrator_dir" validate:"required"`
	TemperatureFile string `mapstructure:"temperature_file"`
	AlphaFile       string `mapstructure:"alpha_file"`
	DriftFile       string `mapstructure:"drift_file"`
	DriftURL        string `mapstructure:"drift_url" validate:"omitempty,url"`
	MaxCached       int    `mapstructure:"max_cached" validate:"required,gt=0"`
}

// CacheConfig represents the prediction result cache configuration
type CacheConfig struct {
	Enabled       bool           `mapstructure:"enabled"`
	Driver        string         `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`
	Path          string         `mapstructure:"path"`
	BusyTimeoutMS int            `mapstructure:"busy_timeout_ms" validate:"required,gt=0"`
	Postgres      PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig represents the optional Postgres cache store connection
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
}

// BreakerConfig represents circuit breaker thresholds
type BreakerConfig struct {
	FailureThreshold       int `mapstructure:"failure_threshold" validate:"required,gt=0"`
	RecoveryTimeoutSeconds int `mapstructure:"recovery_timeout_seconds" validate:"required,gt=0"`
	HalfOpenMaxCalls       int `mapstructure:"half_open_max_calls" validate:"required,gt=0"`
}

// DecisionConfig represents decision gate configuration
type DecisionConfig struct {
	Thresholds   models.DecisionThresholds            `mapstructure:"thresholds" validate:"required"`
	Leagues      map[string]models.DecisionThresholds `mapstructure:"leagues"`
	ChaosEnabled bool                                 `mapstructure:"chaos_enabled"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the engine is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the engine is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// DeadlineBudget returns the per-request budget as a duration
func (c *Config) DeadlineBudget() time.Duration {
	return time.Duration(c.Engine.DeadlineBudgetMS) * time.Millisecond
}

// CPUPoolSize returns the configured CPU pool size, defaulting to the
// number of available cores
func (c *Config) CPUPoolSize() int {
	if c.Engine.CPUPoolSize > 0 {
		return c.Engine.CPUPoolSize
	}
	return runtime.NumCPU()
}

// ThresholdsFor returns the decision thresholds for a league, falling
// back to the global defaults
func (c *Config) ThresholdsFor(league string) models.DecisionThresholds {
	if t, ok := c.Decision.Leagues[league]; ok {
		return t
	}
	return c.Decision.Thresholds
}

// RhoFor returns the Dixon-Coles correlation for a league, falling back
// to the configured default
func (c *Config) RhoFor(league string) float64 {
	if rho, ok := c.Models.LeagueRho[league]; ok {
		return rho
	}
	return c.Models.DefaultRho
}

// CacheDSN returns a PostgreSQL DSN string for the cache store
func (c *Config) CacheDSN() string {
	pg := c.Cache.Postgres
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pg.User,
		pg.Password,
		pg.Host,
		pg.Port,
		pg.Name,
		pg.SSLMode,
	)
}

// Package config provides configuration management for the Match Oracle engine.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	v.RegisterValidation("environment", validateEnvironment)
	v.RegisterValidation("loglevel", validateLogLevel)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.Cache.Enabled {
		switch cfg.Cache.Driver {
		case "sqlite":
			if cfg.Cache.Path == "" {
				return fmt.Errorf("cache.path is required for the sqlite driver")
			}
		case "postgres":
			pg := cfg.Cache.Postgres
			if pg.Host == "" || pg.Name == "" || pg.User == "" {
				return fmt.Errorf("cache.postgres host, name and user are required for the postgres driver")
			}
		}
	}

	t := cfg.Decision.Thresholds
	if t.TopBestProb < t.MinBestProb || t.TopConf < t.MinConf || t.TopGap < t.MinGap {
		return fmt.Errorf("decision thresholds: top_* must not be below min_*")
	}

	for league, lt := range cfg.Decision.Leagues {
		if lt.TopBestProb < lt.MinBestProb || lt.TopConf < lt.MinConf || lt.TopGap < lt.MinGap {
			return fmt.Errorf("decision thresholds for %s: top_* must not be below min_*", league)
		}
	}

	return nil
}

// formatValidationErrors converts validator errors to a readable message
func formatValidationErrors(errs validator.ValidationErrors) error {
	msg := "configuration validation failed:"
	for _, e := range errs {
		msg += fmt.Sprintf(" field %s failed on '%s';", e.Namespace(), e.Tag())
	}
	return fmt.Errorf("%s", msg)
}

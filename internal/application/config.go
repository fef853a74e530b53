package application

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-rubric/internal/domain"
)

// Environment variables that override values read from the config file.
const (
	EnvDBDriver   = "RUBRIC_DB_DRIVER"
	EnvDBDSN      = "RUBRIC_DB_DSN"
	EnvRubricFile = "RUBRIC_RUBRIC_FILE"
	EnvLogLevel   = "RUBRIC_LOG_LEVEL"
)

// DefaultMatchThreshold is the minimum similarity for a fuzzy indicator
// name match.
const DefaultMatchThreshold = 0.8

// DefaultHistoryConcurrency bounds the detail reads of one history request.
const DefaultHistoryConcurrency = 4

// AppConfig is the process configuration of the rubric engine.
type AppConfig struct {
	// Database selects the backing store.
	Database DatabaseConfig `yaml:"database"`

	// RubricFile optionally points to a YAML rubric definition to seed
	// instead of the built-in presentation rubric.
	RubricFile string `yaml:"rubric_file"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// HistoryConcurrency bounds concurrent detail reads when building a
	// student's history.
	HistoryConcurrency int `yaml:"history_concurrency" validate:"min=1,max=64"`

	// MatchThreshold is the minimum similarity in (0, 1] for matching
	// indicator names in submission documents.
	MatchThreshold float64 `yaml:"match_threshold" validate:"gt=0,lte=1"`
}

// DatabaseConfig selects the SQL driver and connection string.
type DatabaseConfig struct {
	// Driver is sqlite or postgres.
	Driver string `yaml:"driver" validate:"required,oneof=sqlite postgres"`

	// DSN is the connection string. It may be empty for SQLite, in which
	// case a local file is used.
	DSN string `yaml:"dsn" validate:"required_if=Driver postgres"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() AppConfig {
	return AppConfig{
		Database:           DatabaseConfig{Driver: "sqlite"},
		LogLevel:           "info",
		HistoryConcurrency: DefaultHistoryConcurrency,
		MatchThreshold:     DefaultMatchThreshold,
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// at path and the RUBRIC_* environment variables, in that order of
// precedence from lowest to highest. The result is validated.
func LoadConfig(path string) (AppConfig, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return AppConfig{}, fmt.Errorf("%w: read %s: %w", domain.ErrInvalidConfiguration, path, err)
		}
		if err := decodeConfig(data, &cfg); err != nil {
			return AppConfig{}, err
		}
	}

	applyEnv(&cfg, os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// decodeConfig overlays the YAML document onto cfg. Unknown keys are
// rejected so typos do not go unnoticed.
func decodeConfig(data []byte, cfg *AppConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDBDriver); ok && v != "" {
		cfg.Database.Driver = normalizeDriver(v)
	}
	if v, ok := lookup(EnvDBDSN); ok {
		cfg.Database.DSN = v
	}
	if v, ok := lookup(EnvRubricFile); ok {
		cfg.RubricFile = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
}

func normalizeDriver(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite3":
		return "sqlite"
	case "postgresql", "pg", "pgx":
		return "postgres"
	default:
		return strings.ToLower(strings.TrimSpace(s))
	}
}

// Validate checks the configuration against its struct tags.
func (c AppConfig) Validate() error {
	v, err := NewValidator()
	if err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, toValidationError("AppConfig", err))
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

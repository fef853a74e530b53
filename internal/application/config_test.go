package application

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-rubric/internal/domain"
)

// clearRubricEnv blanks the RUBRIC_* overrides for the duration of a test.
func clearRubricEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvDBDriver, EnvDBDSN, EnvRubricFile, EnvLogLevel} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rubric.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// TestLoadConfig tests loading configuration from defaults, YAML files and
// the environment, including rejection of invalid documents.
func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr bool
		verify  func(t *testing.T, cfg AppConfig)
	}{
		{
			name: "defaults without a file",
			verify: func(t *testing.T, cfg AppConfig) {
				assert.Equal(t, DefaultConfig(), cfg)
			},
		},
		{
			name: "file overrides defaults",
			yaml: `
database:
  driver: postgres
  dsn: postgres://rubric@localhost/rubric
log_level: debug
history_concurrency: 8
`,
			verify: func(t *testing.T, cfg AppConfig) {
				assert.Equal(t, "postgres", cfg.Database.Driver)
				assert.Equal(t, "postgres://rubric@localhost/rubric", cfg.Database.DSN)
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, 8, cfg.HistoryConcurrency)
				assert.InDelta(t, DefaultMatchThreshold, cfg.MatchThreshold, 1e-9)
			},
		},
		{
			name: "environment overrides file",
			yaml: `
database:
  driver: sqlite
  dsn: file:from-file.db
`,
			env: map[string]string{
				EnvDBDriver:   "pgx",
				EnvDBDSN:      "postgres://env",
				EnvRubricFile: "/etc/rubric/custom.yaml",
				EnvLogLevel:   "WARN",
			},
			verify: func(t *testing.T, cfg AppConfig) {
				assert.Equal(t, "postgres", cfg.Database.Driver)
				assert.Equal(t, "postgres://env", cfg.Database.DSN)
				assert.Equal(t, "/etc/rubric/custom.yaml", cfg.RubricFile)
				assert.Equal(t, "warn", cfg.LogLevel)
			},
		},
		{
			name:    "postgres without dsn",
			yaml:    "database:\n  driver: postgres\n",
			wantErr: true,
		},
		{
			name:    "unknown driver",
			yaml:    "database:\n  driver: mysql\n",
			wantErr: true,
		},
		{
			name:    "unknown key",
			yaml:    "databse:\n  driver: sqlite\n",
			wantErr: true,
		},
		{
			name:    "threshold out of range",
			yaml:    "match_threshold: 1.5\n",
			wantErr: true,
		},
		{
			name:    "invalid log level",
			yaml:    "log_level: verbose\n",
			wantErr: true,
		},
		{
			name: "empty file keeps defaults",
			yaml: "\n",
			verify: func(t *testing.T, cfg AppConfig) {
				assert.Equal(t, DefaultConfig(), cfg)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearRubricEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.yaml != "" {
				path = writeConfig(t, tt.yaml)
			}

			cfg, err := LoadConfig(path)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)
			if tt.verify != nil {
				tt.verify(t, cfg)
			}
		})
	}
}

// TestLoadConfig_MissingFile verifies that an unreadable file is reported as
// a configuration error.
func TestLoadConfig_MissingFile(t *testing.T) {
	clearRubricEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

// TestAppConfig_ValidateReportsFields verifies that validation failures name
// the offending field by its YAML key.
func TestAppConfig_ValidateReportsFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Driver = "postgres"
	cfg.HistoryConcurrency = 0

	err := cfg.Validate()
	require.Error(t, err)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Errors, "database.dsn is required")
	assert.Contains(t, verr.Errors, "history_concurrency must be at least 1")
}

func TestAppConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, AppConfig{LogLevel: tt.level}.SlogLevel())
		})
	}
}

package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, cfg.Database.DSN, cfg.Submissions.DSN)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
	assert.Equal(t, 3, cfg.Progress.MaxConflictRetries)
	assert.Equal(t, 10*time.Minute, cfg.Leaderboard.RebuildInterval)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://learn.example.com, https://admin.example.com")
	t.Setenv("STRICT_MODULES", "true")
	t.Setenv("PROGRESS_MAX_CONFLICT_RETRIES", "5")
	t.Setenv("LEADERBOARD_REBUILD_INTERVAL", "30s")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, []string{"https://learn.example.com", "https://admin.example.com"}, cfg.Server.CORSAllowedOrigins)
	assert.True(t, cfg.Progress.StrictModules)
	assert.Equal(t, 5, cfg.Progress.MaxConflictRetries)
	assert.Equal(t, 30*time.Second, cfg.Leaderboard.RebuildInterval)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bad port":       {"SERVER_PORT": "70000"},
		"unknown driver": {"STORAGE_DRIVER": "mongo"},
		"zero retries":   {"PROGRESS_MAX_CONFLICT_RETRIES": "0"},
		"min over max":   {"DATABASE_MIN_CONNS": "10", "DATABASE_MAX_CONNS": "5"},
		"redis no addr":  {"REDIS_ENABLED": "true", "REDIS_ADDRESS": ""},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

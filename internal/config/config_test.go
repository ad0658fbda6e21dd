package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConsole_Defaults(t *testing.T) {
	cfg, err := LoadConsole("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConsoleConfig(), cfg)
}

func TestLoadConsole_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConsole(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cfg.APIURL)
}

func TestLoadConsole_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
API_URL: http://api.internal:3000
API_TOKEN: from-file
REQUEST_TIMEOUT: 5s
STALE_TIME: 1m
`)
	t.Setenv("API_TOKEN", "from-env")
	t.Setenv("GC_TIME", "30s")

	cfg, err := LoadConsole(path)
	require.NoError(t, err)

	assert.Equal(t, "http://api.internal:3000", cfg.APIURL)
	assert.Equal(t, "from-env", cfg.APIToken)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Minute, cfg.StaleTime)
	assert.Equal(t, 30*time.Second, cfg.GCTime)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConsole_Errors(t *testing.T) {
	t.Run("bad yaml", func(t *testing.T) {
		_, err := LoadConsole(writeFile(t, "API_URL: [unterminated"))
		assert.ErrorContains(t, err, "parse config")
	})

	t.Run("bad env duration", func(t *testing.T) {
		t.Setenv("STALE_TIME", "soon")
		_, err := LoadConsole("")
		assert.ErrorContains(t, err, "parse env")
	})
}

func TestLoadAPI(t *testing.T) {
	path := writeFile(t, `
HTTP_PORT: 8080
DB_DRIVER: postgres
DB_HOST: db
DB_USER: companies
KAFKA_BROKERS:
  - kafka:9092
`)
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadAPI(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "db", cfg.DBHost)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "disable", cfg.DBSSLMode)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "secret", cfg.JWTSecret)
	assert.Equal(t, "company-events", cfg.Topic)
}

func TestLoadAPI_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "port", yaml: "HTTP_PORT: 0", wantErr: "invalid HTTP_PORT"},
		{name: "driver", yaml: "DB_DRIVER: mysql", wantErr: "unsupported DB_DRIVER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAPI(writeFile(t, tt.yaml))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

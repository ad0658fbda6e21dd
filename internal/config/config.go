// Package config loads settings for the console and the companies API.
// Values come from defaults, then an optional YAML file, then environment
// variables; later sources win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ConsoleConfig configures the console client.
type ConsoleConfig struct {
	APIURL         string        `yaml:"API_URL" env:"API_URL"`
	APIToken       string        `yaml:"API_TOKEN" env:"API_TOKEN"`
	RequestTimeout time.Duration `yaml:"REQUEST_TIMEOUT" env:"REQUEST_TIMEOUT"`
	// StaleTime of zero keeps the list fresh until a mutation invalidates it.
	StaleTime time.Duration `yaml:"STALE_TIME" env:"STALE_TIME"`
	GCTime    time.Duration `yaml:"GC_TIME" env:"GC_TIME"`
	LogLevel  string        `yaml:"LOG_LEVEL" env:"LOG_LEVEL"`
}

// DefaultConsoleConfig returns the console defaults.
func DefaultConsoleConfig() ConsoleConfig {
	return ConsoleConfig{
		APIURL:         "http://localhost:3000",
		RequestTimeout: 30 * time.Second,
		GCTime:         5 * time.Minute,
		LogLevel:       "warn",
	}
}

// APIConfig configures the companies API server.
type APIConfig struct {
	HTTPPort     int      `yaml:"HTTP_PORT" env:"HTTP_PORT"`
	DBDriver     string   `yaml:"DB_DRIVER" env:"DB_DRIVER"`
	DBHost       string   `yaml:"DB_HOST" env:"DB_HOST"`
	DBPort       int      `yaml:"DB_PORT" env:"DB_PORT"`
	DBUser       string   `yaml:"DB_USER" env:"DB_USER"`
	DBPassword   string   `yaml:"DB_PASSWORD" env:"DB_PASSWORD"`
	DBName       string   `yaml:"DB_NAME" env:"DB_NAME"`
	DBSSLMode    string   `yaml:"DB_SSLMODE" env:"DB_SSLMODE"`
	DBPath       string   `yaml:"DB_PATH" env:"DB_PATH"`
	KafkaBrokers []string `yaml:"KAFKA_BROKERS" env:"KAFKA_BROKERS" envSeparator:","`
	Topic        string   `yaml:"TOPIC" env:"TOPIC"`
	JWTSecret    string   `yaml:"JWT_SECRET" env:"JWT_SECRET"`
	LogLevel     string   `yaml:"LOG_LEVEL" env:"LOG_LEVEL"`
}

// DefaultAPIConfig returns the API defaults: a local SQLite database on
// port 3000, no Kafka and no authentication.
func DefaultAPIConfig() APIConfig {
	return APIConfig{
		HTTPPort:  3000,
		DBDriver:  "sqlite",
		DBPath:    "companies.db",
		DBPort:    5432,
		DBSSLMode: "disable",
		Topic:     "company-events",
		LogLevel:  "info",
	}
}

// LoadConsole loads the console configuration. path may be empty or point to
// a missing file.
func LoadConsole(path string) (ConsoleConfig, error) {
	cfg := DefaultConsoleConfig()
	if err := load(path, &cfg); err != nil {
		return ConsoleConfig{}, err
	}
	return cfg, nil
}

// LoadAPI loads the API server configuration.
func LoadAPI(path string) (APIConfig, error) {
	cfg := DefaultAPIConfig()
	if err := load(path, &cfg); err != nil {
		return APIConfig{}, err
	}
	if cfg.HTTPPort <= 0 {
		return APIConfig{}, fmt.Errorf("invalid HTTP_PORT %d", cfg.HTTPPort)
	}
	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return APIConfig{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return cfg, nil
}

func load(path string, target any) error {
	if path != "" {
		if err := ReadYAML(path, target); err != nil {
			return err
		}
	}
	return ParseEnv(target)
}

// ReadYAML overlays the YAML file at path onto target. A missing file is not
// an error.
func ReadYAML(path string, target any) error {
	file, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(file, target); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ParseEnv overlays environment variables onto target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

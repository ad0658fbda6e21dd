// This is a **mock authentication service**, designed to provide JWT tokens
// for the company service, simulating user authentication.
package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gartstein/companyconsole/internal/company/auth"
	"github.com/gartstein/companyconsole/internal/config"
	"github.com/gartstein/companyconsole/internal/logging"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type authConfig struct {
	Port     int    `env:"AUTH_PORT" envDefault:"8081"`
	Secret   string `env:"JWT_SECRET" envDefault:"jwt_secret"`
	UserID   string `env:"AUTH_USER_ID" envDefault:"12345"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// TokenResponse represents the response structure
type TokenResponse struct {
	Token string `json:"token"`
}

func tokenHandler(cfg authConfig, logger *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := auth.GenerateToken(cfg.UserID, cfg.Secret)
		if err != nil {
			logger.Error("Failed to generate token", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
		}
		return c.JSON(http.StatusOK, TokenResponse{Token: token})
	}
}

func main() {
	var cfg authConfig
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logging.Sync(logger)

	e := echo.New()
	e.HideBanner = true
	e.GET("/token", tokenHandler(cfg, logger))

	logger.Info("Authentication service running", zap.Int("port", cfg.Port))
	if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Authentication service stopped", zap.Error(err))
	}
}

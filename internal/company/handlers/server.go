// Package handlers provides the HTTP server for the companies endpoint,
// bridging the transport layer and business logic.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gartstein/companyconsole/internal/company/auth"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Server wraps the echo instance serving the companies endpoint.
type Server struct {
	echo     *echo.Echo
	logger   *zap.Logger
	endpoint string
	listener net.Listener
}

// NewServer builds the server: request logging, panic recovery, CORS for
// the browser console, bearer auth on mutating routes and the company routes.
// An empty jwtSecret leaves the routes unauthenticated.
func NewServer(httpPort int, handler *CompanyHandler, jwtSecret string, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpErrorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(requestLogger(logger.Named("http")))
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(auth.Middleware(jwtSecret))

	handler.Register(e)

	return &Server{
		echo:     e,
		logger:   logger,
		endpoint: fmt.Sprintf(":%d", httpPort),
	}
}

// Handler exposes the routes, for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start binds the port and serves in the background. A bind failure is
// returned right away; later serve errors are logged.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.endpoint)
	if err != nil {
		return fmt.Errorf("HTTP listen error: %w", err)
	}
	s.listener = lis
	s.echo.Listener = lis

	s.logger.Info("Starting HTTP server", zap.String("endpoint", lis.Addr().String()))
	go func() {
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP serve error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once Start succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	s.logger.Info("Server stopped")
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}

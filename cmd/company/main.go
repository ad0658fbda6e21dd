package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gartstein/companyconsole/internal/company/controller"
	"github.com/gartstein/companyconsole/internal/company/db"
	"github.com/gartstein/companyconsole/internal/company/events"
	"github.com/gartstein/companyconsole/internal/company/handlers"
	"github.com/gartstein/companyconsole/internal/config"
	"github.com/gartstein/companyconsole/internal/logging"
	"go.uber.org/zap"
)

type eventProducer interface {
	controller.EventProducer
	Close()
}

func main() {
	configPath := flag.String("config", filepath.Join("internal", "company", "config", "config.yaml"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadAPI(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logging.Sync(logger)

	repo, err := db.NewRepository(initDatabase(cfg))
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer repo.Close()

	producer := initProducer(cfg, logger)
	defer producer.Close()

	companySvc := controller.NewCompanyService(repo, producer, logger)
	companyHandler := handlers.NewCompanyHandler(companySvc, logger)

	server := handlers.NewServer(cfg.HTTPPort, companyHandler, cfg.JWTSecret, logger)
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is empty, mutating routes are unauthenticated")
	}

	waitForShutdown(server, logger)
}

func initDatabase(cfg config.APIConfig) *db.Config {
	return &db.Config{
		Driver:   cfg.DBDriver,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
		Path:     cfg.DBPath,
	}
}

// initProducer connects to Kafka when brokers are configured. Without
// brokers, or when Kafka is unreachable, events are discarded.
func initProducer(cfg config.APIConfig, logger *zap.Logger) eventProducer {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("No Kafka brokers configured, company events are disabled")
		return events.NopProducer{}
	}

	producer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
	if err != nil {
		logger.Error("Failed to initialize Kafka producer, company events are disabled", zap.Error(err))
		return events.NopProducer{}
	}
	return producer
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down the server.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Server stopped properly")
}

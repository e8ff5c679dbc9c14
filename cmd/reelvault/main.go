package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"reelvault/internal/config"
	"reelvault/internal/database"
	"reelvault/internal/server"
)

func main() {
	configPath := "./config.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	// Load .env before anything reads the environment (pepper etc.).
	godotenv.Load()

	// Initialize basic logger for startup
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Error loading configuration")
	}

	configureLogger(logger, cfg.Logging)

	if err := os.MkdirAll(cfg.Media.VideosDir, 0755); err != nil {
		logger.WithError(err).WithField("videos_dir", cfg.Media.VideosDir).Fatal("Cannot create videos directory")
	}

	// Initialize database
	db, err := database.New(cfg.Database.Path, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error initializing database")
	}
	defer db.Close()

	// Create and configure the vault server
	vaultServer, err := server.NewVaultServer(cfg, db, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error creating vault server")
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		if err := vaultServer.Start(); err != nil {
			logger.WithError(err).Fatal("Server stopped")
		}
	}()

	// Wait for shutdown signal
	<-c

	logger.Info("Received shutdown signal")
	vaultServer.Shutdown()
}

// configureLogger applies the logging section of the config.
func configureLogger(logger *logrus.Logger, cfg config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logger.WithError(err).Warn("Could not open log file, logging to stderr")
		} else {
			logger.SetOutput(file)
		}
	}
}

package main

import (
	"context"

	"vehiclemodels/internal/config"
	"vehiclemodels/internal/core"
	logpkg "vehiclemodels/internal/log"
	"vehiclemodels/internal/server"
	"vehiclemodels/internal/service"
	"vehiclemodels/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	dotenvErr := godotenv.Load()

	logger := logpkg.CreateLogger()
	defer func() {
		if appLog, ok := logger.(*logpkg.AppLogger); ok {
			_ = appLog.Close()
		}
	}()

	if dotenvErr != nil {
		logger.Warn("No .env file found, using system environment variables")
	}
	logger.Info("Logger initialized")

	storageInstance := storage.InitStorage(logger)
	defer func() { _ = storageInstance.Close() }()

	cfg, err := config.LoadServerConfigFromEnv(logger)
	if err != nil {
		logger.Fatal("Failed to load server configuration: %v", err)
	}

	openCtx, cancel := context.WithTimeout(context.Background(), core.ServiceDBOpenTimeout)
	serviceStore, err := service.OpenStore(openCtx, logger, cfg.ServiceDB.Mode, cfg.ServiceDB.Path, cfg.ServiceDB.DatabaseURL)
	cancel()
	if err != nil {
		logger.Fatal("Failed to open service database: %v", err)
	}
	defer func() { _ = serviceStore.Close() }()

	cfg.Storage = storageInstance
	cfg.ServiceStore = serviceStore
	cfg.Logger = logger

	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Fatal("Failed to create server: %v", err)
	}
	defer func() { _ = srv.Close() }()

	if err := srv.Run(); err != nil {
		logger.Error("Server error: %v", err)
	}
}

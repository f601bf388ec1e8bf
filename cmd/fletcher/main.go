// Package main provides Fletcher, the plan-registry control-plane service
// for an Orchestration-as-a-Service conductor.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/fletcher-oaas/fletcher/internal/api"
	"github.com/fletcher-oaas/fletcher/internal/api/middleware"
	"github.com/fletcher-oaas/fletcher/internal/auth"
	"github.com/fletcher-oaas/fletcher/internal/storage"
)

// Version information.
const (
	version = "1.0.0-dev"
	name    = "fletcher"
)

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *versionFlag {
		log.Printf("%s v%s\n", name, version)
		os.Exit(0)
	}

	serverConfig := api.LoadServerConfig()
	serverConfig.Version = version

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: serverConfig.LogLevel,
	}))

	logger.Info("starting Fletcher service",
		slog.String("service", name),
		slog.String("version", version),
	)

	storageConfig := storage.LoadConfig()

	conn, err := storage.NewConnection(storageConfig)
	if err != nil {
		logger.Error("failed to connect to storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	authConfigPath := os.Getenv(auth.ConfigPathEnvVar)
	if authConfigPath == "" {
		authConfigPath = auth.DefaultConfigPath
	}

	authConfig, err := auth.LoadConfig(authConfigPath)
	if err != nil {
		logger.Error("failed to load auth config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	signingKey := []byte(os.Getenv("FLETCHER_JWT_SIGNING_KEY"))
	if len(signingKey) == 0 {
		logger.Error("FLETCHER_JWT_SIGNING_KEY must be set")
		os.Exit(1)
	}

	authService := auth.NewService(authConfig, signingKey)

	rateLimiterConfig := middleware.LoadConfig()
	rateLimiter := middleware.NewInMemoryRateLimiter(rateLimiterConfig)

	logger.Info("loaded server configuration",
		slog.String("host", serverConfig.Host),
		slog.Int("port", serverConfig.Port),
		slog.Duration("read_timeout", serverConfig.ReadTimeout),
		slog.Duration("write_timeout", serverConfig.WriteTimeout),
		slog.Duration("shutdown_timeout", serverConfig.ShutdownTimeout),
		slog.String("log_level", serverConfig.LogLevel.String()),
	)

	server := api.NewServer(&serverConfig, conn, authService, rateLimiter)

	if err := server.Start(); err != nil {
		logger.Error("server failed to start", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Fletcher service stopped")
}

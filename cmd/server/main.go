package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notekeeper/internal/config"
	"notekeeper/internal/identity"
	"notekeeper/internal/logging"
	mcpserver "notekeeper/internal/mcp"
	"notekeeper/internal/notes"
	"notekeeper/internal/ratelimit"
	"notekeeper/internal/server"
	"notekeeper/internal/store"
)

func main() {
	// Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Logger
	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logCloser.Close()

	// Context for startup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Storage
	logger.Info("opening note store", "backend", cfg.Storage.Backend)
	repo, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open note store", "error", err)
		os.Exit(1)
	}

	// Wire dependencies
	noteSvc := notes.NewService(repo, notes.WithLogger(logger))
	noteHandler := notes.NewHandler(noteSvc, logger)
	tokens := identity.NewTokens(cfg.Auth.TokenSignKey, cfg.Auth.TokenIssuer, cfg.Auth.TokenDuration)

	// Create MCP server
	mcpSrv := mcpserver.NewServer(noteSvc)

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.RPS > 0 {
		limiter = ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, time.Hour)
	}

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      server.NewRouter(noteHandler, mcpSrv, tokens, limiter, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		if err := repo.Close(shutdownCtx); err != nil {
			logger.Error("failed to close note store", "error", err)
		}
	}()

	logger.Info("server starting", "address", cfg.Address)
	logger.Info("endpoints available",
		"api", cfg.Address+"/api",
		"mcp", cfg.Address+"/mcp",
	)

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	<-done
	logger.Info("server stopped")
}

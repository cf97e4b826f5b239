// Command vdb-server starts the victim/witness records HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/openhrm/victimdb/internal/config"
	"github.com/openhrm/victimdb/internal/crypto/fieldcipher"
	"github.com/openhrm/victimdb/internal/limiter"
	"github.com/openhrm/victimdb/internal/migrate"
	"github.com/openhrm/victimdb/internal/repository/postgres"
	httpserver "github.com/openhrm/victimdb/internal/server/http"
	"github.com/openhrm/victimdb/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and starts the HTTP server.
// Missing secrets are fatal: the process refuses to start without a signing
// key and a field encryption key.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration", zap.Error(err))
	}

	cipher, err := fieldcipher.New(cfg.EncryptionKey, logger)
	if err != nil {
		logger.Fatal("field encryption key", zap.Error(err))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepo(db)
	victimRepo := postgres.NewVictimRepo(db)
	auditRepo := postgres.NewRiskAuditRepo(db)

	lim := limiter.NewPGWithQuerier(db.Pool, 15*time.Minute, 5, 15*time.Minute)

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.SigningKey, cfg.TokenTTL, lim)
	redactor := service.NewRedactor(cipher)
	victimSvc := service.NewVictimService(victimRepo, auditRepo, cipher, redactor, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpserver.New(authSvc, victimSvc, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}

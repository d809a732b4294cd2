package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"todo-board/backend/internal/config"
	"todo-board/backend/internal/database"
	"todo-board/backend/internal/logger"
	"todo-board/backend/internal/repositories"
	"todo-board/backend/internal/routes"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialect, err := database.ParseDialect(cfg.DBDriver)
	if err != nil {
		return err
	}
	db, err := database.Open(ctx, dialect, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, dialect); err != nil {
		return err
	}
	log.Info("database ready", zap.String("driver", string(dialect)))

	users := repositories.NewUserRepository(db, dialect)
	sessions := repositories.NewSessionRepository(db, dialect)
	verifications := repositories.NewVerificationRepository(db, dialect)
	todos := repositories.NewTodoRepository(db, dialect)

	purgeExpired(ctx, log, sessions, verifications)

	router, err := routes.SetupRouter(routes.Dependencies{
		Config:        cfg,
		Logger:        log,
		DB:            db,
		Users:         users,
		Sessions:      sessions,
		Verifications: verifications,
		Todos:         todos,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// purgeExpired は起動時に期限切れのセッションとリセットトークンを削除します。
func purgeExpired(ctx context.Context, log *zap.Logger, sessions *repositories.SessionRepository, verifications *repositories.VerificationRepository) {
	now := time.Now().UTC()
	if n, err := sessions.DeleteExpired(ctx, now); err != nil {
		log.Warn("failed to purge expired sessions", zap.Error(err))
	} else if n > 0 {
		log.Info("purged expired sessions", zap.Int64("count", n))
	}
	if n, err := verifications.DeleteExpired(ctx, now); err != nil {
		log.Warn("failed to purge expired verifications", zap.Error(err))
	} else if n > 0 {
		log.Info("purged expired verifications", zap.Int64("count", n))
	}
}

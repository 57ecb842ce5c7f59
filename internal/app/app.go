// Package app wires configuration, storage, services, and transport into a
// running HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/phrasebook-backend/internal/adapter/postgres"
	accountrepo "github.com/heartmarshall/phrasebook-backend/internal/adapter/postgres/account"
	historyrepo "github.com/heartmarshall/phrasebook-backend/internal/adapter/postgres/history"
	phraserepo "github.com/heartmarshall/phrasebook-backend/internal/adapter/postgres/phrase"
	profilerepo "github.com/heartmarshall/phrasebook-backend/internal/adapter/postgres/profile"
	"github.com/heartmarshall/phrasebook-backend/internal/auth"
	"github.com/heartmarshall/phrasebook-backend/internal/config"
	exportsvc "github.com/heartmarshall/phrasebook-backend/internal/service/export"
	historysvc "github.com/heartmarshall/phrasebook-backend/internal/service/history"
	phrasesvc "github.com/heartmarshall/phrasebook-backend/internal/service/phrase"
	"github.com/heartmarshall/phrasebook-backend/internal/transport/middleware"
	"github.com/heartmarshall/phrasebook-backend/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, connects to
// the database, assembles the service graph, and serves HTTP until the
// context is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)

	phrases := phraserepo.New(pool, txm)
	histories := historyrepo.New(pool)
	accounts := accountrepo.New(pool)
	profiles := profilerepo.New(pool)

	historyService := historysvc.New(accounts, profiles, histories, logger)
	phraseService := phrasesvc.New(phrases, historyService, logger)
	exportService := exportsvc.New(phrases, histories, logger)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)

	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()

	router := rest.NewRouter(rest.RouterDeps{
		Phrases: rest.NewPhraseHandler(exportService, phraseService, cfg.Export.FeedLimit, logger),
		Events:  rest.NewEventsHandler(historyService, logger),
		Health:  rest.NewHealthHandler(pool, BuildVersion()),
		Auth:    middleware.Auth(jwtManager),
		Limiter: limiter,
		Logger:  logger,
		Config:  cfg,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down http server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

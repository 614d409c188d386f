package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-journal/pkg/auth"
	"github.com/ekaya-inc/ekaya-journal/pkg/cache"
	"github.com/ekaya-inc/ekaya-journal/pkg/config"
	"github.com/ekaya-inc/ekaya-journal/pkg/database"
	"github.com/ekaya-inc/ekaya-journal/pkg/handlers"
	"github.com/ekaya-inc/ekaya-journal/pkg/identity"
	"github.com/ekaya-inc/ekaya-journal/pkg/middleware"
	"github.com/ekaya-inc/ekaya-journal/pkg/repositories"
	"github.com/ekaya-inc/ekaya-journal/pkg/retry"
	"github.com/ekaya-inc/ekaya-journal/pkg/services"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Configuration loaded",
		zap.String("version", cfg.Version),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("redis_host", cfg.Redis.Host))

	// Postgres may still be starting when the service comes up alongside it.
	db, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*database.DB, error) {
		return database.Open(ctx, cfg.Database.URL(), database.SettingsFrom(&cfg.Database))
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := migrate(cfg, logger); err != nil {
		return err
	}

	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	} else {
		logger.Info("Redis not configured, entry-list invalidation disabled")
	}
	lists := cache.New(redisClient, logger)

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
		Audience:           cfg.Auth.Audience,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize JWKS client: %w", err)
	}
	defer jwksClient.Close()
	if !cfg.Auth.EnableVerification {
		logger.Warn("Session token signature verification is disabled")
	}

	authService := auth.NewAuthService(jwksClient, cfg.Auth.SessionCookie, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	profiles := identity.NewClient(cfg.Identity.APIURL, cfg.Identity.SecretKey, cfg.Identity.Timeout(), logger)

	scopes := database.NewUserScopeProvider(db)
	userRepo := repositories.NewUserRepository()
	entryRepo := repositories.NewJournalEntryRepository()
	analysisRepo := repositories.NewEntryAnalysisRepository()

	identityService := services.NewIdentityService(scopes, userRepo, profiles, logger)
	journalService := services.NewJournalService(scopes, userRepo, entryRepo, lists, cfg.Journal.MaxContentLength, logger)
	analyticsService := services.NewAnalyticsService(scopes, analysisRepo, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewEntriesHandler(identityService, journalService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewAnalyticsHandler(identityService, analyticsService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewOnboardingHandler(identityService, cfg.Journal.HomePath, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewAuthHandler(identityService, cfg.Auth.SessionCookie,
		auth.DeriveCookieSettings(cfg.BaseURL, cfg.Auth.CookieDomain), logger).RegisterRoutes(mux, authMiddleware)

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           middleware.RequestLogger(logger)(middleware.Recover(logger)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting ekaya-journal",
			zap.String("addr", srv.Addr),
			zap.Bool("tls", cfg.TLSEnabled()))

		var err error
		if cfg.TLSEnabled() {
			err = srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = srv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

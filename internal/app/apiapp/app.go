package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"bot_gatekeeper/internal/config"
	pgrepo "bot_gatekeeper/internal/repo/postgres"
	auditsvc "bot_gatekeeper/internal/services/audit"
	exemptionsvc "bot_gatekeeper/internal/services/exemptions"
)

// App is the read-only admin API: health, recent audit records,
// exemption lists and configured destinations.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	server   *http.Server
	postgres *pgxpool.Pool
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("init postgres for api app: %w", err)
	}

	exemptionsRepo := pgrepo.NewExemptionsRepo(pool)
	destinationsRepo := pgrepo.NewDestinationsRepo(pool)
	auditLogRepo := pgrepo.NewAuditLogRepo(pool)

	exemptionService := exemptionsvc.NewService(exemptionsRepo)
	auditService := auditsvc.NewService(destinationsRepo, auditLogRepo, nil, cfg.Moderation.DefaultLogChatID)

	r := chi.NewRouter()
	ApplyMiddlewares(r, logger)
	RegisterRoutes(r, Dependencies{
		AuditService:     auditService,
		ExemptionService: exemptionService,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		server:   server,
		postgres: pool,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("api app listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.WriteTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("api server shutdown", zap.Error(err))
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
}

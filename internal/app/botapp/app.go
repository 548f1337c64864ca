package botapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bot_gatekeeper/internal/config"
	tginfra "bot_gatekeeper/internal/infra/telegram"
	"bot_gatekeeper/internal/jobs/retention"
	pgrepo "bot_gatekeeper/internal/repo/postgres"
	redrepo "bot_gatekeeper/internal/repo/redis"
	accesssvc "bot_gatekeeper/internal/services/access"
	auditsvc "bot_gatekeeper/internal/services/audit"
	exemptionsvc "bot_gatekeeper/internal/services/exemptions"
	moderationsvc "bot_gatekeeper/internal/services/moderation"
)

type App struct {
	cfg      config.Config
	logger   *zap.Logger
	postgres *pgxpool.Pool
	redis    *goredis.Client
	bot      *tginfra.Bot

	accessService     *accesssvc.Service
	exemptionService  *exemptionsvc.Service
	auditService      *auditsvc.Service
	moderationService *moderationsvc.Service
	retentionJob      *retention.Job
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	if cfg.Thresholds().Inverted() {
		logger.Warn("kick_under_days is below ban_under_days; the kick branch is unreachable",
			zap.Int("ban_under_days", cfg.Moderation.BanUnderDays),
			zap.Int("kick_under_days", cfg.Moderation.KickUnderDays),
		)
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("init postgres for bot app: %w", err)
	}

	bot, err := tginfra.NewBot(cfg.Bot.Token, cfg.Bot.PollTimeoutSeconds)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	exemptionsRepo := pgrepo.NewExemptionsRepo(pool)
	destinationsRepo := pgrepo.NewDestinationsRepo(pool)
	auditLogRepo := pgrepo.NewAuditLogRepo(pool)

	accessService := accesssvc.NewService(cfg.Bot.OwnerTGID)
	exemptionService := exemptionsvc.NewService(exemptionsRepo)
	auditService := auditsvc.NewService(destinationsRepo, auditLogRepo, bot, cfg.Moderation.DefaultLogChatID)

	moderationService := moderationsvc.NewService(
		cfg.Thresholds(),
		exemptionService,
		bot,
		bot,
		auditService,
		cfg.Moderation.StepTimeout,
		logger,
	)

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	moderationService.AttachDeduper(redrepo.NewDedupeRepo(redisClient), cfg.Moderation.DedupeTTL)

	retentionJob := retention.New(auditService, cfg.Audit.Retention, logger)

	return &App{
		cfg:               cfg,
		logger:            logger,
		postgres:          pool,
		redis:             redisClient,
		bot:               bot,
		accessService:     accessService,
		exemptionService:  exemptionService,
		auditService:      auditService,
		moderationService: moderationService,
		retentionJob:      retentionJob,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("bot app started",
		zap.Int("ban_under_days", a.cfg.Moderation.BanUnderDays),
		zap.Int("kick_under_days", a.cfg.Moderation.KickUnderDays),
	)

	errCh := make(chan error, 2)
	go func() {
		errCh <- a.retentionJob.RunLoop(ctx, a.cfg.Audit.PruneInterval)
	}()
	go func() {
		errCh <- a.bot.Listen(ctx, tginfra.Handlers{
			OnJoin:    a.handleJoin,
			OnCommand: a.handleCommand,
		})
	}()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("bot app stopped")
			return nil
		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				continue
			}
			return err
		}
	}
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

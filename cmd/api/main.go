package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/pharmat-audit/internal/api/http"
	"github.com/spec-kit/pharmat-audit/internal/api/http/handlers"
	"github.com/spec-kit/pharmat-audit/internal/auth"
	"github.com/spec-kit/pharmat-audit/internal/config"
	"github.com/spec-kit/pharmat-audit/internal/events"
	"github.com/spec-kit/pharmat-audit/internal/mailer"
	"github.com/spec-kit/pharmat-audit/internal/observability"
	"github.com/spec-kit/pharmat-audit/internal/otp"
	"github.com/spec-kit/pharmat-audit/internal/persistence"
	"github.com/spec-kit/pharmat-audit/internal/ratelimit"
	"github.com/spec-kit/pharmat-audit/internal/repository"
	"github.com/spec-kit/pharmat-audit/internal/service"
	"github.com/spec-kit/pharmat-audit/internal/worker"
)

const minBodyLimit = 4 * 1024 * 1024

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Session.UsingDevSecret {
		logger.Warn("SESSION_SECRET not set; using development secret")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracing, err := observability.InitTracing(ctx, cfg.Tracing, cfg.App)
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	signer, err := auth.NewSigner([]byte(cfg.Session.Secret))
	if err != nil {
		logger.Fatal("failed to init session signer", zap.Error(err))
	}
	tokens := auth.NewTokenManager(signer, cfg.Session.TTL(), auth.WithLogger(logger))
	cookies := auth.NewCookieTransport(cfg.Session.CookieName, cfg.Session.TTL(), cfg.App.IsProduction())
	authMiddleware := auth.NewAuthMiddleware(tokens, cookies)

	codes, err := newCodeFlow(cfg, pg, redis, logger)
	if err != nil {
		logger.Fatal("failed to init code flow", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, metrics))

	pool := pg.PoolHandle()
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   repository.NewUserRepository(pool),
		Codes:      codes,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
		BcryptCost: cfg.Session.BcryptCost,
	})
	profileService := service.NewProfileService(repository.NewProfileRepository(pool))
	submissionService := service.NewSubmissionService(
		repository.NewSubmissionRepository(pool), dispatcher, cfg.Submissions.MaxPayloadBytes, logger)

	bodyLimit := cfg.Submissions.MaxPayloadBytes + 64*1024
	if bodyLimit < minBodyLimit {
		bodyLimit = minBodyLimit
	}
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    bodyLimit,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Auth:           handlers.NewAuthHandler(authService, authMiddleware),
		Profile:        handlers.NewProfileHandler(profileService),
		Submissions:    handlers.NewSubmissionsHandler(submissionService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}

// newCodeFlow wires the one-time code store, mail provider and send limiter.
func newCodeFlow(cfg *config.Config, pg *persistence.Postgres, redis *persistence.Redis, logger *zap.Logger) (*otp.Flow, error) {
	var store otp.CodeStore
	switch cfg.OTP.Store {
	case "redis":
		store = repository.NewRedisCodeStore(redis.Client, "pharmat:otp")
	default:
		store = repository.NewEmailCodeRepository(pg.PoolHandle())
	}

	var codeMailer otp.Mailer
	if cfg.Mail.ResendAPIKey != "" {
		resend, err := mailer.NewResendMailer(mailer.ResendConfig{
			APIKey:   cfg.Mail.ResendAPIKey,
			Endpoint: cfg.Mail.Endpoint,
			From:     cfg.Mail.From,
			Timeout:  cfg.Mail.Timeout(),
		}, logger)
		if err != nil {
			return nil, err
		}
		codeMailer = resend
	} else {
		logger.Warn("RESEND_API_KEY not set; codes will not be emailed")
	}

	return otp.NewFlow(store, codeMailer, otp.Config{
		Digits:      cfg.OTP.Digits,
		TTL:         cfg.OTP.TTL(),
		DevFallback: cfg.OTP.DevFallback,
	},
		otp.WithLimiter(ratelimit.NewFixedWindow(redis.Client, "pharmat:otp-send", cfg.OTP.SendLimit, cfg.OTP.Window())),
		otp.WithLogger(logger.Named("otp")),
	)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

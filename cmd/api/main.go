// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/taxdesk/internal/access"
	"github.com/carterperez-dev/taxdesk/internal/admin"
	"github.com/carterperez-dev/taxdesk/internal/attribution"
	"github.com/carterperez-dev/taxdesk/internal/audit"
	"github.com/carterperez-dev/taxdesk/internal/auth"
	"github.com/carterperez-dev/taxdesk/internal/config"
	"github.com/carterperez-dev/taxdesk/internal/cookie"
	"github.com/carterperez-dev/taxdesk/internal/core"
	"github.com/carterperez-dev/taxdesk/internal/health"
	"github.com/carterperez-dev/taxdesk/internal/middleware"
	"github.com/carterperez-dev/taxdesk/internal/profile"
	"github.com/carterperez-dev/taxdesk/internal/server"
	"github.com/carterperez-dev/taxdesk/internal/viewas"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"attribution_policy", cfg.Attribution.Policy,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	if cfg.Metrics.Enabled {
		core.RegisterMetrics()
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	cookiePolicy := cookie.Policy{
		Secure: cfg.Cookies.Secure,
		Domain: cfg.Cookies.Domain,
	}

	verifier, err := auth.NewVerifier(cfg.Identity)
	if err != nil {
		return err
	}
	claimsMapper, err := auth.NewClaimsMapper(cfg.Identity.Claims)
	if err != nil {
		return err
	}
	logger.Info("identity verifier initialized",
		"algorithm", "ES256",
		"issuer", cfg.Identity.Issuer,
		"role_claim", cfg.Identity.Claims.Role,
	)

	auditSvc := audit.NewService(audit.NewRepository(db.DB))
	auditHandler := audit.NewHandler(auditSvc)

	profileRepo := profile.NewRepository(db.DB)
	revocations := auth.NewRedisRevocations(redis.Client)

	loader := auth.NewLoader(auth.LoaderConfig{
		Verifier:    verifier,
		Mapper:      claimsMapper,
		Profiles:    profileRepo,
		Revocations: revocations,
	})
	authHandler := auth.NewHandler(verifier, revocations, cookiePolicy)

	codec, err := viewas.NewCodec(cfg.Cookies.SigningSecret)
	if err != nil {
		return err
	}
	views := viewas.NewResolver(viewas.ResolverConfig{
		Codec:  codec,
		Policy: cookiePolicy,
		MaxAge: cfg.ViewAs.MaxAge,
	})
	viewAsHandler := viewas.NewHandler(views, auditSvc)

	guard := access.NewGuard(access.NewGate(views), access.Surfaces{
		SignInPath:    cfg.Access.SignInPath,
		ForbiddenPath: cfg.Access.ForbiddenPath,
	})

	attributionRepo := attribution.NewRepository(db.DB)
	finder := attribution.NewCachedFinder(
		attributionRepo,
		attribution.NewRedisCache(redis.Client),
		cfg.Attribution.LookupCacheTTL,
	)
	resolver := attribution.NewResolver(attribution.ResolverConfig{
		Finder: finder,
		Policy: cookiePolicy,
		MaxAge: cfg.Attribution.CookieMaxAge,
		Mode:   cfg.Attribution.Policy,
	})
	attributionHandler := attribution.NewHandler(
		resolver,
		attribution.NewClickRecorder(attributionRepo, cfg.Attribution.RecordClicks),
		attribution.HandlerConfig{
			LandingPath:  cfg.Attribution.LandingPath,
			NotFoundPath: cfg.Attribution.NotFoundPath,
		},
	)

	profileSvc := profile.NewService(profileRepo, db, auditSvc)
	profileHandler := profile.NewHandler(profileSvc, resolver)

	healthHandler := health.NewHandler(
		health.Check{Name: "database", Checker: db, Critical: true},
		health.Check{Name: "redis", Checker: redis, Critical: true},
		health.Check{Name: "attribution_lookup", Checker: finder},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Referrals:  attributionRepo,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics)
	}
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, core.MetricsHandler())
	}

	router.Get("/.well-known/jwks.json", verifier.JWKSHandler())

	linkLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Burst,
		),
		KeyFunc:  middleware.KeyByIP,
		FailOpen: true,
	})
	attributionHandler.RegisterLinkRoutes(router, linkLimiter.Handler)

	authenticator := middleware.Authenticator(loader)

	mutationLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:    middleware.PerMinute(30, 10),
		KeyFunc:  middleware.KeyByUserAndEndpoint,
		FailOpen: true,
	})

	router.Route("/v1", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(loader))
		r.Use(middleware.RoleRateLimiter(
			redis.Client,
			middleware.DefaultRoleLimits,
			middleware.PerMinute(cfg.RateLimit.Requests, cfg.RateLimit.Burst),
		))

		authHandler.RegisterRoutes(r, authenticator)
		attributionHandler.RegisterRoutes(r)
		profileHandler.RegisterRoutes(r, authenticator, guard)

		r.Group(func(r chi.Router) {
			r.Use(mutationLimiter.Handler)
			viewAsHandler.RegisterRoutes(r, authenticator)
			profileHandler.RegisterAdminRoutes(r, authenticator, guard)
		})
		adminHandler.RegisterRoutes(r, authenticator, guard)
		auditHandler.RegisterRoutes(
			r,
			authenticator,
			guard.RequireProtected(viewas.OpViewAuditLogs),
		)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

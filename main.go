package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/msomdec/recruit-dashboard/internal/config"
	"github.com/msomdec/recruit-dashboard/internal/domain"
	"github.com/msomdec/recruit-dashboard/internal/handler"
	"github.com/msomdec/recruit-dashboard/internal/logging"
	"github.com/msomdec/recruit-dashboard/internal/metrics"
	"github.com/msomdec/recruit-dashboard/internal/recruitapi"
	"github.com/msomdec/recruit-dashboard/internal/repository/sqlite"
	"github.com/msomdec/recruit-dashboard/internal/service"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: logging.ParseLevel(cfg.LogLevel)}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	var database domain.Database = db
	defer database.Close()

	if err := database.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	m := metrics.New()

	backend := recruitapi.New(cfg.RecruitAPIURL,
		recruitapi.WithTimeout(cfg.RecruitAPITimeout),
		recruitapi.WithBearerToken(cfg.RecruitAPIToken),
		recruitapi.WithSessionCookie(cfg.RecruitAPISessionCookie),
		recruitapi.WithObserver(m),
	)

	var auth domain.Authenticator = backend
	if cfg.AuthMode == config.AuthModeLocal {
		auth = service.NewAuthService(db.Users(), cfg.BCryptCost)
	}
	slog.Info("authentication configured", "mode", cfg.AuthMode, "backend", cfg.RecruitAPIURL)

	interviews := service.NewInterviewStore(backend,
		service.WithLogger(logger),
		service.WithStatusObserver(m),
	)
	resumes := service.NewResumeService(db.Resumes(), db.FileStore(), cfg.ResumeMaxBytes)

	var sessions handler.SessionStorageFactory
	switch cfg.SessionStorage {
	case config.SessionStorageRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			slog.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		sessions = handler.NewRedisSessions(rdb, cfg.SessionTTL, cfg.CookieSecure)
	default:
		tokens := service.NewIdentityTokens(cfg.JWTSecret, cfg.SessionTTL)
		sessions = handler.NewCookieSessions(tokens, cfg.CookieSecure)
	}
	slog.Info("session storage configured", "storage", cfg.SessionStorage)
	if cfg.TrustProxy {
		slog.Info("client addresses taken from proxy headers")
	}

	// Five sign-in attempts per client, refilling one every five seconds.
	limiter := service.NewTokenBucket(0.2, 5)
	defer limiter.Stop()

	router := handler.NewRouter(handler.Config{
		Interviews:   interviews,
		Auth:         auth,
		Resumes:      resumes,
		Database:     database,
		Sessions:     sessions,
		Metrics:      m,
		NewSimulator: service.NewAnalyticsSimulator,
		Limiter:      limiter,
		Logger:       logger,

		TrustProxyHeaders: cfg.TrustProxy,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

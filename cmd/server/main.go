package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/djloghub/portfolio-backend/internal/config"
	"github.com/djloghub/portfolio-backend/internal/events"
	"github.com/djloghub/portfolio-backend/internal/hash"
	"github.com/djloghub/portfolio-backend/internal/httpserver"
	authmw "github.com/djloghub/portfolio-backend/internal/middleware/auth"
	"github.com/djloghub/portfolio-backend/internal/ratelimit"
	"github.com/djloghub/portfolio-backend/internal/repo"
	"github.com/djloghub/portfolio-backend/internal/revocation"
	"github.com/djloghub/portfolio-backend/internal/service"
	"github.com/djloghub/portfolio-backend/internal/session"
	"github.com/djloghub/portfolio-backend/internal/tokens"
	"github.com/djloghub/portfolio-backend/pkg/db"
	"github.com/djloghub/portfolio-backend/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("app", "portfolio-backend", "env", cfg.Env)
	slog.SetDefault(logger)
	ctx := logging.IntoContext(context.Background(), logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	gormRepo := &repo.GormRepo{DB: gdb}
	if err := gormRepo.Migrate(ctx); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb, err := db.OpenRedis(ctx, db.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Timeout:  cfg.StoreTimeout,
	})
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}

	hasher, err := hash.NewHasher(cfg.BcryptCost)
	if err != nil {
		log.Fatalf("hasher: %v", err)
	}
	if err := service.BootstrapAdmin(ctx, gormRepo, hasher, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	codec, err := tokens.NewCodec(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	cache, err := ratelimit.NewCache(cfg.RateLimitMaxClients)
	if err != nil {
		log.Fatalf("rate limit cache: %v", err)
	}
	limiter, err := ratelimit.NewLimiter(cache, cfg.RateLimitRequests, cfg.RateLimitWindow)
	if err != nil {
		log.Fatalf("rate limiter: %v", err)
	}

	authEvents, projectEvents := publishers(cfg, logger)

	revocations := revocation.NewStore(rdb, cfg.StoreTimeout)
	sessions := session.NewRegistry(rdb, session.Config{
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.MaxSessions,
		Timeout:     cfg.StoreTimeout,
	})

	e := httpserver.New(&httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: &service.AuthService{
			Repo:        gormRepo,
			Hasher:      hasher,
			Codec:       codec,
			Revocations: revocations,
			Sessions:    sessions,
			Events:      authEvents,
		}},
		ProjectHandler: &httpserver.ProjectHTTP{Svc: &service.ProjectService{Repo: gormRepo, Events: projectEvents}},
		HealthHandler: &httpserver.HealthHTTP{
			Checks: map[string]httpserver.Pinger{
				"postgres": gormRepo,
				"redis":    httpserver.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
			},
			Timeout: 2 * time.Second,
		},
		Limiter:      limiter,
		Filter:       authmw.Deps{Tokens: codec, Revocations: revocations, Sessions: sessions},
		Logger:       logger,
		AllowOrigins: cfg.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("http_server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	shutdown(logger, gdb, rdb, limiter, authEvents, projectEvents)
	logger.Info("shutdown complete")
}

func publishers(cfg *config.Config, logger *slog.Logger) (auth, projects events.Publisher) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
		return events.Nop{}, events.Nop{}
	}
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuthEventsTopic, logger),
		events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.ProjectEventsTopic, logger)
}

func shutdown(logger *slog.Logger, gdb *gorm.DB, rdb *redis.Client, limiter *ratelimit.Limiter, pubs ...events.Publisher) {
	for _, p := range pubs {
		if err := p.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}
	limiter.Close()
	if err := rdb.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close error", "error", err)
	}
}

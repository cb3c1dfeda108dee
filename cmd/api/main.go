package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"prism-scoring/internal/config"
	"prism-scoring/internal/db"
	apihttp "prism-scoring/internal/http"
	"prism-scoring/internal/repository"
	"prism-scoring/internal/scoring"
	"prism-scoring/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if cfg.DBAutoMigrate {
		if err := repository.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
		// las conexiones abiertas antes de crear la extension no tienen el tipo vector
		pool.Reset()
	}

	model := scoring.DefaultModel()
	if cfg.ScoringModelPath != "" {
		model, err = scoring.LoadModelFile(cfg.ScoringModelPath)
		if err != nil {
			logger.Fatal("load scoring model", zap.String("path", cfg.ScoringModelPath), zap.Error(err))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.MustNewMetrics(reg)

	responseRepo := repository.NewPgResponseRepository(pool)
	fcRepo := repository.NewPgForcedChoiceRepository(pool)
	profileRepo := repository.NewPgProfileRepository(pool)
	sessionRepo := repository.NewPgSessionRepository(pool)
	modelRepo := repository.NewPgModelRepository(pool)

	registry, err := service.NewModelRegistry(model, modelRepo, cfg.ModelCacheSize)
	if err != nil {
		logger.Fatal("model registry", zap.Error(err))
	}

	var (
		locker  service.SessionLocker
		limiter service.FetchRateLimiter
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			locker = service.NewRedisSessionLocker(redisClient, cfg.SessionLockTTL)
			limiter = service.NewRedisFetchRateLimiter(redisClient, cfg.ResultsRateWindow, cfg.ResultsRateLimit)
		}
		cancel()
	}
	if locker == nil {
		locker = service.NewMemorySessionLocker(cfg.SessionLockTTL)
	}
	if limiter == nil {
		limiter = service.NewMemoryFetchRateLimiter(cfg.ResultsRateWindow, cfg.ResultsRateLimit)
	}

	jwtSvc := service.NewJWTService(cfg.JWTSecret, time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	policy := service.NewCallPolicy(cfg.RecomputeCallTimeout, cfg.RecomputeMaxRetries, metrics, logger)
	scoringSvc := service.NewScoringService(logger, sessionRepo, responseRepo, fcRepo, profileRepo, registry, policy, metrics)
	recomputeSvc := service.NewRecomputeService(logger, scoringSvc, sessionRepo, locker, policy, metrics, cfg.RecomputeWorkers)
	shareSvc := service.NewShareTokenService(logger, sessionRepo, cfg.ShareTokenTTL)
	resultsSvc := service.NewResultsService(logger, sessionRepo, profileRepo, limiter, metrics)

	router := apihttp.NewRouter(
		logger,
		jwtSvc,
		cfg.CORSAllowedOrigins,
		apihttp.NewScoringHandler(logger, scoringSvc, recomputeSvc, shareSvc),
		apihttp.NewResultsHandler(logger, resultsSvc),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("model_version", registry.ActiveVersion()),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

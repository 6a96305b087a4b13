package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"tutorbook/internal/config"
	"tutorbook/internal/database"
	"tutorbook/internal/jobs"
	"tutorbook/internal/metrics"
	"tutorbook/internal/middleware"
	"tutorbook/internal/modules/auth"
	"tutorbook/internal/modules/availability"
	"tutorbook/internal/modules/booking"
	"tutorbook/internal/modules/review"
	"tutorbook/internal/modules/tutor"
	"tutorbook/internal/pkg/jwt"
	"tutorbook/internal/pkg/lock"
	"tutorbook/internal/pkg/logger"
	"tutorbook/internal/pkg/response"
	"tutorbook/internal/repository"
)

func main() {
	cfg := config.MustLoad()

	log := logger.Setup(cfg.Env, os.Stdout)
	log.Info("starting tutorbook", slog.String("env", cfg.Env), slog.String("addr", cfg.Address))

	if cfg.Env == "prod" || cfg.Env == "production" || cfg.Env == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Error("db connect failed", logger.Err(err))
		os.Exit(1)
	}
	if err := database.Migrate(db, cfg.DatabaseURL); err != nil {
		log.Error("migrations failed", logger.Err(err))
		os.Exit(1)
	}

	var locker lock.Locker = lock.NewLocalLocker()
	var redisLocker *lock.RedisLocker
	if cfg.RedisAddr != "" {
		redisLocker, err = lock.NewRedisLocker(cfg.RedisAddr)
		if err != nil {
			log.Error("redis connect failed", logger.Err(err))
			os.Exit(1)
		}
		locker = redisLocker
		log.Info("using redis admission lock", slog.String("addr", cfg.RedisAddr))
	} else {
		log.Warn("REDIS_ADDR is empty, admission lock is in-process only")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	store := repository.NewStore(db)
	tokens := jwt.New(cfg.JWTSecret, cfg.JWTTTL)

	authService := auth.NewService(store.Users(), tokens, log.With(slog.String("module", "auth")))
	tutorService := tutor.NewService(store, cfg.StoreTimeout, log.With(slog.String("module", "tutor")))
	availabilityService := availability.NewService(store.Availability(), store.Tutors(), cfg.StoreTimeout,
		log.With(slog.String("module", "availability")))
	bookingService := booking.NewService(store, locker, collector, log.With(slog.String("module", "booking")), booking.Options{
		StoreTimeout: cfg.StoreTimeout,
		LockTTL:      cfg.LockTTL,
	})
	reviewService := review.NewService(store, collector, cfg.StoreTimeout, log.With(slog.String("module", "review")))

	reconciler := jobs.NewRatingReconciler(reviewService, time.Minute, log)
	if err := reconciler.Start(cfg.ReconcileSchedule); err != nil {
		log.Error("reconcile job not scheduled", logger.Err(err))
		os.Exit(1)
	}

	limiter := middleware.NewRateLimiter(cfg.RPS, cfg.Burst, 5*time.Minute)
	defer limiter.Stop()

	r := gin.New()
	r.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.CORS(cfg.CORSOrigins),
		middleware.Metrics(collector),
	)

	r.GET("/healthz", healthz(db, log))
	r.GET("/metrics", gin.WrapH(metrics.Handler(reg)))

	v1 := r.Group("/api/v1")
	public := v1.Group("")
	protected := v1.Group("", middleware.JWTAuth(tokens), limiter.Middleware())

	auth.NewHandler(authService, log).RegisterRoutes(public, protected)
	tutor.NewHandler(tutorService, log).RegisterRoutes(public, protected)
	availability.NewHandler(availabilityService, log).RegisterRoutes(public, protected)
	booking.NewHandler(bookingService, log).RegisterRoutes(protected)
	review.NewHandler(reviewService, log).RegisterRoutes(public, protected)

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", logger.Err(err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Info("shutting down", slog.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	reconciler.Stop(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", logger.Err(err))
	}
	if redisLocker != nil {
		if err := redisLocker.Close(); err != nil {
			log.Error("redis close failed", logger.Err(err))
		}
	}
	if err := database.Close(db); err != nil {
		log.Error("db close failed", logger.Err(err))
	}

	log.Info("stopped")
}

func healthz(db *gorm.DB, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			log.Warn("health check failed", logger.Err(err))
			response.Error(c, http.StatusServiceUnavailable, "UNHEALTHY", "database unreachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}

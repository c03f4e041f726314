package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"carelog/internal/calendar"
	"carelog/internal/config"
	"carelog/internal/database"
	"carelog/internal/handlers"
	"carelog/internal/logger"
	"carelog/internal/realtime"
	"carelog/internal/repository"
	"carelog/internal/security"
	"carelog/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is configured from cfg, so this one goes to the default
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql); migrations run on open
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	log.Info("database ready", zap.String("type", cfg.DatabaseType))

	resolver := calendar.NewResolver(calendar.Real(), cfg.DefaultTimezone)
	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	dependentRepo := repository.NewDependentRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	routineRepo := repository.NewRoutineRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	logRepo := repository.NewLogRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Initialize services
	accessService := service.NewAccessService(linkRepo)
	authService := service.NewAuthService(userRepo, tokens, cfg.StoreTimeout)
	dependentService := service.NewDependentService(db, dependentRepo, linkRepo, accessService, auditRepo, log, cfg.StoreTimeout)
	routineService := service.NewRoutineService(db, routineRepo, scheduleRepo, dependentRepo, accessService, resolver, auditRepo, log, cfg.StoreTimeout)
	scheduleService := service.NewScheduleService(scheduleRepo, routineRepo, log, cfg.StoreTimeout)
	logService := service.NewLogService(scheduleRepo, routineRepo, dependentRepo, logRepo, accessService, calendar.Real(), auditRepo, log, cfg.StoreTimeout)
	overviewService := service.NewOverviewService(linkRepo, routineService, scheduleService, scheduleRepo, resolver, log, cfg.StoreTimeout)

	// Realtime: in-process hub, fanned out across instances through Redis when configured
	hub := realtime.NewHub()
	var notifier realtime.Notifier = hub
	if cfg.RedisAddr != "" {
		client, err := realtime.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer client.Close()

		bridge := realtime.NewRedisBridge(client, cfg.RedisChannelPrefix, hub, log)
		notifier = bridge
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("redis bridge stopped", zap.Error(err))
			}
		}()
		log.Info("realtime bridged over redis", zap.String("addr", cfg.RedisAddr))
	}

	if cfg.MonitorEnabled {
		monitor := service.NewDueMonitor(routineRepo, resolver, cfg.DefaultTimezone, cfg.MonitorInterval, log)
		go monitor.Run(ctx)
	}

	limiter := security.NewRateLimiter(ctx, cfg.LoginRateLimit, time.Minute)

	// Initialize handlers
	router := handlers.NewRouter(handlers.Handlers{
		Auth:       handlers.NewAuthHandler(authService, log),
		Dashboard:  handlers.NewDashboardHandler(overviewService, log),
		Dependents: handlers.NewDependentHandler(dependentService, log),
		Routines:   handlers.NewRoutineHandler(routineService, log),
		Logs:       handlers.NewLogHandler(logService, notifier, log),
		Events:     handlers.NewEventsHandler(hub, accessService, log),
	}, handlers.RouterConfig{
		Middleware:     handlers.NewMiddleware(tokens, log),
		LoginLimit:     limiter.Middleware,
		RequestTimeout: cfg.RequestTimeout,
		DB:             db,
		Logger:         log,
	})

	// WriteTimeout stays unset so event streams are not cut off; handlers are bounded by the router
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}

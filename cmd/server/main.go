package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/meetsync/backend/api/handler"
	"github.com/meetsync/backend/internal/config"
	"github.com/meetsync/backend/internal/events"
	"github.com/meetsync/backend/internal/infrastructure/buffer"
	"github.com/meetsync/backend/internal/infrastructure/monitor"
	pgInfra "github.com/meetsync/backend/internal/infrastructure/postgres"
	redisInfra "github.com/meetsync/backend/internal/infrastructure/redis"
	"github.com/meetsync/backend/internal/middleware"
	"github.com/meetsync/backend/internal/router"
	"github.com/meetsync/backend/internal/services"
	"github.com/meetsync/backend/internal/services/lifecycle"
	"github.com/meetsync/backend/pkg/httpcontext"
	"github.com/meetsync/backend/pkg/logger"
	"github.com/meetsync/backend/repository/postgres"
	meetingUC "github.com/meetsync/backend/usecase/meeting"
	recurrenceUC "github.com/meetsync/backend/usecase/recurrence"
	taskUC "github.com/meetsync/backend/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	eventBuffer, err := buffer.Open(cfg.Buffer.Path, "events")
	if err != nil {
		zapLogger.Fatal("failed to open event buffer", zap.Error(err))
	}
	manager.Register("event_buffer", func(ctx context.Context) error {
		return eventBuffer.Close()
	})

	mon := monitor.New(pool, redisClient, eventBuffer, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	drainer := services.NewEventDrainer(eventBuffer, redisClient, mon, zapLogger, services.DrainerConfig{
		Interval:   cfg.Buffer.SyncInterval,
		BatchSize:  50,
		MaxRetries: cfg.Buffer.MaxRetry,
		Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
	})
	drainer.Start()
	manager.Register("event_drainer", func(ctx context.Context) error {
		drainer.Stop(ctx)
		return nil
	})

	publisher := events.NewPublisher(redisClient, eventBuffer, zapLogger)

	meetingRepo := postgres.NewMeetingRepository(pool)
	recurrenceRepo := postgres.NewRecurrenceRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	meetingUseCase := meetingUC.New(meetingRepo, recurrenceRepo, publisher, zapLogger)
	recurrenceUseCase := recurrenceUC.New(recurrenceRepo, publisher, zapLogger)
	taskUseCase := taskUC.New(taskRepo, publisher, zapLogger)

	subscriber := events.NewSubscriber(redisClient, cfg.Events.SubscribeChannels, zapLogger)
	services.NewUserProjector(userRepo, zapLogger).Register(subscriber)
	services.NewTaskReassigner(taskUseCase, zapLogger).Register(subscriber)

	subCtx, subCancel := context.WithCancel(appCtx)
	go func() {
		if err := subscriber.Run(subCtx); err != nil {
			zapLogger.Error("event subscriber stopped with error", zap.Error(err))
		}
	}()
	manager.Register("subscriber", func(ctx context.Context) error {
		subCancel()
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Meeting:    apiHandler.NewMeetingHandler(meetingUseCase, ctxAdapter, zapLogger),
		Recurrence: apiHandler.NewRecurrenceHandler(recurrenceUseCase, meetingUseCase, ctxAdapter, zapLogger),
		Task:       apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health:     apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

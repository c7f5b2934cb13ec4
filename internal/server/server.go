package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"openclaw/internal/config"
	"openclaw/internal/database"
	"openclaw/internal/handler"
	"openclaw/internal/middleware"
	"openclaw/internal/model"
	"openclaw/internal/notifier"
	"openclaw/internal/repository"
	"openclaw/internal/scheduler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const (
	shutdownTimeout     = 5 * time.Second
	schedulerDrainLimit = 30 * time.Second
	cycleLockKey        = "openclaw:reminder-cycle"
)

type Server struct {
	Engine    *gin.Engine
	DB        *gorm.DB
	Config    *config.Config
	Scheduler *scheduler.ReminderScheduler

	logger zerolog.Logger
	redis  *redis.Client
}

func Init(cfg *config.Config, db *gorm.DB, logger zerolog.Logger) (*Server, error) {
	if cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize repositories
	taskRepo := repository.NewTaskRepository(db)
	reminderRepo := repository.NewReminderRepository(db)

	dispatcher, err := NewNotifier(cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info().Interface("channels", dispatcher.Channels()).Msg("notification channels configured")

	schedCfg := scheduler.Config{
		Interval:  cfg.Scheduler.Interval,
		BatchSize: cfg.Scheduler.BatchSize,
	}
	var opts []scheduler.Option
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		client, err := connectRedis(cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		redisClient = client
		opts = append(opts, scheduler.WithLock(scheduler.NewRedisLock(client, cycleLockKey, cfg.Scheduler.LockTTL)))
		// A cycle must not outlive the lease that makes it exclusive.
		schedCfg.CycleTimeout = cfg.Scheduler.LockTTL
		logger.Info().Dur("lease", cfg.Scheduler.LockTTL).Msg("reminder cycle lock enabled")
	}

	sched := scheduler.New(reminderRepo, dispatcher, schedCfg, logger, opts...)

	return &Server{
		Engine:    NewRouter(cfg, taskRepo, reminderRepo, logger),
		DB:        db,
		Config:    cfg,
		Scheduler: sched,
		logger:    logger,
		redis:     redisClient,
	}, nil
}

// NewRouter builds the HTTP engine with every route registered.
func NewRouter(cfg *config.Config, tasks *repository.TaskRepository, reminders *repository.ReminderRepository, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestLogger(logger),
		middleware.Recovery(logger),
		cors.New(corsConfig(cfg.HTTP.AllowedOrigins)),
		middleware.RateLimiter(rate.Limit(cfg.HTTP.RateLimitRPS), cfg.HTTP.RateLimitBurst),
	)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(cfg.AppName, cfg.Env)
	taskHandler := handler.NewTaskHandler(tasks)
	reminderHandler := handler.NewReminderHandler(reminders, tasks)

	r.GET("/", healthHandler.Root)
	r.GET("/health", healthHandler.Health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Task routes
	r.POST("/tasks", taskHandler.Create)
	r.GET("/tasks", taskHandler.List)
	r.GET("/tasks/:id", taskHandler.GetByID)
	r.PATCH("/tasks/:id", taskHandler.Update)
	r.DELETE("/tasks/:id", taskHandler.Delete)

	// Reminder routes
	r.POST("/reminders", reminderHandler.Create)
	r.GET("/reminders", reminderHandler.List)
	r.GET("/reminders/:id", reminderHandler.GetByID)
	r.DELETE("/reminders/:id", reminderHandler.Delete)

	return r
}

// NewNotifier registers a sender for every channel that has credentials.
// The ui channel is always served by the log notifier.
func NewNotifier(cfg *config.Config, logger zerolog.Logger) (*notifier.Dispatcher, error) {
	d := notifier.NewDispatcher()
	d.Register(model.ChannelUI, notifier.NewLogNotifier(logger))
	if cfg.Twilio.Enabled() {
		d.Register(model.ChannelWhatsApp, notifier.NewWhatsAppNotifier(
			cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.WhatsAppNumber, cfg.Twilio.Recipient,
		))
	}
	if cfg.Telegram.Enabled() {
		telegram, err := notifier.NewTelegramNotifier(cfg.Telegram.APIURL, cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			return nil, fmt.Errorf("configure telegram: %w", err)
		}
		d.Register(model.ChannelTelegram, telegram)
	}
	return d, nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	c.AllowHeaders = append(c.AllowHeaders, middleware.RequestIDHeader)
	c.ExposeHeaders = []string{middleware.RequestIDHeader}
	for _, origin := range origins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	return c
}

func connectRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Run serves HTTP and runs the reminder scheduler until SIGINT or SIGTERM,
// then shuts both down, waiting for an in-flight delivery cycle.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := s.Scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("port", s.Config.ServerPort).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		s.logger.Info().Str("signal", sig.String()).Msg("shutting down server")
	case err := <-errCh:
		runErr = fmt.Errorf("listen: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("server forced to shutdown")
	}

	s.drainScheduler()

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("close redis")
		}
	}
	if err := database.Close(s.DB); err != nil {
		s.logger.Warn().Err(err).Msg("close database")
	}

	s.logger.Info().Msg("server exited properly")
	return runErr
}

func (s *Server) drainScheduler() {
	done := s.Scheduler.Stop()
	select {
	case <-done.Done():
	case <-time.After(schedulerDrainLimit):
		s.logger.Warn().Dur("waited", schedulerDrainLimit).Msg("reminder cycle still running at exit")
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tomorunn/zisaku/internal/data"
	"github.com/tomorunn/zisaku/internal/handler"
	"github.com/tomorunn/zisaku/internal/infrastructure"
	"github.com/tomorunn/zisaku/internal/middleware"
	"github.com/tomorunn/zisaku/internal/repository"
	"github.com/tomorunn/zisaku/internal/service"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// components holds everything run has built by the time routes are mounted
type components struct {
	cfg       *infrastructure.Config
	logger    *zap.Logger
	telemetry *infrastructure.Telemetry
	metrics   *infrastructure.TelemetryMetrics
	database  *infrastructure.Database
	rdb       *redis.Client

	users       *service.UserService
	contests    *service.ContestService
	submissions *service.SubmissionService
	standings   *service.StandingsService
}

func run() error {
	cfg := infrastructure.LoadConfig()

	logger, err := infrastructure.NewLogger(cfg.Server.Environment, cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer infrastructure.SyncLogger(logger)

	logger.Info("Starting Zisaku API",
		zap.String("environment", cfg.Server.Environment),
		zap.Int("port", cfg.Server.Port),
	)

	telemetry, err := infrastructure.NewTelemetry(context.Background(), &cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.Shutdown(ctx)
	}()

	metrics, err := telemetry.CreateMetrics()
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	database, err := infrastructure.NewDatabase(&cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Seed the demo contest on first boot so a fresh deployment has
	// something to submit against.
	if err := data.NewSeeder(database.DB, logger).SeedDemoContest(); err != nil {
		return fmt.Errorf("seed demo contest: %w", err)
	}

	// Redis backs the submit-endpoint rate limiter only. The limiter
	// fails open, so a missing Redis degrades throttling, not judging.
	rdb, err := infrastructure.NewRedisClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis unavailable, submit rate limiting disabled", zap.Error(err))
		rdb = nil
	}
	defer func() {
		if rdb != nil {
			_ = rdb.Close()
		}
	}()

	userRepo := repository.NewUserRepository(database.DB)
	contestRepo := repository.NewContestRepository(database.DB)
	problemRepo := repository.NewProblemRepository(database.DB)
	submissionRepo := repository.NewSubmissionRepository(database.DB)

	app := &components{
		cfg:       cfg,
		logger:    logger,
		telemetry: telemetry,
		metrics:   metrics,
		database:  database,
		rdb:       rdb,

		users:       service.NewUserService(userRepo, &cfg.JWT, telemetry.Tracer, logger),
		contests:    service.NewContestService(contestRepo, problemRepo, telemetry.Tracer, logger),
		submissions: service.NewSubmissionService(contestRepo, problemRepo, submissionRepo, userRepo, telemetry.Tracer, metrics, logger),
		standings:   service.NewStandingsService(contestRepo, submissionRepo, telemetry.Tracer, metrics, logger),
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      buildRouter(app),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", zap.String("address", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	signalCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-signalCtx.Done():
		logger.Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
	return nil
}

func buildRouter(app *components) *gin.Engine {
	if app.cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	corsConfig := middleware.DefaultCORSConfig()
	if app.cfg.Server.Environment == "production" {
		corsConfig = middleware.ProductionCORSConfig(app.cfg.Server.AllowedOrigins)
	}

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(app.logger))
	router.Use(middleware.LoggingMiddleware(app.logger))
	router.Use(middleware.CORSMiddleware(corsConfig))
	router.Use(middleware.TracingMiddleware(app.telemetry.Tracer))
	router.Use(middleware.MetricsMiddleware(app.metrics))

	router.GET("/health", func(c *gin.Context) {
		if err := app.database.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": app.cfg.Telemetry.ServiceVersion,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handler.NewAuthHandler(app.users)
	userHandler := handler.NewUserHandler(app.users)
	contestHandler := handler.NewContestHandler(app.contests)
	problemHandler := handler.NewProblemHandler(app.contests)
	submissionHandler := handler.NewSubmissionHandler(app.submissions)
	standingsHandler := handler.NewStandingsHandler(app.standings)

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Contest reads are public: spectators follow standings without an
	// account.
	contests := api.Group("/contests")
	{
		contests.GET("/:id", contestHandler.GetContest)
		contests.GET("/:id/problems", problemHandler.GetContestProblems)
		contests.GET("/:id/problems/:label", problemHandler.GetProblem)
		contests.GET("/:id/standings", standingsHandler.GetStandings)
		contests.GET("/:id/first-acceptances", standingsHandler.GetFirstAcceptances)
		contests.GET("/:id/problem-stats", standingsHandler.GetProblemStats)

		// The shared feed reveals the caller's own answers when a valid
		// token is supplied, so auth here is optional.
		contests.GET("/:id/submissions",
			middleware.OptionalAuthMiddleware(app.users),
			submissionHandler.GetContestSubmissions)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(app.users))
	{
		protected.GET("/users/me", userHandler.GetCurrentUser)
		protected.GET("/contests/:id/attempts", standingsHandler.GetMyAttempts)
		protected.POST("/contests/:id/problems/:label/submissions",
			middleware.RateLimitMiddleware(app.rdb, app.cfg.Contest.SubmitRateLimit, app.cfg.Contest.SubmitRateWindow, app.logger),
			submissionHandler.Submit)
	}

	return router
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	httpAdapter "github.com/lorrc/helpdesk-backend/internal/adapters/primary/http"
	mw "github.com/lorrc/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/helpdesk-backend/internal/adapters/primary/websocket"
	"github.com/lorrc/helpdesk-backend/internal/adapters/secondary/cache"
	"github.com/lorrc/helpdesk-backend/internal/adapters/secondary/email"
	"github.com/lorrc/helpdesk-backend/internal/adapters/secondary/notify"
	"github.com/lorrc/helpdesk-backend/internal/adapters/secondary/postgres"
	"github.com/lorrc/helpdesk-backend/internal/auth"
	"github.com/lorrc/helpdesk-backend/internal/config"
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
	"github.com/lorrc/helpdesk-backend/internal/core/services"
	"github.com/lorrc/helpdesk-backend/internal/export"
	"github.com/lorrc/helpdesk-backend/internal/infrastructure/logging"
	"github.com/lorrc/helpdesk-backend/internal/scheduler"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// 3. Run Database Migrations
	if err := runMigrations(cfg.Database.URL); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	// 4. Initialize Database Pool
	ctx := context.Background()
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database connection established")

	// 5. Initialize Security & Real-time Components
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)

	// The hub gates ticket-room subscriptions through the ticket service's
	// view authorization; the service is wired below, after the hub, because
	// the service also broadcasts through the hub.
	var ticketService ports.TicketService
	hub := websocket.NewHub(func(ctx context.Context, ticketID int64, userID uuid.UUID, role domain.Role) error {
		_, err := ticketService.GetTicket(ctx, ticketID, userID, role)
		return err
	}, logger)
	go hub.Run()

	// 6. Initialize Rate Limiters
	var generalRateLimiter, authRateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})

		authRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.AuthRPS,
			BurstSize:         cfg.RateLimit.AuthBurst,
			CleanupInterval:   time.Minute,
			TTL:               5 * time.Minute,
		})
	}

	// 7. Dependency Injection (Wiring the Hexagon)

	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Repositories (Secondary Adapters)
	userRepo := postgres.NewUserRepository(pool)
	ticketRepo := postgres.NewTicketRepository(pool)
	historyRepo := postgres.NewHistoryRepository(pool)
	priorityLogRepo := postgres.NewPriorityLogRepository(pool)
	slaPolicyRepo := postgres.NewSLAPolicyRepository(pool)
	commentRepo := postgres.NewCommentRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	departmentRepo := postgres.NewDepartmentRepository(pool)
	dashboardRepo := postgres.NewDashboardRepository(pool)
	txManager := postgres.NewTransactionManager(pool)

	// Outbound email: real SMTP when configured, log-only otherwise
	var mailer ports.Mailer
	if cfg.SMTP.Enabled {
		mailer = email.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
		logger.Info("smtp mailer enabled", "host", cfg.SMTP.Host)
	} else {
		mailer = email.NewLogMailer(logger)
	}

	notifier := notify.NewDispatchNotifier(notificationRepo, userRepo, hub, mailer, logger)

	// Optional Redis cache for the dashboard overview
	var overviewCache ports.OverviewCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("redis ping failed", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		overviewCache = cache.NewRedisOverviewCache(redisClient)
		logger.Info("redis cache enabled", "addr", cfg.Redis.Addr)
	}

	// Services (Core)
	authzService := services.NewAuthorizationService()
	authService := services.NewAuthService(userRepo, tokenManager, logger)
	slaService := services.NewSLAService(slaPolicyRepo, logger, nil)
	ticketSvc := services.NewTicketService(services.TicketServiceDeps{
		TicketRepo:      ticketRepo,
		HistoryRepo:     historyRepo,
		PriorityLogRepo: priorityLogRepo,
		CommentRepo:     commentRepo,
		UserRepo:        userRepo,
		CategoryRepo:    categoryRepo,
		DepartmentRepo:  departmentRepo,
		SLAService:      slaService,
		AuthzService:    authzService,
		Notifier:        notifier,
		Broadcaster:     hub,
		TxManager:       txManager,
		Logger:          logger,
	})
	ticketService = ticketSvc
	commentService := services.NewCommentService(commentRepo, ticketRepo, authzService, notifier, hub)
	notificationService := services.NewNotificationService(notificationRepo)
	taxonomyService := services.NewTaxonomyService(categoryRepo, departmentRepo)
	dashboardService := services.NewDashboardService(dashboardRepo, overviewCache, logger, nil)
	exportService := export.NewExcelExporter(ticketSvc, userRepo, nil)

	sweepService := services.NewSweepService(services.SweepServiceDeps{
		TicketRepo:      ticketRepo,
		HistoryRepo:     historyRepo,
		PriorityLogRepo: priorityLogRepo,
		UserRepo:        userRepo,
		Notifier:        notifier,
		Mailer:          mailer,
		TxManager:       txManager,
		FallbackAdmin:   cfg.SLA.FallbackAdminEmail,
		Logger:          logger,
	})

	sweepScheduler := scheduler.NewSweepScheduler(sweepService, cfg.SLA.SweepInterval, logger)
	sweepScheduler.Start()

	// Handlers (Primary Adapters)
	authHandler := httpAdapter.NewAuthHandler(authService, errorHandler, logger)
	commentHandler := httpAdapter.NewCommentHandler(commentService, errorHandler, logger)
	ticketHandler := httpAdapter.NewTicketHandler(ticketSvc, exportService, commentHandler, errorHandler, logger)
	notificationHandler := httpAdapter.NewNotificationHandler(notificationService, errorHandler, logger)
	taxonomyHandler := httpAdapter.NewTaxonomyHandler(taxonomyService, errorHandler, logger)
	adminHandler := httpAdapter.NewAdminHandler(slaService, dashboardService, errorHandler, logger)
	meHandler := httpAdapter.NewMeHandler(authzService, errorHandler, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, tokenManager, cfg, logger)
	healthHandler := httpAdapter.NewHealthHandler(pool, cfg.App.Version)

	// 8. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/health/live", healthHandler.HandleLiveness)
	r.Get("/health/ready", healthHandler.HandleReadiness)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes with stricter rate limiting
		r.Group(func(r chi.Router) {
			if authRateLimiter != nil {
				r.Use(authRateLimiter.Middleware)
			}
			r.Route("/auth", authHandler.RegisterRoutes)
		})

		// WebSocket route (Authentication is handled inside the handler)
		r.Get("/ws", wsHandler.ServeHTTP)

		// Protected REST routes
		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(tokenManager))
			r.Route("/tickets", ticketHandler.RegisterRoutes)
			r.Route("/notifications", notificationHandler.RegisterRoutes)
			r.Route("/categories", taxonomyHandler.RegisterCategoryRoutes)
			r.Route("/departments", taxonomyHandler.RegisterDepartmentRoutes)
			r.Route("/me", meHandler.RegisterRoutes)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(domain.RoleAdmin))
				r.Route("/admin", func(r chi.Router) {
					adminHandler.RegisterRoutes(r)
					taxonomyHandler.RegisterAdminRoutes(r)
				})
			})
		})
	})

	// 9. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	// Stop the background sweep before draining in-flight requests
	sweepScheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	// Wait for async broadcasts and notifications to settle
	ticketSvc.Shutdown()
	commentService.Shutdown()

	logger.Info("server shutdown complete")
}

// runMigrations applies pending schema migrations. The pgx migrate driver
// registers itself under the pgx5 scheme.
func runMigrations(databaseURL string) error {
	migrateURL := databaseURL
	if strings.HasPrefix(migrateURL, "postgres://") {
		migrateURL = "pgx5://" + strings.TrimPrefix(migrateURL, "postgres://")
	} else if strings.HasPrefix(migrateURL, "postgresql://") {
		migrateURL = "pgx5://" + strings.TrimPrefix(migrateURL, "postgresql://")
	}

	m, err := migrate.New("file://migrations", migrateURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

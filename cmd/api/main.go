package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kritsw/telemed/internal/auth"
	"github.com/kritsw/telemed/internal/background"
	"github.com/kritsw/telemed/internal/config"
	"github.com/kritsw/telemed/internal/database"
	"github.com/kritsw/telemed/internal/handlers"
	"github.com/kritsw/telemed/internal/ipblock"
	middlewareCustom "github.com/kritsw/telemed/internal/middleware"
	"github.com/kritsw/telemed/internal/repositories"
	"github.com/kritsw/telemed/internal/routes"
	"github.com/kritsw/telemed/internal/services"
	pkghttp "github.com/kritsw/telemed/pkg/http"
	pkglogger "github.com/kritsw/telemed/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	specialtyRepo := repositories.NewSpecialtyRepository(db)
	slotRepo := repositories.NewSlotRepository(db)
	appointmentRepo := repositories.NewAppointmentRepository(db)

	// IP block registry: Redis when configured, in-process map otherwise
	var blocks ipblock.Registry
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		blocks = ipblock.NewRedisRegistry(client)
		logger.Info("using redis ip block registry", slog.String("addr", cfg.Redis.Addr))
	} else {
		blocks = ipblock.NewMemoryRegistry()
		logger.Info("using in-memory ip block registry")
	}

	// Token manager and security plumbing
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	enumerationDelay := auth.NewEnumerationDelay(cfg.Auth.NotFoundDelay)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Appointment notification email (optional)
	var notifier services.Notifier
	if cfg.Email.Enabled {
		sesNotifier, err := services.NewAWSSESNotifier(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		if err != nil {
			logger.Error("failed to initialize email notifier", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = sesNotifier
	}

	// Initialize services
	authService := services.NewAuthService(userRepo, specialtyRepo, blocks, tokenManager, enumerationDelay, logger, auditLogger)
	userService := services.NewUserService(userRepo, specialtyRepo, logger)
	bookingService := services.NewBookingService(db, slotRepo, appointmentRepo, userRepo, notifier, logger, auditLogger)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(authService, ipConfig, logger)
	userHandler := handlers.NewUserHandler(userService, logger)
	doctorHandler := handlers.NewDoctorHandler(userService, bookingService, logger)
	appointmentHandler := handlers.NewAppointmentHandler(bookingService, logger)

	// Background sweeper closes parent slots whose range has passed
	sweeper := background.NewSlotSweeper(slotRepo, logger, cfg.Booking.SlotSweepInterval)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.NewCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, userHandler, doctorHandler, appointmentHandler, tokenManager)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start sweeper
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	go sweeper.Start(sweepCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	sweepCancel()
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fund-planning-api/config"
	"fund-planning-api/controllers"
	"fund-planning-api/middleware"
	"fund-planning-api/models"
	"fund-planning-api/routes"
	"fund-planning-api/services"
	"fund-planning-api/workflow"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	envErr := godotenv.Load()

	settings, err := config.Load()
	logFile, logger := config.InitLogging(settings.LogLevel)
	if logFile != nil {
		defer logFile.Close()
	}
	if envErr != nil {
		logger.Info().Msg("No .env file found, using environment variables")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := config.OpenDB(settings, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("database handle unavailable")
	}
	defer sqlDB.Close()

	if settings.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			logger.Fatal().Err(err).Msg("auto-migration failed")
		}
		logger.Info().Msg("database schema migrated")
	}

	records := services.NewRecordRepository(db)
	policies := services.NewPolicyService(db, settings.PolicyCacheTTL, settings.PolicyCacheRecheck, logger)
	audit := services.NewAuditService(db)
	users := services.NewUserService(db)
	notifications := services.NewNotificationService(db, config.NewMailer(settings.SMTP), logger)

	engine := workflow.NewEngine(records, policies, services.NewPermissionService(db), audit,
		workflow.WithLogger(logger.With().Str("component", "workflow").Logger()))
	sessions := middleware.NewSessions(settings.JWTSecret, time.Duration(settings.JWTExpireHours)*time.Hour)

	if settings.GinMode == gin.ReleaseMode || settings.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware(settings.CORSAllowedOrigins))

	routes.SetupRoutes(router, routes.Handlers{
		Auth:              controllers.NewAuthController(users, sessions),
		Records:           controllers.NewRecordController(engine, notifications, audit, records, logger),
		WithdrawalConfigs: controllers.NewWithdrawalConfigController(policies),
		Notifications:     controllers.NewNotificationController(notifications),
		Sessions:          sessions,
		Users:             users,
		Health: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return sqlDB.PingContext(ctx)
		},
		LogFile: config.LogFilePath(),
	})

	srv := &http.Server{
		Addr:              ":" + settings.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serve(srv, logger, settings)
}

func serve(srv *http.Server, logger zerolog.Logger, settings config.Settings) {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("environment", settings.Environment).
			Str("db_driver", settings.Database.Driver).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal().Err(err).Msg("server failed")
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

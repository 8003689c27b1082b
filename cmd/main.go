package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/Sarsenovv/competition-platform/config"
	"github.com/Sarsenovv/competition-platform/db"
	"github.com/Sarsenovv/competition-platform/handlers"
	"github.com/Sarsenovv/competition-platform/live"
	"github.com/Sarsenovv/competition-platform/middleware"
	"github.com/Sarsenovv/competition-platform/repositories"
	api "github.com/Sarsenovv/competition-platform/routes"
	"github.com/Sarsenovv/competition-platform/services"
	"github.com/Sarsenovv/competition-platform/storage"
)

const statusMaintenanceInterval = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	liveHub := live.NewHub(logger)
	go liveHub.Run()
	logger.Info("live events hub started")

	// Репозитории
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	inviteRepo := repositories.NewPostgresInviteRepository(dbConn)
	competitionRepo := repositories.NewPostgresCompetitionRepository(dbConn)
	criterionRepo := repositories.NewPostgresCriterionRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	couponRepo := repositories.NewPostgresCouponRepository(dbConn)
	submissionRepo := repositories.NewPostgresSubmissionRepository(dbConn)
	scoreRepo := repositories.NewPostgresScoreRepository(dbConn)
	contactRepo := repositories.NewPostgresContactRequestRepository(dbConn)
	transactor := repositories.NewTransactor(dbConn)
	logger.Info("repositories initialized")

	// Сервисы
	mailer := services.NewEmailService(cfg)
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, uploader)
	teamService := services.NewTeamService(teamRepo, userRepo)
	inviteService := services.NewInviteService(inviteRepo, teamRepo, userRepo, logger)
	competitionService := services.NewCompetitionService(competitionRepo, uploader, logger)
	criterionService := services.NewCriterionService(criterionRepo, competitionRepo)
	registrationService := services.NewRegistrationService(transactor, registrationRepo, competitionRepo, userRepo, teamRepo, couponRepo)
	couponService := services.NewCouponService(couponRepo, competitionRepo)
	submissionService := services.NewSubmissionService(submissionRepo, competitionRepo, registrationRepo, userRepo, uploader, mailer, logger)
	evaluationService := services.NewEvaluationService(
		transactor,
		submissionRepo,
		scoreRepo,
		criterionRepo,
		competitionRepo,
		userRepo,
		mailer,
		liveHub,
		logger,
		cfg.LeaderboardLimit,
	)
	contactService := services.NewContactService(contactRepo, submissionRepo, userRepo, mailer, logger)
	logger.Info("services initialized")

	// Фоновые задачи
	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	go inviteService.RunCleanupLoop(backgroundCtx, cfg.InviteCleanupInterval)
	logger.Info("invite cleanup loop started", slog.Duration("interval", cfg.InviteCleanupInterval))

	go competitionService.RunStatusMaintenanceLoop(backgroundCtx, statusMaintenanceInterval)
	logger.Info("competition status maintenance started", slog.Duration("interval", statusMaintenanceInterval))

	// HTTP-обработчики
	jwtManager := middleware.NewJWTManager(cfg.JWTSecretKey)
	authHandler := handlers.NewAuthHandler(authService, jwtManager, mailer, logger)
	userHandler := handlers.NewUserHandler(userService)
	teamHandler := handlers.NewTeamHandler(teamService)
	inviteHandler := handlers.NewInviteHandler(inviteService)
	competitionHandler := handlers.NewCompetitionHandler(competitionService)
	criterionHandler := handlers.NewCriterionHandler(criterionService)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	couponHandler := handlers.NewCouponHandler(couponService)
	submissionHandler := handlers.NewSubmissionHandler(submissionService)
	evaluationHandler := handlers.NewEvaluationHandler(evaluationService)
	contactHandler := handlers.NewContactHandler(contactService)
	webSocketHandler := handlers.NewWebSocketHandler(liveHub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		jwtManager,
		authHandler,
		userHandler,
		teamHandler,
		inviteHandler,
		competitionHandler,
		criterionHandler,
		registrationHandler,
		couponHandler,
		submissionHandler,
		evaluationHandler,
		contactHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancelBackground()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

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

	"github.com/corpfest/secret-santa/config"
	"github.com/corpfest/secret-santa/db"
	"github.com/corpfest/secret-santa/handlers"
	"github.com/corpfest/secret-santa/repositories"
	api "github.com/corpfest/secret-santa/routes"
	"github.com/corpfest/secret-santa/santa"
	"github.com/corpfest/secret-santa/services"
	"github.com/corpfest/secret-santa/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Хранилище для экспорта результатов (опционально)
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("R2 uploader initialized")
	} else {
		logger.Info("R2 is not configured, result export disabled")
	}

	// WebSocket Hub для дашборда
	wsHub := santa.NewHub()
	go wsHub.Run()
	logger.Info("dashboard hub started")

	// Инициализация репозиториев
	txRunner := repositories.NewSQLTxRunner(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)

	// Инициализация сервисов
	exchangeService := services.NewExchangeService(txRunner, participantRepo, userRepo, wsHub, logger)
	exportService := services.NewExportService(exchangeService, uploader, logger)

	// Инициализация обработчиков HTTP
	santaHandler := handlers.NewSantaHandler(exchangeService)
	adminHandler := handlers.NewAdminHandler(exchangeService, exportService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, []byte(cfg.JWTSecretKey), santaHandler, adminHandler, webSocketHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	shutdownErr := make(chan error)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit
		logger.Info("shutting down server", slog.String("signal", s.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		shutdownErr <- server.Shutdown(ctx)
	}()

	logger.Info("starting server", slog.String("addr", server.Addr))
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
	if err := <-shutdownErr; err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

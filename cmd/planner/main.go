package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/example/session-planner/internal/application"
	"github.com/example/session-planner/internal/assist"
	"github.com/example/session-planner/internal/config"
	httptransport "github.com/example/session-planner/internal/http"
	"github.com/example/session-planner/internal/notify"
	"github.com/example/session-planner/internal/persistence"
	"github.com/example/session-planner/internal/persistence/sqlite"
	"github.com/example/session-planner/internal/reminder"
	"github.com/example/session-planner/internal/workspace"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	seed, err := persistence.DefaultSeed(application.HashPIN, time.Now)
	if err != nil {
		logger.Error("failed to build seed data", "error", err)
		os.Exit(1)
	}
	if err := storage.Seed(context.Background(), seed); err != nil {
		logger.Error("failed to seed storage", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	sessionRepo := newSessionRepositoryAdapter(sqlite.NewSessionRepository(storage))
	userRepo := newUserRepositoryAdapter(sqlite.NewUserRepository(storage))
	speakerRepo := newSpeakerRepositoryAdapter(sqlite.NewSpeakerRepository(storage))
	settingsRepo := newSettingsRepositoryAdapter(sqlite.NewSettingsRepository(storage))
	backupRepo := sqlite.NewBackupRepository(storage)

	webhookClient := &http.Client{Timeout: cfg.WebhookTimeout}
	calendar := workspace.NewClient(settingsRepo, webhookClient, logger)
	mailer := notify.NewSender(settingsRepo, webhookClient, logger)
	generator := assist.NewGenerator(cfg.AssistAPIKey, cfg.AssistBaseURL, &http.Client{Timeout: 60 * time.Second}, logger)

	sessionService := application.NewSessionServiceWithLogger(sessionRepo, speakerRepo, calendar, mailer, idGenerator, now, logger)
	userService := application.NewUserService(userRepo, application.HashPIN, idGenerator)
	speakerService := application.NewSpeakerService(speakerRepo, idGenerator)
	authService := application.NewAuthServiceWithLogger(userRepo, application.VerifyPIN, tokenGenerator, now, cfg.SessionTTL, logger)
	settingsService := application.NewSettingsService(settingsRepo)
	backupService := application.NewBackupService(backupRepo, logger)

	dispatcher := reminder.NewDispatcher(sessionRepo, mailer, now, logger)
	if err := dispatcher.Start(); err != nil {
		logger.Error("failed to start reminder dispatcher", "error", err)
		os.Exit(1)
	}
	defer dispatcher.Stop()

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:     httptransport.NewAuthHandler(authService, logger),
		Sessions: httptransport.NewSessionHandler(sessionService, logger),
		Speakers: httptransport.NewSpeakerHandler(speakerService, logger),
		Users:    httptransport.NewUserHandler(userService, logger),
		Settings: httptransport.NewSettingsHandler(settingsService, logger),
		Backup:   httptransport.NewBackupHandler(backupService, logger),
		Assist:   httptransport.NewAssistHandler(generator, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireSession(authService, logger, httptransport.PublicPath),
		},
	})

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.EmbedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Session-Token"},
		AllowCredentials: true,
	}).Handler(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("planner API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

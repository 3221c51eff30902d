package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"accounts-service/internal/auth"
	"accounts-service/internal/db"
	"accounts-service/internal/mail"
	"accounts-service/internal/maintenance"
	"accounts-service/internal/observability"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Close   func() error
}

func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger()

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	accessSecret, err := mustEnv("ACCESS_TOKEN_SECRET")
	if err != nil {
		return nil, err
	}
	refreshSecret, err := mustEnv("REFRESH_TOKEN_SECRET")
	if err != nil {
		return nil, err
	}

	if err := observability.InitSentry(os.Getenv("SENTRY_DSN"), envOrDefault("APP_ENV", "development")); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(envIntOrDefault("DB_MAX_OPEN_CONNS", 10))
	database.SetMaxIdleConns(envIntOrDefault("DB_MAX_IDLE_CONNS", 5))
	database.SetConnMaxLifetime(envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30))
	database.SetConnMaxIdleTime(envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10))

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(context.Background(), database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	refreshTTL := envHoursOrDefault("REFRESH_TOKEN_TTL_HOURS", 168)
	codec := auth.NewTokenCodec(
		accessSecret,
		refreshSecret,
		envMinutesOrDefault("ACCESS_TOKEN_TTL_MINUTES", 15),
		refreshTTL,
	)
	hasher := auth.NewHasher()
	repo := auth.NewRepository(database)
	service := auth.NewService(repo, hasher, codec)
	verifications := auth.NewVerificationService(repo, hasher, codec,
		envMinutesOrDefault("TEMP_TOKEN_TTL_MINUTES", 20))

	smtpConfig := mail.SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     envOrDefault("SMTP_PORT", "587"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
	var mailer mail.Mailer
	if smtpConfig.Complete() {
		mailer = mail.NewSMTPMailer(smtpConfig)
	} else {
		logger.Error("smtp_not_configured", map[string]any{"note": "emails will be dropped"})
	}
	dispatcher := mail.NewDispatcher(mailer, logger)

	authHandler := auth.NewHandler(service, verifications, dispatcher, refreshTTL, os.Getenv("PUBLIC_BASE_URL"))
	cleanupHandler := maintenance.NewCleanupHandler(repo, logger, os.Getenv("CRON_SECRET"))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("POST /auth/refresh", authHandler.Refresh)
	mux.HandleFunc("GET /auth/verify-email/{token}", authHandler.VerifyEmail)
	mux.HandleFunc("POST /auth/forgot-password", authHandler.ForgotPassword)
	mux.HandleFunc("POST /auth/reset-password/{token}", authHandler.ResetPassword)
	mux.Handle("POST /auth/logout", auth.Middleware(codec, http.HandlerFunc(authHandler.Logout)))
	mux.Handle("POST /auth/resend-verification", auth.Middleware(codec, http.HandlerFunc(authHandler.ResendVerification)))
	mux.Handle("POST /auth/change-password", auth.Middleware(codec, http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("GET /auth/me", auth.Middleware(codec, http.HandlerFunc(authHandler.Me)))
	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("GET /health", healthHandler(database))

	handler := observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, mux))

	return &Runtime{
		Handler: handler,
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envHoursOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Hour
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

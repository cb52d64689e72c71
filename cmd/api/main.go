package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/sehatindo/booking-platform/internal/api/router"
	"github.com/sehatindo/booking-platform/internal/appointments"
	"github.com/sehatindo/booking-platform/internal/captcha"
	"github.com/sehatindo/booking-platform/internal/clinics"
	appconfig "github.com/sehatindo/booking-platform/internal/config"
	"github.com/sehatindo/booking-platform/internal/notify"
	"github.com/sehatindo/booking-platform/internal/observability/metrics"
	"github.com/sehatindo/booking-platform/internal/otp"
	"github.com/sehatindo/booking-platform/internal/session"
	"github.com/sehatindo/booking-platform/pkg/logging"
)

func main() {
	// Load .env if present; real deployments set environment variables directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.SessionSecret == "" {
		logger.Error("SESSION_SECRET is required")
		os.Exit(1)
	}

	ctx := context.Background()

	// Appointment storage: Postgres when configured, in-memory otherwise
	// so the service runs locally without infrastructure.
	var repo appointments.Repository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = appointments.NewPostgresRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory appointment store")
		repo = appointments.NewInMemoryRepository()
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err, "addr", cfg.RedisAddr)
		os.Exit(1)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bookingMetrics := metrics.NewBookingMetrics(registry)

	// Sessions and OTP phone verification
	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionTTL)
	var smsSender otp.SMSSender = otp.NewLogSender(logger)
	if cfg.SMSProvider != "log" {
		logger.Warn("unknown SMS provider, falling back to log sender", "provider", cfg.SMSProvider)
	}
	otpService := otp.NewService(redisClient, smsSender, sessions, otp.Config{
		CodeTTL:       cfg.OTPCodeTTL,
		MaxAttempts:   cfg.OTPMaxAttempts,
		RequestWindow: cfg.OTPRequestWindow,
		MaxPerWindow:  cfg.OTPMaxPerWindow,
	}, logger)

	// CAPTCHA challenges, answers held server-side in Redis
	captchaService := captcha.NewService(captcha.NewRedisStore(redisClient, cfg.CaptchaTTL), cfg.CaptchaLength, logger)

	// Confirmation email
	var emailSender notify.EmailSender
	switch cfg.EmailProvider {
	case "sendgrid":
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			emailSender = s
		}
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		if s := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); s != nil {
			emailSender = s
		}
	case "":
		logger.Warn("EMAIL_PROVIDER not set, confirmation emails disabled")
	default:
		logger.Warn("unknown email provider, confirmation emails disabled", "provider", cfg.EmailProvider)
	}
	notifier := notify.NewService(emailSender, logger)

	// Booking service and handlers
	bookingService := appointments.NewService(repo, captchaService, notifier, bookingMetrics, logger)
	bookingService.SetMaxNumberRetries(cfg.BookingMaxRetries)

	r := router.New(&router.Config{
		Logger:              logger,
		AppointmentsHandler: appointments.NewHandler(bookingService, logger),
		CaptchaHandler:      captcha.NewHandler(captchaService, logger),
		OTPHandler:          otp.NewHandler(otpService, logger),
		ClinicsHandler:      clinics.NewHandler(),
		Sessions:            sessions,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		PublicRateLimit:     cfg.PublicRateLimit,
		PublicRateBurst:     cfg.PublicRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

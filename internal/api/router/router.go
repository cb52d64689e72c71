package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sehatindo/booking-platform/internal/appointments"
	"github.com/sehatindo/booking-platform/internal/captcha"
	"github.com/sehatindo/booking-platform/internal/clinics"
	httpmiddleware "github.com/sehatindo/booking-platform/internal/http/middleware"
	"github.com/sehatindo/booking-platform/internal/otp"
	"github.com/sehatindo/booking-platform/internal/session"
	"github.com/sehatindo/booking-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AppointmentsHandler *appointments.Handler
	CaptchaHandler      *captcha.Handler
	OTPHandler          *otp.Handler
	ClinicsHandler      *clinics.Handler
	Sessions            *session.Manager
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// Per-IP rate limit for the public booking surface. Zero disables it.
	PublicRateLimit float64
	PublicRateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health, metrics, clinic catalog, lookup)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.ClinicsHandler != nil {
			public.Get("/clinics", cfg.ClinicsHandler.List)
		}
		if cfg.CaptchaHandler != nil {
			public.Get("/captcha", cfg.CaptchaHandler.Generate)
		}
		if cfg.AppointmentsHandler != nil {
			public.Get("/appointments/lookup", cfg.AppointmentsHandler.Lookup)
			// Same lookup, query-param style kept for existing clients.
			public.Get("/appointments", cfg.AppointmentsHandler.Lookup)
		}
	})

	// Phone verification issues the session required for booking.
	if cfg.OTPHandler != nil {
		r.Route("/auth/otp", func(auth chi.Router) {
			if cfg.PublicRateLimit > 0 {
				auth.Use(httpmiddleware.RateLimit(cfg.PublicRateLimit, cfg.PublicRateBurst))
			}
			auth.Post("/request", cfg.OTPHandler.Request)
			auth.Post("/verify", cfg.OTPHandler.Verify)
		})
	}

	// Booking submission requires a verified phone session.
	if cfg.AppointmentsHandler != nil && cfg.Sessions != nil {
		r.Group(func(protected chi.Router) {
			protected.Use(cfg.Sessions.Require)
			if cfg.PublicRateLimit > 0 {
				protected.Use(httpmiddleware.RateLimit(cfg.PublicRateLimit, cfg.PublicRateBurst))
			}
			protected.Post("/appointments", cfg.AppointmentsHandler.Submit)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

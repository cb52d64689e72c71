package otp

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sehatindo/booking-platform/pkg/logging"
)

// Handler exposes OTP request/verify over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates an OTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// RequestBody is the body for POST /auth/otp/request.
type RequestBody struct {
	Phone string `json:"phone"`
}

// RequestResponse acknowledges an issued code.
type RequestResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifyBody is the body for POST /auth/otp/verify.
type VerifyBody struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// VerifyResponse carries the session token issued on success.
type VerifyResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Request handles POST /auth/otp/request.
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	var body RequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expiresAt, err := h.service.Request(r.Context(), body.Phone)
	switch {
	case errors.Is(err, ErrInvalidPhone):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ErrTooManyRequests):
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	case err != nil:
		h.logger.Error("otp request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send verification code")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(RequestResponse{
		Message:   "verification code sent",
		ExpiresAt: expiresAt,
	})
}

// Verify handles POST /auth/otp/verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var body VerifyBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, expiresAt, err := h.service.Verify(r.Context(), body.Phone, body.Code)
	switch {
	case errors.Is(err, ErrInvalidPhone):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ErrCodeMismatch), errors.Is(err, ErrCodeExpired):
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	case errors.Is(err, ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	case err != nil:
		h.logger.Error("otp verify failed", "error", err)
		writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(VerifyResponse{Token: token, ExpiresAt: expiresAt})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

package appointments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sehatindo/booking-platform/internal/captcha"
	"github.com/sehatindo/booking-platform/pkg/logging"
)

// Handler handles HTTP requests for appointments.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new appointments handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Submit handles POST /appointments requests. The route sits behind the
// session middleware; an Idempotency-Key header makes retries safe.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode submission", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.IdempotencyKey = r.Header.Get("Idempotency-Key")

	confirmation, err := h.service.Submit(r.Context(), &req)
	switch {
	case err == nil:
	case IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, captcha.ErrMismatch), errors.Is(err, captcha.ErrExpired):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	default:
		h.logger.Error("submission failed", "error", err)
		writeError(w, http.StatusInternalServerError, "temporarily unable to process the booking, please retry")
		return
	}

	status := http.StatusCreated
	if confirmation.Replayed {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(confirmation)
}

// Lookup handles GET /appointments/lookup requests. Public: a patient only
// needs the phone number and booking number from their confirmation.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	bookingNumber := r.URL.Query().Get("booking_number")
	if bookingNumber == "" {
		bookingNumber = r.URL.Query().Get("bookingNumber")
	}

	appt, err := h.service.Lookup(r.Context(), phone, bookingNumber)
	switch {
	case err == nil:
	case errors.Is(err, ErrMissingLookupFields):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "no appointment matches that phone and booking number")
		return
	default:
		h.logger.Error("lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "temporarily unable to look up the booking, please retry")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appt)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

package captcha

import (
	"encoding/json"
	"net/http"

	"github.com/sehatindo/booking-platform/pkg/logging"
)

// Handler serves challenge issuance over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a captcha handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Generate handles GET /captcha requests. Passing ?replace=<challenge_id>
// consumes the previous challenge before issuing a new one.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	replaceID := r.URL.Query().Get("replace")

	challenge, err := h.service.Generate(r.Context(), replaceID)
	if err != nil {
		h.logger.Error("failed to generate captcha", "error", err)
		http.Error(w, "failed to generate captcha", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(challenge)
}

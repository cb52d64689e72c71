package clinics

import (
	"encoding/json"
	"net/http"
)

// Handler serves the clinic catalog.
type Handler struct{}

// NewHandler creates a clinics handler.
func NewHandler() *Handler {
	return &Handler{}
}

// ListResponse is the response for listing clinics.
type ListResponse struct {
	Clinics []Clinic `json:"clinics"`
	Count   int      `json:"count"`
}

// List handles GET /clinics requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	response := ListResponse{
		Clinics: Catalog,
		Count:   len(Catalog),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

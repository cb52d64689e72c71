package clinics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"exact match", "POLI KANDUNGAN", true},
		{"case insensitive", "poli anak", true},
		{"surrounding whitespace", "  Unit IGD ", true},
		{"unknown clinic", "POLI BEDAH PLASTIK", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.in); got != tt.want {
				t.Fatalf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestListClinics(t *testing.T) {
	handler := NewHandler()
	req := httptest.NewRequest(http.MethodGet, "/clinics", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp ListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != len(Catalog) {
		t.Fatalf("expected %d clinics, got %d", len(Catalog), resp.Count)
	}
	if resp.Clinics[0].Name != "POLI UMUM" {
		t.Fatalf("expected first clinic POLI UMUM, got %s", resp.Clinics[0].Name)
	}
}

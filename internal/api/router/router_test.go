package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sehatindo/booking-platform/internal/appointments"
	"github.com/sehatindo/booking-platform/internal/captcha"
	"github.com/sehatindo/booking-platform/internal/clinics"
	"github.com/sehatindo/booking-platform/internal/otp"
	"github.com/sehatindo/booking-platform/internal/session"
)

type recordingSMS struct {
	bodies []string
}

func (r *recordingSMS) SendSMS(ctx context.Context, phone, body string) error {
	r.bodies = append(r.bodies, body)
	return nil
}

var codePattern = regexp.MustCompile(`\d{6}`)

func newTestRouter(t *testing.T) (http.Handler, *miniredis.Miniredis, *recordingSMS) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	sessions := session.NewManager("test-session-secret", time.Hour)
	sms := &recordingSMS{}
	otpSvc := otp.NewService(client, sms, sessions, otp.DefaultConfig(), nil)

	captchaSvc := captcha.NewService(captcha.NewRedisStore(client, 10*time.Minute), 5, nil)

	repo := appointments.NewInMemoryRepository()
	apptSvc := appointments.NewService(repo, captchaSvc, nil, nil, nil)

	handler := New(&Config{
		AppointmentsHandler: appointments.NewHandler(apptSvc, nil),
		CaptchaHandler:      captcha.NewHandler(captchaSvc, nil),
		OTPHandler:          otp.NewHandler(otpSvc, nil),
		ClinicsHandler:      clinics.NewHandler(),
		Sessions:            sessions,
	})
	return handler, mr, sms
}

func TestHealthEndpoint(t *testing.T) {
	handler, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestClinicsEndpoint(t *testing.T) {
	handler, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/clinics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "POLI UMUM")
}

func TestSubmitRequiresSession(t *testing.T) {
	handler, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLookupIsPublic(t *testing.T) {
	handler, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/appointments/lookup?phone=08123456789&booking_number=BKG1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// No session required; unknown booking is simply not found.
	require.Equal(t, http.StatusNotFound, rec.Code)

	// The query-param route answers the same way.
	req = httptest.NewRequest(http.MethodGet, "/appointments?phone=08123456789&bookingNumber=BKG1", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

// TestBookingFlow exercises the whole public surface: verify a phone via
// OTP, fetch a CAPTCHA, then submit and look up a booking.
func TestBookingFlow(t *testing.T) {
	handler, mr, sms := newTestRouter(t)

	// Request and verify an OTP code to obtain a session token.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/otp/request",
		bytes.NewBufferString(`{"phone":"08123456789"}`)))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, sms.bodies, 1)
	code := codePattern.FindString(sms.bodies[0])
	require.NotEmpty(t, code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/otp/verify",
		bytes.NewBufferString(fmt.Sprintf(`{"phone":"08123456789","code":%q}`, code))))
	require.Equal(t, http.StatusOK, rec.Code)

	var verify struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verify))
	require.NotEmpty(t, verify.Token)

	// Fetch a CAPTCHA challenge and read its answer straight from Redis.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/captcha", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var challenge struct {
		ID    string `json:"challenge_id"`
		Image string `json:"image"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &challenge))
	require.NotEmpty(t, challenge.ID)
	require.NotEmpty(t, challenge.Image)

	answer, err := mr.Get("captcha:challenge:" + challenge.ID)
	require.NoError(t, err)

	// Submit the booking with the verified session.
	date := time.Now().UTC().AddDate(0, 0, 3).Format("2006-01-02")
	payload := fmt.Sprintf(`{
		"patient_name": "Siti Rahma",
		"address": "Jl. Melati No. 5, Bandung",
		"phone": "08123456789",
		"email": "siti@example.com",
		"clinic": "POLI UMUM",
		"appointment_date": %q,
		"captcha_id": %q,
		"captcha_answer": %q
	}`, date, challenge.ID, answer)

	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewBufferString(payload))
	req.Header.Set("Authorization", "Bearer "+verify.Token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var confirmation struct {
		BookingNumber string `json:"booking_number"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirmation))
	require.NotEmpty(t, confirmation.BookingNumber)

	// The booking is retrievable by phone and booking number.
	lookupURL := fmt.Sprintf("/appointments/lookup?phone=08123456789&booking_number=%s", confirmation.BookingNumber)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, lookupURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), confirmation.BookingNumber)
}

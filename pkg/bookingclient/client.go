// Package bookingclient is a small HTTP client for the booking API. It is
// what server-side renderers and batch tools use to submit and look up
// appointments without hand-rolling requests.
package bookingclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors callers branch on.
var (
	ErrNotFound            = errors.New("bookingclient: no matching appointment")
	ErrUnauthorized        = errors.New("bookingclient: session token missing or expired")
	ErrCaptchaRejected     = errors.New("bookingclient: captcha answer rejected")
	ErrMissingLookupFields = errors.New("bookingclient: phone and booking number are both required")
)

// RequestError reports a non-retryable rejection from the API.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("bookingclient: request rejected (%d): %s", e.StatusCode, e.Message)
}

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 2
	defaultBackoff    = 500 * time.Millisecond
)

// Client talks to the booking API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMaxRetries sets how many times a failed submission is retried on
// network errors or 5xx responses.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithBackoff sets the base delay between retries. Each retry doubles it.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmissionRequest is the booking form payload.
type SubmissionRequest struct {
	PatientName     string `json:"patient_name"`
	Address         string `json:"address"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Clinic          string `json:"clinic"`
	AppointmentDate string `json:"appointment_date"`
	Message         string `json:"message"`
	CaptchaID       string `json:"captcha_id"`
	CaptchaAnswer   string `json:"captcha_answer"`
}

// Confirmation is the API's response to a successful submission.
type Confirmation struct {
	BookingNumber string    `json:"booking_number"`
	BookingDate   time.Time `json:"booking_date"`

	// Replayed is true when the server answered from an earlier attempt
	// with the same idempotency key.
	Replayed bool `json:"-"`
}

// Appointment is a stored booking returned by Lookup.
type Appointment struct {
	BookingNumber   string    `json:"booking_number"`
	PatientName     string    `json:"patient_name"`
	Address         string    `json:"address"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email"`
	Clinic          string    `json:"clinic"`
	AppointmentDate string    `json:"appointment_date"`
	Message         string    `json:"message"`
	Status          string    `json:"status"`
	BookingDate     time.Time `json:"booking_date"`
}

// Submit sends a booking. sessionToken comes from the OTP verify endpoint.
// A single idempotency key is generated up front and reused across retries,
// so a response lost to a timeout cannot create a duplicate appointment.
func (c *Client) Submit(ctx context.Context, sessionToken string, req *SubmissionRequest) (*Confirmation, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("bookingclient: encode request: %w", err)
	}

	idempotencyKey := uuid.NewString()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		confirmation, retryable, err := c.submitOnce(ctx, sessionToken, idempotencyKey, body)
		if err == nil {
			return confirmation, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("bookingclient: submission failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) submitOnce(ctx context.Context, sessionToken, idempotencyKey string, body []byte) (*Confirmation, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("bookingclient: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+sessionToken)
	httpReq.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Network failure or timeout: the server may still have booked,
		// which is why the idempotency key is fixed before the first try.
		return nil, true, fmt.Errorf("bookingclient: submit: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		var confirmation Confirmation
		if err := json.NewDecoder(resp.Body).Decode(&confirmation); err != nil {
			return nil, false, fmt.Errorf("bookingclient: decode confirmation: %w", err)
		}
		confirmation.Replayed = resp.StatusCode == http.StatusOK
		return &confirmation, false, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, false, ErrUnauthorized
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, false, fmt.Errorf("%w: %s", ErrCaptchaRejected, readAPIError(resp.Body))
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("bookingclient: server error (%d): %s", resp.StatusCode, readAPIError(resp.Body))
	default:
		return nil, false, &RequestError{StatusCode: resp.StatusCode, Message: readAPIError(resp.Body)}
	}
}

// Lookup fetches a booking by phone number and booking number. Both are
// required; the server will not list appointments by phone alone.
func (c *Client) Lookup(ctx context.Context, phone, bookingNumber string) (*Appointment, error) {
	if phone == "" || bookingNumber == "" {
		return nil, ErrMissingLookupFields
	}

	q := url.Values{}
	q.Set("phone", phone)
	q.Set("booking_number", bookingNumber)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/appointments/lookup?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("bookingclient: build request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("bookingclient: lookup: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var appt Appointment
		if err := json.NewDecoder(resp.Body).Decode(&appt); err != nil {
			return nil, fmt.Errorf("bookingclient: decode appointment: %w", err)
		}
		return &appt, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		return nil, &RequestError{StatusCode: resp.StatusCode, Message: readAPIError(resp.Body)}
	default:
		return nil, fmt.Errorf("bookingclient: server error (%d): %s", resp.StatusCode, readAPIError(resp.Body))
	}
}

func readAPIError(r io.Reader) string {
	var body struct {
		Error string `json:"error"`
	}
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "unreadable response"
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return string(raw)
}

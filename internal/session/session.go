package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const phoneKey contextKey = "booking.session_phone"

// ErrInvalidToken is returned for missing, malformed or expired tokens.
var ErrInvalidToken = errors.New("invalid session token")

// Manager issues and validates HMAC-signed session tokens. A session is
// created only after OTP phone verification succeeds; the verified phone
// number is the token subject.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a session manager. An empty secret disables sessions:
// Require rejects every request so misconfiguration fails closed.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// Issue creates a session token for a verified phone number.
func (m *Manager) Issue(phone string) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, errors.New("session: signing secret not configured")
	}
	now := time.Now().UTC()
	expiresAt := now.Add(m.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   phone,
		Issuer:    "booking-platform",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session: sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse validates a token and returns the verified phone number.
func (m *Manager) Parse(tokenString string) (string, error) {
	if len(m.secret) == 0 {
		return "", ErrInvalidToken
	}
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Require gates a route behind a valid session. The verified phone is
// stored in the request context for handlers.
func (m *Manager) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		phone, err := m.Parse(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			http.Error(w, "invalid or expired session", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPhone(r.Context(), phone)))
	})
}

// WithPhone stores the verified phone number in context.
func WithPhone(ctx context.Context, phone string) context.Context {
	return context.WithValue(ctx, phoneKey, phone)
}

// PhoneFromContext extracts the verified phone number if present.
func PhoneFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(phoneKey)
	if val == nil {
		return "", false
	}
	phone, ok := val.(string)
	return phone, ok && phone != ""
}

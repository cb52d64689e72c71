package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/sehatindo/booking-platform/internal/session"
	"github.com/sehatindo/booking-platform/pkg/logging"
)

var (
	// ErrInvalidPhone is returned for phone numbers failing the light format check.
	ErrInvalidPhone = errors.New("a valid phone number is required")

	// ErrCodeMismatch is returned when the submitted code is wrong.
	ErrCodeMismatch = errors.New("verification code does not match")

	// ErrCodeExpired is returned when no live code exists for the phone.
	ErrCodeExpired = errors.New("verification code expired or not requested")

	// ErrTooManyRequests is returned when the per-phone request window is exhausted.
	ErrTooManyRequests = errors.New("too many verification requests, try again later")

	// ErrTooManyAttempts is returned when the attempt cap for a code is hit.
	ErrTooManyAttempts = errors.New("too many failed attempts, request a new code")
)

// Indonesian mobile numbers as the front-end collects them: local 08...
// or international +62 form, 9 to 14 digits total.
var phonePattern = regexp.MustCompile(`^(\+62|62|0)8\d{7,12}$`)

// SMSSender delivers the one-time code to the patient's phone.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Config tunes code lifetime and abuse limits.
type Config struct {
	CodeTTL       time.Duration
	MaxAttempts   int
	RequestWindow time.Duration
	MaxPerWindow  int
}

// DefaultConfig returns the default OTP limits.
func DefaultConfig() Config {
	return Config{
		CodeTTL:       5 * time.Minute,
		MaxAttempts:   5,
		RequestWindow: time.Hour,
		MaxPerWindow:  5,
	}
}

// Service implements OTP phone verification backing the booking login.
// Codes are stored bcrypt-hashed in Redis with a TTL; issuing a new code
// invalidates the previous one for the same phone.
type Service struct {
	redis    *redis.Client
	sms      SMSSender
	sessions *session.Manager
	config   Config
	logger   *logging.Logger
}

// NewService creates an OTP service.
func NewService(redisClient *redis.Client, sms SMSSender, sessions *session.Manager, config Config, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if config.CodeTTL <= 0 {
		config = DefaultConfig()
	}
	return &Service{
		redis:    redisClient,
		sms:      sms,
		sessions: sessions,
		config:   config,
		logger:   logger,
	}
}

func codeKey(phone string) string     { return fmt.Sprintf("otp:code:%s", phone) }
func attemptsKey(phone string) string { return fmt.Sprintf("otp:attempts:%s", phone) }
func requestKey(phone string) string  { return fmt.Sprintf("otp:requests:%s", phone) }

// NormalizePhone trims whitespace and rejects values outside the accepted
// mobile-number shapes. The stored form is exactly what the patient typed,
// matching how lookups compare phone numbers.
func NormalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if !phonePattern.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

// Request issues a code for the phone and sends it via SMS.
func (s *Service) Request(ctx context.Context, phone string) (time.Time, error) {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return time.Time{}, err
	}

	allowed, err := s.withinRequestWindow(ctx, phone)
	if err != nil {
		s.logger.Error("otp request window check failed", "error", err, "phone", phone)
		// Fail open if Redis is degraded; verification still requires the code.
		allowed = true
	}
	if !allowed {
		return time.Time{}, ErrTooManyRequests
	}

	code, err := generateCode()
	if err != nil {
		return time.Time{}, fmt.Errorf("otp: generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return time.Time{}, fmt.Errorf("otp: hash code: %w", err)
	}

	// SET overwrites any previous code, invalidating it.
	if err := s.redis.Set(ctx, codeKey(phone), string(hash), s.config.CodeTTL).Err(); err != nil {
		return time.Time{}, fmt.Errorf("otp: store code: %w", err)
	}
	s.redis.Del(ctx, attemptsKey(phone))

	body := fmt.Sprintf("Kode verifikasi booking Anda: %s. Berlaku %d menit.", code, int(s.config.CodeTTL.Minutes()))
	if err := s.sms.SendSMS(ctx, phone, body); err != nil {
		s.logger.Error("otp sms send failed", "error", err, "phone", phone)
		return time.Time{}, fmt.Errorf("otp: send sms: %w", err)
	}

	s.logger.Info("otp issued", "phone", phone)
	return time.Now().UTC().Add(s.config.CodeTTL), nil
}

// Verify checks the code and, on success, issues a session token.
func (s *Service) Verify(ctx context.Context, phone, code string) (string, time.Time, error) {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return "", time.Time{}, err
	}

	hash, err := s.redis.Get(ctx, codeKey(phone)).Result()
	if err == redis.Nil {
		return "", time.Time{}, ErrCodeExpired
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("otp: load code: %w", err)
	}

	attempts, err := s.redis.Incr(ctx, attemptsKey(phone)).Result()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("otp: count attempt: %w", err)
	}
	if attempts == 1 {
		s.redis.Expire(ctx, attemptsKey(phone), s.config.CodeTTL)
	}
	if int(attempts) > s.config.MaxAttempts {
		s.redis.Del(ctx, codeKey(phone))
		return "", time.Time{}, ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(code))) != nil {
		return "", time.Time{}, ErrCodeMismatch
	}

	// Single use: success consumes the code.
	s.redis.Del(ctx, codeKey(phone), attemptsKey(phone))

	token, expiresAt, err := s.sessions.Issue(phone)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("otp: issue session: %w", err)
	}

	s.logger.Info("otp verified, session issued", "phone", phone)
	return token, expiresAt, nil
}

// withinRequestWindow increments the rolling request counter for the phone
// and reports whether another code may be issued.
func (s *Service) withinRequestWindow(ctx context.Context, phone string) (bool, error) {
	key := requestKey(phone)
	count, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("otp: increment request window: %w", err)
	}
	if count == 1 {
		if err := s.redis.Expire(ctx, key, s.config.RequestWindow).Err(); err != nil {
			return false, fmt.Errorf("otp: set window expiry: %w", err)
		}
	}
	return int(count) <= s.config.MaxPerWindow, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

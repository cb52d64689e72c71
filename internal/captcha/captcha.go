package captcha

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mojocn/base64Captcha"

	"github.com/sehatindo/booking-platform/pkg/logging"
)

var (
	// ErrMismatch is returned when the answer does not match the token.
	ErrMismatch = errors.New("captcha answer does not match")

	// ErrExpired is returned when the challenge expired or was already used.
	ErrExpired = errors.New("captcha challenge expired or already used")
)

// Ambiguous glyphs (0/O, 1/I/L) are excluded from tokens.
const tokenSource = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Challenge is a freshly issued CAPTCHA. The token itself never leaves
// the server; clients only see the rendered image.
type Challenge struct {
	ID    string `json:"challenge_id"`
	Image string `json:"image"` // base64-encoded PNG data URI
}

// Service issues distorted-image challenges and verifies answers.
// Challenges are single-use: both success and failure consume them.
type Service struct {
	captcha *base64Captcha.Captcha
	store   base64Captcha.Store
	logger  *logging.Logger
}

// NewService creates a CAPTCHA service backed by the given store.
func NewService(store base64Captcha.Store, length int, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if length <= 0 {
		length = 6
	}
	driver := base64Captcha.NewDriverString(
		80, 240, 6,
		base64Captcha.OptionShowHollowLine|base64Captcha.OptionShowSlimeLine,
		length, tokenSource, nil, nil, nil,
	)
	return &Service{
		captcha: base64Captcha.NewCaptcha(driver.ConvertFonts(), store),
		store:   store,
		logger:  logger,
	}
}

// Generate issues a new challenge. If replaceID names a previous challenge
// it is consumed first, so an answer valid for the old token can no longer
// verify once the user requests a fresh image.
func (s *Service) Generate(ctx context.Context, replaceID string) (*Challenge, error) {
	if replaceID != "" {
		s.store.Get(replaceID, true)
	}
	id, image, _, err := s.captcha.Generate()
	if err != nil {
		return nil, fmt.Errorf("captcha: generate challenge: %w", err)
	}
	return &Challenge{ID: id, Image: image}, nil
}

// Verify checks answer against the stored token for the challenge id.
// The comparison is case-insensitive and the challenge is consumed
// regardless of the outcome, forcing a regenerate on mismatch.
func (s *Service) Verify(ctx context.Context, id, answer string) error {
	if strings.TrimSpace(id) == "" {
		return ErrExpired
	}
	token := s.store.Get(id, true)
	if token == "" {
		return ErrExpired
	}
	if !strings.EqualFold(strings.TrimSpace(answer), token) {
		return ErrMismatch
	}
	return nil
}

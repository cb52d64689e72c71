package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sehatindo/booking-platform/internal/captcha"
	"github.com/sehatindo/booking-platform/internal/observability/metrics"
	"github.com/sehatindo/booking-platform/pkg/logging"
)

var bookingTracer = otel.Tracer("booking.internal.appointments")

// CaptchaVerifier checks a challenge answer. Verification consumes the
// challenge regardless of outcome.
type CaptchaVerifier interface {
	Verify(ctx context.Context, id, answer string) error
}

// ConfirmationNotifier delivers the booking confirmation to the patient.
// Delivery failures never fail the booking.
type ConfirmationNotifier interface {
	BookingConfirmed(ctx context.Context, appt *Appointment) error
}

// Confirmation is returned to the client after a successful submission.
type Confirmation struct {
	BookingNumber string    `json:"booking_number"`
	BookingDate   time.Time `json:"booking_date"`
	Replayed      bool      `json:"-"`
}

// Service implements the appointment submission and lookup workflow.
type Service struct {
	repo             Repository
	captcha          CaptchaVerifier
	notifier         ConfirmationNotifier
	metrics          *metrics.BookingMetrics
	logger           *logging.Logger
	now              func() time.Time
	maxNumberRetries int
}

// NewService creates the booking service. notifier and m may be nil.
func NewService(repo Repository, captchaVerifier CaptchaVerifier, notifier ConfirmationNotifier, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:             repo,
		captcha:          captchaVerifier,
		notifier:         notifier,
		metrics:          m,
		logger:           logger,
		now:              time.Now,
		maxNumberRetries: 3,
	}
}

// SetMaxNumberRetries overrides how many booking number collisions Submit
// tolerates before giving up.
func (s *Service) SetMaxNumberRetries(n int) {
	if n > 0 {
		s.maxNumberRetries = n
	}
}

// Submit runs the booking pipeline: validate, verify CAPTCHA, issue a
// booking number, persist, notify. A request replaying a known idempotency
// key returns the original confirmation without touching the CAPTCHA,
// since after a timed-out attempt the client's challenge is already consumed.
func (s *Service) Submit(ctx context.Context, req *CreateAppointmentRequest) (*Confirmation, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.submit")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.ObserveSubmitLatency(time.Since(start).Seconds())
	}()

	now := s.now().UTC()
	if err := req.Validate(now); err != nil {
		s.metrics.ObserveSubmission("invalid")
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.repo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err == nil {
			span.SetAttributes(attribute.Bool("booking.replayed", true))
			s.metrics.ObserveSubmission("replayed")
			return &Confirmation{BookingNumber: existing.BookingNumber, BookingDate: existing.BookingDate, Replayed: true}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			s.metrics.ObserveSubmission("error")
			return nil, fmt.Errorf("appointments: idempotency check: %w", err)
		}
	}

	if err := s.captcha.Verify(ctx, req.CaptchaID, req.CaptchaAnswer); err != nil {
		switch {
		case errors.Is(err, captcha.ErrMismatch):
			s.metrics.ObserveCaptcha("mismatch")
		case errors.Is(err, captcha.ErrExpired):
			s.metrics.ObserveCaptcha("expired")
		}
		s.metrics.ObserveSubmission("captcha_failed")
		return nil, err
	}
	s.metrics.ObserveCaptcha("ok")

	appt := &Appointment{
		ID:              uuid.NewString(),
		PatientName:     req.PatientName,
		Address:         req.Address,
		Phone:           req.Phone,
		Email:           req.Email,
		Clinic:          req.Clinic,
		AppointmentDate: req.AppointmentDate,
		Message:         req.Message,
		Status:          StatusSubmitted,
		BookingDate:     now,
		IdempotencyKey:  req.IdempotencyKey,
	}

	if err := s.persistWithFreshNumber(ctx, appt); err != nil {
		// A concurrent attempt with the same key may have won the race;
		// replay its confirmation instead of failing.
		if errors.Is(err, ErrDuplicateKey) && req.IdempotencyKey != "" {
			if existing, gerr := s.repo.GetByIdempotencyKey(ctx, req.IdempotencyKey); gerr == nil {
				s.metrics.ObserveSubmission("replayed")
				return &Confirmation{BookingNumber: existing.BookingNumber, BookingDate: existing.BookingDate, Replayed: true}, nil
			}
		}
		s.metrics.ObserveSubmission("error")
		return nil, err
	}

	span.SetAttributes(attribute.String("booking.number", appt.BookingNumber))
	s.logger.Info("appointment booked",
		"booking_number", appt.BookingNumber,
		"clinic", appt.Clinic,
		"appointment_date", appt.AppointmentDate,
	)

	if s.notifier != nil {
		if err := s.notifier.BookingConfirmed(ctx, appt); err != nil {
			s.logger.Error("confirmation notification failed", "error", err, "booking_number", appt.BookingNumber)
		}
	}

	s.metrics.ObserveSubmission("created")
	return &Confirmation{BookingNumber: appt.BookingNumber, BookingDate: appt.BookingDate}, nil
}

func (s *Service) persistWithFreshNumber(ctx context.Context, appt *Appointment) error {
	var err error
	for attempt := 0; attempt < s.maxNumberRetries; attempt++ {
		appt.BookingNumber = GenerateBookingNumber(s.now())
		err = s.repo.Create(ctx, appt)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrBookingNumberTaken) {
			s.logger.Warn("booking number collision, regenerating", "attempt", attempt+1)
			continue
		}
		if errors.Is(err, ErrDuplicateKey) {
			return err
		}
		return fmt.Errorf("appointments: persist: %w", err)
	}
	return fmt.Errorf("appointments: booking number space exhausted after %d attempts: %w", s.maxNumberRetries, err)
}

// Lookup fetches a previously submitted appointment by exact phone +
// booking number match. Read-only, no side effects.
func (s *Service) Lookup(ctx context.Context, phone, bookingNumber string) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.lookup")
	defer span.End()

	if phone == "" || bookingNumber == "" {
		s.metrics.ObserveLookup("invalid")
		return nil, ErrMissingLookupFields
	}

	appt, err := s.repo.FindByPhoneAndNumber(ctx, phone, bookingNumber)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.metrics.ObserveLookup("not_found")
			return nil, ErrNotFound
		}
		s.metrics.ObserveLookup("error")
		return nil, fmt.Errorf("appointments: lookup: %w", err)
	}

	s.metrics.ObserveLookup("found")
	return appt, nil
}

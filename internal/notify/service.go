package notify

import (
	"context"
	"fmt"

	"github.com/sehatindo/booking-platform/internal/appointments"
	"github.com/sehatindo/booking-platform/pkg/logging"
)

// Service sends booking confirmations to patients.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service. email may be nil, in which
// case confirmations are skipped with a debug log.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// BookingConfirmed emails the patient their booking number. Failures are
// reported to the caller for logging but never abort the booking.
func (s *Service) BookingConfirmed(ctx context.Context, appt *appointments.Appointment) error {
	if s.email == nil {
		s.logger.Debug("notify: no email sender configured, skipping confirmation", "booking_number", appt.BookingNumber)
		return nil
	}

	subject := fmt.Sprintf("Booking diterima - %s", appt.BookingNumber)
	body := fmt.Sprintf(
		"Halo %s,\n\n"+
			"Permintaan booking Anda telah kami terima.\n\n"+
			"Nomor booking: %s\n"+
			"Poliklinik: %s\n"+
			"Tanggal kunjungan: %s\n\n"+
			"Simpan nomor booking ini untuk mengecek status booking Anda.\n",
		appt.PatientName, appt.BookingNumber, appt.Clinic, appt.AppointmentDate,
	)

	msg := EmailMessage{
		To:      appt.Email,
		ToName:  appt.PatientName,
		Subject: subject,
		Body:    body,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: booking confirmation: %w", err)
	}

	s.logger.Info("booking confirmation sent", "booking_number", appt.BookingNumber, "to", appt.Email)
	return nil
}

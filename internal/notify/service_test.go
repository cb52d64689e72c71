package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sehatindo/booking-platform/internal/appointments"
)

type recordingEmailSender struct {
	sent []EmailMessage
	fail error
}

func (r *recordingEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if r.fail != nil {
		return r.fail
	}
	r.sent = append(r.sent, msg)
	return nil
}

func testAppointment() *appointments.Appointment {
	return &appointments.Appointment{
		ID:              "11111111-1111-1111-1111-111111111111",
		BookingNumber:   "BKG1756600000000123",
		PatientName:     "Jane Doe",
		Phone:           "08123456789",
		Email:           "jane@x.com",
		Clinic:          "POLI KANDUNGAN",
		AppointmentDate: "2026-09-01",
		Status:          appointments.StatusSubmitted,
		BookingDate:     time.Now().UTC(),
	}
}

func TestBookingConfirmedSendsEmail(t *testing.T) {
	sender := &recordingEmailSender{}
	svc := NewService(sender, nil)

	if err := svc.BookingConfirmed(context.Background(), testAppointment()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "jane@x.com" {
		t.Fatalf("expected patient email recipient, got %s", msg.To)
	}
	if !strings.Contains(msg.Subject, "BKG1756600000000123") {
		t.Fatalf("expected booking number in subject, got %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "POLI KANDUNGAN") || !strings.Contains(msg.Body, "2026-09-01") {
		t.Fatalf("expected clinic and date in body, got %q", msg.Body)
	}
}

func TestBookingConfirmedNoSenderConfigured(t *testing.T) {
	svc := NewService(nil, nil)

	if err := svc.BookingConfirmed(context.Background(), testAppointment()); err != nil {
		t.Fatalf("nil sender must be a no-op, got %v", err)
	}
}

func TestBookingConfirmedSendFailure(t *testing.T) {
	svc := NewService(&recordingEmailSender{fail: errors.New("gateway down")}, nil)

	if err := svc.BookingConfirmed(context.Background(), testAppointment()); err == nil {
		t.Fatal("expected error to propagate for caller-side logging")
	}
}

func TestNewSendGridSenderRequiresKey(t *testing.T) {
	if sender := NewSendGridSender(SendGridConfig{}, nil); sender != nil {
		t.Fatal("expected nil sender without API key")
	}
}

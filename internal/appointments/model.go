package appointments

import (
	"regexp"
	"strings"
	"time"

	"github.com/sehatindo/booking-platform/internal/clinics"
)

// StatusSubmitted is the status every accepted appointment starts in.
// The hospital back office moves it along from there.
const StatusSubmitted = "submitted"

// DateLayout is the wire format for appointment dates.
const DateLayout = "2006-01-02"

// Appointment is a persisted appointment request. BookingNumber is assigned
// exactly once, at successful submission, and never changes.
type Appointment struct {
	ID              string    `json:"id"`
	BookingNumber   string    `json:"booking_number"`
	PatientName     string    `json:"patient_name"`
	Address         string    `json:"address"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email"`
	Clinic          string    `json:"clinic"`
	AppointmentDate string    `json:"appointment_date"`
	Message         string    `json:"message,omitempty"`
	Status          string    `json:"status"`
	BookingDate     time.Time `json:"booking_date"`
	IdempotencyKey  string    `json:"-"`
}

// CreateAppointmentRequest is the request body for submitting an appointment.
type CreateAppointmentRequest struct {
	PatientName     string `json:"patient_name"`
	Address         string `json:"address"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Clinic          string `json:"clinic"`
	AppointmentDate string `json:"appointment_date"`
	Message         string `json:"message"`
	CaptchaID       string `json:"captcha_id"`
	CaptchaAnswer   string `json:"captcha_answer"`
	IdempotencyKey  string `json:"-"`
}

var (
	phonePattern = regexp.MustCompile(`^\+?\d{8,15}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Validate checks required fields and that the appointment date is not in
// the past relative to now. Dates compare by calendar day: booking for
// today is allowed.
func (r *CreateAppointmentRequest) Validate(now time.Time) error {
	if strings.TrimSpace(r.PatientName) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(r.Address) == "" {
		return ErrMissingAddress
	}
	if !phonePattern.MatchString(strings.TrimSpace(r.Phone)) {
		return ErrInvalidPhone
	}
	if !emailPattern.MatchString(strings.TrimSpace(r.Email)) {
		return ErrInvalidEmail
	}
	if !clinics.Valid(r.Clinic) {
		return ErrUnknownClinic
	}
	date, err := r.Date()
	if err != nil {
		return ErrInvalidDate
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return ErrInvalidDate
	}
	return nil
}

// Date parses the appointment date.
func (r *CreateAppointmentRequest) Date() (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(r.AppointmentDate))
}

package appointments

import (
	"context"
	"strings"
	"sync"
)

// Repository defines the interface for appointment storage.
type Repository interface {
	// Create persists a new appointment. Returns ErrBookingNumberTaken or
	// ErrDuplicateKey on the respective uniqueness conflicts.
	Create(ctx context.Context, appt *Appointment) error

	// GetByIdempotencyKey returns the appointment created with the given
	// key, or ErrNotFound.
	GetByIdempotencyKey(ctx context.Context, key string) (*Appointment, error)

	// FindByPhoneAndNumber returns the appointment matching both fields
	// exactly, or ErrNotFound.
	FindByPhoneAndNumber(ctx context.Context, phone, bookingNumber string) (*Appointment, error)
}

// InMemoryRepository keeps appointments in memory. Used in development when
// no database is configured, and in tests.
type InMemoryRepository struct {
	mu       sync.RWMutex
	byNumber map[string]*Appointment
	byKey    map[string]*Appointment
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byNumber: make(map[string]*Appointment),
		byKey:    make(map[string]*Appointment),
	}
}

// Create stores the appointment, enforcing the same uniqueness rules the
// database schema does.
func (r *InMemoryRepository) Create(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byNumber[appt.BookingNumber]; exists {
		return ErrBookingNumberTaken
	}
	if appt.IdempotencyKey != "" {
		if _, exists := r.byKey[appt.IdempotencyKey]; exists {
			return ErrDuplicateKey
		}
	}

	stored := *appt
	r.byNumber[stored.BookingNumber] = &stored
	if stored.IdempotencyKey != "" {
		r.byKey[stored.IdempotencyKey] = &stored
	}
	return nil
}

// GetByIdempotencyKey retrieves an appointment by idempotency key.
func (r *InMemoryRepository) GetByIdempotencyKey(ctx context.Context, key string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.byKey[key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *appt
	return &copied, nil
}

// FindByPhoneAndNumber retrieves an appointment by exact phone + number match.
func (r *InMemoryRepository) FindByPhoneAndNumber(ctx context.Context, phone, bookingNumber string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.byNumber[strings.TrimSpace(bookingNumber)]
	if !ok || appt.Phone != strings.TrimSpace(phone) {
		return nil, ErrNotFound
	}
	copied := *appt
	return &copied, nil
}

// Count returns the number of stored appointments.
func (r *InMemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byNumber)
}

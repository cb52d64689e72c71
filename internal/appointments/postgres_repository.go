package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts a new row. Uniqueness conflicts map to the sentinel errors
// the service retries or replays on.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) error {
	query := `
		INSERT INTO appointments (
			id, booking_number, idempotency_key, patient_name, address,
			phone, email, clinic, appointment_date, message, status, booking_date
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`
	_, err := r.pool.Exec(ctx, query,
		appt.ID,
		appt.BookingNumber,
		appt.IdempotencyKey,
		appt.PatientName,
		appt.Address,
		appt.Phone,
		appt.Email,
		appt.Clinic,
		appt.AppointmentDate,
		appt.Message,
		appt.Status,
		appt.BookingDate,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "booking_number") {
				return ErrBookingNumberTaken
			}
			return ErrDuplicateKey
		}
		return fmt.Errorf("appointments: insert failed: %w", err)
	}
	return nil
}

// GetByIdempotencyKey fetches the appointment created with the given key.
func (r *PostgresRepository) GetByIdempotencyKey(ctx context.Context, key string) (*Appointment, error) {
	query := selectColumns + ` WHERE idempotency_key = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, key))
}

// FindByPhoneAndNumber fetches the appointment matching both fields exactly.
func (r *PostgresRepository) FindByPhoneAndNumber(ctx context.Context, phone, bookingNumber string) (*Appointment, error) {
	query := selectColumns + ` WHERE phone = $1 AND booking_number = $2`
	return r.scanOne(r.pool.QueryRow(ctx, query, strings.TrimSpace(phone), strings.TrimSpace(bookingNumber)))
}

const selectColumns = `
	SELECT id, booking_number, idempotency_key, patient_name, address,
		phone, email, clinic, appointment_date, message, status, booking_date
	FROM appointments
`

func (r *PostgresRepository) scanOne(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	var date time.Time
	if err := row.Scan(
		&appt.ID,
		&appt.BookingNumber,
		&appt.IdempotencyKey,
		&appt.PatientName,
		&appt.Address,
		&appt.Phone,
		&appt.Email,
		&appt.Clinic,
		&date,
		&appt.Message,
		&appt.Status,
		&appt.BookingDate,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	appt.AppointmentDate = date.Format(DateLayout)
	return &appt, nil
}

package appointments

import "errors"

var (
	// ErrMissingName is returned when the patient name is empty.
	ErrMissingName = errors.New("patient name is required")

	// ErrMissingAddress is returned when the address is empty.
	ErrMissingAddress = errors.New("address is required")

	// ErrInvalidPhone is returned for empty or malformed phone numbers.
	ErrInvalidPhone = errors.New("a valid phone number is required")

	// ErrInvalidEmail is returned for empty or malformed email addresses.
	ErrInvalidEmail = errors.New("a valid email address is required")

	// ErrUnknownClinic is returned when the clinic is not in the catalog.
	ErrUnknownClinic = errors.New("unknown clinic")

	// ErrInvalidDate is returned for unparseable or past appointment dates.
	ErrInvalidDate = errors.New("appointment date must be today or later")

	// ErrMissingLookupFields is returned when a lookup omits phone or booking number.
	ErrMissingLookupFields = errors.New("phone and booking number are required")

	// ErrNotFound is returned when no appointment matches a lookup.
	ErrNotFound = errors.New("appointment not found")

	// ErrBookingNumberTaken signals a booking number collision on insert.
	// The service retries with a fresh number.
	ErrBookingNumberTaken = errors.New("booking number already issued")

	// ErrDuplicateKey signals an idempotency-key conflict on insert: a
	// concurrent attempt with the same key already created the row.
	ErrDuplicateKey = errors.New("idempotency key already used")
)

// IsValidationError reports whether err is user-correctable input rejection.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrMissingName, ErrMissingAddress, ErrInvalidPhone, ErrInvalidEmail,
		ErrUnknownClinic, ErrInvalidDate, ErrMissingLookupFields,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

package appointments

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateBookingNumber mints a human-readable booking number:
// "BKG" + unix millis + 3-digit random suffix. The format is what patients
// already have printed on confirmations, so it stays. Uniqueness is not
// assumed from the timestamp; the database enforces it and the service
// regenerates on conflict.
func GenerateBookingNumber(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		// crypto/rand only fails when the platform entropy source is broken;
		// fall back to the timestamp alone rather than aborting a booking.
		return fmt.Sprintf("BKG%d000", now.UnixMilli())
	}
	return fmt.Sprintf("BKG%d%03d", now.UnixMilli(), n.Int64())
}

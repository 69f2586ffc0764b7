// Package otp generates and validates the 6-digit one-time codes used by
// the signup, password-reset, and email-change flows. The package holds
// no state and never reads the clock itself; callers pass the current
// time so expiry behaviour is deterministic under test.
package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// Validity is the hard wall-clock window a code is good for, measured
// from issuance. There is no background sweep; expiry is checked at
// verification time.
const Validity = 2 * time.Minute

// CodeLength is the number of digits in a code.
const CodeLength = 6

var (
	// ErrExpired means the code was correct once but its window closed,
	// or no code is outstanding at all.
	ErrExpired = errors.New("otp expired")
	// ErrMismatch means the submitted code does not match the stored one.
	ErrMismatch = errors.New("invalid otp")
)

// Generate returns a fresh 6-digit numeric code. Leading zeros are
// allowed: each code is drawn uniformly from [000000, 999999].
func Generate() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Validate checks a submitted code against the stored one. A nil stored
// code means nothing is outstanding (already consumed or never issued)
// and is reported as expired. Mismatch is checked before expiry so a
// stale wrong guess still reads as "invalid", not "expired".
func Validate(stored *string, issuedAt *time.Time, submitted string, now time.Time) error {
	if stored == nil || issuedAt == nil {
		return ErrExpired
	}
	if submitted != *stored {
		return ErrMismatch
	}
	if !now.Before(issuedAt.Add(Validity)) {
		return ErrExpired
	}
	return nil
}

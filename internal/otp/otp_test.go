package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := Generate()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "unexpected character %q in %q", r, code)
		}
	}
}

func TestValidate(t *testing.T) {
	code := "042913"
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("correct code inside window", func(t *testing.T) {
		err := Validate(&code, &issued, "042913", issued.Add(119*time.Second))
		assert.NoError(t, err)
	})

	t.Run("correct code after window", func(t *testing.T) {
		err := Validate(&code, &issued, "042913", issued.Add(121*time.Second))
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("exactly at the boundary", func(t *testing.T) {
		err := Validate(&code, &issued, "042913", issued.Add(Validity))
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("wrong code", func(t *testing.T) {
		err := Validate(&code, &issued, "000000", issued.Add(time.Second))
		assert.ErrorIs(t, err, ErrMismatch)
	})

	t.Run("wrong code after expiry reads as mismatch", func(t *testing.T) {
		err := Validate(&code, &issued, "000000", issued.Add(time.Hour))
		assert.ErrorIs(t, err, ErrMismatch)
	})

	t.Run("nothing outstanding", func(t *testing.T) {
		err := Validate(nil, nil, "042913", issued)
		assert.ErrorIs(t, err, ErrExpired)
	})
}

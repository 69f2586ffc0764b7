package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.Empty(t, ValidateEmail("jane@example.com"))
	assert.Empty(t, ValidateEmail("a.b+tag@sub.domain.org"))

	assert.NotEmpty(t, ValidateEmail(""))
	assert.NotEmpty(t, ValidateEmail("not-an-email"))
	assert.NotEmpty(t, ValidateEmail("missing@tld"))
	assert.NotEmpty(t, ValidateEmail("two@@example.com"))
}

func TestPasswordErrors(t *testing.T) {
	assert.Empty(t, PasswordErrors("Str0ng!Pw"))

	cases := []struct {
		name     string
		password string
	}{
		{"too short", "S1!a"},
		{"no uppercase", "weakpass1!"},
		{"no lowercase", "WEAKPASS1!"},
		{"no digit", "Weakpass!!"},
		{"no special character", "Weakpass11"},
		{"repeated characters", "Stronggg1!"},
		{"sequential digits", "Strong123!x"},
		{"sequential letters", "Strabcg19!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotEmpty(t, PasswordErrors(tc.password))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "15551234567", NormalizePhone("+1 (555) 123-4567"))
	assert.Equal(t, "9175550142", NormalizePhone("917-555-0142"))
}

func TestValidatePhone(t *testing.T) {
	cleaned, msg := ValidatePhone("+1 (555) 010-4267")
	assert.Empty(t, msg)
	assert.Equal(t, "15550104267", cleaned)

	_, msg = ValidatePhone("")
	assert.NotEmpty(t, msg)

	_, msg = ValidatePhone("12345")
	assert.NotEmpty(t, msg)

	_, msg = ValidatePhone("11111111111111111")
	assert.NotEmpty(t, msg)

	_, msg = ValidatePhone("5555555555")
	assert.NotEmpty(t, msg)

	_, msg = ValidatePhone("1234567890")
	assert.NotEmpty(t, msg)
}

func TestValidateName(t *testing.T) {
	assert.Empty(t, ValidateName("Jane"))
	assert.Empty(t, ValidateName("Mary Jane"))
	assert.Empty(t, ValidateName("O'Connor"))
	assert.Empty(t, ValidateName("Jean-Luc"))

	assert.NotEmpty(t, ValidateName("J"))
	assert.NotEmpty(t, ValidateName("Jane  Doe"))
	assert.NotEmpty(t, ValidateName("Jane123"))
	assert.NotEmpty(t, ValidateName(""))
}

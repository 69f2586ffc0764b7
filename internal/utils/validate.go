package utils

import (
	"regexp"
	"strings"
)

var (
	emailPattern   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	namePattern    = regexp.MustCompile(`^[A-Za-z]+(?: [A-Za-z]+)*(?:[-'.] ?[A-Za-z]+)*$`)
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	digitPattern   = regexp.MustCompile(`\d`)
	specialPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>_\-+=\[\]\\;/]`)
	repeatPattern  = regexp.MustCompile(`(.)\1{2,}`)
	nonDigit       = regexp.MustCompile(`[^\d]`)

	sequentialPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(012|123|234|345|456|567|678|789|890)`),
		regexp.MustCompile(`(abc|bcd|cde|def|efg|fgh|ghi|hij|ijk|jkl|klm|lmn|mno|nop|opq|pqr|qrs|rst|stu|tuv|uvw|vwx|wxy|xyz)`),
		regexp.MustCompile(`(987|876|765|654|543|432|321|210)`),
	}

	fakePhonePatterns = map[string]bool{
		"1234567890": true, "9876543210": true, "0123456789": true,
		"1111111111": true, "2222222222": true, "3333333333": true,
		"4444444444": true, "5555555555": true, "6666666666": true,
		"7777777777": true, "8888888888": true, "9999999999": true,
		"0000000000": true,
	}
)

// ValidateEmail returns an error message for a malformed address, or "".
func ValidateEmail(email string) string {
	if email == "" {
		return "Email is required."
	}
	if !emailPattern.MatchString(email) {
		return "Enter a valid email address."
	}
	return ""
}

// PasswordErrors checks password strength and returns every rule the
// candidate breaks. An empty slice means the password is acceptable.
func PasswordErrors(password string) []string {
	var errs []string

	if len(password) < 8 {
		errs = append(errs, "Password must be at least 8 characters long.")
	}
	if !upperPattern.MatchString(password) {
		errs = append(errs, "Password must include at least one uppercase letter.")
	}
	if !lowerPattern.MatchString(password) {
		errs = append(errs, "Password must include at least one lowercase letter.")
	}
	if !digitPattern.MatchString(password) {
		errs = append(errs, "Password must include at least one digit.")
	}
	if !specialPattern.MatchString(password) {
		errs = append(errs, "Password must include at least one special character.")
	}
	if repeatPattern.MatchString(password) {
		errs = append(errs, "Password cannot contain 3 or more repeated characters.")
	}
	lowered := strings.ToLower(password)
	for _, pattern := range sequentialPatterns {
		if pattern.MatchString(lowered) {
			errs = append(errs, "Password cannot contain sequential characters.")
			break
		}
	}

	return errs
}

// NormalizePhone strips every non-digit character. The normalized form is
// what gets stored and what the unique index guards.
func NormalizePhone(number string) string {
	return nonDigit.ReplaceAllString(number, "")
}

// ValidatePhone normalizes and validates a phone number. Returns the
// cleaned number and an error message ("" when valid).
func ValidatePhone(number string) (string, string) {
	if number == "" {
		return "", "Phone number is required."
	}

	cleaned := NormalizePhone(number)
	if len(cleaned) < 10 || len(cleaned) > 15 {
		return cleaned, "Phone number must be between 10 and 15 digits."
	}
	if allSameDigits(cleaned) {
		return cleaned, "Phone number cannot have all identical digits."
	}
	if fakePhonePatterns[cleaned] {
		return cleaned, "Please enter a valid phone number."
	}

	return cleaned, ""
}

func allSameDigits(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return len(s) > 0
}

// ValidateName checks a person name. Letters, single spaces, hyphens,
// apostrophes, and dots are allowed.
func ValidateName(name string) string {
	name = strings.TrimSpace(name)

	if len(name) < 2 {
		return "Name must be at least 2 characters long."
	}
	if len(name) > 50 {
		return "Name cannot exceed 50 characters."
	}
	if strings.Contains(name, "  ") {
		return "Name cannot contain multiple consecutive spaces."
	}
	if !namePattern.MatchString(name) {
		return "Name must contain only letters, spaces, hyphens, apostrophes, and dots."
	}

	return ""
}

package validation

import (
	"net/mail"
	"strings"

	"github.com/templui/hydrate/internal/apperror"
)

// NormalizeEmail lowercases and trims an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks length and RFC 5322 format.
func ValidateEmail(email string) error {
	if email == "" {
		return apperror.Validation("email_required", "email address is required")
	}
	if len(email) > 254 {
		return apperror.Validation("email_too_long", "email address is too long (max 254 characters)")
	}

	_, err := mail.ParseAddress(email)
	if err != nil {
		return apperror.Validation("email_invalid", "invalid email address format")
	}

	return nil
}

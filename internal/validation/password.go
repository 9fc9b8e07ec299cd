package validation

import (
	"strings"

	"github.com/templui/hydrate/internal/apperror"
)

var commonPatterns = []string{
	"password", "123456", "qwerty", "admin", "letmein",
	"welcome", "monkey", "dragon", "master", "sunshine",
}

// ValidatePassword enforces 8..72 bytes and rejects common patterns.
// bcrypt ignores everything past 72 bytes.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return apperror.Validation("password_too_short", "password must be at least 8 characters")
	}
	if len(password) > 72 {
		return apperror.Validation("password_too_long", "password must not exceed 72 characters")
	}

	lower := strings.ToLower(password)
	for _, pattern := range commonPatterns {
		if strings.Contains(lower, pattern) {
			return apperror.Validation("password_common", "password is too common, please choose a stronger one")
		}
	}

	return nil
}

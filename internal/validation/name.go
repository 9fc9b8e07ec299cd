package validation

import (
	"strings"

	"github.com/templui/hydrate/internal/apperror"
)

func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return apperror.Validation("name_required", "name is required")
	}
	if len(trimmed) > 100 {
		return apperror.Validation("name_too_long", "name is too long (max 100 characters)")
	}

	return nil
}

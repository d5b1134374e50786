package gated

import (
	"github.com/google/uuid"

	"github.com/medassist/gateway/pkg/apperr"
)

// RequireUUID rejects a missing or malformed row id.
func RequireUUID(field, value string) error {
	if value == "" {
		return apperr.Validation("%s is required", field)
	}
	if _, err := uuid.Parse(value); err != nil {
		return apperr.Validation("%s must be a UUID", field)
	}
	return nil
}

// OptionalUUID is RequireUUID for fields that may be omitted.
func OptionalUUID(field string, value *string) error {
	if value == nil || *value == "" {
		return nil
	}
	return RequireUUID(field, *value)
}

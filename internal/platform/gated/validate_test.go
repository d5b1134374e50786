package gated

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medassist/gateway/pkg/apperr"
)

func TestRequireUUID(t *testing.T) {
	assert.NoError(t, RequireUUID("patientId", "5f0c7a52-3d8e-4c55-9b7e-0c1f8f2f6a10"))

	err := RequireUUID("patientId", "")
	assert.True(t, apperr.IsKind(err, apperr.KindValidationFailed))
	assert.Contains(t, err.Error(), "patientId is required")

	err = RequireUUID("patientId", "pat-1")
	assert.True(t, apperr.IsKind(err, apperr.KindValidationFailed))
	assert.Contains(t, err.Error(), "must be a UUID")
}

func TestOptionalUUID(t *testing.T) {
	empty := ""
	bad := "nope"
	assert.NoError(t, OptionalUUID("hospitalId", nil))
	assert.NoError(t, OptionalUUID("hospitalId", &empty))
	assert.Error(t, OptionalUUID("hospitalId", &bad))
}

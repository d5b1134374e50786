package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	cases := map[Kind]int{
		KindUnauthenticated:  http.StatusUnauthorized,
		KindUnauthorized:     http.StatusForbidden,
		KindValidationFailed: http.StatusBadRequest,
		KindNotFound:         http.StatusNotFound,
		KindConflict:         http.StatusConflict,
		KindDownstreamFailed: http.StatusBadGateway,
		Kind("bogus"):        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, StatusOf(kind), "kind %s", kind)
	}
}

func TestAs_UnclassifiedIsDownstream(t *testing.T) {
	ae := As(errors.New("connection refused"))
	require.NotNil(t, ae)
	assert.Equal(t, KindDownstreamFailed, ae.Kind)
	assert.Nil(t, As(nil))
}

func TestAs_FindsWrapped(t *testing.T) {
	err := fmt.Errorf("emergency access: %w", NotFound("patient not found"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindConflict))
}

func TestEnvelopeOf_HidesCause(t *testing.T) {
	env := EnvelopeOf(Downstream(errors.New("pq: password authentication failed"), "row-store insert failed"))
	assert.Equal(t, "DownstreamFailed", env.Error.Code)
	assert.Equal(t, "row-store insert failed", env.Error.Message)
}

func TestError_String(t *testing.T) {
	err := Unauthenticated(ReasonMissingHeader, "missing authorization header")
	assert.Equal(t, "Unauthenticated(MISSING_HEADER): missing authorization header", err.Error())
	assert.Equal(t, http.StatusUnauthorized, err.Status())
}

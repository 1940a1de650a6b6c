package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches code through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("purchase: %w", New(CodeInsufficientFunds, "balance too low"))
		assert.True(t, HasCode(err, CodeInsufficientFunds))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("uncoded errors report internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("row locked")
	err := Wrap(cause, CodeInternal, "failed to load record")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load record: row locked", err.Error())
	assert.Equal(t, "failed to load record", Message(err))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:        http.StatusBadRequest,
		CodeForbidden:         http.StatusForbidden,
		CodeConflict:          http.StatusConflict,
		CodeNotFound:          http.StatusNotFound,
		CodeInsufficientFunds: http.StatusPaymentRequired,
		CodeRateLimited:       http.StatusTooManyRequests,
		CodeUnauthorized:      http.StatusUnauthorized,
		CodeInternal:          http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}

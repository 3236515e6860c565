package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	e := New("WLT_002", "Request was rejected in the wallet", http.StatusConflict)
	assert.Equal(t, "[WLT_002] Request was rejected in the wallet", e.Error())

	wrapped := Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, errors.New("pool closed"))
	assert.Contains(t, wrapped.Error(), "SYS_001")
	assert.Contains(t, wrapped.Error(), "pool closed")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	e := InternalError(fmt.Errorf("ping redis: %w", cause))

	assert.True(t, errors.Is(e, cause))

	var appErr *AppError
	require.True(t, errors.As(error(e), &appErr))
	assert.Equal(t, "SYS_001", appErr.Code)
}

func TestTaxonomy_StatusCodes(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
	}{
		{ErrProviderUnavailable(), http.StatusServiceUnavailable},
		{ErrUserRejected(), http.StatusConflict},
		{ErrNetworkMismatch("verity-mainnet"), http.StatusConflict},
		{ErrProviderTimeout(), http.StatusGatewayTimeout},
		{ErrUnauthenticated(), http.StatusUnauthorized},
		{ErrForbidden(), http.StatusForbidden},
		{ErrInsufficientBalance(), http.StatusPaymentRequired},
		{ErrStakeRequired(), http.StatusForbidden},
		{ErrReportNotFound(), http.StatusNotFound},
		{ErrRateLimitExceeded(), http.StatusTooManyRequests},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.HTTPStatus, tc.err.Code)
	}
}

func TestErrNetworkMismatch_NamesRequiredNetwork(t *testing.T) {
	e := ErrNetworkMismatch("verity-mainnet")
	assert.Contains(t, e.Message, "verity-mainnet")
}

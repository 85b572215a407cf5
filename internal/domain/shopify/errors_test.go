package shopify_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/niaga-platform/service-revenue-scanner/internal/domain/shopify"
)

func TestAPIErrorMessage(t *testing.T) {
	t.Parallel()

	err := shopify.NewAPIError(shopify.CodeThrottled, "Throttled", http.StatusOK)
	require.Equal(t, "shopify [THROTTLED]: Throttled", err.Error())

	err = shopify.NewAPIErrorWithRequestID(shopify.CodeInternalError, "boom", http.StatusInternalServerError, "req-1")
	require.Equal(t, "shopify [INTERNAL_SERVER_ERROR]: boom (request_id: req-1)", err.Error())
}

func TestAPIErrorIs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    *shopify.APIError
		target error
		want   bool
	}{
		{"throttled code", shopify.NewAPIError(shopify.CodeThrottled, "", 200), shopify.ErrRateLimited, true},
		{"429 status", shopify.NewAPIError(shopify.CodeHTTP, "", 429), shopify.ErrRateLimited, true},
		{"access denied", shopify.NewAPIError(shopify.CodeAccessDenied, "", 200), shopify.ErrUnauthorized, true},
		{"401 status", shopify.NewAPIError(shopify.CodeHTTP, "", 401), shopify.ErrUnauthorized, true},
		{"not found", shopify.NewAPIError(shopify.CodeNotFound, "", 200), shopify.ErrResourceNotFound, true},
		{"bad input", shopify.NewAPIError(shopify.CodeBadUserInput, "", 200), shopify.ErrInvalidRequest, true},
		{"server", shopify.NewAPIError(shopify.CodeHTTP, "", 503), shopify.ErrServiceUnavailable, true},
		{"expired token", shopify.NewAPIError(shopify.CodeUnauthenticated, "Access token Expired", 401), shopify.ErrSessionExpired, true},
		{"unauthenticated not expired", shopify.NewAPIError(shopify.CodeUnauthenticated, "Invalid token", 401), shopify.ErrSessionExpired, false},
		{"throttled not auth", shopify.NewAPIError(shopify.CodeThrottled, "", 200), shopify.ErrUnauthorized, false},
		{"unrelated target", shopify.NewAPIError(shopify.CodeThrottled, "", 200), shopify.ErrMutationNotAllowed, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wrapped := fmt.Errorf("query shop: %w", tt.err)
			require.Equal(t, tt.want, errors.Is(wrapped, tt.target))
		})
	}
}

func TestAPIErrorIsRetryable(t *testing.T) {
	t.Parallel()

	require.True(t, shopify.NewAPIError(shopify.CodeThrottled, "", 200).IsRetryable())
	require.True(t, shopify.NewAPIError(shopify.CodeInternalError, "", 200).IsRetryable())
	require.True(t, shopify.NewAPIError(shopify.CodeHTTP, "", 429).IsRetryable())
	require.True(t, shopify.NewAPIError(shopify.CodeHTTP, "", 502).IsRetryable())
	require.False(t, shopify.NewAPIError(shopify.CodeAccessDenied, "", 403).IsRetryable())
	require.False(t, shopify.NewAPIError(shopify.CodeMaxCostExceeded, "", 200).IsRetryable())
	require.False(t, shopify.NewAPIError(shopify.CodeHTTP, "", 404).IsRetryable())
}

func TestAPIErrorCategory(t *testing.T) {
	t.Parallel()

	require.Equal(t, shopify.CategoryAuthentication, shopify.NewAPIError(shopify.CodeForbidden, "", 200).Category())
	require.Equal(t, shopify.CategoryRateLimit, shopify.NewAPIError(shopify.CodeMaxCostExceeded, "", 200).Category())
	require.Equal(t, shopify.CategoryServer, shopify.NewAPIError(shopify.CodeShopInactive, "", 200).Category())
	require.Equal(t, shopify.CategoryNotFound, shopify.NewAPIError(shopify.CodeNotFound, "", 200).Category())
	require.Equal(t, shopify.CategoryValidation, shopify.NewAPIError(shopify.CodeGraphQLParseFailed, "", 200).Category())

	require.Equal(t, shopify.CategoryAuthentication, shopify.NewAPIError(shopify.CodeHTTP, "", 403).Category())
	require.Equal(t, shopify.CategoryRateLimit, shopify.NewAPIError(shopify.CodeHTTP, "", 429).Category())
	require.Equal(t, shopify.CategoryNotFound, shopify.NewAPIError(shopify.CodeHTTP, "", 404).Category())
	require.Equal(t, shopify.CategoryServer, shopify.NewAPIError(shopify.CodeHTTP, "", 500).Category())
	require.Equal(t, shopify.CategoryUnknown, shopify.NewAPIError(shopify.CodeHTTP, "", 418).Category())
}

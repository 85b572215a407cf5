package shopify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	shopifydomain "github.com/niaga-platform/service-revenue-scanner/internal/domain/shopify"
	"github.com/niaga-platform/service-revenue-scanner/internal/providers/shopify"
)

const testShop = "demo-store.myshopify.com"

type graphQLBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func fastRetry() *shopifydomain.RetryPolicy {
	return shopifydomain.DefaultRetryPolicy().
		WithInitialDelay(time.Millisecond).
		WithMaxDelay(2 * time.Millisecond).
		WithJitter(0)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*shopify.Client, *shopifydomain.RateLimiter) {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	limiter := shopifydomain.NewRateLimiter(shopifydomain.DefaultRateLimitConfig())
	client := shopify.NewClient(&shopify.ClientConfig{
		APIVersion:  "2025-01",
		Endpoint:    ts.URL,
		RetryPolicy: fastRetry(),
		RateLimiter: limiter,
		HTTPClient:  ts.Client(),
	})
	return client, limiter
}

func newTestSession(t *testing.T) *shopifydomain.Session {
	t.Helper()
	session, err := shopifydomain.NewSession(testShop, "shpua_token", time.Now().Add(time.Hour))
	require.NoError(t, err)
	return session
}

func TestClientQuery(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		received graphQLBody
	)
	client, limiter := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/admin/api/2025-01/graphql.json", r.URL.Path)
		require.Equal(t, "shpua_token", r.Header.Get("X-Shopify-Access-Token"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		mu.Lock()
		defer mu.Unlock()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {"shop": {"name": "Demo Store"}},
			"extensions": {"cost": {"throttleStatus": {"maximumAvailable": 2000, "currentlyAvailable": 1990, "restoreRate": 100}}}
		}`))
	})

	data, err := client.Query(context.Background(), newTestSession(t), `query Shop { shop { name } }`, map[string]any{"first": 1})
	require.NoError(t, err)
	require.Equal(t, "Demo Store", data.Get("shop.name").String())

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, `query Shop { shop { name } }`, received.Query)
	require.EqualValues(t, 1, received.Variables["first"])

	status := limiter.GetStatus()[testShop]
	require.InDelta(t, 1990, status.Available, 5)
	require.Equal(t, 100.0, status.RestoreRate)
}

func TestClientRejectsMutations(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := client.Query(context.Background(), newTestSession(t), `mutation { productDelete(input: {id: "1"}) { deletedProductId } }`, nil)
	require.ErrorIs(t, err, shopifydomain.ErrMutationNotAllowed)
	require.Zero(t, calls.Load())
}

func TestClientRejectsExpiredSession(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	session, err := shopifydomain.NewSession(testShop, "token", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = client.Query(context.Background(), session, `{ shop { name } }`, nil)
	require.ErrorIs(t, err, shopifydomain.ErrSessionExpired)
}

func TestClientRetriesThrottledResponses(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"errors":"Exceeded 2 calls per second for api client."}`))
		case 2:
			_, _ = w.Write([]byte(`{"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]}`))
		default:
			_, _ = w.Write([]byte(`{"data":{"shop":{"name":"Demo Store"}}}`))
		}
	})

	data, err := client.Query(context.Background(), newTestSession(t), `{ shop { name } }`, nil)
	require.NoError(t, err)
	require.Equal(t, "Demo Store", data.Get("shop.name").String())
	require.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryAccessDenied(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("X-Request-Id", "req-123")
		_, _ = w.Write([]byte(`{"errors":[{"message":"Access denied for abandonedCheckouts field.","extensions":{"code":"ACCESS_DENIED"}}]}`))
	})

	_, err := client.Query(context.Background(), newTestSession(t), `{ abandonedCheckouts(first: 1) { nodes { id } } }`, nil)
	require.ErrorIs(t, err, shopifydomain.ErrUnauthorized)

	var apiErr *shopifydomain.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, shopifydomain.CodeAccessDenied, apiErr.Code)
	require.Equal(t, "req-123", apiErr.RequestID)
	require.Equal(t, int32(1), calls.Load())
}

func TestClientHTTPErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	})

	_, err := client.Query(context.Background(), newTestSession(t), `{ shop { name } }`, nil)
	require.ErrorIs(t, err, shopifydomain.ErrServiceUnavailable)
	require.Equal(t, int32(3), calls.Load())
}

func TestClientInvalidJSON(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := client.Query(context.Background(), newTestSession(t), `{ shop { name } }`, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid JSON")
}

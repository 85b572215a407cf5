package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	shopifydomain "github.com/niaga-platform/service-revenue-scanner/internal/domain/shopify"
	"github.com/niaga-platform/service-revenue-scanner/internal/middleware"
)

const (
	testShop      = "demo-store.myshopify.com"
	testAPIKey    = "api-key"
	testAPISecret = "api-secret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubExchanger struct {
	err   error
	calls int
}

func (s *stubExchanger) Exchange(ctx context.Context, token *shopifydomain.SessionToken) (*shopifydomain.Session, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return shopifydomain.NewSession(token.Shop, "shpua_online", time.Now().Add(time.Hour))
}

func newSessionRouter(exchanger *stubExchanger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ShopifySession(shopifydomain.NewSessionTokenVerifier(testAPIKey, testAPISecret), exchanger, nil))
	r.GET("/app", func(c *gin.Context) {
		session, ok := middleware.GetSession(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"shop": session.Shop()})
	})
	return r
}

func signToken(t *testing.T) string {
	t.Helper()
	raw, err := shopifydomain.SignSessionToken(testAPIKey, testAPISecret, testShop, 7, time.Minute)
	require.NoError(t, err)
	return raw
}

func TestShopifySessionBearer(t *testing.T) {
	t.Parallel()

	exchanger := &stubExchanger{}
	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t))
	rec := httptest.NewRecorder()
	newSessionRouter(exchanger).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"shop":"demo-store.myshopify.com"}`, rec.Body.String())
	require.Equal(t, 1, exchanger.calls)
}

func TestShopifySessionQueryToken(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/app?id_token="+signToken(t), nil)
	rec := httptest.NewRecorder()
	newSessionRouter(&stubExchanger{}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestShopifySessionMissingToken(t *testing.T) {
	t.Parallel()

	exchanger := &stubExchanger{}
	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	newSessionRouter(exchanger).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"Missing session token"}`, rec.Body.String())
	require.Empty(t, rec.Header().Get("X-Shopify-Retry-Invalid-Session-Request"))
	require.Zero(t, exchanger.calls)
}

func TestShopifySessionInvalidToken(t *testing.T) {
	t.Parallel()

	exchanger := &stubExchanger{}
	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	newSessionRouter(exchanger).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-Shopify-Retry-Invalid-Session-Request"))
	require.Zero(t, exchanger.calls)
}

func TestShopifySessionExchangeFailures(t *testing.T) {
	t.Parallel()

	rejected := &stubExchanger{err: shopifydomain.NewAPIError(shopifydomain.CodeUnauthenticated, "Token is expired", http.StatusBadRequest)}
	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t))
	rec := httptest.NewRecorder()
	newSessionRouter(rejected).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-Shopify-Retry-Invalid-Session-Request"))

	down := &stubExchanger{err: errors.New("dial tcp: connection refused")}
	req = httptest.NewRequest(http.MethodGet, "/app", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t))
	rec = httptest.NewRecorder()
	newSessionRouter(down).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.JSONEq(t, `{"error":"Failed to authenticate with Shopify"}`, rec.Body.String())
}

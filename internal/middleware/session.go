package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	shopifydomain "github.com/niaga-platform/service-revenue-scanner/internal/domain/shopify"
)

const (
	sessionKey = "shopify_session"
	shopKey    = "shop"

	// retryInvalidSessionHeader tells App Bridge to fetch a new session token and retry.
	retryInvalidSessionHeader = "X-Shopify-Retry-Invalid-Session-Request"
)

// SessionTokenVerifier verifies App Bridge session tokens.
type SessionTokenVerifier interface {
	Verify(raw string) (*shopifydomain.SessionToken, error)
}

// SessionExchanger turns a verified session token into an API session.
type SessionExchanger interface {
	Exchange(ctx context.Context, token *shopifydomain.SessionToken) (*shopifydomain.Session, error)
}

// ShopifySession authenticates embedded admin requests. The session token is
// read from the Authorization bearer header, or the id_token query parameter
// on document loads.
func ShopifySession(verifier SessionTokenVerifier, exchanger SessionExchanger, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw = c.Query("id_token")
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing session token"})
			return
		}

		token, err := verifier.Verify(raw)
		if err != nil {
			logger.Debug("rejected session token", zap.Error(err))
			c.Header(retryInvalidSessionHeader, "1")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session token"})
			return
		}

		session, err := exchanger.Exchange(c.Request.Context(), token)
		if err != nil {
			logger.Warn("session token exchange failed", zap.String("shop", token.Shop), zap.Error(err))
			if errors.Is(err, shopifydomain.ErrUnauthorized) {
				c.Header(retryInvalidSessionHeader, "1")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session token rejected"})
				return
			}
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Failed to authenticate with Shopify"})
			return
		}

		c.Set(sessionKey, session)
		c.Set(shopKey, session.Shop())
		c.Next()
	}
}

// GetSession returns the session set by ShopifySession.
func GetSession(c *gin.Context) (*shopifydomain.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*shopifydomain.Session)
	return session, ok && session != nil
}

// SetSession stores a session on the context. Used by tests and tooling.
func SetSession(c *gin.Context, session *shopifydomain.Session) {
	c.Set(sessionKey, session)
	c.Set(shopKey, session.Shop())
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

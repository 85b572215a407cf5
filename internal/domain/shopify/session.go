package shopify

import (
	"errors"
	"strings"
	"time"
)

// Session validation errors.
var (
	ErrSessionShopEmpty   = errors.New("session shop domain cannot be empty")
	ErrSessionTokenEmpty  = errors.New("session access token cannot be empty")
	ErrSessionShopInvalid = errors.New("session shop domain must be a myshopify.com domain")
)

// ShopDomainSuffix is the suffix every permanent shop domain carries.
const ShopDomainSuffix = ".myshopify.com"

// Session is the authenticated, time-bounded capability to query one store.
// It is obtained from the session token exchange and never outlives the
// request it was created for.
type Session struct {
	shop        string
	accessToken string
	scope       string
	expiresAt   time.Time
	userID      int64
}

// NewSession creates a new Session value object. A zero expiresAt means the
// access token does not expire (offline tokens).
func NewSession(shop, accessToken string, expiresAt time.Time) (*Session, error) {
	shop = strings.ToLower(strings.TrimSpace(shop))
	if shop == "" {
		return nil, ErrSessionShopEmpty
	}
	if !IsShopDomain(shop) {
		return nil, ErrSessionShopInvalid
	}
	if accessToken == "" {
		return nil, ErrSessionTokenEmpty
	}

	return &Session{
		shop:        shop,
		accessToken: accessToken,
		expiresAt:   expiresAt,
	}, nil
}

// WithScope returns a copy of the session carrying the granted scopes.
func (s *Session) WithScope(scope string) *Session {
	c := *s
	c.scope = scope
	return &c
}

// WithUserID returns a copy of the session bound to the online user.
func (s *Session) WithUserID(id int64) *Session {
	c := *s
	c.userID = id
	return &c
}

// Shop returns the permanent shop domain. Safe on a nil session.
func (s *Session) Shop() string {
	if s == nil {
		return ""
	}
	return s.shop
}

// AccessToken returns the access token string.
func (s *Session) AccessToken() string {
	return s.accessToken
}

// Scope returns the granted scopes.
func (s *Session) Scope() string {
	return s.scope
}

// UserID returns the online user id, zero for offline sessions.
func (s *Session) UserID() int64 {
	return s.userID
}

// ExpiresAt returns the expiration time.
func (s *Session) ExpiresAt() time.Time {
	return s.expiresAt
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return !s.expiresAt.IsZero() && time.Now().After(s.expiresAt)
}

// Validate checks if the session is usable for a query.
func (s *Session) Validate() error {
	if s == nil || s.shop == "" {
		return ErrSessionShopEmpty
	}
	if s.accessToken == "" {
		return ErrSessionTokenEmpty
	}
	if s.IsExpired() {
		return ErrSessionExpired
	}
	return nil
}

// IsShopDomain reports whether shop is a well-formed myshopify.com domain.
func IsShopDomain(shop string) bool {
	name, ok := strings.CutSuffix(shop, ShopDomainSuffix)
	if !ok || name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return name[0] != '-'
}

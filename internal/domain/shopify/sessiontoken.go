package shopify

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionTokenLeeway tolerates clock skew between the admin and this service.
const sessionTokenLeeway = 5 * time.Second

// SessionTokenClaims are the claims App Bridge puts in an embedded app's
// session token.
type SessionTokenClaims struct {
	Dest string `json:"dest"`
	SID  string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// SessionToken is a verified session token.
type SessionToken struct {
	Raw    string
	Shop   string
	UserID int64
	Claims *SessionTokenClaims
}

// SessionTokenVerifier verifies HS256 session tokens signed with the app secret.
type SessionTokenVerifier struct {
	apiKey    string
	apiSecret string
	now       func() time.Time
}

// NewSessionTokenVerifier creates a verifier for tokens issued to apiKey.
func NewSessionTokenVerifier(apiKey, apiSecret string) *SessionTokenVerifier {
	return &SessionTokenVerifier{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		now:       time.Now,
	}
}

// Verify checks signature, audience and time claims, and that the issuer and
// destination name the same shop.
func (v *SessionTokenVerifier) Verify(raw string) (*SessionToken, error) {
	if v.apiSecret == "" {
		return nil, fmt.Errorf("%w: api secret not configured", ErrInvalidSessionToken)
	}

	claims := &SessionTokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return []byte(v.apiSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(v.apiKey),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(sessionTokenLeeway),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}

	dest, err := hostOf(claims.Dest)
	if err != nil || !IsShopDomain(dest) {
		return nil, fmt.Errorf("%w: bad dest claim", ErrInvalidSessionToken)
	}
	issuer, err := hostOf(claims.Issuer)
	if err != nil || issuer != dest {
		return nil, fmt.Errorf("%w: issuer does not match dest", ErrInvalidSessionToken)
	}

	token := &SessionToken{Raw: raw, Shop: dest, Claims: claims}
	if claims.Subject != "" {
		if id, err := strconv.ParseInt(claims.Subject, 10, 64); err == nil {
			token.UserID = id
		}
	}
	return token, nil
}

// SignSessionToken issues a token for the shop. Used by tests and local tooling.
func SignSessionToken(apiKey, apiSecret, shop string, userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionTokenClaims{
		Dest: "https://" + shop,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://" + shop + "/admin",
			Subject:   strconv.FormatInt(userID, 10),
			Audience:  jwt.ClaimStrings{apiKey},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Second)),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(apiSecret))
}

func hostOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	return u.Hostname(), nil
}

package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	shopifydomain "github.com/niaga-platform/service-revenue-scanner/internal/domain/shopify"
)

// Token exchange grant and token type identifiers.
const (
	grantTypeTokenExchange   = "urn:ietf:params:oauth:grant-type:token-exchange"
	subjectTokenTypeIDToken  = "urn:ietf:params:oauth:token-type:id_token"
	requestedTokenTypeOnline = "urn:shopify:params:oauth:token-type:online-access-token"
)

// TokenExchanger trades a verified session token for an online access
// token and wraps it in a Session.
type TokenExchanger struct {
	apiKey      string
	apiSecret   string
	endpoint    string
	httpClient  *http.Client
	retryPolicy *shopifydomain.RetryPolicy
	logger      *zap.Logger
}

// ExchangeConfig holds configuration for the token exchanger.
type ExchangeConfig struct {
	APIKey         string
	APISecret      string
	Endpoint       string
	RequestTimeout time.Duration
	RetryPolicy    *shopifydomain.RetryPolicy
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

// NewTokenExchanger creates a new token exchanger.
func NewTokenExchanger(cfg *ExchangeConfig) *TokenExchanger {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	retryPolicy := cfg.RetryPolicy
	if retryPolicy == nil {
		retryPolicy = shopifydomain.DefaultRetryPolicy()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TokenExchanger{
		apiKey:      cfg.APIKey,
		apiSecret:   cfg.APISecret,
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		httpClient:  httpClient,
		retryPolicy: retryPolicy,
		logger:      logger,
	}
}

type tokenExchangeRequest struct {
	ClientID           string `json:"client_id"`
	ClientSecret       string `json:"client_secret"`
	GrantType          string `json:"grant_type"`
	SubjectToken       string `json:"subject_token"`
	SubjectTokenType   string `json:"subject_token_type"`
	RequestedTokenType string `json:"requested_token_type"`
}

// Exchange returns a Session for the shop named in the session token.
func (e *TokenExchanger) Exchange(ctx context.Context, token *shopifydomain.SessionToken) (*shopifydomain.Session, error) {
	body, err := json.Marshal(tokenExchangeRequest{
		ClientID:           e.apiKey,
		ClientSecret:       e.apiSecret,
		GrantType:          grantTypeTokenExchange,
		SubjectToken:       token.Raw,
		SubjectTokenType:   subjectTokenTypeIDToken,
		RequestedTokenType: requestedTokenTypeOnline,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token exchange request: %w", err)
	}

	var session *shopifydomain.Session
	executor := shopifydomain.NewExecutor(e.retryPolicy)
	result := executor.Execute(ctx, func() error {
		var reqErr error
		session, reqErr = e.doExchange(ctx, token.Shop, body)
		return reqErr
	})
	if result.LastError != nil {
		e.logger.Warn("token exchange failed",
			zap.String("shop", token.Shop),
			zap.Int("attempts", result.Attempts),
			zap.Error(result.LastError),
		)
		return nil, result.LastError
	}
	return session, nil
}

func (e *TokenExchanger) doExchange(ctx context.Context, shop string, body []byte) (*shopifydomain.Session, error) {
	origin := e.endpoint
	if origin == "" {
		origin = "https://" + shop
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, origin+"/admin/oauth/access_token", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		code := shopifydomain.CodeHTTP
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusBadRequest:
			code = shopifydomain.CodeUnauthenticated
		case http.StatusTooManyRequests:
			code = shopifydomain.CodeThrottled
		}
		message := gjson.GetBytes(respBody, "error_description").String()
		if message == "" {
			message = fmt.Sprintf("HTTP error: %d", resp.StatusCode)
		}
		return nil, shopifydomain.NewAPIErrorWithRequestID(code, message, resp.StatusCode, resp.Header.Get("X-Request-Id"))
	}

	parsed := gjson.ParseBytes(respBody)
	var expiresAt time.Time
	if expiresIn := parsed.Get("expires_in").Int(); expiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}

	session, err := shopifydomain.NewSession(shop, parsed.Get("access_token").String(), expiresAt)
	if err != nil {
		return nil, fmt.Errorf("invalid token exchange response: %w", err)
	}
	return session.
		WithScope(parsed.Get("scope").String()).
		WithUserID(parsed.Get("associated_user.id").Int()), nil
}

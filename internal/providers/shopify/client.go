// Package shopify implements the read-only Shopify Admin GraphQL adapter.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	shopifydomain "github.com/niaga-platform/service-revenue-scanner/internal/domain/shopify"
)

// DefaultAPIVersion is the Admin API version used when none is configured.
const DefaultAPIVersion = "2025-01"

// Client executes read-only GraphQL documents against the Admin API of the
// shop bound to each call's session. It is safe for concurrent use.
type Client struct {
	apiVersion  string
	endpoint    string
	httpClient  *http.Client
	logger      *zap.Logger
	retryPolicy *shopifydomain.RetryPolicy
	rateLimiter *shopifydomain.RateLimiter
}

// ClientConfig holds configuration for the Shopify client.
type ClientConfig struct {
	APIVersion string
	// Endpoint overrides https://<shop> as the request origin.
	Endpoint       string
	RequestTimeout time.Duration
	Logger         *zap.Logger
	RetryPolicy    *shopifydomain.RetryPolicy
	RateLimiter    *shopifydomain.RateLimiter
	HTTPClient     *http.Client
}

// NewClient creates a new Admin GraphQL client.
func NewClient(cfg *ClientConfig) *Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	retryPolicy := cfg.RetryPolicy
	if retryPolicy == nil {
		retryPolicy = shopifydomain.DefaultRetryPolicy()
	}

	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimiter = shopifydomain.NewRateLimiter(shopifydomain.DefaultRateLimitConfig())
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiVersion:  apiVersion,
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		httpClient:  httpClient,
		logger:      logger,
		retryPolicy: retryPolicy,
		rateLimiter: rateLimiter,
	}
}

// graphQLRequest is the POST body of a GraphQL call.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Query runs a read-only GraphQL document and returns its data object.
// Documents containing a mutation or subscription operation are rejected
// before any request is made.
func (c *Client) Query(ctx context.Context, session *shopifydomain.Session, document string, variables map[string]any) (gjson.Result, error) {
	if err := session.Validate(); err != nil {
		return gjson.Result{}, err
	}
	if !IsReadOnly(document) {
		return gjson.Result{}, shopifydomain.ErrMutationNotAllowed
	}

	body, err := json.Marshal(graphQLRequest{Query: document, Variables: variables})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	var data gjson.Result
	executor := shopifydomain.NewExecutor(c.retryPolicy)
	result := executor.Execute(ctx, func() error {
		if err := c.rateLimiter.Wait(ctx, session.Shop()); err != nil {
			return err
		}
		var reqErr error
		data, reqErr = c.doRequest(ctx, session, body)
		return reqErr
	})

	if result.LastError != nil {
		c.logger.Error("Shopify API request failed after retries",
			zap.String("shop", session.Shop()),
			zap.String("operation", operationName(document)),
			zap.Int("attempts", result.Attempts),
			zap.Duration("duration", result.Duration),
			zap.Error(result.LastError),
		)
		return gjson.Result{}, result.LastError
	}
	return data, nil
}

// graphQLURL returns the Admin GraphQL endpoint of the session's shop.
func (c *Client) graphQLURL(shop string) string {
	origin := c.endpoint
	if origin == "" {
		origin = "https://" + shop
	}
	return fmt.Sprintf("%s/admin/api/%s/graphql.json", origin, c.apiVersion)
}

// doRequest performs a single HTTP request without retry.
func (c *Client) doRequest(ctx context.Context, session *shopifydomain.Session, body []byte) (gjson.Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphQLURL(session.Shop()), bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Shopify-Access-Token", session.AccessToken())

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read response: %w", err)
	}

	requestID := resp.Header.Get("X-Request-Id")
	c.logger.Debug("Shopify API request completed",
		zap.String("shop", session.Shop()),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("latency", time.Since(startTime)),
	)

	if resp.StatusCode >= 400 {
		code := shopifydomain.CodeHTTP
		if resp.StatusCode == http.StatusTooManyRequests {
			code = shopifydomain.CodeThrottled
		}
		return gjson.Result{}, shopifydomain.NewAPIErrorWithRequestID(
			code,
			fmt.Sprintf("HTTP error: %d %s", resp.StatusCode, truncateString(errorMessage(respBody), 200)),
			resp.StatusCode,
			requestID,
		).WithRetryAfter(retryAfterHeader(resp.Header.Get("Retry-After")))
	}

	if !gjson.ValidBytes(respBody) {
		return gjson.Result{}, fmt.Errorf("invalid JSON response from %s", session.Shop())
	}
	envelope := gjson.ParseBytes(respBody)

	if throttle := envelope.Get("extensions.cost.throttleStatus"); throttle.Exists() {
		c.rateLimiter.Observe(session.Shop(),
			throttle.Get("currentlyAvailable").Float(),
			throttle.Get("restoreRate").Float(),
		)
	}

	if apiErr := envelopeError(envelope, resp.StatusCode, requestID); apiErr != nil {
		if apiErr.Code == shopifydomain.CodeThrottled {
			apiErr.RetryAfter = refillWait(envelope.Get("extensions.cost"))
		}
		c.logger.Warn("Shopify API error",
			zap.String("shop", session.Shop()),
			zap.String("error_code", apiErr.Code.String()),
			zap.String("message", apiErr.Message),
			zap.String("request_id", requestID),
		)
		return gjson.Result{}, apiErr
	}

	return envelope.Get("data"), nil
}

// envelopeError converts the top-level "errors" member into an APIError.
// Only the first error is kept; the others share its cause in practice.
func envelopeError(envelope gjson.Result, statusCode int, requestID string) *shopifydomain.APIError {
	errs := envelope.Get("errors")
	switch {
	case !errs.Exists():
		return nil
	case errs.Type == gjson.String:
		return shopifydomain.NewAPIErrorWithRequestID(shopifydomain.CodeHTTP, errs.String(), statusCode, requestID)
	case errs.IsArray():
		list := errs.Array()
		if len(list) == 0 {
			return nil
		}
		first := list[0]
		code := shopifydomain.ErrorCode(first.Get("extensions.code").String())
		if code == "" {
			code = shopifydomain.CodeBadUserInput
		}
		return shopifydomain.NewAPIErrorWithRequestID(code, first.Get("message").String(), statusCode, requestID)
	default:
		return shopifydomain.NewAPIErrorWithRequestID(shopifydomain.CodeHTTP, errs.Raw, statusCode, requestID)
	}
}

// refillWait is how long the bucket needs to cover the requested query cost.
func refillWait(cost gjson.Result) time.Duration {
	requested := cost.Get("requestedQueryCost").Float()
	available := cost.Get("throttleStatus.currentlyAvailable").Float()
	rate := cost.Get("throttleStatus.restoreRate").Float()
	if requested <= available || rate <= 0 {
		return 0
	}
	return time.Duration((requested - available) / rate * float64(time.Second))
}

// retryAfterHeader parses a Retry-After value given in seconds.
func retryAfterHeader(value string) time.Duration {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

func errorMessage(body []byte) string {
	if msg := gjson.GetBytes(body, "errors"); msg.Type == gjson.String {
		return msg.String()
	}
	return string(body)
}

// truncateString truncates a string to at most maxLen bytes without
// splitting a rune.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

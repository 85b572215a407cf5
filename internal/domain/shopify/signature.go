package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Signature provides HMAC-SHA256 verification for requests signed with the
// app's API secret.
type Signature struct {
	apiSecret string
}

// NewSignature creates a new Signature utility.
func NewSignature(apiSecret string) *Signature {
	return &Signature{apiSecret: apiSecret}
}

// VerifyWebhook verifies the X-Shopify-Hmac-Sha256 header of a webhook.
// The header carries the base64 HMAC of the raw body.
func (s *Signature) VerifyWebhook(body []byte, providedSignature string) bool {
	if s.apiSecret == "" || providedSignature == "" {
		return false
	}
	expected := base64.StdEncoding.EncodeToString(s.sum(body))
	return hmac.Equal([]byte(expected), []byte(providedSignature))
}

// SignWebhook computes the header value for body. Used by tests and tooling.
func (s *Signature) SignWebhook(body []byte) string {
	return base64.StdEncoding.EncodeToString(s.sum(body))
}

// VerifyQuery verifies the hex "hmac" parameter of an admin launch URL.
// The message is every other parameter, sorted and joined as k=v with "&".
func (s *Signature) VerifyQuery(query url.Values) bool {
	provided := query.Get("hmac")
	if s.apiSecret == "" || provided == "" {
		return false
	}
	expected := hex.EncodeToString(s.sum([]byte(queryMessage(query))))
	return hmac.Equal([]byte(expected), []byte(provided))
}

// SignQuery computes the hex "hmac" parameter for query.
func (s *Signature) SignQuery(query url.Values) string {
	return hex.EncodeToString(s.sum([]byte(queryMessage(query))))
}

func (s *Signature) sum(message []byte) []byte {
	h := hmac.New(sha256.New, []byte(s.apiSecret))
	h.Write(message)
	return h.Sum(nil)
}

func queryMessage(query url.Values) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(query[k], ","))
	}
	return strings.Join(parts, "&")
}

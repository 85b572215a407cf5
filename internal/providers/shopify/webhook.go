package shopify

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	shopifydomain "github.com/niaga-platform/service-revenue-scanner/internal/domain/shopify"
)

// Webhook headers set by Shopify on every delivery.
const (
	HeaderTopic      = "X-Shopify-Topic"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
	HeaderHmac       = "X-Shopify-Hmac-Sha256"
	HeaderWebhookID  = "X-Shopify-Webhook-Id"
)

// WebhookTopic is a subscribed webhook topic.
type WebhookTopic string

// Topics this app subscribes to.
const (
	TopicAppUninstalled       WebhookTopic = "app/uninstalled"
	TopicCustomersDataRequest WebhookTopic = "customers/data_request"
	TopicCustomersRedact      WebhookTopic = "customers/redact"
	TopicShopRedact           WebhookTopic = "shop/redact"
)

// Webhook errors.
var (
	ErrUnknownTopic   = errors.New("unknown webhook topic")
	ErrMissingShop    = errors.New("webhook shop domain missing")
	ErrInvalidPayload = errors.New("webhook payload is not valid JSON")
)

// Webhook is a verified, parsed webhook delivery.
type Webhook struct {
	ID      string
	Topic   WebhookTopic
	Shop    string
	Payload gjson.Result

	// Customer fields are set for customer privacy topics only.
	CustomerID    int64
	CustomerEmail string
	OrderIDs      []int64
}

// WebhookParser verifies and parses webhook deliveries.
type WebhookParser struct {
	signature *shopifydomain.Signature
}

// NewWebhookParser creates a new parser that verifies with apiSecret.
func NewWebhookParser(apiSecret string) *WebhookParser {
	return &WebhookParser{signature: shopifydomain.NewSignature(apiSecret)}
}

// Parse verifies the HMAC header over body and decodes the delivery.
func (p *WebhookParser) Parse(header http.Header, body []byte) (*Webhook, error) {
	if !p.signature.VerifyWebhook(body, header.Get(HeaderHmac)) {
		return nil, shopifydomain.ErrInvalidSignature
	}

	topic := WebhookTopic(header.Get(HeaderTopic))
	switch topic {
	case TopicAppUninstalled, TopicCustomersDataRequest, TopicCustomersRedact, TopicShopRedact:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}

	shop := header.Get(HeaderShopDomain)
	if !shopifydomain.IsShopDomain(shop) {
		return nil, ErrMissingShop
	}

	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidPayload
	}
	payload := gjson.ParseBytes(body)

	hook := &Webhook{
		ID:      header.Get(HeaderWebhookID),
		Topic:   topic,
		Shop:    shop,
		Payload: payload,
	}
	if topic == TopicCustomersDataRequest || topic == TopicCustomersRedact {
		hook.CustomerID = payload.Get("customer.id").Int()
		hook.CustomerEmail = payload.Get("customer.email").String()
		for _, id := range payload.Get("orders_requested").Array() {
			hook.OrderIDs = append(hook.OrderIDs, id.Int())
		}
		for _, id := range payload.Get("orders_to_redact").Array() {
			hook.OrderIDs = append(hook.OrderIDs, id.Int())
		}
	}
	return hook, nil
}

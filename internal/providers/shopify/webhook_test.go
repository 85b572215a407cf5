package shopify_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	shopifydomain "github.com/niaga-platform/service-revenue-scanner/internal/domain/shopify"
	"github.com/niaga-platform/service-revenue-scanner/internal/providers/shopify"
)

const webhookSecret = "webhook-secret"

func signedHeader(topic, shop string, body []byte) http.Header {
	header := http.Header{}
	header.Set(shopify.HeaderTopic, topic)
	header.Set(shopify.HeaderShopDomain, shop)
	header.Set(shopify.HeaderWebhookID, "b54557e4-bdd9-4b37-8a5f-bf7d70bcd043")
	header.Set(shopify.HeaderHmac, shopifydomain.NewSignature(webhookSecret).SignWebhook(body))
	return header
}

func TestWebhookParseShopTopic(t *testing.T) {
	t.Parallel()

	body := []byte(`{"id":548380009,"domain":"demo-store.myshopify.com"}`)
	hook, err := shopify.NewWebhookParser(webhookSecret).Parse(signedHeader("app/uninstalled", testShop, body), body)
	require.NoError(t, err)
	require.Equal(t, shopify.TopicAppUninstalled, hook.Topic)
	require.Equal(t, testShop, hook.Shop)
	require.Equal(t, "b54557e4-bdd9-4b37-8a5f-bf7d70bcd043", hook.ID)
	require.Equal(t, int64(548380009), hook.Payload.Get("id").Int())
	require.Zero(t, hook.CustomerID)
	require.Empty(t, hook.OrderIDs)
}

func TestWebhookParseCustomerTopics(t *testing.T) {
	t.Parallel()

	parser := shopify.NewWebhookParser(webhookSecret)

	body := []byte(`{"shop_domain":"demo-store.myshopify.com","customer":{"id":207119551,"email":"aina@example.com"},"orders_requested":[299938,280263]}`)
	hook, err := parser.Parse(signedHeader("customers/data_request", testShop, body), body)
	require.NoError(t, err)
	require.Equal(t, shopify.TopicCustomersDataRequest, hook.Topic)
	require.Equal(t, int64(207119551), hook.CustomerID)
	require.Equal(t, "aina@example.com", hook.CustomerEmail)
	require.Equal(t, []int64{299938, 280263}, hook.OrderIDs)

	body = []byte(`{"customer":{"id":207119551,"email":"aina@example.com"},"orders_to_redact":[299938]}`)
	hook, err = parser.Parse(signedHeader("customers/redact", testShop, body), body)
	require.NoError(t, err)
	require.Equal(t, shopify.TopicCustomersRedact, hook.Topic)
	require.Equal(t, []int64{299938}, hook.OrderIDs)
}

func TestWebhookParseRejects(t *testing.T) {
	t.Parallel()

	parser := shopify.NewWebhookParser(webhookSecret)
	body := []byte(`{"id":1}`)

	header := signedHeader("shop/redact", testShop, body)
	header.Set(shopify.HeaderHmac, "bm90LXRoZS1zaWduYXR1cmU=")
	_, err := parser.Parse(header, body)
	require.ErrorIs(t, err, shopifydomain.ErrInvalidSignature)

	_, err = parser.Parse(signedHeader("orders/create", testShop, body), body)
	require.ErrorIs(t, err, shopify.ErrUnknownTopic)

	_, err = parser.Parse(signedHeader("shop/redact", "evil.example.com", body), body)
	require.ErrorIs(t, err, shopify.ErrMissingShop)

	broken := []byte(`{"id":`)
	_, err = parser.Parse(signedHeader("shop/redact", testShop, broken), broken)
	require.ErrorIs(t, err, shopify.ErrInvalidPayload)
}

package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	shopifydomain "github.com/niaga-platform/service-revenue-scanner/internal/domain/shopify"
	"github.com/niaga-platform/service-revenue-scanner/internal/events"
	"github.com/niaga-platform/service-revenue-scanner/internal/monitoring"
	shopifyprovider "github.com/niaga-platform/service-revenue-scanner/internal/providers/shopify"
)

const maxWebhookBody = 1 << 20

// WebhookPublisher forwards verified webhooks onto the event bus.
type WebhookPublisher interface {
	PublishShopUninstalled(event *events.ShopEvent) error
	PublishShopRedacted(event *events.ShopEvent) error
	PublishCustomerPrivacy(event *events.CustomerPrivacyEvent) error
}

// ShopRedactor removes everything stored for a shop.
type ShopRedactor interface {
	Redact(ctx context.Context, shop string) error
}

// WebhookHandler handles Shopify webhook deliveries
type WebhookHandler struct {
	parser    *shopifyprovider.WebhookParser
	publisher WebhookPublisher
	redactor  ShopRedactor
	logger    *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(parser *shopifyprovider.WebhookParser, publisher WebhookPublisher, redactor ShopRedactor, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = (*events.Publisher)(nil)
	}
	return &WebhookHandler{
		parser:    parser,
		publisher: publisher,
		redactor:  redactor,
		logger:    logger,
	}
}

// Handle verifies and dispatches a webhook delivery
// POST /webhooks/shopify
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	hook, err := h.parser.Parse(c.Request.Header, body)
	if err != nil {
		if errors.Is(err, shopifydomain.ErrInvalidSignature) {
			h.logger.Warn("webhook signature rejected", zap.String("topic", c.GetHeader(shopifyprovider.HeaderTopic)))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook signature"})
			return
		}
		h.logger.Warn("webhook rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("webhook received",
		zap.String("topic", string(hook.Topic)),
		zap.String("shop", hook.Shop),
		zap.String("webhook_id", hook.ID),
	)

	switch hook.Topic {
	case shopifyprovider.TopicAppUninstalled:
		err = h.shopEvent(c.Request.Context(), hook, h.publisher.PublishShopUninstalled)
	case shopifyprovider.TopicShopRedact:
		err = h.shopEvent(c.Request.Context(), hook, h.publisher.PublishShopRedacted)
	case shopifyprovider.TopicCustomersDataRequest, shopifyprovider.TopicCustomersRedact:
		err = h.customerEvent(hook)
	}
	if err != nil {
		h.logger.Error("Failed to process webhook",
			zap.String("topic", string(hook.Topic)),
			zap.String("shop", hook.Shop),
			zap.Error(err),
		)
		monitoring.CaptureGinError(c, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process webhook"})
		return
	}

	c.Status(http.StatusOK)
}

// shopEvent publishes a shop lifecycle event, redacting inline when the bus
// is not connected.
func (h *WebhookHandler) shopEvent(ctx context.Context, hook *shopifyprovider.Webhook, publish func(*events.ShopEvent) error) error {
	event := &events.ShopEvent{
		EventID:   uuid.New(),
		Shop:      hook.Shop,
		WebhookID: hook.ID,
		Timestamp: time.Now(),
	}
	err := publish(event)
	if err == nil {
		return nil
	}
	if !errors.Is(err, events.ErrPublisherUnavailable) {
		h.logger.Warn("Failed to publish shop event, redacting inline", zap.String("shop", hook.Shop), zap.Error(err))
	}
	if h.redactor == nil {
		return err
	}
	return h.redactor.Redact(ctx, hook.Shop)
}

// customerEvent forwards a customer privacy request. Scans keep no customer
// data, so an unconnected bus only needs a log line.
func (h *WebhookHandler) customerEvent(hook *shopifyprovider.Webhook) error {
	event := &events.CustomerPrivacyEvent{
		EventID:    uuid.New(),
		Shop:       hook.Shop,
		Topic:      string(hook.Topic),
		CustomerID: hook.CustomerID,
		Email:      hook.CustomerEmail,
		OrderIDs:   hook.OrderIDs,
		Timestamp:  time.Now(),
	}
	if err := h.publisher.PublishCustomerPrivacy(event); err != nil {
		if errors.Is(err, events.ErrPublisherUnavailable) {
			h.logger.Info("customer privacy request acknowledged",
				zap.String("shop", hook.Shop),
				zap.String("topic", string(hook.Topic)),
				zap.Int64("customer_id", hook.CustomerID),
			)
			return nil
		}
		return err
	}
	return nil
}

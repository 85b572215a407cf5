package events

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ErrPublisherUnavailable is returned when NATS is not configured.
var ErrPublisherUnavailable = errors.New("event publisher not configured")

// Publisher handles publishing events to NATS. A nil *Publisher is valid and
// reports ErrPublisherUnavailable on every publish.
type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// NewPublisher creates a new NATS publisher
func NewPublisher(nc *nats.Conn, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{nc: nc, logger: logger}
}

// PublishScanCompleted publishes a scan completed event
func (p *Publisher) PublishScanCompleted(event *ScanCompletedEvent) error {
	return p.publish(SubjectScanCompleted, event)
}

// PublishReminderRequested publishes a cart reminder request
func (p *Publisher) PublishReminderRequested(event *ReminderRequestedEvent) error {
	return p.publish(SubjectReminderRequested, event)
}

// PublishDiscountRequested publishes a discount creation request
func (p *Publisher) PublishDiscountRequested(event *DiscountRequestedEvent) error {
	return p.publish(SubjectDiscountRequested, event)
}

// PublishShopUninstalled publishes an app uninstall
func (p *Publisher) PublishShopUninstalled(event *ShopEvent) error {
	return p.publish(SubjectShopUninstalled, event)
}

// PublishShopRedacted publishes a shop data redaction request
func (p *Publisher) PublishShopRedacted(event *ShopEvent) error {
	return p.publish(SubjectShopRedacted, event)
}

// PublishCustomerPrivacy publishes a customer data request or redaction
func (p *Publisher) PublishCustomerPrivacy(event *CustomerPrivacyEvent) error {
	return p.publish(SubjectCustomerPrivacyRequested, event)
}

func (p *Publisher) publish(subject string, event any) error {
	if p == nil || p.nc == nil {
		return ErrPublisherUnavailable
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", subject, err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

package events

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subscriber handles NATS event subscriptions
type Subscriber struct {
	nc      *nats.Conn
	logger  *zap.Logger
	handler EventHandler
	subs    []*nats.Subscription
}

// EventHandler defines the interface for handling shop lifecycle events
type EventHandler interface {
	HandleShopUninstalled(event *ShopEvent) error
	HandleShopRedacted(event *ShopEvent) error
}

// NewSubscriber creates a new NATS subscriber
func NewSubscriber(nc *nats.Conn, handler EventHandler, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{
		nc:      nc,
		logger:  logger,
		handler: handler,
		subs:    make([]*nats.Subscription, 0),
	}
}

// Start subscribes to all relevant events
func (s *Subscriber) Start() error {
	sub, err := s.nc.Subscribe(SubjectShopUninstalled, s.handleShopUninstalled)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	s.logger.Info("Subscribed to event", zap.String("subject", SubjectShopUninstalled))

	sub, err = s.nc.Subscribe(SubjectShopRedacted, s.handleShopRedacted)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	s.logger.Info("Subscribed to event", zap.String("subject", SubjectShopRedacted))

	return nil
}

// Stop unsubscribes from all events
func (s *Subscriber) Stop() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.logger.Info("NATS subscriber stopped")
}

func (s *Subscriber) handleShopUninstalled(msg *nats.Msg) {
	var event ShopEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.Error("Failed to unmarshal shop uninstalled event", zap.Error(err))
		return
	}

	s.logger.Info("Received shop uninstalled event", zap.String("shop", event.Shop))

	if err := s.handler.HandleShopUninstalled(&event); err != nil {
		s.logger.Error("Failed to handle shop uninstalled event",
			zap.String("shop", event.Shop),
			zap.Error(err),
		)
	}
}

func (s *Subscriber) handleShopRedacted(msg *nats.Msg) {
	var event ShopEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.Error("Failed to unmarshal shop redacted event", zap.Error(err))
		return
	}

	s.logger.Info("Received shop redacted event", zap.String("shop", event.Shop))

	if err := s.handler.HandleShopRedacted(&event); err != nil {
		s.logger.Error("Failed to handle shop redacted event",
			zap.String("shop", event.Shop),
			zap.Error(err),
		)
	}
}

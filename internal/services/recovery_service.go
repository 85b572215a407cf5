package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-revenue-scanner/internal/events"
)

// Recovery action errors.
var (
	ErrCartIDRequired   = errors.New("cart id is required")
	ErrEmailRequired    = errors.New("customer email is required")
	ErrInvalidDiscount  = errors.New("discount must be between 1 and 100 percent")
	ErrReminderCooldown = errors.New("a reminder was already sent for this cart")
)

// DefaultDiscountPercent is used when the request does not name a value.
const DefaultDiscountPercent = 15

// EventPublisher publishes recovery requests to downstream services.
type EventPublisher interface {
	PublishReminderRequested(event *events.ReminderRequestedEvent) error
	PublishDiscountRequested(event *events.DiscountRequestedEvent) error
}

// RecoveryServiceConfig holds recovery action settings.
type RecoveryServiceConfig struct {
	ReminderCooldown time.Duration
	DiscountTTL      time.Duration
	DiscountPrefix   string
}

// RecoveryService handles the abandoned cart actions offered next to a scan.
// It never touches the store directly: reminders and discounts are requested
// from the notification and promotions services over NATS.
type RecoveryService struct {
	ledger    *RecoveryLedger
	publisher EventPublisher
	config    RecoveryServiceConfig
	now       func() time.Time
	logger    *zap.Logger
}

// NewRecoveryService creates a new recovery service.
func NewRecoveryService(ledger *RecoveryLedger, publisher EventPublisher, cfg *RecoveryServiceConfig, logger *zap.Logger) *RecoveryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ledger == nil {
		ledger = NewRecoveryLedger(nil, logger)
	}
	if publisher == nil {
		publisher = (*events.Publisher)(nil)
	}

	config := RecoveryServiceConfig{
		ReminderCooldown: 24 * time.Hour,
		DiscountTTL:      7 * 24 * time.Hour,
		DiscountPrefix:   "COMEBACK",
	}
	if cfg != nil {
		if cfg.ReminderCooldown > 0 {
			config.ReminderCooldown = cfg.ReminderCooldown
		}
		if cfg.DiscountTTL > 0 {
			config.DiscountTTL = cfg.DiscountTTL
		}
		if cfg.DiscountPrefix != "" {
			config.DiscountPrefix = strings.ToUpper(cfg.DiscountPrefix)
		}
	}

	return &RecoveryService{
		ledger:    ledger,
		publisher: publisher,
		config:    config,
		now:       time.Now,
		logger:    logger,
	}
}

// ReminderRequest is the send_reminder action input.
type ReminderRequest struct {
	CartID string  `form:"cartId" json:"cartId"`
	Email  string  `form:"email" json:"email"`
	Name   string  `form:"name" json:"name"`
	Total  float64 `form:"total" json:"total"`
}

// ReminderResult is the send_reminder action output.
type ReminderResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	SentTo        string `json:"sentTo"`
	CartID        string `json:"cartId"`
	DiscountCode  string `json:"discountCode,omitempty"`
	DiscountValue string `json:"discountValue,omitempty"`
}

// DiscountRequest is the generate_discount action input.
type DiscountRequest struct {
	CartID   string `form:"cartId" json:"cartId"`
	Discount int    `form:"discount" json:"discount"`
}

// DiscountResult is the generate_discount action output.
type DiscountResult struct {
	Success       bool      `json:"success"`
	Message       string    `json:"message,omitempty"`
	CartID        string    `json:"cartId"`
	DiscountCode  string    `json:"discountCode"`
	DiscountValue string    `json:"discountValue"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// SendReminder requests a reminder email for an abandoned cart. A cart can be
// reminded once per cooldown period; an issued discount for the cart is
// attached to the reminder.
func (s *RecoveryService) SendReminder(ctx context.Context, shop string, req ReminderRequest) (*ReminderResult, error) {
	req.CartID = strings.TrimSpace(req.CartID)
	req.Email = strings.TrimSpace(req.Email)
	if req.CartID == "" {
		return nil, ErrCartIDRequired
	}
	if req.Email == "" {
		return nil, ErrEmailRequired
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Customer"
	}

	claimed, err := s.ledger.ClaimReminder(ctx, shop, req.CartID, s.config.ReminderCooldown)
	if err != nil {
		return nil, fmt.Errorf("failed to check reminder ledger: %w", err)
	}
	if !claimed {
		return nil, ErrReminderCooldown
	}

	err = s.publisher.PublishReminderRequested(&events.ReminderRequestedEvent{
		EventID:      uuid.New(),
		Shop:         shop,
		CartID:       req.CartID,
		Email:        req.Email,
		CustomerName: name,
		CartTotal:    req.Total,
		Timestamp:    s.now().UTC(),
	})
	if err != nil {
		s.ledger.ReleaseReminder(ctx, shop, req.CartID)
		return nil, fmt.Errorf("failed to request reminder: %w", err)
	}

	result := &ReminderResult{
		Success: true,
		Message: fmt.Sprintf("Reminder sent to %s", name),
		SentTo:  req.Email,
		CartID:  req.CartID,
	}
	if discount, err := s.ledger.GetDiscount(ctx, shop, req.CartID); err == nil && discount != nil {
		result.DiscountCode = discount.Code
		result.DiscountValue = fmt.Sprintf("%d%%", discount.Percent)
	}

	s.logger.Info("cart reminder requested",
		zap.String("shop", shop),
		zap.String("cart_id", req.CartID),
	)
	return result, nil
}

// GenerateDiscount requests a single-use percentage discount for a cart.
// Asking again for the same cart and value returns the code already issued.
func (s *RecoveryService) GenerateDiscount(ctx context.Context, shop string, req DiscountRequest) (*DiscountResult, error) {
	req.CartID = strings.TrimSpace(req.CartID)
	if req.CartID == "" {
		return nil, ErrCartIDRequired
	}
	if req.Discount == 0 {
		req.Discount = DefaultDiscountPercent
	}
	if req.Discount < 1 || req.Discount > 100 {
		return nil, ErrInvalidDiscount
	}

	existing, err := s.ledger.GetDiscount(ctx, shop, req.CartID)
	if err != nil {
		return nil, fmt.Errorf("failed to check discount ledger: %w", err)
	}
	if existing != nil && existing.Percent == req.Discount {
		return discountResult(req.CartID, existing), nil
	}

	now := s.now().UTC()
	issued := &IssuedDiscount{
		Code:      s.discountCode(req.Discount),
		Percent:   req.Discount,
		ExpiresAt: now.Add(s.config.DiscountTTL),
		IssuedAt:  now,
	}

	err = s.publisher.PublishDiscountRequested(&events.DiscountRequestedEvent{
		EventID:       uuid.New(),
		Shop:          shop,
		CartID:        req.CartID,
		DiscountCode:  issued.Code,
		DiscountValue: issued.Percent,
		ExpiresAt:     issued.ExpiresAt,
		Timestamp:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request discount: %w", err)
	}

	if err := s.ledger.SaveDiscount(ctx, shop, req.CartID, issued); err != nil {
		s.logger.Warn("discount requested but not recorded",
			zap.String("shop", shop),
			zap.String("cart_id", req.CartID),
			zap.Error(err),
		)
	}

	s.logger.Info("cart discount requested",
		zap.String("shop", shop),
		zap.String("cart_id", req.CartID),
		zap.Int("percent", issued.Percent),
	)
	return discountResult(req.CartID, issued), nil
}

// discountCode builds PREFIX<percent>-<6 random hex chars>.
func (s *RecoveryService) discountCode(percent int) string {
	entropy := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("%s%d-%s", s.config.DiscountPrefix, percent, entropy)
}

func discountResult(cartID string, d *IssuedDiscount) *DiscountResult {
	return &DiscountResult{
		Success:       true,
		CartID:        cartID,
		DiscountCode:  d.Code,
		DiscountValue: fmt.Sprintf("%d%%", d.Percent),
		ExpiresAt:     d.ExpiresAt,
	}
}

// Redact removes everything recorded for a shop.
func (s *RecoveryService) Redact(ctx context.Context, shop string) error {
	removed, err := s.ledger.RedactShop(ctx, shop)
	if err != nil {
		return fmt.Errorf("failed to redact shop %s: %w", shop, err)
	}
	s.logger.Info("shop data redacted", zap.String("shop", shop), zap.Int("entries", removed))
	return nil
}

// HandleShopUninstalled implements events.EventHandler.
func (s *RecoveryService) HandleShopUninstalled(event *events.ShopEvent) error {
	return s.Redact(context.Background(), event.Shop)
}

// HandleShopRedacted implements events.EventHandler.
func (s *RecoveryService) HandleShopRedacted(event *events.ShopEvent) error {
	return s.Redact(context.Background(), event.Shop)
}

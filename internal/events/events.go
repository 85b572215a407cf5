package events

import (
	"time"

	"github.com/google/uuid"
)

// Event subjects
const (
	SubjectScanCompleted            = "revenue-scanner.scan.completed"
	SubjectReminderRequested        = "revenue-scanner.recovery.reminder.requested"
	SubjectDiscountRequested        = "revenue-scanner.recovery.discount.requested"
	SubjectShopUninstalled          = "revenue-scanner.shop.uninstalled"
	SubjectShopRedacted             = "revenue-scanner.shop.redacted"
	SubjectCustomerPrivacyRequested = "revenue-scanner.customer.privacy.requested"
)

// ScanCompletedEvent summarizes one finished scan
type ScanCompletedEvent struct {
	EventID              uuid.UUID `json:"event_id"`
	Shop                 string    `json:"shop"`
	Scanned              bool      `json:"scanned"`
	Score                int       `json:"score"`
	Grade                string    `json:"grade"`
	EstimatedMonthlyLoss int64     `json:"estimated_monthly_loss"`
	AbandonedCheckouts   int       `json:"abandoned_checkouts"`
	PotentialRevenue     int64     `json:"potential_revenue"`
	Timestamp            time.Time `json:"timestamp"`
}

// ReminderRequestedEvent asks the notification service to email a cart reminder
type ReminderRequestedEvent struct {
	EventID      uuid.UUID `json:"event_id"`
	Shop         string    `json:"shop"`
	CartID       string    `json:"cart_id"`
	Email        string    `json:"email"`
	CustomerName string    `json:"customer_name,omitempty"`
	CartTotal    float64   `json:"cart_total"`
	Timestamp    time.Time `json:"timestamp"`
}

// DiscountRequestedEvent asks the promotions service to create a discount code
type DiscountRequestedEvent struct {
	EventID       uuid.UUID `json:"event_id"`
	Shop          string    `json:"shop"`
	CartID        string    `json:"cart_id"`
	DiscountCode  string    `json:"discount_code"`
	DiscountValue int       `json:"discount_value"` // percentage
	ExpiresAt     time.Time `json:"expires_at"`
	Timestamp     time.Time `json:"timestamp"`
}

// ShopEvent carries a shop lifecycle change (uninstall, redact)
type ShopEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	Shop      string    `json:"shop"`
	WebhookID string    `json:"webhook_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CustomerPrivacyEvent forwards a customer data request or redaction
type CustomerPrivacyEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Shop       string    `json:"shop"`
	Topic      string    `json:"topic"`
	CustomerID int64     `json:"customer_id"`
	Email      string    `json:"email,omitempty"`
	OrderIDs   []int64   `json:"order_ids,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

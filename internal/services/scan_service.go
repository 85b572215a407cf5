package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	shopifydomain "github.com/niaga-platform/service-revenue-scanner/internal/domain/shopify"
	"github.com/niaga-platform/service-revenue-scanner/internal/events"
	"github.com/niaga-platform/service-revenue-scanner/internal/scanner"
)

// Scanner runs one store scan.
type Scanner interface {
	Scan(ctx context.Context, session *shopifydomain.Session) scanner.ScanResult
}

// ScanPublisher announces finished scans.
type ScanPublisher interface {
	PublishScanCompleted(event *events.ScanCompletedEvent) error
}

// ScanService runs scans and announces their summary.
type ScanService struct {
	scanner   Scanner
	publisher ScanPublisher
	logger    *zap.Logger
}

// NewScanService creates a new scan service. publisher may be nil.
func NewScanService(s Scanner, publisher ScanPublisher, logger *zap.Logger) *ScanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = (*events.Publisher)(nil)
	}
	return &ScanService{
		scanner:   s,
		publisher: publisher,
		logger:    logger,
	}
}

// Scan runs a fresh scan. Every call queries the store again; nothing is cached.
func (s *ScanService) Scan(ctx context.Context, session *shopifydomain.Session) scanner.ScanResult {
	result := s.scanner.Scan(ctx, session)

	err := s.publisher.PublishScanCompleted(&events.ScanCompletedEvent{
		EventID:              uuid.New(),
		Shop:                 session.Shop(),
		Scanned:              result.Scanned,
		Score:                result.Metrics.Score,
		Grade:                result.Metrics.Grade,
		EstimatedMonthlyLoss: result.Metrics.EstimatedMonthlyLoss,
		AbandonedCheckouts:   result.Metrics.CartAnalytics.AbandonedCarts,
		PotentialRevenue:     result.Metrics.CartAnalytics.PotentialRevenue,
		Timestamp:            time.Now().UTC(),
	})
	if err != nil && !errors.Is(err, events.ErrPublisherUnavailable) {
		s.logger.Warn("failed to publish scan completed event",
			zap.String("shop", session.Shop()),
			zap.Error(err),
		)
	}
	return result
}

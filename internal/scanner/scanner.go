// Package scanner computes the revenue leak report for a single store.
package scanner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	shopifydomain "github.com/niaga-platform/service-revenue-scanner/internal/domain/shopify"
	"github.com/niaga-platform/service-revenue-scanner/internal/monitoring"
)

// scanDateLayout matches ISO-8601 with millisecond precision in UTC.
const scanDateLayout = "2006-01-02T15:04:05.000Z07:00"

// Config holds scanner settings.
type Config struct {
	// OrderLookbackDays bounds the processed_at filter of the orders query.
	OrderLookbackDays int
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Scanner runs one best-effort aggregation pass per invocation. It holds no
// per-scan state and is safe for concurrent use.
type Scanner struct {
	store        Store
	lookbackDays int
	now          func() time.Time
	logger       *zap.Logger
}

// NewScanner creates a new scanner over the given store.
func NewScanner(store Store, cfg *Config, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scanner{
		store:        store,
		lookbackDays: 365,
		now:          time.Now,
		logger:       logger,
	}
	if cfg != nil {
		if cfg.OrderLookbackDays > 0 {
			s.lookbackDays = cfg.OrderLookbackDays
		}
		if cfg.Clock != nil {
			s.now = cfg.Clock
		}
	}
	return s
}

// fetched holds the raw query results of one scan. Optional sections carry
// their own error so a fault leaves only that section at its default.
type fetched struct {
	shop     *Shop
	products []Product
	orders   []Order

	checkouts    []AbandonedCheckout
	checkoutsErr error
	themes       []Theme
	themesErr    error
	apps         []App
	appsErr      error
	pages        []Page
	pagesErr     error
	files        []ThemeFile
	filesErr     error
}

// Scan fetches store data for the session and builds a fresh ScanResult.
// Failures of the shop, product or order queries yield a failed result with
// every section at its default; failures of the other queries only leave
// their own section at its default.
func (s *Scanner) Scan(ctx context.Context, session *shopifydomain.Session) (result ScanResult) {
	now := s.now()
	scanDate := now.UTC().Format(scanDateLayout)
	shop := session.Shop()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("scan aggregation panicked: %v", r)
			s.logger.Error("scan failed", zap.String("shop", shop), zap.Error(err))
			monitoring.CaptureError(ctx, err)
			result = FailedScanResult(scanDate)
		}
	}()

	s.logger.Info("starting revenue leak scan", zap.String("shop", shop))

	data, err := s.fetch(ctx, session, now)
	if err != nil {
		s.logger.Error("scan failed", zap.String("shop", shop), zap.Error(err))
		monitoring.CaptureError(ctx, err)
		return FailedScanResult(scanDate)
	}

	result = assemble(data, now, scanDate)

	s.logger.Info("scan completed",
		zap.String("shop", shop),
		zap.Int("score", result.Metrics.Score),
		zap.String("grade", result.Metrics.Grade),
		zap.Int("abandoned_checkouts", result.Metrics.CartAnalytics.AbandonedCarts),
		zap.Int64("potential_revenue", result.Metrics.CartAnalytics.PotentialRevenue),
	)
	return result
}

func (s *Scanner) fetch(ctx context.Context, session *shopifydomain.Session, now time.Time) (*fetched, error) {
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}

	data := &fetched{}
	var err error

	data.shop, err = s.store.FetchShop(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shop: %w", err)
	}

	data.products, err = s.store.FetchProducts(ctx, session, ProductLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	data.orders, err = s.store.FetchOrders(ctx, session, OrderQuery{
		Limit: OrderLimit,
		Since: now.AddDate(0, 0, -s.lookbackDays),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}

	// The group only joins: optional sections write disjoint fields, record
	// their own error and never fail it.
	group := new(errgroup.Group)
	s.goOptional(ctx, group, session, "abandoned checkouts", &data.checkoutsErr, func() (err error) {
		data.checkouts, err = s.store.FetchAbandonedCheckouts(ctx, session, CheckoutLimit)
		return err
	})
	s.goOptional(ctx, group, session, "themes", &data.themesErr, func() (err error) {
		data.themes, err = s.store.FetchThemes(ctx, session, ThemeLimit)
		return err
	})
	s.goOptional(ctx, group, session, "installed apps", &data.appsErr, func() (err error) {
		data.apps, err = s.store.FetchInstalledApps(ctx, session, AppLimit)
		return err
	})
	s.goOptional(ctx, group, session, "pages", &data.pagesErr, func() (err error) {
		data.pages, err = s.store.FetchPages(ctx, session, PageLimit)
		return err
	})
	s.goOptional(ctx, group, session, "theme files", &data.filesErr, func() (err error) {
		data.files, err = s.store.FetchThemeFiles(ctx, session, ThemeFilePatterns)
		return err
	})
	_ = group.Wait()

	return data, nil
}

// goOptional runs one optional fetch on the group. A panic is converted into
// the section's error so only that section falls back to its default.
func (s *Scanner) goOptional(ctx context.Context, group *errgroup.Group, session *shopifydomain.Session, section string, errp *error, fetch func() error) {
	group.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				*errp = fmt.Errorf("%s fetch panicked: %v", section, r)
				monitoring.CaptureError(ctx, *errp)
			}
			s.warnOptional(session, section, *errp)
		}()
		*errp = fetch()
		return nil
	})
}

func (s *Scanner) warnOptional(session *shopifydomain.Session, section string, err error) {
	if err == nil {
		return
	}
	s.logger.Warn("optional scan section unavailable",
		zap.String("shop", session.Shop()),
		zap.String("section", section),
		zap.Error(err),
	)
}

// assemble runs every pure stage over the fetched data and merges their
// partial records into one result.
func assemble(data *fetched, now time.Time, scanDate string) ScanResult {
	result := NewScanResult(scanDate)

	shopDomain := ""
	if data.shop != nil {
		result.Metrics.ShopName = data.shop.Name
		result.Metrics.Plan = data.shop.Plan
		if result.Metrics.Plan == "" {
			result.Metrics.Plan = "Basic Shopify"
		}
		shopDomain = data.shop.Domain
	}

	products := ClassifyProducts(data.products)
	result.Metrics.TotalProducts = products.Total
	result.Metrics.TotalProductsWithImages = products.WithImages
	result.Metrics.TotalProductsWithoutImages = products.WithoutImages
	result.Metrics.TotalProductsWithDescription = products.WithDescription
	result.Metrics.TotalProductsWithoutDescription = products.WithoutDescription

	revenue := AggregateOrders(data.orders, now)
	result.Metrics.TotalOrders = revenue.TotalOrders
	result.Metrics.TotalRevenue = revenue.TotalRevenue
	result.Metrics.CheckoutFunnel.AverageOrderValue = revenue.AverageOrderValue
	result.TrafficConversionIssues = UnsoldProducts(data.products, revenue.Purchases, shopDomain)

	var abandonmentRate float64
	if data.checkoutsErr == nil {
		checkouts := AggregateCheckouts(data.checkouts, revenue.TotalOrders, revenue.AverageOrderValue, now)
		abandonmentRate = checkouts.AbandonmentRate
		result.Metrics.TotalAbandonedCheckouts = checkouts.Abandoned
		result.Metrics.CheckoutFunnel = checkouts.Funnel
		result.Metrics.CartAnalytics = checkouts.Cart
		result.CheckoutAbandonmentIssues = checkouts.Issues
	}

	if data.themesErr == nil {
		result.UxSpeedSignals = DetectTheme(data.themes)
	}
	if data.appsErr == nil {
		result.UxSpeedSignals = DetectApps(result.UxSpeedSignals, data.apps)
	}

	if data.pagesErr == nil {
		result.TrustGapIssues = DetectTrustGaps(data.pages)
	}

	if data.filesErr == nil {
		result.TrackingHealthIssues = DetectTracking(data.files)
	} else {
		result.TrackingHealthIssues = UnverifiedTracking()
	}

	rating := Score(ScoreInput{
		ProductsWithoutImages:      products.WithoutImages,
		ProductsWithoutDescription: products.WithoutDescription,
		TrustGaps:                  result.TrustGapIssues,
		AbandonmentRate:            abandonmentRate,
		Tracking:                   result.TrackingHealthIssues,
		ThemeName:                  result.UxSpeedSignals.Theme,
		TotalRevenue:               result.Metrics.TotalRevenue,
	})
	result.Metrics.Score = rating.Score
	result.Metrics.Grade = rating.Grade
	result.Metrics.EstimatedMonthlyLoss = rating.EstimatedMonthlyLoss

	result.TopIssues = RankIssues(RankInput{
		AbandonmentRate:            abandonmentRate,
		AbandonmentRateLabel:       result.Metrics.CartAnalytics.AbandonmentRate,
		PotentialRevenue:           result.Metrics.CartAnalytics.PotentialRevenue,
		RecentAbandonedCarts:       result.Metrics.CartAnalytics.RecentAbandonedCarts,
		ProductsWithoutImages:      products.WithoutImages,
		ProductsWithoutDescription: products.WithoutDescription,
		TrustGaps:                  result.TrustGapIssues,
	})

	return result
}

package scanner

import (
	"context"
	"time"

	shopifydomain "github.com/niaga-platform/service-revenue-scanner/internal/domain/shopify"
)

// Query caps applied to every scan.
const (
	ProductLimit   = 250
	OrderLimit     = 100
	CheckoutLimit  = 100
	ThemeLimit     = 10
	AppLimit       = 50
	PageLimit      = 50
	LineItemLimit  = 50
	ThemeFileLimit = 250
)

// ThemeFilePatterns restricts the theme files scanned for tracking markers.
var ThemeFilePatterns = []string{"layout/theme.liquid", "snippets/*.liquid"}

// Shop is the store identity.
type Shop struct {
	Name   string
	Plan   string
	Domain string
}

// Product is one catalog product as returned by the Admin API.
type Product struct {
	ID               string
	Title            string
	Handle           string
	Description      string
	FeaturedImageURL string
	ImageCount       int
	OnlineStoreURL   string
}

// Order is one paid order.
type Order struct {
	ID          string
	Total       float64
	ProcessedAt time.Time
	LineItems   []OrderLineItem
}

// OrderLineItem is a purchased line. ProductID is empty for deleted or custom items.
type OrderLineItem struct {
	ProductID    string
	ProductTitle string
	Quantity     int
	Total        float64
}

// AbandonedCheckout is one checkout session. AbandonedAtRaw keeps the
// platform timestamp untouched for display.
type AbandonedCheckout struct {
	ID             string
	AbandonedAt    time.Time
	AbandonedAtRaw string
	CompletedAt    *time.Time
	Email          string
	Customer       *Customer
	Total          float64
	LineItems      []CheckoutLineItem
}

// Customer identifies the buyer behind an abandoned checkout.
type Customer struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

// CheckoutLineItem is an abandoned line item.
type CheckoutLineItem struct {
	Title        string
	Quantity     int
	Total        float64
	ProductID    string
	ProductTitle string
}

// Theme is an installed online store theme. Role is lower-cased ("main", "unpublished", ...).
type Theme struct {
	ID   string
	Name string
	Role string
}

// ThemeFile is a template file of the main theme.
type ThemeFile struct {
	Filename string
	Body     string
}

// Page is a store content page.
type Page struct {
	ID     string
	Title  string
	Handle string
}

// App is an installed application.
type App struct {
	ID   string
	Name string
}

// OrderQuery selects paid orders processed on or after Since.
type OrderQuery struct {
	Limit int
	Since time.Time
}

// Store issues the read-only queries a scan needs. Every method is bound to
// the session passed in; implementations must never mutate remote state.
type Store interface {
	FetchShop(ctx context.Context, session *shopifydomain.Session) (*Shop, error)
	FetchProducts(ctx context.Context, session *shopifydomain.Session, limit int) ([]Product, error)
	FetchOrders(ctx context.Context, session *shopifydomain.Session, query OrderQuery) ([]Order, error)
	FetchAbandonedCheckouts(ctx context.Context, session *shopifydomain.Session, limit int) ([]AbandonedCheckout, error)
	FetchThemes(ctx context.Context, session *shopifydomain.Session, limit int) ([]Theme, error)
	FetchInstalledApps(ctx context.Context, session *shopifydomain.Session, limit int) ([]App, error)
	FetchPages(ctx context.Context, session *shopifydomain.Session, limit int) ([]Page, error)
	FetchThemeFiles(ctx context.Context, session *shopifydomain.Session, patterns []string) ([]ThemeFile, error)
}

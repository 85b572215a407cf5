package shopify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	shopifydomain "github.com/niaga-platform/service-revenue-scanner/internal/domain/shopify"
	"github.com/niaga-platform/service-revenue-scanner/internal/scanner"
)

// orderDateLayout is the date format of the orders search syntax.
const orderDateLayout = "2006-01-02"

// Store maps Admin API responses onto the scanner's raw records.
type Store struct {
	client *Client
}

var _ scanner.Store = (*Store)(nil)

// NewStore creates a new store over the given client.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// FetchShop returns the shop identity, or nil when the API returns no shop.
func (s *Store) FetchShop(ctx context.Context, session *shopifydomain.Session) (*scanner.Shop, error) {
	data, err := s.client.Query(ctx, session, shopQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("shop query: %w", err)
	}

	shop := data.Get("shop")
	if !shop.Exists() || shop.Type == gjson.Null {
		return nil, nil
	}
	return &scanner.Shop{
		Name:   shop.Get("name").String(),
		Plan:   shop.Get("plan.displayName").String(),
		Domain: shop.Get("myshopifyDomain").String(),
	}, nil
}

// FetchProducts returns up to limit catalog products.
func (s *Store) FetchProducts(ctx context.Context, session *shopifydomain.Session, limit int) ([]scanner.Product, error) {
	data, err := s.client.Query(ctx, session, productsQuery, map[string]any{"first": limit})
	if err != nil {
		return nil, fmt.Errorf("products query: %w", err)
	}

	nodes := data.Get("products.nodes").Array()
	products := make([]scanner.Product, 0, len(nodes))
	for _, n := range nodes {
		products = append(products, scanner.Product{
			ID:               n.Get("id").String(),
			Title:            n.Get("title").String(),
			Handle:           n.Get("handle").String(),
			Description:      n.Get("description").String(),
			FeaturedImageURL: n.Get("featuredImage.url").String(),
			ImageCount:       len(n.Get("images.nodes").Array()),
			OnlineStoreURL:   n.Get("onlineStoreUrl").String(),
		})
	}
	return products, nil
}

// FetchOrders returns the most recent paid orders processed since query.Since.
func (s *Store) FetchOrders(ctx context.Context, session *shopifydomain.Session, query scanner.OrderQuery) ([]scanner.Order, error) {
	data, err := s.client.Query(ctx, session, ordersQuery, map[string]any{
		"first":     query.Limit,
		"lineItems": scanner.LineItemLimit,
		"query":     OrderSearch(query.Since),
	})
	if err != nil {
		return nil, fmt.Errorf("orders query: %w", err)
	}

	nodes := data.Get("orders.nodes").Array()
	orders := make([]scanner.Order, 0, len(nodes))
	for _, n := range nodes {
		order := scanner.Order{
			ID:          n.Get("id").String(),
			Total:       n.Get("totalPriceSet.shopMoney.amount").Float(),
			ProcessedAt: parseTime(n.Get("processedAt").String()),
		}
		for _, item := range n.Get("lineItems.nodes").Array() {
			order.LineItems = append(order.LineItems, scanner.OrderLineItem{
				ProductID:    item.Get("product.id").String(),
				ProductTitle: item.Get("product.title").String(),
				Quantity:     int(item.Get("quantity").Int()),
				Total:        item.Get("originalTotalSet.shopMoney.amount").Float(),
			})
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// OrderSearch builds the orders search filter: paid orders processed on or
// after since.
func OrderSearch(since time.Time) string {
	return fmt.Sprintf("financial_status:paid processed_at:>=%s", since.UTC().Format(orderDateLayout))
}

// FetchAbandonedCheckouts returns up to limit checkouts, most recent first.
func (s *Store) FetchAbandonedCheckouts(ctx context.Context, session *shopifydomain.Session, limit int) ([]scanner.AbandonedCheckout, error) {
	data, err := s.client.Query(ctx, session, abandonedCheckoutsQuery, map[string]any{
		"first":     limit,
		"lineItems": scanner.LineItemLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("abandoned checkouts query: %w", err)
	}

	nodes := data.Get("abandonedCheckouts.nodes").Array()
	checkouts := make([]scanner.AbandonedCheckout, 0, len(nodes))
	for _, n := range nodes {
		raw := n.Get("abandonedAt").String()
		checkout := scanner.AbandonedCheckout{
			ID:             n.Get("id").String(),
			AbandonedAt:    parseTime(raw),
			AbandonedAtRaw: raw,
			Email:          n.Get("email").String(),
			Total:          n.Get("totalPriceSet.shopMoney.amount").Float(),
		}
		if completed := n.Get("completedAt"); completed.Type == gjson.String {
			t := parseTime(completed.String())
			checkout.CompletedAt = &t
		}
		if customer := n.Get("customer"); customer.IsObject() {
			checkout.Customer = &scanner.Customer{
				ID:        customer.Get("id").String(),
				Email:     customer.Get("email").String(),
				FirstName: customer.Get("firstName").String(),
				LastName:  customer.Get("lastName").String(),
			}
		}
		for _, item := range n.Get("lineItems.nodes").Array() {
			checkout.LineItems = append(checkout.LineItems, scanner.CheckoutLineItem{
				Title:        item.Get("title").String(),
				Quantity:     int(item.Get("quantity").Int()),
				Total:        item.Get("originalTotalPriceSet.shopMoney.amount").Float(),
				ProductID:    item.Get("product.id").String(),
				ProductTitle: item.Get("product.title").String(),
			})
		}
		checkouts = append(checkouts, checkout)
	}
	return checkouts, nil
}

// FetchThemes returns up to limit themes with lower-cased roles.
func (s *Store) FetchThemes(ctx context.Context, session *shopifydomain.Session, limit int) ([]scanner.Theme, error) {
	data, err := s.client.Query(ctx, session, themesQuery, map[string]any{"first": limit})
	if err != nil {
		return nil, fmt.Errorf("themes query: %w", err)
	}

	nodes := data.Get("themes.nodes").Array()
	themes := make([]scanner.Theme, 0, len(nodes))
	for _, n := range nodes {
		themes = append(themes, scanner.Theme{
			ID:   n.Get("id").String(),
			Name: n.Get("name").String(),
			Role: strings.ToLower(n.Get("role").String()),
		})
	}
	return themes, nil
}

// FetchInstalledApps returns up to limit installed applications.
func (s *Store) FetchInstalledApps(ctx context.Context, session *shopifydomain.Session, limit int) ([]scanner.App, error) {
	data, err := s.client.Query(ctx, session, installedAppsQuery, map[string]any{"first": limit})
	if err != nil {
		return nil, fmt.Errorf("installed apps query: %w", err)
	}

	nodes := data.Get("appInstallations.nodes").Array()
	apps := make([]scanner.App, 0, len(nodes))
	for _, n := range nodes {
		apps = append(apps, scanner.App{
			ID:   n.Get("id").String(),
			Name: n.Get("app.title").String(),
		})
	}
	return apps, nil
}

// FetchPages returns up to limit content pages.
func (s *Store) FetchPages(ctx context.Context, session *shopifydomain.Session, limit int) ([]scanner.Page, error) {
	data, err := s.client.Query(ctx, session, pagesQuery, map[string]any{"first": limit})
	if err != nil {
		return nil, fmt.Errorf("pages query: %w", err)
	}

	nodes := data.Get("pages.nodes").Array()
	pages := make([]scanner.Page, 0, len(nodes))
	for _, n := range nodes {
		pages = append(pages, scanner.Page{
			ID:     n.Get("id").String(),
			Title:  n.Get("title").String(),
			Handle: n.Get("handle").String(),
		})
	}
	return pages, nil
}

// FetchThemeFiles returns the text files of the main theme that match patterns.
// Binary files come back with an empty body.
func (s *Store) FetchThemeFiles(ctx context.Context, session *shopifydomain.Session, patterns []string) ([]scanner.ThemeFile, error) {
	data, err := s.client.Query(ctx, session, themeFilesQuery, map[string]any{
		"filenames": patterns,
		"first":     scanner.ThemeFileLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("theme files query: %w", err)
	}

	nodes := data.Get("themes.nodes.0.files.nodes").Array()
	files := make([]scanner.ThemeFile, 0, len(nodes))
	for _, n := range nodes {
		files = append(files, scanner.ThemeFile{
			Filename: n.Get("filename").String(),
			Body:     n.Get("body.content").String(),
		})
	}
	return files, nil
}

// parseTime returns the zero time for values the API left empty.
func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

package scanner_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/niaga-platform/service-revenue-scanner/internal/scanner"
)

func TestClassifyProducts(t *testing.T) {
	t.Parallel()

	products := []scanner.Product{
		{ID: "1", FeaturedImageURL: "https://cdn.example.com/1.jpg", Description: "Hand-drawn batik on silk, made to order."},
		{ID: "2", ImageCount: 2, Description: "   too short          "},
		{ID: "3", Description: ""},
		{ID: "4", Description: "exactly twenty chars"},
	}

	summary := scanner.ClassifyProducts(products)
	require.Equal(t, 4, summary.Total)
	require.Equal(t, 2, summary.WithImages)
	require.Equal(t, 2, summary.WithoutImages)
	require.Equal(t, 2, summary.WithDescription)
	require.Equal(t, 2, summary.WithoutDescription)
	require.Equal(t, summary.Total, summary.WithImages+summary.WithoutImages)
	require.Equal(t, summary.Total, summary.WithDescription+summary.WithoutDescription)
}

func TestHasDescriptionTrimsWhitespace(t *testing.T) {
	t.Parallel()

	require.False(t, scanner.HasDescription(scanner.Product{Description: "  short text here  "}))
	require.True(t, scanner.HasDescription(scanner.Product{Description: "twenty characters!!!"}))
	require.True(t, scanner.HasDescription(scanner.Product{Description: "Batik kain sarung lepas"}))
}

func TestClassifyProductsEmpty(t *testing.T) {
	t.Parallel()

	summary := scanner.ClassifyProducts(nil)
	require.Equal(t, scanner.ProductSummary{}, summary)
}

func TestUnsoldProducts(t *testing.T) {
	t.Parallel()

	products := []scanner.Product{
		{ID: "p1", Title: "Sold Scarf", Handle: "sold-scarf"},
		{ID: "p2", Title: "Sarong", Handle: "sarong"},
		{ID: "p3", Title: "Kebaya", Handle: "kebaya", OnlineStoreURL: "https://batik.example.com/products/kebaya"},
		{ID: "p4", Title: "Tote", Handle: "tote"},
		{ID: "p5", Title: "Cap", Handle: "cap"},
	}
	purchases := map[string]int{"p1": 3}

	issues := scanner.UnsoldProducts(products, purchases, "demo-store.myshopify.com")
	require.Len(t, issues, 3)

	require.Equal(t, "Sarong", issues[0].Product)
	require.Equal(t, "p2", issues[0].ProductID)
	require.Equal(t, "https://demo-store.myshopify.com/products/sarong", issues[0].ProductURL)
	require.Equal(t, 0, issues[0].Purchases)
	require.Equal(t, "0.0", issues[0].ConversionRate)
	require.Nil(t, issues[0].Views)
	require.Nil(t, issues[0].ATC)
	require.Contains(t, issues[0].Insight, "hasn't sold yet")

	require.Equal(t, "https://batik.example.com/products/kebaya", issues[1].ProductURL)
	require.Equal(t, "p4", issues[2].ProductID)
}

func TestUnsoldProductsAllSold(t *testing.T) {
	t.Parallel()

	products := []scanner.Product{{ID: "p1"}, {ID: "p2"}}
	issues := scanner.UnsoldProducts(products, map[string]int{"p1": 1, "p2": 4}, "demo-store.myshopify.com")
	require.NotNil(t, issues)
	require.Empty(t, issues)
}

func TestAggregateOrders(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	orders := []scanner.Order{
		{
			ID:          "o1",
			Total:       100.4,
			ProcessedAt: now.AddDate(0, 0, -3),
			LineItems:   []scanner.OrderLineItem{{ProductID: "p1", Quantity: 2, Total: 100.4}},
		},
		{
			ID:          "o2",
			Total:       50,
			ProcessedAt: now.AddDate(0, 0, -45),
			LineItems: []scanner.OrderLineItem{
				{ProductID: "p2", Quantity: 0, Total: 40},
				{ProductTitle: "Custom engraving", Quantity: 1, Total: 10},
			},
		},
	}

	summary := scanner.AggregateOrders(orders, now)
	require.Equal(t, 2, summary.TotalOrders)
	require.Equal(t, int64(100), summary.TotalRevenue)
	require.Equal(t, 75.2, summary.AverageOrderValue)
	require.Equal(t, map[string]int{"p1": 2, "p2": 1}, summary.Purchases)
}

func TestAggregateOrdersEmpty(t *testing.T) {
	t.Parallel()

	summary := scanner.AggregateOrders(nil, time.Now())
	require.Zero(t, summary.TotalOrders)
	require.Zero(t, summary.TotalRevenue)
	require.Zero(t, summary.AverageOrderValue)
	require.Empty(t, summary.Purchases)
}

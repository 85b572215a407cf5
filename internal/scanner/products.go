package scanner

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	minDescriptionLength = 20
	maxUnsoldProducts    = 3
	unsoldProductInsight = "This product has been added to your store but hasn't sold yet"
	unsoldConversionRate = "0.0"
)

// ProductSummary is the classifier's partial record.
type ProductSummary struct {
	Total              int
	WithImages         int
	WithoutImages      int
	WithDescription    int
	WithoutDescription int
}

// HasImage reports whether the product has a featured image or any image.
func HasImage(p Product) bool {
	return p.FeaturedImageURL != "" || p.ImageCount > 0
}

// HasDescription reports whether the trimmed description is at least 20 characters.
func HasDescription(p Product) bool {
	return utf8.RuneCountInString(strings.TrimSpace(p.Description)) >= minDescriptionLength
}

// ClassifyProducts partitions products by image presence and description adequacy.
func ClassifyProducts(products []Product) ProductSummary {
	summary := ProductSummary{Total: len(products)}
	for _, p := range products {
		if HasImage(p) {
			summary.WithImages++
		} else {
			summary.WithoutImages++
		}
		if HasDescription(p) {
			summary.WithDescription++
		} else {
			summary.WithoutDescription++
		}
	}
	return summary
}

// UnsoldProducts returns up to three products, in fetch order, that have no
// recorded purchases in the fetched orders.
func UnsoldProducts(products []Product, purchases map[string]int, shopDomain string) []TrafficConversionIssue {
	issues := make([]TrafficConversionIssue, 0, maxUnsoldProducts)
	for _, p := range products {
		if len(issues) == maxUnsoldProducts {
			break
		}
		if purchases[p.ID] > 0 {
			continue
		}
		issues = append(issues, TrafficConversionIssue{
			Product:        p.Title,
			ProductID:      p.ID,
			ProductURL:     productURL(p, shopDomain),
			Purchases:      0,
			ConversionRate: unsoldConversionRate,
			Insight:        unsoldProductInsight,
		})
	}
	return issues
}

func productURL(p Product, shopDomain string) string {
	if p.OnlineStoreURL != "" {
		return p.OnlineStoreURL
	}
	return fmt.Sprintf("https://%s/products/%s", shopDomain, p.Handle)
}

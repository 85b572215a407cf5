package scanner

import "time"

// RevenueWindow is the trailing window used for monthly revenue and abandonment.
const RevenueWindow = 30

// RevenueSummary is the order aggregator's partial record.
type RevenueSummary struct {
	TotalOrders       int
	TotalRevenue      int64
	AverageOrderValue float64
	Purchases         map[string]int
}

// windowStart returns the lower bound of the trailing revenue window.
func windowStart(now time.Time) time.Time {
	return now.AddDate(0, 0, -RevenueWindow)
}

// AggregateOrders derives revenue figures and per-product purchase counts.
// TotalOrders counts the fetched orders only, which are bounded by the query
// cap and filter. TotalRevenue covers the last 30 days while
// AverageOrderValue covers every fetched order.
func AggregateOrders(orders []Order, now time.Time) RevenueSummary {
	summary := RevenueSummary{
		TotalOrders: len(orders),
		Purchases:   make(map[string]int),
	}

	since := windowStart(now)
	var monthly, all float64
	for _, order := range orders {
		all += order.Total
		if order.ProcessedAt.After(since) {
			monthly += order.Total
		}

		for _, item := range order.LineItems {
			if item.ProductID == "" {
				continue
			}
			count := summary.Purchases[item.ProductID] + item.Quantity
			if count == 0 {
				// a line item always marks its product as purchased
				count = 1
			}
			summary.Purchases[item.ProductID] = count
		}
	}

	summary.TotalRevenue = roundInt(monthly)
	if len(orders) > 0 {
		summary.AverageOrderValue = roundHalfUp(all/float64(len(orders)), 2)
	}
	return summary
}

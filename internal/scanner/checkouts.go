package scanner

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	// reminderRecoveryRate is the industry-average share of abandoned
	// checkouts recovered by a reminder. It is an assumption, not a measurement.
	reminderRecoveryRate   = 0.18
	recoverableShare       = 0.2
	abandonmentIssueRate   = 30
	maxTopAbandoned        = 5
	maxRecentAbandonments  = 10
	customProductKeyPrefix = "custom-"
)

// funnelStep models one checkout stage as fractions of checkout starts.
type funnelStep struct {
	name  string
	enter float64
	exit  float64
}

var modeledFunnel = []funnelStep{
	{name: "View Cart", enter: 1, exit: 0.9},
	{name: "Information", enter: 0.9, exit: 0.75},
	{name: "Shipping", enter: 0.75, exit: 0.7},
	{name: "Payment", enter: 0.7, exit: 0.65},
}

const completeStepName = "Complete"

// CheckoutSummary is the abandonment aggregator's partial record.
type CheckoutSummary struct {
	Abandoned       int
	AbandonmentRate float64
	Funnel          CheckoutFunnel
	Cart            CartAnalytics
	Issues          []CheckoutAbandonmentIssue
}

// FilterAbandoned keeps checkouts without a completion timestamp that were
// abandoned within the last 30 days. Input order is preserved.
func FilterAbandoned(checkouts []AbandonedCheckout, now time.Time) []AbandonedCheckout {
	since := windowStart(now)
	out := make([]AbandonedCheckout, 0, len(checkouts))
	for _, c := range checkouts {
		if c.CompletedAt != nil {
			continue
		}
		if !c.AbandonedAt.After(since) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// AggregateCheckouts derives funnel and cart analytics from abandoned
// checkouts and the number of completed orders. When there are no checkout
// starts at all the funnel and cart analytics keep their defaults.
func AggregateCheckouts(checkouts []AbandonedCheckout, completed int, averageOrderValue float64, now time.Time) CheckoutSummary {
	abandoned := FilterAbandoned(checkouts, now)

	summary := CheckoutSummary{
		Abandoned: len(abandoned),
		Funnel:    defaultCheckoutFunnel(),
		Cart:      defaultCartAnalytics(),
		Issues:    []CheckoutAbandonmentIssue{},
	}
	summary.Funnel.AverageOrderValue = averageOrderValue

	starts := completed + len(abandoned)
	if starts == 0 {
		return summary
	}

	rate := roundHalfUp(float64(len(abandoned))/float64(starts)*100, 1)
	summary.AbandonmentRate = rate

	summary.Funnel = CheckoutFunnel{
		TotalCheckoutStarts:    starts,
		CheckoutsCompleted:     completed,
		CheckoutsAbandoned:     len(abandoned),
		CompletionRate:         percent(100 - rate),
		AbandonmentRate:        percent(rate),
		PurchasesAfterCheckout: completed,
		PurchasesAfterReminder: int(roundInt(float64(len(abandoned)) * reminderRecoveryRate)),
		ConversionRate:         percent(100 - rate),
		AverageOrderValue:      averageOrderValue,
		CheckoutSteps:          FunnelSteps(starts, completed),
		DailyFunnel:            []DailyFunnel{},
	}

	var potential float64
	for _, c := range abandoned {
		potential += c.Total
	}

	summary.Cart = CartAnalytics{
		TotalCarts:           starts,
		CartsWithCheckout:    completed,
		CartsWithoutCheckout: len(abandoned),
		AbandonedCarts:       len(abandoned),
		RecoveryRate:         percent(float64(completed) / float64(starts) * 100),
		AbandonmentRate:      percent(rate),
		PotentialRevenue:     roundInt(potential),
		RecoverableRevenue:   roundInt(potential * recoverableShare),
		TopAbandonedProducts: TopAbandonedProducts(abandoned),
		RecentAbandonedCarts: RecentAbandonments(abandoned),
	}

	if rate > abandonmentIssueRate {
		summary.Issues = append(summary.Issues, CheckoutAbandonmentIssue{
			Starts:          starts,
			Completed:       completed,
			AbandonmentRate: percent(rate),
			Insight: fmt.Sprintf("%d customers abandoned checkout - $%s in lost revenue",
				len(abandoned), formatAmount(roundInt(potential))),
		})
	}

	return summary
}

// FunnelSteps builds the five modeled funnel steps. The first four use fixed
// fractions of starts; the final step completes with the real order count.
func FunnelSteps(starts, completed int) []FunnelStep {
	total := float64(starts)
	steps := make([]FunnelStep, 0, len(modeledFunnel)+1)
	for _, s := range modeledFunnel {
		steps = append(steps, FunnelStep{
			Step:        s.name,
			Entered:     int(roundInt(total * s.enter)),
			Completed:   int(roundInt(total * s.exit)),
			DropoffRate: compactPercent((1 - s.exit/s.enter) * 100),
		})
	}

	last := modeledFunnel[len(modeledFunnel)-1].exit
	steps = append(steps, FunnelStep{
		Step:        completeStepName,
		Entered:     int(roundInt(total * last)),
		Completed:   completed,
		DropoffRate: percent((1 - float64(completed)/(total*last)) * 100),
	})
	return steps
}

// TopAbandonedProducts groups abandoned line items by product and returns the
// five with the highest abandoned value. Ties keep first-encountered order.
func TopAbandonedProducts(abandoned []AbandonedCheckout) []AbandonedProduct {
	index := make(map[string]int)
	products := make([]AbandonedProduct, 0)

	for _, c := range abandoned {
		for _, item := range c.LineItems {
			key := item.ProductID
			if key == "" {
				key = customProductKeyPrefix + item.Title
			}
			quantity := lineQuantity(item.Quantity)

			i, ok := index[key]
			if !ok {
				name := item.ProductTitle
				if name == "" {
					name = item.Title
				}
				products = append(products, AbandonedProduct{
					ProductID:   key,
					ProductName: name,
					Price:       item.Total / float64(quantity),
				})
				i = len(products) - 1
				index[key] = i
			}

			products[i].Quantity += quantity
			products[i].TotalValue += item.Total
			products[i].AbandonCount++
		}
	}

	sort.SliceStable(products, func(a, b int) bool {
		return products[a].TotalValue > products[b].TotalValue
	})
	if len(products) > maxTopAbandoned {
		products = products[:maxTopAbandoned]
	}
	return products
}

// RecentAbandonments projects the ten most recent abandoned checkouts into
// display records.
func RecentAbandonments(abandoned []AbandonedCheckout) []RecentAbandonment {
	n := len(abandoned)
	if n > maxRecentAbandonments {
		n = maxRecentAbandonments
	}

	carts := make([]RecentAbandonment, 0, n)
	for _, c := range abandoned[:n] {
		items := make([]AbandonedItem, 0, len(c.LineItems))
		for _, item := range c.LineItems {
			quantity := lineQuantity(item.Quantity)
			name := item.ProductTitle
			if name == "" {
				name = item.Title
			}
			items = append(items, AbandonedItem{
				ProductID:   item.ProductID,
				ProductName: name,
				Quantity:    quantity,
				Price:       item.Total / float64(quantity),
			})
		}

		carts = append(carts, RecentAbandonment{
			CartID:        c.ID,
			CustomerEmail: customerEmail(c),
			CustomerName:  customerName(c.Customer),
			IsLoggedIn:    c.Customer != nil && c.Customer.ID != "",
			AbandonedAt:   c.AbandonedAtRaw,
			TotalPrice:    c.Total,
			ItemCount:     len(c.LineItems),
			Items:         items,
		})
	}
	return carts
}

func lineQuantity(q int) int {
	if q == 0 {
		return 1
	}
	return q
}

func customerEmail(c AbandonedCheckout) *string {
	if c.Email != "" {
		email := c.Email
		return &email
	}
	if c.Customer != nil && c.Customer.Email != "" {
		email := c.Customer.Email
		return &email
	}
	return nil
}

func customerName(customer *Customer) *string {
	if customer == nil || customer.FirstName == "" {
		return nil
	}
	name := strings.TrimSpace(customer.FirstName + " " + customer.LastName)
	return &name
}

package scanner

// Severity buckets used by trust and tracking issues.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// ScanFailedMessage is the generic error returned when a load-bearing query fails.
const ScanFailedMessage = "Failed to scan store. Please try again."

// ScanResult is the single output record of one scan invocation.
type ScanResult struct {
	Scanned                   bool                       `json:"scanned"`
	Error                     string                     `json:"error,omitempty"`
	Metrics                   ScanMetrics                `json:"metrics"`
	TrafficConversionIssues   []TrafficConversionIssue   `json:"trafficConversionIssues"`
	CheckoutAbandonmentIssues []CheckoutAbandonmentIssue `json:"checkoutAbandonmentIssues"`
	UxSpeedSignals            UxSpeedSignals             `json:"uxSpeedSignals"`
	TrustGapIssues            []TrustGapIssue            `json:"trustGapIssues"`
	TrackingHealthIssues      []TrackingHealthIssue      `json:"trackingHealthIssues"`
	TopIssues                 []string                   `json:"topIssues"`
}

// ScanMetrics is the numeric and derived summary of a scan.
type ScanMetrics struct {
	ShopName                        string         `json:"shopName"`
	Plan                            string         `json:"plan"`
	TotalProducts                   int            `json:"totalProducts"`
	TotalProductsWithImages         int            `json:"totalProductsWithImages"`
	TotalProductsWithoutImages      int            `json:"totalProductsWithoutImages"`
	TotalProductsWithDescription    int            `json:"totalProductsWithDescription"`
	TotalProductsWithoutDescription int            `json:"totalProductsWithoutDescription"`
	TotalOrders                     int            `json:"totalOrders"`
	TotalRevenue                    int64          `json:"totalRevenue"`
	TotalAbandonedCheckouts         int            `json:"totalAbandonedCheckouts"`
	Score                           int            `json:"score"`
	Grade                           string         `json:"grade"`
	EstimatedMonthlyLoss            int64          `json:"estimatedMonthlyLoss"`
	ScanDate                        string         `json:"scanDate"`
	CartAnalytics                   CartAnalytics  `json:"cartAnalytics"`
	CheckoutFunnel                  CheckoutFunnel `json:"checkoutFunnel"`
}

// CartAnalytics summarizes abandoned checkouts from the last 30 days.
type CartAnalytics struct {
	TotalCarts           int                 `json:"totalCarts"`
	CartsWithCheckout    int                 `json:"cartsWithCheckout"`
	CartsWithoutCheckout int                 `json:"cartsWithoutCheckout"`
	AbandonedCarts       int                 `json:"abandonedCarts"`
	RecoveryRate         string              `json:"recoveryRate"`
	AbandonmentRate      string              `json:"abandonmentRate"`
	PotentialRevenue     int64               `json:"potentialRevenue"`
	RecoverableRevenue   int64               `json:"recoverableRevenue"`
	TopAbandonedProducts []AbandonedProduct  `json:"topAbandonedProducts"`
	RecentAbandonedCarts []RecentAbandonment `json:"recentAbandonedCarts"`
}

// AbandonedProduct aggregates abandoned line items for one product.
type AbandonedProduct struct {
	ProductID    string  `json:"productId"`
	ProductName  string  `json:"productName"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	TotalValue   float64 `json:"totalValue"`
	AbandonCount int     `json:"abandonCount"`
}

// RecentAbandonment is the display projection of one abandoned checkout.
type RecentAbandonment struct {
	CartID        string          `json:"cartId"`
	CustomerEmail *string         `json:"customerEmail"`
	CustomerName  *string         `json:"customerName"`
	IsLoggedIn    bool            `json:"isLoggedIn"`
	AbandonedAt   string          `json:"abandonedAt"`
	TotalPrice    float64         `json:"totalPrice"`
	ItemCount     int             `json:"itemCount"`
	Items         []AbandonedItem `json:"items"`
}

// AbandonedItem is a line item of an abandoned cart with its per-unit price.
type AbandonedItem struct {
	ProductID   string  `json:"productId,omitempty"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// CheckoutFunnel holds modeled funnel counts. The API does not expose
// step-level checkout data; the steps are fixed fractions of checkout starts.
type CheckoutFunnel struct {
	TotalCheckoutStarts    int           `json:"totalCheckoutStarts"`
	CheckoutsCompleted     int           `json:"checkoutsCompleted"`
	CheckoutsAbandoned     int           `json:"checkoutsAbandoned"`
	CompletionRate         string        `json:"completionRate"`
	AbandonmentRate        string        `json:"abandonmentRate"`
	PurchasesAfterCheckout int           `json:"purchasesAfterCheckout"`
	PurchasesAfterReminder int           `json:"purchasesAfterReminder"`
	ConversionRate         string        `json:"conversionRate"`
	AverageOrderValue      float64       `json:"averageOrderValue"`
	CheckoutSteps          []FunnelStep  `json:"checkoutSteps"`
	DailyFunnel            []DailyFunnel `json:"dailyFunnel"`
}

// FunnelStep is one modeled stage of the checkout process.
type FunnelStep struct {
	Step        string `json:"step"`
	Entered     int    `json:"entered"`
	Completed   int    `json:"completed"`
	DropoffRate string `json:"dropoffRate"`
}

// DailyFunnel is reserved for per-day funnel data; scans never populate it.
type DailyFunnel struct {
	Date      string `json:"date"`
	Started   int    `json:"started"`
	Completed int    `json:"completed"`
	Abandoned int    `json:"abandoned"`
}

// TrafficConversionIssue flags a product with no recorded purchases.
type TrafficConversionIssue struct {
	Product        string `json:"product"`
	ProductID      string `json:"productId"`
	ProductURL     string `json:"productUrl"`
	Views          *int   `json:"views"`
	ATC            *int   `json:"atc"`
	Purchases      int    `json:"purchases"`
	ConversionRate string `json:"conversionRate"`
	Insight        string `json:"insight"`
}

// CheckoutAbandonmentIssue is emitted when the abandonment rate is above 30%.
type CheckoutAbandonmentIssue struct {
	Starts          int    `json:"starts"`
	Completed       int    `json:"completed"`
	AbandonmentRate string `json:"abandonmentRate"`
	Insight         string `json:"insight"`
}

// UxSpeedSignals summarizes theme and installed app detection.
type UxSpeedSignals struct {
	Theme           string   `json:"theme"`
	ThemeRole       string   `json:"themeRole"`
	OutdatedTheme   bool     `json:"outdatedTheme"`
	AppsDetected    int      `json:"appsDetected"`
	AppNames        []string `json:"appNames"`
	ImageHeavyPages int      `json:"imageHeavyPages"`
	Insight         string   `json:"insight"`
}

// TrustGapIssue reports presence of one trust-signal page category.
type TrustGapIssue struct {
	Issue    string `json:"issue"`
	Severity string `json:"severity"`
	Found    bool   `json:"found"`
	Details  string `json:"details"`
}

// TrackingHealthIssue reports presence of one tracking signal.
type TrackingHealthIssue struct {
	Issue    string `json:"issue"`
	Severity string `json:"severity"`
	Found    bool   `json:"found"`
	Details  string `json:"details"`
}

// NewScanResult returns a result populated with the seeded defaults every
// section keeps when its query fails.
func NewScanResult(scanDate string) ScanResult {
	return ScanResult{
		Scanned: true,
		Metrics: ScanMetrics{
			Plan:           "Unknown",
			Grade:          "C",
			ScanDate:       scanDate,
			CartAnalytics:  defaultCartAnalytics(),
			CheckoutFunnel: defaultCheckoutFunnel(),
		},
		TrafficConversionIssues:   []TrafficConversionIssue{},
		CheckoutAbandonmentIssues: []CheckoutAbandonmentIssue{},
		UxSpeedSignals:            defaultUxSpeedSignals(),
		TrustGapIssues:            []TrustGapIssue{},
		TrackingHealthIssues:      []TrackingHealthIssue{},
		TopIssues:                 []string{},
	}
}

// FailedScanResult discards partial results and reports a structural failure.
func FailedScanResult(scanDate string) ScanResult {
	result := NewScanResult(scanDate)
	result.Scanned = false
	result.Error = ScanFailedMessage
	return result
}

func defaultCartAnalytics() CartAnalytics {
	return CartAnalytics{
		RecoveryRate:         "0%",
		AbandonmentRate:      "0%",
		TopAbandonedProducts: []AbandonedProduct{},
		RecentAbandonedCarts: []RecentAbandonment{},
	}
}

func defaultCheckoutFunnel() CheckoutFunnel {
	return CheckoutFunnel{
		CompletionRate:  "0%",
		AbandonmentRate: "0%",
		ConversionRate:  "0%",
		CheckoutSteps:   []FunnelStep{},
		DailyFunnel:     []DailyFunnel{},
	}
}

func defaultUxSpeedSignals() UxSpeedSignals {
	return UxSpeedSignals{
		Theme:     "Unknown",
		ThemeRole: "unknown",
		AppNames:  []string{},
		Insight:   "Scanning store data...",
	}
}

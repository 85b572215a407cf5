package scanner

import (
	"fmt"
	"strings"
)

const (
	maxTopIssues         = 5
	maxPoliciesInSummary = 2
)

// RankInput carries the fields the issue ranker reads.
type RankInput struct {
	AbandonmentRate            float64
	AbandonmentRateLabel       string
	PotentialRevenue           int64
	RecentAbandonedCarts       []RecentAbandonment
	ProductsWithoutImages      int
	ProductsWithoutDescription int
	TrustGaps                  []TrustGapIssue
}

// RankIssues builds the top issue list in fixed priority order:
// abandonment, recoverable customers, missing images, missing descriptions,
// missing high-severity policies.
func RankIssues(in RankInput) []string {
	issues := make([]string, 0, maxTopIssues)

	if in.AbandonmentRate > abandonmentIssueRate {
		issues = append(issues, fmt.Sprintf("Checkout abandonment: %s ($%s lost)",
			in.AbandonmentRateLabel, formatAmount(in.PotentialRevenue)))
	}

	loggedIn := 0
	for _, cart := range in.RecentAbandonedCarts {
		if cart.IsLoggedIn {
			loggedIn++
		}
	}
	if loggedIn > 0 {
		issues = append(issues, fmt.Sprintf("%d logged-in customers abandoned cart - Ready to email", loggedIn))
	}

	if in.ProductsWithoutImages > 0 {
		issues = append(issues, fmt.Sprintf("%d product(s) missing images", in.ProductsWithoutImages))
	}

	if in.ProductsWithoutDescription > 0 {
		issues = append(issues, fmt.Sprintf("%d product(s) missing descriptions", in.ProductsWithoutDescription))
	}

	policies := make([]string, 0, maxPoliciesInSummary)
	for _, gap := range in.TrustGaps {
		if len(policies) == maxPoliciesInSummary {
			break
		}
		if !gap.Found && gap.Severity == SeverityHigh {
			policies = append(policies, strings.Replace(gap.Issue, " policy", "", 1))
		}
	}
	if len(policies) > 0 {
		issues = append(issues, fmt.Sprintf("Missing %s policies", strings.Join(policies, " & ")))
	}

	if len(issues) > maxTopIssues {
		issues = issues[:maxTopIssues]
	}
	return issues
}

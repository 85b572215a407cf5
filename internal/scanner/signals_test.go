package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/niaga-platform/service-revenue-scanner/internal/scanner"
)

func TestDetectThemePrefersMain(t *testing.T) {
	t.Parallel()

	signals := scanner.DetectTheme([]scanner.Theme{
		{ID: "1", Name: "Dawn", Role: "unpublished"},
		{ID: "2", Name: "Debut", Role: "main"},
	})
	require.Equal(t, "Debut", signals.Theme)
	require.Equal(t, "main", signals.ThemeRole)
	require.True(t, signals.OutdatedTheme)
	require.Equal(t, "Your theme (Debut) is outdated. Consider upgrading to Online Store 2.0.", signals.Insight)
}

func TestDetectThemeFallsBackToFirst(t *testing.T) {
	t.Parallel()

	signals := scanner.DetectTheme([]scanner.Theme{{ID: "1", Name: "Dawn", Role: "unpublished"}})
	require.Equal(t, "Dawn", signals.Theme)
	require.Equal(t, "unknown", signals.ThemeRole)
	require.False(t, signals.OutdatedTheme)
	require.Equal(t, "Your theme (Dawn) is up to date.", signals.Insight)
}

func TestDetectThemeOutdatedNeedsExactName(t *testing.T) {
	t.Parallel()

	signals := scanner.DetectTheme([]scanner.Theme{{Name: "Debut 2", Role: "main"}})
	require.False(t, signals.OutdatedTheme)
}

func TestDetectThemeNoThemes(t *testing.T) {
	t.Parallel()

	signals := scanner.DetectTheme(nil)
	require.Equal(t, "Custom", signals.Theme)
	require.Equal(t, "unknown", signals.ThemeRole)
	require.NotNil(t, signals.AppNames)
}

func TestDetectApps(t *testing.T) {
	t.Parallel()

	signals := scanner.DetectApps(scanner.DetectTheme(nil), []scanner.App{
		{ID: "1", Name: "Klaviyo"},
		{ID: "2", Name: "Judge.me Reviews"},
	})
	require.Equal(t, 2, signals.AppsDetected)
	require.Equal(t, []string{"Klaviyo", "Judge.me Reviews"}, signals.AppNames)
	require.Equal(t, "Custom", signals.Theme)
}

func TestDetectTrustGaps(t *testing.T) {
	t.Parallel()

	issues := scanner.DetectTrustGaps([]scanner.Page{
		{Title: "Shipping & Delivery"},
		{Title: "REFUND POLICY"},
		{Title: "Contact"},
	})
	require.Len(t, issues, 5)

	require.Equal(t, scanner.TrustGapIssue{Issue: "Shipping policy", Severity: "high", Found: true, Details: "✓ Found"}, issues[0])
	require.Equal(t, scanner.TrustGapIssue{Issue: "Return policy", Severity: "high", Found: true, Details: "✓ Found"}, issues[1])
	require.Equal(t, scanner.TrustGapIssue{
		Issue:    "Privacy policy",
		Severity: "high",
		Found:    false,
		Details:  "✗ Missing - Privacy policy is legally required",
	}, issues[2])
	require.Equal(t, "About Us page", issues[3].Issue)
	require.Equal(t, "medium", issues[3].Severity)
	require.False(t, issues[3].Found)
	require.Equal(t, "FAQ page", issues[4].Issue)
	require.False(t, issues[4].Found)
}

func TestDetectTrustGapsNoPages(t *testing.T) {
	t.Parallel()

	issues := scanner.DetectTrustGaps(nil)
	require.Len(t, issues, 5)
	for _, issue := range issues {
		require.False(t, issue.Found)
	}
}

func TestDetectTrustGapsQuestionsKeyword(t *testing.T) {
	t.Parallel()

	issues := scanner.DetectTrustGaps([]scanner.Page{{Title: "Frequently Asked Questions"}})
	require.True(t, issues[4].Found)
}

func TestDetectTracking(t *testing.T) {
	t.Parallel()

	issues := scanner.DetectTracking([]scanner.ThemeFile{
		{Filename: "layout/theme.liquid", Body: "<script>fbq('init', '123');</script>"},
		{Filename: "snippets/cart.liquid", Body: "{{ cart | json }}"},
	})
	require.Len(t, issues, 3)

	require.Equal(t, scanner.TrackingHealthIssue{
		Issue:    "Meta Pixel",
		Severity: "high",
		Found:    true,
		Details:  "✓ Detected in theme",
	}, issues[0])
	require.Equal(t, scanner.TrackingHealthIssue{
		Issue:    "Purchase events",
		Severity: "high",
		Found:    false,
		Details:  "✗ Not found - Check tracking setup",
	}, issues[1])
	require.Equal(t, "Conversion API (CAPI)", issues[2].Issue)
	require.False(t, issues[2].Found)
}

func TestDetectTrackingConnectDomainAndEvents(t *testing.T) {
	t.Parallel()

	issues := scanner.DetectTracking([]scanner.ThemeFile{
		{Body: `<script src="https://connect.facebook.net/en_US/fbevents.js"></script>`},
		{Body: `track('AddPaymentInfo')`},
	})
	require.True(t, issues[0].Found)
	require.True(t, issues[1].Found)
	require.False(t, issues[2].Found)
}

func TestUnverifiedTracking(t *testing.T) {
	t.Parallel()

	issues := scanner.UnverifiedTracking()
	require.Len(t, issues, 2)
	require.Equal(t, "Meta Pixel", issues[0].Issue)
	require.Equal(t, "medium", issues[0].Severity)
	require.Equal(t, "Unable to verify - manually check tracking setup", issues[0].Details)
	require.Equal(t, "Conversion API (CAPI)", issues[1].Issue)
}

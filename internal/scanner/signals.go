package scanner

import (
	"fmt"
	"slices"
	"strings"
)

const (
	themeRoleMain    = "main"
	customThemeName  = "Custom"
	unknownThemeRole = "unknown"
)

// OutdatedThemes are vintage free themes that predate Online Store 2.0.
var OutdatedThemes = []string{"Debut", "Brooklyn", "Simple", "Minimal", "Supply", "Narrative"}

// TrustCategory is one trust-signal page category matched against page titles.
type TrustCategory struct {
	Issue    string
	Severity string
	Keywords []string
	Missing  string
}

// TrustCategories lists the trust-signal page categories in report order.
var TrustCategories = []TrustCategory{
	{Issue: "Shipping policy", Severity: SeverityHigh, Keywords: []string{"shipping", "delivery"}, Missing: "✗ Missing - Add shipping policy to build trust"},
	{Issue: "Return policy", Severity: SeverityHigh, Keywords: []string{"return", "refund"}, Missing: "✗ Missing - Add return policy to reduce purchase anxiety"},
	{Issue: "Privacy policy", Severity: SeverityHigh, Keywords: []string{"privacy"}, Missing: "✗ Missing - Privacy policy is legally required"},
	{Issue: "About Us page", Severity: SeverityMedium, Keywords: []string{"about"}, Missing: "✗ Missing - Add About Us page to build brand trust"},
	{Issue: "FAQ page", Severity: SeverityMedium, Keywords: []string{"faq", "questions"}, Missing: "✗ Missing - FAQ page answers common questions"},
}

// TrackingSignal is one literal-marker check over theme template contents.
type TrackingSignal struct {
	Issue    string
	Severity string
	Markers  []string
	Found    string
	Missing  string
}

// TrackingSignals lists the live tracking checks in report order.
var TrackingSignals = []TrackingSignal{
	{
		Issue:    "Meta Pixel",
		Severity: SeverityHigh,
		Markers:  []string{"fbq(", "connect.facebook.net"},
		Found:    "✓ Detected in theme",
		Missing:  "✗ Not detected - Install Meta Pixel for better ad tracking",
	},
	{
		Issue:    "Purchase events",
		Severity: SeverityHigh,
		Markers:  []string{"Purchase", "AddPaymentInfo"},
		Found:    "✓ Purchase events detected",
		Missing:  "✗ Not found - Check tracking setup",
	},
}

// conversionAPIPlaceholder is always reported as not found. There is no
// detector behind it; it is a standing recommendation.
var conversionAPIPlaceholder = TrackingHealthIssue{
	Issue:    "Conversion API (CAPI)",
	Severity: SeverityMedium,
	Found:    false,
	Details:  "CAPI not configured - Recommended for accurate tracking",
}

var trackingUnverified = TrackingHealthIssue{
	Issue:    "Meta Pixel",
	Severity: SeverityMedium,
	Found:    false,
	Details:  "Unable to verify - manually check tracking setup",
}

// DetectTheme picks the main theme (falling back to the first theme) and
// flags it when it is one of the outdated themes.
func DetectTheme(themes []Theme) UxSpeedSignals {
	signals := defaultUxSpeedSignals()

	var main *Theme
	for i := range themes {
		if themes[i].Role == themeRoleMain {
			main = &themes[i]
			break
		}
	}

	switch {
	case main != nil && main.Name != "":
		signals.Theme = main.Name
	case len(themes) > 0 && themes[0].Name != "":
		signals.Theme = themes[0].Name
	default:
		signals.Theme = customThemeName
	}
	if main != nil {
		signals.ThemeRole = main.Role
	} else {
		signals.ThemeRole = unknownThemeRole
	}

	signals.OutdatedTheme = slices.Contains(OutdatedThemes, signals.Theme)
	if signals.OutdatedTheme {
		signals.Insight = fmt.Sprintf("Your theme (%s) is outdated. Consider upgrading to Online Store 2.0.", signals.Theme)
	} else {
		signals.Insight = fmt.Sprintf("Your theme (%s) is up to date.", signals.Theme)
	}
	return signals
}

// DetectTrustGaps emits one record per trust category, found when any
// lower-cased page title contains any of the category keywords.
func DetectTrustGaps(pages []Page) []TrustGapIssue {
	titles := make([]string, 0, len(pages))
	for _, p := range pages {
		titles = append(titles, strings.ToLower(p.Title))
	}

	issues := make([]TrustGapIssue, 0, len(TrustCategories))
	for _, category := range TrustCategories {
		found := anyContains(titles, category.Keywords)
		details := category.Missing
		if found {
			details = "✓ Found"
		}
		issues = append(issues, TrustGapIssue{
			Issue:    category.Issue,
			Severity: category.Severity,
			Found:    found,
			Details:  details,
		})
	}
	return issues
}

// DetectTracking checks theme template contents for tracking markers and
// appends the Conversion API placeholder.
func DetectTracking(files []ThemeFile) []TrackingHealthIssue {
	bodies := make([]string, 0, len(files))
	for _, f := range files {
		bodies = append(bodies, f.Body)
	}

	issues := make([]TrackingHealthIssue, 0, len(TrackingSignals)+1)
	for _, signal := range TrackingSignals {
		found := anyContains(bodies, signal.Markers)
		details := signal.Missing
		if found {
			details = signal.Found
		}
		issues = append(issues, TrackingHealthIssue{
			Issue:    signal.Issue,
			Severity: signal.Severity,
			Found:    found,
			Details:  details,
		})
	}
	return append(issues, conversionAPIPlaceholder)
}

// UnverifiedTracking is reported when the theme files could not be read.
func UnverifiedTracking() []TrackingHealthIssue {
	return []TrackingHealthIssue{trackingUnverified, conversionAPIPlaceholder}
}

// DetectApps records installed application names. Apps carry no score weight.
func DetectApps(signals UxSpeedSignals, apps []App) UxSpeedSignals {
	names := make([]string, 0, len(apps))
	for _, a := range apps {
		names = append(names, a.Name)
	}
	signals.AppsDetected = len(apps)
	signals.AppNames = names
	return signals
}

func anyContains(haystacks, needles []string) bool {
	for _, h := range haystacks {
		for _, n := range needles {
			if strings.Contains(h, n) {
				return true
			}
		}
	}
	return false
}

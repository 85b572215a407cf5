package scanner

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

// roundHalfUp rounds to the given number of decimals with ties going away
// from zero, matching how rates are rendered to merchants.
func roundHalfUp(x float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	if x < 0 {
		return -math.Floor(-x*scale+0.5) / scale
	}
	return math.Floor(x*scale+0.5) / scale
}

// roundInt rounds a non-negative amount to the nearest whole currency unit.
func roundInt(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}

// fixed1 renders x with exactly one decimal.
func fixed1(x float64) string {
	return strconv.FormatFloat(roundHalfUp(x, 1), 'f', 1, 64)
}

// percent renders x with one decimal and a percent sign.
func percent(x float64) string {
	return fixed1(x) + "%"
}

// compactPercent renders x with at most one decimal, dropping a trailing ".0".
func compactPercent(x float64) string {
	return strconv.FormatFloat(roundHalfUp(x, 1), 'f', -1, 64) + "%"
}

// formatAmount renders a whole amount with thousands separators.
func formatAmount(amount int64) string {
	return moneyPrinter.Sprintf("%d", amount)
}

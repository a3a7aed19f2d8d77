package http

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"bikedash/internal/core"
)

var printer = message.NewPrinter(language.English)

// formatCount renders an integer with thousands separators.
func formatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// formatDecimal renders v with one decimal place and thousands separators.
func formatDecimal(v float64) string {
	return printer.Sprintf("%.1f", v)
}

// formatMoney renders an average monetary value as dollars.
func formatMoney(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

// summaryFields formats the RFM averages, or N/A when they are undefined.
func summaryFields(s *core.RFMSummary) (recency, frequency, monetary string) {
	if s == nil {
		return core.NotAvailable, core.NotAvailable, core.NotAvailable
	}
	return formatDecimal(s.AvgRecency), formatDecimal(s.AvgFrequency), formatMoney(s.AvgMonetary)
}

// barWidth scales v against max into a 0..100 percentage, keeping small
// non-zero values visible.
func barWidth(v, max float64) int {
	if max <= 0 || v <= 0 {
		return 0
	}
	width := int(v*100/max + 0.5)
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

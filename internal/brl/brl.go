// Package brl formats values the way Brazilian users read them.
package brl

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Accepted DataEmissao layouts, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Number formats d with two decimals, e.g. "1.234,56".
func Number(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// Currency formats d as Brazilian reais, e.g. "R$ 1.234,56".
func Currency(d decimal.Decimal) string {
	return "R$ " + Number(d)
}

// Percent formats part/total with one decimal, e.g. "80,0%". A zero total yields "0,0%".
func Percent(part, total decimal.Decimal) string {
	if total.IsZero() {
		return printer.Sprintf("%.1f%%", 0.0)
	}
	ratio := part.Div(total).Mul(decimal.NewFromInt(100)).Round(1)
	return printer.Sprintf("%.1f%%", ratio.InexactFloat64())
}

// Date renders an issue date as DD/MM/YYYY. Unrecognised text is returned as is.
func Date(raw string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return raw
}

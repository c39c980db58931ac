package models

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var hundred = decimal.NewFromInt(100)

// PriceMove is the formatted price/change triple every snapshot carries.
type PriceMove struct {
	Price         string
	Change        string
	ChangePercent string
	IsUp          bool
}

// NewPriceMove derives change and percent change of price against reference
// (previous close, or open for providers that only expose the session bar).
// A zero reference yields a "0.00%" percent change.
func NewPriceMove(price, reference decimal.Decimal) PriceMove {
	change := price.Sub(reference)
	pct := decimal.Zero
	if !reference.IsZero() {
		pct = change.Div(reference).Mul(hundred)
	}
	return PriceMoveFromChange(price, change, pct)
}

// PriceMoveFromChange formats values a provider already computed.
func PriceMoveFromChange(price, change, pct decimal.Decimal) PriceMove {
	ch := change.Round(2)
	return PriceMove{
		Price:         price.StringFixed(2),
		Change:        ch.StringFixed(2),
		ChangePercent: pct.StringFixed(2) + "%",
		IsUp:          ch.Sign() >= 0,
	}
}

var numberPrinter = message.NewPrinter(language.English)

// FormatLargeNumber renders market caps and share counts with a T/B/M suffix,
// or with thousands separators below a million. NaN renders as "N/A".
func FormatLargeNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	d := decimal.NewFromFloat(v)
	switch {
	case v >= 1e12:
		return d.Div(decimal.NewFromFloat(1e12)).StringFixed(2) + "T"
	case v >= 1e9:
		return d.Div(decimal.NewFromFloat(1e9)).StringFixed(2) + "B"
	case v >= 1e6:
		return d.Div(decimal.NewFromFloat(1e6)).StringFixed(2) + "M"
	}
	if v == math.Trunc(v) {
		return numberPrinter.Sprintf("%d", int64(v))
	}
	return numberPrinter.Sprintf("%.2f", v)
}

// FormatOptional is FormatLargeNumber for a field the provider may omit.
func FormatOptional(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return FormatLargeNumber(*v)
}

// OrNA substitutes "N/A" for an empty display value.
func OrNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

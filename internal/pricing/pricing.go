// Package pricing computes the derived prices shown for frame variations.
package pricing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// EffectivePrice is the override when set, otherwise the frame's base price.
func EffectivePrice(base float64, override *float64) decimal.Decimal {
	if override != nil {
		return decimal.NewFromFloat(*override)
	}
	return decimal.NewFromFloat(base)
}

// Discounted applies discountPercent (0..100) to price and rounds to cents.
// A nil or zero discount returns the price unchanged.
func Discounted(price decimal.Decimal, discountPercent *float64) decimal.Decimal {
	if discountPercent == nil {
		return price.Round(2)
	}
	pct := decimal.NewFromFloat(*discountPercent)
	factor := decimal.NewFromInt(1).Sub(pct.Div(hundred))
	return price.Mul(factor).Round(2)
}

// DiscountedPrice is the float form stored on a variation.
func DiscountedPrice(base float64, override, discountPercent *float64) float64 {
	f, _ := Discounted(EffectivePrice(base, override), discountPercent).Float64()
	return f
}

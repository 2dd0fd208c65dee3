package services

import (
	"strings"

	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/pricing"
)

// DecorateVariations fills the derived display fields of every variation:
// the hex code of its color and the discounted price.
func DecorateVariations(f *models.Frame, colors []models.ReferenceItem) {
	hexByName := make(map[string]string, len(colors))
	for _, c := range colors {
		hexByName[strings.ToLower(strings.TrimSpace(c.Name))] = c.Hex
	}
	for i := range f.Variations {
		v := &f.Variations[i]
		v.HexColor = hexByName[strings.ToLower(strings.TrimSpace(v.Color))]
		price := pricing.DiscountedPrice(f.Price, v.PriceOverride, v.DiscountPercent)
		v.DiscountedPrice = &price
	}
}

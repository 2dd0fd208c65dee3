// Package gallery is the selection state of the frame detail view.
package gallery

import (
	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/pricing"
)

type View struct {
	frame     *models.Frame
	variation int
	image     int
}

func New(f *models.Frame) *View {
	return &View{frame: f}
}

func (v *View) Frame() *models.Frame { return v.frame }

// Variation returns the selected variation, or nil for a frame without any.
func (v *View) Variation() *models.Variation {
	if len(v.frame.Variations) == 0 {
		return nil
	}
	return &v.frame.Variations[v.variation]
}

func (v *View) VariationIndex() int { return v.variation }
func (v *View) ImageIndex() int     { return v.image }

// SelectVariation switches variation and goes back to its first image.
// Out of range indexes are ignored.
func (v *View) SelectVariation(i int) {
	if i < 0 || i >= len(v.frame.Variations) || i == v.variation {
		return
	}
	v.variation = i
	v.image = 0
}

// Images are the selected variation's images, or the frame's when it has none.
func (v *View) Images() []string {
	if sel := v.Variation(); sel != nil && len(sel.ImageURLs) > 0 {
		return sel.ImageURLs
	}
	return v.frame.ImageURLs
}

// Image returns the current image URL, "" when there is none.
func (v *View) Image() string {
	imgs := v.Images()
	if len(imgs) == 0 {
		return ""
	}
	return imgs[v.image%len(imgs)]
}

func (v *View) NextImage() {
	if n := len(v.Images()); n > 0 {
		v.image = (v.image + 1) % n
	}
}

func (v *View) PrevImage() {
	if n := len(v.Images()); n > 0 {
		v.image = (v.image - 1 + n) % n
	}
}

func (v *View) SelectImage(i int) {
	if i >= 0 && i < len(v.Images()) {
		v.image = i
	}
}

// Price is the price shown for the selected variation.
func (v *View) Price() float64 {
	sel := v.Variation()
	if sel == nil {
		return v.frame.Price
	}
	if sel.DiscountedPrice != nil {
		return *sel.DiscountedPrice
	}
	return pricing.DiscountedPrice(v.frame.Price, sel.PriceOverride, sel.DiscountPercent)
}

// InStock reports whether the selected variation has stock.
func (v *View) InStock() bool {
	sel := v.Variation()
	return v.frame.Available && sel != nil && sel.Quantity > 0
}

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Variation is a color/material combination of a frame with its own stock
// and pricing. HexColor and DiscountedPrice are derived at write time.
type Variation struct {
	ID              *int64   `json:"id,omitempty" bson:"id,omitempty"`
	Color           string   `json:"color" bson:"color"`
	Material        string   `json:"material" bson:"material"`
	Quantity        int      `json:"quantity" bson:"quantity"`
	PriceOverride   *float64 `json:"priceOverride" bson:"price_override,omitempty"`
	DiscountPercent *float64 `json:"discountPercent" bson:"discount_percent,omitempty"`
	ImageURLs       []string `json:"imageUrls" bson:"image_urls"`
	HexColor        string   `json:"hexColor,omitempty" bson:"hex_color,omitempty"`
	DiscountedPrice *float64 `json:"discountedPrice,omitempty" bson:"discounted_price,omitempty"`
}

// VariationInput is one element of the rawVariations part.
type VariationInput struct {
	ID              *int64   `json:"id,omitempty"`
	Color           string   `json:"color" validate:"required"`
	Material        string   `json:"material" validate:"required"`
	Quantity        *int     `json:"quantity" validate:"required,gte=0"`
	PriceOverride   *float64 `json:"priceOverride" validate:"omitempty,gte=0"`
	DiscountPercent *float64 `json:"discountPercent" validate:"omitempty,gte=0,lte=100"`
	ImageURLs       []string `json:"imageUrls"`
}

func (in VariationInput) ToVariation() Variation {
	v := Variation{
		ID:              in.ID,
		Color:           in.Color,
		Material:        in.Material,
		PriceOverride:   in.PriceOverride,
		DiscountPercent: in.DiscountPercent,
		ImageURLs:       in.ImageURLs,
	}
	if in.Quantity != nil {
		v.Quantity = *in.Quantity
	}
	if v.ImageURLs == nil {
		v.ImageURLs = []string{}
	}
	return v
}

// RawVariations decodes either a JSON array or a string holding a JSON array.
// Multipart bodies always carry the string form.
type RawVariations []VariationInput

func (r *RawVariations) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return r.Parse(s)
	}
	var list []VariationInput
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("rawVariations: %w", err)
	}
	*r = list
	return nil
}

// Parse reads the string form of the rawVariations part.
func (r *RawVariations) Parse(s string) error {
	s = string(bytes.TrimSpace([]byte(s)))
	if s == "" {
		*r = nil
		return nil
	}
	var list []VariationInput
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return fmt.Errorf("rawVariations: %w", err)
	}
	*r = list
	return nil
}

package models

import (
	"time"
)

type Category string

const (
	CategorySunglasses   Category = "sunglasses"
	CategoryPrescription Category = "prescription"
	CategoryAIGlasses    Category = "ai-glasses"
)

type Gender string

const (
	GenderMan    Gender = "man"
	GenderWoman  Gender = "woman"
	GenderUnisex Gender = "unisex"
	GenderChild  Gender = "child"
)

type Size string

const (
	SizeExtraSmall Size = "extra-small"
	SizeSmall      Size = "small"
	SizeMedium     Size = "medium"
	SizeLarge      Size = "large"
	SizeExtraLarge Size = "extra-large"
)

type FrameType string

const (
	FrameTypeFullRim FrameType = "full-rim"
	FrameTypeHalfRim FrameType = "half-rim"
	FrameTypeRimless FrameType = "rimless"
)

// Options for the select inputs of the frame form, in display order.
var (
	Categories = []Category{CategorySunglasses, CategoryPrescription, CategoryAIGlasses}
	Genders    = []Gender{GenderMan, GenderWoman, GenderUnisex, GenderChild}
	Sizes      = []Size{SizeExtraSmall, SizeSmall, SizeMedium, SizeLarge, SizeExtraLarge}
	FrameTypes = []FrameType{FrameTypeFullRim, FrameTypeHalfRim, FrameTypeRimless}
)

// Dimensions are millimeter measurements. A nil value means "not provided"
// and must stay nil through any round trip.
type Dimensions struct {
	OverallWidth *float64 `json:"overallWidth" validate:"omitempty,gt=0"`
	LensWidth    *float64 `json:"lensWidth" validate:"omitempty,gt=0"`
	LensHeight   *float64 `json:"lensHeight" validate:"omitempty,gt=0"`
	BridgeWidth  *float64 `json:"bridgeWidth" validate:"omitempty,gt=0"`
	TempleLength *float64 `json:"templeLength" validate:"omitempty,gt=0"`
}

// DimensionFields lists the form/JSON names of the five dimensions in step order.
var DimensionFields = []string{"overallWidth", "lensWidth", "lensHeight", "bridgeWidth", "templeLength"}

// Get returns the dimension stored under a DimensionFields name.
func (d *Dimensions) Get(field string) *float64 {
	switch field {
	case "overallWidth":
		return d.OverallWidth
	case "lensWidth":
		return d.LensWidth
	case "lensHeight":
		return d.LensHeight
	case "bridgeWidth":
		return d.BridgeWidth
	case "templeLength":
		return d.TempleLength
	}
	return nil
}

// Set stores v under a DimensionFields name. Unknown names are ignored.
func (d *Dimensions) Set(field string, v *float64) {
	switch field {
	case "overallWidth":
		d.OverallWidth = v
	case "lensWidth":
		d.LensWidth = v
	case "lensHeight":
		d.LensHeight = v
	case "bridgeWidth":
		d.BridgeWidth = v
	case "templeLength":
		d.TempleLength = v
	}
}

type Frame struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	Category    Category    `json:"category"`
	Gender      Gender      `json:"gender"`
	Size        Size        `json:"size"`
	FrameType   FrameType   `json:"frameType"`
	Shape       string      `json:"shape"`
	Brand       string      `json:"brand"`
	Dimensions  Dimensions  `json:"dimensions"`
	Available   bool        `json:"available"`
	ImageURLs   []string    `json:"imageUrls"`
	Variations  []Variation `json:"variations"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// TotalStock sums the quantity of every variation.
func (f *Frame) TotalStock() int {
	total := 0
	for _, v := range f.Variations {
		total += v.Quantity
	}
	return total
}

// FrameRequest is the create/update payload once decoded from multipart or JSON.
// ID is only meaningful for updates.
type FrameRequest struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name" validate:"required"`
	Description string        `json:"description" validate:"required"`
	Price       *float64      `json:"price" validate:"required,gte=0"`
	Category    Category      `json:"category" validate:"required,oneof=sunglasses prescription ai-glasses"`
	Gender      Gender        `json:"gender" validate:"required,oneof=man woman unisex child"`
	Size        Size          `json:"size" validate:"required,oneof=extra-small small medium large extra-large"`
	FrameType   FrameType     `json:"frameType" validate:"required,oneof=full-rim half-rim rimless"`
	Shape       string        `json:"shape" validate:"required"`
	Brand       string        `json:"brand" validate:"required"`
	Dimensions  Dimensions    `json:"dimensions"`
	Available   bool          `json:"available"`
	ImageURLs   []string      `json:"imageUrl"`
	Variations  RawVariations `json:"rawVariations" validate:"min=1,dive"`
}

func (r *FrameRequest) Validate() map[string]string {
	errors := structErrors(r)
	if len(r.Variations) == 0 {
		errors["variations"] = "At least one variation is required"
		delete(errors, "rawVariations")
	}
	return errors
}

// ValidateUpdate adds the identifier rule on top of Validate.
func (r *FrameRequest) ValidateUpdate() map[string]string {
	errors := r.Validate()
	if r.ID <= 0 {
		errors["id"] = "A valid product id is required"
	}
	return errors
}

// ToFrame builds the frame to persist. Variation ids sent by the client are
// kept so persisted variations keep their identity across updates.
func (r *FrameRequest) ToFrame(imageURLs []string) *Frame {
	frame := &Frame{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Gender:      r.Gender,
		Size:        r.Size,
		FrameType:   r.FrameType,
		Shape:       r.Shape,
		Brand:       r.Brand,
		Dimensions:  r.Dimensions,
		Available:   r.Available,
		ImageURLs:   imageURLs,
		Variations:  make([]Variation, 0, len(r.Variations)),
	}
	if r.Price != nil {
		frame.Price = *r.Price
	}
	if frame.ImageURLs == nil {
		frame.ImageURLs = []string{}
	}
	for _, in := range r.Variations {
		frame.Variations = append(frame.Variations, in.ToVariation())
	}
	return frame
}

// FilterSelection is the storefront browse filter. It is built per request
// from the query string and passed down explicitly.
type FilterSelection struct {
	Query     string
	Brands    []string
	Category  Category
	Gender    Gender
	Shape     string
	Size      Size
	FrameType FrameType
	MinPrice  *float64
	MaxPrice  *float64
	Available *bool
}

// Matches reports whether a frame passes every populated filter.
func (s FilterSelection) Matches(f *Frame) bool {
	if s.Query != "" && !containsFold(f.Name, s.Query) && !containsFold(f.Description, s.Query) && !containsFold(f.Brand, s.Query) {
		return false
	}
	if len(s.Brands) > 0 {
		found := false
		for _, b := range s.Brands {
			if equalFold(b, f.Brand) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if s.Category != "" && s.Category != f.Category {
		return false
	}
	if s.Gender != "" && s.Gender != f.Gender {
		return false
	}
	if s.Shape != "" && !equalFold(s.Shape, f.Shape) {
		return false
	}
	if s.Size != "" && s.Size != f.Size {
		return false
	}
	if s.FrameType != "" && s.FrameType != f.FrameType {
		return false
	}
	if s.MinPrice != nil && f.Price < *s.MinPrice {
		return false
	}
	if s.MaxPrice != nil && f.Price > *s.MaxPrice {
		return false
	}
	if s.Available != nil && *s.Available != f.Available {
		return false
	}
	return true
}

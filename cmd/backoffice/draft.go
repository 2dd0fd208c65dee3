package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/variations"
	"github.com/opticshop/backend/internal/wizard"
)

// Draft is a frame written as YAML for frames create and frames edit.
// Numbers are kept as text so the form validates exactly what was typed.
// Empty values leave an edited frame unchanged.
type Draft struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Price       string            `yaml:"price"`
	Brand       string            `yaml:"brand"`
	Category    string            `yaml:"category"`
	Gender      string            `yaml:"gender"`
	Size        string            `yaml:"size"`
	FrameType   string            `yaml:"frameType"`
	Shape       string            `yaml:"shape"`
	Available   *bool             `yaml:"available"`
	Dimensions  map[string]string `yaml:"dimensions"`
	Images      []string          `yaml:"images"`
	KeepImages  []string          `yaml:"keepImages"`
	Variations  []DraftVariation  `yaml:"variations"`
}

// DraftVariation is matched to the frame's variations by position. A nil
// keepImages keeps the stored images of an existing variation.
type DraftVariation struct {
	Color           string   `yaml:"color"`
	Material        string   `yaml:"material"`
	Quantity        string   `yaml:"quantity"`
	PriceOverride   string   `yaml:"priceOverride"`
	DiscountPercent string   `yaml:"discountPercent"`
	Images          []string `yaml:"images"`
	KeepImages      []string `yaml:"keepImages"`
}

func LoadDraft(path string) (*Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Draft
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for name := range d.Dimensions {
		if !knownDimension(name) {
			return nil, fmt.Errorf("parse %s: unknown dimension %q", path, name)
		}
	}
	return &d, nil
}

func knownDimension(name string) bool {
	for _, dim := range models.DimensionFields {
		if dim == name {
			return true
		}
	}
	return false
}

// Apply copies the draft into the form.
func (d *Draft) Apply(f *wizard.Form, images imageLoader) error {
	scalars := map[string]string{
		wizard.FieldName:        d.Name,
		wizard.FieldDescription: d.Description,
		wizard.FieldPrice:       d.Price,
		wizard.FieldBrand:       d.Brand,
		wizard.FieldCategory:    d.Category,
		wizard.FieldGender:      d.Gender,
		wizard.FieldSize:        d.Size,
		wizard.FieldFrameType:   d.FrameType,
		wizard.FieldShape:       d.Shape,
	}
	for field, v := range scalars {
		if v == "" {
			continue
		}
		if err := f.Set(field, v); err != nil {
			return err
		}
	}
	for dim, v := range d.Dimensions {
		if err := f.Set(dim, v); err != nil {
			return err
		}
	}
	if d.Available != nil {
		f.SetAvailable(*d.Available)
	}

	if d.KeepImages != nil {
		keep := make(map[string]bool, len(d.KeepImages))
		for _, u := range d.KeepImages {
			keep[u] = true
		}
		for _, u := range f.RetainedImages() {
			if !keep[u] {
				f.RemoveRetained(u)
			}
		}
	}
	for _, p := range d.Images {
		img, err := images.load(p)
		if err != nil {
			return err
		}
		f.AddImage(img)
	}

	if d.Variations == nil {
		return nil
	}
	return d.applyVariations(f, images)
}

// applyVariations matches draft variations to the form's by position so
// edited variations keep their stored id. Surplus form variations are
// dropped from the end.
func (d *Draft) applyVariations(f *wizard.Form, images imageLoader) error {
	for f.Variations().Len() > len(d.Variations) {
		if err := f.RemoveVariation(f.Variations().Len() - 1); err != nil {
			return err
		}
	}
	for i, dv := range d.Variations {
		if i >= f.Variations().Len() {
			f.AddVariation()
			if dv.KeepImages == nil {
				dv.KeepImages = []string{}
			}
		}
		fields := []struct {
			field variations.Field
			value string
		}{
			{variations.FieldColor, dv.Color},
			{variations.FieldMaterial, dv.Material},
			{variations.FieldQuantity, dv.Quantity},
			{variations.FieldPriceOverride, dv.PriceOverride},
			{variations.FieldDiscountPercent, dv.DiscountPercent},
		}
		for _, fv := range fields {
			if err := f.UpdateVariation(i, fv.field, fv.value); err != nil {
				return fmt.Errorf("variation %d: %w", i, err)
			}
		}
		if dv.KeepImages != nil {
			if err := f.Variations().SetImageURLs(i, dv.KeepImages); err != nil {
				return fmt.Errorf("variation %d: %w", i, err)
			}
		}
		for _, p := range dv.Images {
			img, err := images.load(p)
			if err != nil {
				return err
			}
			if err := f.AddVariationImage(i, img); err != nil {
				return fmt.Errorf("variation %d: %w", i, err)
			}
		}
	}
	return nil
}

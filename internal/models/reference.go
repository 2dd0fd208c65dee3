package models

import "fmt"

// ReferenceKind names one of the lookup lists feeding the frame form selects.
type ReferenceKind string

const (
	KindBrand    ReferenceKind = "brand"
	KindColor    ReferenceKind = "color"
	KindMaterial ReferenceKind = "material"
	KindShape    ReferenceKind = "shape"
)

// ReferenceKinds is the load order used by the back-office.
var ReferenceKinds = []ReferenceKind{KindBrand, KindColor, KindMaterial, KindShape}

var kindPaths = map[ReferenceKind]string{
	KindBrand:    "marque",
	KindColor:    "couleur",
	KindMaterial: "materiauProduit",
	KindShape:    "formeProduit",
}

// Path is the URL segment the API exposes the kind under.
func (k ReferenceKind) Path() string {
	return kindPaths[k]
}

// KindFromPath maps a URL segment back to its kind.
func KindFromPath(path string) (ReferenceKind, error) {
	for k, p := range kindPaths {
		if p == path {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown reference kind %q", path)
}

type ReferenceItem struct {
	ID   int64         `json:"id"`
	Kind ReferenceKind `json:"-"`
	Name string        `json:"name"`
	Slug string        `json:"slug"`
	Hex  string        `json:"hex,omitempty"`
}

type CreateReferenceRequest struct {
	Name string `json:"name" validate:"required"`
	Hex  string `json:"hex" validate:"omitempty,hexcolor"`
}

func (r *CreateReferenceRequest) Validate(kind ReferenceKind) map[string]string {
	errors := structErrors(r)
	if kind == KindColor && r.Hex == "" {
		errors["hex"] = "This field is required"
	}
	if kind != KindColor && r.Hex != "" {
		errors["hex"] = "Only colors carry a hex code"
	}
	return errors
}

package models

import "time"

type LensType string

const (
	LensSingleVision LensType = "single-vision"
	LensProgressive  LensType = "progressive"
	LensBifocal      LensType = "bifocal"
)

type Lens struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	LensType        LensType  `json:"lensType"`
	RefractiveIndex *float64  `json:"refractiveIndex,omitempty"`
	Treatment       string    `json:"treatment"`
	Price           float64   `json:"price"`
	CreatedAt       time.Time `json:"createdAt"`
}

type CreateLensRequest struct {
	Name            string   `json:"name" validate:"required"`
	LensType        LensType `json:"lensType" validate:"required,oneof=single-vision progressive bifocal"`
	RefractiveIndex *float64 `json:"refractiveIndex" validate:"omitempty,gt=0"`
	Treatment       string   `json:"treatment"`
	Price           *float64 `json:"price" validate:"required,gte=0"`
}

func (r *CreateLensRequest) Validate() map[string]string {
	return structErrors(r)
}

func (r *CreateLensRequest) ToLens() *Lens {
	l := &Lens{
		Name:            r.Name,
		LensType:        r.LensType,
		RefractiveIndex: r.RefractiveIndex,
		Treatment:       r.Treatment,
	}
	if r.Price != nil {
		l.Price = *r.Price
	}
	return l
}

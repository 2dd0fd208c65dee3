package listing

import "github.com/opticshop/backend/internal/models"

// Search fields per record type.

func FrameFields(f models.Frame) []string {
	return []string{f.Name, f.Brand, f.Shape}
}

func LensFields(l models.Lens) []string {
	return []string{l.Name, string(l.LensType), l.Treatment}
}

func ReferenceFields(r models.ReferenceItem) []string {
	return []string{r.Name, r.Slug}
}

// Package variations holds the editable list of variation drafts of the
// frame form. Values are kept as the raw strings the operator typed so an
// invalid entry can be shown back unchanged.
package variations

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/opticshop/backend/internal/models"
)

type Field string

const (
	FieldColor           Field = "color"
	FieldMaterial        Field = "material"
	FieldQuantity        Field = "quantity"
	FieldPriceOverride   Field = "priceOverride"
	FieldDiscountPercent Field = "discountPercent"
)

// Fields is the display order of a draft's inputs.
var Fields = []Field{FieldColor, FieldMaterial, FieldQuantity, FieldPriceOverride, FieldDiscountPercent}

const (
	msgRequired = "Ce champ est requis"
	msgQuantity = "La quantité doit être un entier positif ou nul"
	msgPrice    = "Le prix doit être un nombre positif ou nul"
	msgDiscount = "La remise doit être comprise entre 0 et 100"
)

// ErrInvalid is returned by Records while any draft has an error.
var ErrInvalid = errors.New("variations: invalid draft")

// ErrOutOfRange is returned for a position outside the list.
var ErrOutOfRange = errors.New("variations: index out of range")

type Draft struct {
	ID              *int64
	Color           string
	Material        string
	Quantity        string
	PriceOverride   string
	DiscountPercent string
	ImageURLs       []string
}

func (d *Draft) get(f Field) string {
	switch f {
	case FieldColor:
		return d.Color
	case FieldMaterial:
		return d.Material
	case FieldQuantity:
		return d.Quantity
	case FieldPriceOverride:
		return d.PriceOverride
	case FieldDiscountPercent:
		return d.DiscountPercent
	}
	return ""
}

func (d *Draft) set(f Field, v string) bool {
	switch f {
	case FieldColor:
		d.Color = v
	case FieldMaterial:
		d.Material = v
	case FieldQuantity:
		d.Quantity = v
	case FieldPriceOverride:
		d.PriceOverride = v
	case FieldDiscountPercent:
		d.DiscountPercent = v
	default:
		return false
	}
	return true
}

// Editor is the ordered list of drafts with per-field touch tracking.
type Editor struct {
	drafts   []Draft
	touched  []map[Field]bool
	revealed bool
}

func NewEditor() *Editor {
	return &Editor{}
}

// FromVariations seeds an editor with persisted variations.
func FromVariations(vs []models.Variation) *Editor {
	e := NewEditor()
	for _, v := range vs {
		d := Draft{
			ID:        v.ID,
			Color:     v.Color,
			Material:  v.Material,
			Quantity:  strconv.Itoa(v.Quantity),
			ImageURLs: append([]string(nil), v.ImageURLs...),
		}
		if v.PriceOverride != nil {
			d.PriceOverride = formatFloat(*v.PriceOverride)
		}
		if v.DiscountPercent != nil {
			d.DiscountPercent = formatFloat(*v.DiscountPercent)
		}
		e.drafts = append(e.drafts, d)
		e.touched = append(e.touched, map[Field]bool{})
	}
	return e
}

func (e *Editor) Len() int {
	return len(e.drafts)
}

// Drafts returns a copy of the current drafts.
func (e *Editor) Drafts() []Draft {
	out := make([]Draft, len(e.drafts))
	copy(out, e.drafts)
	return out
}

func (e *Editor) Draft(i int) (Draft, error) {
	if i < 0 || i >= len(e.drafts) {
		return Draft{}, ErrOutOfRange
	}
	return e.drafts[i], nil
}

// Append adds a blank draft and returns its position.
func (e *Editor) Append() int {
	e.drafts = append(e.drafts, Draft{})
	e.touched = append(e.touched, map[Field]bool{})
	return len(e.drafts) - 1
}

// Remove deletes the draft at i. Later drafts and their touch state shift down.
func (e *Editor) Remove(i int) error {
	if i < 0 || i >= len(e.drafts) {
		return ErrOutOfRange
	}
	e.drafts = append(e.drafts[:i], e.drafts[i+1:]...)
	e.touched = append(e.touched[:i], e.touched[i+1:]...)
	return nil
}

func (e *Editor) Update(i int, f Field, value string) error {
	if i < 0 || i >= len(e.drafts) {
		return ErrOutOfRange
	}
	if !e.drafts[i].set(f, value) {
		return errors.New("variations: unknown field " + string(f))
	}
	return nil
}

// SetImageURLs replaces the existing images kept for draft i.
func (e *Editor) SetImageURLs(i int, urls []string) error {
	if i < 0 || i >= len(e.drafts) {
		return ErrOutOfRange
	}
	e.drafts[i].ImageURLs = append([]string(nil), urls...)
	return nil
}

// Touch marks a field as visited so its error becomes visible.
func (e *Editor) Touch(i int, f Field) {
	if i < 0 || i >= len(e.touched) {
		return
	}
	e.touched[i][f] = true
}

func (e *Editor) Touched(i int, f Field) bool {
	if i < 0 || i >= len(e.touched) {
		return false
	}
	return e.touched[i][f]
}

// Reveal makes every error visible, touched or not.
func (e *Editor) Reveal() {
	e.revealed = true
}

func (e *Editor) Revealed() bool {
	return e.revealed
}

// Errors returns every validation error of draft i.
func (e *Editor) Errors(i int) map[Field]string {
	errs := map[Field]string{}
	if i < 0 || i >= len(e.drafts) {
		return errs
	}
	d := &e.drafts[i]
	if strings.TrimSpace(d.Color) == "" {
		errs[FieldColor] = msgRequired
	}
	if strings.TrimSpace(d.Material) == "" {
		errs[FieldMaterial] = msgRequired
	}
	if _, ok := ParseQuantity(d.Quantity); !ok {
		errs[FieldQuantity] = msgQuantity
	}
	if s := strings.TrimSpace(d.PriceOverride); s != "" {
		if v, err := decimal.NewFromString(s); err != nil || v.IsNegative() {
			errs[FieldPriceOverride] = msgPrice
		}
	}
	if s := strings.TrimSpace(d.DiscountPercent); s != "" {
		if v, err := decimal.NewFromString(s); err != nil || v.IsNegative() || v.GreaterThan(decimal.NewFromInt(100)) {
			errs[FieldDiscountPercent] = msgDiscount
		}
	}
	return errs
}

// VisibleErrors filters Errors down to touched fields unless revealed.
func (e *Editor) VisibleErrors(i int) map[Field]string {
	errs := e.Errors(i)
	if e.revealed {
		return errs
	}
	for f := range errs {
		if !e.Touched(i, f) {
			delete(errs, f)
		}
	}
	return errs
}

// Valid reports whether every draft is valid. An empty list is valid here;
// the form decides whether at least one draft is required.
func (e *Editor) Valid() bool {
	for i := range e.drafts {
		if len(e.Errors(i)) > 0 {
			return false
		}
	}
	return true
}

// Records converts the drafts to wire records.
func (e *Editor) Records() ([]models.VariationInput, error) {
	if !e.Valid() {
		return nil, ErrInvalid
	}
	out := make([]models.VariationInput, 0, len(e.drafts))
	for _, d := range e.drafts {
		qty, _ := ParseQuantity(d.Quantity)
		in := models.VariationInput{
			ID:              d.ID,
			Color:           strings.TrimSpace(d.Color),
			Material:        strings.TrimSpace(d.Material),
			Quantity:        &qty,
			PriceOverride:   parseOptional(d.PriceOverride),
			DiscountPercent: parseOptional(d.DiscountPercent),
			ImageURLs:       append([]string{}, d.ImageURLs...),
		}
		out = append(out, in)
	}
	return out, nil
}

// ParseQuantity accepts only base-10 integers >= 0.
func ParseQuantity(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func parseOptional(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	f := v.InexactFloat64()
	return &f
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Package wizard is the four-step frame form used to create or edit a frame.
// The form is not safe for concurrent use apart from Submit, which can be
// called again while a submission is running and then returns
// ErrSubmitInFlight.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/opticshop/backend/internal/client"
	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/variations"
)

type Step int

const (
	StepGeneralInfo Step = iota + 1
	StepDimensions
	StepImages
	StepVariations
)

var Steps = []Step{StepGeneralInfo, StepDimensions, StepImages, StepVariations}

func (s Step) String() string {
	switch s {
	case StepGeneralInfo:
		return "general"
	case StepDimensions:
		return "dimensions"
	case StepImages:
		return "images"
	case StepVariations:
		return "variations"
	}
	return "step(" + strconv.Itoa(int(s)) + ")"
}

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// Field names of steps 1 and 2. They match the API's field error keys.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldBrand       = "brand"
	FieldCategory    = "category"
	FieldGender      = "gender"
	FieldSize        = "size"
	FieldFrameType   = "frameType"
	FieldShape       = "shape"
	FieldImages      = "images"
	FieldVariations  = "variations"
)

// GeneralFields are the step 1 inputs in display order.
var GeneralFields = []string{FieldName, FieldDescription, FieldPrice, FieldBrand, FieldCategory, FieldGender, FieldSize, FieldFrameType, FieldShape}

var (
	ErrNoRealID       = errors.New("wizard: frame has no persisted id")
	ErrSubmitInFlight = errors.New("wizard: a submission is already in flight")
	ErrNotFinalStep   = errors.New("wizard: submit is only available on the last step")
	ErrUnknownField   = errors.New("wizard: unknown field")
)

// BlockedError is returned when Submit finds an invalid step.
type BlockedError struct {
	Step Step
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("wizard: step %s is incomplete", e.Step)
}

// SubmitError carries the one line to show after a failed submission.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string { return e.Message }
func (e *SubmitError) Unwrap() error { return e.Err }

// Submitter sends the assembled payload. *client.Client satisfies it.
type Submitter interface {
	CreateFrame(ctx context.Context, p *client.FramePayload) (*models.Frame, error)
	UpdateFrame(ctx context.Context, p *client.FramePayload) (*models.Frame, error)
}

type Result struct {
	Frame  *models.Frame
	Notice string
}

const (
	msgRequired      = "Ce champ est requis"
	msgPrice         = "Le prix doit être un nombre positif ou nul"
	msgDimension     = "La valeur doit être un nombre strictement positif"
	msgChoice        = "Valeur non valide"
	msgImages        = "Ajoutez au moins une image"
	msgVariations    = "Ajoutez au moins une variation"
	noticeCreated    = "Produit ajouté avec succès"
	noticeUpdated    = "Produit modifié avec succès"
	variationKeyFmt  = "variations[%d].%s"
	defaultAvailable = true
)

var variationKey = regexp.MustCompile(`^variations\[(\d+)\]\.(\w+)$`)

type Form struct {
	mode       Mode
	id         int64
	step       Step
	values     map[string]string
	available  bool
	images     []client.ImageFile
	retained   []string
	varImages  map[int][]client.ImageFile
	vars       *variations.Editor
	touched    map[string]bool
	revealed   map[Step]bool
	serverErrs map[string]string
	lastError  string
	inFlight   atomic.Bool
}

func newForm(mode Mode) *Form {
	return &Form{
		mode:       mode,
		step:       StepGeneralInfo,
		values:     map[string]string{},
		available:  defaultAvailable,
		varImages:  map[int][]client.ImageFile{},
		vars:       variations.NewEditor(),
		touched:    map[string]bool{},
		revealed:   map[Step]bool{},
		serverErrs: map[string]string{},
	}
}

// NewCreate starts an empty form.
func NewCreate() *Form {
	return newForm(ModeCreate)
}

// NewEdit loads an existing frame. The frame must carry a genuine id.
func NewEdit(f *models.Frame) (*Form, error) {
	if f == nil || f.ID <= 0 {
		return nil, ErrNoRealID
	}
	form := newForm(ModeEdit)
	form.id = f.ID
	form.values[FieldName] = f.Name
	form.values[FieldDescription] = f.Description
	form.values[FieldPrice] = formatFloat(f.Price)
	form.values[FieldBrand] = f.Brand
	form.values[FieldCategory] = string(f.Category)
	form.values[FieldGender] = string(f.Gender)
	form.values[FieldSize] = string(f.Size)
	form.values[FieldFrameType] = string(f.FrameType)
	form.values[FieldShape] = f.Shape
	for _, dim := range models.DimensionFields {
		if v := f.Dimensions.Get(dim); v != nil {
			form.values[dim] = formatFloat(*v)
		}
	}
	form.available = f.Available
	form.retained = append([]string(nil), f.ImageURLs...)
	form.vars = variations.FromVariations(f.Variations)
	return form, nil
}

// NewEditFromRow opens a listed row. Malformed rows are refused.
func NewEditFromRow(row client.Row[models.Frame]) (*Form, error) {
	if !row.Deletable() {
		return nil, ErrNoRealID
	}
	f := row.Record
	f.ID = row.ID
	return NewEdit(&f)
}

func (f *Form) Mode() Mode     { return f.mode }
func (f *Form) ID() int64      { return f.id }
func (f *Form) Step() Step     { return f.step }
func (f *Form) InFlight() bool { return f.inFlight.Load() }

// LastError is the message of the last failed submission.
func (f *Form) LastError() string { return f.lastError }

func isFormField(name string) bool {
	for _, n := range GeneralFields {
		if n == name {
			return true
		}
	}
	for _, n := range models.DimensionFields {
		if n == name {
			return true
		}
	}
	return false
}

// Set stores the raw input of a step 1 or step 2 field.
func (f *Form) Set(field, value string) error {
	if !isFormField(field) {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	f.values[field] = value
	delete(f.serverErrs, field)
	return nil
}

func (f *Form) Value(field string) string {
	return f.values[field]
}

func (f *Form) SetAvailable(v bool) { f.available = v }
func (f *Form) Available() bool     { return f.available }

// Touch marks a field as visited.
func (f *Form) Touch(field string) {
	f.touched[field] = true
}

// Images.

func (f *Form) AddImage(img client.ImageFile) {
	f.images = append(f.images, img)
	delete(f.serverErrs, FieldImages)
}

func (f *Form) RemoveImage(i int) {
	if i >= 0 && i < len(f.images) {
		f.images = append(f.images[:i], f.images[i+1:]...)
	}
}

func (f *Form) Images() []client.ImageFile {
	return append([]client.ImageFile(nil), f.images...)
}

// RetainedImages are the already stored images the frame keeps.
func (f *Form) RetainedImages() []string {
	return append([]string(nil), f.retained...)
}

func (f *Form) RemoveRetained(url string) {
	for i, u := range f.retained {
		if u == url {
			f.retained = append(f.retained[:i], f.retained[i+1:]...)
			return
		}
	}
}

// Variations.

func (f *Form) Variations() *variations.Editor {
	return f.vars
}

func (f *Form) AddVariation() int {
	delete(f.serverErrs, FieldVariations)
	return f.vars.Append()
}

// RemoveVariation drops draft i together with its pending uploads.
func (f *Form) RemoveVariation(i int) error {
	if err := f.vars.Remove(i); err != nil {
		return err
	}
	shifted := make(map[int][]client.ImageFile, len(f.varImages))
	for idx, files := range f.varImages {
		switch {
		case idx < i:
			shifted[idx] = files
		case idx > i:
			shifted[idx-1] = files
		}
	}
	f.varImages = shifted

	serverErrs := make(map[string]string, len(f.serverErrs))
	for k, v := range f.serverErrs {
		m := variationKey.FindStringSubmatch(k)
		if m == nil {
			serverErrs[k] = v
			continue
		}
		idx, _ := strconv.Atoi(m[1])
		switch {
		case idx < i:
			serverErrs[k] = v
		case idx > i:
			serverErrs[fmt.Sprintf(variationKeyFmt, idx-1, m[2])] = v
		}
	}
	f.serverErrs = serverErrs
	return nil
}

func (f *Form) UpdateVariation(i int, field variations.Field, value string) error {
	if err := f.vars.Update(i, field, value); err != nil {
		return err
	}
	delete(f.serverErrs, fmt.Sprintf(variationKeyFmt, i, field))
	return nil
}

func (f *Form) AddVariationImage(i int, img client.ImageFile) error {
	if i < 0 || i >= f.vars.Len() {
		return variations.ErrOutOfRange
	}
	f.varImages[i] = append(f.varImages[i], img)
	return nil
}

// Validation.

// StepErrors returns every error of step s, client-side and server-side.
func (f *Form) StepErrors(s Step) map[string]string {
	errs := f.clientErrors(s)
	for k, v := range f.serverErrs {
		if stepOf(k) == s {
			if _, ok := errs[k]; !ok {
				errs[k] = v
			}
		}
	}
	return errs
}

// VisibleErrors returns the errors of s that should be displayed: touched
// fields, every field once the step was revealed, and all server errors.
func (f *Form) VisibleErrors(s Step) map[string]string {
	visible := map[string]string{}
	for k, v := range f.clientErrors(s) {
		if f.revealed[s] || f.isTouched(k) {
			visible[k] = v
		}
	}
	for k, v := range f.serverErrs {
		if stepOf(k) == s {
			visible[k] = v
		}
	}
	return visible
}

// ServerErrors returns field errors the API reported that belong to no step.
func (f *Form) ServerErrors() map[string]string {
	out := map[string]string{}
	for k, v := range f.serverErrs {
		if stepOf(k) == 0 {
			out[k] = v
		}
	}
	return out
}

func (f *Form) Revealed(s Step) bool {
	return f.revealed[s]
}

func (f *Form) reveal(s Step) {
	f.revealed[s] = true
	if s == StepVariations {
		f.vars.Reveal()
	}
}

func (f *Form) isTouched(key string) bool {
	if m := variationKey.FindStringSubmatch(key); m != nil {
		i, _ := strconv.Atoi(m[1])
		return f.vars.Touched(i, variations.Field(m[2]))
	}
	return f.touched[key]
}

func (f *Form) clientErrors(s Step) map[string]string {
	errs := map[string]string{}
	switch s {
	case StepGeneralInfo:
		for _, name := range []string{FieldName, FieldDescription, FieldBrand, FieldShape} {
			if strings.TrimSpace(f.values[name]) == "" {
				errs[name] = msgRequired
			}
		}
		if p := strings.TrimSpace(f.values[FieldPrice]); p == "" {
			errs[FieldPrice] = msgRequired
		} else if d, err := decimal.NewFromString(p); err != nil || d.IsNegative() {
			errs[FieldPrice] = msgPrice
		}
		checkChoice(errs, FieldCategory, f.values[FieldCategory], models.Categories)
		checkChoice(errs, FieldGender, f.values[FieldGender], models.Genders)
		checkChoice(errs, FieldSize, f.values[FieldSize], models.Sizes)
		checkChoice(errs, FieldFrameType, f.values[FieldFrameType], models.FrameTypes)
	case StepDimensions:
		for _, dim := range models.DimensionFields {
			raw := strings.TrimSpace(f.values[dim])
			if raw == "" {
				errs[dim] = msgRequired
				continue
			}
			if d, err := decimal.NewFromString(raw); err != nil || !d.IsPositive() {
				errs[dim] = msgDimension
			}
		}
	case StepImages:
		if len(f.images)+len(f.retained) == 0 {
			errs[FieldImages] = msgImages
		}
	case StepVariations:
		if f.vars.Len() == 0 {
			errs[FieldVariations] = msgVariations
		}
		for i := 0; i < f.vars.Len(); i++ {
			for field, msg := range f.vars.Errors(i) {
				errs[fmt.Sprintf(variationKeyFmt, i, field)] = msg
			}
		}
	}
	return errs
}

func checkChoice[T ~string](errs map[string]string, field, value string, allowed []T) {
	value = strings.TrimSpace(value)
	if value == "" {
		errs[field] = msgRequired
		return
	}
	for _, a := range allowed {
		if string(a) == value {
			return
		}
	}
	errs[field] = msgChoice
}

func stepOf(key string) Step {
	switch {
	case key == FieldImages || key == "imageUrl":
		return StepImages
	case key == FieldVariations || strings.HasPrefix(key, FieldVariations+"["):
		return StepVariations
	}
	for _, n := range GeneralFields {
		if n == key {
			return StepGeneralInfo
		}
	}
	for _, n := range models.DimensionFields {
		if n == key {
			return StepDimensions
		}
	}
	return 0
}

// Navigation.

// Next advances when the current step validates. Otherwise the step is
// unchanged and its errors are revealed.
func (f *Form) Next() bool {
	if f.step == StepVariations {
		return false
	}
	if len(f.StepErrors(f.step)) > 0 {
		f.reveal(f.step)
		return false
	}
	f.step++
	return true
}

// Back goes to the previous step. It is a no-op on the first one.
func (f *Form) Back() {
	if f.step > StepGeneralInfo {
		f.step--
	}
}

// Payload assembles what Submit sends. Empty dimensions stay nil.
func (f *Form) Payload() (*client.FramePayload, error) {
	recs, err := f.vars.Records()
	if err != nil {
		return nil, err
	}
	p := &client.FramePayload{
		ID:                f.id,
		Name:              strings.TrimSpace(f.values[FieldName]),
		Description:       strings.TrimSpace(f.values[FieldDescription]),
		Category:          models.Category(strings.TrimSpace(f.values[FieldCategory])),
		Gender:            models.Gender(strings.TrimSpace(f.values[FieldGender])),
		Size:              models.Size(strings.TrimSpace(f.values[FieldSize])),
		FrameType:         models.FrameType(strings.TrimSpace(f.values[FieldFrameType])),
		Shape:             strings.TrimSpace(f.values[FieldShape]),
		Brand:             strings.TrimSpace(f.values[FieldBrand]),
		Available:         f.available,
		Images:            append([]client.ImageFile(nil), f.images...),
		RetainedImageURLs: append([]string(nil), f.retained...),
		Variations:        recs,
	}
	if v := parseNumber(f.values[FieldPrice]); v != nil {
		p.Price = *v
	}
	for _, dim := range models.DimensionFields {
		p.Dimensions.Set(dim, parseNumber(f.values[dim]))
	}
	if len(f.varImages) > 0 {
		p.VariationImages = make(map[int][]client.ImageFile, len(f.varImages))
		for i, files := range f.varImages {
			if len(files) > 0 {
				p.VariationImages[i] = append([]client.ImageFile(nil), files...)
			}
		}
	}
	return p, nil
}

// Submit validates every step and sends the frame exactly once. On failure
// every entered value is kept and API field errors are merged into the
// form's error state.
func (f *Form) Submit(ctx context.Context, s Submitter) (*Result, error) {
	if !f.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmitInFlight
	}
	defer f.inFlight.Store(false)

	if f.step != StepVariations {
		return nil, ErrNotFinalStep
	}
	for _, st := range Steps {
		if len(f.StepErrors(st)) > 0 {
			f.reveal(st)
			return nil, &BlockedError{Step: st}
		}
	}

	p, err := f.Payload()
	if err != nil {
		f.reveal(StepVariations)
		return nil, &BlockedError{Step: StepVariations}
	}

	var (
		saved  *models.Frame
		notice string
	)
	if f.mode == ModeEdit {
		saved, err = s.UpdateFrame(ctx, p)
		notice = noticeUpdated
	} else {
		saved, err = s.CreateFrame(ctx, p)
		notice = noticeCreated
	}
	if err != nil {
		f.mergeServerErrors(err)
		f.lastError = client.UserMessage(err)
		return nil, &SubmitError{Message: f.lastError, Err: err}
	}
	f.lastError = ""
	return &Result{Frame: saved, Notice: notice}, nil
}

func (f *Form) mergeServerErrors(err error) {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return
	}
	for k, v := range apiErr.Fields {
		f.serverErrs[k] = v
	}
}

func parseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	v := d.InexactFloat64()
	return &v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

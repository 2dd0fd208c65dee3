package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strconv"
	"strings"

	"github.com/opticshop/backend/internal/models"
)

// ImageFile is an image selected for upload.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// FramePayload is everything a create or update submits. ID is zero for a create.
type FramePayload struct {
	ID                int64
	Name              string
	Description       string
	Price             float64
	Category          models.Category
	Gender            models.Gender
	Size              models.Size
	FrameType         models.FrameType
	Shape             string
	Brand             string
	Dimensions        models.Dimensions
	Available         bool
	Images            []ImageFile
	RetainedImageURLs []string
	Variations        []models.VariationInput
	VariationImages   map[int][]ImageFile
}

func (p *FramePayload) hasFiles() bool {
	if len(p.Images) > 0 {
		return true
	}
	for _, files := range p.VariationImages {
		if len(files) > 0 {
			return true
		}
	}
	return false
}

func (p *FramePayload) variations() []models.VariationInput {
	if p.Variations == nil {
		return []models.VariationInput{}
	}
	return p.Variations
}

// CreateFrame posts the payload as multipart/form-data.
func (c *Client) CreateFrame(ctx context.Context, p *FramePayload) (*models.Frame, error) {
	return c.sendFrameMultipart(ctx, http.MethodPost, "/produit/add", p)
}

// UpdateFrame uses multipart when new files are attached and JSON otherwise.
func (c *Client) UpdateFrame(ctx context.Context, p *FramePayload) (*models.Frame, error) {
	if p.ID <= 0 {
		return nil, fmt.Errorf("update frame: missing id")
	}
	if p.hasFiles() {
		return c.sendFrameMultipart(ctx, http.MethodPut, "/produit/update", p)
	}

	body, err := c.sendJSON(ctx, http.MethodPut, "/produit/update", jsonFrameBody{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Category:      p.Category,
		Gender:        p.Gender,
		Size:          p.Size,
		FrameType:     p.FrameType,
		Shape:         p.Shape,
		Brand:         p.Brand,
		Dimensions:    p.Dimensions,
		Available:     p.Available,
		ImageURLs:     nonNil(p.RetainedImageURLs),
		RawVariations: p.variations(),
	})
	if err != nil {
		return nil, err
	}
	return decodeFrame(body)
}

type jsonFrameBody struct {
	ID            int64                   `json:"id"`
	Name          string                  `json:"name"`
	Description   string                  `json:"description"`
	Price         float64                 `json:"price"`
	Category      models.Category         `json:"category"`
	Gender        models.Gender           `json:"gender"`
	Size          models.Size             `json:"size"`
	FrameType     models.FrameType        `json:"frameType"`
	Shape         string                  `json:"shape"`
	Brand         string                  `json:"brand"`
	Dimensions    models.Dimensions       `json:"dimensions"`
	Available     bool                    `json:"available"`
	ImageURLs     []string                `json:"imageUrl"`
	RawVariations []models.VariationInput `json:"rawVariations"`
}

func (c *Client) sendFrameMultipart(ctx context.Context, method, path string, p *FramePayload) (*models.Frame, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := writeFrameForm(mw, p); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, method, path, &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return decodeFrame(body)
}

func writeFrameForm(mw *multipart.Writer, p *FramePayload) error {
	fields := [][2]string{
		{"name", p.Name},
		{"description", p.Description},
		{"price", strconv.FormatFloat(p.Price, 'f', -1, 64)},
		{"category", string(p.Category)},
		{"gender", string(p.Gender)},
		{"size", string(p.Size)},
		{"frameType", string(p.FrameType)},
		{"shape", p.Shape},
		{"brand", p.Brand},
		{"available", strconv.FormatBool(p.Available)},
	}
	if p.ID > 0 {
		fields = append(fields, [2]string{"id", strconv.FormatInt(p.ID, 10)})
	}
	for _, dim := range models.DimensionFields {
		if v := p.Dimensions.Get(dim); v != nil {
			fields = append(fields, [2]string{dim, strconv.FormatFloat(*v, 'f', -1, 64)})
		}
	}

	raw, err := json.Marshal(p.variations())
	if err != nil {
		return fmt.Errorf("encode variations: %w", err)
	}
	fields = append(fields, [2]string{"rawVariations", string(raw)})

	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	for _, u := range p.RetainedImageURLs {
		if err := mw.WriteField("imageUrl", u); err != nil {
			return err
		}
	}

	for _, img := range p.Images {
		if err := writeFile(mw, "images", img); err != nil {
			return err
		}
	}
	indexes := make([]int, 0, len(p.VariationImages))
	for i := range p.VariationImages {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for _, i := range indexes {
		for _, img := range p.VariationImages[i] {
			if err := writeFile(mw, fmt.Sprintf("variationImages_%d", i), img); err != nil {
				return err
			}
		}
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFile(mw *multipart.Writer, field string, img ImageFile) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(field), quoteEscaper.Replace(img.Name)))
	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(img.Data)
	return err
}

func decodeFrame(body []byte) (*models.Frame, error) {
	var f models.Frame
	if err := decodeData(body, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return &f, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

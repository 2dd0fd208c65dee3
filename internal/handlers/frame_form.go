package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/services"
)

const variationImagesPrefix = "variationImages_"

// decodeFrameRequest reads a frame create/update body. Multipart bodies may
// carry files; JSON bodies never do. Field-level parse problems come back as
// a validation map.
func decodeFrameRequest(r *http.Request, maxBytes int64) (*models.FrameRequest, services.FrameUploads, map[string]string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return decodeMultipartFrame(r, maxBytes)
	}

	var req models.FrameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, services.FrameUploads{}, nil, err
	}
	return &req, services.FrameUploads{}, map[string]string{}, nil
}

func decodeMultipartFrame(r *http.Request, maxBytes int64) (*models.FrameRequest, services.FrameUploads, map[string]string, error) {
	var uploads services.FrameUploads
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, uploads, nil, err
	}
	form := r.MultipartForm
	errors := make(map[string]string)

	value := func(key string) string {
		if vs := form.Value[key]; len(vs) > 0 {
			return strings.TrimSpace(vs[0])
		}
		return ""
	}

	req := &models.FrameRequest{
		Name:        value("name"),
		Description: value("description"),
		Category:    models.Category(value("category")),
		Gender:      models.Gender(value("gender")),
		Size:        models.Size(value("size")),
		FrameType:   models.FrameType(value("frameType")),
		Shape:       value("shape"),
		Brand:       value("brand"),
		ImageURLs:   nonEmpty(form.Value["imageUrl"]),
	}

	if raw := value("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errors["id"] = "Must be an integer"
		}
		req.ID = id
	}
	if raw := value("price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errors["price"] = "Must be a number"
		} else {
			req.Price = &price
		}
	}
	if raw := value("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			errors["available"] = "Must be true or false"
		}
		req.Available = available
	}
	for _, field := range models.DimensionFields {
		raw := value(field)
		if raw == "" || raw == "null" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errors[field] = "Must be a number"
			continue
		}
		req.Dimensions.Set(field, &v)
	}
	if err := req.Variations.Parse(value("rawVariations")); err != nil {
		errors["variations"] = "Variations payload is not valid JSON"
	}

	uploads.Images = collectUploads(form.File["images"], "images", errors)
	for key, files := range form.File {
		if !strings.HasPrefix(key, variationImagesPrefix) {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(key, variationImagesPrefix))
		if err != nil || idx < 0 {
			errors[key] = "Unknown variation index"
			continue
		}
		if uploads.VariationImages == nil {
			uploads.VariationImages = make(map[int][]services.Upload)
		}
		uploads.VariationImages[idx] = collectUploads(files, key, errors)
	}
	for idx := range uploads.VariationImages {
		if idx >= len(req.Variations) {
			errors[fmt.Sprintf("%s%d", variationImagesPrefix, idx)] = "Unknown variation index"
		}
	}

	return req, uploads, errors, nil
}

func collectUploads(headers []*multipart.FileHeader, field string, errors map[string]string) []services.Upload {
	uploads := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		contentType := fh.Header.Get("Content-Type")
		if !isValidImageType(contentType) {
			errors[field] = "Invalid image type. Allowed: JPEG, PNG, GIF, WebP"
			continue
		}
		fh := fh
		uploads = append(uploads, services.Upload{
			Filename:    fh.Filename,
			ContentType: contentType,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return uploads
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// parseFilterSelection builds the storefront filter from the query string.
func parseFilterSelection(r *http.Request) (models.FilterSelection, map[string]string) {
	q := r.URL.Query()
	errors := make(map[string]string)

	sel := models.FilterSelection{
		Query:     strings.TrimSpace(q.Get("q")),
		Category:  models.Category(q.Get("category")),
		Gender:    models.Gender(q.Get("gender")),
		Shape:     strings.TrimSpace(q.Get("shape")),
		Size:      models.Size(q.Get("size")),
		FrameType: models.FrameType(q.Get("frameType")),
	}
	for _, b := range q["brand"] {
		for _, part := range strings.Split(b, ",") {
			if part = strings.TrimSpace(part); part != "" {
				sel.Brands = append(sel.Brands, part)
			}
		}
	}

	parsePrice := func(key string) *float64 {
		raw := q.Get(key)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			errors[key] = "Must be a non-negative number"
			return nil
		}
		return &v
	}
	sel.MinPrice = parsePrice("minPrice")
	sel.MaxPrice = parsePrice("maxPrice")
	if sel.MinPrice != nil && sel.MaxPrice != nil && *sel.MinPrice > *sel.MaxPrice {
		errors["maxPrice"] = "Must be greater than or equal to minPrice"
	}

	if raw := q.Get("available"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			errors["available"] = "Must be true or false"
		} else {
			sel.Available = &v
		}
	}
	return sel, errors
}

package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/services"
)

type FrameHandler struct {
	frames    services.FrameService
	catalog   *services.CatalogService
	maxSizeMB int64
}

func NewFrameHandler(frames services.FrameService, catalog *services.CatalogService, maxSizeMB int64) *FrameHandler {
	return &FrameHandler{
		frames:    frames,
		catalog:   catalog,
		maxSizeMB: maxSizeMB,
	}
}

func (h *FrameHandler) maxBytes() int64 {
	return h.maxSizeMB * 1024 * 1024
}

func (h *FrameHandler) CreateFrame(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes())

	req, uploads, fieldErrors, err := decodeFrameRequest(r, h.maxBytes())
	if err != nil {
		log.Printf("[CreateFrame] Decode error: %v", err)
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Request too large or invalid form data"))
		return
	}
	for k, v := range req.Validate() {
		if _, exists := fieldErrors[k]; !exists {
			fieldErrors[k] = v
		}
	}
	if len(uploads.Images) == 0 {
		fieldErrors["images"] = "At least one image is required"
	}
	if len(fieldErrors) > 0 {
		log.Printf("[CreateFrame] Validation errors: %v", fieldErrors)
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(fieldErrors))
		return
	}

	frame, err := h.catalog.CreateFrame(r.Context(), req, uploads)
	if err != nil {
		h.writeServiceError(w, "CreateFrame", err, "Failed to create product")
		return
	}

	writeJSON(w, http.StatusCreated, models.APIResponse{Success: true, Data: frame, Message: "Product created"})
}

func (h *FrameHandler) UpdateFrame(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes())

	req, uploads, fieldErrors, err := decodeFrameRequest(r, h.maxBytes())
	if err != nil {
		log.Printf("[UpdateFrame] Decode error: %v", err)
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Request too large or invalid form data"))
		return
	}
	for k, v := range req.ValidateUpdate() {
		if _, exists := fieldErrors[k]; !exists {
			fieldErrors[k] = v
		}
	}
	if len(uploads.Images)+len(req.ImageURLs) == 0 {
		fieldErrors["images"] = "At least one image is required"
	}
	if len(fieldErrors) > 0 {
		log.Printf("[UpdateFrame] Validation errors: %v", fieldErrors)
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(fieldErrors))
		return
	}

	frame, err := h.catalog.UpdateFrame(r.Context(), req, uploads)
	if err != nil {
		h.writeServiceError(w, "UpdateFrame", err, "Failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, models.APIResponse{Success: true, Data: frame, Message: "Product updated"})
}

func (h *FrameHandler) DeleteFrame(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid product id"))
		return
	}

	if err := h.catalog.DeleteFrame(r.Context(), id); err != nil {
		h.writeServiceError(w, "DeleteFrame", err, "Failed to delete product")
		return
	}

	writeJSON(w, http.StatusOK, models.NewMessageResponse("Product deleted"))
}

func (h *FrameHandler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	frames, err := h.frames.List(r.Context())
	if err != nil {
		log.Printf("[ListFrames] Service error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list products"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(frames))
}

func (h *FrameHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	sel, fieldErrors := parseFilterSelection(r)
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(fieldErrors))
		return
	}

	frames, err := h.frames.Search(r.Context(), sel)
	if err != nil {
		log.Printf("[BrowseFrames] Service error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list products"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(frames))
}

func (h *FrameHandler) GetFrame(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid product id"))
		return
	}

	frame, err := h.frames.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "GetFrame", err, "Failed to get product")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(frame))
}

func (h *FrameHandler) writeServiceError(w http.ResponseWriter, op string, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrFrameNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Product not found"))
	case errors.Is(err, services.ErrInvalidImage):
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid image file"))
	case errors.Is(err, services.ErrNoImages):
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{"images": "At least one image is required"}))
	case errors.Is(err, services.ErrImageRejected):
		writeJSON(w, http.StatusUnprocessableEntity, models.NewErrorResponse("Image rejected by content screening"))
	default:
		log.Printf("[%s] Service error: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse(fallback))
	}
}

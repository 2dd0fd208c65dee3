package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/services"
)

// ReferenceHandler serves one reference kind. The router mounts one per kind.
type ReferenceHandler struct {
	refs services.ReferenceService
	kind models.ReferenceKind
}

func NewReferenceHandler(refs services.ReferenceService, kind models.ReferenceKind) *ReferenceHandler {
	return &ReferenceHandler{refs: refs, kind: kind}
}

func (h *ReferenceHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.refs.List(r.Context(), h.kind)
	if err != nil {
		log.Printf("[ListReferences] kind=%s error: %v", h.kind, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list items"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(items))
}

func (h *ReferenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if errors := req.Validate(h.kind); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	item, err := h.refs.Create(r.Context(), h.kind, &req)
	if err != nil {
		if err == services.ErrDuplicateReference {
			writeJSON(w, http.StatusConflict, models.NewErrorResponse("An item with this name already exists"))
			return
		}
		log.Printf("[CreateReference] kind=%s error: %v", h.kind, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to create item"))
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(item))
}

func (h *ReferenceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid id"))
		return
	}
	if err := h.refs.Delete(r.Context(), h.kind, id); err != nil {
		if err == services.ErrReferenceNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Item not found"))
			return
		}
		log.Printf("[DeleteReference] kind=%s id=%d error: %v", h.kind, id, err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete item"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Item deleted"))
}

package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/services"
)

type LensHandler struct {
	lenses services.LensService
}

func NewLensHandler(lenses services.LensService) *LensHandler {
	return &LensHandler{lenses: lenses}
}

func (h *LensHandler) List(w http.ResponseWriter, r *http.Request) {
	lenses, err := h.lenses.List(r.Context())
	if err != nil {
		log.Printf("[ListLenses] Service error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list lenses"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(lenses))
}

func (h *LensHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	lens, err := h.lenses.Create(r.Context(), req.ToLens())
	if err != nil {
		log.Printf("[CreateLens] Service error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to create lens"))
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(lens))
}

func (h *LensHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid lens id"))
		return
	}
	if err := h.lenses.Delete(r.Context(), id); err != nil {
		if err == services.ErrLensNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Lens not found"))
			return
		}
		log.Printf("[DeleteLens] Service error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete lens"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Lens deleted"))
}

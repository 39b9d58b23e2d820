package api

import (
	"errors"
	"net/http"

	"github.com/erazemk/vendart/internal/gallery"
)

// GalleryHandler exposes the gallery selection and rotation.
type GalleryHandler struct {
	Gallery *gallery.Engine
}

type selectRequest struct {
	ID string `json:"id"`
}

// Get handles GET /api/gallery.
func (h *GalleryHandler) Get(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Gallery.Snapshot())
}

// Select handles POST /api/gallery/select.
func (h *GalleryHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil || req.ID == "" {
		jsonError(w, http.StatusBadRequest, "id required")
		return
	}

	if err := h.Gallery.Select(req.ID); err != nil {
		if errors.Is(err, gallery.ErrNotInView) {
			jsonError(w, http.StatusNotFound, err.Error())
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to select item")
		return
	}
	jsonResponse(w, http.StatusOK, h.Gallery.Snapshot())
}

// Toggle handles POST /api/gallery/toggle.
func (h *GalleryHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.Gallery.Toggle()
	jsonResponse(w, http.StatusOK, h.Gallery.Snapshot())
}

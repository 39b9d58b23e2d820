package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/skip2/go-qrcode"

	"github.com/erazemk/vendart/internal/imaging"
	"github.com/erazemk/vendart/internal/model"
	"github.com/erazemk/vendart/internal/narration"
	"github.com/erazemk/vendart/internal/store"
	"github.com/erazemk/vendart/internal/studio"
	"github.com/erazemk/vendart/internal/vending"
)

// qrSize is the edge length of generated QR codes in pixels.
const qrSize = 256

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Items   *store.Items
	Studio  *studio.Studio
	Machine *vending.Machine
}

type createItemRequest struct {
	Title        string `json:"title"`
	Caption      string `json:"caption"`
	ImageDataURL string `json:"imageDataUrl"`
}

type itemResponse struct {
	model.Item
	Pending bool `json:"pending"`
}

type storyResponse struct {
	Lang   string `json:"lang"`
	Locale string `json:"locale"`
	Text   string `json:"text"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Items.List())
}

// Create handles POST /api/items. It accepts a multipart form with an
// optional "image" file, or a JSON body with an optional image data URL.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	r.Body = http.MaxBytesReader(w, r.Body, createBodyLimit(mediaType))

	in, err := readCreateInput(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.Studio.Create(r.Context(), in)
	switch {
	case errors.Is(err, studio.ErrEmptyInput):
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, store.ErrDuplicateID), errors.Is(err, store.ErrInvalidID):
		jsonError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// createBodyLimit caps a create request. JSON bodies carry the image as
// base64, which is a third larger than the raw upload.
func createBodyLimit(mediaType string) int64 {
	const headroom = 1 << 20
	if mediaType == "application/json" {
		return int64(base64.StdEncoding.EncodedLen(imaging.MaxUploadSize)) + headroom
	}
	return imaging.MaxUploadSize + headroom
}

func readCreateInput(r *http.Request) (studio.Input, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "application/json" {
		var req createItemRequest
		if err := decodeJSON(r, &req); err != nil {
			return studio.Input{}, errors.New("invalid request body")
		}
		in := studio.Input{Title: req.Title, Caption: req.Caption}
		if req.ImageDataURL != "" {
			_, data, err := imaging.ParseDataURL(req.ImageDataURL)
			if err != nil {
				return in, err
			}
			if in.ImageDataURL, err = imaging.ToDataURL(bytes.NewReader(data)); err != nil {
				return in, err
			}
		}
		return in, nil
	}

	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		return studio.Input{}, errors.New("file too large or invalid multipart form")
	}
	in := studio.Input{
		Title:   r.FormValue("title"),
		Caption: r.FormValue("caption"),
	}

	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil
	}
	if err != nil {
		return in, errors.New("invalid image upload")
	}
	defer file.Close()

	in.ImageDataURL, err = imaging.ToDataURL(file)
	return in, err
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, itemResponse{Item: item, Pending: h.Machine.Pending(item.ID)})
}

// QR handles GET /api/items/{id}/qr.png.
func (h *ItemsHandler) QR(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}

	png, err := qrcode.Encode(item.QR, qrcode.High, qrSize)
	if err != nil {
		slog.Error("failed to encode qr code", "id", item.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to render qr code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(png); err != nil {
		slog.Error("failed to write qr response", "error", err)
	}
}

// Story handles GET /api/items/{id}/story?lang=.
func (h *ItemsHandler) Story(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}

	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = model.LangEnglish
	}
	text := narration.Text(item, lang)
	if text == "" {
		jsonError(w, http.StatusNotFound, "no story available")
		return
	}

	jsonResponse(w, http.StatusOK, storyResponse{
		Lang:   lang,
		Locale: narration.Locale(lang),
		Text:   text,
	})
}

// Place handles POST /api/items/{id}/place.
func (h *ItemsHandler) Place(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	item, err := h.Machine.Place(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		slog.Error("failed to place item", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to place item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Buy handles POST /api/items/{id}/buy. The response is sent once the
// simulated payment completes.
func (h *ItemsHandler) Buy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := h.Machine.Buy(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
		return
	case errors.Is(err, vending.ErrNotPlaced), errors.Is(err, vending.ErrAlreadySold):
		jsonError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		slog.Error("failed to buy item", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "payment failed")
		return
	}
	jsonResponse(w, http.StatusOK, rec)
}

// lookup resolves the {id} path value, writing the error response itself.
func (h *ItemsHandler) lookup(w http.ResponseWriter, r *http.Request) (model.Item, bool) {
	id := r.PathValue("id")
	if err := store.ValidateID(id); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return model.Item{}, false
	}
	item, ok := h.Items.Get(id)
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return model.Item{}, false
	}
	return item, true
}

package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/vendart/internal/imaging"
	"github.com/erazemk/vendart/internal/store"
	webembed "github.com/erazemk/vendart/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(s *Server) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	s.Templates = templates

	mux := http.NewServeMux()

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	mux.HandleFunc("GET /{$}", s.IndexPage)
	mux.HandleFunc("POST /studio", s.StudioSubmit)
	mux.HandleFunc("POST /items/{id}/place", s.PlaceSubmit)
	mux.HandleFunc("POST /items/{id}/buy", s.BuySubmit)
	mux.HandleFunc("GET /items/{id}/image", s.ItemImageGet)
	mux.HandleFunc("POST /gallery/select", s.SelectSubmit)
	mux.HandleFunc("POST /gallery/toggle", s.ToggleSubmit)

	return mux, nil
}

// ItemImageGet handles GET /items/{id}/image by decoding the stored data URL.
func (s *Server) ItemImageGet(w http.ResponseWriter, r *http.Request) {
	item, ok := s.Items.Get(r.PathValue("id"))
	if !ok || item.ImageDataURL == "" {
		http.NotFound(w, r)
		return
	}

	mime, data, err := imaging.ParseDataURL(item.ImageDataURL)
	if err != nil {
		slog.Error("stored image is not a data URL", "id", item.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}

// requireID rejects malformed ids before they reach the store.
func requireID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		id = r.FormValue("id")
	}
	if err := store.ValidateID(id); err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

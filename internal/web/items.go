package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/erazemk/vendart/internal/gallery"
	"github.com/erazemk/vendart/internal/imaging"
	"github.com/erazemk/vendart/internal/model"
	"github.com/erazemk/vendart/internal/studio"
	"github.com/erazemk/vendart/internal/vending"
)

// IndexPage handles GET /.
func (s *Server) IndexPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var created *model.Item
	if id := q.Get("created"); id != "" {
		if it, ok := s.Items.Get(id); ok {
			created = &it
		}
	}

	lang := q.Get("lang")
	if lang == "" {
		lang = model.LangEnglish
	}

	s.Templates.Render(w, "index.html", &struct {
		PageData
		Gallery   gallery.Snapshot
		Created   *model.Item
		Lang      string
		Languages []string
	}{
		PageData:  PageData{Title: "VendArt", Error: q.Get("error"), Success: q.Get("success")},
		Gallery:   s.Gallery.Snapshot(),
		Created:   created,
		Lang:      lang,
		Languages: model.Languages,
	})
}

// StudioSubmit handles POST /studio.
func (s *Server) StudioSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		redirectNotice(w, r, "error", "Image too large (max 10 MB).")
		return
	}

	in := studio.Input{
		Title:   r.FormValue("title"),
		Caption: r.FormValue("caption"),
	}

	if file, _, err := r.FormFile("image"); err == nil {
		in.ImageDataURL, err = imaging.ToDataURL(file)
		file.Close()
		if err != nil {
			slog.Warn("rejected artwork image", "error", err)
			redirectNotice(w, r, "error", "Please upload a JPEG, PNG or WebP image.")
			return
		}
	}

	item, err := s.Studio.Create(r.Context(), in)
	if errors.Is(err, studio.ErrEmptyInput) {
		redirectNotice(w, r, "error", "Add an image or a story first.")
		return
	}
	if err != nil {
		slog.Error("failed to create artwork", "error", err)
		redirectNotice(w, r, "error", "Could not generate the artwork story.")
		return
	}

	http.Redirect(w, r, "/?created="+url.QueryEscape(item.ID)+"&success="+
		url.QueryEscape("Artwork generated successfully! Ready to place in vending machine."), http.StatusSeeOther)
}

// PlaceSubmit handles POST /items/{id}/place.
func (s *Server) PlaceSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}

	if _, err := s.Machine.Place(r.Context(), id); err != nil {
		slog.Warn("failed to place artwork", "id", id, "error", err)
		redirectNotice(w, r, "error", "Could not place the artwork.")
		return
	}
	redirectNotice(w, r, "success", "Artwork successfully placed in vending machine!")
}

// BuySubmit handles POST /items/{id}/buy. The form carries the buyer's
// confirmation; the response waits for the simulated payment.
func (s *Server) BuySubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	if r.FormValue("confirm") != "yes" {
		redirectNotice(w, r, "error", "Purchase cancelled.")
		return
	}

	rec, err := s.Machine.Buy(r.Context(), id)
	switch {
	case errors.Is(err, vending.ErrNotPlaced):
		redirectNotice(w, r, "error", "This artwork needs to be placed in the vending machine first!")
		return
	case errors.Is(err, vending.ErrAlreadySold):
		redirectNotice(w, r, "error", "This artwork has already been sold.")
		return
	case err != nil:
		slog.Error("purchase failed", "id", id, "error", err)
		redirectNotice(w, r, "error", "Payment failed.")
		return
	}

	redirectNotice(w, r, "success", "Purchase successful! Payment of "+rec.Price+
		" has been processed. The artist will receive 85% of the sale amount.")
}

// SelectSubmit handles POST /gallery/select.
func (s *Server) SelectSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r)
	if !ok {
		return
	}
	if err := s.Gallery.Select(id); err != nil {
		redirectNotice(w, r, "error", "That artwork is no longer on display.")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ToggleSubmit handles POST /gallery/toggle.
func (s *Server) ToggleSubmit(w http.ResponseWriter, r *http.Request) {
	state := s.Gallery.Toggle()
	slog.Info("gallery rotation toggled", "state", state)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// redirectNotice sends the browser back to the index with a flash message.
func redirectNotice(w http.ResponseWriter, r *http.Request, kind, msg string) {
	http.Redirect(w, r, "/?"+kind+"="+url.QueryEscape(msg), http.StatusSeeOther)
}

package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/erazemk/vendart/internal/gallery"
	"github.com/erazemk/vendart/internal/model"
	"github.com/erazemk/vendart/internal/narration"
	"github.com/erazemk/vendart/internal/store"
	"github.com/erazemk/vendart/internal/studio"
	"github.com/erazemk/vendart/internal/vending"
	webembed "github.com/erazemk/vendart/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"statusName": func(status string) string {
			switch status {
			case model.ItemStatusDraft:
				return "Draft"
			case model.ItemStatusReady:
				return "In machine"
			case model.ItemStatusSold:
				return "Sold"
			default:
				return status
			}
		},
		"langName": func(lang string) string {
			switch lang {
			case model.LangEnglish:
				return "English"
			case model.LangHindi:
				return "हिंदी (Hindi)"
			case model.LangTelugu:
				return "తెలుగు (Telugu)"
			default:
				return lang
			}
		},
		"locale": narration.Locale,
		"story":  narration.Text,
		"isSelected": func(snap gallery.Snapshot, id string) bool {
			return snap.Selected != nil && snap.Selected.ID == id
		},
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"index.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	Items     *store.Items
	Studio    *studio.Studio
	Gallery   *gallery.Engine
	Machine   *vending.Machine
	Templates *Templates
}

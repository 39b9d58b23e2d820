package api

import (
	"net/http"

	"github.com/erazemk/vendart/internal/gallery"
	"github.com/erazemk/vendart/internal/store"
	"github.com/erazemk/vendart/internal/studio"
	"github.com/erazemk/vendart/internal/vending"
)

// Deps are the components the API serves.
type Deps struct {
	Items         *store.Items
	Studio        *studio.Studio
	Gallery       *gallery.Engine
	Machine       *vending.Machine
	ReceiptSecret string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	itemsHandler := &ItemsHandler{Items: d.Items, Studio: d.Studio, Machine: d.Machine}
	galleryHandler := &GalleryHandler{Gallery: d.Gallery}
	receiptsHandler := &ReceiptsHandler{Secret: d.ReceiptSecret}

	// Items.
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("POST /api/items", itemsHandler.Create)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("GET /api/items/{id}/qr.png", itemsHandler.QR)
	mux.HandleFunc("GET /api/items/{id}/story", itemsHandler.Story)
	mux.HandleFunc("POST /api/items/{id}/place", itemsHandler.Place)
	mux.HandleFunc("POST /api/items/{id}/buy", itemsHandler.Buy)

	// Gallery.
	mux.HandleFunc("GET /api/gallery", galleryHandler.Get)
	mux.HandleFunc("POST /api/gallery/select", galleryHandler.Select)
	mux.HandleFunc("POST /api/gallery/toggle", galleryHandler.Toggle)

	// Receipts.
	mux.HandleFunc("GET /api/receipts/verify", receiptsHandler.Verify)

	return mux
}

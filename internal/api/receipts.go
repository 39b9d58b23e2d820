package api

import (
	"net/http"

	"github.com/erazemk/vendart/internal/receipt"
)

// ReceiptsHandler verifies sale receipts.
type ReceiptsHandler struct {
	Secret string
}

// Verify handles GET /api/receipts/verify?token=.
func (h *ReceiptsHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		jsonError(w, http.StatusBadRequest, "token required")
		return
	}

	claims, err := receipt.Verify(h.Secret, token)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid receipt")
		return
	}
	jsonResponse(w, http.StatusOK, claims)
}

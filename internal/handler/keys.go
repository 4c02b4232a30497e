package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/chatgate/chatgate/internal/model"
)

// KeyIssuer creates API keys.
type KeyIssuer interface {
	IssueKey(ctx context.Context) (string, error)
}

// KeyHandler serves operator key management. Routes using it must sit
// behind the session gate.
type KeyHandler struct {
	issuer KeyIssuer
	logger *slog.Logger
}

func NewKeyHandler(issuer KeyIssuer, logger *slog.Logger) *KeyHandler {
	return &KeyHandler{issuer: issuer, logger: logger}
}

// CreateKey handles POST /api/create_key. The raw key appears in this
// response and nowhere else.
func (h *KeyHandler) CreateKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.issuer.IssueKey(r.Context())
	if err != nil {
		h.logger.Error("key issuance failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create API key")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, model.IssuedKey{APIKey: key})
}

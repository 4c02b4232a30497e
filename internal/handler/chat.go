package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/chatgate/chatgate/internal/model"
	"github.com/chatgate/chatgate/internal/service"
	"github.com/chatgate/chatgate/internal/store"
)

// ChatService runs one authenticated completion.
type ChatService interface {
	HandleChat(ctx context.Context, req model.ChatRequest) (*model.ChatCompletion, error)
}

// ModelCatalog lists the models callers may ask for.
type ModelCatalog interface {
	List(ctx context.Context) ([]string, error)
}

// ChatHandler serves the public completion API.
type ChatHandler struct {
	chat    ChatService
	catalog ModelCatalog
	logger  *slog.Logger
}

func NewChatHandler(chat ChatService, catalog ModelCatalog, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, catalog: catalog, logger: logger}
}

// Chat handles POST /api/chat. The key comes from the body's api_key field,
// falling back to an Authorization bearer token.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if req.APIKey == "" {
		req.APIKey = bearerToken(r)
	}

	resp, err := h.chat.HandleChat(r.Context(), req)
	if err != nil {
		status, msg := chatErrorStatus(err)
		if status >= 500 {
			h.logger.Error("chat request failed", "model", req.Model, "status", status, "error", err)
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Models handles GET /api/models.
func (h *ChatHandler) Models(w http.ResponseWriter, r *http.Request) {
	models, err := h.catalog.List(r.Context())
	if err != nil {
		h.logger.Error("model listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, model.ModelList{Models: models})
}

// chatErrorStatus maps gateway errors to an HTTP status and the message
// shown to the caller.
func chatErrorStatus(err error) (int, string) {
	var upErr *service.UpstreamError
	switch {
	case errors.Is(err, service.ErrBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "Invalid API key"
	case errors.Is(err, store.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "Credential store unavailable, try again later"
	case errors.As(err, &upErr):
		return http.StatusInternalServerError, upErr.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

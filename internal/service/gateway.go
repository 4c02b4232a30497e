package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chatgate/chatgate/internal/model"
	"github.com/chatgate/chatgate/internal/provider"
)

// KeyAuthenticator checks a raw API key.
type KeyAuthenticator interface {
	Authenticate(ctx context.Context, rawKey string) (bool, error)
}

// Gateway validates chat requests, authenticates their key and relays them
// to the completion provider.
type Gateway struct {
	auth     KeyAuthenticator
	provider provider.Provider
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewGateway returns a Gateway. timeout bounds every provider call; zero
// leaves only the caller's context in charge.
func NewGateway(auth KeyAuthenticator, p provider.Provider, timeout time.Duration, logger *slog.Logger) *Gateway {
	return &Gateway{
		auth:     auth,
		provider: p,
		timeout:  timeout,
		now:      time.Now,
		logger:   logger,
	}
}

// HandleChat runs one completion. Errors wrap ErrBadRequest, ErrForbidden
// or store.ErrStorageUnavailable, or are an *UpstreamError.
//
// Checks run in order: payload shape, then key, then provider. Nothing
// reaches the provider unless the key is known.
func (g *Gateway) HandleChat(ctx context.Context, req model.ChatRequest) (*model.ChatCompletion, error) {
	if err := validateChat(req); err != nil {
		return nil, err
	}

	ok, err := g.auth.Authenticate(ctx, req.APIKey)
	if err != nil {
		g.logger.Error("api key check failed", "error", err)
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := g.now()
	text, err := g.provider.Complete(callCtx, req.Model, req.Messages)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("no reply within %s: %w", g.timeout, err)
		}
		g.logger.Warn("provider call failed", "model", req.Model, "error", err)
		return nil, &UpstreamError{Err: err}
	}
	g.logger.Debug("provider call finished", "model", req.Model, "duration", g.now().Sub(start))

	id, err := completionID()
	if err != nil {
		return nil, err
	}
	return &model.ChatCompletion{
		ID:      id,
		Object:  "chat.completion",
		Created: g.now().Unix(),
		Model:   req.Model,
		Choices: []model.Choice{{
			Index:        0,
			Message:      model.Message{Role: "assistant", Content: text},
			FinishReason: "stop",
		}},
		Usage: model.Usage{},
	}, nil
}

func validateChat(req model.ChatRequest) error {
	if req.Model == "" {
		return fmt.Errorf("%w: model is required", ErrBadRequest)
	}
	if req.Messages == nil {
		return fmt.Errorf("%w: messages is required", ErrBadRequest)
	}
	for i, m := range req.Messages {
		if m.Role == "" {
			return fmt.Errorf("%w: messages[%d].role is required", ErrBadRequest, i)
		}
	}
	if req.APIKey == "" {
		return fmt.Errorf("%w: api_key is required", ErrBadRequest)
	}
	return nil
}

// completionID returns "chatcmpl-" followed by 24 random hex characters.
func completionID() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate completion id: %w", err)
	}
	return "chatcmpl-" + hex.EncodeToString(buf), nil
}

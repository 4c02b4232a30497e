// Package provider defines the contract between the gateway and whatever
// produces completion text.
package provider

import (
	"context"

	"github.com/chatgate/chatgate/internal/model"
)

// Provider turns a model name and a conversation into a single reply.
// Implementations must honor ctx cancellation.
type Provider interface {
	Complete(ctx context.Context, model string, messages []model.Message) (string, error)
}

// ModelLister reports the model identifiers a provider can serve.
type ModelLister interface {
	Models(ctx context.Context) ([]string, error)
}

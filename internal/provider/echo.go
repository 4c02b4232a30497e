package provider

import (
	"context"

	"github.com/chatgate/chatgate/internal/model"
)

// Echo replies with the content of the last user message. It needs no
// upstream and reports no models of its own.
type Echo struct{}

func (Echo) Complete(ctx context.Context, _ string, messages []model.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content, nil
		}
	}
	return "", nil
}

func (Echo) Models(ctx context.Context) ([]string, error) {
	return nil, ctx.Err()
}

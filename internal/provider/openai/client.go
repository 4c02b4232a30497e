// Package openai adapts any OpenAI-compatible chat completion API (the g4f
// API server, OpenAI itself, local inference servers) to provider.Provider.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/chatgate/chatgate/internal/model"
)

// Client implements provider.Provider and provider.ModelLister.
type Client struct {
	api *goopenai.Client
}

// New returns a Client talking to baseURL (e.g. "http://localhost:1337/v1").
// apiKey may be empty for upstreams that do not check it. A nil httpClient
// selects http.DefaultClient.
func New(baseURL, apiKey string, httpClient *http.Client) *Client {
	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &Client{api: goopenai.NewClientWithConfig(cfg)}
}

// Complete sends one non-streaming chat completion request and returns the
// text of the first choice.
func (c *Client) Complete(ctx context.Context, modelName string, messages []model.Message) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model:    modelName,
		Messages: make([]goopenai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, goopenai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", describe(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("upstream returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Models lists the model ids the upstream reports.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	list, err := c.api.ListModels(ctx)
	if err != nil {
		return nil, describe(err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// describe flattens go-openai's error types into a message fit for
// surfacing to API callers.
func describe(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("upstream status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("upstream status %d: %w", reqErr.HTTPStatusCode, reqErr.Err)
	}
	return err
}

package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/chatgate/chatgate/internal/model"
	"github.com/chatgate/chatgate/internal/service"
	"github.com/chatgate/chatgate/internal/store"
)

func (s *MCPServer) registerTools(srv *server.MCPServer) {
	srv.AddTool(
		mcp.NewTool("chatgate_list_models",
			mcp.WithDescription(
				"List the model names the gateway accepts. Use this before "+
					"chatgate_chat to pick a valid model.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListModels,
	)

	srv.AddTool(
		mcp.NewTool("chatgate_chat",
			mcp.WithDescription(
				"Send a conversation to a model and get the assistant reply. "+
					"Requires an API key issued by the gateway operator. The result "+
					"is an OpenAI-style chat.completion object.",
			),
			mcp.WithToolAnnotation(openWorldAnnotation()),
			mcp.WithString("api_key",
				mcp.Required(),
				mcp.Description("Gateway API key"),
			),
			mcp.WithString("model",
				mcp.Required(),
				mcp.Description("Model name, as returned by chatgate_list_models"),
			),
			mcp.WithArray("messages",
				mcp.Required(),
				mcp.Description("Conversation so far, oldest first"),
				mcp.Items(map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"role":    map[string]interface{}{"type": "string", "description": "system, user or assistant"},
						"content": map[string]interface{}{"type": "string"},
					},
					"required": []string{"role"},
				}),
			),
		),
		s.handleChat,
	)
}

func (s *MCPServer) handleListModels(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	models, err := s.catalog.List(ctx)
	if err != nil {
		return toolError("Failed to list models: %v", err)
	}
	return successJSON(model.ModelList{Models: models})
}

func (s *MCPServer) handleChat(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	apiKey, err := requireString(request, "api_key")
	if err != nil {
		return toolError("%v", err)
	}
	modelName, err := requireString(request, "model")
	if err != nil {
		return toolError("%v. Call chatgate_list_models to see valid names.", err)
	}
	messages, err := messagesArg(request)
	if err != nil {
		return toolError("%v", err)
	}

	resp, err := s.chat.HandleChat(ctx, model.ChatRequest{
		APIKey:   apiKey,
		Model:    modelName,
		Messages: messages,
	})
	if err != nil {
		var upErr *service.UpstreamError
		switch {
		case errors.Is(err, service.ErrBadRequest):
			return toolError("%v", err)
		case errors.Is(err, service.ErrForbidden):
			return toolError("Invalid API key")
		case errors.Is(err, store.ErrStorageUnavailable):
			return toolError("Credential store unavailable, try again later")
		case errors.As(err, &upErr):
			return toolError("%v", upErr)
		default:
			s.logger.Error("mcp chat failed", "model", modelName, "error", err)
			return toolError("Internal error")
		}
	}
	return successJSON(resp)
}

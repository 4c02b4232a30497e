package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/chatgate/chatgate/internal/model"
)

const modelsURI = "chatgate://models"

// registerResources adds read-only data that MCP clients can load into
// their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			modelsURI,
			"Available Models",
			mcp.WithResourceDescription("Model names accepted by the chatgate_chat tool."),
			mcp.WithMIMEType("application/json"),
		),
		s.handleModelsResource,
	)
}

func (s *MCPServer) handleModelsResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	models, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	b, err := json.MarshalIndent(model.ModelList{Models: models}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal models: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      modelsURI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

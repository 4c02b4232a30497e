package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/chatgate/chatgate/internal/model"
)

// ChatService runs one authenticated completion.
type ChatService interface {
	HandleChat(ctx context.Context, req model.ChatRequest) (*model.ChatCompletion, error)
}

// ModelCatalog lists the models callers may ask for.
type ModelCatalog interface {
	List(ctx context.Context) ([]string, error)
}

// MCPServer exposes the gateway to MCP clients. Completions go through the
// same key check and provider path as POST /api/chat.
type MCPServer struct {
	chat    ChatService
	catalog ModelCatalog
	logger  *slog.Logger
	server  *server.MCPServer
}

// NewMCPServer creates an MCPServer with the chatgate tools and resources
// registered. The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(chat ChatService, catalog ModelCatalog, version string, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		chat:    chat,
		catalog: catalog,
		logger:  logger,
	}

	mcpServer := server.NewMCPServer(
		"chatgate",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio serves MCP over stdin/stdout, for clients that launch the
// gateway as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP serves MCP in Streamable HTTP mode on addr until ctx is done.
func (s *MCPServer) ServeHTTP(ctx context.Context, addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("MCP HTTP server starting", "addr", addr)
		errCh <- httpServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return httpServer.Shutdown(context.Background())
	}
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

// The chat tool reaches an external provider, so it is neither read-only
// in the MCP sense nor idempotent.
func openWorldAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:    boolPtr(false),
		IdempotentHint:  boolPtr(false),
		OpenWorldHint:   boolPtr(true),
		DestructiveHint: boolPtr(false),
	}
}

func boolPtr(b bool) *bool {
	return &b
}

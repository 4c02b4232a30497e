package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chatgate/chatgate/internal/config"
	cmcp "github.com/chatgate/chatgate/internal/mcp"
	"github.com/chatgate/chatgate/internal/service"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		addr      string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes the gateway's model
list and chat completions as tools. Chat calls require an API key issued by the
operator, exactly like POST /api/chat.

In stdio mode, the MCP server communicates over stdin/stdout using JSON-RPC,
suitable for clients that launch it as a subprocess.

In HTTP mode, the server listens on the given address using Streamable HTTP.`,
		Example: `  chatgate mcp                                # stdio mode
  chatgate mcp --transport http --addr :3001  # Streamable HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP()
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().StringVar(&addr, "addr", ":3001", "HTTP listen address (only used with --transport http)")

	viper.BindPFlag("mcp.transport", cmd.Flags().Lookup("transport"))
	viper.BindPFlag("mcp.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runMCP() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// stdout belongs to the protocol in stdio mode.
	logger := config.NewLogger(cfg.Logging, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("prepare credential store: %w", err)
	}

	prov, lister := newProvider(cfg.Provider, logger)
	auth := service.NewAuthService(st, cfg.Auth.KeyPrefix, logger)
	gateway := service.NewGateway(auth, prov, cfg.Provider.Timeout, logger)
	catalog := service.NewModelCatalog(lister, cfg.Provider.FallbackModels, cfg.Provider.ModelsTimeout, logger)

	mcpSrv := cmcp.NewMCPServer(gateway, catalog, versionString(), logger)

	switch cfg.MCP.Transport {
	case "stdio":
		return mcpSrv.ServeStdio()
	case "http":
		return mcpSrv.ServeHTTP(ctx, cfg.MCP.Addr)
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", cfg.MCP.Transport)
	}
}

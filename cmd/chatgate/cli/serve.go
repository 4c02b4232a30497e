package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chatgate/chatgate/internal/config"
	"github.com/chatgate/chatgate/internal/handler"
	"github.com/chatgate/chatgate/internal/openapi"
	"github.com/chatgate/chatgate/internal/server"
	"github.com/chatgate/chatgate/internal/service"
	"github.com/chatgate/chatgate/internal/session"
	"github.com/chatgate/chatgate/internal/ui"
)

const banner = `
      _           _              _
  ___| |__   __ _| |_ __ _  __ _| |_ ___
 / __| '_ \ / _' | __/ _' |/ _' | __/ _ \
| (__| | | | (_| | || (_| | (_| | ||  __/
 \___|_| |_|\__,_|\__\__, |\__,_|\__\___|
                     |___/
`

const sessionSweepInterval = 5 * time.Minute

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chatgate HTTP server",
		Long:  "Start the HTTP server that serves the completion API and the operator console.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dev {
				viper.Set("logging.level", "debug")
			}
			return runServe()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Logging, os.Stderr)

	fmt.Print(banner)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Credential store. Refuse to start if the table cannot be created.
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("prepare credential store: %w", err)
	}
	logger.Info("credential store ready", "driver", st.Driver())

	// 2. Operator authentication
	hash, generated, err := service.ResolvePasswordHash(cfg.Auth)
	if err != nil {
		return err
	}
	if generated != "" {
		fmt.Fprintf(os.Stderr, "→ No operator password configured. Generated for this run: %s\n\n", generated)
	}
	secret, err := service.ResolveSessionSecret(cfg.Auth)
	if err != nil {
		return err
	}
	sessions := session.NewManager(secret, cfg.Auth.SessionTTL)
	go sweepSessions(ctx, sessions, sessionSweepInterval, logger)

	// 3. Gateway
	prov, lister := newProvider(cfg.Provider, logger)
	auth := service.NewAuthService(st, cfg.Auth.KeyPrefix, logger)
	gateway := service.NewGateway(auth, prov, cfg.Provider.Timeout, logger)
	catalog := service.NewModelCatalog(lister, cfg.Provider.FallbackModels, cfg.Provider.ModelsTimeout, logger)

	templates, err := ui.Parse()
	if err != nil {
		return fmt.Errorf("parse console templates: %w", err)
	}

	// 4. HTTP server
	displayHost := cfg.Server.Host
	if displayHost == "" || displayHost == "0.0.0.0" {
		displayHost = "localhost"
	}
	baseURL := fmt.Sprintf("http://%s:%d", displayHost, cfg.Server.Port)

	srv := server.New(cfg.Server, server.Deps{
		Store:     st,
		Keys:      auth,
		Counter:   st,
		Chat:      gateway,
		Catalog:   catalog,
		Operator:  service.NewOperatorService(hash, sessions, logger),
		OpenAPI:   openapi.Generate(baseURL, versionString(), cfg.Auth.SessionCookie),
		Templates: templates,
		Cookie:    handler.CookieConfig{Name: cfg.Auth.SessionCookie, Secure: cfg.Auth.CookieSecure},
	}, logger)

	if err := writePID(os.Getpid()); err != nil {
		logger.Warn("could not write PID file", "path", pidFilePath(), "error", err)
	}
	defer removePID()

	fmt.Printf("→ chatgate %s\n", versionString())
	fmt.Printf("→ Listening on %s\n", baseURL)
	fmt.Printf("→ Console:    %s/login\n", baseURL)
	fmt.Printf("→ OpenAPI:    %s/openapi.json\n", baseURL)
	fmt.Printf("→ Provider:   %s (%s)\n", cfg.Provider.Kind, cfg.Provider.BaseURL)
	fmt.Println()

	return srv.ListenAndServe(ctx)
}

// sweepSessions drops expired operator sessions until ctx is done.
func sweepSessions(ctx context.Context, m *session.Manager, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				logger.Debug("expired operator sessions removed", "removed", n, "live", m.Len())
			}
		}
	}
}

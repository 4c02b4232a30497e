package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/chatgate/chatgate/internal/config"
	"github.com/chatgate/chatgate/internal/provider"
	"github.com/chatgate/chatgate/internal/provider/openai"
	"github.com/chatgate/chatgate/internal/store"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir flag,
// CHATGATE_DATA_DIR env var, or ~/.chatgate as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("CHATGATE_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chatgate")
}

// loadConfig decodes and validates the effective configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openStore opens the credential store. The pool connects lazily, so the
// first query reports an unreachable database.
func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	return st, nil
}

// newProvider builds the completion provider selected by provider.kind.
func newProvider(cfg config.ProviderConfig, logger *slog.Logger) (provider.Provider, provider.ModelLister) {
	if cfg.Kind == "echo" {
		logger.Warn("using the echo provider; replies repeat the last user message")
		return provider.Echo{}, provider.Echo{}
	}
	c := openai.New(cfg.BaseURL, cfg.APIKey, &http.Client{})
	return c, c
}

// --- PID file management ---

func pidFilePath() string {
	return filepath.Join(resolveDataDir(), "chatgate.pid")
}

func writePID(pid int) error {
	dir := resolveDataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0644)
}

func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePID() {
	os.Remove(pidFilePath())
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}

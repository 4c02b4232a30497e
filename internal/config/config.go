package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config is the complete runtime configuration. It is built once at process
// start by Load and handed to every component that needs a piece of it.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Provider ProviderConfig `mapstructure:"provider"`
	MCP      MCPConfig      `mapstructure:"mcp"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`

	// Upper bound on in-flight /api/chat requests, plus how many more may
	// queue and for how long before being turned away with 429.
	MaxConcurrentChats int           `mapstructure:"max_concurrent_chats"`
	ChatBacklog        int           `mapstructure:"chat_backlog"`
	ChatBacklogTimeout time.Duration `mapstructure:"chat_backlog_timeout"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig selects and tunes the credential store backend.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ResolvedDriver returns the configured driver, or infers one from the DSN
// when none was set.
func (c DatabaseConfig) ResolvedDriver() string {
	if c.Driver != "" {
		return strings.ToLower(c.Driver)
	}
	dsn := strings.ToLower(c.DSN)
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres"
	case strings.Contains(dsn, "@tcp("), strings.Contains(dsn, "@unix("):
		return "mysql"
	default:
		return "sqlite"
	}
}

// AuthConfig holds operator and API key settings.
type AuthConfig struct {
	// OperatorPasswordHash is a bcrypt hash. When empty, OperatorPassword is
	// hashed at startup instead.
	OperatorPasswordHash string        `mapstructure:"operator_password_hash"`
	OperatorPassword     string        `mapstructure:"operator_password"`
	SessionSecret        string        `mapstructure:"session_secret"`
	SessionTTL           time.Duration `mapstructure:"session_ttl"`
	SessionCookie        string        `mapstructure:"session_cookie"`
	CookieSecure         bool          `mapstructure:"cookie_secure"`
	KeyPrefix            string        `mapstructure:"key_prefix"`
}

// ProviderConfig points at the upstream OpenAI-compatible completion API.
// Kind "echo" replaces the upstream with a local provider that repeats the
// last user message, for smoke tests and demos.
type ProviderConfig struct {
	Kind           string        `mapstructure:"kind"`
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ModelsTimeout  time.Duration `mapstructure:"models_timeout"`
	FallbackModels []string      `mapstructure:"fallback_models"`
}

// MCPConfig controls the MCP (Model Context Protocol) server.
type MCPConfig struct {
	Transport string `mapstructure:"transport"`
	Addr      string `mapstructure:"addr"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultFallbackModels is served by /api/models in addition to whatever
// the provider reports.
var DefaultFallbackModels = []string{
	"gpt-4o",
	"gpt-4o-mini",
	"gpt-4-turbo",
	"gpt-3.5-turbo",
	"gemini-1.5-pro-latest",
	"gemini-1.5-flash-latest",
	"claude-3-opus-20240229",
	"claude-3-sonnet-20240229",
	"llama3-70b-8192",
	"llama3-8b-8192",
}

// SetDefaults registers every default on v. Durations are given as strings
// so that `config show` prints them the way a user would write them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.max_body_size", 1<<20)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_concurrent_chats", 64)
	v.SetDefault("server.chat_backlog", 256)
	v.SetDefault("server.chat_backlog_timeout", "30s")

	v.SetDefault("database.driver", "")
	v.SetDefault("database.dsn", "chatgate.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")

	v.SetDefault("auth.operator_password_hash", "")
	v.SetDefault("auth.operator_password", "")
	v.SetDefault("auth.session_secret", "")
	v.SetDefault("auth.session_ttl", "12h")
	v.SetDefault("auth.session_cookie", "chatgate_session")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.key_prefix", "g4f-")

	v.SetDefault("provider.kind", "openai")
	v.SetDefault("provider.base_url", "http://localhost:1337/v1")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.timeout", "120s")
	v.SetDefault("provider.models_timeout", "10s")
	v.SetDefault("provider.fallback_models", DefaultFallbackModels)

	v.SetDefault("mcp.transport", "stdio")
	v.SetDefault("mcp.addr", ":3001")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// compatEnv maps config keys to the environment variable names used by
// earlier deployments of the gateway.
var compatEnv = map[string]string{
	"database.dsn":           "POSTGRES_URL",
	"auth.operator_password": "SITE_PASSWORD",
	"auth.session_secret":    "FLASK_SECRET",
}

// Load applies defaults and compatibility env bindings to v, decodes it
// into a Config and validates the result. The caller owns reading the
// config file and enabling AutomaticEnv.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	for key, legacy := range compatEnv {
		primary := "CHATGATE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, primary, legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", legacy, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem found in c, joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, errors.New("server.max_body_size must be positive"))
	}
	if c.Server.MaxConcurrentChats <= 0 {
		errs = append(errs, errors.New("server.max_concurrent_chats must be positive"))
	}

	switch c.Database.ResolvedDriver() {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported (postgres, mysql, sqlite)", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}

	if c.Auth.OperatorPasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(c.Auth.OperatorPasswordHash)); err != nil {
			errs = append(errs, fmt.Errorf("auth.operator_password_hash is not a bcrypt hash: %w", err))
		}
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth.session_ttl must be positive"))
	}
	if c.Auth.SessionCookie == "" {
		errs = append(errs, errors.New("auth.session_cookie is required"))
	}

	switch c.Provider.Kind {
	case "openai":
		if c.Provider.BaseURL == "" {
			errs = append(errs, errors.New("provider.base_url is required"))
		}
	case "echo":
	default:
		errs = append(errs, fmt.Errorf("provider.kind %q must be openai or echo", c.Provider.Kind))
	}
	if c.Provider.Timeout <= 0 {
		errs = append(errs, errors.New("provider.timeout must be positive"))
	}
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.Provider.Timeout {
		errs = append(errs, fmt.Errorf("server.write_timeout (%s) must exceed provider.timeout (%s)",
			c.Server.WriteTimeout, c.Provider.Timeout))
	}

	switch c.MCP.Transport {
	case "stdio", "http":
	default:
		errs = append(errs, fmt.Errorf("mcp.transport %q must be stdio or http", c.MCP.Transport))
	}

	return errors.Join(errs...)
}

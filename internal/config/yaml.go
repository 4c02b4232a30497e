package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is written by `chatgate config init`.
const DefaultFile = `# chatgate configuration
# Every key can also be set through the environment as CHATGATE_<SECTION>_<KEY>,
# e.g. CHATGATE_DATABASE_DSN.

server:
  host: 0.0.0.0
  port: 8080
  read_timeout: 15s
  write_timeout: 150s     # must exceed provider.timeout
  shutdown_timeout: 30s
  max_body_size: 1048576
  cors_origins:
    - "*"
  max_concurrent_chats: 64
  chat_backlog: 256
  chat_backlog_timeout: 30s

# Credential store. driver is one of postgres, mysql, sqlite; when empty it is
# inferred from the DSN. POSTGRES_URL is honored for dsn.
database:
  driver: ""
  dsn: chatgate.db
  max_open_conns: 10
  max_idle_conns: 5
  conn_max_lifetime: 5m

auth:
  # bcrypt hash, generate with 'chatgate operator hash-password'
  operator_password_hash: ""
  operator_password: ""   # plain alternative, honored from SITE_PASSWORD
  session_secret: ""      # random per process when empty
  session_ttl: 12h
  session_cookie: chatgate_session
  cookie_secure: false
  key_prefix: g4f-

# Upstream OpenAI-compatible completion API
provider:
  kind: openai            # openai or echo
  base_url: http://localhost:1337/v1
  api_key: ""
  timeout: 120s
  models_timeout: 10s

mcp:
  transport: stdio        # stdio or http
  addr: ":3001"

logging:
  level: info             # debug, info, warn, error
  format: text            # text or json
`

// WriteDefaultFile writes DefaultFile to path. An existing file is only
// replaced when force is set.
func WriteDefaultFile(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	return os.WriteFile(path, []byte(DefaultFile), 0600)
}

var secretKeys = map[string][]string{
	"auth":     {"operator_password", "operator_password_hash", "session_secret"},
	"provider": {"api_key"},
	"database": {"dsn"},
}

// RenderSettings marshals a viper settings tree to YAML with secrets
// replaced by a placeholder.
func RenderSettings(settings map[string]interface{}) ([]byte, error) {
	for section, keys := range secretKeys {
		sub, ok := settings[section].(map[string]interface{})
		if !ok {
			continue
		}
		for _, k := range keys {
			if v, ok := sub[k]; ok && fmt.Sprint(v) != "" {
				sub[k] = "********"
			}
		}
	}
	return yaml.Marshal(settings)
}

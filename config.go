package mongos

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration constants for connection operations
const (
	DefaultHost              = "localhost:27017"
	DefaultConnectTimeout    = 30 * time.Second
	DefaultDisconnectTimeout = 10 * time.Second

	schemeStandard = "mongodb://"
	schemeSRV      = "mongodb+srv://"

	redactedMarker = "****"
)

// Config describes how to reach the database.
// It is copied when a Mongos is constructed and is never mutated afterwards.
type Config struct {
	// Host is either host[:port] or a complete mongodb:// or mongodb+srv:// URI.
	Host     string `yaml:"host"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// AuthSource defaults to the driver's choice ("admin") when empty.
	AuthSource string `yaml:"auth_source"`
	AppName    string `yaml:"app_name"`

	// ConnectTimeout bounds one connect attempt, server selection included.
	// Zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// DisconnectTimeout bounds teardown. Zero means DefaultDisconnectTimeout.
	DisconnectTimeout time.Duration `yaml:"disconnect_timeout"`
}

// Validate checks if the Config is usable for a connect attempt
func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "Host",
			"reason": "must not be empty",
		})
	}
	if strings.TrimSpace(c.Database) == "" {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "Database",
			"reason": "must not be empty",
		})
	}
	if strings.ContainsAny(c.Database, "/\\. \"$") {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "Database",
			"value":  c.Database,
			"reason": "contains a character not allowed in database names",
		})
	}
	if c.Password != "" && c.Username == "" {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "Username",
			"reason": "required when Password is set",
		})
	}
	if c.ConnectTimeout < 0 {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "ConnectTimeout",
			"value":  c.ConnectTimeout,
			"reason": "must be non-negative",
		})
	}
	if c.DisconnectTimeout < 0 {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "DisconnectTimeout",
			"value":  c.DisconnectTimeout,
			"reason": "must be non-negative",
		})
	}
	return nil
}

// ConnectionURI returns the URI handed to the driver.
// Credentials are never embedded; they travel as driver auth options.
func (c Config) ConnectionURI() string {
	host := strings.TrimSpace(c.Host)
	if strings.HasPrefix(host, schemeStandard) || strings.HasPrefix(host, schemeSRV) {
		return host
	}
	return schemeStandard + host
}

// redactedHost returns Host with any password in the URI userinfo masked.
// The authority is cut by hand: seed lists ("h1:27017,h2:27017") do not
// parse as a url.URL host.
func (c Config) redactedHost() string {
	host := strings.TrimSpace(c.Host)

	scheme := ""
	for _, s := range []string{schemeStandard, schemeSRV} {
		if strings.HasPrefix(host, s) {
			scheme = s
			break
		}
	}
	rest := host[len(scheme):]

	authority := rest
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		authority = rest[:i]
	}
	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return host
	}

	user, _, hasPassword := strings.Cut(authority[:at], ":")
	if !hasPassword {
		return host
	}
	return scheme + user + ":" + redactedMarker + rest[at:]
}

func (c Config) connectTimeout() time.Duration {
	if c.ConnectTimeout == 0 {
		return DefaultConnectTimeout
	}
	return c.ConnectTimeout
}

func (c Config) disconnectTimeout() time.Duration {
	if c.DisconnectTimeout == 0 {
		return DefaultDisconnectTimeout
	}
	return c.DisconnectTimeout
}

// String renders the config with passwords redacted, including one embedded
// in a Host URI.
func (c Config) String() string {
	password := ""
	if c.Password != "" {
		password = redactedMarker
	}
	return fmt.Sprintf("Config{Host:%s Database:%s Username:%s Password:%s AuthSource:%s AppName:%s ConnectTimeout:%s DisconnectTimeout:%s}",
		c.redactedHost(), c.Database, c.Username, password, c.AuthSource, c.AppName, c.ConnectTimeout, c.DisconnectTimeout)
}

// LoadConfigFile reads a YAML config file. Fields absent from the file keep
// the values from ConfigFromEnv, so a file can override only what it needs.
//
// Example file:
//
//	host: db.example.com:27017
//	database: app
//	username: app
//	connect_timeout: 5s
func LoadConfigFile(path string) (Config, error) {
	cfg := ConfigFromEnv()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, WithContext(ErrInvalidConfig, map[string]interface{}{
			"path":   path,
			"reason": err.Error(),
		})
	}

	return cfg, nil
}

package mongos

import (
	"os"
	"time"
)

// ConfigFromEnv returns a Config populated from standard environment variables.
//
// Environment variables read (with defaults):
//   - MONGO_HOST (default: "localhost:27017")
//   - MONGO_DB (default: "")
//   - MONGO_USERNAME (default: "")
//   - MONGO_PASSWORD (default: "")
//   - MONGO_AUTH_SOURCE (default: "")
//   - MONGO_APP_NAME (default: "")
//   - MONGO_CONNECT_TIMEOUT (default: 30s, Go duration syntax)
//
// MONGO_DB has no default: a Config without a database fails Validate, and that
// failure is reported by the first connect attempt.
//
// Example usage:
//
//	db := mongos.New(mongos.ConfigFromEnv())
//	defer db.Close(context.Background())
func ConfigFromEnv() Config {
	host := os.Getenv("MONGO_HOST")
	if host == "" {
		host = DefaultHost
	}

	return Config{
		Host:           host,
		Database:       os.Getenv("MONGO_DB"),
		Username:       os.Getenv("MONGO_USERNAME"),
		Password:       os.Getenv("MONGO_PASSWORD"),
		AuthSource:     os.Getenv("MONGO_AUTH_SOURCE"),
		AppName:        os.Getenv("MONGO_APP_NAME"),
		ConnectTimeout: getEnvAsDuration("MONGO_CONNECT_TIMEOUT", DefaultConnectTimeout),
	}
}

// ConfigWithOverrides returns ConfigFromEnv with explicit overrides.
// Pass empty strings to keep the environment value.
//
// Example - application config with environment fallback:
//
//	cfg := mongos.ConfigWithOverrides(appCfg.MongoHost, appCfg.MongoDB, "", "")
func ConfigWithOverrides(host, database, username, password string) Config {
	cfg := ConfigFromEnv()

	if host != "" {
		cfg.Host = host
	}
	if database != "" {
		cfg.Database = database
	}
	if username != "" {
		cfg.Username = username
	}
	if password != "" {
		cfg.Password = password
	}

	return cfg
}

// getEnvAsDuration reads a duration environment variable with a default fallback.
func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultVal
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil || value < 0 {
		return defaultVal
	}

	return value
}

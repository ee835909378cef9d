package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strings"
)

// Config holds the runtime configuration of the web server.  Each field
// corresponds to an environment variable.  Backend-specific settings live in
// their own structs (DBConfig, SessionConfig, CacheConfig, QueueConfig,
// RateLimitConfig) and are only loaded when the backend is selected.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    APIBaseURL     string // root of the marketplace API (e.g. https://host/api)
    APIRESTBaseURL string // root of the REST viewsets; empty means APIBaseURL + "/rest"
    SessionSecret  string // HMAC key for the session cookie and cookie store
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:            envStr("APP_ENV", "dev"),
        Port:           must("APP_PORT"),
        APIBaseURL:     strings.TrimRight(must("API_BASE_URL"), "/"),
        APIRESTBaseURL: strings.TrimRight(os.Getenv("API_REST_BASE_URL"), "/"),
        SessionSecret:  must("SESSION_SECRET"),
    }
}

// IsProd reports whether the server runs in production mode.
func (c Config) IsProd() bool { return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production") }

// DBConfig holds the MySQL connection settings of the session store.
type DBConfig struct {
    User string
    Pass string
    Host string
    Port string
    Name string
}

// LoadDBConfig reads the DB_* variables.  It is only called when the MySQL
// session backend is selected, so the variables are required at that point.
func LoadDBConfig() DBConfig {
    return DBConfig{
        User: must("DB_USER"),
        Pass: os.Getenv("DB_PASS"), // empty allowed
        Host: must("DB_HOST"),
        Port: envStr("DB_PORT", "3306"),
        Name: must("DB_NAME"),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

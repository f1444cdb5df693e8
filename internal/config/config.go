package config // package config loads application configuration from environment variables

import (
	"log" // log is used to report configuration errors and halt execution
	"os"  // os provides access to environment variables
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers, secrets and URLs.
type Config struct {
	Env           string // application environment (e.g. "dev", "prod")
	Port          string // HTTP port to listen on
	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	PublicBaseURL string // base URL participants use, e.g. https://order.example.com
	AIBaseURL     string // extraction provider API root (optional)
	AIAPIKey      string // extraction provider API key; empty disables extraction
	AIModel       string // multimodal model name for extraction and titles
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The extraction
// provider settings are optional: without an API key the extraction
// endpoints report a service error and session titles come from the
// local fallback list.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),  // environment (dev/test/prod)
		Port:          must("APP_PORT"), // port to bind the HTTP server
		DBUser:        must("DB_USER"),  // database user
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		PublicBaseURL: getenv("PUBLIC_BASE_URL", "http://localhost:8080"),
		AIBaseURL:     getenv("AI_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
		AIAPIKey:      os.Getenv("AI_API_KEY"),
		AIModel:       getenv("AI_MODEL", "gemini-1.5-flash"),
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

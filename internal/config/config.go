package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Leads store selection: supabase, postgres, dynamodb or memory.
	LeadsStore  string
	LeadsTable  string
	DatabaseURL string

	// Supabase (PostgREST) managed table
	SupabaseURL            string
	SupabaseServiceRoleKey string

	// Intake policy
	AllowedOrigin         string
	MinElapsed            time.Duration
	MaxBodyBytes          int
	RequireName           bool
	RequireContactChannel bool

	// AWS (DynamoDB store, SES notifications)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Operator notifications
	NotifyProvider  string
	NotifyEmailTo   string
	NotifyFromEmail string
	NotifyFromName  string
	SendGridAPIKey  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		LeadsStore:  strings.ToLower(strings.TrimSpace(getEnv("LEADS_STORE", "supabase"))),
		LeadsTable:  getEnv("LEADS_TABLE", "leads"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		SupabaseURL:            strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),

		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "*"),
		MinElapsed:            getEnvAsMillis("MIN_ELAPSED_MS", 1500*time.Millisecond),
		MaxBodyBytes:          getEnvAsInt("MAX_BODY_BYTES", 10_000),
		RequireName:           getEnvAsBool("REQUIRE_NAME", true),
		RequireContactChannel: getEnvAsBool("REQUIRE_CONTACT_CHANNEL", true),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		NotifyProvider:  strings.ToLower(strings.TrimSpace(getEnv("NOTIFY_PROVIDER", "none"))),
		NotifyEmailTo:   getEnv("NOTIFY_EMAIL_TO", ""),
		NotifyFromEmail: getEnv("NOTIFY_FROM_EMAIL", ""),
		NotifyFromName:  getEnv("NOTIFY_FROM_NAME", "Lead Intake"),
		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
	}
}

// AllowedOrigins splits ALLOWED_ORIGIN on commas.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(c.AllowedOrigin, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsMillis accepts either a bare millisecond count ("2500") or a Go duration ("2.5s").
func getEnvAsMillis(key string, defaultValue time.Duration) time.Duration {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	if ms, err := strconv.Atoi(valueStr); err == nil && ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	if value, err := time.ParseDuration(valueStr); err == nil && value >= 0 {
		return value
	}
	return defaultValue
}

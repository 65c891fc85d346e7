package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the planner service.
type Config struct {
	HTTPPort       int
	SQLiteDSN      string
	SessionTTL     time.Duration
	WebhookTimeout time.Duration
	AssistAPIKey   string
	AssistBaseURL  string
	EmbedOrigins   []string
}

// Load parses configuration values from the current process environment.
//
// Every value has a usable default; invalid entries are reported together so
// operators can fix them in one pass.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:       8080,
		SQLiteDSN:      "file:planner.db",
		SessionTTL:     12 * time.Hour,
		WebhookTimeout: 10 * time.Second,
		AssistBaseURL:  "https://generativelanguage.googleapis.com",
		EmbedOrigins:   []string{"*"},
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("PLANNER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "PLANNER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("PLANNER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("PLANNER_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "PLANNER_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("PLANNER_WEBHOOK_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "PLANNER_WEBHOOK_TIMEOUT")
		} else {
			cfg.WebhookTimeout = timeout
		}
	}

	if key := strings.TrimSpace(os.Getenv("PLANNER_ASSIST_API_KEY")); key != "" {
		cfg.AssistAPIKey = key
	}

	if base := strings.TrimSpace(os.Getenv("PLANNER_ASSIST_BASE_URL")); base != "" {
		cfg.AssistBaseURL = strings.TrimSuffix(base, "/")
	}

	if origins := strings.TrimSpace(os.Getenv("PLANNER_EMBED_ORIGINS")); origins != "" {
		parts := strings.Split(origins, ",")
		parsed := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parsed = append(parsed, trimmed)
			}
		}
		if len(parsed) > 0 {
			cfg.EmbedOrigins = parsed
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

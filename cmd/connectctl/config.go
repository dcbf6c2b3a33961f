package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sourcehub/connectkit/pkg/protocol"
)

// config holds all connectctl configuration, read from the environment.
type config struct {
	Environment protocol.Environment
	BaseURL     string

	// Token source: either a static token or a command printing one.
	AccessToken string
	TokenCmd    string

	LogLevel  string
	LogFormat string

	PageSize       int
	ListRPS        float64
	EnabledSources []string
	Tags           map[string]string
}

// loadConfig reads configuration from environment variables with defaults.
func loadConfig() (*config, error) {
	cfg := &config{
		Environment: protocol.Environment(envOr("CONNECT_ENV", string(protocol.EnvProduction))),
		BaseURL:     envOr("CONNECT_BASE_URL", ""),
		AccessToken: envOr("CONNECT_ACCESS_TOKEN", ""),
		TokenCmd:    envOr("CONNECT_TOKEN_CMD", ""),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		LogFormat:   envOr("LOG_FORMAT", "console"),
		PageSize:    envInt("CONNECT_PAGE_SIZE", 0),
		ListRPS:     envFloat("CONNECT_LIST_RPS", 0),
		Tags:        map[string]string{},
	}

	if v := os.Getenv("CONNECT_SOURCES"); v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.EnabledSources = append(cfg.EnabledSources, strings.ToUpper(id))
			}
		}
	}
	if v := os.Getenv("CONNECT_TAGS"); v != "" {
		for _, pair := range strings.Split(v, ",") {
			k, val, ok := strings.Cut(pair, "=")
			if ok {
				cfg.Tags[strings.TrimSpace(k)] = strings.TrimSpace(val)
			}
		}
	}

	if cfg.AccessToken == "" && cfg.TokenCmd == "" {
		return nil, fmt.Errorf("CONNECT_ACCESS_TOKEN or CONNECT_TOKEN_CMD is required")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	ListenAddr string
	// host patterns allowed to open cross-origin websockets
	WSOriginPatterns []string

	RedisURL    string
	DatabaseURL string

	LayoutFile  string
	MessagesDir string

	SessionTTL       time.Duration
	RenderSquareSize int

	SyncBaseURL string
	SyncToken   string
	SyncRetry   int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:       ":8080",
		SessionTTL:       24 * time.Hour,
		RenderSquareSize: 64,
		SyncRetry:        3,
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	cfg.WSOriginPatterns = splitList(os.Getenv("WS_ORIGIN_PATTERNS"))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.LayoutFile = strings.TrimSpace(os.Getenv("LAYOUT_FILE"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))
	cfg.SyncBaseURL = strings.TrimSpace(os.Getenv("SYNC_BASE_URL"))
	cfg.SyncToken = strings.TrimSpace(os.Getenv("SYNC_TOKEN"))

	if v := strings.TrimSpace(os.Getenv("SESSION_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTTL = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("RENDER_SQUARE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 16 && n <= 256 {
			cfg.RenderSquareSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SYNC_RETRY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SyncRetry = n
		}
	}

	if cfg.RedisURL != "" && !strings.HasPrefix(cfg.RedisURL, "redis://") && !strings.HasPrefix(cfg.RedisURL, "rediss://") {
		return nil, errors.New("REDIS_URL must use redis:// or rediss://")
	}
	if cfg.SyncToken != "" && cfg.SyncBaseURL == "" {
		return nil, errors.New("SYNC_TOKEN set without SYNC_BASE_URL")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

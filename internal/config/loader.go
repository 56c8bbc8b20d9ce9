package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/example/culture-center/internal/logging"
)

// Prefix is prepended to every variable name.
const Prefix = "CENTER_"

// Config captures environment driven configuration values for the culture center client.
type Config struct {
	SQLiteDSN       string        `env:"SQLITE_DSN, default=file:culture-center.db"`
	SessionDir      string        `env:"SESSION_DIR"`
	SessionSecret   string        `env:"SESSION_SECRET"`
	SessionTTL      time.Duration `env:"SESSION_TTL, default=24h"`
	LogLevel        string        `env:"LOG_LEVEL, default=info"`
	MetricsTextfile string        `env:"METRICS_TEXTFILE"`
}

// Load parses configuration values from the current process environment.
func Load(ctx context.Context) (Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom parses configuration values from lookuper. Missing required values
// and invalid values are each reported together in a single error.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(Prefix, lookuper),
	}); err != nil {
		return Config{}, fmt.Errorf("환경 변수 값이 올바르지 않습니다: %w", err)
	}

	cfg.SQLiteDSN = strings.TrimSpace(cfg.SQLiteDSN)
	cfg.SessionSecret = strings.TrimSpace(cfg.SessionSecret)
	cfg.SessionDir = strings.TrimSpace(cfg.SessionDir)

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if cfg.SessionSecret == "" {
		missing = append(missing, Prefix+"SESSION_SECRET")
	}
	if cfg.SQLiteDSN == "" {
		invalid = append(invalid, Prefix+"SQLITE_DSN")
	}
	if cfg.SessionTTL <= 0 {
		invalid = append(invalid, Prefix+"SESSION_TTL")
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		invalid = append(invalid, Prefix+"LOG_LEVEL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("필수 환경 변수가 설정되지 않았습니다: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("환경 변수 값이 올바르지 않습니다: %s", strings.Join(invalid, ", "))
	}

	if cfg.SessionDir == "" {
		cfg.SessionDir = defaultSessionDir()
	}
	return cfg, nil
}

func defaultSessionDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "culture-center", "session")
}

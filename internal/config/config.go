package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Dispatch
	Prefix           string   `env:"BOT_PREFIX" envDefault:"."`
	FallbackPrefixes []string `env:"BOT_FALLBACK_PREFIXES" envSeparator:"," envDefault:"/,!,#"`
	Owners           []string `env:"BOT_OWNERS" envSeparator:","`

	// Storage
	DBPath    string `env:"DB_PATH" envDefault:"data/database.json"`
	BackupDir string `env:"BACKUP_DIR" envDefault:"data/backups"`
	PluginDir string `env:"PLUGIN_DIR" envDefault:"plugins"`

	// WhatsApp session
	SessionDB string `env:"SESSION_DB" envDefault:"data/session.db"`
	QRPath    string `env:"QR_PATH" envDefault:"data/qr.png"`

	// Quota defaults (seed values for a fresh database)
	MaxLimit      int           `env:"MAX_LIMIT" envDefault:"50"`
	ResetInterval time.Duration `env:"RESET_LIMIT_INTERVAL" envDefault:"24h"`

	// Flood guard
	FloodRate  float64 `env:"FLOOD_RATE" envDefault:"1"`
	FloodBurst int     `env:"FLOOD_BURST" envDefault:"5"`

	// Admin HTTP API
	AdminAddr     string `env:"ADMIN_ADDR" envDefault:"0.0.0.0:8080"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	JWTSecret     string `env:"JWT_SECRET"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// IsOwner matches a JID against the configured owner list. Owners may
// be configured as bare phone numbers or full JIDs; both forms match
// the same identity.
func (c *Config) IsOwner(jid string) bool {
	bare := strings.SplitN(jid, "@", 2)[0]
	if i := strings.IndexByte(bare, ':'); i >= 0 {
		bare = bare[:i]
	}
	for _, o := range c.Owners {
		if o == jid || strings.SplitN(o, "@", 2)[0] == bare {
			return true
		}
	}
	return false
}

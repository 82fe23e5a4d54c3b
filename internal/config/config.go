// Package config defines the daemon's configuration (spec.md §6
// "Configuration"): an ordered credentials list plus the scheduler's
// polling bounds. Loaded from a YAML file with env var overrides, the way
// 0xtitan6-polymarket-mm's internal/config loads its own Config.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file
// structure.
type Config struct {
	Credentials []CredentialsConfig `mapstructure:"credentials"`
	Scheduler   SchedulerConfig     `mapstructure:"scheduler"`
	Telegram    TelegramConfig      `mapstructure:"telegram"`
	Logging     LoggingConfig       `mapstructure:"logging"`
	Server      ServerConfig        `mapstructure:"server"`
}

// CredentialsConfig is one entry of the ordered credentials list from
// spec.md §6: "name, exchange, key, secret, [passphrase], [endpoint]". The
// manager matches a parsed block's exchange name against Exchange, first
// match wins.
type CredentialsConfig struct {
	Name       string `mapstructure:"name"`
	Exchange   string `mapstructure:"exchange"`
	Key        string `mapstructure:"key"`
	Secret     string `mapstructure:"secret"`
	Passphrase string `mapstructure:"passphrase"`
	Endpoint   string `mapstructure:"endpoint"`
}

// SchedulerConfig holds the polling bounds from spec.md §5: "every loop
// respects [minPollingDelay, maxPollingDelay] seconds".
type SchedulerConfig struct {
	MinPollingDelay time.Duration `mapstructure:"min_polling_delay"`
	MaxPollingDelay time.Duration `mapstructure:"max_polling_delay"`
}

// TelegramConfig configures the notifier used for {!} alerts (spec.md §6
// "Outbound").
type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
	ChatID  int64  `mapstructure:"chat_id"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig controls the ambient HTTP entrypoint (cmd/webhookd) that
// receives the raw message string; the transport itself is out of core
// scope per spec.md §1, but a daemon needs a listen address.
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// Load reads config from a YAML file with INSTABOT_*-prefixed env var
// overrides, the way 0xtitan6-polymarket-mm's config.Load uses its POLY_
// prefix.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("INSTABOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("scheduler.min_polling_delay", time.Second)
	v.SetDefault("scheduler.max_polling_delay", 30*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("server.listen_addr", ":8080")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if token := os.Getenv("INSTABOT_TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}

	return &cfg, nil
}

// Validate checks the fields the daemon cannot run without.
func (c *Config) Validate() error {
	if len(c.Credentials) == 0 {
		return fmt.Errorf("credentials: at least one exchange credentials entry is required")
	}
	for i, cred := range c.Credentials {
		if cred.Exchange == "" {
			return fmt.Errorf("credentials[%d].exchange is required", i)
		}
		if cred.Key == "" || cred.Secret == "" {
			return fmt.Errorf("credentials[%d] (%s): key and secret are required", i, cred.Exchange)
		}
	}
	if c.Scheduler.MinPollingDelay <= 0 {
		return fmt.Errorf("scheduler.min_polling_delay must be > 0")
	}
	if c.Scheduler.MaxPollingDelay < c.Scheduler.MinPollingDelay {
		return fmt.Errorf("scheduler.max_polling_delay must be >= min_polling_delay")
	}
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required when telegram.enabled is true (or set INSTABOT_TELEGRAM_TOKEN)")
	}
	return nil
}

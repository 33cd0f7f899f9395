// Package config loads server configuration from an optional YAML file and
// KIVU_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "KIVU"

// Config holds all server settings.
type Config struct {
	Listen    string `mapstructure:"listen"`
	JSONLogs  bool   `mapstructure:"json_logs"`
	Debug     bool   `mapstructure:"debug"`
	JWTSecret string `mapstructure:"jwt_secret"`

	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
	AI       AIConfig       `mapstructure:"ai"`
}

// AdminConfig bootstraps the first operator account at startup. Skipped when
// either field is empty.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// DatabaseConfig selects the persistence backend. Path empty means the
// in-memory store is used.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// AIConfig configures the Gemini-backed insights generator. Insights are
// disabled when APIKey is empty.
type AIConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxLogLength int           `mapstructure:"max_log_length"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	// Nested keys like "ai.api_key" resolve to KIVU_AI_API_KEY.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8080")
	v.SetDefault("json_logs", false)
	v.SetDefault("debug", false)
	// Every key needs a default: AutomaticEnv only surfaces env values during
	// Unmarshal for keys viper already knows about.
	v.SetDefault("jwt_secret", "")
	v.SetDefault("database.path", "")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.max_log_length", 200)
}

// Load reads the YAML file at path when non-empty, merges KIVU_* environment
// overrides, and returns the resulting configuration.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Listen == "" {
		return fmt.Errorf("config: listen address must not be empty")
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("config: ai.timeout must be positive")
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultCoreURL         = "http://localhost:8000"
	DefaultOrchestratorURL = "http://localhost:8001"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultPollInterval    = 2 * time.Second
	DefaultSearchTopK      = 5
	DefaultAdminTaskLimit  = 100
)

// Config captures user-configurable settings shared across commands.
type Config struct {
	CoreURL         string        `mapstructure:"core_url"`
	OrchestratorURL string        `mapstructure:"orchestrator_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	VoiceEnabled    bool          `mapstructure:"voice_enabled"`
	Verbose         bool          `mapstructure:"verbose"`
}

// Dir returns the phi config directory, creating it if necessary.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".phi")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}

// Load reads configuration from ~/.phi/config.yaml and PHI_* environment
// variables, falling back to defaults. A missing config file is not an error.
func Load() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(dir)
}

// LoadFrom loads configuration rooted at the given directory.
func LoadFrom(dir string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("core_url", DefaultCoreURL)
	v.SetDefault("orchestrator_url", DefaultOrchestratorURL)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("poll_interval", DefaultPollInterval)
	v.SetDefault("voice_enabled", true)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix("PHI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	normalize(&cfg)
	return cfg, nil
}

func normalize(cfg *Config) {
	cfg.CoreURL = strings.TrimRight(strings.TrimSpace(cfg.CoreURL), "/")
	cfg.OrchestratorURL = strings.TrimRight(strings.TrimSpace(cfg.OrchestratorURL), "/")
	if cfg.CoreURL == "" {
		cfg.CoreURL = DefaultCoreURL
	}
	if cfg.OrchestratorURL == "" {
		cfg.OrchestratorURL = DefaultOrchestratorURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
}

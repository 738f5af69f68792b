// Package config provides configuration management for the trading application.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Trading     TradingConfig  `mapstructure:"trading"`
	Strategy    StrategyConfig `mapstructure:"strategy"`
	Credentials Credentials    `mapstructure:"-"` // Loaded separately
}

// TradingConfig holds trading-related configuration.
type TradingConfig struct {
	ExchangeSegment string `mapstructure:"exchange_segment"` // nse_cm, nse_fo, mcx_fo
	Product         string `mapstructure:"product"`          // MIS, CNC, NRML
	Validity        string `mapstructure:"validity"`         // DAY, IOC
}

// StrategyConfig holds price-stepper strategy configuration.
type StrategyConfig struct {
	DownOffset   string `mapstructure:"down_offset"`    // subtracted from realized sell price
	UpOffset     string `mapstructure:"up_offset"`      // added to realized buy price
	PollInterval string `mapstructure:"poll_interval"`  // e.g. "2s"
	MaxPolls     int    `mapstructure:"max_polls"`      // 0 = poll until terminal
	MaxCycles    int    `mapstructure:"max_cycles"`     // 0 = run until cancelled
}

// Credentials holds the Kotak Neo account credentials. All four are
// required; their absence is a fatal startup error.
type Credentials struct {
	ConsumerKey string `mapstructure:"consumer_key"`
	Mobile      string `mapstructure:"mobile"`
	UCC         string `mapstructure:"ucc"`
	MPIN        string `mapstructure:"mpin"`
	TOTPSecret  string `mapstructure:"totp_secret"` // optional, enables unattended login
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/neo-trader"
	}
	return filepath.Join(home, ".config", "neo-trader")
}

// SessionPath returns the path of the persisted session record.
func SessionPath(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "session.json")
}

// JournalPath returns the path of the trade journal database.
func JournalPath(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "journal.db")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func loadConfigFile(configDir string, cfg *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("trading.exchange_segment", "mcx_fo")
	v.SetDefault("trading.product", "MIS")
	v.SetDefault("trading.validity", "DAY")
	v.SetDefault("strategy.down_offset", "300")
	v.SetDefault("strategy.up_offset", "150")
	v.SetDefault("strategy.poll_interval", "2s")
	v.SetDefault("strategy.max_polls", 0)
	v.SetDefault("strategy.max_cycles", 0)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if werr := writeTemplate(configDir, "config.toml", configTemplate); werr != nil {
				return werr
			}
			return v.Unmarshal(cfg)
		}
		return err
	}

	return v.Unmarshal(cfg)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return writeTemplate(configDir, "credentials.toml", credentialsTemplate)
		}
		return err
	}

	return v.UnmarshalKey("kotak", creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KOTAK_CONSUMER_KEY"); v != "" {
		cfg.Credentials.ConsumerKey = v
	}
	if v := os.Getenv("KOTAK_MOBILE"); v != "" {
		cfg.Credentials.Mobile = v
	}
	if v := os.Getenv("KOTAK_UCC"); v != "" {
		cfg.Credentials.UCC = v
	}
	if v := os.Getenv("KOTAK_MPIN"); v != "" {
		cfg.Credentials.MPIN = v
	}
	if v := os.Getenv("KOTAK_TOTP_SECRET"); v != "" {
		cfg.Credentials.TOTPSecret = v
	}
}

// ValidateCredentials checks that all required credentials are present.
func (c *Config) ValidateCredentials() error {
	required := map[string]string{
		"consumer_key (KOTAK_CONSUMER_KEY)": c.Credentials.ConsumerKey,
		"mobile (KOTAK_MOBILE)":             c.Credentials.Mobile,
		"ucc (KOTAK_UCC)":                   c.Credentials.UCC,
		"mpin (KOTAK_MPIN)":                 c.Credentials.MPIN,
	}

	var missing []string
	for name, value := range required {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing credentials: %v", missing)
	}
	return nil
}

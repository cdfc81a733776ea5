package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Discord DiscordConfig `mapstructure:"discord"`
	Poll    PollConfig    `mapstructure:"poll"`
	State   StateConfig   `mapstructure:"state"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type APIConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	TokenURL      string `mapstructure:"token_url"`
	NewsURL       string `mapstructure:"news_url"`
	ClientID      string `mapstructure:"client_id"`
	ClientSecret  string `mapstructure:"client_secret"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	RatePerSecond int    `mapstructure:"rate_per_second"`
}

type DiscordConfig struct {
	Token      string `mapstructure:"token"`
	BaseURL    string `mapstructure:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

type PollConfig struct {
	IntervalMinutes int  `mapstructure:"interval_minutes"`
	News            bool `mapstructure:"news"`
}

type StateConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("api.base_url", "https://sirius.fit.cvut.cz/api/v1")
	v.SetDefault("api.token_url", "https://auth.fit.cvut.cz/oauth/oauth/token")
	v.SetDefault("api.news_url", "https://courses.fit.cvut.cz/api/v1")
	v.SetDefault("api.timeout_sec", 30)
	v.SetDefault("api.rate_per_second", 2)
	v.SetDefault("discord.base_url", "https://discord.com/api/v10")
	v.SetDefault("discord.timeout_sec", 30)
	v.SetDefault("poll.interval_minutes", 120)
	v.SetDefault("poll.news", true)
	v.SetDefault("state.path", "state.json")
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("logging.enabled", false)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("SIRIUSWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// The three secrets keep their historical env names
	_ = v.BindEnv("discord.token", "DISCORD_TOKEN")
	_ = v.BindEnv("api.client_id", "SIRIUS_CLIENT_ID")
	_ = v.BindEnv("api.client_secret", "SIRIUS_CLIENT_SECRET")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("siriuswatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate enforces the required startup secrets. There is no
// partial-credential mode.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord token is required (set DISCORD_TOKEN env var)")
	}
	if c.API.ClientID == "" {
		return fmt.Errorf("client id is required (set SIRIUS_CLIENT_ID env var)")
	}
	if c.API.ClientSecret == "" {
		return fmt.Errorf("client secret is required (set SIRIUS_CLIENT_SECRET env var)")
	}
	if c.Poll.IntervalMinutes < 1 {
		return fmt.Errorf("poll interval must be >= 1 minute")
	}
	return nil
}

package scheduler

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	APIBase      string `mapstructure:"api_base"`
	APIKey       string `mapstructure:"api_key"`
	CallbackBase string `mapstructure:"callback_base"`
	Timezone     string `mapstructure:"timezone"`
}

func LoadConfig(profilePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(profilePath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.UnmarshalKey("scheduler", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse scheduler config: %w", err)
	}

	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.cron-job.org"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Europe/Istanbul"
	}
	if cfg.CallbackBase == "" {
		return nil, fmt.Errorf("scheduler callback_base is required")
	}
	return &cfg, nil
}

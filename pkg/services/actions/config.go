package actions

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadEmailConfig reads the engine-level SMTP settings from the shared
// config file.
func LoadEmailConfig(profilePath string) (*EmailConfig, error) {
	v := viper.New()
	v.SetConfigFile(profilePath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg EmailConfig
	if err := v.UnmarshalKey("email", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse email config: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &cfg, nil
}

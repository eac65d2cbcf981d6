package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type cliConfig struct {
	APIURL      string        `mapstructure:"api_url"`
	SessionFile string        `mapstructure:"session_file"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func defaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "movietracker")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "movietracker")
}

// loadConfig reads config.yaml from dir (or the user config dir when empty)
// with MOVIETRACKER_* environment overrides. A missing file is fine.
func loadConfig(dir string) (*cliConfig, error) {
	if dir == "" {
		dir = defaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("session_file", filepath.Join(dir, "session.db"))
	v.SetDefault("timeout", 15*time.Second)

	v.SetEnvPrefix("MOVIETRACKER")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := new(cliConfig)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}

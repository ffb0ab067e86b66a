// Package config loads settings from ~/.modhub/config.toml and the
// environment. Command-line flags override anything loaded here.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultAPIBaseURL = "http://127.0.0.1:8787"
	DefaultServerAddr = "127.0.0.1:8787"
)

type Config struct {
	v *viper.Viper
}

// Load reads the config file if present; a missing file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".modhub"))
	}
	v.SetEnvPrefix("MODHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", DefaultAPIBaseURL)
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.db_path", defaultDBPath())
	v.SetDefault("workspace.default", int64(0))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return &Config{v: v}, nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "modhub.sqlite"
	}
	return filepath.Join(home, ".modhub", "modhub.sqlite")
}

func (c *Config) APIBaseURL() string { return c.v.GetString("api.base_url") }
func (c *Config) ServerAddr() string { return c.v.GetString("server.addr") }
func (c *Config) DBPath() string     { return c.v.GetString("server.db_path") }

// DefaultWorkspace is 0 when no default is configured.
func (c *Config) DefaultWorkspace() int64 { return c.v.GetInt64("workspace.default") }

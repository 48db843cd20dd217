// Package config loads console configuration from defaults, a YAML file,
// RAILCONSOLE_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/rmacdonaldsmith/railconsole/pkg/httpclient"
)

// Defaults
const (
	DefaultServerURL      = "http://localhost:8082/api/v1"
	DefaultTimeout        = "30s"
	DefaultListen         = ":8080"
	DefaultLoginPath      = "/login"
	DefaultSessionIdle    = "30m"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultDevListen      = ":8082"
	DefaultDevSecret      = "railconsole-dev-secret"
	DefaultDevUsername    = "admin"
	DefaultDevPassword    = "admin"
	DefaultDevTokenTTL    = "24h"
	DefaultConfigFileName = "railconsole.yaml"
	envPrefix             = "RAILCONSOLE_"
	minSessionSecretBytes = 32
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the merged configuration of every console binary.
type Config struct {
	ServerURL       string        `koanf:"server_url"`
	Timeout         time.Duration `koanf:"timeout"`
	NotifyOnSuccess bool          `koanf:"notify_on_success"`
	StatePath       string        `koanf:"state_path"`

	Listen        string        `koanf:"listen"`
	SessionSecret string        `koanf:"session_secret"`
	LoginPath     string        `koanf:"login_path"`
	SessionIdle   time.Duration `koanf:"session_idle"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
	Metrics   bool   `koanf:"metrics"`

	DevServer DevServerConfig `koanf:"devserver"`
}

// DevServerConfig configures the development backend.
type DevServerConfig struct {
	Listen   string        `koanf:"listen"`
	Secret   string        `koanf:"secret"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	TokenTTL time.Duration `koanf:"token_ttl"`
}

// DefaultStatePath returns the default client storage location.
func DefaultStatePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "railconsole", "state.db")
	}
	return filepath.Join(".railconsole", "state.db")
}

// Load merges configuration. Precedence (highest to lowest):
// flags > env vars > config file > defaults. Only flags that were set on the
// command line are applied; dashes in flag names map to underscores and a
// "devserver-" prefix selects the devserver section.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"server_url":          DefaultServerURL,
		"timeout":             DefaultTimeout,
		"notify_on_success":   httpclient.DefaultNotifyOnSuccess,
		"state_path":          DefaultStatePath(),
		"listen":              DefaultListen,
		"login_path":          DefaultLoginPath,
		"session_idle":        DefaultSessionIdle,
		"log_level":           DefaultLogLevel,
		"log_format":          DefaultLogFormat,
		"metrics":             false,
		"devserver.listen":    DefaultDevListen,
		"devserver.secret":    DefaultDevSecret,
		"devserver.username":  DefaultDevUsername,
		"devserver.password":  DefaultDevPassword,
		"devserver.token_ttl": DefaultDevTokenTTL,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file, explicit or railconsole.yaml in the working directory
	if cfgFile == "" {
		if _, err := os.Stat(DefaultConfigFileName); err == nil {
			cfgFile = DefaultConfigFileName
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment: RAILCONSOLE_SERVER_URL -> server_url,
	// RAILCONSOLE_DEVSERVER_LISTEN -> devserver.listen
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return configKey(strings.ReplaceAll(f.Name, "-", "_")), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

func envKey(s string) string {
	return configKey(strings.ToLower(strings.TrimPrefix(s, envPrefix)))
}

// configKey nests "devserver_" keys under the devserver section.
func configKey(key string) string {
	if rest, ok := strings.CutPrefix(key, "devserver_"); ok {
		return "devserver." + rest
	}
	return key
}

// Validate checks the settings every binary relies on.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: server_url %q must be an absolute URL", ErrInvalidConfig, c.ServerURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.LoginPath, "/") {
		return fmt.Errorf("%w: login_path %q must start with /", ErrInvalidConfig, c.LoginPath)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	return nil
}

// ValidateWeb additionally checks the web console settings.
func (c *Config) ValidateWeb() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.SessionSecret) < minSessionSecretBytes {
		return fmt.Errorf("%w: session_secret must be at least %d bytes", ErrInvalidConfig, minSessionSecretBytes)
	}
	if c.Listen == "" {
		return fmt.Errorf("%w: listen is required", ErrInvalidConfig)
	}
	return nil
}

// ClientConfig returns the request pipeline configuration.
func (c *Config) ClientConfig() httpclient.Config {
	return httpclient.Config{
		BaseURL:         c.ServerURL,
		Timeout:         c.Timeout,
		NotifyOnSuccess: httpclient.Bool(c.NotifyOnSuccess),
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/outlookmcp"
	configFileName = "config.yaml"

	// DefaultPort is the local port used for the OAuth redirect callback.
	DefaultPort = 8275

	// DefaultAccountName is used when accounts are synthesized from
	// environment variables instead of a manifest.
	DefaultAccountName = "Default"
)

// AccountConfig describes one Azure AD account the server can act as.
type AccountConfig struct {
	Name         string `yaml:"name"`
	TenantID     string `yaml:"tenantId"`
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
}

// ServerConfig holds settings for the local OAuth callback listener.
type ServerConfig struct {
	Port        int    `yaml:"port"`
	RedirectURI string `yaml:"redirectUri"`
}

// Config is the top-level configuration manifest.
type Config struct {
	Accounts []AccountConfig `yaml:"accounts"`
	Server   ServerConfig    `yaml:"server"`
}

// DefaultConfigPath returns the default config file location under the
// user's home directory.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(userConfigDir, configFileName)
	}
	return filepath.Join(homeDir, userConfigDir, configFileName)
}

// Load reads the configuration manifest from path, defaulting to
// DefaultConfigPath when path is empty. When the file does not exist,
// accounts are synthesized from environment variables instead
// (OUTLOOK_TENANT_ID, OUTLOOK_CLIENT_ID, OUTLOOK_CLIENT_SECRET,
// OUTLOOK_REDIRECT_URI, OUTLOOK_PORT). The returned config is validated;
// an invalid configuration is a startup failure.
func Load(path string) (Config, error) {
	var cfg Config

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		cfg = fromEnv()
	default:
		return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fromEnv synthesizes a single-account configuration from discrete
// environment variables. This is the legacy configuration shape.
func fromEnv() Config {
	cfg := Config{
		Accounts: []AccountConfig{{
			Name:         DefaultAccountName,
			TenantID:     os.Getenv("OUTLOOK_TENANT_ID"),
			ClientID:     os.Getenv("OUTLOOK_CLIENT_ID"),
			ClientSecret: os.Getenv("OUTLOOK_CLIENT_SECRET"),
		}},
		Server: ServerConfig{
			RedirectURI: os.Getenv("OUTLOOK_REDIRECT_URI"),
		},
	}
	if portStr := os.Getenv("OUTLOOK_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Server.Port = port
		}
	}
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.RedirectURI == "" {
		c.Server.RedirectURI = fmt.Sprintf("http://localhost:%d/callback", c.Server.Port)
	}
	for i := range c.Accounts {
		if c.Accounts[i].TenantID == "" {
			// Azure AD "common" authority accepts both work and
			// personal accounts.
			c.Accounts[i].TenantID = "common"
		}
	}
}

// Validate checks that the configuration can support a running server.
func (c *Config) Validate() error {
	if len(c.Accounts) == 0 {
		return fmt.Errorf("no accounts configured")
	}

	seen := make(map[string]bool, len(c.Accounts))
	for i, acc := range c.Accounts {
		if acc.Name == "" {
			return fmt.Errorf("account %d: name is required", i)
		}
		if acc.ClientID == "" {
			return fmt.Errorf("account %q: clientId is required", acc.Name)
		}
		if acc.ClientSecret == "" {
			return fmt.Errorf("account %q: clientSecret is required", acc.Name)
		}
		if seen[acc.Name] {
			return fmt.Errorf("duplicate account name %q", acc.Name)
		}
		seen[acc.Name] = true
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

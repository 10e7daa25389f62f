package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"leaguelink/pkg/logging"
)

const (
	userConfigDir  = ".config/leaguelink"
	configFileName = "config.yaml"
)

// Environment variables carrying secret material. Secrets never live in
// config.yaml.
const (
	EnvVaultKey      = "LEAGUELINK_VAULT_KEY"
	EnvWebhookSecret = "LEAGUELINK_BILLING_WEBHOOK_SECRET"
	EnvYahooSecret   = "LEAGUELINK_YAHOO_CLIENT_SECRET"
)

// Config is the top-level configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Trust   TrustConfig   `yaml:"trust"`
	Yahoo   YahooConfig   `yaml:"yahoo"`
	Billing BillingConfig `yaml:"billing"`
}

// ServerConfig carries the gateway listen settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// TrustConfig carries the JWT issuer and audience values.
type TrustConfig struct {
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
}

// YahooConfig carries the registered Yahoo application identity. The client
// secret comes from the environment.
type YahooConfig struct {
	ClientID string `yaml:"client_id"`
}

// BillingConfig toggles the billing webhook surface. The webhook secret
// comes from the environment.
type BillingConfig struct {
	WebhookEnabled bool `yaml:"webhook_enabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Trust: TrustConfig{
			Issuer:   "leaguelink",
			Audience: "leaguelink-clients",
		},
	}
}

func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// Load reads config.yaml from the given directory, falling back to defaults
// when the file does not exist.
func Load(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := Default()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		return Config{}, err
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}

// VaultKey reads the 32-byte hex-encoded credential encryption key from the
// environment.
func VaultKey() ([]byte, error) {
	encoded := os.Getenv(EnvVaultKey)
	if encoded == "" {
		return nil, fmt.Errorf("%s is not set", EnvVaultKey)
	}

	key, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%s is not valid hex: %w", EnvVaultKey, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s must decode to 32 bytes, got %d", EnvVaultKey, len(key))
	}
	return key, nil
}

// WebhookSecret reads the billing webhook signing secret from the
// environment.
func WebhookSecret() ([]byte, error) {
	secret := os.Getenv(EnvWebhookSecret)
	if secret == "" {
		return nil, fmt.Errorf("%s is not set", EnvWebhookSecret)
	}
	return []byte(secret), nil
}

// YahooClientSecret reads the Yahoo application secret from the
// environment. An empty value is allowed; token refresh then fails until it
// is configured.
func YahooClientSecret() string {
	return os.Getenv(EnvYahooSecret)
}

package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "leaguelink", cfg.Trust.Issuer)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  host: 0.0.0.0
  port: 9999
yahoo:
  client_id: yh-client
billing:
  webhook_enabled: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "yh-client", cfg.Yahoo.ClientID)
	assert.True(t, cfg.Billing.WebhookEnabled)
	// Untouched sections keep their defaults.
	assert.Equal(t, "leaguelink-clients", cfg.Trust.Audience)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: ["), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestVaultKey(t *testing.T) {
	t.Setenv(EnvVaultKey, "")
	_, err := VaultKey()
	assert.Error(t, err)

	t.Setenv(EnvVaultKey, "not-hex")
	_, err = VaultKey()
	assert.Error(t, err)

	t.Setenv(EnvVaultKey, "abcd")
	_, err = VaultKey()
	assert.Error(t, err)

	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}
	t.Setenv(EnvVaultKey, hex.EncodeToString(raw))
	key, err := VaultKey()
	require.NoError(t, err)
	assert.Equal(t, raw, key)
}

func TestWebhookSecret(t *testing.T) {
	t.Setenv(EnvWebhookSecret, "")
	_, err := WebhookSecret()
	assert.Error(t, err)

	t.Setenv(EnvWebhookSecret, "whsec")
	secret, err := WebhookSecret()
	require.NoError(t, err)
	assert.Equal(t, []byte("whsec"), secret)
}

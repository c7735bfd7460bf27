package auth0

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "AUTH0_DOMAIN=https://tenant.example.com/\nAUTH0_CLIENT_ID=file-client\nAUTH0_CLIENT_SECRET=file-secret\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("AUTH0_CLIENT_ID", "env-client")
	t.Setenv("AUTH0_REFRESH_INTERVAL", "30s")
	t.Cleanup(func() {
		os.Unsetenv("AUTH0_DOMAIN")
		os.Unsetenv("AUTH0_CLIENT_SECRET")
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-client", cfg.ClientID, "environment wins over the file")
	assert.Equal(t, "file-secret", cfg.ClientSecret)
	assert.Equal(t, DefaultConnection, cfg.Connection)
	assert.Equal(t, DefaultRequestsPerSecond, cfg.RequestsPerSecond)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "tenant.example.com", cfg.domain())
	assert.Equal(t, "https://tenant.example.com/", cfg.issuerURL())
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig("tenant.example.com", "client", "secret")
	require.NoError(t, cfg.Validate())

	cfg.Domain = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig("tenant.example.com", "client", "secret")
	cfg.RequestsPerSecond = 0
	assert.Error(t, cfg.Validate())
}

func TestNormalizeIssuer(t *testing.T) {
	assert.Equal(t, "https://a.example.com/", normalizeIssuer(" https://a.example.com "))
	assert.Equal(t, "https://a.example.com/", normalizeIssuer("https://a.example.com/"))
	assert.Equal(t, "", normalizeIssuer(""))
}

func TestSplitName(t *testing.T) {
	first, last := splitName("Jane Q Doe")
	assert.Equal(t, "Jane", first)
	assert.Equal(t, "Q Doe", last)

	first, last = splitName("Prince")
	assert.Equal(t, "Prince", first)
	assert.Empty(t, last)
}

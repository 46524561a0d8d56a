package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Configuration {
	cfg := NewDefault()
	cfg.Auth.Username = "tester"
	cfg.Auth.APIKey = "secret"
	cfg.Auth.AuthURL = "https://auth.example.com/v1.0"
	return cfg
}

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()

	assert.Equal(t, 90*time.Second, cfg.Transport.Timeout)
	assert.Equal(t, 64*1024, cfg.Transport.ChunkSize)
	assert.Equal(t, "cloudstow-go/1.0", cfg.Transport.UserAgent)
	assert.Equal(t, 1, cfg.Retry.MaxAttempts)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "cloudstow", cfg.Metrics.Namespace)
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_MissingCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Username = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Auth.APIKey = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Auth.AuthURL = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_BadValues(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.AuthURL = "not a url"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Transport.ChunkSize = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Transport.Proxy.Username = "proxyuser"
	assert.Error(t, cfg.Validate(), "proxy credentials without address must fail")
}

func TestLoadFromFile(t *testing.T) {
	content := `
auth:
  username: filetester
  api_key: filekey
  auth_url: https://auth.example.com/v1.0
  service_net: true
transport:
  timeout: 30s
  chunk_size: 8192
retry:
  max_attempts: 3
`
	path := filepath.Join(t.TempDir(), "cloudstow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := NewDefault()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "filetester", cfg.Auth.Username)
	assert.True(t, cfg.Auth.ServiceNet)
	assert.Equal(t, 30*time.Second, cfg.Transport.Timeout)
	assert.Equal(t, 8192, cfg.Transport.ChunkSize)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	// Untouched values keep their defaults.
	assert.Equal(t, "cloudstow-go/1.0", cfg.Transport.UserAgent)
}

func TestLoadFromFile_Missing(t *testing.T) {
	cfg := NewDefault()
	assert.Error(t, cfg.LoadFromFile("/does/not/exist.yaml"))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CLOUDSTOW_USERNAME", "envtester")
	t.Setenv("CLOUDSTOW_API_KEY", "envkey")
	t.Setenv("CLOUDSTOW_AUTH_URL", "https://auth.example.com/v1.0")
	t.Setenv("CLOUDSTOW_SERVICE_NET", "true")
	t.Setenv("CLOUDSTOW_CHUNK_SIZE", "1024")
	t.Setenv("CLOUDSTOW_LOG_LEVEL", "debug")

	cfg := NewDefault()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "envtester", cfg.Auth.Username)
	assert.Equal(t, "envkey", cfg.Auth.APIKey)
	assert.True(t, cfg.Auth.ServiceNet)
	assert.Equal(t, 1024, cfg.Transport.ChunkSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestSaveToFileRoundTrip(t *testing.T) {
	cfg := validConfig()
	cfg.Transport.ChunkSize = 4096

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	loaded := NewDefault()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, cfg.Auth, loaded.Auth)
	assert.Equal(t, 4096, loaded.Transport.ChunkSize)
}

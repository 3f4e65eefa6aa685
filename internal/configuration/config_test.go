package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleConfig = `{
  "mongo": {"uri": "", "database": "chat"},
  "server": {"app_port": 9000, "socket_port": 9001, "allowed_origins": ["http://localhost:3000"]},
  "auth": {"secret": "file-secret", "token_duration_hours": 2},
  "hub": {"send_buffer": 16, "send_timeout_ms": 500, "typing_throttle_ms": 1500},
  "log": {"level": "warn"}
}`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.True(t, cfg.UseMemoryStore())
	assert.Equal(t, 9000, cfg.Server.AppPort)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.TokenDuration())
	assert.Equal(t, 500*time.Millisecond, cfg.SendTimeout())
	assert.Equal(t, 1500*time.Millisecond, cfg.TypingThrottle())
	assert.Equal(t, "messages", cfg.ChatDatabase.MessagesCollection, "defaulted")
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CHATAPP_MONGO_URI", "mongodb://db:27017")
	t.Setenv("CHATAPP_AUTH_SECRET", "env-secret")
	t.Setenv("CHATAPP_SERVER_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CHATAPP_HUB_SEND_BUFFER", "64")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.False(t, cfg.UseMemoryStore())
	assert.Equal(t, "mongodb://db:27017", cfg.ChatDatabase.Uri)
	assert.Equal(t, "chat", cfg.ChatDatabase.Database, "file value kept")
	assert.Equal(t, "env-secret", cfg.Auth.Secret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 64, cfg.Hub.SendBuffer)
	assert.Equal(t, 9001, cfg.Server.SocketPort)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, `{"auth": {}}`))
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = LoadConfig(writeConfig(t, `{`))
	assert.ErrorContains(t, err, "decode")

	t.Setenv("CHATAPP_HUB_SEND_BUFFER", "lots")
	_, err = LoadConfig(writeConfig(t, sampleConfig))
	assert.ErrorContains(t, err, "parse env:")
}

func TestConfigPath(t *testing.T) {
	path, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "config/config.dev.json", path)

	t.Setenv("CHATAPP_CONFIG_PATH", "/etc/chat/prod.json")
	path, err = ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/chat/prod.json", path)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = NewLogger(LogConfig{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewContainerWithMemoryStore(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	c, err := NewContainer(*cfg, zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, c.Memory)
	assert.NotNil(t, c.MessageHandler)
	assert.NotNil(t, c.UserHandler)
	assert.NotNil(t, c.MonitorHandler)
	require.NoError(t, c.Close())
}

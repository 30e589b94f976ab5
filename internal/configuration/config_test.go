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

// chdir changes the working directory for the duration of the test,
// matching t.Chdir from Go 1.24 (unavailable on this toolchain).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig(zap.NewNop(), "config")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.AppPort)
	assert.Equal(t, 8081, cfg.Server.SocketPort)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "massenger", cfg.Mongo.Database)
	assert.Equal(t, "messages", cfg.Mongo.MessagesCollection)
	assert.Equal(t, 5*time.Second, cfg.Hub.TypingTTL)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yaml := `
server:
  app_port: 9090
  allowed_origins:
    - https://chat.example.com
mongo:
  database: chat_test
hub:
  typing_ttl: 2s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := LoadConfig(zap.NewNop(), "config")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.AppPort)
	assert.Equal(t, []string{"https://chat.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "chat_test", cfg.Mongo.Database)
	assert.Equal(t, 2*time.Second, cfg.Hub.TypingTTL)

	// values the file does not mention keep their defaults
	assert.Equal(t, 8081, cfg.Server.SocketPort)
	assert.Equal(t, "messages", cfg.Mongo.MessagesCollection)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MASSENGER_MONGO_DATABASE", "from_env")

	cfg, err := LoadConfig(zap.NewNop(), "config")
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.Mongo.Database)
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [not: valid"), 0o644))

	_, err := LoadConfig(zap.NewNop(), "config")
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func envFrom(values map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		value, ok := values[name]
		return value, ok
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := load("", envFrom(nil))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
client:
  server_url: http://quiz.internal:9000
  http_timeout: 3s
backend:
  jwt_secret: from-file
  allowed_origins: [http://localhost:3000]
`), 0o600))

	cfg, err := load(path, envFrom(map[string]string{
		"QUIZ_JWT_SECRET":      "from-env",
		"QUIZ_TICK_INTERVAL":   "500ms",
		"QUIZ_ALLOWED_ORIGINS": "https://a.example, https://b.example",
	}))
	require.NoError(t, err)

	require.Equal(t, "http://quiz.internal:9000", cfg.Client.ServerURL)
	require.Equal(t, 3*time.Second, cfg.Client.HTTPTimeout)
	require.Equal(t, 500*time.Millisecond, cfg.Client.TickInterval)
	require.Equal(t, "quiz-client.db", cfg.Client.DBPath, "unset keys keep defaults")
	require.Equal(t, "from-env", cfg.Backend.JWTSecret)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Backend.AllowedOrigins)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client:\n  server: http://x\n"), 0o600))

	_, err := load(path, envFrom(nil))
	require.Error(t, err)
}

func TestLoadCollectsEnvErrors(t *testing.T) {
	_, err := load("", envFrom(map[string]string{
		"QUIZ_HTTP_TIMEOUT": "soon",
		"QUIZ_TOKEN_TTL":    "forever",
	}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "QUIZ_HTTP_TIMEOUT")
	require.Contains(t, err.Error(), "QUIZ_TOKEN_TTL")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "missing.yaml"), envFrom(nil))
	require.Error(t, err)
}

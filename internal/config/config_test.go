package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "ENV", "LOG_LEVEL", "JWT_SECRET", "JWT_TTL_HOURS", "STORAGE_BACKEND",
	"DATABASE_URL", "REDIS_URL", "UPLOAD_DIR", "MAX_UPLOAD_BYTES", "OPENAI_API_KEY",
	"OPENAI_BASE_URL", "OPENAI_MODEL", "AI_TIMEOUT_SECONDS", "AI_CACHE_TTL_MINUTES",
	"CORS_ORIGINS", "TRUSTED_PROXIES",
}

// cleanEnv unsets every config key for the duration of the test and moves
// into an empty directory so no stray .env is picked up.
func cleanEnv(t *testing.T) string {
	t.Helper()
	for _, key := range configKeys {
		if old, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { os.Setenv(key, old) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.EqualValues(t, 10<<20, cfg.MaxUploadBytes)
	assert.Equal(t, 30*time.Second, cfg.AITimeout)
	assert.Equal(t, time.Hour, cfg.AICacheTTL)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Nil(t, cfg.TrustedProxies)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_Overrides(t *testing.T) {
	cleanEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STORAGE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/studymate")
	t.Setenv("JWT_TTL_HOURS", "2")
	t.Setenv("AI_CACHE_TTL_MINUTES", "5")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.StorageBackend)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Minute, cfg.AICacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.TrustedProxies)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := cleanEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("PORT=7777\nOPENAI_MODEL=local-model\n"), 0o600))
	t.Setenv("OPENAI_MODEL", "from-env")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "7777", cfg.Port)
	assert.Equal(t, "from-env", cfg.OpenAIModel, "real environment wins over .env")
}

func TestLoadConfig_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"STORAGE_BACKEND": "mongo"}},
		{"postgres without url", map[string]string{"STORAGE_BACKEND": "postgres"}},
		{"production without secret", map[string]string{"ENV": "production"}},
		{"bad ttl", map[string]string{"JWT_TTL_HOURS": "forever"}},
		{"negative upload size", map[string]string{"MAX_UPLOAD_BYTES": "-1"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleanEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

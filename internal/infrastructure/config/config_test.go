package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearKeyEnv(t *testing.T) {
	for _, name := range []string{"API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "RASOIOPS_AI_API_KEY", "RASOIOPS_AI_API_KEY_FILE"} {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearKeyEnv(t)
	path := writeConfig(t, "ai:\n  provider: mock\n")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "RasoiOps", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ProviderMock, cfg.AI.Provider)
	assert.Equal(t, int64(10<<20), cfg.AI.MaxImageBytes)
	assert.Equal(t, 3, cfg.AI.Retry.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.AI.Retry.InitialDelay)
	assert.Equal(t, 30*time.Second, cfg.AI.Retry.MaxDelay)
	assert.Equal(t, 7*24*time.Hour, cfg.Inventory.DefaultShelfLife)
	assert.Equal(t, 72*time.Hour, cfg.Inventory.ExpiringSoonWindow)
	assert.True(t, cfg.Inventory.SeedDemo)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, PhotosNone, cfg.Photos.Provider)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("RASOIOPS_SERVER_PORT", "9191")
	t.Setenv("RASOIOPS_AI_RETRY_MAX_RETRIES", "5")
	t.Setenv("RASOIOPS_INVENTORY_EXPIRING_SOON_WINDOW", "48h")
	path := writeConfig(t, "ai:\n  provider: mock\n")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 5, cfg.AI.Retry.MaxRetries)
	assert.Equal(t, 48*time.Hour, cfg.Inventory.ExpiringSoonWindow)
}

func TestLoad_APIKeyFallback(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("API_KEY", "generic-key")
	path := writeConfig(t, "ai:\n  provider: gemini\n")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "generic-key", cfg.AI.APIKey)

	t.Setenv("GEMINI_API_KEY", "gemini-key")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.AI.APIKey)
}

func TestLoad_SecretFiles(t *testing.T) {
	clearKeyEnv(t)
	keyFile := filepath.Join(t.TempDir(), "api_key")
	require.NoError(t, os.WriteFile(keyFile, []byte("file-key\n"), 0o600))
	t.Setenv("RASOIOPS_AI_API_KEY_FILE", keyFile)
	t.Setenv("API_KEY", "generic-key")
	path := writeConfig(t, "ai:\n  provider: gemini\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.AI.APIKey)

	// An explicit value is not replaced
	t.Setenv("RASOIOPS_AI_API_KEY", "env-key")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.AI.APIKey)

	t.Setenv("RASOIOPS_AI_API_KEY", "")
	t.Setenv("RASOIOPS_AI_API_KEY_FILE", filepath.Join(t.TempDir(), "missing"))
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RASOIOPS_AI_API_KEY_FILE")
}

func TestLoad_MissingKeyFails(t *testing.T) {
	clearKeyEnv(t)
	path := writeConfig(t, "ai:\n  provider: gemini\n")

	_, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ai.api_key is required")
}

func TestValidate(t *testing.T) {
	clearKeyEnv(t)
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"UnknownProvider", "ai:\n  provider: claude\n", "ai.provider must be one of"},
		{"UnknownStorage", "ai:\n  provider: mock\nstorage:\n  driver: mongo\n", "storage.driver must be one of"},
		{"S3WithoutBucket", "ai:\n  provider: mock\nphotos:\n  provider: s3\n", "photos.s3_bucket is required"},
		{"NegativeRetries", "ai:\n  provider: mock\n  retry:\n    max_retries: -1\n", "max_retries must not be negative"},
		{"BadPort", "ai:\n  provider: mock\nserver:\n  port: 70000\n", "server.port"},
		{"BadSampling", "ai:\n  provider: mock\nmonitoring:\n  sampling_rate: 2\n", "sampling_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLive_ReloadsOnWrite(t *testing.T) {
	clearKeyEnv(t)
	path := writeConfig(t, "ai:\n  provider: mock\n")

	_, live, err := LoadLive(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 3, live.RetryPolicy().MaxRetries)

	require.NoError(t, os.WriteFile(path, []byte("ai:\n  provider: mock\n  retry:\n    max_retries: 1\ninventory:\n  expiring_soon_window: 24h\n"), 0o600))
	require.NoError(t, live.v.ReadInConfig())
	live.handleChange(fsnotify.Event{Name: path, Op: fsnotify.Write})

	assert.Equal(t, 1, live.RetryPolicy().MaxRetries)
	assert.Equal(t, 24*time.Hour, live.Settings().ExpiringSoonWindow)
}

func TestLive_InvalidChangeIsIgnored(t *testing.T) {
	clearKeyEnv(t)
	path := writeConfig(t, "ai:\n  provider: mock\n")

	_, live, err := LoadLive(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("ai:\n  provider: mock\n  retry:\n    max_retries: -4\n"), 0o600))
	require.NoError(t, live.v.ReadInConfig())
	live.handleChange(fsnotify.Event{Name: path, Op: fsnotify.Write})

	assert.Equal(t, 3, live.RetryPolicy().MaxRetries)
}

func TestLive_WatchWithoutFileIsNoop(t *testing.T) {
	l := NewLive(&Config{})
	assert.NotPanics(t, l.Watch)
}

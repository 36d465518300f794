package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStore_UploadAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewStore(root, zap.NewNop())
	require.NoError(t, err)

	key := outbound.PhotoKey(uuid.New(), time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC), ".jpg")
	path, err := store.Upload(context.Background(), key, []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, filepath.FromSlash(key)), path)
	assert.Contains(t, path, filepath.Join("photos", "2026", "02"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	require.NoError(t, store.Delete(context.Background(), key))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(context.Background(), key))
}

func TestStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), "../../etc/passwd", []byte("x"), "text/plain")
	assert.Error(t, err)
}

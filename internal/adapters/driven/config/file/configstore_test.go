package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_NestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	_, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[api\nbase_url ="), 0600))

	_, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
}

func TestConfigStore_ReadsNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[api]
base_url = "https://verify.example.com"
burst = 5
rate_per_second = 2.5

[poll]
interval = "3s"
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "https://verify.example.com", store.GetString("api.base_url"))
	assert.Equal(t, 5, store.GetInt("api.burst"))
	assert.InDelta(t, 2.5, store.GetFloat("api.rate_per_second"), 1e-9)
	assert.InDelta(t, 5.0, store.GetFloat("api.burst"), 1e-9)
	assert.Equal(t, "3s", store.GetString("poll.interval"))
}

func TestConfigStore_TypeMismatch(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("api.base_url", "http://localhost:8000"))

	assert.Equal(t, 0, store.GetInt("api.base_url"))
	assert.Zero(t, store.GetFloat("api.base_url"))
	assert.Empty(t, store.GetString("missing"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("api.base_url", "https://verify.example.com"))
	require.NoError(t, store.Set("api.burst", 7))
	require.NoError(t, store.Set("poll.interval", "1s"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[api]")
	assert.Contains(t, string(raw), "[poll]")

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "https://verify.example.com", reloaded.GetString("api.base_url"))
	assert.Equal(t, 7, reloaded.GetInt("api.burst"))
	assert.Equal(t, "1s", reloaded.GetString("poll.interval"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("api.timeout", "30s"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Load_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	_, ok := store.Get("api.base_url")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("poll.interval", "2s")
		}()
		go func() {
			defer wg.Done()
			_ = store.GetString("poll.interval")
		}()
	}
	wg.Wait()

	assert.Equal(t, "2s", store.GetString("poll.interval"))
}

func TestFlattenAndNest(t *testing.T) {
	flat := map[string]any{
		"api.base_url":  "http://localhost:8000",
		"api.burst":     int64(20),
		"poll.interval": "2s",
		"top":           "level",
	}

	nested := nestMap(flat)

	api, ok := nested["api"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:8000", api["base_url"])
	assert.Equal(t, "level", nested["top"])
	assert.Equal(t, flat, flattenMap(nested, ""))
}

func TestNestMap_KeepsConflictingKeysFlat(t *testing.T) {
	nested := nestMap(map[string]any{
		"api":          "plain",
		"api.base_url": "http://localhost:8000",
	})

	assert.Equal(t, "plain", nested["api"])
	flat := flattenMap(nested, "")
	assert.Len(t, flat, 2)
}

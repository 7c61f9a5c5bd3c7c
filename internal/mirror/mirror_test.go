package mirror_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/intellibotic/bot-api/internal/config"
	"github.com/intellibotic/bot-api/internal/mirror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "greeter", "greeter"},
		{"uppercase lowered", "Greeter", "greeter"},
		{"spaces stripped", "my bot", "mybot"},
		{"punctuation stripped", "bot!@#$%^&*()", "bot"},
		{"underscore and hyphen kept", "my_bot-v2", "my_bot-v2"},
		{"path separators stripped", "../../etc/passwd", "etcpasswd"},
		{"unicode stripped", "bøt-π", "bt-"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mirror.SanitizeFilename(tt.input))
		})
	}
}

func TestFilename(t *testing.T) {
	id := uuid.MustParse("A1B2C3D4-0000-0000-0000-000000000001")

	got := mirror.Filename(id, "My Bot!")
	assert.Equal(t, "a1b2c3d4-0000-0000-0000-000000000001_mybot.json", got)
}

func TestLocalStore_WriteAndOverwrite(t *testing.T) {
	dir := t.TempDir()
	store, err := mirror.NewLocalStore(dir)
	require.NoError(t, err)

	id := uuid.New()
	ctx := context.Background()

	err = store.Write(ctx, id, "greeter", json.RawMessage(`{"start":"hello"}`))
	require.NoError(t, err)

	path := store.Path(id, "greeter")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Pretty-printed, semantically identical payload
	assert.Contains(t, string(data), "\n")
	var payload map[string]string
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "hello", payload["start"])

	// Overwrite replaces the content in place
	err = store.Write(ctx, id, "greeter", json.RawMessage(`{"start":"hi"}`))
	require.NoError(t, err)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "hi", payload["start"])
}

func TestLocalStore_Delete(t *testing.T) {
	dir := t.TempDir()
	store, err := mirror.NewLocalStore(dir)
	require.NoError(t, err)

	id := uuid.New()
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, id, "greeter", json.RawMessage(`{}`)))
	require.NoError(t, store.Delete(ctx, id, "greeter"))

	_, err = os.Stat(store.Path(id, "greeter"))
	assert.True(t, os.IsNotExist(err))

	// Deleting an absent file is a no-op
	assert.NoError(t, store.Delete(ctx, id, "greeter"))
}

func TestLocalStore_ListAndRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := mirror.NewLocalStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Write(ctx, uuid.New(), fmt.Sprintf("bot-%d", i), json.RawMessage(`{}`)))
	}

	// Non-json files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("notes"), 0644))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 3)

	require.NoError(t, store.Remove(ctx, names[0]))

	names, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 2)

	// Removing an absent file is a no-op
	assert.NoError(t, store.Remove(ctx, "does-not-exist.json"))
}

func TestNewStore_Modes(t *testing.T) {
	logger := zap.NewNop()

	store, err := mirror.NewStore(&config.MirrorConfig{Mode: "local", LocalBasePath: t.TempDir()}, logger)
	require.NoError(t, err)
	assert.NotNil(t, store)

	_, err = mirror.NewStore(&config.MirrorConfig{Mode: "cloud"}, logger)
	assert.Error(t, err) // connection string required

	_, err = mirror.NewStore(&config.MirrorConfig{Mode: "ftp"}, logger)
	assert.Error(t, err)
}

package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Infinity2209/user/pkg/access"
	"github.com/Infinity2209/user/pkg/sdk"
)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", ".panel")
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = s.Load(ctx, "auth")
	assert.ErrorIs(t, err, sdk.ErrNoEntry)

	require.NoError(t, s.Save(ctx, "auth", []byte(`{"token":"t"}`)))
	info, err := os.Stat(filepath.Join(dir, "auth.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := s.Load(ctx, "auth")
	require.NoError(t, err)
	assert.Equal(t, `{"token":"t"}`, string(data))

	require.NoError(t, s.Remove(ctx, "auth"))
	require.NoError(t, s.Remove(ctx, "auth"))
	_, err = s.Load(ctx, "auth")
	assert.ErrorIs(t, err, sdk.ErrNoEntry)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../auth", `a\b`} {
		assert.Error(t, s.Save(context.Background(), key, []byte("x")), key)
	}
}

func TestFileStore_BacksSessionAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	identity := access.Identity{ID: "2", Name: "Regular User", Email: "user@company.com", Role: access.RoleUser}

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	m, err := sdk.NewSessionManager(ctx, first, nil)
	require.NoError(t, err)
	require.NoError(t, m.Login(ctx, identity, "tok"))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	restored, err := sdk.NewSessionManager(ctx, second, nil)
	require.NoError(t, err)
	assert.Equal(t, sdk.Authenticated, restored.State())
	assert.Equal(t, identity, *restored.Identity())

	// A corrupt record is discarded on start.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.json"), []byte("{"), 0600))
	corrupt, err := sdk.NewSessionManager(ctx, second, nil)
	require.NoError(t, err)
	assert.Equal(t, sdk.Anonymous, corrupt.State())
	_, err = os.Stat(filepath.Join(dir, "auth.json"))
	assert.True(t, os.IsNotExist(err))
}

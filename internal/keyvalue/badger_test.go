package keyvalue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/culture-center/internal/center"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	store, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveLoadRemove(t *testing.T) {
	ctx := context.Background()
	store := openInMemory(t)

	_, ok, err := store.Load(ctx, "token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, "token", "abc"))
	value, ok, err := store.Load(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", value)

	require.NoError(t, store.Remove(ctx, "token"))
	require.NoError(t, store.Remove(ctx, "token"))
	_, ok, err = store.Load(ctx, "token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "user", `{"id":"user-1"}`))
	require.NoError(t, store.Close())

	reopened, err := Open(Config{Path: dir})
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Load(ctx, "user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"user-1"}`, value)
}

func TestStore_HonoursCancelledContext(t *testing.T) {
	store := openInMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.Save(ctx, "token", "abc"))
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestStore_SaveAll(t *testing.T) {
	ctx := context.Background()
	store := openInMemory(t)

	var storage center.SessionStorage = store
	_, ok := storage.(center.BatchSessionStorage)
	require.True(t, ok, "the session store should use batch writes")

	require.NoError(t, store.SaveAll(ctx, map[string]string{
		center.TokenKey: "abc",
		center.UserKey:  `{"id":"user-1"}`,
	}))
	for key, want := range map[string]string{center.TokenKey: "abc", center.UserKey: `{"id":"user-1"}`} {
		value, found, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, want, value)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, store.SaveAll(cancelled, map[string]string{center.TokenKey: "other"}))
	value, _, err := store.Load(ctx, center.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "abc", value)
}

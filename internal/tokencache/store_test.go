package tokencache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "tokens.json"))
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)

	rec := Record{
		AccessToken:  "token-abc",
		ExpiresOn:    time.Now().Add(time.Hour).Truncate(time.Second),
		RefreshToken: "refresh-abc",
	}
	require.NoError(t, store.Put("work", rec))

	got, ok := store.Get("work")
	require.True(t, ok)
	assert.Equal(t, "token-abc", got.AccessToken)
	assert.Equal(t, "refresh-abc", got.RefreshToken)
	assert.True(t, got.ExpiresOn.Equal(rec.ExpiresOn))
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)

	_, ok := store.Get("nope")
	assert.False(t, ok)
}

func TestPutOverwrites(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put("work", Record{AccessToken: "old"}))
	require.NoError(t, store.Put("work", Record{AccessToken: "new"}))

	got, ok := store.Get("work")
	require.True(t, ok)
	assert.Equal(t, "new", got.AccessToken)
}

func TestDeleteIdempotent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put("work", Record{AccessToken: "t"}))
	require.NoError(t, store.Delete("work"))

	_, ok := store.Get("work")
	assert.False(t, ok)

	// Deleting again, or deleting something never cached, is a no-op.
	require.NoError(t, store.Delete("work"))
	require.NoError(t, store.Delete("never-existed"))
}

func TestDeleteAll(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put("a", Record{AccessToken: "ta"}))
	require.NoError(t, store.Put("b", Record{AccessToken: "tb"}))
	require.NoError(t, store.DeleteAll())

	_, ok := store.Get("a")
	assert.False(t, ok)
	_, ok = store.Get("b")
	assert.False(t, ok)

	// Idempotent even when the file is already gone.
	require.NoError(t, store.DeleteAll())
}

func TestCorruptCacheFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	store := NewStore(path)
	_, ok := store.Get("work")
	assert.False(t, ok)

	// A corrupt cache must not block new writes.
	require.NoError(t, store.Put("work", Record{AccessToken: "fresh"}))
	got, ok := store.Get("work")
	require.True(t, ok)
	assert.Equal(t, "fresh", got.AccessToken)
}

func TestRecordValid(t *testing.T) {
	assert.True(t, Record{
		AccessToken: "t",
		ExpiresOn:   time.Now().Add(time.Minute),
	}.Valid())

	assert.False(t, Record{
		AccessToken: "t",
		ExpiresOn:   time.Now().Add(-time.Minute),
	}.Valid())

	assert.False(t, Record{ExpiresOn: time.Now().Add(time.Minute)}.Valid())
}

func TestPreservesOtherAccounts(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put("a", Record{AccessToken: "ta"}))
	require.NoError(t, store.Put("b", Record{AccessToken: "tb"}))
	require.NoError(t, store.Delete("a"))

	got, ok := store.Get("b")
	require.True(t, ok)
	assert.Equal(t, "tb", got.AccessToken)
}

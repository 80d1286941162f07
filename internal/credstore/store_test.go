package credstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func storeContract(t *testing.T, s Store) {
	t.Helper()

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put("k", []byte("v1")))
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, s.Put("k", []byte("v2")))
	got, err = s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, s.Delete("k"))
	_, err = s.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete("k"), "deleting an absent entry is not an error")
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	storeContract(t, NewKeyringStore(""))
}

func TestFileStore(t *testing.T) {
	storeContract(t, newTestFileStore(t))
}

func TestFileStore_Permissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "creds")
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put(KeyTokens, []byte(`{"access_token":"secret"}`)))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())

	info, err = os.Stat(filepath.Join(dir, fileName(KeyTokens)))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStore_CorruptEntry(t *testing.T) {
	s := newTestFileStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), fileName("k")), []byte("not json"), 0600))

	_, err := s.Get("k")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "get", storeErr.Operation)
}

func TestFallbackStore(t *testing.T) {
	t.Run("uses primary when healthy", func(t *testing.T) {
		primary, secondary := NewMemoryStore(), NewMemoryStore()
		s := NewFallbackStore(primary, secondary)

		require.NoError(t, s.Put("k", []byte("v")))
		assert.Equal(t, 1, primary.Len())
		assert.Equal(t, 0, secondary.Len())
	})

	t.Run("falls back on backend error", func(t *testing.T) {
		keyring.MockInitWithError(errors.New("no secret service"))
		t.Cleanup(keyring.MockInit)

		secondary := NewMemoryStore()
		s := NewFallbackStore(NewKeyringStore(""), secondary)

		require.NoError(t, s.Put("k", []byte("v")))
		got, err := s.Get("k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), got)
		assert.Equal(t, 1, secondary.Len())
	})

	t.Run("reads entry written during an outage after primary recovers", func(t *testing.T) {
		keyring.MockInitWithError(errors.New("no secret service"))
		t.Cleanup(keyring.MockInit)

		secondary := NewMemoryStore()
		s := NewFallbackStore(NewKeyringStore(""), secondary)
		require.NoError(t, s.Put("k", []byte("v")))

		keyring.MockInit()
		got, err := s.Get("k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), got)
	})

	t.Run("not found in either store", func(t *testing.T) {
		s := NewFallbackStore(NewMemoryStore(), NewMemoryStore())

		_, err := s.Get("k")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("primary entry wins over secondary", func(t *testing.T) {
		primary, secondary := NewMemoryStore(), NewMemoryStore()
		require.NoError(t, primary.Put("k", []byte("fresh")))
		require.NoError(t, secondary.Put("k", []byte("stale")))
		s := NewFallbackStore(primary, secondary)

		got, err := s.Get("k")
		require.NoError(t, err)
		assert.Equal(t, []byte("fresh"), got)
	})

	t.Run("delete removes both", func(t *testing.T) {
		primary, secondary := NewMemoryStore(), NewMemoryStore()
		require.NoError(t, primary.Put("k", []byte("a")))
		require.NoError(t, secondary.Put("k", []byte("b")))
		s := NewFallbackStore(primary, secondary)

		require.NoError(t, s.Delete("k"))
		assert.Equal(t, 0, primary.Len())
		assert.Equal(t, 0, secondary.Len())
	})

	assert.Equal(t, "memory+memory", NewFallbackStore(NewMemoryStore(), NewMemoryStore()).Name())
}

func TestStoreError(t *testing.T) {
	cause := errors.New("boom")
	err := &StoreError{Operation: "put", Key: KeyTokens, Backend: "keychain", Cause: cause}
	assert.Equal(t, "put credential auth_tokens in keychain: boom", err.Error())
	assert.ErrorIs(t, err, cause)
}

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return s
}

package device

import (
	"errors"
	"runtime"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maybe/internal/credstore"
)

func newTestProvider(store credstore.Store) *Provider {
	p := NewProvider(store, "1.2.0", "42")
	p.hostname = func() (string, error) { return "ada-laptop", nil }
	p.platform = func() (string, string, string, error) { return "ubuntu", "debian", "24.04", nil }
	return p
}

func TestProvider_DeviceIDIsPersisted(t *testing.T) {
	store := credstore.NewMemoryStore()

	id, err := newTestProvider(store).DeviceID()
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	// A fresh provider over the same store sees the same id.
	again, err := newTestProvider(store).DeviceID()
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestProvider_Info(t *testing.T) {
	info, err := newTestProvider(credstore.NewMemoryStore()).Info()
	require.NoError(t, err)

	assert.NotEmpty(t, info.DeviceID)
	assert.Equal(t, "ada-laptop", info.DeviceName)
	assert.Equal(t, runtime.GOOS, info.DeviceType)
	assert.Equal(t, "ubuntu 24.04", info.OSVersion)
	assert.Equal(t, "1.2.0 (42)", info.AppVersion)
}

func TestProvider_Fallbacks(t *testing.T) {
	p := NewProvider(credstore.NewMemoryStore(), "", "")
	p.hostname = func() (string, error) { return "", errors.New("no hostname") }
	p.platform = func() (string, string, string, error) { return "", "", "", errors.New("unsupported") }

	info, err := p.Info()
	require.NoError(t, err)
	assert.Equal(t, "maybe-cli", info.DeviceName)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.OSVersion)
	assert.Equal(t, "dev (1)", info.AppVersion)
}

type failingStore struct{ credstore.MemoryStore }

func (*failingStore) Get(string) ([]byte, error) { return nil, errors.New("disk gone") }

func TestProvider_StoreFailure(t *testing.T) {
	_, err := newTestProvider(&failingStore{}).DeviceID()
	assert.Error(t, err)
}

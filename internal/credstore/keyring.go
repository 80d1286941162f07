package credstore

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// KeyringStore stores entries in the OS keychain: macOS Keychain, the
// Secret Service on Linux, or the Windows Credential Manager.
type KeyringStore struct {
	service string
}

// NewKeyringStore returns a keychain store scoped to service. An empty
// service defaults to ServiceName.
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = ServiceName
	}
	return &KeyringStore{service: service}
}

// Put overwrites the keychain item.
func (s *KeyringStore) Put(key string, value []byte) error {
	if err := keyring.Set(s.service, key, string(value)); err != nil {
		return &StoreError{Operation: "put", Key: key, Backend: s.Name(), Cause: err}
	}
	return nil
}

// Get reads the keychain item.
func (s *KeyringStore) Get(key string) ([]byte, error) {
	v, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Operation: "get", Key: key, Backend: s.Name(), Cause: err}
	}
	return []byte(v), nil
}

// Delete removes the keychain item.
func (s *KeyringStore) Delete(key string) error {
	if err := keyring.Delete(s.service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return &StoreError{Operation: "delete", Key: key, Backend: s.Name(), Cause: err}
	}
	return nil
}

func (s *KeyringStore) Name() string {
	return "keychain"
}

// KeyringAvailable probes the keychain with a read and reports whether the
// backend answered. A missing item counts as available.
func KeyringAvailable(service string) bool {
	if service == "" {
		service = ServiceName
	}
	_, err := keyring.Get(service, "probe")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

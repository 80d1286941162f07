package credstore

import "errors"

// ServiceName is the keychain service all entries are stored under.
const ServiceName = "MaybeApp"

// Entry keys of the persisted layout.
const (
	KeyTokens       = "auth_tokens"
	KeyUser         = "current_user"
	KeyDeviceID     = "device_id"
	KeyLegacyMarker = "legacy_cleared"
)

// LegacyKeys are entries written by earlier releases. They are removed once
// per installation by Vault.ClearLegacy.
var LegacyKeys = []string{"oauth_tokens", "tokens"}

// ErrNotFound is returned by Get when the entry does not exist.
var ErrNotFound = errors.New("credential not found")

// Store is a flat key/value credential backend. Implementations must be safe
// for concurrent use and must not hold locks across calls.
type Store interface {
	// Put creates or overwrites the entry.
	Put(key string, value []byte) error

	// Get returns the entry or ErrNotFound.
	Get(key string) ([]byte, error)

	// Delete removes the entry. Deleting an absent entry is not an error.
	Delete(key string) error

	// Name describes the backend for status output.
	Name() string
}

// StoreError indicates a credential storage backend failure.
type StoreError struct {
	Operation string // "get", "put", "delete"
	Key       string
	Backend   string
	Cause     error
}

func (e *StoreError) Error() string {
	msg := e.Operation + " credential"
	if e.Key != "" {
		msg += " " + e.Key
	}
	if e.Backend != "" {
		msg += " in " + e.Backend
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

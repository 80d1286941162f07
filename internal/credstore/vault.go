package credstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"maybe/pkg/auth"
	"maybe/pkg/logging"
)

// Vault is the typed view over the persisted session: the token pair in
// the secure store and the user profile in the profile store.
type Vault struct {
	secure  Store
	profile Store
}

// NewVault returns a vault over the two stores. They may be the same store.
func NewVault(secure, profile Store) *Vault {
	return &Vault{secure: secure, profile: profile}
}

// Secure returns the store holding tokens.
func (v *Vault) Secure() Store { return v.secure }

// Profile returns the store holding the user profile and device id.
func (v *Vault) Profile() Store { return v.profile }

// SaveTokens persists the token pair, replacing any previous one.
func (v *Vault) SaveTokens(tp auth.TokenPair) error {
	data, err := json.Marshal(tp)
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}
	if err := v.secure.Put(KeyTokens, data); err != nil {
		logging.Audit(logging.AuditEvent{Action: "token_store_failed", Outcome: "failure", Target: KeyTokens, Error: err.Error()})
		return fmt.Errorf("failed to persist tokens: %w", err)
	}
	logging.Audit(logging.AuditEvent{Action: "token_stored", Outcome: "success", Target: v.secure.Name()})
	return nil
}

// LoadTokens returns the stored token pair, or nil when none is stored or
// the entry cannot be read.
func (v *Vault) LoadTokens() *auth.TokenPair {
	data, ok := v.read(v.secure, KeyTokens)
	if !ok {
		return nil
	}
	var tp auth.TokenPair
	if err := json.Unmarshal(data, &tp); err != nil {
		logging.Warn("CredStore", "Discarding undecodable %s entry: %v", KeyTokens, err)
		return nil
	}
	if err := tp.Validate(); err != nil {
		logging.Warn("CredStore", "Discarding invalid %s entry: %v", KeyTokens, err)
		return nil
	}
	return &tp
}

// SaveUser persists the user profile.
func (v *Vault) SaveUser(u auth.UserProfile) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := v.profile.Put(KeyUser, data); err != nil {
		return fmt.Errorf("failed to persist user: %w", err)
	}
	return nil
}

// LoadUser returns the stored profile, or nil.
func (v *Vault) LoadUser() *auth.UserProfile {
	data, ok := v.read(v.profile, KeyUser)
	if !ok {
		return nil
	}
	var u auth.UserProfile
	if err := json.Unmarshal(data, &u); err != nil {
		logging.Warn("CredStore", "Discarding undecodable %s entry: %v", KeyUser, err)
		return nil
	}
	return &u
}

// Clear removes the token pair and the user profile.
func (v *Vault) Clear() error {
	err := errors.Join(v.secure.Delete(KeyTokens), v.profile.Delete(KeyUser))
	if err != nil {
		logging.Audit(logging.AuditEvent{Action: "token_delete_failed", Outcome: "failure", Target: KeyTokens, Error: err.Error()})
		return err
	}
	logging.Audit(logging.AuditEvent{Action: "token_deleted", Outcome: "success", Target: v.secure.Name()})
	return nil
}

// ClearLegacy removes entries left by earlier releases. It runs once per
// installation; later calls only check the marker. Returns whether the
// cleanup ran.
func (v *Vault) ClearLegacy() (bool, error) {
	if _, err := v.profile.Get(KeyLegacyMarker); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	var errs []error
	for _, key := range LegacyKeys {
		errs = append(errs, v.secure.Delete(key))
	}
	if err := errors.Join(errs...); err != nil {
		return false, fmt.Errorf("failed to clear legacy credentials: %w", err)
	}
	logging.Audit(logging.AuditEvent{Action: "legacy_tokens_cleared", Outcome: "success", Target: v.secure.Name()})

	if err := v.profile.Put(KeyLegacyMarker, []byte("true")); err != nil {
		return true, fmt.Errorf("failed to record legacy cleanup: %w", err)
	}
	return true, nil
}

func (v *Vault) read(s Store, key string) ([]byte, bool) {
	data, err := s.Get(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.Warn("CredStore", "Treating %s as absent: %v", key, err)
		}
		return nil, false
	}
	return data, true
}

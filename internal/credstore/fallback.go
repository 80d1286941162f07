package credstore

import (
	"errors"

	"maybe/pkg/logging"
)

// FallbackStore writes to and reads from primary, switching to secondary
// when primary reports a backend failure. Reads also consult secondary when
// primary has no entry, since a write made during a primary outage lives
// only there.
type FallbackStore struct {
	primary   Store
	secondary Store
}

// NewFallbackStore returns a store preferring primary over secondary.
func NewFallbackStore(primary, secondary Store) *FallbackStore {
	return &FallbackStore{primary: primary, secondary: secondary}
}

func (s *FallbackStore) Put(key string, value []byte) error {
	err := s.primary.Put(key, value)
	if err == nil {
		// Drop any stale copy so reads cannot diverge.
		_ = s.secondary.Delete(key)
		return nil
	}
	logging.Warn("CredStore", "%s unavailable for %s, using %s: %v", s.primary.Name(), key, s.secondary.Name(), err)
	return s.secondary.Put(key, value)
}

func (s *FallbackStore) Get(key string) ([]byte, error) {
	v, err := s.primary.Get(key)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, ErrNotFound) {
		return s.secondary.Get(key)
	}
	logging.Warn("CredStore", "%s unavailable for %s, reading %s: %v", s.primary.Name(), key, s.secondary.Name(), err)
	return s.secondary.Get(key)
}

// Delete removes the entry from both stores.
func (s *FallbackStore) Delete(key string) error {
	return errors.Join(s.primary.Delete(key), s.secondary.Delete(key))
}

func (s *FallbackStore) Name() string {
	return s.primary.Name() + "+" + s.secondary.Name()
}

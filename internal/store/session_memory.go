package store

import (
	"sync"

	"bookshop/internal/domain"
)

// MemorySessionStore keeps sessions in-process. Used in tests.
type MemorySessionStore struct {
	mu   sync.RWMutex
	sess map[string]domain.Session
}

// NewMemorySessionStore initializes an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sess: make(map[string]domain.Session)}
}

// Get resolves a token to its session state.
func (m *MemorySessionStore) Get(token string) (domain.Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sess[token]
	if !ok {
		return domain.Session{}, false, nil
	}
	return copySession(sess), true, nil
}

// Save writes session state under the token.
func (m *MemorySessionStore) Save(token string, sess domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess[token] = copySession(sess)
	return nil
}

// Delete removes a token mapping.
func (m *MemorySessionStore) Delete(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sess, token)
	return nil
}

// copySession detaches slices so callers cannot alias stored state. The
// Redis store gets the same isolation from serialization.
func copySession(sess domain.Session) domain.Session {
	out := domain.Session{UserID: sess.UserID}
	if len(sess.Cart) > 0 {
		out.Cart = append(domain.Cart(nil), sess.Cart...)
	}
	if len(sess.Flashes) > 0 {
		out.Flashes = append([]string(nil), sess.Flashes...)
	}
	return out
}

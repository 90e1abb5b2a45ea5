package service

import (
	"sync"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-onboarding/app/wizard"
)

// SessionRegistry holds the live wizard sessions. Snapshots are durable in
// the key-value store; this map only carries in-flight step progress, which
// is reconstructed through progress recovery after a restart.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*wizard.Session
	store    wizard.KeyValueStore
}

func NewSessionRegistry(store wizard.KeyValueStore) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*wizard.Session),
		store:    store,
	}
}

// Create registers a session under the given ID, or a fresh UUID when empty.
// If a session with the ID is already live (a racing open won), that session
// is returned instead of replacing it.
func (r *SessionRegistry) Create(id string) *wizard.Session {
	if id == "" {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[id]; ok {
		return existing
	}

	session := wizard.NewSession(id, r.store)
	r.sessions[id] = session
	return session
}

func (r *SessionRegistry) Get(id string) (*wizard.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	return session, ok
}

func (r *SessionRegistry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

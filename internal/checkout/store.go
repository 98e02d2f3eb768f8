package checkout

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps in-progress sessions keyed by user
type Store interface {
	Load(userID uuid.UUID) (Session, bool)
	Save(session Session)
	Delete(userID uuid.UUID)
}

// MemoryStore is a process-local Store; sessions vanish on restart
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]Session
}

// NewMemoryStore creates an empty session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[uuid.UUID]Session)}
}

func (m *MemoryStore) Load(userID uuid.UUID) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

func (m *MemoryStore) Save(session Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.UserID] = session
}

func (m *MemoryStore) Delete(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Len returns the number of live sessions
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Expire drops sessions started before cutoff and reports how many went
func (m *MemoryStore) Expire(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for id, s := range m.sessions {
		if s.StartedAt.Before(cutoff) {
			delete(m.sessions, id)
			dropped++
		}
	}
	return dropped
}

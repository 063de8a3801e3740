package httpapi

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// SessionMap retains one flusher per open /sse connection, keyed by
// sessionId, so the notify layer can publish to a specific session.
type SessionMap struct {
	mu      sync.RWMutex
	clients map[string]http.Flusher
}

func NewSessionMap() *SessionMap {
	return &SessionMap{clients: map[string]http.Flusher{}}
}

func (m *SessionMap) Add(sessionID string, f http.Flusher) {
	m.mu.Lock()
	m.clients[sessionID] = f
	m.mu.Unlock()
}

func (m *SessionMap) Remove(sessionID string) {
	m.mu.Lock()
	delete(m.clients, sessionID)
	m.mu.Unlock()
}

func (m *SessionMap) Has(sessionID string) bool {
	m.mu.RLock()
	_, ok := m.clients[sessionID]
	m.mu.RUnlock()
	return ok
}

func newSessionID() string {
	return uuid.NewString()
}

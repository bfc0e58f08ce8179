// apps/go-server/internal/store/memory.go
//
// In-memory implementation of the session Store interface.
// Active hangman rounds are deliberately ephemeral: only finished results
// are persisted (to SQLite, by the HTTP layer), so this map is the sole
// home of in-flight round state.
//
// Characteristics:
//   - Stores *Session objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex; the engine inside a session is not,
//     so callers must hold a session's own lock while mutating the round.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/hangman/apps/go-server/internal/game"
)

// ErrNotFound is returned by Get for unknown session IDs.
var ErrNotFound = errors.New("store: session not found")

// Session wraps one engine instance running one round, plus the metadata
// the HTTP layer needs for persistence.
type Session struct {
	ID        string
	Round     *game.Manager
	Budget    int // guess budget the round started with
	StartedAt time.Time

	// Mu serializes access to Round; the engine is not safe for concurrent use.
	Mu sync.Mutex
}

// Store defines the persistence interface for round sessions.
// Implementations may be backed by memory (this package), Redis, etc.
type Store interface {
	// Save persists or updates a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session by ID.
	// Returns ErrNotFound if the session does not exist.
	Get(ctx context.Context, id string) (*Session, error)
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session)}
}

// Save adds or updates the session in the map.
func (m *memory) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

// Get looks up a session by ID.
func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

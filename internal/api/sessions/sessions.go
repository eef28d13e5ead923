// Package sessions holds the interactive simulation sessions created over
// the REST API. Sessions expire after a TTL of inactivity.
package sessions

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"sync"
	"time"

	"charging-robots/internal/sim"
)

// Session pairs one kernel with its bookkeeping. The kernel is
// single-threaded; callers must hold Mu across Step and snapshot reads.
type Session struct {
	ID        string
	Sim       *sim.Simulator
	Scale     string
	Seed      int64
	Done      bool
	CreatedAt time.Time

	Mu       sync.Mutex
	lastUsed time.Time
}

// Touch refreshes the session's expiry clock.
func (s *Session) Touch() {
	s.Mu.Lock()
	s.lastUsed = time.Now()
	s.Mu.Unlock()
}

// Store is a TTL-bounded session table.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewStore builds a store with the given idle TTL. A non-positive TTL
// falls back to one hour; SIM_SESSION_TTL overrides it.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if raw := os.Getenv("SIM_SESSION_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			ttl = parsed
		}
	}
	st := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
	go st.cleanup()
	return st
}

// Create registers a new session around the simulator.
func (st *Store) Create(s *sim.Simulator) *Session {
	now := time.Now()
	sess := &Session{
		ID:        newID(),
		Sim:       s,
		CreatedAt: now,
		lastUsed:  now,
	}
	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()
	return sess
}

// Get returns the session and refreshes its expiry.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		sess.Touch()
	}
	return sess, ok
}

// Delete removes a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the live session count.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// cleanup periodically drops sessions idle past the TTL.
func (st *Store) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-st.ttl)
		st.mu.Lock()
		for id, sess := range st.sessions {
			sess.Mu.Lock()
			idle := sess.lastUsed.Before(cutoff)
			sess.Mu.Unlock()
			if idle {
				delete(st.sessions, id)
			}
		}
		st.mu.Unlock()
	}
}

func newID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return hex.EncodeToString([]byte(time.Now().Format("150405.000000000")))
	}
	return hex.EncodeToString(buf[:])
}

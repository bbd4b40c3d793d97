package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session owns the databases loaded by one user. It starts empty and is
// discarded when it ends or expires; nothing in it is persisted.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.RWMutex
	databases []*LoadedDatabase
	lastSeen  time.Time
}

// NewSession creates an empty session with a fresh ID.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		lastSeen:  now,
	}
}

// Add appends a database. Names are not required to be unique.
func (s *Session) Add(db *LoadedDatabase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.databases = append(s.databases, db)
}

// Remove deletes every database with the given name and returns how many
// were removed.
func (s *Session) Remove(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.databases[:0]
	removed := 0
	for _, db := range s.databases {
		if db.Name == name {
			removed++
			continue
		}
		kept = append(kept, db)
	}
	for i := len(kept); i < len(s.databases); i++ {
		s.databases[i] = nil
	}
	s.databases = kept
	return removed
}

// Databases returns a snapshot of the loaded databases in load order.
func (s *Session) Databases() []*LoadedDatabase {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*LoadedDatabase, len(s.databases))
	copy(out, s.databases)
	return out
}

// Summaries returns the list view of every loaded database.
func (s *Session) Summaries() []Summary {
	dbs := s.Databases()
	out := make([]Summary, len(dbs))
	for i, db := range dbs {
		out[i] = db.Summary()
	}
	return out
}

// Len returns the number of loaded databases.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.databases)
}

// Clear drops every loaded database.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.databases = nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

// SessionStore holds the live sessions of the process.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	onChange func(active int)
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Create starts a new empty session.
func (st *SessionStore) Create() *Session {
	sess := NewSession()

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	n := len(st.sessions)
	st.mu.Unlock()

	st.notify(n)
	return sess
}

// Get returns the session with the given ID and marks it as used.
func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(time.Now())
	return sess, nil
}

// End discards a session and everything loaded into it.
func (st *SessionStore) End(id string) error {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
	}
	n := len(st.sessions)
	st.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.Clear()
	st.notify(n)
	return nil
}

// Expire ends every session idle since before cutoff and returns how many
// were removed.
func (st *SessionStore) Expire(cutoff time.Time) int {
	st.mu.Lock()
	var expired []*Session
	for id, sess := range st.sessions {
		if sess.LastSeen().Before(cutoff) {
			expired = append(expired, sess)
			delete(st.sessions, id)
		}
	}
	n := len(st.sessions)
	st.mu.Unlock()

	for _, sess := range expired {
		sess.Clear()
	}
	if len(expired) > 0 {
		st.notify(n)
	}
	return len(expired)
}

// Count returns the number of live sessions.
func (st *SessionStore) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// OnChange registers a callback invoked with the live session count after
// sessions are created or removed.
func (st *SessionStore) OnChange(fn func(active int)) {
	st.mu.Lock()
	st.onChange = fn
	st.mu.Unlock()
}

func (st *SessionStore) notify(n int) {
	st.mu.RLock()
	fn := st.onChange
	st.mu.RUnlock()
	if fn != nil {
		fn(n)
	}
}

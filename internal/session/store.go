package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Well-known session keys. The password entry lives only in server
// memory for the lifetime of the session; it is never written to disk
// or handed to the client.
const (
	KeyIdentityID = "identity_id"
	KeyPassword   = "password"
)

// Store exposes per-session key/value state. A session is created on
// successful login and destroyed on logout or expiry; every mailbox
// operation consults it.
type Store interface {
	// Create allocates a new session and returns its opaque id.
	Create(ttl time.Duration) string

	// Get returns the value bound to key in the given session.
	Get(sid, key string) (string, bool)

	// Put binds a value to key in the given session.
	Put(sid, key, value string)

	// Forget removes a single key from the session.
	Forget(sid, key string)

	// Has reports whether the session exists and holds key.
	Has(sid, key string) bool

	// Destroy removes the session and all of its keys atomically.
	Destroy(sid string)
}

type sessionData struct {
	values    map[string]string
	expiresAt time.Time
}

// MemoryStore is the server-side session backend: an in-process map
// with TTL expiry. Expired sessions are swept lazily on access and
// whenever a new session is created.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionData
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*sessionData),
	}
}

// Create allocates a new session with the given lifetime.
func (s *MemoryStore) Create(ttl time.Duration) string {
	sid := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.sessions[sid] = &sessionData{
		values:    make(map[string]string),
		expiresAt: time.Now().Add(ttl),
	}
	return sid
}

// Get returns the value bound to key in the given session.
func (s *MemoryStore) Get(sid, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.liveLocked(sid)
	if data == nil {
		return "", false
	}
	value, ok := data.values[key]
	return value, ok
}

// Put binds a value to key in the given session. Writes to unknown or
// expired sessions are dropped.
func (s *MemoryStore) Put(sid, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data := s.liveLocked(sid); data != nil {
		data.values[key] = value
	}
}

// Forget removes a single key from the session.
func (s *MemoryStore) Forget(sid, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data := s.liveLocked(sid); data != nil {
		delete(data.values, key)
	}
}

// Has reports whether the session exists and holds key.
func (s *MemoryStore) Has(sid, key string) bool {
	_, ok := s.Get(sid, key)
	return ok
}

// Destroy removes the session and all of its keys.
func (s *MemoryStore) Destroy(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
}

// liveLocked returns the session if it exists and has not expired,
// dropping it otherwise. Callers must hold the mutex.
func (s *MemoryStore) liveLocked(sid string) *sessionData {
	data, ok := s.sessions[sid]
	if !ok {
		return nil
	}
	if time.Now().After(data.expiresAt) {
		delete(s.sessions, sid)
		return nil
	}
	return data
}

// sweepLocked drops every expired session. Callers must hold the mutex.
func (s *MemoryStore) sweepLocked() {
	now := time.Now()
	for sid, data := range s.sessions {
		if now.After(data.expiresAt) {
			delete(s.sessions, sid)
		}
	}
}

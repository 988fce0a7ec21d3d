package session

import (
	"testing"
	"time"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore()

	sid := s.Create(time.Minute)
	if sid == "" {
		t.Fatal("Create returned an empty session id")
	}

	s.Put(sid, KeyIdentityID, "42")
	if !s.Has(sid, KeyIdentityID) {
		t.Error("Has should report the stored key")
	}

	value, ok := s.Get(sid, KeyIdentityID)
	if !ok || value != "42" {
		t.Errorf("Get = %q, %v; want \"42\", true", value, ok)
	}

	s.Forget(sid, KeyIdentityID)
	if s.Has(sid, KeyIdentityID) {
		t.Error("Has should not report a forgotten key")
	}

	s.Put(sid, KeyPassword, "secret")
	s.Destroy(sid)
	if s.Has(sid, KeyPassword) {
		t.Error("Destroy should drop every key of the session")
	}
}

func TestMemoryStoreUnknownSession(t *testing.T) {
	s := NewMemoryStore()

	if _, ok := s.Get("no-such-session", KeyIdentityID); ok {
		t.Error("Get on an unknown session should report absence")
	}

	// Writes to unknown sessions are dropped, not resurrected.
	s.Put("no-such-session", KeyIdentityID, "42")
	if s.Has("no-such-session", KeyIdentityID) {
		t.Error("Put must not create a session implicitly")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()

	sid := s.Create(-time.Second)
	s.Put(sid, KeyIdentityID, "42")

	if s.Has(sid, KeyIdentityID) {
		t.Error("an expired session should not answer Has")
	}
	if _, ok := s.Get(sid, KeyIdentityID); ok {
		t.Error("an expired session should not answer Get")
	}
}

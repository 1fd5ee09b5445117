package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestSessionStore(t *testing.T, revoker TokenRevoker) *JWTSessionStore {
	t.Helper()
	s, err := NewJWTSessionStore("test-secret", time.Minute, revoker, JWTOptions{})
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	return s
}

func TestJWTSessionRoundTrip(t *testing.T) {
	s := newTestSessionStore(t, NewMemoryTokenRevoker())
	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	uid, ok, err := s.GetUserIDByToken(token)
	if err != nil {
		t.Fatalf("resolve token: %v", err)
	}
	if !ok || uid != "user-1" {
		t.Fatalf("resolve token = %q, %v; want user-1", uid, ok)
	}
}

func TestJWTSessionRejectsGarbageAndForeignTokens(t *testing.T) {
	s := newTestSessionStore(t, nil)
	if _, ok, err := s.GetUserIDByToken("not-a-jwt"); err != nil || ok {
		t.Fatalf("garbage token: ok=%v err=%v", ok, err)
	}

	other := newTestSessionStore(t, nil)
	other.secret = []byte("different-secret")
	foreign, err := other.NewSession("user-1")
	if err != nil {
		t.Fatalf("new foreign session: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(foreign); ok {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestJWTSessionDeleteRevokesToken(t *testing.T) {
	s := newTestSessionStore(t, NewMemoryTokenRevoker())
	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatal("expected revoked token to be rejected")
	}
}

func TestRedisTokenRevoker(t *testing.T) {
	redis := miniredis.RunT(t)
	revoker := NewRedisTokenRevoker(redis.Addr(), "")

	if err := revoker.Revoke("tok-1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := revoker.IsRevoked("tok-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatal("expected tok-1 to be revoked")
	}
	revoked, err = revoker.IsRevoked("tok-2")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatal("expected tok-2 to not be revoked")
	}

	// revocation entries expire with the token
	redis.FastForward(2 * time.Minute)
	revoked, _ = revoker.IsRevoked("tok-1")
	if revoked {
		t.Fatal("expected revocation to expire")
	}

	s := newTestSessionStore(t, revoker)
	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatal("expected redis-revoked token to be rejected")
	}
}

package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestLimiter(t *testing.T, limit int) (*FixedWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(mr.Addr(), "", "farmconnect:ratelimit:login", limit, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	return limiter, mr
}

func TestAllowEnforcesQuotaWithinWindow(t *testing.T) {
	limiter, _ := newTestLimiter(t, 3)
	key := "/api/auth/login|203.0.113.7"
	for i := 0; i < 3; i++ {
		if !limiter.Allow(key) {
			t.Fatalf("request %d should be within quota", i+1)
		}
	}
	if limiter.Allow(key) {
		t.Fatal("request over quota should be blocked")
	}
}

func TestAllowTracksKeysIndependently(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1)
	if !limiter.Allow("/api/auth/login|203.0.113.7") {
		t.Fatal("first client should pass")
	}
	if limiter.Allow("/api/auth/login|203.0.113.7") {
		t.Fatal("first client should be exhausted")
	}
	if !limiter.Allow("/api/auth/login|198.51.100.4") {
		t.Fatal("a different client must have its own quota")
	}
	if !limiter.Allow("/api/auth/signup|203.0.113.7") {
		t.Fatal("a different endpoint must have its own quota")
	}
}

func TestAllowFailsClosedWhenRedisDown(t *testing.T) {
	limiter, mr := newTestLimiter(t, 10)
	mr.Close()
	if limiter.Allow("/api/auth/login|203.0.113.7") {
		t.Fatal("limiter should fail closed when redis is unreachable")
	}
}

func TestAllowNormalizesEmptyKey(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1)
	if !limiter.Allow("") {
		t.Fatal("first anonymous request should pass")
	}
	if limiter.Allow("  ") {
		t.Fatal("blank keys should share the same bucket and be exhausted")
	}
}

func TestConstructorValidation(t *testing.T) {
	mr := miniredis.RunT(t)
	cases := []struct {
		addr   string
		limit  int
		window time.Duration
	}{
		{"", 1, time.Minute},
		{mr.Addr(), 0, time.Minute},
		{mr.Addr(), 1, 0},
	}
	for i, tc := range cases {
		limiter, err := NewRedisFixedWindowLimiter(tc.addr, "", "farmconnect:ratelimit", tc.limit, tc.window)
		if err == nil || limiter != nil {
			t.Fatalf("case %d: expected constructor rejection (%s)", i, fmt.Sprintf("addr=%q limit=%d window=%v", tc.addr, tc.limit, tc.window))
		}
	}
}
